package services

import (
	"context"
	"errors"

	"rqc-adapter-api/config"
	"rqc-adapter-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CallRecordService keeps the per-article submission baseline: the editor
// assignment set of the first successful call and the sent flag on the
// consent snapshots. Both exist so that an interactive call and a scheduled
// retry for the same article can interleave without producing diverging
// payloads.
type CallRecordService struct {
	db *gorm.DB
}

// NewCallRecordService constructs a CallRecordService.
func NewCallRecordService(db *gorm.DB) *CallRecordService {
	if db == nil {
		db = config.DB
	}
	return &CallRecordService{db: db}
}

// RecordSuccessfulSubmission stores the transmitted editor set for the
// article (first success wins, later successes leave it untouched) and
// marks the consent snapshots of all still-live (not declined) assignments
// as sent. Implements CallRecorder.
func (s *CallRecordService) RecordSuccessfulSubmission(ctx context.Context, articleID int, editorAssignments []byte) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record := models.CallRecord{ArticleID: articleID, EditorAssignments: editorAssignments}
		if err := tx.
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "article_id"}}, DoNothing: true}).
			Create(&record).Error; err != nil {
			return err
		}

		// Reviews already reported must be resent on subsequent calls even
		// if the reviewer declines afterwards, so only snapshots of live
		// assignments change state here.
		live := tx.Model(&models.ReviewAssignment{}).
			Select("id").
			Where("article_id = ? AND date_declined IS NULL", articleID)
		return tx.Model(&models.ReviewerOptingDecisionForAssignment{}).
			Where("review_assignment_id IN (?)", live).
			Update("sent_to_rqc", true).Error
	})
}

// FrozenEditorAssignments returns the recorded editor set for the article,
// or found=false when the article has never been successfully submitted.
func (s *CallRecordService) FrozenEditorAssignments(ctx context.Context, articleID int) ([]byte, bool, error) {
	var record models.CallRecord
	err := s.db.WithContext(ctx).Where("article_id = ?", articleID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return record.EditorAssignments, true, nil
}
