package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rqc-adapter-api/config"
	"rqc-adapter-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OptingService manages the yearly opting decisions and their
// per-assignment snapshots.
type OptingService struct {
	db *gorm.DB
}

// NewOptingService constructs an OptingService.
func NewOptingService(db *gorm.DB) *OptingService {
	if db == nil {
		db = config.DB
	}
	return &OptingService{db: db}
}

// RecordDecision writes the reviewer's yearly decision for a journal with a
// fresh decision timestamp, superseding any earlier one, and propagates the
// new status into every snapshot that is still live: not sent to RQC, not
// complete, not declined. Frozen snapshots stay as they were.
func (s *OptingService) RecordDecision(ctx context.Context, reviewerID, journalID, status int) error {
	if status != models.OptingOptIn && status != models.OptingOptOut {
		return fmt.Errorf("invalid opting status %d", status)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		decision := models.ReviewerOptingDecision{
			ReviewerID:   reviewerID,
			JournalID:    journalID,
			OptingStatus: status,
			OptingDate:   time.Now().UTC(),
		}
		if err := tx.
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "reviewer_id"}, {Name: "journal_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"opting_status", "opting_date"}),
			}).
			Create(&decision).Error; err != nil {
			return err
		}

		live := tx.Model(&models.ReviewAssignment{}).
			Select("id").
			Where("reviewer_id = ? AND journal_id = ? AND is_complete = ? AND date_declined IS NULL",
				reviewerID, journalID, false)
		return tx.Model(&models.ReviewerOptingDecisionForAssignment{}).
			Where("reviewer_id = ? AND sent_to_rqc = ? AND review_assignment_id IN (?)", reviewerID, false, live).
			Update("opting_status", status).Error
	})
}

// CurrentDecision returns the reviewer's decision for the journal, whether
// still valid or not. Callers check validity via IsValid.
func (s *OptingService) CurrentDecision(ctx context.Context, reviewerID, journalID int) (*models.ReviewerOptingDecision, error) {
	var decision models.ReviewerOptingDecision
	err := s.db.WithContext(ctx).
		Where("reviewer_id = ? AND journal_id = ?", reviewerID, journalID).
		First(&decision).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &decision, nil
}

// HasOptedInOrOut reports whether the reviewer made an explicit choice that
// is still valid for the current UTC year.
func (s *OptingService) HasOptedInOrOut(ctx context.Context, reviewerID, journalID int) (bool, error) {
	decision, err := s.CurrentDecision(ctx, reviewerID, journalID)
	if err != nil {
		return false, err
	}
	if decision == nil || !decision.IsValid() {
		return false, nil
	}
	return decision.OptingStatus == models.OptingOptIn || decision.OptingStatus == models.OptingOptOut, nil
}

// CreateAssignmentSnapshot freezes the then-current yearly decision to a
// review assignment the reviewer just accepted. Without a valid yearly
// decision the snapshot starts UNDEFINED, which anonymizes like OPT_OUT.
// Journals without RQC credentials never get snapshots. Repeated acceptance
// events leave an existing snapshot untouched.
func (s *OptingService) CreateAssignmentSnapshot(ctx context.Context, assignment *models.ReviewAssignment) error {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.JournalAPICredentials{}).
		Where("journal_id = ?", assignment.JournalID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return nil
	}

	status := models.OptingUndefined
	decision, err := s.CurrentDecision(ctx, assignment.ReviewerID, assignment.JournalID)
	if err != nil {
		return err
	}
	if decision != nil && decision.IsValid() {
		status = decision.OptingStatus
	}

	snapshot := models.ReviewerOptingDecisionForAssignment{
		ReviewerID:         assignment.ReviewerID,
		ReviewAssignmentID: assignment.ID,
		OptingStatus:       status,
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "review_assignment_id"}}, DoNothing: true}).
		Create(&snapshot).Error
}
