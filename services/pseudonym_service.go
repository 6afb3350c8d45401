package services

import (
	"context"
	"errors"

	"rqc-adapter-api/config"
	"rqc-adapter-api/models"
	"rqc-adapter-api/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PseudonymService hands out per-journal salts and pseudo addresses for
// reviewers who have not opted in.
type PseudonymService struct {
	db *gorm.DB
}

// NewPseudonymService constructs a PseudonymService.
func NewPseudonymService(db *gorm.DB) *PseudonymService {
	if db == nil {
		db = config.DB
	}
	return &PseudonymService{db: db}
}

// EnsureJournalSalt returns the journal's salt, creating it on first use.
// The insert ignores duplicate-key conflicts and the value is re-read
// afterwards, so concurrent first uses agree on a single stored salt and an
// existing salt is never overwritten.
func (s *PseudonymService) EnsureJournalSalt(ctx context.Context, journalID int) (string, error) {
	var row models.JournalSalt
	err := s.db.WithContext(ctx).Where("journal_id = ?", journalID).First(&row).Error
	if err == nil {
		return row.Salt, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	salt, err := utils.GenerateRandomSalt(utils.SaltLength)
	if err != nil {
		return "", err
	}
	fresh := models.JournalSalt{JournalID: journalID, Salt: salt}
	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "journal_id"}}, DoNothing: true}).
		Create(&fresh).Error; err != nil {
		return "", err
	}

	// Re-read in case a concurrent request won the insert.
	if err := s.db.WithContext(ctx).Where("journal_id = ?", journalID).First(&row).Error; err != nil {
		return "", err
	}
	return row.Salt, nil
}

// PseudoAddressFor returns the stable anonymous address for a reviewer
// email within a journal.
func (s *PseudonymService) PseudoAddressFor(ctx context.Context, journalID int, email string) (string, error) {
	salt, err := s.EnsureJournalSalt(ctx, journalID)
	if err != nil {
		return "", err
	}
	return utils.CreatePseudoAddress(email, salt), nil
}
