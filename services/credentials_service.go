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

// CredentialsService stores the per-journal RQC credentials. A pair is
// only persisted after the live service has confirmed it.
type CredentialsService struct {
	db     *gorm.DB
	client *RQCClient
}

// NewCredentialsService constructs a CredentialsService.
func NewCredentialsService(db *gorm.DB, client *RQCClient) *CredentialsService {
	if db == nil {
		db = config.DB
	}
	if client == nil {
		client = NewRQCClient(db, nil, nil)
	}
	return &CredentialsService{db: db, client: client}
}

// Validate checks the pair against the live mhs_apikeycheck endpoint.
func (s *CredentialsService) Validate(ctx context.Context, rqcJournalID int, apiKey string) CallResult {
	if ok, msg := utils.ValidateAPIKey(apiKey); !ok {
		return CallResult{HTTPStatusCode: ErrCodeRequest, Message: msg}
	}
	return s.client.CheckAPIKey(ctx, rqcJournalID, apiKey)
}

// Save validates and then upserts the credentials for the journal. The
// returned CallResult carries the verification outcome; nothing is written
// when verification fails.
func (s *CredentialsService) Save(ctx context.Context, journalID, rqcJournalID int, apiKey string) (CallResult, error) {
	result := s.Validate(ctx, rqcJournalID, apiKey)
	if !result.Success {
		return result, nil
	}

	credentials := models.JournalAPICredentials{
		JournalID:    journalID,
		RQCJournalID: rqcJournalID,
		APIKey:       apiKey,
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "journal_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rqc_journal_id", "api_key"}),
		}).
		Create(&credentials).Error
	return result, err
}

// Get returns the journal's credentials, or nil when none are stored.
func (s *CredentialsService) Get(ctx context.Context, journalID int) (*models.JournalAPICredentials, error) {
	var credentials models.JournalAPICredentials
	err := s.db.WithContext(ctx).Where("journal_id = ?", journalID).First(&credentials).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &credentials, nil
}
