package services

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"rqc-adapter-api/config"
	"rqc-adapter-api/models"

	"gorm.io/gorm"
)

// RetrySummary describes one drain of the delayed-call ledger.
type RetrySummary struct {
	Processed int  `json:"processed"`
	Succeeded int  `json:"succeeded"`
	Deleted   int  `json:"deleted"`
	Kept      int  `json:"kept"`
	Halted    bool `json:"halted"`
}

// DelayedCallService persists retry-eligible failed submissions and drains
// them on the daily schedule.
type DelayedCallService struct {
	db            *gorm.DB
	payloads      *PayloadService
	client        *RQCClient
	credentials   *CredentialsService
	notifications *NotificationService
}

// NewDelayedCallService constructs a DelayedCallService.
func NewDelayedCallService(db *gorm.DB) *DelayedCallService {
	if db == nil {
		db = config.DB
	}
	client := NewRQCClient(db, nil, NewCallRecordService(db))
	return &DelayedCallService{
		db:            db,
		payloads:      NewPayloadService(db),
		client:        client,
		credentials:   NewCredentialsService(db, client),
		notifications: NewNotificationService(db),
	}
}

// Schedule records a failed submission for later retry with a fresh budget.
// Only retryable classifications (5xx, connectivity) belong here; callers
// keep 4xx failures out of the ledger.
func (s *DelayedCallService) Schedule(ctx context.Context, articleID int, statusCode int) error {
	now := time.Now().UTC()
	call := models.DelayedCall{
		ArticleID:      articleID,
		RemainingTries: models.DefaultRemainingTries,
		FailureReason:  strconv.Itoa(statusCode),
		LastAttemptAt:  &now,
	}
	return s.db.WithContext(ctx).Create(&call).Error
}

// Pending returns the ledger in processing order: oldest attempt first
// (never-attempted entries before everything), so long-failing entries get
// priority.
func (s *DelayedCallService) Pending(ctx context.Context) ([]models.DelayedCall, error) {
	var calls []models.DelayedCall
	err := s.db.WithContext(ctx).
		Order("last_attempt_at ASC, id ASC").
		Find(&calls).Error
	return calls, err
}

// RunPending drains the ledger once. Each entry gets a freshly built
// payload (never the stale one from the original failure) and exactly one
// attempt. The run halts after the first retryable failure: when RQC is
// down there is no point hammering it with the rest of the queue, the next
// scheduled run picks it up.
func (s *DelayedCallService) RunPending(ctx context.Context) (*RetrySummary, error) {
	summary := &RetrySummary{}

	calls, err := s.Pending(ctx)
	if err != nil {
		return nil, err
	}

	for i := range calls {
		call := &calls[i]

		// Entries without budget are invalid and removed unattempted.
		if !call.IsValid() {
			s.delete(ctx, call, summary)
			continue
		}

		summary.Processed++
		halt := s.retryOne(ctx, call, summary)
		if halt {
			summary.Halted = true
			break
		}
	}

	log.Printf("rqc retry run: processed=%d succeeded=%d deleted=%d kept=%d halted=%v",
		summary.Processed, summary.Succeeded, summary.Deleted, summary.Kept, summary.Halted)
	return summary, nil
}

// retryOne performs one attempt for one ledger entry. Returns true when the
// run should halt for the day.
func (s *DelayedCallService) retryOne(ctx context.Context, call *models.DelayedCall, summary *RetrySummary) bool {
	var article models.Article
	if err := s.db.WithContext(ctx).Where("article_id = ?", call.ArticleID).First(&article).Error; err != nil {
		log.Printf("delayed call %d: article %d not found, dropping: %v", call.ID, call.ArticleID, err)
		s.delete(ctx, call, summary)
		return false
	}

	credentials, err := s.credentials.Get(ctx, article.JournalID)
	if err != nil {
		log.Printf("delayed call %d: credentials lookup failed: %v", call.ID, err)
		return false
	}
	if credentials == nil {
		// The journal disabled RQC since the failure; the report is moot.
		log.Printf("delayed call %d: journal %d has no credentials, dropping", call.ID, article.JournalID)
		s.delete(ctx, call, summary)
		return false
	}

	payload, err := s.payloads.BuildSubmissionPayload(ctx, &article, "", nil)
	if err != nil {
		log.Printf("delayed call %d: payload build failed: %v", call.ID, err)
		s.recordAttempt(ctx, call, fmt.Sprintf("build: %v", err), summary)
		return false
	}

	result := s.client.Submit(ctx, credentials.RQCJournalID, credentials.APIKey, article.ArticleID, payload)
	if result.Success {
		summary.Succeeded++
		s.delete(ctx, call, summary)
		return false
	}

	if !result.Retryable() {
		// A 4xx will not fix itself by waiting; drop the entry.
		log.Printf("delayed call %d: non-retryable status %d, dropping", call.ID, result.HTTPStatusCode)
		s.delete(ctx, call, summary)
		return false
	}

	exhausted := s.recordAttempt(ctx, call, strconv.Itoa(result.HTTPStatusCode), summary)
	if exhausted {
		s.notifications.NotifyRetriesExhausted(ctx, &article, call.FailureReason)
	}
	return true
}

// recordAttempt burns one try and either keeps the entry for the next run
// or deletes it when the budget is gone. Returns true on exhaustion.
func (s *DelayedCallService) recordAttempt(ctx context.Context, call *models.DelayedCall, reason string, summary *RetrySummary) bool {
	now := time.Now().UTC()
	call.RemainingTries--
	call.LastAttemptAt = &now
	call.FailureReason = reason

	if call.RemainingTries <= 0 {
		s.delete(ctx, call, summary)
		return true
	}

	if err := s.db.WithContext(ctx).Model(call).Updates(map[string]interface{}{
		"remaining_tries": call.RemainingTries,
		"last_attempt_at": call.LastAttemptAt,
		"failure_reason":  call.FailureReason,
	}).Error; err != nil {
		log.Printf("failed to update delayed call %d: %v", call.ID, err)
	}
	summary.Kept++
	return false
}

func (s *DelayedCallService) delete(ctx context.Context, call *models.DelayedCall, summary *RetrySummary) {
	if err := s.db.WithContext(ctx).Delete(&models.DelayedCall{}, call.ID).Error; err != nil {
		log.Printf("failed to delete delayed call %d: %v", call.ID, err)
		return
	}
	summary.Deleted++
}
