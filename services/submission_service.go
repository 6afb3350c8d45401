package services

import (
	"context"
	"fmt"
	"log"

	"rqc-adapter-api/config"
	"rqc-adapter-api/models"

	"gorm.io/gorm"
)

// SubmissionOutcome is what the review screen shows the editor after a
// submit-for-grading action.
type SubmissionOutcome struct {
	Success        bool   `json:"success"`
	HTTPStatusCode int    `json:"http_status_code"`
	Message        string `json:"message"`
	RedirectTarget string `json:"redirect_target,omitempty"`
	RetryScheduled bool   `json:"retry_scheduled"`
}

// SubmissionService orchestrates the two submission paths: the interactive
// one an editor triggers from the review screen, and the implicit one fired
// by editorial decision events.
type SubmissionService struct {
	db            *gorm.DB
	payloads      *PayloadService
	client        *RQCClient
	credentials   *CredentialsService
	delayed       *DelayedCallService
	notifications *NotificationService
	opting        *OptingService
}

// NewSubmissionService constructs a SubmissionService.
func NewSubmissionService(db *gorm.DB) *SubmissionService {
	if db == nil {
		db = config.DB
	}
	client := NewRQCClient(db, nil, NewCallRecordService(db))
	return &SubmissionService{
		db:            db,
		payloads:      NewPayloadService(db),
		client:        client,
		credentials:   NewCredentialsService(db, client),
		delayed:       NewDelayedCallService(db),
		notifications: NewNotificationService(db),
		opting:        NewOptingService(db),
	}
}

// SubmitForGrading runs the interactive path: an editor pressed the RQC
// grading button on the review screen. The referrer URL lets RQC send the
// editor back when grading is done.
func (s *SubmissionService) SubmitForGrading(ctx context.Context, articleID int, referrerURL string, user *models.User) (*SubmissionOutcome, error) {
	var article models.Article
	if err := s.db.WithContext(ctx).Where("article_id = ?", articleID).First(&article).Error; err != nil {
		return nil, err
	}

	credentials, err := s.credentials.Get(ctx, article.JournalID)
	if err != nil {
		return nil, err
	}
	if credentials == nil {
		return &SubmissionOutcome{
			Message: "RQC is not configured for this journal. Ask an administrator to enter the RQC journal ID and API key first.",
		}, nil
	}

	hasReviews, err := s.hasReviewAssignments(ctx, articleID)
	if err != nil {
		return nil, err
	}
	if !hasReviews {
		return &SubmissionOutcome{
			Message: "This article has no review assignments; there is nothing to grade.",
		}, nil
	}

	payload, err := s.payloads.BuildSubmissionPayload(ctx, &article, referrerURL, user)
	if err != nil {
		return &SubmissionOutcome{
			Message: fmt.Sprintf("The review data could not be assembled: %v", err),
		}, nil
	}

	result := s.client.Submit(ctx, credentials.RQCJournalID, credentials.APIKey, article.ArticleID, payload)
	outcome := s.outcomeFromResult(ctx, &article, result)

	if user != nil {
		notificationType := "error"
		if outcome.Success {
			notificationType = "success"
		}
		s.notifications.Notify(ctx, user.UserID, article.ArticleID, notificationType,
			"RQC submission", outcome.Message)
	}
	return outcome, nil
}

// SubmitImplicit runs the decision-event path. Where the interactive path
// talks back to the editor, this one only logs: a journal without RQC
// credentials or an article without reviews is simply skipped.
func (s *SubmissionService) SubmitImplicit(ctx context.Context, articleID int) error {
	var article models.Article
	if err := s.db.WithContext(ctx).Where("article_id = ?", articleID).First(&article).Error; err != nil {
		return err
	}

	credentials, err := s.credentials.Get(ctx, article.JournalID)
	if err != nil {
		return err
	}
	if credentials == nil {
		return nil
	}

	hasReviews, err := s.hasReviewAssignments(ctx, articleID)
	if err != nil {
		return err
	}
	if !hasReviews {
		return nil
	}

	payload, err := s.payloads.BuildSubmissionPayload(ctx, &article, "", nil)
	if err != nil {
		log.Printf("implicit rqc submission for article %d skipped: %v", articleID, err)
		return nil
	}

	result := s.client.Submit(ctx, credentials.RQCJournalID, credentials.APIKey, article.ArticleID, payload)
	if result.Success {
		log.Printf("implicit rqc submission for article %d succeeded", articleID)
		return nil
	}

	log.Printf("implicit rqc submission for article %d failed with status %d: %s",
		articleID, result.HTTPStatusCode, result.Message)
	if result.Retryable() {
		if err := s.delayed.Schedule(ctx, article.ArticleID, result.HTTPStatusCode); err != nil {
			return err
		}
	}
	return nil
}

// outcomeFromResult turns a raw call result into the wording the editor
// sees, and schedules a retry for failures that may fix themselves.
func (s *SubmissionService) outcomeFromResult(ctx context.Context, article *models.Article, result CallResult) *SubmissionOutcome {
	outcome := &SubmissionOutcome{
		Success:        result.Success,
		HTTPStatusCode: result.HTTPStatusCode,
		RedirectTarget: result.RedirectTarget,
	}

	if result.Success {
		outcome.Message = "The review data was sent to RQC."
		return outcome
	}

	detail := result.Message
	switch {
	case result.HTTPStatusCode == 400:
		outcome.Message = fmt.Sprintf("RQC rejected the submission as malformed. %s", detail)
	case result.HTTPStatusCode == 403:
		outcome.Message = fmt.Sprintf("RQC did not accept the configured API key. Check the RQC settings. %s", detail)
	case result.HTTPStatusCode == 404:
		outcome.Message = fmt.Sprintf("RQC knows no journal with the configured journal ID. Check the RQC settings. %s", detail)
	case result.Retryable():
		outcome.Message = fmt.Sprintf("RQC is currently not reachable. The data will be resent automatically over the next days. %s", detail)
	default:
		outcome.Message = fmt.Sprintf("Sending the review data to RQC failed. %s", detail)
	}

	if result.Retryable() {
		if err := s.delayed.Schedule(ctx, article.ArticleID, result.HTTPStatusCode); err != nil {
			log.Printf("failed to schedule retry for article %d: %v", article.ArticleID, err)
		} else {
			outcome.RetryScheduled = true
		}
	}
	return outcome
}

func (s *SubmissionService) hasReviewAssignments(ctx context.Context, articleID int) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.ReviewAssignment{}).
		Where("article_id = ?", articleID).
		Count(&count).Error
	return count > 0, err
}

// RegisterEventHandlers wires the decision and acceptance events to their
// adapter reactions: every editorial decision reports the article to RQC,
// and a reviewer accepting an assignment freezes their consent snapshot.
func (s *SubmissionService) RegisterEventHandlers(registry *EventRegistry) {
	implicit := func(ctx context.Context, payload EventPayload) error {
		return s.SubmitImplicit(ctx, payload.ArticleID)
	}
	registry.Register(EventArticleAccepted, implicit)
	registry.Register(EventArticleDeclined, implicit)
	registry.Register(EventArticleUndeclined, implicit)
	registry.Register(EventRevisionsRequested, implicit)

	registry.Register(EventReviewerAccepted, func(ctx context.Context, payload EventPayload) error {
		var assignment models.ReviewAssignment
		if err := s.db.WithContext(ctx).First(&assignment, payload.ReviewAssignmentID).Error; err != nil {
			return err
		}
		return s.opting.CreateAssignmentSnapshot(ctx, &assignment)
	})
}
