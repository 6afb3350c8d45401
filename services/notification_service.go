package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"rqc-adapter-api/config"
	"rqc-adapter-api/models"

	"gorm.io/gorm"
)

// NotificationService persists in-app notices for interactive users and
// mails the journal's technical contact when a retry budget runs out.
type NotificationService struct {
	db *gorm.DB
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(db *gorm.DB) *NotificationService {
	if db == nil {
		db = config.DB
	}
	return &NotificationService{db: db}
}

// Notify writes one in-app notification row for the user.
func (s *NotificationService) Notify(ctx context.Context, userID int, articleID int, notificationType, title, message string) {
	row := models.Notification{
		UserID:           userID,
		Title:            title,
		Message:          message,
		Type:             notificationType,
		RelatedArticleID: &articleID,
		CreateAt:         time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		log.Printf("failed to create notification for user %d: %v", userID, err)
	}
}

// NotifyRetriesExhausted mails the journal contact once, at the moment an
// article's retry budget reaches zero. Individual retry runs stay silent
// apart from logs.
func (s *NotificationService) NotifyRetriesExhausted(ctx context.Context, article *models.Article, failureReason string) {
	var journal models.Journal
	if err := s.db.WithContext(ctx).Where("journal_id = ?", article.JournalID).First(&journal).Error; err != nil {
		log.Printf("failed to load journal %d for exhaustion notice: %v", article.JournalID, err)
		return
	}
	if journal.ContactEmail == nil || *journal.ContactEmail == "" {
		log.Printf("retries exhausted for article %d, no journal contact configured", article.ArticleID)
		return
	}

	subject := fmt.Sprintf("RQC submission for article %d could not be delivered", article.ArticleID)
	body := fmt.Sprintf(
		"<p>The review data for article %d (%s) could not be delivered to RQC after %d attempts.</p>"+
			"<p>Last failure: %s</p>"+
			"<p>The article can still be submitted manually from the review screen.</p>",
		article.ArticleID, article.Title, models.DefaultRemainingTries, failureReason)

	if err := config.SendMail([]string{*journal.ContactEmail}, subject, body); err != nil {
		log.Printf("failed to send exhaustion notice for article %d: %v", article.ArticleID, err)
	}
}
