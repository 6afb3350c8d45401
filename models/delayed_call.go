package models

import "time"

// DefaultRemainingTries is the retry budget a failed submission starts with.
const DefaultRemainingTries = 10

// DelayedCall is a persisted, retry-eligible failed submission. The daily
// retry task drains these oldest-attempt-first; the row is deleted on
// success, on a non-retryable response, or when the budget is exhausted.
type DelayedCall struct {
	ID             uint       `gorm:"primaryKey;column:id;autoIncrement" json:"id"`
	ArticleID      int        `gorm:"column:article_id" json:"article_id"`
	RemainingTries int        `gorm:"column:remaining_tries;default:10" json:"remaining_tries"`
	LastAttemptAt  *time.Time `gorm:"column:last_attempt_at" json:"last_attempt_at,omitempty"`
	FailureReason  string     `gorm:"column:failure_reason;type:text" json:"failure_reason"`
	CreateAt       time.Time  `gorm:"column:create_at;autoCreateTime" json:"create_at"`

	// Relations
	Article Article `gorm:"foreignKey:ArticleID" json:"article,omitempty"`
}

// IsValid reports whether the call still has retry budget left.
func (c *DelayedCall) IsValid() bool {
	return c.RemainingTries > 0
}

func (DelayedCall) TableName() string {
	return "rqc_delayed_calls"
}
