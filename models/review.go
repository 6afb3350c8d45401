package models

import "time"

// Reviewer decisions as stored by the host application's review form.
const (
	ReviewDecisionAccept         = "accept"
	ReviewDecisionMinorRevisions = "minor_revisions"
	ReviewDecisionMajorRevisions = "major_revisions"
	ReviewDecisionReject         = "reject"
)

type ReviewAssignment struct {
	ID            uint       `gorm:"primaryKey;column:id;autoIncrement" json:"id"`
	ArticleID     int        `gorm:"column:article_id" json:"article_id"`
	JournalID     int        `gorm:"column:journal_id" json:"journal_id"`
	ReviewerID    int        `gorm:"column:reviewer_id" json:"reviewer_id"`
	DateRequested *time.Time `gorm:"column:date_requested" json:"date_requested,omitempty"`
	DateAccepted  *time.Time `gorm:"column:date_accepted" json:"date_accepted,omitempty"`
	DateDue       *time.Time `gorm:"column:date_due" json:"date_due,omitempty"`
	DateComplete  *time.Time `gorm:"column:date_complete" json:"date_complete,omitempty"`
	DateDeclined  *time.Time `gorm:"column:date_declined" json:"date_declined,omitempty"`
	IsComplete    bool       `gorm:"column:is_complete" json:"is_complete"`
	Decision      string     `gorm:"column:decision" json:"decision"`

	// Relations
	Reviewer User `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
}

// ReviewFormAnswer is one answer field of a submitted review. The review
// text reported to RQC is the concatenation of all answers in form order.
type ReviewFormAnswer struct {
	ID                 uint   `gorm:"primaryKey;column:id;autoIncrement" json:"id"`
	ReviewAssignmentID uint   `gorm:"column:review_assignment_id" json:"review_assignment_id"`
	Order              int    `gorm:"column:answer_order" json:"answer_order"`
	Answer             string `gorm:"column:answer;type:text" json:"answer"`
}

// TableName overrides
func (ReviewAssignment) TableName() string {
	return "review_assignments"
}

func (ReviewFormAnswer) TableName() string {
	return "review_form_answers"
}
