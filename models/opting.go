package models

import "time"

// Opting statuses. A reviewer who never answered the opting form stays
// UNDEFINED, which the assembler treats exactly like OPT_OUT.
const (
	OptingUndefined = 0
	OptingOptIn     = 1
	OptingOptOut    = 2
)

// ReviewerOptingDecision is a reviewer's yearly consent choice for one
// journal. Consent is only valid for the UTC calendar year it was recorded
// in; each new year the reviewer has to decide again.
type ReviewerOptingDecision struct {
	ID           uint      `gorm:"primaryKey;column:id;autoIncrement" json:"id"`
	ReviewerID   int       `gorm:"column:reviewer_id;uniqueIndex:idx_opting_reviewer_journal" json:"reviewer_id"`
	JournalID    int       `gorm:"column:journal_id;uniqueIndex:idx_opting_reviewer_journal" json:"journal_id"`
	OptingStatus int       `gorm:"column:opting_status" json:"opting_status"`
	OptingDate   time.Time `gorm:"column:opting_date" json:"opting_date"`
}

// IsValidAt reports whether the decision still counts at the given instant.
func (d *ReviewerOptingDecision) IsValidAt(t time.Time) bool {
	return d.OptingDate.UTC().Year() == t.UTC().Year()
}

// IsValid reports validity for the current UTC year.
func (d *ReviewerOptingDecision) IsValid() bool {
	return d.IsValidAt(time.Now())
}

// ReviewerOptingDecisionForAssignment freezes the yearly decision to one
// review assignment when the reviewer accepts it. The payload assembler
// consults this snapshot, never the yearly decision directly, so that a
// mid-assignment change of heart cannot retroactively alter data already
// promised for that assignment. The snapshot stops following the yearly
// decision once it has been sent to RQC or the assignment is complete or
// declined.
type ReviewerOptingDecisionForAssignment struct {
	ID                 uint `gorm:"primaryKey;column:id;autoIncrement" json:"id"`
	ReviewerID         int  `gorm:"column:reviewer_id" json:"reviewer_id"`
	ReviewAssignmentID uint `gorm:"column:review_assignment_id;uniqueIndex" json:"review_assignment_id"`
	OptingStatus       int  `gorm:"column:opting_status" json:"opting_status"`
	SentToRQC          bool `gorm:"column:sent_to_rqc" json:"sent_to_rqc"`
}

// TableName overrides
func (ReviewerOptingDecision) TableName() string {
	return "rqc_reviewer_opting_decisions"
}

func (ReviewerOptingDecisionForAssignment) TableName() string {
	return "rqc_reviewer_opting_decisions_for_assignments"
}
