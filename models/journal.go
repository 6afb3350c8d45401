package models

import "time"

type Journal struct {
	JournalID    int        `gorm:"primaryKey;column:journal_id" json:"journal_id"`
	Code         string     `gorm:"column:code;unique" json:"code"`
	Name         string     `gorm:"column:name" json:"name"`
	ContactEmail *string    `gorm:"column:contact_email" json:"contact_email,omitempty"`
	CreateAt     *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt     *time.Time `gorm:"column:update_at" json:"update_at"`
}

// JournalAPICredentials holds the per-journal id/key pair issued by RQC.
// One row per journal; writes go through an upsert so concurrent saves
// cannot produce duplicates.
type JournalAPICredentials struct {
	ID           uint      `gorm:"primaryKey;column:id;autoIncrement" json:"id"`
	JournalID    int       `gorm:"column:journal_id;uniqueIndex" json:"journal_id"`
	RQCJournalID int       `gorm:"column:rqc_journal_id" json:"rqc_journal_id"`
	APIKey       string    `gorm:"column:api_key" json:"-"`
	CreateAt     time.Time `gorm:"column:create_at;autoCreateTime" json:"create_at"`
	UpdateAt     time.Time `gorm:"column:update_at;autoUpdateTime" json:"update_at"`
}

// JournalSalt is the per-journal pseudonymization salt. It is written once
// and never regenerated: replacing it would break pseudonym stability for
// reviewers already reported under the old salt.
type JournalSalt struct {
	ID        uint      `gorm:"primaryKey;column:id;autoIncrement" json:"id"`
	JournalID int       `gorm:"column:journal_id;uniqueIndex" json:"journal_id"`
	Salt      string    `gorm:"column:salt" json:"-"`
	CreateAt  time.Time `gorm:"column:create_at;autoCreateTime" json:"create_at"`
}

// TableName overrides
func (Journal) TableName() string {
	return "journals"
}

func (JournalAPICredentials) TableName() string {
	return "rqc_journal_api_credentials"
}

func (JournalSalt) TableName() string {
	return "rqc_journal_salts"
}
