package models

import "time"

// Article stages relevant to the adapter.
const (
	StageUnderReview = "Under Review"
	StageRQCGrading  = "RQC Grading"
)

type Article struct {
	ArticleID              int        `gorm:"primaryKey;column:article_id" json:"article_id"`
	JournalID              int        `gorm:"column:journal_id" json:"journal_id"`
	SectionID              *int       `gorm:"column:section_id" json:"section_id,omitempty"`
	Title                  string     `gorm:"column:title" json:"title"`
	Stage                  string     `gorm:"column:stage" json:"stage"`
	CorrespondenceAuthorID *int       `gorm:"column:correspondence_author_id" json:"correspondence_author_id,omitempty"`
	DateSubmitted          *time.Time `gorm:"column:date_submitted" json:"date_submitted,omitempty"`
	DateAccepted           *time.Time `gorm:"column:date_accepted" json:"date_accepted,omitempty"`
	DateDeclined           *time.Time `gorm:"column:date_declined" json:"date_declined,omitempty"`

	// Relations
	Journal              Journal  `gorm:"foreignKey:JournalID" json:"journal,omitempty"`
	Section              *Section `gorm:"foreignKey:SectionID" json:"section,omitempty"`
	CorrespondenceAuthor *User    `gorm:"foreignKey:CorrespondenceAuthorID" json:"correspondence_author,omitempty"`
}

// IsAccepted mirrors the editorial state the decision derivation keys on.
func (a *Article) IsAccepted() bool {
	return a.DateAccepted != nil
}

// ArticleAuthorOrder records an author's 0-based position in the article's
// author list.
type ArticleAuthorOrder struct {
	ID        uint `gorm:"primaryKey;column:id;autoIncrement" json:"id"`
	ArticleID int  `gorm:"column:article_id" json:"article_id"`
	AuthorID  int  `gorm:"column:author_id" json:"author_id"`
	Order     int  `gorm:"column:order_number" json:"order_number"`
}

type Section struct {
	SectionID int    `gorm:"primaryKey;column:section_id" json:"section_id"`
	JournalID int    `gorm:"column:journal_id" json:"journal_id"`
	Name      string `gorm:"column:name" json:"name"`
}

// Section editor roles. "section_editor" maps to RQC level 2,
// "editor" (section-level chief editor) to level 3.
const (
	SectionRoleSectionEditor = "section_editor"
	SectionRoleEditor        = "editor"
)

type SectionEditor struct {
	ID        uint   `gorm:"primaryKey;column:id;autoIncrement" json:"id"`
	SectionID int    `gorm:"column:section_id" json:"section_id"`
	UserID    int    `gorm:"column:user_id" json:"user_id"`
	Role      string `gorm:"column:role" json:"role"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// EditorAssignment links a handling editor (RQC level 1) to an article.
type EditorAssignment struct {
	ID        uint      `gorm:"primaryKey;column:id;autoIncrement" json:"id"`
	ArticleID int       `gorm:"column:article_id" json:"article_id"`
	EditorID  int       `gorm:"column:editor_id" json:"editor_id"`
	Assigned  time.Time `gorm:"column:assigned" json:"assigned"`

	// Relations
	Editor User `gorm:"foreignKey:EditorID" json:"editor,omitempty"`
}

// Revision request types as stored by the host application.
const (
	RevisionTypeMinor = "minor_revisions"
	RevisionTypeMajor = "major_revisions"
)

type RevisionRequest struct {
	ID            uint      `gorm:"primaryKey;column:id;autoIncrement" json:"id"`
	ArticleID     int       `gorm:"column:article_id" json:"article_id"`
	Type          string    `gorm:"column:type" json:"type"`
	DateRequested time.Time `gorm:"column:date_requested" json:"date_requested"`
}

// TableName overrides
func (Article) TableName() string {
	return "articles"
}

func (ArticleAuthorOrder) TableName() string {
	return "article_author_orders"
}

func (Section) TableName() string {
	return "sections"
}

func (SectionEditor) TableName() string {
	return "section_editors"
}

func (EditorAssignment) TableName() string {
	return "editor_assignments"
}

func (RevisionRequest) TableName() string {
	return "revision_requests"
}
