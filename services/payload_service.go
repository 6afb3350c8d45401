package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"rqc-adapter-api/config"
	"rqc-adapter-api/models"
	"rqc-adapter-api/utils"

	"gorm.io/gorm"
)

// Size limits enforced by the RQC API.
const (
	MaxSingleLineLength = 2000
	MaxMultiLineLength  = 200000
	MaxListLength       = 20
)

// SubmissionPayload is the JSON body of an mhs_submission POST.
type SubmissionPayload struct {
	InteractiveUser     string       `json:"interactive_user"`
	MHSSubmissionPage   string       `json:"mhs_submissionpage"`
	Title               string       `json:"title"`
	ExternalUID         string       `json:"external_uid"`
	VisibleUID          string       `json:"visible_uid"`
	Submitted           string       `json:"submitted"`
	AuthorSet           []AuthorInfo `json:"author_set"`
	EditorAssignmentSet []EditorInfo `json:"edassgmt_set"`
	ReviewSet           []ReviewInfo `json:"review_set"`
	Decision            string       `json:"decision"`
}

type AuthorInfo struct {
	Email       string `json:"email"`
	FirstName   string `json:"firstname"`
	LastName    string `json:"lastname"`
	OrcidID     string `json:"orcid_id"`
	OrderNumber int    `json:"order_number"`
}

type EditorInfo struct {
	Email     string `json:"email"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	OrcidID   string `json:"orcid_id"`
	Level     int    `json:"level"`
}

type ReviewerInfo struct {
	Email     string `json:"email"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	OrcidID   string `json:"orcid_id"`
}

type ReviewInfo struct {
	VisibleID         string       `json:"visible_id"`
	Invited           string       `json:"invited"`
	Agreed            string       `json:"agreed"`
	Expected          string       `json:"expected"`
	Submitted         string       `json:"submitted"`
	Text              string       `json:"text"`
	IsHTML            bool         `json:"is_html"`
	SuggestedDecision string       `json:"suggested_decision"`
	Reviewer          ReviewerInfo `json:"reviewer"`
	// RQC does not support attachments in this API version; the list is
	// kept (always empty) for forward compatibility.
	AttachmentSet []Attachment `json:"attachment_set"`
}

type Attachment struct {
	Filename string `json:"filename"`
	Data     string `json:"data"`
}

// PayloadService assembles size-constrained, privacy-filtered submission
// payloads from the journal's relational records.
type PayloadService struct {
	db         *gorm.DB
	pseudonyms *PseudonymService
	records    *CallRecordService
}

// NewPayloadService constructs a PayloadService.
func NewPayloadService(db *gorm.DB) *PayloadService {
	if db == nil {
		db = config.DB
	}
	return &PayloadService{
		db:         db,
		pseudonyms: NewPseudonymService(db),
		records:    NewCallRecordService(db),
	}
}

// BuildSubmissionPayload collects everything RQC needs to grade the
// article's reviews. interactiveUser is nil on the implicit and retry
// paths; referrerURL is only transmitted together with an interactive user.
// Missing required relational data (correspondence author, author order,
// required timestamps) fails the build; the caller decides whether that
// becomes a user error or a quiet skip.
func (s *PayloadService) BuildSubmissionPayload(ctx context.Context, article *models.Article, referrerURL string, interactiveUser *models.User) (*SubmissionPayload, error) {
	payload := &SubmissionPayload{}

	// Interactive user and submission page travel in lockstep: RQC only
	// redirects back to the journal when it knows who to redirect.
	if interactiveUser != nil && interactiveUser.Email != "" {
		payload.InteractiveUser = interactiveUser.Email
		payload.MHSSubmissionPage = referrerURL
	}

	payload.Title = utils.Truncate(article.Title, MaxSingleLineLength)
	payload.ExternalUID = strconv.Itoa(article.ArticleID)
	payload.VisibleUID = strconv.Itoa(article.ArticleID)

	if article.DateSubmitted == nil {
		return nil, fmt.Errorf("article %d has no submission date", article.ArticleID)
	}
	payload.Submitted = utils.FormatRQCDate(*article.DateSubmitted)

	authorSet, err := s.authorSet(ctx, article)
	if err != nil {
		return nil, err
	}
	payload.AuthorSet = authorSet

	editorSet, err := s.editorSet(ctx, article)
	if err != nil {
		return nil, err
	}
	payload.EditorAssignmentSet = editorSet

	reviewSet, err := s.reviewSet(ctx, article)
	if err != nil {
		return nil, err
	}
	payload.ReviewSet = reviewSet

	decision, err := s.editorialDecision(ctx, article)
	if err != nil {
		return nil, err
	}
	payload.Decision = decision

	return payload, nil
}

// authorSet contains exactly one entry: the correspondence author. RQC only
// wants correspondence authors and the host application allows one per
// article.
func (s *PayloadService) authorSet(ctx context.Context, article *models.Article) ([]AuthorInfo, error) {
	if article.CorrespondenceAuthorID == nil {
		return nil, fmt.Errorf("article %d has no correspondence author", article.ArticleID)
	}

	var author models.User
	if err := s.db.WithContext(ctx).Where("user_id = ?", *article.CorrespondenceAuthorID).First(&author).Error; err != nil {
		return nil, fmt.Errorf("load correspondence author for article %d: %w", article.ArticleID, err)
	}

	var order models.ArticleAuthorOrder
	err := s.db.WithContext(ctx).
		Where("article_id = ? AND author_id = ?", article.ArticleID, author.UserID).
		First(&order).Error
	if err != nil {
		return nil, fmt.Errorf("no author order entry for article %d author %d: %w", article.ArticleID, author.UserID, err)
	}

	return []AuthorInfo{{
		Email:     utils.Truncate(author.Email, MaxSingleLineLength),
		FirstName: utils.Truncate(author.FirstName, MaxSingleLineLength),
		LastName:  utils.Truncate(author.LastName, MaxSingleLineLength),
		OrcidID:   utils.Truncate(author.OrcidValue(), MaxSingleLineLength),
		// RQC numbering is 1-based, the order table is 0-based.
		OrderNumber: order.Order + 1,
	}}, nil
}

// editorSet reports the frozen assignment set when the article already has
// a successful call on record; otherwise it is computed fresh.
func (s *PayloadService) editorSet(ctx context.Context, article *models.Article) ([]EditorInfo, error) {
	frozen, found, err := s.records.FrozenEditorAssignments(ctx, article.ArticleID)
	if err != nil {
		return nil, err
	}
	if found {
		var set []EditorInfo
		if err := json.Unmarshal(frozen, &set); err != nil {
			return nil, fmt.Errorf("decode frozen editor set for article %d: %w", article.ArticleID, err)
		}
		return set, nil
	}

	var assignments []models.EditorAssignment
	if err := s.db.WithContext(ctx).
		Preload("Editor").
		Where("article_id = ?", article.ArticleID).
		Order("assigned DESC").
		Find(&assignments).Error; err != nil {
		return nil, err
	}

	var sectionEditors []models.SectionEditor
	if article.SectionID != nil {
		if err := s.db.WithContext(ctx).
			Preload("User").
			Where("section_id = ?", *article.SectionID).
			Order("id ASC").
			Find(&sectionEditors).Error; err != nil {
			return nil, err
		}
	}

	return collectEditorSet(assignments, sectionEditors), nil
}

// collectEditorSet concatenates the three RQC editor levels: 1 = handling
// editors assigned to the article (most recently assigned first), 2 =
// section editors of the article's section, 3 = chief editors of the
// section. The same person may legitimately appear on several levels. The
// combined list is cut to 20 entries after concatenation.
func collectEditorSet(assignments []models.EditorAssignment, sectionEditors []models.SectionEditor) []EditorInfo {
	set := make([]EditorInfo, 0, len(assignments)+len(sectionEditors))
	for _, assignment := range assignments {
		set = append(set, newEditorInfo(&assignment.Editor, 1))
	}
	for _, se := range sectionEditors {
		if se.Role == models.SectionRoleSectionEditor {
			set = append(set, newEditorInfo(&se.User, 2))
		}
	}
	for _, se := range sectionEditors {
		if se.Role == models.SectionRoleEditor {
			set = append(set, newEditorInfo(&se.User, 3))
		}
	}
	if len(set) > MaxListLength {
		set = set[:MaxListLength]
	}
	return set
}

func newEditorInfo(editor *models.User, level int) EditorInfo {
	return EditorInfo{
		Email:     utils.Truncate(editor.Email, MaxSingleLineLength),
		FirstName: utils.Truncate(editor.FirstName, MaxSingleLineLength),
		LastName:  utils.Truncate(editor.LastName, MaxSingleLineLength),
		OrcidID:   utils.Truncate(editor.OrcidValue(), MaxSingleLineLength),
		Level:     level,
	}
}

// reviewSet builds one entry per accepted review assignment, ordered by
// acceptance date. Assignments never accepted are excluded entirely.
func (s *PayloadService) reviewSet(ctx context.Context, article *models.Article) ([]ReviewInfo, error) {
	var assignments []models.ReviewAssignment
	if err := s.db.WithContext(ctx).
		Preload("Reviewer").
		Where("article_id = ? AND date_accepted IS NOT NULL", article.ArticleID).
		Order("date_accepted ASC").
		Find(&assignments).Error; err != nil {
		return nil, err
	}

	reviewSet := make([]ReviewInfo, 0, len(assignments))
	for i, assignment := range assignments {
		if i >= MaxListLength {
			break
		}

		text, err := s.reviewText(ctx, assignment.ID)
		if err != nil {
			return nil, err
		}

		optedIn, err := s.hasOptedIn(ctx, assignment.ID)
		if err != nil {
			return nil, err
		}

		pseudoAddress := ""
		if !optedIn {
			pseudoAddress, err = s.pseudonyms.PseudoAddressFor(ctx, article.JournalID, assignment.Reviewer.Email)
			if err != nil {
				return nil, err
			}
		}

		entry, err := buildReviewEntry(&assignment, i+1, text, optedIn, pseudoAddress)
		if err != nil {
			return nil, err
		}
		reviewSet = append(reviewSet, entry)
	}
	return reviewSet, nil
}

// buildReviewEntry renders one review. The reviewer block is all-or-nothing:
// with a per-assignment OPT_IN snapshot the true identity and the review
// text go out; in every other case (OPT_OUT, UNDEFINED, no snapshot) the
// pseudo address goes out and name, ORCID and text stay empty.
func buildReviewEntry(assignment *models.ReviewAssignment, visibleID int, text string, optedIn bool, pseudoAddress string) (ReviewInfo, error) {
	if assignment.DateRequested == nil || assignment.DateAccepted == nil ||
		assignment.DateDue == nil || assignment.DateComplete == nil {
		return ReviewInfo{}, fmt.Errorf("review assignment %d has incomplete timestamps", assignment.ID)
	}

	entry := ReviewInfo{
		// visible_id just names the review: 1-based, ordered by acceptance.
		VisibleID: strconv.Itoa(visibleID),
		Invited:   utils.FormatRQCDate(*assignment.DateRequested),
		Agreed:    utils.FormatRQCDate(*assignment.DateAccepted),
		Expected:  utils.FormatRQCDate(*assignment.DateDue),
		Submitted: utils.FormatRQCDate(*assignment.DateComplete),
		// Review text is collected in a rich-text widget, so it is always HTML.
		IsHTML:            true,
		SuggestedDecision: utils.ConvertReviewDecision(assignment.Decision),
		AttachmentSet:     []Attachment{},
	}

	if optedIn {
		entry.Text = utils.Truncate(text, MaxMultiLineLength)
		entry.Reviewer = ReviewerInfo{
			Email:     utils.Truncate(assignment.Reviewer.Email, MaxSingleLineLength),
			FirstName: utils.Truncate(assignment.Reviewer.FirstName, MaxSingleLineLength),
			LastName:  utils.Truncate(assignment.Reviewer.LastName, MaxSingleLineLength),
			OrcidID:   utils.Truncate(assignment.Reviewer.OrcidValue(), MaxSingleLineLength),
		}
	} else {
		entry.Text = ""
		entry.Reviewer = ReviewerInfo{Email: pseudoAddress}
	}
	return entry, nil
}

// reviewText concatenates all form answers of the assignment in form order.
func (s *PayloadService) reviewText(ctx context.Context, assignmentID uint) (string, error) {
	var answers []models.ReviewFormAnswer
	if err := s.db.WithContext(ctx).
		Where("review_assignment_id = ?", assignmentID).
		Order("answer_order ASC").
		Find(&answers).Error; err != nil {
		return "", err
	}
	parts := make([]string, 0, len(answers))
	for _, answer := range answers {
		parts = append(parts, answer.Answer)
	}
	return strings.Join(parts, " "), nil
}

// hasOptedIn consults the per-assignment snapshot, never the yearly
// decision: only an explicit OPT_IN snapshot releases reviewer identity.
func (s *PayloadService) hasOptedIn(ctx context.Context, assignmentID uint) (bool, error) {
	var snapshot models.ReviewerOptingDecisionForAssignment
	err := s.db.WithContext(ctx).
		Where("review_assignment_id = ?", assignmentID).
		First(&snapshot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return snapshot.OptingStatus == models.OptingOptIn, nil
}

// editorialDecision derives the most recent editorial decision with the
// precedence accepted > declined > revision request > none.
func (s *PayloadService) editorialDecision(ctx context.Context, article *models.Article) (string, error) {
	if article.IsAccepted() {
		return "ACCEPT", nil
	}
	if article.DateDeclined != nil {
		return "REJECT", nil
	}

	var revision models.RevisionRequest
	err := s.db.WithContext(ctx).
		Where("article_id = ?", article.ArticleID).
		Order("date_requested DESC").
		First(&revision).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if revision.Type == models.RevisionTypeMinor {
		return "MINORREVISION", nil
	}
	return "MAJORREVISION", nil
}
