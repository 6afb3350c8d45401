package services

import (
	"context"
	"database/sql/driver"
	"net/http"
	"regexp"
	"testing"
	"time"

	"rqc-adapter-api/models"

	"github.com/jarcoal/httpmock"
)

func TestOutcomeFromResultSchedulesRetryOnServerError(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `rqc_delayed_calls`"),
			result:  scriptedResult{lastInsertID: 1, rowsAffected: 1},
		},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewSubmissionService(db)
	article := &models.Article{ArticleID: 42}

	outcome := svc.outcomeFromResult(context.Background(), article,
		CallResult{HTTPStatusCode: 503, Message: "temporarily unavailable"})

	if outcome.Success {
		t.Fatalf("503 is not a success")
	}
	if !outcome.RetryScheduled {
		t.Fatalf("server error must schedule a retry")
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestOutcomeFromResultNeverSchedulesRetryForClientErrors(t *testing.T) {
	for _, status := range []int{400, 403, 404} {
		// No scripted steps: any write would fail the test.
		db, state, cleanup := newScriptedGormDB(t, nil)

		svc := NewSubmissionService(db)
		article := &models.Article{ArticleID: 42}

		outcome := svc.outcomeFromResult(context.Background(), article,
			CallResult{HTTPStatusCode: status, Message: "no"})

		if outcome.Success {
			t.Fatalf("%d is not a success", status)
		}
		if outcome.RetryScheduled {
			t.Fatalf("%d must not schedule a retry", status)
		}

		if err := state.verifyComplete(); err != nil {
			t.Fatalf("%v", err)
		}
		cleanup()
	}
}

// implicitSubmissionSteps scripts the database traffic of one implicit
// submission for article 42 in journal 9 (RQC journal 7) up to and
// including the call audit row.
func implicitSubmissionSteps() []*queryStep {
	t0 := time.Date(2026, 8, 20, 3, 15, 0, 0, time.UTC)
	submitted := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	accepted := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)

	return []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `articles`"),
			columns: []string{"article_id", "journal_id", "section_id", "title", "stage", "correspondence_author_id", "date_submitted", "date_accepted", "date_declined"},
			rows: [][]driver.Value{
				{int64(42), int64(9), nil, "A study", "RQC Grading", int64(7), submitted, accepted, nil},
			},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `rqc_journal_api_credentials`"),
			columns: []string{"id", "journal_id", "rqc_journal_id", "api_key", "create_at", "update_at"},
			rows: [][]driver.Value{
				{int64(1), int64(9), int64(7), "key123", t0, t0},
			},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT count\\(\\*\\) FROM `review_assignments`"),
			columns: []string{"count(*)"},
			rows:    [][]driver.Value{{int64(1)}},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `users`"),
			columns: []string{"user_id", "first_name", "last_name", "email", "orcid", "password", "role_id", "create_at", "update_at", "delete_at"},
			rows: [][]driver.Value{
				{int64(7), "Ann", "Author", "author@uni.test", nil, "", int64(1), nil, nil, nil},
			},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `article_author_orders`"),
			columns: []string{"id", "article_id", "author_id", "order_number"},
			rows: [][]driver.Value{
				{int64(1), int64(42), int64(7), int64(0)},
			},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `rqc_call_records`"),
			columns: []string{"id", "article_id", "editor_assignments", "create_at"},
			rows: [][]driver.Value{
				{int64(1), int64(42), []byte(`[]`), t0},
			},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `review_assignments`"),
			columns: []string{"id", "article_id", "journal_id", "reviewer_id"},
			rows:    [][]driver.Value{},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `rqc_api_requests`"),
			result:  scriptedResult{lastInsertID: 1, rowsAffected: 1},
		},
	}
}

func TestSubmitImplicitSchedulesExactlyOneRetryOn503(t *testing.T) {
	t.Setenv("RQC_API_BASE_URL", "https://rqc.test/api")
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, "https://rqc.test/api/mhs_submission/7/42",
		httpmock.NewStringResponder(http.StatusServiceUnavailable,
			`{"error": "temporarily unavailable"}`))

	steps := append(implicitSubmissionSteps(), &queryStep{
		kind:    kindExec,
		pattern: regexp.MustCompile("INSERT INTO `rqc_delayed_calls`"),
		result:  scriptedResult{lastInsertID: 1, rowsAffected: 1},
	})

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewSubmissionService(db)
	if err := svc.SubmitImplicit(context.Background(), 42); err != nil {
		t.Fatalf("implicit submission failed: %v", err)
	}

	// One INSERT into the ledger, and only one: any second write would
	// trip the script.
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestSubmitImplicitSchedulesNoRetryOn404(t *testing.T) {
	t.Setenv("RQC_API_BASE_URL", "https://rqc.test/api")
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, "https://rqc.test/api/mhs_submission/7/42",
		httpmock.NewStringResponder(http.StatusNotFound,
			`{"user_message": "no such journal"}`))

	// No ledger INSERT scripted: scheduling one would fail the test.
	db, state, cleanup := newScriptedGormDB(t, implicitSubmissionSteps())
	defer cleanup()

	svc := NewSubmissionService(db)
	if err := svc.SubmitImplicit(context.Background(), 42); err != nil {
		t.Fatalf("implicit submission failed: %v", err)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}
