package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecorder struct {
	articleID         int
	editorAssignments []byte
	calls             int
}

func (r *fakeRecorder) RecordSuccessfulSubmission(ctx context.Context, articleID int, editorAssignments []byte) error {
	r.articleID = articleID
	r.editorAssignments = editorAssignments
	r.calls++
	return nil
}

func newTestClient(t *testing.T, recorder CallRecorder) *RQCClient {
	t.Helper()
	t.Setenv("RQC_API_BASE_URL", "https://rqc.test/api")

	httpClient := &http.Client{}
	httpmock.ActivateNonDefault(httpClient)
	t.Cleanup(httpmock.DeactivateAndReset)

	return NewRQCClient(nil, httpClient, recorder)
}

func testPayload() *SubmissionPayload {
	return &SubmissionPayload{
		Title:       "A study",
		ExternalUID: "42",
		VisibleUID:  "42",
		Submitted:   "2026-01-05T10:00:00Z",
		EditorAssignmentSet: []EditorInfo{
			{Email: "editor@journal.test", Level: 1},
		},
		AuthorSet: []AuthorInfo{{Email: "author@uni.test", OrderNumber: 1}},
		ReviewSet: []ReviewInfo{},
	}
}

func TestSubmitPlainSuccess(t *testing.T) {
	recorder := &fakeRecorder{}
	client := newTestClient(t, recorder)

	httpmock.RegisterResponder(http.MethodPost, "https://rqc.test/api/mhs_submission/7/42",
		httpmock.NewStringResponder(http.StatusOK, ""))

	result := client.Submit(context.Background(), 7, "key123", 42, testPayload())

	assert.True(t, result.Success)
	assert.Equal(t, http.StatusOK, result.HTTPStatusCode)
	assert.Empty(t, result.Message)
	assert.False(t, result.Retryable())

	require.Equal(t, 1, recorder.calls)
	assert.Equal(t, 42, recorder.articleID)
	assert.Contains(t, string(recorder.editorAssignments), "editor@journal.test")
}

func TestSubmitRedirectSuccess(t *testing.T) {
	recorder := &fakeRecorder{}
	client := newTestClient(t, recorder)

	httpmock.RegisterResponder(http.MethodPost, "https://rqc.test/api/mhs_submission/7/42",
		httpmock.NewStringResponder(http.StatusSeeOther,
			`{"redirect_target": "https://rqc.test/grade/42"}`))

	result := client.Submit(context.Background(), 7, "key123", 42, testPayload())

	assert.True(t, result.Success)
	assert.Equal(t, http.StatusSeeOther, result.HTTPStatusCode)
	assert.Equal(t, "https://rqc.test/grade/42", result.RedirectTarget)
	assert.Equal(t, 1, recorder.calls)
}

func TestSubmitClientErrorUsesUserMessage(t *testing.T) {
	client := newTestClient(t, nil)

	httpmock.RegisterResponder(http.MethodPost, "https://rqc.test/api/mhs_submission/7/42",
		httpmock.NewStringResponder(http.StatusBadRequest,
			`{"user_message": "title must not be empty"}`))

	result := client.Submit(context.Background(), 7, "key123", 42, testPayload())

	assert.False(t, result.Success)
	assert.Equal(t, http.StatusBadRequest, result.HTTPStatusCode)
	assert.Equal(t, "title must not be empty", result.Message)
	assert.False(t, result.Retryable())
}

func TestSubmitServerErrorFlattensFieldErrors(t *testing.T) {
	client := newTestClient(t, nil)

	httpmock.RegisterResponder(http.MethodPost, "https://rqc.test/api/mhs_submission/7/42",
		httpmock.NewStringResponder(http.StatusInternalServerError,
			`{"author_set": ["missing order_number"], "title": ["too long"]}`))

	result := client.Submit(context.Background(), 7, "key123", 42, testPayload())

	assert.False(t, result.Success)
	assert.True(t, result.Retryable())
	assert.Contains(t, result.Message, "author_set: missing order_number")
	assert.Contains(t, result.Message, "title: too long")
}

func TestSubmitMalformedErrorBody(t *testing.T) {
	client := newTestClient(t, nil)

	httpmock.RegisterResponder(http.MethodPost, "https://rqc.test/api/mhs_submission/7/42",
		httpmock.NewStringResponder(http.StatusForbidden, "<html>nope</html>"))

	result := client.Submit(context.Background(), 7, "key123", 42, testPayload())

	assert.False(t, result.Success)
	assert.Equal(t, http.StatusForbidden, result.HTTPStatusCode)
	assert.Contains(t, result.Message, "malformed")
}

func TestSubmitConnectionFailure(t *testing.T) {
	recorder := &fakeRecorder{}
	client := newTestClient(t, recorder)

	httpmock.RegisterResponder(http.MethodPost, "https://rqc.test/api/mhs_submission/7/42",
		httpmock.NewErrorResponder(errors.New("connection refused")))

	result := client.Submit(context.Background(), 7, "key123", 42, testPayload())

	assert.False(t, result.Success)
	assert.Equal(t, ErrCodeConnection, result.HTTPStatusCode)
	assert.True(t, result.Retryable())
	assert.Equal(t, 0, recorder.calls)
}

func TestCheckAPIKeySendsHeaders(t *testing.T) {
	client := newTestClient(t, nil)

	var captured http.Header
	httpmock.RegisterResponder(http.MethodGet, "https://rqc.test/api/mhs_apikeycheck/7",
		func(req *http.Request) (*http.Response, error) {
			captured = req.Header.Clone()
			return httpmock.NewStringResponse(http.StatusOK, `{"user_message": "ok"}`), nil
		})

	result := client.CheckAPIKey(context.Background(), 7, "key123")

	require.True(t, result.Success)
	assert.Equal(t, "ok", result.Message)
	assert.Equal(t, "Bearer key123", captured.Get("Authorization"))
	assert.NotEmpty(t, captured.Get("X-Api-Version"))
	assert.NotEmpty(t, captured.Get("X-Adapter-Identity"))
	assert.NotEmpty(t, captured.Get("X-Request-Time"))
}

func TestRetryableClassification(t *testing.T) {
	cases := []struct {
		name      string
		result    CallResult
		retryable bool
	}{
		{"success 200", CallResult{Success: true, HTTPStatusCode: 200}, false},
		{"success 303", CallResult{Success: true, HTTPStatusCode: 303}, false},
		{"bad request", CallResult{HTTPStatusCode: 400}, false},
		{"forbidden", CallResult{HTTPStatusCode: 403}, false},
		{"not found", CallResult{HTTPStatusCode: 404}, false},
		{"server error", CallResult{HTTPStatusCode: 500}, true},
		{"bad gateway", CallResult{HTTPStatusCode: 502}, true},
		{"unavailable", CallResult{HTTPStatusCode: 503}, true},
		{"gateway timeout", CallResult{HTTPStatusCode: 504}, true},
		{"connection error", CallResult{HTTPStatusCode: ErrCodeConnection}, true},
		{"timeout", CallResult{HTTPStatusCode: ErrCodeTimeout}, true},
		{"request error", CallResult{HTTPStatusCode: ErrCodeRequest}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.retryable, tc.result.Retryable())
		})
	}
}
