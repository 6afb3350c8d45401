package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"rqc-adapter-api/config"
	"rqc-adapter-api/models"
	"rqc-adapter-api/utils"

	"gorm.io/gorm"
)

// Sentinel status codes for failures that never reached the RQC service.
const (
	ErrCodeConnection = -1
	ErrCodeTimeout    = -2
	ErrCodeRequest    = -3
)

// CallResult is the normalized outcome of one RQC API call. Every
// boundary-crossing operation returns one of these instead of raising;
// errors are reserved for programming bugs.
type CallResult struct {
	// Success is true for HTTP 200 and 303. RQC answers 303 when a call
	// triggered by an interactive user was accepted; the redirect target
	// points the editor at the grading page.
	Success        bool   `json:"success"`
	HTTPStatusCode int    `json:"http_status_code"`
	Message        string `json:"message,omitempty"`
	RedirectTarget string `json:"redirect_target,omitempty"`
}

// Retryable reports whether the failure class may fix itself by waiting:
// server-side 5xx errors, connection failures and timeouts. Client errors
// (4xx) never become retryable; a malformed request or a bad key does not
// heal with time.
func (r CallResult) Retryable() bool {
	if r.Success {
		return false
	}
	return r.HTTPStatusCode >= 500 || r.HTTPStatusCode < 0
}

// CallRecorder receives the bookkeeping side effect of a successful
// submission: freezing the transmitted editor assignment set and the
// consent snapshots for the article.
type CallRecorder interface {
	RecordSuccessfulSubmission(ctx context.Context, articleID int, editorAssignments []byte) error
}

// RQCClient performs authenticated calls against the RQC REST API.
type RQCClient struct {
	db       *gorm.DB
	client   *http.Client
	recorder CallRecorder
	baseURL  string
}

// NewRQCClient constructs an RQCClient. The underlying HTTP client never
// follows redirects: a 303 carries a redirect target that must reach the
// end user, not be consumed silently by the transport.
func NewRQCClient(db *gorm.DB, client *http.Client, recorder CallRecorder) *RQCClient {
	if db == nil {
		db = config.DB
	}
	if client == nil {
		client = &http.Client{
			Timeout: config.RQCRequestTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}
	return &RQCClient{
		db:       db,
		client:   client,
		recorder: recorder,
		baseURL:  config.RQCBaseURL(),
	}
}

// CheckAPIKey verifies a journal id/API key pair against the live service.
func (c *RQCClient) CheckAPIKey(ctx context.Context, rqcJournalID int, apiKey string) CallResult {
	url := fmt.Sprintf("%s/mhs_apikeycheck/%d", c.baseURL, rqcJournalID)
	return c.call(ctx, http.MethodGet, url, apiKey, nil, nil)
}

// Submit posts a submission payload for the given article.
func (c *RQCClient) Submit(ctx context.Context, rqcJournalID int, apiKey string, submissionID int, payload *SubmissionPayload) CallResult {
	url := fmt.Sprintf("%s/mhs_submission/%d/%d", c.baseURL, rqcJournalID, submissionID)
	return c.call(ctx, http.MethodPost, url, apiKey, payload, &submissionID)
}

func (c *RQCClient) call(ctx context.Context, method, callURL, apiKey string, payload *SubmissionPayload, articleID *int) CallResult {
	result := CallResult{}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			result.HTTPStatusCode = ErrCodeRequest
			result.Message = "Could not encode the submission payload."
			return result
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, callURL, body)
	if err != nil {
		result.HTTPStatusCode = ErrCodeRequest
		result.Message = "Could not build the API request."
		return result
	}
	req.Header.Set("X-Api-Version", config.RQCAPIVersion)
	req.Header.Set("X-Host-App-Version", config.HostAppVersion())
	req.Header.Set("X-Adapter-Identity", config.AdapterIdentity)
	req.Header.Set("X-Request-Time", utils.NowRQCFormat())
	req.Header.Set("Authorization", "Bearer "+apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.client.Do(req)
	duration := time.Since(started)

	if err != nil {
		result.HTTPStatusCode = classifyTransportError(err)
		result.Message = "Unable to connect to the RQC service. Please try again later."
		c.recordAPIRequest(ctx, articleID, method, callURL, result.HTTPStatusCode, duration)
		log.Printf("rqc call %s %s failed: %v", method, callURL, err)
		return result
	}
	defer resp.Body.Close()

	result.HTTPStatusCode = resp.StatusCode
	result.Success = resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusSeeOther
	c.recordAPIRequest(ctx, articleID, method, callURL, resp.StatusCode, duration)

	if result.Success && method == http.MethodPost {
		c.recordSubmissionBaseline(ctx, articleID, payload)
	}

	// A plain 200 on a POST is the silent-success case: nothing in the
	// body needs parsing.
	if resp.StatusCode == http.StatusOK && method == http.MethodPost {
		return result
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	var parsed map[string]json.RawMessage
	if err := json.Unmarshal(raw, &parsed); err != nil {
		if !result.Success {
			result.Message = fmt.Sprintf("Request failed and the response body was malformed. Status: %s", http.StatusText(resp.StatusCode))
		}
		return result
	}

	if resp.StatusCode == http.StatusSeeOther {
		result.RedirectTarget = jsonString(parsed["redirect_target"])
		return result
	}

	if msg := jsonString(parsed["user_message"]); msg != "" {
		result.Message = msg
	} else if msg := jsonString(parsed["error"]); msg != "" {
		result.Message = msg
	} else if !result.Success {
		result.Message = fmt.Sprintf("Request failed: %s (%s)", http.StatusText(resp.StatusCode), flattenFieldErrors(parsed))
	}
	return result
}

// recordSubmissionBaseline freezes what was just transmitted so resends for
// the article keep reporting the same editor set and consent snapshots.
func (c *RQCClient) recordSubmissionBaseline(ctx context.Context, articleID *int, payload *SubmissionPayload) {
	if c.recorder == nil || articleID == nil || payload == nil {
		return
	}
	assignments, err := json.Marshal(payload.EditorAssignmentSet)
	if err != nil {
		log.Printf("failed to encode editor assignments for article %d: %v", *articleID, err)
		return
	}
	if err := c.recorder.RecordSuccessfulSubmission(ctx, *articleID, assignments); err != nil {
		log.Printf("failed to record submission baseline for article %d: %v", *articleID, err)
	}
}

func (c *RQCClient) recordAPIRequest(ctx context.Context, articleID *int, method, callURL string, statusCode int, duration time.Duration) {
	if c.db == nil {
		return
	}
	endpoint := callURL
	if u, err := url.Parse(callURL); err == nil {
		endpoint = u.Path
	}
	responseMs := int(duration / time.Millisecond)
	row := &models.RQCAPIRequest{
		ArticleID:      articleID,
		HTTPMethod:     method,
		Endpoint:       endpoint,
		ResponseStatus: &statusCode,
		ResponseTimeMs: &responseMs,
	}
	if err := c.db.WithContext(ctx).Create(row).Error; err != nil {
		log.Printf("failed to record rqc api request for %s: %v", endpoint, err)
	}
}

func classifyTransportError(err error) int {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return ErrCodeTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrCodeTimeout
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrCodeConnection
	}
	if urlErr != nil {
		return ErrCodeConnection
	}
	return ErrCodeRequest
}

func jsonString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// flattenFieldErrors renders field-level validation errors from an RQC
// error body ({"field": ["msg", ...], ...}) into one line.
func flattenFieldErrors(parsed map[string]json.RawMessage) string {
	fields := make([]string, 0, len(parsed))
	for field := range parsed {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var errs []string
	for _, field := range fields {
		raw := parsed[field]
		var msgs []string
		if err := json.Unmarshal(raw, &msgs); err == nil {
			for _, msg := range msgs {
				errs = append(errs, fmt.Sprintf("%s: %s", field, msg))
			}
			continue
		}
		if s := jsonString(raw); s != "" {
			errs = append(errs, fmt.Sprintf("%s: %s", field, s))
		}
	}
	return strings.Join(errs, "; ")
}
