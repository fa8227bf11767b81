package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiralite/jiralite_api/dto"
	"github.com/jiralite/jiralite_api/shared"
)

type stubAIService struct {
	summaryResp      *dto.SummaryResponse
	summaryErr       error
	preconditionErr  error
	summarizeCalls   int
	commentSummaries int
}

func (s *stubAIService) SummarizeIssue(userID string, req dto.SummaryRequest) (*dto.SummaryResponse, error) {
	s.summarizeCalls++
	return s.summaryResp, s.summaryErr
}

func (s *stubAIService) SuggestNextSteps(userID string, req dto.SuggestionRequest) (*dto.SuggestionResponse, error) {
	return &dto.SuggestionResponse{Suggestion: "do the thing"}, nil
}

func (s *stubAIService) SummarizeComments(userID string, req dto.CommentSummaryRequest) (*dto.SummaryResponse, error) {
	s.commentSummaries++
	return &dto.SummaryResponse{Summary: "thread summary"}, nil
}

func (s *stubAIService) CheckCommentPrecondition(userID, issueID string) error {
	return s.preconditionErr
}

func (s *stubAIService) SuggestLabels(userID string, req dto.AutoLabelRequest) (*dto.AutoLabelResponse, error) {
	return &dto.AutoLabelResponse{Labels: []string{"bug"}}, nil
}

func (s *stubAIService) FindDuplicates(userID string, req dto.DuplicateRequest) (*dto.DuplicateResponse, error) {
	return &dto.DuplicateResponse{SimilarIssues: []dto.SimilarIssue{}}, nil
}

type stubRateLimiter struct {
	quota *dto.AIQuota
	err   error
	calls int
}

func (s *stubRateLimiter) CheckAndConsume(userID string) (*dto.AIQuota, error) {
	s.calls++
	return s.quota, s.err
}

func allowedQuota() *dto.AIQuota {
	reset := time.Date(2026, 3, 14, 10, 1, 0, 0, time.UTC)
	return &dto.AIQuota{
		Allowed:         true,
		MinuteRemaining: 9,
		DailyRemaining:  99,
		MinuteResetTime: &reset,
	}
}

func deniedQuota() *dto.AIQuota {
	return &dto.AIQuota{
		Allowed:        false,
		Reason:         "AI request limit of 10 per minute reached. Try again in a few seconds.",
		DailyRemaining: 90,
	}
}

func newTestApp(aiSvc *stubAIService, limiter *stubRateLimiter) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if appErr, ok := shared.GetAppError(err); ok {
				return shared.ResponseJSON(c, appErr.StatusCode, appErr.Message, appErr.Data)
			}
			return shared.ResponseInternalError(c)
		},
	})

	app.Use(func(c *fiber.Ctx) error {
		c.Locals(shared.UserID, "user-1")
		return c.Next()
	})

	handler := NewAIHandler(aiSvc, limiter)
	app.Post("/api/v1/ai/summary", handler.Summary)
	app.Post("/api/v1/ai/suggestion", handler.Suggestion)
	app.Post("/api/v1/ai/comment-summary", handler.CommentSummary)
	app.Post("/api/v1/ai/auto-label", handler.AutoLabel)
	app.Post("/api/v1/ai/duplicate", handler.Duplicate)

	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, payload interface{}) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response) shared.Response {
	t.Helper()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var envelope shared.Response
	require.NoError(t, json.Unmarshal(raw, &envelope))
	return envelope
}

func TestSummary_Admitted(t *testing.T) {
	aiSvc := &stubAIService{summaryResp: &dto.SummaryResponse{Summary: "short summary", Cached: true}}
	limiter := &stubRateLimiter{quota: allowedQuota()}
	app := newTestApp(aiSvc, limiter)

	resp := postJSON(t, app, "/api/v1/ai/summary", dto.SummaryRequest{
		IssueID:     "issue-1",
		Description: "A long enough description of the bug to pass validation",
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "9", resp.Header.Get("X-RateLimit-Remaining"))
	assert.Equal(t, "99", resp.Header.Get("X-RateLimit-Daily-Remaining"))
	assert.NotEmpty(t, resp.Header.Get("X-RateLimit-Reset"))
	assert.Equal(t, 1, limiter.calls)
	assert.Equal(t, 1, aiSvc.summarizeCalls)

	envelope := decodeEnvelope(t, resp)
	assert.Equal(t, http.StatusOK, envelope.Code)
}

func TestSummary_RateLimited(t *testing.T) {
	aiSvc := &stubAIService{summaryResp: &dto.SummaryResponse{Summary: "unused"}}
	limiter := &stubRateLimiter{quota: deniedQuota()}
	app := newTestApp(aiSvc, limiter)

	resp := postJSON(t, app, "/api/v1/ai/summary", dto.SummaryRequest{
		IssueID:     "issue-1",
		Description: "A long enough description of the bug to pass validation",
	})

	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, 0, aiSvc.summarizeCalls)

	envelope := decodeEnvelope(t, resp)
	assert.Contains(t, envelope.Message, "per minute")
}

func TestSummary_DescriptionTooShort(t *testing.T) {
	aiSvc := &stubAIService{}
	limiter := &stubRateLimiter{quota: allowedQuota()}
	app := newTestApp(aiSvc, limiter)

	resp := postJSON(t, app, "/api/v1/ai/summary", dto.SummaryRequest{
		IssueID:     "issue-1",
		Description: "too short",
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	// Validation failures never touch the limiter.
	assert.Equal(t, 0, limiter.calls)
}

func TestSummary_ServiceErrorMapped(t *testing.T) {
	aiSvc := &stubAIService{summaryErr: shared.NewForbiddenError(nil, "You are not a member of this project")}
	limiter := &stubRateLimiter{quota: allowedQuota()}
	app := newTestApp(aiSvc, limiter)

	resp := postJSON(t, app, "/api/v1/ai/summary", dto.SummaryRequest{
		IssueID:     "issue-1",
		Description: "A long enough description of the bug to pass validation",
	})

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCommentSummary_PreconditionBlocksQuotaSpend(t *testing.T) {
	aiSvc := &stubAIService{
		preconditionErr: shared.NewBadRequestError(nil, "At least 3 comments are required before a thread can be summarized"),
	}
	limiter := &stubRateLimiter{quota: allowedQuota()}
	app := newTestApp(aiSvc, limiter)

	resp := postJSON(t, app, "/api/v1/ai/comment-summary", dto.CommentSummaryRequest{IssueID: "issue-1"})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, limiter.calls)
	assert.Equal(t, 0, aiSvc.commentSummaries)
}

func TestCommentSummary_PreconditionMetConsumesQuota(t *testing.T) {
	aiSvc := &stubAIService{}
	limiter := &stubRateLimiter{quota: allowedQuota()}
	app := newTestApp(aiSvc, limiter)

	resp := postJSON(t, app, "/api/v1/ai/comment-summary", dto.CommentSummaryRequest{IssueID: "issue-1"})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, limiter.calls)
	assert.Equal(t, 1, aiSvc.commentSummaries)
}

func TestRateLimiterErrorIsInternal(t *testing.T) {
	aiSvc := &stubAIService{}
	limiter := &stubRateLimiter{err: errors.New("db unavailable")}
	app := newTestApp(aiSvc, limiter)

	resp := postJSON(t, app, "/api/v1/ai/duplicate", dto.DuplicateRequest{
		ProjectID: "proj-1",
		Title:     "Some candidate issue",
	})

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, 0, aiSvc.summarizeCalls)
}
