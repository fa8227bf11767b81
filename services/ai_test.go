package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/jiralite/jiralite_api/dto"
	"github.com/jiralite/jiralite_api/model"
	"github.com/jiralite/jiralite_api/shared"
)

func newAIService(t *testing.T) *AIService {
	t.Helper()
	return &AIService{db: newTestDB(t)}
}

// stubGenerator counts invocations and returns a fixed reply.
type stubGenerator struct {
	calls int
	reply string
	err   error
}

func (g *stubGenerator) generate(_ context.Context, _, _ string) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func seedIssue(t *testing.T, db *gorm.DB, userID string) *model.Issue {
	t.Helper()

	now := time.Now()
	require.NoError(t, db.Create(&model.Project{
		ID: "proj-1", Key: "PRJ", Name: "Test Project", OwnerID: userID,
		CreatedAt: now, UpdatedAt: now,
	}).Error)
	require.NoError(t, db.Create(&model.ProjectMember{
		ProjectID: "proj-1", UserID: userID, Role: shared.RoleOwner, CreatedAt: now,
	}).Error)

	issue := &model.Issue{
		ID:          "issue-1",
		ProjectID:   "proj-1",
		Title:       "Login page crashes on submit",
		Description: "Clicking the submit button on the login form throws a null pointer error in the session handler",
		Status:      shared.StatusBacklog,
		Priority:    shared.PriorityMedium,
		ReporterID:  userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, db.Create(issue).Error)
	return issue
}

func loadIssueRow(t *testing.T, db *gorm.DB, id string) model.Issue {
	t.Helper()

	var issue model.Issue
	require.NoError(t, db.Where("id = ?", id).First(&issue).Error)
	return issue
}

func TestSummarizeIssue_GeneratesAndPersistsOnCacheMiss(t *testing.T) {
	svc := newAIService(t)
	seedIssue(t, svc.db, "user-1")

	gen := &stubGenerator{reply: "A crash occurs when submitting the login form."}
	svc.generate = gen.generate

	resp, err := svc.SummarizeIssue("user-1", dto.SummaryRequest{
		IssueID:     "issue-1",
		Description: "Clicking the submit button on the login form throws a null pointer error",
	})
	require.NoError(t, err)

	assert.False(t, resp.Cached)
	assert.Equal(t, gen.reply, resp.Summary)
	assert.Equal(t, 1, gen.calls)

	row := loadIssueRow(t, svc.db, "issue-1")
	require.NotNil(t, row.AISummary)
	assert.Equal(t, gen.reply, *row.AISummary)
}

func TestSummarizeIssue_SecondCallServedFromCache(t *testing.T) {
	svc := newAIService(t)
	seedIssue(t, svc.db, "user-1")

	gen := &stubGenerator{reply: "Generated once, reused after."}
	svc.generate = gen.generate

	req := dto.SummaryRequest{
		IssueID:     "issue-1",
		Description: "Clicking the submit button on the login form throws a null pointer error",
	}

	first, err := svc.SummarizeIssue("user-1", req)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := svc.SummarizeIssue("user-1", req)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Summary, second.Summary)
	assert.Equal(t, 1, gen.calls)
}

func TestSummarizeIssue_CacheHitSkipsGenerator(t *testing.T) {
	svc := newAIService(t)
	issue := seedIssue(t, svc.db, "user-1")

	cached := "Previously generated summary."
	require.NoError(t, svc.db.Model(issue).Update("ai_summary", cached).Error)

	gen := &stubGenerator{reply: "should never be used"}
	svc.generate = gen.generate

	resp, err := svc.SummarizeIssue("user-1", dto.SummaryRequest{
		IssueID:     "issue-1",
		Description: "Clicking the submit button on the login form throws a null pointer error",
	})
	require.NoError(t, err)

	assert.True(t, resp.Cached)
	assert.Equal(t, cached, resp.Summary)
	assert.Equal(t, 0, gen.calls)
}

func TestSummarizeIssue_RegenerateOverwritesCache(t *testing.T) {
	svc := newAIService(t)
	issue := seedIssue(t, svc.db, "user-1")

	require.NoError(t, svc.db.Model(issue).Update("ai_summary", "stale summary").Error)

	gen := &stubGenerator{reply: "Fresh summary after regenerate."}
	svc.generate = gen.generate

	resp, err := svc.SummarizeIssue("user-1", dto.SummaryRequest{
		IssueID:     "issue-1",
		Description: "Clicking the submit button on the login form throws a null pointer error",
		Regenerate:  true,
	})
	require.NoError(t, err)

	assert.False(t, resp.Cached)
	assert.Equal(t, gen.reply, resp.Summary)
	assert.Equal(t, 1, gen.calls)

	row := loadIssueRow(t, svc.db, "issue-1")
	require.NotNil(t, row.AISummary)
	assert.Equal(t, gen.reply, *row.AISummary)
}

func TestSummarizeIssue_FailureLeavesCacheUntouched(t *testing.T) {
	svc := newAIService(t)
	issue := seedIssue(t, svc.db, "user-1")

	cached := "good cached summary"
	require.NoError(t, svc.db.Model(issue).Update("ai_summary", cached).Error)

	gen := &stubGenerator{err: errors.New("backend timeout")}
	svc.generate = gen.generate

	_, err := svc.SummarizeIssue("user-1", dto.SummaryRequest{
		IssueID:     "issue-1",
		Description: "Clicking the submit button on the login form throws a null pointer error",
		Regenerate:  true,
	})
	require.Error(t, err)

	row := loadIssueRow(t, svc.db, "issue-1")
	require.NotNil(t, row.AISummary)
	assert.Equal(t, cached, *row.AISummary)
}

func TestArtifactKindsAreIndependent(t *testing.T) {
	svc := newAIService(t)
	seedIssue(t, svc.db, "user-1")

	gen := &stubGenerator{reply: "generated text"}
	svc.generate = gen.generate

	_, err := svc.SummarizeIssue("user-1", dto.SummaryRequest{
		IssueID:     "issue-1",
		Description: "Clicking the submit button on the login form throws a null pointer error",
	})
	require.NoError(t, err)

	row := loadIssueRow(t, svc.db, "issue-1")
	require.NotNil(t, row.AISummary)
	assert.Nil(t, row.AISuggestion)
	assert.Nil(t, row.AICommentSummary)

	_, err = svc.SuggestNextSteps("user-1", dto.SuggestionRequest{
		IssueID: "issue-1",
		Title:   "Login page crashes on submit",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, gen.calls)

	row = loadIssueRow(t, svc.db, "issue-1")
	require.NotNil(t, row.AISuggestion)
	assert.Nil(t, row.AICommentSummary)
}

func TestSummarizeIssue_Authorization(t *testing.T) {
	svc := newAIService(t)
	seedIssue(t, svc.db, "user-1")

	gen := &stubGenerator{reply: "should not run"}
	svc.generate = gen.generate

	req := dto.SummaryRequest{
		IssueID:     "issue-1",
		Description: "Clicking the submit button on the login form throws a null pointer error",
	}

	_, err := svc.SummarizeIssue("outsider", req)
	require.Error(t, err)
	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, 403, appErr.StatusCode)

	req.IssueID = "missing"
	_, err = svc.SummarizeIssue("user-1", req)
	require.Error(t, err)
	appErr, ok = shared.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, 404, appErr.StatusCode)

	assert.Equal(t, 0, gen.calls)
}

func TestCheckCommentPrecondition(t *testing.T) {
	svc := newAIService(t)
	seedIssue(t, svc.db, "user-1")

	err := svc.CheckCommentPrecondition("user-1", "issue-1")
	require.Error(t, err)
	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, 400, appErr.StatusCode)

	now := time.Now()
	for i, body := range []string{"first comment", "second comment", "third comment"} {
		require.NoError(t, svc.db.Create(&model.Comment{
			ID: string(rune('a' + i)), IssueID: "issue-1", AuthorID: "user-1",
			Body: body, CreatedAt: now, UpdatedAt: now,
		}).Error)
	}

	assert.NoError(t, svc.CheckCommentPrecondition("user-1", "issue-1"))
}

func TestSummarizeComments_UsesThread(t *testing.T) {
	svc := newAIService(t)
	seedIssue(t, svc.db, "user-1")

	now := time.Now()
	for i, body := range []string{"repro confirmed", "stack trace attached", "fix in review"} {
		require.NoError(t, svc.db.Create(&model.Comment{
			ID: string(rune('a' + i)), IssueID: "issue-1", AuthorID: "user-1",
			Body: body, CreatedAt: now.Add(time.Duration(i) * time.Minute), UpdatedAt: now,
		}).Error)
	}

	gen := &stubGenerator{reply: "The bug was confirmed and a fix is in review."}
	svc.generate = gen.generate

	resp, err := svc.SummarizeComments("user-1", dto.CommentSummaryRequest{IssueID: "issue-1"})
	require.NoError(t, err)

	assert.False(t, resp.Cached)
	assert.Equal(t, gen.reply, resp.Summary)

	row := loadIssueRow(t, svc.db, "issue-1")
	require.NotNil(t, row.AICommentSummary)
	assert.Nil(t, row.AISummary)
}

func TestSuggestLabels_IntersectsWithProjectLabels(t *testing.T) {
	svc := newAIService(t)
	seedIssue(t, svc.db, "user-1")

	now := time.Now()
	for i, name := range []string{"bug", "backend", "frontend", "docs"} {
		require.NoError(t, svc.db.Create(&model.Label{
			ID: string(rune('a' + i)), ProjectID: "proj-1", Name: name, CreatedAt: now,
		}).Error)
	}

	gen := &stubGenerator{reply: "Bug, nonsense, backend"}
	svc.generate = gen.generate

	resp, err := svc.SuggestLabels("user-1", dto.AutoLabelRequest{
		ProjectID: "proj-1",
		Title:     "Login page crashes on submit",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"bug", "backend"}, resp.Labels)
	assert.Equal(t, 1, gen.calls)
}

func TestSuggestLabels_NoLabelsSkipsGenerator(t *testing.T) {
	svc := newAIService(t)
	seedIssue(t, svc.db, "user-1")

	gen := &stubGenerator{reply: "anything"}
	svc.generate = gen.generate

	resp, err := svc.SuggestLabels("user-1", dto.AutoLabelRequest{
		ProjectID: "proj-1",
		Title:     "Login page crashes on submit",
	})
	require.NoError(t, err)

	assert.Empty(t, resp.Labels)
	assert.Equal(t, 0, gen.calls)
}

func TestMatchLabels(t *testing.T) {
	labels := []string{"bug", "backend", "frontend", "docs", "infra"}

	assert.Equal(t, []string{"bug", "backend"}, matchLabels("bug, backend", labels))
	assert.Equal(t, []string{"frontend"}, matchLabels("Frontend\nunknown", labels))
	assert.Empty(t, matchLabels("nothing matches here", labels))

	// Capped at three even when the model lists more.
	assert.Equal(t, []string{"bug", "backend", "docs"},
		matchLabels("bug, backend, docs, infra", labels))

	// Duplicates collapse.
	assert.Equal(t, []string{"bug"}, matchLabels("bug, BUG, Bug", labels))
}

func TestFindDuplicates_RanksByOverlap(t *testing.T) {
	svc := newAIService(t)
	seedIssue(t, svc.db, "user-1")

	now := time.Now()
	others := []model.Issue{
		{ID: "issue-2", ProjectID: "proj-1", Title: "Login form submit crashes with null pointer",
			Description: "Same null pointer crash in the session handler on login submit",
			Status:      shared.StatusTodo, Priority: shared.PriorityMedium, ReporterID: "user-1"},
		{ID: "issue-3", ProjectID: "proj-1", Title: "Dark mode toggle misaligned",
			Description: "The settings page toggle is off by a few pixels",
			Status:      shared.StatusBacklog, Priority: shared.PriorityLow, ReporterID: "user-1"},
	}
	for i := range others {
		others[i].CreatedAt = now
		others[i].UpdatedAt = now
		require.NoError(t, svc.db.Create(&others[i]).Error)
	}

	resp, err := svc.FindDuplicates("user-1", dto.DuplicateRequest{
		ProjectID:      "proj-1",
		Title:          "Crash when submitting the login form",
		Description:    "Null pointer error thrown by the session handler",
		ExcludeIssueID: "issue-1",
	})
	require.NoError(t, err)

	require.NotEmpty(t, resp.SimilarIssues)
	assert.Equal(t, "issue-2", resp.SimilarIssues[0].IssueID)
	for _, similar := range resp.SimilarIssues {
		assert.NotEqual(t, "issue-1", similar.IssueID)
		assert.Greater(t, similar.Score, 0.0)
	}
}

func TestOverlapScore(t *testing.T) {
	a := keywords("login form crash null pointer")
	b := keywords("login form submit crash")
	c := keywords("dark mode toggle")

	assert.Greater(t, overlapScore(a, b), overlapScore(a, c))
	assert.Equal(t, 0.0, overlapScore(a, map[string]bool{}))
	assert.Equal(t, 1.0, overlapScore(a, a))
}

func TestKeywords_FiltersStopwordsAndShortTokens(t *testing.T) {
	words := keywords("The login form and it is broken")

	assert.True(t, words["login"])
	assert.True(t, words["form"])
	assert.True(t, words["broken"])
	assert.False(t, words["the"])
	assert.False(t, words["and"])
	assert.False(t, words["it"])
}
