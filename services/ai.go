package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/jiralite/jiralite_api/dto"
	"github.com/jiralite/jiralite_api/model"
	"github.com/jiralite/jiralite_api/shared"
)

// AIService owns the cached-or-generate flow for the per-issue AI artifacts
// (summary, suggestion, comment summary) plus the stateless label and
// duplicate helpers. Cached artifacts live inline on the issue row; a
// regenerate overwrites with no history and concurrent regenerates race with
// last-writer-wins.
type AIService struct {
	appContext.DefaultService

	db       *gorm.DB
	redisSvc *RedisService

	httpClient *http.Client
	baseURL    string
	apiKey     string
	modelID    string

	// generate is the LLM call; swapped out in tests.
	generate func(ctx context.Context, system, user string) (string, error)
}

const AI_SVC = "ai_svc"

const labelCacheTTL = 5 * time.Minute

func (svc AIService) Id() string {
	return AI_SVC
}

func (svc *AIService) Configure(ctx *appContext.Context) error {
	svc.baseURL = os.Getenv("AI_BASE_URL")
	if svc.baseURL == "" {
		svc.baseURL = "https://api.openai.com/v1"
	}

	svc.apiKey = os.Getenv("AI_API_KEY")

	svc.modelID = os.Getenv("AI_MODEL")
	if svc.modelID == "" {
		svc.modelID = "gpt-4o-mini"
	}

	timeout := 30
	if t := os.Getenv("AI_TIMEOUT_SECONDS"); t != "" {
		if parsed, err := strconv.Atoi(t); err == nil && parsed > 0 {
			timeout = parsed
		}
	}
	svc.httpClient = &http.Client{Timeout: time.Duration(timeout) * time.Second}

	svc.generate = svc.complete

	return svc.DefaultService.Configure(ctx)
}

func (svc *AIService) Start() error {
	svc.db = svc.Service(POSTGRES_SVC).(*PostgresService).Db()
	if redisSvc, ok := svc.Service(REDIS_SVC).(*RedisService); ok {
		svc.redisSvc = redisSvc
	}
	return nil
}

// ==================== CACHED ARTIFACT FLOWS ====================

func (svc *AIService) SummarizeIssue(userID string, req dto.SummaryRequest) (*dto.SummaryResponse, error) {
	issue, err := svc.authorizeIssue(userID, req.IssueID)
	if err != nil {
		return nil, err
	}

	value, cached, err := svc.getOrGenerate(issue, shared.ArtifactSummary, req.Regenerate, func() (string, error) {
		return svc.generate(context.Background(),
			"You summarize issue tracker tickets. Reply with a short plain-text summary, three sentences at most.",
			fmt.Sprintf("Title: %s\n\nDescription:\n%s", issue.Title, req.Description))
	})
	if err != nil {
		return nil, err
	}

	return &dto.SummaryResponse{Summary: value, Cached: cached}, nil
}

func (svc *AIService) SuggestNextSteps(userID string, req dto.SuggestionRequest) (*dto.SuggestionResponse, error) {
	issue, err := svc.authorizeIssue(userID, req.IssueID)
	if err != nil {
		return nil, err
	}

	value, cached, err := svc.getOrGenerate(issue, shared.ArtifactSuggestion, req.Regenerate, func() (string, error) {
		return svc.generate(context.Background(),
			"You help engineers plan work on issue tracker tickets. Reply with a short list of concrete next steps.",
			fmt.Sprintf("Title: %s\n\nDescription:\n%s", req.Title, req.Description))
	})
	if err != nil {
		return nil, err
	}

	return &dto.SuggestionResponse{Suggestion: value, Cached: cached}, nil
}

func (svc *AIService) SummarizeComments(userID string, req dto.CommentSummaryRequest) (*dto.SummaryResponse, error) {
	issue, err := svc.authorizeIssue(userID, req.IssueID)
	if err != nil {
		return nil, err
	}

	var comments []model.Comment
	if err := svc.db.Where("issue_id = ?", issue.ID).Order("created_at asc").Find(&comments).Error; err != nil {
		return nil, TranslateDBError(err)
	}

	var sb strings.Builder
	for _, comment := range comments {
		sb.WriteString(comment.Body)
		sb.WriteString("\n---\n")
	}

	value, cached, err := svc.getOrGenerate(issue, shared.ArtifactCommentSummary, req.Regenerate, func() (string, error) {
		return svc.generate(context.Background(),
			"You summarize issue tracker comment threads. Reply with a short plain-text summary of the discussion and any decisions.",
			fmt.Sprintf("Issue: %s\n\nComments:\n%s", issue.Title, sb.String()))
	})
	if err != nil {
		return nil, err
	}

	return &dto.SummaryResponse{Summary: value, Cached: cached}, nil
}

// CheckCommentPrecondition rejects comment summaries for threads that are
// too short to be worth a generation call. Runs before the rate limiter so
// a hopeless request never spends quota.
func (svc *AIService) CheckCommentPrecondition(userID, issueID string) error {
	issue, err := svc.authorizeIssue(userID, issueID)
	if err != nil {
		return err
	}

	var count int64
	if err := svc.db.Model(&model.Comment{}).Where("issue_id = ?", issue.ID).Count(&count).Error; err != nil {
		return TranslateDBError(err)
	}

	if count < shared.MinCommentsForSummary {
		return shared.NewBadRequestError(nil, fmt.Sprintf(
			"At least %d comments are required before a thread can be summarized", shared.MinCommentsForSummary))
	}

	return nil
}

// getOrGenerate returns the cached artifact unless it is missing or the
// caller forced a regenerate. Persistence happens only after generation
// succeeds, and touches exactly one column.
func (svc *AIService) getOrGenerate(issue *model.Issue, kind string, regenerate bool, generate func() (string, error)) (string, bool, error) {
	recordAIRequest(kind)

	if cached := artifactValue(issue, kind); cached != nil && !regenerate {
		recordAICacheHit(kind)
		return *cached, true, nil
	}

	value, err := generate()
	if err != nil {
		recordAIGenerationFailure(kind)
		log.WithFields(log.Fields{"issue_id": issue.ID, "kind": kind}).WithError(err).Error("AI generation failed")
		return "", false, err
	}

	if err := svc.db.Model(&model.Issue{}).Where("id = ?", issue.ID).
		Update(artifactColumn(kind), value).Error; err != nil {
		return "", false, TranslateDBError(err)
	}

	return value, false, nil
}

func artifactValue(issue *model.Issue, kind string) *string {
	switch kind {
	case shared.ArtifactSummary:
		return issue.AISummary
	case shared.ArtifactSuggestion:
		return issue.AISuggestion
	case shared.ArtifactCommentSummary:
		return issue.AICommentSummary
	}
	return nil
}

func artifactColumn(kind string) string {
	switch kind {
	case shared.ArtifactSummary:
		return "ai_summary"
	case shared.ArtifactSuggestion:
		return "ai_suggestion"
	case shared.ArtifactCommentSummary:
		return "ai_comment_summary"
	}
	return ""
}

// ==================== STATELESS HELPERS ====================

// SuggestLabels asks the model to pick up to 3 of the project's existing
// labels for a draft issue. Nothing is persisted.
func (svc *AIService) SuggestLabels(userID string, req dto.AutoLabelRequest) (*dto.AutoLabelResponse, error) {
	if err := svc.requireMember(req.ProjectID, userID); err != nil {
		return nil, err
	}

	recordAIRequest("auto_label")

	labels, err := svc.projectLabels(req.ProjectID)
	if err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		return &dto.AutoLabelResponse{Labels: []string{}}, nil
	}

	raw, err := svc.generate(context.Background(),
		"You label issue tracker tickets. Reply with at most 3 label names from the provided list, comma separated, and nothing else.",
		fmt.Sprintf("Available labels: %s\n\nTitle: %s\n\nDescription:\n%s",
			strings.Join(labels, ", "), req.Title, req.Description))
	if err != nil {
		recordAIGenerationFailure("auto_label")
		return nil, err
	}

	return &dto.AutoLabelResponse{Labels: matchLabels(raw, labels)}, nil
}

// matchLabels intersects the model's free-text reply with the real label
// set, preserving reply order, capped at MaxSuggestedLabels.
func matchLabels(raw string, labels []string) []string {
	known := make(map[string]string, len(labels))
	for _, label := range labels {
		known[strings.ToLower(label)] = label
	}

	picked := []string{}
	seen := make(map[string]bool)
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == '\n' }) {
		name := strings.ToLower(strings.TrimSpace(part))
		if canonical, ok := known[name]; ok && !seen[name] {
			picked = append(picked, canonical)
			seen[name] = true
			if len(picked) >= shared.MaxSuggestedLabels {
				break
			}
		}
	}
	return picked
}

// FindDuplicates ranks existing project issues by keyword overlap with the
// candidate text. Pure ranking, no generation call, nothing persisted.
func (svc *AIService) FindDuplicates(userID string, req dto.DuplicateRequest) (*dto.DuplicateResponse, error) {
	if err := svc.requireMember(req.ProjectID, userID); err != nil {
		return nil, err
	}

	recordAIRequest("duplicate")

	var issues []model.Issue
	query := svc.db.Where("project_id = ?", req.ProjectID)
	if req.ExcludeIssueID != "" {
		query = query.Where("id <> ?", req.ExcludeIssueID)
	}
	if err := query.Find(&issues).Error; err != nil {
		return nil, TranslateDBError(err)
	}

	candidate := keywords(req.Title + " " + req.Description)

	similar := []dto.SimilarIssue{}
	for _, issue := range issues {
		score := overlapScore(candidate, keywords(issue.Title+" "+issue.Description))
		if score > 0 {
			similar = append(similar, dto.SimilarIssue{
				IssueID: issue.ID,
				Title:   issue.Title,
				Status:  issue.Status,
				Score:   score,
			})
		}
	}

	sort.SliceStable(similar, func(i, j int) bool { return similar[i].Score > similar[j].Score })
	if len(similar) > shared.MaxSimilarIssues {
		similar = similar[:shared.MaxSimilarIssues]
	}

	return &dto.DuplicateResponse{SimilarIssues: similar}, nil
}

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "that": true,
	"this": true, "when": true, "from": true, "not": true, "are": true,
	"should": true, "does": true, "have": true, "has": true, "was": true,
}

func keywords(text string) map[string]bool {
	words := make(map[string]bool)
	for _, word := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	}) {
		if len(word) >= 3 && !stopwords[word] {
			words[word] = true
		}
	}
	return words
}

// overlapScore is the Jaccard index of the two keyword sets.
func overlapScore(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	intersection := 0
	for word := range a {
		if b[word] {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// ==================== AUTHORIZATION HELPERS ====================

func (svc *AIService) authorizeIssue(userID, issueID string) (*model.Issue, error) {
	var issue model.Issue
	err := svc.db.Where("id = ?", issueID).First(&issue).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.NewNotFoundError(nil, "Issue not found")
	}
	if err != nil {
		return nil, TranslateDBError(err)
	}

	if err := svc.requireMember(issue.ProjectID, userID); err != nil {
		return nil, err
	}

	return &issue, nil
}

func (svc *AIService) requireMember(projectID, userID string) error {
	var count int64
	err := svc.db.Model(&model.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count).Error
	if err != nil {
		return TranslateDBError(err)
	}

	if count == 0 {
		return shared.NewForbiddenError(nil, "You are not a member of this project")
	}

	return nil
}

// projectLabels reads the label names for a project through a short-lived
// redis cache; label sets change rarely and auto-label reads them often.
func (svc *AIService) projectLabels(projectID string) ([]string, error) {
	cacheKey := "ai:labels:" + projectID

	if svc.redisSvc != nil {
		var cached []string
		if err := svc.redisSvc.GetJSON(context.Background(), cacheKey, &cached); err == nil && len(cached) > 0 {
			return cached, nil
		}
	}

	var labels []model.Label
	if err := svc.db.Where("project_id = ?", projectID).Find(&labels).Error; err != nil {
		return nil, TranslateDBError(err)
	}

	names := make([]string, 0, len(labels))
	for _, label := range labels {
		names = append(names, label.Name)
	}

	if svc.redisSvc != nil && len(names) > 0 {
		if err := svc.redisSvc.Set(context.Background(), cacheKey, names, labelCacheTTL); err != nil {
			log.WithError(err).Warn("Failed to cache project labels")
		}
	}

	return names, nil
}

// ==================== LLM CLIENT ====================

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// complete performs a single chat-completions call. No retries and no
// fallback: a failed or timed-out generation surfaces to the caller and any
// previously cached artifact stays as it was.
func (svc *AIService) complete(ctx context.Context, system, user string) (string, error) {
	payload := chatRequest{
		Model: svc.modelID,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(svc.baseURL, "/")+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if svc.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+svc.apiKey)
	}

	resp, err := svc.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generation request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generation backend returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode generation response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("generation backend error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("generation backend returned no choices")
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
