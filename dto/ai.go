package dto

import "time"

type SummaryRequest struct {
	IssueID     string `json:"issue_id" validate:"required"`
	Description string `json:"description" validate:"required,min=30"`
	Regenerate  bool   `json:"regenerate"`
}

func (r SummaryRequest) Validate() error {
	return validate.Struct(r)
}

type SummaryResponse struct {
	Summary string `json:"summary"`
	Cached  bool   `json:"cached"`
}

type SuggestionRequest struct {
	IssueID     string `json:"issue_id" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Regenerate  bool   `json:"regenerate"`
}

func (r SuggestionRequest) Validate() error {
	return validate.Struct(r)
}

type SuggestionResponse struct {
	Suggestion string `json:"suggestion"`
	Cached     bool   `json:"cached"`
}

type CommentSummaryRequest struct {
	IssueID    string `json:"issue_id" validate:"required"`
	Regenerate bool   `json:"regenerate"`
}

func (r CommentSummaryRequest) Validate() error {
	return validate.Struct(r)
}

type AutoLabelRequest struct {
	ProjectID   string `json:"project_id" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
}

func (r AutoLabelRequest) Validate() error {
	return validate.Struct(r)
}

type AutoLabelResponse struct {
	Labels []string `json:"labels"`
}

type DuplicateRequest struct {
	ProjectID      string `json:"project_id" validate:"required"`
	Title          string `json:"title" validate:"required"`
	Description    string `json:"description"`
	ExcludeIssueID string `json:"exclude_issue_id"`
}

func (r DuplicateRequest) Validate() error {
	return validate.Struct(r)
}

type SimilarIssue struct {
	IssueID string  `json:"issue_id"`
	Title   string  `json:"title"`
	Status  string  `json:"status"`
	Score   float64 `json:"score"`
}

type DuplicateResponse struct {
	SimilarIssues []SimilarIssue `json:"similar_issues"`
}

// AIQuota reports the admit decision plus what is left of both windows.
type AIQuota struct {
	Allowed         bool       `json:"allowed"`
	Reason          string     `json:"reason,omitempty"`
	MinuteRemaining int        `json:"minute_remaining"`
	DailyRemaining  int        `json:"daily_remaining"`
	MinuteResetTime *time.Time `json:"minute_reset_time,omitempty"`
	DailyResetTime  *time.Time `json:"daily_reset_time,omitempty"`
}
