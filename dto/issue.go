package dto

import "time"

type CreateIssueRequest struct {
	ProjectID   string  `json:"project_id" validate:"required"`
	Title       string  `json:"title" validate:"required,max=255"`
	Description string  `json:"description"`
	Priority    string  `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	AssigneeID  *string `json:"assignee_id"`
}

func (r CreateIssueRequest) Validate() error {
	return validate.Struct(r)
}

type UpdateIssueRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=255"`
	Description *string `json:"description"`
	Status      *string `json:"status" validate:"omitempty,oneof=backlog todo in_progress in_review done"`
	Priority    *string `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	AssigneeID  *string `json:"assignee_id"`
}

func (r UpdateIssueRequest) Validate() error {
	return validate.Struct(r)
}

type IssueResponse struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	ReporterID  string    `json:"reporter_id"`
	AssigneeID  *string   `json:"assignee_id,omitempty"`
	Position    int       `json:"position"`
	Summary     *string   `json:"ai_summary,omitempty"`
	Suggestion  *string   `json:"ai_suggestion,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type IssueCollectionResponse struct {
	Issues []IssueResponse `json:"issues"`
	Total  int             `json:"total"`
}

type CreateCommentRequest struct {
	Body string `json:"body" validate:"required"`
}

func (r CreateCommentRequest) Validate() error {
	return validate.Struct(r)
}

type CommentResponse struct {
	ID        string    `json:"id"`
	IssueID   string    `json:"issue_id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type CommentCollectionResponse struct {
	Comments []CommentResponse `json:"comments"`
	Total    int               `json:"total"`
}
