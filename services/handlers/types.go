package handlers

import (
	"mime/multipart"

	"github.com/jiralite/jiralite_api/dto"
)

type AuthServiceInterface interface {
	Register(req dto.RegisterRequest) (*dto.RegisterResponse, error)
	Login(req dto.LoginRequest) (*dto.LoginResponse, error)
}

type ProjectServiceInterface interface {
	CreateProject(userID string, req dto.CreateProjectRequest) (*dto.ProjectResponse, error)
	ListProjects(userID string) (*dto.ProjectCollectionResponse, error)
	CreateLabel(userID, projectID string, req dto.CreateLabelRequest) (*dto.LabelResponse, error)
	ListLabels(userID, projectID string) ([]dto.LabelResponse, error)
}

type IssueServiceInterface interface {
	CreateIssue(userID string, req dto.CreateIssueRequest) (*dto.IssueResponse, error)
	GetIssue(userID, issueID string) (*dto.IssueResponse, error)
	ListIssues(userID, projectID string) (*dto.IssueCollectionResponse, error)
	UpdateIssue(userID, issueID string, req dto.UpdateIssueRequest) (*dto.IssueResponse, error)
	DeleteIssue(userID, issueID string) error
	AddComment(userID, issueID string, req dto.CreateCommentRequest) (*dto.CommentResponse, error)
	ListComments(userID, issueID string) (*dto.CommentCollectionResponse, error)
}

type AIServiceInterface interface {
	SummarizeIssue(userID string, req dto.SummaryRequest) (*dto.SummaryResponse, error)
	SuggestNextSteps(userID string, req dto.SuggestionRequest) (*dto.SuggestionResponse, error)
	SummarizeComments(userID string, req dto.CommentSummaryRequest) (*dto.SummaryResponse, error)
	CheckCommentPrecondition(userID, issueID string) error
	SuggestLabels(userID string, req dto.AutoLabelRequest) (*dto.AutoLabelResponse, error)
	FindDuplicates(userID string, req dto.DuplicateRequest) (*dto.DuplicateResponse, error)
}

type AIRateLimitServiceInterface interface {
	CheckAndConsume(userID string) (*dto.AIQuota, error)
}

type MediaServiceInterface interface {
	UploadAttachment(userID, issueID string, file *multipart.FileHeader) (*dto.AttachmentResponse, error)
	ListAttachments(userID, issueID string) (*dto.AttachmentCollectionResponse, error)
	DeleteAttachment(userID, attachmentID string) error
}
