package services

import (
	"errors"

	"github.com/alphabatem/common/context"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/jiralite/jiralite_api/dto"
	"github.com/jiralite/jiralite_api/model"
	"github.com/jiralite/jiralite_api/shared"
)

type IssueService struct {
	context.DefaultService

	db         *gorm.DB
	projectSvc *ProjectService
}

const ISSUE_SVC = "issue_svc"

func (svc IssueService) Id() string {
	return ISSUE_SVC
}

func (svc *IssueService) Start() error {
	svc.db = svc.Service(POSTGRES_SVC).(*PostgresService).Db()
	svc.projectSvc = svc.Service(PROJECT_SVC).(*ProjectService)
	return nil
}

func (svc *IssueService) CreateIssue(userID string, req dto.CreateIssueRequest) (*dto.IssueResponse, error) {
	if err := svc.projectSvc.RequireMember(req.ProjectID, userID); err != nil {
		return nil, err
	}

	priority := req.Priority
	if priority == "" {
		priority = shared.PriorityMedium
	}

	var position int64
	svc.db.Model(&model.Issue{}).Where("project_id = ?", req.ProjectID).Count(&position)

	issue := model.Issue{
		ID:          uuid.NewString(),
		ProjectID:   req.ProjectID,
		Title:       req.Title,
		Description: req.Description,
		Status:      shared.StatusBacklog,
		Priority:    priority,
		ReporterID:  userID,
		AssigneeID:  req.AssigneeID,
		Position:    int(position),
	}

	if err := svc.db.Create(&issue).Error; err != nil {
		return nil, TranslateDBError(err)
	}

	log.WithFields(log.Fields{"issue_id": issue.ID, "project_id": issue.ProjectID}).Info("Issue created")

	resp := mapIssue(&issue)
	return &resp, nil
}

func (svc *IssueService) GetIssue(userID, issueID string) (*dto.IssueResponse, error) {
	issue, err := svc.loadIssue(userID, issueID)
	if err != nil {
		return nil, err
	}

	resp := mapIssue(issue)
	return &resp, nil
}

func (svc *IssueService) ListIssues(userID, projectID string) (*dto.IssueCollectionResponse, error) {
	if err := svc.projectSvc.RequireMember(projectID, userID); err != nil {
		return nil, err
	}

	var issues []model.Issue
	err := svc.db.Where("project_id = ?", projectID).
		Order("position asc, created_at asc").
		Find(&issues).Error
	if err != nil {
		return nil, TranslateDBError(err)
	}

	resp := dto.IssueCollectionResponse{
		Issues: make([]dto.IssueResponse, 0, len(issues)),
		Total:  len(issues),
	}
	for i := range issues {
		resp.Issues = append(resp.Issues, mapIssue(&issues[i]))
	}
	return &resp, nil
}

func (svc *IssueService) UpdateIssue(userID, issueID string, req dto.UpdateIssueRequest) (*dto.IssueResponse, error) {
	issue, err := svc.loadIssue(userID, issueID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.Priority != nil {
		updates["priority"] = *req.Priority
	}
	if req.AssigneeID != nil {
		updates["assignee_id"] = *req.AssigneeID
	}

	if len(updates) > 0 {
		if err := svc.db.Model(issue).Updates(updates).Error; err != nil {
			return nil, TranslateDBError(err)
		}
	}

	resp := mapIssue(issue)
	return &resp, nil
}

// DeleteIssue soft-deletes; the AI artifact columns go with the row.
func (svc *IssueService) DeleteIssue(userID, issueID string) error {
	issue, err := svc.loadIssue(userID, issueID)
	if err != nil {
		return err
	}

	if err := svc.db.Delete(issue).Error; err != nil {
		return TranslateDBError(err)
	}

	log.WithField("issue_id", issueID).Info("Issue deleted")
	return nil
}

func (svc *IssueService) AddComment(userID, issueID string, req dto.CreateCommentRequest) (*dto.CommentResponse, error) {
	issue, err := svc.loadIssue(userID, issueID)
	if err != nil {
		return nil, err
	}

	comment := model.Comment{
		ID:       uuid.NewString(),
		IssueID:  issue.ID,
		AuthorID: userID,
		Body:     req.Body,
	}

	if err := svc.db.Create(&comment).Error; err != nil {
		return nil, TranslateDBError(err)
	}

	return &dto.CommentResponse{
		ID:        comment.ID,
		IssueID:   comment.IssueID,
		AuthorID:  comment.AuthorID,
		Body:      comment.Body,
		CreatedAt: comment.CreatedAt,
	}, nil
}

func (svc *IssueService) ListComments(userID, issueID string) (*dto.CommentCollectionResponse, error) {
	issue, err := svc.loadIssue(userID, issueID)
	if err != nil {
		return nil, err
	}

	var comments []model.Comment
	if err := svc.db.Where("issue_id = ?", issue.ID).Order("created_at asc").Find(&comments).Error; err != nil {
		return nil, TranslateDBError(err)
	}

	resp := dto.CommentCollectionResponse{
		Comments: make([]dto.CommentResponse, 0, len(comments)),
		Total:    len(comments),
	}
	for _, comment := range comments {
		resp.Comments = append(resp.Comments, dto.CommentResponse{
			ID:        comment.ID,
			IssueID:   comment.IssueID,
			AuthorID:  comment.AuthorID,
			Body:      comment.Body,
			CreatedAt: comment.CreatedAt,
		})
	}
	return &resp, nil
}

func (svc *IssueService) loadIssue(userID, issueID string) (*model.Issue, error) {
	var issue model.Issue
	err := svc.db.Where("id = ?", issueID).First(&issue).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.NewNotFoundError(nil, "Issue not found")
	}
	if err != nil {
		return nil, TranslateDBError(err)
	}

	if err := svc.projectSvc.RequireMember(issue.ProjectID, userID); err != nil {
		return nil, err
	}

	return &issue, nil
}

func mapIssue(issue *model.Issue) dto.IssueResponse {
	return dto.IssueResponse{
		ID:          issue.ID,
		ProjectID:   issue.ProjectID,
		Title:       issue.Title,
		Description: issue.Description,
		Status:      issue.Status,
		Priority:    issue.Priority,
		ReporterID:  issue.ReporterID,
		AssigneeID:  issue.AssigneeID,
		Position:    issue.Position,
		Summary:     issue.AISummary,
		Suggestion:  issue.AISuggestion,
		CreatedAt:   issue.CreatedAt,
		UpdatedAt:   issue.UpdatedAt,
	}
}
