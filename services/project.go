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

type ProjectService struct {
	context.DefaultService

	db *gorm.DB
}

const PROJECT_SVC = "project_svc"

func (svc ProjectService) Id() string {
	return PROJECT_SVC
}

func (svc *ProjectService) Start() error {
	svc.db = svc.Service(POSTGRES_SVC).(*PostgresService).Db()
	return nil
}

func (svc *ProjectService) CreateProject(userID string, req dto.CreateProjectRequest) (*dto.ProjectResponse, error) {
	project := model.Project{
		ID:          uuid.NewString(),
		Key:         req.Key,
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     userID,
	}

	err := svc.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}
		return tx.Create(&model.ProjectMember{
			ProjectID: project.ID,
			UserID:    userID,
			Role:      shared.RoleOwner,
		}).Error
	})
	if err != nil {
		return nil, TranslateDBError(err)
	}

	log.WithFields(log.Fields{"project_id": project.ID, "key": project.Key}).Info("Project created")

	resp := mapProject(&project)
	return &resp, nil
}

func (svc *ProjectService) ListProjects(userID string) (*dto.ProjectCollectionResponse, error) {
	var projects []model.Project
	err := svc.db.
		Joins("JOIN project_members ON project_members.project_id = projects.id").
		Where("project_members.user_id = ?", userID).
		Order("projects.created_at asc").
		Find(&projects).Error
	if err != nil {
		return nil, TranslateDBError(err)
	}

	resp := dto.ProjectCollectionResponse{
		Projects: make([]dto.ProjectResponse, 0, len(projects)),
		Total:    len(projects),
	}
	for i := range projects {
		resp.Projects = append(resp.Projects, mapProject(&projects[i]))
	}
	return &resp, nil
}

// RequireMember is the membership gate shared by the issue, media and AI
// services.
func (svc *ProjectService) RequireMember(projectID, userID string) error {
	var project model.Project
	err := svc.db.Where("id = ?", projectID).First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.NewNotFoundError(nil, "Project not found")
	}
	if err != nil {
		return TranslateDBError(err)
	}

	var count int64
	err = svc.db.Model(&model.ProjectMember{}).
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

func (svc *ProjectService) CreateLabel(userID, projectID string, req dto.CreateLabelRequest) (*dto.LabelResponse, error) {
	if err := svc.RequireMember(projectID, userID); err != nil {
		return nil, err
	}

	label := model.Label{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Name:      req.Name,
		Color:     req.Color,
	}

	if err := svc.db.Create(&label).Error; err != nil {
		return nil, TranslateDBError(err)
	}

	return &dto.LabelResponse{ID: label.ID, Name: label.Name, Color: label.Color}, nil
}

func (svc *ProjectService) ListLabels(userID, projectID string) ([]dto.LabelResponse, error) {
	if err := svc.RequireMember(projectID, userID); err != nil {
		return nil, err
	}

	var labels []model.Label
	if err := svc.db.Where("project_id = ?", projectID).Order("name asc").Find(&labels).Error; err != nil {
		return nil, TranslateDBError(err)
	}

	resp := make([]dto.LabelResponse, 0, len(labels))
	for _, label := range labels {
		resp = append(resp, dto.LabelResponse{ID: label.ID, Name: label.Name, Color: label.Color})
	}
	return resp, nil
}

func mapProject(project *model.Project) dto.ProjectResponse {
	return dto.ProjectResponse{
		ID:          project.ID,
		Key:         project.Key,
		Name:        project.Name,
		Description: project.Description,
		OwnerID:     project.OwnerID,
		CreatedAt:   project.CreatedAt,
	}
}
