package services

import (
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/jiralite/jiralite_api/dto"
	"github.com/jiralite/jiralite_api/model"
	"github.com/jiralite/jiralite_api/shared"
)

// MediaService stores issue attachments in MinIO and tracks them in the
// attachments table.
type MediaService struct {
	context.DefaultService

	db         *gorm.DB
	minioSvc   *MinIOService
	projectSvc *ProjectService
}

const MEDIA_SVC = "media_svc"

const maxAttachmentSize = 25 * 1024 * 1024

func (svc MediaService) Id() string {
	return MEDIA_SVC
}

func (svc *MediaService) Start() error {
	svc.db = svc.Service(POSTGRES_SVC).(*PostgresService).Db()
	svc.minioSvc = svc.Service(MINIO_SVC).(*MinIOService)
	svc.projectSvc = svc.Service(PROJECT_SVC).(*ProjectService)
	return nil
}

func (svc *MediaService) UploadAttachment(userID, issueID string, file *multipart.FileHeader) (*dto.AttachmentResponse, error) {
	issue, err := svc.authorizeIssue(userID, issueID)
	if err != nil {
		return nil, err
	}

	if file.Size > maxAttachmentSize {
		return nil, shared.NewBadRequestError(nil, "Attachment too large. Maximum size: 25MB")
	}

	src, err := file.Open()
	if err != nil {
		return nil, shared.NewBadRequestError(err, "Failed to read uploaded file")
	}
	defer src.Close()

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	objectName := fmt.Sprintf("issues/%s/%s%s", issue.ID, uuid.NewString(), ext)

	if _, err := svc.minioSvc.UploadFile(objectName, src, file.Size, contentType); err != nil {
		log.WithError(err).WithField("issue_id", issue.ID).Error("Attachment upload failed")
		return nil, err
	}

	attachment := model.Attachment{
		ID:          uuid.NewString(),
		IssueID:     issue.ID,
		UploaderID:  userID,
		FileName:    file.Filename,
		ObjectName:  objectName,
		ContentType: contentType,
		Size:        file.Size,
	}

	if err := svc.db.Create(&attachment).Error; err != nil {
		return nil, TranslateDBError(err)
	}

	return svc.mapAttachment(&attachment), nil
}

func (svc *MediaService) ListAttachments(userID, issueID string) (*dto.AttachmentCollectionResponse, error) {
	issue, err := svc.authorizeIssue(userID, issueID)
	if err != nil {
		return nil, err
	}

	var attachments []model.Attachment
	if err := svc.db.Where("issue_id = ?", issue.ID).Order("created_at asc").Find(&attachments).Error; err != nil {
		return nil, TranslateDBError(err)
	}

	resp := dto.AttachmentCollectionResponse{
		Attachments: make([]dto.AttachmentResponse, 0, len(attachments)),
		Total:       len(attachments),
	}
	for i := range attachments {
		resp.Attachments = append(resp.Attachments, *svc.mapAttachment(&attachments[i]))
	}
	return &resp, nil
}

func (svc *MediaService) DeleteAttachment(userID, attachmentID string) error {
	var attachment model.Attachment
	err := svc.db.Where("id = ?", attachmentID).First(&attachment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.NewNotFoundError(nil, "Attachment not found")
	}
	if err != nil {
		return TranslateDBError(err)
	}

	if _, err := svc.authorizeIssue(userID, attachment.IssueID); err != nil {
		return err
	}

	if err := svc.minioSvc.DeleteFile(attachment.ObjectName); err != nil {
		log.WithError(err).WithField("attachment_id", attachmentID).Warn("Failed to delete attachment object")
	}

	return TranslateDBError(svc.db.Delete(&attachment).Error)
}

func (svc *MediaService) authorizeIssue(userID, issueID string) (*model.Issue, error) {
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

func (svc *MediaService) mapAttachment(attachment *model.Attachment) *dto.AttachmentResponse {
	url, err := svc.minioSvc.GetFileURL(attachment.ObjectName, time.Hour)
	if err != nil {
		log.WithError(err).WithField("attachment_id", attachment.ID).Warn("Failed to presign attachment URL")
	}

	return &dto.AttachmentResponse{
		ID:          attachment.ID,
		IssueID:     attachment.IssueID,
		FileName:    attachment.FileName,
		ContentType: attachment.ContentType,
		Size:        attachment.Size,
		URL:         url,
		CreatedAt:   attachment.CreatedAt,
	}
}
