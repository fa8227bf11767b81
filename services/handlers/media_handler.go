package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jiralite/jiralite_api/shared"
)

type MediaHandler struct {
	mediaSvc MediaServiceInterface
}

func NewMediaHandler(mediaSvc MediaServiceInterface) *MediaHandler {
	return &MediaHandler{mediaSvc: mediaSvc}
}

// @Summary Upload Attachment
// @Description Attach a file to an issue
// @Tags attachments
// @Accept multipart/form-data
// @Produce json
// @Param issueId path string true "Issue ID"
// @Param file formData file true "Attachment file"
// @Success 201 {object} shared.Response{data=dto.AttachmentResponse}
// @Router /api/v1/issues/{issueId}/attachments [post]
func (h *MediaHandler) UploadAttachment(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)
	issueID := c.Params("issueId")

	file, err := c.FormFile("file")
	if err != nil {
		return shared.NewBadRequestError(err, "Missing file")
	}

	resp, err := h.mediaSvc.UploadAttachment(userID, issueID, file)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusCreated, "Created", resp)
}

// @Summary List Attachments
// @Description List an issue's attachments with presigned download URLs
// @Tags attachments
// @Accept json
// @Produce json
// @Param issueId path string true "Issue ID"
// @Success 200 {object} shared.Response{data=dto.AttachmentCollectionResponse}
// @Router /api/v1/issues/{issueId}/attachments [get]
func (h *MediaHandler) ListAttachments(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)
	issueID := c.Params("issueId")

	resp, err := h.mediaSvc.ListAttachments(userID, issueID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", resp)
}

// @Summary Delete Attachment
// @Description Remove an attachment and its stored object
// @Tags attachments
// @Accept json
// @Produce json
// @Param attachmentId path string true "Attachment ID"
// @Success 200 {object} shared.Response
// @Router /api/v1/attachments/{attachmentId} [delete]
func (h *MediaHandler) DeleteAttachment(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)
	attachmentID := c.Params("attachmentId")

	if err := h.mediaSvc.DeleteAttachment(userID, attachmentID); err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", nil)
}
