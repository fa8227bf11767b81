package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jiralite/jiralite_api/dto"
	"github.com/jiralite/jiralite_api/shared"
)

type IssueHandler struct {
	issueSvc IssueServiceInterface
}

func NewIssueHandler(issueSvc IssueServiceInterface) *IssueHandler {
	return &IssueHandler{issueSvc: issueSvc}
}

// @Summary Create Issue
// @Description Create an issue in a project the current user is a member of
// @Tags issues
// @Accept json
// @Produce json
// @Param createIssueRequest body dto.CreateIssueRequest true "Issue request"
// @Success 201 {object} shared.Response{data=dto.IssueResponse}
// @Router /api/v1/issues [post]
func (h *IssueHandler) CreateIssue(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	var req dto.CreateIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.CreateValidationErrorResponse(err))
	}

	resp, err := h.issueSvc.CreateIssue(userID, req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusCreated, "Created", resp)
}

// @Summary Get Issue
// @Description Get a single issue including its cached AI artifacts
// @Tags issues
// @Accept json
// @Produce json
// @Param issueId path string true "Issue ID"
// @Success 200 {object} shared.Response{data=dto.IssueResponse}
// @Router /api/v1/issues/{issueId} [get]
func (h *IssueHandler) GetIssue(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)
	issueID := c.Params("issueId")

	resp, err := h.issueSvc.GetIssue(userID, issueID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", resp)
}

// @Summary List Project Issues
// @Description List the issues of a project ordered by board position
// @Tags issues
// @Accept json
// @Produce json
// @Param projectId path string true "Project ID"
// @Success 200 {object} shared.Response{data=dto.IssueCollectionResponse}
// @Router /api/v1/projects/{projectId}/issues [get]
func (h *IssueHandler) ListIssues(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)
	projectID := c.Params("projectId")

	resp, err := h.issueSvc.ListIssues(userID, projectID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", resp)
}

// @Summary Update Issue
// @Description Patch an issue's mutable fields
// @Tags issues
// @Accept json
// @Produce json
// @Param issueId path string true "Issue ID"
// @Param updateIssueRequest body dto.UpdateIssueRequest true "Update request"
// @Success 200 {object} shared.Response{data=dto.IssueResponse}
// @Router /api/v1/issues/{issueId} [patch]
func (h *IssueHandler) UpdateIssue(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)
	issueID := c.Params("issueId")

	var req dto.UpdateIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.CreateValidationErrorResponse(err))
	}

	resp, err := h.issueSvc.UpdateIssue(userID, issueID, req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", resp)
}

// @Summary Delete Issue
// @Description Soft-delete an issue
// @Tags issues
// @Accept json
// @Produce json
// @Param issueId path string true "Issue ID"
// @Success 200 {object} shared.Response
// @Router /api/v1/issues/{issueId} [delete]
func (h *IssueHandler) DeleteIssue(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)
	issueID := c.Params("issueId")

	if err := h.issueSvc.DeleteIssue(userID, issueID); err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", nil)
}

// @Summary Add Comment
// @Description Add a comment to an issue
// @Tags issues
// @Accept json
// @Produce json
// @Param issueId path string true "Issue ID"
// @Param createCommentRequest body dto.CreateCommentRequest true "Comment request"
// @Success 201 {object} shared.Response{data=dto.CommentResponse}
// @Router /api/v1/issues/{issueId}/comments [post]
func (h *IssueHandler) AddComment(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)
	issueID := c.Params("issueId")

	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.CreateValidationErrorResponse(err))
	}

	resp, err := h.issueSvc.AddComment(userID, issueID, req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusCreated, "Created", resp)
}

// @Summary List Comments
// @Description List an issue's comments oldest first
// @Tags issues
// @Accept json
// @Produce json
// @Param issueId path string true "Issue ID"
// @Success 200 {object} shared.Response{data=dto.CommentCollectionResponse}
// @Router /api/v1/issues/{issueId}/comments [get]
func (h *IssueHandler) ListComments(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)
	issueID := c.Params("issueId")

	resp, err := h.issueSvc.ListComments(userID, issueID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", resp)
}
