package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jiralite/jiralite_api/dto"
	"github.com/jiralite/jiralite_api/shared"
)

type ProjectHandler struct {
	projectSvc ProjectServiceInterface
}

func NewProjectHandler(projectSvc ProjectServiceInterface) *ProjectHandler {
	return &ProjectHandler{projectSvc: projectSvc}
}

// @Summary Create Project
// @Description Create a project owned by the current user
// @Tags projects
// @Accept json
// @Produce json
// @Param createProjectRequest body dto.CreateProjectRequest true "Project request"
// @Success 201 {object} shared.Response{data=dto.ProjectResponse}
// @Router /api/v1/projects [post]
func (h *ProjectHandler) CreateProject(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	var req dto.CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.CreateValidationErrorResponse(err))
	}

	resp, err := h.projectSvc.CreateProject(userID, req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusCreated, "Created", resp)
}

// @Summary List Projects
// @Description List projects the current user is a member of
// @Tags projects
// @Accept json
// @Produce json
// @Success 200 {object} shared.Response{data=dto.ProjectCollectionResponse}
// @Router /api/v1/projects [get]
func (h *ProjectHandler) ListProjects(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	resp, err := h.projectSvc.ListProjects(userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", resp)
}

// @Summary Create Label
// @Description Add a label to a project
// @Tags projects
// @Accept json
// @Produce json
// @Param projectId path string true "Project ID"
// @Param createLabelRequest body dto.CreateLabelRequest true "Label request"
// @Success 201 {object} shared.Response{data=dto.LabelResponse}
// @Router /api/v1/projects/{projectId}/labels [post]
func (h *ProjectHandler) CreateLabel(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)
	projectID := c.Params("projectId")

	var req dto.CreateLabelRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.CreateValidationErrorResponse(err))
	}

	resp, err := h.projectSvc.CreateLabel(userID, projectID, req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusCreated, "Created", resp)
}

// @Summary List Labels
// @Description List a project's labels
// @Tags projects
// @Accept json
// @Produce json
// @Param projectId path string true "Project ID"
// @Success 200 {object} shared.Response{data=[]dto.LabelResponse}
// @Router /api/v1/projects/{projectId}/labels [get]
func (h *ProjectHandler) ListLabels(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)
	projectID := c.Params("projectId")

	resp, err := h.projectSvc.ListLabels(userID, projectID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", resp)
}
