package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jiralite/jiralite_api/dto"
	"github.com/jiralite/jiralite_api/shared"
)

type AIHandler struct {
	aiSvc        AIServiceInterface
	rateLimitSvc AIRateLimitServiceInterface
}

func NewAIHandler(aiSvc AIServiceInterface, rateLimitSvc AIRateLimitServiceInterface) *AIHandler {
	return &AIHandler{
		aiSvc:        aiSvc,
		rateLimitSvc: rateLimitSvc,
	}
}

// @Summary Summarize Issue
// @Description Return the cached AI summary for an issue, generating one when missing or when regenerate is set
// @Tags ai
// @Accept json
// @Produce json
// @Param summaryRequest body dto.SummaryRequest true "Summary request"
// @Success 200 {object} shared.Response{data=dto.SummaryResponse}
// @Failure 429 {object} shared.Response
// @Router /api/v1/ai/summary [post]
func (h *AIHandler) Summary(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	var req dto.SummaryRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.CreateValidationErrorResponse(err))
	}

	if err := h.consumeQuota(c, userID); err != nil {
		return err
	}

	resp, err := h.aiSvc.SummarizeIssue(userID, req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", resp)
}

// @Summary Suggest Next Steps
// @Description Return the cached AI suggestion for an issue, generating one when missing or when regenerate is set
// @Tags ai
// @Accept json
// @Produce json
// @Param suggestionRequest body dto.SuggestionRequest true "Suggestion request"
// @Success 200 {object} shared.Response{data=dto.SuggestionResponse}
// @Failure 429 {object} shared.Response
// @Router /api/v1/ai/suggestion [post]
func (h *AIHandler) Suggestion(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	var req dto.SuggestionRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.CreateValidationErrorResponse(err))
	}

	if err := h.consumeQuota(c, userID); err != nil {
		return err
	}

	resp, err := h.aiSvc.SuggestNextSteps(userID, req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", resp)
}

// @Summary Summarize Comment Thread
// @Description Return the cached AI comment summary for an issue, generating one when missing or when regenerate is set
// @Tags ai
// @Accept json
// @Produce json
// @Param commentSummaryRequest body dto.CommentSummaryRequest true "Comment summary request"
// @Success 200 {object} shared.Response{data=dto.SummaryResponse}
// @Failure 429 {object} shared.Response
// @Router /api/v1/ai/comment-summary [post]
func (h *AIHandler) CommentSummary(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	var req dto.CommentSummaryRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.CreateValidationErrorResponse(err))
	}

	// The comment-count precondition runs before the rate limiter so a
	// request that cannot succeed never spends quota.
	if err := h.aiSvc.CheckCommentPrecondition(userID, req.IssueID); err != nil {
		return err
	}

	if err := h.consumeQuota(c, userID); err != nil {
		return err
	}

	resp, err := h.aiSvc.SummarizeComments(userID, req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", resp)
}

// @Summary Suggest Labels
// @Description Suggest up to 3 existing project labels for a draft issue; nothing is cached or persisted
// @Tags ai
// @Accept json
// @Produce json
// @Param autoLabelRequest body dto.AutoLabelRequest true "Auto-label request"
// @Success 200 {object} shared.Response{data=dto.AutoLabelResponse}
// @Failure 429 {object} shared.Response
// @Router /api/v1/ai/auto-label [post]
func (h *AIHandler) AutoLabel(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	var req dto.AutoLabelRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.CreateValidationErrorResponse(err))
	}

	if err := h.consumeQuota(c, userID); err != nil {
		return err
	}

	resp, err := h.aiSvc.SuggestLabels(userID, req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", resp)
}

// @Summary Find Duplicate Issues
// @Description Rank up to 3 existing issues likely to duplicate the given title and description
// @Tags ai
// @Accept json
// @Produce json
// @Param duplicateRequest body dto.DuplicateRequest true "Duplicate detection request"
// @Success 200 {object} shared.Response{data=dto.DuplicateResponse}
// @Failure 429 {object} shared.Response
// @Router /api/v1/ai/duplicate [post]
func (h *AIHandler) Duplicate(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	var req dto.DuplicateRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.CreateValidationErrorResponse(err))
	}

	if err := h.consumeQuota(c, userID); err != nil {
		return err
	}

	resp, err := h.aiSvc.FindDuplicates(userID, req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", resp)
}

// consumeQuota runs the rate limiter, sets the quota headers, and converts
// a denial into the 429 error the error handler renders.
func (h *AIHandler) consumeQuota(c *fiber.Ctx, userID string) error {
	quota, err := h.rateLimitSvc.CheckAndConsume(userID)
	if err != nil {
		return err
	}

	c.Set("X-RateLimit-Remaining", strconv.Itoa(quota.MinuteRemaining))
	c.Set("X-RateLimit-Daily-Remaining", strconv.Itoa(quota.DailyRemaining))
	if quota.MinuteResetTime != nil {
		c.Set("X-RateLimit-Reset", strconv.FormatInt(quota.MinuteResetTime.Unix(), 10))
	}

	if !quota.Allowed {
		return shared.NewRateLimitError(quota.Reason, quota)
	}

	return nil
}
