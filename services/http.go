package services

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	fiberSwagger "github.com/gofiber/swagger"
	log "github.com/sirupsen/logrus"

	"github.com/jiralite/jiralite_api/docs"
	"github.com/jiralite/jiralite_api/services/handlers"
	"github.com/jiralite/jiralite_api/shared"
)

type HttpService struct {
	context.DefaultService

	authSvc      *AuthService
	projectSvc   *ProjectService
	issueSvc     *IssueService
	mediaSvc     *MediaService
	aiSvc        *AIService
	rateLimitSvc *AIRateLimitService

	port   int
	server *fiber.App
}

const HTTP_SVC = "http_svc"

func (svc HttpService) Id() string {
	return HTTP_SVC
}

func (svc *HttpService) Configure(ctx *context.Context) error {
	if port := os.Getenv("HTTP_PORT"); port != "" {
		var err error
		if svc.port, err = strconv.Atoi(port); err != nil {
			return err
		}
	} else {
		svc.port = 8000
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *HttpService) Start() error {
	svc.authSvc = svc.Service(AUTH_SVC).(*AuthService)
	svc.projectSvc = svc.Service(PROJECT_SVC).(*ProjectService)
	svc.issueSvc = svc.Service(ISSUE_SVC).(*IssueService)
	svc.mediaSvc = svc.Service(MEDIA_SVC).(*MediaService)
	svc.aiSvc = svc.Service(AI_SVC).(*AIService)
	svc.rateLimitSvc = svc.Service(AI_RATE_LIMIT_SVC).(*AIRateLimitService)

	docs.SwaggerInfo.BasePath = ""

	app := fiber.New(fiber.Config{
		ErrorHandler: svc.handleError,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(MonitoringMiddleware())

	app.Get("/ping", svc.ping)
	app.Get("/swagger/*", fiberSwagger.HandlerDefault)

	authHandler := handlers.NewAuthHandler(svc.authSvc)
	projectHandler := handlers.NewProjectHandler(svc.projectSvc)
	issueHandler := handlers.NewIssueHandler(svc.issueSvc)
	mediaHandler := handlers.NewMediaHandler(svc.mediaSvc)
	aiHandler := handlers.NewAIHandler(svc.aiSvc, svc.rateLimitSvc)

	v1 := app.Group("/api/v1")
	v1.Get("/ping", svc.ping)

	auth := v1.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)

	protected := v1.Group("", svc.authSvc.RequiredAuth())

	protected.Post("/projects", projectHandler.CreateProject)
	protected.Get("/projects", projectHandler.ListProjects)
	protected.Post("/projects/:projectId/labels", projectHandler.CreateLabel)
	protected.Get("/projects/:projectId/labels", projectHandler.ListLabels)
	protected.Get("/projects/:projectId/issues", issueHandler.ListIssues)

	protected.Post("/issues", issueHandler.CreateIssue)
	protected.Get("/issues/:issueId", issueHandler.GetIssue)
	protected.Patch("/issues/:issueId", issueHandler.UpdateIssue)
	protected.Delete("/issues/:issueId", issueHandler.DeleteIssue)
	protected.Post("/issues/:issueId/comments", issueHandler.AddComment)
	protected.Get("/issues/:issueId/comments", issueHandler.ListComments)
	protected.Post("/issues/:issueId/attachments", mediaHandler.UploadAttachment)
	protected.Get("/issues/:issueId/attachments", mediaHandler.ListAttachments)
	protected.Delete("/attachments/:attachmentId", mediaHandler.DeleteAttachment)

	ai := protected.Group("/ai")
	ai.Post("/summary", aiHandler.Summary)
	ai.Post("/suggestion", aiHandler.Suggestion)
	ai.Post("/comment-summary", aiHandler.CommentSummary)
	ai.Post("/auto-label", aiHandler.AutoLabel)
	ai.Post("/duplicate", aiHandler.Duplicate)

	app.Use(func(c *fiber.Ctx) error {
		return shared.ResponseJSON(c, fiber.StatusNotFound, "Not Found", nil)
	})

	svc.server = app

	log.WithField("port", svc.port).Info("HTTP server starting")
	return app.Listen(fmt.Sprintf(":%v", svc.port))
}

func (svc *HttpService) Shutdown() {
	if svc.server != nil {
		_ = svc.server.Shutdown()
	}
}

// @Summary Ping
// @Description This endpoint checks the health of the service
// @Tags health
// @Accept  json
// @Produce json
// @Success 200 {object} shared.Response{data=string}
// @Router /ping [get]
func (svc *HttpService) ping(c *fiber.Ctx) error {
	c.Set("Cache-Control", "max-age=10")

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", "pong")
}

// handleError maps AppErrors onto the response envelope; anything else is a
// generic 500 with no internal detail.
func (svc *HttpService) handleError(c *fiber.Ctx, err error) error {
	if appErr, ok := shared.GetAppError(err); ok {
		return shared.ResponseJSON(c, appErr.StatusCode, appErr.Message, appErr.Data)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return shared.ResponseJSON(c, fiberErr.Code, fiberErr.Message, nil)
	}

	log.WithError(err).Error("Unhandled request error")
	return shared.ResponseInternalError(c)
}
