package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/grouplab-go-api/internal/config"
	"github.com/noah-isme/grouplab-go-api/internal/handler"
	"github.com/noah-isme/grouplab-go-api/internal/middleware"
	"github.com/noah-isme/grouplab-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ProjectHandler     *handler.ProjectHandler
	GroupHandler       *handler.GroupHandler
	DeliverableHandler *handler.DeliverableHandler
	SubmissionHandler  *handler.SubmissionHandler
	SimilarityHandler  *handler.SimilarityHandler
	RealtimeHandler    *handler.RealtimeHandler
	JWTMiddleware      fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Projects, with nested groups and deliverables
	if deps.ProjectHandler != nil {
		projects := app.Group("/api/v2/projects", jwtMiddleware)
		deps.ProjectHandler.Register(projects)

		if deps.GroupHandler != nil {
			groupGroup := projects.Group("/:projectID/groups")
			deps.GroupHandler.Register(groupGroup)
		}

		if deps.DeliverableHandler != nil {
			deliverableGroup := projects.Group("/:projectID/deliverables")
			deps.DeliverableHandler.RegisterProjectScoped(deliverableGroup)
		}
	}

	// Deliverables, with nested submissions and similarity reports
	if deps.DeliverableHandler != nil {
		deliverables := app.Group("/api/v2/deliverables", jwtMiddleware)
		deps.DeliverableHandler.Register(deliverables)

		if deps.SubmissionHandler != nil {
			submissionGroup := deliverables.Group(
				"/:deliverableID/submissions",
				middleware.RateLimit("submissions", 30, time.Minute),
			)
			deps.SubmissionHandler.Register(submissionGroup)
		}

		if deps.SimilarityHandler != nil {
			similarityGroup := deliverables.Group(
				"/:deliverableID/similarity",
				middleware.RequireRole("teacher", "admin"),
			)
			deps.SimilarityHandler.Register(similarityGroup)
		}
	}

	// Websocket submission stream
	if deps.RealtimeHandler != nil {
		ws := app.Group("/ws")
		deps.RealtimeHandler.Register(ws)
	}
}
