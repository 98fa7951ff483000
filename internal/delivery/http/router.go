package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/satishkumarchandala/clean-India/internal/metrics"
	"github.com/satishkumarchandala/clean-India/internal/service"
)

// SetupRoutes configures all HTTP routes
func SetupRoutes(app *fiber.App, issueSvc *service.IssueService, m *metrics.Metrics) {
	handler := NewHandler(issueSvc)

	// Health check and metrics
	app.Get("/health", handler.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	// API v1 routes
	api := app.Group("/api/v1")
	{
		issues := api.Group("/issues")

		issues.Get("/", handler.ListIssues)
		issues.Get("/stats", handler.GetStats)
		issues.Post("/", RequireCaller, handler.CreateIssue)

		// Bulk re-scoring (staff only)
		issues.Post("/recalculate-priorities", RequireCaller, handler.RecalculatePriorities)

		issues.Get("/:id", handler.GetIssue)
		issues.Get("/:id/priority", handler.GetPriority)
		issues.Post("/:id/upvote", RequireCaller, handler.Upvote)
		issues.Get("/:id/comments", handler.ListComments)
		issues.Post("/:id/comments", RequireCaller, handler.AddComment)
		issues.Put("/:id/status", RequireCaller, handler.UpdateStatus)
		issues.Put("/:id/assign", RequireCaller, handler.AssignIssue)
		issues.Delete("/:id", RequireCaller, handler.DeleteIssue)
	}
}
