package http

import (
	"github.com/gin-gonic/gin"

	"ci-integration-agent/internal/middleware"
)

// RegisterWebhookRoutes maps the CI webhook ingress. The guard applies the IP allow-list
// and rate limit.
func RegisterWebhookRoutes(rg *gin.RouterGroup, h *handler, mw middleware.Middleware) {
	rg.POST("/circleci", mw.WebhookGuard(), h.CircleCIWebhook)
}

// RegisterRoutes maps the read and task-control API under rg.
func RegisterRoutes(rg *gin.RouterGroup, h *handler) {
	rg.GET("/status", h.Status)
	rg.GET("/metrics", h.Metrics)
	rg.GET("/health", h.Health)
	rg.GET("/events", h.Events)
	rg.GET("/handlers", h.Handlers)
	rg.GET("/analyses", h.Analyses)

	tasks := rg.Group("/tasks")
	{
		tasks.GET("", h.Tasks)
		tasks.DELETE("/:id", h.CancelTask)
	}
}
