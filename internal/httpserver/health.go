package httpserver

import (
	"github.com/gin-gonic/gin"

	"ci-integration-agent/pkg/response"
)

// Health response constants (single source for version and service identity).
const (
	HealthVersion = "1.0.0"
	ServiceName   = "ci-integration-agent"
)

// healthCheck handles health check requests
// @Summary Health Check
// @Description Reports agent and webhook pipeline health; 503 when unhealthy
// @Tags Health
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{} "API is healthy"
// @Failure 503 {object} response.Resp "Agent stopped or queue at capacity"
// @Router /health [get]
func (srv HTTPServer) healthCheck(c *gin.Context) {
	health := srv.agent.HealthCheck()
	body := gin.H{
		"status":  "healthy",
		"version": HealthVersion,
		"service": ServiceName,
		"health":  health,
	}
	if !health.Healthy {
		body["status"] = "unhealthy"
		response.ServiceUnavailable(c, body)
		return
	}
	response.OK(c, body)
}

// readyCheck handles readiness check: ready once the agent accepts webhooks.
// @Summary Readiness Check
// @Description Check if the API is ready to serve traffic
// @Tags Health
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{} "API is ready"
// @Failure 503 {object} response.Resp "Agent not running"
// @Router /ready [get]
func (srv HTTPServer) readyCheck(c *gin.Context) {
	if !srv.agent.IsRunning() {
		response.ServiceUnavailable(c, gin.H{"status": "not_ready", "service": ServiceName})
		return
	}
	response.OK(c, gin.H{
		"status":  "ready",
		"version": HealthVersion,
		"service": ServiceName,
	})
}

// liveCheck handles liveness check requests
// @Summary Liveness Check
// @Description Check if the API is alive
// @Tags Health
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{} "API is alive"
// @Router /live [get]
func (srv HTTPServer) liveCheck(c *gin.Context) {
	response.OK(c, gin.H{
		"status":  "alive",
		"version": HealthVersion,
		"service": ServiceName,
	})
}
