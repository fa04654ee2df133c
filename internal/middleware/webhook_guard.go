package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ci-integration-agent/internal/webhook"
	"ci-integration-agent/pkg/response"
)

// WebhookGuard applies the source IP allow-list and the per-IP rate limit before the body is
// read.
func (m Middleware) WebhookGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.security == nil {
			c.Next()
			return
		}
		ctx := c.Request.Context()

		if err := m.security.ValidateIPAddress(c.Request); err != nil {
			m.l.Warnf(ctx, "webhook guard: %v", err)
			response.Forbidden(c)
			c.Abort()
			return
		}

		if err := m.security.CheckRateLimit(webhook.ClientIP(c.Request)); err != nil {
			m.l.Warnf(ctx, "webhook guard: %v", err)
			response.ErrorWithStatus(c, http.StatusTooManyRequests, "rate limit exceeded", nil)
			c.Abort()
			return
		}

		c.Next()
	}
}
