package http

import (
	"errors"
	"net/http"

	"ci-integration-agent/internal/agent"
	"ci-integration-agent/internal/webhook"
)

var errInvalidLimit = errors.New("limit must be a positive integer")

// webhookStatus maps a processing result onto the HTTP status the CI platform sees.
func webhookStatus(res webhook.Result) int {
	if res.Success {
		return http.StatusOK
	}

	var (
		validationErr *webhook.ValidationError
		internalErr   *webhook.InternalError
	)
	err := res.Err()
	switch {
	case errors.Is(err, agent.ErrAgentNotRunning), errors.Is(err, webhook.ErrQueueFull):
		return http.StatusServiceUnavailable
	case errors.As(err, &validationErr):
		return http.StatusUnauthorized
	case errors.As(err, &internalErr):
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
