package middleware

import (
	"ci-integration-agent/internal/webhook"
	"ci-integration-agent/pkg/log"
)

type Middleware struct {
	l        log.Logger
	security *webhook.SecurityValidator
}

// New builds the shared middleware set. security may be nil when no route needs the guard.
func New(l log.Logger, security *webhook.SecurityValidator) Middleware {
	return Middleware{
		l:        l,
		security: security,
	}
}
