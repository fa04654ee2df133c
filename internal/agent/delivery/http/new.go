package http

import (
	"ci-integration-agent/internal/agent"
	"ci-integration-agent/pkg/log"
)

// maxWebhookBodyBytes caps the webhook body read into memory.
const maxWebhookBodyBytes = 5 << 20

type handler struct {
	l     log.Logger
	agent *agent.Agent
}

// New creates the HTTP handler for webhook ingress and the integration read API.
func New(l log.Logger, ag *agent.Agent) *handler {
	return &handler{
		l:     l,
		agent: ag,
	}
}
