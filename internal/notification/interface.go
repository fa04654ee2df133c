package notification

import (
	"context"

	"ci-integration-agent/internal/model"
)

// Notifier delivers a finished failure analysis somewhere people will see it.
type Notifier interface {
	Notify(ctx context.Context, analysis model.FailureAnalysis) error
	Name() string
}
