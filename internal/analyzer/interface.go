package analyzer

import (
	"context"

	"ci-integration-agent/internal/model"
)

// Analyzer diagnoses a failed build. Implementations must return promptly once ctx is done.
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (model.FailureAnalysis, error)
	Name() string
}
