package repository

import (
	"context"

	"ci-integration-agent/internal/model"
)

// AnalysisRepository persists finished failure analyses.
type AnalysisRepository interface {
	Save(ctx context.Context, analysis model.FailureAnalysis) error
	ListRecent(ctx context.Context, opt ListOptions) ([]model.FailureAnalysis, error)
	Close() error
}
