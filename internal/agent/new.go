package agent

import (
	"sync"
	"time"

	"ci-integration-agent/config"
	"ci-integration-agent/internal/analysis/repository"
	"ci-integration-agent/internal/analyzer"
	"ci-integration-agent/internal/model"
	"ci-integration-agent/internal/notification"
	"ci-integration-agent/internal/webhook"
	pkgLog "ci-integration-agent/pkg/log"
)

// maxRecentAnalyses bounds the in-memory history used when no store is configured.
const maxRecentAnalyses = 50

// Agent owns a webhook processor, turns failed builds into cancellable analysis tasks and
// reports aggregated health.
type Agent struct {
	cfg       config.IntegrationConfig
	l         pkgLog.Logger
	processor *webhook.Processor
	analyzer  analyzer.Analyzer
	notifier  notification.Notifier
	store     repository.AnalysisRepository
	now       func() time.Time

	// mu guards everything below.
	mu              sync.Mutex
	running         bool
	startedAt       time.Time
	tasks           map[string]*task
	buildsMonitored int64
	buildsFailed    int64
	analysisStats   AnalysisStats
	recent          []model.FailureAnalysis

	wg sync.WaitGroup
}

// Option configures optional collaborators.
type Option func(*Agent)

func WithAnalyzer(a analyzer.Analyzer) Option {
	return func(ag *Agent) { ag.analyzer = a }
}

func WithNotifier(n notification.Notifier) Option {
	return func(ag *Agent) { ag.notifier = n }
}

func WithStore(s repository.AnalysisRepository) Option {
	return func(ag *Agent) { ag.store = s }
}

func WithClock(now func() time.Time) Option {
	return func(ag *Agent) { ag.now = now }
}

// New builds a stopped agent. Without WithAnalyzer the heuristic analyzer is used.
func New(cfg config.IntegrationConfig, l pkgLog.Logger, opts ...Option) *Agent {
	a := &Agent{
		cfg:       cfg,
		l:         l,
		processor: webhook.New(cfg, l),
		now:       time.Now,
		tasks:     make(map[string]*task),
		recent:    make([]model.FailureAnalysis, 0, maxRecentAnalyses),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.analyzer == nil {
		a.analyzer = analyzer.NewHeuristic()
	}
	return a
}

// Processor exposes the owned webhook processor for read-only views and ingress security.
func (a *Agent) Processor() *webhook.Processor {
	return a.processor
}
