package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ci-integration-agent/internal/analysis/repository"
	"ci-integration-agent/internal/analyzer"
	"ci-integration-agent/internal/model"
)

// AnalyzeBuildFailure runs the analyzer under the configured timeout and stamps the result
// with its duration. Successful analyses are stored and announced; failures there are
// logged and do not fail the analysis.
func (a *Agent) AnalyzeBuildFailure(ctx context.Context, req analyzer.Request) (model.FailureAnalysis, error) {
	start := a.now()

	analyzeCtx := ctx
	if secs := a.cfg.FailureAnalysis.TimeoutSeconds; secs > 0 {
		var cancel context.CancelFunc
		analyzeCtx, cancel = context.WithTimeout(ctx, time.Duration(secs)*time.Second)
		defer cancel()
	}

	result, err := a.analyzer.Analyze(analyzeCtx, req)
	if err != nil {
		a.mu.Lock()
		a.analysisStats.AnalysisErrors++
		a.mu.Unlock()
		return model.FailureAnalysis{}, fmt.Errorf("analyze %s: %w", req.TaskKey(), err)
	}

	result.AnalysisTime = a.now().Sub(start)
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = start
	}
	if result.ProjectSlug == "" {
		result.ProjectSlug = req.ProjectSlug
	}
	if result.WorkflowID == "" {
		result.WorkflowID = req.WorkflowID
	}
	if result.JobID == "" {
		result.JobID = req.JobID
	}
	result.Confidence = model.ClampConfidence(result.Confidence)

	a.mu.Lock()
	a.analysisStats.FailuresAnalyzed++
	if len(a.recent) == maxRecentAnalyses {
		a.recent = append(a.recent[:0], a.recent[1:]...)
	}
	a.recent = append(a.recent, result)
	a.mu.Unlock()

	a.l.Infof(ctx, "agent: %s analysed as %s (confidence %.2f) in %s",
		req.TaskKey(), result.FailureType, result.Confidence, result.AnalysisTime)

	a.persist(ctx, result)
	a.notify(ctx, result)
	return result, nil
}

func (a *Agent) persist(ctx context.Context, result model.FailureAnalysis) {
	if a.store == nil {
		return
	}
	if err := a.store.Save(context.WithoutCancel(ctx), result); err != nil {
		a.l.Errorf(ctx, "agent: failed to store analysis %s: %v", result.ID, err)
	}
}

func (a *Agent) notify(ctx context.Context, result model.FailureAnalysis) {
	n := a.cfg.Notifications
	if a.notifier == nil || !n.Enabled || !n.NotifyOnFailure {
		return
	}
	if err := a.notifier.Notify(context.WithoutCancel(ctx), result); err != nil {
		a.l.Errorf(ctx, "agent: failed to send %s notification for %s: %v", a.notifier.Name(), result.ID, err)
	}
}

// RecentAnalyses lists finished analyses newest first, from the store when one is
// configured and from memory otherwise.
func (a *Agent) RecentAnalyses(ctx context.Context, opt repository.ListOptions) ([]model.FailureAnalysis, error) {
	if a.store != nil {
		return a.store.ListRecent(ctx, opt)
	}

	limit := opt.Limit
	if limit <= 0 {
		limit = repository.DefaultListLimit
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]model.FailureAnalysis, 0, limit)
	for i := len(a.recent) - 1; i >= 0 && len(out) < limit; i-- {
		if opt.ProjectSlug != "" && a.recent[i].ProjectSlug != opt.ProjectSlug {
			continue
		}
		out = append(out, a.recent[i])
	}
	return out, nil
}
