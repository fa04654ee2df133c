package agent

import (
	"context"
	"fmt"

	"ci-integration-agent/internal/analyzer"
	"ci-integration-agent/internal/model"
)

func (a *Agent) handleWorkflow(ctx context.Context, e model.CIEvent) error {
	ev, ok := e.(*model.WorkflowEvent)
	if !ok {
		return fmt.Errorf("%s: unexpected event %T", WorkflowHandlerName, e)
	}
	a.onCompleted(ctx, ev.Status, analyzer.RequestFromEvent(ev))
	return nil
}

func (a *Agent) handleJob(ctx context.Context, e model.CIEvent) error {
	ev, ok := e.(*model.JobEvent)
	if !ok {
		return fmt.Errorf("%s: unexpected event %T", JobHandlerName, e)
	}
	a.onCompleted(ctx, ev.Status, analyzer.RequestFromEvent(ev))
	return nil
}

func (a *Agent) onCompleted(ctx context.Context, status model.Status, req analyzer.Request) {
	failed := status.IsFailure()

	a.mu.Lock()
	a.buildsMonitored++
	if failed {
		a.buildsFailed++
	}
	a.mu.Unlock()

	if failed && a.cfg.FailureAnalysis.Enabled {
		a.spawnAnalysis(ctx, req)
	}
}

// spawnAnalysis starts a background analysis keyed by req.TaskKey. A redelivered event
// whose analysis is still running does not start a second one.
func (a *Agent) spawnAnalysis(ctx context.Context, req analyzer.Request) {
	id := req.TaskKey()

	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		a.l.Warnf(ctx, "agent: not running, skipping analysis %s", id)
		return
	}
	if _, ok := a.tasks[id]; ok {
		a.mu.Unlock()
		a.l.Infof(ctx, "agent: analysis %s already running, skipping duplicate", id)
		return
	}

	taskCtx, cancel := context.WithCancel(context.Background())
	t := &task{id: id, taskType: TaskTypeFailureAnalysis, startedAt: a.now(), cancel: cancel}
	a.tasks[id] = t
	a.wg.Add(1)
	a.mu.Unlock()

	go a.runTask(taskCtx, t, req)
}

func (a *Agent) runTask(ctx context.Context, t *task, req analyzer.Request) {
	defer a.wg.Done()
	defer t.cancel()
	defer a.finishTask(t)

	defer func() {
		if r := recover(); r != nil {
			a.mu.Lock()
			a.analysisStats.AnalysisErrors++
			a.mu.Unlock()
			a.l.Errorf(ctx, "agent: analysis %s panicked: %v", t.id, r)
		}
	}()

	if _, err := a.AnalyzeBuildFailure(ctx, req); err != nil {
		a.l.Warnf(ctx, "agent: analysis %s failed: %v", t.id, err)
	}
}

// finishTask drops t from the map unless it was already cancelled and replaced.
func (a *Agent) finishTask(t *task) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if cur, ok := a.tasks[t.id]; ok && cur == t {
		delete(a.tasks, t.id)
	}
}

// ActiveTasks returns the unfinished analysis tasks, oldest first.
func (a *Agent) ActiveTasks() []TaskInfo {
	a.mu.Lock()
	out := make([]TaskInfo, 0, len(a.tasks))
	for _, t := range a.tasks {
		out = append(out, t.info())
	}
	a.mu.Unlock()

	sortTasks(out)
	return out
}

// CancelTask cancels and forgets an unfinished task. It reports whether anything was cancelled.
func (a *Agent) CancelTask(id string) bool {
	a.mu.Lock()
	t, ok := a.tasks[id]
	if ok {
		delete(a.tasks, id)
	}
	a.mu.Unlock()

	if !ok {
		return false
	}
	t.cancel()
	a.l.Infof(context.Background(), "agent: cancelled task %s", id)
	return true
}
