package agent

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ci-integration-agent/internal/model"
	"ci-integration-agent/internal/webhook"
)

const (
	notRunningMessage  = "Agent not running"
	defaultStopTimeout = 30 * time.Second
)

// Start registers the default handlers and starts the processor. Calling it on a running
// agent is a no-op.
func (a *Agent) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return nil
	}

	// Registered before the consumer starts so events queued earlier are handled too.
	a.processor.RegisterHandler(WorkflowHandlerName, a.handleWorkflow, model.EventTypeWorkflowCompleted, WorkflowHandlerPriority)
	a.processor.RegisterHandler(JobHandlerName, a.handleJob, model.EventTypeJobCompleted, JobHandlerPriority)

	if err := a.processor.Start(); err != nil {
		return fmt.Errorf("start webhook processor: %w", err)
	}
	a.startedAt = a.now()
	a.running = true

	a.l.Infof(context.Background(), "integration agent started (analyzer=%s, failure_analysis=%t)",
		a.analyzer.Name(), a.cfg.FailureAnalysis.Enabled)
	return nil
}

// Stop stops the processor, cancels every unfinished analysis task and waits for them to
// return, bounded by ctx. Calling it on a stopped agent is a no-op.
func (a *Agent) Stop(ctx context.Context) error {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return nil
	}
	a.running = false
	a.mu.Unlock()

	procErr := a.processor.Stop(ctx)

	a.mu.Lock()
	cancelled := len(a.tasks)
	for id, t := range a.tasks {
		t.cancel()
		delete(a.tasks, id)
	}
	a.mu.Unlock()

	waitErr := a.Wait(ctx)
	a.l.Infof(ctx, "integration agent stopped (cancelled_tasks=%d)", cancelled)
	return errors.Join(procErr, waitErr)
}

// IsRunning reports whether Start has been called without a matching Stop.
func (a *Agent) IsRunning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

// ProcessWebhook hands the request to the processor, or rejects it when the agent is not running.
func (a *Agent) ProcessWebhook(ctx context.Context, headers http.Header, body []byte) webhook.Result {
	if !a.IsRunning() {
		return webhook.FailedResult(ErrAgentNotRunning, notRunningMessage)
	}
	return a.processor.ProcessWebhook(ctx, headers, body)
}

// Wait blocks until every spawned analysis task has returned or ctx is done.
func (a *Agent) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run starts the agent, calls fn and stops the agent on every exit path, panics included.
// The stop runs even when ctx is already done and is bounded by defaultStopTimeout.
func (a *Agent) Run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if err := a.Start(); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultStopTimeout)
		defer cancel()
		if stopErr := a.Stop(stopCtx); err == nil {
			err = stopErr
		}
	}()
	return fn(ctx)
}
