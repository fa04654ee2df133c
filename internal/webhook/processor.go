package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"ci-integration-agent/internal/model"
)

// Start spawns the consumer loop. Calling it while running is a no-op.
func (p *Processor) Start() error {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()

	switch p.state {
	case StateRunning, StateStarting:
		return nil
	case StateStopping:
		return ErrStopping
	}

	p.state = StateStarting
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	go p.run(p.stopCh, p.doneCh)
	p.state = StateRunning

	p.l.Infof(context.Background(), "webhook processor started (max_queue_size=%d)", p.maxQueueSize)
	return nil
}

// Stop signals the consumer loop and waits for it to exit. A handler that is running
// finishes first. The wait is bounded only by ctx. Stopping a stopped processor is a no-op.
func (p *Processor) Stop(ctx context.Context) error {
	p.stateMu.Lock()
	if p.state == StateStopped {
		p.stateMu.Unlock()
		return nil
	}
	done := p.doneCh
	if p.state != StateStopping {
		p.state = StateStopping
		close(p.stopCh)
	}
	p.stateMu.Unlock()

	select {
	case <-done:
		p.l.Infof(ctx, "webhook processor stopped")
		return nil
	case <-ctx.Done():
		p.l.Warnf(ctx, "webhook processor: stop interrupted before the consumer loop exited: %v", ctx.Err())
		return ctx.Err()
	}
}

// State returns the current lifecycle state.
func (p *Processor) State() State {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	return p.state
}

// IsRunning reports whether the consumer loop is up.
func (p *Processor) IsRunning() bool {
	return p.State() == StateRunning
}

// RegisterHandler adds fn under name. An empty eventType matches every event. Handlers run in
// descending priority, ties in registration order. Re-registering a name replaces the handler
// and moves it behind existing handlers of the same priority.
func (p *Processor) RegisterHandler(name string, fn HandlerFunc, eventType model.EventType, priority int) {
	p.handlersMu.Lock()
	defer p.handlersMu.Unlock()

	p.handlers = removeHandler(p.handlers, name)
	p.handlers = append(p.handlers, registeredHandler{
		name:      name,
		fn:        fn,
		eventType: eventType,
		priority:  priority,
	})
	sort.SliceStable(p.handlers, func(i, j int) bool {
		return p.handlers[i].priority > p.handlers[j].priority
	})
}

// UnregisterHandler removes the handler registered under name.
func (p *Processor) UnregisterHandler(name string) bool {
	p.handlersMu.Lock()
	defer p.handlersMu.Unlock()

	before := len(p.handlers)
	p.handlers = removeHandler(p.handlers, name)
	return len(p.handlers) != before
}

func removeHandler(handlers []registeredHandler, name string) []registeredHandler {
	out := handlers[:0]
	for _, h := range handlers {
		if h.name != name {
			out = append(out, h)
		}
	}
	return out
}

// ProcessWebhook authenticates, parses and enqueues one webhook. It never blocks on a full
// queue and never returns payload or secret material in the Result.
func (p *Processor) ProcessWebhook(ctx context.Context, headers http.Header, body []byte) (res Result) {
	start := time.Now()

	p.mu.Lock()
	p.stats.RequestsTotal++
	p.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			res = p.fail(ctx, &InternalError{Err: fmt.Errorf("panic: %v", r)}, start)
		}
	}()

	if p.cfg.ValidateSignatures {
		if err := p.security.ValidateSignature(body, headers.Get(p.signatureHeader)); err != nil {
			return p.fail(ctx, err, start)
		}
	}

	event, err := p.parser.Parse(body)
	if err != nil {
		return p.fail(ctx, err, start)
	}

	if event.Type() == model.EventTypePing && p.cfg.IgnorePingEvents {
		p.mu.Lock()
		p.stats.PingEvents++
		p.mu.Unlock()

		p.l.Debugf(ctx, "webhook processor: ignored ping %s", event.ID())
		return Result{
			Success:        true,
			EventType:      event.Type(),
			EventID:        event.ID(),
			ProcessingTime: time.Since(start),
		}
	}

	if err := p.enqueue(event); err != nil {
		return p.fail(ctx, err, start)
	}

	p.l.Debugf(ctx, "webhook processor: queued %s %s", event.Type(), event.ID())
	return Result{
		Success:        true,
		EventType:      event.Type(),
		EventID:        event.ID(),
		ProcessingTime: time.Since(start),
	}
}

// enqueue performs the non-blocking send. The lock is held across the send so the consumer
// cannot mark the recent entry before it exists.
func (p *Processor) enqueue(event model.CIEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.seq++
	item := queueItem{event: event, seq: p.seq}

	select {
	case p.queue <- item:
	default:
		return newProcessingError(ErrQueueFull.Error(), ErrQueueFull)
	}

	p.stats.RequestsSuccessful++
	switch event.Type() {
	case model.EventTypeWorkflowCompleted:
		p.stats.WorkflowEvents++
	case model.EventTypeJobCompleted:
		p.stats.JobEvents++
	}

	p.recordRecentLocked(RecentEvent{
		ID:        event.ID(),
		Type:      event.Type(),
		Timestamp: time.Now(),
		Status:    RecentStatusQueued,
		seq:       item.seq,
	})
	return nil
}

func (p *Processor) fail(ctx context.Context, err error, start time.Time) Result {
	p.mu.Lock()
	p.stats.RequestsFailed++
	p.mu.Unlock()

	var internalErr *InternalError
	switch {
	case errors.As(err, &internalErr):
		p.l.Errorf(ctx, "webhook processor: %v", err)
	default:
		p.l.Warnf(ctx, "webhook processor: rejected request: %v", err)
	}

	return Result{
		Success:        false,
		Error:          SafeMessage(err),
		ProcessingTime: time.Since(start),
		err:            err,
	}
}

func (p *Processor) recordRecentLocked(ev RecentEvent) {
	if len(p.recent) >= maxRecentEvents {
		copy(p.recent, p.recent[1:])
		p.recent = p.recent[:len(p.recent)-1]
	}
	p.recent = append(p.recent, ev)
}

// Stats returns a snapshot of the counters.
func (p *Processor) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// QueueInfo reports current queue occupancy.
func (p *Processor) QueueInfo() QueueInfo {
	size := len(p.queue)
	return QueueInfo{
		Size:        size,
		MaxSize:     p.maxQueueSize,
		Utilization: float64(size) / float64(p.maxQueueSize),
	}
}

// RecentEvents returns up to the last 100 queued events, oldest first.
func (p *Processor) RecentEvents() []RecentEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]RecentEvent, len(p.recent))
	copy(out, p.recent)
	return out
}

// Handlers lists registered handlers in dispatch order.
func (p *Processor) Handlers() []HandlerInfo {
	p.handlersMu.RLock()
	defer p.handlersMu.RUnlock()

	out := make([]HandlerInfo, 0, len(p.handlers))
	for _, h := range p.handlers {
		out = append(out, HandlerInfo{Name: h.name, EventType: h.eventType, Priority: h.priority})
	}
	return out
}

// HealthCheck is healthy iff the consumer loop runs and the queue has room.
func (p *Processor) HealthCheck() Health {
	state := p.State()
	size := len(p.queue)
	running := state == StateRunning

	return Health{
		Healthy:      running && size < p.maxQueueSize,
		Running:      running,
		State:        state.String(),
		QueueSize:    size,
		MaxQueueSize: p.maxQueueSize,
	}
}
