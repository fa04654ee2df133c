package webhook

import (
	"context"
	"fmt"
	"time"

	"ci-integration-agent/internal/model"
)

// run is the single consumer. It blocks only while waiting for the next event or stop.
func (p *Processor) run(stop <-chan struct{}, done chan<- struct{}) {
	defer func() {
		p.stateMu.Lock()
		p.state = StateStopped
		p.stateMu.Unlock()
		close(done)
	}()

	for {
		// Prefer stop over pending work so Stop is observed between events.
		select {
		case <-stop:
			return
		default:
		}

		select {
		case <-stop:
			return
		case item := <-p.queue:
			p.dispatch(item)
		}
	}
}

// dispatch runs every matching handler in priority order. Handler failures are counted and
// never stop the remaining handlers.
func (p *Processor) dispatch(item queueItem) {
	start := time.Now()
	ctx := context.Background()

	var dispatchErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				dispatchErr = &InternalError{Err: fmt.Errorf("dispatch panic: %v", r)}
			}
		}()

		for _, h := range p.snapshotHandlers() {
			if !h.matches(item.event.Type()) {
				continue
			}
			if err := p.invoke(ctx, h, item.event); err != nil {
				p.l.Errorf(ctx, "webhook processor: %v", err)
				p.mu.Lock()
				p.stats.EventsFailed++
				p.mu.Unlock()
			}
		}
	}()

	if dispatchErr != nil {
		p.l.Errorf(ctx, "webhook processor: event %s: %v", item.event.ID(), dispatchErr)
	}

	elapsed := time.Since(start)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.stats.EventsProcessed++
	p.stats.TotalProcessingTime += elapsed

	for i := len(p.recent) - 1; i >= 0; i-- {
		if p.recent[i].seq != item.seq {
			continue
		}
		if dispatchErr != nil {
			p.recent[i].Status = RecentStatusFailed
			p.recent[i].Error = SafeMessage(dispatchErr)
		} else {
			p.recent[i].Status = RecentStatusProcessed
		}
		break
	}
}

// invoke calls one handler, turning a panic into a HandlerError.
func (p *Processor) invoke(ctx context.Context, h registeredHandler, event model.CIEvent) (err error) {
	if p.cfg.HandlerTimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(p.cfg.HandlerTimeoutSeconds)*time.Second)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = &HandlerError{Handler: h.name, EventID: event.ID(), Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if herr := h.fn(ctx, event); herr != nil {
		return &HandlerError{Handler: h.name, EventID: event.ID(), Err: herr}
	}
	return nil
}

func (p *Processor) snapshotHandlers() []registeredHandler {
	p.handlersMu.RLock()
	defer p.handlersMu.RUnlock()

	out := make([]registeredHandler, len(p.handlers))
	copy(out, p.handlers)
	return out
}
