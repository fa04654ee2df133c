package notification

import (
	"context"
	"errors"
	"fmt"

	"ci-integration-agent/internal/model"
)

// Multi sends to every notifier and joins their errors. One failing channel does not stop
// the others.
type Multi struct {
	notifiers []Notifier
}

func NewMulti(notifiers ...Notifier) *Multi {
	return &Multi{notifiers: notifiers}
}

func (m *Multi) Name() string { return "multi" }

// Len reports how many channels are configured.
func (m *Multi) Len() int { return len(m.notifiers) }

func (m *Multi) Notify(ctx context.Context, a model.FailureAnalysis) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, a); err != nil {
			if errors.Is(err, ErrNotGitHubProject) {
				continue
			}
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
		}
	}
	return errors.Join(errs...)
}
