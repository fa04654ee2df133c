package model

import (
	"fmt"
	"time"
)

// EventType is the CI webhook "type" field.
type EventType string

const (
	EventTypeWorkflowCompleted EventType = "workflow-completed"
	EventTypeJobCompleted      EventType = "job-completed"
	EventTypePing              EventType = "ping"
)

// Status is the closed set of workflow/job outcomes.
type Status string

const (
	StatusSuccess      Status = "success"
	StatusFailed       Status = "failed"
	StatusCanceled     Status = "canceled"
	StatusUnauthorized Status = "unauthorized"
	StatusRunning      Status = "running"
	StatusNotRun       Status = "not_run"
	StatusOnHold       Status = "on_hold"
	StatusNeedsSetup   Status = "needs_setup"
)

// ParseStatus maps a payload status string onto Status.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusSuccess, StatusFailed, StatusCanceled, StatusUnauthorized,
		StatusRunning, StatusNotRun, StatusOnHold, StatusNeedsSetup:
		return st, nil
	default:
		return "", fmt.Errorf("unknown status %q", s)
	}
}

// IsFailure reports whether the status should trigger failure analysis.
func (s Status) IsFailure() bool {
	return s == StatusFailed
}

// CIEvent is one of *WorkflowEvent, *JobEvent or *PingEvent.
type CIEvent interface {
	Type() EventType
	ID() string
	HappenedAt() time.Time
	RawPayload() []byte

	isCIEvent()
}

// base carries the fields every event variant shares.
type base struct {
	eventType  EventType
	id         string
	happenedAt time.Time
	raw        []byte
}

func newBase(t EventType, id string, happenedAt time.Time, raw []byte) base {
	cp := make([]byte, len(raw))
	copy(cp, raw)
	return base{eventType: t, id: id, happenedAt: happenedAt, raw: cp}
}

func (b base) Type() EventType       { return b.eventType }
func (b base) ID() string            { return b.id }
func (b base) HappenedAt() time.Time { return b.happenedAt }

// RawPayload returns a copy of the original request body.
func (b base) RawPayload() []byte {
	cp := make([]byte, len(b.raw))
	copy(cp, b.raw)
	return cp
}

func (base) isCIEvent() {}

// WorkflowEvent is a workflow-completed notification.
type WorkflowEvent struct {
	base

	WorkflowID     string
	WorkflowName   string
	ProjectSlug    string
	Status         Status
	StartedAt      time.Time
	StoppedAt      time.Time
	PipelineID     string
	PipelineNumber int
	Branch         string
	Revision       string
}

// NewWorkflowEvent builds a WorkflowEvent; the shared fields are fixed at construction.
func NewWorkflowEvent(id string, happenedAt time.Time, raw []byte, w WorkflowEvent) *WorkflowEvent {
	w.base = newBase(EventTypeWorkflowCompleted, id, happenedAt, raw)
	return &w
}

// JobEvent is a job-completed notification.
type JobEvent struct {
	base

	JobID       string
	JobName     string
	JobNumber   int
	WorkflowID  string
	ProjectSlug string
	Status      Status
	StartedAt   time.Time
	StoppedAt   time.Time
	WebURL      string
	ExitCode    *int
	Branch      string
	Revision    string
}

// NewJobEvent builds a JobEvent; the shared fields are fixed at construction.
func NewJobEvent(id string, happenedAt time.Time, raw []byte, j JobEvent) *JobEvent {
	j.base = newBase(EventTypeJobCompleted, id, happenedAt, raw)
	if j.ExitCode != nil {
		code := *j.ExitCode
		j.ExitCode = &code
	}
	return &j
}

// PingEvent is the no-op event sent when a webhook is configured.
type PingEvent struct {
	base
}

func NewPingEvent(id string, happenedAt time.Time, raw []byte) *PingEvent {
	return &PingEvent{base: newBase(EventTypePing, id, happenedAt, raw)}
}

// ProjectSlugOf returns the project slug for variants that carry one.
func ProjectSlugOf(e CIEvent) string {
	switch ev := e.(type) {
	case *WorkflowEvent:
		return ev.ProjectSlug
	case *JobEvent:
		return ev.ProjectSlug
	default:
		return ""
	}
}
