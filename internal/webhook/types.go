package webhook

import (
	"context"
	"encoding/json"
	"time"

	"ci-integration-agent/internal/model"
)

// SecurityConfig holds webhook security settings
type SecurityConfig struct {
	Secret          string   // Shared secret for signature verification
	AllowedIPs      []string // IP whitelist (optional)
	RateLimitPerMin int      // Max requests per minute per source, 0 disables
}

// HandlerFunc consumes one dequeued event. Returned errors are counted, never propagated.
type HandlerFunc func(ctx context.Context, event model.CIEvent) error

// State is the processor lifecycle state.
type State int32

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Result is what ProcessWebhook reports to the caller.
type Result struct {
	Success        bool
	EventType      model.EventType
	EventID        string
	Error          string
	ProcessingTime time.Duration

	// err keeps the full error for the delivery layer's status mapping. Not serialized.
	err error
}

// Err returns the underlying error, nil on success.
func (r Result) Err() error { return r.err }

// MarshalJSON renders the stable wire shape with nulls for absent fields.
func (r Result) MarshalJSON() ([]byte, error) {
	type wire struct {
		Success        bool    `json:"success"`
		EventType      *string `json:"event_type"`
		EventID        *string `json:"event_id"`
		Error          *string `json:"error"`
		ProcessingTime float64 `json:"processing_time"`
	}
	w := wire{Success: r.Success, ProcessingTime: r.ProcessingTime.Seconds()}
	if r.EventType != "" {
		et := string(r.EventType)
		w.EventType = &et
	}
	if r.EventID != "" {
		id := r.EventID
		w.EventID = &id
	}
	if r.Error != "" {
		e := r.Error
		w.Error = &e
	}
	return json.Marshal(w)
}

// FailedResult builds an unsuccessful Result for callers that short-circuit before the processor.
func FailedResult(err error, message string) Result {
	return Result{Success: false, Error: message, err: err}
}

// Stats are the processor's monotonically increasing counters.
type Stats struct {
	RequestsTotal       int64         `json:"requests_total"`
	RequestsSuccessful  int64         `json:"requests_successful"`
	RequestsFailed      int64         `json:"requests_failed"`
	EventsProcessed     int64         `json:"events_processed"`
	EventsFailed        int64         `json:"events_failed"`
	WorkflowEvents      int64         `json:"workflow_events"`
	JobEvents           int64         `json:"job_events"`
	PingEvents          int64         `json:"ping_events"`
	TotalProcessingTime time.Duration `json:"-"`
}

// SuccessRate is successful requests over all requests, 0 before the first request.
func (s Stats) SuccessRate() float64 {
	if s.RequestsTotal == 0 {
		return 0
	}
	return float64(s.RequestsSuccessful) / float64(s.RequestsTotal)
}

// AverageProcessingTime is the mean dispatch time per processed event.
func (s Stats) AverageProcessingTime() time.Duration {
	if s.EventsProcessed == 0 {
		return 0
	}
	return s.TotalProcessingTime / time.Duration(s.EventsProcessed)
}

// QueueInfo describes queue occupancy.
type QueueInfo struct {
	Size        int     `json:"size"`
	MaxSize     int     `json:"max_size"`
	Utilization float64 `json:"utilization"`
}

// Recent event statuses.
const (
	RecentStatusQueued    = "queued"
	RecentStatusProcessed = "processed"
	RecentStatusFailed    = "failed"
)

// RecentEvent is one entry of the bounded observability buffer.
type RecentEvent struct {
	ID        string          `json:"id"`
	Type      model.EventType `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Status    string          `json:"status"`
	Error     string          `json:"error,omitempty"`

	seq uint64
}

// HandlerInfo describes a registered handler.
type HandlerInfo struct {
	Name      string          `json:"name"`
	EventType model.EventType `json:"event_type,omitempty"`
	Priority  int             `json:"priority"`
}

// Health is the processor's derived health view.
type Health struct {
	Healthy      bool   `json:"healthy"`
	Running      bool   `json:"running"`
	State        string `json:"state"`
	QueueSize    int    `json:"queue_size"`
	MaxQueueSize int    `json:"max_queue_size"`
}

type registeredHandler struct {
	name      string
	fn        HandlerFunc
	eventType model.EventType
	priority  int
}

func (h registeredHandler) matches(t model.EventType) bool {
	return h.eventType == "" || h.eventType == t
}

type queueItem struct {
	event model.CIEvent
	seq   uint64
}
