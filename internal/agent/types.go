package agent

import (
	"context"
	"encoding/json"
	"time"

	"ci-integration-agent/internal/webhook"
)

// Task types.
const (
	TaskTypeFailureAnalysis = "failure_analysis"
)

// Task statuses. Finished tasks leave the map, so snapshots only ever report running ones.
const (
	TaskStatusRunning = "running"
)

// Default handler names and priorities.
const (
	WorkflowHandlerName     = "workflow-handler"
	WorkflowHandlerPriority = 10
	JobHandlerName          = "job-handler"
	JobHandlerPriority      = 5
)

// TaskInfo is a snapshot of one tracked analysis task.
type TaskInfo struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// AnalysisStats counts analyzer outcomes.
type AnalysisStats struct {
	FailuresAnalyzed int64 `json:"failures_analyzed"`
	AnalysisErrors   int64 `json:"analysis_errors"`
}

// Metrics merges the agent's counters with a snapshot of the processor's.
type Metrics struct {
	Uptime          time.Duration
	BuildsMonitored int64
	BuildsFailed    int64
	Analysis        AnalysisStats
	ActiveTasks     int
	Webhook         webhook.Stats
	Queue           webhook.QueueInfo
}

func (m Metrics) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		UptimeSeconds         float64           `json:"uptime_seconds"`
		BuildsMonitored       int64             `json:"builds_monitored"`
		BuildsFailed          int64             `json:"builds_failed"`
		Analysis              AnalysisStats     `json:"analysis_stats"`
		ActiveTasks           int               `json:"active_tasks"`
		Webhook               webhook.Stats     `json:"webhook"`
		SuccessRate           float64           `json:"success_rate"`
		AverageProcessingTime float64           `json:"average_processing_time"`
		Queue                 webhook.QueueInfo `json:"queue"`
	}{
		UptimeSeconds:         m.Uptime.Seconds(),
		BuildsMonitored:       m.BuildsMonitored,
		BuildsFailed:          m.BuildsFailed,
		Analysis:              m.Analysis,
		ActiveTasks:           m.ActiveTasks,
		Webhook:               m.Webhook,
		SuccessRate:           m.Webhook.SuccessRate(),
		AverageProcessingTime: m.Webhook.AverageProcessingTime().Seconds(),
		Queue:                 m.Queue,
	})
}

// Status is the point-in-time integration view.
type Status struct {
	Healthy        bool           `json:"healthy"`
	Running        bool           `json:"running"`
	ProcessorState string         `json:"processor_state"`
	StartedAt      *time.Time     `json:"started_at"`
	ActiveTasks    int            `json:"active_tasks"`
	QueueSize      int            `json:"queue_size"`
	MaxQueueSize   int            `json:"max_queue_size"`
	Config         map[string]any `json:"config"`
	// ErrorMessage is never populated; nothing records integration-level errors yet.
	ErrorMessage string `json:"error_message"`
}

// Components reports per-component health.
type Components struct {
	// API is always true: there is no upstream CI API client to ping.
	API     bool `json:"api"`
	Webhook bool `json:"webhook"`
}

// Health is the composite health view.
type Health struct {
	Healthy    bool
	Uptime     time.Duration
	Components Components
	Metrics    Metrics
}

func (h Health) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Healthy    bool       `json:"healthy"`
		Uptime     float64    `json:"uptime"`
		Components Components `json:"components"`
		Metrics    Metrics    `json:"metrics"`
	}{h.Healthy, h.Uptime.Seconds(), h.Components, h.Metrics})
}

type task struct {
	id        string
	taskType  string
	startedAt time.Time
	cancel    context.CancelFunc
}

func (t *task) info() TaskInfo {
	return TaskInfo{ID: t.id, Type: t.taskType, Status: TaskStatusRunning, StartedAt: t.startedAt}
}
