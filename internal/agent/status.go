package agent

import "sort"

// Metrics snapshots the agent counters together with the processor's stats.
func (a *Agent) Metrics() Metrics {
	a.mu.Lock()
	m := Metrics{
		BuildsMonitored: a.buildsMonitored,
		BuildsFailed:    a.buildsFailed,
		Analysis:        a.analysisStats,
		ActiveTasks:     len(a.tasks),
	}
	if a.running {
		m.Uptime = a.now().Sub(a.startedAt)
	}
	a.mu.Unlock()

	m.Webhook = a.processor.Stats()
	m.Queue = a.processor.QueueInfo()
	return m
}

// IntegrationStatus is healthy when the agent runs and its processor reports healthy.
func (a *Agent) IntegrationStatus() Status {
	ph := a.processor.HealthCheck()

	a.mu.Lock()
	s := Status{
		Running:     a.running,
		ActiveTasks: len(a.tasks),
	}
	if a.running {
		started := a.startedAt
		s.StartedAt = &started
	}
	a.mu.Unlock()

	s.Healthy = s.Running && ph.Healthy
	s.ProcessorState = ph.State
	s.QueueSize = ph.QueueSize
	s.MaxQueueSize = ph.MaxQueueSize
	s.Config = a.cfg.Summary()
	return s
}

// HealthCheck combines component health with the current metrics.
func (a *Agent) HealthCheck() Health {
	metrics := a.Metrics()
	webhookHealthy := a.processor.HealthCheck().Healthy
	running := a.IsRunning()

	return Health{
		Healthy: running && webhookHealthy,
		Uptime:  metrics.Uptime,
		Components: Components{
			API:     true,
			Webhook: webhookHealthy,
		},
		Metrics: metrics,
	}
}

func sortTasks(tasks []TaskInfo) {
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].StartedAt.Equal(tasks[j].StartedAt) {
			return tasks[i].ID < tasks[j].ID
		}
		return tasks[i].StartedAt.Before(tasks[j].StartedAt)
	})
}
