package http

import (
	"ci-integration-agent/internal/agent"
	"ci-integration-agent/internal/model"
	"ci-integration-agent/internal/webhook"
	"ci-integration-agent/pkg/response"
)

type taskResp struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Status    string            `json:"status"`
	StartedAt response.DateTime `json:"started_at"`
}

type tasksResp struct {
	Tasks []taskResp `json:"tasks"`
	Total int        `json:"total"`
}

func newTasksResp(tasks []agent.TaskInfo) tasksResp {
	out := tasksResp{Tasks: make([]taskResp, 0, len(tasks)), Total: len(tasks)}
	for _, t := range tasks {
		out.Tasks = append(out.Tasks, taskResp{
			ID:        t.ID,
			Type:      t.Type,
			Status:    t.Status,
			StartedAt: response.DateTime(t.StartedAt),
		})
	}
	return out
}

type eventsResp struct {
	Events []webhook.RecentEvent `json:"events"`
	Queue  webhook.QueueInfo     `json:"queue"`
}

type handlersResp struct {
	Handlers []webhook.HandlerInfo `json:"handlers"`
}

type analysesResp struct {
	Analyses []model.FailureAnalysis `json:"analyses"`
	Total    int                     `json:"total"`
}

func newAnalysesResp(as []model.FailureAnalysis) analysesResp {
	if as == nil {
		as = []model.FailureAnalysis{}
	}
	return analysesResp{Analyses: as, Total: len(as)}
}

type cancelResp struct {
	ID        string `json:"id"`
	Cancelled bool   `json:"cancelled"`
}
