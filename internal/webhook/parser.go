package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"ci-integration-agent/internal/model"
)

// payload mirrors the CI platform's webhook body. Pointers mark fields whose absence matters.
type payload struct {
	Type       *string `json:"type"`
	ID         *string `json:"id"`
	HappenedAt string  `json:"happened_at"`

	Workflow *struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		Status    string `json:"status"`
		CreatedAt string `json:"created_at"`
		StartedAt string `json:"started_at"`
		StoppedAt string `json:"stopped_at"`
		URL       string `json:"url"`
	} `json:"workflow"`

	Job *struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		Number    int    `json:"number"`
		Status    string `json:"status"`
		StartedAt string `json:"started_at"`
		StoppedAt string `json:"stopped_at"`
		WebURL    string `json:"web_url"`
		URL       string `json:"url"`
		ExitCode  *int   `json:"exit_code"`
	} `json:"job"`

	Project struct {
		Slug string `json:"slug"`
		Name string `json:"name"`
	} `json:"project"`

	Pipeline struct {
		ID     string `json:"id"`
		Number int    `json:"number"`
		VCS    struct {
			Branch   string `json:"branch"`
			Revision string `json:"revision"`
		} `json:"vcs"`
	} `json:"pipeline"`
}

// Parser turns raw webhook bodies into model.CIEvent values. It holds no state, so the
// same body always yields equal events.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse validates the body as JSON and builds the variant named by its "type" field.
func (p *Parser) Parse(body []byte) (model.CIEvent, error) {
	trimmed := bytes.TrimSpace(body)
	if !json.Valid(trimmed) || len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, newProcessingError(ErrInvalidJSON.Error(), ErrInvalidJSON)
	}

	var pl payload
	if err := json.Unmarshal(trimmed, &pl); err != nil {
		return nil, newProcessingError("malformed payload", fmt.Errorf("%w: %v", ErrInvalidField, err))
	}

	if pl.Type == nil || *pl.Type == "" {
		return nil, missingField("type")
	}
	if pl.ID == nil || *pl.ID == "" {
		return nil, missingField("id")
	}

	happenedAt, err := parseTime("happened_at", pl.HappenedAt)
	if err != nil {
		return nil, err
	}

	switch model.EventType(*pl.Type) {
	case model.EventTypeWorkflowCompleted:
		return p.parseWorkflow(*pl.ID, happenedAt, body, pl)
	case model.EventTypeJobCompleted:
		return p.parseJob(*pl.ID, happenedAt, body, pl)
	case model.EventTypePing:
		return model.NewPingEvent(*pl.ID, happenedAt, body), nil
	default:
		return nil, newProcessingError(
			fmt.Sprintf("unknown event type: %s", *pl.Type),
			fmt.Errorf("%w: %q", ErrUnknownEventType, *pl.Type),
		)
	}
}

func (p *Parser) parseWorkflow(id string, happenedAt time.Time, raw []byte, pl payload) (model.CIEvent, error) {
	w := pl.Workflow
	if w == nil {
		return nil, missingField("workflow")
	}
	if w.ID == "" {
		return nil, missingField("workflow.id")
	}

	status, err := parseStatus("workflow.status", w.Status)
	if err != nil {
		return nil, err
	}

	// Workflows report created_at; started_at is accepted for symmetry with jobs.
	startedRaw := w.StartedAt
	if startedRaw == "" {
		startedRaw = w.CreatedAt
	}
	startedAt, err := parseTime("workflow.started_at", startedRaw)
	if err != nil {
		return nil, err
	}
	stoppedAt, err := parseTime("workflow.stopped_at", w.StoppedAt)
	if err != nil {
		return nil, err
	}

	return model.NewWorkflowEvent(id, happenedAt, raw, model.WorkflowEvent{
		WorkflowID:     w.ID,
		WorkflowName:   w.Name,
		ProjectSlug:    pl.Project.Slug,
		Status:         status,
		StartedAt:      startedAt,
		StoppedAt:      stoppedAt,
		PipelineID:     pl.Pipeline.ID,
		PipelineNumber: pl.Pipeline.Number,
		Branch:         pl.Pipeline.VCS.Branch,
		Revision:       pl.Pipeline.VCS.Revision,
	}), nil
}

func (p *Parser) parseJob(id string, happenedAt time.Time, raw []byte, pl payload) (model.CIEvent, error) {
	j := pl.Job
	if j == nil {
		return nil, missingField("job")
	}
	if j.ID == "" {
		return nil, missingField("job.id")
	}

	status, err := parseStatus("job.status", j.Status)
	if err != nil {
		return nil, err
	}
	startedAt, err := parseTime("job.started_at", j.StartedAt)
	if err != nil {
		return nil, err
	}
	stoppedAt, err := parseTime("job.stopped_at", j.StoppedAt)
	if err != nil {
		return nil, err
	}

	webURL := j.WebURL
	if webURL == "" {
		webURL = j.URL
	}

	var workflowID string
	if pl.Workflow != nil {
		workflowID = pl.Workflow.ID
	}

	return model.NewJobEvent(id, happenedAt, raw, model.JobEvent{
		JobID:       j.ID,
		JobName:     j.Name,
		JobNumber:   j.Number,
		WorkflowID:  workflowID,
		ProjectSlug: pl.Project.Slug,
		Status:      status,
		StartedAt:   startedAt,
		StoppedAt:   stoppedAt,
		WebURL:      webURL,
		ExitCode:    j.ExitCode,
		Branch:      pl.Pipeline.VCS.Branch,
		Revision:    pl.Pipeline.VCS.Revision,
	}), nil
}

func missingField(name string) *ProcessingError {
	return newProcessingError(
		fmt.Sprintf("missing required field: %s", name),
		fmt.Errorf("%w: %s", ErrMissingField, name),
	)
}

func parseStatus(field, raw string) (model.Status, error) {
	if raw == "" {
		return "", missingField(field)
	}
	status, err := model.ParseStatus(raw)
	if err != nil {
		return "", newProcessingError(
			fmt.Sprintf("invalid field: %s", field),
			fmt.Errorf("%w: %v", ErrInvalidField, err),
		)
	}
	return status, nil
}

// parseTime accepts ISO-8601 timestamps with a Z suffix or offset. Empty means unset.
func parseTime(field, raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, newProcessingError(
			fmt.Sprintf("invalid field: %s", field),
			fmt.Errorf("%w: %s: %v", ErrInvalidField, field, err),
		)
	}
	return t, nil
}
