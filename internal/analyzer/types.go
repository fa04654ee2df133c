package analyzer

import "ci-integration-agent/internal/model"

// Request identifies the failure to analyze.
type Request struct {
	ProjectSlug string
	WorkflowID  string
	JobID       string

	// Event is the triggering webhook event, nil when analysis is requested directly.
	Event model.CIEvent
}

// RequestFromEvent fills the identifiers from a workflow or job event.
func RequestFromEvent(e model.CIEvent) Request {
	req := Request{Event: e, ProjectSlug: model.ProjectSlugOf(e)}
	switch ev := e.(type) {
	case *model.WorkflowEvent:
		req.WorkflowID = ev.WorkflowID
	case *model.JobEvent:
		req.WorkflowID = ev.WorkflowID
		req.JobID = ev.JobID
	}
	return req
}

// TaskKey is the deterministic id the agent tracks this analysis under. Job failures are
// keyed by job so they do not collide with their workflow's analysis.
func (r Request) TaskKey() string {
	if r.JobID != "" {
		return "analysis-" + r.JobID
	}
	return "analysis-" + r.WorkflowID
}

// facts is the flattened view of a request the analyzers reason over.
type facts struct {
	jobName      string
	workflowName string
	status       model.Status
	exitCode     *int
	branch       string
	revision     string
	webURL       string
	payload      string
}

func factsOf(req Request) facts {
	var f facts
	switch ev := req.Event.(type) {
	case *model.WorkflowEvent:
		f.workflowName = ev.WorkflowName
		f.status = ev.Status
		f.branch = ev.Branch
		f.revision = ev.Revision
	case *model.JobEvent:
		f.jobName = ev.JobName
		f.status = ev.Status
		f.exitCode = ev.ExitCode
		f.branch = ev.Branch
		f.revision = ev.Revision
		f.webURL = ev.WebURL
	}
	if req.Event != nil {
		f.payload = string(req.Event.RawPayload())
	}
	return f
}

func (f facts) context() map[string]string {
	ctx := map[string]string{}
	if f.branch != "" {
		ctx["branch"] = f.branch
	}
	if f.revision != "" {
		ctx["revision"] = f.revision
	}
	if f.webURL != "" {
		ctx["job_url"] = f.webURL
	}
	if f.status != "" {
		ctx["status"] = string(f.status)
	}
	return ctx
}
