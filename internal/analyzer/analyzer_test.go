package analyzer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ci-integration-agent/config"
	"ci-integration-agent/internal/model"
	"ci-integration-agent/pkg/llmprovider"
)

func intPtr(i int) *int { return &i }

func jobEvent(name string, exit *int, status model.Status) *model.JobEvent {
	return model.NewJobEvent("evt-1", time.Time{}, []byte(`{"type":"job-completed"}`), model.JobEvent{
		JobID:       "job-1",
		JobName:     name,
		WorkflowID:  "wf-1",
		ProjectSlug: "gh/acme/api",
		Status:      status,
		ExitCode:    exit,
		Branch:      "main",
		Revision:    "abc",
		WebURL:      "https://ci.example/jobs/1",
	})
}

func TestRequestFromEvent(t *testing.T) {
	req := RequestFromEvent(jobEvent("unit-tests", nil, model.StatusFailed))
	if req.ProjectSlug != "gh/acme/api" || req.WorkflowID != "wf-1" || req.JobID != "job-1" {
		t.Errorf("unexpected request: %+v", req)
	}
	if req.TaskKey() != "analysis-job-1" {
		t.Errorf("TaskKey() = %q", req.TaskKey())
	}

	wf := model.NewWorkflowEvent("evt-2", time.Time{}, nil, model.WorkflowEvent{WorkflowID: "wf-9", ProjectSlug: "gh/a/b"})
	req = RequestFromEvent(wf)
	if req.JobID != "" || req.TaskKey() != "analysis-wf-9" {
		t.Errorf("workflow request: %+v key=%s", req, req.TaskKey())
	}
}

func TestHeuristic_Classify(t *testing.T) {
	tests := []struct {
		name   string
		event  model.CIEvent
		want   model.FailureType
		minCon float64
	}{
		{"test job", jobEvent("unit-tests", intPtr(1), model.StatusFailed), model.FailureTypeTestFailure, 0.7},
		{"build job", jobEvent("compile-binary", intPtr(2), model.StatusFailed), model.FailureTypeBuildError, 0.6},
		{"timeout exit", jobEvent("deploy", intPtr(124), model.StatusFailed), model.FailureTypeTimeout, 0.8},
		{"oom exit", jobEvent("unit-tests", intPtr(137), model.StatusFailed), model.FailureTypeInfrastructure, 0.8},
		{"deps job", jobEvent("install-dependency-cache", nil, model.StatusFailed), model.FailureTypeDependencyError, 0.7},
		{"unauthorized", jobEvent("unit-tests", nil, model.StatusUnauthorized), model.FailureTypeConfiguration, 0.9},
		{"nothing to go on", jobEvent("deploy", nil, model.StatusFailed), model.FailureTypeUnknown, 0.3},
	}

	h := NewHeuristic()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := h.Analyze(context.Background(), RequestFromEvent(tt.event))
			if err != nil {
				t.Fatalf("Analyze() error = %v", err)
			}
			if got.FailureType != tt.want {
				t.Errorf("FailureType = %q, want %q", got.FailureType, tt.want)
			}
			if got.Confidence < tt.minCon || got.Confidence > 1 {
				t.Errorf("Confidence = %v", got.Confidence)
			}
			if got.ID == "" || got.CreatedAt.IsZero() {
				t.Error("ID and CreatedAt must be set")
			}
			if len(got.ErrorMessages) == 0 || len(got.SuggestedFixes) == 0 {
				t.Error("expected error messages and fixes")
			}
		})
	}
}

func TestHeuristic_ContextAndMessages(t *testing.T) {
	got, err := NewHeuristic().Analyze(context.Background(), RequestFromEvent(jobEvent("unit-tests", intPtr(1), model.StatusFailed)))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if got.ErrorMessages[0] != "job unit-tests exited with code 1" {
		t.Errorf("ErrorMessages = %v", got.ErrorMessages)
	}
	if got.Context["branch"] != "main" || got.Context["job_url"] != "https://ci.example/jobs/1" {
		t.Errorf("Context = %v", got.Context)
	}

	// Fixes must not alias the shared rule table.
	got.SuggestedFixes[0] = "mutated"
	again, _ := NewHeuristic().Analyze(context.Background(), RequestFromEvent(jobEvent("unit-tests", intPtr(1), model.StatusFailed)))
	if again.SuggestedFixes[0] == "mutated" {
		t.Error("SuggestedFixes shares backing storage between analyses")
	}
}

func TestHeuristic_Errors(t *testing.T) {
	h := NewHeuristic()
	if _, err := h.Analyze(context.Background(), Request{}); !errors.Is(err, ErrEmptyRequest) {
		t.Errorf("expected ErrEmptyRequest, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := h.Analyze(ctx, Request{WorkflowID: "wf"}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

type fakeGenerator struct {
	reply string
	err   error
	got   *llmprovider.Request
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, req *llmprovider.Request) (*llmprovider.Response, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &llmprovider.Response{
		Content:   llmprovider.Message{Role: llmprovider.RoleAssistant, Text: f.reply},
		ModelName: "claude-test",
	}, nil
}

func TestLLM_Analyze(t *testing.T) {
	gen := &fakeGenerator{reply: "```json\n" + `{"failure_type":"dependency_error","error_messages":["go: module not found"],"confidence":1.7,"suggested_fixes":["run go mod tidy"]}` + "\n```"}
	a := NewLLM(gen)

	got, err := a.Analyze(context.Background(), RequestFromEvent(jobEvent("unit-tests", intPtr(1), model.StatusFailed)))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if got.FailureType != model.FailureTypeDependencyError {
		t.Errorf("FailureType = %q", got.FailureType)
	}
	if got.Confidence != 1 {
		t.Errorf("Confidence should be clamped to 1, got %v", got.Confidence)
	}
	if got.SuggestedFixes[0] != "run go mod tidy" {
		t.Errorf("SuggestedFixes = %v", got.SuggestedFixes)
	}
	if got.Context["model"] != "claude-test" {
		t.Errorf("Context = %v", got.Context)
	}

	prompt := gen.got.Messages[0].Text
	for _, want := range []string{"Project: gh/acme/api", "Job: job-1 unit-tests", "Exit code: 1", "Webhook payload:"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
	if gen.got.SystemInstruction == "" {
		t.Error("system instruction not set")
	}
}

func TestLLM_UnparseableReply(t *testing.T) {
	a := NewLLM(&fakeGenerator{reply: "I think the tests failed."})

	got, err := a.Analyze(context.Background(), Request{ProjectSlug: "gh/a/b", WorkflowID: "wf"})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if got.FailureType != model.FailureTypeUnknown || got.Confidence > 0.2 {
		t.Errorf("expected low-confidence unknown, got %q %v", got.FailureType, got.Confidence)
	}
	if got.Context["raw_reply"] == "" {
		t.Error("raw reply should be kept for inspection")
	}
}

func TestLLM_GeneratorError(t *testing.T) {
	a := NewLLM(&fakeGenerator{err: llmprovider.ErrAllProvidersFailed})

	_, err := a.Analyze(context.Background(), Request{WorkflowID: "wf"})
	if !errors.Is(err, llmprovider.ErrAllProvidersFailed) {
		t.Errorf("expected wrapped provider error, got %v", err)
	}
}

func TestNew(t *testing.T) {
	a, err := New(config.FailureAnalysisConfig{}, nil)
	if err != nil || a.Name() != "heuristic" {
		t.Errorf("default analyzer = %v, %v", a, err)
	}

	if _, err := New(config.FailureAnalysisConfig{Analyzer: config.AnalyzerLLM}, nil); err == nil {
		t.Error("llm analyzer without a generator should fail")
	}

	a, err = New(config.FailureAnalysisConfig{Analyzer: config.AnalyzerLLM}, &fakeGenerator{})
	if err != nil || a.Name() != "llm" {
		t.Errorf("llm analyzer = %v, %v", a, err)
	}

	if _, err := New(config.FailureAnalysisConfig{Analyzer: "oracle"}, nil); !errors.Is(err, ErrUnknownAnalyzer) {
		t.Errorf("expected ErrUnknownAnalyzer, got %v", err)
	}
}
