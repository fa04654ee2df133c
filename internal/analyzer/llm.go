package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ci-integration-agent/internal/model"
	"ci-integration-agent/pkg/llmprovider"
)

const (
	llmSystemPrompt = `You triage CI build failures. Reply with a single JSON object and nothing else:
{"failure_type": one of "test_failure","build_error","dependency_error","timeout","infrastructure","configuration","unknown",
 "error_messages": [short strings], "confidence": number between 0 and 1, "suggested_fixes": [short strings]}`

	// maxPayloadChars bounds how much of the raw webhook is sent to the model.
	maxPayloadChars = 8000
)

// Generator is the slice of llmprovider.Manager the LLM analyzer needs.
type Generator interface {
	GenerateContent(ctx context.Context, req *llmprovider.Request) (*llmprovider.Response, error)
}

// LLM asks a language model to classify the failure. Replies that are not the expected JSON
// are kept as an unknown-type analysis with low confidence rather than failing.
type LLM struct {
	gen Generator
	now func() time.Time
}

func NewLLM(gen Generator) *LLM {
	return &LLM{gen: gen, now: time.Now}
}

func (a *LLM) Name() string { return "llm" }

type llmVerdict struct {
	FailureType    string   `json:"failure_type"`
	ErrorMessages  []string `json:"error_messages"`
	Confidence     float64  `json:"confidence"`
	SuggestedFixes []string `json:"suggested_fixes"`
}

func (a *LLM) Analyze(ctx context.Context, req Request) (model.FailureAnalysis, error) {
	if req.ProjectSlug == "" && req.WorkflowID == "" && req.JobID == "" {
		return model.FailureAnalysis{}, ErrEmptyRequest
	}

	f := factsOf(req)
	resp, err := a.gen.GenerateContent(ctx, &llmprovider.Request{
		SystemInstruction: llmSystemPrompt,
		Messages:          []llmprovider.Message{llmprovider.UserMessage(buildPrompt(req, f))},
		Temperature:       0.1,
		MaxTokens:         1024,
	})
	if err != nil {
		return model.FailureAnalysis{}, fmt.Errorf("llm analysis: %w", err)
	}

	analysis := model.FailureAnalysis{
		ID:          uuid.NewString(),
		ProjectSlug: req.ProjectSlug,
		WorkflowID:  req.WorkflowID,
		JobID:       req.JobID,
		Context:     f.context(),
		CreatedAt:   a.now(),
	}
	analysis.Context["model"] = resp.ModelName

	verdict, ok := parseVerdict(resp.Text())
	if !ok {
		analysis.FailureType = model.FailureTypeUnknown
		analysis.Confidence = 0.1
		analysis.ErrorMessages = errorMessages(req, f)
		analysis.Context["raw_reply"] = truncate(resp.Text(), 500)
		return analysis, nil
	}

	analysis.FailureType = model.ParseFailureType(verdict.FailureType)
	analysis.Confidence = model.ClampConfidence(verdict.Confidence)
	analysis.ErrorMessages = verdict.ErrorMessages
	if len(analysis.ErrorMessages) == 0 {
		analysis.ErrorMessages = errorMessages(req, f)
	}
	analysis.SuggestedFixes = verdict.SuggestedFixes
	return analysis, nil
}

func buildPrompt(req Request, f facts) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s\n", req.ProjectSlug)
	if req.WorkflowID != "" {
		fmt.Fprintf(&b, "Workflow: %s %s\n", req.WorkflowID, f.workflowName)
	}
	if req.JobID != "" {
		fmt.Fprintf(&b, "Job: %s %s\n", req.JobID, f.jobName)
	}
	if f.status != "" {
		fmt.Fprintf(&b, "Status: %s\n", f.status)
	}
	if f.exitCode != nil {
		fmt.Fprintf(&b, "Exit code: %d\n", *f.exitCode)
	}
	if f.branch != "" {
		fmt.Fprintf(&b, "Branch: %s @ %s\n", f.branch, f.revision)
	}
	if f.payload != "" {
		fmt.Fprintf(&b, "\nWebhook payload:\n%s\n", truncate(f.payload, maxPayloadChars))
	}
	return b.String()
}

// parseVerdict accepts the bare object or one wrapped in a fenced code block.
func parseVerdict(text string) (llmVerdict, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return llmVerdict{}, false
	}

	var v llmVerdict
	if err := json.Unmarshal([]byte(text[start:end+1]), &v); err != nil {
		return llmVerdict{}, false
	}
	if v.FailureType == "" {
		return llmVerdict{}, false
	}
	return v, true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
