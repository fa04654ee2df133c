package analyzer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ci-integration-agent/internal/model"
)

type rule struct {
	failureType model.FailureType
	confidence  float64
	keywords    []string
	fixes       []string
}

// Ordered: the first matching rule wins.
var rules = []rule{
	{
		failureType: model.FailureTypeTimeout,
		confidence:  0.8,
		keywords:    []string{"timed out", "timeout", "deadline exceeded", "too long with no output"},
		fixes: []string{
			"Check for hanging tests or network calls without deadlines",
			"Raise no_output_timeout for the step if the work is legitimately long",
		},
	},
	{
		failureType: model.FailureTypeInfrastructure,
		confidence:  0.7,
		keywords:    []string{"out of memory", "oom", "killed", "no space left", "connection reset", "docker daemon", "resource_class"},
		fixes: []string{
			"Re-run the job to rule out a transient executor failure",
			"Use a larger resource_class if the job is memory bound",
		},
	},
	{
		failureType: model.FailureTypeDependencyError,
		confidence:  0.75,
		keywords:    []string{"npm err", "go: module", "could not resolve", "dependency", "pip install", "checksum mismatch", "lockfile"},
		fixes: []string{
			"Regenerate the lockfile and commit it",
			"Pin the dependency that changed upstream",
			"Clear the dependency cache key and re-run",
		},
	},
	{
		failureType: model.FailureTypeConfiguration,
		confidence:  0.7,
		keywords:    []string{"config.yml", "invalid configuration", "yaml", "unknown orb", "environment variable", "needs_setup"},
		fixes: []string{
			"Validate .circleci/config.yml with the CLI",
			"Check that required contexts and environment variables exist",
		},
	},
	{
		failureType: model.FailureTypeTestFailure,
		confidence:  0.75,
		keywords:    []string{"test", "spec", "assert", "--- fail"},
		fixes: []string{
			"Run the failing test locally with the same revision",
			"Check for order-dependent or flaky tests",
		},
	},
	{
		failureType: model.FailureTypeBuildError,
		confidence:  0.7,
		keywords:    []string{"build", "compile", "syntax error", "undefined:", "lint"},
		fixes: []string{
			"Reproduce the build locally on the failing revision",
			"Check the compiler output for the first reported error",
		},
	},
}

// Heuristic classifies failures from job names, statuses, exit codes and payload text. It
// makes no network calls.
type Heuristic struct {
	now func() time.Time
}

func NewHeuristic() *Heuristic {
	return &Heuristic{now: time.Now}
}

func (h *Heuristic) Name() string { return "heuristic" }

func (h *Heuristic) Analyze(ctx context.Context, req Request) (model.FailureAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return model.FailureAnalysis{}, err
	}
	if req.ProjectSlug == "" && req.WorkflowID == "" && req.JobID == "" {
		return model.FailureAnalysis{}, ErrEmptyRequest
	}

	f := factsOf(req)
	failureType, confidence, fixes := classify(f)

	return model.FailureAnalysis{
		ID:             uuid.NewString(),
		ProjectSlug:    req.ProjectSlug,
		WorkflowID:     req.WorkflowID,
		JobID:          req.JobID,
		FailureType:    failureType,
		ErrorMessages:  errorMessages(req, f),
		Confidence:     confidence,
		SuggestedFixes: append([]string(nil), fixes...),
		Context:        f.context(),
		CreatedAt:      h.now(),
	}, nil
}

func classify(f facts) (model.FailureType, float64, []string) {
	if f.status == model.StatusUnauthorized {
		return model.FailureTypeConfiguration, 0.9, []string{"Check the project's API token and VCS permissions"}
	}
	if f.status == model.StatusNeedsSetup {
		return model.FailureTypeConfiguration, 0.9, []string{"Add a .circleci/config.yml to the project"}
	}
	if f.exitCode != nil {
		switch *f.exitCode {
		case 124:
			return model.FailureTypeTimeout, 0.85, rules[0].fixes
		case 137:
			return model.FailureTypeInfrastructure, 0.85, rules[1].fixes
		}
	}

	// Names are a stronger signal than the payload body, so they are checked first.
	for _, text := range []string{
		strings.ToLower(f.jobName + " " + f.workflowName),
		strings.ToLower(f.payload),
	} {
		for _, r := range rules {
			for _, kw := range r.keywords {
				if strings.Contains(text, kw) {
					return r.failureType, r.confidence, r.fixes
				}
			}
		}
	}

	return model.FailureTypeUnknown, 0.3, []string{"Inspect the job output for the first error"}
}

func errorMessages(req Request, f facts) []string {
	var msgs []string
	switch {
	case f.jobName != "" && f.exitCode != nil:
		msgs = append(msgs, fmt.Sprintf("job %s exited with code %d", f.jobName, *f.exitCode))
	case f.jobName != "":
		msgs = append(msgs, fmt.Sprintf("job %s finished with status %s", f.jobName, f.status))
	case f.workflowName != "":
		msgs = append(msgs, fmt.Sprintf("workflow %s finished with status %s", f.workflowName, f.status))
	case req.JobID != "":
		msgs = append(msgs, fmt.Sprintf("job %s failed", req.JobID))
	default:
		msgs = append(msgs, fmt.Sprintf("workflow %s failed", req.WorkflowID))
	}
	return msgs
}
