package sqlite_test

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"ci-integration-agent/internal/analysis/repository"
	"ci-integration-agent/internal/analysis/repository/sqlite"
	"ci-integration-agent/internal/model"
)

func newRepo(t *testing.T) repository.AnalysisRepository {
	t.Helper()
	repo, err := sqlite.New(filepath.Join(t.TempDir(), "data", "analyses.db"))
	if err != nil {
		t.Fatalf("sqlite.New() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestAnalysisRepository(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	base := time.Date(2024, 3, 21, 12, 0, 0, 0, time.UTC)

	first := model.FailureAnalysis{
		ID:             "a-1",
		ProjectSlug:    "gh/acme/api",
		WorkflowID:     "wf-1",
		JobID:          "job-1",
		FailureType:    model.FailureTypeTestFailure,
		ErrorMessages:  []string{"job unit-tests exited with code 1"},
		Confidence:     0.75,
		AnalysisTime:   1500 * time.Millisecond,
		SuggestedFixes: []string{"Run the failing test locally"},
		Context:        map[string]string{"branch": "main"},
		CreatedAt:      base,
	}
	second := model.FailureAnalysis{
		ID:          "a-2",
		ProjectSlug: "gh/acme/web",
		WorkflowID:  "wf-2",
		FailureType: model.FailureTypeTimeout,
		Confidence:  0.8,
		CreatedAt:   base.Add(time.Minute),
	}
	third := model.FailureAnalysis{
		ID:          "a-3",
		ProjectSlug: "gh/acme/api",
		WorkflowID:  "wf-3",
		FailureType: model.FailureTypeUnknown,
		Confidence:  0.3,
		CreatedAt:   base.Add(2 * time.Minute),
	}

	for _, a := range []model.FailureAnalysis{first, second, third} {
		if err := repo.Save(ctx, a); err != nil {
			t.Fatalf("Save(%s) error = %v", a.ID, err)
		}
	}

	t.Run("ListRecent newest first", func(t *testing.T) {
		got, err := repo.ListRecent(ctx, repository.ListOptions{Limit: 2})
		if err != nil {
			t.Fatalf("ListRecent() error = %v", err)
		}
		if len(got) != 2 || got[0].ID != "a-3" || got[1].ID != "a-2" {
			t.Fatalf("ListRecent() = %v", ids(got))
		}
	})

	t.Run("ListRecent by project", func(t *testing.T) {
		got, err := repo.ListRecent(ctx, repository.ListOptions{ProjectSlug: "gh/acme/api"})
		if err != nil {
			t.Fatalf("ListRecent() error = %v", err)
		}
		if len(got) != 2 || got[0].ID != "a-3" || got[1].ID != "a-1" {
			t.Fatalf("ListRecent() = %v", ids(got))
		}

		a := got[1]
		if a.FailureType != model.FailureTypeTestFailure || a.Confidence != 0.75 || a.JobID != "job-1" {
			t.Errorf("round trip lost fields: %+v", a)
		}
		if a.AnalysisTime != 1500*time.Millisecond {
			t.Errorf("AnalysisTime = %v", a.AnalysisTime)
		}
		if !reflect.DeepEqual(a.ErrorMessages, first.ErrorMessages) || !reflect.DeepEqual(a.SuggestedFixes, first.SuggestedFixes) {
			t.Errorf("slices = %v / %v", a.ErrorMessages, a.SuggestedFixes)
		}
		if a.Context["branch"] != "main" {
			t.Errorf("Context = %v", a.Context)
		}
		if !a.CreatedAt.Equal(base) {
			t.Errorf("CreatedAt = %v, want %v", a.CreatedAt, base)
		}
	})

	t.Run("Save upserts by id", func(t *testing.T) {
		updated := second
		updated.FailureType = model.FailureTypeInfrastructure
		if err := repo.Save(ctx, updated); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		got, err := repo.ListRecent(ctx, repository.ListOptions{ProjectSlug: "gh/acme/web"})
		if err != nil {
			t.Fatalf("ListRecent() error = %v", err)
		}
		if len(got) != 1 || got[0].FailureType != model.FailureTypeInfrastructure {
			t.Errorf("upsert failed: %+v", got)
		}
	})

	t.Run("nil slices stored as empty", func(t *testing.T) {
		got, _ := repo.ListRecent(ctx, repository.ListOptions{ProjectSlug: "gh/acme/web"})
		if got[0].ErrorMessages == nil || len(got[0].ErrorMessages) != 0 {
			t.Errorf("ErrorMessages = %#v", got[0].ErrorMessages)
		}
	})
}

func ids(as []model.FailureAnalysis) []string {
	out := make([]string, 0, len(as))
	for _, a := range as {
		out = append(out, a.ID)
	}
	return out
}
