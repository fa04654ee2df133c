package notification

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ci-integration-agent/internal/model"
	"ci-integration-agent/pkg/github"
)

func sampleAnalysis() model.FailureAnalysis {
	return model.FailureAnalysis{
		ProjectSlug:    "gh/acme/my_api",
		WorkflowID:     "wf-1",
		JobID:          "job-1",
		FailureType:    model.FailureTypeTestFailure,
		ErrorMessages:  []string{"job unit_tests exited with code 1"},
		Confidence:     0.75,
		SuggestedFixes: []string{"Run the failing test locally"},
		Context: map[string]string{
			"branch":   "main",
			"revision": "abc123",
			"job_url":  "https://ci.example/jobs/1",
		},
	}
}

type fakeBot struct {
	chatID int64
	text   string
	mode   string
	err    error
}

func (f *fakeBot) SendMessageWithMode(ctx context.Context, chatID int64, text string, parseMode string) error {
	f.chatID, f.text, f.mode = chatID, text, parseMode
	return f.err
}

func TestTelegram_Notify(t *testing.T) {
	bot := &fakeBot{}
	n := NewTelegram(bot, 99)

	if err := n.Notify(context.Background(), sampleAnalysis()); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if bot.chatID != 99 || bot.mode != "Markdown" {
		t.Errorf("sent to %d with mode %q", bot.chatID, bot.mode)
	}
	for _, want := range []string{"gh/acme/my\\_api", "test\\_failure", "75%", "unit\\_tests", "[Open job](https://ci.example/jobs/1)"} {
		if !strings.Contains(bot.text, want) {
			t.Errorf("message missing %q:\n%s", want, bot.text)
		}
	}

	bot.err = errors.New("blocked")
	if err := n.Notify(context.Background(), sampleAnalysis()); err == nil {
		t.Error("expected send error")
	}
}

type fakeStatusCreator struct {
	owner, repo, sha string
	req              github.CreateStatusRequest
	calls            int
}

func (f *fakeStatusCreator) CreateCommitStatus(ctx context.Context, owner, repo, sha string, req github.CreateStatusRequest) (*github.CommitStatus, error) {
	f.calls++
	f.owner, f.repo, f.sha, f.req = owner, repo, sha, req
	return &github.CommitStatus{ID: 1, State: req.State}, nil
}

func TestGitHubStatus_Notify(t *testing.T) {
	client := &fakeStatusCreator{}
	n := NewGitHubStatus(client, "ci/failure-analysis")

	if err := n.Notify(context.Background(), sampleAnalysis()); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if client.owner != "acme" || client.repo != "my_api" || client.sha != "abc123" {
		t.Errorf("status target = %s/%s@%s", client.owner, client.repo, client.sha)
	}
	if client.req.State != github.StateFailure || client.req.Context != "ci/failure-analysis" {
		t.Errorf("request = %+v", client.req)
	}
	if client.req.Description != "test_failure (75% confidence)" {
		t.Errorf("Description = %q", client.req.Description)
	}

	other := sampleAnalysis()
	other.ProjectSlug = "bb/acme/api"
	if err := n.Notify(context.Background(), other); !errors.Is(err, ErrNotGitHubProject) {
		t.Errorf("expected ErrNotGitHubProject, got %v", err)
	}

	norev := sampleAnalysis()
	delete(norev.Context, "revision")
	if err := n.Notify(context.Background(), norev); !errors.Is(err, ErrNotGitHubProject) {
		t.Errorf("expected ErrNotGitHubProject without revision, got %v", err)
	}
	if client.calls != 1 {
		t.Errorf("CreateCommitStatus called %d times", client.calls)
	}
}

func TestMulti_Notify(t *testing.T) {
	good := &fakeBot{}
	bad := &fakeBot{err: errors.New("chat not found")}
	gh := NewGitHubStatus(&fakeStatusCreator{}, "ci")

	m := NewMulti(NewTelegram(bad, 1), NewTelegram(good, 2), gh)
	if m.Len() != 3 {
		t.Errorf("Len() = %d", m.Len())
	}

	a := sampleAnalysis()
	a.ProjectSlug = "bb/acme/api" // github is skipped, not an error
	err := m.Notify(context.Background(), a)
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("expected joined telegram error, got %v", err)
	}
	if strings.Contains(err.Error(), "github") {
		t.Errorf("non-GitHub project should be skipped silently: %v", err)
	}
	if good.text == "" {
		t.Error("second notifier should still be called after the first fails")
	}

	if err := NewMulti().Notify(context.Background(), a); err != nil {
		t.Errorf("empty multi should succeed, got %v", err)
	}
}
