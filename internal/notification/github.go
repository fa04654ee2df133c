package notification

import (
	"context"
	"errors"
	"fmt"

	"ci-integration-agent/internal/model"
	"ci-integration-agent/pkg/github"
)

// ErrNotGitHubProject is returned for analyses whose project is not hosted on GitHub or that
// carry no revision to attach a status to.
var ErrNotGitHubProject = errors.New("analysis is not for a GitHub commit")

// StatusCreator is the slice of github.Client used here.
type StatusCreator interface {
	CreateCommitStatus(ctx context.Context, owner, repo, sha string, request github.CreateStatusRequest) (*github.CommitStatus, error)
}

// GitHubStatus marks the failing commit with a "failure" status describing the analysis.
type GitHubStatus struct {
	client        StatusCreator
	statusContext string
}

func NewGitHubStatus(client StatusCreator, statusContext string) *GitHubStatus {
	return &GitHubStatus{client: client, statusContext: statusContext}
}

func (g *GitHubStatus) Name() string { return "github" }

func (g *GitHubStatus) Notify(ctx context.Context, a model.FailureAnalysis) error {
	owner, repo, ok := github.ParseProjectSlug(a.ProjectSlug)
	sha := a.Context["revision"]
	if !ok || sha == "" {
		return ErrNotGitHubProject
	}

	_, err := g.client.CreateCommitStatus(ctx, owner, repo, sha, github.CreateStatusRequest{
		State:       github.StateFailure,
		TargetURL:   a.Context["job_url"],
		Description: fmt.Sprintf("%s (%.0f%% confidence)", a.FailureType, a.Confidence*100),
		Context:     g.statusContext,
	})
	return err
}
