package github

import (
	"context"
	"fmt"
	"time"
)

// Commit status states.
const (
	StateError   = "error"
	StateFailure = "failure"
	StatePending = "pending"
	StateSuccess = "success"
)

// maxDescriptionLength is GitHub's limit on status descriptions.
const maxDescriptionLength = 140

// CreateStatusRequest contains the fields for creating a commit status.
type CreateStatusRequest struct {
	// State is one of the State* constants.
	State string `json:"state"`

	// TargetURL is shown as the "Details" link in the GitHub UI.
	TargetURL string `json:"target_url,omitempty"`

	// Description is truncated to 140 characters.
	Description string `json:"description,omitempty"`

	// Context distinguishes statuses on the same SHA.
	Context string `json:"context,omitempty"`
}

// CommitStatus is the API's view of a created status.
type CommitStatus struct {
	ID          int64     `json:"id"`
	State       string    `json:"state"`
	Description string    `json:"description"`
	TargetURL   string    `json:"target_url"`
	Context     string    `json:"context"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateCommitStatus creates a status on a commit.
func (c *Client) CreateCommitStatus(ctx context.Context, owner, repo, sha string, request CreateStatusRequest) (*CommitStatus, error) {
	if sha == "" {
		return nil, fmt.Errorf("github: commit sha is required")
	}
	if r := []rune(request.Description); len(r) > maxDescriptionLength {
		request.Description = string(r[:maxDescriptionLength-1]) + "…"
	}

	var status CommitStatus
	path := fmt.Sprintf("/repos/%s/%s/statuses/%s", owner, repo, sha)
	if err := c.post(ctx, path, request, &status); err != nil {
		return nil, fmt.Errorf("creating status on %s/%s@%s: %w", owner, repo, sha[:min(len(sha), 8)], err)
	}
	return &status, nil
}
