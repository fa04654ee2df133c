package github_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ci-integration-agent/pkg/github"
)

func TestCreateCommitStatus(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody github.CreateStatusRequest

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": 7, "state": "failure", "context": "ci/failure-analysis"}`))
	}))
	defer ts.Close()

	client, err := github.NewClient(context.Background(), github.Config{Token: "ghp_test", BaseURL: ts.URL + "/"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	status, err := client.CreateCommitStatus(context.Background(), "acme", "api", "0123456789abcdef", github.CreateStatusRequest{
		State:       github.StateFailure,
		Description: strings.Repeat("x", 200),
		Context:     "ci/failure-analysis",
	})
	if err != nil {
		t.Fatalf("CreateCommitStatus() error = %v", err)
	}

	if gotAuth != "Bearer ghp_test" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotPath != "/repos/acme/api/statuses/0123456789abcdef" {
		t.Errorf("path = %q", gotPath)
	}
	if n := len([]rune(gotBody.Description)); n != 140 {
		t.Errorf("description length = %d, want 140", n)
	}
	if status.ID != 7 || status.State != "failure" {
		t.Errorf("status = %+v", status)
	}
}

func TestCreateCommitStatus_APIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/missing/"):
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message": "Not Found", "documentation_url": "https://docs.github.com"}`))
		case strings.Contains(r.URL.Path, "/limited/"):
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"message": "API rate limit exceeded"}`))
		default:
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"message": "Validation Failed", "errors": [{"resource": "Status", "field": "state", "code": "invalid"}]}`))
		}
	}))
	defer ts.Close()

	client, _ := github.NewClient(context.Background(), github.Config{Token: "t", BaseURL: ts.URL})
	ctx := context.Background()

	_, err := client.CreateCommitStatus(ctx, "acme", "missing", "abc", github.CreateStatusRequest{State: "failure"})
	if !github.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}

	_, err = client.CreateCommitStatus(ctx, "acme", "limited", "abc", github.CreateStatusRequest{State: "failure"})
	if !github.IsRateLimited(err) {
		t.Errorf("expected rate limited, got %v", err)
	}

	_, err = client.CreateCommitStatus(ctx, "acme", "api", "abc", github.CreateStatusRequest{State: "bogus"})
	if err == nil || !strings.Contains(err.Error(), "Status.state: invalid") {
		t.Errorf("expected validation detail, got %v", err)
	}
}

func TestNewClient_RequiresToken(t *testing.T) {
	if _, err := github.NewClient(context.Background(), github.Config{}); err == nil {
		t.Error("expected error without token")
	}
}

func TestParseProjectSlug(t *testing.T) {
	tests := []struct {
		slug        string
		owner, repo string
		ok          bool
	}{
		{"gh/acme/api", "acme", "api", true},
		{"github/acme/api", "acme", "api", true},
		{"bb/acme/api", "", "", false},
		{"gh/acme", "", "", false},
		{"gh//api", "", "", false},
		{"", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			owner, repo, ok := github.ParseProjectSlug(tt.slug)
			if owner != tt.owner || repo != tt.repo || ok != tt.ok {
				t.Errorf("ParseProjectSlug(%q) = %q, %q, %v", tt.slug, owner, repo, ok)
			}
		})
	}
}
