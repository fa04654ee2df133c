package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	DefaultBaseURL = "https://api.github.com"
	apiVersion     = "2022-11-28"
)

// Config holds the settings for a token-authenticated REST client.
type Config struct {
	Token   string
	BaseURL string // empty means api.github.com
	Timeout time.Duration
}

// Client is a minimal GitHub REST client. Authentication goes through an oauth2 transport.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client. The token is attached by oauth2.Transport on every request.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("github: token is required")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: cfg.Token,
		TokenType:   "Bearer",
	}))
	httpClient.Timeout = cfg.Timeout
	if httpClient.Timeout == 0 {
		httpClient.Timeout = 30 * time.Second
	}

	return &Client{baseURL: baseURL, httpClient: httpClient}, nil
}

func (c *Client) post(ctx context.Context, path string, requestBody any, result any) error {
	body, err := json.Marshal(requestBody)
	if err != nil {
		return fmt.Errorf("github: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("github: build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("github: POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("github: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseAPIErrorFromBody(resp.StatusCode, raw)
	}

	if result != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, result); err != nil {
			return fmt.Errorf("github: decode response: %w", err)
		}
	}
	return nil
}

// ParseProjectSlug splits a CI project slug of the form "gh/<owner>/<repo>" or
// "github/<owner>/<repo>". ok is false for other VCS providers.
func ParseProjectSlug(slug string) (owner, repo string, ok bool) {
	parts := strings.Split(slug, "/")
	if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
		return "", "", false
	}
	switch parts[0] {
	case "gh", "github":
		return parts[1], parts[2], true
	default:
		return "", "", false
	}
}
