package llmprovider_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ci-integration-agent/config"
	"ci-integration-agent/pkg/llmprovider"
	"ci-integration-agent/pkg/log"
)

// TestIntegration_ConfigToManagerFlow verifies that configuration loading,
// provider initialization, and manager work together correctly
func TestIntegration_ConfigToManagerFlow(t *testing.T) {
	cfg := &config.LLMConfig{
		Providers: []config.ProviderConfig{
			{Name: "claude", Enabled: true, Priority: 2, APIKey: "key-b", Model: "claude-haiku-4-5"},
			{Name: "anthropic", Enabled: true, Priority: 1, APIKey: "key-a", Model: "claude-sonnet-4-5"},
			{Name: "anthropic", Enabled: false, Priority: 0, APIKey: "key-c", Model: "disabled"},
		},
		FallbackEnabled: true,
		RetryAttempts:   2,
		RetryDelay:      "250ms",
		MaxTotalTimeout: "30s",
	}

	providers, initErrs, err := llmprovider.InitializeProviders(cfg)
	if err != nil {
		t.Fatalf("Failed to initialize providers: %v", err)
	}
	if len(initErrs) != 0 {
		t.Errorf("unexpected init errors: %v", initErrs)
	}
	if len(providers) != 2 {
		t.Fatalf("Expected 2 providers, got %d", len(providers))
	}
	if providers[0].Model() != "claude-sonnet-4-5" || providers[1].Model() != "claude-haiku-4-5" {
		t.Errorf("providers not sorted by priority: %s, %s", providers[0].Model(), providers[1].Model())
	}

	mcfg := llmprovider.ManagerConfig(cfg)
	if mcfg.RetryDelay != 250*time.Millisecond || mcfg.MaxTotalTimeout != 30*time.Second {
		t.Errorf("ManagerConfig durations = %v / %v", mcfg.RetryDelay, mcfg.MaxTotalTimeout)
	}

	manager := llmprovider.NewManager(providers, mcfg, log.NewNop())
	if manager == nil {
		t.Fatal("Manager should not be nil")
	}
}

func TestIntegration_ConfigValidation(t *testing.T) {
	tests := []struct {
		name         string
		providers    []config.ProviderConfig
		wantErr      bool
		wantInitErrs int
	}{
		{
			name:    "no enabled providers",
			wantErr: true,
		},
		{
			name:         "missing api key",
			providers:    []config.ProviderConfig{{Name: "anthropic", Enabled: true, Model: "m"}},
			wantErr:      true,
			wantInitErrs: 1,
		},
		{
			name:         "unknown provider skipped",
			providers:    []config.ProviderConfig{{Name: "mystery", Enabled: true, APIKey: "k", Model: "m"}, {Name: "anthropic", Enabled: true, APIKey: "k", Model: "m", Priority: 1}},
			wantInitErrs: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, initErrs, err := llmprovider.InitializeProviders(&config.LLMConfig{Providers: tt.providers})
			if (err != nil) != tt.wantErr {
				t.Errorf("InitializeProviders() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(initErrs) != tt.wantInitErrs {
				t.Errorf("init errors = %v, want %d", initErrs, tt.wantInitErrs)
			}
		})
	}

	if _, _, err := llmprovider.InitializeProviders(nil); err == nil {
		t.Error("nil config should fail")
	}
}

func TestAnthropicAdapter_GenerateContent(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1/messages") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-Api-Key") != "test-key" {
			t.Errorf("missing api key header")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-sonnet-4-5",
			"content": [{"type": "text", "text": "{\"failure_type\":\"test_failure\"}"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 12, "output_tokens": 8}
		}`))
	}))
	defer srv.Close()

	adapter, err := llmprovider.NewAnthropicAdapter(llmprovider.AnthropicConfig{
		APIKey:  "test-key",
		Model:   "claude-sonnet-4-5",
		BaseURL: srv.URL,
	})
	if err != nil {
		t.Fatalf("NewAnthropicAdapter() error = %v", err)
	}

	resp, err := adapter.GenerateContent(context.Background(), &llmprovider.Request{
		SystemInstruction: "You triage CI failures.",
		Messages:          []llmprovider.Message{llmprovider.UserMessage("job failed")},
		MaxTokens:         256,
	})
	if err != nil {
		t.Fatalf("GenerateContent() error = %v", err)
	}

	if resp.Text() != `{"failure_type":"test_failure"}` {
		t.Errorf("Text() = %q", resp.Text())
	}
	if resp.Usage.TotalTokens != 20 {
		t.Errorf("TotalTokens = %d, want 20", resp.Usage.TotalTokens)
	}
	if resp.StopReason != "end_turn" {
		t.Errorf("StopReason = %q", resp.StopReason)
	}
	if got["model"] != "claude-sonnet-4-5" {
		t.Errorf("request model = %v", got["model"])
	}
	if got["max_tokens"] != float64(256) {
		t.Errorf("request max_tokens = %v", got["max_tokens"])
	}
	if _, ok := got["system"]; !ok {
		t.Error("system prompt not sent")
	}
}

func TestAnthropicAdapter_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer srv.Close()

	adapter, err := llmprovider.NewAnthropicAdapter(llmprovider.AnthropicConfig{
		APIKey:     "k",
		Model:      "m",
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
	})
	if err != nil {
		t.Fatalf("NewAnthropicAdapter() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_, err = adapter.GenerateContent(ctx, &llmprovider.Request{Messages: []llmprovider.Message{llmprovider.UserMessage("x")}})
	if !errors.Is(err, llmprovider.ErrProviderRateLimited) {
		t.Fatalf("expected ErrProviderRateLimited, got %v", err)
	}
	var perr *llmprovider.ProviderError
	if !errors.As(err, &perr) || perr.Provider != "anthropic" {
		t.Errorf("expected *ProviderError from anthropic, got %T", err)
	}
}

func TestAnthropicAdapter_Validation(t *testing.T) {
	if _, err := llmprovider.NewAnthropicAdapter(llmprovider.AnthropicConfig{Model: "m"}); !errors.Is(err, llmprovider.ErrInvalidRequest) {
		t.Errorf("missing key: got %v", err)
	}
	if _, err := llmprovider.NewAnthropicAdapter(llmprovider.AnthropicConfig{APIKey: "k"}); !errors.Is(err, llmprovider.ErrInvalidRequest) {
		t.Errorf("missing model: got %v", err)
	}

	adapter, _ := llmprovider.NewAnthropicAdapter(llmprovider.AnthropicConfig{APIKey: "k", Model: "m"})
	if _, err := adapter.GenerateContent(context.Background(), &llmprovider.Request{}); !errors.Is(err, llmprovider.ErrInvalidRequest) {
		t.Errorf("empty request: got %v", err)
	}
}
