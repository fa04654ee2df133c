package config

import (
	"encoding/json"
	"fmt"
)

const (
	// DefaultMaxQueueSize is used when the webhook queue size is left at zero.
	DefaultMaxQueueSize = 1000

	// DefaultSignatureHeader carries "sha256=<hex>" over the raw request body.
	DefaultSignatureHeader = "X-Signature"

	AnalyzerHeuristic = "heuristic"
	AnalyzerLLM       = "llm"

	redacted = "[REDACTED]"
)

// Secret is a credential that never renders its value through fmt, JSON or YAML.
type Secret string

// Reveal returns the raw credential. Call it only where the value is sent to its owner.
func (s Secret) Reveal() string { return string(s) }

// IsSet reports whether the secret has a value.
func (s Secret) IsSet() bool { return s != "" }

func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return redacted
}

// GoString keeps %#v from leaking the value.
func (s Secret) GoString() string { return s.String() }

func (s Secret) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

func (s Secret) MarshalYAML() (any, error) { return s.String(), nil }

// APIConfig holds CI platform API access settings.
type APIConfig struct {
	Token          Secret
	BaseURL        string
	TimeoutSeconds int
}

// WebhookConfig controls webhook trust and queueing.
type WebhookConfig struct {
	Secret                Secret
	ValidateSignatures    bool
	MaxQueueSize          int
	IgnorePingEvents      bool
	SignatureHeader       string
	HandlerTimeoutSeconds int      // 0 disables the per-handler deadline
	RateLimitPerMin       int      // 0 disables ingress rate limiting
	AllowedIPs            []string // empty allows every source
}

type AutoFixConfig struct {
	Enabled             bool
	ConfidenceThreshold float64
	MaxFixesPerDay      int
}

type FailureAnalysisConfig struct {
	Enabled        bool
	TimeoutSeconds int    // 0 disables the analysis deadline
	Analyzer       string // heuristic | llm
	StorePath      string // sqlite file for analysis history, empty disables it
}

type WorkflowAutomationConfig struct {
	Enabled         bool
	AutoRetryFailed bool
	MaxRetries      int
}

type NotificationsConfig struct {
	Enabled          bool
	TelegramBotToken Secret
	TelegramChatID   int64
	NotifyOnFailure  bool
}

type GitHubConfig struct {
	Enabled       bool
	Token         Secret
	BaseURL       string
	StatusContext string
}

type CodegenConfig struct {
	Enabled  bool
	APIToken Secret
	OrgID    string
}

// IntegrationConfig is the read-only settings tree for the webhook pipeline and the agent.
type IntegrationConfig struct {
	API                APIConfig
	Webhook            WebhookConfig
	AutoFix            AutoFixConfig
	FailureAnalysis    FailureAnalysisConfig
	WorkflowAutomation WorkflowAutomationConfig
	Notifications      NotificationsConfig
	GitHub             GitHubConfig
	Codegen            CodegenConfig

	DebugMode  bool
	DryRunMode bool
}

// Issue is one violated configuration invariant.
type Issue struct {
	Field   string `json:"field" yaml:"field"`
	Message string `json:"message" yaml:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Field, i.Message)
}

// NewIntegrationConfig fills defaults and rejects negative sizes and timeouts.
// Those are programmer errors, not validation issues.
func NewIntegrationConfig(cfg IntegrationConfig) (IntegrationConfig, error) {
	if cfg.Webhook.MaxQueueSize < 0 {
		return IntegrationConfig{}, fmt.Errorf("webhook.max_queue_size must not be negative (got %d)", cfg.Webhook.MaxQueueSize)
	}
	if cfg.API.TimeoutSeconds < 0 {
		return IntegrationConfig{}, fmt.Errorf("api.timeout_seconds must not be negative (got %d)", cfg.API.TimeoutSeconds)
	}
	if cfg.Webhook.HandlerTimeoutSeconds < 0 {
		return IntegrationConfig{}, fmt.Errorf("webhook.handler_timeout_seconds must not be negative (got %d)", cfg.Webhook.HandlerTimeoutSeconds)
	}
	if cfg.FailureAnalysis.TimeoutSeconds < 0 {
		return IntegrationConfig{}, fmt.Errorf("failure_analysis.timeout_seconds must not be negative (got %d)", cfg.FailureAnalysis.TimeoutSeconds)
	}

	if cfg.Webhook.SignatureHeader == "" {
		cfg.Webhook.SignatureHeader = DefaultSignatureHeader
	}
	if cfg.FailureAnalysis.Analyzer == "" {
		cfg.FailureAnalysis.Analyzer = AnalyzerHeuristic
	}
	if len(cfg.Webhook.AllowedIPs) > 0 {
		ips := make([]string, len(cfg.Webhook.AllowedIPs))
		copy(ips, cfg.Webhook.AllowedIPs)
		cfg.Webhook.AllowedIPs = ips
	}

	return cfg, nil
}

// Validate returns every violated invariant. An empty result means the config is usable.
func (c IntegrationConfig) Validate() []Issue {
	var issues []Issue
	add := func(field, msg string) {
		issues = append(issues, Issue{Field: field, Message: msg})
	}

	if !c.API.Token.IsSet() {
		add("api.token", "API token is required")
	}
	if c.Webhook.ValidateSignatures && !c.Webhook.Secret.IsSet() {
		add("webhook.secret", "webhook secret is required when signature validation is enabled")
	}
	if c.Webhook.MaxQueueSize <= 0 {
		add("webhook.max_queue_size", "queue size must be positive")
	}
	if c.AutoFix.ConfidenceThreshold < 0 || c.AutoFix.ConfidenceThreshold > 1 {
		add("auto_fix.confidence_threshold", "confidence threshold must be between 0 and 1")
	}
	if c.AutoFix.Enabled && !c.Codegen.Enabled {
		add("auto_fix.enabled", "auto-fix requires the codegen integration to be enabled")
	}
	if c.Notifications.Enabled {
		if !c.Notifications.TelegramBotToken.IsSet() {
			add("notifications.telegram_bot_token", "bot token is required when notifications are enabled")
		}
		if c.Notifications.TelegramChatID == 0 {
			add("notifications.telegram_chat_id", "chat id is required when notifications are enabled")
		}
	}
	if c.GitHub.Enabled && !c.GitHub.Token.IsSet() {
		add("github.token", "GitHub token is required when the GitHub integration is enabled")
	}
	if c.Codegen.Enabled && !c.Codegen.APIToken.IsSet() {
		add("codegen.api_token", "codegen API token is required when codegen is enabled")
	}
	switch c.FailureAnalysis.Analyzer {
	case AnalyzerHeuristic, AnalyzerLLM:
	default:
		add("failure_analysis.analyzer", fmt.Sprintf("unknown analyzer %q", c.FailureAnalysis.Analyzer))
	}

	return issues
}

// IsProductionReady is true when neither debug nor dry-run mode is set.
func (c IntegrationConfig) IsProductionReady() bool {
	return !c.DebugMode && !c.DryRunMode
}

// Summary is a redacted view safe for logs and health endpoints.
func (c IntegrationConfig) Summary() map[string]any {
	return map[string]any{
		"api": map[string]any{
			"base_url":         c.API.BaseURL,
			"timeout_seconds":  c.API.TimeoutSeconds,
			"token_configured": c.API.Token.IsSet(),
		},
		"webhook": map[string]any{
			"validate_signatures": c.Webhook.ValidateSignatures,
			"secret_configured":   c.Webhook.Secret.IsSet(),
			"max_queue_size":      c.Webhook.MaxQueueSize,
			"ignore_ping_events":  c.Webhook.IgnorePingEvents,
			"rate_limit_per_min":  c.Webhook.RateLimitPerMin,
		},
		"auto_fix": map[string]any{
			"enabled":              c.AutoFix.Enabled,
			"confidence_threshold": c.AutoFix.ConfidenceThreshold,
			"max_fixes_per_day":    c.AutoFix.MaxFixesPerDay,
		},
		"failure_analysis": map[string]any{
			"enabled":         c.FailureAnalysis.Enabled,
			"analyzer":        c.FailureAnalysis.Analyzer,
			"timeout_seconds": c.FailureAnalysis.TimeoutSeconds,
			"store_enabled":   c.FailureAnalysis.StorePath != "",
		},
		"workflow_automation": map[string]any{
			"enabled":           c.WorkflowAutomation.Enabled,
			"auto_retry_failed": c.WorkflowAutomation.AutoRetryFailed,
			"max_retries":       c.WorkflowAutomation.MaxRetries,
		},
		"notifications": map[string]any{
			"enabled":                       c.Notifications.Enabled,
			"notify_on_failure":             c.Notifications.NotifyOnFailure,
			"telegram_bot_token_configured": c.Notifications.TelegramBotToken.IsSet(),
		},
		"github": map[string]any{
			"enabled":          c.GitHub.Enabled,
			"token_configured": c.GitHub.Token.IsSet(),
		},
		"codegen": map[string]any{
			"enabled":              c.Codegen.Enabled,
			"api_token_configured": c.Codegen.APIToken.IsSet(),
		},
		"debug_mode":          c.DebugMode,
		"dry_run_mode":        c.DryRunMode,
		"is_production_ready": c.IsProductionReady(),
	}
}
