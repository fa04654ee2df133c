package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all service configuration.
type Config struct {
	// Environment
	Environment EnvironmentConfig

	// Server
	HTTPServer HTTPServerConfig
	Logger     LoggerConfig

	// LLM Provider Abstraction (used by the llm failure analyzer)
	LLM LLMConfig

	// Webhook pipeline and integration agent
	Integration IntegrationConfig
}

type EnvironmentConfig struct {
	Name string
}

type HTTPServerConfig struct {
	Port int
	Mode string
}

type LoggerConfig struct {
	Level        string
	Mode         string
	Encoding     string
	ColorEnabled bool
}

// LLMConfig holds configuration for the LLM provider abstraction layer
type LLMConfig struct {
	Providers       []ProviderConfig `yaml:"providers"`
	FallbackEnabled bool             `yaml:"fallback_enabled"`
	RetryAttempts   int              `yaml:"retry_attempts"`
	RetryDelay      string           `yaml:"retry_delay"`
	MaxTotalTimeout string           `yaml:"max_total_timeout"`
}

// ProviderConfig holds configuration for a single LLM provider
type ProviderConfig struct {
	Name      string `yaml:"name"`
	Enabled   bool   `yaml:"enabled"`
	Priority  int    `yaml:"priority"`
	APIKey    Secret `yaml:"api_key"`
	BaseURL   string `yaml:"base_url,omitempty"`
	Model     string `yaml:"model"`
	Timeout   string `yaml:"timeout"`
	MaxTokens int    `yaml:"max_tokens"`
}

// Load loads configuration using Viper.
// Config file name: config.yaml, searched in ./config, ., /etc/app/
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/app/")

	return load(v)
}

// LoadFile loads configuration from an explicit file path.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}

	// Environment & Server
	cfg.Environment.Name = v.GetString("environment.name")
	cfg.HTTPServer.Port = v.GetInt("http_server.port")
	cfg.HTTPServer.Mode = v.GetString("http_server.mode")
	cfg.Logger.Level = v.GetString("logger.level")
	cfg.Logger.Mode = v.GetString("logger.mode")
	cfg.Logger.Encoding = v.GetString("logger.encoding")
	cfg.Logger.ColorEnabled = v.GetBool("logger.color_enabled")

	// LLM Provider Abstraction
	cfg.LLM.FallbackEnabled = v.GetBool("llm.fallback_enabled")
	cfg.LLM.RetryAttempts = v.GetInt("llm.retry_attempts")
	cfg.LLM.RetryDelay = v.GetString("llm.retry_delay")
	cfg.LLM.MaxTotalTimeout = v.GetString("llm.max_total_timeout")

	if v.IsSet("llm.providers") {
		providersRaw := v.Get("llm.providers")
		if providersList, ok := providersRaw.([]interface{}); ok {
			for _, p := range providersList {
				if providerMap, ok := p.(map[string]interface{}); ok {
					provider := ProviderConfig{
						Name:      getStringFromMap(providerMap, "name"),
						Enabled:   getBoolFromMap(providerMap, "enabled"),
						Priority:  getIntFromMap(providerMap, "priority"),
						APIKey:    Secret(expandEnvVar(v, getStringFromMap(providerMap, "api_key"))),
						BaseURL:   getStringFromMap(providerMap, "base_url"),
						Model:     getStringFromMap(providerMap, "model"),
						Timeout:   getStringFromMap(providerMap, "timeout"),
						MaxTokens: getIntFromMap(providerMap, "max_tokens"),
					}
					cfg.LLM.Providers = append(cfg.LLM.Providers, provider)
				}
			}
		}
	}

	integration, err := NewIntegrationConfig(loadIntegration(v))
	if err != nil {
		return nil, fmt.Errorf("invalid integration config: %w", err)
	}
	cfg.Integration = integration

	return cfg, nil
}

func loadIntegration(v *viper.Viper) IntegrationConfig {
	var c IntegrationConfig

	// CI API
	c.API.Token = Secret(v.GetString("api.token"))
	if token := v.GetString("circleci_token"); token != "" {
		c.API.Token = Secret(token)
	}
	c.API.BaseURL = v.GetString("api.base_url")
	c.API.TimeoutSeconds = v.GetInt("api.timeout_seconds")

	// Webhooks
	c.Webhook.Secret = Secret(v.GetString("webhook.secret"))
	if webhookSecret := v.GetString("webhook_secret"); webhookSecret != "" {
		c.Webhook.Secret = Secret(webhookSecret)
	}
	c.Webhook.ValidateSignatures = v.GetBool("webhook.validate_signatures")
	c.Webhook.MaxQueueSize = v.GetInt("webhook.max_queue_size")
	c.Webhook.IgnorePingEvents = v.GetBool("webhook.ignore_ping_events")
	c.Webhook.SignatureHeader = v.GetString("webhook.signature_header")
	c.Webhook.HandlerTimeoutSeconds = v.GetInt("webhook.handler_timeout_seconds")
	c.Webhook.RateLimitPerMin = v.GetInt("webhook.rate_limit_per_min")

	// Allowed IPs come as a YAML list from the file or a comma-separated string from env
	switch raw := v.Get("webhook.allowed_ips").(type) {
	case []interface{}:
		for _, item := range raw {
			if ip, ok := item.(string); ok && strings.TrimSpace(ip) != "" {
				c.Webhook.AllowedIPs = append(c.Webhook.AllowedIPs, strings.TrimSpace(ip))
			}
		}
	case string:
		for _, ip := range strings.Split(raw, ",") {
			ip = strings.TrimSpace(ip)
			if ip != "" {
				c.Webhook.AllowedIPs = append(c.Webhook.AllowedIPs, ip)
			}
		}
	}

	// Features
	c.AutoFix.Enabled = v.GetBool("auto_fix.enabled")
	c.AutoFix.ConfidenceThreshold = v.GetFloat64("auto_fix.confidence_threshold")
	c.AutoFix.MaxFixesPerDay = v.GetInt("auto_fix.max_fixes_per_day")

	c.FailureAnalysis.Enabled = v.GetBool("failure_analysis.enabled")
	c.FailureAnalysis.TimeoutSeconds = v.GetInt("failure_analysis.timeout_seconds")
	c.FailureAnalysis.Analyzer = v.GetString("failure_analysis.analyzer")
	c.FailureAnalysis.StorePath = v.GetString("failure_analysis.store_path")

	c.WorkflowAutomation.Enabled = v.GetBool("workflow_automation.enabled")
	c.WorkflowAutomation.AutoRetryFailed = v.GetBool("workflow_automation.auto_retry_failed")
	c.WorkflowAutomation.MaxRetries = v.GetInt("workflow_automation.max_retries")

	c.Notifications.Enabled = v.GetBool("notifications.enabled")
	c.Notifications.TelegramBotToken = Secret(v.GetString("notifications.telegram_bot_token"))
	if tgToken := v.GetString("telegram_bot_token"); tgToken != "" {
		c.Notifications.TelegramBotToken = Secret(tgToken)
	}
	c.Notifications.TelegramChatID = v.GetInt64("notifications.telegram_chat_id")
	c.Notifications.NotifyOnFailure = v.GetBool("notifications.notify_on_failure")

	c.GitHub.Enabled = v.GetBool("github.enabled")
	c.GitHub.Token = Secret(v.GetString("github.token"))
	if ghToken := v.GetString("github_token"); ghToken != "" {
		c.GitHub.Token = Secret(ghToken)
	}
	c.GitHub.BaseURL = v.GetString("github.base_url")
	c.GitHub.StatusContext = v.GetString("github.status_context")

	c.Codegen.Enabled = v.GetBool("codegen.enabled")
	c.Codegen.APIToken = Secret(v.GetString("codegen.api_token"))
	c.Codegen.OrgID = v.GetString("codegen.org_id")

	c.DebugMode = v.GetBool("debug_mode")
	c.DryRunMode = v.GetBool("dry_run_mode")

	return c
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment.name", "development")
	v.SetDefault("http_server.port", 8080)
	v.SetDefault("http_server.mode", "debug")
	v.SetDefault("logger.level", "debug")
	v.SetDefault("logger.mode", "debug")
	v.SetDefault("logger.encoding", "console")
	v.SetDefault("logger.color_enabled", true)

	// LLM defaults
	v.SetDefault("llm.fallback_enabled", true)
	v.SetDefault("llm.retry_attempts", 3)
	v.SetDefault("llm.retry_delay", "1s")
	v.SetDefault("llm.max_total_timeout", "60s")

	// Integration defaults
	v.SetDefault("api.base_url", "https://circleci.com/api/v2")
	v.SetDefault("api.timeout_seconds", 30)
	v.SetDefault("webhook.validate_signatures", true)
	v.SetDefault("webhook.max_queue_size", DefaultMaxQueueSize)
	v.SetDefault("webhook.ignore_ping_events", true)
	v.SetDefault("webhook.signature_header", DefaultSignatureHeader)
	v.SetDefault("webhook.rate_limit_per_min", 600)
	v.SetDefault("auto_fix.confidence_threshold", 0.8)
	v.SetDefault("auto_fix.max_fixes_per_day", 10)
	v.SetDefault("failure_analysis.enabled", true)
	v.SetDefault("failure_analysis.timeout_seconds", 300)
	v.SetDefault("failure_analysis.analyzer", AnalyzerHeuristic)
	v.SetDefault("workflow_automation.max_retries", 3)
	v.SetDefault("notifications.notify_on_failure", true)
	v.SetDefault("github.base_url", "https://api.github.com")
	v.SetDefault("github.status_context", "ci/failure-analysis")
}

// expandEnvVar expands environment variables in the format ${VAR_NAME}
func expandEnvVar(v *viper.Viper, value string) string {
	if value == "" {
		return value
	}

	if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
		envVar := value[2 : len(value)-1]
		// Try viper first (handles both env and config)
		if envValue := v.GetString(envVar); envValue != "" {
			return envValue
		}
		if envValue := v.GetString(strings.ToLower(envVar)); envValue != "" {
			return envValue
		}
		if envValue := os.Getenv(envVar); envValue != "" {
			return envValue
		}
	}

	return value
}

// Helper functions to safely extract values from map[string]interface{}
func getStringFromMap(m map[string]interface{}, key string) string {
	if val, ok := m[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

func getBoolFromMap(m map[string]interface{}, key string) bool {
	if val, ok := m[key]; ok {
		if b, ok := val.(bool); ok {
			return b
		}
	}
	return false
}

func getIntFromMap(m map[string]interface{}, key string) int {
	if val, ok := m[key]; ok {
		if i, ok := val.(int); ok {
			return i
		}
		// Handle float64 from JSON unmarshaling
		if f, ok := val.(float64); ok {
			return int(f)
		}
	}
	return 0
}
