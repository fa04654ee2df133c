// Package bootstrap builds the agent's optional collaborators from configuration. Both the
// service binary and the CLI go through it so they run the same pipeline.
package bootstrap

import (
	"context"
	"fmt"

	"ci-integration-agent/config"
	"ci-integration-agent/internal/agent"
	"ci-integration-agent/internal/analysis/repository"
	"ci-integration-agent/internal/analysis/repository/sqlite"
	"ci-integration-agent/internal/analyzer"
	"ci-integration-agent/internal/notification"
	"ci-integration-agent/pkg/github"
	"ci-integration-agent/pkg/llmprovider"
	"ci-integration-agent/pkg/log"
	"ci-integration-agent/pkg/telegram"
)

// Components are the collaborators handed to agent.New.
type Components struct {
	Analyzer analyzer.Analyzer
	Notifier notification.Notifier         // nil when no channel is configured
	Store    repository.AnalysisRepository // nil when no store path is configured
}

// Options converts the components into agent options.
func (c Components) Options() []agent.Option {
	opts := []agent.Option{agent.WithAnalyzer(c.Analyzer)}
	if c.Notifier != nil {
		opts = append(opts, agent.WithNotifier(c.Notifier))
	}
	if c.Store != nil {
		opts = append(opts, agent.WithStore(c.Store))
	}
	return opts
}

// Close releases the store.
func (c Components) Close() error {
	if c.Store == nil {
		return nil
	}
	return c.Store.Close()
}

// Build wires analyzer, notifier and store. On error nothing is left open.
func Build(ctx context.Context, cfg *config.Config, l log.Logger) (Components, error) {
	an, err := BuildAnalyzer(ctx, cfg, l)
	if err != nil {
		return Components{}, err
	}

	notifier, err := BuildNotifier(ctx, cfg.Integration, l)
	if err != nil {
		return Components{}, err
	}

	var store repository.AnalysisRepository
	if path := cfg.Integration.FailureAnalysis.StorePath; path != "" {
		store, err = sqlite.New(path)
		if err != nil {
			return Components{}, fmt.Errorf("open analysis store: %w", err)
		}
		l.Infof(ctx, "Analysis history stored in %s", path)
	}

	return Components{Analyzer: an, Notifier: notifier, Store: store}, nil
}

// BuildAnalyzer picks the configured analyzer. The llm analyzer goes through the provider
// manager so retry and fallback apply.
func BuildAnalyzer(ctx context.Context, cfg *config.Config, l log.Logger) (analyzer.Analyzer, error) {
	fa := cfg.Integration.FailureAnalysis

	var gen analyzer.Generator
	if fa.Analyzer == config.AnalyzerLLM {
		providers, initErrs, err := llmprovider.InitializeProviders(&cfg.LLM)
		for _, e := range initErrs {
			l.Warnf(ctx, "LLM provider skipped: %v", e)
		}
		if err != nil {
			return nil, fmt.Errorf("initialize LLM providers: %w", err)
		}
		manager := llmprovider.NewManager(providers, llmprovider.ManagerConfig(&cfg.LLM), l)
		l.Infof(ctx, "LLM providers: %v", manager.Providers())
		gen = manager
	}

	an, err := analyzer.New(fa, gen)
	if err != nil {
		return nil, err
	}
	l.Infof(ctx, "Failure analyzer: %s", an.Name())
	return an, nil
}

// BuildNotifier returns a fan-out over every configured channel, or nil when there are none.
func BuildNotifier(ctx context.Context, cfg config.IntegrationConfig, l log.Logger) (notification.Notifier, error) {
	var notifiers []notification.Notifier

	if n := cfg.Notifications; n.Enabled && n.TelegramBotToken.IsSet() {
		bot := telegram.NewBot(n.TelegramBotToken.Reveal())
		notifiers = append(notifiers, notification.NewTelegram(bot, n.TelegramChatID))
		l.Infof(ctx, "Telegram notifications enabled (chat %d)", n.TelegramChatID)
	}

	if gh := cfg.GitHub; gh.Enabled {
		client, err := github.NewClient(ctx, github.Config{
			Token:   gh.Token.Reveal(),
			BaseURL: gh.BaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("github commit statuses: %w", err)
		}
		notifiers = append(notifiers, notification.NewGitHubStatus(client, gh.StatusContext))
		l.Infof(ctx, "GitHub commit statuses enabled (context %q)", gh.StatusContext)
	}

	if len(notifiers) == 0 {
		return nil, nil
	}
	return notification.NewMulti(notifiers...), nil
}
