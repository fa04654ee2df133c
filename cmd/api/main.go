package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"ci-integration-agent/config"
	_ "ci-integration-agent/docs" // Swagger docs
	"ci-integration-agent/internal/agent"
	"ci-integration-agent/internal/bootstrap"
	"ci-integration-agent/internal/httpserver"
	"ci-integration-agent/pkg/log"
)

const healthLogInterval = time.Minute

// @title       CI Integration Agent API
// @description CircleCI webhook ingestion with build failure analysis.
// @version     1
// @host        localhost:8080
// @schemes     http
func main() {
	// 1. Configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Failed to load config: ", err)
		os.Exit(1)
	}

	// 2. Logger
	logger := log.Init(log.ZapConfig{
		Level:        cfg.Logger.Level,
		Mode:         cfg.Logger.Mode,
		Encoding:     cfg.Logger.Encoding,
		ColorEnabled: cfg.Logger.ColorEnabled,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "Starting CI Integration Agent...")
	logger.Infof(ctx, "Environment: %s", cfg.Environment.Name)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error(ctx, "Service stopped with error: ", err)
		os.Exit(1)
	}
	logger.Info(ctx, "Server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger log.Logger) error {
	// 3. Validate integration settings. Issues are reported, not fatal.
	for _, issue := range cfg.Integration.Validate() {
		logger.Warnf(ctx, "Config issue: %s", issue)
	}
	if !cfg.Integration.IsProductionReady() {
		logger.Warn(ctx, "Debug or dry-run mode is enabled")
	}

	// 4. Collaborators
	components, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build components: %w", err)
	}
	defer components.Close()

	// 5. Agent
	ag := agent.New(cfg.Integration, logger, components.Options()...)

	// 6. HTTP Server
	httpServer, err := httpserver.New(logger, httpserver.Config{
		Logger:      logger,
		Port:        cfg.HTTPServer.Port,
		Mode:        cfg.HTTPServer.Mode,
		Environment: cfg.Environment.Name,
		Agent:       ag,
	})
	if err != nil {
		return fmt.Errorf("initialize HTTP server: %w", err)
	}

	// 7. Run until a signal arrives. The HTTP server drains first, then the agent stops.
	return ag.Run(ctx, func(ctx context.Context) error {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return httpServer.Run(gctx)
		})
		g.Go(func() error {
			logHealth(gctx, ag, logger)
			return nil
		})
		return g.Wait()
	})
}

// logHealth writes a one-line health summary until ctx is done.
func logHealth(ctx context.Context, ag *agent.Agent, logger log.Logger) {
	ticker := time.NewTicker(healthLogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h := ag.HealthCheck()
			m := h.Metrics
			logger.Infof(ctx, "health: healthy=%t queue=%d/%d builds=%d failed=%d analysed=%d tasks=%d",
				h.Healthy, m.Queue.Size, m.Queue.MaxSize, m.BuildsMonitored, m.BuildsFailed,
				m.Analysis.FailuresAnalyzed, m.ActiveTasks)
		}
	}
}
