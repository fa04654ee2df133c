package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ci-integration-agent/config"
	"ci-integration-agent/internal/agent"
	"ci-integration-agent/internal/analysis/repository"
	"ci-integration-agent/internal/bootstrap"
	"ci-integration-agent/internal/model"
	"ci-integration-agent/internal/webhook"
	"ci-integration-agent/pkg/log"
)

const replayPoll = 10 * time.Millisecond

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Run a webhook payload through an in-process agent",
	Long: `Start an agent with the configured analyzer, submit one payload, wait for the
resulting analysis tasks and print the result, analyses and metrics.

Without --secret, signature validation is turned off for the replay. Notifications are
only sent with --notify.

Examples:
  ciagent replay --file testdata/workflow_failed.json
  ciagent replay --file payload.json --secret "$WEBHOOK_SECRET" --timeout 2m`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		secret, _ := cmd.Flags().GetString("secret")
		notify, _ := cmd.Flags().GetBool("notify")
		verbose, _ := cmd.Flags().GetBool("verbose")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		payload, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read payload: %w", err)
		}
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logger := log.NewNop()
		if verbose {
			logger = log.Init(log.ZapConfig{Level: "debug", Mode: "development", Encoding: "console", ColorEnabled: true})
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		return replay(ctx, cmd, cfg, logger, payload, secret, notify)
	},
}

func replay(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger log.Logger, payload []byte, secret string, notify bool) error {
	headers := http.Header{}
	integ := cfg.Integration
	if secret != "" {
		integ.Webhook.Secret = config.Secret(secret)
		integ.Webhook.ValidateSignatures = true
		header := integ.Webhook.SignatureHeader
		if header == "" {
			header = config.DefaultSignatureHeader
		}
		headers.Set(header, webhook.SignatureHeaderValue(secret, payload))
	} else {
		integ.Webhook.ValidateSignatures = false
	}
	integ.FailureAnalysis.Enabled = true
	if !notify {
		integ.Notifications.Enabled = false
		integ.GitHub.Enabled = false
	}
	cfg.Integration = integ

	components, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()

	ag := agent.New(integ, logger, components.Options()...)
	out := cmd.OutOrStdout()

	return ag.Run(ctx, func(ctx context.Context) error {
		res := ag.ProcessWebhook(ctx, headers, payload)
		if err := printJSON(out, "Result", res); err != nil {
			return err
		}
		if !res.Success {
			return fmt.Errorf("webhook rejected: %s", res.Error)
		}

		if res.EventType == model.EventTypePing && integ.Webhook.IgnorePingEvents {
			fmt.Fprintln(out, color.GreenString("Ping acknowledged; nothing dispatched."))
			return nil
		}
		if err := waitDispatched(ctx, ag); err != nil {
			return err
		}
		if err := ag.Wait(ctx); err != nil {
			return fmt.Errorf("wait for analysis: %w", err)
		}

		analyses, err := ag.RecentAnalyses(ctx, repository.ListOptions{Limit: 1})
		if err != nil {
			return err
		}
		if len(analyses) == 0 {
			fmt.Fprintln(out, color.GreenString("No failure to analyse."))
		} else if err := printJSON(out, "Analysis", analyses[0]); err != nil {
			return err
		}
		return printJSON(out, "Metrics", ag.Metrics())
	})
}

// waitDispatched returns once the consumer loop has run the handlers for the submitted event.
func waitDispatched(ctx context.Context, ag *agent.Agent) error {
	ticker := time.NewTicker(replayPoll)
	defer ticker.Stop()
	for ag.Processor().Stats().EventsProcessed == 0 {
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for dispatch: %w", ctx.Err())
		case <-ticker.C:
		}
	}
	return nil
}

func printJSON(out io.Writer, title string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("render %s: %w", title, err)
	}
	fmt.Fprintf(out, "%s\n%s\n", color.CyanString(title), b)
	return nil
}

func init() {
	replayCmd.Flags().StringP("file", "f", "", "Payload file")
	replayCmd.Flags().StringP("secret", "s", "", "Sign the payload and validate with this secret")
	replayCmd.Flags().Bool("notify", false, "Send notifications for the analysis")
	replayCmd.Flags().BoolP("verbose", "v", false, "Log to stderr")
	replayCmd.Flags().Duration("timeout", time.Minute, "Overall replay timeout")
	_ = replayCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(replayCmd)
}
