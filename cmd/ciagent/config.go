package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var errConfigIssues = errors.New("configuration has issues")

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate configuration and print a redacted summary",
	Long: `Load the configuration, print the integration summary (secrets are never shown)
and list every violated invariant. Exits 1 when there are issues.

Examples:
  ciagent config check
  ciagent config check --config ./config/config.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		out := cmd.OutOrStdout()

		summary, err := yaml.Marshal(cfg.Integration.Summary())
		if err != nil {
			return fmt.Errorf("render summary: %w", err)
		}
		fmt.Fprintln(out, color.CyanString("Integration summary"))
		fmt.Fprint(out, string(summary))

		if !cfg.Integration.IsProductionReady() {
			fmt.Fprintln(out, color.YellowString("warning: debug or dry-run mode is enabled"))
		}

		issues := cfg.Integration.Validate()
		if len(issues) == 0 {
			fmt.Fprintln(out, color.GreenString("✓ configuration is valid"))
			return nil
		}

		fmt.Fprintln(out, color.RedString("✗ %d issue(s):", len(issues)))
		for _, issue := range issues {
			fmt.Fprintf(out, "  - %s: %s\n", color.YellowString(issue.Field), issue.Message)
		}
		return errConfigIssues
	},
}

func init() {
	configCmd.AddCommand(configCheckCmd)
	rootCmd.AddCommand(configCmd)
}
