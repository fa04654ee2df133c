package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ci-integration-agent/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "ciagent",
	Short: "Operate the CI integration agent from the command line",
	Long: `Tools for the CI integration agent:

  ciagent config check            validate configuration and print the redacted summary
  ciagent sign --secret S --file F  compute the webhook signature for a payload
  ciagent replay --file F         push a payload through an in-process agent`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config.yaml (default: search ./config, ., /etc/app/)")
}

// loadConfig reads --config when given and falls back to the standard search path.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errConfigIssues) {
			fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("Error:"), err)
		}
		os.Exit(1)
	}
}
