package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ci-integration-agent/internal/webhook"
)

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Print the webhook signature header value for a payload",
	Long: `Compute sha256=<hex> over the raw payload bytes, the value the CI platform sends
in the signature header.

Example:
  ciagent sign --secret "$WEBHOOK_SECRET" --file payload.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		secret, _ := cmd.Flags().GetString("secret")
		file, _ := cmd.Flags().GetString("file")
		if secret == "" {
			return errors.New("--secret is required")
		}

		payload, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read payload: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), webhook.SignatureHeaderValue(secret, payload))
		return nil
	},
}

func init() {
	signCmd.Flags().StringP("secret", "s", "", "Webhook secret")
	signCmd.Flags().StringP("file", "f", "", "Payload file")
	_ = signCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(signCmd)
}
