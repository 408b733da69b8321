// Package cli implements webhookctl, the operator tool for signing and checking webhook deliveries.
package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// secretEnv is read when --secret is not given
const secretEnv = "WEBHOOK_SECRET"

// NewRootCommand builds the webhookctl command tree. now is the clock used for
// "--timestamp now" and tolerance checks.
func NewRootCommand(now func() time.Time) *cobra.Command {
	if now == nil {
		now = time.Now
	}

	rootCmd := &cobra.Command{
		Use:   "webhookctl",
		Short: "Sign and verify payment webhook deliveries",
		Long: `webhookctl produces and checks X-Webhook-Signature headers with the same
HMAC-SHA256 scheme the gateway enforces.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newSignCommand(now))
	rootCmd.AddCommand(newVerifyCommand(now))

	return rootCmd
}

// Execute runs webhookctl with os.Args
func Execute(version string) error {
	rootCmd := NewRootCommand(time.Now)
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func resolveSecret(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(secretEnv)
}

// readBody reads the payload from path, or from in when path is "-"
func readBody(path string, in io.Reader) ([]byte, error) {
	if path == "-" {
		body, err := io.ReadAll(in)
		if err != nil {
			return nil, fmt.Errorf("failed to read body from stdin: %w", err)
		}
		return body, nil
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read body file: %w", err)
	}
	return body, nil
}
