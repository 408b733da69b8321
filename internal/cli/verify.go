package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/payment-webhook-ledger/internal/ingestion/components"
)

func newVerifyCommand(now func() time.Time) *cobra.Command {
	var (
		secret           string
		file             string
		signature        string
		timestamp        string
		toleranceSeconds int64
		requireTimestamp bool
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check a signature the way the gateway does",
		RunE: func(cmd *cobra.Command, args []string) error {
			verifier, err := components.NewSignatureVerifier(resolveSecret(secret), toleranceSeconds, requireTimestamp, now)
			if err != nil {
				return err
			}

			body, err := readBody(file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			if err := verifier.Authenticate(body, signature, timestamp); err != nil {
				return fmt.Errorf("signature rejected: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "signature valid")
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "shared webhook secret (defaults to $WEBHOOK_SECRET)")
	cmd.Flags().StringVarP(&file, "file", "f", "-", "path to the request body, - for stdin")
	cmd.Flags().StringVar(&signature, "signature", "", "value of the X-Webhook-Signature header")
	cmd.Flags().StringVar(&timestamp, "timestamp", "", "value of the X-Webhook-Timestamp header, if any")
	cmd.Flags().Int64Var(&toleranceSeconds, "tolerance", 300, "accepted clock skew in seconds")
	cmd.Flags().BoolVar(&requireTimestamp, "require-timestamp", false, "reject body-only signatures")

	return cmd
}
