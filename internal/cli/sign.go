package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/payment-webhook-ledger/internal/domain/shared"
	"github.com/payment-webhook-ledger/internal/ingestion/components"
)

func newSignCommand(now func() time.Time) *cobra.Command {
	var (
		secret    string
		file      string
		timestamp string
	)

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Print signature headers for a webhook body",
		Example: `  webhookctl sign --secret whsec_xxx --file body.json --timestamp now
  cat body.json | webhookctl sign --file - --timestamp 1709294400`,
		RunE: func(cmd *cobra.Command, args []string) error {
			verifier, err := components.NewSignatureVerifier(resolveSecret(secret), 1, false, now)
			if err != nil {
				return err
			}

			body, err := readBody(file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch timestamp {
			case "":
				fmt.Fprintf(out, "%s: %s\n", shared.SignatureHeader, verifier.Sign(body))
			default:
				ts, err := resolveTimestamp(timestamp, now)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s: %s\n", shared.SignatureHeader, verifier.SignWithTimestamp(body, ts))
				fmt.Fprintf(out, "%s: %s\n", shared.TimestampHeader, ts)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "shared webhook secret (defaults to $WEBHOOK_SECRET)")
	cmd.Flags().StringVarP(&file, "file", "f", "-", "path to the request body, - for stdin")
	cmd.Flags().StringVar(&timestamp, "timestamp", "", `"now" or unix seconds; empty signs the body only`)

	return cmd
}

func resolveTimestamp(raw string, now func() time.Time) (string, error) {
	if raw == "now" {
		return strconv.FormatInt(now().Unix(), 10), nil
	}
	if _, err := strconv.ParseInt(raw, 10, 64); err != nil {
		return "", fmt.Errorf("invalid --timestamp %q: expected \"now\" or unix seconds", raw)
	}
	return raw, nil
}
