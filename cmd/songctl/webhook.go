package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"songdrop/internal/webhook"
)

// webhookCmd signs a payload the way the payment provider does, for replaying
// deliveries against a local API.
func webhookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Webhook helpers",
	}

	var secret, msgID string
	sign := &cobra.Command{
		Use:   "sign [body-file|-]",
		Short: "Print signature headers for a payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv("WEBHOOK_SECRET")
			}
			key, err := webhook.DecodeSecret(secret)
			if err != nil {
				return err
			}
			var body []byte
			if args[0] == "-" {
				body, err = io.ReadAll(cmd.InOrStdin())
			} else {
				body, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("read body: %w", err)
			}
			if msgID == "" {
				msgID = "msg_" + uuid.NewString()
			}
			now := time.Now()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %s\n", webhook.HeaderID, msgID)
			fmt.Fprintf(out, "%s: %s\n", webhook.HeaderTimestamp, strconv.FormatInt(now.Unix(), 10))
			fmt.Fprintf(out, "%s: %s\n", webhook.HeaderSignature, webhook.Sign(key, msgID, now, body))
			return nil
		},
	}
	sign.Flags().StringVar(&secret, "secret", "", "signing secret (default WEBHOOK_SECRET)")
	sign.Flags().StringVar(&msgID, "id", "", "message id (default random)")
	cmd.AddCommand(sign)
	return cmd
}
