package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"hookwatch/internal/delivery"
	"hookwatch/internal/payload"
	"hookwatch/internal/rules"
	"hookwatch/pkg/channel"
)

// NewTestWebhookCmd creates the test-webhook command.
func NewTestWebhookCmd() *cobra.Command {
	var content string

	cmd := &cobra.Command{
		Use:   "test-webhook <channel-id>",
		Short: "Send a sample message through a channel's rule",
		Long: `Compose a sample message as if it had been posted in the channel and
deliver it synchronously to the channel's webhook.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := GetCLIContext(cmd)
			if cliCtx == nil {
				return fmt.Errorf("CLI context not initialized")
			}
			cfg := cliCtx.Config

			table, err := rules.Compile(cfg.Channels)
			if err != nil {
				return err
			}
			rule, ok := table.Lookup(args[0])
			if !ok {
				return fmt.Errorf("channel %s is not watched", args[0])
			}

			d := delivery.New(delivery.Options{
				DefaultWebhook: cfg.DefaultWebhook,
				Policy:         delivery.NewRetryPolicy(cfg.Delivery.MaxRetries, cfg.Delivery.RetryDelay),
				Timeout:        cfg.Delivery.Timeout,
				Logger:         *cliCtx.Log(),
			})

			msg := sampleMessage(rule.ChannelID(), content)
			res := d.Deliver(cmd.Context(), delivery.Request{
				Endpoint: d.Endpoint(rule),
				Payload:  payload.Compose(msg, rule),
				Message:  msg,
			})

			out := cmd.OutOrStdout()
			if !res.Delivered {
				fmt.Fprintf(out, "Delivery %s failed after %d attempt(s)\n", res.ID, res.Attempts)
				return res.Err
			}
			fmt.Fprintf(out, "Delivered %s to %s in %s (%d attempt(s), HTTP %d)\n",
				res.ID, delivery.RedactURL(res.Endpoint), res.Duration.Round(time.Millisecond), res.Attempts, res.StatusCode)
			return nil
		},
	}

	cmd.Flags().StringVar(&content, "content", "hookwatch test message", "message body to send")

	return cmd
}

func sampleMessage(channelID, content string) channel.Message {
	return channel.Message{
		ID:        "0",
		ChannelID: channelID,
		Author:    channel.Author{ID: "0", Username: "hookwatch"},
		Content:   content,
		Timestamp: time.Now(),
	}
}
