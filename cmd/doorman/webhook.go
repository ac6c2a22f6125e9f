package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/flemzord/doorman/internal/config"
	"github.com/flemzord/doorman/modules/channel/telegram"
	"github.com/flemzord/doorman/pkg/app"
)

func webhookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Inspect or change the webhook registered with Telegram",
	}

	set := &cobra.Command{
		Use:   "set",
		Short: "Register the configured webhook URL",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, client, err := webhookClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			reg := cfg.WebhookRegistration()
			if err := client.SetWebhook(cmd.Context(), reg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Webhook set to %s\n", reg.URL)
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete",
		Short: "Remove the webhook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, client, err := webhookClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			drop, _ := cmd.Flags().GetBool("drop-pending")
			if err := client.DeleteWebhook(cmd.Context(), drop); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Webhook deleted")
			return nil
		},
	}
	del.Flags().Bool("drop-pending", false, "Drop updates waiting for delivery")

	info := &cobra.Command{
		Use:   "info",
		Short: "Show the webhook as Telegram sees it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, client, err := webhookClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			st, err := client.WebhookInfo(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			url := st.URL
			if url == "" {
				url = "(none)"
			}
			fmt.Fprintf(out, "URL:             %s\n", url)
			fmt.Fprintf(out, "Pending updates: %d\n", st.PendingUpdateCount)
			if st.MaxConnections > 0 {
				fmt.Fprintf(out, "Max connections: %d\n", st.MaxConnections)
			}
			if st.LastErrorMessage != "" {
				fmt.Fprintf(out, "Last error:      %s (%s)\n",
					st.LastErrorMessage, time.Unix(st.LastErrorDate, 0).UTC().Format(time.RFC3339))
			}
			return nil
		},
	}

	cmd.AddCommand(set, del, info)
	return cmd
}

// webhookClient loads the configuration and connects to the Bot API.
func webhookClient(cmd *cobra.Command) (*config.Config, *telegram.Client, error) {
	cfg, err := app.LoadConfig(configPath(cmd), nil)
	if err != nil {
		return nil, nil, err
	}
	logger := app.NewLogger(cmd.ErrOrStderr(), cfg)
	client, err := telegram.NewClient(cfg.Telegram, telegram.WithLogger(logger.With("component", "telegram")))
	if err != nil {
		return nil, nil, err
	}
	return cfg, client, nil
}
