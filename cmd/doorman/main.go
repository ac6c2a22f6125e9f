// Package main is the entry point for the doorman CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flemzord/doorman/internal/config"
	"github.com/flemzord/doorman/internal/security"
	"github.com/flemzord/doorman/pkg/app"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "doorman",
		Short:         "Telegram channel doorman: approves joins, greets and says goodbye",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "Path to configuration file (default: auto-detect, or environment only)")
	root.AddCommand(versionCmd(), startCmd(), configCmd(), webhookCmd(), serviceCmd(), initCmd())
	return root
}

func configPath(cmd *cobra.Command) string {
	p, _ := cmd.Flags().GetString("config")
	return p
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "doorman %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func startCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Serve the webhook until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context(), app.RunParams{
				ConfigPath: configPath(cmd),
				Version:    version,
				Commit:     commit,
				Date:       date,
			})
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.LoadConfig(configPath(cmd), nil)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Configuration OK")
			fmt.Fprintf(out, "  webhook:    %s\n", cfg.WebhookURL())
			fmt.Fprintf(out, "  listen:     %s\n", cfg.Gateway.Addr())
			fmt.Fprintf(out, "  channel:    %d\n", cfg.ChannelID)
			fmt.Fprintf(out, "  filters:    join_requests=%s member_status=%s\n", cfg.Filters.JoinRequests, cfg.Filters.MemberStatus)
			if cfg.KeepAliveEnabled() {
				fmt.Fprintf(out, "  keep-alive: %s every %s\n", cfg.KeepAlive.URL, cfg.KeepAlive.Interval)
			} else {
				fmt.Fprintln(out, "  keep-alive: disabled")
			}
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets redacted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := configPath(cmd)
			if path == "" {
				resolved, err := config.ResolvePath()
				if err != nil {
					return err
				}
				path = resolved
			}
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			out, err := config.Redacted(cfg, security.NewRedactor())
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	})
	return cmd
}
