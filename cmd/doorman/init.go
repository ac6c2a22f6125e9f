package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/flemzord/doorman/internal/config"
	"github.com/flemzord/doorman/internal/router"
)

// initAnswers holds what the setup wizard asks for.
type initAnswers struct {
	// Token is written as-is; empty keeps a ${BOT_TOKEN} reference.
	Token        string
	ChannelID    string
	PublicURL    string
	Port         string
	JoinRequests string
	Secret       bool
	KeepAlive    bool
}

// initFile is the subset of the configuration the wizard writes.
type initFile struct {
	Telegram struct {
		Token string `yaml:"token"`
	} `yaml:"telegram"`
	ChannelID int64 `yaml:"channel_id,omitempty"`
	Webhook   struct {
		PublicURL string `yaml:"public_url"`
		Secret    string `yaml:"secret,omitempty"`
	} `yaml:"webhook"`
	Gateway struct {
		Port int `yaml:"port,omitempty"`
	} `yaml:"gateway,omitempty"`
	Filters struct {
		JoinRequests string `yaml:"join_requests"`
		MemberStatus string `yaml:"member_status,omitempty"`
	} `yaml:"filters"`
	KeepAlive struct {
		Disabled bool `yaml:"disabled,omitempty"`
	} `yaml:"keepalive,omitempty"`
}

// renderConfig turns wizard answers into a configuration file.
func renderConfig(a initAnswers) ([]byte, error) {
	var f initFile

	f.Telegram.Token = a.Token
	if f.Telegram.Token == "" {
		f.Telegram.Token = "${BOT_TOKEN}"
	}
	if a.ChannelID != "" {
		id, err := strconv.ParseInt(a.ChannelID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("channel id: %w", err)
		}
		f.ChannelID = id
	}
	if err := validateJoinFilter(&a)(a.JoinRequests); err != nil {
		return nil, err
	}
	f.Webhook.PublicURL = a.PublicURL
	if a.Secret {
		f.Webhook.Secret = uuid.NewString()
	}
	if a.Port != "" {
		port, err := strconv.Atoi(a.Port)
		if err != nil {
			return nil, fmt.Errorf("port: %w", err)
		}
		f.Gateway.Port = port
	}
	f.Filters.JoinRequests = a.JoinRequests
	if f.ChannelID == 0 {
		// Without a channel the bot serves every chat it administers.
		f.Filters.MemberStatus = string(router.FilterAny)
	}
	f.KeepAlive.Disabled = !a.KeepAlive

	out, err := yaml.Marshal(&f)
	if err != nil {
		return nil, fmt.Errorf("rendering config: %w", err)
	}
	return append([]byte("# Generated by doorman init.\n"), out...), nil
}

func validateHTTPS(s string) error {
	u, err := url.Parse(s)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return errors.New("must be an https:// URL")
	}
	return nil
}

// validateJoinFilter rejects the channel filter when no channel id was given.
func validateJoinFilter(a *initAnswers) func(string) error {
	return func(filter string) error {
		if filter == string(router.FilterChannel) && a.ChannelID == "" {
			return errors.New("the channel filter needs a channel id")
		}
		return nil
	}
}

func validateOptionalInt(s string) error {
	if s == "" {
		return nil
	}
	if _, err := strconv.ParseInt(s, 10, 64); err != nil {
		return errors.New("must be a number")
	}
	return nil
}

func initForm(a *initAnswers) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Bot token").
				Description("From @BotFather. Leave empty to read BOT_TOKEN at runtime.").
				EchoMode(huh.EchoModePassword).
				Value(&a.Token),
			huh.NewInput().
				Title("Channel id").
				Description("Numeric id of the channel, e.g. -1001234567890. Leave empty to serve every chat the bot administers.").
				Validate(validateOptionalInt).
				Value(&a.ChannelID),
			huh.NewInput().
				Title("Public URL").
				Description("Where Telegram reaches this service.").
				Validate(validateHTTPS).
				Value(&a.PublicURL),
			huh.NewInput().
				Title("Listen port").
				Placeholder("10000").
				Validate(validateOptionalInt).
				Value(&a.Port),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Approve join requests from").
				Options(
					huh.NewOption("any chat the bot administers", string(router.FilterAny)),
					huh.NewOption("the configured channel only", string(router.FilterChannel)),
				).
				Validate(validateJoinFilter(a)).
				Value(&a.JoinRequests),
			huh.NewConfirm().
				Title("Protect the webhook with a secret token?").
				Value(&a.Secret),
			huh.NewConfirm().
				Title("Ping the public URL periodically to keep the instance awake?").
				Value(&a.KeepAlive),
		),
	)
}

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file interactively",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := configPath(cmd)
			if path == "" {
				path = config.FileName
			}
			force, _ := cmd.Flags().GetBool("force")
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			answers := initAnswers{
				JoinRequests: string(router.FilterAny),
				Secret:       true,
				KeepAlive:    true,
			}
			if err := initForm(&answers).Run(); err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					return nil
				}
				return err
			}

			out, err := renderConfig(answers)
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, out, 0o600); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s. Check it with: doorman config check -c %s\n", path, path)
			return nil
		},
	}
	cmd.Flags().Bool("force", false, "Overwrite an existing file")
	return cmd
}
