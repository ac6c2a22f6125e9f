package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"

	"github.com/flemzord/doorman/pkg/app"
)

const serviceName = "doorman"

// program adapts app.Run to the service manager's Start/Stop callbacks.
type program struct {
	params app.RunParams
	logger service.Logger

	cancel context.CancelFunc
	done   chan error
}

func (p *program) Start(service.Service) error {
	// Fail the service start instead of running with a broken config.
	if _, err := app.LoadConfig(p.params.ConfigPath, p.params.Environ); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan error, 1)

	go func() {
		err := app.Run(ctx, p.params)
		p.done <- err
		if err != nil && ctx.Err() == nil {
			p.logError(err)
			if !service.Interactive() {
				os.Exit(1)
			}
		}
	}()
	return nil
}

func (p *program) Stop(service.Service) error {
	if p.cancel == nil {
		return nil
	}
	p.cancel()
	return <-p.done
}

func (p *program) logError(err error) {
	if p.logger != nil {
		_ = p.logger.Error(err)
		return
	}
	fmt.Fprintln(os.Stderr, err)
}

// serviceConfig describes the installed service. The service manager
// re-invokes the binary with "service run".
func serviceConfig(cfgPath string) (*service.Config, error) {
	args := []string{"service", "run"}
	if cfgPath != "" {
		abs, err := filepath.Abs(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("resolving config path: %w", err)
		}
		args = append(args, "--config", abs)
	}
	return &service.Config{
		Name:        serviceName,
		DisplayName: "Doorman Telegram bot",
		Description: "Approves channel join requests and sends welcome and farewell messages.",
		Arguments:   args,
	}, nil
}

func newService(cmd *cobra.Command) (service.Service, *program, error) {
	cfg, err := serviceConfig(configPath(cmd))
	if err != nil {
		return nil, nil, err
	}
	prg := &program{params: app.RunParams{
		ConfigPath: configPath(cmd),
		Version:    version,
		Commit:     commit,
		Date:       date,
	}}
	s, err := service.New(prg, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("service: %w", err)
	}
	return s, prg, nil
}

func serviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage doorman as a system service",
	}

	for _, action := range service.ControlAction {
		cmd.AddCommand(&cobra.Command{
			Use:   action,
			Short: fmt.Sprintf("%s the %s service", action, serviceName),
			RunE: func(cmd *cobra.Command, _ []string) error {
				s, _, err := newService(cmd)
				if err != nil {
					return err
				}
				if err := service.Control(s, action); err != nil {
					return fmt.Errorf("service %s: %w", action, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Service %s: %s done\n", serviceName, action)
				return nil
			},
		})
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the service status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, _, err := newService(cmd)
			if err != nil {
				return err
			}
			st, err := s.Status()
			if err != nil && !errors.Is(err, service.ErrNotInstalled) {
				return fmt.Errorf("service status: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Service %s: %s\n", serviceName, statusText(st, err))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:    "run",
		Short:  "Run under the service manager",
		Hidden: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, prg, err := newService(cmd)
			if err != nil {
				return err
			}
			if l, err := s.Logger(nil); err == nil {
				prg.logger = l
			}
			return s.Run()
		},
	})
	return cmd
}

func statusText(st service.Status, err error) string {
	if errors.Is(err, service.ErrNotInstalled) {
		return "not installed"
	}
	switch st {
	case service.StatusRunning:
		return "running"
	case service.StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
