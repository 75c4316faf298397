package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/helpdesk-io/ticket-service/internal/config"
	"github.com/helpdesk-io/ticket-service/internal/observability"
)

// NewRootCommand builds the ticket-service CLI. Running it without a
// subcommand starts the HTTP server.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ticket-service",
		Short:         "Helpdesk ticket lifecycle and SLA service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newMigrateCommand())
	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

// bootstrap loads configuration and the logger shared by every command.
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Env)
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	return cfg, logger, nil
}
