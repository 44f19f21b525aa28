package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mcules/student-success/internal/logging"
	"github.com/mcules/student-success/internal/server"
)

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var demoMode bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web form, JSON API and gRPC health server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			if demoMode {
				cfg.Demo.Enabled = true
			}

			log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return WrapExitError(ExitCommandError, "logger", err)
			}
			defer func() { _ = log.Sync() }()

			srv, err := server.New(cfg, log)
			if err != nil {
				return WrapExitError(ExitFailure, "start server", err)
			}
			defer srv.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := srv.Run(ctx); err != nil && err != context.Canceled {
				log.Error("server stopped", zap.Error(err))
				return WrapExitError(ExitFailure, "serve", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&demoMode, "demo", false, "generate and serve a synthetic dataset and model")
	return cmd
}
