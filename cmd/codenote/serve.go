package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"codenote/internal/gateway/app"
	"codenote/internal/gateway/config"
)

func newServeCmd(env environment, _ *rootOptions) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP gateway",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadFrom(env.getenv)
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}
			logger, err := app.NewLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			a, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			errCh := make(chan error, 1)
			go func() { errCh <- a.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-cmd.Context().Done():
			}
			logger.Info("shutting down server")
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := a.Shutdown(ctx); err != nil {
				logger.Error("server forced to shutdown", zap.Error(err))
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&port, "addr", "", "listen address, overrides PORT")
	return cmd
}
