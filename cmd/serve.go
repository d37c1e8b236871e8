package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dbxquery/dbxquery/api"
)

const shutdownTimeout = 10 * time.Second

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			e := api.NewEcho(a.logger, a.cfg.HTTP.AllowedOrigins, api.New(a.conn, a.cfg.Warehouse.Type, a.logger))
			address := a.cfg.HTTP.ListenAddress()

			g, ctx := errgroup.WithContext(ctx)

			g.Go(func() error {
				a.logger.Info("listening",
					zap.String("address", address),
					zap.String("warehouse_type", a.cfg.Warehouse.Type),
					zap.String("auth_mode", a.conn.AuthMode()),
				)

				err := e.Start(address)
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})

			g.Go(func() error {
				<-ctx.Done()
				a.logger.Info("shutting down")

				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()

				return e.Shutdown(shutdownCtx)
			})

			return g.Wait()
		},
	}
}
