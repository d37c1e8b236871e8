// Package cmd wires configuration, the warehouse connection and the REST
// server into the dbxquery command line.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dbxquery/dbxquery/adapters"
	"github.com/dbxquery/dbxquery/config"
	"github.com/dbxquery/dbxquery/core"
)

type app struct {
	cfg    *config.Config
	logger *zap.Logger
	conn   *core.Connection
}

// setup loads configuration and builds the single connection every command
// shares. No session is opened here.
func setup(cmd *cobra.Command) (*app, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	conn, err := adapters.NewConnection(cfg.ConnectionParams())
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		conn:   conn,
	}, nil
}

func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "dbxquery",
		Short:         "Query proxy for SQL warehouses",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("config", "", "path to a YAML config file")

	cmd.AddCommand(
		serveCommand(),
		queryCommand(),
		schemaCommand(),
		previewCommand(),
		testConnectionCommand(),
	)

	return cmd
}
