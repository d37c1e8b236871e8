package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dbxquery/dbxquery/core"
	"github.com/dbxquery/dbxquery/core/format"
	"github.com/dbxquery/dbxquery/querybuild"
)

func addFormatFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", "table",
		fmt.Sprintf("output format (%s)", strings.Join(format.Names(), "|")))
}

// printCall writes the result of a finished call in the --format format.
func printCall(cmd *cobra.Command, a *app, call *core.Call) error {
	name, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}

	formatter, err := format.New(name)
	if err != nil {
		return err
	}

	a.logger.Debug("call finished",
		zap.String("call_id", string(call.GetID())),
		zap.String("state", call.GetState().String()),
		zap.Duration("took", call.GetTimeTaken()),
		zap.Int("rows", call.GetResult().Len()),
	)

	return call.GetResult().Format(formatter, cmd.OutOrStdout())
}

func queryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "Run a statement and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}

			call, err := a.conn.Execute(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return printCall(cmd, a, call)
		},
	}

	addFormatFlag(cmd)
	return cmd
}

func schemaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema <table>",
		Short: "Describe a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}

			call, err := a.conn.Describe(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return printCall(cmd, a, call)
		},
	}

	addFormatFlag(cmd)
	return cmd
}

func previewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview <table>",
		Short: "Print the first rows of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, err := cmd.Flags().GetInt("limit")
			if err != nil {
				return err
			}

			query, err := querybuild.Preview(args[0], limit)
			if err != nil {
				return err
			}

			a, err := setup(cmd)
			if err != nil {
				return err
			}

			call, err := a.conn.Execute(cmd.Context(), query)
			if err != nil {
				return err
			}

			return printCall(cmd, a, call)
		},
	}

	addFormatFlag(cmd)
	cmd.Flags().IntP("limit", "l", querybuild.DefaultPreviewLimit,
		fmt.Sprintf("number of rows, at most %d", querybuild.MaxPreviewLimit))
	return cmd
}
