package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dbxquery/dbxquery/core"
	"github.com/dbxquery/dbxquery/querybuild"
)

func step(w io.Writer, n int, title string) {
	fmt.Fprintf(w, "\n%s\nTEST %d: %s\n%s\n", strings.Repeat("=", 60), n, title, strings.Repeat("=", 60))
}

func testConnectionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test-connection",
		Short: "Check configuration, credentials and a simple query",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			ctx := cmd.Context()

			a, err := setup(cmd)
			if err != nil {
				return err
			}

			params := a.conn.GetParams()

			step(w, 1, "Configuration")
			fmt.Fprintf(w, "warehouse type: %s\n", a.cfg.Warehouse.Type)
			if a.conn.AuthMode() == core.AuthModeProfile {
				fmt.Fprintf(w, "auth mode: profile (%s)\n", a.conn.Profile())
			} else {
				fmt.Fprintf(w, "auth mode: default\n")
			}
			if params.WarehouseID != "" {
				fmt.Fprintf(w, "warehouse id: %s\n", params.WarehouseID)
			}

			step(w, 2, "Session")
			session, err := a.conn.Resolve(ctx)
			if err != nil {
				fmt.Fprintf(w, "FAIL: %s\n", err)
				return err
			}
			_ = session.Close()
			fmt.Fprintln(w, "PASS: session opened")

			step(w, 3, "Simple query ("+core.PingQuery+")")
			if err := a.conn.Ping(ctx); err != nil {
				fmt.Fprintf(w, "FAIL: %s\n", err)
				return err
			}
			fmt.Fprintln(w, "PASS: query returned a row")

			table, err := cmd.Flags().GetString("sample-table")
			if err != nil {
				return err
			}
			if table == "" {
				return nil
			}

			step(w, 4, "Query "+table)
			query, err := querybuild.Preview(table, 5)
			if err != nil {
				return err
			}
			call, err := a.conn.Execute(ctx, query)
			if err != nil {
				fmt.Fprintf(w, "FAIL: %s\n", err)
				return err
			}
			result := call.GetResult()
			fmt.Fprintf(w, "PASS: retrieved %d rows with %d columns\n", result.Len(), len(result.Header()))
			fmt.Fprintf(w, "columns: %s\n", strings.Join(result.Header(), ", "))

			return nil
		},
	}

	cmd.Flags().String("sample-table", "", "also preview this table, e.g. samples.nyctaxi.trips")
	return cmd
}
