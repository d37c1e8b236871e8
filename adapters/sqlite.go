//go:build (darwin && (amd64 || arm64)) || (freebsd && (386 || amd64 || arm || arm64)) || (linux && (386 || amd64 || arm || arm64 || ppc64le || riscv64 || s390x)) || (netbsd && amd64) || (openbsd && (amd64 || arm64)) || (windows && (amd64 || arm64))

package adapters

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/dbxquery/dbxquery/core"
	"github.com/dbxquery/dbxquery/core/builders"
)

// Register client
func init() {
	_ = register(&SQLite{}, "sqlite", "sqlite3")
}

var _ core.Adapter = (*SQLite)(nil)

// SQLite serves a local database file as an offline warehouse.
type SQLite struct{}

func (s *SQLite) Connect(ctx context.Context, params *core.ConnectionParams) (core.Driver, error) {
	if params.URL == "" {
		return nil, core.ConfigurationErrorf("WAREHOUSE_URL is not set")
	}

	db, err := sql.Open("sqlite", params.URL)
	if err != nil {
		return nil, core.ConfigurationErrorf("unable to connect to sqlite database: %w", err)
	}

	c := builders.NewClient(db)
	if err := c.Ping(ctx); err != nil {
		_ = c.Close()
		return nil, core.CredentialError(fmt.Errorf("db.PingContext: %w", err), "Check that WAREHOUSE_URL points to a readable database file")
	}

	return &sqliteDriver{c: c}, nil
}

func (*SQLite) GetHelpers(table string) map[string]string {
	schema, name := splitTable(table, "main")

	return map[string]string{
		core.HelperList: fmt.Sprintf("SELECT * FROM %q.%q LIMIT 100", schema, name),
		core.HelperDescribe: fmt.Sprintf(
			"SELECT name AS col_name, type AS data_type, \"notnull\" FROM pragma_table_info('%s', '%s') ORDER BY cid",
			name, schema),
		"Indexes": fmt.Sprintf("SELECT * FROM pragma_index_list('%s', '%s')", name, schema),
	}
}
