package adapters

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	nurl "net/url"

	_ "github.com/lib/pq"

	"github.com/dbxquery/dbxquery/core"
	"github.com/dbxquery/dbxquery/core/builders"
)

// Register client
func init() {
	_ = register(&Postgres{}, "postgres", "postgresql", "pg")
}

var _ core.Adapter = (*Postgres)(nil)

// Postgres serves a PostgreSQL database as the warehouse, addressed by the
// WAREHOUSE_URL DSN.
type Postgres struct{}

func (p *Postgres) Connect(ctx context.Context, params *core.ConnectionParams) (core.Driver, error) {
	if params.URL == "" {
		return nil, core.ConfigurationErrorf("WAREHOUSE_URL is not set")
	}

	u, err := nurl.Parse(params.URL)
	if err != nil {
		return nil, core.ConfigurationErrorf("could not parse db connection string: %w", err)
	}

	db, err := sql.Open("postgres", u.String())
	if err != nil {
		return nil, core.ConfigurationErrorf("unable to connect to postgres database: %w", err)
	}

	jsonProcessor := func(a any) any {
		b, ok := a.([]byte)
		if !ok {
			return a
		}

		return json.RawMessage(b)
	}

	c := builders.NewClient(db,
		builders.WithCustomTypeProcessor("json", jsonProcessor),
		builders.WithCustomTypeProcessor("jsonb", jsonProcessor),
	)

	if err := c.Ping(ctx); err != nil {
		_ = c.Close()
		return nil, core.CredentialError(
			fmt.Errorf("db.PingContext: %w", err),
			"Check the credentials in WAREHOUSE_URL and that the database is reachable",
		)
	}

	return &postgresDriver{c: c}, nil
}

func (*Postgres) GetHelpers(table string) map[string]string {
	schema, name := splitTable(table, "public")

	return map[string]string{
		core.HelperList: fmt.Sprintf("SELECT * FROM %q.%q LIMIT 100", schema, name),
		core.HelperDescribe: fmt.Sprintf(`
		SELECT column_name AS col_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE
			table_schema='%s' AND
			table_name='%s'
		ORDER BY ordinal_position`, schema, name),
		"Indexes": fmt.Sprintf("SELECT * FROM pg_indexes WHERE tablename='%s' AND schemaname='%s'", name, schema),
	}
}
