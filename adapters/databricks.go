package adapters

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	dbsql "github.com/databricks/databricks-sql-go"

	"github.com/dbxquery/dbxquery/core"
	"github.com/dbxquery/dbxquery/core/builders"
)

// Register client
func init() {
	_ = register(NewDatabricks(), "databricks")
}

const (
	databricksPort      = 443
	databricksUserAgent = "dbxquery"
)

// warehouseEndpoint is everything needed to open a SQL warehouse session.
type warehouseEndpoint struct {
	Host     string
	Port     int
	HTTPPath string
	Catalog  string
	Schema   string

	Credentials *databricksCredentials
}

func openWarehouse(e *warehouseEndpoint) (*sql.DB, error) {
	connector, err := dbsql.NewConnector(
		dbsql.WithServerHostname(e.Host),
		dbsql.WithPort(e.Port),
		dbsql.WithHTTPPath(e.HTTPPath),
		dbsql.WithAuthenticator(e.Credentials.Authenticator),
		dbsql.WithInitialNamespace(e.Catalog, e.Schema),
		dbsql.WithUserAgentEntry(databricksUserAgent),
	)
	if err != nil {
		return nil, fmt.Errorf("dbsql.NewConnector: %w", err)
	}

	return sql.OpenDB(connector), nil
}

var _ core.Adapter = (*Databricks)(nil)

// Databricks opens sessions on a Databricks SQL warehouse. Credentials come
// from a named profile or the SDK default chain.
type Databricks struct {
	credentials credentialResolver
	open        func(*warehouseEndpoint) (*sql.DB, error)
}

func NewDatabricks() *Databricks {
	return &Databricks{
		credentials: newSDKCredentials(),
		open:        openWarehouse,
	}
}

// WarehouseHTTPPath returns the http path of a SQL warehouse.
func WarehouseHTTPPath(warehouseID string) string {
	return "/sql/1.0/warehouses/" + warehouseID
}

// normalizeHost strips the scheme and any trailing slash.
func normalizeHost(host string) string {
	host = strings.TrimPrefix(host, "https://")
	host = strings.TrimPrefix(host, "http://")
	return strings.TrimSuffix(host, "/")
}

func (d *Databricks) Connect(ctx context.Context, params *core.ConnectionParams) (core.Driver, error) {
	if params.WarehouseID == "" {
		return nil, core.ConfigurationErrorf("DATABRICKS_SQL_WAREHOUSE_ID is not set")
	}

	hint := credentialHint(params)

	creds, err := d.credentials.Resolve(ctx, params)
	if err != nil {
		var e *core.Error
		if errors.As(err, &e) {
			return nil, err
		}
		return nil, core.CredentialError(err, hint)
	}

	db, err := d.open(&warehouseEndpoint{
		Host:        normalizeHost(creds.Host),
		Port:        databricksPort,
		HTTPPath:    WarehouseHTTPPath(params.WarehouseID),
		Catalog:     params.Catalog,
		Schema:      params.Schema,
		Credentials: creds,
	})
	if err != nil {
		return nil, core.CredentialError(err, hint)
	}

	c := builders.NewClient(db,
		builders.WithCustomTypeProcessor("binary", func(a any) any {
			b, ok := a.([]byte)
			if !ok {
				return a
			}
			return base64.StdEncoding.EncodeToString(b)
		}),
		builders.WithCustomTypeProcessor("decimal", decimalString),
	)

	if err := c.Ping(ctx); err != nil {
		_ = c.Close()
		return nil, core.CredentialError(fmt.Errorf("opening session: %w", err), hint)
	}

	return &databricksDriver{c: c}, nil
}

// decimalString keeps DECIMAL values exact in JSON by rendering them as text.
func decimalString(a any) any {
	switch v := a.(type) {
	case nil:
		return nil
	case string:
		return v
	case []byte:
		return string(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	default:
		return fmt.Sprint(v)
	}
}

// GetHelpers returns a map of helper queries for the given table.
func (d *Databricks) GetHelpers(table string) map[string]string {
	schema, name := splitTable(table, "")

	columns := fmt.Sprintf(`
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_name = '%s'
		ORDER BY ordinal_position;`, name)
	if schema != "" {
		columns = fmt.Sprintf(`
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = '%s'
			AND table_name = '%s'
		ORDER BY ordinal_position;`, schema, name)
	}

	return map[string]string{
		core.HelperList:     fmt.Sprintf("SELECT * FROM %s LIMIT 100", table),
		core.HelperDescribe: fmt.Sprintf("DESCRIBE TABLE %s", table),
		"Columns":           columns,
	}
}
