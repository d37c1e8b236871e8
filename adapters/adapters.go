package adapters

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dbxquery/dbxquery/core"
)

// DefaultType is used when connection params leave Type empty.
const DefaultType = "databricks"

var (
	errNoValidTypeAliases   = errors.New("no valid type aliases provided")
	ErrUnsupportedTypeAlias = errors.New("no driver registered for provided type alias")
)

// registeredAdapters holds implemented adapters - specific adapters register themselves in their init functions.
var registeredAdapters = make(map[string]core.Adapter)

// register registers a new adapter for specific database
func register(adapter core.Adapter, aliases ...string) error {
	if len(aliases) < 1 {
		return errNoValidTypeAliases
	}

	invalidCount := 0
	for _, alias := range aliases {
		if alias == "" {
			invalidCount++
			continue
		}
		registeredAdapters[alias] = adapter
	}

	if invalidCount == len(aliases) {
		return errNoValidTypeAliases
	}

	return nil
}

// Mux is an interface to all internal adapters.
type Mux struct{}

func (*Mux) GetAdapter(typ string) (core.Adapter, error) {
	if typ == "" {
		typ = DefaultType
	}

	value, ok := registeredAdapters[strings.ToLower(typ)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedTypeAlias, typ)
	}

	return value, nil
}

// Aliases returns all registered type aliases, sorted.
func Aliases() []string {
	aliases := make([]string, 0, len(registeredAdapters))
	for alias := range registeredAdapters {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	return aliases
}

// NewConnection is a wrapper around core.NewConnection that uses the internal mux for
// adapter registration.
func NewConnection(params *core.ConnectionParams) (*core.Connection, error) {
	expanded, err := params.Expand()
	if err != nil {
		return nil, core.ConfigurationErrorf("invalid connection parameters: %w", err)
	}

	adapter, err := new(Mux).GetAdapter(expanded.Type)
	if err != nil {
		return nil, core.ConfigurationErrorf("WAREHOUSE_TYPE: %w (supported: %s)", err, strings.Join(Aliases(), ", "))
	}

	c, err := core.NewConnection(params, adapter)
	if err != nil {
		return nil, fmt.Errorf("core.NewConnection: %w", err)
	}

	return c, nil
}

// splitTable splits a dotted table reference into its schema and table
// parts. Quoting backticks are dropped.
func splitTable(table, defaultSchema string) (schema, name string) {
	parts := strings.Split(table, ".")
	for i := range parts {
		parts[i] = strings.Trim(parts[i], "`")
	}

	name = parts[len(parts)-1]
	schema = defaultSchema
	if len(parts) > 1 {
		schema = parts[len(parts)-2]
	}
	return schema, name
}
