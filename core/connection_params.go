package core

import "fmt"

const (
	AuthModeProfile = "profile"
	AuthModeDefault = "default"
)

// ConnectionParams describe where and how to open sessions.
// Which fields are required depends on the adapter Type.
type ConnectionParams struct {
	ID   ConnectionID
	Name string
	Type string

	// URL is a DSN for adapters that take one (postgres, sqlite).
	URL string

	// Databricks SQL warehouse settings.
	Host        string
	WarehouseID string
	Profile     string
	Catalog     string
	Schema      string
}

// AuthMode reports whether credentials come from a named profile or the
// default credential chain.
func (p *ConnectionParams) AuthMode() string {
	if p.Profile != "" {
		return AuthModeProfile
	}
	return AuthModeDefault
}

// Expand returns a copy of the original parameters with template fields expanded.
func (p *ConnectionParams) Expand() (*ConnectionParams, error) {
	out := &ConnectionParams{}

	fields := []struct {
		name string
		in   string
		out  *string
	}{
		{"id", string(p.ID), (*string)(&out.ID)},
		{"name", p.Name, &out.Name},
		{"type", p.Type, &out.Type},
		{"url", p.URL, &out.URL},
		{"host", p.Host, &out.Host},
		{"warehouse_id", p.WarehouseID, &out.WarehouseID},
		{"profile", p.Profile, &out.Profile},
		{"catalog", p.Catalog, &out.Catalog},
		{"schema", p.Schema, &out.Schema},
	}

	for _, f := range fields {
		v, err := expand(f.in)
		if err != nil {
			return nil, fmt.Errorf("expanding %s: %w", f.name, err)
		}
		*f.out = v
	}

	return out, nil
}
