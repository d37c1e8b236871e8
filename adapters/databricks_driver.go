package adapters

import (
	"context"

	"github.com/dbxquery/dbxquery/core"
	"github.com/dbxquery/dbxquery/core/builders"
)

var _ core.Driver = (*databricksDriver)(nil)

// databricksDriver is a driver for Databricks.
type databricksDriver struct {
	// c is the client used to execute queries.
	c *builders.Client
}

// Query executes the given query and returns the result stream.
func (d *databricksDriver) Query(ctx context.Context, query string) (core.ResultStream, error) {
	rows, err := d.c.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Close closes the connection to the database.
func (d *databricksDriver) Close() error {
	return d.c.Close()
}
