package adapters

import (
	"context"

	"github.com/dbxquery/dbxquery/core"
	"github.com/dbxquery/dbxquery/core/builders"
)

var _ core.Driver = (*postgresDriver)(nil)

type postgresDriver struct {
	c *builders.Client
}

func (c *postgresDriver) Query(ctx context.Context, query string) (core.ResultStream, error) {
	rows, err := c.c.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *postgresDriver) Close() error {
	return c.c.Close()
}
