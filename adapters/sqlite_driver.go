//go:build (darwin && (amd64 || arm64)) || (freebsd && (386 || amd64 || arm || arm64)) || (linux && (386 || amd64 || arm || arm64 || ppc64le || riscv64 || s390x)) || (netbsd && amd64) || (openbsd && (amd64 || arm64)) || (windows && (amd64 || arm64))

package adapters

import (
	"context"

	"github.com/dbxquery/dbxquery/core"
	"github.com/dbxquery/dbxquery/core/builders"
)

var _ core.Driver = (*sqliteDriver)(nil)

type sqliteDriver struct {
	c *builders.Client
}

func (d *sqliteDriver) Query(ctx context.Context, query string) (core.ResultStream, error) {
	rows, err := d.c.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (d *sqliteDriver) Close() error { return d.c.Close() }
