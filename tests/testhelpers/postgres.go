package testhelpers

import (
	"context"

	tc "github.com/testcontainers/testcontainers-go"
	tcpsql "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/dbxquery/dbxquery/adapters"
	"github.com/dbxquery/dbxquery/core"
)

type PostgresContainer struct {
	*tcpsql.PostgresContainer
	ConnURL string
	Conn    *core.Connection
}

// NewPostgresContainer starts a seeded postgres container and a connection
// to it. params.URL is filled in when empty.
func NewPostgresContainer(ctx context.Context, params *core.ConnectionParams) (*PostgresContainer, error) {
	seedFile, err := GetTestDataFile("postgres_seed.sql")
	if err != nil {
		return nil, err
	}
	defer seedFile.Close()

	ctr, err := tcpsql.Run(
		ctx,
		"postgres:16-alpine",
		tcpsql.BasicWaitStrategies(),
		tc.CustomizeRequest(tc.GenericContainerRequest{
			ProviderType: GetContainerProvider(),
		}),
		tcpsql.WithInitScripts(seedFile.Name()),
		tcpsql.WithDatabase("dev"),
	)
	if err != nil {
		return nil, err
	}
	connURL, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, err
	}

	p := &PostgresContainer{
		PostgresContainer: ctr,
		ConnURL:           connURL,
	}

	p.Conn, err = p.NewConnection(params)
	if err != nil {
		return nil, err
	}

	return p, nil
}

// NewConnection returns another connection to the container.
func (p *PostgresContainer) NewConnection(params *core.ConnectionParams) (*core.Connection, error) {
	if params.URL == "" {
		params.URL = p.ConnURL
	}
	if params.Type == "" {
		params.Type = "postgres"
	}

	return adapters.NewConnection(params)
}
