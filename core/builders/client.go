package builders

import (
	"context"
	"database/sql"
	"strings"

	"github.com/dbxquery/dbxquery/core"
)

// default sql client used by other specific implementations
type Client struct {
	db             *sql.DB
	typeProcessors map[string]func(any) any
}

func NewClient(db *sql.DB, opts ...ClientOption) *Client {
	config := clientConfig{
		typeProcessors: make(map[string]func(any) any),
	}
	for _, opt := range opts {
		opt(&config)
	}

	return &Client{
		db:             db,
		typeProcessors: config.typeProcessors,
	}
}

// Ping verifies the database is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *Client) Conn(ctx context.Context) (*Conn, error) {
	conn, err := c.db.Conn(ctx)
	if err != nil {
		return nil, err
	}

	return &Conn{
		conn:           conn,
		typeProcessors: c.typeProcessors,
	}, nil
}

// Query executes a query on a dedicated connection. The connection is
// released when the returned stream is closed.
func (c *Client) Query(ctx context.Context, query string) (*ResultStream, error) {
	conn, err := c.Conn(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := conn.query(ctx, query, func() { _ = conn.Close() })
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	return rows, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

// connection to use for execution
type Conn struct {
	conn           *sql.Conn
	typeProcessors map[string]func(any) any
}

func (c *Conn) Close() error {
	return c.conn.Close()
}

func (c *Conn) getTypeProcessor(typ string) func(any) any {
	proc, ok := c.typeProcessors[strings.ToLower(typ)]
	if ok {
		return proc
	}

	return func(val any) any {
		valb, ok := val.([]byte)
		if ok {
			return string(valb)
		}
		return val
	}
}

// Query executes a query on a connection and returns a result stream.
func (c *Conn) Query(ctx context.Context, query string) (*ResultStream, error) {
	return c.query(ctx, query, nil)
}

func (c *Conn) query(ctx context.Context, query string, onClose func()) (*ResultStream, error) {
	dbRows, err := c.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}

	header, err := dbRows.Columns()
	if err != nil {
		_ = dbRows.Close()
		return nil, err
	}

	dbCols, err := dbRows.ColumnTypes()
	if err != nil {
		_ = dbRows.Close()
		return nil, err
	}

	processors := make([]func(any) any, len(dbCols))
	for i := range dbCols {
		processors[i] = c.getTypeProcessor(dbCols[i].DatabaseTypeName())
	}

	nextFunc := func() (core.Row, error) {
		columns := make([]any, len(dbCols))
		columnPointers := make([]any, len(dbCols))
		for i := range columns {
			columnPointers[i] = &columns[i]
		}

		if err := dbRows.Scan(columnPointers...); err != nil {
			return nil, err
		}

		row := make(core.Row, len(dbCols))
		for i := range dbCols {
			row[i] = processors[i](columns[i])
		}

		return row, nil
	}

	rows := NewResultStreamBuilder().
		WithNextFunc(nextFunc, dbRows.Next).
		WithErrFunc(dbRows.Err).
		WithHeader(header).
		WithCloseFunc(func() {
			_ = dbRows.Close()
			if onClose != nil {
				onClose()
			}
		}).
		Build()

	return rows, nil
}
