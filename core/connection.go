package core

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dbxquery/dbxquery/querybuild"
)

// names of helper queries every adapter provides
const (
	HelperList     = "List"
	HelperDescribe = "Describe"
)

// PingQuery is used to check that a warehouse accepts statements.
const PingQuery = "SELECT 1 as test"

var ErrNoHelper = errors.New("no helper query registered")

type (
	// Adapter opens drivers for a specific database type.
	Adapter interface {
		// Connect validates params and opens a driver. Missing settings must
		// be reported with a KindConfiguration error before any network call.
		Connect(ctx context.Context, params *ConnectionParams) (Driver, error)
		// GetHelpers returns named helper queries for the given table.
		GetHelpers(table string) map[string]string
	}

	// Driver is an interface for a specific database driver
	Driver interface {
		Query(context.Context, string) (ResultStream, error)
		Close() error
	}
)

type ConnectionID string

// Connection is the connection provider: it resolves a fresh session for
// every operation and never pools them.
type Connection struct {
	params           *ConnectionParams
	unexpandedParams *ConnectionParams

	adapter      Adapter
	openSessions atomic.Int64
}

// NewConnection validates that params can be expanded. It does not open any
// session; that happens per operation in Resolve.
func NewConnection(params *ConnectionParams, adapter Adapter) (*Connection, error) {
	expanded, err := params.Expand()
	if err != nil {
		return nil, ConfigurationErrorf("invalid connection parameters: %w", err)
	}

	if expanded.ID == "" {
		expanded.ID = ConnectionID(uuid.New().String())
	}

	return &Connection{
		params:           expanded,
		unexpandedParams: params,
		adapter:          adapter,
	}, nil
}

func (c *Connection) GetID() ConnectionID {
	return c.params.ID
}

func (c *Connection) GetName() string {
	return c.params.Name
}

func (c *Connection) GetType() string {
	return c.params.Type
}

// GetParams returns the original source for this connection
func (c *Connection) GetParams() *ConnectionParams {
	return c.unexpandedParams
}

// Profile returns the expanded credential profile, empty in default mode.
func (c *Connection) Profile() string {
	return c.params.Profile
}

// AuthMode reports which identity mode the connection uses.
func (c *Connection) AuthMode() string {
	return c.params.AuthMode()
}

// OpenSessions returns the number of sessions currently open.
func (c *Connection) OpenSessions() int {
	return int(c.openSessions.Load())
}

// Resolve opens a new session. The caller owns it and must close it.
func (c *Connection) Resolve(ctx context.Context) (*Session, error) {
	driver, err := c.adapter.Connect(ctx, c.params)
	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			return nil, err
		}
		return nil, CredentialError(fmt.Errorf("adapter.Connect: %w", err), "")
	}

	c.openSessions.Add(1)

	return newSession(SessionID(uuid.New().String()), driver, func() {
		c.openSessions.Add(-1)
	}), nil
}

// Execute resolves a session, runs query on it and closes the session on
// both success and failure. The returned call is never nil.
func (c *Connection) Execute(ctx context.Context, query string) (*Call, error) {
	call := newCall(query)

	result, err := c.run(ctx, query)
	call.finish(ctx, result, err)

	return call, err
}

func (c *Connection) run(ctx context.Context, query string) (*Result, error) {
	session, err := c.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = session.Close() }()

	return Execute(ctx, session, query)
}

// GetHelpers returns the adapter's helper queries for table.
func (c *Connection) GetHelpers(table string) map[string]string {
	helpers := c.adapter.GetHelpers(table)
	if helpers == nil {
		helpers = make(map[string]string)
	}
	return helpers
}

// Describe runs the adapter's descriptive statement for table and returns
// the same result shape as Execute.
// Tables that are not plain or dotted identifiers are rejected without
// opening a session.
func (c *Connection) Describe(ctx context.Context, table string) (*Call, error) {
	fail := func(err error) (*Call, error) {
		call := newCall("")
		err = &Error{
			Kind: KindExecution,
			Op:   OpDescribe,
			Err:  err,
		}
		call.finish(ctx, nil, err)
		return call, err
	}

	if err := querybuild.ValidateIdentifier(table); err != nil {
		return fail(err)
	}

	query, ok := c.GetHelpers(table)[HelperDescribe]
	if !ok {
		return fail(fmt.Errorf("%w: %s for %s", ErrNoHelper, HelperDescribe, c.params.Type))
	}

	return c.Execute(ctx, query)
}

// Ping runs PingQuery and checks that at least one row came back.
func (c *Connection) Ping(ctx context.Context) error {
	call, err := c.Execute(ctx, PingQuery)
	if err != nil {
		return err
	}

	if call.GetResult().Len() < 1 {
		return &Error{
			Kind: KindExecution,
			Op:   OpPing,
			Err:  errors.New("connection test returned no rows"),
		}
	}

	return nil
}
