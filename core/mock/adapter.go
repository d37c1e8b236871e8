package mock

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dbxquery/dbxquery/core"
)

var _ core.Driver = (*Driver)(nil)

// Driver is a session double. It serves the adapter's rows for every query
// and records how often it was closed.
type Driver struct {
	data   []core.Row
	config *adapterConfig

	closes atomic.Int32
}

func (d *Driver) Query(ctx context.Context, query string) (core.ResultStream, error) {
	eff, ok := d.config.querySideEffects[query]
	if ok {
		err := eff(ctx)
		if err != nil {
			return nil, fmt.Errorf("side effect error: %w", err)
		}
	}

	opts := d.config.resultStreamOptions
	if h, ok := d.config.queryHeaders[query]; ok {
		opts = append(append([]ResultStreamOption{}, opts...), ResultStreamWithHeader(h))
	}

	data := d.data
	if rows, ok := d.config.queryRows[query]; ok {
		data = rows
	}

	return NewResultStream(data, opts...), nil
}

// Close counts close calls and returns the configured close error.
func (d *Driver) Close() error {
	d.closes.Add(1)
	return d.config.closeErr
}

// Closes returns the number of times Close was called.
func (d *Driver) Closes() int {
	return int(d.closes.Load())
}

var _ core.Adapter = (*Adapter)(nil)

// Adapter is a core.Adapter double that keeps every driver it opened.
type Adapter struct {
	data   []core.Row
	config *adapterConfig

	mu       sync.Mutex
	drivers  []*Driver
	connects int
}

func NewAdapter(data []core.Row, opts ...AdapterOption) *Adapter {
	config := &adapterConfig{
		querySideEffects: make(map[string]func(context.Context) error),
		queryHeaders:     make(map[string]core.Header),
		queryRows:        make(map[string][]core.Row),
		tableHelpers:     make(map[string]string),

		resultStreamOptions: []ResultStreamOption{},
	}
	for _, opt := range opts {
		opt(config)
	}

	return &Adapter{
		data:   data,
		config: config,
	}
}

func (a *Adapter) Connect(ctx context.Context, params *core.ConnectionParams) (core.Driver, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.connects++

	if a.config.connectErr != nil {
		return nil, a.config.connectErr
	}

	d := &Driver{
		data:   a.data,
		config: a.config,
	}
	a.drivers = append(a.drivers, d)

	return d, nil
}

func (a *Adapter) GetHelpers(table string) map[string]string {
	helpers := make(map[string]string, len(a.config.tableHelpers))
	for name, query := range a.config.tableHelpers {
		helpers[name] = fmt.Sprintf(query, table)
	}
	return helpers
}

// Connects returns the number of Connect calls, failed ones included.
func (a *Adapter) Connects() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.connects
}

// Drivers returns every driver opened so far.
func (a *Adapter) Drivers() []*Driver {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*Driver{}, a.drivers...)
}
