package mock

import (
	"context"

	"github.com/dbxquery/dbxquery/core"
)

type adapterConfig struct {
	querySideEffects map[string]func(context.Context) error
	queryHeaders     map[string]core.Header
	queryRows        map[string][]core.Row
	tableHelpers     map[string]string

	connectErr error
	closeErr   error

	resultStreamOptions []ResultStreamOption
}

type AdapterOption func(*adapterConfig)

func AdapterWithQuerySideEffect(query string, sideEffect func(context.Context) error) AdapterOption {
	return func(c *adapterConfig) {
		_, ok := c.querySideEffects[query]
		if ok {
			panic("side effect already registered for query: " + query)
		}

		c.querySideEffects[query] = sideEffect
	}
}

// AdapterWithQueryResult serves header and rows for the exact query text
// instead of the adapter's default data.
func AdapterWithQueryResult(query string, header core.Header, rows []core.Row) AdapterOption {
	return func(c *adapterConfig) {
		_, ok := c.queryRows[query]
		if ok {
			panic("result already registered for query: " + query)
		}

		c.queryHeaders[query] = header
		c.queryRows[query] = rows
	}
}

// AdapterWithTableHelper registers a helper query. The query is formatted
// with the table name (one %s verb).
func AdapterWithTableHelper(name string, query string) AdapterOption {
	return func(c *adapterConfig) {
		_, ok := c.tableHelpers[name]
		if ok {
			panic("query already registered for table helper: " + name)
		}

		c.tableHelpers[name] = query
	}
}

func AdapterWithConnectError(err error) AdapterOption {
	return func(c *adapterConfig) {
		c.connectErr = err
	}
}

func AdapterWithCloseError(err error) AdapterOption {
	return func(c *adapterConfig) {
		c.closeErr = err
	}
}

func AdapterWithResultStreamOpts(opts ...ResultStreamOption) AdapterOption {
	return func(c *adapterConfig) {
		c.resultStreamOptions = append(c.resultStreamOptions, opts...)
	}
}
