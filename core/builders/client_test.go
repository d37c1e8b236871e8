package builders_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbxquery/dbxquery/core"
	"github.com/dbxquery/dbxquery/core/builders"
)

func drain(t *testing.T, rows core.ResultStream) []core.Row {
	t.Helper()

	out := []core.Row{}
	for rows.HasNext() {
		row, err := rows.Next()
		require.NoError(t, err)
		out = append(out, row)
	}
	return out
}

func TestClient_Query(t *testing.T) {
	r := require.New(t)

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	r.NoError(err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectQuery("SELECT id, name FROM t").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(1), []byte("first")).
			AddRow(int64(2), "second"))

	c := builders.NewClient(db)

	rows, err := c.Query(context.Background(), "SELECT id, name FROM t")
	r.NoError(err)
	defer rows.Close()

	r.Equal(core.Header{"id", "name"}, rows.Header())

	got := drain(t, rows)
	r.NoError(rows.Err())
	r.Equal([]core.Row{
		{int64(1), "first"},
		{int64(2), "second"},
	}, got)

	r.NoError(mock.ExpectationsWereMet())
}

func TestClient_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectQuery("INVALID QUERY").WillReturnError(errors.New("syntax error"))

	rows, err := builders.NewClient(db).Query(context.Background(), "INVALID QUERY")
	assert.ErrorContains(t, err, "syntax error")
	assert.Nil(t, rows)
}

func TestClient_RowError(t *testing.T) {
	r := require.New(t)

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	r.NoError(err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectQuery("SELECT n FROM t").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).
			AddRow(1).
			AddRow(2).
			RowError(1, errors.New("connection reset")))

	rows, err := builders.NewClient(db).Query(context.Background(), "SELECT n FROM t")
	r.NoError(err)
	defer rows.Close()

	got := drain(t, rows)
	r.Len(got, 1)
	r.ErrorContains(rows.Err(), "connection reset")
}

func TestClient_CustomTypeProcessor(t *testing.T) {
	r := require.New(t)

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	r.NoError(err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectQuery("SELECT payload FROM t").
		WillReturnRows(mock.NewRowsWithColumnDefinition(
			sqlmock.NewColumn("payload").OfType("JSONB", []byte{}),
		).AddRow([]byte(`{"a":1}`)))

	c := builders.NewClient(db,
		builders.WithCustomTypeProcessor("jsonb", func(v any) any {
			b, ok := v.([]byte)
			if !ok {
				return v
			}
			return json.RawMessage(b)
		}),
		// ignored: first registration wins
		builders.WithCustomTypeProcessor("JSONB", func(v any) any { return "overridden" }),
	)

	rows, err := c.Query(context.Background(), "SELECT payload FROM t")
	r.NoError(err)
	defer rows.Close()

	got := drain(t, rows)
	r.Equal([]core.Row{{json.RawMessage(`{"a":1}`)}}, got)
}
