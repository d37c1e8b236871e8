package core_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbxquery/dbxquery/core"
	"github.com/dbxquery/dbxquery/core/mock"
	"github.com/dbxquery/dbxquery/querybuild"
)

func newConnection(t *testing.T, adapter core.Adapter) *core.Connection {
	t.Helper()

	conn, err := core.NewConnection(&core.ConnectionParams{
		Name: "test",
		Type: "mock",
	}, adapter)
	require.NoError(t, err)
	return conn
}

func TestNewConnection(t *testing.T) {
	r := require.New(t)

	t.Setenv("DBXQUERY_TEST_WAREHOUSE", "abc")

	params := &core.ConnectionParams{
		Type:        "databricks",
		WarehouseID: "{{ env `DBXQUERY_TEST_WAREHOUSE` }}",
	}
	conn, err := core.NewConnection(params, mock.NewAdapter(nil))
	r.NoError(err)

	r.NotEmpty(conn.GetID())
	r.Equal("databricks", conn.GetType())
	r.Equal(core.AuthModeDefault, conn.AuthMode())
	// unexpanded source is kept
	r.Same(params, conn.GetParams())
	r.Equal(0, conn.OpenSessions())

	t.Setenv("DBXQUERY_TEST_PROFILE", "staging")
	conn, err = core.NewConnection(&core.ConnectionParams{
		Profile: "{{ env `DBXQUERY_TEST_PROFILE` }}",
	}, mock.NewAdapter(nil))
	r.NoError(err)
	r.Equal(core.AuthModeProfile, conn.AuthMode())
	r.Equal("staging", conn.Profile())

	_, err = core.NewConnection(&core.ConnectionParams{Host: "{{ env "}, mock.NewAdapter(nil))
	r.True(core.IsKind(err, core.KindConfiguration))
}

func TestConnection_ResolveConfigurationError(t *testing.T) {
	r := require.New(t)

	adapter := mock.NewAdapter(nil, mock.AdapterWithConnectError(
		core.ConfigurationErrorf("DATABRICKS_SQL_WAREHOUSE_ID is not set"),
	))
	conn := newConnection(t, adapter)

	session, err := conn.Resolve(context.Background())
	r.Nil(session)
	r.True(core.IsKind(err, core.KindConfiguration))
	r.ErrorContains(err, "DATABRICKS_SQL_WAREHOUSE_ID")
	r.Equal(0, conn.OpenSessions())
}

func TestConnection_ResolveCredentialError(t *testing.T) {
	r := require.New(t)

	conn := newConnection(t, mock.NewAdapter(nil, mock.AdapterWithConnectError(errors.New("token expired"))))

	_, err := conn.Resolve(context.Background())
	r.True(core.IsKind(err, core.KindCredential))
	r.ErrorContains(err, "token expired")

	call, err := conn.Execute(context.Background(), "SELECT 1")
	r.True(core.IsKind(err, core.KindCredential))
	r.Equal(core.CallStateExecutingFailed, call.GetState())
	r.Nil(call.GetResult())
}

func TestConnection_SessionClose(t *testing.T) {
	r := require.New(t)

	adapter := mock.NewAdapter(nil)
	conn := newConnection(t, adapter)

	session, err := conn.Resolve(context.Background())
	r.NoError(err)
	r.NotEmpty(session.ID())
	r.Equal(1, conn.OpenSessions())

	r.NoError(session.Close())
	r.NoError(session.Close())

	r.Equal(0, conn.OpenSessions())
	r.Equal(1, adapter.Drivers()[0].Closes())
}

func TestConnection_Execute(t *testing.T) {
	r := require.New(t)

	rows := mock.NewRows(0, 5)
	adapter := mock.NewAdapter(rows)
	conn := newConnection(t, adapter)

	call, err := conn.Execute(context.Background(), "SELECT * FROM t")
	r.NoError(err)

	r.NotEmpty(call.GetID())
	r.Equal("SELECT * FROM t", call.GetQuery())
	r.Equal(core.CallStateSucceeded, call.GetState())
	r.NoError(call.Err())
	r.Equal(rows, call.GetResult().Rows())

	// closed after success
	r.Len(adapter.Drivers(), 1)
	r.Equal(1, adapter.Drivers()[0].Closes())
	r.Equal(0, conn.OpenSessions())
}

func TestConnection_ExecuteRetrievingFailed(t *testing.T) {
	r := require.New(t)

	adapter := mock.NewAdapter(mock.NewRows(0, 5),
		mock.AdapterWithResultStreamOpts(mock.ResultStreamWithFailAt(2, errors.New("socket closed"))),
	)
	conn := newConnection(t, adapter)

	call, err := conn.Execute(context.Background(), "SELECT * FROM t")
	r.True(core.IsKind(err, core.KindExecution))
	r.Equal(core.CallStateRetrievingFailed, call.GetState())
	r.True(call.GetState().IsFailed())

	// closed exactly once even though the executor already closed it
	r.Equal(1, adapter.Drivers()[0].Closes())
	r.Equal(0, conn.OpenSessions())
}

func TestConnection_ExecuteCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	conn := newConnection(t, mock.NewAdapter(mock.NewRows(0, 5)))

	call, err := conn.Execute(ctx, "SELECT * FROM t")
	assert.Error(t, err)
	assert.Equal(t, core.CallStateCanceled, call.GetState())
}

func TestConnection_NoSessionLeak(t *testing.T) {
	r := require.New(t)

	adapter := mock.NewAdapter(mock.NewRows(0, 3),
		mock.AdapterWithQuerySideEffect("SELECT broken", func(context.Context) error {
			return errors.New("boom")
		}),
	)
	conn := newConnection(t, adapter)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			query := "SELECT * FROM t"
			if i%2 == 0 {
				query = "SELECT broken"
			}
			_, _ = conn.Execute(context.Background(), query)
		}(i)
	}
	wg.Wait()

	r.Equal(0, conn.OpenSessions())
	r.Equal(20, adapter.Connects())
	for _, d := range adapter.Drivers() {
		r.Equal(1, d.Closes())
	}
}

func TestConnection_Describe(t *testing.T) {
	r := require.New(t)

	adapter := mock.NewAdapter(nil,
		mock.AdapterWithTableHelper(core.HelperDescribe, "DESCRIBE TABLE %s"),
		mock.AdapterWithQueryResult("DESCRIBE TABLE samples.nyctaxi.trips",
			core.Header{"col_name", "data_type", "comment"},
			[]core.Row{
				{"tpep_pickup_datetime", "timestamp", nil},
				{"fare_amount", "double", nil},
			}),
	)
	conn := newConnection(t, adapter)

	call, err := conn.Describe(context.Background(), "samples.nyctaxi.trips")
	r.NoError(err)
	r.Equal("DESCRIBE TABLE samples.nyctaxi.trips", call.GetQuery())
	r.Equal(core.Header{"col_name", "data_type", "comment"}, call.GetResult().Header())
	r.Equal(2, call.GetResult().Len())

	_, err = conn.Describe(context.Background(), "trips; DROP TABLE trips")
	r.ErrorIs(err, querybuild.ErrInvalidIdentifier)
	r.True(core.IsKind(err, core.KindExecution))
	// rejected without opening a session
	r.Equal(1, adapter.Connects())
}

func TestConnection_DescribeNoHelper(t *testing.T) {
	conn := newConnection(t, mock.NewAdapter(nil))

	call, err := conn.Describe(context.Background(), "trips")
	assert.ErrorIs(t, err, core.ErrNoHelper)
	assert.Equal(t, core.CallStateExecutingFailed, call.GetState())
}

func TestConnection_Ping(t *testing.T) {
	r := require.New(t)

	conn := newConnection(t, mock.NewAdapter(nil,
		mock.AdapterWithQueryResult(core.PingQuery, core.Header{"test"}, []core.Row{{1}}),
	))
	r.NoError(conn.Ping(context.Background()))

	empty := newConnection(t, mock.NewAdapter(nil,
		mock.AdapterWithQueryResult(core.PingQuery, core.Header{"test"}, []core.Row{}),
	))
	err := empty.Ping(context.Background())
	r.True(core.IsKind(err, core.KindExecution))
	r.ErrorContains(err, "no rows")
}
