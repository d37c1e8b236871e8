package integration

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	tsuite "github.com/stretchr/testify/suite"
	tc "github.com/testcontainers/testcontainers-go"

	"github.com/dbxquery/dbxquery/core"
	"github.com/dbxquery/dbxquery/querybuild"
	th "github.com/dbxquery/dbxquery/tests/testhelpers"
)

// PostgresTestSuite is the test suite for the postgres adapter.
type PostgresTestSuite struct {
	tsuite.Suite // inherit from testify suite
	// ctr is the postgres testcontainer
	ctr *th.PostgresContainer
	ctx context.Context
	// conn is the connection to the container
	conn *core.Connection
}

// TestPostgresTestSuite is the entrypoint for go test.
//
// testify/suite can't handle parallel tests, see
// https://github.com/stretchr/testify/issues/934
func TestPostgresTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container tests in short mode")
	}
	tc.SkipIfProviderIsNotHealthy(t)

	tsuite.Run(t, new(PostgresTestSuite))
}

func (suite *PostgresTestSuite) SetupSuite() {
	suite.ctx = context.Background()
	ctr, err := th.NewPostgresContainer(suite.ctx, &core.ConnectionParams{
		ID:   "test-postgres",
		Name: "test-postgres",
	})
	suite.Require().NoError(err)

	suite.ctr = ctr
	suite.conn = ctr.Conn
}

func (suite *PostgresTestSuite) TearDownSuite() {
	tc.CleanupContainer(suite.T(), suite.ctr)
}

func (suite *PostgresTestSuite) TestShouldErrorInvalidQuery() {
	t := suite.T()

	call, err := suite.conn.Execute(suite.ctx, "invalid sql")
	assert.True(t, core.IsKind(err, core.KindExecution))
	assert.ErrorContains(t, err, "syntax error")
	assert.Equal(t, core.CallStateExecutingFailed, call.GetState())
	assert.Equal(t, 0, suite.conn.OpenSessions())
}

func (suite *PostgresTestSuite) TestShouldCancelQuery() {
	t := suite.T()

	ctx, cancel := context.WithTimeout(suite.ctx, 200*time.Millisecond)
	defer cancel()

	call, err := suite.conn.Execute(ctx, "SELECT pg_sleep(5)")
	assert.Error(t, err)
	assert.True(t, errors.Is(ctx.Err(), context.DeadlineExceeded))
	assert.Equal(t, core.CallStateCanceled, call.GetState())
	assert.Equal(t, 0, suite.conn.OpenSessions())
}

func (suite *PostgresTestSuite) TestShouldPing() {
	suite.NoError(suite.conn.Ping(suite.ctx))
}

func (suite *PostgresTestSuite) TestShouldReturnRows() {
	t := suite.T()

	call, err := suite.conn.Execute(suite.ctx, `
	SELECT id, fare_amount, details
	FROM nyctaxi.trips
	ORDER BY id`)
	suite.Require().NoError(err)

	result := call.GetResult()
	assert.Equal(t, core.Header{"id", "fare_amount", "details"}, result.Header())
	assert.Equal(t, []core.Row{
		{int64(1), "12.50", json.RawMessage(`{"vendor": "a"}`)},
		{int64(2), "31.00", nil},
		{int64(3), "7.25", json.RawMessage(`{"vendor": "b"}`)},
	}, result.Rows())
}

func (suite *PostgresTestSuite) TestShouldReturnEmptyResult() {
	t := suite.T()

	call, err := suite.conn.Execute(suite.ctx, "SELECT id FROM nyctaxi.trips WHERE id < 0")
	suite.Require().NoError(err)

	assert.Equal(t, core.Header{"id"}, call.GetResult().Header())
	assert.Empty(t, call.GetResult().Rows())
}

func (suite *PostgresTestSuite) TestShouldDescribe() {
	t := suite.T()

	call, err := suite.conn.Describe(suite.ctx, "nyctaxi.trips")
	suite.Require().NoError(err)

	result := call.GetResult()
	assert.Equal(t, core.Header{"col_name", "data_type", "is_nullable"}, result.Header())
	assert.Equal(t, []core.Row{
		{"id", "integer", "NO"},
		{"pickup_datetime", "timestamp without time zone", "NO"},
		{"fare_amount", "numeric", "YES"},
		{"trip_distance", "double precision", "YES"},
		{"details", "jsonb", "YES"},
	}, result.Rows())
}

func (suite *PostgresTestSuite) TestShouldRunTimeseries() {
	t := suite.T()

	query, err := querybuild.Timeseries(querybuild.TimeseriesRequest{
		Table:      "nyctaxi.trips",
		TimeColumn: "pickup_datetime",
		Metrics: []querybuild.Metric{
			{Name: "Total Fare", Column: "fare_amount", Aggregation: "sum"},
		},
	})
	suite.Require().NoError(err)

	call, err := suite.conn.Execute(suite.ctx, query)
	suite.Require().NoError(err)

	result := call.GetResult()
	assert.Equal(t, core.Header{"time_bucket", "total_fare"}, result.Header())
	assert.Equal(t, 2, result.Len())
	assert.Equal(t, "7.25", result.Rows()[0][1])
	assert.Equal(t, "43.50", result.Rows()[1][1])
}

func (suite *PostgresTestSuite) TestShouldNotLeakSessions() {
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = suite.conn.Execute(suite.ctx, "SELECT count(*) FROM nyctaxi.trips")
		}()
	}
	wg.Wait()

	suite.Equal(0, suite.conn.OpenSessions())
}

func (suite *PostgresTestSuite) TestShouldFailWithWrongPassword() {
	t := suite.T()

	conn, err := suite.ctr.NewConnection(&core.ConnectionParams{
		URL: "postgres://postgres:wrong@" + suite.mustEndpoint() + "/dev?sslmode=disable",
	})
	suite.Require().NoError(err)

	_, err = conn.Execute(suite.ctx, "SELECT 1")
	assert.True(t, core.IsKind(err, core.KindCredential))
}

func (suite *PostgresTestSuite) mustEndpoint() string {
	endpoint, err := suite.ctr.Endpoint(suite.ctx, "")
	suite.Require().NoError(err)
	return endpoint
}
