package core

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type CallID string

// Call is the record of a single executed operation.
type Call struct {
	id        CallID
	query     string
	state     CallState
	timeTaken time.Duration
	timestamp time.Time

	result *Result
	err    error
}

func newCall(query string) *Call {
	return &Call{
		id:        CallID(uuid.New().String()),
		query:     query,
		state:     CallStateExecuting,
		timestamp: time.Now(),
	}
}

// finish records the outcome of the call. The final state is derived from
// the error: cancellation, failure to submit or failure to retrieve rows.
func (c *Call) finish(ctx context.Context, result *Result, err error) {
	c.timeTaken = time.Since(c.timestamp)
	c.result = result
	c.err = err

	switch {
	case err == nil:
		c.state = CallStateSucceeded
	case ctx.Err() != nil || errors.Is(err, context.Canceled):
		c.state = CallStateCanceled
	case opOf(err) == OpFetch:
		c.state = CallStateRetrievingFailed
	default:
		c.state = CallStateExecutingFailed
	}
}

func (c *Call) GetID() CallID {
	return c.id
}

func (c *Call) GetQuery() string {
	return c.query
}

func (c *Call) GetState() CallState {
	return c.state
}

func (c *Call) GetTimeTaken() time.Duration {
	return c.timeTaken
}

func (c *Call) GetTimestamp() time.Time {
	return c.timestamp
}

func (c *Call) Err() error {
	return c.err
}

// GetResult returns the drained result, or nil if the call failed.
func (c *Call) GetResult() *Result {
	return c.result
}
