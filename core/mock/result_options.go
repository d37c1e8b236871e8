package mock

import (
	"time"

	"github.com/dbxquery/dbxquery/core"
)

type resultStreamConfig struct {
	nextSleep time.Duration
	header    core.Header

	failAt  int
	failErr error
}

type ResultStreamOption func(*resultStreamConfig)

func ResultStreamWithNextSleep(s time.Duration) ResultStreamOption {
	return func(c *resultStreamConfig) {
		c.nextSleep = s
	}
}

func ResultStreamWithHeader(header core.Header) ResultStreamOption {
	return func(c *resultStreamConfig) {
		c.header = header
	}
}

// ResultStreamWithFailAt makes Next return err instead of the row at index.
func ResultStreamWithFailAt(index int, err error) ResultStreamOption {
	return func(c *resultStreamConfig) {
		c.failAt = index
		c.failErr = err
	}
}
