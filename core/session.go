package core

import (
	"context"
	"sync"
)

type SessionID string

// Querier is what the executor needs from a session.
type Querier interface {
	Query(ctx context.Context, query string) (ResultStream, error)
	Close() error
}

var _ Querier = (*Session)(nil)

// Session is a live, single-use connection handle opened by a Connection.
// It must not be shared between concurrent operations.
type Session struct {
	id     SessionID
	driver Driver

	closeOnce sync.Once
	closeErr  error
	onClose   func()
}

func newSession(id SessionID, driver Driver, onClose func()) *Session {
	return &Session{
		id:      id,
		driver:  driver,
		onClose: onClose,
	}
}

func (s *Session) ID() SessionID {
	return s.id
}

func (s *Session) Query(ctx context.Context, query string) (ResultStream, error) {
	return s.driver.Query(ctx, query)
}

// Close releases the underlying driver. Only the first call has an effect.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.driver.Close()
		if s.onClose != nil {
			s.onClose()
		}
	})
	return s.closeErr
}
