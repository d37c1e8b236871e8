package core

import "io"

type (
	// Row and Header are attributes of the ResultStream iterator
	Row    []any
	Header []string

	// ResultStream is a result from executed query and has a form of an iterator.
	// Err reports a failure that ended the iteration early.
	ResultStream interface {
		Header() Header
		Next() (Row, error)
		HasNext() bool
		Err() error
		Close()
	}
)

// Formatter writes header and rows to w in a specific output format.
type Formatter interface {
	Format(header Header, rows []Row, w io.Writer) error
}
