package core

import (
	"context"
	"fmt"
	"io"
)

// Result is the fully drained form of the ResultStream iterator.
// Every row has exactly as many values as there are columns in the header.
type Result struct {
	header Header
	rows   []Row
}

// NewResult builds a result from an already materialized header and rows.
func NewResult(header Header, rows []Row) (*Result, error) {
	if header == nil {
		header = Header{}
	}
	if rows == nil {
		rows = []Row{}
	}

	for i, row := range rows {
		if len(row) != len(header) {
			return nil, fmt.Errorf("row %d has %d values, expected %d", i, len(row), len(header))
		}
	}

	return &Result{
		header: header,
		rows:   rows,
	}, nil
}

// drain reads the whole iterator into the result and closes the iterator.
func (r *Result) drain(ctx context.Context, iter ResultStream) error {
	// close iterator on return
	defer iter.Close()

	r.header = iter.Header()
	if r.header == nil {
		r.header = Header{}
	}
	r.rows = make([]Row, 0)

	for iter.HasNext() {
		if err := ctx.Err(); err != nil {
			return err
		}

		row, err := iter.Next()
		if err != nil {
			return err
		}

		if len(row) != len(r.header) {
			return fmt.Errorf("row %d has %d values, expected %d", len(r.rows), len(row), len(r.header))
		}

		r.rows = append(r.rows, row)
	}

	return iter.Err()
}

func (r *Result) Header() Header {
	return r.header
}

func (r *Result) Rows() []Row {
	return r.rows
}

func (r *Result) Len() int {
	return len(r.rows)
}

// Records returns rows as maps keyed by column name.
func (r *Result) Records() []map[string]any {
	records := make([]map[string]any, 0, len(r.rows))

	for _, row := range r.rows {
		record := make(map[string]any, len(row))
		for i, val := range row {
			record[r.header[i]] = val
		}
		records = append(records, record)
	}

	return records
}

func (r *Result) Format(formatter Formatter, w io.Writer) error {
	if err := formatter.Format(r.header, r.rows, w); err != nil {
		return fmt.Errorf("formatter.Format: %w", err)
	}

	return nil
}
