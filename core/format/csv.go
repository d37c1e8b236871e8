package format

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/dbxquery/dbxquery/core"
)

var _ core.Formatter = (*CSV)(nil)

// CSV writes a header line followed by one line per row.
type CSV struct{}

func NewCSV() *CSV {
	return &CSV{}
}

// stringify renders a single value. NULL becomes an empty string.
func stringify(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(v)
	}
}

func (cf *CSV) parseSchemaFul(header core.Header, rows []core.Row) [][]string {
	data := [][]string{
		header,
	}
	for _, row := range rows {
		csvRow := make([]string, 0, len(row))
		for _, rec := range row {
			csvRow = append(csvRow, stringify(rec))
		}
		data = append(data, csvRow)
	}

	return data
}

func (cf *CSV) Format(header core.Header, rows []core.Row, w io.Writer) error {
	// parse as if schema is defined regardles of schema presence in the result
	data := cf.parseSchemaFul(header, rows)

	cw := csv.NewWriter(w)

	err := cw.WriteAll(data)
	if err != nil {
		return fmt.Errorf("cw.WriteAll: %w", err)
	}

	return nil
}
