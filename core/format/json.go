package format

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dbxquery/dbxquery/core"
)

var _ core.Formatter = (*JSON)(nil)

// JSON writes an indented array of {column: value} records.
type JSON struct{}

func NewJSON() *JSON {
	return &JSON{}
}

func (jf *JSON) parseSchemaFul(header core.Header, rows []core.Row) []map[string]any {
	data := make([]map[string]any, 0, len(rows))

	for _, row := range rows {
		record := make(map[string]any, len(row))
		for i, val := range row {
			var h string
			if i < len(header) {
				h = header[i]
			} else {
				h = fmt.Sprintf("<unknown-field-%d>", i)
			}
			record[h] = val
		}
		data = append(data, record)
	}

	return data
}

func (jf *JSON) Format(header core.Header, rows []core.Row, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(jf.parseSchemaFul(header, rows)); err != nil {
		return fmt.Errorf("enc.Encode: %w", err)
	}

	return nil
}
