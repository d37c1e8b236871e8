package format

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/dbxquery/dbxquery/core"
)

var _ core.Formatter = (*Table)(nil)

// Table renders a borderless box drawing table for terminals.
type Table struct{}

func NewTable() *Table {
	return &Table{}
}

func (tf *Table) Format(header core.Header, rows []core.Row, w io.Writer) error {
	tableHeader := make(table.Row, 0, len(header))
	for _, k := range header {
		tableHeader = append(tableHeader, k)
	}

	tableRows := make([]table.Row, 0, len(rows))
	for _, row := range rows {
		tableRow := make(table.Row, 0, len(row))
		for _, val := range row {
			if val == nil {
				tableRow = append(tableRow, "NULL")
				continue
			}
			tableRow = append(tableRow, stringify(val))
		}
		tableRows = append(tableRows, tableRow)
	}

	t := table.NewWriter()
	t.AppendHeader(tableHeader)
	t.AppendRows(tableRows)
	t.SetStyle(table.StyleLight)
	t.Style().Format = table.FormatOptions{
		Footer: text.FormatDefault,
		Header: text.FormatDefault,
		Row:    text.FormatDefault,
	}
	t.Style().Options.DrawBorder = false

	_, err := io.WriteString(w, t.Render()+"\n")
	return err
}
