// Package format holds the output formats results can be written in.
package format

import (
	"fmt"
	"sort"

	"github.com/dbxquery/dbxquery/core"
)

var formatters = map[string]func() core.Formatter{
	"json":  func() core.Formatter { return NewJSON() },
	"csv":   func() core.Formatter { return NewCSV() },
	"table": func() core.Formatter { return NewTable() },
}

// New returns the formatter registered under name.
func New(name string) (core.Formatter, error) {
	f, ok := formatters[name]
	if !ok {
		return nil, fmt.Errorf("unsupported output format: %q", name)
	}
	return f(), nil
}

// Names lists the supported format names.
func Names() []string {
	names := make([]string, 0, len(formatters))
	for name := range formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
