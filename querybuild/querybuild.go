// Package querybuild renders the canned statements of the explorer pages
// (table preview and time series) from validated request fragments.
package querybuild

import (
	"errors"
	"fmt"
	"regexp"

	sq "github.com/Masterminds/squirrel"
)

const (
	DefaultPreviewLimit = 100
	MaxPreviewLimit     = 10000
)

// ErrInvalidIdentifier is returned for table or column names that cannot be
// interpolated into a statement safely.
var ErrInvalidIdentifier = errors.New("invalid identifier")

// one or more dot separated parts, each either a bare name or backtick
// quoted. Quoted parts may only add spaces and dashes since adapters put the
// unquoted name into string literals.
var identifierRe = regexp.MustCompile("^(?:[A-Za-z_][A-Za-z0-9_]*|`[A-Za-z0-9_ -]+`)(?:\\.(?:[A-Za-z_][A-Za-z0-9_]*|`[A-Za-z0-9_ -]+`))*$")

// ValidateIdentifier checks that name is a plain or dotted identifier such as
// catalog.schema.table.
func ValidateIdentifier(name string) error {
	if !identifierRe.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
	}
	return nil
}

// ClampPreviewLimit maps a requested limit into [1, MaxPreviewLimit].
// Zero or negative means the default.
func ClampPreviewLimit(limit int) int {
	if limit <= 0 {
		return DefaultPreviewLimit
	}
	if limit > MaxPreviewLimit {
		return MaxPreviewLimit
	}
	return limit
}

// Preview returns the statement that fetches the first rows of table.
func Preview(table string, limit int) (string, error) {
	if err := ValidateIdentifier(table); err != nil {
		return "", err
	}

	query, _, err := sq.Select("*").
		From(table).
		Limit(uint64(ClampPreviewLimit(limit))). // #nosec G115 -- clamped to [1, 10000]
		ToSql()
	if err != nil {
		return "", fmt.Errorf("building preview query: %w", err)
	}

	return query, nil
}
