package core

import (
	"errors"
	"fmt"
)

// ErrorKind is a closed set of failure classes callers can branch on.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	// KindConfiguration means a required setting is absent or malformed.
	// It is always returned before any network call.
	KindConfiguration
	// KindCredential means credential acquisition or session opening failed.
	KindCredential
	// KindExecution means the statement failed during submission or fetch.
	KindExecution
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindCredential:
		return "connection"
	case KindExecution:
		return "query"
	default:
		return "unknown"
	}
}

// operations reported in Error.Op
const (
	OpResolve  = "resolve"
	OpQuery    = "query"
	OpFetch    = "fetch"
	OpDescribe = "describe"
	OpPing     = "ping"
)

// Error is a terminal, non-retryable failure.
type Error struct {
	Kind ErrorKind
	Op   string
	// Hint is a remediation message appended to the cause.
	Hint string
	Err  error
}

func (e *Error) Error() string {
	cause := "unknown error"
	if e.Err != nil {
		cause = e.Err.Error()
	}

	msg := fmt.Sprintf("%s error: %s", e.Kind, cause)
	if e.Hint != "" {
		msg += ". " + e.Hint
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ConfigurationErrorf returns a KindConfiguration error.
func ConfigurationErrorf(format string, args ...any) error {
	return &Error{
		Kind: KindConfiguration,
		Op:   OpResolve,
		Err:  fmt.Errorf(format, args...),
	}
}

// CredentialError wraps err as a KindCredential error with a remediation hint.
func CredentialError(err error, hint string) error {
	return &Error{
		Kind: KindCredential,
		Op:   OpResolve,
		Hint: hint,
		Err:  err,
	}
}

func executionError(op string, err error) error {
	return &Error{
		Kind: KindExecution,
		Op:   op,
		Err:  err,
	}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// opOf returns the operation of the first *Error in err's chain.
func opOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}
