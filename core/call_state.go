package core

type CallState int

const (
	CallStateUnknown CallState = iota
	CallStateExecuting
	CallStateExecutingFailed
	CallStateRetrievingFailed
	CallStateSucceeded
	CallStateCanceled
)

func (s CallState) String() string {
	switch s {
	case CallStateUnknown:
		return "unknown"

	case CallStateExecuting:
		return "executing"
	case CallStateExecutingFailed:
		return "executing_failed"

	case CallStateRetrievingFailed:
		return "retrieving_failed"

	case CallStateSucceeded:
		return "succeeded"

	case CallStateCanceled:
		return "canceled"

	default:
		return "unknown"
	}
}

// IsFailed reports whether the call ended without a result.
func (s CallState) IsFailed() bool {
	return s == CallStateExecutingFailed ||
		s == CallStateRetrievingFailed ||
		s == CallStateCanceled
}
