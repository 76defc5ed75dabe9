package capture

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes capture buffer failures.
type ErrorCode string

const (
	// ErrCodeOverflow indicates more events arrived than were expected
	// while the buffer was configured to reject overflow.
	ErrCodeOverflow ErrorCode = "OVERFLOW"

	// ErrCodeTimeout indicates Await did not reach zero outstanding
	// events before the deadline.
	ErrCodeTimeout ErrorCode = "TIMEOUT"

	// ErrCodeEmptyBuffer indicates Remove was called on an empty queue.
	ErrCodeEmptyBuffer ErrorCode = "EMPTY_BUFFER"

	// ErrCodePendingExpectation indicates Expects was called while the
	// previous expectation round had not yet completed.
	ErrCodePendingExpectation ErrorCode = "PENDING_EXPECTATION"

	// ErrCodeInvalidCount indicates Expects was called with a
	// non-positive count.
	ErrCodeInvalidCount ErrorCode = "INVALID_COUNT"
)

// Error is a structured capture failure. Overflow and usage errors are
// programming or scenario errors in the test, not system failures, and
// are reported synchronously at the offending call site.
type Error struct {
	Code    ErrorCode
	Message string

	// Outstanding and Received carry the expected-vs-received counts
	// for timeout diagnosis.
	Outstanding int
	Received    int
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code == ErrCodeTimeout {
		return fmt.Sprintf("%s: %s (still expecting %d events, received %d)",
			e.Code, e.Message, e.Outstanding, e.Received)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsOverflow returns true if the error is an overflow rejection.
// Uses errors.As to handle wrapped errors.
func IsOverflow(err error) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Code == ErrCodeOverflow
}

// IsTimeout returns true if the error is an Await timeout.
// Uses errors.As to handle wrapped errors.
func IsTimeout(err error) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Code == ErrCodeTimeout
}

func newOverflowError() *Error {
	return &Error{
		Code:    ErrCodeOverflow,
		Message: "received more events than expected",
	}
}

func newTimeoutError(outstanding, received int) *Error {
	return &Error{
		Code:        ErrCodeTimeout,
		Message:     "await deadline elapsed",
		Outstanding: outstanding,
		Received:    received,
	}
}
