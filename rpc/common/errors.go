package common

import (
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Error Codes
// --------------------------------------------------------------------------

// ErrorCode is the numeric code carried by an error response frame
type ErrorCode int32

const (
	CodeTimeout         ErrorCode = 100
	CodeUnexpectedError ErrorCode = 101
	CodeIllegalArgument ErrorCode = 102

	// transaction codes, reserved for the transaction layer
	CodeTrAlreadyCompleted ErrorCode = 201
	CodeTrInterrupted      ErrorCode = 202
	CodeTrNotFound         ErrorCode = 203
)

// String returns the string representation of an ErrorCode
func (c ErrorCode) String() string {
	switch c {
	case CodeTimeout:
		return "timeout"
	case CodeUnexpectedError:
		return "unexpected error"
	case CodeIllegalArgument:
		return "illegal argument"
	case CodeTrAlreadyCompleted:
		return "transaction already completed"
	case CodeTrInterrupted:
		return "transaction interrupted"
	case CodeTrNotFound:
		return "transaction not found"
	default:
		return fmt.Sprintf("code %d", int32(c))
	}
}

// --------------------------------------------------------------------------
// Errors
// --------------------------------------------------------------------------

var (
	// ErrTimeout is returned by a future whose deadline passed before any answer arrived
	ErrTimeout = errors.New("rpc: request timed out")
	// ErrIllegalArgument marks request validation failures. Handlers wrap it and
	// the requester receives CodeIllegalArgument.
	ErrIllegalArgument = errors.New("rpc: illegal argument")
	// ErrUnexpectedResponse is returned when a response has an unexpected type tag
	ErrUnexpectedResponse = errors.New("rpc: unexpected response type")
)

// CodeError is the error a requester sees when the peer answered with an error frame
type CodeError struct {
	Code ErrorCode
}

// NewCodeError creates a CodeError
func NewCodeError(code ErrorCode) *CodeError {
	return &CodeError{Code: code}
}

func (e *CodeError) Error() string {
	return fmt.Sprintf("rpc: peer reported %s (%d)", e.Code, int32(e.Code))
}

// ResultError is returned when the answer arrived but could not be processed
// locally, for example because the payload failed to decode
type ResultError struct {
	Code ErrorCode
	Err  error
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("rpc: processing result failed: %v", e.Err)
}

func (e *ResultError) Unwrap() error { return e.Err }

// IllegalArgument wraps a validation failure so that it maps to CodeIllegalArgument
func IllegalArgument(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrIllegalArgument, fmt.Sprintf(format, args...))
}

// CodeOf maps an error to the code that is sent to a requester
func CodeOf(err error) ErrorCode {
	var codeErr *CodeError
	var resultErr *ResultError
	switch {
	case errors.As(err, &codeErr):
		return codeErr.Code
	case errors.As(err, &resultErr):
		return resultErr.Code
	case errors.Is(err, ErrIllegalArgument):
		return CodeIllegalArgument
	case errors.Is(err, ErrTimeout):
		return CodeTimeout
	default:
		return CodeUnexpectedError
	}
}
