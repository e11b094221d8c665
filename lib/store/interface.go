package store

import (
	"fmt"
	"time"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IVersionedStore is the interface of a key-value store whose entries carry a
// version. Every successful write assigns the key a new version that is greater
// than any version the store handed out before. A missing key has version 0.
type IVersionedStore interface {
	// Get returns the value and the version of a key. For a missing or expired
	// key the value is nil and the version is 0.
	Get(key string) (value []byte, version int64, err error)
	// GetVersion returns only the version of a key
	GetVersion(key string) (version int64, err error)
	// Set writes a value if cond holds. The expire parameter is a lifetime in
	// seconds, ExpireNone removes the lifetime and ExpireKeep keeps the current
	// one. If cond does not hold, the result is not applied and carries the
	// stored version.
	Set(key string, value []byte, cond Condition, version int64, expire int32) (result SetResult, err error)
	// Len returns the number of stored keys, expired ones not yet collected included
	Len() int
	// Close stops background work of the store
	Close() error
}

// SetResult is the outcome of IVersionedStore.Set
type SetResult struct {
	// Applied is false if the condition did not hold
	Applied bool
	// Version is the new version if applied, else the stored one
	Version int64
}

// --------------------------------------------------------------------------
// Conditions
// --------------------------------------------------------------------------

// Condition guards a write
type Condition uint8

const (
	CondAlways    Condition = iota // 0: write unconditionally
	CondExists                     // 1: write only if the key exists
	CondNotExists                  // 2: write only if the key does not exist
	CondVersion                    // 3: write only if the stored version equals the given one
)

// Valid reports whether c is a known condition
func (c Condition) Valid() bool { return c <= CondVersion }

// Holds evaluates the condition against the stored state
func (c Condition) Holds(exists bool, stored, expected int64) bool {
	switch c {
	case CondAlways:
		return true
	case CondExists:
		return exists
	case CondNotExists:
		return !exists
	case CondVersion:
		return stored == expected
	default:
		return false
	}
}

func (c Condition) String() string {
	switch c {
	case CondAlways:
		return "always"
	case CondExists:
		return "exists"
	case CondNotExists:
		return "not-exists"
	case CondVersion:
		return "version"
	default:
		return fmt.Sprintf("condition(%d)", uint8(c))
	}
}

// Expire values with special meaning
const (
	ExpireNone int32 = 0
	ExpireKeep int32 = -1
)

// ExpireAt computes the expiry time of a write at now. The previous expiry
// is kept for ExpireKeep, the zero time means the entry never expires.
func ExpireAt(now time.Time, expire int32, previous time.Time) time.Time {
	switch {
	case expire > 0:
		return now.Add(time.Duration(expire) * time.Second)
	case expire == ExpireKeep:
		return previous
	default:
		return time.Time{}
	}
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	errorCode := ""
	switch e.Code {
	case RetCInternalError:
		errorCode = "InternalError"
	case RetCInvalidOperation:
		errorCode = "InvalidOperation"
	case RetCClosed:
		errorCode = "Closed"
	default:
		errorCode = "Unknown"
	}

	return fmt.Sprintf("KVStoreError (code %s): %s", errorCode, e.Msg)
}

// NewError creates a new KVStoreError with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess          RetCode = iota // 0: Command executed successfully.
	RetCInternalError                   // 1: Command failed due to an internal error.
	RetCInvalidOperation                // 2: Invalid operation, e.g. an unknown condition.
	RetCClosed                          // 3: The store is closed.
)
