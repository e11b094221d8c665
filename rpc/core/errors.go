package core

import (
	"errors"
)

var (
	// ErrDuplicateHandler is returned when a type tag already has a handler
	ErrDuplicateHandler = errors.New("core: handler already registered for type")
	// ErrCannotClose is returned by Close while requests are in flight
	ErrCannotClose = errors.New("core: context cannot be closed while requests are in flight")
	// ErrClosed is returned by operations on a closed context
	ErrClosed = errors.New("core: context closed")
	// ErrRequestDone is returned when an inbound request is answered twice
	ErrRequestDone = errors.New("core: request already completed")
	// ErrCancelled is the error of a future that was cancelled before its answer arrived
	ErrCancelled = errors.New("core: request cancelled")
	// ErrNoChannel is returned when no channel factory reaches an address
	ErrNoChannel = errors.New("core: no channel for address")
)
