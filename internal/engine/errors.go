package engine

import (
	"errors"
	"fmt"
)

// RuntimeError is an error raised while driving the service.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Tick is the clock value when the error occurred.
	Tick int64

	// Recovered is the panic value for ErrCodeCommandPanic.
	Recovered any
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeStopped means the engine no longer accepts commands.
	ErrCodeStopped RuntimeErrorCode = "ENGINE_STOPPED"

	// ErrCodeCommandPanic means a command panicked. The loop survives it.
	ErrCodeCommandPanic RuntimeErrorCode = "COMMAND_PANIC"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Tick > 0 {
		return fmt.Sprintf("%s: %s (tick=%d)", e.Code, e.Message, e.Tick)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrStopped is returned by Do after Stop.
var ErrStopped = &RuntimeError{Code: ErrCodeStopped, Message: "engine stopped"}

// IsStopped reports whether err means the engine was stopped.
func IsStopped(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeStopped
	}
	return false
}

// IsCommandPanic reports whether err came from a panicking command.
func IsCommandPanic(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeCommandPanic
	}
	return false
}

func newCommandPanic(tick int64, recovered any) *RuntimeError {
	return &RuntimeError{
		Code:      ErrCodeCommandPanic,
		Message:   fmt.Sprintf("command panicked: %v", recovered),
		Tick:      tick,
		Recovered: recovered,
	}
}
