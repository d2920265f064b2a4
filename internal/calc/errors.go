package calc

import (
	"errors"
	"fmt"

	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
)

// ErrorCode categorizes calculation failures.
type ErrorCode string

const (
	// ErrCodeCancelled: the caller's context ended before a plan was found.
	ErrCodeCancelled ErrorCode = "CANCELLED"

	// ErrCodeMissingPattern: nothing can produce the requested key.
	ErrCodeMissingPattern ErrorCode = "MISSING_PATTERN"

	// ErrCodeRecipeCycle: expansion reached a key already being expanded.
	ErrCodeRecipeCycle ErrorCode = "RECIPE_CYCLE"

	// ErrCodeMissingIngredients: inputs are missing and the strategy does
	// not allow a simulation plan.
	ErrCodeMissingIngredients ErrorCode = "MISSING_INGREDIENTS"

	// ErrCodePanic: the calculator panicked.
	ErrCodePanic ErrorCode = "PANIC"
)

// Error is a structured calculation failure.
type Error struct {
	Code    ErrorCode
	Message string

	// Key is the key being expanded when the failure happened.
	Key ir.Key

	// Missing lists unavailable ingredients for ErrCodeMissingIngredients.
	Missing []ir.Stack
}

func (e *Error) Error() string {
	if !e.Key.IsZero() {
		return fmt.Sprintf("%s: %s (key=%s)", e.Code, e.Message, e.Key)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Errorf builds an *Error.
func Errorf(code ErrorCode, key ir.Key, format string, args ...any) *Error {
	return &Error{Code: code, Key: key, Message: fmt.Sprintf(format, args...)}
}

// CodeOf returns the code of a calculation error, or "" if err is not one.
func CodeOf(err error) ErrorCode {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// IsCancelled reports whether err is a cancellation.
func IsCancelled(err error) bool { return CodeOf(err) == ErrCodeCancelled }

// IsMissingPattern reports whether err says nothing produces the key.
func IsMissingPattern(err error) bool { return CodeOf(err) == ErrCodeMissingPattern }

// IsRecipeCycle reports whether err is a recipe cycle.
func IsRecipeCycle(err error) bool { return CodeOf(err) == ErrCodeRecipeCycle }
