// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// ErrNotFound indicates a wallet, category, budget or transaction
	// referenced by id or name does not exist for the user.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEntry indicates a uniqueness rule was violated, e.g. two
	// budgets sharing the same (category, begin, end) window.
	ErrDuplicateEntry = errors.New("duplicate entry")
	// ErrLimitReached indicates a business-rule cap, e.g. the wallet count
	// limit, was hit at creation time.
	ErrLimitReached = errors.New("limit reached")
	// ErrInconsistentState indicates an aggregate update could not be fully
	// applied and could not be rolled back either. Aggregates may disagree
	// with the underlying transactions until recomputed.
	ErrInconsistentState = errors.New("inconsistent aggregate state")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// UserMessage extracts the human-readable message from an error chain,
// falling back to the raw error text.
func UserMessage(err error) string {
	var userErr *UserError
	if errors.As(err, &userErr) {
		return userErr.UserMessage
	}
	return err.Error()
}

// IsRetryable determines if an error should trigger a retry. NotFound,
// duplicate and limit errors are caller mistakes and never retried.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrDuplicateEntry) ||
		errors.Is(err, ErrLimitReached) {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
