package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates that an optimistic write lost against a concurrent writer
// and could not be committed within the retry budget.
var ErrConflict = errors.New("concurrent modification conflict")

// ErrInsufficientFunds indicates that a posting would take an account below zero
// while its kind forbids negative balances.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrPartialTransfer marks a two-leg posting whose second leg failed after the first committed.
var ErrPartialTransfer = errors.New("partial transfer failure")

// ErrInconsistentState marks a lifecycle operation that left ledgers in a known
// but unintended state which needs reconciliation.
var ErrInconsistentState = errors.New("recoverable ledger inconsistency")

// ErrInternal is used for infrastructure failures that carry no domain meaning.
var ErrInternal = errors.New("internal error")

var (
	// ErrAccountNotFound is a not-found error scoped to accounts.
	ErrAccountNotFound = fmt.Errorf("account %w", ErrNotFound)
	// ErrTransactionNotFound is a not-found error scoped to transaction records.
	ErrTransactionNotFound = fmt.Errorf("transaction %w", ErrNotFound)
	// ErrInvalidTransition is returned for a status change the lifecycle does not allow.
	ErrInvalidTransition = fmt.Errorf("invalid status transition: %w", ErrValidation)
	// ErrAccountInactive is returned when a new posting targets an inactive account.
	ErrAccountInactive = fmt.Errorf("account is inactive: %w", ErrValidation)
)

// AppError carries an HTTP-ish status code alongside an underlying error.
// Repositories use it for infrastructure failures (begin/commit/rollback).
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError wraps err with a code and message.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes both ErrInternal and the wrapped cause.
func (e *AppError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInternal}
	}
	return []error{ErrInternal, e.Err}
}
