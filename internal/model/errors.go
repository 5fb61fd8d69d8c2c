package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/theirongolddev/grana/internal/money"
)

// Sentinel errors. Every typed error below unwraps to exactly one of them,
// so callers can branch with errors.Is and read details with errors.As.
var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInsufficientCredit = errors.New("insufficient credit")
	ErrIntegrity          = errors.New("integrity violation")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid is shorthand for building a ValidationError.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// SameAccountError is returned for a transfer whose source and destination match.
type SameAccountError struct {
	AccountID uuid.UUID
}

func (e *SameAccountError) Error() string {
	return fmt.Sprintf("transfer source and destination are the same account (%s)", e.AccountID)
}

func (e *SameAccountError) Unwrap() error { return ErrValidation }

// InsufficientFundsError is returned when a debit exceeds an account balance.
type InsufficientFundsError struct {
	AccountID uuid.UUID
	Balance   money.Amount
	Amount    money.Amount
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds in account %s: balance %s, debit %s", e.AccountID, e.Balance, e.Amount)
}

func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }

// InsufficientCreditError is returned when a charge exceeds a card's available limit.
type InsufficientCreditError struct {
	CardID    uuid.UUID
	Available money.Amount
	Amount    money.Amount
}

func (e *InsufficientCreditError) Error() string {
	return fmt.Sprintf("insufficient credit on card %s: available %s, charge %s", e.CardID, e.Available, e.Amount)
}

func (e *InsufficientCreditError) Unwrap() error { return ErrInsufficientCredit }

// NotFoundError names the missing entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NotFound builds a NotFoundError for any id type with a String form.
func NotFound(entity string, id fmt.Stringer) error {
	return &NotFoundError{Entity: entity, ID: id.String()}
}

// IntegrityError wraps a uniqueness or foreign-key violation raised by the store.
type IntegrityError struct {
	Constraint string
	Err        error
}

func (e *IntegrityError) Error() string {
	if e.Err == nil {
		return "integrity violation: " + e.Constraint
	}
	return fmt.Sprintf("integrity violation (%s): %v", e.Constraint, e.Err)
}

// Is lets errors.Is match ErrIntegrity while Unwrap exposes the driver error.
func (e *IntegrityError) Is(target error) bool { return target == ErrIntegrity }

func (e *IntegrityError) Unwrap() error { return e.Err }
