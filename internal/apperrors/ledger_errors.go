package apperrors

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// UnbalancedEntryError is returned when the debit and credit totals of an entry differ
// by more than the rounding tolerance.
type UnbalancedEntryError struct {
	DebitTotal  decimal.Decimal
	CreditTotal decimal.Decimal
}

func (e *UnbalancedEntryError) Error() string {
	return fmt.Sprintf("entry is unbalanced: debits %s, credits %s", e.DebitTotal.StringFixed(2), e.CreditTotal.StringFixed(2))
}

func (e *UnbalancedEntryError) Unwrap() error { return ErrValidation }

// MissingRequiredFieldError names the field that was empty.
type MissingRequiredFieldError struct {
	Field string
}

func (e *MissingRequiredFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

func (e *MissingRequiredFieldError) Unwrap() error { return ErrValidation }

// MissingTenantError is returned when an operation is attempted without a company scope.
type MissingTenantError struct{}

func (e *MissingTenantError) Error() string { return "company id is required" }

func (e *MissingTenantError) Unwrap() error { return ErrValidation }

// DuplicateCodeError is returned when an account code already exists for the company.
type DuplicateCodeError struct {
	Code string
}

func (e *DuplicateCodeError) Error() string {
	return fmt.Sprintf("account code %q already exists", e.Code)
}

func (e *DuplicateCodeError) Unwrap() error { return ErrDuplicate }

// AccountInUseError is returned for deletes or type changes on an account referenced by journal lines.
type AccountInUseError struct {
	AccountID string
	LineCount int64
}

func (e *AccountInUseError) Error() string {
	return fmt.Sprintf("account %s is referenced by %d journal lines", e.AccountID, e.LineCount)
}

func (e *AccountInUseError) Unwrap() error { return ErrConflict }

// AccountNotFoundError is returned when an account does not exist or is not visible to the company.
type AccountNotFoundError struct {
	AccountID string
}

func (e *AccountNotFoundError) Error() string {
	return fmt.Sprintf("account %s not found", e.AccountID)
}

func (e *AccountNotFoundError) Unwrap() error { return ErrNotFound }

// EntryNotFoundError is returned when a journal entry does not exist for the company.
type EntryNotFoundError struct {
	EntryID string
}

func (e *EntryNotFoundError) Error() string {
	return fmt.Sprintf("journal entry %s not found", e.EntryID)
}

func (e *EntryNotFoundError) Unwrap() error { return ErrNotFound }

// InvalidStateTransitionError is returned when an entry cannot move from its current status.
type InvalidStateTransitionError struct {
	EntryID string
	From    string
	To      string
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("journal entry %s cannot move from %s to %s", e.EntryID, e.From, e.To)
}

func (e *InvalidStateTransitionError) Unwrap() error { return ErrConflict }

// AlreadyReversedError is returned when reversing an entry that is already REVERSED.
type AlreadyReversedError struct {
	EntryID      string
	ReversedByID string
}

func (e *AlreadyReversedError) Error() string {
	return fmt.Sprintf("journal entry %s is already reversed by %s", e.EntryID, e.ReversedByID)
}

func (e *AlreadyReversedError) Unwrap() error { return ErrConflict }

// NotPostedError is returned when reversing an entry that was never posted.
type NotPostedError struct {
	EntryID string
}

func (e *NotPostedError) Error() string {
	return fmt.Sprintf("journal entry %s is not posted", e.EntryID)
}

func (e *NotPostedError) Unwrap() error { return ErrConflict }
