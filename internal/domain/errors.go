package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies ledger errors for callers
type ErrorKind string

const (
	ErrorKindValidation        ErrorKind = "validation_error"
	ErrorKindNotFound          ErrorKind = "not_found"
	ErrorKindAuthorization     ErrorKind = "authorization_error"
	ErrorKindStateConflict     ErrorKind = "state_conflict"
	ErrorKindPaymentMismatch   ErrorKind = "payment_mismatch"
	ErrorKindInsufficientFunds ErrorKind = "insufficient_funds"
	ErrorKindTransferFailed    ErrorKind = "transfer_failed"
	ErrorKindInternal          ErrorKind = "internal_error"
)

// LedgerError is a classified ledger failure. Sentinels below are compared with errors.Is.
type LedgerError struct {
	Kind   ErrorKind
	Reason string
}

func (e *LedgerError) Error() string {
	return e.Reason
}

var (
	// ErrInvalidPrice is returned when a listing price is not strictly positive
	ErrInvalidPrice = &LedgerError{Kind: ErrorKindValidation, Reason: "price must be greater than zero"}

	// ErrInvalidAmount is returned when an amount cannot be parsed or is negative
	ErrInvalidAmount = &LedgerError{Kind: ErrorKindValidation, Reason: "invalid amount"}

	// ErrInvalidAddress is returned when an identity is not a valid non-zero address
	ErrInvalidAddress = &LedgerError{Kind: ErrorKindValidation, Reason: "invalid address"}

	// ErrInvalidField is returned when a registration field is too long or not valid UTF-8
	ErrInvalidField = &LedgerError{Kind: ErrorKindValidation, Reason: "invalid field"}

	// ErrPropertyNotFound is returned when a property id is unknown
	ErrPropertyNotFound = &LedgerError{Kind: ErrorKindNotFound, Reason: "property not found"}

	// ErrNotOwner is returned when the caller is not the current owner
	ErrNotOwner = &LedgerError{Kind: ErrorKindAuthorization, Reason: "caller is not the owner"}

	// ErrNotForSale is returned when acting on a property that is not listed
	ErrNotForSale = &LedgerError{Kind: ErrorKindStateConflict, Reason: "property is not for sale"}

	// ErrSelfPurchase is returned when the owner tries to buy their own property
	ErrSelfPurchase = &LedgerError{Kind: ErrorKindStateConflict, Reason: "owner cannot buy own property"}

	// ErrPaymentMismatch is returned when the attached payment does not satisfy the price
	ErrPaymentMismatch = &LedgerError{Kind: ErrorKindPaymentMismatch, Reason: "payment does not match price"}

	// ErrInsufficientFunds is returned when the buyer cannot fund the payment
	ErrInsufficientFunds = &LedgerError{Kind: ErrorKindInsufficientFunds, Reason: "insufficient funds"}

	// ErrTransferRejected is returned when the recipient account refuses incoming value
	ErrTransferRejected = &LedgerError{Kind: ErrorKindTransferFailed, Reason: "transfer rejected by recipient"}
)

// Wrap attaches detail to a sentinel while keeping it matchable with errors.Is
func Wrap(sentinel *LedgerError, detail string) error {
	return fmt.Errorf("%w: %s", sentinel, detail)
}

// Wrapf is Wrap with formatting
func Wrapf(sentinel *LedgerError, format string, args ...any) error {
	return Wrap(sentinel, fmt.Sprintf(format, args...))
}

// KindOf returns the kind of a ledger error, or ErrorKindInternal for anything else
func KindOf(err error) ErrorKind {
	var ledgerErr *LedgerError
	if errors.As(err, &ledgerErr) {
		return ledgerErr.Kind
	}
	return ErrorKindInternal
}
