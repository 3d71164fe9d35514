package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/feral-file/chain-estates/internal/domain"
)

// ErrorCode represents a standardized error code
type ErrorCode string

const (
	// Client errors (4xx)
	ErrCodeBadRequest        ErrorCode = "bad_request"
	ErrCodeNotFound          ErrorCode = "not_found"
	ErrCodeValidationFailed  ErrorCode = "validation_failed"
	ErrCodeUnauthorized      ErrorCode = "unauthorized"
	ErrCodeForbidden         ErrorCode = "forbidden"
	ErrCodeConflict          ErrorCode = "state_conflict"
	ErrCodePaymentMismatch   ErrorCode = "payment_mismatch"
	ErrCodeInsufficientFunds ErrorCode = "insufficient_funds"
	ErrCodeTransferFailed    ErrorCode = "transfer_failed"
	ErrCodeRateLimited       ErrorCode = "rate_limited"

	// Server errors (5xx)
	ErrCodeInternalError ErrorCode = "internal_error"
	ErrCodeDatabaseError ErrorCode = "database_error"
	ErrCodeServiceError  ErrorCode = "service_error"
)

// APIError represents a structured API error that carries error code and details
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	jsonErr, _ := json.Marshal(e)
	return string(jsonErr)
}

// ErrorResponse is the envelope every failed request is answered with
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// Error constructors for common error types
func NewBadRequestError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeBadRequest,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewNotFoundError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeNotFound,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewValidationError(details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeValidationFailed,
		Message: "Validation failed",
		Details: strings.Join(details, ", "),
	}
}

func NewUnauthorizedError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeUnauthorized,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewForbiddenError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeForbidden,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewRateLimitedError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeRateLimited,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewInternalError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeInternalError,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewDatabaseError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeDatabaseError,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewServiceError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeServiceError,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

// FromLedgerError maps a ledger failure to its HTTP status and API error.
// Unclassified errors become a 500 without details.
func FromLedgerError(err error) (int, *APIError) {
	var ledgerErr *domain.LedgerError
	if !errors.As(err, &ledgerErr) {
		return http.StatusInternalServerError, NewInternalError("Internal server error")
	}

	details := err.Error()
	switch ledgerErr.Kind {
	case domain.ErrorKindValidation:
		return http.StatusBadRequest, NewValidationError(details)
	case domain.ErrorKindNotFound:
		return http.StatusNotFound, NewNotFoundError(ledgerErr.Reason, details)
	case domain.ErrorKindAuthorization:
		return http.StatusForbidden, NewForbiddenError(ledgerErr.Reason, details)
	case domain.ErrorKindStateConflict:
		return http.StatusConflict, &APIError{Code: ErrCodeConflict, Message: ledgerErr.Reason, Details: details}
	case domain.ErrorKindPaymentMismatch:
		return http.StatusUnprocessableEntity, &APIError{Code: ErrCodePaymentMismatch, Message: ledgerErr.Reason, Details: details}
	case domain.ErrorKindInsufficientFunds:
		return http.StatusPaymentRequired, &APIError{Code: ErrCodeInsufficientFunds, Message: ledgerErr.Reason, Details: details}
	case domain.ErrorKindTransferFailed:
		return http.StatusUnprocessableEntity, &APIError{Code: ErrCodeTransferFailed, Message: ledgerErr.Reason, Details: details}
	default:
		return http.StatusInternalServerError, NewInternalError("Internal server error")
	}
}
