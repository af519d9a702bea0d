package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrInternal indicates an unexpected failure that is not the caller's fault.
var ErrInternal = errors.New("internal error")

// Business-rule violations. These are terminal: they are detected before any
// mutation, leave all state untouched and must not be retried.
var (
	ErrUnbalancedEntry             = errors.New("journal entry debits and credits do not balance")
	ErrUnknownAccount              = errors.New("account is unknown or inactive")
	ErrUnknownCustomer             = errors.New("customer is unknown or inactive")
	ErrUnknownVendor               = errors.New("vendor is unknown or inactive")
	ErrEntryNotFound               = errors.New("journal entry not found")
	ErrAlreadyReversed             = errors.New("journal entry has already been reversed")
	ErrInvalidStateTransition      = errors.New("invalid state transition")
	ErrPaymentExceedsBalance       = errors.New("payment exceeds balance due")
	ErrCreditExceeded              = errors.New("amount exceeds the credit's remaining balance")
	ErrOwnerMismatch               = errors.New("credit owner does not match the target document's owner")
	ErrCannotVoidWithPayments      = errors.New("cannot void a document with payments or credits applied")
	ErrCannotVoidClearedCheck      = errors.New("cannot void a cleared check")
	ErrCheckPrintingDisabled       = errors.New("check printing is disabled for this bank account")
	ErrInsufficientFunds           = errors.New("insufficient funds")
	ErrAchNotEnabled               = errors.New("ACH is not enabled for this bank account")
	ErrPOMustBeReceived            = errors.New("purchase order must be received before conversion")
	ErrAlreadyConverted            = errors.New("purchase order has already been converted")
	ErrReconciliationAlreadyActive = errors.New("a reconciliation is already in progress for this bank account")
	ErrScopeNotFound               = errors.New("sequence scope was never initialized")
)

// ErrResourceBusy is the only retryable error kind. It is produced solely by
// the concurrency coordinator (or lock-wait timeouts in storage), never by
// business logic.
var ErrResourceBusy = errors.New("resource busy, retry later")

// kinds maps sentinel errors to the stable machine-readable kind reported to
// API callers.
var kinds = map[error]string{
	ErrNotFound:                    "NotFound",
	ErrValidation:                  "Validation",
	ErrDuplicate:                   "Duplicate",
	ErrInternal:                    "Internal",
	ErrUnbalancedEntry:             "UnbalancedEntry",
	ErrUnknownAccount:              "UnknownAccount",
	ErrUnknownCustomer:             "UnknownCustomer",
	ErrUnknownVendor:               "UnknownVendor",
	ErrEntryNotFound:               "EntryNotFound",
	ErrAlreadyReversed:             "AlreadyReversed",
	ErrInvalidStateTransition:      "InvalidStateTransition",
	ErrPaymentExceedsBalance:       "PaymentExceedsBalance",
	ErrCreditExceeded:              "CreditExceeded",
	ErrOwnerMismatch:               "OwnerMismatch",
	ErrCannotVoidWithPayments:      "CannotVoidWithPayments",
	ErrCannotVoidClearedCheck:      "CannotVoidClearedCheck",
	ErrCheckPrintingDisabled:       "CheckPrintingDisabled",
	ErrInsufficientFunds:           "InsufficientFunds",
	ErrAchNotEnabled:               "AchNotEnabled",
	ErrPOMustBeReceived:            "POMustBeReceived",
	ErrAlreadyConverted:            "AlreadyConverted",
	ErrReconciliationAlreadyActive: "ReconciliationAlreadyActive",
	ErrScopeNotFound:               "ScopeNotFound",
	ErrResourceBusy:                "ResourceBusy",
}

// Kind returns the stable error kind for err, or "Internal" when the error
// does not wrap a known sentinel.
func Kind(err error) string {
	for sentinel, kind := range kinds {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return "Internal"
}

// IsBusinessError reports whether err is a terminal business-rule rejection
// (as opposed to not-found, busy or internal failures).
func IsBusinessError(err error) bool {
	switch Kind(err) {
	case "NotFound", "Internal", "ResourceBusy":
		return false
	default:
		return true
	}
}

// AppError wraps a lower-level error with an HTTP-ish status code and a
// message safe to log. Repositories use it for storage failures.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError wrapping err.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError creates an AppError that satisfies errors.Is(err, ErrNotFound).
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: 404, Message: message, Err: ErrNotFound}
}
