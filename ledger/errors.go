/*
errors.go - Centralized error types for the ledger engine

PURPOSE:
  All error kinds in one place for consistency and discoverability.
  The service layer maps these to HTTP statuses and user-facing messages.

ERROR CATEGORIES:
  1. Input errors - malformed amounts/dates, non-positive payments
  2. Ledger errors - reversal inconsistency, double voiding

USAGE:
  Callers match with errors.Is:

    if errors.Is(err, ledger.ErrAlreadyVoided) {
        // inform the user the payment was already reversed
    }

None of these kinds are retryable: each indicates bad input or a genuine
data inconsistency requiring operator attention.
*/
package ledger

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidInput is returned for malformed amounts or dates supplied
	// to a pure function. Sanitization is the caller's job; this engine
	// never coerces garbage to zero.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidAmount is returned when a payment amount <= 0 reaches the
	// allocator.
	ErrInvalidAmount = errors.New("invalid payment amount")

	// ErrInconsistentLedger is returned when a voiding reversal would drive
	// an installment's paid amount negative. It signals a stale or corrupted
	// snapshot and must be surfaced loudly, never clamped away.
	ErrInconsistentLedger = errors.New("inconsistent ledger")

	// ErrAlreadyVoided is returned when a void is requested twice for the
	// same payment. The second call performs no reversal.
	ErrAlreadyVoided = errors.New("payment already voided")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidAmountError reports a non-positive payment amount.
type InvalidAmountError struct {
	Amount Money
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid payment amount: %s (must be > 0)", e.Amount)
}

func (e *InvalidAmountError) Unwrap() error { return ErrInvalidAmount }

// InconsistentLedgerError reports the installment whose reversal would go
// negative, with the amounts involved so the operator can reconcile.
type InconsistentLedgerError struct {
	InstallmentID string
	Paid          Money
	Reversal      Money
}

func (e *InconsistentLedgerError) Error() string {
	return fmt.Sprintf("inconsistent ledger: reversing %s from installment %s would drive paid amount (%s) negative",
		e.Reversal, e.InstallmentID, e.Paid)
}

func (e *InconsistentLedgerError) Unwrap() error { return ErrInconsistentLedger }

// AlreadyVoidedError reports a double void with the original void timestamp.
type AlreadyVoidedError struct {
	PaymentID string
	VoidedAt  time.Time
}

func (e *AlreadyVoidedError) Error() string {
	return fmt.Sprintf("payment %s already voided at %s", e.PaymentID, e.VoidedAt.Format(time.RFC3339))
}

func (e *AlreadyVoidedError) Unwrap() error { return ErrAlreadyVoided }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrAlreadyVoided)
}

// IsDataError returns true if the error indicates ledger corruption rather
// than bad input.
func IsDataError(err error) bool {
	return errors.Is(err, ErrInconsistentLedger)
}
