/*
Package store defines the persistence interface for the credit engine and
provides an in-memory implementation for tests and development.

PURPOSE:
  The ledger package computes plans; this package owns applying them.
  A payment and its applications are committed atomically, together with
  the paid-amount bumps on the affected installments. Voiding is the
  mirror image: the payment's voided flag flips and the reversal deltas
  land in the same transaction.

SERIALIZATION CONTRACT:
  The ledger engine assumes "serialize per client": two concurrent
  payments against the same client must not both consume the same
  installment balance. Implementations enforce this with a write lock
  (memory, SQLite) or a serializable transaction (server databases).
  CommitPayment additionally re-validates every candidate balance inside
  the critical section; a plan computed from a stale snapshot fails with
  ErrStaleSnapshot instead of over-applying.

IMPLEMENTATIONS:
  - store.Memory:        In-memory, for tests and dev
  - store/sqlite.Store:  Production SQLite
*/
package store

import (
	"context"
	"errors"
	"time"

	"github.com/vicred/credit-engine/ledger"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrNotFound is returned when a referenced record doesn't exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateDNI is returned when onboarding a client whose DNI is
	// already registered.
	ErrDuplicateDNI = errors.New("dni already registered")

	// ErrStaleSnapshot is returned when a commit-time re-validation finds
	// an installment whose balance no longer covers its planned
	// application. The caller should re-read and re-plan.
	ErrStaleSnapshot = errors.New("allocation plan is stale")
)

// =============================================================================
// STORE INTERFACE
// =============================================================================

type Store interface {
	// Clients and credit accounts.
	SaveClient(ctx context.Context, c ledger.Client) error
	GetClient(ctx context.Context, id string) (*ledger.Client, error)
	GetClientByDNI(ctx context.Context, dni string) (*ledger.Client, error)
	ListClients(ctx context.Context) ([]ledger.Client, error)
	SetClientStatus(ctx context.Context, id string, status ledger.CreditStatus) error
	SaveAccount(ctx context.Context, a ledger.CreditAccount) error
	GetAccount(ctx context.Context, clientID string) (*ledger.CreditAccount, error)

	// Sales. CreateSale persists the sale, its generated installment
	// schedule, and the pagaré batch atomically.
	CreateSale(ctx context.Context, s ledger.Sale, installments []ledger.Installment, notes []ledger.PromissoryNote) (string, error)
	GetSale(ctx context.Context, id string) (*ledger.Sale, error)
	SalesByClient(ctx context.Context, clientID string) ([]ledger.Sale, error)
	ListSales(ctx context.Context) ([]ledger.Sale, error)

	// Installments and promissory notes (read side).
	InstallmentsByClient(ctx context.Context, clientID string) ([]ledger.Installment, error)
	InstallmentsBySale(ctx context.Context, saleID string) ([]ledger.Installment, error)
	NotesBySale(ctx context.Context, saleID string) ([]ledger.PromissoryNote, error)

	// Payments. CommitPayment writes the payment row, its application
	// rows, and the paid-amount bumps in one transaction, re-validating
	// balances first. VoidPayment flips the voided flag exactly once and
	// applies the reversal deltas in the same transaction. ListPayments
	// returns newest first; limit <= 0 means no cap.
	CommitPayment(ctx context.Context, p ledger.Payment, plan ledger.AllocationPlan) (string, error)
	VoidPayment(ctx context.Context, paymentID string, at time.Time, reason string) error
	GetPayment(ctx context.Context, id string) (*ledger.Payment, error)
	ListPayments(ctx context.Context, limit int) ([]ledger.Payment, error)
	ApplicationsByPayment(ctx context.Context, paymentID string) ([]ledger.PaymentApplication, error)
}
