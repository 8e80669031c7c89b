/*
installment.go - Installment (cuota) model and derived state

PURPOSE:
  Represents one installment of a credit sale and exposes its derived
  balance and lifecycle state. Everything here is a pure function over an
  immutable snapshot.

THE STATUS vs BALANCE RULE:
  The textual status column and the numeric balance can disagree
  transiently (the status is written by the system of record and may lag
  behind payment application). The numeric balance is the primary signal:
  an installment is settled when its balance is within SettleEpsilon OR
  its status says PAGADA. Absence of both means pending. The textual
  status is never trusted over the balance when they disagree.

SEE ALSO:
  - sale.go: Per-invoice aggregation
  - creditstate.go: Per-client aggregation
*/
package ledger

import "fmt"

// =============================================================================
// INSTALLMENT - One scheduled payment unit of a credit sale
// =============================================================================

type InstallmentStatus string

const (
	StatusPendiente InstallmentStatus = "PENDIENTE"
	StatusVencida   InstallmentStatus = "VENCIDA"
	StatusPagada    InstallmentStatus = "PAGADA"
)

// DelinquencyBlockDays is the overdue threshold beyond which a client is
// blocked ("BLOQUEADO por mora +30").
const DelinquencyBlockDays = 30

type Installment struct {
	ID       string
	SaleID   string // empty for general, non-invoice-scoped entries
	ClientID string
	Nro      int // 1-based, unique within a sale
	DueDate  Date
	Amount   Money // importe
	Paid     Money // pagado, monotonically non-decreasing except on voiding
	Status   InstallmentStatus
}

// Validate rejects snapshots that cannot be reasoned about: negative
// amounts or a missing due date fail with ErrInvalidInput.
func (i Installment) Validate() error {
	if i.Amount.IsNegative() {
		return fmt.Errorf("%w: installment %s has negative amount %s", ErrInvalidInput, i.ID, i.Amount)
	}
	if i.Paid.IsNegative() {
		return fmt.Errorf("%w: installment %s has negative paid amount %s", ErrInvalidInput, i.ID, i.Paid)
	}
	if i.DueDate.IsZero() {
		return fmt.Errorf("%w: installment %s has no due date", ErrInvalidInput, i.ID)
	}
	return nil
}

// Balance returns amount - paid, rounded and floored at zero.
func (i Installment) Balance() Money {
	b := i.Amount.Sub(i.Paid).Round()
	if b.IsNegative() {
		return Zero()
	}
	return b
}

// IsSettled reports whether the installment counts as paid. Either signal
// is authoritative for "paid": a balance within SettleEpsilon or a PAGADA
// status. Absence of both means pending.
func (i Installment) IsSettled() bool {
	return i.Amount.Sub(i.Paid).WithinEpsilon() || i.Status == StatusPagada
}

// IsOverdue reports whether the installment is unsettled and past due.
func (i Installment) IsOverdue(today Date) bool {
	return !i.IsSettled() && i.DueDate.Before(today)
}

// DaysOverdue returns how many days past due the installment is, floored
// at zero. Only meaningful when IsOverdue is true.
func (i Installment) DaysOverdue(today Date) int {
	d := DaysBetween(i.DueDate, today)
	if d < 0 {
		return 0
	}
	return d
}

// applyPayment returns a copy with the paid amount increased. Used by the
// reconciler round-trip and by stores replaying allocation plans.
func (i Installment) applyPayment(amount Money) Installment {
	i.Paid = i.Paid.Add(amount).Round()
	return i
}
