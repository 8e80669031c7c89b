package ledger

import "time"

// =============================================================================
// PAYMENT (pago) - A collected amount, immutable except for voiding fields
// =============================================================================

type PaymentMethod string

const (
	MethodEfectivo      PaymentMethod = "EFECTIVO"
	MethodTransferencia PaymentMethod = "TRANSFERENCIA"
	MethodMixto         PaymentMethod = "MIXTO"
	MethodOtro          PaymentMethod = "OTRO"
)

// ValidMethod reports whether the method is one of the known kinds.
func ValidMethod(m PaymentMethod) bool {
	switch m {
	case MethodEfectivo, MethodTransferencia, MethodMixto, MethodOtro:
		return true
	}
	return false
}

type Payment struct {
	ID        string
	ClientID  string
	SaleID    string // empty for a general (non-invoice-scoped) collection
	Amount    Money
	Method    PaymentMethod
	Reference string
	CreatedAt time.Time

	// Voiding fields transition exactly once from not-voided to voided.
	Voided       bool
	VoidedAt     time.Time
	VoidedReason string
}

// MarkVoided returns a copy with the voiding fields set. Voiding twice
// fails with AlreadyVoidedError; a retrying caller must be told the void
// already happened rather than silently succeeding.
func (p Payment) MarkVoided(at time.Time, reason string) (Payment, error) {
	if p.Voided {
		return p, &AlreadyVoidedError{PaymentID: p.ID, VoidedAt: p.VoidedAt}
	}
	p.Voided = true
	p.VoidedAt = at
	p.VoidedReason = reason
	return p, nil
}

// PaymentApplication links one payment to one installment with the amount
// applied. Written atomically with the payment; logically reversed when
// the payment is voided.
type PaymentApplication struct {
	PaymentID     string
	InstallmentID string
	Applied       Money
}

// Applications materializes an allocation plan into persistent rows for
// the given payment.
func (p AllocationPlan) ToApplications(paymentID string) []PaymentApplication {
	apps := make([]PaymentApplication, 0, len(p.Applications))
	for _, a := range p.Applications {
		apps = append(apps, PaymentApplication{
			PaymentID:     paymentID,
			InstallmentID: a.InstallmentID,
			Applied:       a.Applied,
		})
	}
	return apps
}
