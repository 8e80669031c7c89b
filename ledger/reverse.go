/*
reverse.go - Payment voiding reconciler

PURPOSE:
  Computes the exact reversal of a committed allocation when a payment is
  voided. Each application produces a delta of -applied on its
  installment's paid amount.

THE NEGATIVE-PAID GUARD:
  Applying a reversal must never drive an installment's paid amount below
  zero. If it would (the snapshot is stale, or the installment's paid
  amount was reduced through some other path), the reconciler fails with
  ErrInconsistentLedger instead of clamping. Clamping would corrupt the
  audit trail: the books would no longer explain themselves.
*/
package ledger

// ReversalDelta is the paid-amount adjustment for one installment.
// Delta is always negative (or zero for an empty application).
type ReversalDelta struct {
	InstallmentID string
	Delta         Money
}

// Reverse computes the deltas that undo an allocation. Pure arithmetic;
// validation against the live snapshot happens in ApplyReversal.
func Reverse(applications []PaymentApplication) []ReversalDelta {
	deltas := make([]ReversalDelta, 0, len(applications))
	for _, app := range applications {
		deltas = append(deltas, ReversalDelta{
			InstallmentID: app.InstallmentID,
			Delta:         app.Applied.Neg(),
		})
	}
	return deltas
}

// ApplyReversal applies the deltas to the snapshot and returns the updated
// installments. Every delta must land on an installment in the snapshot
// with enough paid amount to absorb it; otherwise ErrInconsistentLedger.
//
// SettleEpsilon tolerance applies: a residue below a cent left over from
// float-era rows does not count as going negative.
func ApplyReversal(installments []Installment, deltas []ReversalDelta) ([]Installment, error) {
	byID := make(map[string]int, len(installments))
	for idx, inst := range installments {
		byID[inst.ID] = idx
	}

	updated := make([]Installment, len(installments))
	copy(updated, installments)

	for _, d := range deltas {
		idx, ok := byID[d.InstallmentID]
		if !ok {
			return nil, &InconsistentLedgerError{
				InstallmentID: d.InstallmentID,
				Paid:          Zero(),
				Reversal:      d.Delta.Neg(),
			}
		}
		inst := updated[idx]
		newPaid := inst.Paid.Add(d.Delta).Round()
		if newPaid.IsNegative() && !newPaid.Neg().WithinEpsilon() {
			return nil, &InconsistentLedgerError{
				InstallmentID: inst.ID,
				Paid:          inst.Paid,
				Reversal:      d.Delta.Neg(),
			}
		}
		inst.Paid = newPaid.Max(Zero())
		if !inst.IsSettled() && inst.Status == StatusPagada {
			// The reversal reopened the installment; the textual status
			// must not keep claiming it is paid.
			inst.Status = StatusPendiente
		}
		updated[idx] = inst
	}
	return updated, nil
}

// ApplyPlan applies an allocation plan to the snapshot, the forward
// counterpart of ApplyReversal. Reverse-then-reapply restores every
// installment's paid amount exactly (the round-trip law).
func ApplyPlan(installments []Installment, plan AllocationPlan) []Installment {
	byID := make(map[string]int, len(installments))
	for idx, inst := range installments {
		byID[inst.ID] = idx
	}
	updated := make([]Installment, len(installments))
	copy(updated, installments)

	for _, app := range plan.Applications {
		if idx, ok := byID[app.InstallmentID]; ok {
			updated[idx] = updated[idx].applyPayment(app.Applied)
		}
	}
	return updated
}
