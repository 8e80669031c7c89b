/*
allocate.go - FIFO payment allocation planner

PURPOSE:
  Computes how a collected payment spreads across a client's open
  installments. This is a PLAN: the engine never writes anything. The
  caller applies the plan inside the same transaction that persists the
  payment row, after re-validating each candidate's balance is still > 0.

CANDIDATE SELECTION:
  Invoice-scoped:  the invoice's open installments, ascending by nro.
  General (FIFO):  ALL of the client's open installments across all
                   sales, ascending by due date, ties broken by nro.
                   Oldest obligation first - the literal meaning of FIFO
                   as used throughout the collection flow.

OVERPAYMENT:
  A payment larger than everything open is NOT an error. The surplus is
  returned as UnallocatedRemainder and must be surfaced to the caller,
  never dropped or forced beyond an installment's balance.

DETERMINISM:
  Same snapshot + same amount = same plan. Required for reconciliation
  and audit.
*/
package ledger

import "sort"

// =============================================================================
// ALLOCATION PLAN
// =============================================================================

// Application is one (installment, applied amount) pair of a plan.
type Application struct {
	InstallmentID string
	Applied       Money
}

// AllocationPlan is the result of running the planner. The conservation
// law holds: sum(Applied) + UnallocatedRemainder == payment amount.
type AllocationPlan struct {
	Applications         []Application
	UnallocatedRemainder Money
}

// Total returns the allocated portion of the plan.
func (p AllocationPlan) Total() Money {
	total := Zero()
	for _, a := range p.Applications {
		total = total.Add(a.Applied)
	}
	return total.Round()
}

// Scope restricts allocation to one invoice, or none for a general payment.
type Scope struct {
	SaleID string
}

func InvoiceScope(saleID string) Scope { return Scope{SaleID: saleID} }
func GeneralScope() Scope              { return Scope{} }

// =============================================================================
// PLANNER
// =============================================================================

// Allocate walks the eligible installments in FIFO order and spreads the
// payment across them. amount <= 0 fails with ErrInvalidAmount. An empty
// candidate set is not an error: the plan is empty and the whole amount
// comes back as UnallocatedRemainder (a general payment with nothing
// pending).
func Allocate(amount Money, installments []Installment, scope Scope) (AllocationPlan, error) {
	amount = amount.Round()
	if !amount.IsPositive() {
		return AllocationPlan{}, &InvalidAmountError{Amount: amount}
	}

	candidates, err := selectCandidates(installments, scope)
	if err != nil {
		return AllocationPlan{}, err
	}

	plan := AllocationPlan{UnallocatedRemainder: amount}
	remaining := amount
	for _, inst := range candidates {
		if remaining.IsZero() {
			break
		}
		applied := remaining.Min(inst.Balance()).Round()
		if !applied.IsPositive() {
			continue
		}
		plan.Applications = append(plan.Applications, Application{
			InstallmentID: inst.ID,
			Applied:       applied,
		})
		remaining = remaining.Sub(applied).Round()
	}

	plan.UnallocatedRemainder = remaining
	return plan, nil
}

// selectCandidates filters to open installments and orders them per scope.
func selectCandidates(installments []Installment, scope Scope) ([]Installment, error) {
	var candidates []Installment
	for _, inst := range installments {
		if err := inst.Validate(); err != nil {
			return nil, err
		}
		if scope.SaleID != "" && inst.SaleID != scope.SaleID {
			continue
		}
		if inst.IsSettled() || !inst.Balance().IsPositive() {
			continue
		}
		candidates = append(candidates, inst)
	}

	if scope.SaleID != "" {
		sort.SliceStable(candidates, func(a, b int) bool {
			return candidates[a].Nro < candidates[b].Nro
		})
		return candidates, nil
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		if c := candidates[a].DueDate.Compare(candidates[b].DueDate); c != 0 {
			return c < 0
		}
		return candidates[a].Nro < candidates[b].Nro
	})
	return candidates, nil
}
