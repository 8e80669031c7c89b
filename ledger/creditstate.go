/*
creditstate.go - Per-client credit posture

PURPOSE:
  Derives a client's overall credit state from the account limit and the
  full list of their installments across all sales: total pending debt,
  available credit, next due date, and the delinquency block flag.

THE BLOCK FLAG:
  blocked = any unsettled installment overdue by 30+ days. This is a
  read-model convenience computed from the snapshot; the system of
  record may block a client for additional business reasons, and its
  flag wins on conflict.

LIMIT FALLBACK:
  A client without an assigned limit is treated as limit 0, which makes
  available 0 regardless of pending debt. Staff must assign a limit
  before the client can buy on credit.
*/
package ledger

// =============================================================================
// CREDIT STATE - Derived summary over a client's installment set
// =============================================================================

type CreditState struct {
	ClientID string
	Limit    Money

	TotalPending    Money // sum of balances over unsettled installments
	TotalPaidToDate Money // sum of min(amount, paid); overpayment never inflates this
	PendingCount    int
	SettledCount    int

	NextDueDate         *Date // nil when nothing is pending
	AmountDueAtNextDate Money // balances due exactly on NextDueDate

	Available Money // max(0, limit - totalPending)
	Blocked   bool  // any unsettled installment overdue >= DelinquencyBlockDays
}

// ComputeCreditState aggregates the snapshot. Installments that fail
// validation poison the whole computation with ErrInvalidInput: a credit
// decision must not be derived from a half-readable snapshot.
func ComputeCreditState(clientID string, limit Money, installments []Installment, today Date) (CreditState, error) {
	state := CreditState{
		ClientID:            clientID,
		Limit:               limit.Max(Zero()),
		TotalPending:        Zero(),
		TotalPaidToDate:     Zero(),
		AmountDueAtNextDate: Zero(),
	}

	for _, inst := range installments {
		if err := inst.Validate(); err != nil {
			return CreditState{}, err
		}

		state.TotalPaidToDate = state.TotalPaidToDate.Add(inst.Amount.Min(inst.Paid))

		if inst.IsSettled() {
			state.SettledCount++
			continue
		}
		state.PendingCount++
		state.TotalPending = state.TotalPending.Add(inst.Balance())

		if inst.DaysOverdue(today) >= DelinquencyBlockDays && inst.IsOverdue(today) {
			state.Blocked = true
		}

		if state.NextDueDate == nil || inst.DueDate.Before(*state.NextDueDate) {
			due := inst.DueDate
			state.NextDueDate = &due
		}
	}

	if state.NextDueDate != nil {
		for _, inst := range installments {
			if !inst.IsSettled() && inst.DueDate.Equal(*state.NextDueDate) {
				state.AmountDueAtNextDate = state.AmountDueAtNextDate.Add(inst.Balance())
			}
		}
	}

	state.TotalPending = state.TotalPending.Round()
	state.TotalPaidToDate = state.TotalPaidToDate.Round()
	state.AmountDueAtNextDate = state.AmountDueAtNextDate.Round()
	state.Available = state.Limit.Sub(state.TotalPending).Max(Zero()).Round()
	return state, nil
}
