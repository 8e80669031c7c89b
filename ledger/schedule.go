/*
schedule.go - Installment schedule and promissory-note generation

PURPOSE:
  Generates the installment schedule and the matching promissory-note
  (pagaré) batch when a sale is created. The financed amount is split
  into equal two-decimal installments; the last installment absorbs the
  rounding remainder so the schedule sums exactly to the financed amount.

EXAMPLE:
  Financed 1000.00 over 3 installments:
    #1 333.33  #2 333.33  #3 333.34   (sum = 1000.00)

  Due dates run monthly from the sale's first due date.
*/
package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// GenerateSchedule builds the installment list for a sale. IDs are left
// empty; the storage layer assigns them on persist.
func GenerateSchedule(sale Sale) ([]Installment, error) {
	if err := sale.Validate(); err != nil {
		return nil, err
	}

	financed := sale.Financed()
	n := sale.InstallmentCount
	per := Money{Value: financed.Value.Div(decimal.NewFromInt(int64(n))).Round(2)}

	installments := make([]Installment, 0, n)
	allocated := Zero()
	for nro := 1; nro <= n; nro++ {
		amount := per
		if nro == n {
			// Last installment absorbs the rounding remainder.
			amount = financed.Sub(allocated).Round()
		}
		if amount.IsNegative() {
			return nil, fmt.Errorf("%w: schedule for sale %s produced a negative installment", ErrInvalidInput, sale.ID)
		}
		installments = append(installments, Installment{
			SaleID:   sale.ID,
			ClientID: sale.ClientID,
			Nro:      nro,
			DueDate:  sale.FirstDueDate.AddMonths(nro - 1),
			Amount:   amount,
			Paid:     Zero(),
			Status:   StatusPendiente,
		})
		allocated = allocated.Add(amount)
	}
	return installments, nil
}

// =============================================================================
// PROMISSORY NOTES - One pagaré per installment, generated at sale creation
// =============================================================================

// PromissoryNote mirrors one installment's amount and due date. Notes are
// read-only after generation; they play no part in allocation.
type PromissoryNote struct {
	SaleID   string
	ClientID string
	Nro      int
	Amount   Money
	DueDate  Date
}

// GenerateNotes builds the pagaré batch for a freshly generated schedule.
func GenerateNotes(sale Sale, installments []Installment) []PromissoryNote {
	notes := make([]PromissoryNote, 0, len(installments))
	for _, inst := range installments {
		if inst.SaleID != sale.ID {
			continue
		}
		notes = append(notes, PromissoryNote{
			SaleID:   sale.ID,
			ClientID: sale.ClientID,
			Nro:      inst.Nro,
			Amount:   inst.Amount,
			DueDate:  inst.DueDate,
		})
	}
	return notes
}
