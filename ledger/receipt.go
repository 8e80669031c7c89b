package ledger

// =============================================================================
// RECEIPT PROJECTION - Numeric facts for document rendering
// =============================================================================

// ReceiptLine is one row of a payment receipt: which installment received
// money and how much. Rendering (print layout, templating) happens outside
// the engine; this is only the numbers a renderer needs.
type ReceiptLine struct {
	InstallmentNro int
	DueDate        Date
	Amount         Money
	Applied        Money
}

// ReceiptLines projects a committed set of applications onto the
// installment snapshot. Applications referencing installments missing from
// the snapshot are skipped; a receipt is a best-effort projection, not a
// consistency check (the reconciler owns consistency).
func ReceiptLines(applications []PaymentApplication, installments []Installment) []ReceiptLine {
	byID := make(map[string]Installment, len(installments))
	for _, inst := range installments {
		byID[inst.ID] = inst
	}

	lines := make([]ReceiptLine, 0, len(applications))
	for _, app := range applications {
		inst, ok := byID[app.InstallmentID]
		if !ok {
			continue
		}
		lines = append(lines, ReceiptLine{
			InstallmentNro: inst.Nro,
			DueDate:        inst.DueDate,
			Amount:         inst.Amount,
			Applied:        app.Applied,
		})
	}
	return lines
}
