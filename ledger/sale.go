/*
sale.go - Credit sale (venta a crédito) aggregate

PURPOSE:
  Groups a client's installments by sale and derives per-invoice
  summaries: the open balance of an invoice and which invoices are
  eligible to receive an invoice-scoped payment.

ORDERING DECISION:
  Two orderings for "which open invoice to offer first" existed in the
  field: ascending by sale date and descending by open balance. Both are
  supported as explicit strategies; OrderByDateAsc is the default because
  it is predictable for collectors (oldest invoice first). An
  implementation must pick one strategy and stick with it.
*/
package ledger

import "sort"

// =============================================================================
// SALE - One credit purchase generating a fixed number of installments
// =============================================================================

type Sale struct {
	ID               string
	ClientID         string
	Date             Date
	Total            Money
	DownPayment      Money // anticipo
	InstallmentCount int
	InvoiceNumber    string
	MerchantID       string
	FirstDueDate     Date
	Note             string
}

// Financed returns the amount that generates installments.
func (s Sale) Financed() Money {
	return s.Total.Sub(s.DownPayment).Round()
}

// Validate rejects sales that cannot generate a schedule.
func (s Sale) Validate() error {
	if s.Total.IsNegative() || s.DownPayment.IsNegative() {
		return errInvalidSale(s.ID, "negative amount")
	}
	if s.DownPayment.GreaterThan(s.Total) {
		return errInvalidSale(s.ID, "down payment exceeds total")
	}
	if s.InstallmentCount < 1 {
		return errInvalidSale(s.ID, "installment count must be >= 1")
	}
	if s.FirstDueDate.IsZero() {
		return errInvalidSale(s.ID, "missing first due date")
	}
	return nil
}

// =============================================================================
// PER-INVOICE AGGREGATION
// =============================================================================

// OpenBalance sums the balances of the installments belonging to the sale.
// A sale with zero open balance is fully paid ("cancelada") and must be
// excluded from any apply-payment selection list.
func OpenBalance(saleID string, installments []Installment) Money {
	total := Zero()
	for _, inst := range installments {
		if inst.SaleID != saleID {
			continue
		}
		total = total.Add(inst.Balance())
	}
	return total.Round()
}

// SaleSummary pairs a sale with its derived open balance.
type SaleSummary struct {
	Sale        Sale
	OpenBalance Money
}

// EligibilityOrder selects how payment-eligible sales are sorted.
type EligibilityOrder int

const (
	// OrderByDateAsc lists the oldest invoice first. Default.
	OrderByDateAsc EligibilityOrder = iota
	// OrderByBalanceDesc lists the largest open balance first.
	OrderByBalanceDesc
)

// PaymentEligibleSales returns the sales with open balance > 0, ordered by
// the given strategy. Ties fall back to sale ID so the order is stable.
func PaymentEligibleSales(sales []Sale, installments []Installment, order EligibilityOrder) []SaleSummary {
	var eligible []SaleSummary
	for _, s := range sales {
		open := OpenBalance(s.ID, installments)
		if open.IsPositive() {
			eligible = append(eligible, SaleSummary{Sale: s, OpenBalance: open})
		}
	}

	sort.SliceStable(eligible, func(a, b int) bool {
		x, y := eligible[a], eligible[b]
		switch order {
		case OrderByBalanceDesc:
			if !x.OpenBalance.Equal(y.OpenBalance) {
				return x.OpenBalance.GreaterThan(y.OpenBalance)
			}
		default:
			if c := x.Sale.Date.Compare(y.Sale.Date); c != 0 {
				return c < 0
			}
		}
		return x.Sale.ID < y.Sale.ID
	})
	return eligible
}

func errInvalidSale(id, why string) error {
	return &invalidSaleError{ID: id, Why: why}
}

type invalidSaleError struct {
	ID  string
	Why string
}

func (e *invalidSaleError) Error() string { return "invalid sale " + e.ID + ": " + e.Why }
func (e *invalidSaleError) Unwrap() error { return ErrInvalidInput }
