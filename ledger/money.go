/*
Package ledger implements the installment ledger and allocation engine.

PURPOSE:
  This package contains the pure computation core of the credit-sales
  system: installment balances, per-invoice and per-client credit state,
  FIFO payment allocation, and the reversal arithmetic used when a
  payment is voided.

KEY CONCEPTS IN THIS FILE (money.go):
  - Money: A two-decimal currency amount backed by decimal.Decimal
  - SettleEpsilon: The tolerance under which a balance counts as settled

DESIGN PRINCIPLES:
  1. Purity: Every function operates on an immutable snapshot supplied
     by the caller. No I/O, no clocks, no ambient state.
  2. Precision: decimal.Decimal everywhere; float64 only at the API edge.
  3. Fail fast: Malformed input is rejected, never coerced to zero.

USAGE:
  amount, err := ledger.ParseMoney("1500.50")
  plan, err := ledger.Allocate(amount, installments, ledger.GeneralScope())

SEE ALSO:
  - installment.go: Installment model and derived balance
  - allocate.go: FIFO allocation planner
  - reverse.go: Payment voiding reconciler
*/
package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Two-decimal currency amount
// =============================================================================

// Money is a currency amount. All stored and compared amounts are rounded
// to two decimals with round-half-away-from-zero so that many small
// allocations cannot accumulate drift.
type Money struct {
	Value decimal.Decimal
}

// SettleEpsilon is the residual balance under which an installment counts
// as settled. Payment rows written by earlier revisions of the system were
// float-derived, so a sub-cent residue must not keep an installment open.
var SettleEpsilon = decimal.NewFromFloat(0.009)

func NewMoney(value float64) Money {
	return Money{Value: decimal.NewFromFloat(value).Round(2)}
}

func NewMoneyFromInt(value int64) Money {
	return Money{Value: decimal.NewFromInt(value)}
}

func Zero() Money { return Money{Value: decimal.Zero} }

// ParseMoney parses a decimal string. Malformed input fails with
// ErrInvalidInput; callers must not fall back to zero.
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: malformed amount %q", ErrInvalidInput, s)
	}
	return Money{Value: d.Round(2)}, nil
}

// Round normalizes to two decimals, half away from zero.
func (m Money) Round() Money { return Money{Value: m.Value.Round(2)} }

func (m Money) Add(o Money) Money        { return Money{Value: m.Value.Add(o.Value)} }
func (m Money) Sub(o Money) Money        { return Money{Value: m.Value.Sub(o.Value)} }
func (m Money) Neg() Money               { return Money{Value: m.Value.Neg()} }
func (m Money) IsZero() bool             { return m.Value.IsZero() }
func (m Money) IsNegative() bool         { return m.Value.IsNegative() }
func (m Money) IsPositive() bool         { return m.Value.IsPositive() }
func (m Money) LessThan(o Money) bool    { return m.Value.LessThan(o.Value) }
func (m Money) GreaterThan(o Money) bool { return m.Value.GreaterThan(o.Value) }
func (m Money) Equal(o Money) bool       { return m.Value.Equal(o.Value) }

func (m Money) Min(o Money) Money {
	if m.LessThan(o) {
		return m
	}
	return o
}

func (m Money) Max(o Money) Money {
	if m.GreaterThan(o) {
		return m
	}
	return o
}

// WithinEpsilon reports whether the amount is at or below SettleEpsilon.
// Negative amounts are within epsilon by definition (already overshot zero).
func (m Money) WithinEpsilon() bool {
	return m.Value.LessThanOrEqual(SettleEpsilon)
}

// Float64 is for DTO serialization only; domain logic never leaves decimal.
func (m Money) Float64() float64 {
	f, _ := m.Value.Float64()
	return f
}

func (m Money) String() string { return m.Value.StringFixed(2) }

// MarshalJSON renders the amount as a plain two-decimal JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Value.StringFixed(2)), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	v, err := decimal.NewFromString(strings.Trim(string(data), `"`))
	if err != nil {
		return fmt.Errorf("%w: malformed amount %s", ErrInvalidInput, data)
	}
	m.Value = v.Round(2)
	return nil
}
