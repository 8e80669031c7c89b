package ledger_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vicred/credit-engine/ledger"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func money(v float64) ledger.Money { return ledger.NewMoney(v) }

func date(y int, m time.Month, d int) ledger.Date { return ledger.NewDate(y, m, d) }

func openInst(id, saleID string, nro int, due ledger.Date, amount, paid float64) ledger.Installment {
	return ledger.Installment{
		ID:       id,
		SaleID:   saleID,
		ClientID: "cli-1",
		Nro:      nro,
		DueDate:  due,
		Amount:   money(amount),
		Paid:     money(paid),
		Status:   ledger.StatusPendiente,
	}
}

func planTotal(p ledger.AllocationPlan) float64 { return p.Total().Float64() }

// =============================================================================
// FIFO ORDER - General scope walks oldest due date first
// =============================================================================

func TestAllocate_GeneralScope_FIFOByDueDate(t *testing.T) {
	// GIVEN: three installments due Jan (bal 100), Feb (bal 50), Mar (bal 200)
	// WHEN: allocating a general payment of 120
	// THEN: Jan gets 100, Feb gets 20, Mar gets nothing, remainder 0

	installments := []ledger.Installment{
		openInst("i-mar", "v-1", 3, date(2024, time.March, 1), 200, 0),
		openInst("i-jan", "v-1", 1, date(2024, time.January, 1), 100, 0),
		openInst("i-feb", "v-1", 2, date(2024, time.February, 1), 50, 0),
	}

	plan, err := ledger.Allocate(money(120), installments, ledger.GeneralScope())
	require.NoError(t, err)

	require.Len(t, plan.Applications, 2)
	assert.Equal(t, "i-jan", plan.Applications[0].InstallmentID)
	assert.Equal(t, 100.0, plan.Applications[0].Applied.Float64())
	assert.Equal(t, "i-feb", plan.Applications[1].InstallmentID)
	assert.Equal(t, 20.0, plan.Applications[1].Applied.Float64())
	assert.True(t, plan.UnallocatedRemainder.IsZero())
}

func TestAllocate_GeneralScope_TieBrokenByNro(t *testing.T) {
	// GIVEN: two installments with the same due date but different nro
	// WHEN: allocating less than the first installment's balance
	// THEN: the lower nro is served first

	due := date(2024, time.May, 10)
	installments := []ledger.Installment{
		openInst("i-2", "v-1", 2, due, 100, 0),
		openInst("i-1", "v-1", 1, due, 100, 0),
	}

	plan, err := ledger.Allocate(money(30), installments, ledger.GeneralScope())
	require.NoError(t, err)
	require.Len(t, plan.Applications, 1)
	assert.Equal(t, "i-1", plan.Applications[0].InstallmentID)
}

func TestAllocate_GeneralScope_CrossesSales(t *testing.T) {
	// FIFO ignores invoice boundaries: the oldest obligation across ALL
	// sales is served first.

	installments := []ledger.Installment{
		openInst("b-1", "v-B", 1, date(2024, time.April, 1), 80, 0),
		openInst("a-1", "v-A", 1, date(2024, time.February, 1), 50, 0),
	}

	plan, err := ledger.Allocate(money(100), installments, ledger.GeneralScope())
	require.NoError(t, err)
	require.Len(t, plan.Applications, 2)
	assert.Equal(t, "a-1", plan.Applications[0].InstallmentID)
	assert.Equal(t, 50.0, plan.Applications[0].Applied.Float64())
	assert.Equal(t, "b-1", plan.Applications[1].InstallmentID)
	assert.Equal(t, 50.0, plan.Applications[1].Applied.Float64())
}

// =============================================================================
// INVOICE SCOPE - Only the selected invoice's installments are touched
// =============================================================================

func TestAllocate_InvoiceScope_IgnoresOtherInvoices(t *testing.T) {
	// GIVEN: invoice A (#1 bal 50, older) and invoice B (#1 bal 80)
	// WHEN: scoping a payment of 60 to invoice B
	// THEN: B#1 gets 60; A is untouched despite its earlier due date

	installments := []ledger.Installment{
		openInst("a-1", "v-A", 1, date(2024, time.January, 1), 50, 0),
		openInst("b-1", "v-B", 1, date(2024, time.June, 1), 80, 0),
	}

	plan, err := ledger.Allocate(money(60), installments, ledger.InvoiceScope("v-B"))
	require.NoError(t, err)
	require.Len(t, plan.Applications, 1)
	assert.Equal(t, "b-1", plan.Applications[0].InstallmentID)
	assert.Equal(t, 60.0, plan.Applications[0].Applied.Float64())
	assert.True(t, plan.UnallocatedRemainder.IsZero())
}

func TestAllocate_InvoiceScope_OrderedByNro(t *testing.T) {
	// Within an invoice the walk is by nro, not due date.

	installments := []ledger.Installment{
		openInst("b-2", "v-B", 2, date(2024, time.February, 1), 40, 0),
		openInst("b-1", "v-B", 1, date(2024, time.March, 1), 40, 0),
	}

	plan, err := ledger.Allocate(money(50), installments, ledger.InvoiceScope("v-B"))
	require.NoError(t, err)
	require.Len(t, plan.Applications, 2)
	assert.Equal(t, "b-1", plan.Applications[0].InstallmentID)
	assert.Equal(t, "b-2", plan.Applications[1].InstallmentID)
	assert.Equal(t, 10.0, plan.Applications[1].Applied.Float64())
}

// =============================================================================
// CONSERVATION AND OVERPAYMENT
// =============================================================================

func TestAllocate_Conservation(t *testing.T) {
	// sum(applied) + remainder == payment, remainder >= 0, and no
	// installment receives more than its pre-allocation balance.

	installments := []ledger.Installment{
		openInst("i-1", "v-1", 1, date(2024, time.January, 1), 33.35, 10),
		openInst("i-2", "v-1", 2, date(2024, time.February, 1), 33.35, 0),
		openInst("i-3", "v-1", 3, date(2024, time.March, 1), 33.30, 0),
	}

	for _, amount := range []float64{0.01, 10, 23.35, 56.70, 90, 500} {
		plan, err := ledger.Allocate(money(amount), installments, ledger.GeneralScope())
		require.NoError(t, err)

		assert.InDelta(t, amount, planTotal(plan)+plan.UnallocatedRemainder.Float64(), 0.0001,
			"conservation for amount %v", amount)
		assert.False(t, plan.UnallocatedRemainder.IsNegative())

		for _, app := range plan.Applications {
			for _, inst := range installments {
				if inst.ID == app.InstallmentID {
					assert.False(t, app.Applied.GreaterThan(inst.Balance()),
						"over-application on %s for amount %v", inst.ID, amount)
				}
			}
		}
	}
}

func TestAllocate_Overpayment_SurfacesRemainder(t *testing.T) {
	installments := []ledger.Installment{
		openInst("i-1", "v-1", 1, date(2024, time.January, 1), 100, 0),
	}

	plan, err := ledger.Allocate(money(150), installments, ledger.GeneralScope())
	require.NoError(t, err)
	require.Len(t, plan.Applications, 1)
	assert.Equal(t, 100.0, plan.Applications[0].Applied.Float64())
	assert.Equal(t, 50.0, plan.UnallocatedRemainder.Float64())
}

func TestAllocate_NoOpenInstallments_EmptyPlan(t *testing.T) {
	// GIVEN: a client with zero open installments
	// WHEN: a general payment of 100 arrives
	// THEN: the plan is empty and the full amount is the remainder (this
	//       mirrors a "pago general" with nothing pending - not an error)

	plan, err := ledger.Allocate(money(100), nil, ledger.GeneralScope())
	require.NoError(t, err)
	assert.Empty(t, plan.Applications)
	assert.Equal(t, 100.0, plan.UnallocatedRemainder.Float64())
}

// =============================================================================
// ELIGIBILITY AND INPUT VALIDATION
// =============================================================================

func TestAllocate_SettledInstallmentsExcluded(t *testing.T) {
	// An installment settled by balance or by PAGADA status never receives
	// an application, even when the walk has money left.

	paid := openInst("i-paid", "v-1", 1, date(2024, time.January, 1), 100, 100)
	flagged := openInst("i-flag", "v-1", 2, date(2024, time.February, 1), 100, 0)
	flagged.Status = ledger.StatusPagada
	open := openInst("i-open", "v-1", 3, date(2024, time.March, 1), 100, 0)

	plan, err := ledger.Allocate(money(250), []ledger.Installment{paid, flagged, open}, ledger.GeneralScope())
	require.NoError(t, err)
	require.Len(t, plan.Applications, 1)
	assert.Equal(t, "i-open", plan.Applications[0].InstallmentID)
	assert.Equal(t, 150.0, plan.UnallocatedRemainder.Float64())
}

func TestAllocate_ResidueWithinEpsilonExcluded(t *testing.T) {
	// A float-era residue below SettleEpsilon does not reopen a cuota.
	residue := openInst("i-res", "v-1", 1, date(2024, time.January, 1), 100, 99.995)

	plan, err := ledger.Allocate(money(10), []ledger.Installment{residue}, ledger.GeneralScope())
	require.NoError(t, err)
	assert.Empty(t, plan.Applications)
	assert.Equal(t, 10.0, plan.UnallocatedRemainder.Float64())
}

func TestAllocate_NonPositiveAmount_Rejected(t *testing.T) {
	for _, amount := range []float64{0, -1, -100.50} {
		_, err := ledger.Allocate(money(amount), nil, ledger.GeneralScope())
		assert.ErrorIs(t, err, ledger.ErrInvalidAmount, "amount %v", amount)
	}
}

func TestAllocate_CorruptSnapshot_Rejected(t *testing.T) {
	bad := openInst("i-bad", "v-1", 1, date(2024, time.January, 1), -50, 0)
	_, err := ledger.Allocate(money(10), []ledger.Installment{bad}, ledger.GeneralScope())
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)
}

func TestAllocate_Deterministic(t *testing.T) {
	installments := []ledger.Installment{
		openInst("i-2", "v-1", 2, date(2024, time.February, 1), 75.25, 0),
		openInst("i-1", "v-1", 1, date(2024, time.January, 1), 50.50, 0),
	}

	first, err := ledger.Allocate(money(80), installments, ledger.GeneralScope())
	require.NoError(t, err)
	second, err := ledger.Allocate(money(80), installments, ledger.GeneralScope())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

// =============================================================================
// SETTLEMENT CONVERGENCE - Repeated allocations drive balance to zero
// =============================================================================

func TestAllocate_SettlementConvergence(t *testing.T) {
	// GIVEN: an installment with amount 300
	// WHEN: applying allocations totaling exactly 300 across several payments
	// THEN: the balance reaches 0, the installment is settled, and a
	//       further allocation leaves it untouched

	installments := []ledger.Installment{
		openInst("i-1", "v-1", 1, date(2024, time.January, 1), 300, 0),
	}

	for _, amount := range []float64{120, 99.99, 80.01} {
		plan, err := ledger.Allocate(money(amount), installments, ledger.GeneralScope())
		require.NoError(t, err)
		installments = ledger.ApplyPlan(installments, plan)
	}

	assert.True(t, installments[0].Balance().IsZero())
	assert.True(t, installments[0].IsSettled())

	plan, err := ledger.Allocate(money(25), installments, ledger.GeneralScope())
	require.NoError(t, err)
	assert.Empty(t, plan.Applications)
	assert.Equal(t, 25.0, plan.UnallocatedRemainder.Float64())
}
