package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vicred/credit-engine/ledger"
	"github.com/vicred/credit-engine/store"
	"github.com/vicred/credit-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seed(t *testing.T, s *sqlite.Store) (clientID, saleID string) {
	t.Helper()
	ctx := context.Background()

	client := ledger.Client{Name: "Ana Gomez", DNI: "30111222", Phone: "555-0001"}
	require.NoError(t, s.SaveClient(ctx, client))
	got, err := s.GetClientByDNI(ctx, "30111222")
	require.NoError(t, err)
	clientID = got.ID

	require.NoError(t, s.SaveAccount(ctx, ledger.CreditAccount{ClientID: clientID, Limit: ledger.NewMoney(5000)}))

	sale := ledger.Sale{
		ClientID: clientID, Date: ledger.NewDate(2024, time.January, 10),
		Total: ledger.NewMoney(1200), DownPayment: ledger.NewMoney(200),
		InstallmentCount: 4, InvoiceNumber: "0001-00001234", MerchantID: "com-A",
		FirstDueDate: ledger.NewDate(2024, time.February, 10),
	}
	schedule, err := ledger.GenerateSchedule(sale)
	require.NoError(t, err)
	saleID, err = s.CreateSale(ctx, sale, schedule, ledger.GenerateNotes(sale, schedule))
	require.NoError(t, err)
	return clientID, saleID
}

// =============================================================================
// ROUND TRIPS
// =============================================================================

func TestSQLite_ClientAndAccountRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	clientID, _ := seed(t, s)

	c, err := s.GetClient(ctx, clientID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Gomez", c.Name)
	assert.Equal(t, ledger.CreditActivo, c.Status, "status defaults to ACTIVO")

	a, err := s.GetAccount(ctx, clientID)
	require.NoError(t, err)
	assert.Equal(t, 5000.0, a.Limit.Float64())

	// Limit adjustment overwrites in place.
	require.NoError(t, s.SaveAccount(ctx, ledger.CreditAccount{ClientID: clientID, Limit: ledger.NewMoney(8000)}))
	a, err = s.GetAccount(ctx, clientID)
	require.NoError(t, err)
	assert.Equal(t, 8000.0, a.Limit.Float64())

	_, err = s.GetClient(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSQLite_DuplicateDNIRejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seed(t, s)

	err := s.SaveClient(ctx, ledger.Client{Name: "Otra Ana", DNI: "30111222"})
	assert.ErrorIs(t, err, store.ErrDuplicateDNI)
}

func TestSQLite_SaleScheduleAndNotes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	clientID, saleID := seed(t, s)

	sale, err := s.GetSale(ctx, saleID)
	require.NoError(t, err)
	assert.Equal(t, clientID, sale.ClientID)
	assert.Equal(t, "0001-00001234", sale.InvoiceNumber)
	assert.Equal(t, 1000.0, sale.Financed().Float64())

	installments, err := s.InstallmentsBySale(ctx, saleID)
	require.NoError(t, err)
	require.Len(t, installments, 4)
	assert.Equal(t, 250.0, installments[0].Amount.Float64())
	assert.Equal(t, ledger.StatusPendiente, installments[0].Status)

	notes, err := s.NotesBySale(ctx, saleID)
	require.NoError(t, err)
	require.Len(t, notes, 4)
	assert.True(t, notes[3].DueDate.Equal(ledger.NewDate(2024, time.May, 10)))
}

// =============================================================================
// PAYMENT COMMIT AND VOID
// =============================================================================

func TestSQLite_CommitAndVoidPayment(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	clientID, saleID := seed(t, s)

	installments, err := s.InstallmentsByClient(ctx, clientID)
	require.NoError(t, err)

	plan, err := ledger.Allocate(ledger.NewMoney(300), installments, ledger.InvoiceScope(saleID))
	require.NoError(t, err)

	paymentID, err := s.CommitPayment(ctx, ledger.Payment{
		ClientID: clientID, SaleID: saleID,
		Amount: ledger.NewMoney(300), Method: ledger.MethodTransferencia, Reference: "transf 991",
	}, plan)
	require.NoError(t, err)

	after, err := s.InstallmentsBySale(ctx, saleID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusPagada, after[0].Status)
	assert.Equal(t, 50.0, after[1].Paid.Float64())

	apps, err := s.ApplicationsByPayment(ctx, paymentID)
	require.NoError(t, err)
	require.Len(t, apps, 2)

	// Void restores the schedule and flips the flag exactly once.
	when := time.Date(2024, time.June, 1, 15, 0, 0, 0, time.UTC)
	require.NoError(t, s.VoidPayment(ctx, paymentID, when, "cliente equivocado"))

	restored, err := s.InstallmentsBySale(ctx, saleID)
	require.NoError(t, err)
	for _, inst := range restored {
		assert.True(t, inst.Paid.IsZero())
		assert.Equal(t, ledger.StatusPendiente, inst.Status)
	}

	p, err := s.GetPayment(ctx, paymentID)
	require.NoError(t, err)
	assert.True(t, p.Voided)
	assert.Equal(t, when, p.VoidedAt)

	err = s.VoidPayment(ctx, paymentID, when.Add(time.Minute), "de nuevo")
	assert.ErrorIs(t, err, ledger.ErrAlreadyVoided)
}

func TestSQLite_StalePlanRejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	clientID, _ := seed(t, s)

	installments, err := s.InstallmentsByClient(ctx, clientID)
	require.NoError(t, err)

	plan, err := ledger.Allocate(ledger.NewMoney(1000), installments, ledger.GeneralScope())
	require.NoError(t, err)

	// First commit consumes the balances the second plan still counts on.
	_, err = s.CommitPayment(ctx, ledger.Payment{
		ClientID: clientID, Amount: ledger.NewMoney(1000), Method: ledger.MethodEfectivo,
	}, plan)
	require.NoError(t, err)

	_, err = s.CommitPayment(ctx, ledger.Payment{
		ClientID: clientID, Amount: ledger.NewMoney(1000), Method: ledger.MethodEfectivo,
	}, plan)
	assert.ErrorIs(t, err, store.ErrStaleSnapshot)
}

func TestSQLite_ListPayments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	clientID, _ := seed(t, s)

	base := time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		installments, err := s.InstallmentsByClient(ctx, clientID)
		require.NoError(t, err)
		plan, err := ledger.Allocate(ledger.NewMoney(100), installments, ledger.GeneralScope())
		require.NoError(t, err)
		_, err = s.CommitPayment(ctx, ledger.Payment{
			ClientID: clientID, Amount: ledger.NewMoney(100),
			Method: ledger.MethodEfectivo, CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}, plan)
		require.NoError(t, err)
	}

	payments, err := s.ListPayments(ctx, 2)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.True(t, payments[0].CreatedAt.After(payments[1].CreatedAt))

	// limit <= 0 means no cap: callers assembling a full history (the
	// portal view) must see every payment.
	payments, err = s.ListPayments(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, payments, 3)
}
