package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vicred/credit-engine/api"
	"github.com/vicred/credit-engine/ledger"
	"github.com/vicred/credit-engine/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestRouter(t *testing.T) (*chi.Mux, *api.Handler) {
	t.Helper()
	h := api.NewHandler(store.NewMemory(), zerolog.Nop())
	h.Now = func() ledger.Date { return ledger.NewDate(2024, time.June, 15) }
	return api.NewRouter(h, api.NewPortalAuth([]byte("test-secret"), time.Hour)), h
}

func doJSON(t *testing.T, router *chi.Mux, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func onboardClient(t *testing.T, router *chi.Mux, dni string, limit float64) string {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/clients", api.CreateClientRequest{
		DNI: dni, Name: "Ana Gomez", Phone: "555-0001", CreditLimit: limit,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[api.ClientDTO](t, rec).ID
}

func registerSale(t *testing.T, router *chi.Mux, clientID string, total float64, count int) api.SaleResponse {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/sales", api.CreateSaleRequest{
		ClientID: clientID, Date: "2024-01-10",
		Total: total, InstallmentCount: count,
		InvoiceNumber: "0001-00004321", MerchantID: "com-A",
		FirstDueDate: "2024-02-10",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[api.SaleResponse](t, rec)
}

// =============================================================================
// CLIENTS AND CREDIT STATE
// =============================================================================

func TestAPI_ClientOnboarding(t *testing.T) {
	router, _ := newTestRouter(t)

	clientID := onboardClient(t, router, "30111222", 5000)

	rec := doJSON(t, router, http.MethodGet, "/api/clients/"+clientID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	client := decode[api.ClientDTO](t, rec)
	assert.Equal(t, "30111222", client.DNI)
	assert.Equal(t, "ACTIVO", client.Status)
	assert.Equal(t, 5000.0, client.CreditLimit)

	// Duplicate DNI is a conflict.
	rec = doJSON(t, router, http.MethodPost, "/api/clients", api.CreateClientRequest{
		DNI: "30111222", Name: "Otra Ana",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAPI_CreditState_NoSales(t *testing.T) {
	router, _ := newTestRouter(t)
	clientID := onboardClient(t, router, "30111222", 5000)

	rec := doJSON(t, router, http.MethodGet, "/api/clients/"+clientID+"/credit", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	state := decode[api.CreditStateDTO](t, rec)
	assert.Equal(t, 5000.0, state.Available)
	assert.Equal(t, 0.0, state.TotalPending)
	assert.False(t, state.Blocked)
	assert.Nil(t, state.NextDueDate)
}

func TestAPI_CreditState_StoredBlockWins(t *testing.T) {
	router, _ := newTestRouter(t)
	clientID := onboardClient(t, router, "30111222", 5000)

	rec := doJSON(t, router, http.MethodPut, "/api/clients/"+clientID+"/status",
		api.SetStatusRequest{Status: "BLOQUEADO"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/clients/"+clientID+"/credit", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[api.CreditStateDTO](t, rec).Blocked,
		"stored flag blocks even with a clean installment set")
}

// =============================================================================
// SALES
// =============================================================================

func TestAPI_CreateSale_GeneratesScheduleAndNotes(t *testing.T) {
	router, _ := newTestRouter(t)
	clientID := onboardClient(t, router, "30111222", 5000)

	resp := registerSale(t, router, clientID, 900, 3)
	require.Len(t, resp.Installments, 3)
	assert.Equal(t, 300.0, resp.Installments[0].Amount)
	assert.Equal(t, "2024-02-10", resp.Installments[0].DueDate)
	assert.Equal(t, "2024-04-10", resp.Installments[2].DueDate)
	require.Len(t, resp.Notes, 3)
	assert.Equal(t, 300.0, resp.Notes[1].Amount)
	assert.Equal(t, 900.0, resp.Sale.OpenBalance)

	// Pending debt reduces available credit.
	rec := doJSON(t, router, http.MethodGet, "/api/clients/"+clientID+"/credit", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	state := decode[api.CreditStateDTO](t, rec)
	assert.Equal(t, 900.0, state.TotalPending)
	assert.Equal(t, 4100.0, state.Available)
}

func TestAPI_CreateSale_RejectedOverLimit(t *testing.T) {
	router, _ := newTestRouter(t)
	clientID := onboardClient(t, router, "30111222", 500)

	rec := doJSON(t, router, http.MethodPost, "/api/sales", api.CreateSaleRequest{
		ClientID: clientID, Date: "2024-01-10", Total: 900,
		InstallmentCount: 3, FirstDueDate: "2024-02-10",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAPI_CreateSale_RejectedWhenBlocked(t *testing.T) {
	router, _ := newTestRouter(t)
	clientID := onboardClient(t, router, "30111222", 5000)

	rec := doJSON(t, router, http.MethodPut, "/api/clients/"+clientID+"/status",
		api.SetStatusRequest{Status: "BLOQUEADO"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/sales", api.CreateSaleRequest{
		ClientID: clientID, Date: "2024-01-10", Total: 300,
		InstallmentCount: 1, FirstDueDate: "2024-02-10",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

// =============================================================================
// PAYMENTS
// =============================================================================

func TestAPI_CollectPayment_FIFO(t *testing.T) {
	router, _ := newTestRouter(t)
	clientID := onboardClient(t, router, "30111222", 5000)
	registerSale(t, router, clientID, 900, 3)

	rec := doJSON(t, router, http.MethodPost, "/api/payments", api.CollectPaymentRequest{
		ClientID: clientID, Amount: 450, Method: "EFECTIVO",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decode[api.CollectPaymentResponse](t, rec)

	require.Len(t, resp.Applications, 2, "450 covers cuota 1 and half of cuota 2")
	assert.Equal(t, 300.0, resp.Applications[0].Applied)
	assert.Equal(t, 150.0, resp.Applications[1].Applied)
	assert.Equal(t, 0.0, resp.UnallocatedRemainder)
	require.Len(t, resp.Receipt, 2)
	assert.Equal(t, 1, resp.Receipt[0].InstallmentNro)

	rec = doJSON(t, router, http.MethodGet, "/api/clients/"+clientID+"/installments", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	installments := decode[[]api.InstallmentDTO](t, rec)
	assert.Equal(t, "PAGADA", installments[0].Status)
	assert.Equal(t, 150.0, installments[1].Balance)
}

func TestAPI_CollectPayment_OverpaymentSurfacesRemainder(t *testing.T) {
	router, _ := newTestRouter(t)
	clientID := onboardClient(t, router, "30111222", 5000)
	registerSale(t, router, clientID, 300, 1)

	rec := doJSON(t, router, http.MethodPost, "/api/payments", api.CollectPaymentRequest{
		ClientID: clientID, Amount: 500, Method: "TRANSFERENCIA", Reference: "transf 991",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decode[api.CollectPaymentResponse](t, rec)
	assert.Equal(t, 200.0, resp.UnallocatedRemainder, "overpayment reported, never dropped")
}

func TestAPI_CollectPayment_InvoiceScope(t *testing.T) {
	router, _ := newTestRouter(t)
	clientID := onboardClient(t, router, "30111222", 5000)
	first := registerSale(t, router, clientID, 600, 2)
	second := registerSale(t, router, clientID, 600, 2)

	rec := doJSON(t, router, http.MethodPost, "/api/payments", api.CollectPaymentRequest{
		ClientID: clientID, SaleID: second.Sale.ID, Amount: 300, Method: "EFECTIVO",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decode[api.CollectPaymentResponse](t, rec)
	require.Len(t, resp.Applications, 1)
	assert.Equal(t, second.Installments[0].ID, resp.Applications[0].InstallmentID)

	// The other invoice is untouched.
	rec = doJSON(t, router, http.MethodGet, "/api/sales/"+first.Sale.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 600.0, decode[api.SaleResponse](t, rec).Sale.OpenBalance)
}

func TestAPI_CollectPayment_BadInput(t *testing.T) {
	router, _ := newTestRouter(t)
	clientID := onboardClient(t, router, "30111222", 5000)

	rec := doJSON(t, router, http.MethodPost, "/api/payments", api.CollectPaymentRequest{
		ClientID: clientID, Amount: -50, Method: "EFECTIVO",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/payments", api.CollectPaymentRequest{
		ClientID: clientID, Amount: 50, Method: "CHEQUE",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_VoidPayment_ExactlyOnce(t *testing.T) {
	router, _ := newTestRouter(t)
	clientID := onboardClient(t, router, "30111222", 5000)
	registerSale(t, router, clientID, 900, 3)

	rec := doJSON(t, router, http.MethodPost, "/api/payments", api.CollectPaymentRequest{
		ClientID: clientID, Amount: 450, Method: "EFECTIVO",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	paymentID := decode[api.CollectPaymentResponse](t, rec).Payment.ID

	rec = doJSON(t, router, http.MethodPost, "/api/payments/"+paymentID+"/void",
		api.VoidPaymentRequest{Reason: "monto incorrecto"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	voided := decode[api.PaymentDTO](t, rec)
	assert.True(t, voided.Voided)
	assert.Equal(t, "monto incorrecto", voided.VoidedReason)

	// Schedule restored.
	rec = doJSON(t, router, http.MethodGet, "/api/clients/"+clientID+"/installments", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	for _, inst := range decode[[]api.InstallmentDTO](t, rec) {
		assert.Equal(t, 0.0, inst.Paid)
		assert.Equal(t, "PENDIENTE", inst.Status)
	}

	// Second void is a conflict.
	rec = doJSON(t, router, http.MethodPost, "/api/payments/"+paymentID+"/void",
		api.VoidPaymentRequest{Reason: "de nuevo"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

// =============================================================================
// REPORTS
// =============================================================================

func TestAPI_OverdueReport(t *testing.T) {
	router, _ := newTestRouter(t)
	clientID := onboardClient(t, router, "30111222", 5000)
	registerSale(t, router, clientID, 900, 3) // due Feb/Mar/Apr, "today" is Jun 15

	rec := doJSON(t, router, http.MethodGet, "/api/reports/overdue", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&rows))
	assert.Len(t, rows, 3)
}

func TestAPI_OverdueReport_CSV(t *testing.T) {
	router, _ := newTestRouter(t)
	clientID := onboardClient(t, router, "30111222", 5000)
	registerSale(t, router, clientID, 900, 3)

	rec := doJSON(t, router, http.MethodGet, "/api/reports/overdue?format=csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 4, "header plus three overdue rows")
	assert.Contains(t, lines[0], "dias_mora")
}

func TestAPI_BlockedReport(t *testing.T) {
	router, _ := newTestRouter(t)
	clientID := onboardClient(t, router, "30111222", 5000)
	registerSale(t, router, clientID, 900, 3) // first cuota 126 days overdue on Jun 15

	rec := doJSON(t, router, http.MethodGet, "/api/reports/blocked", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&rows))
	require.Len(t, rows, 1)
	assert.Equal(t, clientID, rows[0]["ClientID"])
}

func TestAPI_MerchantDebtReport(t *testing.T) {
	router, _ := newTestRouter(t)
	clientID := onboardClient(t, router, "30111222", 5000)
	registerSale(t, router, clientID, 900, 3)

	rec := doJSON(t, router, http.MethodGet, "/api/reports/merchant-debt", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "com-A", rows[0]["MerchantID"])
}
