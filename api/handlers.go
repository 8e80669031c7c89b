/*
handlers.go - HTTP API handlers for the credit engine

PURPOSE:
  Exposes the credit sales and collection engine via REST API. Handles
  HTTP request/response, JSON serialization, and delegates to the ledger
  domain logic.

ENDPOINTS:
  Clients:
    GET    /api/clients                     List clients
    POST   /api/clients                     Onboard client (+ optional limit)
    GET    /api/clients/{id}                Client details
    PUT    /api/clients/{id}/status         Set back-office status flag
    PUT    /api/clients/{id}/limit          Assign/adjust credit limit
    GET    /api/clients/{id}/credit         Derived credit state
    GET    /api/clients/{id}/installments   All installments, FIFO order
    GET    /api/clients/{id}/sales          Payment-eligible sales

  Sales:
    GET    /api/sales                       List sales
    POST   /api/sales                       Register sale + schedule + pagarés
    GET    /api/sales/{id}                  Sale with schedule and notes

  Payments:
    GET    /api/payments                    Recent payments (?limit=N)
    POST   /api/payments                    Collect: allocate FIFO and commit
    GET    /api/payments/{id}               Payment with receipt lines
    POST   /api/payments/{id}/void          Void, reversing its applications

  Reports (all accept ?format=csv):
    GET    /api/reports/overdue
    GET    /api/reports/blocked
    GET    /api/reports/merchant-debt

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (allocate, credit state, reversal)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Record not found
  - 409: Conflict (duplicate DNI, already voided, stale plan, blocked)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - portal.go: Client self-service endpoints
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/vicred/credit-engine/ledger"
	"github.com/vicred/credit-engine/reports"
	"github.com/vicred/credit-engine/store"
)

// staleRetries bounds how often a collection is re-planned when another
// payment lands between snapshot and commit.
const staleRetries = 3

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store store.Store
	Log   zerolog.Logger

	// Now is the clock for "today" in credit state and reports.
	// Overridable in tests.
	Now func() ledger.Date
}

// NewHandler creates a new handler with the given store.
func NewHandler(st store.Store, log zerolog.Logger) *Handler {
	return &Handler{Store: st, Log: log, Now: ledger.Today}
}

// =============================================================================
// CLIENT HANDLERS
// =============================================================================

// ListClients returns all clients.
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.Store.ListClients(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to list clients", err)
		return
	}

	dtos := make([]ClientDTO, len(clients))
	for i, c := range clients {
		dtos[i] = toClientDTO(c, 0)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateClient onboards a new client, optionally assigning a credit limit
// in the same call.
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req CreateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.DNI == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "dni and name are required", nil)
		return
	}
	if req.CreditLimit < 0 {
		writeError(w, http.StatusBadRequest, "credit_limit must not be negative", nil)
		return
	}

	ctx := r.Context()
	client := ledger.Client{
		DNI:     req.DNI,
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
		Status:  ledger.CreditActivo,
	}
	if err := h.Store.SaveClient(ctx, client); err != nil {
		writeDomainError(w, "Failed to create client", err)
		return
	}

	saved, err := h.Store.GetClientByDNI(ctx, req.DNI)
	if err != nil {
		writeDomainError(w, "Failed to read back client", err)
		return
	}

	if req.CreditLimit > 0 {
		account := ledger.CreditAccount{ClientID: saved.ID, Limit: ledger.NewMoney(req.CreditLimit)}
		if err := h.Store.SaveAccount(ctx, account); err != nil {
			writeDomainError(w, "Failed to assign credit limit", err)
			return
		}
	}

	h.Log.Info().Str("client_id", saved.ID).Str("dni", saved.DNI).Msg("client onboarded")
	writeJSON(w, http.StatusCreated, toClientDTO(*saved, req.CreditLimit))
}

// GetClient returns a single client with their credit limit.
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	client, err := h.Store.GetClient(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get client", err)
		return
	}
	writeJSON(w, http.StatusOK, toClientDTO(*client, h.limitFor(r, client.ID)))
}

// SetClientStatus sets the back-office status flag (ACTIVO, OBSERVACION,
// BLOQUEADO, BAJA).
func (h *Handler) SetClientStatus(w http.ResponseWriter, r *http.Request) {
	var req SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	status := ledger.CreditStatus(req.Status)
	switch status {
	case ledger.CreditActivo, ledger.CreditObservacion, ledger.CreditBloqueado, ledger.CreditBaja:
	default:
		writeError(w, http.StatusBadRequest, "Unknown status "+req.Status, nil)
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.Store.SetClientStatus(r.Context(), id, status); err != nil {
		writeDomainError(w, "Failed to set status", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"client_id": id, "status": req.Status})
}

// SetCreditLimit assigns or adjusts the client's credit ceiling.
func (h *Handler) SetCreditLimit(w http.ResponseWriter, r *http.Request) {
	var req SetLimitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Limit < 0 {
		writeError(w, http.StatusBadRequest, "limit must not be negative", nil)
		return
	}

	id := chi.URLParam(r, "id")
	account := ledger.CreditAccount{ClientID: id, Limit: ledger.NewMoney(req.Limit)}
	if err := h.Store.SaveAccount(r.Context(), account); err != nil {
		writeDomainError(w, "Failed to set limit", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"client_id": id, "limit": req.Limit})
}

// GetCreditState returns the derived credit posture: pending debt,
// available credit, next due date, and the block flag.
func (h *Handler) GetCreditState(w http.ResponseWriter, r *http.Request) {
	state, err := h.creditState(r, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to compute credit state", err)
		return
	}
	writeJSON(w, http.StatusOK, toCreditStateDTO(state))
}

// GetClientInstallments returns every installment of the client in FIFO
// order (due date, then nro).
func (h *Handler) GetClientInstallments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	if _, err := h.Store.GetClient(ctx, id); err != nil {
		writeDomainError(w, "Failed to get client", err)
		return
	}
	installments, err := h.Store.InstallmentsByClient(ctx, id)
	if err != nil {
		writeDomainError(w, "Failed to list installments", err)
		return
	}
	writeJSON(w, http.StatusOK, toInstallmentDTOs(installments))
}

// GetClientSales returns the client's payment-eligible sales (open
// balance > 0). ?order=balance sorts by largest open balance; the
// default is oldest sale first.
func (h *Handler) GetClientSales(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	sales, err := h.Store.SalesByClient(ctx, id)
	if err != nil {
		writeDomainError(w, "Failed to list sales", err)
		return
	}
	installments, err := h.Store.InstallmentsByClient(ctx, id)
	if err != nil {
		writeDomainError(w, "Failed to list installments", err)
		return
	}

	order := ledger.OrderByDateAsc
	if r.URL.Query().Get("order") == "balance" {
		order = ledger.OrderByBalanceDesc
	}

	eligible := ledger.PaymentEligibleSales(sales, installments, order)
	dtos := make([]SaleDTO, len(eligible))
	for i, s := range eligible {
		dtos[i] = toSaleDTO(s.Sale, installments)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// SALE HANDLERS
// =============================================================================

// ListSales returns all sales.
func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sales, err := h.Store.ListSales(ctx)
	if err != nil {
		writeDomainError(w, "Failed to list sales", err)
		return
	}

	dtos := make([]SaleDTO, len(sales))
	for i, s := range sales {
		installments, err := h.Store.InstallmentsBySale(ctx, s.ID)
		if err != nil {
			writeDomainError(w, "Failed to list installments", err)
			return
		}
		dtos[i] = toSaleDTO(s, installments)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateSale registers a credit sale: validates it against the client's
// available credit, generates the installment schedule and the pagaré
// batch, and persists all of it atomically.
func (h *Handler) CreateSale(w http.ResponseWriter, r *http.Request) {
	var req CreateSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	saleDate, err := ledger.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
		return
	}
	firstDue, err := ledger.ParseDate(req.FirstDueDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid first_due_date (use YYYY-MM-DD)", err)
		return
	}

	sale := ledger.Sale{
		ClientID:         req.ClientID,
		Date:             saleDate,
		Total:            ledger.NewMoney(req.Total),
		DownPayment:      ledger.NewMoney(req.DownPayment),
		InstallmentCount: req.InstallmentCount,
		InvoiceNumber:    req.InvoiceNumber,
		MerchantID:       req.MerchantID,
		FirstDueDate:     firstDue,
		Note:             req.Note,
	}
	if err := sale.Validate(); err != nil {
		writeDomainError(w, "Invalid sale", err)
		return
	}

	ctx := r.Context()
	state, err := h.creditState(r, req.ClientID)
	if err != nil {
		writeDomainError(w, "Failed to compute credit state", err)
		return
	}
	if state.Blocked {
		writeError(w, http.StatusConflict, "Client is blocked; no new credit sales", nil)
		return
	}
	if sale.Financed().GreaterThan(state.Available) {
		writeError(w, http.StatusConflict, "Financed amount exceeds available credit", nil)
		return
	}

	schedule, err := ledger.GenerateSchedule(sale)
	if err != nil {
		writeDomainError(w, "Failed to generate schedule", err)
		return
	}
	notes := ledger.GenerateNotes(sale, schedule)

	saleID, err := h.Store.CreateSale(ctx, sale, schedule, notes)
	if err != nil {
		writeDomainError(w, "Failed to create sale", err)
		return
	}

	saved, err := h.Store.GetSale(ctx, saleID)
	if err != nil {
		writeDomainError(w, "Failed to read back sale", err)
		return
	}
	installments, err := h.Store.InstallmentsBySale(ctx, saleID)
	if err != nil {
		writeDomainError(w, "Failed to read back installments", err)
		return
	}
	savedNotes, err := h.Store.NotesBySale(ctx, saleID)
	if err != nil {
		writeDomainError(w, "Failed to read back notes", err)
		return
	}

	h.Log.Info().
		Str("sale_id", saleID).
		Str("client_id", req.ClientID).
		Str("financed", sale.Financed().String()).
		Int("installments", len(installments)).
		Msg("sale registered")

	writeJSON(w, http.StatusCreated, SaleResponse{
		Sale:         toSaleDTO(*saved, installments),
		Installments: toInstallmentDTOs(installments),
		Notes:        toNoteDTOs(savedNotes),
	})
}

// GetSale returns a sale with its installment schedule and notes.
func (h *Handler) GetSale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	sale, err := h.Store.GetSale(ctx, id)
	if err != nil {
		writeDomainError(w, "Failed to get sale", err)
		return
	}
	installments, err := h.Store.InstallmentsBySale(ctx, id)
	if err != nil {
		writeDomainError(w, "Failed to list installments", err)
		return
	}
	notes, err := h.Store.NotesBySale(ctx, id)
	if err != nil {
		writeDomainError(w, "Failed to list notes", err)
		return
	}

	writeJSON(w, http.StatusOK, SaleResponse{
		Sale:         toSaleDTO(*sale, installments),
		Installments: toInstallmentDTOs(installments),
		Notes:        toNoteDTOs(notes),
	})
}

// =============================================================================
// PAYMENT HANDLERS
// =============================================================================

// CollectPayment allocates the amount FIFO across the client's open
// installments (or the selected invoice's) and commits atomically. If
// another payment consumes the snapshot first, the plan is recomputed
// against fresh balances before failing.
func (h *Handler) CollectPayment(w http.ResponseWriter, r *http.Request) {
	var req CollectPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	method := ledger.PaymentMethod(req.Method)
	if !ledger.ValidMethod(method) {
		writeError(w, http.StatusBadRequest, "Unknown payment method "+req.Method, nil)
		return
	}
	amount := ledger.NewMoney(req.Amount)
	if !amount.IsPositive() {
		writeError(w, http.StatusBadRequest, "Amount must be positive", nil)
		return
	}

	ctx := r.Context()
	if _, err := h.Store.GetClient(ctx, req.ClientID); err != nil {
		writeDomainError(w, "Failed to get client", err)
		return
	}

	scope := ledger.GeneralScope()
	if req.SaleID != "" {
		if _, err := h.Store.GetSale(ctx, req.SaleID); err != nil {
			writeDomainError(w, "Failed to get sale", err)
			return
		}
		scope = ledger.InvoiceScope(req.SaleID)
	}

	payment := ledger.Payment{
		ClientID:  req.ClientID,
		SaleID:    req.SaleID,
		Amount:    amount,
		Method:    method,
		Reference: req.Reference,
		CreatedAt: time.Now().UTC(),
	}

	var (
		paymentID string
		plan      ledger.AllocationPlan
	)
	for attempt := 0; ; attempt++ {
		installments, err := h.Store.InstallmentsByClient(ctx, req.ClientID)
		if err != nil {
			writeDomainError(w, "Failed to list installments", err)
			return
		}
		plan, err = ledger.Allocate(amount, installments, scope)
		if err != nil {
			writeDomainError(w, "Failed to allocate payment", err)
			return
		}

		paymentID, err = h.Store.CommitPayment(ctx, payment, plan)
		if err == nil {
			break
		}
		if errors.Is(err, store.ErrStaleSnapshot) && attempt < staleRetries {
			h.Log.Warn().Str("client_id", req.ClientID).Int("attempt", attempt+1).
				Msg("allocation plan went stale, replanning")
			continue
		}
		writeDomainError(w, "Failed to commit payment", err)
		return
	}

	committed, err := h.Store.GetPayment(ctx, paymentID)
	if err != nil {
		writeDomainError(w, "Failed to read back payment", err)
		return
	}
	apps, err := h.Store.ApplicationsByPayment(ctx, paymentID)
	if err != nil {
		writeDomainError(w, "Failed to read back applications", err)
		return
	}
	installments, err := h.Store.InstallmentsByClient(ctx, req.ClientID)
	if err != nil {
		writeDomainError(w, "Failed to list installments", err)
		return
	}

	h.Log.Info().
		Str("payment_id", paymentID).
		Str("client_id", req.ClientID).
		Str("amount", amount.String()).
		Str("remainder", plan.UnallocatedRemainder.String()).
		Int("applications", len(apps)).
		Msg("payment collected")

	writeJSON(w, http.StatusCreated, CollectPaymentResponse{
		Payment:              toPaymentDTO(*committed),
		Applications:         toApplicationDTOs(apps),
		UnallocatedRemainder: plan.UnallocatedRemainder.Float64(),
		Receipt:              toReceiptDTOs(ledger.ReceiptLines(apps, installments)),
	})
}

// GetPayment returns a payment with its applications and receipt lines.
func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	payment, err := h.Store.GetPayment(ctx, id)
	if err != nil {
		writeDomainError(w, "Failed to get payment", err)
		return
	}
	apps, err := h.Store.ApplicationsByPayment(ctx, id)
	if err != nil {
		writeDomainError(w, "Failed to list applications", err)
		return
	}
	installments, err := h.Store.InstallmentsByClient(ctx, payment.ClientID)
	if err != nil {
		writeDomainError(w, "Failed to list installments", err)
		return
	}

	writeJSON(w, http.StatusOK, CollectPaymentResponse{
		Payment:      toPaymentDTO(*payment),
		Applications: toApplicationDTOs(apps),
		Receipt:      toReceiptDTOs(ledger.ReceiptLines(apps, installments)),
	})
}

// ListPayments returns recent payments, newest first. ?limit=N caps the
// result (default 50).
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}

	payments, err := h.Store.ListPayments(r.Context(), limit)
	if err != nil {
		writeDomainError(w, "Failed to list payments", err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentDTOs(payments))
}

// VoidPayment voids a payment exactly once, reversing its applications.
// A second void returns 409 so a retrying caller learns the void already
// happened instead of silently succeeding.
func (h *Handler) VoidPayment(w http.ResponseWriter, r *http.Request) {
	var req VoidPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Reason == "" {
		writeError(w, http.StatusBadRequest, "reason is required", nil)
		return
	}

	ctx := r.Context()
	id := chi.URLParam(r, "id")
	if err := h.Store.VoidPayment(ctx, id, time.Now().UTC(), req.Reason); err != nil {
		writeDomainError(w, "Failed to void payment", err)
		return
	}

	voided, err := h.Store.GetPayment(ctx, id)
	if err != nil {
		writeDomainError(w, "Failed to read back payment", err)
		return
	}

	h.Log.Info().Str("payment_id", id).Str("reason", req.Reason).Msg("payment voided")
	writeJSON(w, http.StatusOK, toPaymentDTO(*voided))
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// OverdueReport lists overdue installments, most delinquent first.
func (h *Handler) OverdueReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clients, err := h.Store.ListClients(ctx)
	if err != nil {
		writeDomainError(w, "Failed to list clients", err)
		return
	}
	installments, err := h.allInstallments(r)
	if err != nil {
		writeDomainError(w, "Failed to list installments", err)
		return
	}

	rows := reports.Overdue(clients, installments, h.Now())
	if wantsCSV(r) {
		writeCSV(w, "mora.csv", func() error { return reports.WriteOverdueCSV(w, rows) })
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// BlockedReport lists clients blocked by delinquency or by the stored
// BLOQUEADO flag.
func (h *Handler) BlockedReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clients, err := h.Store.ListClients(ctx)
	if err != nil {
		writeDomainError(w, "Failed to list clients", err)
		return
	}
	installments, err := h.allInstallments(r)
	if err != nil {
		writeDomainError(w, "Failed to list installments", err)
		return
	}

	rows, err := reports.Blocked(clients, installments, h.Now())
	if err != nil {
		writeDomainError(w, "Failed to build report", err)
		return
	}
	if wantsCSV(r) {
		writeCSV(w, "bloqueados.csv", func() error { return reports.WriteBlockedCSV(w, rows) })
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// MerchantDebtReport groups open debt by originating merchant.
func (h *Handler) MerchantDebtReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sales, err := h.Store.ListSales(ctx)
	if err != nil {
		writeDomainError(w, "Failed to list sales", err)
		return
	}
	installments, err := h.allInstallments(r)
	if err != nil {
		writeDomainError(w, "Failed to list installments", err)
		return
	}

	rows := reports.DebtByMerchant(sales, installments)
	if wantsCSV(r) {
		writeCSV(w, "deuda_comercios.csv", func() error { return reports.WriteMerchantDebtCSV(w, rows) })
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// creditState loads the client, their limit and installment set, and
// derives the credit state. The stored BLOQUEADO flag wins over the
// derived one.
func (h *Handler) creditState(r *http.Request, clientID string) (ledger.CreditState, error) {
	ctx := r.Context()
	client, err := h.Store.GetClient(ctx, clientID)
	if err != nil {
		return ledger.CreditState{}, err
	}

	limit := ledger.Zero()
	account, err := h.Store.GetAccount(ctx, clientID)
	switch {
	case err == nil:
		limit = account.Limit
	case errors.Is(err, store.ErrNotFound):
		// No assigned limit: available stays 0.
	default:
		return ledger.CreditState{}, err
	}

	installments, err := h.Store.InstallmentsByClient(ctx, clientID)
	if err != nil {
		return ledger.CreditState{}, err
	}

	state, err := ledger.ComputeCreditState(clientID, limit, installments, h.Now())
	if err != nil {
		return ledger.CreditState{}, err
	}
	if client.Status == ledger.CreditBloqueado {
		state.Blocked = true
	}
	return state, nil
}

func (h *Handler) limitFor(r *http.Request, clientID string) float64 {
	account, err := h.Store.GetAccount(r.Context(), clientID)
	if err != nil {
		return 0
	}
	return account.Limit.Float64()
}

func (h *Handler) allInstallments(r *http.Request) ([]ledger.Installment, error) {
	ctx := r.Context()
	sales, err := h.Store.ListSales(ctx)
	if err != nil {
		return nil, err
	}
	var all []ledger.Installment
	for _, s := range sales {
		set, err := h.Store.InstallmentsBySale(ctx, s.ID)
		if err != nil {
			return nil, err
		}
		all = append(all, set...)
	}
	return all, nil
}

func toApplicationDTOs(apps []ledger.PaymentApplication) []ApplicationDTO {
	dtos := make([]ApplicationDTO, len(apps))
	for i, a := range apps {
		dtos[i] = ApplicationDTO{InstallmentID: a.InstallmentID, Applied: a.Applied.Float64()}
	}
	return dtos
}

func wantsCSV(r *http.Request) bool {
	return r.URL.Query().Get("format") == "csv"
}

func writeCSV(w http.ResponseWriter, filename string, write func() error) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	if err := write(); err != nil {
		// Headers are already out; nothing sensible left to send.
		return
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain and storage errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, store.ErrDuplicateDNI),
		errors.Is(err, store.ErrStaleSnapshot),
		errors.Is(err, ledger.ErrAlreadyVoided):
		writeError(w, http.StatusConflict, message, err)
	case ledger.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
