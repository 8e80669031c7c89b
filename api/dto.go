/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY AND DATES:
  Money is exposed as a JSON number rounded to two decimals. Dates use
  ISO YYYY-MM-DD; timestamps use RFC 3339.

SEE ALSO:
  - handlers.go: Uses these types
  - ledger: Domain types these map from
*/
package api

import (
	"time"

	"github.com/vicred/credit-engine/ledger"
)

// =============================================================================
// CLIENTS AND CREDIT ACCOUNTS
// =============================================================================

// ClientDTO represents a client in API responses.
type ClientDTO struct {
	ID          string  `json:"id"`
	DNI         string  `json:"dni"`
	Name        string  `json:"name"`
	Phone       string  `json:"phone,omitempty"`
	Address     string  `json:"address,omitempty"`
	Status      string  `json:"status"`
	CreditLimit float64 `json:"credit_limit,omitempty"`
}

// CreateClientRequest is the request to onboard a client.
type CreateClientRequest struct {
	DNI         string  `json:"dni"`
	Name        string  `json:"name"`
	Phone       string  `json:"phone,omitempty"`
	Address     string  `json:"address,omitempty"`
	CreditLimit float64 `json:"credit_limit,omitempty"`
}

// SetStatusRequest changes the back-office status flag.
type SetStatusRequest struct {
	Status string `json:"status"`
}

// SetLimitRequest assigns or adjusts the credit ceiling.
type SetLimitRequest struct {
	Limit float64 `json:"limit"`
}

// CreditStateDTO is the derived credit posture of a client.
type CreditStateDTO struct {
	ClientID            string  `json:"client_id"`
	Limit               float64 `json:"limit"`
	TotalPending        float64 `json:"total_pending"`
	TotalPaidToDate     float64 `json:"total_paid_to_date"`
	PendingCount        int     `json:"pending_count"`
	SettledCount        int     `json:"settled_count"`
	NextDueDate         *string `json:"next_due_date,omitempty"`
	AmountDueAtNextDate float64 `json:"amount_due_at_next_date"`
	Available           float64 `json:"available"`
	Blocked             bool    `json:"blocked"`
}

// =============================================================================
// SALES, INSTALLMENTS AND PROMISSORY NOTES
// =============================================================================

// SaleDTO represents a credit sale.
type SaleDTO struct {
	ID               string  `json:"id"`
	ClientID         string  `json:"client_id"`
	Date             string  `json:"date"`
	Total            float64 `json:"total"`
	DownPayment      float64 `json:"down_payment"`
	Financed         float64 `json:"financed"`
	InstallmentCount int     `json:"installment_count"`
	InvoiceNumber    string  `json:"invoice_number,omitempty"`
	MerchantID       string  `json:"merchant_id,omitempty"`
	FirstDueDate     string  `json:"first_due_date"`
	Note             string  `json:"note,omitempty"`
	OpenBalance      float64 `json:"open_balance"`
}

// CreateSaleRequest is the request to register a credit sale.
type CreateSaleRequest struct {
	ClientID         string  `json:"client_id"`
	Date             string  `json:"date"`
	Total            float64 `json:"total"`
	DownPayment      float64 `json:"down_payment"`
	InstallmentCount int     `json:"installment_count"`
	InvoiceNumber    string  `json:"invoice_number,omitempty"`
	MerchantID       string  `json:"merchant_id,omitempty"`
	FirstDueDate     string  `json:"first_due_date"`
	Note             string  `json:"note,omitempty"`
}

// InstallmentDTO represents one installment of a sale.
type InstallmentDTO struct {
	ID      string  `json:"id"`
	SaleID  string  `json:"sale_id"`
	Nro     int     `json:"nro"`
	DueDate string  `json:"due_date"`
	Amount  float64 `json:"amount"`
	Paid    float64 `json:"paid"`
	Balance float64 `json:"balance"`
	Status  string  `json:"status"`
}

// NoteDTO represents one promissory note (pagaré) of a sale.
type NoteDTO struct {
	SaleID  string  `json:"sale_id"`
	Nro     int     `json:"nro"`
	Amount  float64 `json:"amount"`
	DueDate string  `json:"due_date"`
}

// SaleResponse is a sale with its generated schedule and notes.
type SaleResponse struct {
	Sale         SaleDTO          `json:"sale"`
	Installments []InstallmentDTO `json:"installments"`
	Notes        []NoteDTO        `json:"notes,omitempty"`
}

// =============================================================================
// PAYMENTS
// =============================================================================

// CollectPaymentRequest registers a collected payment. An empty sale_id
// allocates across every open installment of the client (general mode);
// a set sale_id restricts allocation to that invoice.
type CollectPaymentRequest struct {
	ClientID  string  `json:"client_id"`
	SaleID    string  `json:"sale_id,omitempty"`
	Amount    float64 `json:"amount"`
	Method    string  `json:"method"`
	Reference string  `json:"reference,omitempty"`
}

// PaymentDTO represents a payment row.
type PaymentDTO struct {
	ID           string  `json:"id"`
	ClientID     string  `json:"client_id"`
	SaleID       string  `json:"sale_id,omitempty"`
	Amount       float64 `json:"amount"`
	Method       string  `json:"method"`
	Reference    string  `json:"reference,omitempty"`
	CreatedAt    string  `json:"created_at"`
	Voided       bool    `json:"voided"`
	VoidedAt     string  `json:"voided_at,omitempty"`
	VoidedReason string  `json:"voided_reason,omitempty"`
}

// ApplicationDTO is one payment-to-installment application.
type ApplicationDTO struct {
	InstallmentID string  `json:"installment_id"`
	Applied       float64 `json:"applied"`
}

// ReceiptLineDTO is one row of a payment receipt.
type ReceiptLineDTO struct {
	InstallmentNro int     `json:"installment_nro"`
	DueDate        string  `json:"due_date"`
	Amount         float64 `json:"amount"`
	Applied        float64 `json:"applied"`
}

// CollectPaymentResponse is returned after committing a payment. The
// unallocated remainder is always present: an overpayment is surfaced to
// the cashier, never silently dropped.
type CollectPaymentResponse struct {
	Payment              PaymentDTO       `json:"payment"`
	Applications         []ApplicationDTO `json:"applications"`
	UnallocatedRemainder float64          `json:"unallocated_remainder"`
	Receipt              []ReceiptLineDTO `json:"receipt"`
}

// VoidPaymentRequest voids a payment with an audit reason.
type VoidPaymentRequest struct {
	Reason string `json:"reason"`
}

// =============================================================================
// PORTAL
// =============================================================================

// PortalLoginRequest authenticates a client by DNI.
type PortalLoginRequest struct {
	DNI string `json:"dni"`
}

// PortalLoginResponse carries the issued token (also set as a cookie).
type PortalLoginResponse struct {
	Token    string    `json:"token"`
	ClientID string    `json:"client_id"`
	Name     string    `json:"name"`
	Expires  time.Time `json:"expires"`
}

// PortalMeResponse is the self-service view of a client's account.
type PortalMeResponse struct {
	Client       ClientDTO        `json:"client"`
	Credit       CreditStateDTO   `json:"credit"`
	Installments []InstallmentDTO `json:"installments"`
	Payments     []PaymentDTO     `json:"payments"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toClientDTO(c ledger.Client, limit float64) ClientDTO {
	return ClientDTO{
		ID:          c.ID,
		DNI:         c.DNI,
		Name:        c.Name,
		Phone:       c.Phone,
		Address:     c.Address,
		Status:      string(c.Status),
		CreditLimit: limit,
	}
}

func toSaleDTO(s ledger.Sale, installments []ledger.Installment) SaleDTO {
	return SaleDTO{
		ID:               s.ID,
		ClientID:         s.ClientID,
		Date:             s.Date.String(),
		Total:            s.Total.Float64(),
		DownPayment:      s.DownPayment.Float64(),
		Financed:         s.Financed().Float64(),
		InstallmentCount: s.InstallmentCount,
		InvoiceNumber:    s.InvoiceNumber,
		MerchantID:       s.MerchantID,
		FirstDueDate:     s.FirstDueDate.String(),
		Note:             s.Note,
		OpenBalance:      ledger.OpenBalance(s.ID, installments).Float64(),
	}
}

func toInstallmentDTO(inst ledger.Installment) InstallmentDTO {
	return InstallmentDTO{
		ID:      inst.ID,
		SaleID:  inst.SaleID,
		Nro:     inst.Nro,
		DueDate: inst.DueDate.String(),
		Amount:  inst.Amount.Float64(),
		Paid:    inst.Paid.Float64(),
		Balance: inst.Balance().Float64(),
		Status:  string(inst.Status),
	}
}

func toInstallmentDTOs(installments []ledger.Installment) []InstallmentDTO {
	dtos := make([]InstallmentDTO, len(installments))
	for i, inst := range installments {
		dtos[i] = toInstallmentDTO(inst)
	}
	return dtos
}

func toNoteDTOs(notes []ledger.PromissoryNote) []NoteDTO {
	dtos := make([]NoteDTO, len(notes))
	for i, n := range notes {
		dtos[i] = NoteDTO{
			SaleID:  n.SaleID,
			Nro:     n.Nro,
			Amount:  n.Amount.Float64(),
			DueDate: n.DueDate.String(),
		}
	}
	return dtos
}

func toPaymentDTO(p ledger.Payment) PaymentDTO {
	dto := PaymentDTO{
		ID:           p.ID,
		ClientID:     p.ClientID,
		SaleID:       p.SaleID,
		Amount:       p.Amount.Float64(),
		Method:       string(p.Method),
		Reference:    p.Reference,
		CreatedAt:    p.CreatedAt.Format(time.RFC3339),
		Voided:       p.Voided,
		VoidedReason: p.VoidedReason,
	}
	if !p.VoidedAt.IsZero() {
		dto.VoidedAt = p.VoidedAt.Format(time.RFC3339)
	}
	return dto
}

func toPaymentDTOs(payments []ledger.Payment) []PaymentDTO {
	dtos := make([]PaymentDTO, len(payments))
	for i, p := range payments {
		dtos[i] = toPaymentDTO(p)
	}
	return dtos
}

func toCreditStateDTO(state ledger.CreditState) CreditStateDTO {
	dto := CreditStateDTO{
		ClientID:            state.ClientID,
		Limit:               state.Limit.Float64(),
		TotalPending:        state.TotalPending.Float64(),
		TotalPaidToDate:     state.TotalPaidToDate.Float64(),
		PendingCount:        state.PendingCount,
		SettledCount:        state.SettledCount,
		AmountDueAtNextDate: state.AmountDueAtNextDate.Float64(),
		Available:           state.Available.Float64(),
		Blocked:             state.Blocked,
	}
	if state.NextDueDate != nil {
		s := state.NextDueDate.String()
		dto.NextDueDate = &s
	}
	return dto
}

func toReceiptDTOs(lines []ledger.ReceiptLine) []ReceiptLineDTO {
	dtos := make([]ReceiptLineDTO, len(lines))
	for i, l := range lines {
		dtos[i] = ReceiptLineDTO{
			InstallmentNro: l.InstallmentNro,
			DueDate:        l.DueDate.String(),
			Amount:         l.Amount.Float64(),
			Applied:        l.Applied.Float64(),
		}
	}
	return dtos
}
