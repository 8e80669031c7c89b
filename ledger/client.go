package ledger

// =============================================================================
// CLIENT - Onboarded credit customer
// =============================================================================

// CreditStatus is the account-level status flag. It is owned by the
// back-office workflow: the engine reads it but only ever computes the
// derived delinquency block (see CreditState.Blocked). When the stored
// flag and the derived flag disagree, the stored flag wins - it may
// encode business rules the snapshot cannot see.
type CreditStatus string

const (
	CreditActivo      CreditStatus = "ACTIVO"
	CreditObservacion CreditStatus = "OBSERVACION"
	CreditBloqueado   CreditStatus = "BLOQUEADO"
	CreditBaja        CreditStatus = "BAJA"
)

type Client struct {
	ID      string
	DNI     string
	Name    string
	Phone   string
	Address string
	Status  CreditStatus
}

// CreditAccount holds the fixed credit ceiling shared across all of a
// client's sales. Debt is never stored here; it is derived from the
// installment set.
type CreditAccount struct {
	ClientID string
	Limit    Money
}
