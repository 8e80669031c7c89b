package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vicred/credit-engine/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu sync.RWMutex

	clients      map[string]ledger.Client
	accounts     map[string]ledger.CreditAccount
	sales        map[string]ledger.Sale
	installments map[string]ledger.Installment
	notes        map[string][]ledger.PromissoryNote
	payments     map[string]ledger.Payment
	applications map[string][]ledger.PaymentApplication
}

func NewMemory() *Memory {
	return &Memory{
		clients:      make(map[string]ledger.Client),
		accounts:     make(map[string]ledger.CreditAccount),
		sales:        make(map[string]ledger.Sale),
		installments: make(map[string]ledger.Installment),
		notes:        make(map[string][]ledger.PromissoryNote),
		payments:     make(map[string]ledger.Payment),
		applications: make(map[string][]ledger.PaymentApplication),
	}
}

// =============================================================================
// CLIENTS
// =============================================================================

func (m *Memory) SaveClient(_ context.Context, c ledger.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.clients {
		if existing.DNI != "" && existing.DNI == c.DNI && existing.ID != c.ID {
			return fmt.Errorf("%w: %s", ErrDuplicateDNI, c.DNI)
		}
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	m.clients[c.ID] = c
	return nil
}

func (m *Memory) GetClient(_ context.Context, id string) (*ledger.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.clients[id]
	if !ok {
		return nil, fmt.Errorf("%w: client %s", ErrNotFound, id)
	}
	return &c, nil
}

func (m *Memory) GetClientByDNI(_ context.Context, dni string) (*ledger.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.clients {
		if c.DNI == dni {
			cc := c
			return &cc, nil
		}
	}
	return nil, fmt.Errorf("%w: dni %s", ErrNotFound, dni)
}

func (m *Memory) ListClients(_ context.Context) ([]ledger.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ledger.Client, 0, len(m.clients))
	for _, c := range m.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out, nil
}

func (m *Memory) SetClientStatus(_ context.Context, id string, status ledger.CreditStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clients[id]
	if !ok {
		return fmt.Errorf("%w: client %s", ErrNotFound, id)
	}
	c.Status = status
	m.clients[id] = c
	return nil
}

func (m *Memory) SaveAccount(_ context.Context, a ledger.CreditAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[a.ClientID]; !ok {
		return fmt.Errorf("%w: client %s", ErrNotFound, a.ClientID)
	}
	m.accounts[a.ClientID] = a
	return nil
}

func (m *Memory) GetAccount(_ context.Context, clientID string) (*ledger.CreditAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[clientID]
	if !ok {
		return nil, fmt.Errorf("%w: account for client %s", ErrNotFound, clientID)
	}
	return &a, nil
}

// =============================================================================
// SALES
// =============================================================================

func (m *Memory) CreateSale(_ context.Context, s ledger.Sale, installments []ledger.Installment, notes []ledger.PromissoryNote) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.clients[s.ClientID]; !ok {
		return "", fmt.Errorf("%w: client %s", ErrNotFound, s.ClientID)
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	m.sales[s.ID] = s

	for _, inst := range installments {
		if inst.ID == "" {
			inst.ID = uuid.NewString()
		}
		inst.SaleID = s.ID
		m.installments[inst.ID] = inst
	}
	batch := make([]ledger.PromissoryNote, len(notes))
	copy(batch, notes)
	for i := range batch {
		batch[i].SaleID = s.ID
	}
	m.notes[s.ID] = batch
	return s.ID, nil
}

func (m *Memory) GetSale(_ context.Context, id string) (*ledger.Sale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sales[id]
	if !ok {
		return nil, fmt.Errorf("%w: sale %s", ErrNotFound, id)
	}
	return &s, nil
}

func (m *Memory) SalesByClient(_ context.Context, clientID string) ([]ledger.Sale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ledger.Sale
	for _, s := range m.sales {
		if s.ClientID == clientID {
			out = append(out, s)
		}
	}
	sortSales(out)
	return out, nil
}

func (m *Memory) ListSales(_ context.Context) ([]ledger.Sale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ledger.Sale, 0, len(m.sales))
	for _, s := range m.sales {
		out = append(out, s)
	}
	sortSales(out)
	return out, nil
}

func sortSales(sales []ledger.Sale) {
	sort.Slice(sales, func(a, b int) bool {
		if c := sales[a].Date.Compare(sales[b].Date); c != 0 {
			return c < 0
		}
		return sales[a].ID < sales[b].ID
	})
}

// =============================================================================
// INSTALLMENTS AND NOTES
// =============================================================================

func (m *Memory) InstallmentsByClient(_ context.Context, clientID string) ([]ledger.Installment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.installmentsByClientLocked(clientID), nil
}

func (m *Memory) installmentsByClientLocked(clientID string) []ledger.Installment {
	var out []ledger.Installment
	for _, inst := range m.installments {
		if inst.ClientID == clientID {
			out = append(out, inst)
		}
	}
	sortInstallments(out)
	return out
}

func (m *Memory) InstallmentsBySale(_ context.Context, saleID string) ([]ledger.Installment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ledger.Installment
	for _, inst := range m.installments {
		if inst.SaleID == saleID {
			out = append(out, inst)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Nro < out[b].Nro })
	return out, nil
}

func sortInstallments(installments []ledger.Installment) {
	sort.Slice(installments, func(a, b int) bool {
		if c := installments[a].DueDate.Compare(installments[b].DueDate); c != 0 {
			return c < 0
		}
		return installments[a].Nro < installments[b].Nro
	})
}

func (m *Memory) NotesBySale(_ context.Context, saleID string) ([]ledger.PromissoryNote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	notes := make([]ledger.PromissoryNote, len(m.notes[saleID]))
	copy(notes, m.notes[saleID])
	return notes, nil
}

// =============================================================================
// PAYMENTS - Atomic commit and void
// =============================================================================

func (m *Memory) CommitPayment(_ context.Context, p ledger.Payment, plan ledger.AllocationPlan) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.clients[p.ClientID]; !ok {
		return "", fmt.Errorf("%w: client %s", ErrNotFound, p.ClientID)
	}

	// Re-validate inside the critical section: the plan was computed from
	// a snapshot that may have gone stale.
	for _, app := range plan.Applications {
		inst, ok := m.installments[app.InstallmentID]
		if !ok {
			return "", fmt.Errorf("%w: installment %s", ErrNotFound, app.InstallmentID)
		}
		if app.Applied.GreaterThan(inst.Balance()) {
			return "", fmt.Errorf("%w: installment %s balance %s < applied %s",
				ErrStaleSnapshot, inst.ID, inst.Balance(), app.Applied)
		}
	}

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	for _, app := range plan.Applications {
		inst := m.installments[app.InstallmentID]
		inst.Paid = inst.Paid.Add(app.Applied).Round()
		if inst.IsSettled() {
			inst.Status = ledger.StatusPagada
		}
		m.installments[inst.ID] = inst
	}

	m.payments[p.ID] = p
	m.applications[p.ID] = plan.ToApplications(p.ID)
	return p.ID, nil
}

func (m *Memory) VoidPayment(_ context.Context, paymentID string, at time.Time, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.payments[paymentID]
	if !ok {
		return fmt.Errorf("%w: payment %s", ErrNotFound, paymentID)
	}

	voided, err := p.MarkVoided(at, reason)
	if err != nil {
		return err
	}

	snapshot := m.installmentsByClientLocked(p.ClientID)
	updated, err := ledger.ApplyReversal(snapshot, ledger.Reverse(m.applications[paymentID]))
	if err != nil {
		return err
	}

	for _, inst := range updated {
		m.installments[inst.ID] = inst
	}
	m.payments[paymentID] = voided
	return nil
}

func (m *Memory) GetPayment(_ context.Context, id string) (*ledger.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, fmt.Errorf("%w: payment %s", ErrNotFound, id)
	}
	return &p, nil
}

func (m *Memory) ListPayments(_ context.Context, limit int) ([]ledger.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ledger.Payment, 0, len(m.payments))
	for _, p := range m.payments {
		out = append(out, p)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) ApplicationsByPayment(_ context.Context, paymentID string) ([]ledger.PaymentApplication, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	apps := make([]ledger.PaymentApplication, len(m.applications[paymentID]))
	copy(apps, m.applications[paymentID])
	return apps, nil
}
