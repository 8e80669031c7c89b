/*
Package sqlite provides the SQLite-backed implementation of store.Store.

PURPOSE:
  Production persistence for clients, credit accounts, sales,
  installments, promissory notes, payments, and payment applications.

CONSISTENCY:
  Payment commits and voids run inside a single SQL transaction guarded
  by a process-wide write lock, which also satisfies the engine's
  "serialize per client" assumption. Balances are re-validated inside
  the transaction before a plan is applied, so a plan computed from a
  stale snapshot fails with store.ErrStaleSnapshot instead of
  over-applying an installment.

STORAGE CHOICES:
  Amounts are stored as decimal TEXT (never floats), calendar dates as
  YYYY-MM-DD TEXT, timestamps as RFC3339 TEXT. SQLite runs in WAL mode
  so readers don't block behind the writer.
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/vicred/credit-engine/ledger"
	"github.com/vicred/credit-engine/store"
)

type Store struct {
	db *sql.DB
	mu sync.Mutex // serializes writes; see package comment
}

// New opens (or creates) the database at path. Use ":memory:" for tests.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS clients (
		id TEXT PRIMARY KEY,
		dni TEXT UNIQUE,
		name TEXT NOT NULL,
		phone TEXT,
		address TEXT,
		status TEXT NOT NULL DEFAULT 'ACTIVO'
	);

	CREATE TABLE IF NOT EXISTS credit_accounts (
		client_id TEXT PRIMARY KEY REFERENCES clients(id),
		credit_limit TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sales (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL REFERENCES clients(id),
		sale_date TEXT NOT NULL,
		total TEXT NOT NULL,
		down_payment TEXT NOT NULL,
		installment_count INTEGER NOT NULL,
		invoice_number TEXT,
		merchant_id TEXT,
		first_due_date TEXT NOT NULL,
		note TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_sales_client ON sales(client_id);

	CREATE TABLE IF NOT EXISTS installments (
		id TEXT PRIMARY KEY,
		sale_id TEXT REFERENCES sales(id),
		client_id TEXT NOT NULL REFERENCES clients(id),
		nro INTEGER NOT NULL,
		due_date TEXT NOT NULL,
		amount TEXT NOT NULL,
		paid TEXT NOT NULL DEFAULT '0',
		status TEXT NOT NULL DEFAULT 'PENDIENTE',
		UNIQUE(sale_id, nro)
	);
	CREATE INDEX IF NOT EXISTS idx_installments_client_due
		ON installments(client_id, due_date);
	CREATE INDEX IF NOT EXISTS idx_installments_sale
		ON installments(sale_id);

	CREATE TABLE IF NOT EXISTS promissory_notes (
		sale_id TEXT NOT NULL REFERENCES sales(id),
		client_id TEXT NOT NULL,
		nro INTEGER NOT NULL,
		amount TEXT NOT NULL,
		due_date TEXT NOT NULL,
		PRIMARY KEY (sale_id, nro)
	);

	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL REFERENCES clients(id),
		sale_id TEXT,
		amount TEXT NOT NULL,
		method TEXT NOT NULL,
		reference TEXT,
		created_at TEXT NOT NULL,
		voided INTEGER NOT NULL DEFAULT 0,
		voided_at TEXT,
		voided_reason TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_payments_client ON payments(client_id);
	CREATE INDEX IF NOT EXISTS idx_payments_created ON payments(created_at DESC);

	CREATE TABLE IF NOT EXISTS payment_applications (
		payment_id TEXT NOT NULL REFERENCES payments(id),
		installment_id TEXT NOT NULL REFERENCES installments(id),
		applied TEXT NOT NULL,
		PRIMARY KEY (payment_id, installment_id)
	);
	CREATE INDEX IF NOT EXISTS idx_applications_installment
		ON payment_applications(installment_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CLIENTS
// =============================================================================

func (s *Store) SaveClient(ctx context.Context, c ledger.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = ledger.CreditActivo
	}

	if c.DNI != "" {
		var existing string
		err := s.db.QueryRowContext(ctx,
			`SELECT id FROM clients WHERE dni = ? AND id != ?`, c.DNI, c.ID).Scan(&existing)
		if err == nil {
			return fmt.Errorf("%w: %s", store.ErrDuplicateDNI, c.DNI)
		}
		if err != sql.ErrNoRows {
			return err
		}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clients (id, dni, name, phone, address, status)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			dni = excluded.dni, name = excluded.name, phone = excluded.phone,
			address = excluded.address, status = excluded.status`,
		c.ID, nullable(c.DNI), c.Name, c.Phone, c.Address, string(c.Status))
	return err
}

func (s *Store) GetClient(ctx context.Context, id string) (*ledger.Client, error) {
	return s.queryClient(ctx, `SELECT id, dni, name, phone, address, status FROM clients WHERE id = ?`, id)
}

func (s *Store) GetClientByDNI(ctx context.Context, dni string) (*ledger.Client, error) {
	return s.queryClient(ctx, `SELECT id, dni, name, phone, address, status FROM clients WHERE dni = ?`, dni)
}

func (s *Store) queryClient(ctx context.Context, query string, arg any) (*ledger.Client, error) {
	var c ledger.Client
	var dni, phone, address, status sql.NullString
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&c.ID, &dni, &c.Name, &phone, &address, &status)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: client %v", store.ErrNotFound, arg)
	}
	if err != nil {
		return nil, err
	}
	c.DNI = dni.String
	c.Phone = phone.String
	c.Address = address.String
	c.Status = ledger.CreditStatus(status.String)
	return &c, nil
}

func (s *Store) ListClients(ctx context.Context) ([]ledger.Client, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, dni, name, phone, address, status FROM clients ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Client
	for rows.Next() {
		var c ledger.Client
		var dni, phone, address, status sql.NullString
		if err := rows.Scan(&c.ID, &dni, &c.Name, &phone, &address, &status); err != nil {
			return nil, err
		}
		c.DNI = dni.String
		c.Phone = phone.String
		c.Address = address.String
		c.Status = ledger.CreditStatus(status.String)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) SetClientStatus(ctx context.Context, id string, status ledger.CreditStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `UPDATE clients SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: client %s", store.ErrNotFound, id)
	}
	return nil
}

func (s *Store) SaveAccount(ctx context.Context, a ledger.CreditAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exists string
	if err := s.db.QueryRowContext(ctx, `SELECT id FROM clients WHERE id = ?`, a.ClientID).Scan(&exists); err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: client %s", store.ErrNotFound, a.ClientID)
		}
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credit_accounts (client_id, credit_limit) VALUES (?, ?)
		ON CONFLICT(client_id) DO UPDATE SET credit_limit = excluded.credit_limit`,
		a.ClientID, a.Limit.String())
	return err
}

func (s *Store) GetAccount(ctx context.Context, clientID string) (*ledger.CreditAccount, error) {
	var limit string
	err := s.db.QueryRowContext(ctx,
		`SELECT credit_limit FROM credit_accounts WHERE client_id = ?`, clientID).Scan(&limit)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: account for client %s", store.ErrNotFound, clientID)
	}
	if err != nil {
		return nil, err
	}
	m, err := ledger.ParseMoney(limit)
	if err != nil {
		return nil, err
	}
	return &ledger.CreditAccount{ClientID: clientID, Limit: m}, nil
}

// =============================================================================
// SALES - Sale + schedule + pagaré batch persisted atomically
// =============================================================================

func (s *Store) CreateSale(ctx context.Context, sale ledger.Sale, installments []ledger.Installment, notes []ledger.PromissoryNote) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sale.ID == "" {
		sale.ID = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sales (id, client_id, sale_date, total, down_payment,
			installment_count, invoice_number, merchant_id, first_due_date, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sale.ID, sale.ClientID, sale.Date.String(), sale.Total.String(),
		sale.DownPayment.String(), sale.InstallmentCount,
		nullable(sale.InvoiceNumber), nullable(sale.MerchantID),
		sale.FirstDueDate.String(), nullable(sale.Note))
	if err != nil {
		return "", err
	}

	for _, inst := range installments {
		id := inst.ID
		if id == "" {
			id = uuid.NewString()
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO installments (id, sale_id, client_id, nro, due_date, amount, paid, status)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, sale.ID, inst.ClientID, inst.Nro, inst.DueDate.String(),
			inst.Amount.String(), inst.Paid.String(), string(inst.Status))
		if err != nil {
			return "", err
		}
	}

	for _, note := range notes {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO promissory_notes (sale_id, client_id, nro, amount, due_date)
			VALUES (?, ?, ?, ?, ?)`,
			sale.ID, note.ClientID, note.Nro, note.Amount.String(), note.DueDate.String())
		if err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return sale.ID, nil
}

const saleColumns = `id, client_id, sale_date, total, down_payment,
	installment_count, invoice_number, merchant_id, first_due_date, note`

func (s *Store) GetSale(ctx context.Context, id string) (*ledger.Sale, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = ?`, id)
	sale, err := scanSale(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: sale %s", store.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return sale, nil
}

func (s *Store) SalesByClient(ctx context.Context, clientID string) ([]ledger.Sale, error) {
	return s.querySales(ctx, `SELECT `+saleColumns+` FROM sales WHERE client_id = ? ORDER BY sale_date, id`, clientID)
}

func (s *Store) ListSales(ctx context.Context) ([]ledger.Sale, error) {
	return s.querySales(ctx, `SELECT `+saleColumns+` FROM sales ORDER BY sale_date, id`)
}

func (s *Store) querySales(ctx context.Context, query string, args ...any) ([]ledger.Sale, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sale)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSale(row rowScanner) (*ledger.Sale, error) {
	var sale ledger.Sale
	var saleDate, total, down, firstDue string
	var invoice, merchant, note sql.NullString

	err := row.Scan(&sale.ID, &sale.ClientID, &saleDate, &total, &down,
		&sale.InstallmentCount, &invoice, &merchant, &firstDue, &note)
	if err != nil {
		return nil, err
	}

	if sale.Date, err = ledger.ParseDate(saleDate); err != nil {
		return nil, err
	}
	if sale.Total, err = ledger.ParseMoney(total); err != nil {
		return nil, err
	}
	if sale.DownPayment, err = ledger.ParseMoney(down); err != nil {
		return nil, err
	}
	if sale.FirstDueDate, err = ledger.ParseDate(firstDue); err != nil {
		return nil, err
	}
	sale.InvoiceNumber = invoice.String
	sale.MerchantID = merchant.String
	sale.Note = note.String
	return &sale, nil
}

// =============================================================================
// INSTALLMENTS AND NOTES
// =============================================================================

const installmentColumns = `id, sale_id, client_id, nro, due_date, amount, paid, status`

func (s *Store) InstallmentsByClient(ctx context.Context, clientID string) ([]ledger.Installment, error) {
	return queryInstallments(ctx, s.db,
		`SELECT `+installmentColumns+` FROM installments WHERE client_id = ? ORDER BY due_date, nro`, clientID)
}

func (s *Store) InstallmentsBySale(ctx context.Context, saleID string) ([]ledger.Installment, error) {
	return queryInstallments(ctx, s.db,
		`SELECT `+installmentColumns+` FROM installments WHERE sale_id = ? ORDER BY nro`, saleID)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryInstallments(ctx context.Context, q querier, query string, args ...any) ([]ledger.Installment, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Installment
	for rows.Next() {
		inst, err := scanInstallment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inst)
	}
	return out, rows.Err()
}

func scanInstallment(row rowScanner) (*ledger.Installment, error) {
	var inst ledger.Installment
	var saleID sql.NullString
	var due, amount, paid, status string

	err := row.Scan(&inst.ID, &saleID, &inst.ClientID, &inst.Nro, &due, &amount, &paid, &status)
	if err != nil {
		return nil, err
	}

	inst.SaleID = saleID.String
	if inst.DueDate, err = ledger.ParseDate(due); err != nil {
		return nil, err
	}
	if inst.Amount, err = ledger.ParseMoney(amount); err != nil {
		return nil, err
	}
	if inst.Paid, err = ledger.ParseMoney(paid); err != nil {
		return nil, err
	}
	inst.Status = ledger.InstallmentStatus(status)
	return &inst, nil
}

func (s *Store) NotesBySale(ctx context.Context, saleID string) ([]ledger.PromissoryNote, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT sale_id, client_id, nro, amount, due_date FROM promissory_notes WHERE sale_id = ? ORDER BY nro`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.PromissoryNote
	for rows.Next() {
		var note ledger.PromissoryNote
		var amount, due string
		if err := rows.Scan(&note.SaleID, &note.ClientID, &note.Nro, &amount, &due); err != nil {
			return nil, err
		}
		if note.Amount, err = ledger.ParseMoney(amount); err != nil {
			return nil, err
		}
		if note.DueDate, err = ledger.ParseDate(due); err != nil {
			return nil, err
		}
		out = append(out, note)
	}
	return out, rows.Err()
}

// =============================================================================
// PAYMENTS - Atomic commit and void
// =============================================================================

func (s *Store) CommitPayment(ctx context.Context, p ledger.Payment, plan ledger.AllocationPlan) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	// Re-validate every candidate balance inside the transaction: the
	// plan was computed from a snapshot that may have gone stale.
	for _, app := range plan.Applications {
		inst, err := readInstallmentAmounts(ctx, tx, app.InstallmentID)
		if err != nil {
			return "", err
		}
		if app.Applied.GreaterThan(inst.Balance()) {
			return "", fmt.Errorf("%w: installment %s balance %s < applied %s",
				store.ErrStaleSnapshot, app.InstallmentID, inst.Balance(), app.Applied)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO payments (id, client_id, sale_id, amount, method, reference, created_at, voided)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0)`,
		p.ID, p.ClientID, nullable(p.SaleID), p.Amount.String(), string(p.Method),
		nullable(p.Reference), p.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return "", err
	}

	for _, app := range plan.Applications {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO payment_applications (payment_id, installment_id, applied)
			VALUES (?, ?, ?)`,
			p.ID, app.InstallmentID, app.Applied.String()); err != nil {
			return "", err
		}
		if err = bumpPaid(ctx, tx, app.InstallmentID, app.Applied); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return p.ID, nil
}

func readInstallmentAmounts(ctx context.Context, tx *sql.Tx, installmentID string) (ledger.Installment, error) {
	var amount, paid string
	err := tx.QueryRowContext(ctx,
		`SELECT amount, paid FROM installments WHERE id = ?`, installmentID).Scan(&amount, &paid)
	if err == sql.ErrNoRows {
		return ledger.Installment{}, fmt.Errorf("%w: installment %s", store.ErrNotFound, installmentID)
	}
	if err != nil {
		return ledger.Installment{}, err
	}

	inst := ledger.Installment{ID: installmentID}
	if inst.Amount, err = ledger.ParseMoney(amount); err != nil {
		return ledger.Installment{}, err
	}
	if inst.Paid, err = ledger.ParseMoney(paid); err != nil {
		return ledger.Installment{}, err
	}
	return inst, nil
}

// bumpPaid adds delta to an installment's paid amount and refreshes the
// textual status from the numeric balance.
func bumpPaid(ctx context.Context, tx *sql.Tx, installmentID string, delta ledger.Money) error {
	inst, err := readInstallmentAmounts(ctx, tx, installmentID)
	if err != nil {
		return err
	}

	inst.Paid = inst.Paid.Add(delta).Round()
	status := ledger.StatusPendiente
	if inst.IsSettled() {
		status = ledger.StatusPagada
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE installments SET paid = ?, status = ? WHERE id = ?`,
		inst.Paid.String(), string(status), installmentID)
	return err
}

func (s *Store) VoidPayment(ctx context.Context, paymentID string, at time.Time, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	p, err := getPayment(ctx, tx, paymentID)
	if err != nil {
		return err
	}

	voided, err := p.MarkVoided(at, reason)
	if err != nil {
		return err
	}

	apps, err := queryApplications(ctx, tx, paymentID)
	if err != nil {
		return err
	}

	snapshot, err := queryInstallments(ctx, tx,
		`SELECT `+installmentColumns+` FROM installments WHERE client_id = ? ORDER BY due_date, nro`, p.ClientID)
	if err != nil {
		return err
	}

	updated, err := ledger.ApplyReversal(snapshot, ledger.Reverse(apps))
	if err != nil {
		return err
	}

	for _, inst := range updated {
		if _, err := tx.ExecContext(ctx,
			`UPDATE installments SET paid = ?, status = ? WHERE id = ?`,
			inst.Paid.String(), string(inst.Status), inst.ID); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE payments SET voided = 1, voided_at = ?, voided_reason = ? WHERE id = ?`,
		voided.VoidedAt.UTC().Format(time.RFC3339), voided.VoidedReason, paymentID); err != nil {
		return err
	}

	return tx.Commit()
}

const paymentColumns = `id, client_id, sale_id, amount, method, reference,
	created_at, voided, voided_at, voided_reason`

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) GetPayment(ctx context.Context, id string) (*ledger.Payment, error) {
	return getPayment(ctx, s.db, id)
}

func getPayment(ctx context.Context, q rowQuerier, id string) (*ledger.Payment, error) {
	row := q.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id)
	p, err := scanPayment(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: payment %s", store.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func scanPayment(row rowScanner) (*ledger.Payment, error) {
	var p ledger.Payment
	var saleID, reference, voidedAt, voidedReason sql.NullString
	var amount, method, createdAt string
	var voided int

	err := row.Scan(&p.ID, &p.ClientID, &saleID, &amount, &method, &reference,
		&createdAt, &voided, &voidedAt, &voidedReason)
	if err != nil {
		return nil, err
	}

	p.SaleID = saleID.String
	p.Reference = reference.String
	p.Method = ledger.PaymentMethod(method)
	p.Voided = voided != 0
	p.VoidedReason = voidedReason.String

	if p.Amount, err = ledger.ParseMoney(amount); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, err
	}
	if voidedAt.Valid {
		if p.VoidedAt, err = time.Parse(time.RFC3339, voidedAt.String); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

func (s *Store) ListPayments(ctx context.Context, limit int) ([]ledger.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments ORDER BY created_at DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (s *Store) ApplicationsByPayment(ctx context.Context, paymentID string) ([]ledger.PaymentApplication, error) {
	return queryApplications(ctx, s.db, paymentID)
}

func queryApplications(ctx context.Context, q querier, paymentID string) ([]ledger.PaymentApplication, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT payment_id, installment_id, applied FROM payment_applications WHERE payment_id = ?`, paymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.PaymentApplication
	for rows.Next() {
		var app ledger.PaymentApplication
		var applied string
		if err := rows.Scan(&app.PaymentID, &app.InstallmentID, &applied); err != nil {
			return nil, err
		}
		if app.Applied, err = ledger.ParseMoney(applied); err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	return out, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
