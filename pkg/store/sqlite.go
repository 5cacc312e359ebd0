package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/mcclellann/backoffice/pkg/date"
	"github.com/mcclellann/backoffice/pkg/models"
	"github.com/shopspring/decimal"

	_ "github.com/mattn/go-sqlite3"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// queries implements Queries on top of a connection or a transaction.
type queries struct {
	db dbtx
}

// SQLiteStore manages the database connection and operations for SQLite.
type SQLiteStore struct {
	*queries
	db *sql.DB
}

var _ Storage = (*SQLiteStore)(nil)

// NewSQLiteStore opens the database at path and initializes the schema.
// Transactions take the write lock when they begin so that a chain recompute never races another writer.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}

	s := &SQLiteStore{queries: &queries{db: db}, db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not initialize schema: %w", err)
	}
	log.Println("Database connection established and schema initialized.")
	return s, nil
}

// initSchema creates the tables if they don't already exist.
// Decimal fields are TEXT so no precision is lost, dates are TEXT in YYYY-MM-DD so they sort chronologically.
func (s *SQLiteStore) initSchema() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			category TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS movements (
			id TEXT PRIMARY KEY,
			account_id TEXT NOT NULL REFERENCES accounts(id),
			date TEXT NOT NULL,
			seq INTEGER NOT NULL,
			amount TEXT NOT NULL,
			concept TEXT NOT NULL,
			balance TEXT NOT NULL,
			origin_id TEXT,
			created_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_movements_chain ON movements(account_id, date, seq);`,
		`CREATE INDEX IF NOT EXISTS idx_movements_concept ON movements(concept, date);`,
		`CREATE TABLE IF NOT EXISTS deposits (
			id TEXT PRIMARY KEY,
			titular TEXT NOT NULL,
			principal TEXT NOT NULL,
			remaining TEXT NOT NULL,
			receipt_date TEXT NOT NULL,
			use_date TEXT,
			return_date TEXT,
			amount_returned TEXT,
			forfeited TEXT,
			status TEXT NOT NULL,
			disposition_kind TEXT,
			description TEXT NOT NULL DEFAULT '',
			account_id TEXT,
			client_id TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_deposits_status ON deposits(status);`,
		`CREATE TABLE IF NOT EXISTS deposit_usages (
			id TEXT PRIMARY KEY,
			deposit_id TEXT NOT NULL REFERENCES deposits(id),
			date TEXT NOT NULL,
			kind TEXT NOT NULL,
			amount TEXT NOT NULL,
			description TEXT NOT NULL,
			movement_id TEXT,
			created_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS debts (
			id TEXT PRIMARY KEY,
			concepto TEXT NOT NULL,
			acreedor TEXT NOT NULL,
			principal TEXT NOT NULL,
			mode TEXT NOT NULL,
			installment_count INTEGER,
			installment_amount TEXT,
			start_date TEXT NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			total_paid TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS payments (
			id TEXT PRIMARY KEY,
			debt_id TEXT NOT NULL REFERENCES debts(id),
			amount TEXT NOT NULL,
			date TEXT NOT NULL,
			installment_index INTEGER,
			note TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_payments_debt ON payments(debt_id);`,
		`CREATE TABLE IF NOT EXISTS periodic_controls (
			id TEXT PRIMARY KEY,
			concepto TEXT NOT NULL,
			cadence TEXT NOT NULL,
			window_start TEXT NOT NULL,
			window_end TEXT NOT NULL,
			total_recaudado TEXT NOT NULL,
			fecha_pago TEXT NOT NULL,
			pagado INTEGER NOT NULL DEFAULT 0,
			fecha_pago_real TEXT,
			updated_at DATETIME NOT NULL,
			UNIQUE(concepto, window_start, window_end)
		);`,
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// RunInTx runs fn inside a single transaction, rolling back when fn fails.
func (s *SQLiteStore) RunInTx(ctx context.Context, fn func(q Queries) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.StorageFailure("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if err := fn(&queries{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return models.StorageFailure("failed to commit transaction", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// exec runs a single statement and, when what is not empty, reports a missing row as not found.
func (q *queries) exec(ctx context.Context, op, what string, id uuid.UUID, query string, args ...any) error {
	result, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return models.StorageFailure(op, err)
	}
	if what == "" {
		return nil
	}
	n, err := result.RowsAffected()
	if err != nil {
		return models.StorageFailure("failed to check rows affected", err)
	}
	if n == 0 {
		return models.NotFound("%s %s not found", what, id)
	}
	return nil
}

// rangeClause appends the bounds of r on column col.
func rangeClause(query string, args []any, col string, r date.Range) (string, []any) {
	if !r.From.IsZero() {
		query += " AND " + col + " >= ?"
		args = append(args, r.From)
	}
	if !r.To.IsZero() {
		query += " AND " + col + " <= ?"
		args = append(args, r.To)
	}
	return query, args
}

// --- accounts ---

func (q *queries) CreateAccount(ctx context.Context, a *models.Account) error {
	return q.exec(ctx, "failed to create account", "", a.ID,
		`INSERT INTO accounts (id, name, category, created_at) VALUES (?, ?, ?, ?)`,
		a.ID, a.Name, a.Category, a.CreatedAt)
}

func (q *queries) GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var a models.Account
	row := q.db.QueryRowContext(ctx, `SELECT id, name, category, created_at FROM accounts WHERE id = ?`, id)
	if err := row.Scan(&a.ID, &a.Name, &a.Category, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NotFound("account %s not found", id)
		}
		return nil, models.StorageFailure("failed to get account", err)
	}
	return &a, nil
}

func (q *queries) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT id, name, category, created_at FROM accounts ORDER BY name`)
	if err != nil {
		return nil, models.StorageFailure("failed to list accounts", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Category, &a.CreatedAt); err != nil {
			return nil, models.StorageFailure("failed to scan account row", err)
		}
		accounts = append(accounts, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, models.StorageFailure("error during rows iteration", err)
	}
	return accounts, nil
}

// DeleteAccount removes the account together with the movements it owns.
func (q *queries) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	if err := q.exec(ctx, "failed to delete account movements", "", id,
		`DELETE FROM movements WHERE account_id = ?`, id); err != nil {
		return err
	}
	return q.exec(ctx, "failed to delete account", "account", id, `DELETE FROM accounts WHERE id = ?`, id)
}

// --- movements ---

const movementColumns = `id, account_id, date, seq, amount, concept, balance, origin_id, created_at`

func scanMovement(sc rowScanner) (*models.Movement, error) {
	var m models.Movement
	err := sc.Scan(&m.ID, &m.AccountID, &m.Date, &m.Seq, &m.Amount, &m.Concept, &m.Balance, &m.OriginID, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (q *queries) queryMovements(ctx context.Context, query string, args ...any) ([]*models.Movement, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, models.StorageFailure("failed to query movements", err)
	}
	defer rows.Close()

	var movements []*models.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, models.StorageFailure("failed to scan movement row", err)
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, models.StorageFailure("error during rows iteration for movements", err)
	}
	return movements, nil
}

func (q *queries) CreateMovement(ctx context.Context, m *models.Movement) error {
	return q.exec(ctx, "failed to create movement", "", m.ID,
		`INSERT INTO movements (`+movementColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.AccountID, m.Date, m.Seq, m.Amount, m.Concept, m.Balance, m.OriginID, m.CreatedAt)
}

func (q *queries) GetMovement(ctx context.Context, id uuid.UUID) (*models.Movement, error) {
	m, err := scanMovement(q.db.QueryRowContext(ctx, `SELECT `+movementColumns+` FROM movements WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NotFound("movement %s not found", id)
		}
		return nil, models.StorageFailure("failed to get movement", err)
	}
	return m, nil
}

func (q *queries) UpdateMovement(ctx context.Context, m *models.Movement) error {
	return q.exec(ctx, "failed to update movement", "movement", m.ID,
		`UPDATE movements SET date = ?, seq = ?, amount = ?, concept = ?, balance = ?, origin_id = ? WHERE id = ?`,
		m.Date, m.Seq, m.Amount, m.Concept, m.Balance, m.OriginID, m.ID)
}

func (q *queries) DeleteMovement(ctx context.Context, id uuid.UUID) error {
	return q.exec(ctx, "failed to delete movement", "movement", id, `DELETE FROM movements WHERE id = ?`, id)
}

func (q *queries) ListMovements(ctx context.Context, accountID uuid.UUID, r date.Range) ([]*models.Movement, error) {
	query, args := rangeClause(`SELECT `+movementColumns+` FROM movements WHERE account_id = ?`, []any{accountID}, "date", r)
	return q.queryMovements(ctx, query+` ORDER BY date, seq`, args...)
}

func (q *queries) MovementsFrom(ctx context.Context, accountID uuid.UUID, on date.Date, seq int64) ([]*models.Movement, error) {
	return q.queryMovements(ctx,
		`SELECT `+movementColumns+` FROM movements
		WHERE account_id = ? AND (date > ? OR (date = ? AND seq >= ?))
		ORDER BY date, seq`,
		accountID, on, on, seq)
}

func (q *queries) BalanceBefore(ctx context.Context, accountID uuid.UUID, on date.Date, seq int64) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := q.db.QueryRowContext(ctx,
		`SELECT balance FROM movements
		WHERE account_id = ? AND (date < ? OR (date = ? AND seq < ?))
		ORDER BY date DESC, seq DESC LIMIT 1`,
		accountID, on, on, seq).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, models.StorageFailure("failed to get preceding balance", err)
	}
	return balance, nil
}

func (q *queries) ListMovementsByConcept(ctx context.Context, concept string, r date.Range) ([]*models.Movement, error) {
	query, args := rangeClause(`SELECT `+movementColumns+` FROM movements WHERE concept = ?`, []any{concept}, "date", r)
	return q.queryMovements(ctx, query+` ORDER BY date, seq`, args...)
}

func (q *queries) ClearOriginRefs(ctx context.Context, accountID uuid.UUID) error {
	return q.exec(ctx, "failed to clear origin references", "", accountID,
		`UPDATE movements SET origin_id = NULL WHERE origin_id IN (SELECT id FROM movements WHERE account_id = ?)`, accountID)
}

func (q *queries) ClearOriginRef(ctx context.Context, movementID uuid.UUID) error {
	return q.exec(ctx, "failed to clear origin reference", "", movementID,
		`UPDATE movements SET origin_id = NULL WHERE origin_id = ?`, movementID)
}

// --- deposits ---

const depositColumns = `id, titular, principal, remaining, receipt_date, use_date, return_date, amount_returned,
	forfeited, status, disposition_kind, description, account_id, client_id, created_at, updated_at`

func scanDeposit(sc rowScanner) (*models.Deposit, error) {
	var d models.Deposit
	err := sc.Scan(&d.ID, &d.Titular, &d.Principal, &d.Remaining, &d.ReceiptDate, &d.UseDate, &d.ReturnDate,
		&d.AmountReturned, &d.Forfeited, &d.Status, &d.DispositionKind, &d.Description, &d.AccountID, &d.ClientID,
		&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (q *queries) CreateDeposit(ctx context.Context, d *models.Deposit) error {
	return q.exec(ctx, "failed to create deposit", "", d.ID,
		`INSERT INTO deposits (`+depositColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Titular, d.Principal, d.Remaining, d.ReceiptDate, d.UseDate, d.ReturnDate, d.AmountReturned,
		d.Forfeited, d.Status, d.DispositionKind, d.Description, d.AccountID, d.ClientID, d.CreatedAt, d.UpdatedAt)
}

func (q *queries) GetDeposit(ctx context.Context, id uuid.UUID) (*models.Deposit, error) {
	d, err := scanDeposit(q.db.QueryRowContext(ctx, `SELECT `+depositColumns+` FROM deposits WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NotFound("deposit %s not found", id)
		}
		return nil, models.StorageFailure("failed to get deposit", err)
	}
	return d, nil
}

func (q *queries) UpdateDeposit(ctx context.Context, d *models.Deposit) error {
	return q.exec(ctx, "failed to update deposit", "deposit", d.ID,
		`UPDATE deposits SET titular = ?, principal = ?, remaining = ?, receipt_date = ?, use_date = ?, return_date = ?,
		amount_returned = ?, forfeited = ?, status = ?, disposition_kind = ?, description = ?, account_id = ?,
		client_id = ?, updated_at = ? WHERE id = ?`,
		d.Titular, d.Principal, d.Remaining, d.ReceiptDate, d.UseDate, d.ReturnDate, d.AmountReturned, d.Forfeited,
		d.Status, d.DispositionKind, d.Description, d.AccountID, d.ClientID, d.UpdatedAt, d.ID)
}

func (q *queries) ListDeposits(ctx context.Context, status *models.DepositStatus) ([]*models.Deposit, error) {
	query := `SELECT ` + depositColumns + ` FROM deposits`
	var args []any
	if status != nil {
		query += ` WHERE status = ?`
		args = append(args, *status)
	}
	rows, err := q.db.QueryContext(ctx, query+` ORDER BY receipt_date, created_at`, args...)
	if err != nil {
		return nil, models.StorageFailure("failed to list deposits", err)
	}
	defer rows.Close()

	var deposits []*models.Deposit
	for rows.Next() {
		d, err := scanDeposit(rows)
		if err != nil {
			return nil, models.StorageFailure("failed to scan deposit row", err)
		}
		deposits = append(deposits, d)
	}
	if err := rows.Err(); err != nil {
		return nil, models.StorageFailure("error during rows iteration for deposits", err)
	}
	return deposits, nil
}

func (q *queries) ClearDepositAccount(ctx context.Context, accountID uuid.UUID) error {
	return q.exec(ctx, "failed to clear deposit account references", "", accountID,
		`UPDATE deposits SET account_id = NULL WHERE account_id = ?`, accountID)
}

func (q *queries) CreateDepositUsage(ctx context.Context, u *models.DepositUsage) error {
	return q.exec(ctx, "failed to create deposit usage", "", u.ID,
		`INSERT INTO deposit_usages (id, deposit_id, date, kind, amount, description, movement_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.DepositID, u.Date, u.Kind, u.Amount, u.Description, u.MovementID, u.CreatedAt)
}

func (q *queries) ListDepositUsages(ctx context.Context, depositID uuid.UUID) ([]*models.DepositUsage, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, deposit_id, date, kind, amount, description, movement_id, created_at
		FROM deposit_usages WHERE deposit_id = ? ORDER BY date, created_at`, depositID)
	if err != nil {
		return nil, models.StorageFailure("failed to list deposit usages", err)
	}
	defer rows.Close()

	var usages []*models.DepositUsage
	for rows.Next() {
		var u models.DepositUsage
		if err := rows.Scan(&u.ID, &u.DepositID, &u.Date, &u.Kind, &u.Amount, &u.Description, &u.MovementID, &u.CreatedAt); err != nil {
			return nil, models.StorageFailure("failed to scan deposit usage row", err)
		}
		usages = append(usages, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, models.StorageFailure("error during rows iteration for deposit usages", err)
	}
	return usages, nil
}

func (q *queries) ClearUsageMovement(ctx context.Context, movementID uuid.UUID) error {
	return q.exec(ctx, "failed to clear usage movement reference", "", movementID,
		`UPDATE deposit_usages SET movement_id = NULL WHERE movement_id = ?`, movementID)
}

// --- debts ---

const debtColumns = `id, concepto, acreedor, principal, mode, installment_count, installment_amount, start_date,
	notes, status, total_paid, created_at, updated_at`

func scanDebt(sc rowScanner) (*models.Debt, error) {
	var d models.Debt
	err := sc.Scan(&d.ID, &d.Concepto, &d.Acreedor, &d.Principal, &d.Mode, &d.InstallmentCount,
		&d.InstallmentAmount, &d.StartDate, &d.Notes, &d.Status, &d.TotalPaid, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (q *queries) CreateDebt(ctx context.Context, d *models.Debt) error {
	return q.exec(ctx, "failed to create debt", "", d.ID,
		`INSERT INTO debts (`+debtColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Concepto, d.Acreedor, d.Principal, d.Mode, d.InstallmentCount, d.InstallmentAmount, d.StartDate,
		d.Notes, d.Status, d.TotalPaid, d.CreatedAt, d.UpdatedAt)
}

func (q *queries) GetDebt(ctx context.Context, id uuid.UUID) (*models.Debt, error) {
	d, err := scanDebt(q.db.QueryRowContext(ctx, `SELECT `+debtColumns+` FROM debts WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NotFound("debt %s not found", id)
		}
		return nil, models.StorageFailure("failed to get debt", err)
	}
	return d, nil
}

func (q *queries) UpdateDebt(ctx context.Context, d *models.Debt) error {
	return q.exec(ctx, "failed to update debt", "debt", d.ID,
		`UPDATE debts SET concepto = ?, acreedor = ?, principal = ?, mode = ?, installment_count = ?,
		installment_amount = ?, start_date = ?, notes = ?, status = ?, total_paid = ?, updated_at = ? WHERE id = ?`,
		d.Concepto, d.Acreedor, d.Principal, d.Mode, d.InstallmentCount, d.InstallmentAmount, d.StartDate, d.Notes,
		d.Status, d.TotalPaid, d.UpdatedAt, d.ID)
}

// DeleteDebt removes a debt and the payments it owns.
func (q *queries) DeleteDebt(ctx context.Context, id uuid.UUID) error {
	if err := q.exec(ctx, "failed to delete associated payments", "", id,
		`DELETE FROM payments WHERE debt_id = ?`, id); err != nil {
		return err
	}
	return q.exec(ctx, "failed to delete debt", "debt", id, `DELETE FROM debts WHERE id = ?`, id)
}

func (q *queries) ListDebts(ctx context.Context, status *models.DebtStatus) ([]*models.Debt, error) {
	query := `SELECT ` + debtColumns + ` FROM debts`
	var args []any
	if status != nil {
		query += ` WHERE status = ?`
		args = append(args, *status)
	}
	rows, err := q.db.QueryContext(ctx, query+` ORDER BY start_date, created_at`, args...)
	if err != nil {
		return nil, models.StorageFailure("failed to list debts", err)
	}
	defer rows.Close()

	var debts []*models.Debt
	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, models.StorageFailure("failed to scan debt row", err)
		}
		debts = append(debts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, models.StorageFailure("error during rows iteration for debts", err)
	}
	return debts, nil
}

const paymentColumns = `id, debt_id, amount, date, installment_index, note, created_at`

func scanPayment(sc rowScanner) (*models.Payment, error) {
	var p models.Payment
	if err := sc.Scan(&p.ID, &p.DebtID, &p.Amount, &p.Date, &p.InstallmentIndex, &p.Note, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (q *queries) CreatePayment(ctx context.Context, p *models.Payment) error {
	return q.exec(ctx, "failed to create payment", "", p.ID,
		`INSERT INTO payments (`+paymentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.DebtID, p.Amount, p.Date, p.InstallmentIndex, p.Note, p.CreatedAt)
}

func (q *queries) GetPayment(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	p, err := scanPayment(q.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NotFound("payment %s not found", id)
		}
		return nil, models.StorageFailure("failed to get payment", err)
	}
	return p, nil
}

func (q *queries) DeletePayment(ctx context.Context, id uuid.UUID) error {
	return q.exec(ctx, "failed to delete payment", "payment", id, `DELETE FROM payments WHERE id = ?`, id)
}

func (q *queries) ListPayments(ctx context.Context, debtID uuid.UUID) ([]*models.Payment, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE debt_id = ? ORDER BY date, created_at`, debtID)
	if err != nil {
		return nil, models.StorageFailure(fmt.Sprintf("failed to get payments for debt %s", debtID), err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, models.StorageFailure("failed to scan payment row", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, models.StorageFailure("error during rows iteration for debt payments", err)
	}
	return payments, nil
}

// --- periodic controls ---

const controlColumns = `id, concepto, cadence, window_start, window_end, total_recaudado, fecha_pago, pagado,
	fecha_pago_real, updated_at`

func scanControl(sc rowScanner) (*models.PeriodicControl, error) {
	var c models.PeriodicControl
	err := sc.Scan(&c.ID, &c.Concepto, &c.Cadence, &c.WindowStart, &c.WindowEnd, &c.TotalRecaudado, &c.FechaPago,
		&c.Pagado, &c.FechaPagoReal, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (q *queries) queryControls(ctx context.Context, query string, args ...any) ([]*models.PeriodicControl, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, models.StorageFailure("failed to query periodic controls", err)
	}
	defer rows.Close()

	var controls []*models.PeriodicControl
	for rows.Next() {
		c, err := scanControl(rows)
		if err != nil {
			return nil, models.StorageFailure("failed to scan periodic control row", err)
		}
		controls = append(controls, c)
	}
	if err := rows.Err(); err != nil {
		return nil, models.StorageFailure("error during rows iteration for periodic controls", err)
	}
	return controls, nil
}

func (q *queries) CreateControl(ctx context.Context, c *models.PeriodicControl) error {
	err := q.exec(ctx, "failed to create periodic control", "", c.ID,
		`INSERT INTO periodic_controls (`+controlColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Concepto, c.Cadence, c.WindowStart, c.WindowEnd, c.TotalRecaudado, c.FechaPago, c.Pagado,
		c.FechaPagoReal, c.UpdatedAt)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return models.Validation("a control for %q already covers %s", c.Concepto, c.Window())
	}
	return err
}

func (q *queries) GetControl(ctx context.Context, id uuid.UUID) (*models.PeriodicControl, error) {
	c, err := scanControl(q.db.QueryRowContext(ctx, `SELECT `+controlColumns+` FROM periodic_controls WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NotFound("periodic control %s not found", id)
		}
		return nil, models.StorageFailure("failed to get periodic control", err)
	}
	return c, nil
}

func (q *queries) UpdateControl(ctx context.Context, c *models.PeriodicControl) error {
	return q.exec(ctx, "failed to update periodic control", "periodic control", c.ID,
		`UPDATE periodic_controls SET total_recaudado = ?, fecha_pago = ?, pagado = ?, fecha_pago_real = ?,
		updated_at = ? WHERE id = ?`,
		c.TotalRecaudado, c.FechaPago, c.Pagado, c.FechaPagoReal, c.UpdatedAt, c.ID)
}

func (q *queries) ListControls(ctx context.Context, concept string) ([]*models.PeriodicControl, error) {
	return q.queryControls(ctx,
		`SELECT `+controlColumns+` FROM periodic_controls WHERE concepto = ? ORDER BY window_start`, concept)
}

func (q *queries) ListPendingControls(ctx context.Context, cadence models.Cadence) ([]*models.PeriodicControl, error) {
	return q.queryControls(ctx,
		`SELECT `+controlColumns+` FROM periodic_controls WHERE cadence = ? AND pagado = 0
		ORDER BY fecha_pago, concepto`, cadence)
}
