package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/mcclellann/backoffice/pkg/date"
	"github.com/mcclellann/backoffice/pkg/models"
	"github.com/shopspring/decimal"
)

// Queries is the per-table CRUD surface. Lookups of a missing id fail with models.ErrNotFound,
// every other failure is a models.ErrStorage.
type Queries interface {
	CreateAccount(ctx context.Context, a *models.Account) error
	GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error)
	ListAccounts(ctx context.Context) ([]*models.Account, error)
	DeleteAccount(ctx context.Context, id uuid.UUID) error

	CreateMovement(ctx context.Context, m *models.Movement) error
	GetMovement(ctx context.Context, id uuid.UUID) (*models.Movement, error)
	UpdateMovement(ctx context.Context, m *models.Movement) error
	DeleteMovement(ctx context.Context, id uuid.UUID) error
	// ListMovements returns an account's movements in chain order, restricted to r.
	ListMovements(ctx context.Context, accountID uuid.UUID, r date.Range) ([]*models.Movement, error)
	// MovementsFrom returns the movements at or after position (on, seq), in chain order.
	MovementsFrom(ctx context.Context, accountID uuid.UUID, on date.Date, seq int64) ([]*models.Movement, error)
	// BalanceBefore returns the resultant balance of the last movement strictly before (on, seq), zero if none.
	BalanceBefore(ctx context.Context, accountID uuid.UUID, on date.Date, seq int64) (decimal.Decimal, error)
	ListMovementsByConcept(ctx context.Context, concept string, r date.Range) ([]*models.Movement, error)
	// ClearOriginRefs nulls out origin references that point at movements of accountID.
	ClearOriginRefs(ctx context.Context, accountID uuid.UUID) error
	// ClearOriginRef nulls out origin references that point at a single movement.
	ClearOriginRef(ctx context.Context, movementID uuid.UUID) error

	CreateDeposit(ctx context.Context, d *models.Deposit) error
	GetDeposit(ctx context.Context, id uuid.UUID) (*models.Deposit, error)
	UpdateDeposit(ctx context.Context, d *models.Deposit) error
	ListDeposits(ctx context.Context, status *models.DepositStatus) ([]*models.Deposit, error)
	ClearDepositAccount(ctx context.Context, accountID uuid.UUID) error
	CreateDepositUsage(ctx context.Context, u *models.DepositUsage) error
	ListDepositUsages(ctx context.Context, depositID uuid.UUID) ([]*models.DepositUsage, error)
	ClearUsageMovement(ctx context.Context, movementID uuid.UUID) error

	CreateDebt(ctx context.Context, d *models.Debt) error
	GetDebt(ctx context.Context, id uuid.UUID) (*models.Debt, error)
	UpdateDebt(ctx context.Context, d *models.Debt) error
	DeleteDebt(ctx context.Context, id uuid.UUID) error
	ListDebts(ctx context.Context, status *models.DebtStatus) ([]*models.Debt, error)
	CreatePayment(ctx context.Context, p *models.Payment) error
	GetPayment(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	DeletePayment(ctx context.Context, id uuid.UUID) error
	ListPayments(ctx context.Context, debtID uuid.UUID) ([]*models.Payment, error)

	CreateControl(ctx context.Context, c *models.PeriodicControl) error
	GetControl(ctx context.Context, id uuid.UUID) (*models.PeriodicControl, error)
	UpdateControl(ctx context.Context, c *models.PeriodicControl) error
	ListControls(ctx context.Context, concept string) ([]*models.PeriodicControl, error)
	ListPendingControls(ctx context.Context, cadence models.Cadence) ([]*models.PeriodicControl, error)
}

// Storage is the persistent record store. RunInTx executes fn atomically: if fn returns an error
// nothing it wrote is kept.
type Storage interface {
	Queries
	RunInTx(ctx context.Context, fn func(q Queries) error) error
	Close() error
}
