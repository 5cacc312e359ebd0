package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mcclellann/backoffice/pkg/date"
	"github.com/mcclellann/backoffice/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newAccount(t *testing.T, s *SQLiteStore) *models.Account {
	t.Helper()
	a := &models.Account{ID: uuid.New(), Name: "Caja", Category: "CAJA", CreatedAt: time.Now()}
	require.NoError(t, s.CreateAccount(context.Background(), a))
	return a
}

func newMovement(accountID uuid.UUID, on string, seq int64, amount, balance string) *models.Movement {
	return &models.Movement{
		ID:        uuid.New(),
		AccountID: accountID,
		Date:      date.MustParse(on),
		Seq:       seq,
		Amount:    decimal.RequireFromString(amount),
		Concept:   "ABL",
		Balance:   decimal.RequireFromString(balance),
		CreatedAt: time.Now(),
	}
}

func TestSQLiteStore_CreateAndGetAccount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := newAccount(t, s)

	fetched, err := s.GetAccount(ctx, a.ID)
	if err != nil {
		t.Fatalf("Failed to get account: %v", err)
	}
	if fetched.Name != a.Name {
		t.Errorf("Expected Name %s, got %s", a.Name, fetched.Name)
	}

	_, err = s.GetAccount(ctx, uuid.New())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestSQLiteStore_MovementChainQueries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := newAccount(t, s)

	m1 := newMovement(a.ID, "2024-03-01", 10, "100", "100")
	m2 := newMovement(a.ID, "2024-03-01", 20, "-30", "70")
	m3 := newMovement(a.ID, "2024-03-05", 5, "12.34", "82.34")
	m3.OriginID = &m1.ID
	for _, m := range []*models.Movement{m3, m1, m2} {
		require.NoError(t, s.CreateMovement(ctx, m))
	}

	all, err := s.ListMovements(ctx, a.ID, date.Range{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []uuid.UUID{m1.ID, m2.ID, m3.ID}, []uuid.UUID{all[0].ID, all[1].ID, all[2].ID})
	assert.True(t, all[2].Amount.Equal(decimal.RequireFromString("12.34")))
	require.NotNil(t, all[2].OriginID)
	assert.Equal(t, m1.ID, *all[2].OriginID)

	balance, err := s.BalanceBefore(ctx, a.ID, m2.Date, m2.Seq)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(100)))

	balance, err = s.BalanceBefore(ctx, a.ID, m1.Date, m1.Seq)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())

	tail, err := s.MovementsFrom(ctx, a.ID, m2.Date, m2.Seq)
	require.NoError(t, err)
	require.Len(t, tail, 2)
	assert.Equal(t, m2.ID, tail[0].ID)

	ranged, err := s.ListMovements(ctx, a.ID, date.Range{From: date.MustParse("2024-03-02")})
	require.NoError(t, err)
	assert.Len(t, ranged, 1)

	byConcept, err := s.ListMovementsByConcept(ctx, "ABL", date.Range{To: date.MustParse("2024-03-01")})
	require.NoError(t, err)
	assert.Len(t, byConcept, 2)

	require.NoError(t, s.ClearOriginRef(ctx, m1.ID))
	got, err := s.GetMovement(ctx, m3.ID)
	require.NoError(t, err)
	assert.Nil(t, got.OriginID)

	assert.ErrorIs(t, s.DeleteMovement(ctx, uuid.New()), models.ErrNotFound)
}

func TestSQLiteStore_RunInTxRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := newAccount(t, s)

	err := s.RunInTx(ctx, func(q Queries) error {
		if err := q.CreateMovement(ctx, newMovement(a.ID, "2024-03-01", 1, "10", "10")); err != nil {
			return err
		}
		return models.Validation("abort")
	})
	assert.ErrorIs(t, err, models.ErrValidation)

	movements, err := s.ListMovements(ctx, a.ID, date.Range{})
	require.NoError(t, err)
	assert.Empty(t, movements)

	err = s.RunInTx(ctx, func(q Queries) error {
		return q.CreateMovement(ctx, newMovement(a.ID, "2024-03-01", 1, "10", "10"))
	})
	require.NoError(t, err)
	movements, err = s.ListMovements(ctx, a.ID, date.Range{})
	require.NoError(t, err)
	assert.Len(t, movements, 1)
}

func TestSQLiteStore_MovementRequiresAccount(t *testing.T) {
	s := newTestStore(t)
	err := s.CreateMovement(context.Background(), newMovement(uuid.New(), "2024-03-01", 1, "10", "10"))
	assert.ErrorIs(t, err, models.ErrStorage)
}

func TestSQLiteStore_DepositRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := newAccount(t, s)

	now := time.Now()
	dep := &models.Deposit{
		ID:          uuid.New(),
		Titular:     "Perez",
		Principal:   decimal.NewFromInt(1000),
		Remaining:   decimal.NewFromInt(1000),
		ReceiptDate: date.MustParse("2024-01-05"),
		Status:      models.DepositPending,
		AccountID:   &a.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, s.CreateDeposit(ctx, dep))

	kind := models.UsageOther
	returned := decimal.NewFromInt(400)
	forfeited := decimal.NewFromInt(600)
	on := date.MustParse("2024-02-01")
	dep.Status = models.DepositReturned
	dep.DispositionKind = &kind
	dep.AmountReturned = &returned
	dep.Forfeited = &forfeited
	dep.ReturnDate = &on
	dep.Remaining = decimal.Zero
	require.NoError(t, s.UpdateDeposit(ctx, dep))

	fetched, err := s.GetDeposit(ctx, dep.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DepositReturned, fetched.Status)
	require.NotNil(t, fetched.Forfeited)
	assert.True(t, fetched.Forfeited.Equal(forfeited))
	assert.Equal(t, on, *fetched.ReturnDate)
	assert.Nil(t, fetched.UseDate)
	assert.Nil(t, fetched.ClientID)

	status := models.DepositPending
	pending, err := s.ListDeposits(ctx, &status)
	require.NoError(t, err)
	assert.Empty(t, pending)

	require.NoError(t, s.ClearDepositAccount(ctx, a.ID))
	fetched, err = s.GetDeposit(ctx, dep.ID)
	require.NoError(t, err)
	assert.Nil(t, fetched.AccountID)
}

func TestSQLiteStore_DebtAndPayments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now()
	count := 4
	amount := decimal.NewFromInt(250)
	debt := &models.Debt{
		ID:                uuid.New(),
		Concepto:          "Préstamo",
		Acreedor:          "Banco",
		Principal:         decimal.NewFromInt(1000),
		Mode:              models.DebtInstallments,
		InstallmentCount:  &count,
		InstallmentAmount: &amount,
		StartDate:         date.MustParse("2024-01-01"),
		Status:            models.DebtPending,
		TotalPaid:         decimal.Zero,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	require.NoError(t, s.CreateDebt(ctx, debt))

	idx := 1
	p := &models.Payment{ID: uuid.New(), DebtID: debt.ID, Amount: amount, Date: date.MustParse("2024-02-01"), InstallmentIndex: &idx, CreatedAt: now}
	require.NoError(t, s.CreatePayment(ctx, p))

	payments, err := s.ListPayments(ctx, debt.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, 1, *payments[0].InstallmentIndex)

	fetched, err := s.GetDebt(ctx, debt.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, *fetched.InstallmentCount)
	assert.True(t, fetched.InstallmentAmount.Equal(amount))
	assert.Equal(t, models.DebtInstallments, fetched.Mode)

	require.NoError(t, s.DeleteDebt(ctx, debt.ID))
	_, err = s.GetPayment(ctx, p.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, s.UpdateDebt(ctx, debt), models.ErrNotFound)
}

func TestSQLiteStore_ControlWindowIsUnique(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := &models.PeriodicControl{
		ID:             uuid.New(),
		Concepto:       "ABL",
		Cadence:        models.Weekly,
		WindowStart:    date.MustParse("2024-03-04"),
		WindowEnd:      date.MustParse("2024-03-10"),
		TotalRecaudado: decimal.NewFromInt(10),
		FechaPago:      date.MustParse("2024-03-11"),
		UpdatedAt:      time.Now(),
	}
	require.NoError(t, s.CreateControl(ctx, c))

	dup := *c
	dup.ID = uuid.New()
	assert.ErrorIs(t, s.CreateControl(ctx, &dup), models.ErrValidation)

	on := date.MustParse("2024-03-12")
	c.Pagado = true
	c.FechaPagoReal = &on
	require.NoError(t, s.UpdateControl(ctx, c))

	fetched, err := s.GetControl(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, fetched.Pagado)
	assert.Equal(t, on, *fetched.FechaPagoReal)

	pending, err := s.ListPendingControls(ctx, models.Weekly)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
