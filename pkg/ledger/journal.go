package ledger

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/mcclellann/backoffice/pkg/date"
	"github.com/mcclellann/backoffice/pkg/models"
	"github.com/mcclellann/backoffice/pkg/store"
	"github.com/shopspring/decimal"
)

// CreateAccount registers a new cuenta corriente.
func (l *Ledger) CreateAccount(ctx context.Context, name, category string) (*models.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.Validation("account name is empty")
	}
	account := &models.Account{
		ID:        uuid.New(),
		Name:      name,
		Category:  strings.ToUpper(strings.TrimSpace(category)),
		CreatedAt: l.now(),
	}
	if err := l.storage.CreateAccount(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// GetAccount retrieves an account by its ID.
func (l *Ledger) GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return l.storage.GetAccount(ctx, id)
}

// ListAccounts retrieves all accounts ordered by name.
func (l *Ledger) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	return l.storage.ListAccounts(ctx)
}

// DeleteAccount removes an account and its movements. Weak references to them (deposit links,
// origin references from other ledgers, deposit usages) are set to null rather than deleted.
func (l *Ledger) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	return l.storage.RunInTx(ctx, func(q store.Queries) error {
		if _, err := q.GetAccount(ctx, id); err != nil {
			return err
		}
		movements, err := q.ListMovements(ctx, id, date.Range{})
		if err != nil {
			return err
		}
		for _, m := range movements {
			if err := q.ClearUsageMovement(ctx, m.ID); err != nil {
				return err
			}
		}
		if err := q.ClearOriginRefs(ctx, id); err != nil {
			return err
		}
		if err := q.ClearDepositAccount(ctx, id); err != nil {
			return err
		}
		return q.DeleteAccount(ctx, id)
	})
}

// AppendMovement records a signed amount on an account. Back-dated movements are inserted at
// their chronological position and every later balance on the account is recomputed.
func (l *Ledger) AppendMovement(ctx context.Context, accountID uuid.UUID, on date.Date, amount decimal.Decimal, concept string, originID *uuid.UUID) (*models.Movement, error) {
	var m *models.Movement
	err := l.storage.RunInTx(ctx, func(q store.Queries) error {
		var err error
		m, err = l.appendMovement(ctx, q, accountID, on, amount, concept, originID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (l *Ledger) appendMovement(ctx context.Context, q store.Queries, accountID uuid.UUID, on date.Date, amount decimal.Decimal, concept string, originID *uuid.UUID) (*models.Movement, error) {
	if on.IsZero() {
		return nil, models.Validation("movement date is required")
	}
	if amount.IsZero() {
		return nil, models.Validation("movement amount must not be zero")
	}
	if err := checkCents("movement amount", amount); err != nil {
		return nil, err
	}
	if _, err := q.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	if originID != nil {
		if _, err := q.GetMovement(ctx, *originID); err != nil {
			return nil, err
		}
	}

	m := &models.Movement{
		ID:        uuid.New(),
		AccountID: accountID,
		Date:      on,
		Seq:       l.nextSeq(),
		Amount:    amount,
		Concept:   strings.TrimSpace(concept),
		OriginID:  originID,
		CreatedAt: l.now(),
	}
	prev, err := q.BalanceBefore(ctx, accountID, m.Date, m.Seq)
	if err != nil {
		return nil, err
	}
	m.Balance = prev.Add(amount)
	if err := q.CreateMovement(ctx, m); err != nil {
		return nil, err
	}
	if _, err := rechain(ctx, q, accountID, m.Date, m.Seq); err != nil {
		return nil, err
	}
	return m, nil
}

// MovementUpdate lists the fields of a movement to change. Nil fields are kept.
type MovementUpdate struct {
	Date    *date.Date       `json:"date,omitempty"`
	Amount  *decimal.Decimal `json:"amount,omitempty"`
	Concept *string          `json:"concept,omitempty"`
}

// UpdateMovement changes a movement as if it were deleted and inserted again. A new date moves
// the movement to the end of that date's movements; an amount-only change keeps its position.
func (l *Ledger) UpdateMovement(ctx context.Context, id uuid.UUID, u MovementUpdate) (*models.Movement, error) {
	if u.Amount != nil {
		if u.Amount.IsZero() {
			return nil, models.Validation("movement amount must not be zero")
		}
		if err := checkCents("movement amount", *u.Amount); err != nil {
			return nil, err
		}
	}
	if u.Date != nil && u.Date.IsZero() {
		return nil, models.Validation("movement date is required")
	}

	var m *models.Movement
	err := l.storage.RunInTx(ctx, func(q store.Queries) error {
		var err error
		m, err = q.GetMovement(ctx, id)
		if err != nil {
			return err
		}
		from := *m

		if u.Date != nil && !u.Date.Equal(m.Date) {
			m.Date = *u.Date
			m.Seq = l.nextSeq()
		}
		if u.Amount != nil {
			m.Amount = *u.Amount
		}
		if u.Concept != nil {
			m.Concept = strings.TrimSpace(*u.Concept)
		}
		if err := q.UpdateMovement(ctx, m); err != nil {
			return err
		}

		// Everything before the earlier of the two positions is untouched.
		if m.Before(&from) {
			from = *m
		}
		if _, err := rechain(ctx, q, m.AccountID, from.Date, from.Seq); err != nil {
			return err
		}
		m, err = q.GetMovement(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// DeleteMovement removes a movement and shifts every later balance on its account.
func (l *Ledger) DeleteMovement(ctx context.Context, id uuid.UUID) error {
	return l.storage.RunInTx(ctx, func(q store.Queries) error {
		m, err := q.GetMovement(ctx, id)
		if err != nil {
			return err
		}
		if err := q.DeleteMovement(ctx, id); err != nil {
			return err
		}
		if err := q.ClearOriginRef(ctx, id); err != nil {
			return err
		}
		if err := q.ClearUsageMovement(ctx, id); err != nil {
			return err
		}
		_, err = rechain(ctx, q, m.AccountID, m.Date, m.Seq)
		return err
	})
}

// GetMovement retrieves a movement by its ID.
func (l *Ledger) GetMovement(ctx context.Context, id uuid.UUID) (*models.Movement, error) {
	return l.storage.GetMovement(ctx, id)
}

// ListMovements returns an account's movements in chain order, optionally restricted to r.
func (l *Ledger) ListMovements(ctx context.Context, accountID uuid.UUID, r date.Range) ([]*models.Movement, error) {
	if _, err := l.storage.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return l.storage.ListMovements(ctx, accountID, r)
}

// Balance returns the resultant balance of the account's last movement.
func (l *Ledger) Balance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	movements, err := l.ListMovements(ctx, accountID, date.Range{})
	if err != nil {
		return decimal.Zero, err
	}
	if len(movements) == 0 {
		return decimal.Zero, nil
	}
	return movements[len(movements)-1].Balance, nil
}

// Rebalance recomputes every resultant balance on the account from scratch and returns how many
// rows were corrected.
func (l *Ledger) Rebalance(ctx context.Context, accountID uuid.UUID) (int, error) {
	var fixed int
	err := l.storage.RunInTx(ctx, func(q store.Queries) error {
		if _, err := q.GetAccount(ctx, accountID); err != nil {
			return err
		}
		movements, err := q.ListMovements(ctx, accountID, date.Range{})
		if err != nil {
			return err
		}
		fixed, err = recompute(ctx, q, decimal.Zero, movements)
		return err
	})
	if err != nil {
		return 0, err
	}
	return fixed, nil
}

// VerifyAccount checks the balance chain of an account without changing it.
func (l *Ledger) VerifyAccount(ctx context.Context, accountID uuid.UUID) error {
	movements, err := l.ListMovements(ctx, accountID, date.Range{})
	if err != nil {
		return err
	}
	return CheckChain(movements)
}

// CheckChain verifies that movements are in chain order and that each resultant balance equals the
// previous one plus its own amount, starting from zero.
func CheckChain(movements []*models.Movement) error {
	balance := decimal.Zero
	for i, m := range movements {
		if i > 0 && !movements[i-1].Before(m) {
			return models.InvalidState("movement %d (%s) is out of chain order", i, m.ID)
		}
		balance = balance.Add(m.Amount)
		if !m.Balance.Equal(balance) {
			return models.InvalidState("movement %d (%s) has balance %s, want %s", i, m.ID, m.Balance, balance)
		}
	}
	return nil
}

// rechain recomputes the balances of the movements at or after position (on, seq).
func rechain(ctx context.Context, q store.Queries, accountID uuid.UUID, on date.Date, seq int64) (int, error) {
	prev, err := q.BalanceBefore(ctx, accountID, on, seq)
	if err != nil {
		return 0, err
	}
	tail, err := q.MovementsFrom(ctx, accountID, on, seq)
	if err != nil {
		return 0, err
	}
	return recompute(ctx, q, prev, tail)
}

// recompute walks movements in chain order from the balance prev and rewrites the ones that drifted.
func recompute(ctx context.Context, q store.Queries, prev decimal.Decimal, movements []*models.Movement) (int, error) {
	fixed := 0
	for _, m := range movements {
		prev = prev.Add(m.Amount)
		if m.Balance.Equal(prev) {
			continue
		}
		m.Balance = prev
		if err := q.UpdateMovement(ctx, m); err != nil {
			return fixed, err
		}
		fixed++
	}
	return fixed, nil
}
