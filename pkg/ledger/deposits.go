package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mcclellann/backoffice/pkg/date"
	"github.com/mcclellann/backoffice/pkg/models"
	"github.com/mcclellann/backoffice/pkg/store"
	"github.com/shopspring/decimal"
)

// CreateDeposit registers a received deposit. It starts PENDIENTE with its whole principal remaining.
func (l *Ledger) CreateDeposit(ctx context.Context, principal decimal.Decimal, receiptDate date.Date, titular string, accountID *uuid.UUID, clientID *string) (*models.Deposit, error) {
	titular = strings.TrimSpace(titular)
	if titular == "" {
		return nil, models.Validation("deposit titular is empty")
	}
	if !principal.IsPositive() {
		return nil, models.Validation("deposit principal must be positive, got %s", principal)
	}
	if err := checkCents("deposit principal", principal); err != nil {
		return nil, err
	}
	if receiptDate.IsZero() {
		return nil, models.Validation("deposit receipt date is required")
	}

	now := l.now()
	deposit := &models.Deposit{
		ID:          uuid.New(),
		Titular:     titular,
		Principal:   principal,
		Remaining:   principal,
		ReceiptDate: receiptDate,
		Status:      models.DepositPending,
		AccountID:   accountID,
		ClientID:    clientID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := l.storage.RunInTx(ctx, func(q store.Queries) error {
		if accountID != nil {
			if _, err := q.GetAccount(ctx, *accountID); err != nil {
				return err
			}
		}
		return q.CreateDeposit(ctx, deposit)
	})
	if err != nil {
		return nil, err
	}
	return deposit, nil
}

// UseDeposit consumes amount from a PENDIENTE or A_CUENTA deposit. Consuming all that remains
// settles it (LIQUIDADO), a partial use leaves it A_CUENTA. A CUENTA_CORRIENTE use also credits the
// deposit's linked account in the same transaction.
func (l *Ledger) UseDeposit(ctx context.Context, id uuid.UUID, useDate date.Date, kind models.UsageKind, amount decimal.Decimal, description string) (*models.Deposit, error) {
	var deposit *models.Deposit
	err := l.storage.RunInTx(ctx, func(q store.Queries) error {
		var err error
		deposit, err = q.GetDeposit(ctx, id)
		if err != nil {
			return err
		}
		if err := checkOpen(deposit, "use"); err != nil {
			return err
		}
		if kind != models.UsageCurrentAccount && kind != models.UsageOther {
			return models.Validation("unknown usage kind %q", kind)
		}
		if useDate.IsZero() {
			return models.Validation("use date is required")
		}
		if !amount.IsPositive() {
			return models.Validation("amount used must be positive, got %s", amount)
		}
		if err := checkCents("amount used", amount); err != nil {
			return err
		}

		usages, err := q.ListDepositUsages(ctx, id)
		if err != nil {
			return err
		}
		remaining := remainingOf(deposit, usages)
		if amount.GreaterThan(remaining) {
			return models.Validation("amount used %s exceeds remaining %s", amount, remaining)
		}

		description = strings.TrimSpace(description)
		usage := &models.DepositUsage{
			ID:          uuid.New(),
			DepositID:   id,
			Date:        useDate,
			Kind:        kind,
			Amount:      amount,
			Description: description,
			CreatedAt:   l.now(),
		}
		if kind == models.UsageCurrentAccount {
			if deposit.AccountID == nil {
				return models.Validation("deposit %s has no linked account", id)
			}
			concept := fmt.Sprintf("Depósito %s", deposit.Titular)
			if description != "" {
				concept += ": " + description
			}
			m, err := l.appendMovement(ctx, q, *deposit.AccountID, useDate, amount, concept, nil)
			if err != nil {
				return err
			}
			usage.MovementID = &m.ID
		}
		if err := q.CreateDepositUsage(ctx, usage); err != nil {
			return err
		}

		usages = append(usages, usage)
		deposit.Remaining = remainingOf(deposit, usages)
		deposit.UseDate = &useDate
		deposit.DispositionKind = &kind
		deposit.Description = description
		if deposit.Remaining.IsZero() {
			deposit.Status = models.DepositSettled
		} else {
			deposit.Status = models.DepositOnAccount
		}
		deposit.UpdatedAt = l.now()
		return q.UpdateDeposit(ctx, deposit)
	})
	if err != nil {
		return nil, err
	}
	return deposit, nil
}

// CreditDeposit leaves the unused remainder in the holder's favor (A_FAVOR). It is terminal.
func (l *Ledger) CreditDeposit(ctx context.Context, id uuid.UUID) (*models.Deposit, error) {
	var deposit *models.Deposit
	err := l.storage.RunInTx(ctx, func(q store.Queries) error {
		var err error
		deposit, err = q.GetDeposit(ctx, id)
		if err != nil {
			return err
		}
		if err := checkOpen(deposit, "credit"); err != nil {
			return err
		}
		usages, err := q.ListDepositUsages(ctx, id)
		if err != nil {
			return err
		}
		deposit.Remaining = remainingOf(deposit, usages)
		deposit.Status = models.DepositCredited
		deposit.UpdatedAt = l.now()
		return q.UpdateDeposit(ctx, deposit)
	})
	if err != nil {
		return nil, err
	}
	return deposit, nil
}

// ReturnDeposit gives amount back to the holder and closes the deposit (DEVUELTO). Whatever
// remained beyond amount is forfeited and cannot be recovered.
func (l *Ledger) ReturnDeposit(ctx context.Context, id uuid.UUID, returnDate date.Date, amount decimal.Decimal) (*models.Deposit, error) {
	var deposit *models.Deposit
	err := l.storage.RunInTx(ctx, func(q store.Queries) error {
		var err error
		deposit, err = q.GetDeposit(ctx, id)
		if err != nil {
			return err
		}
		if err := checkOpen(deposit, "return"); err != nil {
			return err
		}
		if returnDate.IsZero() {
			return models.Validation("return date is required")
		}
		if !amount.IsPositive() {
			return models.Validation("amount returned must be positive, got %s", amount)
		}
		if err := checkCents("amount returned", amount); err != nil {
			return err
		}
		usages, err := q.ListDepositUsages(ctx, id)
		if err != nil {
			return err
		}
		remaining := remainingOf(deposit, usages)
		if amount.GreaterThan(remaining) {
			return models.Validation("amount returned %s exceeds remaining %s", amount, remaining)
		}

		forfeited := remaining.Sub(amount)
		deposit.AmountReturned = &amount
		deposit.Forfeited = &forfeited
		deposit.ReturnDate = &returnDate
		deposit.Remaining = remainingOf(deposit, usages)
		deposit.Status = models.DepositReturned
		deposit.UpdatedAt = l.now()
		return q.UpdateDeposit(ctx, deposit)
	})
	if err != nil {
		return nil, err
	}
	return deposit, nil
}

// GetDeposit retrieves a deposit by its ID.
func (l *Ledger) GetDeposit(ctx context.Context, id uuid.UUID) (*models.Deposit, error) {
	return l.storage.GetDeposit(ctx, id)
}

// ListDeposits lists deposits, all of them when status is nil.
func (l *Ledger) ListDeposits(ctx context.Context, status *models.DepositStatus) ([]*models.Deposit, error) {
	if status != nil && !status.Valid() {
		return nil, models.Validation("unknown deposit status %q", *status)
	}
	return l.storage.ListDeposits(ctx, status)
}

// ListDepositUsages returns the recorded consumptions of a deposit.
func (l *Ledger) ListDepositUsages(ctx context.Context, id uuid.UUID) ([]*models.DepositUsage, error) {
	if _, err := l.storage.GetDeposit(ctx, id); err != nil {
		return nil, err
	}
	return l.storage.ListDepositUsages(ctx, id)
}

func checkOpen(d *models.Deposit, op string) error {
	if d.Status != models.DepositPending && d.Status != models.DepositOnAccount {
		return models.InvalidState("cannot %s deposit %s: it is %s", op, d.ID, d.Status)
	}
	return nil
}

// remainingOf derives what is left of a deposit from its principal and everything taken out of it.
func remainingOf(d *models.Deposit, usages []*models.DepositUsage) decimal.Decimal {
	remaining := d.Principal
	for _, u := range usages {
		remaining = remaining.Sub(u.Amount)
	}
	if d.AmountReturned != nil {
		remaining = remaining.Sub(*d.AmountReturned)
	}
	if d.Forfeited != nil {
		remaining = remaining.Sub(*d.Forfeited)
	}
	return remaining
}
