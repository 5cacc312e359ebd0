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

// DebtStatusFor derives a debt's status from what has been paid against its principal.
func DebtStatusFor(principal, totalPaid decimal.Decimal) models.DebtStatus {
	switch {
	case totalPaid.GreaterThanOrEqual(principal):
		return models.DebtPaid
	case totalPaid.IsPositive():
		return models.DebtInProgress
	default:
		return models.DebtPending
	}
}

// CreateDebt registers a debt. In CUOTAS mode with an installment count the installment amount is
// principal/count rounded to the cent; in LIBRE mode the count is ignored.
func (l *Ledger) CreateDebt(ctx context.Context, concepto, acreedor string, principal decimal.Decimal, mode models.DebtMode, installmentCount *int, startDate date.Date, notes string) (*models.Debt, error) {
	concepto = strings.TrimSpace(concepto)
	if concepto == "" {
		return nil, models.Validation("debt concepto is empty")
	}
	if !principal.IsPositive() {
		return nil, models.Validation("debt principal must be positive, got %s", principal)
	}
	if err := checkCents("debt principal", principal); err != nil {
		return nil, err
	}
	if !mode.Valid() {
		return nil, models.Validation("unknown debt mode %q", mode)
	}
	if startDate.IsZero() {
		return nil, models.Validation("debt start date is required")
	}

	now := l.now()
	debt := &models.Debt{
		ID:        uuid.New(),
		Concepto:  concepto,
		Acreedor:  strings.TrimSpace(acreedor),
		Principal: principal,
		Mode:      mode,
		StartDate: startDate,
		Notes:     notes,
		Status:    models.DebtPending,
		TotalPaid: decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if mode == models.DebtInstallments && installmentCount != nil {
		if *installmentCount <= 0 {
			return nil, models.Validation("installment count must be positive, got %d", *installmentCount)
		}
		count := *installmentCount
		amount := InstallmentAmount(principal, count)
		debt.InstallmentCount = &count
		debt.InstallmentAmount = &amount
	}

	if err := l.storage.CreateDebt(ctx, debt); err != nil {
		return nil, err
	}
	return debt, nil
}

// DebtUpdate lists the fields of a debt to change. Nil fields are kept.
type DebtUpdate struct {
	Concepto         *string          `json:"concepto,omitempty"`
	Acreedor         *string          `json:"acreedor,omitempty"`
	Principal        *decimal.Decimal `json:"principal,omitempty"`
	Mode             *models.DebtMode `json:"mode,omitempty"`
	InstallmentCount *int             `json:"installment_count,omitempty"`
	StartDate        *date.Date       `json:"start_date,omitempty"`
	Notes            *string          `json:"notes,omitempty"`
}

// UpdateDebt applies u. Switching to LIBRE clears the installment plan; in CUOTAS mode a change of
// principal or count recomputes the installment amount. Status is re-derived since the principal
// may have moved relative to what was paid.
func (l *Ledger) UpdateDebt(ctx context.Context, id uuid.UUID, u DebtUpdate) (*models.Debt, error) {
	if u.Concepto != nil && strings.TrimSpace(*u.Concepto) == "" {
		return nil, models.Validation("debt concepto is empty")
	}
	if u.Principal != nil {
		if !u.Principal.IsPositive() {
			return nil, models.Validation("debt principal must be positive, got %s", *u.Principal)
		}
		if err := checkCents("debt principal", *u.Principal); err != nil {
			return nil, err
		}
	}
	if u.Mode != nil && !u.Mode.Valid() {
		return nil, models.Validation("unknown debt mode %q", *u.Mode)
	}
	if u.InstallmentCount != nil && *u.InstallmentCount <= 0 {
		return nil, models.Validation("installment count must be positive, got %d", *u.InstallmentCount)
	}
	if u.StartDate != nil && u.StartDate.IsZero() {
		return nil, models.Validation("debt start date is required")
	}

	var debt *models.Debt
	err := l.storage.RunInTx(ctx, func(q store.Queries) error {
		var err error
		debt, err = q.GetDebt(ctx, id)
		if err != nil {
			return err
		}
		if u.Concepto != nil {
			debt.Concepto = strings.TrimSpace(*u.Concepto)
		}
		if u.Acreedor != nil {
			debt.Acreedor = strings.TrimSpace(*u.Acreedor)
		}
		if u.Principal != nil {
			debt.Principal = *u.Principal
		}
		if u.Mode != nil {
			debt.Mode = *u.Mode
		}
		if u.InstallmentCount != nil {
			count := *u.InstallmentCount
			debt.InstallmentCount = &count
		}
		if u.StartDate != nil {
			debt.StartDate = *u.StartDate
		}
		if u.Notes != nil {
			debt.Notes = *u.Notes
		}

		switch {
		case debt.Mode == models.DebtFree:
			debt.InstallmentCount = nil
			debt.InstallmentAmount = nil
		case debt.InstallmentCount != nil && (u.Principal != nil || u.InstallmentCount != nil || u.Mode != nil):
			amount := InstallmentAmount(debt.Principal, *debt.InstallmentCount)
			debt.InstallmentAmount = &amount
		}
		return l.rederive(ctx, q, debt)
	})
	if err != nil {
		return nil, err
	}
	return debt, nil
}

// DeleteDebt removes a debt and all of its payments.
func (l *Ledger) DeleteDebt(ctx context.Context, id uuid.UUID) error {
	return l.storage.RunInTx(ctx, func(q store.Queries) error {
		return q.DeleteDebt(ctx, id)
	})
}

// GetDebt retrieves a debt by its ID.
func (l *Ledger) GetDebt(ctx context.Context, id uuid.UUID) (*models.Debt, error) {
	return l.storage.GetDebt(ctx, id)
}

// DebtFilter narrows ListDebts.
type DebtFilter struct {
	Estado *models.DebtStatus
}

// ListDebts lists debts matching f.
func (l *Ledger) ListDebts(ctx context.Context, f DebtFilter) ([]*models.Debt, error) {
	if f.Estado != nil && !f.Estado.Valid() {
		return nil, models.Validation("unknown debt status %q", *f.Estado)
	}
	return l.storage.ListDebts(ctx, f.Estado)
}

// ListPayments returns a debt's payments by date.
func (l *Ledger) ListPayments(ctx context.Context, debtID uuid.UUID) ([]*models.Payment, error) {
	if _, err := l.storage.GetDebt(ctx, debtID); err != nil {
		return nil, err
	}
	return l.storage.ListPayments(ctx, debtID)
}

// RegisterPayment records a payment against a debt and re-derives its paid total and status. The
// returned message tells the operator whether the debt is settled or how much is still owed.
func (l *Ledger) RegisterPayment(ctx context.Context, debtID uuid.UUID, on date.Date, amount decimal.Decimal, installmentIndex *int, note string) (*models.Payment, string, error) {
	if !amount.IsPositive() {
		return nil, "", models.Validation("payment amount must be positive, got %s", amount)
	}
	if err := checkCents("payment amount", amount); err != nil {
		return nil, "", err
	}
	if on.IsZero() {
		return nil, "", models.Validation("payment date is required")
	}

	var (
		payment *models.Payment
		debt    *models.Debt
	)
	err := l.storage.RunInTx(ctx, func(q store.Queries) error {
		var err error
		debt, err = q.GetDebt(ctx, debtID)
		if err != nil {
			return err
		}
		if installmentIndex != nil {
			if *installmentIndex < 1 {
				return models.Validation("installment index must be at least 1, got %d", *installmentIndex)
			}
			if debt.InstallmentCount != nil && *installmentIndex > *debt.InstallmentCount {
				return models.Validation("installment index %d exceeds installment count %d", *installmentIndex, *debt.InstallmentCount)
			}
		}
		payment = &models.Payment{
			ID:               uuid.New(),
			DebtID:           debtID,
			Amount:           amount,
			Date:             on,
			InstallmentIndex: installmentIndex,
			Note:             strings.TrimSpace(note),
			CreatedAt:        l.now(),
		}
		if err := q.CreatePayment(ctx, payment); err != nil {
			return err
		}
		return l.rederive(ctx, q, debt)
	})
	if err != nil {
		return nil, "", err
	}
	return payment, PaymentMessage(debt), nil
}

// PaymentMessage is the operator feedback after a payment is recorded.
func PaymentMessage(d *models.Debt) string {
	if d.Status == models.DebtPaid {
		return "Deuda saldada por completo"
	}
	return "Saldo pendiente: " + FormatAmount(d.Saldo())
}

// DeletePayment removes a payment and re-derives its debt from the payments that remain.
func (l *Ledger) DeletePayment(ctx context.Context, paymentID uuid.UUID) (*models.Debt, error) {
	var debt *models.Debt
	err := l.storage.RunInTx(ctx, func(q store.Queries) error {
		payment, err := q.GetPayment(ctx, paymentID)
		if err != nil {
			return err
		}
		if err := q.DeletePayment(ctx, paymentID); err != nil {
			return err
		}
		debt, err = q.GetDebt(ctx, payment.DebtID)
		if err != nil {
			return err
		}
		return l.rederive(ctx, q, debt)
	})
	if err != nil {
		return nil, err
	}
	return debt, nil
}

// GetResumen summarizes the debt book. Totals cover only debts that are not PAGADA; paid debts are
// only counted.
func (l *Ledger) GetResumen(ctx context.Context) (*models.Resumen, error) {
	debts, err := l.storage.ListDebts(ctx, nil)
	if err != nil {
		return nil, err
	}
	return Summarize(debts), nil
}

// Summarize builds the Resumen of a set of debts.
func Summarize(debts []*models.Debt) *models.Resumen {
	r := &models.Resumen{
		TotalDeuda:     decimal.Zero,
		TotalPagado:    decimal.Zero,
		TotalPendiente: decimal.Zero,
	}
	for _, d := range debts {
		if d.Status == models.DebtPaid {
			r.DeudasPagadas++
			continue
		}
		r.DeudasActivas++
		r.TotalDeuda = r.TotalDeuda.Add(d.Principal)
		r.TotalPagado = r.TotalPagado.Add(d.TotalPaid)
		r.TotalPendiente = r.TotalPendiente.Add(d.Saldo())
	}
	return r
}

// rederive recomputes the paid total from every stored payment, sets the status and saves the debt.
func (l *Ledger) rederive(ctx context.Context, q store.Queries, debt *models.Debt) error {
	payments, err := q.ListPayments(ctx, debt.ID)
	if err != nil {
		return err
	}
	amounts := make([]decimal.Decimal, len(payments))
	for i, p := range payments {
		amounts[i] = p.Amount
	}
	debt.TotalPaid = sum(amounts)
	debt.Status = DebtStatusFor(debt.Principal, debt.TotalPaid)
	debt.UpdatedAt = l.now()
	return q.UpdateDebt(ctx, debt)
}
