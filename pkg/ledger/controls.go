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

// WindowFor returns the window of cadence that contains ref. Weekly windows are ISO weeks (Monday to
// Sunday); bi-weekly windows are the 1st-15th and the 16th-end of month.
func WindowFor(cadence models.Cadence, ref date.Date) (date.Range, error) {
	switch cadence {
	case models.Weekly:
		start := ref.StartOfWeek()
		return date.Range{From: start, To: start.Add(6)}, nil
	case models.Biweekly:
		if ref.Day() <= 15 {
			return date.Range{From: date.New(ref.Year(), ref.Month(), 1), To: date.New(ref.Year(), ref.Month(), 15)}, nil
		}
		return date.Range{From: date.New(ref.Year(), ref.Month(), 16), To: ref.EndOfMonth()}, nil
	}
	return date.Range{}, models.Validation("unknown cadence %q", cadence)
}

// RecomputeWindow sums the movements of concepto inside the cadence window containing ref and
// upserts the single control row of that window. Recomputing overwrites the total and keeps the
// paid flag, so running it again on unchanged movements yields the same row.
func (l *Ledger) RecomputeWindow(ctx context.Context, concepto string, cadence models.Cadence, ref date.Date) (*models.PeriodicControl, error) {
	concepto = strings.TrimSpace(concepto)
	if concepto == "" {
		return nil, models.Validation("control concepto is empty")
	}
	if ref.IsZero() {
		return nil, models.Validation("reference date is required")
	}
	window, err := WindowFor(cadence, ref)
	if err != nil {
		return nil, err
	}

	var control *models.PeriodicControl
	err = l.storage.RunInTx(ctx, func(q store.Queries) error {
		existing, err := q.ListControls(ctx, concepto)
		if err != nil {
			return err
		}
		for _, c := range existing {
			if c.Window() == window {
				control = c
				continue
			}
			if c.Window().Overlaps(window) {
				return models.Validation("window %s for %q overlaps the %s control %s", window, concepto, c.Cadence, c.Window())
			}
		}

		movements, err := q.ListMovementsByConcept(ctx, concepto, window)
		if err != nil {
			return err
		}
		amounts := make([]decimal.Decimal, len(movements))
		for i, m := range movements {
			amounts[i] = m.Amount
		}
		total := sum(amounts)

		if control == nil {
			control = &models.PeriodicControl{
				ID:             uuid.New(),
				Concepto:       concepto,
				Cadence:        cadence,
				WindowStart:    window.From,
				WindowEnd:      window.To,
				TotalRecaudado: total,
				FechaPago:      window.To.Add(l.dueOffset),
				UpdatedAt:      l.now(),
			}
			return q.CreateControl(ctx, control)
		}
		control.TotalRecaudado = total
		control.UpdatedAt = l.now()
		return q.UpdateControl(ctx, control)
	})
	if err != nil {
		return nil, err
	}
	return control, nil
}

// MarkControlPaid records that the window's payment was made on the given date.
func (l *Ledger) MarkControlPaid(ctx context.Context, id uuid.UUID, on date.Date) (*models.PeriodicControl, error) {
	if on.IsZero() {
		return nil, models.Validation("payment date is required")
	}
	return l.setControlPaid(ctx, id, &on)
}

// UnmarkControlPaid reverts a control to unpaid and clears its actual payment date.
func (l *Ledger) UnmarkControlPaid(ctx context.Context, id uuid.UUID) (*models.PeriodicControl, error) {
	return l.setControlPaid(ctx, id, nil)
}

func (l *Ledger) setControlPaid(ctx context.Context, id uuid.UUID, on *date.Date) (*models.PeriodicControl, error) {
	var control *models.PeriodicControl
	err := l.storage.RunInTx(ctx, func(q store.Queries) error {
		var err error
		control, err = q.GetControl(ctx, id)
		if err != nil {
			return err
		}
		control.Pagado = on != nil
		control.FechaPagoReal = on
		control.UpdatedAt = l.now()
		return q.UpdateControl(ctx, control)
	})
	if err != nil {
		return nil, err
	}
	return control, nil
}

// GetControl retrieves a periodic control by its ID.
func (l *Ledger) GetControl(ctx context.Context, id uuid.UUID) (*models.PeriodicControl, error) {
	return l.storage.GetControl(ctx, id)
}

// ListPendingControls lists the unpaid controls of a cadence by scheduled payment date.
func (l *Ledger) ListPendingControls(ctx context.Context, cadence models.Cadence) ([]*models.PeriodicControl, error) {
	if !cadence.Valid() {
		return nil, models.Validation("unknown cadence %q", cadence)
	}
	return l.storage.ListPendingControls(ctx, cadence)
}
