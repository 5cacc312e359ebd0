package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/mcclellann/backoffice/pkg/date"
	"github.com/shopspring/decimal"
)

// Comparison is the result of reconciling a reference list of amounts against the store's own.
type Comparison struct {
	OnlyInReference []decimal.Decimal `json:"only_in_reference"`
	OnlyInStore     []decimal.Decimal `json:"only_in_store"`
	NetDifference   decimal.Decimal   `json:"net_difference"` // sum(OnlyInStore) - sum(OnlyInReference)
}

// Compare diffs two multisets of amounts rounded to the cent. Order is ignored: an amount appearing
// k more times on one side is reported k times on that side.
//
// Equal amounts are indistinguishable, so two records of the same amount on different dates match
// each other regardless of which is which. This is intended; matching is by count only.
func Compare(reference, stored []decimal.Decimal) Comparison {
	counts := make(map[string]int)
	values := make(map[string]decimal.Decimal)
	var order []string
	tally := func(amounts []decimal.Decimal, delta int) {
		for _, a := range amounts {
			a = Round2(a)
			key := a.StringFixed(2)
			if _, seen := values[key]; !seen {
				values[key] = a
				order = append(order, key)
			}
			counts[key] += delta
		}
	}
	tally(reference, 1)
	tally(stored, -1)

	c := Comparison{
		OnlyInReference: []decimal.Decimal{},
		OnlyInStore:     []decimal.Decimal{},
	}
	for _, key := range order {
		n := counts[key]
		for ; n > 0; n-- {
			c.OnlyInReference = append(c.OnlyInReference, values[key])
		}
		for ; n < 0; n++ {
			c.OnlyInStore = append(c.OnlyInStore, values[key])
		}
	}
	c.NetDifference = sum(c.OnlyInStore).Sub(sum(c.OnlyInReference))
	return c
}

// ReconcileAccount compares reference against the egresos recorded on an account within r. Egresos
// are the negative movements, compared by absolute value.
func (l *Ledger) ReconcileAccount(ctx context.Context, accountID uuid.UUID, r date.Range, reference []decimal.Decimal) (Comparison, error) {
	movements, err := l.ListMovements(ctx, accountID, r)
	if err != nil {
		return Comparison{}, err
	}
	var egresos []decimal.Decimal
	for _, m := range movements {
		if m.Amount.IsNegative() {
			egresos = append(egresos, m.Amount.Abs())
		}
	}
	return Compare(reference, egresos), nil
}
