package ledger

import (
	"github.com/Rhymond/go-money"
	"github.com/mcclellann/backoffice/pkg/models"
	"github.com/shopspring/decimal"
)

const currency = "ARS"

var half = decimal.New(5, -1)

// Round2 rounds to the peso's minor unit, half-up: ties go toward positive infinity, so 0.125
// becomes 0.13 and -0.125 becomes -0.12.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Shift(2).Add(half).Floor().Shift(-2)
}

// checkCents rejects amounts finer than the peso's minor unit.
func checkCents(what string, d decimal.Decimal) error {
	if !d.Equal(d.Truncate(2)) {
		return models.Validation("%s %s has more than two decimal places", what, d)
	}
	return nil
}

// InstallmentAmount splits principal into count equal installments rounded to the cent.
func InstallmentAmount(principal decimal.Decimal, count int) decimal.Decimal {
	return Round2(principal.Div(decimal.NewFromInt(int64(count))))
}

// FormatAmount renders d the way the back-office reads pesos, e.g. $1.234,50.
func FormatAmount(d decimal.Decimal) string {
	return money.New(Round2(d).Shift(2).IntPart(), currency).Display()
}

func sum(amounts []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
