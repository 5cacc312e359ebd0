package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/mcclellann/backoffice/pkg/date"
	"github.com/shopspring/decimal"
)

// Account is a cuenta corriente. Its balance is the resultant balance of its latest movement.
type Account struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"` // e.g. "RENTAS", "CAJA"
	CreatedAt time.Time `json:"created_at"`
}

// Movement is a dated, signed entry on exactly one account.
type Movement struct {
	ID        uuid.UUID       `json:"id"`
	AccountID uuid.UUID       `json:"account_id"`
	Date      date.Date       `json:"date"`
	Seq       int64           `json:"seq"` // insertion order, breaks ties between movements on the same date
	Amount    decimal.Decimal `json:"amount"`
	Concept   string          `json:"concept"`
	Balance   decimal.Decimal `json:"balance"` // resultant balance after applying Amount in chain order
	OriginID  *uuid.UUID      `json:"origin_id,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Before reports whether m sorts before o in chain order (date, then insertion order).
func (m *Movement) Before(o *Movement) bool {
	if c := m.Date.Compare(o.Date); c != 0 {
		return c < 0
	}
	return m.Seq < o.Seq
}

type DepositStatus string

const (
	DepositPending   DepositStatus = "PENDIENTE"
	DepositSettled   DepositStatus = "LIQUIDADO"
	DepositCredited  DepositStatus = "A_FAVOR"
	DepositOnAccount DepositStatus = "A_CUENTA"
	DepositReturned  DepositStatus = "DEVUELTO"
)

// Terminal reports whether no further transition is allowed from s.
func (s DepositStatus) Terminal() bool {
	return s == DepositSettled || s == DepositCredited || s == DepositReturned
}

func (s DepositStatus) Valid() bool {
	switch s {
	case DepositPending, DepositSettled, DepositCredited, DepositOnAccount, DepositReturned:
		return true
	}
	return false
}

// UsageKind tells what a deposit was consumed for.
type UsageKind string

const (
	// UsageCurrentAccount credits the deposit's linked account with the used amount.
	UsageCurrentAccount UsageKind = "CUENTA_CORRIENTE"
	UsageOther          UsageKind = "OTRO"
)

type Deposit struct {
	ID              uuid.UUID        `json:"id"`
	Titular         string           `json:"titular"`
	Principal       decimal.Decimal  `json:"principal"`
	Remaining       decimal.Decimal  `json:"remaining"`
	ReceiptDate     date.Date        `json:"receipt_date"`
	UseDate         *date.Date       `json:"use_date,omitempty"`
	ReturnDate      *date.Date       `json:"return_date,omitempty"`
	AmountReturned  *decimal.Decimal `json:"amount_returned,omitempty"`
	Forfeited       *decimal.Decimal `json:"forfeited,omitempty"`
	Status          DepositStatus    `json:"status"`
	DispositionKind *UsageKind       `json:"disposition_kind,omitempty"`
	Description     string           `json:"description,omitempty"`
	AccountID       *uuid.UUID       `json:"account_id,omitempty"` // weak reference
	ClientID        *string          `json:"client_id,omitempty"`  // weak reference to the external client registry
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// DepositUsage records one consumption of a deposit.
type DepositUsage struct {
	ID          uuid.UUID       `json:"id"`
	DepositID   uuid.UUID       `json:"deposit_id"`
	Date        date.Date       `json:"date"`
	Kind        UsageKind       `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	MovementID  *uuid.UUID      `json:"movement_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

type DebtMode string

const (
	DebtInstallments DebtMode = "CUOTAS"
	DebtFree         DebtMode = "LIBRE"
)

func (m DebtMode) Valid() bool { return m == DebtInstallments || m == DebtFree }

type DebtStatus string

const (
	DebtPending    DebtStatus = "PENDIENTE"
	DebtInProgress DebtStatus = "EN_CURSO"
	DebtPaid       DebtStatus = "PAGADA"
)

func (s DebtStatus) Valid() bool {
	return s == DebtPending || s == DebtInProgress || s == DebtPaid
}

type Debt struct {
	ID                uuid.UUID        `json:"id"`
	Concepto          string           `json:"concepto"`
	Acreedor          string           `json:"acreedor"`
	Principal         decimal.Decimal  `json:"principal"`
	Mode              DebtMode         `json:"mode"`
	InstallmentCount  *int             `json:"installment_count,omitempty"`
	InstallmentAmount *decimal.Decimal `json:"installment_amount,omitempty"`
	StartDate         date.Date        `json:"start_date"`
	Notes             string           `json:"notes,omitempty"`
	Status            DebtStatus       `json:"status"`
	TotalPaid         decimal.Decimal  `json:"total_paid"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// Saldo is the unpaid part of the principal, never negative.
func (d *Debt) Saldo() decimal.Decimal {
	s := d.Principal.Sub(d.TotalPaid)
	if s.IsNegative() {
		return decimal.Zero
	}
	return s
}

// MarshalJSON adds the derived saldo to the stored fields.
func (d Debt) MarshalJSON() ([]byte, error) {
	type debt Debt
	return json.Marshal(struct {
		debt
		Saldo decimal.Decimal `json:"saldo"`
	}{debt(d), d.Saldo()})
}

type Payment struct {
	ID               uuid.UUID       `json:"id"`
	DebtID           uuid.UUID       `json:"debt_id"`
	Amount           decimal.Decimal `json:"amount"`
	Date             date.Date       `json:"date"`
	InstallmentIndex *int            `json:"installment_index,omitempty"`
	Note             string          `json:"note,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

type Cadence string

const (
	Weekly   Cadence = "SEMANAL"
	Biweekly Cadence = "QUINCENAL"
)

func (c Cadence) Valid() bool { return c == Weekly || c == Biweekly }

// PeriodicControl tracks the collections of one concept inside one window and the single payment owed for it.
type PeriodicControl struct {
	ID             uuid.UUID       `json:"id"`
	Concepto       string          `json:"concepto"`
	Cadence        Cadence         `json:"cadence"`
	WindowStart    date.Date       `json:"window_start"`
	WindowEnd      date.Date       `json:"window_end"`
	TotalRecaudado decimal.Decimal `json:"total_recaudado"`
	FechaPago      date.Date       `json:"fecha_pago"` // scheduled
	Pagado         bool            `json:"pagado"`
	FechaPagoReal  *date.Date      `json:"fecha_pago_real,omitempty"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Window returns the control's closed date range.
func (c *PeriodicControl) Window() date.Range {
	return date.Range{From: c.WindowStart, To: c.WindowEnd}
}

// Resumen aggregates the debt book. The money totals only cover debts that are not PAGADA, so
// TotalDeuda - TotalPagado = TotalPendiente holds.
type Resumen struct {
	TotalDeuda     decimal.Decimal `json:"total_deuda"`
	TotalPagado    decimal.Decimal `json:"total_pagado"` // paid on open debts only; settled debts are excluded
	TotalPendiente decimal.Decimal `json:"total_pendiente"`
	DeudasActivas  int             `json:"deudas_activas"`
	DeudasPagadas  int             `json:"deudas_pagadas"`
}
