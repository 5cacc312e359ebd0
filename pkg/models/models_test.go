package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebtSaldo(t *testing.T) {
	d := Debt{Principal: decimal.NewFromInt(1000), TotalPaid: decimal.NewFromInt(400)}
	assert.True(t, d.Saldo().Equal(decimal.NewFromInt(600)))

	d.TotalPaid = decimal.NewFromInt(1200)
	assert.True(t, d.Saldo().IsZero())

	out, err := json.Marshal(d)
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(out, &fields))
	assert.Equal(t, "0", fields["saldo"])
	assert.Equal(t, "1000", fields["principal"])
}

func TestDepositStatus(t *testing.T) {
	assert.True(t, DepositPending.Valid())
	assert.False(t, DepositStatus("X").Valid())
	assert.False(t, DepositOnAccount.Terminal())
	assert.True(t, DepositReturned.Terminal())
}

func TestErrorKinds(t *testing.T) {
	err := fmt.Errorf("loading: %w", NotFound("debt %d not found", 7))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.EqualError(t, err, "loading: debt 7 not found")

	cause := errors.New("disk I/O error")
	storage := StorageFailure("failed to update debt", cause)
	assert.ErrorIs(t, storage, ErrStorage)
	assert.ErrorIs(t, storage, cause)
	assert.Equal(t, "failed to update debt: disk I/O error", storage.Error())

	validation := Validation("bad")
	assert.Same(t, validation, StorageFailure("ignored", validation))
}
