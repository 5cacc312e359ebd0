package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"
	"github.com/mcclellann/backoffice/pkg/models"
	"github.com/mcclellann/backoffice/pkg/store"
	"github.com/shopspring/decimal"
)

func setupTestServer(t *testing.T) (*Server, *mux.Router) {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	server, err := NewServer(s)
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	t.Cleanup(func() { server.Close() })
	return server, server.Routes()
}

func do(t *testing.T, router *mux.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestAPI_AccountMovementsAndBalance(t *testing.T) {
	_, router := setupTestServer(t)

	rr := do(t, router, "POST", "/accounts", map[string]string{"name": "Rentas", "category": "rentas"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d. Body: %s", rr.Code, rr.Body.String())
	}
	var account models.Account
	json.Unmarshal(rr.Body.Bytes(), &account)
	if account.Category != "RENTAS" {
		t.Errorf("Expected category RENTAS, got %s", account.Category)
	}

	base := "/accounts/" + account.ID.String() + "/movements"
	for _, m := range []map[string]string{
		{"date": "2024-03-10", "amount": "100", "concept": "Cobro"},
		{"date": "2024-03-05", "amount": "-30", "concept": "Pago"},
	} {
		rr = do(t, router, "POST", base, m)
		if rr.Code != http.StatusCreated {
			t.Fatalf("Expected status 201, got %d. Body: %s", rr.Code, rr.Body.String())
		}
	}

	rr = do(t, router, "GET", base, nil)
	var movements []models.Movement
	json.Unmarshal(rr.Body.Bytes(), &movements)
	if len(movements) != 2 {
		t.Fatalf("Expected 2 movements, got %d", len(movements))
	}
	if !movements[0].Balance.Equal(decimal.NewFromInt(-30)) || !movements[1].Balance.Equal(decimal.NewFromInt(70)) {
		t.Errorf("Unexpected balances %s, %s", movements[0].Balance, movements[1].Balance)
	}

	rr = do(t, router, "GET", "/accounts/"+account.ID.String(), nil)
	var got struct {
		Balance decimal.Decimal `json:"balance"`
	}
	json.Unmarshal(rr.Body.Bytes(), &got)
	if !got.Balance.Equal(decimal.NewFromInt(70)) {
		t.Errorf("Expected balance 70, got %s", got.Balance)
	}

	rr = do(t, router, "GET", base+"?from=2024-03-06", nil)
	movements = nil
	json.Unmarshal(rr.Body.Bytes(), &movements)
	if len(movements) != 1 {
		t.Errorf("Expected 1 movement in range, got %d", len(movements))
	}
}

func TestAPI_ErrorStatuses(t *testing.T) {
	_, router := setupTestServer(t)

	rr := do(t, router, "GET", "/accounts/not-a-uuid", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for bad id, got %d", rr.Code)
	}

	rr = do(t, router, "GET", "/debts/00000000-0000-0000-0000-000000000001", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rr.Code)
	}

	rr = do(t, router, "POST", "/accounts", map[string]string{"name": ""})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for empty name, got %d", rr.Code)
	}
	var body map[string]string
	json.Unmarshal(rr.Body.Bytes(), &body)
	if body["error"] == "" {
		t.Errorf("Expected an error message in body")
	}

	rr = do(t, router, "POST", "/deposits", map[string]any{"principal": "100", "receipt_date": "2024-01-01", "titular": "Perez"})
	var deposit models.Deposit
	json.Unmarshal(rr.Body.Bytes(), &deposit)
	rr = do(t, router, "POST", "/deposits/"+deposit.ID.String()+"/credit", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", rr.Code, rr.Body.String())
	}
	rr = do(t, router, "POST", "/deposits/"+deposit.ID.String()+"/return", map[string]string{"date": "2024-02-01", "amount": "10"})
	if rr.Code != http.StatusConflict {
		t.Errorf("Expected status 409 for closed deposit, got %d", rr.Code)
	}
}

func TestAPI_DebtPaymentsAndResumen(t *testing.T) {
	_, router := setupTestServer(t)

	rr := do(t, router, "POST", "/debts", map[string]any{
		"concepto":          "Préstamo",
		"acreedor":          "Banco",
		"principal":         "1000",
		"mode":              "CUOTAS",
		"installment_count": 4,
		"start_date":        "2024-01-01",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d. Body: %s", rr.Code, rr.Body.String())
	}
	var debt models.Debt
	json.Unmarshal(rr.Body.Bytes(), &debt)
	if debt.InstallmentAmount == nil || !debt.InstallmentAmount.Equal(decimal.NewFromInt(250)) {
		t.Errorf("Expected installment amount 250, got %v", debt.InstallmentAmount)
	}

	rr = do(t, router, "POST", "/debts/"+debt.ID.String()+"/payments", map[string]any{"date": "2024-02-01", "amount": "250", "installment_index": 1})
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d. Body: %s", rr.Code, rr.Body.String())
	}
	var paid paymentResponse
	json.Unmarshal(rr.Body.Bytes(), &paid)
	if paid.Message == "" || paid.Message == "Deuda saldada por completo" {
		t.Errorf("Expected a pending balance message, got %q", paid.Message)
	}

	rr = do(t, router, "GET", "/debts/resumen", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", rr.Code, rr.Body.String())
	}
	var resumen models.Resumen
	json.Unmarshal(rr.Body.Bytes(), &resumen)
	if !resumen.TotalPendiente.Equal(decimal.NewFromInt(750)) || resumen.DeudasActivas != 1 {
		t.Errorf("Unexpected resumen %+v", resumen)
	}

	rr = do(t, router, "DELETE", "/payments/"+paid.Payment.ID.String(), nil)
	json.Unmarshal(rr.Body.Bytes(), &debt)
	if debt.Status != models.DebtPending {
		t.Errorf("Expected status PENDIENTE after deleting the only payment, got %s", debt.Status)
	}
}

func TestAPI_ControlsRecomputeAndPay(t *testing.T) {
	_, router := setupTestServer(t)

	rr := do(t, router, "POST", "/accounts", map[string]string{"name": "Caja", "category": "CAJA"})
	var account models.Account
	json.Unmarshal(rr.Body.Bytes(), &account)
	do(t, router, "POST", "/accounts/"+account.ID.String()+"/movements", map[string]string{"date": "2024-03-05", "amount": "500", "concept": "ABL"})

	rr = do(t, router, "POST", "/controls/recompute", map[string]string{"concepto": "ABL", "cadence": "SEMANAL", "date": "2024-03-06"})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", rr.Code, rr.Body.String())
	}
	var control models.PeriodicControl
	json.Unmarshal(rr.Body.Bytes(), &control)
	if !control.TotalRecaudado.Equal(decimal.NewFromInt(500)) {
		t.Errorf("Expected total 500, got %s", control.TotalRecaudado)
	}

	rr = do(t, router, "GET", "/controls/pending?cadence=SEMANAL", nil)
	var pending []models.PeriodicControl
	json.Unmarshal(rr.Body.Bytes(), &pending)
	if len(pending) != 1 {
		t.Fatalf("Expected 1 pending control, got %d", len(pending))
	}

	rr = do(t, router, "POST", "/controls/"+control.ID.String()+"/paid", map[string]string{"date": "2024-03-12"})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", rr.Code, rr.Body.String())
	}
	rr = do(t, router, "GET", "/controls/pending?cadence=SEMANAL", nil)
	pending = nil
	json.Unmarshal(rr.Body.Bytes(), &pending)
	if len(pending) != 0 {
		t.Errorf("Expected no pending controls, got %d", len(pending))
	}

	rr = do(t, router, "GET", "/controls/pending?cadence=MENSUAL", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for unknown cadence, got %d", rr.Code)
	}
}

func TestAPI_Compare(t *testing.T) {
	_, router := setupTestServer(t)

	rr := do(t, router, "POST", "/reconcile", map[string][]string{
		"reference": {"100", "100", "50"},
		"store":     {"100", "50", "50"},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	var c struct {
		OnlyInReference []decimal.Decimal `json:"only_in_reference"`
		OnlyInStore     []decimal.Decimal `json:"only_in_store"`
		NetDifference   decimal.Decimal   `json:"net_difference"`
	}
	json.Unmarshal(rr.Body.Bytes(), &c)
	if len(c.OnlyInReference) != 1 || !c.OnlyInReference[0].Equal(decimal.NewFromInt(100)) {
		t.Errorf("Unexpected only_in_reference %v", c.OnlyInReference)
	}
	if len(c.OnlyInStore) != 1 || !c.OnlyInStore[0].Equal(decimal.NewFromInt(50)) {
		t.Errorf("Unexpected only_in_store %v", c.OnlyInStore)
	}
	if !c.NetDifference.Equal(decimal.NewFromInt(-50)) {
		t.Errorf("Expected net difference -50, got %s", c.NetDifference)
	}
}
