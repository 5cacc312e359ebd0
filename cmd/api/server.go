package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/mcclellann/backoffice/pkg/date"
	"github.com/mcclellann/backoffice/pkg/ledger"
	"github.com/mcclellann/backoffice/pkg/models"
	"github.com/mcclellann/backoffice/pkg/store"
)

// Server holds the ledger instance.
type Server struct {
	ledger  *ledger.Ledger
	storage store.Storage // Keep a reference to the storage to close it
}

func NewServer(s store.Storage, opts ...ledger.Option) (*Server, error) {
	l, err := ledger.NewLedger(s, opts...)
	if err != nil {
		return nil, err
	}
	return &Server{ledger: l, storage: s}, nil
}

// Close releases the underlying storage.
func (s *Server) Close() error {
	return s.storage.Close()
}

// Routes registers every endpoint on a new router.
func (s *Server) Routes() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", healthHandler).Methods("GET")

	router.HandleFunc("/accounts", s.listAccountsHandler).Methods("GET")
	router.HandleFunc("/accounts", s.createAccountHandler).Methods("POST")
	router.HandleFunc("/accounts/{id}", s.getAccountHandler).Methods("GET")
	router.HandleFunc("/accounts/{id}", s.deleteAccountHandler).Methods("DELETE")
	router.HandleFunc("/accounts/{id}/movements", s.listMovementsHandler).Methods("GET")
	router.HandleFunc("/accounts/{id}/movements", s.appendMovementHandler).Methods("POST")
	router.HandleFunc("/accounts/{id}/rebalance", s.rebalanceHandler).Methods("POST")
	router.HandleFunc("/accounts/{id}/reconcile", s.reconcileAccountHandler).Methods("POST")
	router.HandleFunc("/movements/{id}", s.updateMovementHandler).Methods("PUT")
	router.HandleFunc("/movements/{id}", s.deleteMovementHandler).Methods("DELETE")
	router.HandleFunc("/reconcile", s.compareHandler).Methods("POST")

	router.HandleFunc("/deposits", s.listDepositsHandler).Methods("GET")
	router.HandleFunc("/deposits", s.createDepositHandler).Methods("POST")
	router.HandleFunc("/deposits/{id}", s.getDepositHandler).Methods("GET")
	router.HandleFunc("/deposits/{id}/usages", s.listDepositUsagesHandler).Methods("GET")
	router.HandleFunc("/deposits/{id}/use", s.useDepositHandler).Methods("POST")
	router.HandleFunc("/deposits/{id}/credit", s.creditDepositHandler).Methods("POST")
	router.HandleFunc("/deposits/{id}/return", s.returnDepositHandler).Methods("POST")

	router.HandleFunc("/debts", s.listDebtsHandler).Methods("GET")
	router.HandleFunc("/debts", s.createDebtHandler).Methods("POST")
	router.HandleFunc("/debts/resumen", s.resumenHandler).Methods("GET")
	router.HandleFunc("/debts/{id}", s.getDebtHandler).Methods("GET")
	router.HandleFunc("/debts/{id}", s.updateDebtHandler).Methods("PUT")
	router.HandleFunc("/debts/{id}", s.deleteDebtHandler).Methods("DELETE")
	router.HandleFunc("/debts/{id}/payments", s.listPaymentsHandler).Methods("GET")
	router.HandleFunc("/debts/{id}/payments", s.registerPaymentHandler).Methods("POST")
	router.HandleFunc("/payments/{id}", s.deletePaymentHandler).Methods("DELETE")

	router.HandleFunc("/controls/recompute", s.recomputeControlHandler).Methods("POST")
	router.HandleFunc("/controls/pending", s.pendingControlsHandler).Methods("GET")
	router.HandleFunc("/controls/{id}/paid", s.markControlPaidHandler).Methods("POST")
	router.HandleFunc("/controls/{id}/paid", s.unmarkControlPaidHandler).Methods("DELETE")
	return router
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Timestamp: time.Now().UTC()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the ledger's error kinds onto HTTP statuses. Only storage failures are logged.
func writeError(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrInvalidState):
		status = http.StatusConflict
	default:
		log.Printf("Error %s: %v\n", op, err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return false
	}
	return true
}

// queryRange reads the optional from/to query parameters.
func queryRange(w http.ResponseWriter, r *http.Request) (date.Range, bool) {
	var rg date.Range
	for key, dst := range map[string]*date.Date{"from": &rg.From, "to": &rg.To} {
		v := r.URL.Query().Get(key)
		if v == "" {
			continue
		}
		d, err := date.Parse(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return rg, false
		}
		*dst = d
	}
	return rg, true
}
