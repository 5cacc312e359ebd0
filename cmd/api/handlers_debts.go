package main

import (
	"net/http"

	"github.com/mcclellann/backoffice/pkg/date"
	"github.com/mcclellann/backoffice/pkg/ledger"
	"github.com/mcclellann/backoffice/pkg/models"
	"github.com/shopspring/decimal"
)

func (s *Server) createDebtHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Concepto         string          `json:"concepto"`
		Acreedor         string          `json:"acreedor"`
		Principal        decimal.Decimal `json:"principal"`
		Mode             models.DebtMode `json:"mode"`
		InstallmentCount *int            `json:"installment_count"`
		StartDate        date.Date       `json:"start_date"`
		Notes            string          `json:"notes"`
	}
	if !decode(w, r, &req) {
		return
	}
	debt, err := s.ledger.CreateDebt(r.Context(), req.Concepto, req.Acreedor, req.Principal, req.Mode, req.InstallmentCount, req.StartDate, req.Notes)
	if err != nil {
		writeError(w, "creating debt", err)
		return
	}
	writeJSON(w, http.StatusCreated, debt)
}

func (s *Server) listDebtsHandler(w http.ResponseWriter, r *http.Request) {
	var f ledger.DebtFilter
	if v := r.URL.Query().Get("estado"); v != "" {
		st := models.DebtStatus(v)
		f.Estado = &st
	}
	debts, err := s.ledger.ListDebts(r.Context(), f)
	if err != nil {
		writeError(w, "listing debts", err)
		return
	}
	writeJSON(w, http.StatusOK, debts)
}

func (s *Server) resumenHandler(w http.ResponseWriter, r *http.Request) {
	resumen, err := s.ledger.GetResumen(r.Context())
	if err != nil {
		writeError(w, "computing resumen", err)
		return
	}
	writeJSON(w, http.StatusOK, resumen)
}

func (s *Server) getDebtHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	debt, err := s.ledger.GetDebt(r.Context(), id)
	if err != nil {
		writeError(w, "getting debt", err)
		return
	}
	writeJSON(w, http.StatusOK, debt)
}

func (s *Server) updateDebtHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req ledger.DebtUpdate
	if !decode(w, r, &req) {
		return
	}
	debt, err := s.ledger.UpdateDebt(r.Context(), id, req)
	if err != nil {
		writeError(w, "updating debt", err)
		return
	}
	writeJSON(w, http.StatusOK, debt)
}

func (s *Server) deleteDebtHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.ledger.DeleteDebt(r.Context(), id); err != nil {
		writeError(w, "deleting debt", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listPaymentsHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	payments, err := s.ledger.ListPayments(r.Context(), id)
	if err != nil {
		writeError(w, "listing payments", err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}

type paymentResponse struct {
	Payment *models.Payment `json:"payment"`
	Message string          `json:"message"`
}

func (s *Server) registerPaymentHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Date             date.Date       `json:"date"`
		Amount           decimal.Decimal `json:"amount"`
		InstallmentIndex *int            `json:"installment_index"`
		Note             string          `json:"note"`
	}
	if !decode(w, r, &req) {
		return
	}
	payment, msg, err := s.ledger.RegisterPayment(r.Context(), id, req.Date, req.Amount, req.InstallmentIndex, req.Note)
	if err != nil {
		writeError(w, "registering payment", err)
		return
	}
	writeJSON(w, http.StatusCreated, paymentResponse{Payment: payment, Message: msg})
}

func (s *Server) deletePaymentHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	debt, err := s.ledger.DeletePayment(r.Context(), id)
	if err != nil {
		writeError(w, "deleting payment", err)
		return
	}
	writeJSON(w, http.StatusOK, debt)
}
