package main

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/mcclellann/backoffice/pkg/date"
	"github.com/mcclellann/backoffice/pkg/models"
	"github.com/shopspring/decimal"
)

func (s *Server) createDepositHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Principal   decimal.Decimal `json:"principal"`
		ReceiptDate date.Date       `json:"receipt_date"`
		Titular     string          `json:"titular"`
		AccountID   *uuid.UUID      `json:"account_id"`
		ClientID    *string         `json:"client_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	deposit, err := s.ledger.CreateDeposit(r.Context(), req.Principal, req.ReceiptDate, req.Titular, req.AccountID, req.ClientID)
	if err != nil {
		writeError(w, "creating deposit", err)
		return
	}
	writeJSON(w, http.StatusCreated, deposit)
}

func (s *Server) listDepositsHandler(w http.ResponseWriter, r *http.Request) {
	var status *models.DepositStatus
	if v := r.URL.Query().Get("status"); v != "" {
		st := models.DepositStatus(v)
		status = &st
	}
	deposits, err := s.ledger.ListDeposits(r.Context(), status)
	if err != nil {
		writeError(w, "listing deposits", err)
		return
	}
	writeJSON(w, http.StatusOK, deposits)
}

func (s *Server) getDepositHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	deposit, err := s.ledger.GetDeposit(r.Context(), id)
	if err != nil {
		writeError(w, "getting deposit", err)
		return
	}
	writeJSON(w, http.StatusOK, deposit)
}

func (s *Server) listDepositUsagesHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	usages, err := s.ledger.ListDepositUsages(r.Context(), id)
	if err != nil {
		writeError(w, "listing deposit usages", err)
		return
	}
	writeJSON(w, http.StatusOK, usages)
}

func (s *Server) useDepositHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Date        date.Date        `json:"date"`
		Kind        models.UsageKind `json:"kind"`
		Amount      decimal.Decimal  `json:"amount"`
		Description string           `json:"description"`
	}
	if !decode(w, r, &req) {
		return
	}
	deposit, err := s.ledger.UseDeposit(r.Context(), id, req.Date, req.Kind, req.Amount, req.Description)
	if err != nil {
		writeError(w, "using deposit", err)
		return
	}
	writeJSON(w, http.StatusOK, deposit)
}

func (s *Server) creditDepositHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	deposit, err := s.ledger.CreditDeposit(r.Context(), id)
	if err != nil {
		writeError(w, "crediting deposit", err)
		return
	}
	writeJSON(w, http.StatusOK, deposit)
}

func (s *Server) returnDepositHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Date   date.Date       `json:"date"`
		Amount decimal.Decimal `json:"amount"`
	}
	if !decode(w, r, &req) {
		return
	}
	deposit, err := s.ledger.ReturnDeposit(r.Context(), id, req.Date, req.Amount)
	if err != nil {
		writeError(w, "returning deposit", err)
		return
	}
	writeJSON(w, http.StatusOK, deposit)
}
