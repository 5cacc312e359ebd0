package main

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/mcclellann/backoffice/pkg/date"
	"github.com/mcclellann/backoffice/pkg/ledger"
	"github.com/shopspring/decimal"
)

func (s *Server) createAccountHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Category string `json:"category"`
	}
	if !decode(w, r, &req) {
		return
	}
	account, err := s.ledger.CreateAccount(r.Context(), req.Name, req.Category)
	if err != nil {
		writeError(w, "creating account", err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

func (s *Server) listAccountsHandler(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.ledger.ListAccounts(r.Context())
	if err != nil {
		writeError(w, "listing accounts", err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (s *Server) getAccountHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	account, err := s.ledger.GetAccount(r.Context(), id)
	if err != nil {
		writeError(w, "getting account", err)
		return
	}
	balance, err := s.ledger.Balance(r.Context(), id)
	if err != nil {
		writeError(w, "getting account balance", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"account": account, "balance": balance})
}

func (s *Server) deleteAccountHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.ledger.DeleteAccount(r.Context(), id); err != nil {
		writeError(w, "deleting account", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listMovementsHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rg, ok := queryRange(w, r)
	if !ok {
		return
	}
	movements, err := s.ledger.ListMovements(r.Context(), id, rg)
	if err != nil {
		writeError(w, "listing movements", err)
		return
	}
	writeJSON(w, http.StatusOK, movements)
}

func (s *Server) appendMovementHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Date     date.Date       `json:"date"`
		Amount   decimal.Decimal `json:"amount"`
		Concept  string          `json:"concept"`
		OriginID *uuid.UUID      `json:"origin_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	m, err := s.ledger.AppendMovement(r.Context(), id, req.Date, req.Amount, req.Concept, req.OriginID)
	if err != nil {
		writeError(w, "appending movement", err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) updateMovementHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req ledger.MovementUpdate
	if !decode(w, r, &req) {
		return
	}
	m, err := s.ledger.UpdateMovement(r.Context(), id, req)
	if err != nil {
		writeError(w, "updating movement", err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) deleteMovementHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.ledger.DeleteMovement(r.Context(), id); err != nil {
		writeError(w, "deleting movement", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) rebalanceHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	fixed, err := s.ledger.Rebalance(r.Context(), id)
	if err != nil {
		writeError(w, "rebalancing account", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"fixed": fixed})
}

func (s *Server) reconcileAccountHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		From      *date.Date        `json:"from"`
		To        *date.Date        `json:"to"`
		Reference []decimal.Decimal `json:"reference"`
	}
	if !decode(w, r, &req) {
		return
	}
	var rg date.Range
	if req.From != nil {
		rg.From = *req.From
	}
	if req.To != nil {
		rg.To = *req.To
	}
	c, err := s.ledger.ReconcileAccount(r.Context(), id, rg, req.Reference)
	if err != nil {
		writeError(w, "reconciling account", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) compareHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reference []decimal.Decimal `json:"reference"`
		Store     []decimal.Decimal `json:"store"`
	}
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, ledger.Compare(req.Reference, req.Store))
}
