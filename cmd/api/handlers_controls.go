package main

import (
	"net/http"

	"github.com/mcclellann/backoffice/pkg/date"
	"github.com/mcclellann/backoffice/pkg/models"
)

func (s *Server) recomputeControlHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Concepto string         `json:"concepto"`
		Cadence  models.Cadence `json:"cadence"`
		Date     date.Date      `json:"date"`
	}
	if !decode(w, r, &req) {
		return
	}
	control, err := s.ledger.RecomputeWindow(r.Context(), req.Concepto, req.Cadence, req.Date)
	if err != nil {
		writeError(w, "recomputing control window", err)
		return
	}
	writeJSON(w, http.StatusOK, control)
}

func (s *Server) pendingControlsHandler(w http.ResponseWriter, r *http.Request) {
	cadence := models.Cadence(r.URL.Query().Get("cadence"))
	controls, err := s.ledger.ListPendingControls(r.Context(), cadence)
	if err != nil {
		writeError(w, "listing pending controls", err)
		return
	}
	writeJSON(w, http.StatusOK, controls)
}

func (s *Server) markControlPaidHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Date date.Date `json:"date"`
	}
	if !decode(w, r, &req) {
		return
	}
	control, err := s.ledger.MarkControlPaid(r.Context(), id, req.Date)
	if err != nil {
		writeError(w, "marking control paid", err)
		return
	}
	writeJSON(w, http.StatusOK, control)
}

func (s *Server) unmarkControlPaidHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	control, err := s.ledger.UnmarkControlPaid(r.Context(), id)
	if err != nil {
		writeError(w, "unmarking control paid", err)
		return
	}
	writeJSON(w, http.StatusOK, control)
}
