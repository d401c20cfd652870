package server

import (
	"fmt"
	"net/http"
	"strconv"
)

func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	stats, err := s.reports.AdminStats(r.Context(), caller)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, stats)
}

func (s *Server) handleUserStats(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	stats, err := s.reports.UserStats(r.Context(), caller)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, stats)
}

// handleInvoice serves the PDF invoice of an accepted or completed
// application as a download.
func (s *Server) handleInvoice(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := pathUUID(r, "application_id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	pdf, err := s.reports.Invoice(r.Context(), caller, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=invoice_%s.pdf", id))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		requestLogger(r, s.log).WithError(err).Warn("failed to write invoice")
	}
}
