package server

import (
	"net/http"

	"github.com/jonathan/jobni/internal/apperr"
	"github.com/jonathan/jobni/internal/types"
)

func (s *Server) handleSubmitApplication(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req types.ApplicationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	app, err := s.workflow.Submit(r.Context(), caller, &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, app)
}

func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	apps, err := s.workflow.List(r.Context(), caller)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, orEmpty(apps))
}

func (s *Server) handleListJobApplications(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	jobID, err := pathUUID(r, "job_id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	apps, err := s.workflow.ListForJob(r.Context(), caller, jobID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, orEmpty(apps))
}

func (s *Server) handleUpdateApplicationStatus(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req types.UpdateApplicationStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, r, apperr.Invalid("status", "is required"))
		return
	}
	app, err := s.workflow.UpdateStatus(r.Context(), caller, id, req.Status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, app)
}

func (s *Server) handleCreateRating(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req types.RatingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	rating, err := s.ratings.Create(r.Context(), caller, &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, rating)
}

func (s *Server) handleListUserRatings(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUUID(r, "user_id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ratings, err := s.ratings.ListForUser(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, orEmpty(ratings))
}
