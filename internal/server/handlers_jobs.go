package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/jonathan/jobni/internal/types"
)

// orEmpty keeps empty lists serialized as [] rather than null.
func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	jobs, err := s.jobs.List(r.Context(), types.JobFilter{
		Category:     q.Get("category"),
		DurationType: q.Get("duration_type"),
		Location:     q.Get("location"),
		Search:       q.Get("search"),
		Status:       q.Get("status"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, orEmpty(jobs))
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	job, err := s.jobs.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, job)
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req types.JobRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	job, err := s.jobs.Create(r.Context(), caller, &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, job)
}

func (s *Server) handleUpdateJob(w http.ResponseWriter, r *http.Request) {
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
	var req types.JobRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	job, err := s.jobs.Update(r.Context(), caller, id, &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, job)
}

func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
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
	if err := s.jobs.Delete(r.Context(), caller, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"message": "job deleted"})
}

func (s *Server) handleListSavedJobs(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ids, err := s.jobs.ListSaved(r.Context(), caller)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, orEmpty[uuid.UUID](ids))
}

func (s *Server) handleSaveJob(w http.ResponseWriter, r *http.Request) {
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
	if err := s.jobs.Save(r.Context(), caller, jobID); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"message": "job saved"})
}

func (s *Server) handleUnsaveJob(w http.ResponseWriter, r *http.Request) {
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
	if err := s.jobs.Unsave(r.Context(), caller, jobID); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"message": "job removed from saved"})
}
