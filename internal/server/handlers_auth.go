package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/jonathan/jobni/internal/apperr"
	"github.com/jonathan/jobni/internal/server/middleware"
	"github.com/jonathan/jobni/internal/types"
)

// callerFrom returns the authenticated caller placed in the context by the
// auth middleware.
func callerFrom(r *http.Request) (types.Caller, error) {
	caller, err := middleware.GetCaller(r)
	if err != nil {
		return types.Caller{}, apperr.Unauthenticated("Not authenticated")
	}
	return caller, nil
}

// pathUUID parses the named path value as a UUID.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, apperr.Invalid(name, "must be a valid id")
	}
	return id, nil
}

// handleRegister handles user registration requests.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req types.CreateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	resp, err := s.users.Register(r.Context(), &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleLogin handles user login requests.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	resp, err := s.users.Login(r.Context(), &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	user, err := s.users.Me(r.Context(), caller)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, user)
}

// handleUpdatePassword handles password update requests.
func (s *Server) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req types.UpdatePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.users.UpdatePassword(r.Context(), caller, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"message": "password updated"})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	users, err := s.users.ListUsers(r.Context(), caller)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, users)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
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
	if err := s.users.DeleteUser(r.Context(), caller, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"message": "user deleted"})
}
