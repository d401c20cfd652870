package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/jobni/internal/apperr"
	"github.com/sirupsen/logrus"
)

// ErrBadRequest indicates a request that could not be decoded.
type ErrBadRequest struct {
	Message string
	Cause   error
}

func (e *ErrBadRequest) Error() string {
	return e.Message
}

func (e *ErrBadRequest) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var validationErrs validator.ValidationErrors
	var badRequest *ErrBadRequest
	switch {
	case err == nil:
		return http.StatusOK
	case apperr.IsNotFound(err):
		return http.StatusNotFound
	case apperr.IsForbidden(err):
		return http.StatusForbidden
	case apperr.IsUnauthenticated(err):
		return http.StatusUnauthorized
	case apperr.IsConflict(err), apperr.IsInvalid(err):
		// Duplicates surface as 400, like other rejected input.
		return http.StatusBadRequest
	case errors.As(err, &validationErrs), errors.As(err, &badRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err to a status and writes a {"detail": ...} body.
// Internal errors are logged and replaced with a generic message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	detail := err.Error()
	if status == http.StatusInternalServerError {
		requestLogger(r, s.log).WithError(err).Error("request failed")
		detail = "internal server error"
	}
	s.errorResponse(w, status, detail)
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.WithError(err).Warn("failed to encode JSON response")
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, detail string) {
	s.jsonResponse(w, status, map[string]string{"detail": detail})
}

// maxBodyBytes bounds decoded request bodies.
const maxBodyBytes = 1 << 20

// decodeJSON decodes the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &ErrBadRequest{Message: fmt.Sprintf("invalid request body: %v", err), Cause: err}
	}
	return nil
}

func requestLogger(r *http.Request, log logrus.FieldLogger) logrus.FieldLogger {
	return log.WithFields(logrus.Fields{
		"method":     r.Method,
		"path":       r.URL.Path,
		"request_id": r.Header.Get(requestIDHeader),
	})
}
