package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// SSEWriter helps write Server-Sent Events
type SSEWriter struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

// NewSSEWriter creates a new SSE writer. It lifts the server write deadline
// for the connection, since a stream outlives any per-request timeout.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	if _, ok := w.(http.Flusher); !ok {
		return nil, fmt.Errorf("streaming not supported")
	}
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return nil, fmt.Errorf("failed to clear write deadline: %w", err)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		return nil, err
	}

	return &SSEWriter{w: w, rc: rc}, nil
}

// WriteEvent sends an SSE event
func (s *SSEWriter) WriteEvent(event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, jsonData); err != nil {
		return err
	}
	return s.rc.Flush()
}

// WriteComment sends a comment line, used as a keep-alive.
func (s *SSEWriter) WriteComment(text string) error {
	if _, err := fmt.Fprintf(s.w, ": %s\n\n", text); err != nil {
		return err
	}
	return s.rc.Flush()
}

// WriteError sends an error event
func (s *SSEWriter) WriteError(message string) {
	s.WriteEvent("error", map[string]string{"detail": message}) //nolint:errcheck
}
