package server

import (
	"net/http"
	"time"

	"github.com/jonathan/jobni/internal/realtime"
)

// streamHeartbeat is how often idle streams receive a keep-alive.
var streamHeartbeat = 25 * time.Second

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	notes, err := s.notes.ListFor(r.Context(), caller.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, orEmpty(notes))
}

func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	n, err := s.notes.UnreadCount(r.Context(), caller.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]int{"count": n})
}

// handleMarkRead succeeds whether or not the notification exists or belongs
// to the caller.
func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
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
	if err := s.notes.MarkRead(r.Context(), id, caller.ID); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"message": "marked as read"})
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	n, err := s.notes.MarkAllRead(r.Context(), caller.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]int64{"updated": n})
}

// handleNotificationStream pushes the caller's new notifications as SSE
// "notification" events until the client disconnects.
func (s *Server) handleNotificationStream(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	items, cancel := s.hub.Subscribe(realtime.UserTopic(caller.ID))
	defer cancel()

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	log := requestLogger(r, s.log).WithField("user_id", caller.ID)
	log.Debug("notification stream opened")

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Debug("notification stream closed")
			return
		case item, ok := <-items:
			if !ok {
				return
			}
			if err := sse.WriteEvent("notification", item); err != nil {
				log.WithError(err).Debug("notification stream write failed")
				return
			}
		case <-heartbeat.C:
			if err := sse.WriteComment("keep-alive"); err != nil {
				return
			}
		}
	}
}
