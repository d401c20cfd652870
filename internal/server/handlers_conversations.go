package server

import (
	"net/http"

	"github.com/jonathan/jobni/internal/types"
)

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	convs, err := s.chat.ListFor(r.Context(), caller.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, orEmpty(convs))
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
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
	msgs, err := s.chat.ListMessages(r.Context(), id, caller)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, orEmpty(msgs))
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
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
	var req types.MessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	msg, err := s.chat.Send(r.Context(), id, caller, req.MessageText)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, msg)
}
