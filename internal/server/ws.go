package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonathan/jobni/internal/realtime"
	"github.com/jonathan/jobni/internal/types"
	"github.com/sirupsen/logrus"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = (wsPongWait * 9) / 10
	wsMaxMessageSize = 8 << 10
)

// errorFrame reports a rejected client frame without closing the socket.
type errorFrame struct {
	Type   string `json:"type"`
	Detail string `json:"detail"`
}

// handleConversationSocket upgrades a participant's request to a WebSocket.
// Messages appended to the conversation are pushed as chat frames; client
// frames are appended as the caller.
func (s *Server) handleConversationSocket(w http.ResponseWriter, r *http.Request) {
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
	if _, err := s.chat.Get(r.Context(), id, caller); err != nil {
		s.writeError(w, r, err)
		return
	}

	// Subscribe before upgrading so no message is missed between the two.
	frames, cancel := s.hub.Subscribe(realtime.ConversationTopic(id))
	defer cancel()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written an HTTP error.
		return
	}
	log := requestLogger(r, s.log).WithFields(logrus.Fields{"conversation_id": id, "user_id": caller.ID})
	log.Debug("conversation socket opened")

	// The request context ends when the handler returns, not when the
	// hijacked connection drops, so the socket gets its own.
	ctx, stop := context.WithCancel(context.WithoutCancel(r.Context()))
	defer stop()

	replies := make(chan any, 4)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.writeSocket(ctx, conn, frames, replies, log)
	}()

	s.readSocket(ctx, conn, id, caller, replies, log)
	stop()
	wg.Wait()
	log.Debug("conversation socket closed")
}

// readSocket appends client frames until the connection fails.
func (s *Server) readSocket(ctx context.Context, conn *websocket.Conn, id uuid.UUID, caller types.Caller, replies chan<- any, log logrus.FieldLogger) {
	conn.SetReadLimit(wsMaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(wsPongWait)) //nolint:errcheck
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		var req types.MessageRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithError(err).Debug("conversation socket read failed")
			}
			return
		}
		if _, err := s.chat.Send(ctx, id, caller, req.MessageText); err != nil {
			detail := err.Error()
			if HTTPStatus(err) >= http.StatusInternalServerError {
				log.WithError(err).Error("socket message failed")
				detail = "internal server error"
			}
			select {
			case replies <- errorFrame{Type: "error", Detail: detail}:
			default:
			}
		}
	}
}

// writeSocket is the connection's only writer. It closes the connection on
// exit, which also unblocks readSocket.
func (s *Server) writeSocket(ctx context.Context, conn *websocket.Conn, frames <-chan any, replies <-chan any, log logrus.FieldLogger) {
	ping := time.NewTicker(wsPingPeriod)
	defer func() {
		ping.Stop()
		conn.Close()
	}()

	write := func(v any) bool {
		conn.SetWriteDeadline(time.Now().Add(wsWriteWait)) //nolint:errcheck
		if err := conn.WriteJSON(v); err != nil {
			log.WithError(err).Debug("conversation socket write failed")
			return false
		}
		return true
	}

	for {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage, //nolint:errcheck
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(wsWriteWait))
			return
		case f, ok := <-frames:
			if !ok || !write(f) {
				return
			}
		case reply := <-replies:
			if !write(reply) {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}
