// Package chat is the conversation and messaging store. A conversation
// belongs to one (job, candidate, employer) triple; its messages are
// append-only and ordered by creation.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/jobni/internal/apperr"
	"github.com/jonathan/jobni/internal/db"
	"github.com/jonathan/jobni/internal/events"
	"github.com/jonathan/jobni/internal/observability"
	"github.com/jonathan/jobni/internal/realtime"
	"github.com/jonathan/jobni/internal/types"
	"github.com/sirupsen/logrus"
)

// The reserved system identity authors welcome messages. It is not a user
// record.
var (
	SystemSenderID   = uuid.Nil
	SystemSenderName = "platform"
)

// Frame is what live subscribers of a conversation receive.
type Frame struct {
	Type    string      `json:"type"`
	Message *db.Message `json:"message"`
}

// Service manages conversations and their messages.
type Service struct {
	store     db.Store
	hub       *realtime.Hub
	publisher events.Publisher
	log       logrus.FieldLogger
}

// NewService creates a chat Service. hub may be nil.
func NewService(store db.Store, hub *realtime.Hub, publisher events.Publisher, log logrus.FieldLogger) *Service {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Service{store: store, hub: hub, publisher: publisher, log: log}
}

// GetOrCreate returns the conversation for the triple, creating it if
// needed. created reports whether this call created it. Concurrent callers
// for the same triple all receive the same conversation and exactly one of
// them sees created == true.
func (s *Service) GetOrCreate(ctx context.Context, jobID, candidateID, employerID uuid.UUID) (*db.Conversation, bool, error) {
	conv, created, err := s.store.GetOrCreateConversation(ctx, jobID, candidateID, employerID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get or create conversation: %w", err)
	}
	if created {
		s.log.WithFields(logrus.Fields{
			"conversation_id": conv.ID,
			"job_id":          jobID,
		}).Info("conversation opened")
		s.publish(ctx, events.TopicConversationOpened, conv)
	}
	return conv, created, nil
}

// Get returns a conversation the caller participates in.
func (s *Service) Get(ctx context.Context, id uuid.UUID, caller types.Caller) (*db.Conversation, error) {
	conv, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(caller.ID) {
		return nil, apperr.Forbidden("not a participant of this conversation")
	}
	return conv, nil
}

// ListFor returns the conversations userID takes part in, newest first.
func (s *Service) ListFor(ctx context.Context, userID uuid.UUID) ([]db.Conversation, error) {
	list, err := s.store.ListConversationsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return list, nil
}

// AppendMessage adds a message to a conversation. The sender must be a
// participant or the system identity. Text is trimmed and must not be empty.
func (s *Service) AppendMessage(ctx context.Context, conversationID, senderID uuid.UUID, senderName, text string) (*db.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.Invalid("message_text", "message text is required")
	}

	conv, err := s.load(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if senderID != SystemSenderID && !conv.HasParticipant(senderID) {
		return nil, apperr.Forbidden("not a participant of this conversation")
	}

	msg := &db.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		SenderName:     senderName,
		MessageText:    text,
	}
	if err := s.store.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to append message: %w", err)
	}

	if s.hub != nil {
		s.hub.Publish(realtime.ConversationTopic(conversationID), Frame{Type: "message", Message: msg})
	}
	s.publish(ctx, events.TopicMessageSent, msg)
	return msg, nil
}

// EnsureSystemMessage appends text from the system identity unless the
// conversation already holds a system message. written reports whether this
// call added it; only then is the message broadcast.
func (s *Service) EnsureSystemMessage(ctx context.Context, conversationID uuid.UUID, text string) (*db.Message, bool, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, false, apperr.Invalid("message_text", "message text is required")
	}
	msg := &db.Message{
		ConversationID: conversationID,
		SenderID:       SystemSenderID,
		SenderName:     SystemSenderName,
		MessageText:    text,
	}
	written, err := s.store.CreateFirstMessage(ctx, msg)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, false, apperr.NotFound("conversation", conversationID)
		}
		return nil, false, fmt.Errorf("failed to append system message: %w", err)
	}
	if !written {
		return nil, false, nil
	}
	if s.hub != nil {
		s.hub.Publish(realtime.ConversationTopic(conversationID), Frame{Type: "message", Message: msg})
	}
	s.publish(ctx, events.TopicMessageSent, msg)
	return msg, true, nil
}

// Send appends a message authored by the caller.
func (s *Service) Send(ctx context.Context, conversationID uuid.UUID, caller types.Caller, text string) (*db.Message, error) {
	if caller.ID == SystemSenderID {
		return nil, apperr.Forbidden("reserved sender")
	}
	return s.AppendMessage(ctx, conversationID, caller.ID, caller.Name, text)
}

// ListMessages returns the conversation's messages, oldest first. Only
// participants may read them.
func (s *Service) ListMessages(ctx context.Context, conversationID uuid.UUID, caller types.Caller) ([]db.Message, error) {
	if _, err := s.Get(ctx, conversationID, caller); err != nil {
		return nil, err
	}
	msgs, err := s.store.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return msgs, nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*db.Conversation, error) {
	conv, err := s.store.GetConversation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	if conv == nil {
		return nil, apperr.NotFound("conversation", id)
	}
	return conv, nil
}

func (s *Service) publish(ctx context.Context, topic string, payload any) {
	err := s.publisher.Publish(ctx, topic, payload)
	observability.RecordEvent(topic, err == nil)
	if err != nil {
		s.log.WithError(err).WithField("topic", topic).Warn("failed to publish event")
	}
}
