package memdb

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jonathan/jobni/internal/db"
)

// -----------------------------------------------------------------------------
// Notifications
// -----------------------------------------------------------------------------

func (s *Store) CreateNotification(_ context.Context, n *db.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	n.Seq = s.nextSeq()
	n.CreatedAt = s.stamp()
	c := *n
	s.notifications[n.ID] = &c
	return nil
}

func (s *Store) ListNotifications(_ context.Context, userID uuid.UUID, limit int) ([]db.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []db.Notification{}
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq > out[j].Seq })
	if limit = limitOf(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) MarkNotificationRead(_ context.Context, id, userID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok || n.UserID != userID {
		return false, nil
	}
	n.Read = true
	return true, nil
}

func (s *Store) MarkAllNotificationsRead(_ context.Context, userID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var changed int64
	for _, n := range s.notifications {
		if n.UserID == userID && !n.Read {
			n.Read = true
			changed++
		}
	}
	return changed, nil
}

func (s *Store) CountUnreadNotifications(_ context.Context, userID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, notif := range s.notifications {
		if notif.UserID == userID && !notif.Read {
			n++
		}
	}
	return n, nil
}

// -----------------------------------------------------------------------------
// Conversations and messages
// -----------------------------------------------------------------------------

func (s *Store) GetOrCreateConversation(_ context.Context, jobID, candidateID, employerID uuid.UUID) (*db.Conversation, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := convKey{jobID, candidateID, employerID}
	if id, ok := s.convIndex[key]; ok {
		c := *s.conversations[id]
		return &c, false, nil
	}
	conv := &db.Conversation{
		ID:          uuid.New(),
		JobID:       jobID,
		CandidateID: candidateID,
		EmployerID:  employerID,
		CreatedAt:   s.stamp(),
	}
	s.conversations[conv.ID] = conv
	s.convIndex[key] = conv.ID
	c := *conv
	return &c, true, nil
}

func (s *Store) GetConversation(_ context.Context, id uuid.UUID) (*db.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.conversations[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (s *Store) ListConversationsForUser(_ context.Context, userID uuid.UUID) ([]db.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []db.Conversation{}
	for _, c := range s.conversations {
		if c.HasParticipant(userID) {
			out = append(out, *c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > db.DefaultListLimit {
		out = out[:db.DefaultListLimit]
	}
	return out, nil
}

func (s *Store) CreateMessage(_ context.Context, m *db.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendMessage(m)
}

func (s *Store) CreateFirstMessage(_ context.Context, m *db.Message) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.messages[m.ConversationID] {
		if existing.SenderID == m.SenderID {
			return false, nil
		}
	}
	if err := s.appendMessage(m); err != nil {
		return false, err
	}
	return true, nil
}

// appendMessage requires s.mu to be held.
func (s *Store) appendMessage(m *db.Message) error {
	if _, ok := s.conversations[m.ConversationID]; !ok {
		return fmt.Errorf("conversation %s: %w", m.ConversationID, db.ErrNotFound)
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.Seq = s.nextSeq()
	m.CreatedAt = s.stamp()
	c := *m
	s.messages[m.ConversationID] = append(s.messages[m.ConversationID], &c)
	return nil
}

// ListMessages returns the newest db.DefaultListLimit messages in send order.
func (s *Store) ListMessages(_ context.Context, conversationID uuid.UUID) ([]db.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.messages[conversationID]
	if len(all) > db.DefaultListLimit {
		all = all[len(all)-db.DefaultListLimit:]
	}
	out := make([]db.Message, 0, len(all))
	for _, m := range all {
		out = append(out, *m)
	}
	return out, nil
}
