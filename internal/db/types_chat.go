package db

import (
	"time"

	"github.com/google/uuid"
)

// Notification is an entry in a user's append-only notification log
type Notification struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
	Seq       int64     `json:"-"`
}

// Conversation is a chat thread for one (job, candidate, employer) triple
type Conversation struct {
	ID          uuid.UUID `json:"id"`
	JobID       uuid.UUID `json:"job_id"`
	CandidateID uuid.UUID `json:"candidate_id"`
	EmployerID  uuid.UUID `json:"employer_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// HasParticipant reports whether userID is the candidate or the employer.
func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	return c.CandidateID == userID || c.EmployerID == userID
}

// Message is a chat message; messages are ordered by Seq within a conversation
type Message struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	SenderID       uuid.UUID `json:"sender_id"`
	SenderName     string    `json:"sender_name"`
	MessageText    string    `json:"message_text"`
	CreatedAt      time.Time `json:"created_at"`
	Seq            int64     `json:"-"`
}
