package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// -----------------------------------------------------------------------------
// Conversation Methods
// -----------------------------------------------------------------------------

// GetOrCreateConversation returns the conversation for the triple, creating
// it if needed. The boolean reports whether this call created it. Concurrent
// callers converge on the same row through the unique constraint.
func (db *DB) GetOrCreateConversation(ctx context.Context, jobID, candidateID, employerID uuid.UUID) (*Conversation, bool, error) {
	c := Conversation{JobID: jobID, CandidateID: candidateID, EmployerID: employerID}
	err := db.pool.QueryRow(ctx,
		`INSERT INTO conversations (id, job_id, candidate_id, employer_id)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT ON CONSTRAINT conversations_job_candidate_employer_key DO NOTHING
		 RETURNING id, created_at`,
		uuid.New(), jobID, candidateID, employerID,
	).Scan(&c.ID, &c.CreatedAt)
	if err == nil {
		return &c, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to create conversation: %w", err)
	}

	err = db.pool.QueryRow(ctx,
		`SELECT id, created_at FROM conversations
		 WHERE job_id = $1 AND candidate_id = $2 AND employer_id = $3`,
		jobID, candidateID, employerID,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load conversation: %w", err)
	}
	return &c, false, nil
}

// GetConversation retrieves a conversation by ID
func (db *DB) GetConversation(ctx context.Context, id uuid.UUID) (*Conversation, error) {
	var c Conversation
	err := db.pool.QueryRow(ctx,
		`SELECT id, job_id, candidate_id, employer_id, created_at FROM conversations WHERE id = $1`, id,
	).Scan(&c.ID, &c.JobID, &c.CandidateID, &c.EmployerID, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return &c, nil
}

// ListConversationsForUser retrieves the newest DefaultListLimit
// conversations the user takes part in, newest first
func (db *DB) ListConversationsForUser(ctx context.Context, userID uuid.UUID) ([]Conversation, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, job_id, candidate_id, employer_id, created_at FROM conversations
		 WHERE candidate_id = $1 OR employer_id = $1
		 ORDER BY created_at DESC LIMIT $2`,
		userID, DefaultListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	conversations := []Conversation{}
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.ID, &c.JobID, &c.CandidateID, &c.EmployerID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		conversations = append(conversations, c)
	}
	return conversations, rows.Err()
}

// -----------------------------------------------------------------------------
// Message Methods
// -----------------------------------------------------------------------------

// CreateMessage appends a message to a conversation
func (db *DB) CreateMessage(ctx context.Context, m *Message) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	err := db.pool.QueryRow(ctx,
		`INSERT INTO messages (id, conversation_id, sender_id, sender_name, message_text)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING seq, created_at`,
		m.ID, m.ConversationID, m.SenderID, m.SenderName, m.MessageText,
	).Scan(&m.Seq, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", translateError(err))
	}
	return nil
}

// CreateFirstMessage appends m unless the sender already has a message in
// the conversation. The conversation row is locked for the check, so
// concurrent callers write at most one message per sender.
func (db *DB) CreateFirstMessage(ctx context.Context, m *Message) (bool, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var locked uuid.UUID
	err = tx.QueryRow(ctx, `SELECT id FROM conversations WHERE id = $1 FOR UPDATE`, m.ConversationID).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, fmt.Errorf("conversation %s: %w", m.ConversationID, ErrNotFound)
		}
		return false, fmt.Errorf("failed to lock conversation: %w", err)
	}

	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM messages WHERE conversation_id = $1 AND sender_id = $2)`,
		m.ConversationID, m.SenderID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check messages: %w", err)
	}
	if exists {
		return false, nil
	}

	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO messages (id, conversation_id, sender_id, sender_name, message_text)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING seq, created_at`,
		m.ID, m.ConversationID, m.SenderID, m.SenderName, m.MessageText,
	).Scan(&m.Seq, &m.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to create message: %w", translateError(err))
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit message: %w", err)
	}
	return true, nil
}

// ListMessages retrieves the newest DefaultListLimit messages of a
// conversation in send order
func (db *DB) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]Message, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, conversation_id, sender_id, sender_name, message_text, created_at, seq FROM (
		   SELECT id, conversation_id, sender_id, sender_name, message_text, created_at, seq
		   FROM messages WHERE conversation_id = $1
		   ORDER BY seq DESC LIMIT $2
		 ) newest ORDER BY seq ASC`,
		conversationID, DefaultListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := []Message{}
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.SenderName, &m.MessageText, &m.CreatedAt, &m.Seq); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
