package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Message is a contact form submission.
type Message struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Body      string    `json:"body"`
	HashedIP  string    `json:"-"`
	Delivered bool      `json:"delivered"`
	CreatedAt time.Time `json:"created_at"`
}

// SaveMessage stores m, assigning an id and creation time when unset, and
// returns the stored message.
func (s *Store) SaveMessage(ctx context.Context, m Message) (Message, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	m.CreatedAt = m.CreatedAt.UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, name, email, body, hashed_ip, delivered, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.Name, m.Email, m.Body, m.HashedIP, m.Delivered, m.CreatedAt)
	if err != nil {
		return Message{}, fmt.Errorf("save message: %w", err)
	}
	return m, nil
}

// MarkDelivered records that the message was sent on by e-mail.
func (s *Store) MarkDelivered(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE messages SET delivered = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark message delivered: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Messages returns up to limit messages, newest first.
func (s *Store) Messages(ctx context.Context, limit int) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, body, delivered, created_at
		FROM messages
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Body, &m.Delivered, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (s *Store) DeleteMessage(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
