/*
Package store implements the durable message store and the asynchronous
persistence gateway in front of it.

The Store is a thin PostgreSQL data-access layer; the Gateway (gateway.go)
serializes writes through a single worker so that persistence completion order
is well defined.
*/
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"chatrelay/internal/app/chat"
)

const queryTimeout = 5 * time.Second

// Store is the durable message log.
type Store interface {

	// Append persists a draft and returns the stored message with its canonical
	// identifier and timestamp assigned.
	Append(ctx context.Context, d chat.Draft) (chat.Message, error)

	// MarkRead sets the read flag on a stored message. Marking an already-read
	// or unknown message is not an error.
	MarkRead(ctx context.Context, messageID string) error

	// Recent returns up to limit messages in ascending creation order, ending
	// with the newest.
	Recent(ctx context.Context, limit int) ([]chat.Message, error)
}

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Store backed by the given pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Append inserts the draft. The identifier is generated here rather than by the
// database so the message is addressable before the row round-trips.
func (s *PostgresStore) Append(ctx context.Context, d chat.Draft) (chat.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	m := chat.Message{
		ID:       uuid.New().String(),
		Author:   d.Author,
		Text:     d.Text,
		VoiceKey: d.VoiceKey,
	}

	err := s.pool.QueryRow(ctx,
		`INSERT INTO messages (id, author, body, voice_key)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		m.ID, m.Author, m.Text, m.VoiceKey,
	).Scan(&m.CreatedAt)
	if err != nil {
		return chat.Message{}, fmt.Errorf("failed to insert message: %w", err)
	}

	return m, nil
}

// MarkRead flips the read flag. Zero rows affected means the message is unknown
// or already read; both are fine.
func (s *PostgresStore) MarkRead(ctx context.Context, messageID string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if _, err := uuid.Parse(messageID); err != nil {
		return fmt.Errorf("invalid message id %q: %w", messageID, err)
	}

	_, err := s.pool.Exec(ctx,
		`UPDATE messages SET read = TRUE WHERE id = $1`, messageID)
	if err != nil {
		return fmt.Errorf("failed to mark message read: %w", err)
	}

	return nil
}

// Recent loads the newest limit messages, returned oldest first so clients can
// render them in order.
func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]chat.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT id, author, body, voice_key, read, created_at
		 FROM messages
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []chat.Message
	for rows.Next() {
		var m chat.Message
		if err := rows.Scan(&m.ID, &m.Author, &m.Text, &m.VoiceKey, &m.Read, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read message rows: %w", err)
	}

	// Reverse into ascending order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}
