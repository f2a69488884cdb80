package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/strato-space/voicesync/internal/models"
)

// Snapshot repository errors.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotStore persists the canonical message list per session so sessions
// can be inspected offline and the watch view starts warm.
type SnapshotStore struct {
	db *DB
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(db *DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// SaveSnapshot replaces the stored snapshot for the session wholesale.
func (s *SnapshotStore) SaveSnapshot(ctx context.Context, session models.Session, messages []models.Message) error {
	if session.ID == "" {
		return errors.New("session id is required")
	}

	return s.db.TransactionWithRetry(ctx, 0, 0, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sessions (id, name, source, ordering_id, is_active, to_finalize, done_at, updated_at, saved_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				source = excluded.source,
				ordering_id = excluded.ordering_id,
				is_active = excluded.is_active,
				to_finalize = excluded.to_finalize,
				done_at = excluded.done_at,
				updated_at = excluded.updated_at,
				saved_at = excluded.saved_at`,
			session.ID, session.Name, session.Source, session.OrderingID,
			session.IsActive, session.ToFinalize, session.DoneAt, session.UpdatedAt,
			time.Now().Unix())
		if err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, session.ID); err != nil {
			return fmt.Errorf("failed to clear messages: %w", err)
		}

		for i, message := range messages {
			data, err := json.Marshal(message)
			if err != nil {
				return fmt.Errorf("failed to encode message %d: %w", i, err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO messages (session_id, position, data) VALUES (?, ?, ?)`,
				session.ID, i, string(data)); err != nil {
				return fmt.Errorf("failed to save message %d: %w", i, err)
			}
		}
		return nil
	})
}

// LoadSnapshot returns the stored session and its messages in saved order.
// Returns ErrSnapshotNotFound when the session was never saved.
func (s *SnapshotStore) LoadSnapshot(ctx context.Context, sessionID string) (models.Session, []models.Message, error) {
	var session models.Session
	row := s.db.conn.QueryRowContext(ctx, `
		SELECT id, name, source, ordering_id, is_active, to_finalize, done_at, updated_at
		FROM sessions WHERE id = ?`, sessionID)
	err := row.Scan(&session.ID, &session.Name, &session.Source, &session.OrderingID,
		&session.IsActive, &session.ToFinalize, &session.DoneAt, &session.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Session{}, nil, ErrSnapshotNotFound
	}
	if err != nil {
		return models.Session{}, nil, fmt.Errorf("failed to load session: %w", err)
	}

	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT data FROM messages WHERE session_id = ? ORDER BY position`, sessionID)
	if err != nil {
		return models.Session{}, nil, fmt.Errorf("failed to load messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return models.Session{}, nil, fmt.Errorf("failed to scan message: %w", err)
		}
		var message models.Message
		if err := json.Unmarshal([]byte(data), &message); err != nil {
			return models.Session{}, nil, fmt.Errorf("failed to decode message: %w", err)
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return models.Session{}, nil, err
	}

	return session, messages, nil
}

// DeleteSession removes the stored snapshot for the session.
func (s *SnapshotStore) DeleteSession(ctx context.Context, sessionID string) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID); err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
		return nil
	})
}

// Sessions lists all stored sessions, most recently saved first.
func (s *SnapshotStore) Sessions(ctx context.Context) ([]models.Session, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT id, name, source, ordering_id, is_active, to_finalize, done_at, updated_at
		FROM sessions ORDER BY saved_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		var session models.Session
		if err := rows.Scan(&session.ID, &session.Name, &session.Source, &session.OrderingID,
			&session.IsActive, &session.ToFinalize, &session.DoneAt, &session.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}
