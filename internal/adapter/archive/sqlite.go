// Package archive is an optional local transcript store used by the CLI.
// The chat core itself keeps only the in-memory session cache; the BFF owns
// session persistence.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"lexbridge/internal/domain"
)

// TranscriptSummary is one archived conversation, without its messages.
type TranscriptSummary struct {
	SessionID  string
	CreatedAt  time.Time
	ArchivedAt time.Time
	Messages   int
}

// Store persists completed conversations in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the archive database at dbPath and runs the schema
// migration.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open archive db: %w", err)
	}
	// WAL mode for better concurrent reads.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate archive db: %w", err)
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS transcripts (
			session_id  TEXT PRIMARY KEY,
			created_at  TEXT NOT NULL,
			archived_at TEXT NOT NULL,
			messages    TEXT NOT NULL DEFAULT '[]'
		)
	`)
	return err
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save upserts the transcript of a session.
func (s *Store) Save(_ context.Context, session domain.Session, messages []domain.Message) error {
	msgJSON, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}
	now := time.Now().UTC()
	_, err = s.db.Exec(
		`INSERT INTO transcripts (session_id, created_at, archived_at, messages)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET archived_at = excluded.archived_at, messages = excluded.messages`,
		session.ID,
		session.CreatedAt.UTC().Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
		string(msgJSON),
	)
	return err
}

// List returns summaries of all archived transcripts, newest first.
func (s *Store) List(_ context.Context) ([]TranscriptSummary, error) {
	rows, err := s.db.Query(
		"SELECT session_id, created_at, archived_at, messages FROM transcripts ORDER BY archived_at DESC",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []TranscriptSummary
	for rows.Next() {
		var (
			summary             TranscriptSummary
			createdAt, archived string
			msgJSON             string
		)
		if err := rows.Scan(&summary.SessionID, &createdAt, &archived, &msgJSON); err != nil {
			return nil, err
		}
		summary.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		summary.ArchivedAt, _ = time.Parse(time.RFC3339Nano, archived)
		var messages []domain.Message
		if err := json.Unmarshal([]byte(msgJSON), &messages); err == nil {
			summary.Messages = len(messages)
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

// Load returns the full transcript of one session.
func (s *Store) Load(_ context.Context, sessionID string) ([]domain.Message, error) {
	row := s.db.QueryRow("SELECT messages FROM transcripts WHERE session_id = ?", sessionID)

	var msgJSON string
	if err := row.Scan(&msgJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}

	var messages []domain.Message
	if err := json.Unmarshal([]byte(msgJSON), &messages); err != nil {
		return nil, fmt.Errorf("unmarshal transcript: %w", err)
	}
	return messages, nil
}

// Delete removes an archived transcript.
func (s *Store) Delete(_ context.Context, sessionID string) error {
	res, err := s.db.Exec("DELETE FROM transcripts WHERE session_id = ?", sessionID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}
