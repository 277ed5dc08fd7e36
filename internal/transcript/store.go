// Package transcript persists the bot's conversation history to Postgres so
// the clinic staff can review what the attendant told a patient.
package transcript

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/atendeai/clinicbot/internal/dialog"
)

// Entry is one recorded message of a conversation.
type Entry struct {
	ID        string    `json:"id"`
	ContactID string    `json:"contact_id"`
	Role      string    `json:"role"` // "user" or "assistant"
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Store writes transcript entries to Postgres. A nil Store is a no-op, so the
// transcript stays optional in deployments without a database.
type Store struct {
	db     *sql.DB
	tracer trace.Tracer
	now    func() time.Time
}

var _ dialog.TranscriptLogger = (*Store)(nil)

// NewStore creates a transcript store backed by db. Returns nil when db is
// nil.
func NewStore(db *sql.DB) *Store {
	if db == nil {
		return nil
	}
	return &Store{
		db:     db,
		tracer: otel.Tracer("clinicbot.internal.transcript"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS transcript_entries (
	id         UUID PRIMARY KEY,
	contact_id TEXT NOT NULL,
	role       TEXT NOT NULL,
	body       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS transcript_entries_contact_idx
	ON transcript_entries (contact_id, created_at);
`

// EnsureSchema creates the transcript table when it does not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("transcript: ensure schema: %w", err)
	}
	return nil
}

// Append records one message for contactID.
func (s *Store) Append(ctx context.Context, contactID, role, body string) error {
	if s == nil || s.db == nil {
		return nil
	}
	if contactID == "" {
		return errors.New("transcript: contactID required")
	}

	ctx, span := s.tracer.Start(ctx, "transcript.append")
	defer span.End()

	query := `
		INSERT INTO transcript_entries (id, contact_id, role, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query, uuid.NewString(), contactID, role, body, s.now())
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("transcript: append entry: %w", err)
	}
	return nil
}

// Recent returns the latest entries for contactID, oldest first. limit <= 0
// means no limit.
func (s *Store) Recent(ctx context.Context, contactID string, limit int) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if contactID == "" {
		return nil, errors.New("transcript: contactID required")
	}

	ctx, span := s.tracer.Start(ctx, "transcript.recent")
	defer span.End()

	query := `
		SELECT id, contact_id, role, body, created_at
		FROM transcript_entries
		WHERE contact_id = $1
		ORDER BY created_at DESC
	`
	args := []interface{}{contactID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("transcript: query entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ContactID, &e.Role, &e.Body, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("transcript: scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("transcript: iterate entries: %w", err)
	}

	// Flip to chronological order for display.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}
