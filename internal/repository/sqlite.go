package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/XinghanGuo1019/AI/internal/model"
	_ "modernc.org/sqlite"
)

const transcriptSchema = `
CREATE TABLE IF NOT EXISTS transcripts (
	id         TEXT PRIMARY KEY,
	query      TEXT NOT NULL,
	messages   TEXT NOT NULL,
	response   TEXT NOT NULL DEFAULT '',
	success    INTEGER NOT NULL,
	error      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);`

// SQLiteTranscriptRepository implements TranscriptRepository on a local
// SQLite file. Messages are stored as a JSON column.
type SQLiteTranscriptRepository struct {
	db *sql.DB
}

// OpenSQLite opens the database at path and applies the schema. Creates the
// file if missing.
func OpenSQLite(ctx context.Context, path string) (*SQLiteTranscriptRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("repository: open sqlite %q: %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("repository: ping sqlite %q: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, transcriptSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("repository: apply schema: %w", err)
	}

	return &SQLiteTranscriptRepository{db: db}, nil
}

func (r *SQLiteTranscriptRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteTranscriptRepository) Save(ctx context.Context, t model.Transcript) error {
	messages, err := json.Marshal(t.Messages)
	if err != nil {
		return fmt.Errorf("repository: encode messages for %q: %w", t.ID, err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO transcripts (id, query, messages, response, success, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   query = excluded.query,
		   messages = excluded.messages,
		   response = excluded.response,
		   success = excluded.success,
		   error = excluded.error,
		   created_at = excluded.created_at`,
		t.ID, t.Query, string(messages), t.Response, t.Success, t.Error, t.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("repository: upsert transcript %q: %w", t.ID, err)
	}

	return nil
}

func (r *SQLiteTranscriptRepository) Load(ctx context.Context, id string) (*model.Transcript, error) {
	var (
		t         model.Transcript
		messages  string
		createdAt time.Time
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, query, messages, response, success, error, created_at FROM transcripts WHERE id = ?`, id,
	).Scan(&t.ID, &t.Query, &messages, &t.Response, &t.Success, &t.Error, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("repository: transcript %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("repository: find transcript %q: %w", id, err)
	}

	if err := json.Unmarshal([]byte(messages), &t.Messages); err != nil {
		return nil, fmt.Errorf("repository: decode messages for %q: %w", id, err)
	}
	t.CreatedAt = createdAt.UTC()

	return &t, nil
}

func (r *SQLiteTranscriptRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM transcripts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("repository: delete transcript %q: %w", id, err)
	}

	return nil
}
