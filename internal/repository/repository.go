package repository

import (
	"context"
	"errors"

	"github.com/XinghanGuo1019/AI/internal/model"
)

var ErrNotFound = errors.New("transcript not found")

// TranscriptRepository defines persistence operations for query transcripts.
type TranscriptRepository interface {
	// Save persists a transcript.
	// Replaces any previously stored transcript with the same ID.
	Save(ctx context.Context, t model.Transcript) error

	// Load retrieves the stored transcript for a given query ID.
	// Returns ErrNotFound if it does not exist.
	Load(ctx context.Context, id string) (*model.Transcript, error)

	// Delete removes the stored transcript for a given query ID.
	// Is a no-op if it does not exist.
	Delete(ctx context.Context, id string) error
}
