package repositories

import (
	"context"
	"errors"
	"time"

	"peerprep/interview/internal/models"
)

// ErrNotFound is returned when a referenced interview or feedback record does not exist.
var ErrNotFound = errors.New("record not found")

// InterviewStore persists interview templates and their copies.
type InterviewStore interface {
	Create(ctx context.Context, t *models.InterviewTemplate) (string, error)
	Get(ctx context.Context, id string) (*models.InterviewTemplate, error)
	QueryByOwner(ctx context.Context, userID string) ([]models.InterviewTemplate, error)
	// QueryFinalized returns finalized originals newest-first. An empty excludeOwner excludes nobody.
	QueryFinalized(ctx context.Context, excludeOwner string, limit int) ([]models.InterviewTemplate, error)
	// GetMany skips ids that do not resolve.
	GetMany(ctx context.Context, ids []string) ([]models.InterviewTemplate, error)
	Update(ctx context.Context, id string, patch models.InterviewPatch) error
	Ping(ctx context.Context) error
}

// FeedbackStore persists at most one feedback record per (interview, user).
type FeedbackStore interface {
	// Upsert overwrites the record for the pair in place, keeping its id, or creates it.
	Upsert(ctx context.Context, interviewID, userID string, fields models.FeedbackFields) (id string, created bool, err error)
	Get(ctx context.Context, interviewID, userID string) (*models.FeedbackRecord, error)
	QueryByUser(ctx context.Context, userID string) ([]models.FeedbackRecord, error)
	QueryCreatedSince(ctx context.Context, since time.Time) ([]models.FeedbackRecord, error)
	Ping(ctx context.Context) error
}
