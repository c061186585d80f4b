package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"cropwatch/internal/observation"
)

// ReviewItem is a staged observation joined with its reference data for the
// moderation queue. The reliability score is carried for reviewers; the
// anomaly detector does not consume it yet.
type ReviewItem struct {
	observation.StagedObservation
	ProductName      string
	ProductCategory  string
	LocationName     string
	LocationState    string
	SourceName       string
	ReliabilityScore float64
}

// Store is the staging store: an append-only record of every ingested
// observation and its review status.
type Store interface {
	// Create inserts a new staged observation, assigning its id. Returns
	// sentinel.ErrDuplicate when the dedup key already exists, which callers
	// treat as successful ingestion of a redelivered message.
	Create(ctx context.Context, obs *observation.StagedObservation) error

	// GetForReview loads an observation by id. Inside a transaction the row
	// is locked so concurrent reviews serialize on it.
	GetForReview(ctx context.Context, id uuid.UUID) (*observation.StagedObservation, error)

	// ApplyReview moves a non-terminal observation to a terminal status.
	// Returns sentinel.ErrConflict if the row is already terminal.
	ApplyReview(ctx context.Context, id uuid.UUID, status observation.Status, notes *string, reviewedAt time.Time, reviewedBy string) error

	// ListQueue returns the moderation queue. With a nil status it surfaces
	// flagged observations ahead of pending ones; within each status the
	// newest observed_at comes first. This ordering is a scheduling contract
	// for reviewers, not row order happenstance.
	ListQueue(ctx context.Context, status *observation.Status, limit int) ([]ReviewItem, error)
}
