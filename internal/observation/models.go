package observation

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status tracks an observation through review. Transitions go exactly once
// from pending or flagged to approved or rejected and never reverse; rows are
// never deleted so the audit trail stays complete.
type Status string

const (
	StatusPending  Status = "pending"
	StatusFlagged  Status = "flagged"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// IsTerminal reports whether the status admits no further transition.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// StagedObservation is one ingested price report awaiting or having completed
// human review. Created by the ingest worker, mutated exactly once by the
// moderation service, immutable thereafter.
type StagedObservation struct {
	ID            uuid.UUID
	ProductID     int64
	LocationID    int64
	SourceID      int64
	Price         decimal.Decimal
	Unit          string
	Currency      string
	ObservedAt    time.Time
	Status        Status
	FlaggedReason *string
	AdminNotes    *string
	ReviewedAt    *time.Time
	ReviewedBy    *string
	DedupKey      string
	CreatedAt     time.Time
}

// Submission is the inbound queue message, one per scraped or manual price
// report.
type Submission struct {
	SourceID   int64          `json:"source_id"`
	SourceName string         `json:"source_name"`
	Data       SubmissionData `json:"data"`
	ScrapedAt  time.Time      `json:"scraped_at"`
}

// SubmissionData carries the observed price and its references.
type SubmissionData struct {
	ProductID    int64           `json:"product_id"`
	ProductName  string          `json:"product_name"`
	LocationID   int64           `json:"location_id"`
	LocationName string          `json:"location_name"`
	Price        decimal.Decimal `json:"price"`
	Unit         string          `json:"unit"`
	Currency     string          `json:"currency"`
}

// DedupKey derives a deterministic key for a submission so a redelivered
// message cannot create a second staged row for the same logical observation.
func (s Submission) DedupKey() string {
	raw := fmt.Sprintf("%d|%d|%d|%s",
		s.SourceID,
		s.Data.ProductID,
		s.Data.LocationID,
		s.ScrapedAt.UTC().Format(time.RFC3339Nano),
	)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
