package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"cropwatch/internal/observation"
	"cropwatch/pkg/platform/sentinel"
	txcontext "cropwatch/pkg/platform/tx"
)

// PostgresStore persists staged observations in the staged_observations
// table. It joins a surrounding transaction when one is present in context.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) querier(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Create(ctx context.Context, obs *observation.StagedObservation) error {
	if obs.ID == uuid.Nil {
		obs.ID = uuid.New()
	}
	if obs.CreatedAt.IsZero() {
		obs.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO staged_observations (
			id, product_id, location_id, source_id, price, unit, currency,
			observed_at, status, flagged_reason, dedup_key, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (dedup_key) DO NOTHING
	`
	res, err := s.querier(ctx).ExecContext(ctx, query,
		obs.ID,
		obs.ProductID,
		obs.LocationID,
		obs.SourceID,
		obs.Price,
		obs.Unit,
		obs.Currency,
		obs.ObservedAt,
		string(obs.Status),
		obs.FlaggedReason,
		obs.DedupKey,
		obs.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert staged observation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert staged observation: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrDuplicate
	}
	return nil
}

func (s *PostgresStore) GetForReview(ctx context.Context, id uuid.UUID) (*observation.StagedObservation, error) {
	query := `
		SELECT id, product_id, location_id, source_id, price, unit, currency,
		       observed_at, status, flagged_reason, admin_notes,
		       reviewed_at, reviewed_by, dedup_key, created_at
		FROM staged_observations
		WHERE id = $1
	`
	// Lock the row inside a review transaction so a concurrent review waits
	// and then sees the terminal status.
	if _, inTx := txcontext.From(ctx); inTx {
		query += " FOR UPDATE"
	}

	var obs observation.StagedObservation
	var status string
	err := s.querier(ctx).QueryRowContext(ctx, query, id).Scan(
		&obs.ID,
		&obs.ProductID,
		&obs.LocationID,
		&obs.SourceID,
		&obs.Price,
		&obs.Unit,
		&obs.Currency,
		&obs.ObservedAt,
		&status,
		&obs.FlaggedReason,
		&obs.AdminNotes,
		&obs.ReviewedAt,
		&obs.ReviewedBy,
		&obs.DedupKey,
		&obs.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get staged observation: %w", err)
	}
	obs.Status = observation.Status(status)
	return &obs, nil
}

func (s *PostgresStore) ApplyReview(ctx context.Context, id uuid.UUID, status observation.Status, notes *string, reviewedAt time.Time, reviewedBy string) error {
	query := `
		UPDATE staged_observations
		SET status = $1, admin_notes = $2, reviewed_at = $3, reviewed_by = $4
		WHERE id = $5 AND status IN ('pending', 'flagged')
	`
	res, err := s.querier(ctx).ExecContext(ctx, query,
		string(status), notes, reviewedAt, reviewedBy, id,
	)
	if err != nil {
		return fmt.Errorf("apply review: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("apply review: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresStore) ListQueue(ctx context.Context, status *observation.Status, limit int) ([]ReviewItem, error) {
	query := `
		SELECT so.id, so.product_id, so.location_id, so.source_id,
		       so.price, so.unit, so.currency, so.observed_at, so.status,
		       so.flagged_reason, so.admin_notes, so.reviewed_at, so.reviewed_by,
		       so.dedup_key, so.created_at,
		       p.name, p.category, l.name, l.state, s.name, s.reliability_score
		FROM staged_observations so
		JOIN products p ON so.product_id = p.id
		JOIN locations l ON so.location_id = l.id
		JOIN sources s ON so.source_id = s.id
	`
	args := []any{}
	if status != nil {
		args = append(args, string(*status))
		query += " WHERE so.status = $1"
	} else {
		query += " WHERE so.status IN ('pending', 'flagged')"
	}
	args = append(args, limit)
	query += fmt.Sprintf(`
		ORDER BY
			CASE WHEN so.status = 'flagged' THEN 0 ELSE 1 END,
			so.observed_at DESC
		LIMIT $%d`, len(args))

	rows, err := s.querier(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list review queue: %w", err)
	}
	defer rows.Close()

	var items []ReviewItem
	for rows.Next() {
		var item ReviewItem
		var itemStatus string
		if err := rows.Scan(
			&item.ID,
			&item.ProductID,
			&item.LocationID,
			&item.SourceID,
			&item.Price,
			&item.Unit,
			&item.Currency,
			&item.ObservedAt,
			&itemStatus,
			&item.FlaggedReason,
			&item.AdminNotes,
			&item.ReviewedAt,
			&item.ReviewedBy,
			&item.DedupKey,
			&item.CreatedAt,
			&item.ProductName,
			&item.ProductCategory,
			&item.LocationName,
			&item.LocationState,
			&item.SourceName,
			&item.ReliabilityScore,
		); err != nil {
			return nil, fmt.Errorf("scan review item: %w", err)
		}
		item.Status = observation.Status(itemStatus)
		items = append(items, item)
	}
	return items, rows.Err()
}
