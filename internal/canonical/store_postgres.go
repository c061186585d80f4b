package canonical

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	txcontext "cropwatch/pkg/platform/tx"
)

// PostgresStore persists the canonical series in the prices table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) querier(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Insert(ctx context.Context, record *PriceRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	query := `
		INSERT INTO prices (
			id, time, product_id, location_id, source_id,
			price, unit, currency, price_per_kg, approved_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.querier(ctx).ExecContext(ctx, query,
		record.ID,
		record.Time,
		record.ProductID,
		record.LocationID,
		record.SourceID,
		record.Price,
		record.Unit,
		record.Currency,
		record.PricePerKg,
		record.ApprovedBy,
	)
	if err != nil {
		return fmt.Errorf("insert canonical price: %w", err)
	}
	return nil
}

func (s *PostgresStore) RecentApproved(ctx context.Context, productID, locationID int64, since time.Time, limit int) ([]decimal.Decimal, error) {
	query := `
		SELECT price FROM prices
		WHERE product_id = $1 AND location_id = $2 AND time > $3
		ORDER BY time DESC
		LIMIT $4
	`
	rows, err := s.querier(ctx).QueryContext(ctx, query, productID, locationID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent approved prices: %w", err)
	}
	defer rows.Close()

	var prices []decimal.Decimal
	for rows.Next() {
		var price decimal.Decimal
		if err := rows.Scan(&price); err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		prices = append(prices, price)
	}
	return prices, rows.Err()
}

func (s *PostgresStore) ListRecent(ctx context.Context, filter ListFilter) ([]PriceRecord, error) {
	query := `
		SELECT pr.id, pr.time, pr.product_id, pr.location_id, pr.source_id,
		       pr.price, pr.unit, pr.currency, pr.price_per_kg, pr.approved_by,
		       p.name, l.name, s.name
		FROM prices pr
		JOIN products p ON pr.product_id = p.id
		JOIN locations l ON pr.location_id = l.id
		JOIN sources s ON pr.source_id = s.id
		WHERE 1=1
	`
	var args []any
	if filter.ProductID != nil {
		args = append(args, *filter.ProductID)
		query += fmt.Sprintf(" AND pr.product_id = $%d", len(args))
	}
	if filter.LocationID != nil {
		args = append(args, *filter.LocationID)
		query += fmt.Sprintf(" AND pr.location_id = $%d", len(args))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY pr.time DESC LIMIT $%d", len(args))

	rows, err := s.querier(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list canonical prices: %w", err)
	}
	defer rows.Close()

	var records []PriceRecord
	for rows.Next() {
		var r PriceRecord
		if err := rows.Scan(
			&r.ID,
			&r.Time,
			&r.ProductID,
			&r.LocationID,
			&r.SourceID,
			&r.Price,
			&r.Unit,
			&r.Currency,
			&r.PricePerKg,
			&r.ApprovedBy,
			&r.ProductName,
			&r.LocationName,
			&r.SourceName,
		); err != nil {
			return nil, fmt.Errorf("scan canonical price: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
