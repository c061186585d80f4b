package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cropwatch/pkg/platform/sentinel"
)

// PgxStore reads reference data on its own pgx pool, separate from the
// transactional database/sql pool: catalog lookups never join a moderation
// transaction.
type PgxStore struct {
	pool *pgxpool.Pool
}

func NewPgxStore(ctx context.Context, databaseURL string) (*PgxStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create catalog pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("catalog pool ping failed: %w", err)
	}
	return &PgxStore{pool: pool}, nil
}

func (s *PgxStore) Close() {
	s.pool.Close()
}

func (s *PgxStore) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, category FROM products ORDER BY category, name`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *PgxStore) ListLocations(ctx context.Context) ([]Location, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, state, market_type FROM locations ORDER BY state, name`)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	var locations []Location
	for rows.Next() {
		var l Location
		if err := rows.Scan(&l.ID, &l.Name, &l.State, &l.MarketType); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

// SourceByName resolves a source, used to attribute manual submissions.
func (s *PgxStore) SourceByName(ctx context.Context, name string) (*Source, error) {
	var src Source
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, reliability_score FROM sources WHERE name = $1`, name,
	).Scan(&src.ID, &src.Name, &src.ReliabilityScore)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get source by name: %w", err)
	}
	return &src, nil
}

// ReferenceNames resolves the display names broadcast with approved prices.
func (s *PgxStore) ReferenceNames(ctx context.Context, productID, locationID int64) (string, string, error) {
	var product, location string
	err := s.pool.QueryRow(ctx,
		`SELECT p.name, l.name
		 FROM products p, locations l
		 WHERE p.id = $1 AND l.id = $2`,
		productID, locationID,
	).Scan(&product, &location)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", sentinel.ErrNotFound
		}
		return "", "", fmt.Errorf("resolve reference names: %w", err)
	}
	return product, location, nil
}
