//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// PostgresContainer wraps a testcontainers Postgres instance with the schema
// already applied.
type PostgresContainer struct {
	Container testcontainers.Container
	URL       string
	DB        *sql.DB
}

// NewPostgresContainer starts a new Postgres container and applies db/schema.sql.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("cropwatch_test"),
		tcpostgres.WithUsername("cropwatch"),
		tcpostgres.WithPassword("cropwatch"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", url)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres connection: %v", err)
	}
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}

	schema, err := os.ReadFile(schemaPath())
	if err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to read schema: %v", err)
	}
	if _, err := db.ExecContext(ctx, string(schema)); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	// Shared across suites; Ryuk terminates the container after the run.
	return &PostgresContainer{Container: container, URL: url, DB: db}
}

// TruncateTables empties the given tables between tests. Reference tables
// keep their identity sequences so seeded IDs stay stable within a suite.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	query := fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", strings.Join(tables, ", "))
	if _, err := p.DB.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}

// SeedReference inserts one product, location, and source and returns their
// IDs. Most store tests only need a single valid foreign-key target.
func (p *PostgresContainer) SeedReference(ctx context.Context, t *testing.T) (productID, locationID, sourceID int64) {
	t.Helper()

	err := p.DB.QueryRowContext(ctx,
		`INSERT INTO products (name, category) VALUES ($1, 'Grains') RETURNING id`,
		"Maize "+t.Name(),
	).Scan(&productID)
	if err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}
	err = p.DB.QueryRowContext(ctx,
		`INSERT INTO locations (name, state) VALUES ($1, 'Kano') RETURNING id`,
		"Dawanau Market "+t.Name(),
	).Scan(&locationID)
	if err != nil {
		t.Fatalf("failed to seed location: %v", err)
	}
	err = p.DB.QueryRowContext(ctx,
		`INSERT INTO sources (name, reliability_score) VALUES ($1, 0.8) RETURNING id`,
		"Scraper "+t.Name(),
	).Scan(&sourceID)
	if err != nil {
		t.Fatalf("failed to seed source: %v", err)
	}
	return productID, locationID, sourceID
}

// schemaPath resolves db/schema.sql relative to this file so tests work from
// any package directory.
func schemaPath() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "db", "schema.sql")
}
