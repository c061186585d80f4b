package canonical

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Store is the canonical price series: append-only, written only by the
// approve transition.
type Store interface {
	// Insert appends one approved record. Joins a surrounding transaction
	// when one is present in context.
	Insert(ctx context.Context, record *PriceRecord) error

	// RecentApproved returns up to limit prices for the product/location
	// observed after since, newest first. This is the anomaly detector's
	// baseline query.
	RecentApproved(ctx context.Context, productID, locationID int64, since time.Time, limit int) ([]decimal.Decimal, error)

	// ListRecent serves the published-series read path.
	ListRecent(ctx context.Context, filter ListFilter) ([]PriceRecord, error)
}
