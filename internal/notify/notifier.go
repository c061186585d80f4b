package notify

import (
	"context"

	"github.com/shopspring/decimal"
)

// PriceApprovedEvent is broadcast to live subscribers when an observation is
// approved into the canonical series.
type PriceApprovedEvent struct {
	ProductID    int64           `json:"product_id"`
	LocationID   int64           `json:"location_id"`
	Price        decimal.Decimal `json:"price"`
	ProductName  string          `json:"product_name"`
	LocationName string          `json:"location_name"`
}

// Notifier broadcasts approved-price events. Fire-and-forget: no persistence,
// no delivery guarantee, and an empty subscriber set is not an error.
type Notifier interface {
	PublishPriceApproved(ctx context.Context, event PriceApprovedEvent) error
}
