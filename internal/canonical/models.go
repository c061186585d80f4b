package canonical

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceRecord is one approved, normalized entry in the published price
// series. Created atomically by the approve transition and immutable after.
type PriceRecord struct {
	ID         uuid.UUID
	Time       time.Time
	ProductID  int64
	LocationID int64
	SourceID   int64
	Price      decimal.Decimal
	Unit       string
	Currency   string
	PricePerKg decimal.Decimal
	ApprovedBy string

	// Reference names, populated on the read path only.
	ProductName  string
	LocationName string
	SourceName   string
}

// ListFilter narrows the published series read path.
type ListFilter struct {
	ProductID  *int64
	LocationID *int64
	Limit      int
}
