package observation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// historyWindow bounds how far back the detector looks for a baseline.
	historyWindow = 7 * 24 * time.Hour
	// historyLimit caps how many recent approved prices feed the mean.
	historyLimit = 10
)

// anomalyThreshold is the relative deviation above which an observation is
// flagged for priority review.
var anomalyThreshold = decimal.New(3, -1) // 0.30

// PriceHistory provides recent approved prices for a product at a location.
// Implemented by the canonical store.
type PriceHistory interface {
	RecentApproved(ctx context.Context, productID, locationID int64, since time.Time, limit int) ([]decimal.Decimal, error)
}

// AnomalyResult is the outcome of screening one observation.
type AnomalyResult struct {
	IsAnomaly bool
	Reason    string
}

// Detector screens observations against recent approved history. It routes
// review priority and never blocks ingestion: insufficient history and
// infrastructure errors both come back not-anomalous.
type Detector struct {
	history PriceHistory
	logger  *slog.Logger
}

func NewDetector(history PriceHistory, logger *slog.Logger) *Detector {
	return &Detector{history: history, logger: logger}
}

// Detect compares the observed price against the mean of up to the 10 most
// recent approved prices for the same product and location within the
// trailing 7 days. Deviation above 30% flags the observation with a
// human-readable reason.
func (d *Detector) Detect(ctx context.Context, productID, locationID int64, price decimal.Decimal) AnomalyResult {
	since := time.Now().Add(-historyWindow)
	recent, err := d.history.RecentApproved(ctx, productID, locationID, since, historyLimit)
	if err != nil {
		// Fail open: a detector outage must not stall ingestion.
		d.logger.Error("anomaly baseline query failed",
			"product_id", productID,
			"location_id", locationID,
			"error", err,
		)
		return AnomalyResult{}
	}
	if len(recent) == 0 {
		return AnomalyResult{}
	}

	sum := decimal.Zero
	for _, p := range recent {
		sum = sum.Add(p)
	}
	mean := sum.Div(decimal.NewFromInt(int64(len(recent))))
	deviation := price.Sub(mean).Abs().Div(mean)

	if deviation.GreaterThan(anomalyThreshold) {
		pct := deviation.Mul(decimal.NewFromInt(100))
		return AnomalyResult{
			IsAnomaly: true,
			Reason: fmt.Sprintf("price deviates %s%% from the recent average of %s",
				pct.StringFixed(1), mean.StringFixed(2)),
		}
	}
	return AnomalyResult{}
}
