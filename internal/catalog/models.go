package catalog

// Reference entities are owned by an external collaborator; this package only
// reads them. The core never mutates reference data.

// Product is a tracked agricultural commodity.
type Product struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Location is a market where prices are observed.
type Location struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	State      string `json:"state"`
	MarketType string `json:"market_type"`
}

// Source is where an observation came from. ReliabilityScore is carried
// through to reviewers; the anomaly detector does not consume it yet.
type Source struct {
	ID               int64   `json:"id"`
	Name             string  `json:"name"`
	ReliabilityScore float64 `json:"reliability_score"`
}
