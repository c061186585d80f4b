package observation

import "errors"

// Structural validation failures. An observation failing any of these will
// never become valid on redelivery, so the ingest worker drops it.
var (
	ErrMissingProduct  = errors.New("missing product reference")
	ErrMissingLocation = errors.New("missing location reference")
	ErrInvalidPrice    = errors.New("price must be positive")
	ErrMissingUnit     = errors.New("missing unit")
	ErrMissingCurrency = errors.New("missing currency")
)

// Validate checks structural validity of a submission. It is a pure check:
// nil means the observation can be staged.
func (d SubmissionData) Validate() error {
	if d.ProductID == 0 {
		return ErrMissingProduct
	}
	if d.LocationID == 0 {
		return ErrMissingLocation
	}
	if !d.Price.IsPositive() {
		return ErrInvalidPrice
	}
	if d.Unit == "" {
		return ErrMissingUnit
	}
	if d.Currency == "" {
		return ErrMissingCurrency
	}
	return nil
}
