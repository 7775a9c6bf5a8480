package model

import (
	"errors"
	"fmt"
	"math"
)

// Errors
var (
	ErrInvalidMarketBasis = errors.New("invalid market basis")
	ErrInvalidBid         = errors.New("invalid bid")
	ErrInvalidPrice       = errors.New("invalid price")
)

// -----------------------------------------------------------------------------
// Market Basis
// -----------------------------------------------------------------------------

// MarketBasis describes the commodity, currency and price range shared by the
// participants of a session. Compare with ==.
type MarketBasis struct {
	Commodity    string  // e.g. "electricity"
	Currency     string  // ISO 4217 code, e.g. "EUR"
	PriceSteps   int     // Number of discrete price steps (>= 2)
	MinimumPrice float64 // Price at step 0
	MaximumPrice float64 // Price at step PriceSteps-1
}

// NewMarketBasis validates and returns a MarketBasis.
func NewMarketBasis(commodity, currency string, priceSteps int, minimumPrice, maximumPrice float64) (MarketBasis, error) {
	mb := MarketBasis{
		Commodity:    commodity,
		Currency:     currency,
		PriceSteps:   priceSteps,
		MinimumPrice: minimumPrice,
		MaximumPrice: maximumPrice,
	}
	if err := mb.Validate(); err != nil {
		return MarketBasis{}, err
	}
	return mb, nil
}

// Validate reports whether the market basis is usable.
func (mb MarketBasis) Validate() error {
	if mb.Commodity == "" {
		return fmt.Errorf("%w: commodity is required", ErrInvalidMarketBasis)
	}
	if mb.Currency == "" {
		return fmt.Errorf("%w: currency is required", ErrInvalidMarketBasis)
	}
	if mb.PriceSteps < 2 {
		return fmt.Errorf("%w: price_steps must be >= 2, got %d", ErrInvalidMarketBasis, mb.PriceSteps)
	}
	if !(mb.MinimumPrice < mb.MaximumPrice) {
		return fmt.Errorf("%w: minimum_price (%g) must be below maximum_price (%g)",
			ErrInvalidMarketBasis, mb.MinimumPrice, mb.MaximumPrice)
	}
	return nil
}

// PriceIncrement returns the price difference between two adjacent steps.
func (mb MarketBasis) PriceIncrement() float64 {
	return (mb.MaximumPrice - mb.MinimumPrice) / float64(mb.PriceSteps-1)
}

// StepToPrice converts a price step to a price value. Steps are clamped to range.
func (mb MarketBasis) StepToPrice(step int) float64 {
	if step < 0 {
		step = 0
	}
	if step >= mb.PriceSteps {
		step = mb.PriceSteps - 1
	}
	return mb.MinimumPrice + float64(step)*mb.PriceIncrement()
}

// PriceToStep converts a price value to the nearest price step.
func (mb MarketBasis) PriceToStep(price float64) int {
	step := int(math.Round((price - mb.MinimumPrice) / mb.PriceIncrement()))
	if step < 0 {
		return 0
	}
	if step >= mb.PriceSteps {
		return mb.PriceSteps - 1
	}
	return step
}

// String returns a short human-readable form.
func (mb MarketBasis) String() string {
	return fmt.Sprintf("%s/%s[%g..%g, %d steps]",
		mb.Commodity, mb.Currency, mb.MinimumPrice, mb.MaximumPrice, mb.PriceSteps)
}

// -----------------------------------------------------------------------------
// Prices
// -----------------------------------------------------------------------------

// Price is a price value expressed on a market basis.
type Price struct {
	MarketBasis MarketBasis
	Value       float64
}

// NewPrice returns a Price, rejecting values outside the market basis range.
func NewPrice(mb MarketBasis, value float64) (Price, error) {
	if value < mb.MinimumPrice || value > mb.MaximumPrice {
		return Price{}, fmt.Errorf("%w: %g outside [%g, %g]", ErrInvalidPrice, value, mb.MinimumPrice, mb.MaximumPrice)
	}
	return Price{MarketBasis: mb, Value: value}, nil
}

// Step returns the price step nearest to this price.
func (p Price) Step() int {
	return p.MarketBasis.PriceToStep(p.Value)
}

// PriceUpdate is a cleared price sent to an agent. BidNumber identifies the
// bid the price was computed from (0 if unknown).
type PriceUpdate struct {
	Price     Price
	BidNumber int
}

// -----------------------------------------------------------------------------
// Bids
// -----------------------------------------------------------------------------

// Bid is a demand curve over the price steps of a market basis.
type Bid struct {
	marketBasis MarketBasis
	demand      []float64
	bidNumber   int
}

// NewBid validates a demand curve against the market basis. The demand slice
// is copied. Demand must be finite and non-increasing with price.
func NewBid(mb MarketBasis, demand []float64, bidNumber int) (Bid, error) {
	if len(demand) != mb.PriceSteps {
		return Bid{}, fmt.Errorf("%w: demand has %d steps, market basis has %d",
			ErrInvalidBid, len(demand), mb.PriceSteps)
	}
	for i, d := range demand {
		if math.IsNaN(d) || math.IsInf(d, 0) {
			return Bid{}, fmt.Errorf("%w: demand at step %d is not finite", ErrInvalidBid, i)
		}
	}
	for i := 1; i < len(demand); i++ {
		if demand[i] > demand[i-1] {
			return Bid{}, fmt.Errorf("%w: demand increases at step %d", ErrInvalidBid, i)
		}
	}

	d := make([]float64, len(demand))
	copy(d, demand)

	return Bid{marketBasis: mb, demand: d, bidNumber: bidNumber}, nil
}

// MarketBasis returns the market basis of the bid.
func (b Bid) MarketBasis() MarketBasis {
	return b.marketBasis
}

// BidNumber returns the sequence number assigned by the submitting agent.
func (b Bid) BidNumber() int {
	return b.bidNumber
}

// Demand returns a copy of the demand curve.
func (b Bid) Demand() []float64 {
	d := make([]float64, len(b.demand))
	copy(d, b.demand)
	return d
}

// DemandAt returns the demand at the given price step (0 when out of range).
func (b Bid) DemandAt(step int) float64 {
	if step < 0 || step >= len(b.demand) {
		return 0
	}
	return b.demand[step]
}

// DemandAtPrice returns the demand at the step nearest to price.
func (b Bid) DemandAtPrice(price Price) float64 {
	return b.DemandAt(b.marketBasis.PriceToStep(price.Value))
}

// IsZero reports whether the bid was never constructed.
func (b Bid) IsZero() bool {
	return b.demand == nil
}
