package connection

import (
	"encoding/json"
	"fmt"

	"github.com/rickgao/matcher-bridge/internal/model"
)

// Envelope types.
const (
	TypeHello       = "hello"
	TypeBid         = "bid"
	TypePriceUpdate = "price_update"
	TypeMarketBasis = "market_basis"
	TypeError       = "error"
)

// Envelope is the JSON frame exchanged with the remote matcher.
type Envelope struct {
	Type string          `json:"type"`
	Msg  json.RawMessage `json:"msg"`
}

// HelloMsg is sent once after every successful dial.
type HelloMsg struct {
	AgentID   string `json:"agent_id"`
	ClusterID string `json:"cluster_id"`
	Version   string `json:"version,omitempty"`
}

// MarketBasisMsg is the wire form of model.MarketBasis.
type MarketBasisMsg struct {
	Commodity    string  `json:"commodity"`
	Currency     string  `json:"currency"`
	PriceSteps   int     `json:"price_steps"`
	MinimumPrice float64 `json:"minimum_price"`
	MaximumPrice float64 `json:"maximum_price"`
}

// BidMsg is the wire form of model.Bid.
type BidMsg struct {
	MarketBasis MarketBasisMsg `json:"market_basis"`
	BidNumber   int            `json:"bid_number"`
	Demand      []float64      `json:"demand"`
}

// PriceUpdateMsg is the wire form of model.PriceUpdate.
type PriceUpdateMsg struct {
	MarketBasis MarketBasisMsg `json:"market_basis"`
	Price       float64        `json:"price"`
	BidNumber   int            `json:"bid_number"`
}

// ErrorMsg is the message content for an "error" envelope.
type ErrorMsg struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewMarketBasisMsg converts a market basis to its wire form.
func NewMarketBasisMsg(mb model.MarketBasis) MarketBasisMsg {
	return MarketBasisMsg{
		Commodity:    mb.Commodity,
		Currency:     mb.Currency,
		PriceSteps:   mb.PriceSteps,
		MinimumPrice: mb.MinimumPrice,
		MaximumPrice: mb.MaximumPrice,
	}
}

// MarketBasis validates and converts the wire form.
func (m MarketBasisMsg) MarketBasis() (model.MarketBasis, error) {
	return model.NewMarketBasis(m.Commodity, m.Currency, m.PriceSteps, m.MinimumPrice, m.MaximumPrice)
}

// NewBidMsg converts a bid to its wire form.
func NewBidMsg(bid model.Bid) BidMsg {
	return BidMsg{
		MarketBasis: NewMarketBasisMsg(bid.MarketBasis()),
		BidNumber:   bid.BidNumber(),
		Demand:      bid.Demand(),
	}
}

// Bid validates and converts the wire form.
func (m BidMsg) Bid() (model.Bid, error) {
	mb, err := m.MarketBasis.MarketBasis()
	if err != nil {
		return model.Bid{}, err
	}
	return model.NewBid(mb, m.Demand, m.BidNumber)
}

// NewPriceUpdateMsg converts a price update to its wire form.
func NewPriceUpdateMsg(pu model.PriceUpdate) PriceUpdateMsg {
	return PriceUpdateMsg{
		MarketBasis: NewMarketBasisMsg(pu.Price.MarketBasis),
		Price:       pu.Price.Value,
		BidNumber:   pu.BidNumber,
	}
}

// PriceUpdate validates and converts the wire form.
func (m PriceUpdateMsg) PriceUpdate() (model.PriceUpdate, error) {
	mb, err := m.MarketBasis.MarketBasis()
	if err != nil {
		return model.PriceUpdate{}, err
	}
	price, err := model.NewPrice(mb, m.Price)
	if err != nil {
		return model.PriceUpdate{}, err
	}
	return model.PriceUpdate{Price: price, BidNumber: m.BidNumber}, nil
}

// Encode wraps msg in an envelope of the given type.
func Encode(typ string, msg any) ([]byte, error) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", typ, err)
	}
	return json.Marshal(Envelope{Type: typ, Msg: raw})
}
