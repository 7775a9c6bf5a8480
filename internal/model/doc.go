// Package model defines the value types relayed between agents and matchers.
//
// All types are immutable once constructed:
//   - MarketBasis: commodity, currency and the discrete price range of a market
//   - Price: a value on a market basis
//   - PriceUpdate: a cleared price tagged with the bid number it answers
//   - Bid: a demand curve with one demand value per price step
//
// Demand is positive for consumption and negative for production.
package model
