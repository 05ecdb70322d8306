package cache

import (
	"github.com/abdoElHodaky/tradsys-core/internal/domain"
	coreerrors "github.com/abdoElHodaky/tradsys-core/pkg/errors"
	"github.com/abdoElHodaky/tradsys-core/pkg/fixed"
	"github.com/abdoElHodaky/tradsys-core/pkg/ids"
)

// Price returns the most recent bid/ask/mid/last for an instrument
// depending on priceType (spec.md §4.1 price(instrument_id, price_type)).
func (c *Cache) Price(instrumentId ids.InstrumentId, priceType domain.PriceType) (fixed.Price, bool) {
	quote, hasQuote := c.LatestQuote(instrumentId)
	switch priceType {
	case domain.PriceBid:
		if !hasQuote {
			return fixed.Price{}, false
		}
		return quote.BidPrice, true
	case domain.PriceAsk:
		if !hasQuote {
			return fixed.Price{}, false
		}
		return quote.AskPrice, true
	case domain.PriceMid:
		if !hasQuote {
			return fixed.Price{}, false
		}
		return fixed.PriceFromRaw((quote.BidPrice.Raw+quote.AskPrice.Raw)/2, quote.BidPrice.Precision), true
	case domain.PriceLast:
		trade, hasTrade := c.LatestTrade(instrumentId)
		if !hasTrade {
			return fixed.Price{}, false
		}
		return trade.Price, true
	default:
		return fixed.Price{}, false
	}
}

// GetXRate returns a positive exchange rate from one currency to
// another for a venue, derived via the instrument whose base/quote
// matches (spec.md §4.1 get_xrate(venue, from_ccy, to_ccy, price_type)).
// Direct pairs and their inverse are supported; cross-rates through a
// common quote currency are a documented Open Question (DESIGN.md).
func (c *Cache) GetXRate(venue ids.Venue, fromCcy, toCcy string, priceType domain.PriceType) (float64, error) {
	if fromCcy == toCcy {
		return 1.0, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	for instrumentId, instrument := range c.instruments {
		if instrumentId.Venue() != venue {
			continue
		}
		quoteCcy := string(instrument.SettlementCcy.Code)
		baseCcy := ""
		if instrument.BaseCcy != nil {
			baseCcy = instrument.BaseCcy.Code
		}
		if baseCcy == fromCcy && quoteCcy == toCcy {
			if px, ok := c.Price(instrumentId, priceType); ok {
				return px.Float64(), nil
			}
		}
		if baseCcy == toCcy && quoteCcy == fromCcy {
			if px, ok := c.Price(instrumentId, priceType); ok && px.Float64() != 0 {
				return 1.0 / px.Float64(), nil
			}
		}
	}
	return 0, coreerrors.Newf(coreerrors.KindNotFound, "no rate path %s->%s on venue %s", fromCcy, toCcy, venue)
}

// OrderFilter narrows OrdersMatching by any combination of venue,
// instrument, strategy, and side (spec.md §4.1 "all filter combinations").
type OrderFilter struct {
	Venue        *ids.Venue
	InstrumentId *ids.InstrumentId
	StrategyId   *ids.StrategyId
	Side         *domain.Side
}

func (c *Cache) OrdersMatching(f OrderFilter) []*domain.Order {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*domain.Order, 0)
	for _, order := range c.orders {
		if f.Venue != nil && order.InstrumentId.Venue() != *f.Venue {
			continue
		}
		if f.InstrumentId != nil && order.InstrumentId != *f.InstrumentId {
			continue
		}
		if f.StrategyId != nil && order.StrategyId != *f.StrategyId {
			continue
		}
		if f.Side != nil && order.Side != *f.Side {
			continue
		}
		out = append(out, order)
	}
	return out
}

// PositionFilter mirrors OrderFilter for PositionsMatching.
type PositionFilter struct {
	Venue        *ids.Venue
	InstrumentId *ids.InstrumentId
	StrategyId   *ids.StrategyId
	Side         *domain.PositionSide
}

func (c *Cache) PositionsMatching(f PositionFilter) []*domain.Position {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*domain.Position, 0)
	for _, position := range c.positions {
		if f.Venue != nil && position.InstrumentId.Venue() != *f.Venue {
			continue
		}
		if f.InstrumentId != nil && position.InstrumentId != *f.InstrumentId {
			continue
		}
		if f.StrategyId != nil && position.StrategyId != *f.StrategyId {
			continue
		}
		if f.Side != nil && position.Side != *f.Side {
			continue
		}
		out = append(out, position)
	}
	return out
}

// OrdersOpen / OrdersClosed / PositionsOpen / PositionsClosed expose
// the membership sets as resolved entity slices.
func (c *Cache) OrdersOpen() []*domain.Order   { return c.resolveOrders(c.idx.OrdersOpen) }
func (c *Cache) OrdersClosed() []*domain.Order { return c.resolveOrders(c.idx.OrdersClosed) }

func (c *Cache) resolveOrders(set idSet) []*domain.Order {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*domain.Order, 0, len(set))
	for id := range set {
		if o, ok := c.orders[id]; ok {
			out = append(out, o)
		}
	}
	return out
}

func (c *Cache) PositionsOpen() []*domain.Position   { return c.resolvePositions(c.idx.PositionsOpen) }
func (c *Cache) PositionsClosed() []*domain.Position { return c.resolvePositions(c.idx.PositionsClosed) }

func (c *Cache) resolvePositions(set posSet) []*domain.Position {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*domain.Position, 0, len(set))
	for id := range set {
		if p, ok := c.positions[id]; ok {
			out = append(out, p)
		}
	}
	return out
}
