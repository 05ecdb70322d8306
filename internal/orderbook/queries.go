package orderbook

import (
	"github.com/abdoElHodaky/tradsys-core/internal/domain"
	"github.com/abdoElHodaky/tradsys-core/pkg/fixed"
)

// BestBidPrice / BestAskPrice return the best price on each side, and
// whether one exists.
func (b *Book) BestBidPrice() (fixed.Price, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	lvl := b.bids.best()
	if lvl == nil {
		return fixed.Price{}, false
	}
	return lvl.price, true
}

func (b *Book) BestAskPrice() (fixed.Price, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	lvl := b.asks.best()
	if lvl == nil {
		return fixed.Price{}, false
	}
	return lvl.price, true
}

// Spread returns ask - bid (raw), and whether both sides exist.
func (b *Book) Spread() (int64, bool) {
	bid, okB := b.BestBidPrice()
	ask, okA := b.BestAskPrice()
	if !okB || !okA {
		return 0, false
	}
	return ask.Raw - bid.Raw, true
}

// Midpoint returns (bid+ask)/2.
func (b *Book) Midpoint() (fixed.Price, bool) {
	bid, okB := b.BestBidPrice()
	ask, okA := b.BestAskPrice()
	if !okB || !okA {
		return fixed.Price{}, false
	}
	return fixed.PriceFromRaw((bid.Raw+ask.Raw)/2, bid.Precision), true
}

// GetAvgPxForQuantity walks the opposite side of `side` consuming qty
// and returns the size-weighted average price actually achievable
// (spec.md §4.4 get_avg_px_for_quantity). The opposite side is the one
// a taker on `side` would execute against.
func (b *Book) GetAvgPxForQuantity(qty fixed.Quantity, side domain.Side) (fixed.Price, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	opp := b.ladderFor(side.Opposite())

	remaining := qty.Raw
	var notional fixed.RawAccumulator
	var consumed int64
	var precision uint8
	opp.walk(func(lvl *priceLevel) bool {
		precision = lvl.price.Precision
		avail := lvl.totalQty().Raw
		take := avail
		if take > remaining {
			take = remaining
		}
		notional.AddProduct(lvl.price.Raw, take)
		consumed += take
		remaining -= take
		return remaining > 0
	})
	if consumed == 0 {
		return fixed.Price{}, false
	}
	return fixed.PriceFromRaw(notional.Div(consumed), precision), true
}

// GetQuantityForPrice returns total quantity available at prices at
// least as good as `price` on the given side (spec.md §4.4
// get_quantity_for_price).
func (b *Book) GetQuantityForPrice(price fixed.Price, side domain.Side) fixed.Quantity {
	b.mu.RLock()
	defer b.mu.RUnlock()
	l := b.ladderFor(side)
	total := fixed.Quantity{Precision: price.Precision}
	l.walk(func(lvl *priceLevel) bool {
		betterOrEqual := false
		if side == domain.Buy {
			betterOrEqual = lvl.price.Raw >= price.Raw
		} else {
			betterOrEqual = lvl.price.Raw <= price.Raw
		}
		if !betterOrEqual {
			return false
		}
		total = total.Add(lvl.totalQty())
		return true
	})
	return total
}

// GetAvgPxQtyForExposure walks the opposite side of `side` until the
// cumulative notional reaches `notional`, returning the VWAP achieved,
// the quantity consumed to get there, and the terminal price reached
// (spec.md §4.4 get_avg_px_qty_for_exposure).
func (b *Book) GetAvgPxQtyForExposure(notional int64, side domain.Side) (avgPx fixed.Price, qty fixed.Quantity, terminal fixed.Price) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	opp := b.ladderFor(side.Opposite())

	var cumNotional int64
	var cumQty int64
	var precision uint8
	opp.walk(func(lvl *priceLevel) bool {
		precision = lvl.price.Precision
		terminal = lvl.price
		avail := lvl.totalQty().Raw
		levelNotional := fixed.MulPriceRaw(lvl.price, fixed.Quantity{Raw: avail})
		if cumNotional+levelNotional >= notional {
			remainingNotional := notional - cumNotional
			var take int64
			if lvl.price.Raw != 0 {
				take = fixed.NotionalToQty(remainingNotional, lvl.price)
			}
			if take > avail {
				take = avail
			}
			cumQty += take
			cumNotional += fixed.MulPriceRaw(lvl.price, fixed.Quantity{Raw: take})
			return false
		}
		cumQty += avail
		cumNotional = cumNotional + levelNotional
		return true
	})
	qty = fixed.Quantity{Raw: cumQty, Precision: precision}
	if cumQty == 0 {
		return fixed.Price{}, qty, terminal
	}
	avgPx = fixed.PriceFromRaw(cumNotional/cumQty, precision)
	return avgPx, qty, terminal
}

// BidsAsMap / AsksAsMap return a depth-limited snapshot in priority
// order, each entry price -> aggregate quantity at that price.
func (b *Book) BidsAsMap(depth int) []PriceLevelView { return b.sideAsMap(b.bids, depth) }
func (b *Book) AsksAsMap(depth int) []PriceLevelView { return b.sideAsMap(b.asks, depth) }

type PriceLevelView struct {
	Price    fixed.Price
	Quantity fixed.Quantity
}

func (b *Book) sideAsMap(l *ladder, depth int) []PriceLevelView {
	b.mu.RLock()
	defer b.mu.RUnlock()
	levels := l.levels(depth)
	out := make([]PriceLevelView, 0, len(levels))
	for _, lvl := range levels {
		out = append(out, PriceLevelView{Price: lvl.price, Quantity: lvl.totalQty()})
	}
	return out
}
