package orderbook

import (
	"github.com/abdoElHodaky/tradsys-core/internal/domain"
	"github.com/abdoElHodaky/tradsys-core/pkg/fixed"
)

// MatchFill is one resting order consumed during Match.
type MatchFill struct {
	OrderId  string
	Price    fixed.Price
	Quantity fixed.Quantity
}

// Match consumes liquidity from the opposite side of `side`, in
// price-time priority (spec.md §4.4/§4.5: "per resting order, fill =
// min(leaves_taker, leaves_resting) at resting.price"). If limit is
// non-nil, stops before crossing a level that fails the taker's limit.
// Returns the fills produced and the quantity still unfilled.
func (b *Book) Match(side domain.Side, qty fixed.Quantity, limit *fixed.Price) (fills []MatchFill, remaining fixed.Quantity) {
	b.mu.Lock()
	defer b.mu.Unlock()

	opp := b.ladderFor(side.Opposite())
	remainingRaw := qty.Raw

	var exhaustedLevels []fixed.Price
	opp.walk(func(lvl *priceLevel) bool {
		if remainingRaw <= 0 {
			return false
		}
		if limit != nil {
			failsLimit := false
			if side == domain.Buy {
				failsLimit = lvl.price.Raw > limit.Raw
			} else {
				failsLimit = lvl.price.Raw < limit.Raw
			}
			if failsLimit {
				return false
			}
		}

		i := 0
		for i < len(lvl.orders) && remainingRaw > 0 {
			o := &lvl.orders[i]
			take := o.Quantity.Raw
			if take > remainingRaw {
				take = remainingRaw
			}
			fills = append(fills, MatchFill{OrderId: o.OrderId, Price: lvl.price, Quantity: fixed.Quantity{Raw: take, Precision: o.Quantity.Precision}})
			o.Quantity.Raw -= take
			remainingRaw -= take
			if o.Quantity.Raw == 0 {
				lvl.orders = append(lvl.orders[:i], lvl.orders[i+1:]...)
				continue // don't advance i, next order shifted into position i
			}
			i++
		}
		if len(lvl.orders) == 0 {
			exhaustedLevels = append(exhaustedLevels, lvl.price)
		}
		return remainingRaw > 0
	})

	for _, price := range exhaustedLevels {
		opp.removeLevel(price)
	}

	return fills, fixed.Quantity{Raw: remainingRaw, Precision: qty.Precision}
}
