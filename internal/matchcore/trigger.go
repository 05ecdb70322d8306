package matchcore

import (
	"github.com/abdoElHodaky/tradsys-core/internal/domain"
	"github.com/abdoElHodaky/tradsys-core/pkg/fixed"
)

// evaluateTriggersLocked walks the resting set and returns every order
// whose trigger condition now holds, recomputing trailing stops first
// (spec.md §4.5 Triggering rules table). Caller must hold c.mu.
func (c *Core) evaluateTriggersLocked() []*RestingOrder {
	var fired []*RestingOrder
	for _, r := range c.resting {
		if r.Triggered || !r.Type.IsStopFamily() {
			continue
		}
		if r.Type == domain.OrderTypeTrailingStopMarket || r.Type == domain.OrderTypeTrailingStopLimit {
			c.recalcTrailingLocked(r)
		}
		if c.conditionHoldsLocked(r) {
			r.Triggered = true
			fired = append(fired, r)
		}
	}
	return fired
}

// conditionHoldsLocked implements the trigger-condition column of
// spec.md §4.5's table.
func (c *Core) conditionHoldsLocked(r *RestingOrder) bool {
	if r.TriggerPrice == nil {
		return false
	}
	trigger := r.TriggerPrice.Raw

	switch r.Type {
	case domain.OrderTypeStopMarket, domain.OrderTypeStopLimit, domain.OrderTypeTrailingStopMarket, domain.OrderTypeTrailingStopLimit:
		if r.Side == domain.Buy {
			return c.isAskInitialized && c.ask.Raw >= trigger
		}
		return c.isBidInitialized && c.bid.Raw <= trigger
	case domain.OrderTypeMarketIfTouched, domain.OrderTypeLimitIfTouched:
		if r.Side == domain.Buy {
			return c.isAskInitialized && c.ask.Raw <= trigger
		}
		return c.isBidInitialized && c.bid.Raw >= trigger
	default:
		return false
	}
}

// recalcTrailingLocked recomputes a trailing stop's trigger price as
// (reference ± offset); the trigger never moves adversely to the
// order's side (spec.md §4.5 TrailingStopMarket/Limit row).
func (c *Core) recalcTrailingLocked(r *RestingOrder) {
	var reference fixed.Price
	switch {
	case r.Side == domain.Sell && c.isBidInitialized:
		reference = c.bid
	case r.Side == domain.Buy && c.isAskInitialized:
		reference = c.ask
	default:
		return
	}

	offsetRaw := trailingOffsetRaw(r, reference)
	var candidate int64
	if r.Side == domain.Sell {
		// sell-side trailing stop trails *below* the reference as it
		// rises; the trigger only ever moves up, never down.
		candidate = reference.Raw - offsetRaw
		if r.TriggerPrice == nil || candidate > r.TriggerPrice.Raw {
			px := fixed.PriceFromRaw(candidate, reference.Precision)
			r.TriggerPrice = &px
		}
	} else {
		candidate = reference.Raw + offsetRaw
		if r.TriggerPrice == nil || candidate < r.TriggerPrice.Raw {
			px := fixed.PriceFromRaw(candidate, reference.Precision)
			r.TriggerPrice = &px
		}
	}
}

// trailingOffsetRaw converts the order's trailing_offset into raw
// price units according to trailing_offset_type. Ticks and PriceTier
// require an instrument's price_increment to resolve properly; this
// core (which is instrument-agnostic beyond precision) treats both the
// same as a direct price offset, matching Price — a documented
// simplification (see DESIGN.md).
func trailingOffsetRaw(r *RestingOrder, reference fixed.Price) int64 {
	switch r.TrailingOffsetType {
	case domain.TrailingOffsetBasisPoints:
		return int64(float64(reference.Raw) * r.TrailingOffset / 10000.0)
	default: // Price, Ticks, PriceTier
		return fixed.NewPrice(r.TrailingOffset, reference.Precision).Raw
	}
}
