package matchcore

import (
	"github.com/abdoElHodaky/tradsys-core/internal/domain"
	"github.com/abdoElHodaky/tradsys-core/pkg/fixed"
	"github.com/abdoElHodaky/tradsys-core/pkg/ids"
)

// MatchRequest describes an aggressor order attempting to cross the
// book (spec.md §4.5 "Matching").
type MatchRequest struct {
	ClientOrderId ids.ClientOrderId
	Side          domain.Side
	Type          domain.OrderType
	Limit         *fixed.Price // nil for Market / MarketToLimit
	Quantity      fixed.Quantity
	TimeInForce   domain.TimeInForce
	TsEvent       int64
}

// MatchOutcome is the result of attempting to match a MatchRequest.
type MatchOutcome struct {
	Fills       []Fill
	FilledQty   fixed.Quantity
	LeavesQty   fixed.Quantity
	Canceled    bool // IOC remainder canceled, or FOK rejected pre-match
}

// AttemptMatch runs one matching pass for an aggressor, honoring
// time-in-force (spec.md §4.5 "Time-in-force"). For L1 books lacking
// visible depth, the caller is expected to have already synthesized a
// single-level counterparty via Book.ApplyQuote before calling this
// (spec.md §4.5: "synthesize a single-level counterparty... used when
// only quote feed is available").
func (c *Core) AttemptMatch(req MatchRequest) MatchOutcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	if req.TimeInForce == domain.TIF_FOK {
		available := c.book.GetQuantityForPrice(effectiveFloor(req), req.Side.Opposite())
		if available.Raw < req.Quantity.Raw {
			return MatchOutcome{LeavesQty: req.Quantity, Canceled: true}
		}
	}

	bookFills, remaining := c.book.Match(req.Side, req.Quantity, req.Limit)

	var outcome MatchOutcome
	var filledRaw int64
	for _, bf := range bookFills {
		makerId := ids.ClientOrderId(bf.OrderId)
		outcome.Fills = append(outcome.Fills, Fill{
			TakerClientOrderId: req.ClientOrderId,
			MakerClientOrderId: makerId,
			Price:              bf.Price,
			Quantity:           bf.Quantity,
			TsEvent:            req.TsEvent,
		})
		filledRaw += bf.Quantity.Raw
		c.applyMakerFillLocked(makerId, bf.Quantity)
	}

	outcome.FilledQty = fixed.Quantity{Raw: filledRaw, Precision: req.Quantity.Precision}
	outcome.LeavesQty = remaining

	switch req.TimeInForce {
	case domain.TIF_IOC, domain.TIF_FOK:
		if remaining.Raw > 0 {
			outcome.Canceled = true
		}
	}
	return outcome
}

// applyMakerFillLocked updates a resting order's FilledQty after it
// was consumed as a maker in AttemptMatch; the order is removed from
// the resting set once fully filled.
func (c *Core) applyMakerFillLocked(id ids.ClientOrderId, qty fixed.Quantity) {
	r, ok := c.resting[id]
	if !ok {
		return
	}
	r.FilledQty = r.FilledQty.Add(qty)
	if r.leaves().Raw <= 0 {
		delete(c.resting, id)
	}
}

// effectiveFloor picks the price bound a FOK pre-check walks up to:
// the aggressor's limit if present, else an unbounded sentinel (a very
// large price for buys, zero for sells) so that every level on the
// opposite side counts.
func effectiveFloor(req MatchRequest) fixed.Price {
	if req.Limit != nil {
		return *req.Limit
	}
	if req.Side == domain.Buy {
		return fixed.PriceFromRaw(1<<62, 9)
	}
	return fixed.PriceFromRaw(0, 9)
}
