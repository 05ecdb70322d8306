// Package matchcore implements the Matching Core (C5): single-
// instrument deterministic matching of resting orders against the
// top-of-book and against incoming aggressors (spec.md §4.5). Grounded
// on the teacher's internal/orders/matching engine — same zap-logged,
// mutex-guarded per-instrument core and trade-emission idiom — rebuilt
// on internal/orderbook's btree ladders and pkg/fixed arithmetic
// instead of a heap-based float64 book.
package matchcore

import (
	"sync"

	"go.uber.org/zap"

	"github.com/abdoElHodaky/tradsys-core/internal/domain"
	"github.com/abdoElHodaky/tradsys-core/internal/orderbook"
	"github.com/abdoElHodaky/tradsys-core/pkg/fixed"
	"github.com/abdoElHodaky/tradsys-core/pkg/ids"
)

// Fill is one match produced by the core: the aggressor side and the
// resting counterparty, at the resting order's price.
type Fill struct {
	TakerClientOrderId  ids.ClientOrderId
	MakerClientOrderId  ids.ClientOrderId
	Price               fixed.Price
	Quantity            fixed.Quantity
	TsEvent             int64
}

// RestingOrder is the matching core's own view of a resting limit or
// triggered stop order — enough to match and to re-evaluate triggers.
type RestingOrder struct {
	ClientOrderId      ids.ClientOrderId
	Side               domain.Side
	Type               domain.OrderType
	Price              *fixed.Price // resting limit price, once known
	TriggerPrice       *fixed.Price
	TriggerType        domain.TriggerType
	TrailingOffset     float64
	TrailingOffsetType domain.TrailingOffsetType
	Quantity           fixed.Quantity
	FilledQty          fixed.Quantity
	Triggered          bool
	TsAccepted         int64
	Sequence           uint64
}

func (r *RestingOrder) leaves() fixed.Quantity {
	return fixed.Quantity{Raw: r.Quantity.Raw - r.FilledQty.Raw, Precision: r.Quantity.Precision}
}

// Core is the single-instrument matching core: a Book plus the
// internal ladders of our resting limit/stop orders, and bid/ask/last
// references for trigger evaluation (spec.md §4.5).
type Core struct {
	mu sync.Mutex

	InstrumentId ids.InstrumentId
	book         *orderbook.Book

	bid, ask, last       fixed.Price
	isBidInitialized     bool
	isAskInitialized     bool

	resting  map[ids.ClientOrderId]*RestingOrder
	sequence uint64

	log *zap.Logger
}

func New(instrumentId ids.InstrumentId, book *orderbook.Book, log *zap.Logger) *Core {
	if log == nil {
		log = zap.NewNop()
	}
	return &Core{
		InstrumentId: instrumentId,
		book:         book,
		resting:      make(map[ids.ClientOrderId]*RestingOrder),
		log:          log,
	}
}

// OnQuote updates bid/ask references and the underlying book, then
// re-evaluates every resting trigger (spec.md §4.5: "On an incoming
// market feed update ... after updating the book, iterate triggered
// orders").
func (c *Core) OnQuote(q domain.QuoteTick) []*RestingOrder {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bid, c.isBidInitialized = q.BidPrice, true
	c.ask, c.isAskInitialized = q.AskPrice, true
	c.book.ApplyQuote(q)
	return c.evaluateTriggersLocked()
}

// OnTrade updates the last-trade reference and re-evaluates every
// resting trigger. Trigger conditions compare against the bid/ask
// references only; the last-trade price and TriggerType are not read.
func (c *Core) OnTrade(t domain.TradeTick) []*RestingOrder {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = t.Price
	return c.evaluateTriggersLocked()
}

// OnBookDelta applies an incremental book update and re-evaluates
// triggers (best bid/ask may have moved without a quote tick).
func (c *Core) OnBookDelta(delta domain.OrderBookDelta) ([]*RestingOrder, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.book.Apply(delta); err != nil {
		return nil, err
	}
	if bid, ok := c.book.BestBidPrice(); ok {
		c.bid, c.isBidInitialized = bid, true
	}
	if ask, ok := c.book.BestAskPrice(); ok {
		c.ask, c.isAskInitialized = ask, true
	}
	return c.evaluateTriggersLocked(), nil
}

// AddResting registers a resting order in the matching core (limit
// orders go straight to the book side; stop-family orders join the
// trigger watch set — the caller is the Matching Engine, which decides
// which on admission per spec.md §4.6).
func (c *Core) AddResting(r *RestingOrder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sequence++
	r.Sequence = c.sequence
	c.resting[r.ClientOrderId] = r
	if r.Price != nil && !r.Type.IsStopFamily() {
		c.book.Add(domain.BookOrder{
			Side: r.Side, Price: *r.Price, Quantity: r.leaves(),
			OrderId: string(r.ClientOrderId), Seq: r.Sequence,
		}, c.sequence, r.TsAccepted)
	}
}

// RemoveResting removes an order from both the trigger watch set and
// the book (cancel, expire, or full fill).
func (c *Core) RemoveResting(id ids.ClientOrderId) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.resting[id]
	if !ok {
		return
	}
	if r.Price != nil {
		_ = c.book.Delete(r.Side, *r.Price, string(id))
	}
	delete(c.resting, id)
}

func (c *Core) Resting(id ids.ClientOrderId) (*RestingOrder, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.resting[id]
	return r, ok
}

func (c *Core) Book() *orderbook.Book { return c.book }
