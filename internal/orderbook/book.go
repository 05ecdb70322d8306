package orderbook

import (
	"sync"

	"go.uber.org/zap"

	"github.com/abdoElHodaky/tradsys-core/internal/domain"
	coreerrors "github.com/abdoElHodaky/tradsys-core/pkg/errors"
	"github.com/abdoElHodaky/tradsys-core/pkg/fixed"
	"github.com/abdoElHodaky/tradsys-core/pkg/ids"
)

// Book is the per-instrument order book (spec.md §4.4).
type Book struct {
	mu           sync.RWMutex
	InstrumentId ids.InstrumentId
	BookType     domain.BookType
	bids         *ladder
	asks         *ladder
	sequence     uint64
	lastTs       int64
	log          *zap.Logger
}

func New(instrument ids.InstrumentId, bookType domain.BookType, log *zap.Logger) *Book {
	if log == nil {
		log = zap.NewNop()
	}
	return &Book{
		InstrumentId: instrument,
		BookType:     bookType,
		bids:         newLadder(bidSide),
		asks:         newLadder(askSide),
		log:          log,
	}
}

func (b *Book) ladderFor(side domain.Side) *ladder {
	if side == domain.Buy {
		return b.bids
	}
	return b.asks
}

// Add inserts order into the book, honoring book-type semantics
// (spec.md §4.4): L1 replaces the side's single level, L2 aggregates
// into the price level (no per-order identity), L3 preserves identity.
func (b *Book) Add(order domain.BookOrder, sequence uint64, ts int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sequence = sequence
	b.lastTs = ts

	l := b.ladderFor(order.Side)

	switch b.BookType {
	case domain.BookL1_MBP:
		// at most one level per side: clear then set.
		b.clearLadderLocked(l)
		lvl, _ := l.levelAt(order.Price, true)
		lvl.orders = append(lvl.orders, order)
	case domain.BookL2_MBP:
		lvl, existed := l.levelAt(order.Price, true)
		if existed && len(lvl.orders) > 0 {
			lvl.orders[0].Quantity = lvl.orders[0].Quantity.Add(order.Quantity)
		} else {
			lvl.orders = []domain.BookOrder{order}
		}
	case domain.BookL3_MBO:
		lvl, _ := l.levelAt(order.Price, true)
		lvl.orders = append(lvl.orders, order)
	}
	return nil
}

// Update moves an order to a new price (delete+add, spec.md §4.4: "price
// move = delete+add at new level") or adjusts its quantity in place if
// the price is unchanged.
func (b *Book) Update(order domain.BookOrder) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	l := b.ladderFor(order.Side)

	// find existing level/order by scanning (L3) — L1/L2 don't track
	// per-order identity, so there Update sets the level: L1 replaces the
	// side's single level, L2 replaces the level's quantity (Add sums it).
	if b.BookType == domain.BookL3_MBO {
		found := false
		l.walk(func(lvl *priceLevel) bool {
			if idx := lvl.indexOf(order.OrderId); idx >= 0 {
				found = true
				if lvl.price.Raw == order.Price.Raw {
					lvl.orders[idx].Quantity = order.Quantity
				} else {
					lvl.orders = append(lvl.orders[:idx], lvl.orders[idx+1:]...)
					if len(lvl.orders) == 0 {
						l.removeLevel(lvl.price)
					}
					newLvl, _ := l.levelAt(order.Price, true)
					newLvl.orders = append(newLvl.orders, order)
				}
				return false
			}
			return true
		})
		if found {
			return nil
		}
	}
	return b.addLocked(l, order)
}

func (b *Book) addLocked(l *ladder, order domain.BookOrder) error {
	switch b.BookType {
	case domain.BookL1_MBP:
		b.clearLadderLocked(l)
		lvl, _ := l.levelAt(order.Price, true)
		lvl.orders = append(lvl.orders, order)
	case domain.BookL2_MBP:
		lvl, existed := l.levelAt(order.Price, true)
		if existed && len(lvl.orders) > 0 {
			lvl.orders[0] = order
		} else {
			lvl.orders = []domain.BookOrder{order}
		}
	default:
		lvl, _ := l.levelAt(order.Price, true)
		lvl.orders = append(lvl.orders, order)
	}
	return nil
}

// Delete removes orderId (by side, price) from the book.
func (b *Book) Delete(side domain.Side, price fixed.Price, orderId string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	l := b.ladderFor(side)
	lvl, ok := l.levelAt(price, false)
	if !ok {
		return coreerrors.Newf(coreerrors.KindNotFound, "no level at %s for delete of %s", price, orderId)
	}
	idx := lvl.indexOf(orderId)
	if idx < 0 {
		return coreerrors.Newf(coreerrors.KindNotFound, "order %s not found at %s", orderId, price)
	}
	lvl.orders = append(lvl.orders[:idx], lvl.orders[idx+1:]...)
	if len(lvl.orders) == 0 {
		l.removeLevel(price)
	}
	return nil
}

// ClearSide removes every level on the given side.
func (b *Book) ClearSide(side domain.Side) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clearLadderLocked(b.ladderFor(side))
}

func (b *Book) clearLadderLocked(l *ladder) {
	for _, lvl := range l.levels(0) {
		l.removeLevel(lvl.price)
	}
}

// ClearAll empties both sides.
func (b *Book) ClearAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clearLadderLocked(b.bids)
	b.clearLadderLocked(b.asks)
}

// Apply applies one incremental delta (spec.md §4.4 apply(delta)).
func (b *Book) Apply(delta domain.OrderBookDelta) error {
	switch delta.Action {
	case domain.BookActionAdd:
		return b.Add(delta.Order, delta.Sequence, delta.TsEvent)
	case domain.BookActionUpdate:
		return b.Update(delta.Order)
	case domain.BookActionDelete:
		return b.Delete(delta.Order.Side, delta.Order.Price, delta.Order.OrderId)
	case domain.BookActionClear:
		b.ClearAll()
		return nil
	default:
		return coreerrors.Newf(coreerrors.KindInvalidState, "unknown book action %q", delta.Action)
	}
}

// ApplyQuote refreshes an L1 book from a top-of-book quote tick —
// the path used when only a quote feed (not L2 deltas) is available
// (spec.md §4.5 "synthesize a single-level counterparty").
func (b *Book) ApplyQuote(q domain.QuoteTick) {
	_ = b.Add(domain.BookOrder{Side: domain.Buy, Price: q.BidPrice, Quantity: q.BidSize, OrderId: "quote-bid"}, b.sequence+1, q.TsEvent)
	_ = b.Add(domain.BookOrder{Side: domain.Sell, Price: q.AskPrice, Quantity: q.AskSize, OrderId: "quote-ask"}, b.sequence+1, q.TsEvent)
}
