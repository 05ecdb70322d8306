package orderbook

import (
	"sync"

	"github.com/abdoElHodaky/tradsys-core/internal/domain"
	"github.com/abdoElHodaky/tradsys-core/pkg/fixed"
	"github.com/abdoElHodaky/tradsys-core/pkg/ids"
)

// ownOrderEntry is one of our own live resting orders as tracked by
// OwnOrderBook, carrying enough to evaluate a status/time filter
// (spec.md §4.4 bids_filtered_as_map).
type ownOrderEntry struct {
	ClientOrderId ids.ClientOrderId
	Side          domain.Side
	Price         fixed.Price
	Quantity      fixed.Quantity
	Status        domain.OrderStatus
	TsAccepted    int64
}

// OwnOrderBook is a parallel ladder of our own orders, keyed by
// ClientOrderId, used to compute filtered (market-minus-own) views
// (spec.md §4.4 "OwnOrderBook").
type OwnOrderBook struct {
	mu      sync.RWMutex
	orders  map[ids.ClientOrderId]*ownOrderEntry
}

func NewOwnOrderBook() *OwnOrderBook {
	return &OwnOrderBook{orders: make(map[ids.ClientOrderId]*ownOrderEntry)}
}

func (o *OwnOrderBook) Upsert(order *domain.Order) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if order.Price == nil {
		delete(o.orders, order.ClientOrderId)
		return
	}
	o.orders[order.ClientOrderId] = &ownOrderEntry{
		ClientOrderId: order.ClientOrderId,
		Side:          order.Side,
		Price:         *order.Price,
		Quantity:      order.LeavesQty(),
		Status:        order.Status,
		TsAccepted:    order.TsAccepted,
	}
}

func (o *OwnOrderBook) Remove(id ids.ClientOrderId) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.orders, id)
}

// StatusFilter decides from its status alone whether an own order
// counts toward a filtered view. The accepted-time gate (spec.md §4.4:
// "only orders whose ts_accepted + accepted_buffer <= now are
// subtracted") is applied separately by FilteredQtyAt.
type StatusFilter func(status domain.OrderStatus) bool

func AllStatuses(domain.OrderStatus) bool { return true }

// FilteredQtyAt returns the total quantity of our own orders resting at
// exactly `price` on `side` that pass statusFilter and the accepted-
// buffer gate.
func (o *OwnOrderBook) FilteredQtyAt(side domain.Side, price fixed.Price, statusFilter StatusFilter, acceptedBufferNs int64, nowNs int64) fixed.Quantity {
	o.mu.RLock()
	defer o.mu.RUnlock()
	total := fixed.Quantity{Precision: price.Precision}
	for _, e := range o.orders {
		if e.Side != side || e.Price.Raw != price.Raw {
			continue
		}
		if statusFilter != nil && !statusFilter(e.Status) {
			continue
		}
		if acceptedBufferNs > 0 && e.TsAccepted+acceptedBufferNs > nowNs {
			continue
		}
		total = total.Add(e.Quantity)
	}
	return total
}

// BidsFilteredAsMap / AsksFilteredAsMap implement spec.md §4.4's
// filtered view: walk the market ladder top-down up to `depth` levels,
// subtract own-order quantity at each price per the filter, and drop
// any level whose net becomes <= 0.
func (b *Book) BidsFilteredAsMap(own *OwnOrderBook, depth int, statusFilter StatusFilter, acceptedBufferNs, nowNs int64) []PriceLevelView {
	return b.filteredAsMap(b.bids, domain.Buy, own, depth, statusFilter, acceptedBufferNs, nowNs)
}

func (b *Book) AsksFilteredAsMap(own *OwnOrderBook, depth int, statusFilter StatusFilter, acceptedBufferNs, nowNs int64) []PriceLevelView {
	return b.filteredAsMap(b.asks, domain.Sell, own, depth, statusFilter, acceptedBufferNs, nowNs)
}

func (b *Book) filteredAsMap(l *ladder, side domain.Side, own *OwnOrderBook, depth int, statusFilter StatusFilter, acceptedBufferNs, nowNs int64) []PriceLevelView {
	b.mu.RLock()
	levels := l.levels(depth)
	b.mu.RUnlock()

	out := make([]PriceLevelView, 0, len(levels))
	for _, lvl := range levels {
		net := lvl.totalQty()
		if own != nil {
			ownQty := own.FilteredQtyAt(side, lvl.price, statusFilter, acceptedBufferNs, nowNs)
			net = fixed.Quantity{Raw: net.Raw - ownQty.Raw, Precision: net.Precision}
		}
		if net.Raw <= 0 {
			continue
		}
		out = append(out, PriceLevelView{Price: lvl.price, Quantity: net})
	}
	return out
}
