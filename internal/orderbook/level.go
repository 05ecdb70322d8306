// Package orderbook implements the per-instrument two-sided price ladder
// (spec.md §4.4, C4): L1/L2/L3 semantics, integrity checks, and the
// "own orders" filtered view. Grounded on the teacher's heap-based
// internal/core/matching/order_book.go for the overall shape (mutex-
// guarded ladder, zap logging, price-time priority) but the ladder
// itself is rebuilt over github.com/google/btree (per spec.md §9 "Arena
// + index pattern... ordered map rather than pointer-linked structures")
// instead of container/heap, since the book needs ordered iteration by
// price for VWAP/depth walks, not just a single best-of extraction.
package orderbook

import (
	"github.com/abdoElHodaky/tradsys-core/internal/domain"
	"github.com/abdoElHodaky/tradsys-core/pkg/fixed"
)

// priceLevel is one rung of the ladder: a price plus the orders resting
// there in insertion order (price-time priority, invariant I1).
type priceLevel struct {
	price  fixed.Price
	orders []domain.BookOrder
}

func (l *priceLevel) totalQty() fixed.Quantity {
	total := fixed.Quantity{Precision: l.price.Precision}
	for _, o := range l.orders {
		total = total.Add(o.Quantity)
	}
	return total
}

// indexOf finds an order by id within the level, or -1.
func (l *priceLevel) indexOf(orderId string) int {
	for i, o := range l.orders {
		if o.OrderId == orderId {
			return i
		}
	}
	return -1
}
