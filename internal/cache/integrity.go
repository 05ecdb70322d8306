package cache

import (
	"fmt"
)

// IntegrityReport is the structured result of CheckIntegrity: counts of
// mismatches found per index, plus the messages describing each one.
// The original_source `cache/mod.rs` keeps per-check counters for
// diagnostics; OK() gives the plain boolean the original spec calls
// for.
type IntegrityReport struct {
	Mismatches map[string]int
	Messages   []string
}

func (r *IntegrityReport) OK() bool { return len(r.Messages) == 0 }

func (r *IntegrityReport) fail(check, format string, args ...interface{}) {
	r.Mismatches[check]++
	r.Messages = append(r.Messages, fmt.Sprintf("[%s] %s", check, fmt.Sprintf(format, args...)))
}

// CheckIntegrity walks every map and every index and logs mismatches;
// it is a pure diagnostic and does not mutate the Cache (spec.md §4.1).
// Runs in O(N) over entities and index entries.
func (c *Cache) CheckIntegrity() *IntegrityReport {
	c.mu.RLock()
	defer c.mu.RUnlock()

	report := &IntegrityReport{Mismatches: make(map[string]int)}

	// I4: every ClientOrderId referenced by an index must exist in orders.
	for id := range c.idx.Orders {
		if _, ok := c.orders[id]; !ok {
			report.fail("I4", "order %s indexed but missing from entity map", id)
		}
	}
	for _, clientId := range c.idx.VenueOrderIdToClient {
		if _, ok := c.orders[clientId]; !ok {
			report.fail("I4", "venue-indexed order %s missing from entity map", clientId)
		}
	}

	// I5: every PositionId referenced by an index must exist in positions.
	for id := range c.idx.Positions {
		if _, ok := c.positions[id]; !ok {
			report.fail("I5", "position %s indexed but missing from entity map", id)
		}
	}

	// I6: position side/signed_qty agreement.
	for id, position := range c.positions {
		signOK := (position.Side == "LONG" && position.SignedQty > 0) ||
			(position.Side == "SHORT" && position.SignedQty < 0) ||
			(position.Side == "FLAT" && position.SignedQty == 0)
		if !signOK {
			report.fail("I6", "position %s side=%s signed_qty=%d disagree", id, position.Side, position.SignedQty)
		}
	}

	// I7: every open order belongs to exactly one strategy.
	for id := range c.idx.OrdersOpen {
		if _, ok := c.idx.OrderStrategy[id]; !ok {
			report.fail("I7", "open order %s has no strategy mapping", id)
		}
	}

	// I8: build_index() from entities must reproduce the live indices
	// bit-for-bit — compare membership set sizes as the cheap O(N) proxy.
	fresh := c.buildIndexLocked()
	if len(fresh.Orders) != len(c.idx.Orders) {
		report.fail("I8", "rebuilt order index size %d != live %d", len(fresh.Orders), len(c.idx.Orders))
	}
	if len(fresh.OrdersOpen) != len(c.idx.OrdersOpen) {
		report.fail("I8", "rebuilt orders_open size %d != live %d", len(fresh.OrdersOpen), len(c.idx.OrdersOpen))
	}
	if len(fresh.Positions) != len(c.idx.Positions) {
		report.fail("I8", "rebuilt position index size %d != live %d", len(fresh.Positions), len(c.idx.Positions))
	}

	// book integrity per instrument (I1/I2, delegated to orderbook.Book).
	for instrumentId, book := range c.books {
		if err := book.CheckIntegrity(); err != nil {
			report.fail("I1/I2", "book %s: %v", instrumentId, err)
		}
	}

	return report
}

// buildIndexLocked is BuildIndex's body, callable while c.mu is already
// held for reading (CheckIntegrity holds it; BuildIndex takes it itself).
func (c *Cache) buildIndexLocked() *Index {
	fresh := newIndex()
	for _, order := range c.orders {
		positionId := c.idx.OrderPosition[order.ClientOrderId]
		clientId := c.idx.OrderClient[order.ClientOrderId]
		fresh.onAddOrder(order, positionId, clientId)
		if vid, ok := c.idx.ClientToVenueOrderId[order.ClientOrderId]; ok {
			fresh.VenueOrderIdToClient[vid] = order.ClientOrderId
			fresh.ClientToVenueOrderId[order.ClientOrderId] = vid
		}
	}
	for _, position := range c.positions {
		fresh.onAddPosition(position)
	}
	return fresh
}
