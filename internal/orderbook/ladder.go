package orderbook

import (
	"github.com/google/btree"

	"github.com/abdoElHodaky/tradsys-core/pkg/fixed"
)

// ladder is one side (bid or ask) of the book: a B-tree of priceLevel
// keyed by raw price, ordered so Min() always yields the best price for
// that side (descending raw for bids, ascending raw for asks).
type ladder struct {
	tree *btree.BTreeG[*priceLevel]
	side bidAsk
}

type bidAsk int

const (
	bidSide bidAsk = iota
	askSide
)

const ladderDegree = 32

func newLadder(side bidAsk) *ladder {
	var less btree.LessFunc[*priceLevel]
	if side == bidSide {
		less = func(a, b *priceLevel) bool { return a.price.Raw > b.price.Raw } // descending
	} else {
		less = func(a, b *priceLevel) bool { return a.price.Raw < b.price.Raw } // ascending
	}
	return &ladder{tree: btree.NewG(ladderDegree, less), side: side}
}

// levelAt returns the level at price, creating it if create is true.
func (l *ladder) levelAt(price fixed.Price, create bool) (*priceLevel, bool) {
	probe := &priceLevel{price: price}
	if existing, ok := l.tree.Get(probe); ok {
		return existing, true
	}
	if !create {
		return nil, false
	}
	l.tree.ReplaceOrInsert(probe)
	return probe, false
}

// removeLevel deletes the level at price entirely (used once its last
// order is removed).
func (l *ladder) removeLevel(price fixed.Price) {
	l.tree.Delete(&priceLevel{price: price})
}

// best returns the best (first, per the tree's ordering) level, or nil.
func (l *ladder) best() *priceLevel {
	lvl, ok := l.tree.Min()
	if !ok {
		return nil
	}
	return lvl
}

// levels returns up to depth levels in priority order (depth<=0 = all).
func (l *ladder) levels(depth int) []*priceLevel {
	out := make([]*priceLevel, 0, l.tree.Len())
	l.tree.Ascend(func(lvl *priceLevel) bool {
		out = append(out, lvl)
		if depth > 0 && len(out) >= depth {
			return false
		}
		return true
	})
	return out
}

func (l *ladder) len() int { return l.tree.Len() }

// walk iterates levels in priority order, calling fn until it returns
// false or levels are exhausted. Used by VWAP and depth-consuming walks
// (spec.md §4.4 get_avg_px_for_quantity / get_quantity_for_price).
func (l *ladder) walk(fn func(lvl *priceLevel) bool) {
	l.tree.Ascend(func(lvl *priceLevel) bool { return fn(lvl) })
}

// crossed reports whether this ladder's best price crosses against the
// opposite ladder's best price (invariant I2: best_bid < best_ask).
func crossed(bids, asks *ladder) (bool, fixed.Price, fixed.Price) {
	b, a := bids.best(), asks.best()
	if b == nil || a == nil {
		return false, fixed.Price{}, fixed.Price{}
	}
	return b.price.Raw >= a.price.Raw, b.price, a.price
}
