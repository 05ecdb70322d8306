package orderbook

import (
	"github.com/abdoElHodaky/tradsys-core/internal/domain"
	coreerrors "github.com/abdoElHodaky/tradsys-core/pkg/errors"
)

const maxL1Levels = 1

// CheckIntegrity validates invariants I1/I2 for this book (spec.md
// §4.4): no crossed book, and L1 books carry at most one level per
// side.
func (b *Book) CheckIntegrity() error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if ok, bid, ask := crossed(b.bids, b.asks); ok {
		return coreerrors.Newf(coreerrors.KindBookIntegrity, "orders crossed: bid=%s ask=%s", bid, ask).
			WithDetail("bid", bid.String()).WithDetail("ask", ask.String())
	}

	if b.BookType == "" {
		return nil
	}
	if b.BookType == domain.BookL1_MBP {
		if b.bids.len() > maxL1Levels {
			return coreerrors.Newf(coreerrors.KindBookIntegrity, "too many bid levels for L1 book: %d", b.bids.len())
		}
		if b.asks.len() > maxL1Levels {
			return coreerrors.Newf(coreerrors.KindBookIntegrity, "too many ask levels for L1 book: %d", b.asks.len())
		}
	}
	return nil
}
