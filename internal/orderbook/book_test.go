package orderbook

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abdoElHodaky/tradsys-core/internal/domain"
	"github.com/abdoElHodaky/tradsys-core/pkg/fixed"
)

func newTestBook(bookType domain.BookType) *Book {
	return New("BTCUSD.SIM", bookType, nil)
}

func TestBookL3AddPreservesOrderIdentity(t *testing.T) {
	b := newTestBook(domain.BookL3_MBO)

	_ = b.Add(domain.BookOrder{Side: domain.Buy, Price: fixed.NewPrice(100, 2), Quantity: fixed.NewQuantity(1, 0), OrderId: "o1"}, 1, 1)
	_ = b.Add(domain.BookOrder{Side: domain.Buy, Price: fixed.NewPrice(100, 2), Quantity: fixed.NewQuantity(2, 0), OrderId: "o2"}, 2, 2)

	bid, ok := b.BestBidPrice()
	assert.True(t, ok)
	assert.True(t, bid.Equal(fixed.NewPrice(100, 2)))

	qty := b.GetQuantityForPrice(fixed.NewPrice(100, 2), domain.Buy)
	assert.Equal(t, int64(3_000_000_000), qty.Raw)
}

func TestBookL1ReplacesSingleLevel(t *testing.T) {
	b := newTestBook(domain.BookL1_MBP)

	_ = b.Add(domain.BookOrder{Side: domain.Buy, Price: fixed.NewPrice(100, 2), Quantity: fixed.NewQuantity(1, 0), OrderId: "a"}, 1, 1)
	_ = b.Add(domain.BookOrder{Side: domain.Buy, Price: fixed.NewPrice(101, 2), Quantity: fixed.NewQuantity(1, 0), OrderId: "b"}, 2, 2)

	bid, ok := b.BestBidPrice()
	assert.True(t, ok)
	assert.True(t, bid.Equal(fixed.NewPrice(101, 2)))
}

func TestBookL2AggregatesAtLevel(t *testing.T) {
	b := newTestBook(domain.BookL2_MBP)

	_ = b.Add(domain.BookOrder{Side: domain.Sell, Price: fixed.NewPrice(105, 2), Quantity: fixed.NewQuantity(2, 0), OrderId: "agg"}, 1, 1)
	_ = b.Add(domain.BookOrder{Side: domain.Sell, Price: fixed.NewPrice(105, 2), Quantity: fixed.NewQuantity(3, 0), OrderId: "agg"}, 2, 2)

	qty := b.GetQuantityForPrice(fixed.NewPrice(105, 2), domain.Sell)
	assert.Equal(t, int64(5_000_000_000), qty.Raw)
}

func TestBookDeleteRemovesOrderAndEmptyLevel(t *testing.T) {
	b := newTestBook(domain.BookL3_MBO)
	px := fixed.NewPrice(100, 2)
	_ = b.Add(domain.BookOrder{Side: domain.Buy, Price: px, Quantity: fixed.NewQuantity(1, 0), OrderId: "o1"}, 1, 1)

	err := b.Delete(domain.Buy, px, "o1")
	assert.NoError(t, err)

	_, ok := b.BestBidPrice()
	assert.False(t, ok)
}

func TestBookDeleteUnknownOrderReturnsNotFound(t *testing.T) {
	b := newTestBook(domain.BookL3_MBO)
	px := fixed.NewPrice(100, 2)
	_ = b.Add(domain.BookOrder{Side: domain.Buy, Price: px, Quantity: fixed.NewQuantity(1, 0), OrderId: "o1"}, 1, 1)

	err := b.Delete(domain.Buy, px, "missing")
	assert.Error(t, err)
}

func TestBookSpreadAndMidpoint(t *testing.T) {
	b := newTestBook(domain.BookL1_MBP)
	_ = b.Add(domain.BookOrder{Side: domain.Buy, Price: fixed.NewPrice(99, 2), Quantity: fixed.NewQuantity(1, 0), OrderId: "bid"}, 1, 1)
	_ = b.Add(domain.BookOrder{Side: domain.Sell, Price: fixed.NewPrice(101, 2), Quantity: fixed.NewQuantity(1, 0), OrderId: "ask"}, 2, 2)

	spread, ok := b.Spread()
	assert.True(t, ok)
	assert.Equal(t, int64(2_000_000_000), spread)

	mid, ok := b.Midpoint()
	assert.True(t, ok)
	assert.InDelta(t, 100.0, mid.Float64(), 0.0001)
}

func TestGetAvgPxForQuantityWalksMultipleLevels(t *testing.T) {
	b := newTestBook(domain.BookL3_MBO)
	// two ask levels: 1@100, 1@101 - a buyer's taker walk consumes both.
	_ = b.Add(domain.BookOrder{Side: domain.Sell, Price: fixed.NewPrice(100, 2), Quantity: fixed.NewQuantity(1, 0), OrderId: "a1"}, 1, 1)
	_ = b.Add(domain.BookOrder{Side: domain.Sell, Price: fixed.NewPrice(101, 2), Quantity: fixed.NewQuantity(1, 0), OrderId: "a2"}, 2, 2)

	avg, ok := b.GetAvgPxForQuantity(fixed.NewQuantity(2, 0), domain.Buy)
	assert.True(t, ok)
	assert.InDelta(t, 100.5, avg.Float64(), 0.0001)
}

func TestGetAvgPxForQuantityInsufficientDepthStillAveragesConsumed(t *testing.T) {
	b := newTestBook(domain.BookL3_MBO)
	_ = b.Add(domain.BookOrder{Side: domain.Sell, Price: fixed.NewPrice(100, 2), Quantity: fixed.NewQuantity(1, 0), OrderId: "a1"}, 1, 1)

	avg, ok := b.GetAvgPxForQuantity(fixed.NewQuantity(5, 0), domain.Buy)
	assert.True(t, ok)
	assert.InDelta(t, 100.0, avg.Float64(), 0.0001)
}

func TestGetAvgPxForQuantityEmptyBookReturnsFalse(t *testing.T) {
	b := newTestBook(domain.BookL3_MBO)
	_, ok := b.GetAvgPxForQuantity(fixed.NewQuantity(1, 0), domain.Buy)
	assert.False(t, ok)
}

func TestApplyQuoteSynthesizesL1Book(t *testing.T) {
	b := newTestBook(domain.BookL1_MBP)
	b.ApplyQuote(domain.QuoteTick{
		BidPrice: fixed.NewPrice(99, 2),
		AskPrice: fixed.NewPrice(101, 2),
		BidSize:  fixed.NewQuantity(1, 0),
		AskSize:  fixed.NewQuantity(1, 0),
		TsEvent:  1,
	})

	bid, ok := b.BestBidPrice()
	assert.True(t, ok)
	assert.True(t, bid.Equal(fixed.NewPrice(99, 2)))

	ask, ok := b.BestAskPrice()
	assert.True(t, ok)
	assert.True(t, ask.Equal(fixed.NewPrice(101, 2)))
}
