package matchcore

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abdoElHodaky/tradsys-core/internal/domain"
	"github.com/abdoElHodaky/tradsys-core/internal/orderbook"
	"github.com/abdoElHodaky/tradsys-core/pkg/fixed"
	"github.com/abdoElHodaky/tradsys-core/pkg/ids"
)

func newTestCore() *Core {
	book := orderbook.New("BTCUSD.SIM", domain.BookL3_MBO, nil)
	return New("BTCUSD.SIM", book, nil)
}

func restingLimit(id ids.ClientOrderId, side domain.Side, px float64, qty float64) *RestingOrder {
	p := fixed.NewPrice(px, 2)
	return &RestingOrder{
		ClientOrderId: id, Side: side, Type: domain.OrderTypeLimit,
		Price: &p, Quantity: fixed.NewQuantity(qty, 0), TsAccepted: 1,
	}
}

func TestAttemptMatchFillsAgainstRestingLimit(t *testing.T) {
	c := newTestCore()
	c.AddResting(restingLimit("maker-1", domain.Sell, 100, 5))

	outcome := c.AttemptMatch(MatchRequest{
		ClientOrderId: "taker-1", Side: domain.Buy, Type: domain.OrderTypeMarket,
		Quantity: fixed.NewQuantity(3, 0), TimeInForce: domain.TIF_GTC,
	})

	assert.Len(t, outcome.Fills, 1)
	assert.Equal(t, ids.ClientOrderId("maker-1"), outcome.Fills[0].MakerClientOrderId)
	assert.Equal(t, int64(3_000_000_000), outcome.FilledQty.Raw)
	assert.Equal(t, int64(0), outcome.LeavesQty.Raw)

	r, ok := c.Resting("maker-1")
	assert.True(t, ok)
	assert.Equal(t, int64(3_000_000_000), r.FilledQty.Raw)
}

func TestAttemptMatchFullyConsumesMakerAndRemovesIt(t *testing.T) {
	c := newTestCore()
	c.AddResting(restingLimit("maker-1", domain.Sell, 100, 2))

	outcome := c.AttemptMatch(MatchRequest{
		ClientOrderId: "taker-1", Side: domain.Buy, Type: domain.OrderTypeMarket,
		Quantity: fixed.NewQuantity(2, 0), TimeInForce: domain.TIF_GTC,
	})

	assert.Equal(t, int64(0), outcome.LeavesQty.Raw)
	_, ok := c.Resting("maker-1")
	assert.False(t, ok)
}

func TestAttemptMatchIOCCancelsUnfilledRemainder(t *testing.T) {
	c := newTestCore()
	c.AddResting(restingLimit("maker-1", domain.Sell, 100, 1))

	outcome := c.AttemptMatch(MatchRequest{
		ClientOrderId: "taker-1", Side: domain.Buy, Type: domain.OrderTypeLimit,
		Quantity: fixed.NewQuantity(5, 0), TimeInForce: domain.TIF_IOC,
	})

	assert.Equal(t, int64(1_000_000_000), outcome.FilledQty.Raw)
	assert.True(t, outcome.Canceled)
}

func TestAttemptMatchFOKRejectsWhenInsufficientDepth(t *testing.T) {
	c := newTestCore()
	c.AddResting(restingLimit("maker-1", domain.Sell, 100, 1))

	outcome := c.AttemptMatch(MatchRequest{
		ClientOrderId: "taker-1", Side: domain.Buy, Type: domain.OrderTypeMarket,
		Quantity: fixed.NewQuantity(5, 0), TimeInForce: domain.TIF_FOK,
	})

	assert.Empty(t, outcome.Fills)
	assert.True(t, outcome.Canceled)

	r, ok := c.Resting("maker-1")
	assert.True(t, ok)
	assert.Equal(t, int64(0), r.FilledQty.Raw)
}

func TestAttemptMatchFOKFillsFullyWhenDepthSufficient(t *testing.T) {
	c := newTestCore()
	c.AddResting(restingLimit("maker-1", domain.Sell, 100, 5))

	outcome := c.AttemptMatch(MatchRequest{
		ClientOrderId: "taker-1", Side: domain.Buy, Type: domain.OrderTypeMarket,
		Quantity: fixed.NewQuantity(5, 0), TimeInForce: domain.TIF_FOK,
	})

	assert.False(t, outcome.Canceled)
	assert.Equal(t, int64(5_000_000_000), outcome.FilledQty.Raw)
}

func TestRemoveRestingClearsBookAndTriggerSet(t *testing.T) {
	c := newTestCore()
	c.AddResting(restingLimit("maker-1", domain.Sell, 100, 5))

	c.RemoveResting("maker-1")

	_, ok := c.Resting("maker-1")
	assert.False(t, ok)
	_, hasAsk := c.Book().BestAskPrice()
	assert.False(t, hasAsk)
}
