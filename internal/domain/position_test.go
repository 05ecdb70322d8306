package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abdoElHodaky/tradsys-core/pkg/fixed"
)

func newTestPosition() *Position {
	usd := fixed.Currency{Code: "USD", Precision: 2}
	multiplier := fixed.NewQuantity(1, 0)
	return NewPosition("pos-1", "BTCUSD.SIM", "strat-1", "acct-1", multiplier, usd)
}

func TestPositionOpensFromFlat(t *testing.T) {
	p := newTestPosition()
	px := fixed.NewPrice(100, 2)
	qty := fixed.NewQuantity(2, 0)

	p.ApplyFill(Fill{Side: Buy, Price: px, Qty: qty, TsEvent: 1})

	assert.Equal(t, PositionLong, p.Side)
	assert.Equal(t, int64(2_000_000_000), p.SignedQty)
	assert.True(t, p.AvgPxOpen.Equal(px))
	assert.True(t, p.IsOpen())
}

func TestPositionIncreaseComputesVWAP(t *testing.T) {
	p := newTestPosition()
	p.ApplyFill(Fill{Side: Buy, Price: fixed.NewPrice(100, 2), Qty: fixed.NewQuantity(1, 0), TsEvent: 1})
	p.ApplyFill(Fill{Side: Buy, Price: fixed.NewPrice(110, 2), Qty: fixed.NewQuantity(1, 0), TsEvent: 2})

	assert.Equal(t, int64(2_000_000_000), p.SignedQty)
	assert.InDelta(t, 105.0, p.AvgPxOpen.Float64(), 0.0001)
}

func TestPositionPartialReduceKeepsAvgPxOpen(t *testing.T) {
	p := newTestPosition()
	p.ApplyFill(Fill{Side: Buy, Price: fixed.NewPrice(100, 2), Qty: fixed.NewQuantity(3, 0), TsEvent: 1})
	p.ApplyFill(Fill{Side: Sell, Price: fixed.NewPrice(110, 2), Qty: fixed.NewQuantity(1, 0), TsEvent: 2})

	assert.Equal(t, int64(2_000_000_000), p.SignedQty)
	assert.InDelta(t, 100.0, p.AvgPxOpen.Float64(), 0.0001)
	assert.False(t, p.RealizedPnl.IsZero())
	assert.True(t, p.RealizedPnl.Float64() > 0)
}

func TestPositionFlipThroughFlatReopensOnOtherSide(t *testing.T) {
	p := newTestPosition()
	p.ApplyFill(Fill{Side: Buy, Price: fixed.NewPrice(100, 2), Qty: fixed.NewQuantity(1, 0), TsEvent: 1})
	p.ApplyFill(Fill{Side: Sell, Price: fixed.NewPrice(120, 2), Qty: fixed.NewQuantity(3, 0), TsEvent: 2})

	assert.Equal(t, PositionShort, p.Side)
	assert.Equal(t, int64(-2_000_000_000), p.SignedQty)
	assert.InDelta(t, 120.0, p.AvgPxOpen.Float64(), 0.0001)
	assert.True(t, p.RealizedPnl.Float64() > 0) // closed the long at a gain
}

func TestPositionClosingToFlatSetsTsClosed(t *testing.T) {
	p := newTestPosition()
	p.ApplyFill(Fill{Side: Buy, Price: fixed.NewPrice(100, 2), Qty: fixed.NewQuantity(1, 0), TsEvent: 1})
	p.ApplyFill(Fill{Side: Sell, Price: fixed.NewPrice(90, 2), Qty: fixed.NewQuantity(1, 0), TsEvent: 5})

	assert.Equal(t, PositionFlat, p.Side)
	assert.Equal(t, int64(5), p.TsClosed)
	assert.True(t, p.IsClosed())
	assert.True(t, p.RealizedPnl.Float64() < 0) // closed the long at a loss
}
