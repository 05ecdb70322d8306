package bars

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abdoElHodaky/tradsys-core/internal/domain"
	"github.com/abdoElHodaky/tradsys-core/pkg/fixed"
)

func testBarType() domain.Type {
	return domain.BarType{
		InstrumentId: "BTCUSD.SIM",
		Spec:         domain.BarSpec{Step: 10, Aggregation: domain.AggTick, PriceType: domain.PriceLast},
		Source:       domain.SourceInternal,
	}
}

func TestBarBuilderTracksOHLCAcrossUpdates(t *testing.T) {
	b := NewBarBuilder(testBarType(), 2, 0)
	b.Update(fixed.NewPrice(100, 2), fixed.NewQuantity(1, 0), 1)
	b.Update(fixed.NewPrice(105, 2), fixed.NewQuantity(1, 0), 2)
	b.Update(fixed.NewPrice(98, 2), fixed.NewQuantity(1, 0), 3)
	b.Update(fixed.NewPrice(101, 2), fixed.NewQuantity(1, 0), 4)

	bar := b.Build(10, 10)

	assert.InDelta(t, 100.0, bar.Open.Float64(), 0.0001)
	assert.InDelta(t, 105.0, bar.High.Float64(), 0.0001)
	assert.InDelta(t, 98.0, bar.Low.Float64(), 0.0001)
	assert.InDelta(t, 101.0, bar.Close.Float64(), 0.0001)
	assert.InDelta(t, 4.0, bar.Volume.Float64(), 0.0001)
}

func TestBarBuilderIgnoresOutOfOrderUpdate(t *testing.T) {
	b := NewBarBuilder(testBarType(), 2, 0)
	b.Update(fixed.NewPrice(100, 2), fixed.NewQuantity(1, 0), 5)
	b.Update(fixed.NewPrice(200, 2), fixed.NewQuantity(1, 0), 3) // stale, ignored
	assert.Equal(t, int64(1), b.Count())

	bar := b.Build(10, 10)
	assert.InDelta(t, 100.0, bar.Close.Float64(), 0.0001)
}

func TestBarBuilderResetsAfterBuild(t *testing.T) {
	b := NewBarBuilder(testBarType(), 2, 0)
	b.Update(fixed.NewPrice(100, 2), fixed.NewQuantity(1, 0), 1)
	b.Build(10, 10)

	assert.False(t, b.Initialized())
	assert.Equal(t, int64(0), b.Count())
}

func TestBarBuilderEmitsFlatBarFromLastCloseWhenUninitialized(t *testing.T) {
	b := NewBarBuilder(testBarType(), 2, 0)
	b.Update(fixed.NewPrice(100, 2), fixed.NewQuantity(1, 0), 1)
	b.Build(10, 10)

	flat := b.Build(20, 20)

	assert.True(t, flat.Open.Equal(fixed.NewPrice(100, 2)))
	assert.True(t, flat.Close.Equal(fixed.NewPrice(100, 2)))
	assert.Equal(t, int64(0), flat.Volume.Raw)
}

func TestBarBuilderBuildBeforeAnyUpdateWithNoHistoryIsZeroBar(t *testing.T) {
	b := NewBarBuilder(testBarType(), 2, 0)
	bar := b.Build(1, 1)

	assert.Equal(t, int64(0), bar.Open.Raw)
	assert.Equal(t, int64(0), bar.Volume.Raw)
}
