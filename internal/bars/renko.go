package bars

import (
	"go.uber.org/zap"

	"github.com/abdoElHodaky/tradsys-core/internal/domain"
	"github.com/abdoElHodaky/tradsys-core/pkg/fixed"
)

// RenkoAggregator emits fixed-size price bricks independent of time or
// volume (spec.md §4.3 Renko). Bricks bypass BarBuilder entirely since
// their OHLC geometry is fully determined by the brick size and
// direction, not by accumulated observations.
type RenkoAggregator struct {
	core
	brickSizeRaw  int64
	pricePrecision uint8
	sizePrecision  uint8
	lastClose     *fixed.Price
}

// NewRenkoAggregator's brickSize is step * price_increment.raw, per
// spec.md §4.3.
func NewRenkoAggregator(barType domain.Type, step int64, priceIncrementRaw int64, pricePrecision, sizePrecision uint8, handler Handler, log *zap.Logger) *RenkoAggregator {
	return &RenkoAggregator{
		core:          newCore(barType, pricePrecision, sizePrecision, handler, log),
		brickSizeRaw:  step * priceIncrementRaw,
		pricePrecision: pricePrecision,
		sizePrecision:  sizePrecision,
	}
}

func (a *RenkoAggregator) Update(price fixed.Price, size fixed.Quantity, tsInit int64) {
	if a.lastClose == nil {
		seed := price
		a.lastClose = &seed
		return
	}
	delta := price.Raw - a.lastClose.Raw
	absDelta := delta
	dir := int64(1)
	if delta < 0 {
		absDelta = -delta
		dir = -1
	}
	if a.brickSizeRaw <= 0 || absDelta < a.brickSizeRaw {
		return
	}
	bricks := absDelta / a.brickSizeRaw
	for i := int64(0); i < bricks; i++ {
		open := *a.lastClose
		closeRaw := open.Raw + dir*a.brickSizeRaw
		closePx := fixed.PriceFromRaw(closeRaw, a.pricePrecision)
		high, low := open, closePx
		if dir < 0 {
			high, low = closePx, open
		}
		bar := domain.Bar{
			BarType: a.barType,
			Open:    open, High: high, Low: low, Close: closePx,
			Volume:  fixed.Quantity{Precision: a.sizePrecision},
			TsEvent: tsInit, TsInit: tsInit,
		}
		a.emit(bar)
		lc := closePx
		a.lastClose = &lc
	}
}

func (a *RenkoAggregator) UpdateBar(bar domain.Bar, volume fixed.Quantity, tsInit int64) {
	a.Update(bar.Close, volume, tsInit)
}
