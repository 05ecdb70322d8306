// Package bars implements the Bar Builder / Aggregator family (C3):
// state machines that aggregate ticks or bars into completed bars by
// time, tick count, volume, value, or Renko brick (spec.md §4.3).
// Adapted from the teacher's internal/trading/market_data/timeframe
// package, which aggregates float64 OHLCV candles off a zap-logged
// subscriber map; this build replaces float64 with pkg/fixed raw
// arithmetic (exact volume/value slicing is mandatory here) and
// generalizes the fixed 7-interval schedule into the full variant
// table spec.md §4.3 names.
package bars

import (
	"github.com/abdoElHodaky/tradsys-core/internal/domain"
	"github.com/abdoElHodaky/tradsys-core/pkg/fixed"
)

// BarBuilder accumulates OHLCV state for one bar under construction
// (spec.md §4.3 BarBuilder).
type BarBuilder struct {
	BarType        domain.Type
	PricePrecision uint8
	SizePrecision  uint8

	initialized bool
	tsLast      int64
	count       int64

	lastClose *fixed.Price
	open      fixed.Price
	high      fixed.Price
	low       fixed.Price
	close     fixed.Price
	volume    fixed.Quantity
}

func NewBarBuilder(barType domain.Type, pricePrecision, sizePrecision uint8) *BarBuilder {
	return &BarBuilder{
		BarType:        barType,
		PricePrecision: pricePrecision,
		SizePrecision:  sizePrecision,
		volume:         fixed.Quantity{Precision: sizePrecision},
	}
}

// Update folds one (price, size) observation into the builder. Updates
// strictly older than the last-seen timestamp are ignored (spec.md
// §4.3: "ignore if ts_init < ts_last").
func (b *BarBuilder) Update(price fixed.Price, size fixed.Quantity, tsInit int64) {
	if b.initialized && tsInit < b.tsLast {
		return
	}
	if !b.initialized {
		b.open, b.high, b.low, b.close = price, price, price, price
		b.initialized = true
	} else {
		if price.Raw > b.high.Raw {
			b.high = price
		}
		if price.Raw < b.low.Raw {
			b.low = price
		}
		b.close = price
	}
	b.volume = b.volume.Add(size)
	b.count++
	b.tsLast = tsInit
}

// UpdateBar seeds the builder from a completed bar's OHLC, applying
// volume separately (spec.md §4.3 update_bar — used when replaying
// already-aggregated bars rather than raw ticks).
func (b *BarBuilder) UpdateBar(bar domain.Bar, volume fixed.Quantity, tsInit int64) {
	if b.initialized && tsInit < b.tsLast {
		return
	}
	if !b.initialized {
		b.open, b.high, b.low, b.close = bar.Open, bar.High, bar.Low, bar.Close
		b.initialized = true
	} else {
		if bar.High.Raw > b.high.Raw {
			b.high = bar.High
		}
		if bar.Low.Raw < b.low.Raw {
			b.low = bar.Low
		}
		b.close = bar.Close
	}
	b.volume = b.volume.Add(volume)
	b.count++
	b.tsLast = tsInit
}

// Build emits the accumulated Bar and resets the builder. If nothing
// was observed since the last reset and a prior close exists, emits a
// flat zero-volume bar at that close instead (spec.md §4.3 build:
// "if uninitialized and last_close exists, emit a flat bar").
func (b *BarBuilder) Build(tsEvent, tsInit int64) domain.Bar {
	var out domain.Bar
	if !b.initialized {
		if b.lastClose != nil {
			out = domain.Bar{
				BarType: b.BarType,
				Open:    *b.lastClose, High: *b.lastClose, Low: *b.lastClose, Close: *b.lastClose,
				Volume:  fixed.Quantity{Precision: b.SizePrecision},
				TsEvent: tsEvent, TsInit: tsInit,
			}
		} else {
			out = domain.Bar{BarType: b.BarType, TsEvent: tsEvent, TsInit: tsInit}
		}
	} else {
		// defensive clamp: close must lie within [low, high] (spec.md
		// §4.3 build: "clamp close into [low, high] defensively").
		close := b.close
		if close.Raw > b.high.Raw {
			close = b.high
		}
		if close.Raw < b.low.Raw {
			close = b.low
		}
		out = domain.Bar{
			BarType: b.BarType,
			Open:    b.open, High: b.high, Low: b.low, Close: close,
			Volume:  b.volume,
			TsEvent: tsEvent, TsInit: tsInit,
		}
		lc := close
		b.lastClose = &lc
	}
	b.reset()
	return out
}

func (b *BarBuilder) reset() {
	b.initialized = false
	b.count = 0
	b.volume = fixed.Quantity{Precision: b.SizePrecision}
}

func (b *BarBuilder) Initialized() bool { return b.initialized }
func (b *BarBuilder) Count() int64      { return b.count }
