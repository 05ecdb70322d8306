package bars

import (
	"go.uber.org/zap"

	"github.com/abdoElHodaky/tradsys-core/internal/domain"
	"github.com/abdoElHodaky/tradsys-core/pkg/fixed"
)

// ValueAggregator accumulates value = price*size and slices the
// incoming size so each slice raises cum_value to exactly `step`
// before emitting (spec.md §4.3 Value).
type ValueAggregator struct {
	core
	stepRaw int64
	cumRaw  int64
}

func NewValueAggregator(barType domain.Type, step int64, pricePrecision, sizePrecision uint8, handler Handler, log *zap.Logger) *ValueAggregator {
	return &ValueAggregator{
		core:    newCore(barType, pricePrecision, sizePrecision, handler, log),
		stepRaw: step * fixed.FixedScalar,
	}
}

func (a *ValueAggregator) Update(price fixed.Price, size fixed.Quantity, tsInit int64) {
	remaining := size.Raw
	for remaining > 0 {
		take, consumedValue := a.slice(price, remaining)
		a.builder.Update(price, fixed.Quantity{Raw: take, Precision: size.Precision}, tsInit)
		a.cumRaw += consumedValue
		remaining -= take
		if a.cumRaw >= a.stepRaw {
			a.emit(a.builder.Build(tsInit, tsInit))
			a.cumRaw = 0
		}
	}
}

func (a *ValueAggregator) UpdateBar(bar domain.Bar, volume fixed.Quantity, tsInit int64) {
	price := referencePrice(bar)
	remaining := volume.Raw
	for remaining > 0 {
		take, consumedValue := a.slice(price, remaining)
		a.builder.UpdateBar(bar, fixed.Quantity{Raw: take, Precision: volume.Precision}, tsInit)
		a.cumRaw += consumedValue
		remaining -= take
		if a.cumRaw >= a.stepRaw {
			a.emit(a.builder.Build(tsInit, tsInit))
			a.cumRaw = 0
		}
	}
}

// slice returns how much of `remaining` to fold in (and the value it
// represents) before the next step crossing.
func (a *ValueAggregator) slice(price fixed.Price, remaining int64) (take int64, consumedValue int64) {
	room := a.stepRaw - a.cumRaw
	levelValue := fixed.MulPriceRaw(price, fixed.Quantity{Raw: remaining})
	if levelValue <= room || price.Raw == 0 {
		return remaining, levelValue
	}
	take = fixed.NotionalToQty(room, price)
	if take <= 0 {
		take = remaining
	}
	if take > remaining {
		take = remaining
	}
	return take, fixed.MulPriceRaw(price, fixed.Quantity{Raw: take})
}
