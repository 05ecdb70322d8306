package bars

import (
	"go.uber.org/zap"

	"github.com/abdoElHodaky/tradsys-core/internal/domain"
	"github.com/abdoElHodaky/tradsys-core/pkg/fixed"
)

// TickAggregator emits a bar every `step` updates (spec.md §4.3 Tick:
// "After each update, if builder.count >= step, build_now and emit").
type TickAggregator struct {
	core
	step int64
}

func NewTickAggregator(barType domain.Type, step int64, pricePrecision, sizePrecision uint8, handler Handler, log *zap.Logger) *TickAggregator {
	return &TickAggregator{core: newCore(barType, pricePrecision, sizePrecision, handler, log), step: step}
}

func (a *TickAggregator) Update(price fixed.Price, size fixed.Quantity, tsInit int64) {
	a.builder.Update(price, size, tsInit)
	if a.builder.Count() >= a.step {
		a.emit(a.builder.Build(tsInit, tsInit))
	}
}

func (a *TickAggregator) UpdateBar(bar domain.Bar, volume fixed.Quantity, tsInit int64) {
	a.builder.UpdateBar(bar, volume, tsInit)
	if a.builder.Count() >= a.step {
		a.emit(a.builder.Build(tsInit, tsInit))
	}
}
