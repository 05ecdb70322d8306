package bars

import (
	"go.uber.org/zap"

	"github.com/abdoElHodaky/tradsys-core/internal/domain"
	"github.com/abdoElHodaky/tradsys-core/pkg/fixed"
)

// VolumeAggregator splits each incoming size into integer raw slices so
// cumulative volume exactly hits multiples of step*FixedScalar, emitting
// a bar on each crossing (spec.md §4.3 Volume).
type VolumeAggregator struct {
	core
	stepRaw   int64
	cumRaw    int64
}

func NewVolumeAggregator(barType domain.Type, step int64, pricePrecision, sizePrecision uint8, handler Handler, log *zap.Logger) *VolumeAggregator {
	return &VolumeAggregator{
		core:    newCore(barType, pricePrecision, sizePrecision, handler, log),
		stepRaw: step * fixed.FixedScalar,
	}
}

func (a *VolumeAggregator) Update(price fixed.Price, size fixed.Quantity, tsInit int64) {
	remaining := size.Raw
	for remaining > 0 {
		take := a.sliceSize(remaining)
		a.builder.Update(price, fixed.Quantity{Raw: take, Precision: size.Precision}, tsInit)
		a.advance(take, tsInit)
		remaining -= take
	}
}

func (a *VolumeAggregator) UpdateBar(bar domain.Bar, volume fixed.Quantity, tsInit int64) {
	remaining := volume.Raw
	for remaining > 0 {
		take := a.sliceSize(remaining)
		a.builder.UpdateBar(bar, fixed.Quantity{Raw: take, Precision: volume.Precision}, tsInit)
		a.advance(take, tsInit)
		remaining -= take
	}
}

// sliceSize returns how much of `remaining` to fold in before the next
// step crossing.
func (a *VolumeAggregator) sliceSize(remaining int64) int64 {
	room := a.stepRaw - a.cumRaw
	if remaining < room {
		return remaining
	}
	return room
}

func (a *VolumeAggregator) advance(take int64, tsInit int64) {
	a.cumRaw += take
	if a.cumRaw >= a.stepRaw {
		a.emit(a.builder.Build(tsInit, tsInit))
		a.cumRaw = 0
	}
}
