package bars

import (
	"go.uber.org/zap"

	"github.com/abdoElHodaky/tradsys-core/internal/domain"
	"github.com/abdoElHodaky/tradsys-core/pkg/fixed"
)

// Handler receives each bar emitted by an Aggregator.
type Handler func(bar domain.Bar)

// core is the shared state every aggregator variant embeds (spec.md
// §4.3: "All share a (bar_type, core: {builder, handler, batch_mode,
// batch_handler?})").
type core struct {
	barType      domain.Type
	builder      *BarBuilder
	handler      Handler
	batchMode    bool
	batchHandler Handler
	log          *zap.Logger
}

func newCore(barType domain.Type, pricePrecision, sizePrecision uint8, handler Handler, log *zap.Logger) core {
	if log == nil {
		log = zap.NewNop()
	}
	return core{
		barType: barType,
		builder: NewBarBuilder(barType, pricePrecision, sizePrecision),
		handler: handler,
		log:     log,
	}
}

func (c *core) emit(bar domain.Bar) {
	h := c.handler
	if c.batchMode && c.batchHandler != nil {
		h = c.batchHandler
	}
	if h != nil {
		h(bar)
	}
}

// StartBatchUpdate redirects emission to handler for deterministic
// historical replay through the same code path as live (spec.md
// §4.3.1 "batch mode").
func (c *core) StartBatchUpdate(handler Handler) {
	c.batchMode = true
	c.batchHandler = handler
}

func (c *core) StopBatchUpdate() {
	c.batchMode = false
	c.batchHandler = nil
}

// Aggregator is the common surface every bar-type variant implements
// (spec.md §4.3 "update(price, size, ts_init)").
type Aggregator interface {
	Update(price fixed.Price, size fixed.Quantity, tsInit int64)
	UpdateBar(bar domain.Bar, volume fixed.Quantity, tsInit int64)
}

// referencePrice is (h+l+c)/3, used as the reference price when
// slicing volume/value off a completed bar rather than a raw tick
// (spec.md §4.3 "using (h+l+c)/3 as the reference price for
// value/tick-over-bar").
func referencePrice(bar domain.Bar) fixed.Price {
	sum := bar.High.Raw + bar.Low.Raw + bar.Close.Raw
	return fixed.PriceFromRaw(sum/3, bar.Close.Precision)
}
