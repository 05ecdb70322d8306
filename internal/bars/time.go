package bars

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/abdoElHodaky/tradsys-core/internal/domain"
	"github.com/abdoElHodaky/tradsys-core/pkg/fixed"
)

// IntervalType controls which edge of the window is open (spec.md
// §4.3.1).
type IntervalType string

const (
	LeftOpen  IntervalType = "LEFT_OPEN"
	RightOpen IntervalType = "RIGHT_OPEN"
)

// TimeAggregatorConfig carries the §4.3.1 scheduling parameters.
type TimeAggregatorConfig struct {
	IntervalNs          int64
	BuildWithNoUpdates  bool
	TimestampOnClose    bool
	IntervalType        IntervalType
	OriginOffsetNs      int64
	BarBuildDelayNs     int64
	SkipFirstNonFullBar bool
}

// TimeAggregator builds a bar every IntervalNs, driven by a periodic
// timer the way the teacher's TimeframeAggregator buckets trades by
// wall-clock interval (internal/trading/market_data/timeframe), except
// here the window boundary and emission timestamp follow the
// bar_ts_event table of spec.md §4.3.1 rather than always stamping
// wall-clock "now".
type TimeAggregator struct {
	core
	cfg TimeAggregatorConfig

	mu                sync.Mutex
	timer             *time.Timer
	stopped           bool
	openNs            int64
	nextCloseNs       int64
	hasUpdatesSinceOpen bool
	buildOnNextTick   bool
	firstFire         bool
}

func NewTimeAggregator(barType domain.Type, cfg TimeAggregatorConfig, pricePrecision, sizePrecision uint8, handler Handler, log *zap.Logger) *TimeAggregator {
	return &TimeAggregator{
		core:      newCore(barType, pricePrecision, sizePrecision, handler, log),
		cfg:       cfg,
		firstFire: true,
	}
}

// alignTo rounds nowNs up to the next interval boundary (nowNs itself
// when it already lies on one), offset by
// originOffsetNs (spec.md §4.3.1 align_to(now, spec, origin_offset)).
func alignTo(nowNs, intervalNs, originOffsetNs int64) int64 {
	if intervalNs <= 0 {
		return nowNs
	}
	shifted := nowNs - originOffsetNs
	aligned := (shifted / intervalNs) * intervalNs
	if aligned < shifted {
		aligned += intervalNs
	}
	return aligned + originOffsetNs
}

// Start computes the first alert time and begins the periodic schedule
// (spec.md §4.3.1 "on start(callback), compute start_time = align_to(...)
// + bar_build_delay and register a periodic alert").
func (a *TimeAggregator) Start(nowNs int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	startNs := alignTo(nowNs, a.cfg.IntervalNs, a.cfg.OriginOffsetNs) + a.cfg.BarBuildDelayNs
	a.openNs = startNs - a.cfg.IntervalNs
	a.nextCloseNs = startNs
	a.scheduleLocked(startNs, nowNs)
}

func (a *TimeAggregator) scheduleLocked(fireAtNs, nowNs int64) {
	delay := time.Duration(fireAtNs - nowNs)
	if delay < 0 {
		delay = 0
	}
	a.timer = time.AfterFunc(delay, func() { a.fire(fireAtNs) })
}

// fire is the alert handler: build_bar(event) per spec.md §4.3.1.
func (a *TimeAggregator) fire(eventNs int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}

	skipThis := a.firstFire && a.cfg.SkipFirstNonFullBar
	a.firstFire = false

	switch {
	case !a.builder.Initialized() && a.builder.Count() == 0 && !a.hasUpdatesSinceOpen:
		a.buildOnNextTick = true
	case !a.hasUpdatesSinceOpen && !a.cfg.BuildWithNoUpdates:
		// no updates this window and build_with_no_updates is false: do nothing.
	default:
		if !skipThis {
			tsEvent := a.barTsEvent(a.openNs, a.nextCloseNs)
			bar := a.builder.Build(tsEvent, eventNs)
			a.emit(bar)
		} else {
			a.builder.Build(eventNs, eventNs) // discard partial window, reset builder
		}
	}

	a.openNs = a.nextCloseNs
	a.nextCloseNs = a.nextCloseNs + a.cfg.IntervalNs
	a.hasUpdatesSinceOpen = false
	a.scheduleLocked(a.nextCloseNs, eventNs)
}

func (a *TimeAggregator) barTsEvent(openNs, closeNs int64) int64 {
	switch a.cfg.IntervalType {
	case LeftOpen:
		if a.cfg.TimestampOnClose {
			return closeNs
		}
		return openNs
	default: // RightOpen
		return openNs
	}
}

func (a *TimeAggregator) Update(price fixed.Price, size fixed.Quantity, tsInit int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.batchMode {
		a.batchPreUpdateLocked(tsInit)
	}
	a.builder.Update(price, size, tsInit)
	a.hasUpdatesSinceOpen = true
	if a.batchMode {
		a.batchPostUpdateLocked(tsInit)
	}
}

func (a *TimeAggregator) UpdateBar(bar domain.Bar, volume fixed.Quantity, tsInit int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.batchMode {
		a.batchPreUpdateLocked(tsInit)
	}
	a.builder.UpdateBar(bar, volume, tsInit)
	a.hasUpdatesSinceOpen = true
	if a.batchMode {
		a.batchPostUpdateLocked(tsInit)
	}
}

// StartBatchUpdate seeds batch_open_ns/batch_next_close_ns and redirects
// emission to handler, the mechanism for replaying historical ticks
// deterministically through the same code path as live (spec.md §4.3.1).
func (a *TimeAggregator) StartBatchUpdate(handler Handler, timeNs int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.core.StartBatchUpdate(handler)
	if a.nextCloseNs == 0 {
		a.openNs = alignTo(timeNs, a.cfg.IntervalNs, a.cfg.OriginOffsetNs) - a.cfg.IntervalNs
		a.nextCloseNs = a.openNs + a.cfg.IntervalNs
	}
}

func (a *TimeAggregator) StopBatchUpdate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.core.StopBatchUpdate()
}

// batchPreUpdateLocked emits any bar whose close is strictly before
// tsInit (spec.md §4.3.1 batch_pre_update).
func (a *TimeAggregator) batchPreUpdateLocked(tsInit int64) {
	for a.nextCloseNs < tsInit {
		if a.hasUpdatesSinceOpen || a.cfg.BuildWithNoUpdates {
			tsEvent := a.barTsEvent(a.openNs, a.nextCloseNs)
			a.emit(a.builder.Build(tsEvent, tsInit))
		}
		a.openNs = a.nextCloseNs
		a.nextCloseNs += a.cfg.IntervalNs
		a.hasUpdatesSinceOpen = false
	}
}

// batchPostUpdateLocked advances the window closes through tsInit,
// emitting as crossed (spec.md §4.3.1 batch_post_update).
func (a *TimeAggregator) batchPostUpdateLocked(tsInit int64) {
	for a.nextCloseNs <= tsInit {
		tsEvent := a.barTsEvent(a.openNs, a.nextCloseNs)
		a.emit(a.builder.Build(tsEvent, tsInit))
		a.openNs = a.nextCloseNs
		a.nextCloseNs += a.cfg.IntervalNs
		a.hasUpdatesSinceOpen = false
	}
}

// Stop cancels the scheduled timer; any outstanding partial bar is
// discarded (spec.md §4.3.1 "cancellation").
func (a *TimeAggregator) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
	if a.timer != nil {
		a.timer.Stop()
	}
}
