package matchengine

import (
	"github.com/abdoElHodaky/tradsys-core/internal/domain"
	"github.com/abdoElHodaky/tradsys-core/internal/matchcore"
)

// ProcessQuoteTick implements process_quote_tick(q): feeds the matching
// core's trigger evaluation, then attempts to match every resting order
// whose trigger just fired (spec.md §4.5 "On an incoming market feed
// update").
func (e *Engine) ProcessQuoteTick(q domain.QuoteTick) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache.AddQuote(q)
	e.handleTriggered(e.core.OnQuote(q), q.TsEvent)
}

// ProcessTradeTick implements process_trade_tick(t).
func (e *Engine) ProcessTradeTick(t domain.TradeTick) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache.AddTrade(t)
	e.handleTriggered(e.core.OnTrade(t), t.TsEvent)
}

// ProcessOrderBookDelta implements process_order_book_delta(delta).
func (e *Engine) ProcessOrderBookDelta(delta domain.OrderBookDelta) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	triggered, err := e.core.OnBookDelta(delta)
	if err != nil {
		return err
	}
	e.handleTriggered(triggered, delta.TsEvent)
	return nil
}

// ProcessBar implements process_bar(bar): bars only drive matching when
// bar_execution is enabled (spec.md §4.3 "Bar-driven execution is
// opt-in"), synthesizing a trade tick at the bar's close.
func (e *Engine) ProcessBar(bar domain.Bar) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache.AddBar(bar)
	if !e.cfg.BarExecution {
		return
	}
	e.handleTriggered(e.core.OnTrade(domain.TradeTick{
		InstrumentId: e.instrument.ID,
		Price:        bar.Close,
		Size:         bar.Volume,
		TsEvent:      bar.TsEvent,
		TsInit:       bar.TsInit,
	}), bar.TsEvent)
}

// handleTriggered converts each fired trigger into an Accepted stop
// order's aggressor match attempt (spec.md §4.5 "a triggered stop order
// becomes an aggressor against the book at the instant it fires").
func (e *Engine) handleTriggered(triggered []*matchcore.RestingOrder, tsNow int64) {
	for _, r := range triggered {
		order, ok := e.cache.Order(r.ClientOrderId)
		if !ok {
			continue
		}
		e.emitEvent(order, domain.OrderEvent{Kind: domain.EvtTriggered, TsEvent: tsNow, TsInit: tsNow})

		limit := r.Price
		orderType := order.Type
		switch orderType {
		case domain.OrderTypeStopMarket, domain.OrderTypeMarketIfTouched, domain.OrderTypeTrailingStopMarket:
			limit = nil
		}

		e.core.RemoveResting(order.ClientOrderId)
		outcome := e.core.AttemptMatch(matchcore.MatchRequest{
			ClientOrderId: order.ClientOrderId,
			Side:          order.Side,
			Type:          orderType,
			Limit:         limit,
			Quantity:      order.LeavesQty(),
			TimeInForce:   order.TimeInForce,
			TsEvent:       tsNow,
		})

		for _, fill := range outcome.Fills {
			e.emitEvent(order, domain.OrderEvent{Kind: domain.EvtFilled, TsEvent: fill.TsEvent, TsInit: tsNow, LastPx: fill.Price, LastQty: fill.Quantity})
			e.onFill(order, fill)
			if maker, ok := e.cache.Order(fill.MakerClientOrderId); ok {
				e.emitEvent(maker, domain.OrderEvent{Kind: domain.EvtFilled, TsEvent: fill.TsEvent, TsInit: tsNow, LastPx: fill.Price, LastQty: fill.Quantity})
				e.onFill(maker, fill)
				if e.cfg.SupportContingentOrders {
					e.runContingentPropagation(maker, domain.EvtFilled, tsNow)
				}
			}
		}

		if order.Status.IsTerminal() {
			if e.cfg.SupportContingentOrders && order.Status == domain.StatusFilled {
				e.runContingentPropagation(order, domain.EvtFilled, tsNow)
			}
			continue
		}

		if outcome.LeavesQty.Raw > 0 && limit != nil {
			e.core.AddResting(&matchcore.RestingOrder{
				ClientOrderId: order.ClientOrderId,
				Side:          order.Side,
				Type:          orderType,
				Price:         limit,
				Quantity:      order.LeavesQty(),
				TsAccepted:    order.TsAccepted,
			})
		}
	}
}
