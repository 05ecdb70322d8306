package matchengine

import (
	"github.com/abdoElHodaky/tradsys-core/internal/bus"
	"github.com/abdoElHodaky/tradsys-core/internal/cache"
	"github.com/abdoElHodaky/tradsys-core/internal/domain"
	"github.com/abdoElHodaky/tradsys-core/internal/matchcore"
	"github.com/abdoElHodaky/tradsys-core/pkg/fixed"
	"github.com/abdoElHodaky/tradsys-core/pkg/ids"
)

// onFill implements spec.md §3 "a position applies a sequence of
// fills": find or open the (instrument, account, strategy) position,
// apply the fill, persist it, and publish the position event so
// internal/portfolio's events.position.* subscription has something to
// consume. It also drives the AccountsManager's cash-balance recompute
// and, through it, the account event subscription. Called for both the
// taker's and every maker's side of a trade.
func (e *Engine) onFill(order *domain.Order, fill matchcore.Fill) {
	position := e.positionFor(order.AccountId, order.InstrumentId, order.StrategyId)
	side := order.Side
	position.ApplyFill(domain.Fill{Side: side, Price: fill.Price, Qty: fill.Quantity, TsEvent: fill.TsEvent})
	_ = e.cache.UpdatePosition(position)
	e.publishPositionEvent(position)

	if e.accounts != nil {
		// Commission modeling is out of SPEC_FULL.md's scope (no fee
		// schedule is named), so fills settle at zero commission.
		commission := fixed.MoneyFromRaw(0, e.instrument.SettlementCcy)
		e.accounts.OnFill(order.AccountId, e.instrument, fill.Price, fill.Quantity, commission, fill.TsEvent)
		e.accounts.RecomputeInitMargins(order.AccountId)
		e.publishAccountEvent(order.AccountId)
	}
}

func (e *Engine) positionFor(accountId ids.AccountId, instrumentId ids.InstrumentId, strategyId ids.StrategyId) *domain.Position {
	positions := e.cache.PositionsMatching(cache.PositionFilter{InstrumentId: &instrumentId, StrategyId: &strategyId})
	for _, p := range positions {
		if p.AccountId == accountId {
			return p
		}
	}
	position := domain.NewPosition(
		ids.PositionId(string(accountId)+"-"+string(instrumentId)+"-"+string(strategyId)),
		instrumentId, strategyId, accountId,
		e.instrument.Multiplier, e.instrument.SettlementCcy,
	)
	e.cache.AddPosition(position)
	return position
}

func (e *Engine) publishPositionEvent(position *domain.Position) {
	if e.bus == nil {
		return
	}
	_ = e.bus.Publish(bus.PositionEventTopic(string(position.InstrumentId)), position)
}

func (e *Engine) publishAccountEvent(accountId ids.AccountId) {
	if e.bus == nil {
		return
	}
	account, ok := e.cache.Account(accountId)
	if !ok {
		return
	}
	_ = e.bus.Publish(bus.AccountEventTopic(string(accountId)), account)
}
