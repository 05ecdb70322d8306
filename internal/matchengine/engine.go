package matchengine

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abdoElHodaky/tradsys-core/internal/accounts"
	"github.com/abdoElHodaky/tradsys-core/internal/bus"
	"github.com/abdoElHodaky/tradsys-core/internal/cache"
	"github.com/abdoElHodaky/tradsys-core/internal/domain"
	"github.com/abdoElHodaky/tradsys-core/internal/matchcore"
	coreerrors "github.com/abdoElHodaky/tradsys-core/pkg/errors"
	"github.com/abdoElHodaky/tradsys-core/pkg/fixed"
	"github.com/abdoElHodaky/tradsys-core/pkg/ids"
)

// Config carries the feature gates spec.md §4.6 names.
type Config struct {
	SupportGtdOrders        bool
	SupportContingentOrders bool
	RejectStopOrders        bool
	UseRandomIds            bool
	BarExecution            bool
}

// Engine is the per-instrument Matching Engine orchestrator (spec.md
// §4.6): validates, admits, matches, and emits events for one
// instrument's orders.
type Engine struct {
	mu sync.Mutex

	instrument *domain.Instrument
	cache      *cache.Cache
	bus        *bus.Bus
	core       *matchcore.Core
	accounts   *accounts.Manager
	cfg        Config
	venueSeq   uint64
	log        *zap.Logger
}

func New(instrument *domain.Instrument, c *cache.Cache, b *bus.Bus, core *matchcore.Core, cfg Config, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{instrument: instrument, cache: c, bus: b, core: core, cfg: cfg, log: log}
}

// WithAccounts wires an AccountsManager into the engine so fills drive
// cash-balance and margin recompute (spec.md §4.7). Optional: an Engine
// with no AccountsManager still matches and emits order events, it just
// never updates account state.
func (e *Engine) WithAccounts(am *accounts.Manager) *Engine {
	e.accounts = am
	return e
}

func (e *Engine) nextVenueOrderId() ids.VenueOrderId {
	if e.cfg.UseRandomIds {
		return ids.VenueOrderId(uuid.NewString())
	}
	e.venueSeq++
	return ids.VenueOrderId("V" + itoa(e.venueSeq))
}

func itoa(n uint64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// ProcessOrder implements process_order(&mut order, account_id) —
// pre-trade validation, admission, and an immediate matching attempt
// (spec.md §4.6).
func (e *Engine) ProcessOrder(order *domain.Order, accountId ids.AccountId, tsNow int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	account, ok := e.cache.Account(accountId)
	if !ok {
		return coreerrors.Newf(coreerrors.KindNotFound, "account %s not found", accountId)
	}

	if err := e.cache.AddOrder(order, "", order.ClientId, false); err != nil {
		return err
	}
	e.emitEvent(order, domain.OrderEvent{Kind: domain.EvtSubmitted, TsEvent: tsNow, TsInit: tsNow})

	if result := e.preTradeValidate(order, account, tsNow); result != nil {
		e.emitEvent(order, domain.OrderEvent{Kind: domain.EvtRejected, TsEvent: tsNow, TsInit: tsNow, Reason: string(result.Reason) + ": " + result.Detail, DuePostOnly: result.Reason == RejectPostOnlyCross})
		return nil
	}

	e.admit(order, tsNow)
	return nil
}

// preTradeValidate runs rules 1-7 of spec.md §4.6, applying the
// reduce-only quantity clamp in place when it fires (rule 4 is not a
// rejection path).
func (e *Engine) preTradeValidate(order *domain.Order, account *domain.Account, tsNow int64) *ValidationResult {
	if r := validateInstrumentState(e.instrument, tsNow); r != nil {
		return r
	}
	if r := validatePrecision(e.instrument, order); r != nil {
		return r
	}

	net := e.netSignedQty(order.InstrumentId, order.StrategyId)
	if r := validateCashShortSell(account.Type, e.instrument, order, net); r != nil {
		return r
	}

	if adjustedRaw, adjusted := validateReduceOnly(order, net); adjusted {
		order.Quantity = fixed.Quantity{Raw: adjustedRaw, Precision: order.Quantity.Precision}
		e.emitEvent(order, domain.OrderEvent{Kind: domain.EvtUpdated, TsEvent: tsNow, TsInit: tsNow, Quantity: order.Quantity})
	}

	if e.cfg.SupportContingentOrders {
		if order.ContingencyType == domain.ContingencyOTO && order.ParentOrderId != "" {
			if parent, ok := e.cache.Order(order.ParentOrderId); ok {
				if r := validateContingentParent(parent.Status); r != nil {
					return r
				}
			}
		}
		if order.ContingencyType == domain.ContingencyOCO || order.ContingencyType == domain.ContingencyOUO {
			for _, peerId := range order.LinkedOrderIds {
				if peer, ok := e.cache.Order(peerId); ok && peer.Status.IsTerminal() {
					if r := validateContingentPeer(true); r != nil {
						return r
					}
				}
			}
		}
	}

	if order.PostOnly && order.Type.HasLimitPrice() {
		best := e.bestOppositePriceRaw(order.Side)
		if r := validatePostOnly(order, best); r != nil {
			return r
		}
	}

	if order.Type.IsStopFamily() {
		if r := validateStopInTheMoney(e.cfg.RejectStopOrders, e.isAlreadyTriggerable(order)); r != nil {
			return r
		}
	}

	return nil
}

func (e *Engine) isAlreadyTriggerable(order *domain.Order) bool {
	if order.TriggerPrice == nil {
		return false
	}
	book := e.core.Book()
	ask, okA := book.BestAskPrice()
	bid, okB := book.BestBidPrice()
	switch order.Side {
	case domain.Buy:
		return okA && ask.Raw >= order.TriggerPrice.Raw
	default:
		return okB && bid.Raw <= order.TriggerPrice.Raw
	}
}

func (e *Engine) bestOppositePriceRaw(side domain.Side) *int64 {
	book := e.core.Book()
	var px fixed.Price
	var ok bool
	if side == domain.Buy {
		px, ok = book.BestAskPrice()
	} else {
		px, ok = book.BestBidPrice()
	}
	if !ok {
		return nil
	}
	raw := px.Raw
	return &raw
}

// netSignedQty sums signed_qty across open positions for the strategy
// on this instrument (used by rules 3/4).
func (e *Engine) netSignedQty(instrumentId ids.InstrumentId, strategyId ids.StrategyId) int64 {
	var total int64
	sid := strategyId
	positions := e.cache.PositionsMatching(cache.PositionFilter{InstrumentId: &instrumentId, StrategyId: &sid})
	for _, p := range positions {
		total += p.SignedQty
	}
	return total
}

// admit implements spec.md §4.6 "Admission effects".
func (e *Engine) admit(order *domain.Order, tsNow int64) {
	venueId := e.nextVenueOrderId()
	e.emitEvent(order, domain.OrderEvent{Kind: domain.EvtAccepted, TsEvent: tsNow, TsInit: tsNow, VenueOrderId: venueId})

	if e.cfg.SupportContingentOrders {
		e.runContingentPropagation(order, domain.EvtAccepted, tsNow)
	}

	resting := &matchcore.RestingOrder{
		ClientOrderId:      order.ClientOrderId,
		Side:               order.Side,
		Type:               order.Type,
		Price:              order.Price,
		TriggerPrice:       order.TriggerPrice,
		TriggerType:        order.TriggerType,
		TrailingOffset:     order.TrailingOffset,
		TrailingOffsetType: order.TrailingOffsetType,
		Quantity:           order.Quantity,
		TsAccepted:         tsNow,
	}

	if order.Type.IsStopFamily() {
		e.core.AddResting(resting)
		return
	}

	e.tryMatch(order, tsNow)
}

// tryMatch attempts immediate matching for a non-stop order and
// applies time-in-force semantics (spec.md §4.5/§4.6).
func (e *Engine) tryMatch(order *domain.Order, tsNow int64) {
	outcome := e.core.AttemptMatch(matchcore.MatchRequest{
		ClientOrderId: order.ClientOrderId,
		Side:          order.Side,
		Type:          order.Type,
		Limit:         order.Price,
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
		return
	}

	if outcome.Canceled {
		e.emitEvent(order, domain.OrderEvent{Kind: domain.EvtCanceled, TsEvent: tsNow, TsInit: tsNow})
		e.core.RemoveResting(order.ClientOrderId)
		return
	}

	if outcome.LeavesQty.Raw > 0 && order.Price != nil {
		resting := &matchcore.RestingOrder{
			ClientOrderId: order.ClientOrderId,
			Side:          order.Side,
			Type:          order.Type,
			Price:         order.Price,
			Quantity:      order.LeavesQty(),
			TsAccepted:    order.TsAccepted,
		}
		e.core.AddResting(resting)
	}

	if e.cfg.SupportContingentOrders && order.Status == domain.StatusFilled {
		e.runContingentPropagation(order, domain.EvtFilled, tsNow)
	}
}

func (e *Engine) runContingentPropagation(order *domain.Order, trigger domain.OrderEventKind, tsNow int64) {
	for _, action := range propagateContingent(order, trigger) {
		linked, ok := e.cache.Order(action.ClientOrderId)
		if !ok {
			continue
		}
		switch {
		case action.Release:
			e.admit(linked, tsNow)
		case action.Reject:
			e.emitEvent(linked, domain.OrderEvent{Kind: domain.EvtRejected, TsEvent: tsNow, TsInit: tsNow, Reason: "OTO parent terminated"})
		case action.Cancel:
			e.cancelOrder(linked, tsNow)
		case action.PropagateQtyRaw != nil:
			evt := domain.OrderEvent{Kind: domain.EvtUpdated, TsEvent: tsNow, TsInit: tsNow, Quantity: fixed.Quantity{Raw: *action.PropagateQtyRaw, Precision: linked.Quantity.Precision}}
			if action.PropagatePriceRaw != nil {
				px := fixed.PriceFromRaw(*action.PropagatePriceRaw, e.instrument.PricePrecision)
				evt.Price = &px
			}
			e.emitEvent(linked, evt)
		}
	}
}

func (e *Engine) emitEvent(order *domain.Order, evt domain.OrderEvent) {
	if !legalTransition(order.Status, evt.Kind) && order.Status != domain.StatusInitialized {
		e.log.Warn("order state machine violation",
			zap.String("client_order_id", string(order.ClientOrderId)),
			zap.String("from_status", string(order.Status)),
			zap.String("event", string(evt.Kind)),
		)
	}
	order.Apply(evt)
	_ = e.cache.UpdateOrder(order)
	if e.bus != nil {
		_ = e.bus.Publish(bus.OrderEventTopic(string(order.InstrumentId)), domain.OrderEventMessage{Order: order, Event: evt})
	}
}
