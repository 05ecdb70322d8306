// Package portfolio implements the Portfolio (C8): bus-subscribed
// aggregation of net positions, realized/unrealized PnL, and margin
// views across the cache (spec.md §4.8). Grounded on the teacher's
// internal/portfolio package (same subscribe-and-cache-derived-view
// idiom over the bus) composed with internal/accounts for the
// per-account margin/PnL math.
package portfolio

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/abdoElHodaky/tradsys-core/internal/accounts"
	"github.com/abdoElHodaky/tradsys-core/internal/bus"
	"github.com/abdoElHodaky/tradsys-core/internal/cache"
	"github.com/abdoElHodaky/tradsys-core/internal/domain"
	"github.com/abdoElHodaky/tradsys-core/pkg/fixed"
	"github.com/abdoElHodaky/tradsys-core/pkg/ids"
)

// Portfolio maintains derived per-instrument PnL/exposure views over
// the shared Cache, kept current by subscribing to order/position/
// account/quote topics (spec.md §4.8).
type Portfolio struct {
	mu sync.RWMutex

	cache    *cache.Cache
	bus      *bus.Bus
	accounts *accounts.Manager
	log      *zap.Logger

	unrealizedPnls map[ids.InstrumentId]fixed.Money
	realizedPnls   map[ids.InstrumentId]fixed.Money
	netPositions   map[ids.InstrumentId]int64 // raw signed quantity

	initialized bool
}

func New(c *cache.Cache, b *bus.Bus, am *accounts.Manager, log *zap.Logger) *Portfolio {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Portfolio{
		cache:          c,
		bus:            b,
		accounts:       am,
		log:            log,
		unrealizedPnls: make(map[ids.InstrumentId]fixed.Money),
		realizedPnls:   make(map[ids.InstrumentId]fixed.Money),
		netPositions:   make(map[ids.InstrumentId]int64),
	}
	p.subscribe()
	return p
}

// subscribe wires the topics named in spec.md §4.8.
func (p *Portfolio) subscribe() {
	p.bus.Subscribe(bus.TopicOrderEvents+".*", func(msg bus.Message) { p.onOrderEvent(msg) }, 0)
	p.bus.Subscribe(bus.TopicPositionEvents+".*", func(msg bus.Message) { p.onPositionEvent(msg) }, 0)
	p.bus.Subscribe(bus.TopicAccountEvents+".*", func(msg bus.Message) { p.onAccountEvent(msg) }, 0)
	p.bus.Subscribe(bus.TopicQuotes+".*", func(msg bus.Message) { p.onQuote(msg) }, 0)
}

func (p *Portfolio) onOrderEvent(msg bus.Message) {
	evt, ok := msg.Payload.(domain.OrderEventMessage)
	if !ok {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.accounts != nil {
		p.accounts.RecomputeInitMargins(evt.Order.AccountId)
	}
}

func (p *Portfolio) onPositionEvent(msg bus.Message) {
	position, ok := msg.Payload.(*domain.Position)
	if !ok {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.netPositions[position.InstrumentId] = position.SignedQty
	p.realizedPnls[position.InstrumentId] = position.RealizedPnl
	delete(p.unrealizedPnls, position.InstrumentId)
	if p.accounts != nil {
		p.accounts.RecomputeMaintMargins(position.AccountId, domain.PriceMid)
	}
}

func (p *Portfolio) onAccountEvent(msg bus.Message) {}

func (p *Portfolio) onQuote(msg bus.Message) {
	q, ok := msg.Payload.(domain.QuoteTick)
	if !ok {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.unrealizedPnls, q.InstrumentId)
}

// NetPosition returns the signed quantity across every position on
// instrumentId (spec.md §4.8 net_position).
func (p *Portfolio) NetPosition(instrumentId ids.InstrumentId) int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.netPositions[instrumentId]
}

// NetExposure returns net_position * mark_price for instrumentId
// (spec.md §4.8 net_exposure).
func (p *Portfolio) NetExposure(instrumentId ids.InstrumentId) (fixed.Money, bool) {
	instrument, ok := p.cache.Instrument(instrumentId)
	if !ok {
		return fixed.Money{}, false
	}
	mark, ok := p.cache.Price(instrumentId, domain.PriceMid)
	if !ok {
		return fixed.Money{}, false
	}
	net := p.NetPosition(instrumentId)
	raw := fixed.ConvertRaw(fixed.MulRaw(mark.Raw, net), instrument.Multiplier.Raw)
	return fixed.MoneyFromRaw(raw, instrument.SettlementCcy), true
}

// NetExposures returns net exposures for every instrument on venue
// (spec.md §4.8 net_exposures(venue)), sorted by instrument id for
// deterministic iteration (spec.md §9).
func (p *Portfolio) NetExposures(venue ids.Venue) map[ids.InstrumentId]fixed.Money {
	p.mu.RLock()
	ids_ := make([]ids.InstrumentId, 0, len(p.netPositions))
	for id := range p.netPositions {
		if id.Venue() == venue {
			ids_ = append(ids_, id)
		}
	}
	p.mu.RUnlock()
	sort.Slice(ids_, func(i, j int) bool { return ids_[i] < ids_[j] })

	out := make(map[ids.InstrumentId]fixed.Money, len(ids_))
	for _, id := range ids_ {
		if exposure, ok := p.NetExposure(id); ok {
			out[id] = exposure
		}
	}
	return out
}

// UnrealizedPnl returns the cached/recomputed unrealized PnL for an
// instrument's open position(s), summing across accounts.
func (p *Portfolio) UnrealizedPnl(instrumentId ids.InstrumentId) (fixed.Money, bool) {
	p.mu.RLock()
	if cached, ok := p.unrealizedPnls[instrumentId]; ok {
		p.mu.RUnlock()
		return cached, true
	}
	p.mu.RUnlock()

	instrument, ok := p.cache.Instrument(instrumentId)
	if !ok || p.accounts == nil {
		return fixed.Money{}, false
	}

	var total fixed.Money
	haveAny := false
	for _, position := range p.cache.PositionsMatching(cache.PositionFilter{InstrumentId: &instrumentId}) {
		account, ok := p.cache.Account(position.AccountId)
		if !ok {
			continue
		}
		pnl, ok := p.accounts.UnrealizedPnl(position, instrument, account)
		if !ok {
			return fixed.Money{}, false
		}
		if !haveAny {
			total = pnl
			haveAny = true
		} else {
			total = total.Add(pnl)
		}
	}
	if !haveAny {
		return fixed.Money{}, false
	}
	p.mu.Lock()
	p.unrealizedPnls[instrumentId] = total
	p.mu.Unlock()
	return total, true
}

// RealizedPnl returns the last-known realized PnL for an instrument
// (spec.md §4.8 realized_pnl).
func (p *Portfolio) RealizedPnl(instrumentId ids.InstrumentId) (fixed.Money, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	pnl, ok := p.realizedPnls[instrumentId]
	return pnl, ok
}

func (p *Portfolio) IsNetLong(instrumentId ids.InstrumentId) bool  { return p.NetPosition(instrumentId) > 0 }
func (p *Portfolio) IsNetShort(instrumentId ids.InstrumentId) bool { return p.NetPosition(instrumentId) < 0 }
func (p *Portfolio) IsNetFlat(instrumentId ids.InstrumentId) bool  { return p.NetPosition(instrumentId) == 0 }

// IsCompletelyFlat reports whether every tracked instrument is flat
// (spec.md §4.8 is_completely_flat).
func (p *Portfolio) IsCompletelyFlat() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, net := range p.netPositions {
		if net != 0 {
			return false
		}
	}
	return true
}

// BalancesLocked / MarginsInit / MarginsMaint sum the named quantity
// across every account on venue, in the venue's settlement currencies
// (spec.md §4.8 balances_locked/margins_init/margins_maint(venue)).
func (p *Portfolio) BalancesLocked(venue ids.Venue) map[string]fixed.Money {
	return p.sumAccounts(venue, func(a *domain.Account) map[string]fixed.Money {
		out := make(map[string]fixed.Money, len(a.Balances))
		for ccy, bal := range a.Balances {
			out[ccy] = bal.Locked
		}
		return out
	})
}

func (p *Portfolio) MarginsInit(venue ids.Venue) map[string]fixed.Money {
	return p.sumAccounts(venue, func(a *domain.Account) map[string]fixed.Money {
		return sumMarginsByCurrency(a.InitMargins)
	})
}

func (p *Portfolio) MarginsMaint(venue ids.Venue) map[string]fixed.Money {
	return p.sumAccounts(venue, func(a *domain.Account) map[string]fixed.Money {
		return sumMarginsByCurrency(a.MaintMargins)
	})
}

func sumMarginsByCurrency(margins map[ids.InstrumentId]fixed.Money) map[string]fixed.Money {
	out := make(map[string]fixed.Money)
	for _, m := range margins {
		if existing, ok := out[m.Currency.Code]; ok {
			out[m.Currency.Code] = existing.Add(m)
		} else {
			out[m.Currency.Code] = m
		}
	}
	return out
}

// sumAccounts walks every account that holds at least one instrument on
// venue and folds per(account) maps together.
func (p *Portfolio) sumAccounts(venue ids.Venue, per func(*domain.Account) map[string]fixed.Money) map[string]fixed.Money {
	total := make(map[string]fixed.Money)
	seen := make(map[ids.AccountId]struct{})
	for _, position := range p.cache.PositionsMatching(cache.PositionFilter{Venue: &venue}) {
		if _, ok := seen[position.AccountId]; ok {
			continue
		}
		seen[position.AccountId] = struct{}{}
		account, ok := p.cache.Account(position.AccountId)
		if !ok {
			continue
		}
		for ccy, m := range per(account) {
			if existing, ok := total[ccy]; ok {
				total[ccy] = existing.Add(m)
			} else {
				total[ccy] = m
			}
		}
	}
	return total
}

// InitializeOrders implements spec.md §4.8 initialize_orders(): walk
// every open order and drive the AccountsManager's margin recompute.
func (p *Portfolio) InitializeOrders() bool {
	if p.accounts == nil {
		return false
	}
	seen := make(map[ids.AccountId]struct{})
	for _, order := range p.cache.OrdersOpen() {
		if _, ok := seen[order.AccountId]; ok {
			continue
		}
		seen[order.AccountId] = struct{}{}
		p.accounts.RecomputeInitMargins(order.AccountId)
	}
	return len(p.accounts.PendingCalcs()) == 0
}

// InitializePositions implements spec.md §4.8 initialize_positions().
func (p *Portfolio) InitializePositions() bool {
	if p.accounts == nil {
		return false
	}
	seen := make(map[ids.AccountId]struct{})
	ok := true
	for _, position := range p.cache.PositionsOpen() {
		p.mu.Lock()
		p.netPositions[position.InstrumentId] = position.SignedQty
		p.realizedPnls[position.InstrumentId] = position.RealizedPnl
		p.mu.Unlock()
		if _, seenAcct := seen[position.AccountId]; !seenAcct {
			seen[position.AccountId] = struct{}{}
			p.accounts.RecomputeMaintMargins(position.AccountId, domain.PriceMid)
		}
		if _, pnlOK := p.UnrealizedPnl(position.InstrumentId); !pnlOK {
			ok = false
		}
	}
	return ok
}

// Initialize runs InitializeOrders and InitializePositions and sets
// initialized=true iff both fully succeeded (spec.md §4.8).
func (p *Portfolio) Initialize() bool {
	ordersOK := p.InitializeOrders()
	positionsOK := p.InitializePositions()
	p.mu.Lock()
	p.initialized = ordersOK && positionsOK
	p.mu.Unlock()
	return p.initialized
}

func (p *Portfolio) Initialized() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.initialized
}
