// Package accounts implements the Accounts Manager (C7): recomputes
// cash balances, margins, and PnL from the Cache's orders/positions on
// every order-event, position-event, or market-data update (spec.md
// §4.7). Grounded on the teacher's internal/risk/engine.go — same
// recompute-on-change idiom, zap-logged, driven off the shared Cache
// rather than its own duplicated ledger.
package accounts

import (
	"sort"

	"go.uber.org/zap"

	"github.com/abdoElHodaky/tradsys-core/internal/cache"
	"github.com/abdoElHodaky/tradsys-core/internal/domain"
	"github.com/abdoElHodaky/tradsys-core/pkg/fixed"
	"github.com/abdoElHodaky/tradsys-core/pkg/ids"
)

// Manager recomputes one account's derived state (balances, margins,
// PnL) against the shared Cache.
type Manager struct {
	cache *cache.Cache
	log   *zap.Logger

	pendingCalcs map[ids.InstrumentId]struct{}
}

func New(c *cache.Cache, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{cache: c, log: log, pendingCalcs: make(map[ids.InstrumentId]struct{})}
}

// PendingCalcs returns instrument ids whose last recompute deferred for
// missing price/FX data, in deterministic sorted order (spec.md §9).
func (m *Manager) PendingCalcs() []ids.InstrumentId {
	out := make([]ids.InstrumentId, 0, len(m.pendingCalcs))
	for id := range m.pendingCalcs {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// OnFill implements the cash-balance effect of spec.md §4.7: on Filled,
// move free -> locked by notional and deduct commission.
func (m *Manager) OnFill(accountId ids.AccountId, instrument *domain.Instrument, fillPx fixed.Price, fillQty fixed.Quantity, commission fixed.Money, tsEvent int64) {
	account, ok := m.cache.Account(accountId)
	if !ok {
		return
	}
	notional := instrument.Notional(fillPx, fillQty)
	ccy := notional.Currency.Code
	bal := account.Balances[ccy]
	bal.Free = bal.Free.Sub(notional).Sub(commission)
	bal.Locked = bal.Locked.Add(notional)
	bal.Total = bal.Free.Add(bal.Locked)
	account.ApplyState(domain.AccountStateEvent{TsEvent: tsEvent, Balances: map[string]domain.AccountBalance{ccy: bal}})
	_ = m.cache.UpdateAccount(account)
}

// RecomputeInitMargins implements spec.md §4.7's "recompute on every
// open-set change": sum margin_init(order.price, order.leaves_qty) over
// every open order on the account, per instrument.
func (m *Manager) RecomputeInitMargins(accountId ids.AccountId) {
	account, ok := m.cache.Account(accountId)
	if !ok || account.Type != domain.AccountMargin {
		return
	}
	sums := make(map[ids.InstrumentId]fixed.Money)
	for _, order := range m.cache.OrdersOpen() {
		if order.AccountId != accountId {
			continue
		}
		instrument, ok := m.cache.Instrument(order.InstrumentId)
		if !ok {
			m.pendingCalcs[order.InstrumentId] = struct{}{}
			continue
		}
		px := instrumentPrice(order, instrument)
		if px == nil {
			m.pendingCalcs[order.InstrumentId] = struct{}{}
			continue
		}
		margin := instrument.MarginInit(*px, order.LeavesQty())
		sums[order.InstrumentId] = sums[order.InstrumentId].Add(margin)
	}
	for instrumentId, total := range sums {
		account.SetInitMargin(instrumentId, total)
		delete(m.pendingCalcs, instrumentId)
	}
	_ = m.cache.UpdateAccount(account)
}

// instrumentPrice picks the price an order's margin is computed at: its
// own limit price if resting at one, else nil (the caller then records
// the instrument as pending); no mark-price fallback is used.
func instrumentPrice(order *domain.Order, instrument *domain.Instrument) *fixed.Price {
	if order.Price != nil {
		return order.Price
	}
	return nil
}

// RecomputeMaintMargins implements spec.md §4.7's "recompute on every
// position change or mark-price change": sum
// margin_maint(avg_px_open, quantity, mark_price) over open positions.
func (m *Manager) RecomputeMaintMargins(accountId ids.AccountId, priceType domain.PriceType) {
	account, ok := m.cache.Account(accountId)
	if !ok || account.Type != domain.AccountMargin {
		return
	}
	sums := make(map[ids.InstrumentId]fixed.Money)
	for _, position := range m.cache.PositionsOpen() {
		if position.AccountId != accountId {
			continue
		}
		instrument, ok := m.cache.Instrument(position.InstrumentId)
		if !ok {
			m.pendingCalcs[position.InstrumentId] = struct{}{}
			continue
		}
		mark, ok := m.cache.Price(position.InstrumentId, priceType)
		if !ok {
			m.pendingCalcs[position.InstrumentId] = struct{}{}
			continue
		}
		margin := instrument.MarginMaint(position.AvgPxOpen, position.Quantity, mark)
		sums[position.InstrumentId] = sums[position.InstrumentId].Add(margin)
	}
	for instrumentId, total := range sums {
		account.SetMaintMargin(instrumentId, total)
		delete(m.pendingCalcs, instrumentId)
	}
	_ = m.cache.UpdateAccount(account)
}

// UnrealizedPnl implements spec.md §4.7: (mark - avg_px_open) *
// signed_qty * multiplier, FX-converted to the account's base currency
// using Bid for longs and Ask for shorts. Returns ok=false (and records
// the instrument as pending) if price or FX data is unavailable.
func (m *Manager) UnrealizedPnl(position *domain.Position, instrument *domain.Instrument, account *domain.Account) (fixed.Money, bool) {
	priceType := domain.PriceBid
	if position.Side == domain.PositionShort {
		priceType = domain.PriceAsk
	}
	mark, ok := m.cache.Price(position.InstrumentId, priceType)
	if !ok {
		m.pendingCalcs[position.InstrumentId] = struct{}{}
		return fixed.Money{}, false
	}

	diff := mark.Raw - position.AvgPxOpen.Raw
	raw := fixed.ConvertRaw(fixed.MulRaw(diff, position.SignedQty), instrument.Multiplier.Raw)
	pnl := fixed.MoneyFromRaw(raw, instrument.SettlementCcy)

	if account.BaseCcy == nil || account.BaseCcy.Code == instrument.SettlementCcy.Code {
		delete(m.pendingCalcs, position.InstrumentId)
		return pnl, true
	}

	rate, err := m.cache.GetXRate(position.InstrumentId.Venue(), instrument.SettlementCcy.Code, account.BaseCcy.Code, priceType)
	if err != nil {
		m.pendingCalcs[position.InstrumentId] = struct{}{}
		return fixed.Money{}, false
	}
	converted := fixed.MoneyFromRaw(int64(float64(pnl.Raw)*rate), *account.BaseCcy)
	delete(m.pendingCalcs, position.InstrumentId)
	return converted, true
}
