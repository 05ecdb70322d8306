package accounts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/abdoElHodaky/tradsys-core/internal/cache"
	"github.com/abdoElHodaky/tradsys-core/internal/domain"
	"github.com/abdoElHodaky/tradsys-core/pkg/fixed"
)

var usd = fixed.Currency{Code: "USD", Precision: 2}

func newTestFixture() (*cache.Cache, *domain.Instrument, *domain.Account) {
	c := cache.New(cache.DefaultConfig(), zap.NewNop())

	instrument := &domain.Instrument{
		ID:             "BTCUSD.SIM",
		PricePrecision: 2,
		SizePrecision:  4,
		Multiplier:     fixed.NewQuantity(1, 0),
		SettlementCcy:  usd,
	}
	c.AddInstrument(instrument)

	account := domain.NewAccount("acct-1", domain.AccountMargin, &usd)
	c.AddAccount(account)

	return c, instrument, account
}

func TestUnrealizedPnlUsesBidForLongs(t *testing.T) {
	c, instrument, account := newTestFixture()
	m := New(c, zap.NewNop())

	c.AddQuote(domain.QuoteTick{
		InstrumentId: instrument.ID,
		BidPrice:     fixed.NewPrice(110, 2),
		AskPrice:     fixed.NewPrice(111, 2),
		TsEvent:      1,
	})

	position := domain.NewPosition("pos-1", instrument.ID, "strat-1", account.ID, instrument.Multiplier, usd)
	position.ApplyFill(domain.Fill{Side: domain.Buy, Price: fixed.NewPrice(100, 2), Qty: fixed.NewQuantity(1, 0), TsEvent: 1})

	pnl, ok := m.UnrealizedPnl(position, instrument, account)

	assert.True(t, ok)
	assert.InDelta(t, 10.0, pnl.Float64(), 0.0001) // marked at bid (110), not ask
}

func TestUnrealizedPnlUsesAskForShorts(t *testing.T) {
	c, instrument, account := newTestFixture()
	m := New(c, zap.NewNop())

	c.AddQuote(domain.QuoteTick{
		InstrumentId: instrument.ID,
		BidPrice:     fixed.NewPrice(89, 2),
		AskPrice:     fixed.NewPrice(90, 2),
		TsEvent:      1,
	})

	position := domain.NewPosition("pos-2", instrument.ID, "strat-1", account.ID, instrument.Multiplier, usd)
	position.ApplyFill(domain.Fill{Side: domain.Sell, Price: fixed.NewPrice(100, 2), Qty: fixed.NewQuantity(1, 0), TsEvent: 1})

	pnl, ok := m.UnrealizedPnl(position, instrument, account)

	assert.True(t, ok)
	assert.InDelta(t, 10.0, pnl.Float64(), 0.0001) // marked at ask (90), not bid
}

func TestUnrealizedPnlDefersWhenNoQuoteYet(t *testing.T) {
	c, instrument, account := newTestFixture()
	m := New(c, zap.NewNop())

	position := domain.NewPosition("pos-3", instrument.ID, "strat-1", account.ID, instrument.Multiplier, usd)
	position.ApplyFill(domain.Fill{Side: domain.Buy, Price: fixed.NewPrice(100, 2), Qty: fixed.NewQuantity(1, 0), TsEvent: 1})

	_, ok := m.UnrealizedPnl(position, instrument, account)

	assert.False(t, ok)
	assert.Contains(t, m.PendingCalcs(), instrument.ID)
}

func TestOnFillMovesFreeToLocked(t *testing.T) {
	c, instrument, account := newTestFixture()
	account.ApplyState(domain.AccountStateEvent{Balances: map[string]domain.AccountBalance{
		"USD": {Free: fixed.NewMoney(1000, usd), Locked: fixed.NewMoney(0, usd), Total: fixed.NewMoney(1000, usd)},
	}})
	_ = c.UpdateAccount(account)

	m := New(c, zap.NewNop())
	m.OnFill(account.ID, instrument, fixed.NewPrice(100, 2), fixed.NewQuantity(2, 0), fixed.NewMoney(0, usd), 1)

	updated, ok := c.Account(account.ID)
	assert.True(t, ok)
	bal := updated.Balances["USD"]
	assert.InDelta(t, 800.0, bal.Free.Float64(), 0.0001)
	assert.InDelta(t, 200.0, bal.Locked.Float64(), 0.0001)
}
