package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abdoElHodaky/tradsys-core/internal/accounts"
	"github.com/abdoElHodaky/tradsys-core/internal/bus"
	"github.com/abdoElHodaky/tradsys-core/internal/cache"
	"github.com/abdoElHodaky/tradsys-core/internal/domain"
	"github.com/abdoElHodaky/tradsys-core/pkg/fixed"
)

var usd = fixed.Currency{Code: "USD", Precision: 2}

func newTestFixture() (*cache.Cache, *bus.Bus, *Portfolio, *domain.Instrument) {
	c := cache.New(cache.DefaultConfig(), nil)
	b := bus.New(nil)
	am := accounts.New(c, nil)

	instrument := &domain.Instrument{
		ID: "BTCUSD.SIM", PricePrecision: 2, SizePrecision: 4,
		Multiplier: fixed.NewQuantity(1, 0), SettlementCcy: usd,
	}
	c.AddInstrument(instrument)

	p := New(c, b, am, nil)
	return c, b, p, instrument
}

func TestOnPositionEventUpdatesNetAndRealized(t *testing.T) {
	c, b, p, instrument := newTestFixture()
	account := domain.NewAccount("acct-1", domain.AccountMargin, &usd)
	c.AddAccount(account)

	position := domain.NewPosition("pos-1", instrument.ID, "strat-1", account.ID, instrument.Multiplier, usd)
	position.ApplyFill(domain.Fill{Side: domain.Buy, Price: fixed.NewPrice(100, 2), Qty: fixed.NewQuantity(2, 0), TsEvent: 1})

	_ = b.Publish(bus.PositionEventTopic(string(instrument.ID)), position)

	assert.Equal(t, int64(2_000_000_000), p.NetPosition(instrument.ID))
	assert.True(t, p.IsNetLong(instrument.ID))
	assert.False(t, p.IsCompletelyFlat())
}

func TestNetExposureComputesMarkTimesNet(t *testing.T) {
	c, b, p, instrument := newTestFixture()
	account := domain.NewAccount("acct-1", domain.AccountMargin, &usd)
	c.AddAccount(account)
	c.AddQuote(domain.QuoteTick{InstrumentId: instrument.ID, BidPrice: fixed.NewPrice(99, 2), AskPrice: fixed.NewPrice(101, 2), TsEvent: 1})

	position := domain.NewPosition("pos-1", instrument.ID, "strat-1", account.ID, instrument.Multiplier, usd)
	position.ApplyFill(domain.Fill{Side: domain.Buy, Price: fixed.NewPrice(100, 2), Qty: fixed.NewQuantity(2, 0), TsEvent: 1})
	_ = b.Publish(bus.PositionEventTopic(string(instrument.ID)), position)

	exposure, ok := p.NetExposure(instrument.ID)
	assert.True(t, ok)
	assert.InDelta(t, 200.0, exposure.Float64(), 0.0001) // mid(100) * net(2)
}

func TestNetExposureMissingQuoteReturnsFalse(t *testing.T) {
	_, _, p, instrument := newTestFixture()
	_, ok := p.NetExposure(instrument.ID)
	assert.False(t, ok)
}

func TestIsCompletelyFlatTrueWithNoPositions(t *testing.T) {
	_, _, p, _ := newTestFixture()
	assert.True(t, p.IsCompletelyFlat())
}

func TestUnrealizedPnlAggregatesAcrossAccounts(t *testing.T) {
	c, b, p, instrument := newTestFixture()
	c.AddQuote(domain.QuoteTick{InstrumentId: instrument.ID, BidPrice: fixed.NewPrice(110, 2), AskPrice: fixed.NewPrice(111, 2), TsEvent: 1})

	acct1 := domain.NewAccount("acct-1", domain.AccountMargin, &usd)
	acct2 := domain.NewAccount("acct-2", domain.AccountMargin, &usd)
	c.AddAccount(acct1)
	c.AddAccount(acct2)

	pos1 := domain.NewPosition("pos-1", instrument.ID, "strat-1", acct1.ID, instrument.Multiplier, usd)
	pos1.ApplyFill(domain.Fill{Side: domain.Buy, Price: fixed.NewPrice(100, 2), Qty: fixed.NewQuantity(1, 0), TsEvent: 1})
	c.AddPosition(pos1)

	pos2 := domain.NewPosition("pos-2", instrument.ID, "strat-1", acct2.ID, instrument.Multiplier, usd)
	pos2.ApplyFill(domain.Fill{Side: domain.Buy, Price: fixed.NewPrice(100, 2), Qty: fixed.NewQuantity(1, 0), TsEvent: 1})
	c.AddPosition(pos2)

	_ = b

	pnl, ok := p.UnrealizedPnl(instrument.ID)
	assert.True(t, ok)
	assert.InDelta(t, 20.0, pnl.Float64(), 0.0001) // (110-100)*1 summed over two positions
}

func TestInitializeOrdersFalseWithoutAccounts(t *testing.T) {
	c := cache.New(cache.DefaultConfig(), nil)
	b := bus.New(nil)
	p := New(c, b, nil, nil)

	assert.False(t, p.InitializeOrders())
}
