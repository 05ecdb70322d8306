package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abdoElHodaky/tradsys-core/internal/domain"
	coreerrors "github.com/abdoElHodaky/tradsys-core/pkg/errors"
	"github.com/abdoElHodaky/tradsys-core/pkg/fixed"
	"github.com/abdoElHodaky/tradsys-core/pkg/ids"
)

func newTestOrder(id string) *domain.Order {
	return &domain.Order{
		ClientOrderId: ids.ClientOrderId(id),
		InstrumentId:  "BTCUSD.SIM",
		Status:        domain.StatusInitialized,
	}
}

func TestAddOrderRejectsDuplicateWithoutReplace(t *testing.T) {
	c := New(DefaultConfig(), nil)
	order := newTestOrder("co-1")

	assert.NoError(t, c.AddOrder(order, "", "", false))
	err := c.AddOrder(order, "", "", false)

	assert.True(t, coreerrors.Is(err, coreerrors.KindAlreadyExists))
}

func TestUpdateOrderUnknownReturnsNotFound(t *testing.T) {
	c := New(DefaultConfig(), nil)
	err := c.UpdateOrder(newTestOrder("ghost"))

	assert.True(t, coreerrors.Is(err, coreerrors.KindNotFound))
}

func TestLatestQuoteReturnsMostRecentlyAdded(t *testing.T) {
	c := New(DefaultConfig(), nil)
	c.AddQuote(domain.QuoteTick{InstrumentId: "BTCUSD.SIM", BidPrice: fixed.NewPrice(99, 2), TsEvent: 1})
	c.AddQuote(domain.QuoteTick{InstrumentId: "BTCUSD.SIM", BidPrice: fixed.NewPrice(100, 2), TsEvent: 2})

	q, ok := c.LatestQuote("BTCUSD.SIM")
	assert.True(t, ok)
	assert.InDelta(t, 100.0, q.BidPrice.Float64(), 0.0001)
}

func TestPriceReturnsMidpointOfBidAsk(t *testing.T) {
	c := New(DefaultConfig(), nil)
	c.AddQuote(domain.QuoteTick{InstrumentId: "BTCUSD.SIM", BidPrice: fixed.NewPrice(99, 2), AskPrice: fixed.NewPrice(101, 2), TsEvent: 1})

	mid, ok := c.Price("BTCUSD.SIM", domain.PriceMid)
	assert.True(t, ok)
	assert.InDelta(t, 100.0, mid.Float64(), 0.0001)
}

func TestPriceMissingQuoteReturnsFalse(t *testing.T) {
	c := New(DefaultConfig(), nil)
	_, ok := c.Price("BTCUSD.SIM", domain.PriceBid)
	assert.False(t, ok)
}

func TestGetXRateSameCurrencyIsIdentity(t *testing.T) {
	c := New(DefaultConfig(), nil)
	rate, err := c.GetXRate("SIM", "USD", "USD", domain.PriceMid)

	assert.NoError(t, err)
	assert.Equal(t, 1.0, rate)
}

func TestGetXRateDirectAndInversePair(t *testing.T) {
	c := New(DefaultConfig(), nil)
	usd := fixed.Currency{Code: "USD", Precision: 2}
	eur := fixed.Currency{Code: "EUR", Precision: 2}
	c.AddInstrument(&domain.Instrument{ID: "EURUSD.SIM", BaseCcy: &eur, SettlementCcy: usd})
	c.AddQuote(domain.QuoteTick{InstrumentId: "EURUSD.SIM", BidPrice: fixed.NewPrice(1.1, 4), AskPrice: fixed.NewPrice(1.1, 4), TsEvent: 1})

	direct, err := c.GetXRate("SIM", "EUR", "USD", domain.PriceBid)
	assert.NoError(t, err)
	assert.InDelta(t, 1.1, direct, 0.0001)

	inverse, err := c.GetXRate("SIM", "USD", "EUR", domain.PriceBid)
	assert.NoError(t, err)
	assert.InDelta(t, 1.0/1.1, inverse, 0.0001)
}

func TestGetXRateNoPathReturnsNotFound(t *testing.T) {
	c := New(DefaultConfig(), nil)
	_, err := c.GetXRate("SIM", "EUR", "JPY", domain.PriceBid)

	assert.True(t, coreerrors.Is(err, coreerrors.KindNotFound))
}

func TestOrdersMatchingFiltersByInstrumentAndSide(t *testing.T) {
	c := New(DefaultConfig(), nil)
	buy := &domain.Order{ClientOrderId: "o1", InstrumentId: "BTCUSD.SIM", Side: domain.Buy, Status: domain.StatusInitialized}
	sell := &domain.Order{ClientOrderId: "o2", InstrumentId: "BTCUSD.SIM", Side: domain.Sell, Status: domain.StatusInitialized}
	other := &domain.Order{ClientOrderId: "o3", InstrumentId: "ETHUSD.SIM", Side: domain.Buy, Status: domain.StatusInitialized}
	_ = c.AddOrder(buy, "", "", false)
	_ = c.AddOrder(sell, "", "", false)
	_ = c.AddOrder(other, "", "", false)

	inst := ids.InstrumentId("BTCUSD.SIM")
	side := domain.Buy
	matches := c.OrdersMatching(OrderFilter{InstrumentId: &inst, Side: &side})

	assert.Len(t, matches, 1)
	assert.Equal(t, ids.ClientOrderId("o1"), matches[0].ClientOrderId)
}

func TestAddBookIsIdempotentPerInstrument(t *testing.T) {
	c := New(DefaultConfig(), nil)
	b1 := c.AddBook("BTCUSD.SIM", domain.BookL2_MBP)
	b2 := c.AddBook("BTCUSD.SIM", domain.BookL2_MBP)

	assert.Same(t, b1, b2)
}
