package matchengine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abdoElHodaky/tradsys-core/internal/domain"
	"github.com/abdoElHodaky/tradsys-core/pkg/fixed"
)

func TestValidateReduceOnlyClampsOvershoot(t *testing.T) {
	// long 5, reduce-only sell of 8 should clamp to 5, not reject.
	order := &domain.Order{Side: domain.Sell, ReduceOnly: true, Quantity: fixed.NewQuantity(8, 0)}
	adjustedRaw, adjusted := validateReduceOnly(order, 5_000_000_000)

	assert.True(t, adjusted)
	assert.Equal(t, int64(5_000_000_000), adjustedRaw)
}

func TestValidateReduceOnlyLeavesInBoundsOrderUntouched(t *testing.T) {
	order := &domain.Order{Side: domain.Sell, ReduceOnly: true, Quantity: fixed.NewQuantity(3, 0)}
	_, adjusted := validateReduceOnly(order, 5_000_000_000)

	assert.False(t, adjusted)
}

func TestValidateReduceOnlySkipsNonReduceOnlyOrders(t *testing.T) {
	order := &domain.Order{Side: domain.Sell, ReduceOnly: false, Quantity: fixed.NewQuantity(8, 0)}
	_, adjusted := validateReduceOnly(order, 5_000_000_000)

	assert.False(t, adjusted)
}

func TestValidatePostOnlyRejectsCrossingBuy(t *testing.T) {
	px := fixed.NewPrice(100, 2)
	order := &domain.Order{Side: domain.Buy, PostOnly: true, Price: &px}
	bestAsk := fixed.NewPrice(99, 2).Raw

	result := validatePostOnly(order, &bestAsk)

	assert.NotNil(t, result)
	assert.Equal(t, RejectPostOnlyCross, result.Reason)
}

func TestValidatePostOnlyAllowsNonCrossingBuy(t *testing.T) {
	px := fixed.NewPrice(100, 2)
	order := &domain.Order{Side: domain.Buy, PostOnly: true, Price: &px}
	bestAsk := fixed.NewPrice(101, 2).Raw

	result := validatePostOnly(order, &bestAsk)

	assert.Nil(t, result)
}

func TestValidateCashShortSellRejectsUncoveredSell(t *testing.T) {
	instrument := &domain.Instrument{Kind: domain.InstrumentEquity}
	order := &domain.Order{Side: domain.Sell, Quantity: fixed.NewQuantity(10, 0)}

	result := validateCashShortSell(domain.AccountCash, instrument, order, 5_000_000_000)

	assert.NotNil(t, result)
	assert.Equal(t, RejectShortSellCash, result.Reason)
}

func TestValidateCashShortSellAllowsFullyCoveredSell(t *testing.T) {
	instrument := &domain.Instrument{Kind: domain.InstrumentEquity}
	order := &domain.Order{Side: domain.Sell, Quantity: fixed.NewQuantity(5, 0)}

	result := validateCashShortSell(domain.AccountCash, instrument, order, 5_000_000_000)

	assert.Nil(t, result)
}

func TestValidateCashShortSellIgnoresMarginAccounts(t *testing.T) {
	instrument := &domain.Instrument{Kind: domain.InstrumentEquity}
	order := &domain.Order{Side: domain.Sell, Quantity: fixed.NewQuantity(10, 0)}

	result := validateCashShortSell(domain.AccountMargin, instrument, order, 0)

	assert.Nil(t, result)
}

func TestValidateStopInTheMoneyOnlyRejectsWhenConfigured(t *testing.T) {
	assert.Nil(t, validateStopInTheMoney(false, true))
	assert.Nil(t, validateStopInTheMoney(true, false))
	assert.NotNil(t, validateStopInTheMoney(true, true))
}
