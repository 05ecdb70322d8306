package fixed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPriceArithmeticIsExact(t *testing.T) {
	p := NewPrice(100.25, 2)
	q := NewQuantity(3, 0)

	notional := MulPriceRaw(p, q)
	assert.Equal(t, int64(300_750_000_000), notional)

	back := NotionalToQty(notional, p)
	assert.Equal(t, q.Raw, back)
}

func TestPriceComparisons(t *testing.T) {
	a := NewPrice(10.5, 2)
	b := NewPrice(10.6, 2)

	assert.True(t, a.LessThan(b))
	assert.True(t, b.GreaterThan(a))
	assert.False(t, a.Equal(b))
	assert.True(t, a.Equal(NewPrice(10.5, 2)))
}

func TestQuantityAddSubPreserveHighestPrecision(t *testing.T) {
	a := NewQuantity(1, 2)
	b := NewQuantity(1, 4)

	sum := a.Add(b)
	assert.Equal(t, uint8(4), sum.Precision)
	assert.Equal(t, int64(2_000_000_000), sum.Raw)

	diff := a.Sub(b)
	assert.Equal(t, uint8(4), diff.Precision)
	assert.Equal(t, int64(0), diff.Raw)
}

func TestMoneyAddRequiresSameCurrency(t *testing.T) {
	usd := Currency{Code: "USD", Precision: 2}
	m1 := NewMoney(10, usd)
	m2 := NewMoney(5, usd)

	sum := m1.Add(m2)
	assert.Equal(t, int64(15_000_000_000), sum.Raw)

	assert.Panics(t, func() {
		eur := Currency{Code: "EUR", Precision: 2}
		m1.Add(NewMoney(1, eur))
	})
}

func TestConvertRawScalesByMultiplier(t *testing.T) {
	// multiplier of 1.0 (FixedScalar) is identity
	identity := ConvertRaw(1_000_000_000, FixedScalar)
	assert.Equal(t, int64(1_000_000_000), identity)

	// multiplier of 0.5
	half := ConvertRaw(1_000_000_000, FixedScalar/2)
	assert.Equal(t, int64(500_000_000), half)
}

func TestConvertRawHandlesNegativeAmounts(t *testing.T) {
	raw := ConvertRaw(-2_000_000_000, FixedScalar)
	assert.Equal(t, int64(-2_000_000_000), raw)
}
