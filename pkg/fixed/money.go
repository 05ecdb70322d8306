package fixed

import "fmt"

// Currency is an interned currency code plus its own decimal precision,
// mirroring the teacher's approach of treating codes as small value
// types rather than bare strings (pkg/types core_types.go keeps symbols
// as plain strings; the execution core needs the extra precision field
// to format Money correctly per spec.md §3).
type Currency struct {
	Code      string
	Precision uint8
}

func (c Currency) String() string { return c.Code }

// Money is an amount denominated in a Currency, stored at FixedScalar
// resolution like Price/Quantity.
type Money struct {
	Raw      int64
	Currency Currency
}

func NewMoney(value float64, ccy Currency) Money {
	return Money{Raw: parseFloat(value), Currency: ccy}
}

func MoneyFromRaw(raw int64, ccy Currency) Money {
	return Money{Raw: raw, Currency: ccy}
}

func (m Money) Float64() float64 { return float64(m.Raw) / float64(FixedScalar) }
func (m Money) IsZero() bool     { return m.Raw == 0 }
func (m Money) String() string   { return fmt.Sprintf("%s %s", formatRaw(m.Raw, m.Currency.Precision), m.Currency.Code) }

// Add/Sub panic on currency mismatch: accounting code must convert via
// an exchange rate before combining amounts, never combine silently.
func (m Money) Add(o Money) Money {
	m.mustSameCurrency(o)
	return Money{Raw: m.Raw + o.Raw, Currency: m.Currency}
}

func (m Money) Sub(o Money) Money {
	m.mustSameCurrency(o)
	return Money{Raw: m.Raw - o.Raw, Currency: m.Currency}
}

func (m Money) Negate() Money { return Money{Raw: -m.Raw, Currency: m.Currency} }

func (m Money) mustSameCurrency(o Money) {
	if m.Currency.Code != o.Currency.Code {
		panic(fmt.Sprintf("fixed: currency mismatch %s vs %s", m.Currency.Code, o.Currency.Code))
	}
}

// ConvertRaw converts a raw notional (at FixedScalar resolution) in fromCcy
// into toCcy using a positive rate also expressed as a raw FixedScalar
// value (rate.Raw / FixedScalar units of toCcy per unit of fromCcy).
func ConvertRaw(amountRaw int64, rateRaw int64) int64 {
	hi, lo := mul64(amountRaw, rateRaw)
	return div128(hi, lo, FixedScalar)
}
