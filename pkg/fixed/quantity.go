package fixed

import "fmt"

// Quantity is an exact fixed-point size, same representation discipline
// as Price (raw at FixedScalar resolution, Precision for display and
// instrument-alignment validation).
type Quantity struct {
	Raw       int64
	Precision uint8
}

func NewQuantity(value float64, precision uint8) Quantity {
	step := rawStep(precision)
	raw := parseFloat(value)
	raw = (raw / step) * step
	return Quantity{Raw: raw, Precision: precision}
}

func QuantityFromRaw(raw int64, precision uint8) Quantity {
	return Quantity{Raw: raw, Precision: precision}
}

func ParseQuantity(s string, precision uint8) (Quantity, error) {
	v, fracDigits, err := parseDecimalString(s)
	if err != nil {
		return Quantity{}, fmt.Errorf("fixed: invalid quantity %q: %w", s, err)
	}
	if fracDigits > int(precision) {
		return Quantity{}, fmt.Errorf("fixed: quantity %q exceeds precision %d", s, precision)
	}
	return Quantity{Raw: v, Precision: precision}, nil
}

func (q Quantity) Float64() float64 { return float64(q.Raw) / float64(FixedScalar) }
func (q Quantity) String() string   { return formatRaw(q.Raw, q.Precision) }
func (q Quantity) IsZero() bool     { return q.Raw == 0 }
func (q Quantity) IsPositive() bool { return q.Raw > 0 }
func (q Quantity) IsNegative() bool { return q.Raw < 0 }

func (q Quantity) Equal(o Quantity) bool        { return q.Raw == o.Raw }
func (q Quantity) LessThan(o Quantity) bool     { return q.Raw < o.Raw }
func (q Quantity) GreaterThan(o Quantity) bool  { return q.Raw > o.Raw }
func (q Quantity) GreaterOrEqual(o Quantity) bool { return q.Raw >= o.Raw }
func (q Quantity) LessOrEqual(o Quantity) bool  { return q.Raw <= o.Raw }

func (q Quantity) Add(o Quantity) Quantity {
	return Quantity{Raw: q.Raw + o.Raw, Precision: maxPrecision(q.Precision, o.Precision)}
}

func (q Quantity) Sub(o Quantity) Quantity {
	return Quantity{Raw: q.Raw - o.Raw, Precision: maxPrecision(q.Precision, o.Precision)}
}

// Min returns the smaller of two quantities, keeping its own precision —
// used throughout matching to compute fill size = min(leaves_taker,
// leaves_resting).
func (q Quantity) Min(o Quantity) Quantity {
	if q.Raw <= o.Raw {
		return q
	}
	return o
}

func maxPrecision(a, b uint8) uint8 {
	if a > b {
		return a
	}
	return b
}

// MulPriceRaw multiplies a quantity by a price, returning the notional
// as a raw value still at FixedScalar resolution but rescaled down by
// one factor of FixedScalar (since both operands already carry that
// factor) — used for value-bar slicing and notional computation.
func MulPriceRaw(p Price, q Quantity) int64 {
	return MulRaw(p.Raw, q.Raw)
}

// MulRaw multiplies two raw values both scaled by FixedScalar, returning
// their product rescaled back down to FixedScalar resolution via a
// 128-bit intermediate (mul64/div128) — the general form MulPriceRaw
// specializes for Price*Quantity. Any raw*raw product (PnL's
// price-diff*signed-qty, for instance) needs this instead of a plain
// int64 multiply, which overflows well within this domain's value range.
func MulRaw(a, b int64) int64 {
	hi, lo := mul64(a, b)
	return div128(hi, lo, FixedScalar)
}

// NotionalToQty inverts MulPriceRaw: given a raw notional (FixedScalar
// resolution) and a price, returns the raw quantity that would produce
// that notional at that price. Used by exposure-based book walks
// (get_avg_px_qty_for_exposure, spec.md §4.4) to convert a remaining
// notional budget into a quantity to consume from a level.
func NotionalToQty(notionalRaw int64, p Price) int64 {
	hi, lo := mul64(notionalRaw, FixedScalar)
	return div128(hi, lo, p.Raw)
}
