package fixed

import (
	"fmt"
	"strconv"
	"strings"
)

// Price is an exact fixed-point price: Raw is expressed at FixedScalar
// resolution, Precision is the number of decimal digits the value is
// quoted/displayed at (instrument.price_precision). Two Prices are
// compared by Raw alone; Precision never participates in comparisons.
type Price struct {
	Raw       int64
	Precision uint8
}

// NewPrice builds a Price from a decimal value, snapped to precision's
// grid by truncating toward zero.
func NewPrice(value float64, precision uint8) Price {
	step := rawStep(precision)
	raw := parseFloat(value)
	// Snap to the precision's grid; callers that need to validate
	// instrument alignment should use Increment checks, this only
	// guards against float round-trip noise.
	raw = (raw / step) * step
	return Price{Raw: raw, Precision: precision}
}

// PriceFromRaw builds a Price directly from a raw value, as used when
// replaying a value already expressed at FixedScalar resolution (e.g.
// from a wire message or from arithmetic on another Price).
func PriceFromRaw(raw int64, precision uint8) Price {
	return Price{Raw: raw, Precision: precision}
}

// ParsePrice parses a decimal string such as "1502.00" at the given
// precision, failing if the string carries more digits than precision
// allows.
func ParsePrice(s string, precision uint8) (Price, error) {
	v, fracDigits, err := parseDecimalString(s)
	if err != nil {
		return Price{}, fmt.Errorf("fixed: invalid price %q: %w", s, err)
	}
	if fracDigits > int(precision) {
		return Price{}, fmt.Errorf("fixed: price %q exceeds precision %d", s, precision)
	}
	return Price{Raw: v, Precision: precision}, nil
}

// Float64 returns the value as a float64, for display/logging only —
// never for comparisons or arithmetic.
func (p Price) Float64() float64 {
	return float64(p.Raw) / float64(FixedScalar)
}

// String renders the price at its own precision, e.g. "1502.00".
func (p Price) String() string {
	return formatRaw(p.Raw, p.Precision)
}

func (p Price) IsZero() bool { return p.Raw == 0 }

func (p Price) Equal(o Price) bool       { return p.Raw == o.Raw }
func (p Price) LessThan(o Price) bool    { return p.Raw < o.Raw }
func (p Price) GreaterThan(o Price) bool { return p.Raw > o.Raw }
func (p Price) LessOrEqual(o Price) bool { return p.Raw <= o.Raw }
func (p Price) GreaterOrEqual(o Price) bool {
	return p.Raw >= o.Raw
}

// Add/Sub return a Price carrying the receiver's precision; used for
// trailing-offset and Renko brick arithmetic where both operands share
// an instrument's price_increment.
func (p Price) Add(raw int64) Price { return Price{Raw: p.Raw + raw, Precision: p.Precision} }
func (p Price) Sub(raw int64) Price { return Price{Raw: p.Raw - raw, Precision: p.Precision} }

// Diff returns the signed raw difference p - o.
func (p Price) Diff(o Price) int64 { return p.Raw - o.Raw }

// formatRaw renders a raw FixedScalar-resolution value as a decimal
// string truncated to precision digits (precision is always <=
// MaxPrecision so this never loses information that matters).
func formatRaw(raw int64, precision uint8) string {
	neg := raw < 0
	if neg {
		raw = -raw
	}
	whole := raw / FixedScalar
	frac := raw % FixedScalar
	fracStr := fmt.Sprintf("%09d", frac)
	fracStr = fracStr[:precision]
	out := strconv.FormatInt(whole, 10)
	if precision > 0 {
		out += "." + fracStr
	}
	if neg && raw != 0 {
		out = "-" + out
	}
	return out
}

// parseDecimalString parses "123.456" into its raw FixedScalar value and
// the number of fractional digits supplied.
func parseDecimalString(s string) (raw int64, fracDigits int, err error) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	parts := strings.SplitN(s, ".", 2)
	whole, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, err
	}
	raw = whole * FixedScalar
	if len(parts) == 2 {
		frac := parts[1]
		fracDigits = len(frac)
		if fracDigits > int(MaxPrecision) {
			return 0, 0, fmt.Errorf("too many fractional digits: %q", s)
		}
		fracPadded := frac + strings.Repeat("0", int(MaxPrecision)-fracDigits)
		fracVal, err := strconv.ParseInt(fracPadded, 10, 64)
		if err != nil {
			return 0, 0, err
		}
		raw += fracVal
	}
	if neg {
		raw = -raw
	}
	return raw, fracDigits, nil
}
