// Package fixed implements the exact fixed-point numerics required by the
// execution core: Price and Quantity carry a decimal precision and store
// their value as a scaled int64 ("raw"). All matching, aggregation and
// accounting arithmetic operates on raw values so comparisons are exact
// integer comparisons, never float64 comparisons.
package fixed

import (
	"fmt"
	"math"
)

// FixedScalar is the single global scale factor (spec.md §3: "raw value
// scaled by a global FIXED_SCALAR = 10^P"). Every Price and Quantity in
// this build, regardless of its own decimal precision, stores raw at
// this resolution; precision only constrains how many of the low digits
// are permitted to be non-zero and how the value is printed.
const FixedScalar int64 = 1_000_000_000

// MaxPrecision is the largest precision representable without losing
// resolution against FixedScalar.
const MaxPrecision uint8 = 9

var pow10 = [MaxPrecision + 1]int64{
	1, 10, 100, 1_000, 10_000, 100_000,
	1_000_000, 10_000_000, 100_000_000, 1_000_000_000,
}

// scalarFor returns 10^precision via lookup table rather than math.Pow,
// which would introduce float imprecision into an integer scale factor.
func scalarFor(precision uint8) int64 {
	if precision > MaxPrecision {
		panic(fmt.Sprintf("fixed: precision %d exceeds max %d", precision, MaxPrecision))
	}
	return pow10[precision]
}

// rawStep is the smallest raw increment a value of the given precision
// may legally take: FixedScalar / 10^precision.
func rawStep(precision uint8) int64 {
	return FixedScalar / scalarFor(precision)
}

// parseFloat converts a decimal float64 into raw at FixedScalar
// resolution using round-half-away-from-zero.
func parseFloat(value float64) int64 {
	scaled := value * float64(FixedScalar)
	if scaled >= 0 {
		return int64(math.Floor(scaled + 0.5))
	}
	return int64(math.Ceil(scaled - 0.5))
}
