package fixed

import "math/bits"

// mul64 and div128 implement a 128-bit intermediate multiply-then-divide
// so that Price*Quantity notional computation never overflows int64 even
// though both operands are individually scaled by FixedScalar (1e9):
// at max precision two ~9-digit-scaled int64s can produce a product well
// past 2^63. Value/volume bar aggregation (spec.md §4.3, value regime)
// depends on this being exact, not an approximation.
func mul64(a, b int64) (hi, lo uint64) {
	neg := (a < 0) != (b < 0)
	ua, ub := absU64(a), absU64(b)
	hi, lo = bits.Mul64(ua, ub)
	if neg {
		// two's complement negate the 128-bit pair
		lo = ^lo + 1
		hi = ^hi
		if lo == 0 {
			hi++
		}
	}
	return hi, lo
}

// add128 sums two signed 128-bit values, each expressed as the (hi, lo)
// two's-complement pairs mul64 produces. Two's-complement addition is
// valid bit-for-bit regardless of sign, so a plain carrying add suffices.
func add128(hi1, lo1, hi2, lo2 uint64) (hi, lo uint64) {
	var carry uint64
	lo, carry = bits.Add64(lo1, lo2, 0)
	hi, _ = bits.Add64(hi1, hi2, carry)
	return hi, lo
}

// WeightedAvgRaw computes (qtyA*pxA + qtyB*pxB) / totalQty entirely in
// 128-bit intermediates, for blending two FixedScalar-scaled
// quantity/price pairs into one VWAP update (order/position average
// price) without the overflow a plain int64 multiply-then-add risks.
func WeightedAvgRaw(qtyA, pxA, qtyB, pxB, totalQty int64) int64 {
	hi1, lo1 := mul64(qtyA, pxA)
	hi2, lo2 := mul64(qtyB, pxB)
	hi, lo := add128(hi1, lo1, hi2, lo2)
	return div128(hi, lo, totalQty)
}

// RawAccumulator sums raw*raw products in 128-bit space across many
// terms, for book-walk notional accumulation (GetAvgPxForQuantity) where
// a running int64 sum of price.Raw*qty.Raw overflows across levels well
// before the book is exhausted.
type RawAccumulator struct {
	hi, lo uint64
}

func (a *RawAccumulator) AddProduct(x, y int64) {
	hi, lo := mul64(x, y)
	a.hi, a.lo = add128(a.hi, a.lo, hi, lo)
}

// Div returns the accumulated sum divided by divisor as a signed int64.
func (a *RawAccumulator) Div(divisor int64) int64 {
	return div128(a.hi, a.lo, divisor)
}

func absU64(v int64) uint64 {
	if v < 0 {
		return uint64(-v)
	}
	return uint64(v)
}

// div128 divides the signed 128-bit value (hi,lo) by a positive divisor,
// returning a signed int64 result. Panics on overflow/divide-by-zero,
// which should never occur for notionals within the domain this core
// operates in.
func div128(hi, lo uint64, divisor int64) int64 {
	neg := hi>>63 == 1
	if neg {
		lo = ^lo + 1
		hi = ^hi
		if lo == 0 {
			hi++
		}
	}
	q, _ := bits.Div64(hi, lo, uint64(divisor))
	if neg {
		return -int64(q)
	}
	return int64(q)
}
