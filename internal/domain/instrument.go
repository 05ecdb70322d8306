// Package domain holds the core entity types shared by every execution
// core subsystem (spec.md §3): instruments, accounts, orders, positions,
// order books and bars. Adapted from the teacher's internal/models and
// pkg/types packages, rebuilt on pkg/fixed instead of float64 — exact
// integer arithmetic is mandatory for matching and accounting (spec.md
// §3 "this is mandatory").
package domain

import (
	"github.com/abdoElHodaky/tradsys-core/pkg/fixed"
	"github.com/abdoElHodaky/tradsys-core/pkg/ids"
)

// InstrumentKind distinguishes the instrument variants spec.md §3 names.
type InstrumentKind string

const (
	InstrumentSpot     InstrumentKind = "SPOT"
	InstrumentEquity   InstrumentKind = "EQUITY"
	InstrumentFutures  InstrumentKind = "FUTURES"
	InstrumentPerpetual InstrumentKind = "PERPETUAL"
)

// Instrument is the tradable contract definition. Cached externally;
// the execution core only reads it.
type Instrument struct {
	ID             ids.InstrumentId
	Kind           InstrumentKind
	PricePrecision uint8
	SizePrecision  uint8
	PriceIncrement fixed.Price
	SizeIncrement  fixed.Quantity
	Multiplier     fixed.Quantity // contract multiplier, 1 for spot/equity
	SettlementCcy  fixed.Currency
	BaseCcy        *fixed.Currency // only for spot/currency pairs
	ActivationNs   int64
	ExpirationNs   int64 // 0 means "never expires" (perpetual)
	MaxLeverage    float64
}

// IsActive reports whether ts_now falls within [activation, expiration],
// spec.md §4.6 pre-trade validation rule 1.
func (i Instrument) IsActive(tsNow int64) bool {
	if tsNow < i.ActivationNs {
		return false
	}
	if i.ExpirationNs != 0 && tsNow > i.ExpirationNs {
		return false
	}
	return true
}

// NewPrice / NewQuantity build values aligned to this instrument's
// precision, the normal way order fields are constructed in tests and
// by callers that don't already hold a fixed.Price.
func (i Instrument) NewPrice(value float64) fixed.Price       { return fixed.NewPrice(value, i.PricePrecision) }
func (i Instrument) NewQuantity(value float64) fixed.Quantity { return fixed.NewQuantity(value, i.SizePrecision) }

// Notional returns price * quantity * multiplier as Money in the
// settlement currency — spec.md GLOSSARY "Notional".
func (i Instrument) Notional(price fixed.Price, qty fixed.Quantity) fixed.Money {
	raw := fixed.MulPriceRaw(price, qty)
	raw = fixed.ConvertRaw(raw, i.Multiplier.Raw)
	return fixed.MoneyFromRaw(raw, i.SettlementCcy)
}

// MarginInit implements the instrument's initial-margin model referenced
// by spec.md §4.7: linear (= notional) for spot, notional/leverage for
// futures/perpetual.
func (i Instrument) MarginInit(price fixed.Price, qty fixed.Quantity) fixed.Money {
	notional := i.Notional(price, qty)
	switch i.Kind {
	case InstrumentFutures, InstrumentPerpetual:
		if i.MaxLeverage <= 0 {
			return notional
		}
		raw := int64(float64(notional.Raw) / i.MaxLeverage)
		return fixed.MoneyFromRaw(raw, notional.Currency)
	default:
		return notional
	}
}

// MarginMaint implements the maintenance-margin model; this build uses
// a fixed fraction of the initial margin model evaluated at the mark
// price, matching the simplicity the teacher's risk packages use for
// simulation (internal/risk/engine) rather than a venue's tiered table.
func (i Instrument) MarginMaint(avgPxOpen fixed.Price, qty fixed.Quantity, markPrice fixed.Price) fixed.Money {
	m := i.MarginInit(markPrice, qty)
	// maintenance margin is conventionally a fraction of initial margin;
	// 50% matches common venue defaults used across the retrieved
	// example repos' simulated-margin configs.
	return fixed.MoneyFromRaw(m.Raw/2, m.Currency)
}
