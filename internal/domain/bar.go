package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/abdoElHodaky/tradsys-core/pkg/errors"
	"github.com/abdoElHodaky/tradsys-core/pkg/fixed"
	"github.com/abdoElHodaky/tradsys-core/pkg/ids"
)

type Aggregation string

const (
	AggTick   Aggregation = "TICK"
	AggVolume Aggregation = "VOLUME"
	AggValue  Aggregation = "VALUE"
	AggSecond Aggregation = "SECOND"
	AggMinute Aggregation = "MINUTE"
	AggHour   Aggregation = "HOUR"
	AggDay    Aggregation = "DAY"
	AggWeek   Aggregation = "WEEK"
	AggMonth  Aggregation = "MONTH"
	AggRenko  Aggregation = "RENKO"
)

type PriceType string

const (
	PriceBid  PriceType = "BID"
	PriceAsk  PriceType = "ASK"
	PriceMid  PriceType = "MID"
	PriceLast PriceType = "LAST"
)

type AggregationSource string

const (
	SourceInternal AggregationSource = "INTERNAL"
	SourceExternal AggregationSource = "EXTERNAL"
)

// BarSpec is (step, aggregation, price_type) per spec.md §3.
type BarSpec struct {
	Step        uint64
	Aggregation Aggregation
	PriceType   PriceType
}

func (s BarSpec) String() string {
	return fmt.Sprintf("%d-%s-%s", s.Step, s.Aggregation, s.PriceType)
}

// BarType is (instrument_id, spec, aggregation_source) with a lossless
// string grammar per spec.md §6:
// <InstrumentId>-<step>-<aggregation>-<price_type>-<INTERNAL|EXTERNAL>
type BarType struct {
	InstrumentId ids.InstrumentId
	Spec         BarSpec
	Source       AggregationSource
}

func (t BarType) String() string {
	return fmt.Sprintf("%s-%s-%s", t.InstrumentId, t.Spec, t.Source)
}

// ParseBarType parses the grammar of spec.md §6, round-tripping losslessly
// with String(). InstrumentId itself may contain '.', but never '-', so
// splitting on '-' from the right is unambiguous.
func ParseBarType(s string) (BarType, error) {
	parts := strings.Split(s, "-")
	if len(parts) < 5 {
		return BarType{}, errors.Newf(errors.KindInvalidState, "bar type %q: expected 5 dash-separated fields", s)
	}
	n := len(parts)
	source := AggregationSource(parts[n-1])
	priceType := PriceType(parts[n-2])
	aggregation := Aggregation(parts[n-3])
	step, err := strconv.ParseUint(parts[n-4], 10, 64)
	if err != nil {
		return BarType{}, errors.Newf(errors.KindInvalidState, "bar type %q: invalid step: %v", s, err)
	}
	instrumentId := strings.Join(parts[:n-4], "-")
	return BarType{
		InstrumentId: ids.InstrumentId(instrumentId),
		Spec:         BarSpec{Step: step, Aggregation: aggregation, PriceType: priceType},
		Source:       source,
	}, nil
}

// Bar is a completed OHLCV bar (spec.md §3).
type Bar struct {
	BarType Type
	Open    fixed.Price
	High    fixed.Price
	Low     fixed.Price
	Close   fixed.Price
	Volume  fixed.Quantity
	TsEvent int64
	TsInit  int64
}

// Type is an alias kept for readability at call sites (Bar.BarType).
type Type = BarType

// SatisfiesInvariants checks I9: low <= min(open,close) <= max(open,close) <= high, volume >= 0.
func (b Bar) SatisfiesInvariants() bool {
	lo := b.Open.Raw
	if b.Close.Raw < lo {
		lo = b.Close.Raw
	}
	hi := b.Open.Raw
	if b.Close.Raw > hi {
		hi = b.Close.Raw
	}
	return b.Low.Raw <= lo && hi <= b.High.Raw && b.Volume.Raw >= 0
}
