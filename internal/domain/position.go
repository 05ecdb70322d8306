package domain

import (
	"github.com/abdoElHodaky/tradsys-core/pkg/fixed"
	"github.com/abdoElHodaky/tradsys-core/pkg/ids"
)

type PositionSide string

const (
	PositionLong  PositionSide = "LONG"
	PositionShort PositionSide = "SHORT"
	PositionFlat  PositionSide = "FLAT"
)

// Fill is one fill applied to a position (spec.md §3: "A position
// applies a sequence of fills").
type Fill struct {
	Side    Side
	Price   fixed.Price
	Qty     fixed.Quantity
	TsEvent int64
}

// Position is the execution core's position aggregate.
type Position struct {
	ID           ids.PositionId
	InstrumentId ids.InstrumentId
	StrategyId   ids.StrategyId
	AccountId    ids.AccountId

	EntrySide  Side
	Side       PositionSide
	Quantity   fixed.Quantity // always >= 0, magnitude
	SignedQty  int64          // raw, positive = long, negative = short
	PeakQty    fixed.Quantity

	AvgPxOpen  fixed.Price
	AvgPxClose *fixed.Price
	RealizedPnl fixed.Money

	TsOpened int64
	TsLast   int64
	TsClosed int64

	ClientOrderIds []ids.ClientOrderId

	multiplier fixed.Quantity
}

// NewPosition creates a flat position; its first ApplyFill opens it.
func NewPosition(id ids.PositionId, instrument ids.InstrumentId, strategy ids.StrategyId, account ids.AccountId, multiplier fixed.Quantity, settlementCcy fixed.Currency) *Position {
	return &Position{
		ID:           id,
		InstrumentId: instrument,
		StrategyId:   strategy,
		AccountId:    account,
		Side:         PositionFlat,
		RealizedPnl:  fixed.MoneyFromRaw(0, settlementCcy),
		multiplier:   multiplier,
	}
}

// ApplyFill updates VWAP open (same-direction fill) or realized PnL and
// quantity (opposite-direction fill), per spec.md §3. A fill that flips
// the position through flat first closes the existing side, books
// realized PnL on the closed portion, then opens the remainder on the
// new side — the conventional "flip" handling implied by signed_qty
// arithmetic.
func (p *Position) ApplyFill(f Fill) {
	fillSigned := f.Qty.Raw
	if f.Side == Sell {
		fillSigned = -fillSigned
	}

	if p.SignedQty == 0 {
		p.openFromFlat(f, fillSigned)
	} else if sameSign(p.SignedQty, fillSigned) {
		p.increase(f, fillSigned)
	} else {
		p.reduceOrFlip(f, fillSigned)
	}

	p.TsLast = f.TsEvent
	p.refreshSide()
	p.trackPeak()
}

func (p *Position) openFromFlat(f Fill, fillSigned int64) {
	p.EntrySide = f.Side
	p.AvgPxOpen = f.Price
	p.SignedQty = fillSigned
	p.Quantity = fixed.Quantity{Raw: absInt64(fillSigned), Precision: f.Qty.Precision}
	p.TsOpened = f.TsEvent
	p.ClientOrderIds = nil
}

func (p *Position) increase(f Fill, fillSigned int64) {
	prevQty := absInt64(p.SignedQty)
	newQty := prevQty + absInt64(fillSigned)
	// VWAP open: (prevQty*avgPx + fillQty*fillPx) / newQty, via a 128-bit
	// accumulator since both products individually overflow int64 well
	// within this domain's value range.
	avgRaw := fixed.WeightedAvgRaw(prevQty, p.AvgPxOpen.Raw, absInt64(fillSigned), f.Price.Raw, newQty)
	p.AvgPxOpen = fixed.PriceFromRaw(avgRaw, f.Price.Precision)
	p.SignedQty += fillSigned
	p.Quantity = fixed.Quantity{Raw: newQty, Precision: f.Qty.Precision}
}

// reduceOrFlip handles a fill whose side opposes the current position.
func (p *Position) reduceOrFlip(f Fill, fillSigned int64) {
	closingQty := minInt64(absInt64(p.SignedQty), absInt64(fillSigned))
	pnlPerUnit := f.Price.Raw - p.AvgPxOpen.Raw
	if p.SignedQty < 0 {
		pnlPerUnit = -pnlPerUnit
	}
	realizedRaw := fixed.ConvertRaw(fixed.MulRaw(pnlPerUnit, closingQty), p.multiplier.Raw)
	p.RealizedPnl = p.RealizedPnl.Add(fixed.MoneyFromRaw(realizedRaw, p.RealizedPnl.Currency))

	remaining := p.SignedQty + fillSigned
	if remaining == 0 {
		p.AvgPxClose = &f.Price
		p.TsClosed = f.TsEvent
		p.SignedQty = 0
		p.Quantity = fixed.Quantity{Raw: 0, Precision: f.Qty.Precision}
		return
	}

	if sameSign(remaining, p.SignedQty) {
		// partial reduce, avg_px_open unchanged
		p.SignedQty = remaining
		p.Quantity = fixed.Quantity{Raw: absInt64(remaining), Precision: f.Qty.Precision}
		return
	}

	// flip through flat: close old side fully, open remainder on new side
	p.AvgPxClose = &f.Price
	p.EntrySide = f.Side
	p.AvgPxOpen = f.Price
	p.SignedQty = remaining
	p.Quantity = fixed.Quantity{Raw: absInt64(remaining), Precision: f.Qty.Precision}
	p.TsOpened = f.TsEvent
}

func (p *Position) refreshSide() {
	switch {
	case p.SignedQty > 0:
		p.Side = PositionLong
	case p.SignedQty < 0:
		p.Side = PositionShort
	default:
		p.Side = PositionFlat
	}
}

func (p *Position) trackPeak() {
	if absInt64(p.SignedQty) > p.PeakQty.Raw {
		p.PeakQty = fixed.Quantity{Raw: absInt64(p.SignedQty), Precision: p.Quantity.Precision}
	}
}

// IsOpen / IsClosed mirror the Cache's open/closed membership sets
// (spec.md §4.1).
func (p *Position) IsOpen() bool   { return p.Side != PositionFlat }
func (p *Position) IsClosed() bool { return p.Side == PositionFlat && p.TsClosed != 0 }

func sameSign(a, b int64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
