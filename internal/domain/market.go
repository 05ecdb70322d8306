package domain

import (
	"github.com/abdoElHodaky/tradsys-core/pkg/fixed"
	"github.com/abdoElHodaky/tradsys-core/pkg/ids"
)

// QuoteTick is a top-of-book bid/ask snapshot.
type QuoteTick struct {
	InstrumentId ids.InstrumentId
	BidPrice     fixed.Price
	AskPrice     fixed.Price
	BidSize      fixed.Quantity
	AskSize      fixed.Quantity
	TsEvent      int64
	TsInit       int64
}

// TradeTick is a single executed trade observed from the market feed.
type TradeTick struct {
	InstrumentId ids.InstrumentId
	Price        fixed.Price
	Size         fixed.Quantity
	AggressorSide Side
	TradeId      ids.TradeId
	TsEvent      int64
	TsInit       int64
}

type BookType string

const (
	BookL1_MBP BookType = "L1_MBP"
	BookL2_MBP BookType = "L2_MBP"
	BookL3_MBO BookType = "L3_MBO"
)

type BookAction string

const (
	BookActionAdd    BookAction = "ADD"
	BookActionUpdate BookAction = "UPDATE"
	BookActionDelete BookAction = "DELETE"
	BookActionClear  BookAction = "CLEAR"
)

// BookOrder is a single resting order as seen at the book level
// (spec.md §3: "each level holds a list of BookOrder(side, price,
// quantity, order_id)").
type BookOrder struct {
	Side     Side
	Price    fixed.Price
	Quantity fixed.Quantity
	OrderId  string // venue order id string, or synthetic id for L2 aggregates
	Seq      uint64
}

// OrderBookDelta is one incremental book update (spec.md §4.4 apply(delta)).
type OrderBookDelta struct {
	InstrumentId ids.InstrumentId
	Action       BookAction
	Order        BookOrder
	Sequence     uint64
	TsEvent      int64
	TsInit       int64
}

// OrderList groups orders admitted together under one OrderListId.
type OrderList struct {
	ID           ids.OrderListId
	InstrumentId ids.InstrumentId
	StrategyId   ids.StrategyId
	OrderIds     []ids.ClientOrderId
}
