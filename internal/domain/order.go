package domain

import (
	"github.com/abdoElHodaky/tradsys-core/pkg/fixed"
	"github.com/abdoElHodaky/tradsys-core/pkg/ids"
)

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

type OrderType string

const (
	OrderTypeMarket              OrderType = "MARKET"
	OrderTypeLimit               OrderType = "LIMIT"
	OrderTypeStopMarket          OrderType = "STOP_MARKET"
	OrderTypeStopLimit           OrderType = "STOP_LIMIT"
	OrderTypeMarketIfTouched     OrderType = "MARKET_IF_TOUCHED"
	OrderTypeLimitIfTouched      OrderType = "LIMIT_IF_TOUCHED"
	OrderTypeMarketToLimit       OrderType = "MARKET_TO_LIMIT"
	OrderTypeTrailingStopMarket  OrderType = "TRAILING_STOP_MARKET"
	OrderTypeTrailingStopLimit   OrderType = "TRAILING_STOP_LIMIT"
)

// IsStopFamily reports whether this order type rests in the trigger
// watch set rather than directly in the book (spec.md §4.5 Triggering
// rules table).
func (t OrderType) IsStopFamily() bool {
	switch t {
	case OrderTypeStopMarket, OrderTypeStopLimit, OrderTypeMarketIfTouched,
		OrderTypeLimitIfTouched, OrderTypeTrailingStopMarket, OrderTypeTrailingStopLimit:
		return true
	}
	return false
}

// HasLimitPrice reports whether the order carries a resting limit price
// once triggered (or immediately, for plain LIMIT).
func (t OrderType) HasLimitPrice() bool {
	switch t {
	case OrderTypeLimit, OrderTypeStopLimit, OrderTypeLimitIfTouched,
		OrderTypeMarketToLimit, OrderTypeTrailingStopLimit:
		return true
	}
	return false
}

type TriggerType string

const (
	TriggerDefault  TriggerType = "DEFAULT"
	TriggerBidAsk   TriggerType = "BID_ASK"
	TriggerLastPrice TriggerType = "LAST_PRICE"
	TriggerMarkPrice TriggerType = "MARK_PRICE"
)

type TrailingOffsetType string

const (
	TrailingOffsetPrice      TrailingOffsetType = "PRICE"
	TrailingOffsetBasisPoints TrailingOffsetType = "BASIS_POINTS"
	TrailingOffsetTicks      TrailingOffsetType = "TICKS"
	TrailingOffsetPriceTier  TrailingOffsetType = "PRICE_TIER"
)

type TimeInForce string

const (
	TIF_GTC          TimeInForce = "GTC"
	TIF_GTD          TimeInForce = "GTD"
	TIF_IOC          TimeInForce = "IOC"
	TIF_FOK          TimeInForce = "FOK"
	TIF_DAY          TimeInForce = "DAY"
	TIF_AT_THE_OPEN  TimeInForce = "AT_THE_OPEN"
	TIF_AT_THE_CLOSE TimeInForce = "AT_THE_CLOSE"
)

type ContingencyType string

const (
	ContingencyNone ContingencyType = "NONE"
	ContingencyOTO  ContingencyType = "OTO"
	ContingencyOCO  ContingencyType = "OCO"
	ContingencyOUO  ContingencyType = "OUO"
)

// OrderStatus is the order state machine (spec.md §4.6).
type OrderStatus string

const (
	StatusInitialized     OrderStatus = "INITIALIZED"
	StatusSubmitted       OrderStatus = "SUBMITTED"
	StatusAccepted        OrderStatus = "ACCEPTED"
	StatusTriggered       OrderStatus = "TRIGGERED"
	StatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	StatusFilled          OrderStatus = "FILLED"
	StatusPendingCancel   OrderStatus = "PENDING_CANCEL"
	StatusCanceled        OrderStatus = "CANCELED"
	StatusRejected        OrderStatus = "REJECTED"
	StatusExpired         OrderStatus = "EXPIRED"
	StatusDenied          OrderStatus = "DENIED"
)

// IsTerminal reports whether status is one of the state machine's
// terminal states (spec.md §4.6).
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case StatusFilled, StatusCanceled, StatusRejected, StatusExpired, StatusDenied:
		return true
	}
	return false
}

func (s OrderStatus) IsOpen() bool {
	switch s {
	case StatusAccepted, StatusTriggered, StatusPartiallyFilled, StatusPendingCancel:
		return true
	}
	return false
}

// OrderEventKind is the lifecycle event emitted on the bus for each
// state transition (spec.md §4.6 command surface / event emission
// order).
type OrderEventKind string

const (
	EvtSubmitted        OrderEventKind = "OrderSubmitted"
	EvtAccepted         OrderEventKind = "OrderAccepted"
	EvtRejected         OrderEventKind = "OrderRejected"
	EvtTriggered        OrderEventKind = "OrderTriggered"
	EvtUpdated          OrderEventKind = "OrderUpdated"
	EvtFilled           OrderEventKind = "OrderFilled"
	EvtCanceled         OrderEventKind = "OrderCanceled"
	EvtExpired          OrderEventKind = "OrderExpired"
	EvtDenied           OrderEventKind = "OrderDenied"
	EvtPendingCancel    OrderEventKind = "OrderPendingCancel"
	EvtModifyRejected   OrderEventKind = "OrderModifyRejected"
	EvtCancelRejected   OrderEventKind = "OrderCancelRejected"
)

// OrderEvent is one entry of an order's owned event history (spec.md §3
// "An order owns its event history").
type OrderEvent struct {
	Kind          OrderEventKind
	TsEvent       int64
	TsInit        int64
	Reason        string
	DuePostOnly   bool
	LastPx        fixed.Price
	LastQty       fixed.Quantity
	VenueOrderId  ids.VenueOrderId
	Quantity      fixed.Quantity
	Price         *fixed.Price
}

// Order is the execution core's order aggregate (spec.md §3).
type Order struct {
	ClientOrderId   ids.ClientOrderId
	VenueOrderId    ids.VenueOrderId
	InstrumentId    ids.InstrumentId
	AccountId       ids.AccountId
	StrategyId      ids.StrategyId
	TraderId        ids.TraderId
	ClientId        ids.ClientId

	Side            Side
	Type            OrderType
	Quantity        fixed.Quantity
	FilledQty       fixed.Quantity
	CanceledQty     fixed.Quantity
	Price           *fixed.Price
	TriggerPrice    *fixed.Price
	TriggerType     TriggerType
	TrailingOffset  float64
	TrailingOffsetType TrailingOffsetType

	TimeInForce     TimeInForce
	ExpireTimeNs    int64
	PostOnly        bool
	ReduceOnly      bool
	DisplayQty      *fixed.Quantity
	EmulationTrigger TriggerType

	ExecAlgorithmId  ids.ExecAlgorithmId
	ExecSpawnId      ids.ClientOrderId // parent, if this order was spawned
	ContingencyType  ContingencyType
	LinkedOrderIds   []ids.ClientOrderId
	ParentOrderId    ids.ClientOrderId
	OrderListId      ids.OrderListId

	Status   OrderStatus
	AvgPx    fixed.Price

	TsAccepted int64

	events []OrderEvent
}

// LeavesQty = quantity - filled_qty - canceled_qty (spec.md §3,
// invariant I3; a canceled or expired order has no leaves).
func (o *Order) LeavesQty() fixed.Quantity {
	return fixed.Quantity{Raw: o.Quantity.Raw - o.FilledQty.Raw - o.CanceledQty.Raw, Precision: o.Quantity.Precision}
}

// SignedQty returns quantity signed by side, positive for Buy.
func (o *Order) SignedQty() int64 {
	if o.Side == Sell {
		return -o.LeavesQty().Raw
	}
	return o.LeavesQty().Raw
}

// Events returns the order's owned event history.
func (o *Order) Events() []OrderEvent { return o.events }

// applyEvent appends an event and performs the bookkeeping that event
// kind always carries (filled qty / avg px update, status transition).
// State-machine legality is checked by the engine (internal/matchengine),
// not here — Order itself is a plain aggregate, consistent with the
// teacher's internal/models.Order doing its own small mutations
// (Fill/Cancel/Reject) without a separate state-machine type.
func (o *Order) applyEvent(evt OrderEvent) {
	o.events = append(o.events, evt)
	switch evt.Kind {
	case EvtSubmitted:
		o.Status = StatusSubmitted
	case EvtAccepted:
		o.Status = StatusAccepted
		o.VenueOrderId = evt.VenueOrderId
		o.TsAccepted = evt.TsInit
	case EvtRejected:
		o.Status = StatusRejected
	case EvtTriggered:
		o.Status = StatusTriggered
	case EvtUpdated:
		if !evt.Quantity.IsZero() {
			o.Quantity = evt.Quantity
		}
		if evt.Price != nil {
			o.Price = evt.Price
		}
	case EvtFilled:
		o.applyFill(evt.LastPx, evt.LastQty)
	case EvtCanceled:
		o.CanceledQty = o.LeavesQty()
		o.Status = StatusCanceled
	case EvtExpired:
		o.CanceledQty = o.LeavesQty()
		o.Status = StatusExpired
	case EvtDenied:
		o.Status = StatusDenied
	case EvtPendingCancel:
		o.Status = StatusPendingCancel
	}
}

// applyFill updates filled_qty and VWAP avg_px, then resolves the
// terminal/partial status (spec.md invariant I3).
func (o *Order) applyFill(px fixed.Price, qty fixed.Quantity) {
	prevFilled := o.FilledQty
	totalFilled := prevFilled.Raw + qty.Raw
	if totalFilled == 0 {
		o.AvgPx = px
	} else {
		avgRaw := fixed.WeightedAvgRaw(prevFilled.Raw, o.AvgPx.Raw, qty.Raw, px.Raw, totalFilled)
		o.AvgPx = fixed.PriceFromRaw(avgRaw, px.Precision)
	}
	o.FilledQty = fixed.Quantity{Raw: totalFilled, Precision: qty.Precision}
	if o.LeavesQty().Raw <= 0 {
		o.Status = StatusFilled
	} else {
		o.Status = StatusPartiallyFilled
	}
}

// OrderEventMessage is the bus payload published on events.order.*
// (spec.md §4.2/§4.8): the order as of applying evt, plus the event
// itself.
type OrderEventMessage struct {
	Order *Order
	Event OrderEvent
}

// Apply appends evt to the order's history and mutates state; exported
// so the matching engine (the only legal mutator, per spec.md §4.6) can
// drive transitions while Order remains a plain data aggregate.
func (o *Order) Apply(evt OrderEvent) { o.applyEvent(evt) }

// QuantityIdentity checks invariant P6: quantity = filled + leaves + canceled.
func (o *Order) QuantityIdentity() bool {
	return o.Quantity.Raw == o.FilledQty.Raw+o.LeavesQty().Raw+o.CanceledQty.Raw
}
