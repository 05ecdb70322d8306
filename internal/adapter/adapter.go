// Package adapter defines the venue adapter contract (spec.md §6):
// the inbound surface a per-connection task exposes to the execution
// core. Concrete venue clients (network transports, wire protocols)
// are out of scope (spec.md §1 Non-goals) — this package is the
// interface boundary only, consumed by internal/broadcaster.
package adapter

import (
	"context"

	"github.com/abdoElHodaky/tradsys-core/internal/domain"
	"github.com/abdoElHodaky/tradsys-core/pkg/fixed"
	"github.com/abdoElHodaky/tradsys-core/pkg/ids"
)

// OrderStatusReport is a venue's acknowledgement of a submit/cancel/
// modify command.
type OrderStatusReport struct {
	VenueOrderId ids.VenueOrderId
	Status       domain.OrderStatus
	Reason       string
}

// SubmitRequest carries every field spec.md §6's submit_order names.
type SubmitRequest struct {
	InstrumentId    ids.InstrumentId
	ClientOrderId   ids.ClientOrderId
	Side            domain.Side
	Type            domain.OrderType
	Quantity        fixed.Quantity
	TimeInForce     domain.TimeInForce
	Price           *fixed.Price
	TriggerPrice    *fixed.Price
	TriggerType     domain.TriggerType
	DisplayQty      *fixed.Quantity
	PostOnly        bool
	ReduceOnly      bool
	OrderListId     ids.OrderListId
	ContingencyType domain.ContingencyType
}

// Adapter is the per-connection venue client interface the submit-
// broadcaster (internal/broadcaster) and the Matching Engine's
// redundancy layer depend on (spec.md §6, §9 "trait-object note": Go
// expresses this as an ordinary interface, no trait-object indirection
// needed).
type Adapter interface {
	Name() string
	SubmitOrder(ctx context.Context, req SubmitRequest) (OrderStatusReport, error)
	CancelOrder(ctx context.Context, instrumentId ids.InstrumentId, clientOrderId ids.ClientOrderId) (OrderStatusReport, error)
	ModifyOrder(ctx context.Context, instrumentId ids.InstrumentId, clientOrderId ids.ClientOrderId, newPrice *fixed.Price, newQty *fixed.Quantity) (OrderStatusReport, error)
	CancelAll(ctx context.Context, instrumentId ids.InstrumentId, side *domain.Side) error
	HealthCheck(ctx context.Context) error
	AddInstrument(ctx context.Context, instrument *domain.Instrument) error
}
