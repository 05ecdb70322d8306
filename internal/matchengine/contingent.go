package matchengine

import (
	"github.com/abdoElHodaky/tradsys-core/internal/domain"
	"github.com/abdoElHodaky/tradsys-core/pkg/ids"
)

// contingentAction is what propagateContingent decided to do with a
// linked order, for the caller to execute against the Cache/bus.
type contingentAction struct {
	ClientOrderId     ids.ClientOrderId
	Release           bool   // OTO: parent activated, release child to submission
	Reject            bool   // OTO: parent terminated non-fill, reject child
	Cancel            bool   // OCO/OUO: cancel this peer
	PropagateQtyRaw   *int64 // OUO: new quantity to apply to the peer
	PropagatePriceRaw *int64 // OUO: new price to apply to the peer, if any
}

// propagateContingent computes the set of actions to take on an
// order's linked orders after `trigger` happened to `order` (spec.md
// §4.6 "Contingent-order propagation"). `order` is the one the event
// just happened to; LinkedOrderIds holds its OTO children or its
// OCO/OUO peers depending on ContingencyType.
func propagateContingent(order *domain.Order, trigger domain.OrderEventKind) []contingentAction {
	var actions []contingentAction

	switch order.ContingencyType {
	case domain.ContingencyOTO:
		switch trigger {
		case domain.EvtAccepted:
			for _, child := range order.LinkedOrderIds {
				actions = append(actions, contingentAction{ClientOrderId: child, Release: true})
			}
		case domain.EvtRejected, domain.EvtCanceled, domain.EvtExpired, domain.EvtDenied:
			for _, child := range order.LinkedOrderIds {
				actions = append(actions, contingentAction{ClientOrderId: child, Reject: true})
			}
		}
	case domain.ContingencyOCO:
		if trigger == domain.EvtFilled {
			for _, peer := range order.LinkedOrderIds {
				actions = append(actions, contingentAction{ClientOrderId: peer, Cancel: true})
			}
		}
	case domain.ContingencyOUO:
		switch trigger {
		case domain.EvtUpdated:
			qty := order.Quantity.Raw
			px := priceRaw(order)
			for _, peer := range order.LinkedOrderIds {
				actions = append(actions, contingentAction{ClientOrderId: peer, PropagateQtyRaw: &qty, PropagatePriceRaw: px})
			}
		case domain.EvtFilled, domain.EvtCanceled, domain.EvtExpired, domain.EvtRejected, domain.EvtDenied:
			for _, peer := range order.LinkedOrderIds {
				actions = append(actions, contingentAction{ClientOrderId: peer, Cancel: true})
			}
		}
	}
	return actions
}

func priceRaw(order *domain.Order) *int64 {
	if order.Price == nil {
		return nil
	}
	raw := order.Price.Raw
	return &raw
}
