package matchengine

import (
	"github.com/abdoElHodaky/tradsys-core/internal/domain"
)

// RejectReason names which of spec.md §4.6's seven pre-trade
// validation rules failed.
type RejectReason string

const (
	RejectInstrumentState  RejectReason = "INSTRUMENT_STATE"
	RejectPrecision        RejectReason = "PRECISION"
	RejectShortSellCash    RejectReason = "SHORT_SELL_CASH_ACCOUNT"
	RejectContingentParent RejectReason = "CONTINGENT_PARENT_CLOSED"
	RejectContingentPeer   RejectReason = "CONTINGENT_PEER_CLOSED"
	RejectPostOnlyCross    RejectReason = "POST_ONLY_WOULD_CROSS"
	RejectStopInTheMoney   RejectReason = "STOP_IN_THE_MONEY"
)

// ValidationResult is a pre-trade validation rejection and its reason;
// a nil result means the order is admitted. The reduce-only quantity
// clamp (rule 4) is not a rejection and is reported by
// validateReduceOnly instead.
type ValidationResult struct {
	Rejected bool
	Reason   RejectReason
	Detail   string
}

// validateInstrumentState implements rule 1.
func validateInstrumentState(instrument *domain.Instrument, tsNow int64) *ValidationResult {
	if !instrument.IsActive(tsNow) {
		return &ValidationResult{Rejected: true, Reason: RejectInstrumentState, Detail: "instrument not active at ts_now"}
	}
	return nil
}

// validatePrecision implements rule 2.
func validatePrecision(instrument *domain.Instrument, order *domain.Order) *ValidationResult {
	if order.Quantity.Precision != instrument.SizePrecision {
		return &ValidationResult{Rejected: true, Reason: RejectPrecision, Detail: "quantity precision mismatch"}
	}
	if order.Price != nil && order.Price.Precision != instrument.PricePrecision {
		return &ValidationResult{Rejected: true, Reason: RejectPrecision, Detail: "price precision mismatch"}
	}
	if order.TriggerPrice != nil && order.TriggerPrice.Precision != instrument.PricePrecision {
		return &ValidationResult{Rejected: true, Reason: RejectPrecision, Detail: "trigger_price precision mismatch"}
	}
	return nil
}

// validateCashShortSell implements rule 3: a Cash account cannot
// short-sell an equity without holding a long position at least as
// large as the sell order.
func validateCashShortSell(accountType domain.AccountType, instrument *domain.Instrument, order *domain.Order, netSignedQty int64) *ValidationResult {
	if accountType != domain.AccountCash || instrument.Kind != domain.InstrumentEquity {
		return nil
	}
	if order.Side != domain.Sell {
		return nil
	}
	if netSignedQty-order.Quantity.Raw < 0 {
		return &ValidationResult{Rejected: true, Reason: RejectShortSellCash, Detail: "cash account cannot short-sell equity"}
	}
	return nil
}

// validateReduceOnly implements rule 4, including the documented fix
// for the reduce-only overshoot: rather than rejecting an order that
// would exceed the open position, the engine clamps its quantity down
// to the remaining open size and emits Updated.
func validateReduceOnly(order *domain.Order, netSignedQty int64) (adjustedRaw int64, adjusted bool) {
	if !order.ReduceOnly {
		return 0, false
	}
	signedOrderQty := order.Quantity.Raw
	if order.Side == domain.Sell {
		signedOrderQty = -signedOrderQty
	}
	resultingNet := netSignedQty + signedOrderQty
	crossesZero := (resultingNet > 0 && netSignedQty < 0) || (resultingNet < 0 && netSignedQty > 0)
	movesTowardZero := absInt64(resultingNet) <= absInt64(netSignedQty) && !crossesZero
	if movesTowardZero {
		return 0, false
	}
	// clamp to the remaining open size.
	remainingOpen := absInt64(netSignedQty)
	if remainingOpen < order.Quantity.Raw {
		return remainingOpen, true
	}
	return 0, false
}

// validateContingentParent implements rule 5's OTO-child check.
func validateContingentParent(parentStatus domain.OrderStatus) *ValidationResult {
	switch parentStatus {
	case domain.StatusRejected, domain.StatusCanceled, domain.StatusExpired, domain.StatusDenied, domain.StatusFilled:
		return &ValidationResult{Rejected: true, Reason: RejectContingentParent, Detail: "OTO parent is terminal and non-active"}
	}
	return nil
}

// validateContingentPeer implements rule 5's OCO/OUO peer check.
func validateContingentPeer(peerClosed bool) *ValidationResult {
	if peerClosed {
		return &ValidationResult{Rejected: true, Reason: RejectContingentPeer, Detail: "contingent peer already closed"}
	}
	return nil
}

// validatePostOnly implements rule 6: a limit order whose price would
// execute immediately against the current book is rejected with
// due_post_only=true.
func validatePostOnly(order *domain.Order, bestOppositePrice *int64) *ValidationResult {
	if !order.PostOnly || order.Price == nil || bestOppositePrice == nil {
		return nil
	}
	wouldCross := false
	if order.Side == domain.Buy {
		wouldCross = order.Price.Raw >= *bestOppositePrice
	} else {
		wouldCross = order.Price.Raw <= *bestOppositePrice
	}
	if wouldCross {
		return &ValidationResult{Rejected: true, Reason: RejectPostOnlyCross, Detail: "post_only order would cross the book"}
	}
	return nil
}

// validateStopInTheMoney implements rule 7.
func validateStopInTheMoney(rejectStopOrders bool, alreadyTriggerable bool) *ValidationResult {
	if rejectStopOrders && alreadyTriggerable {
		return &ValidationResult{Rejected: true, Reason: RejectStopInTheMoney, Detail: "stop trigger already in-the-money at admission"}
	}
	return nil
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
