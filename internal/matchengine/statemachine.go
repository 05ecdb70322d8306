// Package matchengine implements the Matching Engine (C6): the
// per-instrument orchestrator that validates, admits, matches, and
// emits events for orders (spec.md §4.6). Grounded on the teacher's
// internal/orders/matching engine_core.go (zap-logged, mutex-guarded
// per-instrument engine, sequential-id binding) composed with
// internal/matchcore for the matching mechanics, internal/cache for
// entity storage, and internal/bus for event emission.
package matchengine

import "github.com/abdoElHodaky/tradsys-core/internal/domain"

// legalTransitions encodes spec.md §4.6's order state machine diagram.
// A transition not listed is an OrderStateMachineViolation.
var legalTransitions = map[domain.OrderStatus]map[domain.OrderEventKind]bool{
	domain.StatusInitialized: {
		domain.EvtSubmitted: true,
	},
	domain.StatusSubmitted: {
		domain.EvtAccepted: true,
		domain.EvtRejected: true,
		domain.EvtDenied:   true,
	},
	domain.StatusAccepted: {
		domain.EvtTriggered:      true,
		domain.EvtFilled:         true,
		domain.EvtUpdated:        true,
		domain.EvtPendingCancel:  true,
		domain.EvtExpired:        true,
		domain.EvtCanceled:       true,
		domain.EvtModifyRejected: true,
		domain.EvtCancelRejected: true,
	},
	domain.StatusTriggered: {
		domain.EvtFilled:         true,
		domain.EvtUpdated:        true,
		domain.EvtPendingCancel:  true,
		domain.EvtExpired:        true,
		domain.EvtCanceled:       true,
		domain.EvtModifyRejected: true,
		domain.EvtCancelRejected: true,
	},
	domain.StatusPartiallyFilled: {
		domain.EvtFilled:         true,
		domain.EvtUpdated:        true,
		domain.EvtPendingCancel:  true,
		domain.EvtExpired:        true,
		domain.EvtCanceled:       true,
		domain.EvtModifyRejected: true,
		domain.EvtCancelRejected: true,
	},
	domain.StatusPendingCancel: {
		domain.EvtCanceled:       true,
		domain.EvtFilled:         true,
		domain.EvtCancelRejected: true,
	},
}

// legalTransition reports whether evt is a legal event to apply to an
// order currently in status (spec.md §4.6: "Transitions are validated
// by the order type; invalid transitions raise
// OrderStateMachineViolation (fatal for that order; other orders
// unaffected)").
func legalTransition(status domain.OrderStatus, evt domain.OrderEventKind) bool {
	allowed, ok := legalTransitions[status]
	if !ok {
		return false
	}
	return allowed[evt]
}
