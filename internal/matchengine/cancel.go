package matchengine

import (
	"github.com/abdoElHodaky/tradsys-core/internal/domain"
	coreerrors "github.com/abdoElHodaky/tradsys-core/pkg/errors"
	"github.com/abdoElHodaky/tradsys-core/pkg/ids"
)

// ProcessCancel implements process_cancel(client_order_id, account_id)
// (spec.md §4.6).
func (e *Engine) ProcessCancel(clientOrderId ids.ClientOrderId, accountId ids.AccountId, tsNow int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	order, ok := e.cache.Order(clientOrderId)
	if !ok {
		return coreerrors.Newf(coreerrors.KindNotFound, "order %s not found", clientOrderId)
	}
	if order.AccountId != accountId {
		return coreerrors.Newf(coreerrors.KindInvalidState, "order %s does not belong to account %s", clientOrderId, accountId)
	}
	if order.Status.IsTerminal() {
		e.emitEvent(order, domain.OrderEvent{Kind: domain.EvtCancelRejected, TsEvent: tsNow, TsInit: tsNow, Reason: "order already terminal"})
		return nil
	}
	e.cancelOrder(order, tsNow)
	return nil
}

// ProcessCancelAll implements process_cancel_all(instrument_id, account_id).
func (e *Engine) ProcessCancelAll(instrumentId ids.InstrumentId, accountId ids.AccountId, tsNow int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, order := range e.cache.OrdersOpen() {
		if order.InstrumentId != instrumentId || order.AccountId != accountId {
			continue
		}
		e.cancelOrder(order, tsNow)
	}
	return nil
}

// ProcessBatchCancel implements process_batch_cancel(client_order_ids,
// account_id), collecting per-order failures into a coreerrors.Group
// rather than aborting on the first one (spec.md §4.6 "per-command
// atomicity" applies within a single order's own transitions, not
// across the batch).
func (e *Engine) ProcessBatchCancel(clientOrderIds []ids.ClientOrderId, accountId ids.AccountId, tsNow int64) *coreerrors.Group {
	group := coreerrors.NewGroup()
	for _, id := range clientOrderIds {
		if err := e.ProcessCancel(id, accountId, tsNow); err != nil {
			group.Add(err)
		}
	}
	if group.HasErrors() {
		return group
	}
	return nil
}

// cancelOrder drives the terminal Canceled transition and runs OCO/OUO
// propagation; callers must hold e.mu.
func (e *Engine) cancelOrder(order *domain.Order, tsNow int64) {
	if order.Status.IsTerminal() {
		return
	}
	e.core.RemoveResting(order.ClientOrderId)
	e.emitEvent(order, domain.OrderEvent{Kind: domain.EvtCanceled, TsEvent: tsNow, TsInit: tsNow})
	if e.cfg.SupportContingentOrders {
		e.runContingentPropagation(order, domain.EvtCanceled, tsNow)
	}
}

// ModifyCommand carries the fields process_modify may change (spec.md
// §4.6). Nil fields are left unchanged.
type ModifyCommand struct {
	ClientOrderId ids.ClientOrderId
	Quantity      *int64 // raw, instrument size precision
	Price         *int64 // raw, instrument price precision
	TriggerPrice  *int64
}

// ProcessModify implements process_modify(cmd, account_id): a price
// change removes and re-adds the resting order (losing time priority),
// while a quantity-only change updates the book entry in place,
// retaining priority (spec.md §4.6 "Modify").
func (e *Engine) ProcessModify(cmd ModifyCommand, accountId ids.AccountId, tsNow int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	order, ok := e.cache.Order(cmd.ClientOrderId)
	if !ok {
		return coreerrors.Newf(coreerrors.KindNotFound, "order %s not found", cmd.ClientOrderId)
	}
	if order.AccountId != accountId {
		return coreerrors.Newf(coreerrors.KindInvalidState, "order %s does not belong to account %s", cmd.ClientOrderId, accountId)
	}
	if order.Status.IsTerminal() {
		e.emitEvent(order, domain.OrderEvent{Kind: domain.EvtModifyRejected, TsEvent: tsNow, TsInit: tsNow, Reason: "order already terminal"})
		return nil
	}

	priceChanged := cmd.Price != nil && (order.Price == nil || order.Price.Raw != *cmd.Price)

	evt := domain.OrderEvent{Kind: domain.EvtUpdated, TsEvent: tsNow, TsInit: tsNow}
	if cmd.Quantity != nil {
		evt.Quantity = fixedQuantity(order, *cmd.Quantity)
	}
	if cmd.Price != nil {
		px := fixedPrice(order, *cmd.Price)
		evt.Price = &px
	}

	if priceChanged {
		e.core.RemoveResting(order.ClientOrderId)
	}

	e.emitEvent(order, evt)

	if !priceChanged && cmd.Quantity != nil && !order.Type.IsStopFamily() {
		if r, ok := e.core.Resting(order.ClientOrderId); ok && r.Price != nil {
			r.Quantity = order.LeavesQty()
			r.FilledQty.Raw = 0
			_ = e.core.Book().Update(domain.BookOrder{
				Side: r.Side, Price: *r.Price, Quantity: r.Quantity,
				OrderId: string(r.ClientOrderId), Seq: r.Sequence,
			})
		}
	}

	if order.PostOnly && priceChanged && order.Type.HasLimitPrice() {
		best := e.bestOppositePriceRaw(order.Side)
		if r := validatePostOnly(order, best); r != nil {
			e.emitEvent(order, domain.OrderEvent{Kind: domain.EvtModifyRejected, TsEvent: tsNow, TsInit: tsNow, Reason: r.Detail})
			e.cancelOrder(order, tsNow)
			return nil
		}
	}

	if priceChanged && !order.Type.IsStopFamily() {
		e.tryMatch(order, tsNow)
		return nil
	}
	if priceChanged && order.Type.IsStopFamily() {
		e.core.AddResting(restingFromOrder(order, tsNow))
	}

	if e.cfg.SupportContingentOrders && order.ContingencyType == domain.ContingencyOUO {
		e.runContingentPropagation(order, domain.EvtUpdated, tsNow)
	}
	return nil
}
