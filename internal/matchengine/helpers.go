package matchengine

import (
	"github.com/abdoElHodaky/tradsys-core/internal/domain"
	"github.com/abdoElHodaky/tradsys-core/internal/matchcore"
	"github.com/abdoElHodaky/tradsys-core/pkg/fixed"
)

func fixedQuantity(order *domain.Order, raw int64) fixed.Quantity {
	return fixed.Quantity{Raw: raw, Precision: order.Quantity.Precision}
}

func fixedPrice(order *domain.Order, raw int64) fixed.Price {
	precision := uint8(9)
	if order.Price != nil {
		precision = order.Price.Precision
	}
	return fixed.PriceFromRaw(raw, precision)
}

func restingFromOrder(order *domain.Order, tsNow int64) *matchcore.RestingOrder {
	return &matchcore.RestingOrder{
		ClientOrderId:      order.ClientOrderId,
		Side:               order.Side,
		Type:               order.Type,
		Price:              order.Price,
		TriggerPrice:       order.TriggerPrice,
		TriggerType:        order.TriggerType,
		TrailingOffset:     order.TrailingOffset,
		TrailingOffsetType: order.TrailingOffsetType,
		Quantity:           order.LeavesQty(),
		TsAccepted:         tsNow,
	}
}
