package matchengine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abdoElHodaky/tradsys-core/internal/domain"
	"github.com/abdoElHodaky/tradsys-core/pkg/fixed"
	"github.com/abdoElHodaky/tradsys-core/pkg/ids"
)

func TestPropagateContingentOTOReleasesChildrenOnAccepted(t *testing.T) {
	order := &domain.Order{
		ContingencyType: domain.ContingencyOTO,
		LinkedOrderIds:  []ids.ClientOrderId{"child-1", "child-2"},
	}

	actions := propagateContingent(order, domain.EvtAccepted)

	assert.Len(t, actions, 2)
	for _, a := range actions {
		assert.True(t, a.Release)
		assert.False(t, a.Reject)
	}
}

func TestPropagateContingentOTORejectsChildrenOnParentTermination(t *testing.T) {
	order := &domain.Order{
		ContingencyType: domain.ContingencyOTO,
		LinkedOrderIds:  []ids.ClientOrderId{"child-1"},
	}

	actions := propagateContingent(order, domain.EvtCanceled)

	assert.Len(t, actions, 1)
	assert.True(t, actions[0].Reject)
}

func TestPropagateContingentOCOCancelsPeersOnFill(t *testing.T) {
	order := &domain.Order{
		ContingencyType: domain.ContingencyOCO,
		LinkedOrderIds:  []ids.ClientOrderId{"peer-1"},
	}

	actions := propagateContingent(order, domain.EvtFilled)

	assert.Len(t, actions, 1)
	assert.True(t, actions[0].Cancel)
}

func TestPropagateContingentOCOIgnoresNonFillEvents(t *testing.T) {
	order := &domain.Order{
		ContingencyType: domain.ContingencyOCO,
		LinkedOrderIds:  []ids.ClientOrderId{"peer-1"},
	}

	actions := propagateContingent(order, domain.EvtUpdated)

	assert.Empty(t, actions)
}

func TestPropagateContingentOUOPropagatesQuantityOnUpdate(t *testing.T) {
	order := &domain.Order{
		ContingencyType: domain.ContingencyOUO,
		LinkedOrderIds:  []ids.ClientOrderId{"peer-1"},
		Quantity:        fixed.QuantityFromRaw(5_000_000_000, 0),
	}

	actions := propagateContingent(order, domain.EvtUpdated)

	assert.Len(t, actions, 1)
	assert.NotNil(t, actions[0].PropagateQtyRaw)
	assert.Equal(t, int64(5_000_000_000), *actions[0].PropagateQtyRaw)
}

func TestPropagateContingentOUOCancelsPeersOnCancel(t *testing.T) {
	order := &domain.Order{
		ContingencyType: domain.ContingencyOUO,
		LinkedOrderIds:  []ids.ClientOrderId{"peer-1", "peer-2"},
	}

	actions := propagateContingent(order, domain.EvtCanceled)

	assert.Len(t, actions, 2)
	for _, a := range actions {
		assert.True(t, a.Cancel)
	}
}
