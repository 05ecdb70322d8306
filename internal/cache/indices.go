package cache

import (
	"github.com/abdoElHodaky/tradsys-core/internal/domain"
	"github.com/abdoElHodaky/tradsys-core/pkg/ids"
)

type idSet map[ids.ClientOrderId]struct{}
type posSet map[ids.PositionId]struct{}

// Index holds every secondary structure the Cache maintains, all of it
// a pure function of the entity maps (spec.md §3 invariant I8:
// build_index() from entities must reproduce them bit-for-bit).
type Index struct {
	VenueOrders       map[ids.Venue]idSet
	VenuePositions    map[ids.Venue]posSet
	VenueOrderIdToClient map[ids.VenueOrderId]ids.ClientOrderId
	ClientToVenueOrderId map[ids.ClientOrderId]ids.VenueOrderId

	OrderPosition  map[ids.ClientOrderId]ids.PositionId
	OrderStrategy  map[ids.ClientOrderId]ids.StrategyId
	OrderClient    map[ids.ClientOrderId]ids.ClientId

	PositionStrategy map[ids.PositionId]ids.StrategyId
	PositionOrders   map[ids.PositionId]idSet

	InstrumentOrders    map[ids.InstrumentId]idSet
	InstrumentPositions map[ids.InstrumentId]posSet

	StrategyOrders    map[ids.StrategyId]idSet
	StrategyPositions map[ids.StrategyId]posSet

	ExecAlgorithmOrders map[ids.ExecAlgorithmId]idSet
	ExecSpawnOrders     map[ids.ClientOrderId]idSet

	VenueAccount map[ids.Venue]ids.AccountId

	Orders             idSet
	OrdersOpen         idSet
	OrdersClosed       idSet
	OrdersEmulated     idSet
	OrdersInflight     idSet
	OrdersPendingCancel idSet

	Positions       posSet
	PositionsOpen   posSet
	PositionsClosed posSet

	Strategies     map[ids.StrategyId]struct{}
	ExecAlgorithms map[ids.ExecAlgorithmId]struct{}
	Actors         map[string]struct{}
}

func newIndex() *Index {
	return &Index{
		VenueOrders:          make(map[ids.Venue]idSet),
		VenuePositions:       make(map[ids.Venue]posSet),
		VenueOrderIdToClient: make(map[ids.VenueOrderId]ids.ClientOrderId),
		ClientToVenueOrderId: make(map[ids.ClientOrderId]ids.VenueOrderId),
		OrderPosition:        make(map[ids.ClientOrderId]ids.PositionId),
		OrderStrategy:        make(map[ids.ClientOrderId]ids.StrategyId),
		OrderClient:          make(map[ids.ClientOrderId]ids.ClientId),
		PositionStrategy:     make(map[ids.PositionId]ids.StrategyId),
		PositionOrders:       make(map[ids.PositionId]idSet),
		InstrumentOrders:     make(map[ids.InstrumentId]idSet),
		InstrumentPositions:  make(map[ids.InstrumentId]posSet),
		StrategyOrders:       make(map[ids.StrategyId]idSet),
		StrategyPositions:    make(map[ids.StrategyId]posSet),
		ExecAlgorithmOrders:  make(map[ids.ExecAlgorithmId]idSet),
		ExecSpawnOrders:      make(map[ids.ClientOrderId]idSet),
		VenueAccount:         make(map[ids.Venue]ids.AccountId),
		Orders:               make(idSet),
		OrdersOpen:           make(idSet),
		OrdersClosed:         make(idSet),
		OrdersEmulated:       make(idSet),
		OrdersInflight:       make(idSet),
		OrdersPendingCancel:  make(idSet),
		Positions:            make(posSet),
		PositionsOpen:        make(posSet),
		PositionsClosed:      make(posSet),
		Strategies:           make(map[ids.StrategyId]struct{}),
		ExecAlgorithms:       make(map[ids.ExecAlgorithmId]struct{}),
		Actors:               make(map[string]struct{}),
	}
}

func (ix *Index) onAddOrder(order *domain.Order, positionId ids.PositionId, clientId ids.ClientId) {
	ix.Orders[order.ClientOrderId] = struct{}{}
	ix.OrderStrategy[order.ClientOrderId] = order.StrategyId
	ix.OrderClient[order.ClientOrderId] = clientId
	if positionId != "" {
		ix.OrderPosition[order.ClientOrderId] = positionId
		addToIdSet(ix.PositionOrders, positionId, order.ClientOrderId)
	}
	addToIdSet(ix.InstrumentOrders, order.InstrumentId, order.ClientOrderId)
	addToIdSet(ix.StrategyOrders, order.StrategyId, order.ClientOrderId)
	if order.ExecAlgorithmId != "" {
		addToIdSet(ix.ExecAlgorithmOrders, order.ExecAlgorithmId, order.ClientOrderId)
	}
	if order.ExecSpawnId != "" {
		addToIdSet(ix.ExecSpawnOrders, order.ExecSpawnId, order.ClientOrderId)
	}
	ix.Strategies[order.StrategyId] = struct{}{}
	ix.refreshOrderMembership(order)
}

func (ix *Index) onUpdateOrder(order *domain.Order) {
	if order.VenueOrderId != "" {
		prev, hadVenue := ix.ClientToVenueOrderId[order.ClientOrderId]
		if !hadVenue || prev != order.VenueOrderId {
			// cancel+replace may rebind venue_order_id; accept the new
			// mapping whenever the order's most recent event is Updated.
			events := order.Events()
			acceptRebind := !hadVenue || (len(events) > 0 && events[len(events)-1].Kind == domain.EvtUpdated)
			if acceptRebind {
				if hadVenue {
					delete(ix.VenueOrderIdToClient, prev)
				}
				ix.VenueOrderIdToClient[order.VenueOrderId] = order.ClientOrderId
				ix.ClientToVenueOrderId[order.ClientOrderId] = order.VenueOrderId
			}
		}
	}
	ix.refreshOrderMembership(order)
}

func (ix *Index) refreshOrderMembership(order *domain.Order) {
	id := order.ClientOrderId
	delete(ix.OrdersOpen, id)
	delete(ix.OrdersClosed, id)
	delete(ix.OrdersInflight, id)
	delete(ix.OrdersPendingCancel, id)

	switch {
	case order.Status.IsTerminal():
		ix.OrdersClosed[id] = struct{}{}
	case order.Status.IsOpen():
		ix.OrdersOpen[id] = struct{}{}
	default:
		ix.OrdersInflight[id] = struct{}{}
	}
	if order.EmulationTrigger != "" {
		ix.OrdersEmulated[id] = struct{}{}
	}
	if order.Status == domain.StatusPendingCancel {
		ix.OrdersPendingCancel[id] = struct{}{}
	}
}

func (ix *Index) onAddPosition(position *domain.Position) {
	ix.Positions[position.ID] = struct{}{}
	ix.PositionStrategy[position.ID] = position.StrategyId
	addToPosSet(ix.InstrumentPositions, position.InstrumentId, position.ID)
	addToPosSet(ix.StrategyPositions, position.StrategyId, position.ID)
	ix.refreshPositionMembership(position)
}

func (ix *Index) onUpdatePosition(position *domain.Position) {
	ix.refreshPositionMembership(position)
}

func (ix *Index) refreshPositionMembership(position *domain.Position) {
	delete(ix.PositionsOpen, position.ID)
	delete(ix.PositionsClosed, position.ID)
	if position.IsOpen() {
		ix.PositionsOpen[position.ID] = struct{}{}
	} else {
		ix.PositionsClosed[position.ID] = struct{}{}
	}
}

func addToIdSet[K comparable](m map[K]idSet, key K, id ids.ClientOrderId) {
	s, ok := m[key]
	if !ok {
		s = make(idSet)
		m[key] = s
	}
	s[id] = struct{}{}
}

func addToPosSet[K comparable](m map[K]posSet, key K, id ids.PositionId) {
	s, ok := m[key]
	if !ok {
		s = make(posSet)
		m[key] = s
	}
	s[id] = struct{}{}
}

// BuildIndex recomputes every index from the current entity maps from
// scratch, ignoring the incrementally-maintained Index. Used by
// CheckIntegrity to verify I8: build_index() from entities must
// reproduce the live indices bit-for-bit.
func (c *Cache) BuildIndex() *Index {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.buildIndexLocked()
}
