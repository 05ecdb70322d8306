// Package cache implements the Cache (C1): the authoritative in-memory
// store and secondary indices for instruments, accounts, orders,
// positions, order books, and market data (spec.md §4.1).
package cache

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/abdoElHodaky/tradsys-core/internal/domain"
	"github.com/abdoElHodaky/tradsys-core/internal/orderbook"
	coreerrors "github.com/abdoElHodaky/tradsys-core/pkg/errors"
	"github.com/abdoElHodaky/tradsys-core/pkg/fixed"
	"github.com/abdoElHodaky/tradsys-core/pkg/ids"
)

// Config controls deque capacities (spec.md §4.1 "tick_capacity /
// bar_capacity config").
type Config struct {
	TickCapacity int
	BarCapacity  int
}

func DefaultConfig() Config {
	return Config{TickCapacity: 1000, BarCapacity: 1000}
}

// Cache is the single source of truth for entities and their indices.
// No computation beyond indexing lives here; derived metrics (PnL,
// margin) belong to the Portfolio and Accounts Manager.
type Cache struct {
	mu sync.RWMutex

	cfg Config
	log *zap.Logger

	general *gocache.Cache

	quotes map[ids.InstrumentId]*boundedDeque
	trades map[ids.InstrumentId]*boundedDeque
	books  map[ids.InstrumentId]*orderbook.Book
	bars   map[domain.Type]*boundedDeque

	currencies  map[string]fixed.Currency
	instruments map[ids.InstrumentId]*domain.Instrument
	accounts    map[ids.AccountId]*domain.Account
	orders      map[ids.ClientOrderId]*domain.Order
	positions   map[ids.PositionId]*domain.Position
	orderLists  map[ids.OrderListId]*domain.OrderList

	idx *Index
}

func New(cfg Config, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{
		cfg:         cfg,
		log:         log,
		general:     gocache.New(gocache.NoExpiration, gocache.NoExpiration),
		quotes:      make(map[ids.InstrumentId]*boundedDeque),
		trades:      make(map[ids.InstrumentId]*boundedDeque),
		books:       make(map[ids.InstrumentId]*orderbook.Book),
		bars:        make(map[domain.Type]*boundedDeque),
		currencies:  make(map[string]fixed.Currency),
		instruments: make(map[ids.InstrumentId]*domain.Instrument),
		accounts:    make(map[ids.AccountId]*domain.Account),
		orders:      make(map[ids.ClientOrderId]*domain.Order),
		positions:   make(map[ids.PositionId]*domain.Position),
		orderLists:  make(map[ids.OrderListId]*domain.OrderList),
		idx:         newIndex(),
	}
}

// --- general KV store (patrickmn/go-cache backed; no default expiry —
// the Cache never expires entities on its own, but callers may Set
// with a per-key TTL for things like short-lived idempotency markers).

func (c *Cache) SetGeneral(key string, value interface{}, ttl time.Duration) {
	if ttl <= 0 {
		c.general.Set(key, value, gocache.NoExpiration)
		return
	}
	c.general.Set(key, value, ttl)
}

func (c *Cache) GetGeneral(key string) (interface{}, bool) {
	return c.general.Get(key)
}

func (c *Cache) DeleteGeneral(key string) {
	c.general.Delete(key)
}

// --- instruments / currencies ---

func (c *Cache) AddInstrument(instrument *domain.Instrument) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.instruments[instrument.ID] = instrument
}

func (c *Cache) Instrument(id ids.InstrumentId) (*domain.Instrument, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.instruments[id]
	return i, ok
}

func (c *Cache) AddCurrency(ccy fixed.Currency) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currencies[ccy.Code] = ccy
}

func (c *Cache) Currency(code string) (fixed.Currency, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ccy, ok := c.currencies[code]
	return ccy, ok
}

// --- accounts ---

func (c *Cache) AddAccount(account *domain.Account) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accounts[account.ID] = account
}

func (c *Cache) UpdateAccount(account *domain.Account) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.accounts[account.ID]; !ok {
		return coreerrors.Newf(coreerrors.KindNotFound, "account %s not found", account.ID)
	}
	c.accounts[account.ID] = account
	return nil
}

func (c *Cache) Account(id ids.AccountId) (*domain.Account, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.accounts[id]
	return a, ok
}

// --- orders (spec.md §4.1 add_order/update_order) ---

// AddOrder registers order in the Cache and refreshes all indices
// atomically. If replaceExisting is false and the ClientOrderId is
// already known, fails with KindAlreadyExists.
func (c *Cache) AddOrder(order *domain.Order, positionId ids.PositionId, clientId ids.ClientId, replaceExisting bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.orders[order.ClientOrderId]; exists && !replaceExisting {
		return coreerrors.Newf(coreerrors.KindAlreadyExists, "order %s already exists", order.ClientOrderId)
	}
	c.orders[order.ClientOrderId] = order
	c.idx.onAddOrder(order, positionId, clientId)
	return nil
}

// UpdateOrder refreshes membership sets per the order's current status
// and maintains the venue_order_id <-> client_order_id mapping. Per
// spec.md §4.1, a cancel+replace may change venue_order_id; policy:
// accept the new mapping whenever the order's last event is Updated
// (see DESIGN.md Open Question decision).
func (c *Cache) UpdateOrder(order *domain.Order) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.orders[order.ClientOrderId]; !ok {
		return coreerrors.Newf(coreerrors.KindNotFound, "order %s not found", order.ClientOrderId)
	}
	c.orders[order.ClientOrderId] = order
	c.idx.onUpdateOrder(order)
	return nil
}

func (c *Cache) Order(id ids.ClientOrderId) (*domain.Order, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	o, ok := c.orders[id]
	return o, ok
}

func (c *Cache) OrderByVenueId(venueId ids.VenueOrderId) (*domain.Order, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	clientId, ok := c.idx.VenueOrderIdToClient[venueId]
	if !ok {
		return nil, false
	}
	o, ok := c.orders[clientId]
	return o, ok
}

// --- positions ---

func (c *Cache) AddPosition(position *domain.Position) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.positions[position.ID] = position
	c.idx.onAddPosition(position)
}

func (c *Cache) UpdatePosition(position *domain.Position) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.positions[position.ID]; !ok {
		return coreerrors.Newf(coreerrors.KindNotFound, "position %s not found", position.ID)
	}
	c.positions[position.ID] = position
	c.idx.onUpdatePosition(position)
	return nil
}

func (c *Cache) Position(id ids.PositionId) (*domain.Position, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.positions[id]
	return p, ok
}

// --- order lists ---

func (c *Cache) AddOrderList(list *domain.OrderList) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orderLists[list.ID] = list
}

func (c *Cache) OrderList(id ids.OrderListId) (*domain.OrderList, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	l, ok := c.orderLists[id]
	return l, ok
}

// --- market data (spec.md §4.1 add_quote/trade/bar) ---

func (c *Cache) AddQuote(q domain.QuoteTick) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := c.quoteDeque(q.InstrumentId)
	d.PushFront(q)
}

func (c *Cache) AddTrade(t domain.TradeTick) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := c.tradeDeque(t.InstrumentId)
	d.PushFront(t)
}

func (c *Cache) AddBar(bar domain.Bar) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.bars[bar.BarType]
	if !ok {
		d = newBoundedDeque(c.cfg.BarCapacity)
		c.bars[bar.BarType] = d
	}
	d.PushFront(bar)
}

func (c *Cache) quoteDeque(id ids.InstrumentId) *boundedDeque {
	d, ok := c.quotes[id]
	if !ok {
		d = newBoundedDeque(c.cfg.TickCapacity)
		c.quotes[id] = d
	}
	return d
}

func (c *Cache) tradeDeque(id ids.InstrumentId) *boundedDeque {
	d, ok := c.trades[id]
	if !ok {
		d = newBoundedDeque(c.cfg.TickCapacity)
		c.trades[id] = d
	}
	return d
}

// LatestQuote / LatestTrade / LatestBars expose the bounded deques for
// querying; see queries.go for the Price/get_xrate surface.
func (c *Cache) LatestQuote(id ids.InstrumentId) (domain.QuoteTick, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.quotes[id]
	if !ok {
		return domain.QuoteTick{}, false
	}
	v, ok := d.Front()
	if !ok {
		return domain.QuoteTick{}, false
	}
	return v.(domain.QuoteTick), true
}

func (c *Cache) LatestTrade(id ids.InstrumentId) (domain.TradeTick, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.trades[id]
	if !ok {
		return domain.TradeTick{}, false
	}
	v, ok := d.Front()
	if !ok {
		return domain.TradeTick{}, false
	}
	return v.(domain.TradeTick), true
}

func (c *Cache) LatestBar(barType domain.Type) (domain.Bar, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.bars[barType]
	if !ok {
		return domain.Bar{}, false
	}
	v, ok := d.Front()
	if !ok {
		return domain.Bar{}, false
	}
	return v.(domain.Bar), true
}

// --- books ---

func (c *Cache) Book(id ids.InstrumentId) (*orderbook.Book, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.books[id]
	return b, ok
}

func (c *Cache) AddBook(id ids.InstrumentId, bookType domain.BookType) *orderbook.Book {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.books[id]
	if !ok {
		b = orderbook.New(id, bookType, c.log)
		c.books[id] = b
	}
	return b
}
