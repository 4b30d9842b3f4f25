package book

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Config bounds the book's worst-case memory.
type Config struct {
	MaxOrders int // live + historical orders the book will ever accept
	MaxLevels int // distinct price levels per side
}

func DefaultConfig() Config {
	return Config{
		MaxOrders: 10000,
		MaxLevels: 100,
	}
}

// OrderBook is the single authoritative owner of all orders for one symbol.
// Every public operation is atomic under the book lock; matching runs to a
// fixed point inside Submit before control returns.
type OrderBook struct {
	Symbol string

	mu      sync.RWMutex
	bids    bookSide
	asks    bookSide
	orders  map[string]*Order // authoritative index, terminal orders included
	history []*Order          // acceptance order, never removed

	trades    []Trade
	seq       uint64
	maxOrders int

	onTrade []func(Trade)
}

func New(symbol string) *OrderBook {
	return NewWithConfig(symbol, DefaultConfig())
}

func NewWithConfig(symbol string, cfg Config) *OrderBook {
	return &OrderBook{
		Symbol: symbol,
		bids:   bookSide{side: Buy, maxLevels: cfg.MaxLevels},
		asks:   bookSide{side: Sell, maxLevels: cfg.MaxLevels},
		orders: make(map[string]*Order),

		maxOrders: cfg.MaxOrders,
	}
}

// OnTrade registers a callback invoked for every trade, after the operation
// that produced it has released the book lock.
func (ob *OrderBook) OnTrade(fn func(Trade)) {
	ob.mu.Lock()
	ob.onTrade = append(ob.onTrade, fn)
	ob.mu.Unlock()
}

// Submit accepts a limit order, rests it at its price level and matches to
// completion. On error the book is left exactly as it was. The order's ID is
// kept if the caller set one, otherwise a uuid is assigned.
func (ob *OrderBook) Submit(order *Order) ([]Trade, error) {
	ob.mu.Lock()

	if order.Price <= 0 || order.Quantity <= 0 {
		ob.mu.Unlock()
		return nil, fmt.Errorf("%w: price and quantity must be positive", ErrInvalidOrder)
	}
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if _, exists := ob.orders[order.ID]; exists {
		ob.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrDuplicateID, order.ID)
	}
	if len(ob.history) >= ob.maxOrders {
		ob.mu.Unlock()
		return nil, ErrBookFull
	}

	order.Symbol = ob.Symbol
	order.Timestamp = time.Now()
	order.Status = Open
	order.Filled = 0
	ob.seq++
	order.seq = ob.seq

	level, err := ob.sideOf(order.Side).upsert(order.Price)
	if err != nil {
		ob.mu.Unlock()
		return nil, fmt.Errorf("%w: side %s", err, order.Side)
	}

	ob.orders[order.ID] = order
	ob.history = append(ob.history, order)
	level.append(order)

	trades := ob.match()
	ob.mu.Unlock()

	ob.notify(trades)
	return trades, nil
}

// Cancel removes an order's unfilled quantity from the book and marks it
// CANCELLED. Cancelling an already-cancelled order is a no-op that reports
// success; a filled order cannot be cancelled.
func (ob *OrderBook) Cancel(id string) error {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	order, exists := ob.orders[id]
	if !exists {
		return fmt.Errorf("%w: %s", ErrOrderNotFound, id)
	}
	switch order.Status {
	case Filled:
		return fmt.Errorf("%w: %s", ErrOrderFilled, id)
	case Cancelled:
		return nil
	}

	order.Status = Cancelled
	ob.unrest(order)
	return nil
}

// Modify changes an order's quantity and/or price. A price change forfeits
// time priority: the order leaves its level and re-enters the book with a
// fresh acceptance timestamp, then matching runs. A pure quantity change is
// applied in place, keeping queue position, and never triggers matching.
func (ob *OrderBook) Modify(id string, newQuantity, newPrice int64) ([]Trade, error) {
	ob.mu.Lock()

	order, exists := ob.orders[id]
	if !exists {
		ob.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
	}
	switch order.Status {
	case Filled:
		ob.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrOrderFilled, id)
	case Cancelled:
		ob.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrOrderCancelled, id)
	}
	if newPrice <= 0 || newQuantity <= order.Filled {
		ob.mu.Unlock()
		return nil, fmt.Errorf("%w: quantity %d with %d already filled", ErrInvalidQuantity, newQuantity, order.Filled)
	}

	if newPrice == order.Price {
		// In-place resize: queue position and timestamp are preserved and
		// the level total absorbs the signed delta. No re-match, even when
		// an increase could newly cross.
		level := ob.sideOf(order.Side).find(order.Price)
		level.Total += newQuantity - order.Quantity
		order.Quantity = newQuantity
		ob.mu.Unlock()
		return nil, nil
	}

	// Secure the destination level before the order leaves its queue slot,
	// so a ceiling rejection leaves the book untouched. When the order is
	// alone at its level, removing it first frees a level slot and the
	// move cannot fail; restoring the sole resident is exact either way.
	side := ob.sideOf(order.Side)
	oldPrice := order.Price
	oldLevel := side.find(oldPrice)

	var level *PriceLevel
	var err error
	if len(oldLevel.Orders) == 1 {
		oldLevel.removeByID(id)
		side.prune(oldPrice)
		level, err = side.upsert(newPrice)
		if err != nil {
			restored, _ := side.upsert(oldPrice) // slot just freed, cannot fail
			restored.append(order)
			ob.mu.Unlock()
			return nil, fmt.Errorf("%w: side %s", err, order.Side)
		}
	} else {
		level, err = side.upsert(newPrice)
		if err != nil {
			ob.mu.Unlock()
			return nil, fmt.Errorf("%w: side %s", err, order.Side)
		}
		oldLevel.removeByID(id)
	}

	order.Price = newPrice
	order.Quantity = newQuantity
	order.Timestamp = time.Now()
	ob.seq++
	order.seq = ob.seq
	order.refreshStatus()
	level.append(order)

	trades := ob.match()
	ob.mu.Unlock()

	ob.notify(trades)
	return trades, nil
}

// Get returns the authoritative order for id, terminal orders included.
func (ob *OrderBook) Get(id string) (*Order, bool) {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	order, exists := ob.orders[id]
	return order, exists
}

// Orders returns copies of every order ever accepted, in acceptance order.
func (ob *OrderBook) Orders() []Order {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	out := make([]Order, len(ob.history))
	for i, o := range ob.history {
		out[i] = *o
	}
	return out
}

// match crosses the best bid against the best ask until no cross remains.
// Each pass fills min(remaining, remaining) at the resting order's price,
// purges filled heads and prunes emptied levels, so total resident quantity
// strictly decreases and the loop is bounded.
func (ob *OrderBook) match() []Trade {
	var trades []Trade

	for {
		bestBid := ob.bids.best()
		bestAsk := ob.asks.best()
		if bestBid == nil || bestAsk == nil || bestBid.Price < bestAsk.Price {
			break
		}

		buy := bestBid.front()
		sell := bestAsk.front()
		qty := min(buy.Remaining(), sell.Remaining())

		buy.Filled += qty
		sell.Filled += qty
		buy.refreshStatus()
		sell.refreshStatus()
		bestBid.Total -= qty
		bestAsk.Total -= qty

		// The resting order (the earlier acceptance) sets the trade price.
		price := sell.Price
		if buy.seq < sell.seq {
			price = buy.Price
		}
		trade := Trade{
			ID:          uuid.New().String(),
			Symbol:      ob.Symbol,
			Price:       price,
			Quantity:    qty,
			BuyOrderID:  buy.ID,
			SellOrderID: sell.ID,
			Timestamp:   time.Now(),
		}
		trades = append(trades, trade)
		ob.trades = append(ob.trades, trade)

		if buy.Status == Filled {
			bestBid.dropFront()
			ob.bids.prune(bestBid.Price)
		}
		if sell.Status == Filled {
			bestAsk.dropFront()
			ob.asks.prune(bestAsk.Price)
		}
	}

	return trades
}

// unrest removes an order from its price level and prunes the level if it
// emptied. The order stays in the authoritative index and history.
func (ob *OrderBook) unrest(order *Order) {
	side := ob.sideOf(order.Side)
	if level := side.find(order.Price); level != nil {
		level.removeByID(order.ID)
		side.prune(order.Price)
	}
}

func (ob *OrderBook) sideOf(s Side) *bookSide {
	if s == Buy {
		return &ob.bids
	}
	return &ob.asks
}

func (ob *OrderBook) notify(trades []Trade) {
	if len(trades) == 0 {
		return
	}
	ob.mu.RLock()
	callbacks := ob.onTrade
	ob.mu.RUnlock()

	for _, trade := range trades {
		for _, fn := range callbacks {
			fn(trade)
		}
	}
}

// BookSnapshot is a read-only view of both sides, best price first.
type BookSnapshot struct {
	Symbol string          `json:"symbol"`
	Bids   []LevelSnapshot `json:"bids"`
	Asks   []LevelSnapshot `json:"asks"`
}

type LevelSnapshot struct {
	Price    int64 `json:"price"`
	Quantity int64 `json:"quantity"`
	Count    int   `json:"count"`
}

func (ob *OrderBook) Snapshot() BookSnapshot {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	snap := BookSnapshot{
		Symbol: ob.Symbol,
		Bids:   make([]LevelSnapshot, len(ob.bids.levels)),
		Asks:   make([]LevelSnapshot, len(ob.asks.levels)),
	}
	for i, level := range ob.bids.levels {
		snap.Bids[i] = LevelSnapshot{Price: level.Price, Quantity: level.Total, Count: len(level.Orders)}
	}
	for i, level := range ob.asks.levels {
		snap.Asks[i] = LevelSnapshot{Price: level.Price, Quantity: level.Total, Count: len(level.Orders)}
	}
	return snap
}

// RecentTrades returns the last n trades, oldest first.
func (ob *OrderBook) RecentTrades(n int) []Trade {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	if n < 0 {
		n = 0
	}
	if n > len(ob.trades) {
		n = len(ob.trades)
	}
	start := len(ob.trades) - n
	out := make([]Trade, n)
	copy(out, ob.trades[start:])
	return out
}

// BestBid returns the highest bid price in cents, or 0 if no bids rest.
func (ob *OrderBook) BestBid() int64 {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	if level := ob.bids.best(); level != nil {
		return level.Price
	}
	return 0
}

// BestAsk returns the lowest ask price in cents, or 0 if no asks rest.
func (ob *OrderBook) BestAsk() int64 {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	if level := ob.asks.best(); level != nil {
		return level.Price
	}
	return 0
}

// MidPrice returns the midpoint between best bid and ask, 0 if either side
// is empty.
func (ob *OrderBook) MidPrice() int64 {
	bid := ob.BestBid()
	ask := ob.BestAsk()
	if bid == 0 || ask == 0 {
		return 0
	}
	return (bid + ask) / 2
}
