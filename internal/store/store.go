// Package store archives accepted orders and executed trades in SQLite.
// The book stays the source of truth while running; the archive is an audit
// trail that survives restarts.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"matchbook/internal/book"
)

type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at path and initializes the schema.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		symbol TEXT NOT NULL,
		side TEXT NOT NULL,      -- 'BUY' or 'SELL'
		price INTEGER NOT NULL,  -- in cents
		quantity INTEGER NOT NULL,
		filled INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		accepted_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS trades (
		id TEXT PRIMARY KEY,
		symbol TEXT NOT NULL,
		price INTEGER NOT NULL,  -- in cents
		quantity INTEGER NOT NULL,
		buy_order_id TEXT NOT NULL,
		sell_order_id TEXT NOT NULL,
		executed_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_orders_symbol ON orders(symbol);
	CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordOrder upserts the current state of an order. Called after every
// lifecycle change, so replays of the same state are harmless.
func (s *Store) RecordOrder(o book.Order) error {
	_, err := s.db.Exec(`
		INSERT INTO orders (id, symbol, side, price, quantity, filled, status, accepted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			price = excluded.price,
			quantity = excluded.quantity,
			filled = excluded.filled,
			status = excluded.status,
			accepted_at = excluded.accepted_at
	`, o.ID, o.Symbol, o.Side.String(), o.Price, o.Quantity, o.Filled, o.Status.String(), o.Timestamp)
	if err != nil {
		return fmt.Errorf("record order %s: %w", o.ID, err)
	}
	return nil
}

func (s *Store) RecordTrade(t book.Trade) error {
	_, err := s.db.Exec(`
		INSERT INTO trades (id, symbol, price, quantity, buy_order_id, sell_order_id, executed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.Symbol, t.Price, t.Quantity, t.BuyOrderID, t.SellOrderID, t.Timestamp)
	if err != nil {
		return fmt.Errorf("record trade %s: %w", t.ID, err)
	}
	return nil
}

// ListOrders returns every archived order, oldest acceptance first.
func (s *Store) ListOrders() ([]book.Order, error) {
	rows, err := s.db.Query(`
		SELECT id, symbol, side, price, quantity, filled, status, accepted_at
		FROM orders ORDER BY accepted_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []book.Order
	for rows.Next() {
		var o book.Order
		var side, status string
		var acceptedAt time.Time
		if err := rows.Scan(&o.ID, &o.Symbol, &side, &o.Price, &o.Quantity, &o.Filled, &status, &acceptedAt); err != nil {
			return nil, err
		}
		if o.Side, err = book.ParseSide(side); err != nil {
			return nil, err
		}
		if o.Status, err = book.ParseStatus(status); err != nil {
			return nil, err
		}
		o.Timestamp = acceptedAt
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// ListTrades returns up to limit trades, most recent first.
func (s *Store) ListTrades(limit int) ([]book.Trade, error) {
	rows, err := s.db.Query(`
		SELECT id, symbol, price, quantity, buy_order_id, sell_order_id, executed_at
		FROM trades ORDER BY executed_at DESC, id LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []book.Trade
	for rows.Next() {
		var t book.Trade
		if err := rows.Scan(&t.ID, &t.Symbol, &t.Price, &t.Quantity, &t.BuyOrderID, &t.SellOrderID, &t.Timestamp); err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}
