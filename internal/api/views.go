package api

import (
	"time"

	"matchbook/internal/book"
)

// Wire views render cent prices as decimal strings.

type OrderView struct {
	ID        string    `json:"id"`
	Symbol    string    `json:"symbol"`
	Side      string    `json:"side"`
	Price     string    `json:"price"`
	Quantity  int64     `json:"quantity"`
	Filled    int64     `json:"filled"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type TradeView struct {
	ID          string    `json:"id"`
	Symbol      string    `json:"symbol"`
	Price       string    `json:"price"`
	Quantity    int64     `json:"quantity"`
	BuyOrderID  string    `json:"buy_order_id"`
	SellOrderID string    `json:"sell_order_id"`
	Timestamp   time.Time `json:"timestamp"`
}

type LevelView struct {
	Price    string `json:"price"`
	Quantity int64  `json:"quantity"`
	Count    int    `json:"count"`
}

type BookView struct {
	Symbol string      `json:"symbol"`
	Bids   []LevelView `json:"bids"`
	Asks   []LevelView `json:"asks"`
}

func toOrderView(o book.Order) OrderView {
	return OrderView{
		ID:        o.ID,
		Symbol:    o.Symbol,
		Side:      o.Side.String(),
		Price:     book.FormatPrice(o.Price),
		Quantity:  o.Quantity,
		Filled:    o.Filled,
		Status:    o.Status.String(),
		Timestamp: o.Timestamp,
	}
}

func toTradeView(t book.Trade) TradeView {
	return TradeView{
		ID:          t.ID,
		Symbol:      t.Symbol,
		Price:       book.FormatPrice(t.Price),
		Quantity:    t.Quantity,
		BuyOrderID:  t.BuyOrderID,
		SellOrderID: t.SellOrderID,
		Timestamp:   t.Timestamp,
	}
}

func toTradeViews(trades []book.Trade) []TradeView {
	views := make([]TradeView, len(trades))
	for i, t := range trades {
		views[i] = toTradeView(t)
	}
	return views
}

func toBookView(snap book.BookSnapshot) BookView {
	view := BookView{
		Symbol: snap.Symbol,
		Bids:   make([]LevelView, len(snap.Bids)),
		Asks:   make([]LevelView, len(snap.Asks)),
	}
	for i, l := range snap.Bids {
		view.Bids[i] = LevelView{Price: book.FormatPrice(l.Price), Quantity: l.Quantity, Count: l.Count}
	}
	for i, l := range snap.Asks {
		view.Asks[i] = LevelView{Price: book.FormatPrice(l.Price), Quantity: l.Quantity, Count: l.Count}
	}
	return view
}
