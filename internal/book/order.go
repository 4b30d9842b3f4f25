package book

import (
	"fmt"
	"strings"
	"time"
)

type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "BUY"
	}
	return "SELL"
}

// ParseSide accepts "buy"/"sell" in any case.
func ParseSide(s string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY":
		return Buy, nil
	case "SELL":
		return Sell, nil
	default:
		return 0, fmt.Errorf("invalid side %q", s)
	}
}

func (s Side) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

func (s *Side) UnmarshalJSON(data []byte) error {
	parsed, err := ParseSide(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

type Status int

const (
	Open Status = iota
	PartiallyFilled
	Filled
	Cancelled
)

func (st Status) String() string {
	switch st {
	case Open:
		return "OPEN"
	case PartiallyFilled:
		return "PARTIALLY FILLED"
	case Filled:
		return "FILLED"
	case Cancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether no further transition may leave this status.
func (st Status) Terminal() bool {
	return st == Filled || st == Cancelled
}

// ParseStatus accepts the wire words in any case.
func ParseStatus(s string) (Status, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "OPEN":
		return Open, nil
	case "PARTIALLY FILLED", "PARTIALLY_FILLED":
		return PartiallyFilled, nil
	case "FILLED":
		return Filled, nil
	case "CANCELLED":
		return Cancelled, nil
	default:
		return 0, fmt.Errorf("invalid status %q", s)
	}
}

func (st Status) MarshalJSON() ([]byte, error) {
	return []byte(`"` + st.String() + `"`), nil
}

func (st *Status) UnmarshalJSON(data []byte) error {
	parsed, err := ParseStatus(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	*st = parsed
	return nil
}

// Order is a single limit order. Identity fields (ID, Symbol, Side) never
// change after acceptance; Price, Quantity, Filled, Status and Timestamp are
// owned by the book and mutate only under its lock.
type Order struct {
	ID        string    `json:"id"`
	Symbol    string    `json:"symbol"`
	Side      Side      `json:"side"`
	Price     int64     `json:"price"` // cents, avoids float drift
	Quantity  int64     `json:"quantity"`
	Filled    int64     `json:"filled"`
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`

	// seq orders acceptances within the book; a price-modify gets a fresh
	// seq because it forfeits time priority.
	seq uint64
}

func (o *Order) Remaining() int64 {
	return o.Quantity - o.Filled
}

func (o *Order) IsFilled() bool {
	return o.Filled >= o.Quantity
}

// refreshStatus recomputes status from the fill counters. Never called on a
// cancelled order; Cancelled is terminal.
func (o *Order) refreshStatus() {
	switch {
	case o.Filled == 0:
		o.Status = Open
	case o.Filled >= o.Quantity:
		o.Status = Filled
	default:
		o.Status = PartiallyFilled
	}
}

// Trade records one fill between a resting and an incoming order.
type Trade struct {
	ID          string    `json:"id"`
	Symbol      string    `json:"symbol"`
	Price       int64     `json:"price"` // resting order's price, in cents
	Quantity    int64     `json:"quantity"`
	BuyOrderID  string    `json:"buy_order_id"`
	SellOrderID string    `json:"sell_order_id"`
	Timestamp   time.Time `json:"timestamp"`
}
