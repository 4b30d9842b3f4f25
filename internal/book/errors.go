package book

import "errors"

var (
	// ErrBookFull means the book has accepted its configured maximum number
	// of orders, live and historical.
	ErrBookFull = errors.New("order book is full")

	// ErrLevelsExhausted means the side already holds the maximum number of
	// distinct price levels. The rejected operation is fully rolled back.
	ErrLevelsExhausted = errors.New("maximum price levels reached")

	ErrOrderNotFound  = errors.New("order not found")
	ErrOrderFilled    = errors.New("order already filled")
	ErrOrderCancelled = errors.New("order already cancelled")

	// ErrDuplicateID rejects a submit reusing an existing order ID.
	ErrDuplicateID = errors.New("duplicate order id")

	// ErrInvalidOrder covers non-positive price or quantity on submit.
	ErrInvalidOrder = errors.New("invalid order")

	// ErrInvalidQuantity rejects a modify whose new quantity is not above
	// the already-filled amount.
	ErrInvalidQuantity = errors.New("invalid quantity")
)
