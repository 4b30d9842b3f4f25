package book

// PriceLevel holds all resting orders at one price, oldest first. Total is
// maintained incrementally and always equals the sum of Remaining() over the
// resident orders.
type PriceLevel struct {
	Price  int64
	Total  int64
	Orders []*Order
}

func (pl *PriceLevel) append(o *Order) {
	pl.Orders = append(pl.Orders, o)
	pl.Total += o.Remaining()
}

// front returns the oldest resident order, the next match candidate.
func (pl *PriceLevel) front() *Order {
	if len(pl.Orders) == 0 {
		return nil
	}
	return pl.Orders[0]
}

// removeByID removes an order anywhere in the queue, preserving FIFO order of
// the rest, and deducts its remaining quantity from Total.
func (pl *PriceLevel) removeByID(id string) bool {
	for i, o := range pl.Orders {
		if o.ID == id {
			pl.Total -= o.Remaining()
			pl.Orders = append(pl.Orders[:i], pl.Orders[i+1:]...)
			return true
		}
	}
	return false
}

// dropFront pops the head order without touching Total; callers that fill the
// head have already deducted the traded quantity.
func (pl *PriceLevel) dropFront() {
	pl.Orders = pl.Orders[1:]
}

func (pl *PriceLevel) empty() bool {
	return len(pl.Orders) == 0
}

// bookSide keeps one side's levels sorted best-first: descending price for
// bids, ascending for asks. At most one level per distinct price.
type bookSide struct {
	side      Side
	levels    []*PriceLevel
	maxLevels int
}

func (bs *bookSide) best() *PriceLevel {
	if len(bs.levels) == 0 {
		return nil
	}
	return bs.levels[0]
}

func (bs *bookSide) find(price int64) *PriceLevel {
	for _, level := range bs.levels {
		if level.Price == price {
			return level
		}
	}
	return nil
}

// upsert returns the level for price, creating it in sorted position if
// absent. Creation fails with ErrLevelsExhausted at the level ceiling.
func (bs *bookSide) upsert(price int64) (*PriceLevel, error) {
	for i, level := range bs.levels {
		if level.Price == price {
			return level, nil
		}
		if bs.outranks(price, level.Price) {
			if len(bs.levels) >= bs.maxLevels {
				return nil, ErrLevelsExhausted
			}
			newLevel := &PriceLevel{Price: price}
			bs.levels = append(bs.levels[:i], append([]*PriceLevel{newLevel}, bs.levels[i:]...)...)
			return newLevel, nil
		}
	}
	if len(bs.levels) >= bs.maxLevels {
		return nil, ErrLevelsExhausted
	}
	newLevel := &PriceLevel{Price: price}
	bs.levels = append(bs.levels, newLevel)
	return newLevel, nil
}

// outranks reports whether price a has strictly better matching priority
// than price b on this side.
func (bs *bookSide) outranks(a, b int64) bool {
	if bs.side == Buy {
		return a > b
	}
	return a < b
}

// prune removes the level at price if its queue is empty, preserving the
// relative order of the remaining levels.
func (bs *bookSide) prune(price int64) {
	for i, level := range bs.levels {
		if level.Price == price {
			if level.empty() {
				bs.levels = append(bs.levels[:i], bs.levels[i+1:]...)
			}
			return
		}
	}
}
