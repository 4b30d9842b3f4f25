// Package cli drives the order book from an interactive command loop.
// It only constructs plain orders and prints results; matching stays in the
// book.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"matchbook/internal/book"
	"matchbook/internal/csvfile"
	"matchbook/internal/store"
)

type CLI struct {
	book  *book.OrderBook
	store *store.Store // nil disables archiving
	in    io.Reader
	out   io.Writer
}

func New(b *book.OrderBook, st *store.Store, in io.Reader, out io.Writer) *CLI {
	return &CLI{book: b, store: st, in: in, out: out}
}

// Run reads commands until exit/quit or EOF.
func (c *CLI) Run() error {
	scanner := bufio.NewScanner(c.in)
	for {
		fmt.Fprint(c.out, "\nEnter command (help for list of commands): ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		args := strings.Fields(line)
		command := strings.ToLower(args[0])
		if command == "exit" || command == "quit" {
			break
		}
		c.dispatch(command, args[1:])
	}
	return scanner.Err()
}

func (c *CLI) dispatch(command string, args []string) {
	switch command {
	case "help":
		c.printHelp()
	case "buy":
		c.submit(book.Buy, args)
	case "sell":
		c.submit(book.Sell, args)
	case "cancel":
		c.cancel(args)
	case "modify":
		c.modify(args)
	case "book":
		c.printBook()
	case "order":
		c.printOrder(args)
	case "trades":
		c.printTrades()
	case "save":
		c.save(args)
	case "load":
		c.load(args)
	default:
		fmt.Fprintf(c.out, "Unknown command: %s. Type 'help' for a list of commands.\n", command)
	}
}

func (c *CLI) submit(side book.Side, args []string) {
	verb := strings.ToLower(side.String())
	if len(args) != 3 {
		fmt.Fprintf(c.out, "Invalid format. Usage: %s <id> <price> <quantity>\n", verb)
		return
	}
	price, err := book.ParsePrice(args[1])
	if err != nil {
		fmt.Fprintf(c.out, "%v\n", err)
		return
	}
	quantity, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil {
		fmt.Fprintf(c.out, "Invalid quantity: %s\n", args[2])
		return
	}

	order := &book.Order{ID: args[0], Side: side, Price: price, Quantity: quantity}
	trades, err := c.book.Submit(order)
	if err != nil {
		fmt.Fprintf(c.out, "%v\n", err)
		return
	}
	for _, t := range trades {
		fmt.Fprintf(c.out, "TRADE: %s @ %s, Qty: %d\n", t.Symbol, book.FormatPrice(t.Price), t.Quantity)
	}
	c.archive(order.ID, trades)
	c.printBook()
}

func (c *CLI) cancel(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "Invalid format. Usage: cancel <id>")
		return
	}
	if err := c.book.Cancel(args[0]); err != nil {
		fmt.Fprintf(c.out, "%v\n", err)
		return
	}
	fmt.Fprintf(c.out, "Cancelled order: %s\n", args[0])
	c.archive(args[0], nil)
	c.printBook()
}

func (c *CLI) modify(args []string) {
	if len(args) != 3 {
		fmt.Fprintln(c.out, "Invalid format. Usage: modify <id> <new_quantity> <new_price>")
		return
	}
	quantity, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		fmt.Fprintf(c.out, "Invalid quantity: %s\n", args[1])
		return
	}
	price, err := book.ParsePrice(args[2])
	if err != nil {
		fmt.Fprintf(c.out, "%v\n", err)
		return
	}

	trades, err := c.book.Modify(args[0], quantity, price)
	if err != nil {
		fmt.Fprintf(c.out, "%v\n", err)
		return
	}
	for _, t := range trades {
		fmt.Fprintf(c.out, "TRADE: %s @ %s, Qty: %d\n", t.Symbol, book.FormatPrice(t.Price), t.Quantity)
	}
	fmt.Fprintf(c.out, "Modified order: %s\n", args[0])
	c.archive(args[0], trades)
	c.printBook()
}

// printBook renders the L2 ladder: asks from high to low, then bids from
// high to low, best prices adjacent to the separator.
func (c *CLI) printBook() {
	snap := c.book.Snapshot()

	fmt.Fprintf(c.out, "\n=== ORDER BOOK: %s ===\n", snap.Symbol)
	fmt.Fprintf(c.out, "%-10s %-10s %-10s\n", "Price", "Quantity", "Count")
	for i := len(snap.Asks) - 1; i >= 0; i-- {
		l := snap.Asks[i]
		fmt.Fprintf(c.out, "%-10s %-10d %-10d\n", book.FormatPrice(l.Price), l.Quantity, l.Count)
	}
	fmt.Fprintln(c.out, "--------------------")
	for _, l := range snap.Bids {
		fmt.Fprintf(c.out, "%-10s %-10d %-10d\n", book.FormatPrice(l.Price), l.Quantity, l.Count)
	}
	fmt.Fprintln(c.out, "========================")
}

func (c *CLI) printOrder(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "Invalid format. Usage: order <id>")
		return
	}
	order, exists := c.book.Get(args[0])
	if !exists {
		fmt.Fprintf(c.out, "Order not found: %s\n", args[0])
		return
	}
	fmt.Fprintf(c.out, "Order ID: %s, Symbol: %s, Side: %s, Price: %s, Quantity: %d, Filled: %d, Status: %s\n",
		order.ID, order.Symbol, order.Side, book.FormatPrice(order.Price), order.Quantity, order.Filled, order.Status)
}

func (c *CLI) printTrades() {
	trades := c.book.RecentTrades(20)
	if len(trades) == 0 {
		fmt.Fprintln(c.out, "No trades yet.")
		return
	}
	for _, t := range trades {
		fmt.Fprintf(c.out, "%s  %s @ %s  Qty: %d  (buy %s / sell %s)\n",
			t.Timestamp.Format("15:04:05"), t.Symbol, book.FormatPrice(t.Price), t.Quantity, t.BuyOrderID, t.SellOrderID)
	}
}

func (c *CLI) save(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "Invalid format. Usage: save <filename>")
		return
	}
	if err := csvfile.SaveFile(args[0], c.book); err != nil {
		fmt.Fprintf(c.out, "Failed to save: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "Orders saved to %s\n", args[0])
}

func (c *CLI) load(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "Invalid format. Usage: load <filename>")
		return
	}
	loaded, skipped, err := csvfile.LoadFile(args[0], c.book)
	if err != nil {
		fmt.Fprintf(c.out, "Failed to load: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "Orders loaded from %s (%d accepted, %d skipped)\n", args[0], loaded, skipped)
	c.printBook()
}

func (c *CLI) archive(id string, trades []book.Trade) {
	if c.store == nil {
		return
	}
	touched := map[string]bool{id: true}
	for _, t := range trades {
		touched[t.BuyOrderID] = true
		touched[t.SellOrderID] = true
	}
	for orderID := range touched {
		if order, exists := c.book.Get(orderID); exists {
			if err := c.store.RecordOrder(*order); err != nil {
				log.Printf("cli: archive order %s: %v", orderID, err)
			}
		}
	}
}

func (c *CLI) printHelp() {
	fmt.Fprint(c.out, `
=== ORDER BOOK COMMANDS ===
buy <id> <price> <quantity>   - Add a buy order
sell <id> <price> <quantity>  - Add a sell order
cancel <id>                   - Cancel an order
modify <id> <qty> <price>     - Modify an order
book                          - Display the order book
order <id>                    - Display order details
trades                        - Display recent trades
save <filename>               - Save orders to CSV file
load <filename>               - Load orders from CSV file
help                          - Show this help message
exit/quit                     - Exit the program
=============================
`)
}
