package cli

import (
	"bytes"
	"strings"
	"testing"

	"matchbook/internal/book"
)

func run(t *testing.T, b *book.OrderBook, commands ...string) string {
	t.Helper()
	var out bytes.Buffer
	c := New(b, nil, strings.NewReader(strings.Join(commands, "\n")+"\n"), &out)
	if err := c.Run(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return out.String()
}

func TestBuySellAndTrade(t *testing.T) {
	b := book.New("AAPL")
	out := run(t, b,
		"buy b1 101.00 10",
		"sell s1 100.00 5",
		"exit",
	)

	if !strings.Contains(out, "TRADE: AAPL @ 101.00, Qty: 5") {
		t.Errorf("expected trade line, got:\n%s", out)
	}

	b1, _ := b.Get("b1")
	if b1.Filled != 5 || b1.Status != book.PartiallyFilled {
		t.Errorf("b1 wrong: filled=%d status=%s", b1.Filled, b1.Status)
	}
}

func TestCancelCommand(t *testing.T) {
	b := book.New("AAPL")
	out := run(t, b,
		"buy b1 100.00 10",
		"cancel b1",
		"cancel ghost",
	)

	if !strings.Contains(out, "Cancelled order: b1") {
		t.Errorf("expected cancel confirmation, got:\n%s", out)
	}
	if !strings.Contains(out, "order not found") {
		t.Errorf("expected not-found message, got:\n%s", out)
	}
}

func TestModifyCommand(t *testing.T) {
	b := book.New("AAPL")
	run(t, b,
		"buy b1 100.00 10",
		"modify b1 25 100.00",
	)

	b1, _ := b.Get("b1")
	if b1.Quantity != 25 {
		t.Errorf("expected quantity 25, got %d", b1.Quantity)
	}
}

func TestOrderAndBookOutput(t *testing.T) {
	b := book.New("AAPL")
	out := run(t, b,
		"buy b1 101.50 10",
		"order b1",
		"book",
	)

	if !strings.Contains(out, "Order ID: b1, Symbol: AAPL, Side: BUY, Price: 101.50, Quantity: 10, Filled: 0, Status: OPEN") {
		t.Errorf("order detail missing, got:\n%s", out)
	}
	if !strings.Contains(out, "=== ORDER BOOK: AAPL ===") {
		t.Errorf("book header missing, got:\n%s", out)
	}
}

func TestBadInputKeepsRunning(t *testing.T) {
	b := book.New("AAPL")
	out := run(t, b,
		"frobnicate",
		"buy b1",
		"buy b2 abc 10",
		"buy b3 100.00 10",
	)

	if !strings.Contains(out, "Unknown command: frobnicate") {
		t.Errorf("unknown command message missing, got:\n%s", out)
	}
	if !strings.Contains(out, "Usage: buy <id> <price> <quantity>") {
		t.Errorf("usage message missing, got:\n%s", out)
	}
	if _, exists := b.Get("b3"); !exists {
		t.Error("valid command after bad ones must still work")
	}
}

func TestSaveLoadCommands(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/orders.csv"

	b := book.New("AAPL")
	run(t, b,
		"buy b1 101.00 10",
		"save "+path,
	)

	fresh := book.New("AAPL")
	out := run(t, fresh, "load "+path)
	if !strings.Contains(out, "1 accepted, 0 skipped") {
		t.Errorf("expected load summary, got:\n%s", out)
	}
	if _, exists := fresh.Get("b1"); !exists {
		t.Error("loaded order missing from book")
	}
}
