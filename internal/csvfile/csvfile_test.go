package csvfile

import (
	"bytes"
	"strings"
	"testing"

	"matchbook/internal/book"
)

func TestLoadSubmitsRows(t *testing.T) {
	b := book.New("AAPL")
	input := strings.Join([]string{
		"ID,Symbol,Side,Price,Quantity,Filled,Status",
		"b1,AAPL,BUY,101.00,10",
		"s1,AAPL,sell,100.00,5,0,OPEN",
		"",
	}, "\n")

	loaded, skipped, err := Load(strings.NewReader(input), b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded != 2 || skipped != 0 {
		t.Fatalf("loaded=%d skipped=%d", loaded, skipped)
	}

	// Replay runs matching: the sell crosses the resting buy.
	b1, ok := b.Get("b1")
	if !ok || b1.Filled != 5 || b1.Status != book.PartiallyFilled {
		t.Errorf("b1 wrong after replay: %+v", b1)
	}
	s1, _ := b.Get("s1")
	if s1.Status != book.Filled {
		t.Errorf("s1 should be filled, got %s", s1.Status)
	}
}

func TestLoadSkipsMalformedRows(t *testing.T) {
	b := book.New("AAPL")
	input := strings.Join([]string{
		"b1,AAPL,BUY,101.00,10",
		"bad-row-too-short,AAPL",
		"b2,AAPL,SIDEWAYS,101.00,10",
		"b3,AAPL,BUY,not-a-price,10",
		"b4,AAPL,BUY,101.00,zero",
		"b5,AAPL,BUY,101.00,-3",
		"b6,AAPL,BUY,102.00,7",
	}, "\n")

	loaded, skipped, err := Load(strings.NewReader(input), b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded != 2 {
		t.Errorf("expected 2 loaded, got %d", loaded)
	}
	if skipped != 5 {
		t.Errorf("expected 5 skipped, got %d", skipped)
	}
	if len(b.Orders()) != 2 {
		t.Errorf("book must hold only the valid orders, got %d", len(b.Orders()))
	}
}

func TestLoadCountsRejections(t *testing.T) {
	b := book.New("AAPL")
	input := strings.Join([]string{
		"b1,AAPL,BUY,101.00,10",
		"b1,AAPL,BUY,102.00,10", // duplicate id
	}, "\n")

	loaded, skipped, _ := Load(strings.NewReader(input), b)
	if loaded != 1 || skipped != 1 {
		t.Errorf("loaded=%d skipped=%d", loaded, skipped)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	b := book.New("AAPL")
	b.Submit(&book.Order{ID: "b1", Side: book.Buy, Price: 10100, Quantity: 10})
	b.Submit(&book.Order{ID: "s1", Side: book.Sell, Price: 10000, Quantity: 5})
	b.Submit(&book.Order{ID: "b2", Side: book.Buy, Price: 9900, Quantity: 3})
	b.Cancel("b2")

	var buf bytes.Buffer
	if err := Save(&buf, b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header + 3 rows, got %d lines", len(lines))
	}
	if lines[0] != "ID,Symbol,Side,Price,Quantity,Filled,Status" {
		t.Errorf("header wrong: %s", lines[0])
	}
	if lines[1] != "b1,AAPL,BUY,101.00,10,5,PARTIALLY FILLED" {
		t.Errorf("b1 row wrong: %s", lines[1])
	}
	if lines[2] != "s1,AAPL,SELL,100.00,5,5,FILLED" {
		t.Errorf("s1 row wrong: %s", lines[2])
	}
	if lines[3] != "b2,AAPL,BUY,99.00,3,0,CANCELLED" {
		t.Errorf("b2 row wrong: %s", lines[3])
	}

	// A saved file loads back into a fresh book.
	fresh := book.New("AAPL")
	loaded, skipped, err := Load(bytes.NewReader(buf.Bytes()), fresh)
	if err != nil || skipped != 0 {
		t.Fatalf("round trip failed: loaded=%d skipped=%d err=%v", loaded, skipped, err)
	}
	if loaded != 3 {
		t.Errorf("expected 3 loaded, got %d", loaded)
	}
}
