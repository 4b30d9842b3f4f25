// Package csvfile loads and saves order batches in the CSV exchange format
// ID,Symbol,Side,Price,Quantity,Filled,Status. It is a thin collaborator:
// rows become plain orders fed through the book, never anything more.
package csvfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"matchbook/internal/book"
)

var header = []string{"ID", "Symbol", "Side", "Price", "Quantity", "Filled", "Status"}

// Load parses CSV rows and submits each as a fresh open order. The Filled and
// Status columns, when present, are ignored: the book re-derives the
// lifecycle by replaying submissions. Malformed rows are skipped with a
// diagnostic and counted; only I/O errors are fatal. Returns the number of
// orders accepted and the number of rows skipped.
func Load(r io.Reader, b *book.OrderBook) (loaded, skipped int, err error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			log.Printf("csvfile: line %d: %v", line, err)
			skipped++
			continue
		}
		if line == 1 && isHeader(record) {
			continue
		}

		order, err := parseRecord(record)
		if err != nil {
			log.Printf("csvfile: line %d: %v", line, err)
			skipped++
			continue
		}
		if _, err := b.Submit(order); err != nil {
			log.Printf("csvfile: line %d: order %s rejected: %v", line, order.ID, err)
			skipped++
		} else {
			loaded++
		}
	}
	return loaded, skipped, nil
}

func LoadFile(path string, b *book.OrderBook) (loaded, skipped int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()
	return Load(f, b)
}

// parseRecord accepts the 5-field submission form (ID,Symbol,Side,Price,Qty)
// or the full 7-field export form.
func parseRecord(record []string) (*book.Order, error) {
	if len(record) != 5 && len(record) != 7 {
		return nil, fmt.Errorf("expected 5 or 7 fields, got %d", len(record))
	}

	id := strings.TrimSpace(record[0])
	symbol := strings.TrimSpace(record[1])
	if id == "" || symbol == "" {
		return nil, fmt.Errorf("missing id or symbol")
	}

	side, err := book.ParseSide(record[2])
	if err != nil {
		return nil, err
	}
	price, err := book.ParsePrice(strings.TrimSpace(record[3]))
	if err != nil {
		return nil, err
	}
	quantity, err := strconv.ParseInt(strings.TrimSpace(record[4]), 10, 64)
	if err != nil || quantity <= 0 {
		return nil, fmt.Errorf("invalid quantity %q", record[4])
	}

	return &book.Order{
		ID:       id,
		Symbol:   symbol,
		Side:     side,
		Price:    price,
		Quantity: quantity,
	}, nil
}

// Save writes every order the book has ever accepted, terminal ones
// included, in acceptance order.
func Save(w io.Writer, b *book.OrderBook) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, o := range b.Orders() {
		row := []string{
			o.ID,
			o.Symbol,
			o.Side.String(),
			book.FormatPrice(o.Price),
			strconv.FormatInt(o.Quantity, 10),
			strconv.FormatInt(o.Filled, 10),
			o.Status.String(),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func SaveFile(path string, b *book.OrderBook) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Save(f, b); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func isHeader(record []string) bool {
	return len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), "ID")
}
