package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"matchbook/internal/book"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer(book.New("AAPL"), nil)
	ts := httptest.NewServer(s.Router())
	t.Cleanup(func() {
		ts.Close()
		s.Shutdown()
	})
	return s, ts
}

func postOrder(t *testing.T, ts *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/orders", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}
	return resp
}

func TestSubmitAndGetBook(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postOrder(t, ts, `{"id":"b1","side":"BUY","price":"101.00","quantity":10}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var or OrderResponse
	json.NewDecoder(resp.Body).Decode(&or)
	resp.Body.Close()
	if or.Order.ID != "b1" || or.Order.Price != "101.00" || or.Order.Status != "OPEN" {
		t.Errorf("order view wrong: %+v", or.Order)
	}
	if len(or.Trades) != 0 {
		t.Errorf("expected no trades, got %d", len(or.Trades))
	}

	bookResp, err := http.Get(ts.URL + "/api/book")
	if err != nil {
		t.Fatalf("get book failed: %v", err)
	}
	defer bookResp.Body.Close()
	var bv BookView
	json.NewDecoder(bookResp.Body).Decode(&bv)
	if bv.Symbol != "AAPL" || len(bv.Bids) != 1 {
		t.Fatalf("book view wrong: %+v", bv)
	}
	if bv.Bids[0].Price != "101.00" || bv.Bids[0].Quantity != 10 || bv.Bids[0].Count != 1 {
		t.Errorf("bid level wrong: %+v", bv.Bids[0])
	}
}

func TestSubmitMatchReturnsTrades(t *testing.T) {
	_, ts := newTestServer(t)

	postOrder(t, ts, `{"id":"b1","side":"BUY","price":"101.00","quantity":10}`).Body.Close()
	resp := postOrder(t, ts, `{"id":"s1","side":"SELL","price":"100.00","quantity":5}`)
	defer resp.Body.Close()

	var or OrderResponse
	json.NewDecoder(resp.Body).Decode(&or)
	if len(or.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(or.Trades))
	}
	if or.Trades[0].Price != "101.00" || or.Trades[0].Quantity != 5 {
		t.Errorf("trade view wrong: %+v", or.Trades[0])
	}
	if or.Order.Status != "FILLED" {
		t.Errorf("expected FILLED, got %s", or.Order.Status)
	}
}

func TestSubmitValidation(t *testing.T) {
	_, ts := newTestServer(t)

	cases := []string{
		`not json`,
		`{"side":"UP","price":"100.00","quantity":10}`,
		`{"side":"BUY","price":"abc","quantity":10}`,
		`{"side":"BUY","price":"100.00","quantity":0}`,
	}
	for _, body := range cases {
		resp := postOrder(t, ts, body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("body %q: expected 400, got %d", body, resp.StatusCode)
		}
	}
}

func TestErrorStatusMapping(t *testing.T) {
	_, ts := newTestServer(t)
	client := &http.Client{}

	// Cancel of a missing order: 404.
	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/orders/ghost", nil)
	resp, _ := client.Do(req)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}

	// Fill an order, then cancel it: 409.
	postOrder(t, ts, `{"id":"s1","side":"SELL","price":"100.00","quantity":10}`).Body.Close()
	postOrder(t, ts, `{"id":"b1","side":"BUY","price":"100.00","quantity":10}`).Body.Close()
	req, _ = http.NewRequest(http.MethodDelete, ts.URL+"/api/orders/s1", nil)
	resp, _ = client.Do(req)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for filled order, got %d", resp.StatusCode)
	}

	// Duplicate ID: 409.
	resp = postOrder(t, ts, `{"id":"s1","side":"SELL","price":"105.00","quantity":10}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for duplicate id, got %d", resp.StatusCode)
	}
}

func TestModifyEndpoint(t *testing.T) {
	_, ts := newTestServer(t)
	client := &http.Client{}

	postOrder(t, ts, `{"id":"b1","side":"BUY","price":"100.00","quantity":10}`).Body.Close()

	req, _ := http.NewRequest(http.MethodPatch, ts.URL+"/api/orders/b1",
		bytes.NewBufferString(`{"price":"100.00","quantity":25}`))
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("patch failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var or OrderResponse
	json.NewDecoder(resp.Body).Decode(&or)
	if or.Order.Quantity != 25 {
		t.Errorf("expected quantity 25, got %d", or.Order.Quantity)
	}
}

func TestOrderHistoryAndTrades(t *testing.T) {
	_, ts := newTestServer(t)

	postOrder(t, ts, `{"id":"s1","side":"SELL","price":"100.00","quantity":10}`).Body.Close()
	postOrder(t, ts, `{"id":"b1","side":"BUY","price":"100.00","quantity":10}`).Body.Close()

	resp, _ := http.Get(ts.URL + "/api/orders")
	var orders []OrderView
	json.NewDecoder(resp.Body).Decode(&orders)
	resp.Body.Close()
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders in history, got %d", len(orders))
	}
	if orders[0].Status != "FILLED" || orders[1].Status != "FILLED" {
		t.Errorf("both orders should be filled: %+v", orders)
	}

	resp, _ = http.Get(ts.URL + "/api/trades?limit=10")
	var trades []TradeView
	json.NewDecoder(resp.Body).Decode(&trades)
	resp.Body.Close()
	if len(trades) != 1 || trades[0].Quantity != 10 {
		t.Errorf("expected one trade of 10, got %+v", trades)
	}
}

func TestGetOrderDetail(t *testing.T) {
	_, ts := newTestServer(t)

	postOrder(t, ts, `{"id":"b1","side":"BUY","price":"99.50","quantity":3}`).Body.Close()

	resp, err := http.Get(ts.URL + "/api/orders/b1")
	if err != nil {
		t.Fatalf("GET /api/orders/b1: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var view OrderView
	json.NewDecoder(resp.Body).Decode(&view)
	if view.Side != "BUY" || view.Price != "99.50" {
		t.Errorf("order detail wrong: %+v", view)
	}

	resp, _ = http.Get(ts.URL + "/api/orders/ghost")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}
