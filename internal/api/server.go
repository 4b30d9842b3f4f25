// Package api exposes the order book over HTTP and WebSocket. Prices travel
// as decimal strings on the wire and as cents inside the engine.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"

	"matchbook/internal/book"
	"matchbook/internal/store"
)

type Server struct {
	book        *book.OrderBook
	hub         *Hub
	store       *store.Store // nil disables archiving
	limiter     *RateLimiter
	upgrader    websocket.Upgrader
	corsOrigins []string // empty = allow all
}

func NewServer(b *book.OrderBook, st *store.Store) *Server {
	s := &Server{
		book:    b,
		hub:     NewHub(),
		store:   st,
		limiter: NewRateLimiter(600, time.Minute),
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return s.originAllowed(r.Header.Get("Origin"))
		},
	}
	return s
}

// SetCORSOrigins restricts browser access to the given origins. An empty
// slice allows all origins (development default).
func (s *Server) SetCORSOrigins(origins []string) {
	s.corsOrigins = origins
}

func (s *Server) originAllowed(origin string) bool {
	if len(s.corsOrigins) == 0 || origin == "" {
		return true
	}
	for _, allowed := range s.corsOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(s.limiter.Middleware)

	allowedOrigins := s.corsOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/orders", s.submitOrder)
		r.Get("/orders", s.listOrders)
		r.Get("/orders/{id}", s.getOrder)
		r.Patch("/orders/{id}", s.modifyOrder)
		r.Delete("/orders/{id}", s.cancelOrder)
		r.Get("/book", s.getBook)
		r.Get("/trades", s.getTrades)
	})
	r.Get("/ws", s.handleWebSocket)

	return r
}

type OrderRequest struct {
	ID       string `json:"id,omitempty"`
	Side     string `json:"side"`     // "BUY" or "SELL", case-insensitive
	Price    string `json:"price"`    // decimal string, e.g. "101.50"
	Quantity int64  `json:"quantity"`
}

type ModifyRequest struct {
	Price    string `json:"price"`
	Quantity int64  `json:"quantity"`
}

type OrderResponse struct {
	Order  OrderView   `json:"order"`
	Trades []TradeView `json:"trades"`
}

func (s *Server) submitOrder(w http.ResponseWriter, r *http.Request) {
	var req OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	side, err := book.ParseSide(req.Side)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	price, err := book.ParsePrice(req.Price)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Quantity <= 0 {
		http.Error(w, "quantity must be positive", http.StatusBadRequest)
		return
	}

	order := &book.Order{
		ID:       req.ID,
		Side:     side,
		Price:    price,
		Quantity: req.Quantity,
	}
	trades, err := s.book.Submit(order)
	if err != nil {
		s.writeBookError(w, err)
		return
	}

	s.archiveAfter(order.ID, trades)
	s.broadcastBook()
	for _, trade := range trades {
		s.hub.Broadcast(map[string]any{"type": "trade", "trade": toTradeView(trade)})
	}

	writeJSON(w, http.StatusOK, OrderResponse{Order: toOrderView(*order), Trades: toTradeViews(trades)})
}

func (s *Server) cancelOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.book.Cancel(id); err != nil {
		s.writeBookError(w, err)
		return
	}

	s.archiveAfter(id, nil)
	s.broadcastBook()
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (s *Server) modifyOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req ModifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	price, err := book.ParsePrice(req.Price)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	trades, err := s.book.Modify(id, req.Quantity, price)
	if err != nil {
		s.writeBookError(w, err)
		return
	}

	s.archiveAfter(id, trades)
	s.broadcastBook()
	for _, trade := range trades {
		s.hub.Broadcast(map[string]any{"type": "trade", "trade": toTradeView(trade)})
	}

	order, _ := s.book.Get(id)
	writeJSON(w, http.StatusOK, OrderResponse{Order: toOrderView(*order), Trades: toTradeViews(trades)})
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	order, exists := s.book.Get(chi.URLParam(r, "id"))
	if !exists {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toOrderView(*order))
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	orders := s.book.Orders()
	views := make([]OrderView, len(orders))
	for i, o := range orders {
		views[i] = toOrderView(o)
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) getBook(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toBookView(s.book.Snapshot()))
}

func (s *Server) getTrades(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	writeJSON(w, http.StatusOK, toTradeViews(s.book.RecentTrades(limit)))
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	client := NewClient(s.hub, conn)
	if !s.hub.Register(client) {
		conn.Close()
		return
	}

	// Initial state so a fresh client can paint the ladder immediately.
	client.Send(map[string]any{"type": "book", "book": toBookView(s.book.Snapshot())})

	go client.WritePump()
	go client.ReadPump()
}

func (s *Server) broadcastBook() {
	s.hub.Broadcast(map[string]any{"type": "book", "book": toBookView(s.book.Snapshot())})
}

// archiveAfter snapshots the named order plus every order a trade touched.
// Resting counterparties mutate during matching, so they need re-recording.
func (s *Server) archiveAfter(id string, trades []book.Trade) {
	if s.store == nil {
		return
	}
	touched := map[string]bool{id: true}
	for _, t := range trades {
		touched[t.BuyOrderID] = true
		touched[t.SellOrderID] = true
	}
	for orderID := range touched {
		if order, exists := s.book.Get(orderID); exists {
			if err := s.store.RecordOrder(*order); err != nil {
				log.Printf("api: archive order %s: %v", orderID, err)
			}
		}
	}
}

func (s *Server) writeBookError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, book.ErrOrderNotFound):
		status = http.StatusNotFound
	case errors.Is(err, book.ErrOrderFilled), errors.Is(err, book.ErrOrderCancelled), errors.Is(err, book.ErrDuplicateID):
		status = http.StatusConflict
	case errors.Is(err, book.ErrBookFull), errors.Is(err, book.ErrLevelsExhausted):
		status = http.StatusServiceUnavailable
	case errors.Is(err, book.ErrInvalidOrder), errors.Is(err, book.ErrInvalidQuantity):
		status = http.StatusBadRequest
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Shutdown stops the hub and rate limiter goroutines.
func (s *Server) Shutdown() {
	s.limiter.Stop()
	s.hub.Stop()
}
