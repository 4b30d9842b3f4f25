package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"matchbook/internal/api"
	"matchbook/internal/book"
	"matchbook/internal/cli"
	"matchbook/internal/csvfile"
	"matchbook/internal/store"
)

func main() {
	symbol := flag.String("symbol", "AAPL", "instrument symbol for the book")
	dbPath := flag.String("db", "", "SQLite archive path (empty = no archive)")
	loadPath := flag.String("load", "", "CSV file of orders to preload")
	listen := flag.String("listen", "", "serve HTTP on this address (e.g. :8088) instead of the interactive CLI")
	corsOrigins := flag.String("cors", "", "comma-separated allowed CORS origins (empty = allow all for dev)")
	maxOrders := flag.Int("max-orders", 10000, "maximum orders the book will accept")
	maxLevels := flag.Int("max-levels", 100, "maximum distinct price levels per side")
	flag.Parse()

	b := book.NewWithConfig(*symbol, book.Config{
		MaxOrders: *maxOrders,
		MaxLevels: *maxLevels,
	})

	var st *store.Store
	if *dbPath != "" {
		var err error
		st, err = store.New(*dbPath)
		if err != nil {
			log.Fatalf("Failed to open archive: %v", err)
		}
		defer func() {
			if err := st.Close(); err != nil {
				log.Printf("Archive close error: %v", err)
			}
		}()

		b.OnTrade(func(t book.Trade) {
			if err := st.RecordTrade(t); err != nil {
				log.Printf("Failed to archive trade %s: %v", t.ID, err)
			}
		})
		log.Printf("Archiving to %s", *dbPath)
	}

	if *loadPath != "" {
		loaded, skipped, err := csvfile.LoadFile(*loadPath, b)
		if err != nil {
			log.Fatalf("Failed to load %s: %v", *loadPath, err)
		}
		log.Printf("Preloaded %d orders from %s (%d rows skipped)", loaded, *loadPath, skipped)
	}

	if *listen == "" {
		c := cli.New(b, st, os.Stdin, os.Stdout)
		if err := c.Run(); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		return
	}

	server := api.NewServer(b, st)
	if *corsOrigins != "" {
		origins := strings.Split(*corsOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		server.SetCORSOrigins(origins)
		log.Printf("CORS restricted to: %v", origins)
	}

	httpServer := &http.Server{
		Addr:    *listen,
		Handler: server.Router(),
	}

	go func() {
		log.Printf("Serving %s book on %s", *symbol, *listen)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	server.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	log.Println("Shutdown complete")
}
