package main

import (
	"flag"
	"log"
	"net/http"

	"github.com/mcclellann/backoffice/pkg/config"
	"github.com/mcclellann/backoffice/pkg/ledger"
	"github.com/mcclellann/backoffice/pkg/store"
)

func main() {
	configPath := flag.String("config", "", "path to a config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize SQLite Store
	sqliteStore, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize SQLite store: %v", err)
	}

	server, err := NewServer(sqliteStore,
		ledger.WithNodeID(cfg.Ledger.NodeID),
		ledger.WithControlDueOffset(cfg.Controls.DueOffsetDays),
	)
	if err != nil {
		sqliteStore.Close()
		log.Fatalf("Failed to initialize ledger: %v", err)
	}
	defer server.Close()

	log.Println("Server starting on " + cfg.Server.Addr)
	log.Fatal(http.ListenAndServe(cfg.Server.Addr, server.Routes()))
}
