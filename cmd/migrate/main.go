package main

import (
	"flag"
	"fmt"
	"log"

	"ecoflow/internal/platform/config"
	"ecoflow/internal/platform/database"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	dbPath := flag.String("db", "", "Database path (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	applied, err := database.Migrate(db)
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	for _, name := range applied {
		log.Printf("Applied migration: %s", name)
	}
	fmt.Printf("Migration completed successfully (%d applied)\n", len(applied))
}
