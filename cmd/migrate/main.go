package main

import (
	"fmt"
	"log"
	"os"

	"ourlife/backend/config"
	"ourlife/backend/database"
	"ourlife/backend/migrations"
)

func main() {
	cfg, err := config.Load(os.Getenv("OURLIFE_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database connection
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run migrations
	err = migrations.RunMigrations(db, migrations.Options{SeedTestData: cfg.SeedTestData, BcryptCost: cfg.BcryptCost})
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	fmt.Println("Migrations completed successfully!")
}
