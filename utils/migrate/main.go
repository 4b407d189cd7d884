package main

import (
	"log"

	"github.com/biblioteca/loans-service/src/config"
	"github.com/biblioteca/loans-service/src/db"
	"github.com/biblioteca/loans-service/src/models"
)

// Creates or updates the loans table without starting the HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	gdb, err := db.Connect(cfg)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	if err := db.Migrate(gdb); err != nil {
		log.Fatalf("failed to migrate loan model: %v", err)
	}

	var count int64
	if err := gdb.Model(&models.LoanModel{}).Count(&count).Error; err != nil {
		log.Fatalf("failed to count loans: %v", err)
	}
	log.Printf("Loans table is up to date on %s (%d rows)", cfg.DBDriver, count)
}
