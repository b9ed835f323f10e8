package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"strconv"

	"dashkit/adapters/postgres"
	"dashkit/internal/migration"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const usage = "Usage: migrate <database_url> [prune <days> | list [callback]]"

func main() {
	if len(os.Args) < 2 {
		log.Fatal(usage)
	}
	databaseURL := os.Args[1]
	ctx := context.Background()

	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	runner := migration.NewRunner()
	if err := runner.Run(ctx, db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Printf("Fault log schema %s is up to date", runner.Version())

	if len(os.Args) < 3 {
		return
	}
	repo := postgres.NewFaultRepository(db)

	switch os.Args[2] {
	case "prune":
		if len(os.Args) < 4 {
			log.Fatal(usage)
		}
		days, err := strconv.Atoi(os.Args[3])
		if err != nil {
			log.Fatalf("Invalid number of days %q: %v", os.Args[3], err)
		}
		n, err := repo.DeleteOlderThan(ctx, days)
		if err != nil {
			log.Fatalf("Prune failed: %v", err)
		}
		log.Printf("Deleted %d faults older than %d days", n, days)

	case "list":
		name := ""
		if len(os.Args) > 3 {
			name = os.Args[3]
		}
		faults, err := repo.ListRecent(ctx, name, 50)
		if err != nil {
			log.Fatalf("Listing faults failed: %v", err)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(faults); err != nil {
			log.Fatalf("Failed to write faults: %v", err)
		}

	default:
		log.Fatal(usage)
	}
}
