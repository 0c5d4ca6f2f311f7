// Command migrate runs schema operations for the application database.
package main

import (
	"flag"
	"fmt"
	"log"
	"sort"
	"strings"

	"procrastinators/internal/config"
	"procrastinators/internal/database"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/migrate <auto|status>")
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(flag.Arg(0))) {
	case "auto":
		if err := database.ApplySchema(db); err != nil {
			return fmt.Errorf("auto schema apply failed: %w", err)
		}
		log.Println("automigrations applied")
	case "status":
		status := database.TableStatus(db)
		tables := make([]string, 0, len(status))
		for table := range status {
			tables = append(tables, table)
		}
		sort.Strings(tables)
		log.Printf("driver=%s env=%s tables=%d", cfg.DBDriver(), cfg.Env, len(tables))
		for _, table := range tables {
			state := "present"
			if !status[table] {
				state = "missing"
			}
			log.Printf("%s: %s", table, state)
		}
	default:
		return usage()
	}

	return nil
}
