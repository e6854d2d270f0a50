package main

import (
	"context"
	"flag"
	"log"
	"strings"
	"time"

	"github.com/fixora/storefront/infrastructure/adapter/postgres"
	"github.com/fixora/storefront/infrastructure/config"
	"github.com/fixora/storefront/infrastructure/service/logger"
)

func main() {
	mode := flag.String("mode", "up", "migration mode: up, down, status or prune")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	dsn, err := config.LoadDatabaseURL()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	db, err := postgres.Open(ctx, dsn, postgres.PoolConfig{MaxOpenConns: 2, MaxIdleConns: 1})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer db.Close()

	switch strings.ToLower(*mode) {
	case "up":
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Fatalf("migration up failed: %v", err)
		}
		log.Println("Migration up completed successfully")
	case "down":
		if err := postgres.MigrateDown(ctx, db); err != nil {
			log.Fatalf("migration down failed: %v", err)
		}
		log.Println("Migration down completed successfully")
	case "status":
		if err := postgres.MigrationStatus(ctx, db); err != nil {
			log.Fatalf("migration status failed: %v", err)
		}
	case "prune":
		// deleting rows needs no hashing salt
		repo := postgres.NewRefreshTokenRepositoryAdapter(db, postgres.NewTransactor(db, logger.NewNopLogger()), "")
		n, err := repo.DeleteExpired(ctx, time.Now())
		if err != nil {
			log.Fatalf("prune failed: %v", err)
		}
		log.Printf("Pruned %d expired refresh tokens", n)
	default:
		log.Fatalf("unknown mode: %s", *mode)
	}
}
