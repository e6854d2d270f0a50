package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/fixora/storefront/application/usecase"
	"github.com/fixora/storefront/infrastructure/adapter/postgres"
	"github.com/fixora/storefront/infrastructure/config"
	"github.com/fixora/storefront/infrastructure/service/logger"
	"github.com/fixora/storefront/infrastructure/service/password"
)

// create_user provisions an account without going through the HTTP API,
// e.g. for seeding a demo database.
func main() {
	username := flag.String("username", os.Getenv("SEED_USERNAME"), "username to create")
	userPassword := flag.String("password", os.Getenv("SEED_PASSWORD"), "password for the new user")
	cost := flag.Int("bcrypt-cost", 10, "bcrypt cost")
	flag.Parse()

	if *username == "" || *userPassword == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dsn, err := config.LoadDatabaseURL()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := postgres.Open(ctx, dsn, postgres.PoolConfig{MaxOpenConns: 1})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	credentials, err := usecase.NewCredentialStore(
		postgres.NewUserRepositoryAdapter(db),
		password.NewBcryptPasswordService(*cost),
		logger.NewNopLogger(),
	)
	if err != nil {
		log.Fatalf("Failed to initialize credential store: %v", err)
	}

	user, err := credentials.Create(ctx, *username, *userPassword)
	if err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}

	fmt.Printf("User %q created at %s\n", user.Username, user.CreatedAt.Format(time.RFC3339))
}
