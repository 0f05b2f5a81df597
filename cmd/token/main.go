// Command token issues a development access token for a seeded user.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"stockflow/internal/config"
	"stockflow/internal/database"
	"stockflow/internal/middleware"
	"stockflow/internal/repository"
)

func main() {
	email := flag.String("email", "", "Email of the user to issue a token for")
	userID := flag.Uint("user", 0, "User id (skips the database lookup)")
	ttl := flag.Duration("ttl", 12*time.Hour, "Token lifetime")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to issue development tokens in production")
	}

	id := *userID
	if id == 0 {
		if *email == "" {
			log.Fatal("usage: token -email <address> | -user <id>")
		}
		ctx := context.Background()
		db, err := database.ConnectWithOptions(ctx, cfg, database.ConnectOptions{})
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		user, err := repository.NewUserRepository(db, nil).GetByEmail(ctx, *email)
		if err != nil {
			log.Fatalf("Failed to find user %s: %v", *email, err)
		}
		id = user.ID
	}

	token, err := middleware.IssueToken(middleware.TokenSettings{
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
	}, id, *ttl)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}
	fmt.Println(token)
}
