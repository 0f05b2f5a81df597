// Command seed fills the database with demo companies, users, inventory and purchase requests.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"stockflow/internal/config"
	"stockflow/internal/database"
	"stockflow/internal/seed"
)

func main() {
	members := flag.Int("members", 5, "Members created per company besides the admin")
	requests := flag.Int("requests", 12, "Purchase requests created per company")
	clean := flag.Bool("clean", true, "Delete existing workflow data first")
	fixturesPath := flag.String("fixtures", "", "YAML catalog to use instead of the embedded one")
	randSeed := flag.Int64("seed", 0, "Deterministic faker seed (0 = random)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	fixtures, err := seed.DefaultFixtures()
	if *fixturesPath != "" {
		var data []byte
		if data, err = os.ReadFile(*fixturesPath); err == nil {
			fixtures, err = seed.ParseFixtures(data)
		}
	}
	if err != nil {
		log.Fatalf("Failed to load fixtures: %v", err)
	}

	opts := seed.Options{MembersPerCompany: *members, RequestsPerCompany: *requests, Seed: *randSeed}
	s, err := seed.NewSeeder(db, fixtures, opts)
	if err != nil {
		log.Fatalf("Failed to create seeder: %v", err)
	}

	if *clean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	summary, err := s.Run(ctx, opts)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d companies, %d users, %d items, %d purchase requests",
		summary.Companies, summary.Users, summary.Items, summary.Requests)
	log.Printf("Every seeded user has the password: %s", seed.DefaultPassword)
}
