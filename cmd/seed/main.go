// Command seed populates the database with demo users, posts and reactions.
package main

import (
	"context"
	"flag"
	"log"

	"procrastinators/internal/config"
	"procrastinators/internal/database"
	"procrastinators/internal/middleware"
	"procrastinators/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 25, "Number of users to create")
	numPosts := flag.Int("posts", 100, "Number of posts to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	rate := flag.Float64("rate", 0.3, "Chance that a user reacts to a given post")
	fakerSeed := flag.Int64("seed", 0, "Faker seed; 0 picks a random one")
	maxDays := flag.Int("days", 30, "Spread post timestamps over this many past days")
	flag.Parse()

	log.Printf("Target: %d users, %d posts, clean=%v", *numUsers, *numPosts, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}
	middleware.InitLogger(cfg.Env, cfg.LogLevel)

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	res, err := seed.Run(context.Background(), db, seed.Options{
		NumUsers:     *numUsers,
		NumPosts:     *numPosts,
		Clean:        *shouldClean,
		ReactionRate: *rate,
		Seed:         *fakerSeed,
		MaxDays:      *maxDays,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Created %d users, %d posts, %d likes, %d dislikes", res.Users, res.Posts, res.Likes, res.Dislikes)
	log.Printf("All seeded users have the password: %s", seed.DefaultPassword)
}
