// Command main runs the database seeder.
package main

import (
	"context"
	"flag"
	"log"

	"snsdso/internal/config"
	"snsdso/internal/database"
	"snsdso/internal/middleware"
	"snsdso/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	postsPerUser := flag.Int("posts", 4, "Number of posts per user")
	maxLikes := flag.Int("likes", 10, "Maximum likes per post")
	maxComments := flag.Int("comments", 3, "Maximum comments per post")
	follows := flag.Int("follows", 5, "Follow attempts per user")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	randomSeed := flag.Int64("seed", 0, "Random seed (0 = random)")
	flag.Parse()

	log.Println("Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d users, %d posts each, clean=%v\n", *numUsers, *postsPerUser, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	middleware.ConfigureLogger(cfg.Env)

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.ApplySchema(context.Background(), db, cfg); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	sum, err := seed.Seed(context.Background(), db, seed.Options{
		NumUsers:       *numUsers,
		PostsPerUser:   *postsPerUser,
		MaxLikes:       *maxLikes,
		MaxComments:    *maxComments,
		FollowsPerUser: *follows,
		ShouldClean:    *shouldClean,
		BcryptCost:     cfg.BcryptCost,
		RandomSeed:     *randomSeed,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Created %d users, %d posts, %d likes, %d comments, %d follows\n",
		sum.Users, sum.Posts, sum.Likes, sum.Comments, sum.Follows)
	log.Printf("All test users have the password: %s\n", seed.DefaultPassword)
}
