// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"context"
	"fmt"

	"snsdso/internal/middleware"
	"snsdso/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers       int
	PostsPerUser   int
	MaxLikes       int
	MaxComments    int
	FollowsPerUser int
	ShouldClean    bool
	// BcryptCost zero means bcrypt.DefaultCost.
	BcryptCost int
	// RandomSeed zero means a random seed.
	RandomSeed int64
	MaxDays    int
}

// Summary counts what a seed run created.
type Summary struct {
	Users    int
	Posts    int
	Likes    int
	Comments int
	Follows  int
}

// Seed populates the database with demo users, posts, likes, comments and follows.
func Seed(ctx context.Context, db *gorm.DB, opts Options) (*Summary, error) {
	log := middleware.Logger
	log.Info("starting database seeding", "users", opts.NumUsers, "posts_per_user", opts.PostsPerUser)

	if opts.ShouldClean {
		if err := ClearAll(ctx, db); err != nil {
			return nil, err
		}
	}

	f, err := NewFactory(db, opts)
	if err != nil {
		return nil, err
	}
	sum := &Summary{}

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		u, err := f.CreateUser(ctx, i+1)
		if err != nil {
			return nil, fmt.Errorf("failed to create user %d: %w", i+1, err)
		}
		users = append(users, u)
	}
	sum.Users = len(users)

	var posts []*models.Post
	for _, u := range users {
		for j := 0; j < opts.PostsPerUser; j++ {
			p, err := f.CreatePost(ctx, u)
			if err != nil {
				return nil, fmt.Errorf("failed to create post: %w", err)
			}
			posts = append(posts, p)
		}
	}
	sum.Posts = len(posts)

	if len(users) == 0 {
		return sum, nil
	}

	for _, p := range posts {
		for k := f.Intn(opts.MaxLikes + 1); k > 0; k-- {
			liked, err := f.CreateLike(ctx, users[f.Intn(len(users))], p)
			if err != nil {
				return nil, fmt.Errorf("failed to create like: %w", err)
			}
			if liked {
				sum.Likes++
			}
		}
		for k := f.Intn(opts.MaxComments + 1); k > 0; k-- {
			if _, err := f.CreateComment(ctx, users[f.Intn(len(users))], p); err != nil {
				return nil, fmt.Errorf("failed to create comment: %w", err)
			}
			sum.Comments++
		}
	}

	if len(users) > 1 {
		for _, u := range users {
			for k := 0; k < opts.FollowsPerUser; k++ {
				other := users[f.Intn(len(users))]
				if other.ID == u.ID {
					continue
				}
				followed, err := f.CreateFollow(ctx, u, other)
				if err != nil {
					return nil, fmt.Errorf("failed to create follow: %w", err)
				}
				if followed {
					sum.Follows++
				}
			}
		}
	}

	log.Info("database seeding completed",
		"users", sum.Users, "posts", sum.Posts, "likes", sum.Likes,
		"comments", sum.Comments, "follows", sum.Follows)
	return sum, nil
}

// ClearAll deletes every row, children first.
func ClearAll(ctx context.Context, db *gorm.DB) error {
	middleware.Logger.Info("clearing existing data")
	tx := db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, m := range []interface{}{
		&models.Session{},
		&models.Comment{},
		&models.Like{},
		&models.Follow{},
		&models.Post{},
		&models.User{},
	} {
		if err := tx.Delete(m).Error; err != nil {
			return fmt.Errorf("clear %T: %w", m, err)
		}
	}
	return nil
}
