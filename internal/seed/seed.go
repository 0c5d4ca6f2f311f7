package seed

import (
	"context"
	"fmt"
	"log/slog"

	"procrastinators/internal/cache"
	"procrastinators/internal/database"
	"procrastinators/internal/middleware"
	"procrastinators/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configures a seeding run.
type Options struct {
	NumUsers int
	NumPosts int
	Clean    bool
	// ReactionRate is the chance, per post and non-author user, of a reaction.
	ReactionRate float64
	// Seed makes the run reproducible; zero picks a random seed.
	Seed       int64
	MaxDays    int
	BcryptCost int
}

// Result counts what a run created.
type Result struct {
	Users    int
	Posts    int
	Likes    int
	Dislikes int
}

// Run populates db according to opts.
func Run(ctx context.Context, db *gorm.DB, opts Options) (Result, error) {
	var res Result
	db = db.WithContext(ctx)

	if opts.Clean {
		if err := Clean(db); err != nil {
			return res, err
		}
	}

	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		return res, fmt.Errorf("hash seed password: %w", err)
	}

	faker := gofakeit.New(opts.Seed)
	f := NewFactory(db, faker, string(hash), opts.MaxDays)

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		u, err := f.CreateUser()
		if err != nil {
			return res, err
		}
		users = append(users, u)
	}
	res.Users = len(users)
	if len(users) == 0 {
		return res, nil
	}

	posts := make([]*models.Post, 0, opts.NumPosts)
	for i := 0; i < opts.NumPosts; i++ {
		author := users[faker.IntRange(0, len(users)-1)]
		posts = append(posts, f.BuildPost(author))
	}
	if err := f.CreatePostsBatch(posts); err != nil {
		return res, fmt.Errorf("create posts: %w", err)
	}
	res.Posts = len(posts)

	for _, post := range posts {
		for _, u := range users {
			if u.ID == post.AuthorID || faker.Float64() >= opts.ReactionRate {
				continue
			}
			// Likes outnumber dislikes roughly three to one.
			kind := models.ReactionLike
			if faker.IntRange(0, 3) == 0 {
				kind = models.ReactionDislike
			}
			if err := f.CreateReaction(kind, u, post); err != nil {
				return res, fmt.Errorf("create %s: %w", kind, err)
			}
			if kind == models.ReactionLike {
				res.Likes++
			} else {
				res.Dislikes++
			}
		}
	}

	middleware.Logger.InfoContext(ctx, "seed completed",
		slog.Int("users", res.Users),
		slog.Int("posts", res.Posts),
		slog.Int("likes", res.Likes),
		slog.Int("dislikes", res.Dislikes),
	)
	return res, nil
}

// Clean deletes every row of every model, children first. Cached profiles of
// the removed users are dropped so their tokens stop authenticating.
func Clean(db *gorm.DB) error {
	var userIDs []uint
	if err := db.Model(&models.User{}).Pluck("id", &userIDs).Error; err != nil {
		return fmt.Errorf("clean: %w", err)
	}

	all := database.Models()
	tx := db.Session(&gorm.Session{AllowGlobalUpdate: true})
	for i := len(all) - 1; i >= 0; i-- {
		if err := tx.Delete(all[i]).Error; err != nil {
			return fmt.Errorf("clean: %w", err)
		}
	}

	ctx := db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	for _, id := range userIDs {
		cache.InvalidateUser(ctx, id)
	}
	return nil
}
