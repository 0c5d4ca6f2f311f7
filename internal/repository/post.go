// Package repository provides the GORM-backed data access layer.
package repository

import (
	"context"
	"errors"
	"time"

	"procrastinators/internal/models"
	"procrastinators/internal/observability"

	"gorm.io/gorm"
)

// PostSort selects the leaderboard ordering.
type PostSort string

const (
	SortLikes    PostSort = "likes"
	SortDislikes PostSort = "dislikes"
	SortTime     PostSort = "time"
)

// ParsePostSort maps a query value to a PostSort. Unknown values fall back to likes.
func ParsePostSort(s string) PostSort {
	switch PostSort(s) {
	case SortDislikes, SortTime:
		return PostSort(s)
	default:
		return SortLikes
	}
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	List(ctx context.Context, limit, offset int) ([]*models.Post, error)
	Rank(ctx context.Context, sort PostSort) ([]*models.Post, error)
	CreatedAfter(ctx context.Context, since time.Time) ([]*models.Post, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("create", "posts")()
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.applyPostDetails(r.db.WithContext(ctx)).
		Preload("Author").
		First(&post, "posts.id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.applySort(r.applyPostDetails(r.db.WithContext(ctx)).Preload("Author"), SortTime).
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) Rank(ctx context.Context, sort PostSort) ([]*models.Post, error) {
	defer observability.TrackQuery("rank", "posts")()
	var posts []*models.Post
	err := r.applySort(r.applyPostDetails(r.db.WithContext(ctx)).Preload("Author"), sort).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) CreatedAfter(ctx context.Context, since time.Time) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.applySort(r.applyPostDetails(r.db.WithContext(ctx)).Preload("Author"), SortTime).
		Where("posts.created_at > ?", since.UTC()).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// applyPostDetails adds subqueries so every post carries its live counts.
func (r *postRepository) applyPostDetails(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Post{}).Select("posts.*, " +
		"(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) AS like_count, " +
		"(SELECT COUNT(*) FROM dislikes WHERE dislikes.post_id = posts.id) AS dislike_count")
}

// applySort appends the ORDER BY clause for the requested sort. like_count and
// dislike_count are SELECT aliases from applyPostDetails. posts.id is the final
// tiebreaker so equal timestamps still order deterministically.
func (r *postRepository) applySort(db *gorm.DB, sort PostSort) *gorm.DB {
	switch sort {
	case SortDislikes:
		return db.Order("dislike_count DESC, posts.created_at DESC, posts.id DESC")
	case SortTime:
		return db.Order("posts.created_at DESC, posts.id DESC")
	default:
		return db.Order("like_count DESC, posts.created_at DESC, posts.id DESC")
	}
}
