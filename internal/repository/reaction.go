package repository

import (
	"context"
	"fmt"

	"procrastinators/internal/models"
	"procrastinators/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReactionTx is the set of operations available inside a reaction unit of work.
type ReactionTx interface {
	PostExists(ctx context.Context, postID uint) (bool, error)
	// Insert adds a row with insert-or-ignore semantics and reports whether a row was created.
	Insert(ctx context.Context, kind models.ReactionKind, userID, postID uint) (bool, error)
	Delete(ctx context.Context, kind models.ReactionKind, userID, postID uint) (int64, error)
	Count(ctx context.Context, kind models.ReactionKind, postID uint) (int64, error)
}

// UnitOfWork runs fn atomically with respect to every other unit of work on
// the same (user, post) pair. fn's error rolls everything back.
type UnitOfWork interface {
	WithReactionLock(ctx context.Context, userID, postID uint, fn func(tx ReactionTx) error) error
}

// ReactionRepository answers read-only questions about reactions.
type ReactionRepository interface {
	ReactedPostIDs(ctx context.Context, kind models.ReactionKind, userID uint, postIDs []uint) ([]uint, error)
}

type gormUnitOfWork struct {
	db *gorm.DB
}

// NewUnitOfWork returns a transaction-backed UnitOfWork. On PostgreSQL the
// transaction also holds an advisory lock keyed by (user, post).
func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &gormUnitOfWork{db: db}
}

func (u *gormUnitOfWork) WithReactionLock(ctx context.Context, userID, postID uint, fn func(tx ReactionTx) error) error {
	defer observability.TrackQuery("toggle", "reactions")()
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			// Truncating large IDs can only make two pairs share a lock.
			if err := tx.Exec("SELECT pg_advisory_xact_lock(?, ?)", int32(userID), int32(postID)).Error; err != nil {
				return fmt.Errorf("acquire reaction lock: %w", err)
			}
		}
		return fn(&reactionTx{db: tx})
	})
}

type reactionTx struct {
	db *gorm.DB
}

func reactionModel(kind models.ReactionKind) any {
	if kind == models.ReactionDislike {
		return &models.Dislike{}
	}
	return &models.Like{}
}

func (t *reactionTx) PostExists(ctx context.Context, postID uint) (bool, error) {
	var count int64
	if err := t.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", postID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (t *reactionTx) Insert(ctx context.Context, kind models.ReactionKind, userID, postID uint) (bool, error) {
	var row any
	switch kind {
	case models.ReactionLike:
		row = &models.Like{UserID: userID, PostID: postID}
	case models.ReactionDislike:
		row = &models.Dislike{UserID: userID, PostID: postID}
	default:
		return false, fmt.Errorf("unknown reaction kind %q", kind)
	}

	res := t.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (t *reactionTx) Delete(ctx context.Context, kind models.ReactionKind, userID, postID uint) (int64, error) {
	res := t.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(reactionModel(kind))
	return res.RowsAffected, res.Error
}

func (t *reactionTx) Count(ctx context.Context, kind models.ReactionKind, postID uint) (int64, error) {
	var count int64
	err := t.db.WithContext(ctx).Model(reactionModel(kind)).Where("post_id = ?", postID).Count(&count).Error
	return count, err
}

type reactionRepository struct {
	db *gorm.DB
}

// NewReactionRepository returns a GORM ReactionRepository.
func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{db: db}
}

func (r *reactionRepository) ReactedPostIDs(ctx context.Context, kind models.ReactionKind, userID uint, postIDs []uint) ([]uint, error) {
	if len(postIDs) == 0 {
		return []uint{}, nil
	}
	ids := []uint{}
	err := r.db.WithContext(ctx).
		Model(reactionModel(kind)).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Order("post_id DESC").
		Pluck("post_id", &ids).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}
