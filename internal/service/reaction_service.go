package service

import (
	"context"
	"errors"
	"log/slog"

	"procrastinators/internal/middleware"
	"procrastinators/internal/models"
	"procrastinators/internal/observability"
	"procrastinators/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// ReactionService toggles likes and dislikes.
type ReactionService struct {
	uow repository.UnitOfWork
}

func NewReactionService(uow repository.UnitOfWork) *ReactionService {
	return &ReactionService{uow: uow}
}

// SetReaction toggles kind for (p, postID). Requesting a kind always clears
// the opposite one; requesting it again removes it. Everything happens in one
// unit of work so the pair never holds both a like and a dislike.
func (s *ReactionService) SetReaction(ctx context.Context, p models.Principal, postID uint, kind models.ReactionKind) (state *models.ReactionState, err error) {
	ctx, span := observability.StartSpan(ctx, "service", "SetReaction",
		attribute.String("reaction.kind", string(kind)),
		attribute.Int64("post.id", int64(postID)),
	)
	defer func() { observability.EndSpan(span, err) }()

	if err := requireAuthenticated(p); err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, models.NewValidationError("unknown reaction kind")
	}

	var active bool
	var likes, dislikes int64
	err = s.uow.WithReactionLock(ctx, p.UserID, postID, func(tx repository.ReactionTx) error {
		exists, err := tx.PostExists(ctx, postID)
		if err != nil {
			return err
		}
		if !exists {
			return models.NewNotFoundError("Post", postID)
		}

		if _, err := tx.Delete(ctx, kind.Opposite(), p.UserID, postID); err != nil {
			return err
		}

		created, err := tx.Insert(ctx, kind, p.UserID, postID)
		if err != nil {
			return err
		}
		active = created
		if !created {
			if _, err := tx.Delete(ctx, kind, p.UserID, postID); err != nil {
				return err
			}
		}

		if likes, err = tx.Count(ctx, models.ReactionLike, postID); err != nil {
			return err
		}
		dislikes, err = tx.Count(ctx, models.ReactionDislike, postID)
		return err
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, models.NewInternalError(err)
	}

	result := "deactivated"
	if active {
		result = "activated"
	}
	observability.ReactionToggles.WithLabelValues(string(kind), result).Inc()
	middleware.Logger.DebugContext(ctx, "reaction toggled",
		slog.String("kind", string(kind)),
		slog.Uint64("post_id", uint64(postID)),
		slog.String("result", result),
	)

	state = &models.ReactionState{LikeCount: likes, DislikeCount: dislikes}
	if kind == models.ReactionLike {
		state.Liked = active
	} else {
		state.Disliked = active
	}
	return state, nil
}
