package service

import (
	"context"
	"strings"
	"time"

	"procrastinators/internal/models"
	"procrastinators/internal/observability"
	"procrastinators/internal/repository"
	"procrastinators/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// PostService handles post authoring, the home feed and the feed delta.
type PostService struct {
	posts     repository.PostRepository
	reactions repository.ReactionRepository
	loc       *time.Location
}

// CreatePostInput is the raw form payload; hours stay a string until validated.
type CreatePostInput struct {
	Title               string `validate:"required,max=200"`
	Description         string `validate:"required"`
	HoursProcrastinated string `validate:"required"`
}

// Feed is the home page payload.
type Feed struct {
	Posts             []*models.Post `json:"posts"`
	UserLikedPosts    []uint         `json:"user_liked_posts"`
	UserDislikedPosts []uint         `json:"user_disliked_posts"`
}

// FeedDelta is the polling payload of posts created after a timestamp.
type FeedDelta struct {
	NewPosts []models.PostSummary `json:"new_posts"`
	Count    int                  `json:"count"`
}

// NewPostService builds a PostService. loc is the reference timezone for naive timestamps.
func NewPostService(posts repository.PostRepository, reactions repository.ReactionRepository, loc *time.Location) *PostService {
	if loc == nil {
		loc = time.UTC
	}
	return &PostService{posts: posts, reactions: reactions, loc: loc}
}

func (s *PostService) CreatePost(ctx context.Context, p models.Principal, in CreatePostInput) (post *models.Post, err error) {
	ctx, span := observability.StartSpan(ctx, "service", "CreatePost")
	defer func() { observability.EndSpan(span, err) }()

	if err := requireAuthenticated(p); err != nil {
		return nil, err
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.HoursProcrastinated = strings.TrimSpace(in.HoursProcrastinated)
	if err := validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	hours, err := validation.ParseHours(in.HoursProcrastinated)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	post = &models.Post{
		Title:               in.Title,
		Description:         in.Description,
		HoursProcrastinated: hours,
		AuthorID:            p.UserID,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	observability.PostsCreated.Inc()

	return s.posts.GetByID(ctx, post.ID)
}

// Feed lists posts newest first with the caller's reactions among them.
func (s *PostService) Feed(ctx context.Context, p models.Principal, limit, offset int) (*Feed, error) {
	if err := requireAuthenticated(p); err != nil {
		return nil, err
	}

	posts, err := s.posts.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(posts))
	for _, post := range posts {
		ids = append(ids, post.ID)
	}

	liked, err := s.reactions.ReactedPostIDs(ctx, models.ReactionLike, p.UserID, ids)
	if err != nil {
		return nil, err
	}
	disliked, err := s.reactions.ReactedPostIDs(ctx, models.ReactionDislike, p.UserID, ids)
	if err != nil {
		return nil, err
	}

	return &Feed{Posts: posts, UserLikedPosts: liked, UserDislikedPosts: disliked}, nil
}

// PostsSince returns posts created strictly after since. A missing or
// unparseable timestamp yields an empty delta, never an error.
func (s *PostService) PostsSince(ctx context.Context, p models.Principal, since string) (delta *FeedDelta, err error) {
	ctx, span := observability.StartSpan(ctx, "service", "PostsSince", attribute.String("since", since))
	defer func() { observability.EndSpan(span, err) }()

	if err := requireAuthenticated(p); err != nil {
		return nil, err
	}

	delta = &FeedDelta{NewPosts: []models.PostSummary{}}
	t, ok := ParseSince(since, s.loc)
	if !ok {
		return delta, nil
	}

	posts, err := s.posts.CreatedAfter(ctx, t)
	if err != nil {
		return nil, err
	}
	for _, post := range posts {
		delta.NewPosts = append(delta.NewPosts, post.Summary())
	}
	delta.Count = len(delta.NewPosts)
	return delta, nil
}
