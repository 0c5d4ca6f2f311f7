package service

import (
	"context"

	"procrastinators/internal/models"
	"procrastinators/internal/repository"
)

// LeaderboardService ranks posts by reactions or recency and users by total hours.
type LeaderboardService struct {
	posts repository.PostRepository
	users repository.UserRepository
}

func NewLeaderboardService(posts repository.PostRepository, users repository.UserRepository) *LeaderboardService {
	return &LeaderboardService{posts: posts, users: users}
}

// RankPosts orders every post by the requested key, falling back to likes.
// It returns the sort actually applied.
func (s *LeaderboardService) RankPosts(ctx context.Context, p models.Principal, sortKey string) ([]*models.Post, repository.PostSort, error) {
	if err := requireAuthenticated(p); err != nil {
		return nil, "", err
	}
	sort := repository.ParsePostSort(sortKey)
	posts, err := s.posts.Rank(ctx, sort)
	if err != nil {
		return nil, "", err
	}
	return posts, sort, nil
}

// RankUsers lists users with at least one post by total hours.
func (s *LeaderboardService) RankUsers(ctx context.Context, p models.Principal) ([]models.UserHours, error) {
	if err := requireAuthenticated(p); err != nil {
		return nil, err
	}
	rows, err := s.users.HoursLeaderboard(ctx)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []models.UserHours{}
	}
	return rows, nil
}
