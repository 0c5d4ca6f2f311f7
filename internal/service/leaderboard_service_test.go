package service

import (
	"context"
	"testing"
	"time"

	"procrastinators/internal/models"
	"procrastinators/internal/repository"
	"procrastinators/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaderboardService(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	svc := NewLeaderboardService(repository.NewPostRepository(db), repository.NewUserRepository(db))

	u1 := testutil.CreateUser(t, db, "user1")
	u2 := testutil.CreateUser(t, db, "user2")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	older := testutil.CreatePost(t, db, u1, "older", 1, base)
	newer := testutil.CreatePost(t, db, u2, "newer", 4, base.Add(time.Hour))
	testutil.React(t, db, models.ReactionLike, u2, older)
	testutil.React(t, db, models.ReactionDislike, u1, newer)

	p := models.Principal{UserID: u1.ID, Username: u1.Username}

	t.Run("unknown sort falls back to likes", func(t *testing.T) {
		posts, sort, err := svc.RankPosts(ctx, p, "popularity")
		require.NoError(t, err)
		assert.Equal(t, repository.SortLikes, sort)
		require.Len(t, posts, 2)
		assert.Equal(t, older.ID, posts[0].ID)
	})

	t.Run("dislikes", func(t *testing.T) {
		posts, sort, err := svc.RankPosts(ctx, p, "dislikes")
		require.NoError(t, err)
		assert.Equal(t, repository.SortDislikes, sort)
		assert.Equal(t, newer.ID, posts[0].ID)
		assert.Equal(t, int64(1), posts[0].DislikeCount)
	})

	t.Run("time", func(t *testing.T) {
		posts, _, err := svc.RankPosts(ctx, p, "time")
		require.NoError(t, err)
		assert.Equal(t, []uint{newer.ID, older.ID}, []uint{posts[0].ID, posts[1].ID})
	})

	t.Run("users by hours", func(t *testing.T) {
		rows, err := svc.RankUsers(ctx, p)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "user2", rows[0].Username)
		assert.InDelta(t, 4.0, rows[0].TotalHours, 1e-9)
	})

	t.Run("anonymous", func(t *testing.T) {
		_, _, err := svc.RankPosts(ctx, models.Principal{}, "likes")
		requireAppErrorCode(t, err, models.CodeUnauthorized)
		_, err = svc.RankUsers(ctx, models.Principal{})
		requireAppErrorCode(t, err, models.CodeUnauthorized)
	})
}

func TestLeaderboardService_EmptyUsers(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	svc := NewLeaderboardService(repository.NewPostRepository(db), repository.NewUserRepository(db))

	rows, err := svc.RankUsers(context.Background(), alice)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}
