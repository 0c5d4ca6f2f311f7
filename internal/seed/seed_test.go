package seed

import (
	"context"
	"testing"

	"procrastinators/internal/cache"
	"procrastinators/internal/models"
	"procrastinators/internal/testutil"
	"procrastinators/internal/validation"

	"github.com/alicebob/miniredis/v2"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestRun(t *testing.T) {
	db := testutil.NewSQLiteDB(t)

	res, err := Run(context.Background(), db, Options{
		NumUsers:     5,
		NumPosts:     12,
		ReactionRate: 0.5,
		Seed:         42,
		BcryptCost:   bcrypt.MinCost,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Users)
	assert.Equal(t, 12, res.Posts)

	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 5)
	for _, u := range users {
		assert.NoError(t, validation.ValidateUsername(u.Username), u.Username)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(DefaultPassword)))
	}

	var posts []models.Post
	require.NoError(t, db.Find(&posts).Error)
	require.Len(t, posts, 12)
	for _, p := range posts {
		assert.GreaterOrEqual(t, p.HoursProcrastinated, 0.0)
		assert.LessOrEqual(t, p.HoursProcrastinated, models.MaxHours)
		assert.LessOrEqual(t, len(p.Title), models.MaxTitleLength)
	}

	var likes, dislikes int64
	require.NoError(t, db.Model(&models.Like{}).Count(&likes).Error)
	require.NoError(t, db.Model(&models.Dislike{}).Count(&dislikes).Error)
	assert.Equal(t, int64(res.Likes), likes)
	assert.Equal(t, int64(res.Dislikes), dislikes)

	// Nobody reacts to their own post, and no pair holds both kinds.
	var selfReactions int64
	require.NoError(t, db.Model(&models.Like{}).
		Joins("JOIN posts ON posts.id = likes.post_id").
		Where("posts.author_id = likes.user_id").
		Count(&selfReactions).Error)
	assert.Zero(t, selfReactions)

	var both int64
	require.NoError(t, db.Model(&models.Like{}).
		Joins("JOIN dislikes ON dislikes.user_id = likes.user_id AND dislikes.post_id = likes.post_id").
		Count(&both).Error)
	assert.Zero(t, both)
}

func TestRun_Clean(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	opts := Options{NumUsers: 3, NumPosts: 4, ReactionRate: 1, Seed: 7, BcryptCost: bcrypt.MinCost}

	_, err := Run(ctx, db, opts)
	require.NoError(t, err)

	opts.Clean = true
	_, err = Run(ctx, db, opts)
	require.NoError(t, err)

	var users, posts int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.Post{}).Count(&posts).Error)
	assert.Equal(t, int64(3), users)
	assert.Equal(t, int64(4), posts)
}

func TestClean_DropsCachedProfiles(t *testing.T) {
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })

	db := testutil.NewSQLiteDB(t)
	user := testutil.CreateUser(t, db, "cached")
	require.NoError(t, mr.Set(cache.UserKey(user.ID), `{"id":1}`))

	require.NoError(t, Clean(db))

	assert.False(t, mr.Exists(cache.UserKey(user.ID)))
	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Zero(t, users)
}

func TestRun_NoUsers(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	res, err := Run(context.Background(), db, Options{NumPosts: 10, BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
}

func TestFactory_BuildPostOverrides(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	f := NewFactory(db, gofakeit.New(1), "hash", 0)

	author, err := f.CreateUser(func(u *models.User) { u.Username = "fixed_name" })
	require.NoError(t, err)
	assert.Equal(t, "fixed_name", author.Username)

	post := f.BuildPost(author, func(p *models.Post) { p.HoursProcrastinated = 3.25 })
	assert.Equal(t, author.ID, post.AuthorID)
	assert.InDelta(t, 3.25, post.HoursProcrastinated, 1e-9)
	assert.False(t, post.CreatedAt.After(f.now))
	assert.Zero(t, post.ID)
}
