package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profile struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func withMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() {
		_ = client.Close()
		SetClient(nil)
	})
	return mr
}

func TestAside_MissThenHit(t *testing.T) {
	mr := withMiniredis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *profile) func() error {
		return func() error {
			calls++
			*dest = profile{ID: 7, Name: "dawdler"}
			return nil
		}
	}

	var first profile
	require.NoError(t, Aside(ctx, UserKey(7), &first, UserTTL, fetch(&first)))
	assert.Equal(t, "dawdler", first.Name)
	assert.True(t, mr.Exists("user:7"))

	var second profile
	require.NoError(t, Aside(ctx, UserKey(7), &second, UserTTL, fetch(&second)))
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)

	mr.FastForward(UserTTL + time.Second)
	var third profile
	require.NoError(t, Aside(ctx, UserKey(7), &third, UserTTL, fetch(&third)))
	assert.Equal(t, 2, calls)
}

func TestAside_FetchErrorIsNotCached(t *testing.T) {
	mr := withMiniredis(t)

	var p profile
	err := Aside(context.Background(), UserKey(1), &p, UserTTL, func() error {
		return errors.New("db down")
	})
	assert.EqualError(t, err, "db down")
	assert.False(t, mr.Exists("user:1"))
}

func TestAside_NoClient(t *testing.T) {
	SetClient(nil)

	var p profile
	err := Aside(context.Background(), UserKey(2), &p, UserTTL, func() error {
		p = profile{ID: 2}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint(2), p.ID)
}

func TestInvalidateUser(t *testing.T) {
	mr := withMiniredis(t)
	require.NoError(t, mr.Set("user:3", `{"id":3}`))

	InvalidateUser(context.Background(), 3)
	assert.False(t, mr.Exists("user:3"))
}
