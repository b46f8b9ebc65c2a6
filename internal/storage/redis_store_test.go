package storage_test

import (
	"context"
	"testing"

	"github.com/2beens/workouttracker/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*storage.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		assert.NoError(t, rdb.Close())
	})
	return storage.NewRedisStore(rdb), mr
}

func TestRedisStore_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisStore(t)

	_, err := s.Get(ctx, storage.KeyProgram)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Set(ctx, storage.KeyProgram, `{"0":{"typeEn":"Strength"}}`))
	mr.CheckGet(t, "workout-tracker||record||workout_program", `{"0":{"typeEn":"Strength"}}`)

	value, err := s.Get(ctx, storage.KeyProgram)
	require.NoError(t, err)
	assert.Equal(t, `{"0":{"typeEn":"Strength"}}`, value)

	require.NoError(t, s.Delete(ctx, storage.KeyProgram))
	assert.False(t, mr.Exists("workout-tracker||record||workout_program"))
	_, err = s.Get(ctx, storage.KeyProgram)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRedisStore_Errors(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisStore(t)

	mr.SetError("server down")

	_, err := s.Get(ctx, storage.KeyLogs)
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrNotFound)
	assert.Contains(t, err.Error(), "server down")

	assert.Error(t, s.Set(ctx, storage.KeyLogs, "{}"))
	assert.Error(t, s.Delete(ctx, storage.KeyLogs))

	mr.SetError("")
	require.NoError(t, s.Set(ctx, storage.KeyLogs, "{}"))
}
