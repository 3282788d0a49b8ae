package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exercise(t *testing.T, s PreferenceStorer) {
	ctx := context.Background()

	lang, err := s.Language(ctx, "client-1")
	require.NoError(t, err)
	assert.Empty(t, lang)

	require.NoError(t, s.SetLanguage(ctx, "client-1", "es"))
	require.NoError(t, s.SetLanguage(ctx, "client-2", "de"))
	require.NoError(t, s.SetLanguage(ctx, "client-1", "fr"))

	lang, err = s.Language(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, "fr", lang)

	lang, err = s.Language(ctx, "client-2")
	require.NoError(t, err)
	assert.Equal(t, "de", lang)
}

func TestMemoryStore(t *testing.T) {
	exercise(t, NewMemoryStore())
}

func TestRedisStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	s, err := NewRedisStore(context.Background(), mr.Addr())
	require.NoError(t, err)
	defer s.Close()

	exercise(t, s)

	assert.True(t, mr.Exists(keyPrefix+"client-1"))
	assert.Positive(t, mr.TTL(keyPrefix+"client-1"))
}

func TestRedisStoreErrors(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStoreFromClient(client)
	defer s.Close()

	mr.Close()
	_, err = s.Language(context.Background(), "client-1")
	assert.Error(t, err)

	_, err = NewRedisStore(context.Background(), mr.Addr())
	assert.Error(t, err)
}
