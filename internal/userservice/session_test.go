package userservice

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sushihentaime/blogboard/internal/common"
)

func testSessionStore(t *testing.T, store SessionStore) {
	t.Helper()
	ctx := context.Background()

	session, err := newSession(testUsername, time.Hour)
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, session))

	got, err := store.Get(ctx, session.Hash)
	require.NoError(t, err)
	assert.Equal(t, testUsername, got.Username)
	assert.Equal(t, session.Hash, got.Hash)
	assert.Empty(t, got.Plain)
	assert.WithinDuration(t, session.Expiry, got.Expiry, time.Second)

	forever, err := newSession("other", 0)
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, forever))

	got, err = store.Get(ctx, forever.Hash)
	require.NoError(t, err)
	assert.True(t, got.Expiry.IsZero())

	require.NoError(t, store.Delete(ctx, session.Hash))

	_, err = store.Get(ctx, session.Hash)
	assert.Equal(t, ErrSessionNotFound, err)

	_, err = store.Get(ctx, hashToken("unknown"))
	assert.Equal(t, ErrSessionNotFound, err)

	// deleting twice is not an error
	assert.NoError(t, store.Delete(ctx, session.Hash))
}

func TestCacheSessions(t *testing.T) {
	testSessionStore(t, NewCacheSessions(common.NewCache(DefaultSessionTTL, time.Minute)))
}

func TestCacheSessions_Expiry(t *testing.T) {
	store := NewCacheSessions(common.NewCache(0, time.Minute))
	ctx := context.Background()

	session, err := newSession(testUsername, 50*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, session))

	_, err = store.Get(ctx, session.Hash)
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)

	_, err = store.Get(ctx, session.Hash)
	assert.Equal(t, ErrSessionNotFound, err)
}

func TestRedisSessions(t *testing.T) {
	addr := common.TestRedis(t)

	client, err := NewRedisClient(addr, "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	testSessionStore(t, NewRedisSessions(client))
}

func TestNewSession(t *testing.T) {
	session, err := newSession(testUsername, time.Hour)
	require.NoError(t, err)

	assert.Len(t, session.Plain, SessionTokenLength)
	assert.Equal(t, hashToken(session.Plain), session.Hash)
	assert.WithinDuration(t, time.Now().Add(time.Hour), session.Expiry, time.Second)

	session, err = newSession(testUsername, 0)
	require.NoError(t, err)
	assert.True(t, session.Expiry.IsZero())
}
