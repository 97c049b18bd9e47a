package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewStore(rdb, time.Hour, time.Second), mr
}

func TestStore_Lifecycle(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	state, err := store.Create(ctx, "api-token", "staff@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, state.ID)
	assert.True(t, mr.Exists("console_session_"+state.ID))
	assert.Greater(t, mr.TTL("console_session_"+state.ID), 59*time.Minute)

	got, err := store.Get(ctx, state.ID)
	require.NoError(t, err)
	assert.Equal(t, "api-token", got.AccessToken)
	assert.Equal(t, "staff@example.com", got.Email)

	got.SelectStore(3, "渋谷院")
	got.SelectCustomer(9)
	require.NoError(t, store.Save(ctx, got))

	got, err = store.Get(ctx, state.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.StoreID)
	assert.Equal(t, int64(9), got.CustomerID)

	// 切换店铺会清除选中的顾客
	got.SelectStore(4, "新宿院")
	assert.Zero(t, got.CustomerID)

	require.NoError(t, store.Delete(ctx, state.ID))
	_, err = store.Get(ctx, state.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Expired(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	state, err := store.Create(ctx, "tok", "a@example.com")
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)
	_, err = store.Get(ctx, state.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	state.CreatedAt = time.Now().Add(-2 * time.Hour)
	assert.ErrorIs(t, store.Save(ctx, state), ErrNotFound)
}

func TestStore_Flash(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	state, err := store.Create(ctx, "tok", "a@example.com")
	require.NoError(t, err)

	require.NoError(t, store.SetFlash(ctx, state, "予約をキャンセルしました"))

	loaded, err := store.Get(ctx, state.ID)
	require.NoError(t, err)
	msg, err := store.PopFlash(ctx, loaded)
	require.NoError(t, err)
	assert.Equal(t, "予約をキャンセルしました", msg)

	loaded, err = store.Get(ctx, state.ID)
	require.NoError(t, err)
	msg, err = store.PopFlash(ctx, loaded)
	require.NoError(t, err)
	assert.Empty(t, msg)
}

func TestStore_RedisDown(t *testing.T) {
	store, mr := newTestStore(t)
	mr.Close()

	_, err := store.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestToken_RoundTrip(t *testing.T) {
	state := &AppState{ID: "sess-1", Email: "staff@example.com"}
	token, err := SignToken("secret", state, time.Now().Add(time.Hour))
	require.NoError(t, err)

	claims, err := ParseToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", claims.ID)
	assert.Equal(t, "staff@example.com", claims.Email)

	_, err = ParseToken("other-secret", token)
	assert.Error(t, err)
}

func TestToken_Expired(t *testing.T) {
	state := &AppState{ID: "sess-1", Email: "staff@example.com"}
	token, err := SignToken("secret", state, time.Now().Add(-time.Minute))
	require.NoError(t, err)

	_, err = ParseToken("secret", token)
	assert.Error(t, err)
}

func TestToken_MissingID(t *testing.T) {
	token, err := SignToken("secret", &AppState{Email: "x@example.com"}, time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = ParseToken("secret", token)
	assert.Error(t, err)
}
