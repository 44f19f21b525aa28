package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcules/student-success/internal/model"
)

func newRedis(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client, err := Connect(srv.Addr())
	require.NoError(t, err)
	r := NewRedis(client, ttl)
	t.Cleanup(func() { _ = r.Close() })
	return r, srv
}

func TestRedis_SetGet(t *testing.T) {
	ctx := context.Background()
	r, srv := newRedis(t, time.Minute)
	require.NoError(t, r.Ping(ctx))

	p := model.Prediction{Class: 2, Label: "Graduate", Probabilities: []float64{0.1, 0.2, 0.7}}
	require.NoError(t, r.Set(ctx, "k", p))

	assert.True(t, srv.Exists(KeyPrefix+"k"))
	assert.False(t, srv.Exists("k"))
	assert.Equal(t, time.Minute, srv.TTL(KeyPrefix+"k"))

	got, ok, err := r.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, p, got)
}

func TestRedis_MissAndExpiry(t *testing.T) {
	ctx := context.Background()
	r, srv := newRedis(t, time.Minute)

	_, ok, err := r.Get(ctx, "absent")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Set(ctx, "k", model.Prediction{Label: "Dropout"}))
	srv.FastForward(2 * time.Minute)
	_, ok, err = r.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedis_Errors(t *testing.T) {
	ctx := context.Background()
	r, srv := newRedis(t, time.Minute)

	require.NoError(t, srv.Set(KeyPrefix+"bad", "{not json"))
	_, ok, err := r.Get(ctx, "bad")
	assert.False(t, ok)
	assert.ErrorContains(t, err, "decode cached prediction")

	srv.Close()
	_, ok, err = r.Get(ctx, "k")
	assert.False(t, ok)
	assert.Error(t, err)
	assert.Error(t, r.Set(ctx, "k", model.Prediction{}))
}
