package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcules/student-success/internal/model"
)

func TestKey(t *testing.T) {
	a := Key("demo@1", []float64{1, 2, 3})
	assert.Len(t, a, 64)
	assert.Equal(t, a, Key("demo@1", []float64{1, 2, 3}))
	assert.NotEqual(t, a, Key("demo@2", []float64{1, 2, 3}))
	assert.NotEqual(t, a, Key("demo@1", []float64{1, 2, 3.0000001}))
}

func TestMemory_TTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(10, time.Minute)
	m.now = func() time.Time { return now }

	p := model.Prediction{Class: 2, Label: "Graduate", Probabilities: []float64{0.1, 0.2, 0.7}}
	require.NoError(t, m.Set(ctx, "k", p))

	got, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, p, got)

	got.Probabilities[0] = 9
	again, _, _ := m.Get(ctx, "k")
	assert.Equal(t, 0.1, again.Probabilities[0], "entries are copied")

	now = now.Add(time.Minute)
	_, ok, err = m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, m.Len())
}

func TestMemory_EvictsOldest(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(2, time.Hour)
	require.NoError(t, m.Set(ctx, "a", model.Prediction{Label: "a"}))
	require.NoError(t, m.Set(ctx, "b", model.Prediction{Label: "b"}))
	require.NoError(t, m.Set(ctx, "c", model.Prediction{Label: "c"}))

	assert.Equal(t, 2, m.Len())
	_, ok, _ := m.Get(ctx, "a")
	assert.False(t, ok)
	_, ok, _ = m.Get(ctx, "c")
	assert.True(t, ok)

	require.NoError(t, m.Set(ctx, "b", model.Prediction{Label: "b2"}))
	assert.Equal(t, 2, m.Len(), "overwriting does not evict")
}

func TestNop(t *testing.T) {
	var c Cache = Nop{}
	require.NoError(t, c.Set(context.Background(), "k", model.Prediction{}))
	_, ok, err := c.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConnect(t *testing.T) {
	c, err := Connect("redis://:secret@localhost:6380/2")
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, "localhost:6380", c.Options().Addr)
	assert.Equal(t, 2, c.Options().DB)

	c2, err := Connect("cache:6379")
	require.NoError(t, err)
	defer c2.Close()
	assert.Equal(t, "cache:6379", c2.Options().Addr)

	_, err = Connect("redis://host:6379/notadb")
	assert.Error(t, err)
}
