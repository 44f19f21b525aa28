package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcules/student-success/internal/student"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func entry(id string, at time.Time) Entry {
	in := student.Defaults()
	in.Course = 9119
	return Entry{
		ID:            id,
		CreatedAt:     at,
		ModelVersion:  "demo@knn-15-600",
		Outcome:       "graduate",
		Label:         "Graduate",
		Class:         2,
		Classes:       []string{"Dropout", "Enrolled", "Graduate"},
		Probabilities: []float64{0.1, 0.2, 0.7},
		Inputs:        in,
		Alignment:     "strict",
	}
}

func TestStore_SaveGet(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	at := time.Date(2024, 5, 1, 12, 30, 0, 123456000, time.UTC)

	want := entry("a", at)
	want.Fabricated = true
	require.NoError(t, s.Save(ctx, want))

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Error(t, s.Save(ctx, want), "ids are unique")
}

func TestStore_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.Save(ctx, entry(id, base.Add(time.Duration(i)*time.Minute))))
	}

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID)
	assert.Equal(t, "a", all[2].ID)

	two, err := s.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, two, 2)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), entry("a", time.Now())))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRebind(t *testing.T) {
	pg := &Store{postgres: true}
	assert.Equal(t, "SELECT * FROM t WHERE a=$1 AND b=$2", pg.rebind("SELECT * FROM t WHERE a=? AND b=?"))
	lite := &Store{}
	assert.Equal(t, "a=?", lite.rebind("a=?"))
}
