package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcules/student-success/internal/activity"
	"github.com/mcules/student-success/internal/demo"
)

func demoFiles(t *testing.T) demo.Files {
	t.Helper()
	files, err := demo.Write(t.TempDir(), demo.Config{Rows: 40, Seed: 2})
	require.NoError(t, err)
	return files
}

func TestRuntime_LoadReady(t *testing.T) {
	files := demoFiles(t)
	act := activity.New(10)
	r := New(files.Model, files.Dataset, nil, act)

	var changes []bool
	r.OnReadyChange(func(ready bool) { changes = append(changes, ready) })
	assert.False(t, r.Ready())
	_, err := r.Model()
	assert.ErrorIs(t, err, ErrNotReady)

	require.NoError(t, r.Load())
	assert.True(t, r.Ready())
	assert.Equal(t, []bool{false, true}, changes)

	m, err := r.Model()
	require.NoError(t, err)
	assert.Equal(t, "demo", m.Name())
	d, err := r.Dataset()
	require.NoError(t, err)
	assert.Equal(t, 40, d.Len())

	res := r.Resources()
	assert.Equal(t, StateReady, res[0].State)
	assert.Equal(t, StateReady, res[1].State)
	assert.Equal(t, 1, act.Count(activity.EventModelLoaded))
	assert.Equal(t, 1, act.Count(activity.EventDatasetLoaded))
}

func TestRuntime_MissingFiles(t *testing.T) {
	dir := t.TempDir()
	act := activity.New(10)
	r := New(filepath.Join(dir, "modelku.json"), filepath.Join(dir, "data_agum.csv"), nil, act)

	err := r.Load()
	require.Error(t, err)
	assert.False(t, r.Ready())
	res := r.Resources()
	assert.Equal(t, StateError, res[0].State)
	assert.NotEmpty(t, res[0].Error)
	assert.Equal(t, StateError, res[1].State)
	assert.Equal(t, 1, act.Count(activity.EventModelLoadFailed))
}

func TestRuntime_FailedReloadKeepsPrevious(t *testing.T) {
	files := demoFiles(t)
	r := New(files.Model, files.Dataset, nil, nil)
	require.NoError(t, r.Load())
	before, _ := r.Model()

	require.NoError(t, os.WriteFile(files.Model, []byte("{"), 0o644))
	require.Error(t, r.ReloadModel())

	after, err := r.Model()
	require.NoError(t, err)
	assert.Same(t, before, after)
	assert.True(t, r.Ready())
	res := r.Resources()
	assert.Equal(t, StateReady, res[0].State)
	assert.NotEmpty(t, res[0].Error)
}

func TestRuntime_WatchReloadsDataset(t *testing.T) {
	files := demoFiles(t)
	r := New(files.Model, files.Dataset, nil, nil)
	require.NoError(t, r.Load())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, r.Watch(ctx, 20*time.Millisecond))

	replacement := filepath.Join(t.TempDir(), "more.csv")
	more, err := demo.Write(filepath.Dir(replacement), demo.Config{Rows: 55, Seed: 3})
	require.NoError(t, err)
	data, err := os.ReadFile(more.Dataset)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(files.Dataset, data, 0o644))

	require.Eventually(t, func() bool {
		d, err := r.Dataset()
		return err == nil && d.Len() == 55
	}, 5*time.Second, 20*time.Millisecond)
}
