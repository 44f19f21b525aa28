// Package state holds the process-wide model and dataset. Both are loaded
// once, shared by every request and swapped atomically on reload.
package state

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mcules/student-success/internal/activity"
	"github.com/mcules/student-success/internal/dataset"
	"github.com/mcules/student-success/internal/logging"
	"github.com/mcules/student-success/internal/model"
)

var ErrNotReady = errors.New("required files are not loaded")

type ResourceState string

const (
	StateLoading ResourceState = "loading"
	StateReady   ResourceState = "ready"
	StateError   ResourceState = "error"
)

const (
	ResourceModel   = "model"
	ResourceDataset = "dataset"
)

// Resource describes one loaded file.
type Resource struct {
	Name     string        `json:"name"`
	Path     string        `json:"path"`
	State    ResourceState `json:"state"`
	LoadedAt time.Time     `json:"loaded_at,omitempty"`
	// Error is the last load failure. A failed reload keeps the previous
	// contents ready and only records the error here.
	Error string `json:"error,omitempty"`
}

type Runtime struct {
	mu         sync.RWMutex
	model      *model.Model
	dataset    *dataset.Dataset
	modelRes   Resource
	datasetRes Resource
	listeners  []func(ready bool)

	log      *zap.Logger
	activity *activity.Log
	now      func() time.Time
}

func New(modelPath, datasetPath string, log *zap.Logger, act *activity.Log) *Runtime {
	log = logging.OrNop(log)
	return &Runtime{
		modelRes:   Resource{Name: ResourceModel, Path: modelPath, State: StateLoading},
		datasetRes: Resource{Name: ResourceDataset, Path: datasetPath, State: StateLoading},
		log:        log,
		activity:   act,
		now:        time.Now,
	}
}

// Load reads both files. Failures are recorded per resource and returned
// joined; the runtime stays usable and reports itself not ready.
func (r *Runtime) Load() error {
	return errors.Join(r.ReloadModel(), r.ReloadDataset())
}

func (r *Runtime) ReloadModel() error {
	path := r.ModelPath()
	m, err := model.Load(path)

	r.mu.Lock()
	wasReady := r.readyLocked()
	if err != nil {
		r.modelRes.Error = err.Error()
		if r.model == nil {
			r.modelRes.State = StateError
		}
	} else {
		r.model = m
		r.modelRes = Resource{Name: ResourceModel, Path: path, State: StateReady, LoadedAt: r.now()}
	}
	ready := r.readyLocked()
	r.mu.Unlock()

	if err != nil {
		r.log.Error("model load failed", zap.String("path", path), zap.Error(err))
		r.activity.Add(activity.Event{Type: activity.EventModelLoadFailed, Note: err.Error()})
		r.notify(wasReady, ready)
		return fmt.Errorf("load model: %w", err)
	}
	s := m.Schema()
	r.log.Info("model loaded",
		zap.String("path", path),
		zap.String("version", m.Version()),
		zap.String("estimator", m.Kind()),
		zap.Int("n_features", s.NFeatures),
		zap.Bool("named_columns", s.Named()),
	)
	r.activity.Add(activity.Event{Type: activity.EventModelLoaded, Model: m.Version(), Note: path})
	r.notify(wasReady, ready)
	return nil
}

func (r *Runtime) ReloadDataset() error {
	path := r.DatasetPath()
	d, err := dataset.Load(path)

	r.mu.Lock()
	wasReady := r.readyLocked()
	if err != nil {
		r.datasetRes.Error = err.Error()
		if r.dataset == nil {
			r.datasetRes.State = StateError
		}
	} else {
		r.dataset = d
		r.datasetRes = Resource{Name: ResourceDataset, Path: path, State: StateReady, LoadedAt: r.now()}
	}
	ready := r.readyLocked()
	r.mu.Unlock()

	if err != nil {
		r.log.Error("dataset load failed", zap.String("path", path), zap.Error(err))
		r.activity.Add(activity.Event{Type: activity.EventDatasetLoadFailed, Note: err.Error()})
		r.notify(wasReady, ready)
		return err
	}
	r.log.Info("dataset loaded", zap.String("path", path), zap.Int("rows", d.Len()), zap.Int("columns", len(d.Header)))
	r.activity.Add(activity.Event{Type: activity.EventDatasetLoaded, Note: fmt.Sprintf("%s (%d rows)", path, d.Len())})
	r.notify(wasReady, ready)
	return nil
}

func (r *Runtime) ModelPath() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.modelRes.Path
}

func (r *Runtime) DatasetPath() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.datasetRes.Path
}

func (r *Runtime) Model() (*model.Model, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.model == nil {
		return nil, ErrNotReady
	}
	return r.model, nil
}

func (r *Runtime) Dataset() (*dataset.Dataset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.dataset == nil {
		return nil, ErrNotReady
	}
	return r.dataset, nil
}

// Ready reports whether both the model and the dataset are loaded.
func (r *Runtime) Ready() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.readyLocked()
}

func (r *Runtime) readyLocked() bool {
	return r.model != nil && r.dataset != nil
}

// Resources returns the model and dataset status, in that order.
func (r *Runtime) Resources() []Resource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return []Resource{r.modelRes, r.datasetRes}
}

// OnReadyChange registers fn to run whenever readiness flips. fn is called
// once immediately with the current value.
func (r *Runtime) OnReadyChange(fn func(ready bool)) {
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	ready := r.readyLocked()
	r.mu.Unlock()
	fn(ready)
}

func (r *Runtime) notify(was, now bool) {
	if was == now {
		return
	}
	r.mu.RLock()
	listeners := slices.Clone(r.listeners)
	r.mu.RUnlock()
	for _, fn := range listeners {
		fn(now)
	}
}
