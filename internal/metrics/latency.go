// Package metrics tracks inference latency per model version.
package metrics

import (
	"sort"
	"sync"
	"time"
)

type ModelLatency struct {
	// EWMA of inference time in milliseconds.
	EWMAms float64 `json:"ewma_ms"`

	OK    uint64 `json:"ok"`
	Error uint64 `json:"error"`

	Last   time.Duration `json:"last"`
	LastAt time.Time     `json:"last_at"`
}

// Total is the number of observations.
func (m ModelLatency) Total() uint64 { return m.OK + m.Error }

type LatencyTracker struct {
	mu     sync.RWMutex
	alpha  float64
	models map[string]*ModelLatency
	now    func() time.Time
}

// NewLatencyTracker creates a tracker with EWMA smoothing factor alpha.
// Typical alpha: 0.1..0.3 (higher reacts faster).
func NewLatencyTracker(alpha float64) *LatencyTracker {
	if alpha <= 0 || alpha >= 1 {
		alpha = 0.2
	}
	return &LatencyTracker{
		alpha:  alpha,
		models: map[string]*ModelLatency{},
		now:    time.Now,
	}
}

func (t *LatencyTracker) ObserveOK(version string, d time.Duration) {
	t.observe(version, d, true)
}

func (t *LatencyTracker) ObserveError(version string, d time.Duration) {
	t.observe(version, d, false)
}

func (t *LatencyTracker) observe(version string, d time.Duration, ok bool) {
	if t == nil {
		return
	}
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	m := t.models[version]
	if m == nil {
		m = &ModelLatency{}
		t.models[version] = m
	}

	ms := float64(d.Microseconds()) / 1000
	if ms < 0 {
		ms = 0
	}

	if m.Total() == 0 {
		m.EWMAms = ms
	} else {
		m.EWMAms = (t.alpha * ms) + ((1.0 - t.alpha) * m.EWMAms)
	}

	m.Last = d
	m.LastAt = now
	if ok {
		m.OK++
	} else {
		m.Error++
	}
}

func (t *LatencyTracker) Get(version string) (ModelLatency, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	m := t.models[version]
	if m == nil {
		return ModelLatency{}, false
	}
	return *m, true
}

// Entry pairs a model version with its latency figures.
type Entry struct {
	Version string `json:"version"`
	ModelLatency
}

// Snapshot returns every tracked version, sorted by version.
func (t *LatencyTracker) Snapshot() []Entry {
	if t == nil {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Entry, 0, len(t.models))
	for k, v := range t.models {
		out = append(out, Entry{Version: k, ModelLatency: *v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out
}
