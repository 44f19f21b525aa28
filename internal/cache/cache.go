// Package cache memoizes classifier output per model version and feature
// vector.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"sync"
	"time"

	"github.com/mcules/student-success/internal/model"
)

// Cache stores predictions by key. A miss is (zero, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) (model.Prediction, bool, error)
	Set(ctx context.Context, key string, p model.Prediction) error
}

// Key derives the cache key of a vector scored by a model, identified by its
// artifact fingerprint.
func Key(modelID string, vec []float64) string {
	h := sha256.New()
	h.Write([]byte(modelID))
	h.Write([]byte{0})
	var buf [8]byte
	for _, v := range vec {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}

type entry struct {
	p       model.Prediction
	expires time.Time
	added   uint64
}

// Memory is a bounded in-process cache with per-entry TTL.
type Memory struct {
	mu      sync.Mutex
	ttl     time.Duration
	max     int
	seq     uint64
	entries map[string]entry
	now     func() time.Time
}

func NewMemory(maxEntries int, ttl time.Duration) *Memory {
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	return &Memory{
		ttl:     ttl,
		max:     maxEntries,
		entries: make(map[string]entry, maxEntries),
		now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) (model.Prediction, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return model.Prediction{}, false, nil
	}
	if m.ttl > 0 && !m.now().Before(e.expires) {
		delete(m.entries, key)
		return model.Prediction{}, false, nil
	}
	return clone(e.p), true, nil
}

func (m *Memory) Set(_ context.Context, key string, p model.Prediction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.max {
		m.evict(now)
	}
	m.seq++
	m.entries[key] = entry{p: clone(p), expires: now.Add(m.ttl), added: m.seq}
	return nil
}

// evict drops expired entries, or the oldest one when none has expired.
func (m *Memory) evict(now time.Time) {
	var (
		oldestKey string
		oldest    uint64 = math.MaxUint64
	)
	for k, e := range m.entries {
		if m.ttl > 0 && !now.Before(e.expires) {
			delete(m.entries, k)
			continue
		}
		if e.added < oldest {
			oldest, oldestKey = e.added, k
		}
	}
	if len(m.entries) >= m.max {
		delete(m.entries, oldestKey)
	}
}

// Len reports the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func clone(p model.Prediction) model.Prediction {
	p.Probabilities = append([]float64(nil), p.Probabilities...)
	return p
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) (model.Prediction, bool, error) {
	return model.Prediction{}, false, nil
}
func (Nop) Set(context.Context, string, model.Prediction) error { return nil }
