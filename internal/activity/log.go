// Package activity keeps a short in-memory feed of what the service did.
package activity

import (
	"sync"
	"time"
)

type EventType string

const (
	EventModelLoaded       EventType = "model_loaded"
	EventModelLoadFailed   EventType = "model_load_failed"
	EventDatasetLoaded     EventType = "dataset_loaded"
	EventDatasetLoadFailed EventType = "dataset_load_failed"
	EventPrediction        EventType = "prediction"
	EventPredictionFailed  EventType = "prediction_failed"
	// EventAlignmentPadded marks a prediction made on a padded or truncated row.
	EventAlignmentPadded EventType = "alignment_padded"
)

type Event struct {
	At     time.Time `json:"at"`
	Type   EventType `json:"type"`
	Model  string    `json:"model,omitempty"`
	Ref    string    `json:"ref,omitempty"`
	Note   string    `json:"note,omitempty"`
	Failed bool      `json:"failed,omitempty"`
}

// Log is a fixed-size ring buffer of events.
type Log struct {
	mu   sync.RWMutex
	buf  []Event
	next int
	full bool
	now  func() time.Time
}

func New(size int) *Log {
	if size <= 0 {
		size = 200
	}
	return &Log{
		buf: make([]Event, size),
		now: time.Now,
	}
}

// Add records e, stamping it with the current time when At is zero.
func (l *Log) Add(e Event) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if e.At.IsZero() {
		e.At = l.now()
	}
	switch e.Type {
	case EventModelLoadFailed, EventDatasetLoadFailed, EventPredictionFailed:
		e.Failed = true
	}
	l.buf[l.next] = e
	l.next++
	if l.next >= len(l.buf) {
		l.next = 0
		l.full = true
	}
}

// List returns the buffered events, newest first.
func (l *Log) List() []Event {
	if l == nil {
		return nil
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.full && l.next == 0 {
		return nil
	}

	var out []Event
	if l.full {
		out = make([]Event, 0, len(l.buf))
		out = append(out, l.buf[l.next:]...)
		out = append(out, l.buf[:l.next]...)
	} else {
		out = append([]Event(nil), l.buf[:l.next]...)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Count returns how many buffered events have type t.
func (l *Log) Count(t EventType) int {
	n := 0
	for _, e := range l.List() {
		if e.Type == t {
			n++
		}
	}
	return n
}
