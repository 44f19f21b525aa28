// Package predict turns a validated form record into an outcome: it encodes
// and aligns the row, runs the classifier and records what happened.
package predict

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mcules/student-success/internal/activity"
	"github.com/mcules/student-success/internal/cache"
	"github.com/mcules/student-success/internal/features"
	"github.com/mcules/student-success/internal/history"
	"github.com/mcules/student-success/internal/logging"
	"github.com/mcules/student-success/internal/metrics"
	"github.com/mcules/student-success/internal/model"
	"github.com/mcules/student-success/internal/outcome"
	"github.com/mcules/student-success/internal/student"
)

var ErrHistoryDisabled = errors.New("prediction history is disabled")

// ModelSource hands out the currently loaded model.
type ModelSource interface {
	Model() (*model.Model, error)
}

// HistoryStore persists and looks up predictions.
type HistoryStore interface {
	Save(ctx context.Context, e history.Entry) error
	Get(ctx context.Context, id string) (history.Entry, error)
	List(ctx context.Context, limit int) ([]history.Entry, error)
}

type ClassProbability struct {
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

// Result is one served prediction.
type Result struct {
	ID              string             `json:"id"`
	CreatedAt       time.Time          `json:"created_at"`
	ModelVersion    string             `json:"model_version"`
	Outcome         outcome.Kind       `json:"outcome"`
	Label           string             `json:"label"`
	Headline        string             `json:"headline"`
	Severity        outcome.Severity   `json:"severity"`
	Class           int                `json:"class"`
	Probabilities   []ClassProbability `json:"probabilities"`
	Recommendations []string           `json:"recommendations"`
	Alignment       features.Report    `json:"alignment"`
	Input           student.Record     `json:"input"`
	Cached          bool               `json:"cached"`
}

type Options struct {
	Mode     features.Mode
	Cache    cache.Cache
	History  HistoryStore
	Activity *activity.Log
	Latency  *metrics.LatencyTracker
	Logger   *zap.Logger
}

type Service struct {
	src      ModelSource
	mode     features.Mode
	cache    cache.Cache
	history  HistoryStore
	activity *activity.Log
	latency  *metrics.LatencyTracker
	log      *zap.Logger

	now   func() time.Time
	newID func() (string, error)
}

func NewService(src ModelSource, opts Options) *Service {
	s := &Service{
		src:      src,
		mode:     opts.Mode,
		cache:    opts.Cache,
		history:  opts.History,
		activity: opts.Activity,
		latency:  opts.Latency,
		log:      opts.Logger,
		now:      time.Now,
		newID: func() (string, error) {
			id, err := uuid.NewV7()
			return id.String(), err
		},
	}
	if s.mode == "" {
		s.mode = features.ModeStrict
	}
	if s.cache == nil {
		s.cache = cache.Nop{}
	}
	if s.latency == nil {
		s.latency = metrics.NewLatencyTracker(0.2)
	}
	s.log = logging.OrNop(s.log)
	return s
}

func (s *Service) Mode() features.Mode { return s.mode }

func (s *Service) Latency() *metrics.LatencyTracker { return s.latency }

// HistoryEnabled reports whether predictions are persisted.
func (s *Service) HistoryEnabled() bool { return s.history != nil }

// Predict classifies one student. Cache and history failures are logged and
// never fail the prediction.
func (s *Service) Predict(ctx context.Context, rec student.Record) (Result, error) {
	m, err := s.src.Model()
	if err != nil {
		return Result{}, err
	}
	start := time.Now()
	version := m.Version()

	schema := m.Schema()
	vec, rep, err := features.Align(s.mode, schema, features.NewEncoder(schema).Encode(rec))
	if err != nil {
		s.fail(version, start, err)
		return Result{}, err
	}

	key := cache.Key(m.Fingerprint(), vec)
	p, hit, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.Warn("prediction cache read failed", zap.Error(err))
	}
	if !hit {
		p, err = m.Predict(vec)
		if err != nil {
			s.fail(version, start, err)
			return Result{}, err
		}
		if err := s.cache.Set(ctx, key, p); err != nil {
			s.log.Warn("prediction cache write failed", zap.Error(err))
		}
	}

	kind, err := outcome.FromIndex(m.Task(), p.Class)
	if err != nil {
		s.fail(version, start, err)
		return Result{}, err
	}
	id, err := s.newID()
	if err != nil {
		return Result{}, fmt.Errorf("prediction id: %w", err)
	}

	res := Result{
		ID:              id,
		CreatedAt:       s.now().UTC(),
		ModelVersion:    version,
		Outcome:         kind,
		Label:           kind.Label(),
		Headline:        kind.Headline(),
		Severity:        kind.Severity(),
		Class:           p.Class,
		Probabilities:   labelled(m.Classes(), p.Probabilities),
		Recommendations: outcome.Recommendations(kind),
		Alignment:       rep,
		Input:           rec,
		Cached:          hit,
	}
	elapsed := time.Since(start)
	s.latency.ObserveOK(version, elapsed)

	if s.history != nil {
		if err := s.history.Save(ctx, toEntry(res, m.Classes())); err != nil {
			s.log.Error("save prediction failed", zap.String("id", id), zap.Error(err))
		}
	}
	s.activity.Add(activity.Event{Type: activity.EventPrediction, Model: version, Ref: id, Note: res.Label})
	if rep.Fabricated() {
		s.activity.Add(activity.Event{Type: activity.EventAlignmentPadded, Model: version, Ref: id, Note: rep.Summary()})
		s.log.Warn("prediction made on a fabricated row",
			zap.String("id", id),
			zap.Int("padded", len(rep.Padded)),
			zap.Int("truncated", len(rep.Truncated)),
		)
	}
	if len(rep.Unused) > 0 {
		s.log.Warn("model ignores form columns",
			zap.String("id", id),
			zap.String("model", version),
			zap.Strings("unused", rep.Unused),
		)
	}
	s.log.Info("prediction served",
		zap.String("id", id),
		zap.String("model", version),
		zap.String("outcome", string(kind)),
		zap.Bool("cached", hit),
		zap.Duration("duration", elapsed),
	)
	return res, nil
}

func (s *Service) fail(version string, start time.Time, err error) {
	s.latency.ObserveError(version, time.Since(start))
	s.activity.Add(activity.Event{Type: activity.EventPredictionFailed, Model: version, Note: err.Error()})
	s.log.Warn("prediction failed", zap.String("model", version), zap.Error(err))
}

// Get loads a stored prediction.
func (s *Service) Get(ctx context.Context, id string) (Result, error) {
	if s.history == nil {
		return Result{}, ErrHistoryDisabled
	}
	e, err := s.history.Get(ctx, id)
	if err != nil {
		return Result{}, err
	}
	return FromEntry(e), nil
}

// Recent lists stored predictions, newest first.
func (s *Service) Recent(ctx context.Context, limit int) ([]history.Entry, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	return s.history.List(ctx, limit)
}

func labelled(classes []string, probs []float64) []ClassProbability {
	out := make([]ClassProbability, len(probs))
	for i, p := range probs {
		label := fmt.Sprintf("class %d", i)
		if i < len(classes) {
			label = classes[i]
		}
		out[i] = ClassProbability{Label: label, Probability: p}
	}
	return out
}

func toEntry(r Result, classes []string) history.Entry {
	probs := make([]float64, len(r.Probabilities))
	for i, p := range r.Probabilities {
		probs[i] = p.Probability
	}
	return history.Entry{
		ID:            r.ID,
		CreatedAt:     r.CreatedAt,
		ModelVersion:  r.ModelVersion,
		Outcome:       string(r.Outcome),
		Label:         r.Label,
		Class:         r.Class,
		Classes:       classes,
		Probabilities: probs,
		Inputs:        r.Input,
		Alignment:     string(r.Alignment.Mode),
		Fabricated:    r.Alignment.Fabricated(),
	}
}

// FromEntry rebuilds a result from its stored form.
func FromEntry(e history.Entry) Result {
	kind := outcome.Kind(e.Outcome)
	res := Result{
		ID:              e.ID,
		CreatedAt:       e.CreatedAt,
		ModelVersion:    e.ModelVersion,
		Outcome:         kind,
		Label:           e.Label,
		Headline:        kind.Headline(),
		Severity:        kind.Severity(),
		Class:           e.Class,
		Probabilities:   labelled(e.Classes, e.Probabilities),
		Recommendations: outcome.Recommendations(kind),
		Alignment:       features.Report{Mode: features.Mode(e.Alignment)},
		Input:           e.Inputs,
	}
	if e.Fabricated {
		res.Alignment.Padded = []string{"(not recorded)"}
	}
	return res
}
