package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/mcules/student-success/internal/features"
	"github.com/mcules/student-success/internal/outcome"
)

// Prediction is the classifier output for one row.
type Prediction struct {
	Class         int       `json:"class"`
	Label         string    `json:"label"`
	Probabilities []float64 `json:"probabilities"`
}

type estimator interface {
	probabilities(x []float64) []float64
}

// Model is a loaded, ready-to-use classifier.
type Model struct {
	meta        Artifact
	scaler      *Scaler
	est         estimator
	fingerprint string
}

// Load reads, validates and builds the artifact at path.
func Load(path string) (*Model, error) {
	a, err := ReadArtifact(path)
	if err != nil {
		return nil, err
	}
	return New(a)
}

// New builds a model from a validated artifact.
func New(a Artifact) (*Model, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("fingerprint artifact: %w", err)
	}
	sum := sha256.Sum256(raw)
	m := &Model{meta: a, scaler: a.Scaler, fingerprint: hex.EncodeToString(sum[:])}
	switch a.Estimator.Kind {
	case KindLogistic:
		m.est = newLogistic(a.Estimator.Logistic, a.Features.NFeatures)
	case KindForest:
		m.est = &forest{trees: a.Estimator.Forest.Trees, classes: len(a.Classes)}
	case KindKNN:
		m.est = &knn{params: a.Estimator.KNN, classes: len(a.Classes)}
	}
	// Drop bulky estimator parameters from the metadata copy.
	m.meta.Estimator = Estimator{Kind: a.Estimator.Kind}
	m.meta.Scaler = nil
	return m, nil
}

func (m *Model) Schema() features.Schema { return m.meta.Features }
func (m *Model) Classes() []string       { return m.meta.Classes }
func (m *Model) Task() outcome.Task      { return m.meta.Task }
func (m *Model) Kind() string            { return m.meta.Estimator.Kind }
func (m *Model) Name() string            { return m.meta.Name }

// Version identifies the artifact, e.g. "student-success@2024-06-01".
func (m *Model) Version() string {
	if m.meta.Name == "" {
		return m.meta.Version
	}
	return m.meta.Name + "@" + m.meta.Version
}

// Fingerprint is the sha256 of the artifact contents. Two artifacts that
// share a version but differ in weights have different fingerprints.
func (m *Model) Fingerprint() string { return m.fingerprint }

// Predict classifies one aligned feature vector.
func (m *Model) Predict(x []float64) (Prediction, error) {
	n := m.meta.Features.NFeatures
	if len(x) != n {
		return Prediction{}, fmt.Errorf("%w: got %d values, model expects %d", features.ErrWidthMismatch, len(x), n)
	}
	in := x
	if m.scaler != nil {
		in = make([]float64, n)
		for i, v := range x {
			scale := m.scaler.Scale[i]
			if scale == 0 {
				scale = 1
			}
			in[i] = (v - m.scaler.Mean[i]) / scale
		}
	}

	probs := m.est.probabilities(in)
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return Prediction{Class: best, Label: m.meta.Classes[best], Probabilities: probs}, nil
}

type logistic struct {
	coef      *mat.Dense
	intercept []float64
}

func newLogistic(p *LogisticParams, n int) *logistic {
	data := make([]float64, 0, len(p.Coef)*n)
	for _, row := range p.Coef {
		data = append(data, row...)
	}
	return &logistic{
		coef:      mat.NewDense(len(p.Coef), n, data),
		intercept: p.Intercept,
	}
}

func (l *logistic) probabilities(x []float64) []float64 {
	rows, _ := l.coef.Dims()
	z := mat.NewVecDense(rows, nil)
	z.MulVec(l.coef, mat.NewVecDense(len(x), x))
	scores := make([]float64, rows)
	for i := range scores {
		scores[i] = z.AtVec(i) + l.intercept[i]
	}
	if rows == 1 {
		p := 1 / (1 + math.Exp(-scores[0]))
		return []float64{1 - p, p}
	}
	return softmax(scores)
}

func softmax(z []float64) []float64 {
	maxZ := math.Inf(-1)
	for _, v := range z {
		maxZ = math.Max(maxZ, v)
	}
	out := make([]float64, len(z))
	var sum float64
	for i, v := range z {
		out[i] = math.Exp(v - maxZ)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

type forest struct {
	trees   []Tree
	classes int
}

func (f *forest) probabilities(x []float64) []float64 {
	out := make([]float64, f.classes)
	for _, t := range f.trees {
		leaf := t.Value[t.leaf(x)]
		var total float64
		for _, w := range leaf {
			total += w
		}
		if total == 0 {
			continue
		}
		for c, w := range leaf {
			out[c] += w / total
		}
	}
	for c := range out {
		out[c] /= float64(len(f.trees))
	}
	return out
}

func (t Tree) leaf(x []float64) int {
	node := 0
	for t.Left[node] != -1 {
		if x[t.Feature[node]] <= t.Threshold[node] {
			node = t.Left[node]
		} else {
			node = t.Right[node]
		}
	}
	return node
}

type knn struct {
	params  *KNNParams
	classes int
}

func (k *knn) probabilities(x []float64) []float64 {
	type neighbour struct {
		dist  float64
		label int
	}
	all := make([]neighbour, len(k.params.X))
	for i, row := range k.params.X {
		all[i] = neighbour{dist: euclid(x, row), label: k.params.Y[i]}
	}
	sort.SliceStable(all, func(a, b int) bool { return all[a].dist < all[b].dist })

	kk := min(k.params.K, len(all))
	out := make([]float64, k.classes)
	for _, nb := range all[:kk] {
		out[nb.label]++
	}
	for c := range out {
		out[c] /= float64(kk)
	}
	return out
}

func euclid(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
