package model

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcules/student-success/internal/features"
	"github.com/mcules/student-success/internal/outcome"
)

func baseArtifact(est Estimator) Artifact {
	return Artifact{
		Format:  Format,
		Name:    "test",
		Version: "1",
		Task:    outcome.TaskMulticlass,
		Classes: []string{"Dropout", "Enrolled", "Graduate"},
		Features: features.Schema{
			NFeatures: 2,
			Columns:   []string{"Admission_grade", "Gender"},
		},
		Estimator: est,
	}
}

func roundTrip(t *testing.T, a Artifact) *Model {
	t.Helper()
	data, err := json.Marshal(a)
	require.NoError(t, err)
	parsed, err := ParseArtifact(data)
	require.NoError(t, err)
	m, err := New(parsed)
	require.NoError(t, err)
	return m
}

func TestLogistic_Multiclass(t *testing.T) {
	a := baseArtifact(Estimator{Kind: KindLogistic, Logistic: &LogisticParams{
		Coef:      [][]float64{{1, 0}, {0, 1}, {-1, -1}},
		Intercept: []float64{0, 0, 0},
	}})
	m := roundTrip(t, a)
	assert.Equal(t, "test@1", m.Version())
	assert.Equal(t, KindLogistic, m.Kind())

	p, err := m.Predict([]float64{3, 0})
	require.NoError(t, err)
	assert.Equal(t, 0, p.Class)
	assert.Equal(t, "Dropout", p.Label)
	require.Len(t, p.Probabilities, 3)
	assert.InDelta(t, 1.0, p.Probabilities[0]+p.Probabilities[1]+p.Probabilities[2], 1e-9)

	p, err = m.Predict([]float64{0, 3})
	require.NoError(t, err)
	assert.Equal(t, "Enrolled", p.Label)
}

func TestLogistic_ScalerTreatsZeroScaleAsOne(t *testing.T) {
	a := baseArtifact(Estimator{Kind: KindLogistic, Logistic: &LogisticParams{
		Coef:      [][]float64{{1, 0}, {0, 1}, {-1, -1}},
		Intercept: []float64{0, 0, 0},
	}})
	a.Scaler = &Scaler{Mean: []float64{1, 1}, Scale: []float64{1, 0}}
	m := roundTrip(t, a)

	p, err := m.Predict([]float64{0, 0})
	require.NoError(t, err)
	assert.Equal(t, "Graduate", p.Label, "scaled input is (-1,-1)")
}

func TestLogistic_BinarySingleRow(t *testing.T) {
	a := baseArtifact(Estimator{Kind: KindLogistic, Logistic: &LogisticParams{
		Coef:      [][]float64{{2, 0}},
		Intercept: []float64{-1},
	}})
	a.Task = outcome.TaskBinary
	a.Classes = []string{"Not at risk", "At risk"}
	m := roundTrip(t, a)

	p, err := m.Predict([]float64{1, 5})
	require.NoError(t, err)
	assert.Equal(t, 1, p.Class)
	assert.InDelta(t, 0.7310585786, p.Probabilities[1], 1e-9)
}

func TestForest(t *testing.T) {
	a := baseArtifact(Estimator{Kind: KindForest, Forest: &ForestParams{Trees: []Tree{{
		Feature:   []int{0, -2, -2},
		Threshold: []float64{0.5, -2, -2},
		Left:      []int{1, -1, -1},
		Right:     []int{2, -1, -1},
		Value:     [][]float64{{10, 2, 8}, {10, 0, 0}, {0, 2, 8}},
	}}}})
	m := roundTrip(t, a)

	p, err := m.Predict([]float64{1, 0})
	require.NoError(t, err)
	assert.Equal(t, 2, p.Class)
	assert.InDeltaSlice(t, []float64{0, 0.2, 0.8}, p.Probabilities, 1e-9)

	p, err = m.Predict([]float64{0.5, 0})
	require.NoError(t, err)
	assert.Equal(t, 0, p.Class)
}

func TestKNN(t *testing.T) {
	a := baseArtifact(Estimator{Kind: KindKNN, KNN: &KNNParams{
		K: 2,
		X: [][]float64{{0, 0}, {0, 1}, {10, 10}},
		Y: []int{0, 0, 2},
	}})
	m := roundTrip(t, a)

	p, err := m.Predict([]float64{0, 0.4})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0, 0}, p.Probabilities)

	p, err = m.Predict([]float64{9, 9})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0, 0.5}, p.Probabilities)
	assert.Equal(t, 0, p.Class, "ties resolve to the lowest class index")
}

func TestPredict_WidthMismatch(t *testing.T) {
	m := roundTrip(t, baseArtifact(Estimator{Kind: KindKNN, KNN: &KNNParams{
		K: 1, X: [][]float64{{0, 0}}, Y: []int{1},
	}}))
	_, err := m.Predict(make([]float64, features.LegacyWidth))
	assert.ErrorIs(t, err, features.ErrWidthMismatch)
}

func TestParseArtifact_Rejects(t *testing.T) {
	cases := map[string]string{
		"not json":           `{`,
		"wrong format":       `{"format":"pickle","version":"1","task":"multiclass","classes":["a","b"],"features":{"n_features":1},"estimator":{"kind":"knn","knn":{"k":1,"x":[[0]],"y":[0]}}}`,
		"missing params":     `{"format":"student-success/v1","version":"1","task":"multiclass","classes":["a","b"],"features":{"n_features":1},"estimator":{"kind":"logistic"}}`,
		"one class":          `{"format":"student-success/v1","version":"1","task":"multiclass","classes":["a"],"features":{"n_features":1},"estimator":{"kind":"knn","knn":{"k":1,"x":[[0]],"y":[0]}}}`,
		"coef shape":         `{"format":"student-success/v1","version":"1","task":"multiclass","classes":["a","b"],"features":{"n_features":2},"estimator":{"kind":"logistic","logistic":{"coef":[[1],[2]],"intercept":[0,0]}}}`,
		"label out of range": `{"format":"student-success/v1","version":"1","task":"multiclass","classes":["a","b"],"features":{"n_features":1},"estimator":{"kind":"knn","knn":{"k":1,"x":[[0]],"y":[5]}}}`,
		"column count":       `{"format":"student-success/v1","version":"1","task":"multiclass","classes":["a","b"],"features":{"n_features":2,"columns":["x"]},"estimator":{"kind":"knn","knn":{"k":1,"x":[[0,0]],"y":[0]}}}`,
		"tree cycle":         `{"format":"student-success/v1","version":"1","task":"multiclass","classes":["a","b"],"features":{"n_features":1},"estimator":{"kind":"forest","forest":{"trees":[{"feature":[0],"threshold":[0],"left":[0],"right":[0],"value":[[1,1]]}]}}}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseArtifact([]byte(doc))
			assert.ErrorIs(t, err, ErrInvalidArtifact)
		})
	}
}

func TestWriteAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	a := baseArtifact(Estimator{Kind: KindKNN, KNN: &KNNParams{
		K: 1, X: [][]float64{{0, 0}}, Y: []int{1},
	}})
	require.NoError(t, WriteArtifact(path, a))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, a.Features, m.Schema())
	assert.Equal(t, a.Classes, m.Classes())

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestFingerprint(t *testing.T) {
	est := func(w float64) Estimator {
		return Estimator{Kind: KindLogistic, Logistic: &LogisticParams{
			Coef:      [][]float64{{w, 0}, {0, 1}, {-1, -1}},
			Intercept: []float64{0, 0, 0},
		}}
	}
	a := roundTrip(t, baseArtifact(est(1)))
	again := roundTrip(t, baseArtifact(est(1)))
	b := roundTrip(t, baseArtifact(est(2)))

	assert.Len(t, a.Fingerprint(), 64)
	assert.Equal(t, a.Fingerprint(), again.Fingerprint())
	assert.Equal(t, a.Version(), b.Version())
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint(), "same version, different weights")
}
