package model

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/mcules/student-success/internal/features"
	"github.com/mcules/student-success/internal/outcome"
)

// Format identifies the artifact layout understood by this package.
const Format = "student-success/v1"

const (
	KindLogistic = "logistic"
	KindForest   = "forest"
	KindKNN      = "knn"
)

var ErrInvalidArtifact = errors.New("invalid model artifact")

//go:embed artifact.schema.json
var artifactSchemaJSON []byte

// Artifact is the serialized classifier: training schema, class labels and
// estimator parameters.
type Artifact struct {
	Format    string          `json:"format"`
	Name      string          `json:"name,omitempty"`
	Version   string          `json:"version"`
	TrainedAt string          `json:"trained_at,omitempty"`
	Task      outcome.Task    `json:"task"`
	Classes   []string        `json:"classes"`
	Features  features.Schema `json:"features"`
	Scaler    *Scaler         `json:"scaler,omitempty"`
	Estimator Estimator       `json:"estimator"`
}

// Scaler standardizes inputs as (x - mean) / scale.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

type Estimator struct {
	Kind     string          `json:"kind"`
	Logistic *LogisticParams `json:"logistic,omitempty"`
	Forest   *ForestParams   `json:"forest,omitempty"`
	KNN      *KNNParams      `json:"knn,omitempty"`
}

// LogisticParams holds one coefficient row per class. A binary model may
// carry a single row scoring the positive class.
type LogisticParams struct {
	Coef      [][]float64 `json:"coef"`
	Intercept []float64   `json:"intercept"`
}

type ForestParams struct {
	Trees []Tree `json:"trees"`
}

// Tree uses the flat node-array layout: Left[i] == -1 marks a leaf, and
// Value[i] holds the per-class weights of node i.
type Tree struct {
	Feature   []int       `json:"feature"`
	Threshold []float64   `json:"threshold"`
	Left      []int       `json:"left"`
	Right     []int       `json:"right"`
	Value     [][]float64 `json:"value"`
}

type KNNParams struct {
	K int         `json:"k"`
	X [][]float64 `json:"x"`
	Y []int       `json:"y"`
}

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func artifactSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("artifact.schema.json", bytes.NewReader(artifactSchemaJSON)); err != nil {
			compileErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiledSchema, compileErr = compiler.Compile("artifact.schema.json")
	})
	return compiledSchema, compileErr
}

// ParseArtifact validates data against the artifact JSON Schema, decodes it
// and checks that every shape agrees with the feature schema.
func ParseArtifact(data []byte) (Artifact, error) {
	schema, err := artifactSchema()
	if err != nil {
		return Artifact{}, fmt.Errorf("compile artifact schema: %w", err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return Artifact{}, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}
	if err := schema.Validate(doc); err != nil {
		return Artifact{}, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return Artifact{}, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}
	if err := a.Validate(); err != nil {
		return Artifact{}, err
	}
	return a, nil
}

// ReadArtifact loads and validates the artifact at path.
func ReadArtifact(path string) (Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Artifact{}, err
	}
	return ParseArtifact(data)
}

// WriteArtifact stores a as indented JSON.
func WriteArtifact(path string, a Artifact) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArtifact, fmt.Sprintf(format, args...))
}

// Validate checks the structural consistency JSON Schema cannot express.
func (a Artifact) Validate() error {
	if a.Format != Format {
		return invalidf("format %q, want %q", a.Format, Format)
	}
	if a.Task == outcome.TaskBinary && len(a.Classes) != 2 {
		return invalidf("binary task needs 2 classes, got %d", len(a.Classes))
	}
	if len(a.Classes) < 2 {
		return invalidf("need at least 2 classes")
	}
	if err := a.Features.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}
	n := a.Features.NFeatures
	if a.Scaler != nil {
		if len(a.Scaler.Mean) != n || len(a.Scaler.Scale) != n {
			return invalidf("scaler has %d/%d entries for %d features", len(a.Scaler.Mean), len(a.Scaler.Scale), n)
		}
	}

	switch a.Estimator.Kind {
	case KindLogistic:
		return a.validateLogistic(n)
	case KindForest:
		return a.validateForest(n)
	case KindKNN:
		return a.validateKNN(n)
	}
	return invalidf("unknown estimator kind %q", a.Estimator.Kind)
}

func (a Artifact) validateLogistic(n int) error {
	p := a.Estimator.Logistic
	if p == nil {
		return invalidf("logistic parameters missing")
	}
	rows := len(p.Coef)
	if rows != len(a.Classes) && !(a.Task == outcome.TaskBinary && rows == 1) {
		return invalidf("logistic has %d coefficient rows for %d classes", rows, len(a.Classes))
	}
	for i, row := range p.Coef {
		if len(row) != n {
			return invalidf("coefficient row %d has %d entries, want %d", i, len(row), n)
		}
	}
	if len(p.Intercept) != rows {
		return invalidf("logistic has %d intercepts for %d rows", len(p.Intercept), rows)
	}
	return nil
}

func (a Artifact) validateForest(n int) error {
	p := a.Estimator.Forest
	if p == nil || len(p.Trees) == 0 {
		return invalidf("forest has no trees")
	}
	for ti, t := range p.Trees {
		nodes := len(t.Left)
		if nodes == 0 || len(t.Right) != nodes || len(t.Feature) != nodes || len(t.Threshold) != nodes || len(t.Value) != nodes {
			return invalidf("tree %d has inconsistent node arrays", ti)
		}
		for i := 0; i < nodes; i++ {
			if len(t.Value[i]) != len(a.Classes) {
				return invalidf("tree %d node %d has %d class weights", ti, i, len(t.Value[i]))
			}
			if t.Left[i] == -1 {
				continue
			}
			if t.Left[i] <= i || t.Left[i] >= nodes || t.Right[i] <= i || t.Right[i] >= nodes {
				return invalidf("tree %d node %d has out-of-range children", ti, i)
			}
			if t.Feature[i] < 0 || t.Feature[i] >= n {
				return invalidf("tree %d node %d splits on feature %d", ti, i, t.Feature[i])
			}
		}
	}
	return nil
}

func (a Artifact) validateKNN(n int) error {
	p := a.Estimator.KNN
	if p == nil {
		return invalidf("knn parameters missing")
	}
	if p.K < 1 || len(p.X) == 0 || len(p.X) != len(p.Y) {
		return invalidf("knn needs k>=1 and matching x/y, got k=%d x=%d y=%d", p.K, len(p.X), len(p.Y))
	}
	for i, row := range p.X {
		if len(row) != n {
			return invalidf("knn row %d has %d entries, want %d", i, len(row), n)
		}
	}
	for i, y := range p.Y {
		if y < 0 || y >= len(a.Classes) {
			return invalidf("knn label %d at row %d out of range", y, i)
		}
	}
	return nil
}
