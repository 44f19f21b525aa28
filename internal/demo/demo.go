// Package demo generates a synthetic student dataset and a small kNN model
// trained on it, so the service can run without the production files.
package demo

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/mcules/student-success/internal/features"
	"github.com/mcules/student-success/internal/model"
	"github.com/mcules/student-success/internal/outcome"
	"github.com/mcules/student-success/internal/student"
)

// TargetColumn holds the outcome label in generated datasets.
const TargetColumn = "Target"

const (
	DatasetFile = "dataset.csv"
	ModelFile   = "model.json"
)

// Classes are the multiclass labels in class-index order.
var Classes = []string{outcome.Dropout.Label(), outcome.Enrolled.Label(), outcome.Graduate.Label()}

// Courses are the degree codes used by the public student dataset.
var Courses = []int{33, 171, 8014, 9003, 9070, 9085, 9119, 9130, 9147, 9238, 9254, 9500, 9556, 9670, 9773, 9853, 9991}

type Config struct {
	Rows int
	Seed uint64
	K    int
	// Categorical lists the fields the demo model one-hot encodes.
	Categorical []string
	Now         func() time.Time
}

func (c Config) withDefaults() Config {
	if c.Rows <= 0 {
		c.Rows = 600
	}
	if c.K <= 0 {
		c.K = 15
	}
	if c.Categorical == nil {
		c.Categorical = []string{student.ColCourse}
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Generate draws rows synthetic students and their outcome labels. The same
// seed always yields the same data.
func Generate(rows int, seed uint64) ([]student.Record, []string) {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	recs := make([]student.Record, rows)
	labels := make([]string, rows)

	for i := range recs {
		ability := rng.NormFloat64()
		r := student.Record{
			ApplicationMode:            student.ApplicationModes[rng.IntN(len(student.ApplicationModes))],
			Course:                     Courses[rng.IntN(len(Courses))],
			PreviousQualificationGrade: grade(130+12*ability+rng.NormFloat64()*8, 95, 190),
			MothersQualification:       1 + rng.IntN(29),
			FathersQualification:       1 + rng.IntN(34),
			MothersOccupation:          1 + rng.IntN(32),
			FathersOccupation:          1 + rng.IntN(46),
			AdmissionGrade:             grade(127+13*ability+rng.NormFloat64()*8, 95, 190),
			Displaced:                  bernoulli(rng, 0.55),
			Gender:                     bernoulli(rng, 0.35),
			ScholarshipHolder:          bernoulli(rng, 0.2+0.1*math.Max(ability, 0)),
			AgeAtEnrollment:            17 + int(math.Min(rng.ExpFloat64()*4, 45)),
		}
		r.Units1stEnrolled, r.Units1stEvaluations, r.Units1stApproved = semester(rng, ability)
		r.Units2ndEnrolled, r.Units2ndEvaluations, r.Units2ndApproved = semester(rng, ability)
		recs[i] = r
		labels[i] = label(rng, r, ability)
	}
	return recs, labels
}

func grade(v, lo, hi float64) float64 {
	v = math.Max(lo, math.Min(hi, v))
	return math.Round(v*10) / 10
}

func bernoulli(rng *rand.Rand, p float64) int {
	if rng.Float64() < p {
		return 1
	}
	return 0
}

func semester(rng *rand.Rand, ability float64) (enrolled, evaluations, approved int) {
	enrolled = 5 + rng.IntN(4)
	evaluations = enrolled + rng.IntN(5)
	share := 0.65 + 0.25*ability + rng.NormFloat64()*0.1
	share = math.Max(0, math.Min(1, share))
	approved = int(math.Round(share * float64(enrolled)))
	return
}

func label(rng *rand.Rand, r student.Record, ability float64) string {
	score := 0.6*r.Ratio2ndSem() + 0.3*r.Ratio1stSem() + 0.05*ability + rng.NormFloat64()*0.05
	if r.ScholarshipHolder == 1 {
		score += 0.05
	}
	switch {
	case score < 0.45:
		return Classes[0]
	case score < 0.75:
		return Classes[1]
	}
	return Classes[2]
}

// WriteCSV writes records in the dataset layout: every form column followed
// by the target label.
func WriteCSV(w io.Writer, recs []student.Record, labels []string) error {
	fields := student.Fields()
	cw := csv.NewWriter(w)
	header := make([]string, 0, len(fields)+1)
	for _, f := range fields {
		header = append(header, f.Name)
	}
	if err := cw.Write(append(header, TargetColumn)); err != nil {
		return err
	}
	for i, r := range recs {
		row := make([]string, 0, len(fields)+1)
		for _, f := range fields {
			row = append(row, student.FormatValue(f, f.Get(&r)))
		}
		if err := cw.Write(append(row, labels[i])); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// FitKNN trains the demo artifact: a feature schema learned from recs, a
// standard scaler and a kNN estimator over the scaled rows.
func FitKNN(recs []student.Record, labels []string, cfg Config) (model.Artifact, error) {
	cfg = cfg.withDefaults()
	if len(recs) == 0 || len(recs) != len(labels) {
		return model.Artifact{}, fmt.Errorf("fit demo model: %d records, %d labels", len(recs), len(labels))
	}

	classIdx := make(map[string]int, len(Classes))
	for i, c := range Classes {
		classIdx[c] = i
	}

	schema := features.Fit(recs, cfg.Categorical)
	enc := features.NewEncoder(schema)
	xs := make([][]float64, len(recs))
	ys := make([]int, len(recs))
	for i, r := range recs {
		y, ok := classIdx[labels[i]]
		if !ok {
			return model.Artifact{}, fmt.Errorf("fit demo model: row %d has unknown label %q", i, labels[i])
		}
		vec, _, err := features.Align(features.ModeStrict, schema, enc.Encode(r))
		if err != nil {
			return model.Artifact{}, fmt.Errorf("fit demo model: row %d: %w", i, err)
		}
		xs[i], ys[i] = vec, y
	}

	scaler := fitScaler(xs, oneHotColumns(schema))
	for _, row := range xs {
		for j := range row {
			row[j] = (row[j] - scaler.Mean[j]) / scaler.Scale[j]
		}
	}

	return model.Artifact{
		Format:    model.Format,
		Name:      "demo",
		Version:   fmt.Sprintf("knn-%d-%d", cfg.K, len(recs)),
		TrainedAt: cfg.Now().UTC().Format(time.RFC3339),
		Task:      outcome.TaskMulticlass,
		Classes:   append([]string(nil), Classes...),
		Features:  schema,
		Scaler:    &scaler,
		Estimator: model.Estimator{
			Kind: model.KindKNN,
			KNN:  &model.KNNParams{K: min(cfg.K, len(recs)), X: xs, Y: ys},
		},
	}, nil
}

func oneHotColumns(s features.Schema) map[int]bool {
	names := make(map[string]bool)
	for field, codes := range s.Categorical {
		for _, c := range codes {
			names[features.OneHotName(field, c)] = true
		}
	}
	out := make(map[int]bool, len(names))
	for i, c := range s.Columns {
		if names[c] {
			out[i] = true
		}
	}
	return out
}

// fitScaler standardizes numeric columns. Indicator columns in skip keep
// mean 0 and scale 1.
func fitScaler(xs [][]float64, skip map[int]bool) model.Scaler {
	n := len(xs[0])
	s := model.Scaler{Mean: make([]float64, n), Scale: make([]float64, n)}
	for _, row := range xs {
		for j, v := range row {
			s.Mean[j] += v
		}
	}
	for j := range s.Mean {
		s.Mean[j] /= float64(len(xs))
	}
	for _, row := range xs {
		for j, v := range row {
			d := v - s.Mean[j]
			s.Scale[j] += d * d
		}
	}
	for j := range s.Scale {
		s.Scale[j] = math.Sqrt(s.Scale[j] / float64(len(xs)))
		if s.Scale[j] == 0 || skip[j] {
			s.Scale[j] = 1
		}
		if skip[j] {
			s.Mean[j] = 0
		}
	}
	return s
}

// Files are the paths written by Write.
type Files struct {
	Dataset string
	Model   string
}

// Write generates the demo dataset and model into dir.
func Write(dir string, cfg Config) (Files, error) {
	cfg = cfg.withDefaults()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Files{}, err
	}
	files := Files{
		Dataset: filepath.Join(dir, DatasetFile),
		Model:   filepath.Join(dir, ModelFile),
	}

	recs, labels := Generate(cfg.Rows, cfg.Seed)
	f, err := os.Create(files.Dataset)
	if err != nil {
		return Files{}, err
	}
	if err := WriteCSV(f, recs, labels); err != nil {
		f.Close()
		return Files{}, fmt.Errorf("write demo dataset: %w", err)
	}
	if err := f.Close(); err != nil {
		return Files{}, err
	}

	a, err := FitKNN(recs, labels, cfg)
	if err != nil {
		return Files{}, err
	}
	if err := model.WriteArtifact(files.Model, a); err != nil {
		return Files{}, fmt.Errorf("write demo model: %w", err)
	}
	return files, nil
}
