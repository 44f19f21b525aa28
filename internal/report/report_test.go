package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mcules/student-success/internal/history"
	"github.com/mcules/student-success/internal/outcome"
	"github.com/mcules/student-success/internal/student"
)

func sampleStudent() student.Record {
	return student.Record{
		ApplicationMode:            17,
		Course:                     9119,
		PreviousQualificationGrade: 133.1,
		MothersQualification:       19,
		FathersQualification:       12,
		MothersOccupation:          5,
		FathersOccupation:          9,
		AdmissionGrade:             127.3,
		Displaced:                  1,
		Gender:                     0,
		ScholarshipHolder:          0,
		AgeAtEnrollment:            20,
		Units1stEnrolled:           6,
		Units1stEvaluations:        7,
		Units1stApproved:           5,
		Units2ndEnrolled:           6,
		Units2ndEvaluations:        8,
		Units2ndApproved:           4,
	}
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestText_Golden(t *testing.T) {
	g := newGoldie(t)
	g.Assert(t, "graduate_report", []byte(Text(sampleStudent(), outcome.Graduate)))
}

func TestText_Outcomes(t *testing.T) {
	r := sampleStudent()
	assert.Contains(t, Text(r, outcome.Dropout), "Prediction: Dropout\n")
	assert.Contains(t, Text(r, outcome.AtRisk), "Prediction: Dropout risk\n")

	r.Gender = 1
	r.Displaced = 0
	out := Text(r, outcome.Enrolled)
	assert.Contains(t, out, "- Gender: Male\n")
	assert.Contains(t, out, "- Displaced: No\n")
}

func TestXLSX(t *testing.T) {
	entries := []history.Entry{{
		ID:            "0190d6a4-0000-7000-8000-000000000001",
		CreatedAt:     time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC),
		ModelVersion:  "demo@knn-15-600",
		Outcome:       string(outcome.Graduate),
		Label:         "Graduate",
		Class:         2,
		Probabilities: []float64{0.1, 0.2, 0.7},
		Inputs:        sampleStudent(),
		Alignment:     "strict",
	}}
	data, err := XLSX(entries)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(historySheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "ID", rows[0][0])
	assert.Equal(t, student.ColApplicationMode, rows[0][8])
	assert.Equal(t, "2024-06-01 09:30:00", rows[1][1])
	assert.Equal(t, "Graduate", rows[1][3])
	assert.Equal(t, "0.7", rows[1][5])
	assert.Equal(t, "9119", rows[1][9])
}
