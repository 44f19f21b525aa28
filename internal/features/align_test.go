package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcules/student-success/internal/student"
)

func sampleRecord() student.Record {
	r := student.Defaults()
	r.Course = 9119
	r.MothersQualification = 19
	r.FathersQualification = 37
	r.MothersOccupation = 5
	r.FathersOccupation = 9
	r.Gender = 1
	r.Units1stApproved = 5
	return r
}

func realCategories() map[string][]int {
	seq := func(n int) []int {
		out := make([]int, n)
		for i := range out {
			out[i] = i + 1
		}
		return out
	}
	return map[string][]int{
		student.ColApplicationMode:      student.ApplicationModes,
		student.ColCourse:               {33, 171, 8014, 9003, 9070, 9085, 9119, 9130, 9147, 9238, 9254, 9500, 9556, 9670, 9773, 9853, 9991},
		student.ColMothersQualification: seq(29),
		student.ColFathersQualification: seq(34),
		student.ColMothersOccupation:    seq(32),
		student.ColFathersOccupation:    seq(46),
	}
}

func TestAlign_PadProducesLegacyWidth(t *testing.T) {
	s := Schema{NFeatures: LegacyWidth}
	enc := NewEncoder(s).Encode(sampleRecord())
	require.Len(t, enc.Columns, 20)

	vec, rep, err := Align(ModePad, s, enc)
	require.NoError(t, err)
	assert.Len(t, vec, 259)
	assert.Len(t, rep.Padded, 239)
	assert.Equal(t, "missing_feature_20", rep.Padded[0])
	assert.Equal(t, "missing_feature_258", rep.Padded[238])
	assert.True(t, rep.Fabricated())
	assert.Equal(t, 1.0, vec[0], "application mode stays in front")
	assert.Equal(t, 9119.0, vec[1])
	assert.Zero(t, vec[258])
}

func TestAlign_PadOneHotToLegacyWidth(t *testing.T) {
	s := Schema{NFeatures: LegacyWidth, Categorical: realCategories()}
	enc := NewEncoder(s).Encode(sampleRecord())
	require.Len(t, enc.Columns, 193)
	assert.Equal(t, []string{"Fathers_qualification=37"}, enc.Unknown)

	vec, rep, err := Align(ModePad, s, enc)
	require.NoError(t, err)
	assert.Len(t, vec, 259)
	assert.Len(t, rep.Padded, 66)
	assert.Empty(t, rep.Truncated)
}

func TestAlign_PadTruncatesTail(t *testing.T) {
	s := Schema{NFeatures: 10}
	vec, rep, err := Align(ModePad, s, NewEncoder(s).Encode(sampleRecord()))
	require.NoError(t, err)
	assert.Len(t, vec, 10)
	require.Len(t, rep.Truncated, 10)
	assert.Equal(t, student.ColScholarshipHolder, rep.Truncated[0])
	assert.Equal(t, student.ColRatio2ndSem, rep.Truncated[9])
	assert.Contains(t, rep.Summary(), "10 truncated")
}

func TestAlign_StrictByName(t *testing.T) {
	train := []student.Record{sampleRecord(), student.Defaults()}
	train[1].Course = 171
	s := Fit(train, []string{student.ColCourse})
	require.NoError(t, s.Validate())
	assert.Equal(t, 21, s.NFeatures, "19 passthrough columns + 2 course categories")

	rec := sampleRecord()
	vec, rep, err := Align(ModeStrict, s, NewEncoder(s).Encode(rec))
	require.NoError(t, err)
	require.Len(t, vec, s.NFeatures)
	assert.False(t, rep.Fabricated())

	pos := map[string]int{}
	for i, c := range s.Columns {
		pos[c] = i
	}
	assert.Equal(t, 1.0, vec[pos["Course_9119"]])
	assert.Equal(t, 0.0, vec[pos["Course_171"]])
	assert.Equal(t, 1.0, vec[pos[student.ColGender]])
	assert.InDelta(t, 5.0/6.0, vec[pos[student.ColRatio1stSem]], 1e-9)
}

func TestAlign_StrictRejectsDisagreement(t *testing.T) {
	base := Schema{
		NFeatures:     3,
		Columns:       []string{"Course_33", "Admission_grade", "Gender"},
		Categorical:   map[string][]int{student.ColCourse: {33}},
		HandleUnknown: HandleUnknownError,
	}
	rec := sampleRecord()

	_, _, err := Align(ModeStrict, base, NewEncoder(base).Encode(rec))
	assert.ErrorIs(t, err, ErrUnknownCategory)

	ignore := base
	ignore.HandleUnknown = HandleUnknownIgnore
	vec, rep, err := Align(ModeStrict, ignore, NewEncoder(ignore).Encode(rec))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 120, 1}, vec)
	assert.Equal(t, []string{"Course=9119"}, rep.Unknown)
	assert.Contains(t, rep.Unused, student.ColAgeAtEnrollment)

	missing := ignore
	missing.Columns = []string{"Course_33", "Admission_grade", "Tuition_fees_up_to_date"}
	_, _, err = Align(ModeStrict, missing, NewEncoder(missing).Encode(rec))
	assert.ErrorIs(t, err, ErrMissingColumn)

	vec, rep, err = Align(ModePad, missing, NewEncoder(missing).Encode(rec))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 120, 0}, vec)
	assert.Equal(t, []string{"Tuition_fees_up_to_date"}, rep.Padded)

	_, _, err = Align(ModeStrict, Schema{NFeatures: LegacyWidth}, NewEncoder(Schema{}).Encode(rec))
	assert.ErrorIs(t, err, ErrSchemaUnnamed)
}

func TestSchema_Validate(t *testing.T) {
	assert.ErrorIs(t, Schema{}.Validate(), ErrInvalidSchema)
	assert.ErrorIs(t, Schema{NFeatures: 2, Columns: []string{"a"}}.Validate(), ErrInvalidSchema)
	assert.ErrorIs(t, Schema{NFeatures: 2, Columns: []string{"a", "a"}}.Validate(), ErrInvalidSchema)
	assert.ErrorIs(t, Schema{NFeatures: 1, Categorical: map[string][]int{"Shoe_size": {1}}}.Validate(), ErrInvalidSchema)
	assert.ErrorIs(t, Schema{NFeatures: 1, HandleUnknown: "drop"}.Validate(), ErrInvalidSchema)
	assert.NoError(t, Schema{NFeatures: LegacyWidth}.Validate())
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" PAD ")
	require.NoError(t, err)
	assert.Equal(t, ModePad, m)

	m, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeStrict, m)

	_, err = ParseMode("truncate")
	assert.Error(t, err)
}
