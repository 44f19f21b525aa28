package student

import (
	"strconv"
	"strings"
)

type Kind string

const (
	KindSelect Kind = "select"
	KindFloat  Kind = "float"
	KindInt    Kind = "int"
	KindFlag   Kind = "flag"
)

type Group string

const (
	GroupAcademic    Group = "academic"
	GroupPersonal    Group = "personal"
	GroupPerformance Group = "performance"
)

// Groups lists the form sections in display order.
var Groups = []Group{GroupAcademic, GroupPersonal, GroupPerformance}

type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FieldSpec describes one form input. Name doubles as the training column name
// and as the form/JSON key.
type FieldSpec struct {
	Name        string   `json:"name"`
	Label       string   `json:"label"`
	Help        string   `json:"help"`
	Group       Group    `json:"group"`
	Kind        Kind     `json:"kind"`
	Min         float64  `json:"min"`
	Max         float64  `json:"max"`
	Default     float64  `json:"default"`
	Options     []Option `json:"options,omitempty"`
	FromDataset bool     `json:"from_dataset,omitempty"`

	get func(*Record) float64
	set func(*Record, float64)
}

// Get returns the field value of r.
func (f FieldSpec) Get(r *Record) float64 { return f.get(r) }

// Integral reports whether the field only accepts whole numbers.
func (f FieldSpec) Integral() bool { return f.Kind != KindFloat }

// OptionLabel returns the display label for a value, or the value itself.
func (f FieldSpec) OptionLabel(v float64) string {
	s := FormatValue(f, v)
	for _, o := range f.Options {
		if o.Value == s {
			return o.Label
		}
	}
	return s
}

// Column names of the original training frame.
const (
	ColApplicationMode      = "Application_mode"
	ColCourse               = "Course"
	ColPrevQualGrade        = "Previous_qualification_grade"
	ColMothersQualification = "Mothers_qualification"
	ColFathersQualification = "Fathers_qualification"
	ColMothersOccupation    = "Mothers_occupation"
	ColFathersOccupation    = "Fathers_occupation"
	ColAdmissionGrade       = "Admission_grade"
	ColDisplaced            = "Displaced"
	ColGender               = "Gender"
	ColScholarshipHolder    = "Scholarship_holder"
	ColAgeAtEnrollment      = "Age_at_enrollment"
	ColUnits1stEnrolled     = "Curricular_units_1st_sem_enrolled"
	ColUnits1stEvaluations  = "Curricular_units_1st_sem_evaluations"
	ColUnits1stApproved     = "Curricular_units_1st_sem_approved"
	ColUnits2ndEnrolled     = "Curricular_units_2nd_sem_enrolled"
	ColUnits2ndEvaluations  = "Curricular_units_2nd_sem_evaluations"
	ColUnits2ndApproved     = "Curricular_units_2nd_sem_approved"
	ColRatio1stSem          = "Ratio_approved_1st_sem"
	ColRatio2ndSem          = "Ratio_approved_2nd_sem"
)

// ApplicationModes is the fixed option list offered by the form.
var ApplicationModes = []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 15, 16, 17, 18, 39, 40, 42, 43, 44, 51, 53}

var (
	genderOptions = []Option{{Value: "0", Label: "Female"}, {Value: "1", Label: "Male"}}
	yesNoOptions  = []Option{{Value: "0", Label: "No"}, {Value: "1", Label: "Yes"}}
)

var catalog = buildCatalog()

// Fields returns the form catalog in canonical column order.
// The returned slice is a copy; callers may attach options to it.
func Fields() []FieldSpec {
	out := make([]FieldSpec, len(catalog))
	copy(out, catalog)
	return out
}

// FieldsWith returns the catalog with dataset options attached to the
// fields that take them.
func FieldsWith(opts Options) []FieldSpec {
	out := Fields()
	for i := range out {
		if len(out[i].Options) == 0 && len(opts[out[i].Name]) > 0 {
			out[i].Options = opts[out[i].Name]
		}
	}
	return out
}

// Lookup finds a field by column name, case-insensitively.
func Lookup(name string) (FieldSpec, bool) {
	for _, f := range catalog {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// DatasetFields returns the names of select fields whose options come from
// the historical dataset.
func DatasetFields() []string {
	var out []string
	for _, f := range catalog {
		if f.FromDataset {
			out = append(out, f.Name)
		}
	}
	return out
}

func buildCatalog() []FieldSpec {
	modeOpts := make([]Option, 0, len(ApplicationModes))
	for _, m := range ApplicationModes {
		s := strconv.Itoa(m)
		modeOpts = append(modeOpts, Option{Value: s, Label: s})
	}

	units := func(name, label, help string, get func(*Record) *int) FieldSpec {
		return FieldSpec{
			Name: name, Label: label, Help: help,
			Group: GroupPerformance, Kind: KindInt, Min: 0, Max: 20, Default: 6,
			get: func(r *Record) float64 { return float64(*get(r)) },
			set: func(r *Record, v float64) { *get(r) = int(v) },
		}
	}
	intField := func(spec FieldSpec, get func(*Record) *int) FieldSpec {
		spec.get = func(r *Record) float64 { return float64(*get(r)) }
		spec.set = func(r *Record, v float64) { *get(r) = int(v) }
		return spec
	}
	floatField := func(spec FieldSpec, get func(*Record) *float64) FieldSpec {
		spec.get = func(r *Record) float64 { return *get(r) }
		spec.set = func(r *Record, v float64) { *get(r) = v }
		return spec
	}

	return []FieldSpec{
		intField(FieldSpec{
			Name: ColApplicationMode, Label: "Application Mode",
			Help:  "The method through which the student applied",
			Group: GroupAcademic, Kind: KindSelect, Default: 1, Options: modeOpts,
		}, func(r *Record) *int { return &r.ApplicationMode }),
		intField(FieldSpec{
			Name: ColCourse, Label: "Course",
			Help:  "The course the student is enrolled in",
			Group: GroupAcademic, Kind: KindSelect, FromDataset: true,
		}, func(r *Record) *int { return &r.Course }),
		floatField(FieldSpec{
			Name: ColPrevQualGrade, Label: "Previous Qualification Grade",
			Help:  "Grade from previous qualification",
			Group: GroupAcademic, Kind: KindFloat, Min: 0, Max: 200, Default: 120,
		}, func(r *Record) *float64 { return &r.PreviousQualificationGrade }),
		intField(FieldSpec{
			Name: ColMothersQualification, Label: "Mother's Qualification",
			Help:  "Mother's highest qualification",
			Group: GroupAcademic, Kind: KindSelect, FromDataset: true,
		}, func(r *Record) *int { return &r.MothersQualification }),
		intField(FieldSpec{
			Name: ColFathersQualification, Label: "Father's Qualification",
			Help:  "Father's highest qualification",
			Group: GroupAcademic, Kind: KindSelect, FromDataset: true,
		}, func(r *Record) *int { return &r.FathersQualification }),
		intField(FieldSpec{
			Name: ColMothersOccupation, Label: "Mother's Occupation",
			Help:  "Mother's occupation",
			Group: GroupPersonal, Kind: KindSelect, FromDataset: true,
		}, func(r *Record) *int { return &r.MothersOccupation }),
		intField(FieldSpec{
			Name: ColFathersOccupation, Label: "Father's Occupation",
			Help:  "Father's occupation",
			Group: GroupPersonal, Kind: KindSelect, FromDataset: true,
		}, func(r *Record) *int { return &r.FathersOccupation }),
		floatField(FieldSpec{
			Name: ColAdmissionGrade, Label: "Admission Grade",
			Help:  "Grade at admission",
			Group: GroupPersonal, Kind: KindFloat, Min: 0, Max: 200, Default: 120,
		}, func(r *Record) *float64 { return &r.AdmissionGrade }),
		intField(FieldSpec{
			Name: ColDisplaced, Label: "Displaced",
			Help:  "Whether the student is displaced",
			Group: GroupPerformance, Kind: KindFlag, Max: 1, Options: yesNoOptions,
		}, func(r *Record) *int { return &r.Displaced }),
		intField(FieldSpec{
			Name: ColGender, Label: "Gender",
			Help:  "Student's gender",
			Group: GroupPersonal, Kind: KindFlag, Max: 1, Options: genderOptions,
		}, func(r *Record) *int { return &r.Gender }),
		intField(FieldSpec{
			Name: ColScholarshipHolder, Label: "Scholarship Holder",
			Help:  "Whether the student has a scholarship",
			Group: GroupPerformance, Kind: KindFlag, Max: 1, Options: yesNoOptions,
		}, func(r *Record) *int { return &r.ScholarshipHolder }),
		intField(FieldSpec{
			Name: ColAgeAtEnrollment, Label: "Age at Enrollment",
			Help:  "Student's age when enrolled",
			Group: GroupPersonal, Kind: KindInt, Min: 17, Max: 100, Default: 19,
		}, func(r *Record) *int { return &r.AgeAtEnrollment }),
		units(ColUnits1stEnrolled, "1st Semester Units Enrolled",
			"Number of units enrolled in first semester", func(r *Record) *int { return &r.Units1stEnrolled }),
		units(ColUnits1stEvaluations, "1st Semester Units Evaluated",
			"Number of units evaluated in first semester", func(r *Record) *int { return &r.Units1stEvaluations }),
		units(ColUnits1stApproved, "1st Semester Units Approved",
			"Number of units approved in first semester", func(r *Record) *int { return &r.Units1stApproved }),
		units(ColUnits2ndEnrolled, "2nd Semester Units Enrolled",
			"Number of units enrolled in second semester", func(r *Record) *int { return &r.Units2ndEnrolled }),
		units(ColUnits2ndEvaluations, "2nd Semester Units Evaluated",
			"Number of units evaluated in second semester", func(r *Record) *int { return &r.Units2ndEvaluations }),
		units(ColUnits2ndApproved, "2nd Semester Units Approved",
			"Number of units approved in second semester", func(r *Record) *int { return &r.Units2ndApproved }),
	}
}

// FormatValue renders v the way the field is entered: whole numbers for
// integral kinds, a decimal with at least one fractional digit for floats.
func FormatValue(f FieldSpec, v float64) string {
	if f.Integral() {
		return strconv.FormatInt(int64(v), 10)
	}
	return FormatFloat(v)
}

// FormatFloat prints v with the shortest exact representation, always keeping
// a fractional part ("120.0", "133.1").
func FormatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}
