package student

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Record is one student as entered in the form.
type Record struct {
	ApplicationMode            int     `json:"Application_mode"`
	Course                     int     `json:"Course"`
	PreviousQualificationGrade float64 `json:"Previous_qualification_grade"`
	MothersQualification       int     `json:"Mothers_qualification"`
	FathersQualification       int     `json:"Fathers_qualification"`
	MothersOccupation          int     `json:"Mothers_occupation"`
	FathersOccupation          int     `json:"Fathers_occupation"`
	AdmissionGrade             float64 `json:"Admission_grade"`
	Displaced                  int     `json:"Displaced"`
	Gender                     int     `json:"Gender"`
	ScholarshipHolder          int     `json:"Scholarship_holder"`
	AgeAtEnrollment            int     `json:"Age_at_enrollment"`
	Units1stEnrolled           int     `json:"Curricular_units_1st_sem_enrolled"`
	Units1stEvaluations        int     `json:"Curricular_units_1st_sem_evaluations"`
	Units1stApproved           int     `json:"Curricular_units_1st_sem_approved"`
	Units2ndEnrolled           int     `json:"Curricular_units_2nd_sem_enrolled"`
	Units2ndEvaluations        int     `json:"Curricular_units_2nd_sem_evaluations"`
	Units2ndApproved           int     `json:"Curricular_units_2nd_sem_approved"`
}

// Column is a named numeric value of the encoded training frame.
type Column struct {
	Name  string
	Value float64
}

// Ratio divides approved by enrolled units, treating zero enrolled as one.
func Ratio(approved, enrolled int) float64 {
	if enrolled == 0 {
		enrolled = 1
	}
	return float64(approved) / float64(enrolled)
}

// Ratio1stSem is the share of approved first-semester units.
func (r Record) Ratio1stSem() float64 { return Ratio(r.Units1stApproved, r.Units1stEnrolled) }

// Ratio2ndSem is the share of approved second-semester units.
func (r Record) Ratio2ndSem() float64 { return Ratio(r.Units2ndApproved, r.Units2ndEnrolled) }

// Columns returns the raw form columns followed by the derived ratios, in
// the order the training frame was built.
func (r Record) Columns() []Column {
	out := make([]Column, 0, len(catalog)+2)
	for _, f := range catalog {
		out = append(out, Column{Name: f.Name, Value: f.get(&r)})
	}
	out = append(out,
		Column{Name: ColRatio1stSem, Value: r.Ratio1stSem()},
		Column{Name: ColRatio2ndSem, Value: r.Ratio2ndSem()},
	)
	return out
}

// Values renders the record back into form values keyed by column name.
func (r Record) Values() map[string]string {
	out := make(map[string]string, len(catalog))
	for _, f := range catalog {
		out[f.Name] = FormatValue(f, f.get(&r))
	}
	return out
}

// Defaults returns a record holding every field default.
func Defaults() Record {
	var r Record
	for _, f := range catalog {
		f.set(&r, f.Default)
	}
	return r
}

// Options maps a select field name to the values it may take. Fields with a
// static option list in the catalog do not need an entry.
type Options map[string][]Option

// Parse builds a Record from string values keyed by column name (lookups are
// case-insensitive). Missing fields take their form default; a select field
// without a default takes its first option. Every invalid field is reported.
func Parse(values map[string]string, opts Options) (Record, error) {
	lower := make(map[string]string, len(values))
	for k, v := range values {
		lower[strings.ToLower(k)] = v
	}

	var (
		rec  Record
		errs ValidationErrors
	)
	for _, f := range catalog {
		options := f.Options
		if len(options) == 0 {
			options = opts[f.Name]
		}

		raw, ok := lower[strings.ToLower(f.Name)]
		raw = strings.TrimSpace(raw)
		if !ok || raw == "" {
			switch {
			case f.Kind == KindSelect && f.Default == 0 && len(options) > 0:
				raw = options[0].Value
			case f.Kind == KindSelect && f.Default == 0:
				errs = append(errs, FieldError{Field: f.Name, Message: "is required"})
				continue
			default:
				f.set(&rec, f.Default)
				continue
			}
		}

		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			errs = append(errs, FieldError{Field: f.Name, Value: raw, Message: "must be a number"})
			continue
		}
		if msg := check(f, v, options); msg != "" {
			errs = append(errs, FieldError{Field: f.Name, Value: raw, Message: msg})
			continue
		}
		f.set(&rec, v)
	}

	if len(errs) > 0 {
		return Record{}, errs
	}
	return rec, nil
}

func check(f FieldSpec, v float64, options []Option) string {
	if f.Integral() && v != math.Trunc(v) {
		return "must be a whole number"
	}
	switch f.Kind {
	case KindFloat, KindInt:
		if v < f.Min || v > f.Max {
			return fmt.Sprintf("must be between %s and %s", FormatValue(f, f.Min), FormatValue(f, f.Max))
		}
	case KindFlag, KindSelect:
		if len(options) == 0 {
			return ""
		}
		s := strconv.FormatInt(int64(v), 10)
		for _, o := range options {
			if o.Value == s {
				return ""
			}
		}
		return "is not one of the offered options"
	}
	return ""
}
