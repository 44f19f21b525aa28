package features

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/mcules/student-success/internal/student"
)

// LegacyWidth is the column count the original pickled model expected.
const LegacyWidth = 259

const (
	HandleUnknownError  = "error"
	HandleUnknownIgnore = "ignore"
)

var (
	ErrInvalidSchema   = errors.New("invalid feature schema")
	ErrSchemaUnnamed   = errors.New("feature schema has no column names")
	ErrMissingColumn   = errors.New("schema column cannot be produced from the form")
	ErrUnknownCategory = errors.New("category not seen in training")
	ErrWidthMismatch   = errors.New("feature width mismatch")
)

// Schema is the training-time layout of the model input.
type Schema struct {
	NFeatures     int              `json:"n_features"`
	Columns       []string         `json:"columns,omitempty"`
	Categorical   map[string][]int `json:"categorical,omitempty"`
	HandleUnknown string           `json:"handle_unknown,omitempty"`
}

// Named reports whether the schema carries column names.
func (s Schema) Named() bool { return len(s.Columns) > 0 }

func (s Schema) ignoreUnknown() bool { return s.HandleUnknown == HandleUnknownIgnore }

func (s Schema) Validate() error {
	if s.NFeatures <= 0 {
		return fmt.Errorf("%w: n_features must be positive", ErrInvalidSchema)
	}
	if s.Named() && len(s.Columns) != s.NFeatures {
		return fmt.Errorf("%w: %d column names for %d features", ErrInvalidSchema, len(s.Columns), s.NFeatures)
	}
	seen := make(map[string]struct{}, len(s.Columns))
	for _, c := range s.Columns {
		if _, dup := seen[c]; dup {
			return fmt.Errorf("%w: duplicate column %q", ErrInvalidSchema, c)
		}
		seen[c] = struct{}{}
	}
	for field, codes := range s.Categorical {
		f, ok := student.Lookup(field)
		if !ok || f.Name != field {
			return fmt.Errorf("%w: categorical field %q is not a form field", ErrInvalidSchema, field)
		}
		if len(codes) == 0 {
			return fmt.Errorf("%w: categorical field %q has no categories", ErrInvalidSchema, field)
		}
	}
	switch s.HandleUnknown {
	case "", HandleUnknownError, HandleUnknownIgnore:
	default:
		return fmt.Errorf("%w: handle_unknown %q", ErrInvalidSchema, s.HandleUnknown)
	}
	return nil
}

// OneHotName is the column name of one category of a one-hot encoded field.
func OneHotName(field string, code int) string {
	return field + "_" + strconv.Itoa(code)
}

// Fit learns a schema from training records: every field in categorical is
// one-hot encoded over the codes observed in records, the rest pass through.
func Fit(records []student.Record, categorical []string) Schema {
	cats := make(map[string][]int, len(categorical))
	for _, name := range categorical {
		f, ok := student.Lookup(name)
		if !ok {
			continue
		}
		seen := map[int]struct{}{}
		for i := range records {
			seen[int(f.Get(&records[i]))] = struct{}{}
		}
		codes := make([]int, 0, len(seen))
		for c := range seen {
			codes = append(codes, c)
		}
		sort.Ints(codes)
		cats[f.Name] = codes
	}

	s := Schema{Categorical: cats, HandleUnknown: HandleUnknownIgnore}
	enc := NewEncoder(s).Encode(student.Defaults())
	for _, c := range enc.Columns {
		s.Columns = append(s.Columns, c.Name)
	}
	s.NFeatures = len(s.Columns)
	return s
}
