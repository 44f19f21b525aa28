package features

import (
	"fmt"
	"strings"
)

type Mode string

const (
	// ModeStrict places columns by name and fails on any disagreement with
	// the training schema.
	ModeStrict Mode = "strict"
	// ModePad fills missing columns with zeros and cuts surplus ones.
	ModePad Mode = "pad"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeStrict, "":
		return ModeStrict, nil
	case ModePad:
		return ModePad, nil
	}
	return "", fmt.Errorf("unknown alignment mode %q (want strict or pad)", s)
}

// Report describes how an encoded row was fitted to the schema.
type Report struct {
	Mode     Mode `json:"mode"`
	Width    int  `json:"width"`
	Produced int  `json:"produced"`
	// Padded holds zero-filled columns the form could not produce.
	Padded []string `json:"padded,omitempty"`
	// Truncated holds produced columns cut off the tail of a positional row.
	Truncated []string `json:"truncated,omitempty"`
	// Unused holds produced columns the schema does not list.
	Unused  []string `json:"unused,omitempty"`
	Unknown []string `json:"unknown_categories,omitempty"`
}

// Fabricated reports whether the vector holds values the form never supplied
// or lost values it did.
func (r Report) Fabricated() bool {
	return len(r.Padded) > 0 || len(r.Truncated) > 0
}

func (r Report) Summary() string {
	if !r.Fabricated() {
		return fmt.Sprintf("%d of %d columns matched", r.Width-len(r.Padded), r.Width)
	}
	return fmt.Sprintf("%d columns zero-padded, %d truncated to reach width %d", len(r.Padded), len(r.Truncated), r.Width)
}

// MissingName names the i-th fabricated column of a positional row.
func MissingName(i int) string {
	return fmt.Sprintf("missing_feature_%d", i)
}

// Align fits an encoded row to the schema width.
func Align(mode Mode, s Schema, enc Encoded) ([]float64, Report, error) {
	rep := Report{Mode: mode, Width: s.NFeatures, Produced: len(enc.Columns), Unknown: enc.Unknown}

	switch mode {
	case ModeStrict:
		if !s.Named() {
			return nil, rep, ErrSchemaUnnamed
		}
		if len(enc.Unknown) > 0 && !s.ignoreUnknown() {
			return nil, rep, fmt.Errorf("%w: %s", ErrUnknownCategory, strings.Join(enc.Unknown, ", "))
		}
		vec, err := byName(s, enc, &rep, false)
		if err != nil {
			return nil, rep, err
		}
		if len(vec) != s.NFeatures {
			return nil, rep, fmt.Errorf("%w: built %d, model expects %d", ErrWidthMismatch, len(vec), s.NFeatures)
		}
		return vec, rep, nil

	case ModePad:
		if s.Named() {
			vec, err := byName(s, enc, &rep, true)
			return vec, rep, err
		}
		return positional(s, enc, &rep), rep, nil
	}
	return nil, rep, fmt.Errorf("unknown alignment mode %q", mode)
}

func byName(s Schema, enc Encoded, rep *Report, pad bool) ([]float64, error) {
	index := make(map[string]float64, len(enc.Columns))
	for _, c := range enc.Columns {
		index[c.Name] = c.Value
	}

	vec := make([]float64, len(s.Columns))
	var missing []string
	for i, name := range s.Columns {
		v, ok := index[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		vec[i] = v
		delete(index, name)
	}
	if len(missing) > 0 {
		if !pad {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
		}
		rep.Padded = missing
	}
	for _, c := range enc.Columns {
		if _, left := index[c.Name]; left {
			rep.Unused = append(rep.Unused, c.Name)
		}
	}
	return vec, nil
}

func positional(s Schema, enc Encoded, rep *Report) []float64 {
	vec := make([]float64, s.NFeatures)
	for i, c := range enc.Columns {
		if i >= s.NFeatures {
			rep.Truncated = append(rep.Truncated, c.Name)
			continue
		}
		vec[i] = c.Value
	}
	for i := len(enc.Columns); i < s.NFeatures; i++ {
		rep.Padded = append(rep.Padded, MissingName(i))
	}
	return vec
}
