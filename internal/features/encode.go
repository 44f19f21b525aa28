package features

import (
	"fmt"

	"github.com/mcules/student-success/internal/student"
)

// Encoded is a form record expanded into named model columns.
type Encoded struct {
	Columns []student.Column
	// Unknown lists "Field=code" pairs whose code has no one-hot column.
	Unknown []string
}

type Encoder struct {
	schema Schema
}

func NewEncoder(s Schema) *Encoder {
	return &Encoder{schema: s}
}

// Encode one-hot encodes the schema's categorical fields and passes every
// other raw and derived column through unchanged.
func (e *Encoder) Encode(r student.Record) Encoded {
	var out Encoded
	for _, col := range r.Columns() {
		codes, ok := e.schema.Categorical[col.Name]
		if !ok {
			out.Columns = append(out.Columns, col)
			continue
		}
		code := int(col.Value)
		hit := false
		for _, c := range codes {
			v := 0.0
			if c == code {
				v = 1
				hit = true
			}
			out.Columns = append(out.Columns, student.Column{Name: OneHotName(col.Name, c), Value: v})
		}
		if !hit {
			out.Unknown = append(out.Unknown, fmt.Sprintf("%s=%d", col.Name, code))
		}
	}
	return out
}
