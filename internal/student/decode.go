package student

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

var ErrNotObject = errors.New("input must be a JSON object")

// DecodeValues reads a JSON object of field → value into form strings for
// Parse. Numbers keep their literal text, booleans become 1 or 0 and nulls
// are dropped. Nested values are rejected.
func DecodeValues(r io.Reader) (map[string]string, error) {
	var body map[string]any
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotObject, err)
	}
	out := make(map[string]string, len(body))
	for k, v := range body {
		switch t := v.(type) {
		case json.Number:
			out[k] = t.String()
		case string:
			out[k] = t
		case bool:
			out[k] = "0"
			if t {
				out[k] = "1"
			}
		case nil:
		default:
			return nil, fmt.Errorf("field %q must be a number or string", k)
		}
	}
	return out, nil
}

// ParseAssignments turns field=value pairs into form strings.
func ParseAssignments(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("expected field=value, got %q", p)
		}
		out[k] = v
	}
	return out, nil
}
