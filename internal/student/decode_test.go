package student

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeValues(t *testing.T) {
	got, err := DecodeValues(strings.NewReader(`{"Course": 9119, "Admission_grade": "133.1", "Gender": true, "Displaced": false, "Debtor": null}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"Course":          "9119",
		"Admission_grade": "133.1",
		"Gender":          "1",
		"Displaced":       "0",
	}, got)

	_, err = DecodeValues(strings.NewReader(`[1]`))
	assert.ErrorIs(t, err, ErrNotObject)

	_, err = DecodeValues(strings.NewReader(`{"Course": [1]}`))
	assert.Error(t, err)
}

func TestParseAssignments(t *testing.T) {
	got, err := ParseAssignments([]string{"Course=9119", "Admission_grade=1=2"})
	require.NoError(t, err)
	assert.Equal(t, "9119", got["Course"])
	assert.Equal(t, "1=2", got["Admission_grade"])

	_, err = ParseAssignments([]string{"Course"})
	assert.Error(t, err)
	_, err = ParseAssignments([]string{"=5"})
	assert.Error(t, err)
}
