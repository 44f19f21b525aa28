// Package dataset reads the historical student records that feed the form
// dropdowns and the sample-data view.
package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/mcules/student-success/internal/student"
)

var (
	ErrUnknownColumn = errors.New("unknown dataset column")
	ErrEmpty         = errors.New("dataset has no header row")
)

// Dataset is an in-memory table with a header row.
type Dataset struct {
	Path   string
	Header []string
	Rows   [][]string

	index map[string]int
}

// Load reads a .csv or .xlsx file.
func Load(path string) (*Dataset, error) {
	var (
		d   *Dataset
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		d, err = loadXLSX(path)
	default:
		var f *os.File
		f, err = os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		d, err = ReadCSV(f)
	}
	if err != nil {
		return nil, fmt.Errorf("load dataset %s: %w", path, err)
	}
	d.Path = path
	return d, nil
}

// ReadCSV parses CSV text, detecting a ';' or ',' delimiter from the header.
func ReadCSV(r io.Reader) (*Dataset, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(4096)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, err
	}
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}

	cr := csv.NewReader(br)
	cr.Comma = detectDelimiter(head)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	return build(records)
}

func detectDelimiter(header []byte) rune {
	if bytes.Count(header, []byte{';'}) > bytes.Count(header, []byte{','}) {
		return ';'
	}
	return ','
}

func loadXLSX(path string) (*Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmpty
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	return build(rows)
}

func build(records [][]string) (*Dataset, error) {
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, ErrEmpty
	}
	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	d := &Dataset{Header: header, index: make(map[string]int, len(header))}
	for i, h := range header {
		d.index[strings.ToLower(h)] = i
	}
	for _, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		row := make([]string, len(header))
		copy(row, rec)
		d.Rows = append(d.Rows, row)
	}
	return d, nil
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func (d *Dataset) Len() int { return len(d.Rows) }

// HasColumn reports whether the header names column (case-insensitive).
func (d *Dataset) HasColumn(column string) bool {
	_, ok := d.index[strings.ToLower(column)]
	return ok
}

// Head returns at most n rows from the top of the table.
func (d *Dataset) Head(n int) [][]string {
	if n > len(d.Rows) {
		n = len(d.Rows)
	}
	if n < 0 {
		n = 0
	}
	return d.Rows[:n]
}

// Column returns every value of column in row order.
func (d *Dataset) Column(column string) ([]string, error) {
	i, ok := d.index[strings.ToLower(column)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, column)
	}
	out := make([]string, len(d.Rows))
	for r, row := range d.Rows {
		out[r] = strings.TrimSpace(row[i])
	}
	return out, nil
}

// Unique returns the distinct non-empty values of column. Numeric columns
// are normalized ("9119.0" and "9119" are one value) and sorted by value;
// anything else sorts as text.
func (d *Dataset) Unique(column string) ([]string, error) {
	values, err := d.Column(column)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, 32)
	var out []string
	numeric := true
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			numeric = false
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if !numeric {
		sort.Strings(out)
		return out, nil
	}

	nums := make(map[string]float64, len(out))
	dedup := out[:0]
	for _, v := range out {
		f, _ := strconv.ParseFloat(v, 64)
		key := normalize(f)
		if _, dup := nums[key]; dup {
			continue
		}
		nums[key] = f
		dedup = append(dedup, key)
	}
	sort.Slice(dedup, func(a, b int) bool { return nums[dedup[a]] < nums[dedup[b]] })
	return dedup, nil
}

func normalize(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Options builds dropdown choices for every dataset-backed select field the
// table carries. Fields absent from the header get no entry.
func (d *Dataset) Options() student.Options {
	opts := make(student.Options)
	for _, name := range student.DatasetFields() {
		values, err := d.Unique(name)
		if err != nil || len(values) == 0 {
			continue
		}
		list := make([]student.Option, len(values))
		for i, v := range values {
			list[i] = student.Option{Value: v, Label: v}
		}
		opts[name] = list
	}
	return opts
}

// Records parses every row into a form record and returns it together with
// the value of the target column. Rows that fail validation are skipped.
func (d *Dataset) Records(target string) ([]student.Record, []string, error) {
	ti, ok := d.index[strings.ToLower(target)]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownColumn, target)
	}
	var (
		recs   []student.Record
		labels []string
	)
	for _, row := range d.Rows {
		values := make(map[string]string, len(d.Header))
		for i, h := range d.Header {
			values[h] = row[i]
		}
		rec, err := student.Parse(values, nil)
		if err != nil {
			continue
		}
		recs = append(recs, rec)
		labels = append(labels, strings.TrimSpace(row[ti]))
	}
	return recs, labels, nil
}
