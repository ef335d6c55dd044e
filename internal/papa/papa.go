// Package papa is the CSV parse/stringify helper exposed to scripts as
// `import "papa"`. Parse never fails outright: malformed rows are reported in
// Result.Errors and parsing continues with the next row.
package papa

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Config controls parsing and unparsing.
type Config struct {
	// Delimiter separates fields. Zero means auto-detect when parsing and
	// comma when unparsing.
	Delimiter rune
	// Header treats the first row as field names; Parse then fills
	// Result.Records instead of Result.Rows.
	Header bool
	// Comments marks lines starting with this rune as comments.
	Comments rune
	// TrimSpace trims leading space from fields.
	TrimSpace bool
	// Newline used by Unparse. Defaults to "\r\n".
	Newline string
	// Columns restricts and orders the fields written by UnparseRecords.
	Columns []string
	// SkipHeader omits the header row in UnparseRecords.
	SkipHeader bool
}

// Error codes reported in ParseError.Code.
const (
	CodeTooFewFields  = "TooFewFields"
	CodeTooManyFields = "TooManyFields"
	CodeInvalidQuotes = "InvalidQuotes"
	CodeUndetectable  = "UndetectableDelimiter"
)

// ParseError describes a problem with one row.
type ParseError struct {
	Code    string
	Message string
	Row     int
}

func (e ParseError) Error() string {
	return fmt.Sprintf("row %d: %s: %s", e.Row, e.Code, e.Message)
}

// Result is the outcome of Parse.
type Result struct {
	Rows      [][]string
	Records   []map[string]string
	Fields    []string
	Delimiter rune
	Errors    []ParseError
}

var candidateDelimiters = []rune{',', '\t', '|', ';'}

const bom = "\ufeff"

// Parse parses CSV text.
func Parse(text string, cfg Config) Result {
	text = strings.TrimPrefix(text, bom)

	res := Result{Delimiter: cfg.Delimiter}
	if res.Delimiter == 0 {
		d, ok := guessDelimiter(text, cfg.Comments)
		res.Delimiter = d
		if !ok && strings.TrimSpace(text) != "" {
			res.Errors = append(res.Errors, ParseError{
				Code:    CodeUndetectable,
				Message: "unable to auto-detect delimiter; defaulted to ','",
			})
		}
	}

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = res.Delimiter
	r.Comment = cfg.Comments
	r.FieldsPerRecord = -1
	r.LazyQuotes = false
	r.TrimLeadingSpace = cfg.TrimSpace

	row := 0
	for {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				res.Errors = append(res.Errors, ParseError{Code: CodeInvalidQuotes, Message: err.Error(), Row: row})
				break
			}
			res.Errors = append(res.Errors, ParseError{Code: CodeInvalidQuotes, Message: perr.Err.Error(), Row: row})
			row++
			continue
		}

		if cfg.Header && res.Fields == nil {
			res.Fields = fields
			continue
		}

		if cfg.Header {
			res.Records = append(res.Records, res.toRecord(fields, row))
		} else {
			res.Rows = append(res.Rows, fields)
		}
		row++
	}

	return res
}

func (res *Result) toRecord(fields []string, row int) map[string]string {
	rec := make(map[string]string, len(res.Fields))
	for i, name := range res.Fields {
		if i >= len(fields) {
			break
		}
		rec[name] = fields[i]
	}

	switch {
	case len(fields) < len(res.Fields):
		res.Errors = append(res.Errors, ParseError{
			Code:    CodeTooFewFields,
			Message: fmt.Sprintf("expected %d fields but parsed %d", len(res.Fields), len(fields)),
			Row:     row,
		})
	case len(fields) > len(res.Fields):
		res.Errors = append(res.Errors, ParseError{
			Code:    CodeTooManyFields,
			Message: fmt.Sprintf("expected %d fields but parsed %d", len(res.Fields), len(fields)),
			Row:     row,
		})
	}
	return rec
}

// guessDelimiter picks the candidate that splits the first lines into the
// same number (>1) of fields. Ties go to the one producing more fields.
func guessDelimiter(text string, comment rune) (rune, bool) {
	lines := sampleLines(text, comment, 10)
	best, bestFields := ',', 1
	for _, d := range candidateDelimiters {
		n, consistent := fieldCount(lines, d)
		if consistent && n > bestFields {
			best, bestFields = d, n
		}
	}
	return best, bestFields > 1
}

func sampleLines(text string, comment rune, max int) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if comment != 0 && strings.HasPrefix(line, string(comment)) {
			continue
		}
		out = append(out, line)
		if len(out) == max {
			break
		}
	}
	return out
}

func fieldCount(lines []string, delim rune) (int, bool) {
	if len(lines) == 0 {
		return 0, false
	}
	want := -1
	for _, line := range lines {
		r := csv.NewReader(strings.NewReader(line))
		r.Comma = delim
		r.LazyQuotes = true
		fields, err := r.Read()
		if err != nil {
			return 0, false
		}
		if want == -1 {
			want = len(fields)
		} else if len(fields) != want {
			return 0, false
		}
	}
	return want, true
}

// Unparse writes rows as CSV text.
func Unparse(rows [][]string, cfg Config) (string, error) {
	var buf bytes.Buffer
	w := newWriter(&buf, cfg)
	if err := w.WriteAll(rows); err != nil {
		return "", fmt.Errorf("failed to write csv: %w", err)
	}
	return finish(buf.String(), cfg), nil
}

// UnparseRecords writes records as CSV text with a header row. Columns come
// from cfg.Columns, else from fields, else from the first record in sorted
// key order. Missing values are written as empty fields.
func UnparseRecords(fields []string, records []map[string]string, cfg Config) (string, error) {
	columns := cfg.Columns
	if len(columns) == 0 {
		columns = fields
	}
	if len(columns) == 0 && len(records) > 0 {
		columns = sortedKeys(records[0])
	}

	rows := make([][]string, 0, len(records)+1)
	if !cfg.SkipHeader {
		rows = append(rows, columns)
	}
	for _, rec := range records {
		row := make([]string, len(columns))
		for i, c := range columns {
			row[i] = rec[c]
		}
		rows = append(rows, row)
	}
	return Unparse(rows, cfg)
}

func newWriter(w io.Writer, cfg Config) *csv.Writer {
	cw := csv.NewWriter(w)
	if cfg.Delimiter != 0 {
		cw.Comma = cfg.Delimiter
	}
	cw.UseCRLF = cfg.Newline == "" || cfg.Newline == "\r\n"
	return cw
}

// finish swaps in a custom newline and drops the trailing one, matching the
// usual join-rows-with-newline output of CSV stringifiers.
func finish(out string, cfg Config) string {
	nl := "\r\n"
	if cfg.Newline != "" && cfg.Newline != "\r\n" {
		nl = cfg.Newline
		if nl != "\n" {
			out = strings.ReplaceAll(out, "\n", nl)
		}
	}
	return strings.TrimSuffix(out, nl)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
