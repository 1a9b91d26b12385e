package importer

// parse.go turns raw CSV text into ordered RawRows. The header row defines
// column names; known columns are matched case-insensitively against the
// entity kind's field specs, unknown columns are preserved under their
// original header. Malformed lines are skipped and collected -- only a
// missing or unreadable header is fatal for a file.

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/NeilMisra99/payprompt-ai-sub001/internal/schema"
)

// ParseError is the fatal per-file error: the header row is missing,
// empty, or unreadable. Row-level problems are LineErrors instead.
type ParseError struct {
	Kind schema.Kind
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: line %d: %v", e.Kind, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// LineError records a malformed line that was skipped during parsing.
type LineError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// ParseResult holds the rows and skipped-line errors for one file.
type ParseResult struct {
	Kind       schema.Kind
	Rows       []RawRow
	LineErrors []LineError
}

// Parse reads CSV text for one entity kind. Returns a *ParseError only
// when the header row is absent or unreadable; every other malformed line
// is collected into LineErrors and parsing continues.
func Parse(kind schema.Kind, r io.Reader) (ParseResult, error) {
	specs := schema.SpecsFor(kind)
	if specs == nil {
		return ParseResult{}, fmt.Errorf("unknown entity kind %q", kind)
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // raggedness handled per row, with line numbers
	cr.TrimLeadingSpace = true

	result := ParseResult{Kind: kind}

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return result, &ParseError{Kind: kind, Line: 1, Err: errors.New("file is empty, header row required")}
		}
		return result, &ParseError{Kind: kind, Line: 1, Err: fmt.Errorf("unreadable header row: %w", err)}
	}

	columns, known := headerColumns(header, specs)
	if len(known) == 0 {
		return result, &ParseError{Kind: kind, Line: 1, Err: fmt.Errorf("header row matches no known %s columns", kind)}
	}

	for {
		record, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				result.LineErrors = append(result.LineErrors, LineError{
					Line:    perr.Line,
					Message: perr.Err.Error(),
				})
				continue
			}
			result.LineErrors = append(result.LineErrors, LineError{Line: 0, Message: err.Error()})
			continue
		}

		if isEmptyRecord(record) {
			continue
		}

		// FieldPos reports the true source line, which differs from the
		// record count when quoted fields span multiple lines.
		line, _ := cr.FieldPos(0)

		if len(record) != len(columns) {
			result.LineErrors = append(result.LineErrors, LineError{
				Line:    line,
				Message: fmt.Sprintf("row has %d columns, header has %d", len(record), len(columns)),
			})
			continue
		}

		row := RawRow{
			Line:   line,
			Fields: make(map[string]string, len(known)),
		}
		for i, value := range record {
			col := columns[i]
			value = CleanCell(value)
			if col.specName != "" {
				row.Fields[col.specName] = value
			} else if value != "" {
				if row.Extra == nil {
					row.Extra = make(map[string]string)
				}
				row.Extra[col.original] = value
			}
		}
		result.Rows = append(result.Rows, row)
	}

	return result, nil
}

// column pairs an original header cell with the spec name it matched,
// if any.
type column struct {
	original string
	specName string
}

// headerColumns matches header cells against field specs. Matching is
// case-insensitive with whitespace tolerance; the first occurrence of a
// duplicated header wins.
func headerColumns(header []string, specs []schema.FieldSpec) ([]column, []string) {
	byName := make(map[string]string, len(specs)) // cleaned -> spec name
	for _, spec := range specs {
		byName[CleanHeader(spec.Name)] = spec.Name
	}

	columns := make([]column, len(header))
	seen := make(map[string]bool, len(header))
	var known []string
	for i, h := range header {
		original := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		col := column{original: original}
		if name, ok := byName[CleanHeader(h)]; ok && !seen[name] {
			col.specName = name
			seen[name] = true
			known = append(known, name)
		}
		columns[i] = col
	}
	return columns, known
}

// isEmptyRecord reports whether every cell in the record is blank.
func isEmptyRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
