package importer

import (
	"errors"
	"strings"
	"testing"

	"github.com/NeilMisra99/payprompt-ai-sub001/internal/schema"
)

func TestParse_BasicClients(t *testing.T) {
	csv := "name,email,phone\n" +
		"Acme Corp,billing@acme.com,555-0100\n" +
		"Globex,invoices@globex.io,\n"

	result, err := Parse(schema.KindClients, strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(result.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(result.Rows))
	}
	if len(result.LineErrors) != 0 {
		t.Fatalf("got %d line errors, want 0: %v", len(result.LineErrors), result.LineErrors)
	}

	first := result.Rows[0]
	if first.Line != 2 {
		t.Errorf("first row line = %d, want 2", first.Line)
	}
	if first.Fields["name"] != "Acme Corp" {
		t.Errorf("name = %q", first.Fields["name"])
	}
	if first.Fields["email"] != "billing@acme.com" {
		t.Errorf("email = %q", first.Fields["email"])
	}
}

func TestParse_HeaderMatching(t *testing.T) {
	// Case-insensitive headers, BOM, Excel wrappers, unknown columns.
	csv := "\ufeffName,EMAIL,\"Phone\",internal_code\n" +
		"Acme,billing@acme.com,555-0100,X42\n"

	result, err := Parse(schema.KindClients, strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(result.Rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(result.Rows))
	}

	row := result.Rows[0]
	if row.Fields["name"] != "Acme" {
		t.Errorf("BOM header not matched: name = %q", row.Fields["name"])
	}
	if row.Fields["email"] != "billing@acme.com" {
		t.Errorf("uppercase header not matched: email = %q", row.Fields["email"])
	}
	if row.Fields["phone"] != "555-0100" {
		t.Errorf("quoted header not matched: phone = %q", row.Fields["phone"])
	}
	if row.Extra["internal_code"] != "X42" {
		t.Errorf("unknown column not preserved: extra = %v", row.Extra)
	}
}

func TestParse_EmptyFileFatal(t *testing.T) {
	_, err := Parse(schema.KindClients, strings.NewReader(""))

	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if perr.Kind != schema.KindClients {
		t.Errorf("ParseError.Kind = %q, want clients", perr.Kind)
	}
}

func TestParse_NoKnownColumnsFatal(t *testing.T) {
	csv := "foo,bar,baz\n1,2,3\n"

	_, err := Parse(schema.KindInvoices, strings.NewReader(csv))

	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError for headerless file, got %v", err)
	}
}

func TestParse_RaggedRowSkipped(t *testing.T) {
	csv := "name,email\n" +
		"Acme,billing@acme.com\n" +
		"TooFewColumns\n" +
		"Globex,invoices@globex.io\n"

	result, err := Parse(schema.KindClients, strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(result.Rows) != 2 {
		t.Fatalf("got %d rows, want 2 (ragged row skipped)", len(result.Rows))
	}
	if len(result.LineErrors) != 1 {
		t.Fatalf("got %d line errors, want 1", len(result.LineErrors))
	}
	if result.LineErrors[0].Line != 3 {
		t.Errorf("line error at %d, want 3", result.LineErrors[0].Line)
	}
	// Parsing continued past the malformed line.
	if result.Rows[1].Fields["name"] != "Globex" {
		t.Errorf("row after malformed line missing: %v", result.Rows[1].Fields)
	}
}

func TestParse_MalformedQuoteSkipped(t *testing.T) {
	csv := "name,email\n" +
		"\"unterminated,billing@acme.com\n" +
		"Globex,invoices@globex.io\n"

	result, err := Parse(schema.KindClients, strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(result.LineErrors) == 0 {
		t.Fatal("expected a line error for the unterminated quote")
	}
}

func TestParse_BlankLinesIgnored(t *testing.T) {
	csv := "name,email\n" +
		"\n" +
		"Acme,billing@acme.com\n" +
		"   ,\n"

	result, err := Parse(schema.KindClients, strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(result.Rows) != 1 {
		t.Fatalf("got %d rows, want 1 (blank lines ignored)", len(result.Rows))
	}
	if len(result.LineErrors) != 0 {
		t.Fatalf("blank lines should not be errors: %v", result.LineErrors)
	}
}

func TestParse_QuotedFieldWithNewline(t *testing.T) {
	csv := "name,email\n" +
		"\"Multi\nLine Corp\",billing@multi.com\n" +
		"Globex,invoices@globex.io\n"

	result, err := Parse(schema.KindClients, strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(result.Rows))
	}
	if result.Rows[0].Fields["name"] != "Multi\nLine Corp" {
		t.Errorf("embedded newline lost: %q", result.Rows[0].Fields["name"])
	}
	// The second record starts after the multi-line field, on line 4.
	if result.Rows[1].Line != 4 {
		t.Errorf("second row line = %d, want 4", result.Rows[1].Line)
	}
}

func TestParse_DuplicateHeaderFirstWins(t *testing.T) {
	csv := "name,email,email\n" +
		"Acme,first@acme.com,second@acme.com\n"

	result, err := Parse(schema.KindClients, strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	row := result.Rows[0]
	if row.Fields["email"] != "first@acme.com" {
		t.Errorf("email = %q, want first occurrence", row.Fields["email"])
	}
	// The duplicate column is preserved as an extra, not dropped.
	if row.Extra["email"] != "second@acme.com" {
		t.Errorf("duplicate column value lost: %v", row.Extra)
	}
}
