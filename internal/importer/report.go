package importer

// report.go summarizes a pipeline run for the import-report table the
// dashboard renders: accepted counts, warning rows with reasons, and
// rejected or unresolved rows with line numbers, so a user can fix the
// source CSV and re-import just the failed rows.

import "github.com/NeilMisra99/payprompt-ai-sub001/internal/schema"

// KindSummary holds per-entity-kind counts for one pipeline run.
type KindSummary struct {
	Parsed   int `json:"parsed"`   // rows parsed from the file
	Accepted int `json:"accepted"` // rows that survived validation and reconciliation
	Warnings int `json:"warnings"` // accepted rows carrying warnings
	Rejected int `json:"rejected"` // rows rejected by validation
	Skipped  int `json:"skipped"`  // malformed lines skipped by the parser
}

// WarningRow describes an accepted row that carries warnings.
type WarningRow struct {
	Kind    schema.Kind `json:"kind"`
	Line    int         `json:"line"`
	Reasons []string    `json:"reasons"`
}

// Report is the user-facing outcome of one import batch.
type Report struct {
	Summary    map[schema.Kind]KindSummary `json:"summary"`
	Warnings   []WarningRow                `json:"warnings,omitempty"`
	Rejected   []RejectedRow               `json:"rejected,omitempty"`
	Unresolved []UnresolvedRow             `json:"unresolved,omitempty"`
	LineErrors map[schema.Kind][]LineError `json:"line_errors,omitempty"`
}

// HasProblems reports whether any row was rejected, unresolved, or
// skipped during parsing.
func (r Report) HasProblems() bool {
	return len(r.Rejected) > 0 || len(r.Unresolved) > 0 || len(r.LineErrors) > 0
}

type reportInput struct {
	parses   map[schema.Kind]ParseResult
	clients  []ClientRecord
	invoices []InvoiceRecord
	items    []InvoiceItemRecord
	rejected []RejectedRow
	batch    Batch
}

func buildReport(in reportInput) Report {
	report := Report{
		Summary:  make(map[schema.Kind]KindSummary, 3),
		Rejected: in.rejected,
	}

	for kind, parse := range in.parses {
		s := KindSummary{
			Parsed:  len(parse.Rows),
			Skipped: len(parse.LineErrors),
		}
		report.Summary[kind] = s
		if len(parse.LineErrors) > 0 {
			if report.LineErrors == nil {
				report.LineErrors = make(map[schema.Kind][]LineError)
			}
			report.LineErrors[kind] = parse.LineErrors
		}
	}

	for _, r := range in.rejected {
		s := report.Summary[r.Kind]
		s.Rejected++
		report.Summary[r.Kind] = s
	}

	unresolvedByKind := make(map[schema.Kind]int, len(in.batch.Unresolved))
	for _, u := range in.batch.Unresolved {
		unresolvedByKind[u.Kind]++
	}
	report.Unresolved = in.batch.Unresolved

	// Accepted = survived both validation and reconciliation.
	accept := func(kind schema.Kind, n int) {
		s := report.Summary[kind]
		s.Accepted = n - unresolvedByKind[kind]
		report.Summary[kind] = s
	}
	accept(schema.KindClients, len(in.clients))
	accept(schema.KindInvoices, len(in.invoices))
	accept(schema.KindItems, len(in.items))

	warn := func(kind schema.Kind, line int, reasons []string) {
		if len(reasons) == 0 {
			return
		}
		s := report.Summary[kind]
		s.Warnings++
		report.Summary[kind] = s
		report.Warnings = append(report.Warnings, WarningRow{Kind: kind, Line: line, Reasons: reasons})
	}
	for _, c := range in.clients {
		warn(schema.KindClients, c.Line, c.Warnings)
	}
	for _, inv := range in.invoices {
		warn(schema.KindInvoices, inv.Line, inv.Warnings)
	}
	for _, item := range in.items {
		warn(schema.KindItems, item.Line, item.Warnings)
	}

	return report
}
