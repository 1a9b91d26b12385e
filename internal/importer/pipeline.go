package importer

// pipeline.go wires the three stages together for one import batch.
// Each provided file is parsed and validated independently; the three
// validated sets are fully materialized before reconciliation begins.
// Configuration is passed explicitly so the pipeline is reentrant per
// tenant and independently testable -- no package-level state.

import (
	"io"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/NeilMisra99/payprompt-ai-sub001/internal/schema"
)

// Options carries the pipeline's tunable behavior.
type Options struct {
	// Epsilon is the allowed discrepancy when checking computed numeric
	// fields (total vs subtotal+tax-discount, amount vs quantity*price).
	Epsilon decimal.Decimal

	// DefaultStatus is assumed for invoices with an absent or
	// unrecognized status value.
	DefaultStatus InvoiceStatus
}

// DefaultOptions returns the standard pipeline configuration:
// 0.01 currency-unit epsilon and draft as the fallback status.
func DefaultOptions() Options {
	return Options{
		Epsilon:       decimal.New(1, -2),
		DefaultStatus: StatusDraft,
	}
}

// Files holds the CSV sources for one batch. Any reader may be nil; the
// corresponding entity set is then empty.
type Files struct {
	Clients  io.Reader
	Invoices io.Reader
	Items    io.Reader
}

// Result is the full outcome of one pipeline run.
type Result struct {
	Batch  Batch
	Report Report
}

// Run executes parse -> validate for each provided file, then reconciles
// against the supplied lookup snapshot. The three files are processed
// concurrently; reconciliation starts only after all validation results
// are materialized.
//
// The returned error is non-nil only for a fatal per-file condition
// (missing or unreadable header); it is a *ParseError identifying the
// file. Row-level problems are reported in Result.Report.
func Run(opts Options, files Files, lookup Lookup) (Result, error) {
	type fileOutcome struct {
		parse ParseResult
		err   error
	}

	sources := []struct {
		kind schema.Kind
		r    io.Reader
	}{
		{schema.KindClients, files.Clients},
		{schema.KindInvoices, files.Invoices},
		{schema.KindItems, files.Items},
	}

	outcomes := make([]fileOutcome, len(sources))
	var wg sync.WaitGroup
	for i, src := range sources {
		if src.r == nil {
			outcomes[i].parse = ParseResult{Kind: src.kind}
			continue
		}
		wg.Add(1)
		go func(i int, kind schema.Kind, r io.Reader) {
			defer wg.Done()
			outcomes[i].parse, outcomes[i].err = Parse(kind, r)
		}(i, src.kind, src.r)
	}
	wg.Wait() // barrier: all three validated sets must exist before reconciling

	for _, o := range outcomes {
		if o.err != nil {
			return Result{}, o.err
		}
	}

	clients, rejectedClients := ValidateClients(outcomes[0].parse.Rows)
	invoices, rejectedInvoices := ValidateInvoices(opts, outcomes[1].parse.Rows)
	items, rejectedItems := ValidateItems(opts, outcomes[2].parse.Rows)

	batch := Reconcile(clients, invoices, items, lookup)

	report := buildReport(reportInput{
		parses: map[schema.Kind]ParseResult{
			schema.KindClients:  outcomes[0].parse,
			schema.KindInvoices: outcomes[1].parse,
			schema.KindItems:    outcomes[2].parse,
		},
		clients:  clients,
		invoices: invoices,
		items:    items,
		rejected: concat(rejectedClients, rejectedInvoices, rejectedItems),
		batch:    batch,
	})

	return Result{Batch: batch, Report: report}, nil
}

func concat(groups ...[]RejectedRow) []RejectedRow {
	var out []RejectedRow
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
