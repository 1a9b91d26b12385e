package importer

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NeilMisra99/payprompt-ai-sub001/internal/schema"
)

const (
	clientsCSV = "name,email,phone\n" +
		"Acme Corp,billing@acme.com,555-0100\n" +
		"Globex,invoices@globex.io,555-0200\n"

	invoicesCSV = "invoice_number,client_email,issue_date,due_date,subtotal,tax,discount,total,status\n" +
		"INV-001,billing@acme.com,2026-01-10,2026-02-10,100,10,0,110,sent\n" +
		"INV-002,invoices@globex.io,2026-01-15,2026-02-15,200,0,0,200,\n"

	itemsCSV = "invoice_number,description,quantity,price,amount\n" +
		"INV-001,Consulting,3,9.99,29.97\n" +
		"INV-001,Support plan,1,80.03,80.03\n" +
		"INV-002,License,2,100,200\n"
)

func runFiles(t *testing.T, clients, invoices, items string, lookup Lookup) Result {
	t.Helper()
	files := Files{}
	if clients != "" {
		files.Clients = strings.NewReader(clients)
	}
	if invoices != "" {
		files.Invoices = strings.NewReader(invoices)
	}
	if items != "" {
		files.Items = strings.NewReader(items)
	}
	result, err := Run(DefaultOptions(), files, lookup)
	require.NoError(t, err)
	return result
}

func TestRun_FullBatch(t *testing.T) {
	result := runFiles(t, clientsCSV, invoicesCSV, itemsCSV, EmptyLookup())

	batch := result.Batch
	assert.Len(t, batch.ClientsToCreate, 2)
	assert.Len(t, batch.Invoices, 2)
	assert.Len(t, batch.Items, 3)
	assert.Empty(t, batch.Unresolved)

	report := result.Report
	assert.Equal(t, 2, report.Summary[schema.KindClients].Accepted)
	assert.Equal(t, 2, report.Summary[schema.KindInvoices].Accepted)
	assert.Equal(t, 3, report.Summary[schema.KindItems].Accepted)
	assert.False(t, report.HasProblems())

	// INV-002 has no status: defaulted with a warning, still accepted.
	assert.Equal(t, 1, report.Summary[schema.KindInvoices].Warnings)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0].Reasons, WarnDefaultedStatus)
}

func TestRun_Idempotent(t *testing.T) {
	first := runFiles(t, clientsCSV, invoicesCSV, itemsCSV, EmptyLookup())
	second := runFiles(t, clientsCSV, invoicesCSV, itemsCSV, EmptyLookup())

	assert.Equal(t, first.Batch, second.Batch)
	assert.Equal(t, first.Report, second.Report)
}

func TestRun_SubsetOfFiles(t *testing.T) {
	result := runFiles(t, clientsCSV, "", "", EmptyLookup())

	assert.Len(t, result.Batch.ClientsToCreate, 2)
	assert.Empty(t, result.Batch.Invoices)
	assert.Equal(t, 0, result.Report.Summary[schema.KindInvoices].Parsed)
}

func TestRun_UnresolvedEmailSingleRow(t *testing.T) {
	invoices := "invoice_number,client_email,issue_date,due_date,subtotal,total\n" +
		"INV-100,bob@x.com,2026-01-10,2026-02-10,50,50\n"

	result := runFiles(t, clientsCSV, invoices, "", EmptyLookup())

	require.Len(t, result.Report.Unresolved, 1)
	u := result.Report.Unresolved[0]
	assert.Equal(t, schema.KindInvoices, u.Kind)
	assert.Equal(t, "bob@x.com", u.Key)
	assert.Equal(t, []string{ReasonUnresolvedClient}, u.Reasons)

	// Unresolved rows do not count as accepted.
	assert.Equal(t, 0, result.Report.Summary[schema.KindInvoices].Accepted)
	assert.True(t, result.Report.HasProblems())
}

func TestRun_FatalHeaderError(t *testing.T) {
	files := Files{
		Clients:  strings.NewReader(clientsCSV),
		Invoices: strings.NewReader("this is not\na csv of invoices\n"),
	}

	_, err := Run(DefaultOptions(), files, EmptyLookup())

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, schema.KindInvoices, perr.Kind)
}

func TestRun_RejectedRowsReported(t *testing.T) {
	clients := "name,email\n" +
		"Acme,billing@acme.com\n" +
		",missing-name@acme.com\n" +
		"Bad Email,nope\n"

	result := runFiles(t, clients, "", "", EmptyLookup())

	summary := result.Report.Summary[schema.KindClients]
	assert.Equal(t, 3, summary.Parsed)
	assert.Equal(t, 1, summary.Accepted)
	assert.Equal(t, 2, summary.Rejected)
	require.Len(t, result.Report.Rejected, 2)
	for _, r := range result.Report.Rejected {
		assert.Equal(t, schema.KindClients, r.Kind)
		assert.NotEmpty(t, r.Reasons)
	}
}

func TestRun_SkippedLinesReported(t *testing.T) {
	clients := "name,email\n" +
		"Acme,billing@acme.com\n" +
		"ragged\n"

	result := runFiles(t, clients, "", "", EmptyLookup())

	summary := result.Report.Summary[schema.KindClients]
	assert.Equal(t, 1, summary.Skipped)
	require.Len(t, result.Report.LineErrors[schema.KindClients], 1)
	assert.Equal(t, 3, result.Report.LineErrors[schema.KindClients][0].Line)
}

func TestRun_AgainstPersistedState(t *testing.T) {
	// Simulates a re-import: everything already persisted.
	lookup := EmptyLookup()
	addPersisted(lookup, "billing@acme.com")
	addPersisted(lookup, "invoices@globex.io")

	result := runFiles(t, clientsCSV, "", "", lookup)

	assert.True(t, result.Batch.Empty(), "re-imported clients create nothing")
	assert.False(t, result.Report.HasProblems())
}

func addPersisted(lookup Lookup, email string) {
	lookup.ClientIDsByEmail[email] = uuid.New()
}

func TestRun_DeterministicReportOrdering(t *testing.T) {
	// Rejected rows keep file order even though files parse concurrently.
	clients := "name,email\n" +
		",first@x.com\n" +
		",second@x.com\n"

	for i := 0; i < 5; i++ {
		result := runFiles(t, clients, "", "", EmptyLookup())
		require.Len(t, result.Report.Rejected, 2)
		assert.Equal(t, 2, result.Report.Rejected[0].Line)
		assert.Equal(t, 3, result.Report.Rejected[1].Line)
	}
}
