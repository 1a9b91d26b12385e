package importer

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NeilMisra99/payprompt-ai-sub001/internal/schema"
)

func TestReconcile_SameBatchResolution(t *testing.T) {
	clients := []ClientRecord{{Name: "Acme", Email: "billing@acme.com", Line: 2}}
	invoices := []InvoiceRecord{{InvoiceNumber: "INV-001", ClientEmail: "billing@acme.com", Line: 2}}
	items := []InvoiceItemRecord{{InvoiceNumber: "INV-001", Description: "Consulting", Line: 2}}

	batch := Reconcile(clients, invoices, items, EmptyLookup())

	require.Len(t, batch.ClientsToCreate, 1)
	require.Len(t, batch.Invoices, 1)
	require.Len(t, batch.Items, 1)
	assert.Empty(t, batch.Unresolved)

	// The invoice resolved to the client created by this same batch.
	assert.True(t, batch.Invoices[0].Client.InBatch)
	assert.Equal(t, "billing@acme.com", batch.Invoices[0].Client.Email)

	// The item resolved to the invoice created by this same batch.
	assert.True(t, batch.Items[0].Invoice.InBatch)
	assert.Equal(t, "INV-001", batch.Items[0].Invoice.InvoiceNumber)
}

func TestReconcile_PersistedClientResolution(t *testing.T) {
	clientID := uuid.New()
	lookup := EmptyLookup()
	lookup.ClientIDsByEmail["billing@acme.com"] = clientID

	invoices := []InvoiceRecord{{InvoiceNumber: "INV-001", ClientEmail: "billing@acme.com", Line: 2}}

	batch := Reconcile(nil, invoices, nil, lookup)

	require.Len(t, batch.Invoices, 1)
	assert.False(t, batch.Invoices[0].Client.InBatch)
	assert.Equal(t, clientID, batch.Invoices[0].Client.ClientID)
}

func TestReconcile_PersistedClientNotRecreated(t *testing.T) {
	lookup := EmptyLookup()
	lookup.ClientIDsByEmail["billing@acme.com"] = uuid.New()

	clients := []ClientRecord{{Name: "Acme", Email: "billing@acme.com", Line: 2}}

	batch := Reconcile(clients, nil, nil, lookup)

	assert.Empty(t, batch.ClientsToCreate, "already-persisted client must not be recreated")
	assert.Empty(t, batch.Unresolved, "matching a persisted client is not an error")
}

func TestReconcile_UnresolvedClientEmail(t *testing.T) {
	invoices := []InvoiceRecord{
		{InvoiceNumber: "INV-001", ClientEmail: "bob@x.com", Line: 2},
	}

	batch := Reconcile(nil, invoices, nil, EmptyLookup())

	assert.Empty(t, batch.Invoices)
	require.Len(t, batch.Unresolved, 1)
	u := batch.Unresolved[0]
	assert.Equal(t, schema.KindInvoices, u.Kind)
	assert.Equal(t, "bob@x.com", u.Key)
	assert.Equal(t, []string{ReasonUnresolvedClient}, u.Reasons)
}

func TestReconcile_ItemsFollowDroppedInvoice(t *testing.T) {
	// The invoice fails resolution, so its items must not survive as
	// orphans pointing at a never-created invoice.
	invoices := []InvoiceRecord{
		{InvoiceNumber: "INV-001", ClientEmail: "nobody@x.com", Line: 2},
	}
	items := []InvoiceItemRecord{
		{InvoiceNumber: "INV-001", Description: "Consulting", Line: 2},
		{InvoiceNumber: "INV-001", Description: "Support", Line: 3},
	}

	batch := Reconcile(nil, invoices, items, EmptyLookup())

	assert.Empty(t, batch.Invoices)
	assert.Empty(t, batch.Items)
	require.Len(t, batch.Unresolved, 3) // the invoice plus both items

	kinds := map[schema.Kind]int{}
	for _, u := range batch.Unresolved {
		kinds[u.Kind]++
	}
	assert.Equal(t, 1, kinds[schema.KindInvoices])
	assert.Equal(t, 2, kinds[schema.KindItems])
}

func TestReconcile_ItemTargetsPersistedInvoice(t *testing.T) {
	invoiceID := uuid.New()
	lookup := EmptyLookup()
	lookup.InvoiceIDsByNumber["INV-900"] = invoiceID

	items := []InvoiceItemRecord{{InvoiceNumber: "INV-900", Description: "Extra seat", Line: 2}}

	batch := Reconcile(nil, nil, items, lookup)

	require.Len(t, batch.Items, 1)
	assert.False(t, batch.Items[0].Invoice.InBatch)
	assert.Equal(t, invoiceID, batch.Items[0].Invoice.InvoiceID)
}

func TestReconcile_PersistedInvoiceNumberConflict(t *testing.T) {
	lookup := EmptyLookup()
	lookup.ClientIDsByEmail["billing@acme.com"] = uuid.New()
	lookup.InvoiceIDsByNumber["INV-001"] = uuid.New()

	invoices := []InvoiceRecord{
		{InvoiceNumber: "INV-001", ClientEmail: "billing@acme.com", Line: 2},
	}

	batch := Reconcile(nil, invoices, nil, lookup)

	assert.Empty(t, batch.Invoices)
	require.Len(t, batch.Unresolved, 1)
	assert.Equal(t, []string{"duplicate_key:invoice_number"}, batch.Unresolved[0].Reasons)
}

func TestReconcile_Deterministic(t *testing.T) {
	clients := []ClientRecord{{Name: "Acme", Email: "billing@acme.com", Line: 2}}
	invoices := []InvoiceRecord{{InvoiceNumber: "INV-001", ClientEmail: "billing@acme.com", Line: 2}}
	items := []InvoiceItemRecord{{InvoiceNumber: "INV-001", Description: "Consulting", Line: 2}}

	first := Reconcile(clients, invoices, items, EmptyLookup())
	second := Reconcile(clients, invoices, items, EmptyLookup())

	assert.Equal(t, first, second)
}
