package importer

// reconcile.go resolves cross-file references into a persistable batch.
// Resolution order is strict and is the reason all three validated sets
// must exist before this stage runs: clients resolve first so invoices
// can reference clients introduced by the same batch, then invoices so
// items can reference same-batch invoices.
//
// Reconcile is a pure function: given the same validated sets and the
// same lookup snapshot it always yields the same batch. The snapshot is
// fetched once by the caller and treated read-only here.

import "github.com/NeilMisra99/payprompt-ai-sub001/internal/schema"

const (
	ReasonUnresolvedClient  = "unresolved_client_email"
	ReasonUnresolvedInvoice = "unresolved_invoice_number"
)

// Reconcile resolves client and invoice references against the batch
// itself and the persisted-store snapshot. Validated records are not
// mutated; resolved copies are produced.
func Reconcile(clients []ClientRecord, invoices []InvoiceRecord, items []InvoiceItemRecord, lookup Lookup) Batch {
	var batch Batch

	// Clients: create only those not already persisted. An email that
	// matches a persisted client is not an error -- the batch simply
	// reuses the existing record.
	inBatch := make(map[string]bool, len(clients))
	for _, c := range clients {
		if _, exists := lookup.ClientIDsByEmail[c.Email]; exists {
			continue
		}
		inBatch[c.Email] = true
		batch.ClientsToCreate = append(batch.ClientsToCreate, c)
	}

	// Invoices: resolve client_email to a persisted ID or a same-batch
	// client. Numbers already persisted for the tenant are surfaced here
	// rather than as opaque constraint errors at commit time.
	resolvedNumbers := make(map[string]bool, len(invoices))
	for _, inv := range invoices {
		if _, exists := lookup.InvoiceIDsByNumber[inv.InvoiceNumber]; exists {
			batch.Unresolved = append(batch.Unresolved, UnresolvedRow{
				Kind:    schema.KindInvoices,
				Line:    inv.Line,
				Key:     inv.InvoiceNumber,
				Reasons: []string{reasonDuplicate("invoice_number")},
			})
			continue
		}

		ref, ok := resolveClient(inv.ClientEmail, inBatch, lookup)
		if !ok {
			batch.Unresolved = append(batch.Unresolved, UnresolvedRow{
				Kind:    schema.KindInvoices,
				Line:    inv.Line,
				Key:     inv.ClientEmail,
				Reasons: []string{ReasonUnresolvedClient},
			})
			continue
		}

		resolvedNumbers[inv.InvoiceNumber] = true
		batch.Invoices = append(batch.Invoices, ResolvedInvoice{InvoiceRecord: inv, Client: ref})
	}

	// Items: resolve invoice_number to a persisted invoice or one that
	// survived resolution above. An invoice dropped as unresolved takes
	// its items with it.
	for _, item := range items {
		ref, ok := resolveInvoice(item.InvoiceNumber, resolvedNumbers, lookup)
		if !ok {
			batch.Unresolved = append(batch.Unresolved, UnresolvedRow{
				Kind:    schema.KindItems,
				Line:    item.Line,
				Key:     item.InvoiceNumber,
				Reasons: []string{ReasonUnresolvedInvoice},
			})
			continue
		}
		batch.Items = append(batch.Items, ResolvedItem{InvoiceItemRecord: item, Invoice: ref})
	}

	return batch
}

func resolveClient(email string, inBatch map[string]bool, lookup Lookup) (ClientRef, bool) {
	if id, ok := lookup.ClientIDsByEmail[email]; ok {
		return ClientRef{ClientID: id, Email: email}, true
	}
	if inBatch[email] {
		return ClientRef{Email: email, InBatch: true}, true
	}
	return ClientRef{}, false
}

func resolveInvoice(number string, inBatch map[string]bool, lookup Lookup) (InvoiceRef, bool) {
	if id, ok := lookup.InvoiceIDsByNumber[number]; ok {
		return InvoiceRef{InvoiceID: id, InvoiceNumber: number}, true
	}
	if inBatch[number] {
		return InvoiceRef{InvoiceNumber: number, InBatch: true}, true
	}
	return InvoiceRef{}, false
}
