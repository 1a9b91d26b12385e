package store

// memory.go is a map-backed Store for tests and local development. It
// honors the same contract as Postgres: snapshot lookups and atomic
// batch commits (all-or-nothing under one lock).

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/NeilMisra99/payprompt-ai-sub001/internal/importer"
)

// Memory is an in-memory Store implementation.
type Memory struct {
	mu       sync.RWMutex
	clients  map[uuid.UUID]map[string]memClient  // tenant -> email -> client
	invoices map[uuid.UUID]map[string]memInvoice // tenant -> invoice_number -> invoice
	items    map[uuid.UUID][]importer.ResolvedItem
}

type memClient struct {
	ID     uuid.UUID
	Record importer.ClientRecord
}

type memInvoice struct {
	ID       uuid.UUID
	ClientID uuid.UUID
	Record   importer.InvoiceRecord
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		clients:  make(map[uuid.UUID]map[string]memClient),
		invoices: make(map[uuid.UUID]map[string]memInvoice),
		items:    make(map[uuid.UUID][]importer.ResolvedItem),
	}
}

// Lookup returns a copy of the tenant's natural-key index. The copy
// keeps the snapshot stable even if the store changes afterwards.
func (m *Memory) Lookup(_ context.Context, tenantID uuid.UUID) (importer.Lookup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lookup := importer.EmptyLookup()
	for email, c := range m.clients[tenantID] {
		lookup.ClientIDsByEmail[email] = c.ID
	}
	for number, inv := range m.invoices[tenantID] {
		lookup.InvoiceIDsByNumber[number] = inv.ID
	}
	return lookup, nil
}

// CommitBatch stores a reconciled batch under one lock.
func (m *Memory) CommitBatch(_ context.Context, tenantID uuid.UUID, batch importer.Batch) (CommitResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := CommitResult{BatchID: uuid.New()}

	if m.clients[tenantID] == nil {
		m.clients[tenantID] = make(map[string]memClient)
	}
	if m.invoices[tenantID] == nil {
		m.invoices[tenantID] = make(map[string]memInvoice)
	}

	for _, c := range batch.ClientsToCreate {
		m.clients[tenantID][c.Email] = memClient{ID: uuid.New(), Record: c}
		result.ClientsCreated++
	}

	for _, inv := range batch.Invoices {
		clientID := inv.Client.ClientID
		if inv.Client.InBatch {
			clientID = m.clients[tenantID][inv.Client.Email].ID
		}
		m.invoices[tenantID][inv.InvoiceNumber] = memInvoice{
			ID:       uuid.New(),
			ClientID: clientID,
			Record:   inv.InvoiceRecord,
		}
		result.InvoicesCreated++
	}

	for _, item := range batch.Items {
		resolved := item
		if item.Invoice.InBatch {
			resolved.Invoice.InvoiceID = m.invoices[tenantID][item.Invoice.InvoiceNumber].ID
			resolved.Invoice.InBatch = false
		}
		m.items[tenantID] = append(m.items[tenantID], resolved)
		result.ItemsCreated++
	}

	return result, nil
}

// InvoiceByNumber returns one invoice with its client, or ErrNotFound.
func (m *Memory) InvoiceByNumber(_ context.Context, tenantID uuid.UUID, invoiceNumber string) (Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	inv, ok := m.invoices[tenantID][invoiceNumber]
	if !ok {
		return Invoice{}, ErrNotFound
	}

	out := Invoice{
		ID:            inv.ID,
		InvoiceNumber: inv.Record.InvoiceNumber,
		ClientEmail:   inv.Record.ClientEmail,
		Total:         inv.Record.Total,
		DueDate:       inv.Record.DueDate,
		Status:        inv.Record.Status,
	}
	for _, c := range m.clients[tenantID] {
		if c.ID == inv.ClientID {
			out.ClientName = c.Record.Name
			break
		}
	}
	return out, nil
}

// ItemCount returns the number of stored line items for a tenant.
// Used by tests.
func (m *Memory) ItemCount(tenantID uuid.UUID) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items[tenantID])
}
