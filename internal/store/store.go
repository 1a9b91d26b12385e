// Package store provides the persisted-entity collaborator for the import
// pipeline. The contract is deliberately narrow: one snapshot fetch per
// batch before reconciliation, one atomic commit per batch after it, and
// a single-invoice read for the reminder endpoint. Transactionality of
// the commit belongs to the store, never to the pipeline.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/NeilMisra99/payprompt-ai-sub001/internal/importer"
)

// ErrNotFound is returned when a requested entity does not exist for the
// tenant.
var ErrNotFound = errors.New("not found")

// Invoice is the read model used by the reminder endpoint: enough of an
// invoice to write a payment reminder about it.
type Invoice struct {
	ID            uuid.UUID
	InvoiceNumber string
	ClientName    string
	ClientEmail   string
	Total         decimal.Decimal
	DueDate       time.Time
	Status        importer.InvoiceStatus
}

// CommitResult reports what one batch commit persisted.
type CommitResult struct {
	BatchID         uuid.UUID `json:"batch_id"`
	ClientsCreated  int       `json:"clients_created"`
	InvoicesCreated int       `json:"invoices_created"`
	ItemsCreated    int       `json:"items_created"`
}

// Store is the persisted entity store. All operations are scoped to a
// tenant; natural keys are only unique within one tenant.
type Store interface {
	// Lookup fetches a consistent snapshot of persisted natural keys for
	// the tenant. Called exactly once per batch, before reconciliation.
	Lookup(ctx context.Context, tenantID uuid.UUID) (importer.Lookup, error)

	// CommitBatch persists a reconciled batch atomically: either every
	// record in the batch is stored or none is.
	CommitBatch(ctx context.Context, tenantID uuid.UUID, batch importer.Batch) (CommitResult, error)

	// InvoiceByNumber returns one persisted invoice with its client,
	// or ErrNotFound.
	InvoiceByNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (Invoice, error)
}
