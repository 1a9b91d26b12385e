// Package importer implements the CSV import pipeline: parsing raw CSV
// text into loosely-typed rows, validating and coercing them into entity
// records, and reconciling cross-file references into a batch ready for
// persistence.
//
// The pipeline runs in three stages with no shared mutable state:
//
//	Parse      CSV text -> []RawRow (+ per-line errors)
//	Validate   []RawRow -> valid records + rejected rows
//	Reconcile  validated sets + store snapshot -> resolved Batch
//
// Row-level problems never abort a batch. The only fatal condition is a
// file whose header row is missing or unreadable.
package importer

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/NeilMisra99/payprompt-ai-sub001/internal/schema"
)

// RawRow is one parsed CSV line before validation. Fields holds known
// columns keyed by their spec name; Extra preserves unrecognized columns
// under their original header so audit logs can surface them.
type RawRow struct {
	Line   int // 1-based line number in the source file, header included
	Fields map[string]string
	Extra  map[string]string
}

// InvoiceStatus is the lifecycle state of an invoice.
type InvoiceStatus string

const (
	StatusDraft   InvoiceStatus = "draft"
	StatusSent    InvoiceStatus = "sent"
	StatusPaid    InvoiceStatus = "paid"
	StatusOverdue InvoiceStatus = "overdue"
)

// ParseStatus maps a raw status value to an InvoiceStatus.
// Matching is case-insensitive; ok is false for unrecognized values.
func ParseStatus(s string) (InvoiceStatus, bool) {
	switch normalizeEnum(s) {
	case "draft":
		return StatusDraft, true
	case "sent":
		return StatusSent, true
	case "paid":
		return StatusPaid, true
	case "overdue":
		return StatusOverdue, true
	default:
		return "", false
	}
}

// ClientRecord is a validated client row. Email is the natural key used
// for reconciliation; a persistence ID is assigned only by the store.
type ClientRecord struct {
	Name          string
	Email         string
	Phone         string
	Address       string
	ContactPerson string

	Line     int
	Warnings []string
}

// InvoiceRecord is a validated invoice row. ClientEmail is unresolved
// until reconciliation.
type InvoiceRecord struct {
	InvoiceNumber string
	ClientEmail   string
	IssueDate     time.Time
	DueDate       time.Time
	Subtotal      decimal.Decimal
	Tax           decimal.Decimal
	Discount      decimal.Decimal
	Total         decimal.Decimal
	Status        InvoiceStatus
	Notes         string
	PaymentTerms  string

	Line     int
	Warnings []string
}

// InvoiceItemRecord is a validated line-item row. InvoiceNumber is
// unresolved until reconciliation.
type InvoiceItemRecord struct {
	InvoiceNumber string
	Description   string
	Quantity      decimal.Decimal
	Price         decimal.Decimal
	Amount        decimal.Decimal

	Line     int
	Warnings []string
}

// RejectedRow records a row that failed validation, with every reason
// collected before classification.
type RejectedRow struct {
	Kind    schema.Kind `json:"kind"`
	Line    int         `json:"line"`
	Reasons []string    `json:"reasons"`
}

// UnresolvedRow records a validated row whose cross-file reference could
// not be resolved during reconciliation.
type UnresolvedRow struct {
	Kind    schema.Kind `json:"kind"`
	Line    int         `json:"line"`
	Key     string      `json:"key"` // the dangling reference value
	Reasons []string    `json:"reasons"`
}

// ClientRef is a resolved reference from an invoice to a client.
// Either ClientID points at an already-persisted client, or InBatch is
// true and Email identifies a client created by this same batch.
type ClientRef struct {
	ClientID uuid.UUID
	Email    string
	InBatch  bool
}

// InvoiceRef is a resolved reference from a line item to an invoice.
type InvoiceRef struct {
	InvoiceID     uuid.UUID
	InvoiceNumber string
	InBatch       bool
}

// ResolvedInvoice is an invoice whose client_email has been replaced by
// a concrete client reference.
type ResolvedInvoice struct {
	InvoiceRecord
	Client ClientRef
}

// ResolvedItem is a line item whose invoice_number has been replaced by
// a concrete invoice reference.
type ResolvedItem struct {
	InvoiceItemRecord
	Invoice InvoiceRef
}

// Batch is the reconciled output of one import: everything the store
// needs for a single atomic commit, plus the rows that could not be
// resolved.
type Batch struct {
	ClientsToCreate []ClientRecord
	Invoices        []ResolvedInvoice
	Items           []ResolvedItem
	Unresolved      []UnresolvedRow
}

// Empty reports whether the batch contains nothing to persist.
func (b Batch) Empty() bool {
	return len(b.ClientsToCreate) == 0 && len(b.Invoices) == 0 && len(b.Items) == 0
}

// Lookup is a read-only snapshot of already-persisted natural keys for
// the active tenant. It is fetched once per batch, before reconciliation
// starts, and never refreshed mid-resolution.
type Lookup struct {
	ClientIDsByEmail   map[string]uuid.UUID
	InvoiceIDsByNumber map[string]uuid.UUID
}

// EmptyLookup returns a Lookup with no persisted entities.
func EmptyLookup() Lookup {
	return Lookup{
		ClientIDsByEmail:   map[string]uuid.UUID{},
		InvoiceIDsByNumber: map[string]uuid.UUID{},
	}
}
