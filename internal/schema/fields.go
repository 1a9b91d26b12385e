// Package schema declares the expected CSV column layout for each entity
// kind the import pipeline understands. The specs drive header matching,
// required-field checks, and type coercion in the importer package.
package schema

import "strings"

// FieldType represents the expected data type for a CSV field.
type FieldType int

const (
	FieldText FieldType = iota
	FieldEmail
	FieldEnum
	FieldDate
	FieldNumeric
)

// String returns the lowercase name of the field type.
func (t FieldType) String() string {
	switch t {
	case FieldEmail:
		return "email"
	case FieldEnum:
		return "enum"
	case FieldDate:
		return "date"
	case FieldNumeric:
		return "numeric"
	default:
		return "text"
	}
}

// FieldSpec defines validation rules for a single CSV column.
type FieldSpec struct {
	Name       string              // Column header name, matched case-insensitively
	Type       FieldType           // Expected data type
	Required   bool                // Row is rejected when the value is missing or empty
	EnumValues []string            // Valid values for FieldEnum type
	Normalizer func(string) string // Optional transformation applied before validation
}

// Kind identifies one of the three importable entity kinds.
type Kind string

const (
	KindClients  Kind = "clients"
	KindInvoices Kind = "invoices"
	KindItems    Kind = "invoice_items"
)

// Kinds returns all entity kinds in dependency order: clients first,
// then invoices, then items. Reconciliation relies on this ordering.
func Kinds() []Kind {
	return []Kind{KindClients, KindInvoices, KindItems}
}

// SpecsFor returns the field specs for an entity kind.
// Returns nil for an unknown kind.
func SpecsFor(kind Kind) []FieldSpec {
	switch kind {
	case KindClients:
		return ClientFieldSpecs
	case KindInvoices:
		return InvoiceFieldSpecs
	case KindItems:
		return InvoiceItemFieldSpecs
	default:
		return nil
	}
}

// KeyFor returns the natural-key column for an entity kind, or "" if the
// kind has no uniqueness constraint within a batch.
func KeyFor(kind Kind) string {
	switch kind {
	case KindClients:
		return "email"
	case KindInvoices:
		return "invoice_number"
	default:
		return ""
	}
}

// NormalizeEmail lowercases and trims an email address. Email is the
// clients natural key, so comparisons must be case-insensitive.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeKey trims surrounding whitespace from a natural-key value.
func NormalizeKey(s string) string {
	return strings.TrimSpace(s)
}
