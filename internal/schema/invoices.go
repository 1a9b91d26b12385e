package schema

// InvoiceStatuses are the accepted values for the invoice status column.
// Unrecognized or absent values default to "draft" with a warning.
var InvoiceStatuses = []string{"draft", "sent", "paid", "overdue"}

// InvoiceFieldSpecs defines the expected CSV columns for invoice imports.
// The status column is intentionally not Required: an absent or
// unrecognized status is defaulted, not rejected.
var InvoiceFieldSpecs = []FieldSpec{
	{Name: "invoice_number", Type: FieldText, Required: true, Normalizer: NormalizeKey},
	{Name: "client_email", Type: FieldEmail, Required: true, Normalizer: NormalizeEmail},
	{Name: "issue_date", Type: FieldDate, Required: true},
	{Name: "due_date", Type: FieldDate, Required: true},
	{Name: "subtotal", Type: FieldNumeric, Required: true},
	{Name: "tax", Type: FieldNumeric, Required: false},
	{Name: "discount", Type: FieldNumeric, Required: false},
	{Name: "total", Type: FieldNumeric, Required: true},
	{Name: "status", Type: FieldEnum, Required: false, EnumValues: InvoiceStatuses},
	{Name: "notes", Type: FieldText, Required: false},
	{Name: "payment_terms", Type: FieldText, Required: false},
}
