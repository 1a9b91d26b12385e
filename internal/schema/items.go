package schema

// InvoiceItemFieldSpecs defines the expected CSV columns for invoice
// line-item imports. The amount column is optional: when absent it is
// computed as quantity * price.
var InvoiceItemFieldSpecs = []FieldSpec{
	{Name: "invoice_number", Type: FieldText, Required: true, Normalizer: NormalizeKey},
	{Name: "description", Type: FieldText, Required: true},
	{Name: "quantity", Type: FieldNumeric, Required: true},
	{Name: "price", Type: FieldNumeric, Required: true},
	{Name: "amount", Type: FieldNumeric, Required: false},
}
