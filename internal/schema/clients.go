package schema

// ClientFieldSpecs defines the expected CSV columns for client imports.
var ClientFieldSpecs = []FieldSpec{
	{Name: "name", Type: FieldText, Required: true},
	{Name: "email", Type: FieldEmail, Required: true, Normalizer: NormalizeEmail},
	{Name: "phone", Type: FieldText, Required: false},
	{Name: "address", Type: FieldText, Required: false},
	{Name: "contact_person", Type: FieldText, Required: false},
}
