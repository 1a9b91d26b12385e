package importer

// validate.go checks required fields, coerces string values into canonical
// types, and classifies each row as valid (possibly with warnings) or
// rejected. Every reason for a row is collected before classification --
// validation never short-circuits on the first failure, so a user fixing
// a source file sees all of its problems at once.
//
// Reason codes are stable machine-readable strings:
//
//	missing_field:<name>    required field absent or empty
//	invalid_email           email fails syntax check
//	invalid_number:<field>  numeric coercion failed
//	invalid_date:<field>    date coercion failed
//	date_order              due_date earlier than issue_date
//	duplicate_key:<field>   natural key already used earlier in the file
//	invalid_quantity        quantity is zero or negative
//	invalid_price           price is negative
//
// Warning codes (row stays valid, caller is informed):
//
//	total_mismatch          total != subtotal + tax - discount (beyond epsilon)
//	amount_mismatch         amount != quantity * price (beyond epsilon)
//	defaulted_status        status absent or unrecognized, draft assumed

import (
	"github.com/shopspring/decimal"

	"github.com/NeilMisra99/payprompt-ai-sub001/internal/schema"
)

const (
	ReasonInvalidEmail    = "invalid_email"
	ReasonDateOrder       = "date_order"
	ReasonInvalidQuantity = "invalid_quantity"
	ReasonInvalidPrice    = "invalid_price"

	WarnTotalMismatch   = "total_mismatch"
	WarnAmountMismatch  = "amount_mismatch"
	WarnDefaultedStatus = "defaulted_status"
)

func reasonMissing(field string) string { return "missing_field:" + field }
func reasonNumber(field string) string  { return "invalid_number:" + field }
func reasonDate(field string) string    { return "invalid_date:" + field }
func reasonDuplicate(field string) string {
	return "duplicate_key:" + field
}

// ValidateClients validates client rows. Within one file the first
// occurrence of an email wins; later occurrences are rejected, never
// silently merged.
func ValidateClients(rows []RawRow) ([]ClientRecord, []RejectedRow) {
	var valid []ClientRecord
	var rejected []RejectedRow
	seen := make(map[string]bool, len(rows))

	for _, row := range rows {
		fields := normalized(row, schema.ClientFieldSpecs)
		var reasons []string

		name := fields["name"]
		if name == "" {
			reasons = append(reasons, reasonMissing("name"))
		}

		email := fields["email"]
		switch {
		case email == "":
			reasons = append(reasons, reasonMissing("email"))
		case !ValidEmail(email):
			reasons = append(reasons, ReasonInvalidEmail)
		case seen[email]:
			reasons = append(reasons, reasonDuplicate("email"))
		}

		if len(reasons) > 0 {
			rejected = append(rejected, RejectedRow{Kind: schema.KindClients, Line: row.Line, Reasons: reasons})
			continue
		}

		seen[email] = true
		valid = append(valid, ClientRecord{
			Name:          name,
			Email:         email,
			Phone:         fields["phone"],
			Address:       fields["address"],
			ContactPerson: fields["contact_person"],
			Line:          row.Line,
		})
	}

	return valid, rejected
}

// ValidateInvoices validates invoice rows. Numeric inconsistency between
// total and subtotal+tax-discount is a warning, not a rejection: the row
// proceeds but the caller can prompt for confirmation.
func ValidateInvoices(opts Options, rows []RawRow) ([]InvoiceRecord, []RejectedRow) {
	var valid []InvoiceRecord
	var rejected []RejectedRow
	seen := make(map[string]bool, len(rows))

	for _, row := range rows {
		fields := normalized(row, schema.InvoiceFieldSpecs)
		var reasons, warnings []string

		number := fields["invoice_number"]
		switch {
		case number == "":
			reasons = append(reasons, reasonMissing("invoice_number"))
		case seen[number]:
			reasons = append(reasons, reasonDuplicate("invoice_number"))
		}

		email := fields["client_email"]
		switch {
		case email == "":
			reasons = append(reasons, reasonMissing("client_email"))
		case !ValidEmail(email):
			reasons = append(reasons, ReasonInvalidEmail)
		}

		rec := InvoiceRecord{
			InvoiceNumber: number,
			ClientEmail:   email,
			Notes:         fields["notes"],
			PaymentTerms:  fields["payment_terms"],
			Line:          row.Line,
		}

		issueOK, dueOK := false, false
		if raw := fields["issue_date"]; raw == "" {
			reasons = append(reasons, reasonMissing("issue_date"))
		} else if t, ok := ParseDate(raw); ok {
			rec.IssueDate, issueOK = t, true
		} else {
			reasons = append(reasons, reasonDate("issue_date"))
		}
		if raw := fields["due_date"]; raw == "" {
			reasons = append(reasons, reasonMissing("due_date"))
		} else if t, ok := ParseDate(raw); ok {
			rec.DueDate, dueOK = t, true
		} else {
			reasons = append(reasons, reasonDate("due_date"))
		}
		if issueOK && dueOK && rec.DueDate.Before(rec.IssueDate) {
			reasons = append(reasons, ReasonDateOrder)
		}

		subtotalOK := requireDecimal(fields, "subtotal", &rec.Subtotal, &reasons)
		totalOK := requireDecimal(fields, "total", &rec.Total, &reasons)
		taxOK := optionalDecimal(fields, "tax", &rec.Tax, &reasons)
		discountOK := optionalDecimal(fields, "discount", &rec.Discount, &reasons)

		if status, ok := ParseStatus(fields["status"]); ok {
			rec.Status = status
		} else {
			rec.Status = opts.DefaultStatus
			warnings = append(warnings, WarnDefaultedStatus)
		}

		if subtotalOK && totalOK && taxOK && discountOK {
			expected := rec.Subtotal.Add(rec.Tax).Sub(rec.Discount)
			if rec.Total.Sub(expected).Abs().Cmp(opts.Epsilon) > 0 {
				warnings = append(warnings, WarnTotalMismatch)
			}
		}

		if len(reasons) > 0 {
			rejected = append(rejected, RejectedRow{Kind: schema.KindInvoices, Line: row.Line, Reasons: reasons})
			continue
		}

		seen[number] = true
		rec.Warnings = warnings
		valid = append(valid, rec)
	}

	return valid, rejected
}

// ValidateItems validates invoice line-item rows. A present amount that
// disagrees with quantity*price beyond epsilon is a warning; an absent
// amount is computed, not rejected.
func ValidateItems(opts Options, rows []RawRow) ([]InvoiceItemRecord, []RejectedRow) {
	var valid []InvoiceItemRecord
	var rejected []RejectedRow

	for _, row := range rows {
		fields := normalized(row, schema.InvoiceItemFieldSpecs)
		var reasons, warnings []string

		number := fields["invoice_number"]
		if number == "" {
			reasons = append(reasons, reasonMissing("invoice_number"))
		}
		description := fields["description"]
		if description == "" {
			reasons = append(reasons, reasonMissing("description"))
		}

		rec := InvoiceItemRecord{
			InvoiceNumber: number,
			Description:   description,
			Line:          row.Line,
		}

		quantityOK := false
		if raw := fields["quantity"]; raw == "" {
			reasons = append(reasons, reasonMissing("quantity"))
		} else if d, ok := ParseDecimal(raw); !ok {
			reasons = append(reasons, reasonNumber("quantity"))
		} else if d.Sign() <= 0 {
			reasons = append(reasons, ReasonInvalidQuantity)
		} else {
			rec.Quantity, quantityOK = d, true
		}

		priceOK := false
		if raw := fields["price"]; raw == "" {
			reasons = append(reasons, reasonMissing("price"))
		} else if d, ok := ParseDecimal(raw); !ok {
			reasons = append(reasons, reasonNumber("price"))
		} else if d.Sign() < 0 {
			reasons = append(reasons, ReasonInvalidPrice)
		} else {
			rec.Price, priceOK = d, true
		}

		if raw := fields["amount"]; raw == "" {
			if quantityOK && priceOK {
				rec.Amount = rec.Quantity.Mul(rec.Price)
			}
		} else if d, ok := ParseDecimal(raw); !ok {
			reasons = append(reasons, reasonNumber("amount"))
		} else {
			rec.Amount = d
			if quantityOK && priceOK {
				expected := rec.Quantity.Mul(rec.Price)
				if d.Sub(expected).Abs().Cmp(opts.Epsilon) > 0 {
					warnings = append(warnings, WarnAmountMismatch)
				}
			}
		}

		if len(reasons) > 0 {
			rejected = append(rejected, RejectedRow{Kind: schema.KindItems, Line: row.Line, Reasons: reasons})
			continue
		}

		rec.Warnings = warnings
		valid = append(valid, rec)
	}

	return valid, rejected
}

// normalized applies each spec's Normalizer to the row's known fields and
// returns the resulting map. RawRow is never mutated.
func normalized(row RawRow, specs []schema.FieldSpec) map[string]string {
	fields := make(map[string]string, len(row.Fields))
	for _, spec := range specs {
		v := row.Fields[spec.Name]
		if spec.Normalizer != nil && v != "" {
			v = spec.Normalizer(v)
		}
		fields[spec.Name] = v
	}
	return fields
}

// requireDecimal coerces a required numeric field into dst, appending a
// reason on absence or failure. Reports whether dst holds a usable value.
func requireDecimal(fields map[string]string, name string, dst *decimal.Decimal, reasons *[]string) bool {
	raw := fields[name]
	if raw == "" {
		*reasons = append(*reasons, reasonMissing(name))
		return false
	}
	d, ok := ParseDecimal(raw)
	if !ok {
		*reasons = append(*reasons, reasonNumber(name))
		return false
	}
	*dst = d
	return true
}

// optionalDecimal coerces an optional numeric field into dst, defaulting
// to zero when absent. Reports false only on a coercion failure.
func optionalDecimal(fields map[string]string, name string, dst *decimal.Decimal, reasons *[]string) bool {
	raw := fields[name]
	if raw == "" {
		*dst = decimal.Zero
		return true
	}
	d, ok := ParseDecimal(raw)
	if !ok {
		*reasons = append(*reasons, reasonNumber(name))
		return false
	}
	*dst = d
	return true
}
