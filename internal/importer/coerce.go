package importer

// coerce.go converts raw CSV cell text into canonical values. CSV exports
// from spreadsheets and billing tools carry formatting artifacts (currency
// symbols, thousands separators, accounting parentheses, Excel formula
// wrappers) that must be stripped before typed interpretation.

import (
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// numericPattern validates cleaned numeric text before handing it to the
// decimal parser. Pre-compiled once; accepts optional exponent notation.
var numericPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// dateLayouts are the accepted date formats. All carry 4-digit years:
// two-digit-year dates are ambiguous and rejected rather than guessed.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"1/2/2006",
	"01/02/2006",
	"1-2-2006",
	"01-02-2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	"20060102",
}

// CleanHeader normalizes a CSV header cell for matching: strips the UTF-8
// BOM, Excel formula wrappers (="value"), surrounding quotes and
// whitespace, then lowercases.
func CleanHeader(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) {
		s = s[2 : len(s)-1]
	}
	s = strings.Trim(s, `"`)
	return strings.ToLower(strings.TrimSpace(s))
}

// CleanCell normalizes a data cell: strips Excel formula wrappers and
// surrounding whitespace. Interior content is preserved as-is.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) {
		s = strings.TrimSpace(s[2 : len(s)-1])
	}
	return s
}

// ParseDecimal interprets a raw cell as a decimal number. It accepts
// common money formats: optional currency symbol ($, euro, pound),
// thousands separators, and accounting-style parentheses for negatives.
func ParseDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "")
	s = strings.ReplaceAll(s, "£", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if negative {
		s = "-" + s
	}

	if !numericPattern.MatchString(s) {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ParseDate interprets a raw cell as a calendar date. Only unambiguous
// 4-digit-year layouts are accepted.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ValidEmail reports whether s is a syntactically valid bare email
// address. Display-name forms ("Alice <a@x.com>") are rejected: the
// column holds addresses, not address headers.
func ValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	return addr.Address == s
}

// normalizeEnum lowercases and trims a value for enum matching.
func normalizeEnum(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
