// Package reminder generates payment-reminder text for an invoice by
// streaming output from a hosted model on AWS Bedrock. The package owns
// prompt construction and stream decoding; transport of the chunks to
// the client (SSE) is the web layer's concern.
package reminder

import (
	"fmt"
	"strings"
	"time"

	"github.com/NeilMisra99/payprompt-ai-sub001/internal/store"
)

// Tone selects how firm the reminder should read.
type Tone string

const (
	ToneFriendly Tone = "friendly"
	ToneFirm     Tone = "firm"
	ToneFinal    Tone = "final"
)

// ParseTone maps a raw value to a Tone, defaulting to friendly.
func ParseTone(s string) Tone {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(ToneFirm):
		return ToneFirm
	case string(ToneFinal):
		return ToneFinal
	default:
		return ToneFriendly
	}
}

// Request carries everything needed to write one reminder.
type Request struct {
	Invoice      store.Invoice
	Tone         Tone
	BusinessName string
	Today        time.Time
}

const systemPrompt = `You write payment reminder emails for small businesses.
Write a complete, ready-to-send email body. Be concise and professional.
Do not invent invoice details beyond those provided. Do not include a
subject line or any commentary about the email -- output only the body.`

// BuildPrompt renders the user prompt for one reminder request.
func BuildPrompt(req Request) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Write a payment reminder email to %s about invoice %s.\n\n",
		req.Invoice.ClientName, req.Invoice.InvoiceNumber)
	fmt.Fprintf(&b, "Amount due: %s\n", req.Invoice.Total.StringFixed(2))
	fmt.Fprintf(&b, "Due date: %s\n", req.Invoice.DueDate.Format("January 2, 2006"))

	if days := daysOverdue(req.Invoice.DueDate, req.Today); days > 0 {
		fmt.Fprintf(&b, "The invoice is %d days overdue.\n", days)
	} else {
		b.WriteString("The invoice is not yet overdue; this is a courtesy reminder.\n")
	}

	switch req.Tone {
	case ToneFirm:
		b.WriteString("\nTone: firm but courteous. State clearly that payment is expected promptly.\n")
	case ToneFinal:
		b.WriteString("\nTone: final notice. Mention that further action may follow if payment is not received.\n")
	default:
		b.WriteString("\nTone: friendly and understanding.\n")
	}

	if req.BusinessName != "" {
		fmt.Fprintf(&b, "Sign off on behalf of %s.\n", req.BusinessName)
	}

	return b.String()
}

// daysOverdue returns whole days past the due date, zero if not overdue.
func daysOverdue(due, today time.Time) int {
	days := int(today.Sub(due).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
