package web

// handlers_reminder.go streams AI-generated payment reminder text for a
// persisted invoice over Server-Sent Events. Text chunks arrive as
// "data:" events with a JSON payload; a terminal "done" or "error"
// event closes the stream.

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/NeilMisra99/payprompt-ai-sub001/internal/logging"
	"github.com/NeilMisra99/payprompt-ai-sub001/internal/reminder"
	"github.com/NeilMisra99/payprompt-ai-sub001/internal/store"
)

// reminderRequest is the optional JSON body for the reminder endpoint.
type reminderRequest struct {
	Tone         string `json:"tone"`
	BusinessName string `json:"business_name"`
}

func (s *Server) handleReminder(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(r)
	if !ok {
		respondError(w, r, http.StatusInternalServerError, codeInternal, "internal error", errors.New("no tenant in context"))
		return
	}

	if s.reminder == nil {
		respondError(w, r, http.StatusServiceUnavailable, codeUnavailable, "reminder generation is not enabled", nil)
		return
	}

	invoiceNumber := chi.URLParam(r, "invoiceNumber")
	if invoiceNumber == "" {
		respondError(w, r, http.StatusBadRequest, codeBadRequest, "invoice number is required", nil)
		return
	}

	var body reminderRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respondError(w, r, http.StatusBadRequest, codeBadRequest, "invalid request body", err)
			return
		}
	}
	// Tone may also come as a query parameter for simple clients.
	if body.Tone == "" {
		body.Tone = r.URL.Query().Get("tone")
	}

	invoice, err := s.store.InvoiceByNumber(r.Context(), tenant, invoiceNumber)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, codeNotFound,
				fmt.Sprintf("invoice %q not found", invoiceNumber), err)
			return
		}
		respondError(w, r, http.StatusInternalServerError, codeInternal, "failed to load invoice", err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, r, http.StatusInternalServerError, codeInternal, "streaming not supported", nil)
		return
	}

	req := reminder.Request{
		Invoice:      invoice,
		Tone:         reminder.ParseTone(body.Tone),
		BusinessName: body.BusinessName,
		Today:        time.Now(),
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	emit := func(chunk string) error {
		return writeSSE(w, flusher, "", map[string]string{"text": chunk})
	}

	if err := s.reminder.Stream(r.Context(), req, emit); err != nil {
		logging.FromContext(r.Context()).Error("reminder stream failed",
			"tenant_id", tenant,
			"invoice_number", invoiceNumber,
			"error", err,
		)
		// Headers are sent; the only way to signal failure is in-band.
		writeSSE(w, flusher, "error", map[string]string{"error": "reminder generation failed"})
		return
	}

	writeSSE(w, flusher, "done", map[string]string{})
}

// writeSSE writes one Server-Sent Event with a JSON payload and flushes.
// A JSON payload keeps chunk text with embedded newlines intact across
// the line-oriented SSE framing.
func writeSSE(w http.ResponseWriter, flusher http.Flusher, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if event != "" {
		if _, err := fmt.Fprintf(w, "event: %s\n", event); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
