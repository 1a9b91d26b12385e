package web

// handlers_import.go serves the CSV import pipeline: preview runs the
// full parse/validate/reconcile but persists nothing; import commits
// the reconciled batch atomically and reports what was stored.

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/NeilMisra99/payprompt-ai-sub001/internal/importer"
	"github.com/NeilMisra99/payprompt-ai-sub001/internal/logging"
	"github.com/NeilMisra99/payprompt-ai-sub001/internal/schema"
	"github.com/NeilMisra99/payprompt-ai-sub001/internal/store"
)

// multipart form field names, one per entity kind.
var formFields = map[schema.Kind]string{
	schema.KindClients:  "clients",
	schema.KindInvoices: "invoices",
	schema.KindItems:    "items",
}

// importResponse is the JSON body for both preview and import.
type importResponse struct {
	DryRun bool                `json:"dry_run"`
	Report importer.Report     `json:"report"`
	Commit *store.CommitResult `json:"commit,omitempty"`
}

func (s *Server) handleImportPreview(w http.ResponseWriter, r *http.Request) {
	s.runImport(w, r, false)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	s.runImport(w, r, true)
}

// runImport executes one batch: read multipart files, fetch the tenant's
// persisted-key snapshot, run the pipeline, and optionally commit.
func (s *Server) runImport(w http.ResponseWriter, r *http.Request, commit bool) {
	tenant, ok := tenantID(r)
	if !ok {
		respondError(w, r, http.StatusInternalServerError, codeInternal, "internal error", errors.New("no tenant in context"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Import.Timeout)
	defer cancel()

	// Cap the whole request body: three files plus multipart overhead.
	r.Body = http.MaxBytesReader(w, r.Body, 3*s.cfg.Import.MaxFileSize+1<<20)

	files, closeFiles, err := s.readUploads(r)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, r, http.StatusRequestEntityTooLarge, codeTooLarge, "uploaded files exceed the size limit", err)
			return
		}
		respondError(w, r, http.StatusBadRequest, codeBadRequest, err.Error(), err)
		return
	}
	defer closeFiles()

	if files.Clients == nil && files.Invoices == nil && files.Items == nil {
		respondError(w, r, http.StatusBadRequest, codeBadRequest,
			"no CSV files provided; send at least one of clients, invoices, items", nil)
		return
	}

	lookup, err := s.store.Lookup(ctx, tenant)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, codeInternal, "failed to load existing records", err)
		return
	}

	result, err := importer.Run(s.opts, files, lookup)
	if err != nil {
		var perr *importer.ParseError
		if errors.As(err, &perr) {
			respondError(w, r, http.StatusBadRequest, codeParseFailed,
				fmt.Sprintf("%s file could not be parsed: %v", perr.Kind, perr.Err), err)
			return
		}
		respondError(w, r, http.StatusInternalServerError, codeInternal, "import failed", err)
		return
	}

	resp := importResponse{DryRun: !commit, Report: result.Report}

	if commit {
		commitResult := store.CommitResult{}
		if !result.Batch.Empty() {
			commitResult, err = s.store.CommitBatch(ctx, tenant, result.Batch)
			if err != nil {
				respondError(w, r, http.StatusInternalServerError, codeInternal, "failed to persist batch", err)
				return
			}
		}
		resp.Commit = &commitResult

		logger := logging.WithFields(r.Context(), "tenant_id", tenant)
		logger.Info("batch committed",
			"batch_id", commitResult.BatchID,
			"clients_created", commitResult.ClientsCreated,
			"invoices_created", commitResult.InvoicesCreated,
			"items_created", commitResult.ItemsCreated,
			"rejected", len(result.Report.Rejected),
			"unresolved", len(result.Report.Unresolved),
		)
	}

	writeJSON(w, http.StatusOK, resp)
}

// readUploads extracts the per-kind CSV files from the multipart form.
// Missing fields are fine; each present file is size-checked. The
// returned closer releases every opened file.
func (s *Server) readUploads(r *http.Request) (importer.Files, func(), error) {
	noop := func() {}

	if err := r.ParseMultipartForm(8 << 20); err != nil {
		return importer.Files{}, noop, fmt.Errorf("invalid multipart form: %w", err)
	}

	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}

	var files importer.Files
	for kind, field := range formFields {
		f, hdr, err := r.FormFile(field)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			closeAll()
			return importer.Files{}, noop, fmt.Errorf("read %s file: %w", field, err)
		}
		if hdr.Size > s.cfg.Import.MaxFileSize {
			closeAll()
			f.Close()
			return importer.Files{}, noop, &http.MaxBytesError{Limit: s.cfg.Import.MaxFileSize}
		}
		opened = append(opened, f)

		switch kind {
		case schema.KindClients:
			files.Clients = f
		case schema.KindInvoices:
			files.Invoices = f
		case schema.KindItems:
			files.Items = f
		}
	}

	return files, closeAll, nil
}

// kindStatus describes one importable entity kind for clients building
// upload UIs: expected columns, their types, and the natural key.
type kindStatus struct {
	Kind       schema.Kind  `json:"kind"`
	NaturalKey string       `json:"natural_key,omitempty"`
	Columns    []columnInfo `json:"columns"`
}

type columnInfo struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Values   []string `json:"values,omitempty"`
}

func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	kinds := schema.Kinds()
	out := make([]kindStatus, 0, len(kinds))
	for _, kind := range kinds {
		ks := kindStatus{Kind: kind, NaturalKey: schema.KeyFor(kind)}
		for _, spec := range schema.SpecsFor(kind) {
			ks.Columns = append(ks.Columns, columnInfo{
				Name:     spec.Name,
				Type:     spec.Type.String(),
				Required: spec.Required,
				Values:   spec.EnumValues,
			})
		}
		out = append(out, ks)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"kinds":         out,
		"max_file_size": s.cfg.Import.MaxFileSize,
	})
}
