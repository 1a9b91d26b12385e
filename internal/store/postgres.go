package store

// postgres.go implements Store against PostgreSQL using pgx. A batch
// commit is a single transaction: clients first (so invoice foreign keys
// can point at them), then invoices, then items, queued through one
// pgx.Batch round trip per entity kind. Any failure rolls the whole
// batch back.

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/NeilMisra99/payprompt-ai-sub001/internal/importer"
)

// Postgres is the pgx-backed Store implementation.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an existing connection pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Lookup fetches the tenant's persisted client emails and invoice
// numbers in two queries. The result is a snapshot: reconciliation never
// refreshes it mid-batch.
func (p *Postgres) Lookup(ctx context.Context, tenantID uuid.UUID) (importer.Lookup, error) {
	lookup := importer.EmptyLookup()

	rows, err := p.pool.Query(ctx,
		`SELECT email, id FROM clients WHERE tenant_id = $1`, tenantID)
	if err != nil {
		return importer.Lookup{}, fmt.Errorf("lookup clients: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var email string
		var id uuid.UUID
		if err := rows.Scan(&email, &id); err != nil {
			return importer.Lookup{}, fmt.Errorf("lookup clients: %w", err)
		}
		lookup.ClientIDsByEmail[email] = id
	}
	if err := rows.Err(); err != nil {
		return importer.Lookup{}, fmt.Errorf("lookup clients: %w", err)
	}

	rows, err = p.pool.Query(ctx,
		`SELECT invoice_number, id FROM invoices WHERE tenant_id = $1`, tenantID)
	if err != nil {
		return importer.Lookup{}, fmt.Errorf("lookup invoices: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var number string
		var id uuid.UUID
		if err := rows.Scan(&number, &id); err != nil {
			return importer.Lookup{}, fmt.Errorf("lookup invoices: %w", err)
		}
		lookup.InvoiceIDsByNumber[number] = id
	}
	if err := rows.Err(); err != nil {
		return importer.Lookup{}, fmt.Errorf("lookup invoices: %w", err)
	}

	return lookup, nil
}

// CommitBatch persists a reconciled batch in one transaction.
func (p *Postgres) CommitBatch(ctx context.Context, tenantID uuid.UUID, batch importer.Batch) (CommitResult, error) {
	result := CommitResult{BatchID: uuid.New()}
	if batch.Empty() {
		return result, nil
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return CommitResult{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) // no-op after commit

	// Clients first: IDs are generated here so invoices created in the
	// same batch can reference them without a round trip.
	clientIDs := make(map[string]uuid.UUID, len(batch.ClientsToCreate))
	clientQ := &pgx.Batch{}
	for _, c := range batch.ClientsToCreate {
		id := uuid.New()
		clientIDs[c.Email] = id
		clientQ.Queue(
			`INSERT INTO clients (id, tenant_id, name, email, phone, address, contact_person, import_batch_id)
			 VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8)`,
			id, tenantID, c.Name, c.Email, c.Phone, c.Address, c.ContactPerson, result.BatchID,
		)
	}
	if err := sendBatch(ctx, tx, clientQ); err != nil {
		return CommitResult{}, fmt.Errorf("insert clients: %w", err)
	}
	result.ClientsCreated = len(batch.ClientsToCreate)

	invoiceIDs := make(map[string]uuid.UUID, len(batch.Invoices))
	invoiceQ := &pgx.Batch{}
	for _, inv := range batch.Invoices {
		clientID := inv.Client.ClientID
		if inv.Client.InBatch {
			clientID = clientIDs[inv.Client.Email]
		}
		id := uuid.New()
		invoiceIDs[inv.InvoiceNumber] = id
		invoiceQ.Queue(
			`INSERT INTO invoices (id, tenant_id, client_id, invoice_number, issue_date, due_date,
			                       subtotal, tax, discount, total, status, notes, payment_terms, import_batch_id)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NULLIF($12, ''), NULLIF($13, ''), $14)`,
			id, tenantID, clientID, inv.InvoiceNumber, inv.IssueDate, inv.DueDate,
			inv.Subtotal.String(), inv.Tax.String(), inv.Discount.String(), inv.Total.String(),
			string(inv.Status), inv.Notes, inv.PaymentTerms, result.BatchID,
		)
	}
	if err := sendBatch(ctx, tx, invoiceQ); err != nil {
		return CommitResult{}, fmt.Errorf("insert invoices: %w", err)
	}
	result.InvoicesCreated = len(batch.Invoices)

	itemQ := &pgx.Batch{}
	for _, item := range batch.Items {
		invoiceID := item.Invoice.InvoiceID
		if item.Invoice.InBatch {
			invoiceID = invoiceIDs[item.Invoice.InvoiceNumber]
		}
		itemQ.Queue(
			`INSERT INTO invoice_items (id, tenant_id, invoice_id, description, quantity, price, amount, import_batch_id)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			uuid.New(), tenantID, invoiceID, item.Description,
			item.Quantity.String(), item.Price.String(), item.Amount.String(), result.BatchID,
		)
	}
	if err := sendBatch(ctx, tx, itemQ); err != nil {
		return CommitResult{}, fmt.Errorf("insert items: %w", err)
	}
	result.ItemsCreated = len(batch.Items)

	if err := tx.Commit(ctx); err != nil {
		return CommitResult{}, fmt.Errorf("commit: %w", err)
	}
	return result, nil
}

// InvoiceByNumber returns one invoice with its client name for reminder
// generation.
func (p *Postgres) InvoiceByNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (Invoice, error) {
	var inv Invoice
	var total string
	var status string
	err := p.pool.QueryRow(ctx,
		`SELECT i.id, i.invoice_number, c.name, c.email, i.total::text, i.due_date, i.status
		 FROM invoices i
		 JOIN clients c ON c.id = i.client_id
		 WHERE i.tenant_id = $1 AND i.invoice_number = $2`,
		tenantID, invoiceNumber,
	).Scan(&inv.ID, &inv.InvoiceNumber, &inv.ClientName, &inv.ClientEmail, &total, &inv.DueDate, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invoice{}, ErrNotFound
		}
		return Invoice{}, fmt.Errorf("invoice by number: %w", err)
	}

	inv.Status = importer.InvoiceStatus(status)
	if inv.Total, err = parseNumeric(total); err != nil {
		return Invoice{}, fmt.Errorf("invoice by number: %w", err)
	}
	return inv, nil
}

func parseNumeric(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("numeric %q: %w", s, err)
	}
	return d, nil
}

// sendBatch executes a queued pgx.Batch and surfaces the first failure.
func sendBatch(ctx context.Context, tx pgx.Tx, b *pgx.Batch) error {
	if b.Len() == 0 {
		return nil
	}
	results := tx.SendBatch(ctx, b)
	defer results.Close()
	for i := 0; i < b.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("statement %d: %w", i, err)
		}
	}
	return results.Close()
}
