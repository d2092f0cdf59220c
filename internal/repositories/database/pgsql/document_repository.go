package pgsql

import (
	"context"
	"strings"
	"time"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// documentRepository reads invoices, bills and payments for the cash-basis reports.
type documentRepository struct {
	BaseRepository
}

func newDocumentRepository(db *pgxpool.Pool) *documentRepository {
	return &documentRepository{BaseRepository: BaseRepository{Pool: db}}
}

var _ portsrepo.SourceDocumentRepository = (*documentRepository)(nil)

// liveDocumentSQL keeps payments whose invoice or bill has not been voided,
// matching the documents the aging report considers.
const liveDocumentSQL = `NOT EXISTS (
		SELECT 1 FROM invoices i WHERE p.document_type = 'INVOICE' AND i.invoice_id = p.document_id AND i.is_void
		UNION ALL
		SELECT 1 FROM bills b WHERE p.document_type = 'BILL' AND b.bill_id = p.document_id AND b.is_void)`

// cashEventsQuery selects the company's payments settled inside period.
func cashEventsQuery(args *queryArgs, companyID string, period domain.DateRange) string {
	conds := []string{"p.company_id = " + args.add(companyID), liveDocumentSQL}
	if !period.Start.IsZero() {
		conds = append(conds, "p.paid_on >= "+args.add(domain.TruncateToDate(period.Start)))
	}
	if !period.End.IsZero() {
		conds = append(conds, "p.paid_on <= "+args.add(domain.TruncateToDate(period.End)))
	}
	return `
		SELECT p.payment_id, p.document_type, p.document_id, p.paid_on, p.amount, p.activity
		FROM payments p
		WHERE ` + strings.Join(conds, " AND ") + `
		ORDER BY p.paid_on, p.payment_id;
	`
}

// ListCashEvents returns the payments settled inside period, oldest first.
// Payments against voided documents are left out.
func (r *documentRepository) ListCashEvents(ctx context.Context, companyID string, period domain.DateRange) ([]domain.CashEvent, error) {
	args := queryArgs{}
	query := cashEventsQuery(&args, companyID, period)
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query payments for company "+companyID, err)
	}
	defer rows.Close()

	events := []domain.CashEvent{}
	for rows.Next() {
		var ev domain.CashEvent
		var docType, activity string
		if err := rows.Scan(&ev.PaymentID, &docType, &ev.DocumentID, &ev.PaidOn, &ev.Amount, &activity); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan payment row", err)
		}
		ev.DocumentType = domain.DocumentType(docType)
		ev.Activity = domain.CashActivity(activity)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating payment rows", err)
	}
	return events, nil
}

// openItemsQuery lists unpaid invoices and bills. $1 is the company, $2 the as-of date.
const openItemsQuery = `
	SELECT d.document_type, d.document_id, d.number, d.counterparty, d.issue_date, d.due_date, d.total, d.paid
	FROM (
		SELECT 'INVOICE' AS document_type, i.invoice_id AS document_id, i.invoice_number AS number,
		       i.customer_name AS counterparty, i.issue_date, i.due_date, i.total,
		       COALESCE((SELECT SUM(p.amount) FROM payments p
		                 WHERE p.company_id = $1 AND p.document_type = 'INVOICE'
		                   AND p.document_id = i.invoice_id AND p.paid_on <= $2), 0) AS paid
		FROM invoices i
		WHERE i.company_id = $1 AND NOT i.is_void AND i.issue_date <= $2
		UNION ALL
		SELECT 'BILL', b.bill_id, b.bill_number, b.vendor_name, b.issue_date, b.due_date, b.total,
		       COALESCE((SELECT SUM(p.amount) FROM payments p
		                 WHERE p.company_id = $1 AND p.document_type = 'BILL'
		                   AND p.document_id = b.bill_id AND p.paid_on <= $2), 0)
		FROM bills b
		WHERE b.company_id = $1 AND NOT b.is_void AND b.issue_date <= $2
	) d
	WHERE d.total > d.paid
	ORDER BY d.due_date, d.number;
`

// ListOpenItems returns the invoices and bills still unpaid at asOf, by due date.
func (r *documentRepository) ListOpenItems(ctx context.Context, companyID string, asOf time.Time) ([]domain.OpenItem, error) {
	rows, err := r.Pool.Query(ctx, openItemsQuery, companyID, domain.TruncateToDate(asOf))
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query open items for company "+companyID, err)
	}
	defer rows.Close()

	items := []domain.OpenItem{}
	for rows.Next() {
		var it domain.OpenItem
		var docType string
		if err := rows.Scan(&docType, &it.DocumentID, &it.Number, &it.Counterparty, &it.IssueDate, &it.DueDate, &it.Total, &it.Paid); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan open item row", err)
		}
		it.DocumentType = domain.DocumentType(docType)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating open item rows", err)
	}
	return items, nil
}
