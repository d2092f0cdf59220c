package pgsql

import (
	"context"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
	"github.com/SscSPs/ledger_engine/internal/models"
	"github.com/SscSPs/ledger_engine/internal/utils/mapping"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// reportingRepository implements the ReportingRepository interface
type reportingRepository struct {
	BaseRepository
}

// newReportingRepository creates a new reporting repository
func newReportingRepository(db *pgxpool.Pool) *reportingRepository {
	return &reportingRepository{
		BaseRepository: BaseRepository{Pool: db},
	}
}

var _ portsrepo.ReportingRepository = (*reportingRepository)(nil)

// SumAccountLines sums the debit and credit columns of one account's lines.
func (r *reportingRepository) SumAccountLines(ctx context.Context, companyID, accountID string, filter domain.BalanceFilter) (decimal.Decimal, decimal.Decimal, error) {
	if !isUUID(accountID) {
		return decimal.Zero, decimal.Zero, nil
	}

	args := queryArgs{}
	where := "l.company_id = " + args.add(companyID) + " AND l.account_id = " + args.add(accountID) +
		" AND " + lineFilterSQL(&args, filter)
	query := `SELECT COALESCE(SUM(l.debit), 0), COALESCE(SUM(l.credit), 0) FROM ` + lineSourceSQL + ` WHERE ` + where + `;`

	var debit, credit decimal.Decimal
	if err := r.Pool.QueryRow(ctx, query, args...).Scan(&debit, &credit); err != nil {
		return decimal.Zero, decimal.Zero, apperrors.NewAppError(500, "failed to sum lines for account "+accountID, err)
	}
	return debit, credit, nil
}

// SumActivityByAccount returns every account visible to the company, inactive ones
// included, with the sums of its lines. Accounts without activity carry zeros.
func (r *reportingRepository) SumActivityByAccount(ctx context.Context, companyID string, filter domain.BalanceFilter) ([]domain.AccountActivity, error) {
	args := queryArgs{}
	company := args.add(companyID)
	query := `
		SELECT a.account_id, a.company_id, a.code, a.name, a.account_type, a.category, a.parent_account_id,
		       a.description, a.is_active, a.created_at, a.created_by, a.last_updated_at, a.last_updated_by,
		       COALESCE(s.debit, 0), COALESCE(s.credit, 0)
		FROM accounts a
		LEFT JOIN (
			SELECT l.account_id, SUM(l.debit) AS debit, SUM(l.credit) AS credit
			FROM ` + lineSourceSQL + `
			WHERE l.company_id = ` + company + ` AND ` + lineFilterSQL(&args, filter) + `
			GROUP BY l.account_id
		) s ON s.account_id = a.account_id
		WHERE a.company_id = ` + company + ` OR a.company_id IS NULL
		ORDER BY a.code, a.account_id;
	`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "error querying account activity for company "+companyID, err)
	}
	defer rows.Close()

	result := []domain.AccountActivity{}
	for rows.Next() {
		var m models.Account
		var debit, credit decimal.Decimal
		if err := rows.Scan(
			&m.AccountID,
			&m.CompanyID,
			&m.Code,
			&m.Name,
			&m.AccountType,
			&m.Category,
			&m.ParentAccountID,
			&m.Description,
			&m.IsActive,
			&m.CreatedAt,
			&m.CreatedBy,
			&m.LastUpdatedAt,
			&m.LastUpdatedBy,
			&debit,
			&credit,
		); err != nil {
			return nil, apperrors.NewAppError(500, "error scanning account activity row", err)
		}
		result = append(result, domain.AccountActivity{
			Account:     mapping.ToDomainAccount(m),
			DebitTotal:  debit,
			CreditTotal: credit,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating account activity rows", err)
	}
	return result, nil
}

// FindOrphanedActivity sums lines whose account does not resolve for the company.
func (r *reportingRepository) FindOrphanedActivity(ctx context.Context, companyID string, filter domain.BalanceFilter) ([]domain.OrphanedActivity, error) {
	args := queryArgs{}
	company := args.add(companyID)
	query := `
		SELECT l.account_id, COUNT(*), COALESCE(SUM(l.debit), 0), COALESCE(SUM(l.credit), 0)
		FROM ` + lineSourceSQL + `
		LEFT JOIN accounts a ON a.account_id = l.account_id AND (a.company_id = ` + company + ` OR a.company_id IS NULL)
		WHERE l.company_id = ` + company + ` AND a.account_id IS NULL AND ` + lineFilterSQL(&args, filter) + `
		GROUP BY l.account_id
		ORDER BY l.account_id;
	`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "error querying orphaned lines for company "+companyID, err)
	}
	defer rows.Close()

	result := []domain.OrphanedActivity{}
	for rows.Next() {
		var o domain.OrphanedActivity
		if err := rows.Scan(&o.AccountID, &o.LineCount, &o.DebitTotal, &o.CreditTotal); err != nil {
			return nil, apperrors.NewAppError(500, "error scanning orphaned line row", err)
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating orphaned line rows", err)
	}
	return result, nil
}
