package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
	"github.com/SscSPs/ledger_engine/internal/models"
	"github.com/SscSPs/ledger_engine/internal/utils/mapping"
	"github.com/SscSPs/ledger_engine/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxAccountRepository struct {
	BaseRepository
}

// newPgxAccountRepository creates a new repository for account data.
func newPgxAccountRepository(pool *pgxpool.Pool) *PgxAccountRepository {
	return &PgxAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxAccountRepository implements portsrepo.AccountRepositoryFacade
var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

const accountColumns = `account_id, company_id, code, name, account_type, category, parent_account_id,
	description, is_active, created_at, created_by, last_updated_at, last_updated_by`

// visibleToCompany restricts accounts to the company's own plus shared system accounts.
const visibleToCompany = `(company_id = $1 OR company_id IS NULL)`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (domain.Account, error) {
	var m models.Account
	err := row.Scan(
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
	)
	if err != nil {
		return domain.Account{}, err
	}
	return mapping.ToDomainAccount(m), nil
}

// SaveAccount inserts a new account.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	m := mapping.ToModelAccount(account)

	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.AccountID,
		m.CompanyID,
		m.Code,
		m.Name,
		m.AccountType,
		m.Category,
		m.ParentAccountID,
		m.Description,
		m.IsActive,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		switch pgErrorCode(err) {
		case pgUniqueViolation:
			return &apperrors.DuplicateCodeError{Code: m.Code}
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: parent account %s does not exist", apperrors.ErrValidation, m.ParentAccountID.String)
		}
		return apperrors.NewAppError(500, "failed to save account "+m.AccountID, err)
	}
	return nil
}

// FindAccountByID retrieves an account visible to companyID.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, companyID, accountID string) (*domain.Account, error) {
	if !isUUID(accountID) {
		return nil, &apperrors.AccountNotFoundError{AccountID: accountID}
	}
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE ` + visibleToCompany + ` AND account_id = $2;`

	acc, err := scanAccount(r.Pool.QueryRow(ctx, query, companyID, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &apperrors.AccountNotFoundError{AccountID: accountID}
		}
		return nil, apperrors.NewAppError(500, "failed to find account by ID "+accountID, err)
	}
	return &acc, nil
}

// FindAccountsByIDs retrieves the visible accounts among accountIDs.
func (r *PgxAccountRepository) FindAccountsByIDs(ctx context.Context, companyID string, accountIDs []string) (map[string]domain.Account, error) {
	return findAccountsByIDs(ctx, r.Pool, companyID, accountIDs, "")
}

// findAccountsByIDs is shared with the journal transaction, which passes a row lock clause.
func findAccountsByIDs(ctx context.Context, q querier, companyID string, accountIDs []string, lock string) (map[string]domain.Account, error) {
	ids := filterUUIDs(accountIDs)
	if len(ids) == 0 {
		return map[string]domain.Account{}, nil
	}

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE ` + visibleToCompany + ` AND account_id = ANY($2) ` + lock + `;`
	rows, err := q.Query(ctx, query, companyID, ids)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query accounts by IDs", err)
	}
	defer rows.Close()

	accounts := make(map[string]domain.Account, len(ids))
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan account row during batch fetch", err)
		}
		accounts[acc.AccountID] = acc
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating account rows during batch fetch", err)
	}

	// Missing ids are absent from the map; the caller decides whether that is an error.
	return accounts, nil
}

// ListAccounts returns the company's chart of accounts, system accounts included, ordered by code.
func (r *PgxAccountRepository) ListAccounts(ctx context.Context, companyID string, includeInactive bool) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE ` + visibleToCompany
	if !includeInactive {
		query += ` AND is_active = TRUE`
	}
	query += ` ORDER BY code, account_id;`

	rows, err := r.Pool.Query(ctx, query, companyID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query accounts for company "+companyID, err)
	}
	defer rows.Close()

	accounts := []domain.Account{}
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan account row for company "+companyID, err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating account rows for company "+companyID, err)
	}
	return accounts, nil
}

// accountWriteTx is read committed so the line count, taken after the row
// lock, sees every posting that committed while the lock was awaited.
var accountWriteTx = pgx.TxOptions{IsoLevel: pgx.ReadCommitted}

// lockAccountQuery takes the row lock that posting transactions contend for
// with FOR SHARE. It returns the stored account type.
const lockAccountQuery = `SELECT account_type FROM accounts
	WHERE account_id = $2 AND company_id IS NOT DISTINCT FROM $1 FOR UPDATE;`

const countLinesQuery = `SELECT COUNT(*) FROM journal_entry_lines WHERE account_id = $1;`

func lockAccount(ctx context.Context, q querier, companyID, accountID string) (domain.AccountType, error) {
	var accountType string
	err := q.QueryRow(ctx, lockAccountQuery, mapping.NullString(companyID), accountID).Scan(&accountType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", &apperrors.AccountNotFoundError{AccountID: accountID}
		}
		return "", apperrors.NewAppError(500, "failed to lock account "+accountID, err)
	}
	return domain.AccountType(accountType), nil
}

// countLines counts journal lines referencing the account in any status.
func countLines(ctx context.Context, q querier, accountID string) (int64, error) {
	var n int64
	if err := q.QueryRow(ctx, countLinesQuery, accountID).Scan(&n); err != nil {
		return 0, apperrors.NewAppError(500, "failed to count lines for account "+accountID, err)
	}
	return n, nil
}

// UpdateAccount updates the mutable fields of an existing account.
// Shared system accounts can only be changed through a system-scoped call (empty company).
// A type change is refused once any line references the account.
func (r *PgxAccountRepository) UpdateAccount(ctx context.Context, account domain.Account) error {
	if !isUUID(account.AccountID) {
		return &apperrors.AccountNotFoundError{AccountID: account.AccountID}
	}
	m := mapping.ToModelAccount(account)

	query := `
		UPDATE accounts
		SET name = $3, account_type = $4, category = $5, parent_account_id = $6, description = $7,
		    is_active = $8, last_updated_at = $9, last_updated_by = $10
		WHERE account_id = $1 AND company_id IS NOT DISTINCT FROM $2;
	`
	return database.WithTxOptions(ctx, r.Pool, accountWriteTx, func(tx pgx.Tx) error {
		currentType, err := lockAccount(ctx, tx, account.CompanyID, account.AccountID)
		if err != nil {
			return err
		}
		if currentType != account.AccountType {
			lines, err := countLines(ctx, tx, account.AccountID)
			if err != nil {
				return err
			}
			if lines > 0 {
				return &apperrors.AccountInUseError{AccountID: account.AccountID, LineCount: lines}
			}
		}

		cmdTag, err := tx.Exec(ctx, query,
			m.AccountID,
			m.CompanyID,
			m.Name,
			m.AccountType,
			m.Category,
			m.ParentAccountID,
			m.Description,
			m.IsActive,
			m.LastUpdatedAt,
			m.LastUpdatedBy,
		)
		if err != nil {
			if pgErrorCode(err) == pgForeignKeyViolation {
				return fmt.Errorf("%w: parent account %s does not exist", apperrors.ErrValidation, m.ParentAccountID.String)
			}
			return apperrors.NewAppError(500, "failed to execute update account "+m.AccountID, err)
		}
		if cmdTag.RowsAffected() == 0 {
			return &apperrors.AccountNotFoundError{AccountID: m.AccountID}
		}
		return nil
	})
}

// DeleteAccount hard-deletes an account owned by the company.
// Lines carry no foreign key, so the account row is locked before counting them.
func (r *PgxAccountRepository) DeleteAccount(ctx context.Context, companyID, accountID string) error {
	if !isUUID(accountID) {
		return &apperrors.AccountNotFoundError{AccountID: accountID}
	}

	return database.WithTxOptions(ctx, r.Pool, accountWriteTx, func(tx pgx.Tx) error {
		if _, err := lockAccount(ctx, tx, companyID, accountID); err != nil {
			return err
		}
		lines, err := countLines(ctx, tx, accountID)
		if err != nil {
			return err
		}
		if lines > 0 {
			return &apperrors.AccountInUseError{AccountID: accountID, LineCount: lines}
		}

		if _, err := tx.Exec(ctx, `DELETE FROM accounts WHERE account_id = $1;`, accountID); err != nil {
			if pgErrorCode(err) == pgForeignKeyViolation {
				return fmt.Errorf("%w: account %s has child accounts", apperrors.ErrConflict, accountID)
			}
			return apperrors.NewAppError(500, "failed to delete account "+accountID, err)
		}
		return nil
	})
}
