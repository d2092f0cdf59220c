package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
	"github.com/SscSPs/ledger_engine/internal/models"
	"github.com/SscSPs/ledger_engine/internal/utils/mapping"
	"github.com/SscSPs/ledger_engine/internal/utils/pagination"
	"github.com/SscSPs/ledger_engine/pkg/database"
	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// txMaxRetries bounds how often a transaction is replayed after a serialization failure.
const txMaxRetries = 3

type PgxJournalRepository struct {
	BaseRepository
}

// newPgxJournalRepository creates a new repository for journal entries and their lines.
func newPgxJournalRepository(pool *pgxpool.Pool) *PgxJournalRepository {
	return &PgxJournalRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxJournalRepository implements portsrepo.JournalRepositoryFacade
var _ portsrepo.JournalRepositoryFacade = (*PgxJournalRepository)(nil)

const entryColumns = `e.entry_id, e.company_id, e.entry_number, e.entry_date, e.description, e.reference, e.status,
	e.reversal_of_id, e.reversed_by_id, e.posted_at, e.created_at, e.created_by, e.last_updated_at, e.last_updated_by`

const lineColumns = `line_id, entry_id, company_id, line_number, account_id, debit, credit, description`

func scanEntry(row rowScanner) (models.JournalEntry, error) {
	var m models.JournalEntry
	err := row.Scan(
		&m.EntryID,
		&m.CompanyID,
		&m.EntryNumber,
		&m.EntryDate,
		&m.Description,
		&m.Reference,
		&m.Status,
		&m.ReversalOfID,
		&m.ReversedByID,
		&m.PostedAt,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

// findEntry loads one entry with its lines. lock is appended to the header query.
func findEntry(ctx context.Context, q querier, companyID, entryID, lock string) (*domain.JournalEntry, error) {
	if !isUUID(entryID) {
		return nil, &apperrors.EntryNotFoundError{EntryID: entryID}
	}

	query := `SELECT ` + entryColumns + ` FROM journal_entries e WHERE e.company_id = $1 AND e.entry_id = $2 ` + lock + `;`
	m, err := scanEntry(q.QueryRow(ctx, query, companyID, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &apperrors.EntryNotFoundError{EntryID: entryID}
		}
		return nil, apperrors.NewAppError(500, "failed to find journal entry by ID "+entryID, err)
	}

	lines, err := findLinesByEntryIDs(ctx, q, []string{entryID})
	if err != nil {
		return nil, err
	}
	entry := mapping.ToDomainJournalEntry(m, lines[entryID])
	return &entry, nil
}

// findLinesByEntryIDs returns the lines of each entry ordered by line number.
func findLinesByEntryIDs(ctx context.Context, q querier, entryIDs []string) (map[string][]models.JournalEntryLine, error) {
	out := make(map[string][]models.JournalEntryLine, len(entryIDs))
	if len(entryIDs) == 0 {
		return out, nil
	}

	query := `SELECT ` + lineColumns + ` FROM journal_entry_lines WHERE entry_id = ANY($1) ORDER BY entry_id, line_number;`
	rows, err := q.Query(ctx, query, entryIDs)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query journal lines", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l models.JournalEntryLine
		if err := rows.Scan(
			&l.LineID,
			&l.EntryID,
			&l.CompanyID,
			&l.LineNumber,
			&l.AccountID,
			&l.Debit,
			&l.Credit,
			&l.Description,
		); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan journal line row", err)
		}
		out[l.EntryID] = append(out[l.EntryID], l)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating journal line rows", err)
	}
	return out, nil
}

// FindEntryByID retrieves an entry with its lines.
func (r *PgxJournalRepository) FindEntryByID(ctx context.Context, companyID, entryID string) (*domain.JournalEntry, error) {
	return findEntry(ctx, r.Pool, companyID, entryID, "")
}

// ListEntries retrieves a page of the company's entries, newest first, using keyset pagination.
// It returns the entries, a token for the next page (if any), and an error.
func (r *PgxJournalRepository) ListEntries(ctx context.Context, companyID string, q portsrepo.EntryQuery) ([]domain.JournalEntry, *string, error) {
	limit := pagination.ClampLimit(q.Limit)
	// We fetch one extra item to determine if there's a next page.
	fetchLimit := limit + 1

	args := queryArgs{}
	conds := []string{"e.company_id = " + args.add(companyID)}
	if len(q.Statuses) > 0 {
		conds = append(conds, "e.status = ANY("+args.add(statusStrings(q.Statuses))+")")
	}
	if !q.Period.Start.IsZero() {
		conds = append(conds, "e.entry_date >= "+args.add(domain.TruncateToDate(q.Period.Start)))
	}
	if !q.Period.End.IsZero() {
		conds = append(conds, "e.entry_date <= "+args.add(domain.TruncateToDate(q.Period.End)))
	}
	if q.NextToken != nil && *q.NextToken != "" {
		cursor, err := pagination.DecodeToken(*q.NextToken)
		if err != nil || !isUUID(cursor.ID) {
			return nil, nil, fmt.Errorf("%w: invalid nextToken", apperrors.ErrValidation)
		}
		// Tuple comparison keeps the ordering stable across equal dates.
		conds = append(conds, fmt.Sprintf("(e.entry_date, e.created_at, e.entry_id) < (%s, %s, %s)",
			args.add(cursor.Date), args.add(cursor.CreatedAt), args.add(cursor.ID)))
	}

	query := `SELECT ` + entryColumns + ` FROM journal_entries e WHERE ` + strings.Join(conds, " AND ") +
		` ORDER BY e.entry_date DESC, e.created_at DESC, e.entry_id DESC LIMIT ` + args.add(fetchLimit) + `;`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query journal entries for company "+companyID, err)
	}
	defer rows.Close()

	headers := make([]models.JournalEntry, 0, fetchLimit)
	for rows.Next() {
		m, err := scanEntry(rows)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan journal entry row for company "+companyID, err)
		}
		headers = append(headers, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating journal entry rows for company "+companyID, err)
	}

	var nextToken *string
	if len(headers) > limit {
		last := headers[limit-1]
		token := pagination.EncodeToken(pagination.Cursor{Date: last.EntryDate, CreatedAt: last.CreatedAt, ID: last.EntryID})
		nextToken = &token
		headers = headers[:limit]
	}

	ids := make([]string, len(headers))
	for i, h := range headers {
		ids[i] = h.EntryID
	}
	lines, err := findLinesByEntryIDs(ctx, r.Pool, ids)
	if err != nil {
		return nil, nil, err
	}

	entries := make([]domain.JournalEntry, len(headers))
	for i, h := range headers {
		entries[i] = mapping.ToDomainJournalEntry(h, lines[h.EntryID])
	}
	return entries, nextToken, nil
}

// ledgerLineCursorID packs the entry id and line number into a cursor id.
func ledgerLineCursorID(entryID string, lineNumber int) string {
	return entryID + "#" + strconv.Itoa(lineNumber)
}

func parseLedgerLineCursorID(id string) (string, int, error) {
	entryID, num, ok := strings.Cut(id, "#")
	if !ok || !isUUID(entryID) {
		return "", 0, fmt.Errorf("malformed line cursor %q", id)
	}
	n, err := strconv.Atoi(num)
	if err != nil || n <= 0 {
		return "", 0, fmt.Errorf("malformed line number in cursor %q", id)
	}
	return entryID, n, nil
}

// ListLinesByAccount returns a page of the account's lines oldest first, together
// with the sums of every matching line ordered before the page.
func (r *PgxJournalRepository) ListLinesByAccount(ctx context.Context, companyID, accountID string, q portsrepo.LineQuery) (*portsrepo.AccountLinesPage, error) {
	page := &portsrepo.AccountLinesPage{
		Lines:         []domain.AccountLedgerLine{},
		OpeningDebit:  decimal.Zero,
		OpeningCredit: decimal.Zero,
	}
	if !isUUID(accountID) {
		return page, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = pagination.DefaultLimit
	}
	fetchLimit := limit + 1

	var cursor *pagination.Cursor
	var cursorEntryID string
	var cursorLine int
	if q.NextToken != nil && *q.NextToken != "" {
		c, err := pagination.DecodeToken(*q.NextToken)
		if err == nil {
			cursorEntryID, cursorLine, err = parseLedgerLineCursorID(c.ID)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: invalid nextToken", apperrors.ErrValidation)
		}
		cursor = &c
	}

	args := queryArgs{}
	base := "l.company_id = " + args.add(companyID) + " AND l.account_id = " + args.add(accountID)
	where := base + " AND " + lineFilterSQL(&args, q.Filter)
	if cursor != nil {
		where += fmt.Sprintf(" AND (e.entry_date, e.created_at, e.entry_id, l.line_number) > (%s, %s, %s, %s)",
			args.add(cursor.Date), args.add(cursor.CreatedAt), args.add(cursorEntryID), args.add(cursorLine))
	}

	query := `
		SELECT e.entry_id, e.entry_number, e.entry_date, e.created_at, l.line_number,
		       COALESCE(l.description, e.description), l.debit, l.credit
		FROM ` + lineSourceSQL + `
		WHERE ` + where + `
		ORDER BY e.entry_date, e.created_at, e.entry_id, l.line_number
		LIMIT ` + args.add(fetchLimit) + `;`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query ledger lines for account "+accountID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var l domain.AccountLedgerLine
		if err := rows.Scan(
			&l.EntryID,
			&l.EntryNumber,
			&l.Date,
			&l.CreatedAt,
			&l.LineNumber,
			&l.Description,
			&l.Debit,
			&l.Credit,
		); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan ledger line for account "+accountID, err)
		}
		page.Lines = append(page.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating ledger lines for account "+accountID, err)
	}

	if len(page.Lines) > limit {
		last := page.Lines[limit-1]
		token := pagination.EncodeToken(pagination.Cursor{
			Date:      last.Date,
			CreatedAt: last.CreatedAt,
			ID:        ledgerLineCursorID(last.EntryID, last.LineNumber),
		})
		page.NextToken = &token
		page.Lines = page.Lines[:limit]
	}

	// Opening sums: everything ordered before the first line of this page.
	opening := domain.BalanceFilter{Statuses: q.Filter.Statuses}
	openArgs := queryArgs{}
	openWhere := "l.company_id = " + openArgs.add(companyID) + " AND l.account_id = " + openArgs.add(accountID)
	switch {
	case cursor != nil:
		openWhere += " AND " + lineFilterSQL(&openArgs, opening)
		openWhere += fmt.Sprintf(" AND (e.entry_date, e.created_at, e.entry_id, l.line_number) <= (%s, %s, %s, %s)",
			openArgs.add(cursor.Date), openArgs.add(cursor.CreatedAt), openArgs.add(cursorEntryID), openArgs.add(cursorLine))
	case !q.Filter.Period.Start.IsZero():
		opening.Period.End = domain.TruncateToDate(q.Filter.Period.Start).AddDate(0, 0, -1)
		openWhere += " AND " + lineFilterSQL(&openArgs, opening)
	default:
		return page, nil
	}

	openQuery := `SELECT COALESCE(SUM(l.debit), 0), COALESCE(SUM(l.credit), 0) FROM ` + lineSourceSQL + ` WHERE ` + openWhere + `;`
	if err := r.Pool.QueryRow(ctx, openQuery, openArgs...).Scan(&page.OpeningDebit, &page.OpeningCredit); err != nil {
		return nil, apperrors.NewAppError(500, "failed to sum opening lines for account "+accountID, err)
	}
	return page, nil
}

// WithTx runs fn in one RepeatableRead transaction. Serialization failures and
// deadlocks replay fn from the start with exponential backoff.
func (r *PgxJournalRepository) WithTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.JournalTx) error) error {
	op := func() error {
		err := database.WithTx(ctx, r.Pool, func(tx pgx.Tx) error {
			return fn(ctx, &pgxJournalTx{tx: tx})
		})
		if err != nil && !isRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 25 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond
	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, txMaxRetries), ctx))
	if err != nil && isRetryable(err) {
		return fmt.Errorf("%w: concurrent update, please retry: %v", apperrors.ErrConflict, err)
	}
	return err
}

// pgxJournalTx implements portsrepo.JournalTx on an open transaction.
type pgxJournalTx struct {
	tx pgx.Tx
}

var _ portsrepo.JournalTx = (*pgxJournalTx)(nil)

// NextEntryNumber increments the company's sequence row. The row lock is held
// until the transaction ends, so numbers are never handed out twice.
func (t *pgxJournalTx) NextEntryNumber(ctx context.Context, companyID string, year int) (string, error) {
	query := `
		INSERT INTO journal_entry_sequences (company_id, last_value)
		VALUES ($1, 1)
		ON CONFLICT (company_id) DO UPDATE SET last_value = journal_entry_sequences.last_value + 1
		RETURNING last_value;
	`
	var seq int64
	if err := t.tx.QueryRow(ctx, query, companyID).Scan(&seq); err != nil {
		return "", apperrors.NewAppError(500, "failed to reserve entry number for company "+companyID, err)
	}
	return domain.FormatEntryNumber(year, seq), nil
}

// InsertEntry persists the header and lines of entry.
func (t *pgxJournalTx) InsertEntry(ctx context.Context, entry domain.JournalEntry) error {
	m := mapping.ToModelJournalEntry(entry)

	query := `
		INSERT INTO journal_entries (
			entry_id, company_id, entry_number, entry_date, description, reference, status,
			reversal_of_id, reversed_by_id, posted_at, created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	_, err := t.tx.Exec(ctx, query,
		m.EntryID,
		m.CompanyID,
		m.EntryNumber,
		m.EntryDate,
		m.Description,
		m.Reference,
		m.Status,
		m.ReversalOfID,
		m.ReversedByID,
		m.PostedAt,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			if entry.ReversalOfID != "" {
				return &apperrors.AlreadyReversedError{EntryID: entry.ReversalOfID}
			}
			return fmt.Errorf("%w: entry number %s already exists", apperrors.ErrConflict, m.EntryNumber)
		}
		return apperrors.NewAppError(500, "failed to insert journal entry "+m.EntryID, err)
	}

	return t.insertLines(ctx, entry)
}

func (t *pgxJournalTx) insertLines(ctx context.Context, entry domain.JournalEntry) error {
	if len(entry.Lines) == 0 {
		return nil
	}
	query := `INSERT INTO journal_entry_lines (` + lineColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`

	batch := &pgx.Batch{}
	for _, l := range entry.Lines {
		ml := mapping.ToModelJournalEntryLine(entry, l)
		batch.Queue(query,
			ml.LineID,
			ml.EntryID,
			ml.CompanyID,
			ml.LineNumber,
			ml.AccountID,
			ml.Debit,
			ml.Credit,
			ml.Description,
		)
	}

	// Closing the batch surfaces the first failed insert.
	if err := t.tx.SendBatch(ctx, batch).Close(); err != nil {
		return apperrors.NewAppError(500, "failed to insert lines for journal entry "+entry.EntryID, err)
	}
	return nil
}

// FindEntryForUpdate loads an entry and locks its header row.
func (t *pgxJournalTx) FindEntryForUpdate(ctx context.Context, companyID, entryID string) (*domain.JournalEntry, error) {
	return findEntry(ctx, t.tx, companyID, entryID, "FOR UPDATE")
}

// UpdateEntryStatus applies change only if the entry is still in change.From.
func (t *pgxJournalTx) UpdateEntryStatus(ctx context.Context, change portsrepo.StatusChange) error {
	query := `
		UPDATE journal_entries
		SET status = $3,
		    reversed_by_id = COALESCE($4, reversed_by_id),
		    posted_at = COALESCE($5, posted_at),
		    last_updated_at = $6,
		    last_updated_by = $7
		WHERE company_id = $1 AND entry_id = $2 AND status = $8;
	`
	cmdTag, err := t.tx.Exec(ctx, query,
		change.CompanyID,
		change.EntryID,
		string(change.To),
		mapping.NullString(change.ReversedByID),
		mapping.NullTime(change.PostedAt),
		change.UpdatedAt,
		change.UpdatedBy,
		string(change.From),
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update status of journal entry "+change.EntryID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return &apperrors.InvalidStateTransitionError{EntryID: change.EntryID, From: string(change.From), To: string(change.To)}
	}
	return nil
}

// ReplaceDraftEntry rewrites the header and lines of a draft.
func (t *pgxJournalTx) ReplaceDraftEntry(ctx context.Context, entry domain.JournalEntry) error {
	m := mapping.ToModelJournalEntry(entry)

	query := `
		UPDATE journal_entries
		SET entry_date = $3, description = $4, reference = $5, last_updated_at = $6, last_updated_by = $7
		WHERE company_id = $1 AND entry_id = $2 AND status = 'DRAFT';
	`
	cmdTag, err := t.tx.Exec(ctx, query,
		m.CompanyID,
		m.EntryID,
		m.EntryDate,
		m.Description,
		m.Reference,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update journal entry "+m.EntryID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: journal entry %s is not a draft", apperrors.ErrConflict, m.EntryID)
	}

	if _, err := t.tx.Exec(ctx, `DELETE FROM journal_entry_lines WHERE entry_id = $1;`, m.EntryID); err != nil {
		return apperrors.NewAppError(500, "failed to clear lines of journal entry "+m.EntryID, err)
	}
	return t.insertLines(ctx, entry)
}

// DeleteDraftEntry hard-deletes a draft; lines go with it through the cascade.
func (t *pgxJournalTx) DeleteDraftEntry(ctx context.Context, companyID, entryID string) error {
	cmdTag, err := t.tx.Exec(ctx,
		`DELETE FROM journal_entries WHERE company_id = $1 AND entry_id = $2 AND status = 'DRAFT';`,
		companyID, entryID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to delete journal entry "+entryID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: journal entry %s is not a draft", apperrors.ErrConflict, entryID)
	}
	return nil
}

// FindAccountsByIDs resolves accounts and holds a share lock on them until commit,
// which blocks a concurrent delete of an account being posted to.
func (t *pgxJournalTx) FindAccountsByIDs(ctx context.Context, companyID string, accountIDs []string) (map[string]domain.Account, error) {
	return findAccountsByIDs(ctx, t.tx, companyID, accountIDs, "FOR SHARE")
}
