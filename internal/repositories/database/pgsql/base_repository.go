package pgsql

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres error codes the repositories translate.
const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	Pool *pgxpool.Pool
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx so read helpers can
// run inside or outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

var (
	_ querier = (*pgxpool.Pool)(nil)
	_ querier = (pgx.Tx)(nil)
)

// pgErrorCode returns the SQLSTATE of err, or "" if err is not a Postgres error.
func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isRetryable reports whether a transaction failed only because of concurrent access.
func isRetryable(err error) bool {
	code := pgErrorCode(err)
	return code == pgSerializationFailure || code == pgDeadlockDetected
}

// isUUID guards uuid columns against ids that could never match.
func isUUID(id string) bool {
	return uuid.Validate(id) == nil
}

// filterUUIDs drops ids that are not uuids; such ids simply resolve to nothing.
func filterUUIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if isUUID(id) {
			out = append(out, id)
		}
	}
	return out
}

// queryArgs accumulates positional arguments while a query is assembled.
type queryArgs []any

// add appends v and returns its placeholder.
func (a *queryArgs) add(v any) string {
	*a = append(*a, v)
	return "$" + strconv.Itoa(len(*a))
}

func statusStrings(statuses []domain.EntryStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// lineFilterSQL renders the conditions selecting journal lines for a balance.
// The query must alias journal_entries as e and LEFT JOIN the reversed
// original as o. A reversal entry only passes when its original also does, so
// a reversed pair is counted together or not at all.
func lineFilterSQL(args *queryArgs, filter domain.BalanceFilter) string {
	statuses := args.add(statusStrings(filter.EffectiveStatuses()))
	conds := []string{
		"e.status = ANY(" + statuses + ")",
		"(e.reversal_of_id IS NULL OR o.status = ANY(" + statuses + "))",
	}
	if !filter.Period.Start.IsZero() {
		conds = append(conds, "e.entry_date >= "+args.add(domain.TruncateToDate(filter.Period.Start)))
	}
	if !filter.Period.End.IsZero() {
		conds = append(conds, "e.entry_date <= "+args.add(domain.TruncateToDate(filter.Period.End)))
	}
	return strings.Join(conds, " AND ")
}

// lineSourceSQL joins a line to its entry and, for reversals, the original entry.
const lineSourceSQL = `
	journal_entry_lines l
	JOIN journal_entries e ON e.entry_id = l.entry_id
	LEFT JOIN journal_entries o ON o.entry_id = e.reversal_of_id`
