package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ReportingRepository aggregates journal lines for balances and reports.
// Implementations return raw debit/credit sums; signing by account type is
// left to the caller. A reversal entry only counts when its original's status
// also passes the filter, so a reversed pair is either counted whole or not at all.
type ReportingRepository interface {
	// SumAccountLines sums the lines of one account under filter.
	SumAccountLines(ctx context.Context, companyID, accountID string, filter domain.BalanceFilter) (debit, credit decimal.Decimal, err error)

	// SumActivityByAccount returns every account visible to the company with the
	// sums of its lines under filter, zero for accounts without activity, ordered by code.
	SumActivityByAccount(ctx context.Context, companyID string, filter domain.BalanceFilter) ([]domain.AccountActivity, error)

	// FindOrphanedActivity returns activity on lines whose account no longer resolves.
	FindOrphanedActivity(ctx context.Context, companyID string, filter domain.BalanceFilter) ([]domain.OrphanedActivity, error)
}

// SourceDocumentRepository reads the cash-basis records (invoices, bills and
// their payments) owned by the surrounding application.
type SourceDocumentRepository interface {
	// ListCashEvents returns payments whose paid_on falls inside period, skipping
	// payments against void documents.
	ListCashEvents(ctx context.Context, companyID string, period domain.DateRange) ([]domain.CashEvent, error)

	// ListOpenItems returns non-void invoices and bills issued on or before asOf
	// with the total paid on or before asOf. Fully paid items are omitted.
	ListOpenItems(ctx context.Context, companyID string, asOf time.Time) ([]domain.OpenItem, error)
}

// ReportCache stores built reports per company. Invalidate must make every
// previously cached report of the company unreachable.
type ReportCache interface {
	Fetch(ctx context.Context, companyID string, key string, dest any, loader func(context.Context) (any, error)) error
	Invalidate(ctx context.Context, companyID string) error
}
