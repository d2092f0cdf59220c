package services

import (
	"context"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
)

// ReportingService defines operations for generating financial reports.
// Point-in-time reports read the as-of date from filter.Period.End.
type ReportingService interface {
	// BalanceSheet builds the statement of financial position as of filter.Period.End.
	BalanceSheet(ctx context.Context, filter domain.ReportFilter) (*domain.BalanceSheetReport, error)

	// IncomeStatement builds revenue and expense totals for filter.Period.
	IncomeStatement(ctx context.Context, filter domain.ReportFilter) (*domain.IncomeStatementReport, error)

	// CashFlow builds the cash-basis statement for filter.Period from payment records.
	CashFlow(ctx context.Context, filter domain.ReportFilter) (*domain.CashFlowReport, error)

	// AgingReport buckets open receivables and payables as of filter.Period.End.
	AgingReport(ctx context.Context, filter domain.ReportFilter) (*domain.AgingReport, error)

	// TrialBalance lists every account's net debit or credit as of filter.Period.End.
	TrialBalance(ctx context.Context, filter domain.ReportFilter) (*domain.TrialBalanceReport, error)
}
