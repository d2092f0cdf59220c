package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_engine/internal/core/ports/services"
	"github.com/SscSPs/ledger_engine/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

// EarningsLineName labels the computed equity line on the balance sheet. No
// closing entries are made, so it holds every revenue and expense since inception.
const EarningsLineName = "Retained and Current Earnings"

var (
	assetCategories     = []domain.AccountCategory{domain.CurrentAsset, domain.FixedAsset, domain.OtherAsset}
	liabilityCategories = []domain.AccountCategory{domain.CurrentLiability, domain.LongTermLiability}
	equityCategories    = []domain.AccountCategory{domain.EquityCategory}
	revenueCategories   = []domain.AccountCategory{domain.OperatingRevenue, domain.OtherRevenue}
	expenseCategories   = []domain.AccountCategory{domain.CostOfSales, domain.OperatingExpense, domain.OtherExpense}
)

// reportingService implements the ReportingService interface
type reportingService struct {
	BaseService
	reportingRepo portsrepo.ReportingRepository
	documentRepo  portsrepo.SourceDocumentRepository
	now           func() time.Time
}

// ReportingServiceOption is a functional option for configuring the reporting service
type ReportingServiceOption func(*reportingService)

// WithReportingCache serves reports through cache.
func WithReportingCache(cache portsrepo.ReportCache) ReportingServiceOption {
	return func(s *reportingService) {
		s.ReportCache = cache
	}
}

// WithReportingClock overrides the clock used to default as-of dates.
func WithReportingClock(now func() time.Time) ReportingServiceOption {
	return func(s *reportingService) {
		s.now = now
	}
}

// NewReportingService creates a new reporting service with the provided options
func NewReportingService(reportingRepo portsrepo.ReportingRepository, documentRepo portsrepo.SourceDocumentRepository, options ...ReportingServiceOption) portssvc.ReportingService {
	svc := &reportingService{
		reportingRepo: reportingRepo,
		documentRepo:  documentRepo,
		now:           time.Now,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

// Ensure reportingService implements the ReportingService interface
var _ portssvc.ReportingService = (*reportingService)(nil)

// cachedReport serves a report from the cache, building it on a miss.
func cachedReport[T any](ctx context.Context, s *reportingService, companyID, key string, build func(context.Context) (*T, error)) (*T, error) {
	if s.ReportCache == nil {
		return build(ctx)
	}
	var out T
	err := s.ReportCache.Fetch(ctx, companyID, key, &out, func(ctx context.Context) (any, error) {
		return build(ctx)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// reportKey identifies a report by kind, period and effective statuses.
func reportKey(kind string, period domain.DateRange, statuses []domain.EntryStatus) string {
	parts := make([]string, len(statuses))
	for i, st := range statuses {
		parts[i] = string(st)
	}
	return fmt.Sprintf("%s:%s:%s:%s", kind, formatDate(period.Start), formatDate(period.End), strings.Join(parts, ","))
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(domain.DateLayout)
}

// asOf resolves the point-in-time date of a report, defaulting to today.
func (s *reportingService) asOf(filter domain.ReportFilter) time.Time {
	if filter.Period.End.IsZero() {
		return domain.TruncateToDate(s.now().UTC())
	}
	return domain.TruncateToDate(filter.Period.End)
}

func newSections(categories []domain.AccountCategory) map[domain.AccountCategory]*domain.ReportSection {
	out := make(map[domain.AccountCategory]*domain.ReportSection, len(categories))
	for _, c := range categories {
		out[c] = &domain.ReportSection{Category: c, Lines: []domain.ReportLine{}, Total: decimal.Zero}
	}
	return out
}

// addLine places the account in the section of its category, falling back to
// the type's default category for legacy rows.
func addLine(sections map[domain.AccountCategory]*domain.ReportSection, a domain.AccountActivity, balance decimal.Decimal) {
	section, ok := sections[a.Category]
	if !ok {
		section = sections[domain.DefaultCategory(a.AccountType)]
	}
	section.Lines = append(section.Lines, domain.ReportLine{
		AccountID: a.AccountID,
		Code:      a.Code,
		Name:      a.Name,
		Balance:   balance,
	})
	section.Total = section.Total.Add(balance)
}

func orderedSections(categories []domain.AccountCategory, sections map[domain.AccountCategory]*domain.ReportSection) ([]domain.ReportSection, decimal.Decimal) {
	out := make([]domain.ReportSection, 0, len(categories))
	total := decimal.Zero
	for _, c := range categories {
		out = append(out, *sections[c])
		total = total.Add(sections[c].Total)
	}
	return out, total
}

// orphanWarnings loads activity on lines whose account no longer resolves.
func (s *reportingService) orphanWarnings(ctx context.Context, companyID string, filter domain.BalanceFilter) ([]domain.IntegrityWarning, error) {
	orphans, err := s.reportingRepo.FindOrphanedActivity(ctx, companyID, filter)
	if err != nil {
		return nil, err
	}
	warnings := make([]domain.IntegrityWarning, 0, len(orphans))
	for _, o := range orphans {
		warnings = append(warnings, domain.IntegrityWarning{
			Code:      domain.WarningOrphanedLines,
			Message:   fmt.Sprintf("%d journal lines reference missing account %s", o.LineCount, o.AccountID),
			AccountID: o.AccountID,
			Amount:    o.DebitTotal.Sub(o.CreditTotal),
		})
	}
	if len(warnings) > 0 {
		s.GetLogger(ctx).WarnContext(ctx, "Orphaned journal lines found", slog.String("company_id", companyID), slog.Int("accounts", len(warnings)))
	}
	return warnings, nil
}

// BalanceSheet generates a balance sheet report as of filter.Period.End
func (s *reportingService) BalanceSheet(ctx context.Context, filter domain.ReportFilter) (*domain.BalanceSheetReport, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	asOf := s.asOf(filter)
	balanceFilter := domain.BalanceFilter{Period: domain.Through(asOf), Statuses: filter.Statuses}
	key := reportKey("balance-sheet", balanceFilter.Period, balanceFilter.EffectiveStatuses())

	return cachedReport(ctx, s, filter.CompanyID, key, func(ctx context.Context) (*domain.BalanceSheetReport, error) {
		activity, err := s.reportingRepo.SumActivityByAccount(ctx, filter.CompanyID, balanceFilter)
		if err != nil {
			s.LogError(ctx, err, "Failed to retrieve balance sheet data",
				slog.String("company_id", filter.CompanyID),
				slog.String("asOf", asOf.Format(domain.DateLayout)))
			return nil, fmt.Errorf("failed to retrieve balance sheet data: %w", err)
		}

		assets := newSections(assetCategories)
		liabilities := newSections(liabilityCategories)
		equity := newSections(equityCategories)
		revenue, expense := decimal.Zero, decimal.Zero
		for _, a := range activity {
			balance := accounting.SignedBalance(a.AccountType, a.DebitTotal, a.CreditTotal)
			switch a.AccountType {
			case domain.Revenue:
				revenue = revenue.Add(balance)
				continue
			case domain.Expense:
				expense = expense.Add(balance)
				continue
			}
			if !a.IsActive && balance.IsZero() {
				continue
			}
			switch a.AccountType {
			case domain.Asset:
				addLine(assets, a, balance)
			case domain.Liability:
				addLine(liabilities, a, balance)
			case domain.Equity:
				addLine(equity, a, balance)
			}
		}

		earnings := revenue.Sub(expense)
		equitySection := equity[domain.EquityCategory]
		equitySection.Lines = append(equitySection.Lines, domain.ReportLine{Name: EarningsLineName, Balance: earnings})
		equitySection.Total = equitySection.Total.Add(earnings)

		report := &domain.BalanceSheetReport{
			CompanyID:       filter.CompanyID,
			AsOf:            asOf,
			CurrentEarnings: earnings,
			TotalCurrent:    assets[domain.CurrentAsset].Total,
		}
		report.Assets, report.TotalAssets = orderedSections(assetCategories, assets)
		report.Liabilities, report.TotalLiabilities = orderedSections(liabilityCategories, liabilities)
		report.Equity, report.TotalEquity = orderedSections(equityCategories, equity)

		report.Warnings, err = s.orphanWarnings(ctx, filter.CompanyID, balanceFilter)
		if err != nil {
			return nil, fmt.Errorf("failed to check orphaned lines: %w", err)
		}
		gap := report.TotalAssets.Sub(report.TotalLiabilities.Add(report.TotalEquity))
		if !accounting.WithinTolerance(gap, decimal.Zero) {
			report.Warnings = append(report.Warnings, domain.IntegrityWarning{
				Code:    domain.WarningBalanceSheetImbalance,
				Message: fmt.Sprintf("assets differ from liabilities plus equity by %s", gap.StringFixed(2)),
				Amount:  gap,
			})
		}

		s.LogInfo(ctx, "Balance sheet report generated successfully",
			slog.String("company_id", filter.CompanyID),
			slog.String("asOf", asOf.Format(domain.DateLayout)),
			slog.Int("warnings", len(report.Warnings)))
		return report, nil
	})
}

// IncomeStatement generates revenue and expense totals for filter.Period
func (s *reportingService) IncomeStatement(ctx context.Context, filter domain.ReportFilter) (*domain.IncomeStatementReport, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	balanceFilter := filter.Balance()
	key := reportKey("income-statement", balanceFilter.Period, balanceFilter.EffectiveStatuses())

	return cachedReport(ctx, s, filter.CompanyID, key, func(ctx context.Context) (*domain.IncomeStatementReport, error) {
		activity, err := s.reportingRepo.SumActivityByAccount(ctx, filter.CompanyID, balanceFilter)
		if err != nil {
			s.LogError(ctx, err, "Failed to retrieve income statement data",
				slog.String("company_id", filter.CompanyID),
				slog.String("from", formatDate(filter.Period.Start)),
				slog.String("to", formatDate(filter.Period.End)))
			return nil, fmt.Errorf("failed to retrieve income statement data: %w", err)
		}

		revenue := newSections(revenueCategories)
		expenses := newSections(expenseCategories)
		for _, a := range activity {
			balance := accounting.SignedBalance(a.AccountType, a.DebitTotal, a.CreditTotal)
			if balance.IsZero() {
				continue
			}
			switch a.AccountType {
			case domain.Revenue:
				addLine(revenue, a, balance)
			case domain.Expense:
				addLine(expenses, a, balance)
			}
		}

		report := &domain.IncomeStatementReport{CompanyID: filter.CompanyID, Period: filter.Period}
		report.Revenue, report.TotalRevenue = orderedSections(revenueCategories, revenue)
		report.Expenses, report.TotalExpense = orderedSections(expenseCategories, expenses)
		report.NetIncome = report.TotalRevenue.Sub(report.TotalExpense)

		report.Warnings, err = s.orphanWarnings(ctx, filter.CompanyID, balanceFilter)
		if err != nil {
			return nil, fmt.Errorf("failed to check orphaned lines: %w", err)
		}

		s.LogInfo(ctx, "Income statement report generated successfully",
			slog.String("company_id", filter.CompanyID),
			slog.String("from", formatDate(filter.Period.Start)),
			slog.String("to", formatDate(filter.Period.End)),
			slog.String("net_income", report.NetIncome.StringFixed(2)))
		return report, nil
	})
}

// CashFlow builds the cash-basis statement from payment records in filter.Period.
// Entry statuses do not apply: payments are not journal lines. Payments and
// documents are written outside the ledger, so the report is never cached.
func (s *reportingService) CashFlow(ctx context.Context, filter domain.ReportFilter) (*domain.CashFlowReport, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	events, err := s.documentRepo.ListCashEvents(ctx, filter.CompanyID, filter.Period)
	if err != nil {
		s.LogError(ctx, err, "Failed to retrieve cash events", slog.String("company_id", filter.CompanyID))
		return nil, fmt.Errorf("failed to retrieve cash events: %w", err)
	}

	buckets := map[domain.CashActivity]*domain.CashFlowBucket{
		domain.Operating: {Activity: domain.Operating, Inflows: decimal.Zero, Outflows: decimal.Zero},
		domain.Investing: {Activity: domain.Investing, Inflows: decimal.Zero, Outflows: decimal.Zero},
		domain.Financing: {Activity: domain.Financing, Inflows: decimal.Zero, Outflows: decimal.Zero},
	}
	for _, e := range events {
		bucket, ok := buckets[e.Activity]
		if !ok {
			bucket = buckets[domain.Operating]
		}
		if e.IsInflow() {
			bucket.Inflows = bucket.Inflows.Add(e.Amount)
		} else {
			bucket.Outflows = bucket.Outflows.Add(e.Amount)
		}
	}

	report := &domain.CashFlowReport{CompanyID: filter.CompanyID, Period: filter.Period, NetCashFlow: decimal.Zero}
	for _, b := range buckets {
		b.Net = b.Inflows.Sub(b.Outflows)
		report.NetCashFlow = report.NetCashFlow.Add(b.Net)
	}
	report.Operating = *buckets[domain.Operating]
	report.Investing = *buckets[domain.Investing]
	report.Financing = *buckets[domain.Financing]

	s.LogInfo(ctx, "Cash flow report generated successfully",
		slog.String("company_id", filter.CompanyID),
		slog.Int("payments", len(events)))
	return report, nil
}

func newAgingSummary() domain.AgingSummary {
	buckets := make([]domain.AgingBucket, len(domain.AgingBucketLabels))
	for i, label := range domain.AgingBucketLabels {
		buckets[i] = domain.AgingBucket{Label: label, Amount: decimal.Zero}
	}
	return domain.AgingSummary{Buckets: buckets, Items: []domain.AgingItem{}, Total: decimal.Zero}
}

func addAgingItem(summary *domain.AgingSummary, item domain.AgingItem) {
	for i := range summary.Buckets {
		if summary.Buckets[i].Label == item.Bucket {
			summary.Buckets[i].Amount = summary.Buckets[i].Amount.Add(item.Outstanding)
			summary.Buckets[i].Count++
			break
		}
	}
	summary.Items = append(summary.Items, item)
	summary.Total = summary.Total.Add(item.Outstanding)
}

// AgingReport buckets open receivables and payables by days past due as of filter.Period.End.
// Like CashFlow it reads documents the ledger does not own and is built fresh on every call.
func (s *reportingService) AgingReport(ctx context.Context, filter domain.ReportFilter) (*domain.AgingReport, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	asOf := s.asOf(filter)

	items, err := s.documentRepo.ListOpenItems(ctx, filter.CompanyID, asOf)
	if err != nil {
		s.LogError(ctx, err, "Failed to retrieve open items", slog.String("company_id", filter.CompanyID))
		return nil, fmt.Errorf("failed to retrieve open items: %w", err)
	}

	report := &domain.AgingReport{
		CompanyID:   filter.CompanyID,
		AsOf:        asOf,
		Receivables: newAgingSummary(),
		Payables:    newAgingSummary(),
	}
	for _, it := range items {
		outstanding := it.Outstanding()
		if !outstanding.IsPositive() {
			continue
		}
		days := it.DaysPastDue(asOf)
		item := domain.AgingItem{
			OpenItem:    it,
			Outstanding: outstanding,
			DaysPastDue: days,
			Bucket:      domain.AgingBucketFor(days),
		}
		if it.DocumentType == domain.Invoice {
			addAgingItem(&report.Receivables, item)
		} else {
			addAgingItem(&report.Payables, item)
		}
	}

	s.LogInfo(ctx, "Aging report generated successfully",
		slog.String("company_id", filter.CompanyID),
		slog.String("asOf", asOf.Format(domain.DateLayout)),
		slog.Int("open_items", len(items)))
	return report, nil
}

// TrialBalance lists each account's net position in its debit or credit column as of filter.Period.End
func (s *reportingService) TrialBalance(ctx context.Context, filter domain.ReportFilter) (*domain.TrialBalanceReport, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	asOf := s.asOf(filter)
	balanceFilter := domain.BalanceFilter{Period: domain.Through(asOf), Statuses: filter.Statuses}
	key := reportKey("trial-balance", balanceFilter.Period, balanceFilter.EffectiveStatuses())

	return cachedReport(ctx, s, filter.CompanyID, key, func(ctx context.Context) (*domain.TrialBalanceReport, error) {
		activity, err := s.reportingRepo.SumActivityByAccount(ctx, filter.CompanyID, balanceFilter)
		if err != nil {
			s.LogError(ctx, err, "Failed to retrieve trial balance data",
				slog.String("company_id", filter.CompanyID),
				slog.String("asOf", asOf.Format(domain.DateLayout)))
			return nil, fmt.Errorf("failed to retrieve trial balance data: %w", err)
		}

		report := &domain.TrialBalanceReport{
			CompanyID:   filter.CompanyID,
			AsOf:        asOf,
			Rows:        []domain.TrialBalanceRow{},
			TotalDebit:  decimal.Zero,
			TotalCredit: decimal.Zero,
		}
		for _, a := range activity {
			balance := accounting.SignedBalance(a.AccountType, a.DebitTotal, a.CreditTotal)
			if balance.IsZero() {
				continue
			}
			row := domain.TrialBalanceRow{
				AccountID:   a.AccountID,
				Code:        a.Code,
				AccountName: a.Name,
				AccountType: a.AccountType,
				Debit:       decimal.Zero,
				Credit:      decimal.Zero,
			}
			// A balance against the normal side lands in the opposite column.
			debitSide := domain.NormalBalanceSign(a.AccountType) > 0
			if balance.IsNegative() {
				debitSide = !debitSide
			}
			if debitSide {
				row.Debit = balance.Abs()
			} else {
				row.Credit = balance.Abs()
			}
			report.TotalDebit = report.TotalDebit.Add(row.Debit)
			report.TotalCredit = report.TotalCredit.Add(row.Credit)
			report.Rows = append(report.Rows, row)
		}

		report.Warnings, err = s.orphanWarnings(ctx, filter.CompanyID, balanceFilter)
		if err != nil {
			return nil, fmt.Errorf("failed to check orphaned lines: %w", err)
		}
		if !accounting.WithinTolerance(report.TotalDebit, report.TotalCredit) {
			gap := report.TotalDebit.Sub(report.TotalCredit)
			report.Warnings = append(report.Warnings, domain.IntegrityWarning{
				Code:    domain.WarningTrialBalanceImbalance,
				Message: fmt.Sprintf("debits differ from credits by %s", gap.StringFixed(2)),
				Amount:  gap,
			})
		}

		s.LogInfo(ctx, "Trial balance report generated successfully",
			slog.String("company_id", filter.CompanyID),
			slog.String("asOf", asOf.Format(domain.DateLayout)),
			slog.Int("row_count", len(report.Rows)))
		return report, nil
	})
}
