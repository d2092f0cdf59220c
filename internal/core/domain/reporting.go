package domain

import (
	"time"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/shopspring/decimal"
)

// BalanceFilter selects which lines count toward a balance.
type BalanceFilter struct {
	Period   DateRange
	Statuses []EntryStatus
}

// EffectiveStatuses returns the status filter, defaulting to POSTED only.
func (f BalanceFilter) EffectiveStatuses() []EntryStatus {
	if len(f.Statuses) == 0 {
		return []EntryStatus{Posted}
	}
	return f.Statuses
}

// Includes reports whether status s passes the filter.
func (f BalanceFilter) Includes(s EntryStatus) bool {
	for _, st := range f.EffectiveStatuses() {
		if st == s {
			return true
		}
	}
	return false
}

// ReportFilter is the typed parameter set shared by every report.
type ReportFilter struct {
	CompanyID string
	Period    DateRange
	Statuses  []EntryStatus
}

// Validate is run at the service boundary before any query is issued.
func (f ReportFilter) Validate() error {
	if f.CompanyID == "" {
		return &apperrors.MissingTenantError{}
	}
	return f.Period.Validate()
}

// Balance returns the balance filter equivalent of the report filter.
func (f ReportFilter) Balance() BalanceFilter {
	return BalanceFilter{Period: f.Period, Statuses: f.Statuses}
}

// AccountActivity is the raw debit/credit sum of one account over a filter.
// Balances are derived from it with the account type's normal-balance sign.
type AccountActivity struct {
	Account
	DebitTotal  decimal.Decimal `json:"debitTotal"`
	CreditTotal decimal.Decimal `json:"creditTotal"`
}

// OrphanedActivity is activity on lines whose account no longer resolves.
type OrphanedActivity struct {
	AccountID   string
	LineCount   int64
	DebitTotal  decimal.Decimal
	CreditTotal decimal.Decimal
}

// Warning codes attached to reports.
const (
	WarningBalanceSheetImbalance = "BALANCE_SHEET_IMBALANCE"
	WarningTrialBalanceImbalance = "TRIAL_BALANCE_IMBALANCE"
	WarningOrphanedLines         = "ORPHANED_LINES"
)

// IntegrityWarning flags inconsistent historical data without failing the report.
type IntegrityWarning struct {
	Code      string          `json:"code"`
	Message   string          `json:"message"`
	AccountID string          `json:"accountID,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
}

// ReportLine is one account's balance on a statement.
type ReportLine struct {
	AccountID string          `json:"accountID"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
}

// ReportSection groups lines of one category.
type ReportSection struct {
	Category AccountCategory `json:"category"`
	Lines    []ReportLine    `json:"lines"`
	Total    decimal.Decimal `json:"total"`
}

// BalanceSheetReport is a point-in-time statement of financial position.
type BalanceSheetReport struct {
	CompanyID        string             `json:"companyID"`
	AsOf             time.Time          `json:"asOf"`
	Assets           []ReportSection    `json:"assets"`
	Liabilities      []ReportSection    `json:"liabilities"`
	Equity           []ReportSection    `json:"equity"`
	CurrentEarnings  decimal.Decimal    `json:"currentEarnings"` // revenue less expense since inception
	TotalAssets      decimal.Decimal    `json:"totalAssets"`
	TotalCurrent     decimal.Decimal    `json:"totalCurrentAssets"`
	TotalLiabilities decimal.Decimal    `json:"totalLiabilities"`
	TotalEquity      decimal.Decimal    `json:"totalEquity"`
	Warnings         []IntegrityWarning `json:"warnings"`
}

// IncomeStatementReport covers revenue and expense over a period.
type IncomeStatementReport struct {
	CompanyID    string             `json:"companyID"`
	Period       DateRange          `json:"period"`
	Revenue      []ReportSection    `json:"revenue"`
	Expenses     []ReportSection    `json:"expenses"`
	TotalRevenue decimal.Decimal    `json:"totalRevenue"`
	TotalExpense decimal.Decimal    `json:"totalExpense"`
	NetIncome    decimal.Decimal    `json:"netIncome"`
	Warnings     []IntegrityWarning `json:"warnings"`
}

// TrialBalanceRow represents a single row in a trial balance report.
type TrialBalanceRow struct {
	AccountID   string          `json:"accountID"`
	Code        string          `json:"code"`
	AccountName string          `json:"accountName"`
	AccountType AccountType     `json:"accountType"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// TrialBalanceReport lists every account's net position in the debit or credit column.
type TrialBalanceReport struct {
	CompanyID   string             `json:"companyID"`
	AsOf        time.Time          `json:"asOf"`
	Rows        []TrialBalanceRow  `json:"rows"`
	TotalDebit  decimal.Decimal    `json:"totalDebit"`
	TotalCredit decimal.Decimal    `json:"totalCredit"`
	Warnings    []IntegrityWarning `json:"warnings"`
}

// AccountLedgerLine is one posted line of an account with the running balance after it.
type AccountLedgerLine struct {
	EntryID        string          `json:"entryID"`
	EntryNumber    string          `json:"entryNumber"`
	Date           time.Time       `json:"date"`
	LineNumber     int             `json:"lineNumber"`
	Description    string          `json:"description"`
	Debit          decimal.Decimal `json:"debit"`
	Credit         decimal.Decimal `json:"credit"`
	RunningBalance decimal.Decimal `json:"runningBalance"`
	CreatedAt      time.Time       `json:"createdAt"`
}
