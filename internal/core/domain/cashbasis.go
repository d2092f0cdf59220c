package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentType identifies the business record a payment settles.
type DocumentType string

const (
	Invoice DocumentType = "INVOICE" // receivable, payments are inflows
	Bill    DocumentType = "BILL"    // payable, payments are outflows
)

// CashActivity is the cash-flow statement bucket of a payment.
type CashActivity string

const (
	Operating CashActivity = "OPERATING"
	Investing CashActivity = "INVESTING"
	Financing CashActivity = "FINANCING"
)

// CashEvent is a settled payment against an invoice or bill.
type CashEvent struct {
	PaymentID    string          `json:"paymentID"`
	DocumentType DocumentType    `json:"documentType"`
	DocumentID   string          `json:"documentID"`
	PaidOn       time.Time       `json:"paidOn"`
	Amount       decimal.Decimal `json:"amount"`
	Activity     CashActivity    `json:"activity"`
}

// IsInflow reports whether the payment brings cash in.
func (e CashEvent) IsInflow() bool {
	return e.DocumentType == Invoice
}

// CashFlowBucket totals one activity.
type CashFlowBucket struct {
	Activity CashActivity    `json:"activity"`
	Inflows  decimal.Decimal `json:"inflows"`
	Outflows decimal.Decimal `json:"outflows"`
	Net      decimal.Decimal `json:"net"`
}

// CashFlowReport is computed from payment records, not from ledger lines.
type CashFlowReport struct {
	CompanyID   string          `json:"companyID"`
	Period      DateRange       `json:"period"`
	Operating   CashFlowBucket  `json:"operating"`
	Investing   CashFlowBucket  `json:"investing"`
	Financing   CashFlowBucket  `json:"financing"`
	NetCashFlow decimal.Decimal `json:"netCashFlow"`
}

// OpenItem is an invoice or bill with the amount paid up to the report date.
type OpenItem struct {
	DocumentType DocumentType    `json:"documentType"`
	DocumentID   string          `json:"documentID"`
	Number       string          `json:"number"`
	Counterparty string          `json:"counterparty"`
	IssueDate    time.Time       `json:"issueDate"`
	DueDate      time.Time       `json:"dueDate"`
	Total        decimal.Decimal `json:"total"`
	Paid         decimal.Decimal `json:"paid"`
}

// Outstanding is the unpaid remainder.
func (o OpenItem) Outstanding() decimal.Decimal {
	return o.Total.Sub(o.Paid)
}

// DaysPastDue counts whole days between the due date and asOf; zero or negative means current.
func (o OpenItem) DaysPastDue(asOf time.Time) int {
	return int(TruncateToDate(asOf).Sub(TruncateToDate(o.DueDate)).Hours() / 24)
}

// Aging bucket labels.
const (
	AgingCurrent = "current"
	Aging1To30   = "1-30"
	Aging31To60  = "31-60"
	Aging61To90  = "61-90"
	AgingOver90  = "90+"
)

// AgingBucketLabels lists the buckets in report order.
var AgingBucketLabels = []string{AgingCurrent, Aging1To30, Aging31To60, Aging61To90, AgingOver90}

// AgingBucketFor maps days past due to a bucket label.
func AgingBucketFor(daysPastDue int) string {
	switch {
	case daysPastDue <= 0:
		return AgingCurrent
	case daysPastDue <= 30:
		return Aging1To30
	case daysPastDue <= 60:
		return Aging31To60
	case daysPastDue <= 90:
		return Aging61To90
	default:
		return AgingOver90
	}
}

// AgingBucket totals the open items of one bucket.
type AgingBucket struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
	Count  int             `json:"count"`
}

// AgingItem is an open item placed in its bucket.
type AgingItem struct {
	OpenItem
	Outstanding decimal.Decimal `json:"outstanding"`
	DaysPastDue int             `json:"daysPastDue"`
	Bucket      string          `json:"bucket"`
}

// AgingSummary is the aging of one side (receivables or payables).
type AgingSummary struct {
	Buckets []AgingBucket   `json:"buckets"`
	Items   []AgingItem     `json:"items"`
	Total   decimal.Decimal `json:"total"`
}

// AgingReport buckets open receivables and payables by days past due.
type AgingReport struct {
	CompanyID   string       `json:"companyID"`
	AsOf        time.Time    `json:"asOf"`
	Receivables AgingSummary `json:"receivables"`
	Payables    AgingSummary `json:"payables"`
}
