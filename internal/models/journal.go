package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// JournalEntry is the row shape of the journal_entries table.
type JournalEntry struct {
	EntryID      string         `db:"entry_id"`
	CompanyID    string         `db:"company_id"`
	EntryNumber  string         `db:"entry_number"`
	EntryDate    time.Time      `db:"entry_date"`
	Description  string         `db:"description"`
	Reference    sql.NullString `db:"reference"`
	Status       string         `db:"status"`
	ReversalOfID sql.NullString `db:"reversal_of_id"`
	ReversedByID sql.NullString `db:"reversed_by_id"`
	PostedAt     sql.NullTime   `db:"posted_at"`
	AuditFields
}

// JournalEntryLine is the row shape of the journal_entry_lines table.
type JournalEntryLine struct {
	LineID      string          `db:"line_id"`
	EntryID     string          `db:"entry_id"`
	CompanyID   string          `db:"company_id"`
	LineNumber  int             `db:"line_number"`
	AccountID   string          `db:"account_id"`
	Debit       decimal.Decimal `db:"debit"`
	Credit      decimal.Decimal `db:"credit"`
	Description sql.NullString  `db:"description"`
}
