package dto

import (
	"fmt"
	"time"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// JournalLineRequest is one line of a journal entry request.
type JournalLineRequest struct {
	AccountID   string          `json:"accountID" binding:"required"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description" binding:"max=500"`
}

// CreateJournalEntryRequest defines the data needed to record a journal entry.
type CreateJournalEntryRequest struct {
	Date        string               `json:"date" binding:"required,datetime=2006-01-02"`
	Description string               `json:"description" binding:"required,max=500"`
	Reference   string               `json:"reference" binding:"max=255"`
	Lines       []JournalLineRequest `json:"lines" binding:"required,min=1,dive"`
	Post        bool                 `json:"post"` // post immediately instead of leaving a draft
}

// UpdateDraftEntryRequest replaces the content of a draft entry.
type UpdateDraftEntryRequest struct {
	Date        string               `json:"date" binding:"required,datetime=2006-01-02"`
	Description string               `json:"description" binding:"required,max=500"`
	Reference   string               `json:"reference" binding:"max=255"`
	Lines       []JournalLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// RecordEventRequest is a balanced business event submitted by an upstream
// handler (expense recorded, invoice paid, payroll run). It is always posted.
type RecordEventRequest struct {
	Date        string               `json:"date" binding:"required,datetime=2006-01-02"`
	Description string               `json:"description" binding:"required,max=500"`
	Reference   string               `json:"reference" binding:"max=255"`
	Lines       []JournalLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// ToDomainLines converts request lines to domain lines numbered in request order.
func ToDomainLines(lines []JournalLineRequest) []domain.JournalEntryLine {
	out := make([]domain.JournalEntryLine, len(lines))
	for i, l := range lines {
		out[i] = domain.JournalEntryLine{
			LineNumber:  i + 1,
			AccountID:   l.AccountID,
			Debit:       l.Debit,
			Credit:      l.Credit,
			Description: l.Description,
		}
	}
	return out
}

// JournalLineResponse defines the data returned for a journal line.
type JournalLineResponse struct {
	LineID      string          `json:"lineID"`
	LineNumber  int             `json:"lineNumber"`
	AccountID   string          `json:"accountID"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description"`
}

// JournalEntryResponse defines the data returned for a journal entry.
type JournalEntryResponse struct {
	EntryID      string                `json:"entryID"`
	CompanyID    string                `json:"companyID"`
	EntryNumber  string                `json:"entryNumber"`
	Date         string                `json:"date"`
	Description  string                `json:"description"`
	Reference    string                `json:"reference,omitempty"`
	Status       domain.EntryStatus    `json:"status"`
	ReversalOfID string                `json:"reversalOfID,omitempty"`
	ReversedByID string                `json:"reversedByID,omitempty"`
	PostedAt     *time.Time            `json:"postedAt,omitempty"`
	DebitTotal   decimal.Decimal       `json:"debitTotal"`
	CreditTotal  decimal.Decimal       `json:"creditTotal"`
	Lines        []JournalLineResponse `json:"lines"`
	CreatedAt    time.Time             `json:"createdAt"`
	CreatedBy    string                `json:"createdBy"`
}

// ToJournalEntryResponse converts a domain.JournalEntry to JournalEntryResponse DTO.
func ToJournalEntryResponse(e *domain.JournalEntry) JournalEntryResponse {
	debit, credit := e.Totals()
	lines := make([]JournalLineResponse, len(e.Lines))
	for i, l := range e.Lines {
		lines[i] = JournalLineResponse{
			LineID:      l.LineID,
			LineNumber:  l.LineNumber,
			AccountID:   l.AccountID,
			Debit:       l.Debit,
			Credit:      l.Credit,
			Description: l.Description,
		}
	}
	return JournalEntryResponse{
		EntryID:      e.EntryID,
		CompanyID:    e.CompanyID,
		EntryNumber:  e.EntryNumber,
		Date:         e.Date.Format(domain.DateLayout),
		Description:  e.Description,
		Reference:    e.Reference,
		Status:       e.Status,
		ReversalOfID: e.ReversalOfID,
		ReversedByID: e.ReversedByID,
		PostedAt:     e.PostedAt,
		DebitTotal:   debit,
		CreditTotal:  credit,
		Lines:        lines,
		CreatedAt:    e.CreatedAt,
		CreatedBy:    e.CreatedBy,
	}
}

// ListJournalEntriesParams defines query parameters for listing journal entries.
type ListJournalEntriesParams struct {
	Limit     int     `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
	NextToken *string `form:"nextToken"`
	Status    string  `form:"status"` // comma separated; empty lists every status
	From      string  `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To        string  `form:"to" binding:"omitempty,datetime=2006-01-02"`
}

// ListJournalEntriesResponse wraps a page of journal entries.
type ListJournalEntriesResponse struct {
	Entries   []JournalEntryResponse `json:"entries"`
	NextToken *string                `json:"nextToken,omitempty"`
}

// ListAccountLedgerParams defines query parameters for an account's ledger lines.
type ListAccountLedgerParams struct {
	Limit     int     `form:"limit,default=50" binding:"omitempty,min=1,max=100"`
	NextToken *string `form:"nextToken"`
	From      string  `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To        string  `form:"to" binding:"omitempty,datetime=2006-01-02"`
}

// AccountLedgerResponse is a page of an account's posted lines with running balances.
type AccountLedgerResponse struct {
	AccountID      string                     `json:"accountID"`
	OpeningBalance decimal.Decimal            `json:"openingBalance"`
	Lines          []domain.AccountLedgerLine `json:"lines"`
	NextToken      *string                    `json:"nextToken,omitempty"`
}

// ParsePeriod converts optional from/to strings into a DateRange.
func ParsePeriod(from, to string) (domain.DateRange, error) {
	var r domain.DateRange
	var err error
	if from != "" {
		if r.Start, err = ParseDate(from); err != nil {
			return r, err
		}
	}
	if to != "" {
		if r.End, err = ParseDate(to); err != nil {
			return r, err
		}
	}
	return r, nil
}
