package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus indicates the lifecycle state of a journal entry.
type EntryStatus string

const (
	Draft    EntryStatus = "DRAFT"
	Posted   EntryStatus = "POSTED"
	Reversed EntryStatus = "REVERSED"
)

// ReversalReferencePrefix marks the reference of an entry generated by a reversal.
const ReversalReferencePrefix = "REVERSAL:"

// ReversalDescriptionPrefix is prepended to the original description on a reversal.
const ReversalDescriptionPrefix = "Reversal of "

// IsValid reports whether s is a known status.
func (s EntryStatus) IsValid() bool {
	switch s {
	case Draft, Posted, Reversed:
		return true
	}
	return false
}

// CanTransitionTo encodes DRAFT -> POSTED -> REVERSED. No state is skipped and
// REVERSED is terminal.
func (s EntryStatus) CanTransitionTo(next EntryStatus) bool {
	switch s {
	case Draft:
		return next == Posted
	case Posted:
		return next == Reversed
	}
	return false
}

// ParseStatuses parses a comma separated status list, e.g. "POSTED,DRAFT".
func ParseStatuses(raw string) ([]EntryStatus, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]EntryStatus, 0, len(parts))
	for _, p := range parts {
		s := EntryStatus(strings.ToUpper(strings.TrimSpace(p)))
		if !s.IsValid() {
			return nil, fmt.Errorf("unknown entry status %q", p)
		}
		out = append(out, s)
	}
	return out, nil
}

// JournalEntryLine is a single debit/credit line of an entry. Lines are owned
// by their entry and have no lifecycle of their own.
type JournalEntryLine struct {
	LineID      string          `json:"lineID"`
	EntryID     string          `json:"entryID"`
	LineNumber  int             `json:"lineNumber"`
	AccountID   string          `json:"accountID"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description"`
}

// JournalEntry is a balanced set of lines recorded against a company's ledger.
type JournalEntry struct {
	EntryID      string             `json:"entryID"`
	CompanyID    string             `json:"companyID"`
	EntryNumber  string             `json:"entryNumber"`
	Date         time.Time          `json:"date"`
	Description  string             `json:"description"`
	Reference    string             `json:"reference"`
	Status       EntryStatus        `json:"status"`
	ReversalOfID string             `json:"reversalOfID,omitempty"`
	ReversedByID string             `json:"reversedByID,omitempty"`
	PostedAt     *time.Time         `json:"postedAt,omitempty"`
	Lines        []JournalEntryLine `json:"lines"`
	AuditFields
}

// Totals sums the debit and credit columns.
func (e JournalEntry) Totals() (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, l := range e.Lines {
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}
	return debit, credit
}

// IsReversal reports whether the entry was generated by reversing another entry.
func (e JournalEntry) IsReversal() bool {
	return e.ReversalOfID != ""
}

// AccountIDs returns the distinct accounts referenced by the entry's lines.
func (e JournalEntry) AccountIDs() []string {
	seen := make(map[string]struct{}, len(e.Lines))
	ids := make([]string, 0, len(e.Lines))
	for _, l := range e.Lines {
		if _, ok := seen[l.AccountID]; ok {
			continue
		}
		seen[l.AccountID] = struct{}{}
		ids = append(ids, l.AccountID)
	}
	return ids
}

// ReversedLines returns copies of the entry's lines with debit and credit
// swapped, preserving account and line order.
func (e JournalEntry) ReversedLines() []JournalEntryLine {
	out := make([]JournalEntryLine, len(e.Lines))
	for i, l := range e.Lines {
		out[i] = JournalEntryLine{
			LineNumber:  l.LineNumber,
			AccountID:   l.AccountID,
			Debit:       l.Credit,
			Credit:      l.Debit,
			Description: l.Description,
		}
	}
	return out
}

// ReversalReference builds the reference stored on a reversal of entryNumber.
func ReversalReference(entryNumber string) string {
	return ReversalReferencePrefix + entryNumber
}

// FormatEntryNumber renders the per-company sequence as JE-{year}-{seq}.
func FormatEntryNumber(year int, seq int64) string {
	return fmt.Sprintf("JE-%d-%06d", year, seq)
}
