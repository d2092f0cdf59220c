package mapping

import (
	"github.com/SscSPs/ledger_engine/internal/core/domain"
	"github.com/SscSPs/ledger_engine/internal/models"
)

// ToModelJournalEntry converts a domain JournalEntry header to a model JournalEntry
func ToModelJournalEntry(d domain.JournalEntry) models.JournalEntry {
	return models.JournalEntry{
		EntryID:      d.EntryID,
		CompanyID:    d.CompanyID,
		EntryNumber:  d.EntryNumber,
		EntryDate:    domain.TruncateToDate(d.Date),
		Description:  d.Description,
		Reference:    NullString(d.Reference),
		Status:       string(d.Status),
		ReversalOfID: NullString(d.ReversalOfID),
		ReversedByID: NullString(d.ReversedByID),
		PostedAt:     NullTime(d.PostedAt),
		AuditFields:  ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainJournalEntry converts a model JournalEntry and its lines to a domain JournalEntry
func ToDomainJournalEntry(m models.JournalEntry, lines []models.JournalEntryLine) domain.JournalEntry {
	entry := domain.JournalEntry{
		EntryID:      m.EntryID,
		CompanyID:    m.CompanyID,
		EntryNumber:  m.EntryNumber,
		Date:         m.EntryDate,
		Description:  m.Description,
		Reference:    m.Reference.String,
		Status:       domain.EntryStatus(m.Status),
		ReversalOfID: m.ReversalOfID.String,
		ReversedByID: m.ReversedByID.String,
		PostedAt:     timePtr(m.PostedAt),
		AuditFields:  ToDomainAuditFields(m.AuditFields),
		Lines:        make([]domain.JournalEntryLine, 0, len(lines)),
	}
	for _, l := range lines {
		entry.Lines = append(entry.Lines, ToDomainJournalEntryLine(l))
	}
	return entry
}

// ToModelJournalEntryLine converts a domain line to a model line owned by entry.
func ToModelJournalEntryLine(entry domain.JournalEntry, d domain.JournalEntryLine) models.JournalEntryLine {
	return models.JournalEntryLine{
		LineID:      d.LineID,
		EntryID:     entry.EntryID,
		CompanyID:   entry.CompanyID,
		LineNumber:  d.LineNumber,
		AccountID:   d.AccountID,
		Debit:       d.Debit,
		Credit:      d.Credit,
		Description: NullString(d.Description),
	}
}

// ToDomainJournalEntryLine converts a model line to a domain line
func ToDomainJournalEntryLine(m models.JournalEntryLine) domain.JournalEntryLine {
	return domain.JournalEntryLine{
		LineID:      m.LineID,
		EntryID:     m.EntryID,
		LineNumber:  m.LineNumber,
		AccountID:   m.AccountID,
		Debit:       m.Debit,
		Credit:      m.Credit,
		Description: m.Description.String,
	}
}
