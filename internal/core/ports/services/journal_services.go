package services

import (
	"context"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
	"github.com/SscSPs/ledger_engine/internal/dto"
)

// JournalReaderSvc defines read operations for journal data
type JournalReaderSvc interface {
	// GetEntryByID retrieves an entry with its lines.
	GetEntryByID(ctx context.Context, companyID string, entryID string) (*domain.JournalEntry, error)

	// ListEntries retrieves a page of the company's entries, newest first.
	ListEntries(ctx context.Context, companyID string, params dto.ListJournalEntriesParams) (*dto.ListJournalEntriesResponse, error)

	// ListAccountLedger retrieves a page of an account's posted lines with running balances.
	ListAccountLedger(ctx context.Context, companyID string, accountID string, params dto.ListAccountLedgerParams) (*dto.AccountLedgerResponse, error)
}

// JournalWriterSvc defines the lifecycle operations of journal entries
type JournalWriterSvc interface {
	// CreateEntry records a balanced entry as DRAFT, or POSTED when req.Post is set.
	CreateEntry(ctx context.Context, companyID string, req dto.CreateJournalEntryRequest, userID string) (*domain.JournalEntry, error)

	// UpdateDraftEntry replaces the content of a DRAFT entry.
	UpdateDraftEntry(ctx context.Context, companyID string, entryID string, req dto.UpdateDraftEntryRequest, userID string) (*domain.JournalEntry, error)

	// PostEntry moves a DRAFT entry to POSTED.
	PostEntry(ctx context.Context, companyID string, entryID string, userID string) (*domain.JournalEntry, error)

	// DiscardEntry hard-deletes a DRAFT entry.
	DiscardEntry(ctx context.Context, companyID string, entryID string, userID string) error

	// ReverseEntry creates a POSTED offsetting entry and marks the original REVERSED.
	ReverseEntry(ctx context.Context, companyID string, entryID string, userID string) (*domain.JournalEntry, error)
}

// JournalSvcFacade combines all journal-related service interfaces
type JournalSvcFacade interface {
	JournalReaderSvc
	JournalWriterSvc
}
