package services

import (
	"context"
	"log/slog"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portssvc "github.com/SscSPs/ledger_engine/internal/core/ports/services"
	"github.com/SscSPs/ledger_engine/internal/dto"
)

// ledgerService is the narrow entry point business-event handlers use to
// write to the ledger. Every event is recorded as a posted entry; voiding an
// event reverses it, so history is never rewritten.
type ledgerService struct {
	BaseService
	journal portssvc.JournalWriterSvc
}

// NewLedgerService creates a LedgerSvc on top of the journal service.
func NewLedgerService(journal portssvc.JournalWriterSvc) portssvc.LedgerSvc {
	return &ledgerService{journal: journal}
}

var _ portssvc.LedgerSvc = (*ledgerService)(nil)

func (s *ledgerService) RecordBalancedEvent(ctx context.Context, companyID string, req dto.RecordEventRequest, userID string) (*domain.JournalEntry, error) {
	entry, err := s.journal.CreateEntry(ctx, companyID, dto.CreateJournalEntryRequest{
		Date:        req.Date,
		Description: req.Description,
		Reference:   req.Reference,
		Lines:       req.Lines,
		Post:        true,
	}, userID)
	if err != nil {
		return nil, err
	}
	s.LogDebug(ctx, "Business event recorded", slog.String("entry_id", entry.EntryID), slog.String("reference", entry.Reference))
	return entry, nil
}

func (s *ledgerService) VoidEvent(ctx context.Context, companyID string, entryID string, userID string) (*domain.JournalEntry, error) {
	reversal, err := s.journal.ReverseEntry(ctx, companyID, entryID, userID)
	if err != nil {
		return nil, err
	}
	s.LogDebug(ctx, "Business event voided", slog.String("entry_id", entryID), slog.String("reversal_entry_id", reversal.EntryID))
	return reversal, nil
}
