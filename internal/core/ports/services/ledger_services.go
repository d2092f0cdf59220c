package services

import (
	"context"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
	"github.com/SscSPs/ledger_engine/internal/dto"
)

// LedgerSvc is the entry point used by business-event handlers.
type LedgerSvc interface {
	// RecordBalancedEvent records and posts a balanced entry for a business event.
	RecordBalancedEvent(ctx context.Context, companyID string, req dto.RecordEventRequest, userID string) (*domain.JournalEntry, error)

	// VoidEvent reverses the entry recorded for a business event.
	VoidEvent(ctx context.Context, companyID string, entryID string, userID string) (*domain.JournalEntry, error)
}
