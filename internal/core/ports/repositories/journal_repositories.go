package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// EntryQuery filters a listing of journal entries.
type EntryQuery struct {
	Statuses  []domain.EntryStatus
	Period    domain.DateRange
	Limit     int
	NextToken *string
}

// LineQuery filters the posted lines of a single account.
type LineQuery struct {
	Filter    domain.BalanceFilter
	Limit     int
	NextToken *string
}

// AccountLinesPage is one page of an account's lines. OpeningDebit and
// OpeningCredit sum every matching line ordered before the page, so the caller
// can carry a running balance across pages.
type AccountLinesPage struct {
	Lines         []domain.AccountLedgerLine
	OpeningDebit  decimal.Decimal
	OpeningCredit decimal.Decimal
	NextToken     *string
}

// StatusChange describes a status update applied inside a transaction.
type StatusChange struct {
	CompanyID    string
	EntryID      string
	From         domain.EntryStatus
	To           domain.EntryStatus
	ReversedByID string
	PostedAt     *time.Time
	UpdatedBy    string
	UpdatedAt    time.Time
}

// JournalReader defines read operations for journal data
type JournalReader interface {
	// FindEntryByID retrieves an entry with its lines ordered by line number.
	FindEntryByID(ctx context.Context, companyID, entryID string) (*domain.JournalEntry, error)

	// ListEntries returns entries newest first using keyset pagination.
	// It returns the entries, a token for the next page, and an error.
	ListEntries(ctx context.Context, companyID string, q EntryQuery) ([]domain.JournalEntry, *string, error)

	// ListLinesByAccount returns a page of the account's lines oldest first.
	ListLinesByAccount(ctx context.Context, companyID, accountID string, q LineQuery) (*AccountLinesPage, error)
}

// JournalTx is the set of operations available inside a journal transaction.
// Everything done through one JournalTx commits or rolls back together.
type JournalTx interface {
	// NextEntryNumber reserves the next entry number for the company.
	NextEntryNumber(ctx context.Context, companyID string, year int) (string, error)

	// InsertEntry persists the header and all lines of entry.
	InsertEntry(ctx context.Context, entry domain.JournalEntry) error

	// FindEntryForUpdate loads an entry with its lines and locks the header row.
	FindEntryForUpdate(ctx context.Context, companyID, entryID string) (*domain.JournalEntry, error)

	// UpdateEntryStatus moves an entry between statuses. It fails with
	// InvalidStateTransitionError if the row is no longer in change.From.
	UpdateEntryStatus(ctx context.Context, change StatusChange) error

	// ReplaceDraftEntry rewrites the header fields and lines of a DRAFT entry.
	ReplaceDraftEntry(ctx context.Context, entry domain.JournalEntry) error

	// DeleteDraftEntry hard-deletes a DRAFT entry and its lines.
	DeleteDraftEntry(ctx context.Context, companyID, entryID string) error

	// FindAccountsByIDs resolves line accounts visible to the company, locking them
	// against concurrent deletion until the transaction ends.
	FindAccountsByIDs(ctx context.Context, companyID string, accountIDs []string) (map[string]domain.Account, error)
}

// JournalUnitOfWork runs fn inside a single database transaction.
type JournalUnitOfWork interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx JournalTx) error) error
}

// JournalRepositoryFacade combines all journal-related repository interfaces
type JournalRepositoryFacade interface {
	JournalReader
	JournalUnitOfWork
}
