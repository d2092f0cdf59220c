package repositories

import (
	"context"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
)

// AccountReader defines read operations for account data.
// Every lookup is scoped to a company; shared system accounts are visible to all companies.
type AccountReader interface {
	// FindAccountByID retrieves an account visible to companyID.
	FindAccountByID(ctx context.Context, companyID, accountID string) (*domain.Account, error)

	// FindAccountsByIDs retrieves the visible accounts among accountIDs, keyed by id.
	// Missing ids are simply absent from the map.
	FindAccountsByIDs(ctx context.Context, companyID string, accountIDs []string) (map[string]domain.Account, error)

	// ListAccounts returns the chart of accounts ordered by code.
	ListAccounts(ctx context.Context, companyID string, includeInactive bool) ([]domain.Account, error)
}

// AccountWriter defines write operations for account data
type AccountWriter interface {
	// SaveAccount persists a new account. A code collision yields DuplicateCodeError.
	SaveAccount(ctx context.Context, account domain.Account) error

	// UpdateAccount updates the mutable fields of an account, including is_active.
	// Changing the type of an account any journal line references yields AccountInUseError;
	// the reference check runs under the same row lock as the write.
	UpdateAccount(ctx context.Context, account domain.Account) error

	// DeleteAccount hard-deletes an account. Referenced accounts yield AccountInUseError,
	// checked under the same row lock as the delete.
	DeleteAccount(ctx context.Context, companyID, accountID string) error
}

// AccountRepositoryFacade combines all account-related repository interfaces
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
}
