package services

import (
	"context"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
	"github.com/SscSPs/ledger_engine/internal/dto"
)

// AccountReaderSvc defines read operations on the chart of accounts
type AccountReaderSvc interface {
	// GetAccountByID retrieves an account visible to the company.
	GetAccountByID(ctx context.Context, companyID string, accountID string) (*domain.Account, error)

	// ListAccounts retrieves the chart of accounts ordered by code.
	ListAccounts(ctx context.Context, companyID string, includeInactive bool) ([]domain.Account, error)

	// GetAccountTree returns the chart of accounts as a forest rooted at top-level accounts.
	GetAccountTree(ctx context.Context, companyID string, includeInactive bool) ([]*domain.AccountNode, error)
}

// AccountWriterSvc defines write operations on the chart of accounts
type AccountWriterSvc interface {
	// CreateAccount adds an account to the company's chart.
	CreateAccount(ctx context.Context, companyID string, req dto.CreateAccountRequest, userID string) (*domain.Account, error)

	// UpdateAccount changes mutable account fields. The type is frozen once lines reference the account.
	UpdateAccount(ctx context.Context, companyID string, accountID string, req dto.UpdateAccountRequest, userID string) (*domain.Account, error)

	// DeactivateAccount soft-disables an account.
	DeactivateAccount(ctx context.Context, companyID string, accountID string, userID string) error

	// DeleteAccount hard-deletes an account that no journal line references.
	DeleteAccount(ctx context.Context, companyID string, accountID string, userID string) error
}

// AccountSvcFacade combines all account-related service interfaces
type AccountSvcFacade interface {
	AccountReaderSvc
	AccountWriterSvc
}
