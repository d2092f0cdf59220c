package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_engine/internal/core/ports/services"
	"github.com/SscSPs/ledger_engine/internal/dto"
	"github.com/google/uuid"
)

// maxParentDepth bounds the walk up the chart when checking for parent cycles.
const maxParentDepth = 64

type accountService struct {
	BaseService
	accountRepo portsrepo.AccountRepositoryFacade
}

// AccountServiceOption is a functional option for configuring the account service
type AccountServiceOption func(*accountService)

// WithAccountReportCache lets account changes invalidate cached reports.
func WithAccountReportCache(cache portsrepo.ReportCache) AccountServiceOption {
	return func(s *accountService) {
		s.ReportCache = cache
	}
}

// NewAccountService creates a new account service with the provided options
func NewAccountService(repo portsrepo.AccountRepositoryFacade, options ...AccountServiceOption) portssvc.AccountSvcFacade {
	svc := &accountService{accountRepo: repo}
	for _, option := range options {
		option(svc)
	}
	return svc
}

// Ensure accountService implements the AccountSvcFacade interface
var _ portssvc.AccountSvcFacade = (*accountService)(nil)

func (s *accountService) CreateAccount(ctx context.Context, companyID string, req dto.CreateAccountRequest, userID string) (*domain.Account, error) {
	if err := s.RequireCompany(companyID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	account := domain.Account{
		AccountID:   uuid.NewString(),
		CompanyID:   companyID,
		Code:        strings.TrimSpace(req.Code),
		Name:        strings.TrimSpace(req.Name),
		AccountType: req.AccountType,
		Category:    req.Category,
		Description: req.Description,
		IsActive:    true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	if account.Category == "" {
		account.Category = domain.DefaultCategory(account.AccountType)
	}
	if req.ParentAccountID != nil {
		account.ParentAccountID = *req.ParentAccountID
	}

	if err := account.Validate(); err != nil {
		return nil, err
	}
	if err := s.validateParent(ctx, account); err != nil {
		return nil, err
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		var dup *apperrors.DuplicateCodeError
		if !errors.As(err, &dup) {
			s.LogError(ctx, err, "Failed to save account",
				slog.String("account_id", account.AccountID),
				slog.String("company_id", companyID))
		}
		return nil, err
	}

	s.InvalidateReports(ctx, companyID)
	s.LogInfo(ctx, "Account created successfully",
		slog.String("account_id", account.AccountID),
		slog.String("code", account.Code),
		slog.String("company_id", companyID))
	return &account, nil
}

// validateParent checks that the parent exists for the tenant, has the same
// type, and is not a descendant of the account.
func (s *accountService) validateParent(ctx context.Context, account domain.Account) error {
	if account.ParentAccountID == "" {
		return nil
	}

	parentID := account.ParentAccountID
	for depth := 0; parentID != ""; depth++ {
		if depth >= maxParentDepth {
			return fmt.Errorf("%w: account hierarchy is too deep", apperrors.ErrValidation)
		}
		parent, err := s.accountRepo.FindAccountByID(ctx, account.CompanyID, parentID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return fmt.Errorf("%w: parent account %s not found", apperrors.ErrValidation, parentID)
			}
			return err
		}
		if depth == 0 && parent.AccountType != account.AccountType {
			return fmt.Errorf("%w: parent account %s is %s, expected %s",
				apperrors.ErrValidation, parent.AccountID, parent.AccountType, account.AccountType)
		}
		if parent.AccountID == account.AccountID {
			return fmt.Errorf("%w: parent account %s would create a cycle", apperrors.ErrValidation, account.ParentAccountID)
		}
		parentID = parent.ParentAccountID
	}
	return nil
}

func (s *accountService) GetAccountByID(ctx context.Context, companyID string, accountID string) (*domain.Account, error) {
	if err := s.RequireCompany(companyID); err != nil {
		return nil, err
	}
	account, err := s.accountRepo.FindAccountByID(ctx, companyID, accountID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find account by ID", slog.String("account_id", accountID))
		}
		return nil, err
	}
	return account, nil
}

func (s *accountService) ListAccounts(ctx context.Context, companyID string, includeInactive bool) ([]domain.Account, error) {
	if err := s.RequireCompany(companyID); err != nil {
		return nil, err
	}
	accounts, err := s.accountRepo.ListAccounts(ctx, companyID, includeInactive)
	if err != nil {
		s.LogError(ctx, err, "Failed to list accounts", slog.String("company_id", companyID))
		return nil, fmt.Errorf("failed to list accounts for company %s: %w", companyID, err)
	}
	if accounts == nil {
		return []domain.Account{}, nil
	}
	s.LogDebug(ctx, "Accounts listed successfully", slog.Int("count", len(accounts)))
	return accounts, nil
}

func (s *accountService) GetAccountTree(ctx context.Context, companyID string, includeInactive bool) ([]*domain.AccountNode, error) {
	accounts, err := s.ListAccounts(ctx, companyID, includeInactive)
	if err != nil {
		return nil, err
	}
	return buildAccountTree(accounts), nil
}

// buildAccountTree links accounts to their parents, keeping code order among
// siblings. Accounts whose parent is not in the list become roots.
func buildAccountTree(accounts []domain.Account) []*domain.AccountNode {
	nodes := make(map[string]*domain.AccountNode, len(accounts))
	for _, a := range accounts {
		nodes[a.AccountID] = &domain.AccountNode{Account: a, Children: []*domain.AccountNode{}}
	}

	roots := []*domain.AccountNode{}
	for _, a := range accounts {
		node := nodes[a.AccountID]
		if parent, ok := nodes[a.ParentAccountID]; ok && a.ParentAccountID != a.AccountID {
			parent.Children = append(parent.Children, node)
			continue
		}
		roots = append(roots, node)
	}
	return roots
}

// loadOwned fetches an account the company may modify. Shared system accounts
// are visible to every company but owned by none.
func (s *accountService) loadOwned(ctx context.Context, companyID, accountID string) (*domain.Account, error) {
	if err := s.RequireCompany(companyID); err != nil {
		return nil, err
	}
	account, err := s.accountRepo.FindAccountByID(ctx, companyID, accountID)
	if err != nil {
		return nil, err
	}
	if account.IsSystem() {
		return nil, fmt.Errorf("%w: account %s is a shared system account", apperrors.ErrForbidden, accountID)
	}
	return account, nil
}

func (s *accountService) UpdateAccount(ctx context.Context, companyID string, accountID string, req dto.UpdateAccountRequest, userID string) (*domain.Account, error) {
	account, err := s.loadOwned(ctx, companyID, accountID)
	if err != nil {
		return nil, err
	}

	updated := *account
	if req.Name != nil {
		updated.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		updated.Description = *req.Description
	}
	// The repository refuses the type change if lines reference the account.
	if req.AccountType != nil && *req.AccountType != account.AccountType {
		updated.AccountType = *req.AccountType
		if req.Category == nil {
			updated.Category = domain.DefaultCategory(updated.AccountType)
		}
	}
	if req.Category != nil {
		updated.Category = *req.Category
	}
	if req.ParentAccountID != nil {
		updated.ParentAccountID = *req.ParentAccountID
	}
	if req.IsActive != nil {
		updated.IsActive = *req.IsActive
	}
	updated.LastUpdatedAt = time.Now().UTC()
	updated.LastUpdatedBy = userID

	if err := updated.Validate(); err != nil {
		return nil, err
	}
	if updated.ParentAccountID != account.ParentAccountID || updated.AccountType != account.AccountType {
		if err := s.validateParent(ctx, updated); err != nil {
			return nil, err
		}
	}

	if err := s.accountRepo.UpdateAccount(ctx, updated); err != nil {
		s.LogError(ctx, err, "Failed to update account", slog.String("account_id", accountID))
		return nil, err
	}
	if updated.AccountType != account.AccountType || updated.Category != account.Category ||
		updated.Name != account.Name || updated.IsActive != account.IsActive || updated.ParentAccountID != account.ParentAccountID {
		s.InvalidateReports(ctx, companyID)
	}

	s.LogInfo(ctx, "Account updated successfully", slog.String("account_id", accountID))
	return &updated, nil
}

// DeactivateAccount soft-disables an account. Deactivating an inactive account is a no-op.
func (s *accountService) DeactivateAccount(ctx context.Context, companyID string, accountID string, userID string) error {
	account, err := s.loadOwned(ctx, companyID, accountID)
	if err != nil {
		return err
	}
	if !account.IsActive {
		return nil
	}

	account.IsActive = false
	account.LastUpdatedAt = time.Now().UTC()
	account.LastUpdatedBy = userID
	if err := s.accountRepo.UpdateAccount(ctx, *account); err != nil {
		s.LogError(ctx, err, "Failed to deactivate account", slog.String("account_id", accountID))
		return err
	}

	s.InvalidateReports(ctx, companyID)
	s.LogInfo(ctx, "Account deactivated successfully", slog.String("account_id", accountID), slog.String("user_id", userID))
	return nil
}

// DeleteAccount hard-deletes an account no journal line references.
func (s *accountService) DeleteAccount(ctx context.Context, companyID string, accountID string, userID string) error {
	if _, err := s.loadOwned(ctx, companyID, accountID); err != nil {
		return err
	}
	if err := s.accountRepo.DeleteAccount(ctx, companyID, accountID); err != nil {
		var inUse *apperrors.AccountInUseError
		if !errors.As(err, &inUse) {
			s.LogError(ctx, err, "Failed to delete account", slog.String("account_id", accountID))
		}
		return err
	}

	s.InvalidateReports(ctx, companyID)
	s.LogInfo(ctx, "Account deleted successfully", slog.String("account_id", accountID), slog.String("user_id", userID))
	return nil
}
