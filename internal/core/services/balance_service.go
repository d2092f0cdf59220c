package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_engine/internal/core/ports/services"
	"github.com/SscSPs/ledger_engine/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

type balanceService struct {
	BaseService
	accountRepo   portsrepo.AccountReader
	reportingRepo portsrepo.ReportingRepository
}

// NewBalanceService creates a service computing signed account balances.
func NewBalanceService(accountRepo portsrepo.AccountReader, reportingRepo portsrepo.ReportingRepository) portssvc.BalanceSvc {
	return &balanceService{accountRepo: accountRepo, reportingRepo: reportingRepo}
}

var _ portssvc.BalanceSvc = (*balanceService)(nil)

func (s *balanceService) ComputeBalance(ctx context.Context, companyID string, accountID string, filter domain.BalanceFilter) (decimal.Decimal, error) {
	if err := s.RequireCompany(companyID); err != nil {
		return decimal.Zero, err
	}
	if err := filter.Period.Validate(); err != nil {
		return decimal.Zero, err
	}

	account, err := s.accountRepo.FindAccountByID(ctx, companyID, accountID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to load account for balance", slog.String("account_id", accountID))
		}
		return decimal.Zero, err
	}

	debit, credit, err := s.reportingRepo.SumAccountLines(ctx, companyID, accountID, filter)
	if err != nil {
		s.LogError(ctx, err, "Failed to sum account lines",
			slog.String("account_id", accountID),
			slog.String("company_id", companyID))
		return decimal.Zero, err
	}
	return accounting.SignedBalance(account.AccountType, debit, credit), nil
}
