package services

import (
	"context"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// BalanceSvc computes signed account balances.
type BalanceSvc interface {
	// ComputeBalance sums the account's lines under filter and applies the
	// normal-balance sign of the account type.
	ComputeBalance(ctx context.Context, companyID string, accountID string, filter domain.BalanceFilter) (decimal.Decimal, error)
}
