package dto

import (
	"time"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest defines the data needed to create a new account.
type CreateAccountRequest struct {
	Code            string                 `json:"code" binding:"required,max=32"`
	Name            string                 `json:"name" binding:"required,max=255"`
	AccountType     domain.AccountType     `json:"accountType" binding:"required,accounttype"`
	Category        domain.AccountCategory `json:"category" binding:"omitempty,accountcategory"` // defaults from the type
	ParentAccountID *string                `json:"parentAccountID"`
	Description     string                 `json:"description"`
}

// UpdateAccountRequest defines the data allowed for updating an account.
// Use pointers to distinguish between zero-value updates and fields not provided.
type UpdateAccountRequest struct {
	Name            *string                 `json:"name" binding:"omitempty,max=255"`
	Description     *string                 `json:"description"`
	AccountType     *domain.AccountType     `json:"accountType" binding:"omitempty,accounttype"`
	Category        *domain.AccountCategory `json:"category" binding:"omitempty,accountcategory"`
	ParentAccountID *string                 `json:"parentAccountID"`
	IsActive        *bool                   `json:"isActive"`
}

// AccountResponse defines the data returned for an account.
type AccountResponse struct {
	AccountID       string                 `json:"accountID"`
	CompanyID       string                 `json:"companyID"`
	Code            string                 `json:"code"`
	Name            string                 `json:"name"`
	AccountType     domain.AccountType     `json:"accountType"`
	Category        domain.AccountCategory `json:"category"`
	ParentAccountID string                 `json:"parentAccountID"`
	Description     string                 `json:"description"`
	IsActive        bool                   `json:"isActive"`
	IsSystem        bool                   `json:"isSystem"`
	CreatedAt       time.Time              `json:"createdAt"`
	CreatedBy       string                 `json:"createdBy"`
	LastUpdatedAt   time.Time              `json:"lastUpdatedAt"`
	LastUpdatedBy   string                 `json:"lastUpdatedBy"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:       acc.AccountID,
		CompanyID:       acc.CompanyID,
		Code:            acc.Code,
		Name:            acc.Name,
		AccountType:     acc.AccountType,
		Category:        acc.Category,
		ParentAccountID: acc.ParentAccountID,
		Description:     acc.Description,
		IsActive:        acc.IsActive,
		IsSystem:        acc.IsSystem(),
		CreatedAt:       acc.CreatedAt,
		CreatedBy:       acc.CreatedBy,
		LastUpdatedAt:   acc.LastUpdatedAt,
		LastUpdatedBy:   acc.LastUpdatedBy,
	}
}

// ToListAccountResponse converts a slice of domain.Account to a slice of AccountResponse DTOs
func ToListAccountResponse(accounts []domain.Account) []AccountResponse {
	res := make([]AccountResponse, len(accounts))
	for i := range accounts {
		res[i] = ToAccountResponse(&accounts[i])
	}
	return res
}

// ListAccountsParams defines query parameters for listing accounts.
type ListAccountsParams struct {
	IncludeInactive bool `form:"includeInactive"`
}

// ListAccountsResponse wraps the list of accounts.
type ListAccountsResponse struct {
	Accounts []AccountResponse `json:"accounts"`
}

// AccountBalanceParams are the query parameters of a balance lookup.
type AccountBalanceParams struct {
	From   string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To     string `form:"to" binding:"omitempty,datetime=2006-01-02"`
	Status string `form:"status"` // comma separated, defaults to POSTED
}

// AccountBalanceResponse defines the data returned for an account balance query.
type AccountBalanceResponse struct {
	AccountID   string               `json:"accountID"`
	AccountType domain.AccountType   `json:"accountType"`
	Balance     decimal.Decimal      `json:"balance"`
	From        string               `json:"from,omitempty"`
	To          string               `json:"to,omitempty"`
	Statuses    []domain.EntryStatus `json:"statuses"`
}
