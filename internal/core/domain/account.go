package domain

import (
	"fmt"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
)

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Revenue   AccountType = "REVENUE"
	Expense   AccountType = "EXPENSE"
)

// AllAccountTypes lists the account types in chart order.
var AllAccountTypes = []AccountType{Asset, Liability, Equity, Revenue, Expense}

// IsValid reports whether t is one of the five account types.
func (t AccountType) IsValid() bool {
	switch t {
	case Asset, Liability, Equity, Revenue, Expense:
		return true
	}
	return false
}

// NormalBalanceSign returns +1 for debit-normal types (ASSET, EXPENSE), -1
// for credit-normal types (LIABILITY, EQUITY, REVENUE) and 0 for anything
// else. Every balance in the system is derived through this function.
func NormalBalanceSign(t AccountType) int {
	switch t {
	case Asset, Expense:
		return 1
	case Liability, Equity, Revenue:
		return -1
	}
	return 0
}

// IsBalanceSheet reports whether accounts of this type appear on the balance sheet.
func (t AccountType) IsBalanceSheet() bool {
	return t == Asset || t == Liability || t == Equity
}

// AccountCategory refines an AccountType for report bucketing.
type AccountCategory string

const (
	CurrentAsset      AccountCategory = "CURRENT_ASSET"
	FixedAsset        AccountCategory = "FIXED_ASSET"
	OtherAsset        AccountCategory = "OTHER_ASSET"
	CurrentLiability  AccountCategory = "CURRENT_LIABILITY"
	LongTermLiability AccountCategory = "LONG_TERM_LIABILITY"
	EquityCategory    AccountCategory = "EQUITY"
	OperatingRevenue  AccountCategory = "OPERATING_REVENUE"
	OtherRevenue      AccountCategory = "OTHER_REVENUE"
	CostOfSales       AccountCategory = "COST_OF_SALES"
	OperatingExpense  AccountCategory = "OPERATING_EXPENSE"
	OtherExpense      AccountCategory = "OTHER_EXPENSE"
)

var categoryTypes = map[AccountCategory]AccountType{
	CurrentAsset:      Asset,
	FixedAsset:        Asset,
	OtherAsset:        Asset,
	CurrentLiability:  Liability,
	LongTermLiability: Liability,
	EquityCategory:    Equity,
	OperatingRevenue:  Revenue,
	OtherRevenue:      Revenue,
	CostOfSales:       Expense,
	OperatingExpense:  Expense,
	OtherExpense:      Expense,
}

// IsValid reports whether c is a known category.
func (c AccountCategory) IsValid() bool {
	_, ok := categoryTypes[c]
	return ok
}

// AccountType returns the type a category belongs to.
func (c AccountCategory) AccountType() (AccountType, bool) {
	t, ok := categoryTypes[c]
	return t, ok
}

// IsCurrent reports whether the category is a current (short-term) bucket.
func (c AccountCategory) IsCurrent() bool {
	return c == CurrentAsset || c == CurrentLiability
}

// DefaultCategory is used when an account is created without a category.
func DefaultCategory(t AccountType) AccountCategory {
	switch t {
	case Asset:
		return CurrentAsset
	case Liability:
		return CurrentLiability
	case Equity:
		return EquityCategory
	case Revenue:
		return OperatingRevenue
	case Expense:
		return OperatingExpense
	}
	return ""
}

// Account represents a node in a company's chart of accounts.
type Account struct {
	AccountID       string          `json:"accountID"`
	CompanyID       string          `json:"companyID"` // empty for shared system accounts
	Code            string          `json:"code"`
	Name            string          `json:"name"`
	AccountType     AccountType     `json:"accountType"`
	Category        AccountCategory `json:"category"`
	ParentAccountID string          `json:"parentAccountID"`
	Description     string          `json:"description"`
	IsActive        bool            `json:"isActive"`
	AuditFields
}

// IsSystem reports whether the account is shared across all companies.
func (a Account) IsSystem() bool {
	return a.CompanyID == ""
}

// VisibleTo reports whether the account may be used by companyID.
func (a Account) VisibleTo(companyID string) bool {
	return a.CompanyID == companyID || a.IsSystem()
}

// Validate checks the required fields and the type/category pairing.
func (a Account) Validate() error {
	if a.Code == "" {
		return &apperrors.MissingRequiredFieldError{Field: "code"}
	}
	if a.Name == "" {
		return &apperrors.MissingRequiredFieldError{Field: "name"}
	}
	if a.AccountType == "" {
		return &apperrors.MissingRequiredFieldError{Field: "accountType"}
	}
	if !a.AccountType.IsValid() {
		return fmt.Errorf("%w: unknown account type %q", apperrors.ErrValidation, a.AccountType)
	}
	catType, ok := a.Category.AccountType()
	if !ok {
		return fmt.Errorf("%w: unknown account category %q", apperrors.ErrValidation, a.Category)
	}
	if catType != a.AccountType {
		return fmt.Errorf("%w: category %s does not belong to account type %s", apperrors.ErrValidation, a.Category, a.AccountType)
	}
	if a.ParentAccountID != "" && a.ParentAccountID == a.AccountID {
		return fmt.Errorf("%w: account cannot be its own parent", apperrors.ErrValidation)
	}
	return nil
}

// AccountNode is an account with its children, used to render the chart as a tree.
type AccountNode struct {
	Account
	Children []*AccountNode `json:"children"`
}
