package accounting

import (
	"fmt"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of decimal places amounts are stored with.
const MoneyPlaces int32 = 2

// BalanceTolerance is the largest debit/credit difference accepted as balanced.
var BalanceTolerance = decimal.New(1, -MoneyPlaces)

// SignedBalance turns raw debit/credit totals into a balance for the account type.
// ASSET and EXPENSE accounts are debit-normal, the other valid types credit-normal.
// An unknown type has no normal side and yields zero.
func SignedBalance(accountType domain.AccountType, debit, credit decimal.Decimal) decimal.Decimal {
	switch domain.NormalBalanceSign(accountType) {
	case 1:
		return debit.Sub(credit)
	case -1:
		return credit.Sub(debit)
	}
	return decimal.Zero
}

// RoundMoney rounds an amount to storage precision.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// ValidateLines checks each line on its own: amounts are non-negative and a line
// carries at least one side.
func ValidateLines(lines []domain.JournalEntryLine) error {
	if len(lines) == 0 {
		return fmt.Errorf("%w: journal entry must have at least one line", apperrors.ErrValidation)
	}
	for i, l := range lines {
		if l.AccountID == "" {
			return &apperrors.MissingRequiredFieldError{Field: fmt.Sprintf("lines[%d].accountId", i)}
		}
		if l.Debit.IsNegative() || l.Credit.IsNegative() {
			return fmt.Errorf("%w: line %d has a negative amount", apperrors.ErrValidation, i+1)
		}
		if l.Debit.IsZero() && l.Credit.IsZero() {
			return fmt.Errorf("%w: line %d has neither a debit nor a credit", apperrors.ErrValidation, i+1)
		}
	}
	return nil
}

// ValidateEntryBalance enforces Σdebit == Σcredit within BalanceTolerance on the
// submitted amounts, and exact equality once amounts are rounded to storage precision.
func ValidateEntryBalance(lines []domain.JournalEntryLine) error {
	debit, credit := domain.JournalEntry{Lines: lines}.Totals()
	if !WithinTolerance(debit, credit) {
		return &apperrors.UnbalancedEntryError{DebitTotal: debit, CreditTotal: credit}
	}
	rd, rc := domain.JournalEntry{Lines: NormalizeLines(lines)}.Totals()
	if !rd.Equal(rc) {
		return &apperrors.UnbalancedEntryError{DebitTotal: rd, CreditTotal: rc}
	}
	return nil
}

// NormalizeLines rounds amounts and assigns 1-based line numbers where missing.
func NormalizeLines(lines []domain.JournalEntryLine) []domain.JournalEntryLine {
	out := make([]domain.JournalEntryLine, len(lines))
	for i, l := range lines {
		l.Debit = RoundMoney(l.Debit)
		l.Credit = RoundMoney(l.Credit)
		if l.LineNumber == 0 {
			l.LineNumber = i + 1
		}
		out[i] = l
	}
	return out
}

// WithinTolerance reports whether a and b differ by at most BalanceTolerance.
func WithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(BalanceTolerance)
}
