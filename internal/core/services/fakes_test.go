package services_test

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
)

// memStore is an in-memory implementation of the repository ports. Journal
// transactions run against a copy of the state that replaces it on commit, so
// a failed transaction leaves nothing behind.
type memStore struct {
	mu         sync.Mutex
	accounts   map[string]domain.Account
	entries    map[string]domain.JournalEntry
	sequences  map[string]int64
	cashEvents map[string][]domain.CashEvent
	openItems  map[string][]domain.OpenItem
	txCount    int
}

var (
	_ portsrepo.AccountRepositoryFacade  = (*memStore)(nil)
	_ portsrepo.JournalRepositoryFacade  = (*memStore)(nil)
	_ portsrepo.ReportingRepository      = (*memStore)(nil)
	_ portsrepo.SourceDocumentRepository = (*memStore)(nil)
	_ portsrepo.JournalTx                = (*memTx)(nil)
)

func newMemStore() *memStore {
	return &memStore{
		accounts:   map[string]domain.Account{},
		entries:    map[string]domain.JournalEntry{},
		sequences:  map[string]int64{},
		cashEvents: map[string][]domain.CashEvent{},
		openItems:  map[string][]domain.OpenItem{},
	}
}

func (m *memStore) provider() portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo:   m,
		JournalRepo:   m,
		ReportingRepo: m,
		DocumentRepo:  m,
	}
}

func (m *memStore) entryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func cloneEntry(e domain.JournalEntry) domain.JournalEntry {
	e.Lines = append([]domain.JournalEntryLine(nil), e.Lines...)
	return e
}

// --- accounts ---

func (m *memStore) SaveAccount(_ context.Context, account domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.CompanyID == account.CompanyID && a.Code == account.Code {
			return &apperrors.DuplicateCodeError{Code: account.Code}
		}
	}
	m.accounts[account.AccountID] = account
	return nil
}

func (m *memStore) FindAccountByID(_ context.Context, companyID, accountID string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[accountID]
	if !ok || !a.VisibleTo(companyID) {
		return nil, &apperrors.AccountNotFoundError{AccountID: accountID}
	}
	return &a, nil
}

func (m *memStore) FindAccountsByIDs(_ context.Context, companyID string, accountIDs []string) (map[string]domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return visibleAccounts(m.accounts, companyID, accountIDs), nil
}

func visibleAccounts(accounts map[string]domain.Account, companyID string, ids []string) map[string]domain.Account {
	out := make(map[string]domain.Account, len(ids))
	for _, id := range ids {
		if a, ok := accounts[id]; ok && a.VisibleTo(companyID) {
			out[id] = a
		}
	}
	return out
}

func (m *memStore) ListAccounts(_ context.Context, companyID string, includeInactive bool) ([]domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Account
	for _, a := range m.accounts {
		if a.VisibleTo(companyID) && (includeInactive || a.IsActive) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (m *memStore) countLines(accountID string) int64 {
	var n int64
	for _, e := range m.entries {
		for _, l := range e.Lines {
			if l.AccountID == accountID {
				n++
			}
		}
	}
	return n
}

func (m *memStore) UpdateAccount(_ context.Context, account domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.accounts[account.AccountID]
	if !ok || current.CompanyID != account.CompanyID {
		return &apperrors.AccountNotFoundError{AccountID: account.AccountID}
	}
	if current.AccountType != account.AccountType {
		if n := m.countLines(account.AccountID); n > 0 {
			return &apperrors.AccountInUseError{AccountID: account.AccountID, LineCount: n}
		}
	}
	m.accounts[account.AccountID] = account
	return nil
}

func (m *memStore) DeleteAccount(_ context.Context, companyID, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[accountID]
	if !ok || a.CompanyID != companyID {
		return &apperrors.AccountNotFoundError{AccountID: accountID}
	}
	if n := m.countLines(accountID); n > 0 {
		return &apperrors.AccountInUseError{AccountID: accountID, LineCount: n}
	}
	for _, child := range m.accounts {
		if child.ParentAccountID == accountID {
			return fmt.Errorf("%w: account %s has child accounts", apperrors.ErrConflict, accountID)
		}
	}
	delete(m.accounts, accountID)
	return nil
}

// --- journal reads ---

func (m *memStore) FindEntryByID(_ context.Context, companyID, entryID string) (*domain.JournalEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[entryID]
	if !ok || e.CompanyID != companyID {
		return nil, &apperrors.EntryNotFoundError{EntryID: entryID}
	}
	e = cloneEntry(e)
	return &e, nil
}

func (m *memStore) ListEntries(_ context.Context, companyID string, q portsrepo.EntryQuery) ([]domain.JournalEntry, *string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.JournalEntry
	for _, e := range m.entries {
		if e.CompanyID != companyID || !q.Period.Contains(e.Date) {
			continue
		}
		if len(q.Statuses) > 0 && !(domain.BalanceFilter{Statuses: q.Statuses}).Includes(e.Status) {
			continue
		}
		out = append(out, cloneEntry(e))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].EntryID > out[j].EntryID
	})
	return pageOf(out, q.Limit, q.NextToken)
}

// pageOf pages with a plain offset token; the service treats tokens as opaque.
func pageOf[T any](rows []T, limit int, token *string) ([]T, *string, error) {
	offset := 0
	if token != nil && *token != "" {
		n, err := strconv.Atoi(*token)
		if err != nil || n < 0 {
			return nil, nil, fmt.Errorf("%w: invalid nextToken", apperrors.ErrValidation)
		}
		offset = n
	}
	if limit <= 0 {
		limit = 20
	}
	if offset > len(rows) {
		offset = len(rows)
	}
	end := offset + limit
	if end >= len(rows) {
		return rows[offset:], nil, nil
	}
	next := strconv.Itoa(end)
	return rows[offset:end], &next, nil
}

// counts applies the reversal-aware status filter used by every aggregate.
func counts(entries map[string]domain.JournalEntry, e domain.JournalEntry, filter domain.BalanceFilter) bool {
	if !filter.Includes(e.Status) {
		return false
	}
	if e.IsReversal() {
		original, ok := entries[e.ReversalOfID]
		if !ok || !filter.Includes(original.Status) {
			return false
		}
	}
	return true
}

type ledgerRow struct {
	line  domain.AccountLedgerLine
	entry domain.JournalEntry
}

func (m *memStore) ListLinesByAccount(_ context.Context, companyID, accountID string, q portsrepo.LineQuery) (*portsrepo.AccountLinesPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	statusOnly := domain.BalanceFilter{Statuses: q.Filter.Statuses}
	var all []ledgerRow
	for _, e := range m.entries {
		if e.CompanyID != companyID || !counts(m.entries, e, statusOnly) {
			continue
		}
		for _, l := range e.Lines {
			if l.AccountID != accountID {
				continue
			}
			desc := l.Description
			if desc == "" {
				desc = e.Description
			}
			all = append(all, ledgerRow{entry: e, line: domain.AccountLedgerLine{
				EntryID:     e.EntryID,
				EntryNumber: e.EntryNumber,
				Date:        e.Date,
				LineNumber:  l.LineNumber,
				Description: desc,
				Debit:       l.Debit,
				Credit:      l.Credit,
				CreatedAt:   e.CreatedAt,
			}})
		}
	}
	sort.Slice(all, func(i, j int) bool {
		a, b := all[i].line, all[j].line
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		if a.EntryID != b.EntryID {
			return a.EntryID < b.EntryID
		}
		return a.LineNumber < b.LineNumber
	})

	// Position of the first row of the page within the unfiltered-by-period order.
	var inPeriod []int
	for i, r := range all {
		if q.Filter.Period.Contains(r.line.Date) {
			inPeriod = append(inPeriod, i)
		}
	}
	pageIdx, next, err := pageOf(inPeriod, q.Limit, q.NextToken)
	if err != nil {
		return nil, err
	}

	page := &portsrepo.AccountLinesPage{
		Lines:         []domain.AccountLedgerLine{},
		OpeningDebit:  decimal.Zero,
		OpeningCredit: decimal.Zero,
		NextToken:     next,
	}
	for _, idx := range pageIdx {
		page.Lines = append(page.Lines, all[idx].line)
	}

	openUntil := 0
	switch {
	case q.NextToken != nil && *q.NextToken != "" && len(pageIdx) > 0:
		openUntil = pageIdx[0]
	case q.NextToken != nil && *q.NextToken != "":
		openUntil = len(all)
	case !q.Filter.Period.Start.IsZero():
		for openUntil < len(all) && all[openUntil].line.Date.Before(domain.TruncateToDate(q.Filter.Period.Start)) {
			openUntil++
		}
	}
	for _, r := range all[:openUntil] {
		page.OpeningDebit = page.OpeningDebit.Add(r.line.Debit)
		page.OpeningCredit = page.OpeningCredit.Add(r.line.Credit)
	}
	return page, nil
}

// --- transactions ---

func (m *memStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.JournalTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txCount++

	tx := &memTx{
		accounts:  m.accounts,
		entries:   make(map[string]domain.JournalEntry, len(m.entries)),
		sequences: make(map[string]int64, len(m.sequences)),
	}
	for k, v := range m.entries {
		tx.entries[k] = cloneEntry(v)
	}
	for k, v := range m.sequences {
		tx.sequences[k] = v
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	m.entries = tx.entries
	m.sequences = tx.sequences
	return nil
}

type memTx struct {
	accounts  map[string]domain.Account
	entries   map[string]domain.JournalEntry
	sequences map[string]int64
}

func (t *memTx) NextEntryNumber(_ context.Context, companyID string, year int) (string, error) {
	t.sequences[companyID]++
	return domain.FormatEntryNumber(year, t.sequences[companyID]), nil
}

func (t *memTx) InsertEntry(_ context.Context, entry domain.JournalEntry) error {
	for _, e := range t.entries {
		if e.CompanyID == entry.CompanyID && e.EntryNumber == entry.EntryNumber {
			return fmt.Errorf("%w: entry number %s already used", apperrors.ErrConflict, entry.EntryNumber)
		}
		if entry.IsReversal() && e.ReversalOfID == entry.ReversalOfID {
			return &apperrors.AlreadyReversedError{EntryID: entry.ReversalOfID, ReversedByID: e.EntryID}
		}
	}
	for i := range entry.Lines {
		entry.Lines[i].EntryID = entry.EntryID
	}
	t.entries[entry.EntryID] = cloneEntry(entry)
	return nil
}

func (t *memTx) FindEntryForUpdate(_ context.Context, companyID, entryID string) (*domain.JournalEntry, error) {
	e, ok := t.entries[entryID]
	if !ok || e.CompanyID != companyID {
		return nil, &apperrors.EntryNotFoundError{EntryID: entryID}
	}
	e = cloneEntry(e)
	return &e, nil
}

func (t *memTx) UpdateEntryStatus(_ context.Context, change portsrepo.StatusChange) error {
	e, ok := t.entries[change.EntryID]
	if !ok || e.CompanyID != change.CompanyID || e.Status != change.From {
		return &apperrors.InvalidStateTransitionError{EntryID: change.EntryID, From: string(change.From), To: string(change.To)}
	}
	e.Status = change.To
	if change.ReversedByID != "" {
		e.ReversedByID = change.ReversedByID
	}
	if change.PostedAt != nil && e.PostedAt == nil {
		e.PostedAt = change.PostedAt
	}
	e.LastUpdatedAt = change.UpdatedAt
	e.LastUpdatedBy = change.UpdatedBy
	t.entries[change.EntryID] = e
	return nil
}

func (t *memTx) ReplaceDraftEntry(_ context.Context, entry domain.JournalEntry) error {
	current, ok := t.entries[entry.EntryID]
	if !ok || current.Status != domain.Draft {
		return fmt.Errorf("%w: entry %s is not a draft", apperrors.ErrConflict, entry.EntryID)
	}
	for i := range entry.Lines {
		entry.Lines[i].EntryID = entry.EntryID
	}
	t.entries[entry.EntryID] = cloneEntry(entry)
	return nil
}

func (t *memTx) DeleteDraftEntry(_ context.Context, companyID, entryID string) error {
	current, ok := t.entries[entryID]
	if !ok || current.CompanyID != companyID || current.Status != domain.Draft {
		return fmt.Errorf("%w: entry %s is not a draft", apperrors.ErrConflict, entryID)
	}
	delete(t.entries, entryID)
	return nil
}

func (t *memTx) FindAccountsByIDs(_ context.Context, companyID string, accountIDs []string) (map[string]domain.Account, error) {
	return visibleAccounts(t.accounts, companyID, accountIDs), nil
}

// --- reporting ---

func (m *memStore) sumLines(companyID string, filter domain.BalanceFilter, each func(accountID string, l domain.JournalEntryLine)) {
	for _, e := range m.entries {
		if e.CompanyID != companyID || !filter.Period.Contains(e.Date) || !counts(m.entries, e, filter) {
			continue
		}
		for _, l := range e.Lines {
			each(l.AccountID, l)
		}
	}
}

func (m *memStore) SumAccountLines(_ context.Context, companyID, accountID string, filter domain.BalanceFilter) (decimal.Decimal, decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	debit, credit := decimal.Zero, decimal.Zero
	m.sumLines(companyID, filter, func(id string, l domain.JournalEntryLine) {
		if id == accountID {
			debit = debit.Add(l.Debit)
			credit = credit.Add(l.Credit)
		}
	})
	return debit, credit, nil
}

func (m *memStore) SumActivityByAccount(_ context.Context, companyID string, filter domain.BalanceFilter) ([]domain.AccountActivity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byID := map[string]*domain.AccountActivity{}
	var out []*domain.AccountActivity
	for _, a := range m.accounts {
		if !a.VisibleTo(companyID) {
			continue
		}
		act := &domain.AccountActivity{Account: a, DebitTotal: decimal.Zero, CreditTotal: decimal.Zero}
		byID[a.AccountID] = act
		out = append(out, act)
	}
	m.sumLines(companyID, filter, func(id string, l domain.JournalEntryLine) {
		if act, ok := byID[id]; ok {
			act.DebitTotal = act.DebitTotal.Add(l.Debit)
			act.CreditTotal = act.CreditTotal.Add(l.Credit)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	res := make([]domain.AccountActivity, len(out))
	for i, a := range out {
		res[i] = *a
	}
	return res, nil
}

func (m *memStore) FindOrphanedActivity(_ context.Context, companyID string, filter domain.BalanceFilter) ([]domain.OrphanedActivity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byID := map[string]*domain.OrphanedActivity{}
	m.sumLines(companyID, filter, func(id string, l domain.JournalEntryLine) {
		if a, ok := m.accounts[id]; ok && a.VisibleTo(companyID) {
			return
		}
		o, ok := byID[id]
		if !ok {
			o = &domain.OrphanedActivity{AccountID: id, DebitTotal: decimal.Zero, CreditTotal: decimal.Zero}
			byID[id] = o
		}
		o.LineCount++
		o.DebitTotal = o.DebitTotal.Add(l.Debit)
		o.CreditTotal = o.CreditTotal.Add(l.Credit)
	})
	var out []domain.OrphanedActivity
	for _, o := range byID {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out, nil
}

// --- source documents ---

func (m *memStore) ListCashEvents(_ context.Context, companyID string, period domain.DateRange) ([]domain.CashEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.CashEvent
	for _, e := range m.cashEvents[companyID] {
		if period.Contains(e.PaidOn) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) ListOpenItems(_ context.Context, companyID string, asOf time.Time) ([]domain.OpenItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.OpenItem
	for _, it := range m.openItems[companyID] {
		if it.IssueDate.After(asOf) || !it.Outstanding().IsPositive() {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

// --- test fixtures ---

// seedAccount inserts an active account directly, bypassing the service.
func (m *memStore) seedAccount(companyID, id, code, name string, t domain.AccountType, category domain.AccountCategory) domain.Account {
	if category == "" {
		category = domain.DefaultCategory(t)
	}
	now := time.Now().UTC()
	a := domain.Account{
		AccountID:   id,
		CompanyID:   companyID,
		Code:        code,
		Name:        name,
		AccountType: t,
		Category:    category,
		IsActive:    true,
		AuditFields: domain.AuditFields{CreatedAt: now, LastUpdatedAt: now},
	}
	m.mu.Lock()
	m.accounts[id] = a
	m.mu.Unlock()
	return a
}

// forgetAccount drops an account without checking references, leaving orphaned lines.
func (m *memStore) forgetAccount(id string) {
	m.mu.Lock()
	delete(m.accounts, id)
	m.mu.Unlock()
}
