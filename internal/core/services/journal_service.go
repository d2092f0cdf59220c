package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_engine/internal/core/ports/services"
	"github.com/SscSPs/ledger_engine/internal/dto"
	"github.com/SscSPs/ledger_engine/internal/utils/accounting"
	"github.com/google/uuid"
)

// maxDescriptionLength matches the journal_entries.description column.
const maxDescriptionLength = 500

// discardedStatus names the pseudo-state reported when discarding a non-draft.
const discardedStatus = "DISCARDED"

// journalService handles journal entry lifecycle: creation, posting, discarding and reversal.
type journalService struct {
	BaseService
	journalRepo portsrepo.JournalRepositoryFacade
	accountRepo portsrepo.AccountReader
}

// JournalServiceOption is a functional option for configuring the journal service
type JournalServiceOption func(*journalService)

// WithJournalReportCache lets journal mutations invalidate cached reports.
func WithJournalReportCache(cache portsrepo.ReportCache) JournalServiceOption {
	return func(s *journalService) {
		s.ReportCache = cache
	}
}

// NewJournalService creates a new JournalService.
func NewJournalService(journalRepo portsrepo.JournalRepositoryFacade, accountRepo portsrepo.AccountReader, options ...JournalServiceOption) portssvc.JournalSvcFacade {
	svc := &journalService{journalRepo: journalRepo, accountRepo: accountRepo}
	for _, option := range options {
		option(svc)
	}
	return svc
}

// Ensure journalService implements the JournalSvcFacade interface
var _ portssvc.JournalSvcFacade = (*journalService)(nil)

// entryDraft is the validated content of a create or update request.
type entryDraft struct {
	date        time.Time
	description string
	reference   string
	lines       []domain.JournalEntryLine
}

// prepareEntry validates a request and returns lines rounded to storage precision.
func prepareEntry(date, description, reference string, reqLines []dto.JournalLineRequest) (*entryDraft, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, &apperrors.MissingRequiredFieldError{Field: "description"}
	}
	if date == "" {
		return nil, &apperrors.MissingRequiredFieldError{Field: "date"}
	}
	parsed, err := dto.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	lines := dto.ToDomainLines(reqLines)
	if err := accounting.ValidateLines(lines); err != nil {
		return nil, err
	}
	if err := accounting.ValidateEntryBalance(lines); err != nil {
		return nil, err
	}

	lines = accounting.NormalizeLines(lines)
	for i := range lines {
		if lines[i].Debit.IsZero() && lines[i].Credit.IsZero() {
			return nil, fmt.Errorf("%w: line %d rounds to zero", apperrors.ErrValidation, i+1)
		}
		lines[i].LineID = uuid.NewString()
	}
	return &entryDraft{
		date:        domain.TruncateToDate(parsed),
		description: description,
		reference:   strings.TrimSpace(reference),
		lines:       lines,
	}, nil
}

// checkLineAccounts resolves every line account inside tx. Accounts must be
// visible to the company and active.
func checkLineAccounts(ctx context.Context, tx portsrepo.JournalTx, companyID string, entry domain.JournalEntry) error {
	ids := entry.AccountIDs()
	accounts, err := tx.FindAccountsByIDs(ctx, companyID, ids)
	if err != nil {
		return err
	}
	for _, id := range ids {
		acc, ok := accounts[id]
		if !ok || !acc.VisibleTo(companyID) {
			return &apperrors.AccountNotFoundError{AccountID: id}
		}
		if !acc.IsActive {
			return fmt.Errorf("%w: account %s (%s) is inactive", apperrors.ErrValidation, acc.Code, id)
		}
	}
	return nil
}

func (s *journalService) CreateEntry(ctx context.Context, companyID string, req dto.CreateJournalEntryRequest, userID string) (*domain.JournalEntry, error) {
	if err := s.RequireCompany(companyID); err != nil {
		return nil, err
	}
	draft, err := prepareEntry(req.Date, req.Description, req.Reference, req.Lines)
	if err != nil {
		s.LogDebug(ctx, "Journal entry rejected", slog.String("company_id", companyID), slog.String("reason", err.Error()))
		return nil, err
	}

	now := time.Now().UTC()
	entry := domain.JournalEntry{
		EntryID:     uuid.NewString(),
		CompanyID:   companyID,
		Date:        draft.date,
		Description: draft.description,
		Reference:   draft.reference,
		Status:      domain.Draft,
		Lines:       draft.lines,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	if req.Post {
		entry.Status = domain.Posted
		entry.PostedAt = &now
	}

	err = s.journalRepo.WithTx(ctx, func(ctx context.Context, tx portsrepo.JournalTx) error {
		if err := checkLineAccounts(ctx, tx, companyID, entry); err != nil {
			return err
		}
		number, err := tx.NextEntryNumber(ctx, companyID, entry.Date.Year())
		if err != nil {
			return err
		}
		entry.EntryNumber = number
		return tx.InsertEntry(ctx, entry)
	})
	if err != nil {
		s.logMutationError(ctx, err, "Failed to create journal entry", slog.String("company_id", companyID))
		return nil, err
	}

	s.InvalidateReports(ctx, companyID)
	s.LogInfo(ctx, "Journal entry created",
		slog.String("entry_id", entry.EntryID),
		slog.String("entry_number", entry.EntryNumber),
		slog.String("status", string(entry.Status)),
		slog.String("company_id", companyID))
	return &entry, nil
}

func (s *journalService) UpdateDraftEntry(ctx context.Context, companyID string, entryID string, req dto.UpdateDraftEntryRequest, userID string) (*domain.JournalEntry, error) {
	if err := s.RequireCompany(companyID); err != nil {
		return nil, err
	}
	draft, err := prepareEntry(req.Date, req.Description, req.Reference, req.Lines)
	if err != nil {
		return nil, err
	}

	var updated domain.JournalEntry
	err = s.journalRepo.WithTx(ctx, func(ctx context.Context, tx portsrepo.JournalTx) error {
		current, err := tx.FindEntryForUpdate(ctx, companyID, entryID)
		if err != nil {
			return err
		}
		if current.Status != domain.Draft {
			return &apperrors.InvalidStateTransitionError{EntryID: entryID, From: string(current.Status), To: string(domain.Draft)}
		}

		updated = *current
		updated.Date = draft.date
		updated.Description = draft.description
		updated.Reference = draft.reference
		updated.Lines = draft.lines
		updated.LastUpdatedAt = time.Now().UTC()
		updated.LastUpdatedBy = userID

		if err := checkLineAccounts(ctx, tx, companyID, updated); err != nil {
			return err
		}
		return tx.ReplaceDraftEntry(ctx, updated)
	})
	if err != nil {
		s.logMutationError(ctx, err, "Failed to update draft entry", slog.String("entry_id", entryID))
		return nil, err
	}

	s.InvalidateReports(ctx, companyID)
	s.LogInfo(ctx, "Draft entry updated", slog.String("entry_id", entryID))
	return &updated, nil
}

func (s *journalService) PostEntry(ctx context.Context, companyID string, entryID string, userID string) (*domain.JournalEntry, error) {
	if err := s.RequireCompany(companyID); err != nil {
		return nil, err
	}

	var posted domain.JournalEntry
	err := s.journalRepo.WithTx(ctx, func(ctx context.Context, tx portsrepo.JournalTx) error {
		entry, err := tx.FindEntryForUpdate(ctx, companyID, entryID)
		if err != nil {
			return err
		}
		if !entry.Status.CanTransitionTo(domain.Posted) {
			return &apperrors.InvalidStateTransitionError{EntryID: entryID, From: string(entry.Status), To: string(domain.Posted)}
		}
		// Accounts may have been deactivated since the draft was saved.
		if err := accounting.ValidateEntryBalance(entry.Lines); err != nil {
			return err
		}
		if err := checkLineAccounts(ctx, tx, companyID, *entry); err != nil {
			return err
		}

		now := time.Now().UTC()
		if err := tx.UpdateEntryStatus(ctx, portsrepo.StatusChange{
			CompanyID: companyID,
			EntryID:   entryID,
			From:      domain.Draft,
			To:        domain.Posted,
			PostedAt:  &now,
			UpdatedBy: userID,
			UpdatedAt: now,
		}); err != nil {
			return err
		}

		posted = *entry
		posted.Status = domain.Posted
		posted.PostedAt = &now
		posted.LastUpdatedAt = now
		posted.LastUpdatedBy = userID
		return nil
	})
	if err != nil {
		s.logMutationError(ctx, err, "Failed to post journal entry", slog.String("entry_id", entryID))
		return nil, err
	}

	s.InvalidateReports(ctx, companyID)
	s.LogInfo(ctx, "Journal entry posted", slog.String("entry_id", entryID), slog.String("entry_number", posted.EntryNumber))
	return &posted, nil
}

func (s *journalService) DiscardEntry(ctx context.Context, companyID string, entryID string, userID string) error {
	if err := s.RequireCompany(companyID); err != nil {
		return err
	}

	err := s.journalRepo.WithTx(ctx, func(ctx context.Context, tx portsrepo.JournalTx) error {
		entry, err := tx.FindEntryForUpdate(ctx, companyID, entryID)
		if err != nil {
			return err
		}
		if entry.Status != domain.Draft {
			return &apperrors.InvalidStateTransitionError{EntryID: entryID, From: string(entry.Status), To: discardedStatus}
		}
		return tx.DeleteDraftEntry(ctx, companyID, entryID)
	})
	if err != nil {
		s.logMutationError(ctx, err, "Failed to discard journal entry", slog.String("entry_id", entryID))
		return err
	}

	s.InvalidateReports(ctx, companyID)
	s.LogInfo(ctx, "Draft entry discarded", slog.String("entry_id", entryID), slog.String("user_id", userID))
	return nil
}

// ReverseEntry posts an offsetting entry dated like the original and marks the
// original REVERSED, in one transaction with the original row locked.
func (s *journalService) ReverseEntry(ctx context.Context, companyID string, entryID string, userID string) (*domain.JournalEntry, error) {
	if err := s.RequireCompany(companyID); err != nil {
		return nil, err
	}

	var reversal domain.JournalEntry
	err := s.journalRepo.WithTx(ctx, func(ctx context.Context, tx portsrepo.JournalTx) error {
		original, err := tx.FindEntryForUpdate(ctx, companyID, entryID)
		if err != nil {
			return err
		}
		if original.IsReversal() {
			return &apperrors.InvalidStateTransitionError{EntryID: entryID, From: string(original.Status), To: string(domain.Reversed)}
		}
		switch original.Status {
		case domain.Reversed:
			return &apperrors.AlreadyReversedError{EntryID: entryID, ReversedByID: original.ReversedByID}
		case domain.Draft:
			return &apperrors.NotPostedError{EntryID: entryID}
		}

		now := time.Now().UTC()
		reversal = domain.JournalEntry{
			EntryID:      uuid.NewString(),
			CompanyID:    companyID,
			Date:         original.Date,
			Description:  truncate(domain.ReversalDescriptionPrefix+original.Description, maxDescriptionLength),
			Reference:    domain.ReversalReference(original.EntryNumber),
			Status:       domain.Posted,
			ReversalOfID: original.EntryID,
			PostedAt:     &now,
			Lines:        original.ReversedLines(),
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
		for i := range reversal.Lines {
			reversal.Lines[i].LineID = uuid.NewString()
			reversal.Lines[i].EntryID = reversal.EntryID
		}

		number, err := tx.NextEntryNumber(ctx, companyID, reversal.Date.Year())
		if err != nil {
			return err
		}
		reversal.EntryNumber = number
		if err := tx.InsertEntry(ctx, reversal); err != nil {
			return err
		}
		return tx.UpdateEntryStatus(ctx, portsrepo.StatusChange{
			CompanyID:    companyID,
			EntryID:      original.EntryID,
			From:         domain.Posted,
			To:           domain.Reversed,
			ReversedByID: reversal.EntryID,
			UpdatedBy:    userID,
			UpdatedAt:    now,
		})
	})
	if err != nil {
		s.logMutationError(ctx, err, "Failed to reverse journal entry", slog.String("entry_id", entryID))
		return nil, err
	}

	s.InvalidateReports(ctx, companyID)
	s.LogInfo(ctx, "Journal entry reversed",
		slog.String("entry_id", entryID),
		slog.String("reversal_entry_id", reversal.EntryID),
		slog.String("reversal_entry_number", reversal.EntryNumber))
	return &reversal, nil
}

func (s *journalService) GetEntryByID(ctx context.Context, companyID string, entryID string) (*domain.JournalEntry, error) {
	if err := s.RequireCompany(companyID); err != nil {
		return nil, err
	}
	entry, err := s.journalRepo.FindEntryByID(ctx, companyID, entryID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find journal entry by ID", slog.String("entry_id", entryID))
		}
		return nil, err
	}
	return entry, nil
}

func (s *journalService) ListEntries(ctx context.Context, companyID string, params dto.ListJournalEntriesParams) (*dto.ListJournalEntriesResponse, error) {
	if err := s.RequireCompany(companyID); err != nil {
		return nil, err
	}
	statuses, err := domain.ParseStatuses(params.Status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	period, err := dto.ParsePeriod(params.From, params.To)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if err := period.Validate(); err != nil {
		return nil, err
	}

	entries, nextToken, err := s.journalRepo.ListEntries(ctx, companyID, portsrepo.EntryQuery{
		Statuses:  statuses,
		Period:    period,
		Limit:     params.Limit,
		NextToken: params.NextToken,
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrValidation) {
			s.LogError(ctx, err, "Failed to list journal entries", slog.String("company_id", companyID))
		}
		return nil, err
	}

	resp := &dto.ListJournalEntriesResponse{
		Entries:   make([]dto.JournalEntryResponse, len(entries)),
		NextToken: nextToken,
	}
	for i := range entries {
		resp.Entries[i] = dto.ToJournalEntryResponse(&entries[i])
	}
	return resp, nil
}

// ListAccountLedger returns a page of an account's lines with the running
// balance after each line, signed by the account's normal balance.
func (s *journalService) ListAccountLedger(ctx context.Context, companyID string, accountID string, params dto.ListAccountLedgerParams) (*dto.AccountLedgerResponse, error) {
	if err := s.RequireCompany(companyID); err != nil {
		return nil, err
	}
	account, err := s.accountRepo.FindAccountByID(ctx, companyID, accountID)
	if err != nil {
		return nil, err
	}
	period, err := dto.ParsePeriod(params.From, params.To)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if err := period.Validate(); err != nil {
		return nil, err
	}

	page, err := s.journalRepo.ListLinesByAccount(ctx, companyID, accountID, portsrepo.LineQuery{
		Filter:    domain.BalanceFilter{Period: period},
		Limit:     params.Limit,
		NextToken: params.NextToken,
	})
	if err != nil {
		return nil, err
	}

	opening := accounting.SignedBalance(account.AccountType, page.OpeningDebit, page.OpeningCredit)
	running := opening
	lines := make([]domain.AccountLedgerLine, len(page.Lines))
	for i, l := range page.Lines {
		running = running.Add(accounting.SignedBalance(account.AccountType, l.Debit, l.Credit))
		l.RunningBalance = running
		lines[i] = l
	}

	return &dto.AccountLedgerResponse{
		AccountID:      accountID,
		OpeningBalance: opening,
		Lines:          lines,
		NextToken:      page.NextToken,
	}, nil
}

// logMutationError logs unexpected failures; business rule violations are the caller's concern.
func (s *journalService) logMutationError(ctx context.Context, err error, msg string, keyvals ...any) {
	if errors.Is(err, apperrors.ErrValidation) || errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, apperrors.ErrConflict) {
		s.LogDebug(ctx, msg, append(keyvals, slog.String("reason", err.Error()))...)
		return
	}
	s.LogError(ctx, err, msg, keyvals...)
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
