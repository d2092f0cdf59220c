package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portssvc "github.com/SscSPs/ledger_engine/internal/core/ports/services"
	"github.com/SscSPs/ledger_engine/internal/dto"
	"github.com/SscSPs/ledger_engine/internal/handlers"
	"github.com/SscSPs/ledger_engine/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock Services ---

type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) GetAccountByID(ctx context.Context, companyID, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, companyID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) ListAccounts(ctx context.Context, companyID string, includeInactive bool) ([]domain.Account, error) {
	args := m.Called(ctx, companyID, includeInactive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountService) GetAccountTree(ctx context.Context, companyID string, includeInactive bool) ([]*domain.AccountNode, error) {
	args := m.Called(ctx, companyID, includeInactive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AccountNode), args.Error(1)
}

func (m *MockAccountService) CreateAccount(ctx context.Context, companyID string, req dto.CreateAccountRequest, userID string) (*domain.Account, error) {
	args := m.Called(ctx, companyID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) UpdateAccount(ctx context.Context, companyID, accountID string, req dto.UpdateAccountRequest, userID string) (*domain.Account, error) {
	args := m.Called(ctx, companyID, accountID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) DeactivateAccount(ctx context.Context, companyID, accountID, userID string) error {
	return m.Called(ctx, companyID, accountID, userID).Error(0)
}

func (m *MockAccountService) DeleteAccount(ctx context.Context, companyID, accountID, userID string) error {
	return m.Called(ctx, companyID, accountID, userID).Error(0)
}

var _ portssvc.AccountSvcFacade = (*MockAccountService)(nil)

type MockBalanceService struct {
	mock.Mock
}

func (m *MockBalanceService) ComputeBalance(ctx context.Context, companyID, accountID string, filter domain.BalanceFilter) (decimal.Decimal, error) {
	args := m.Called(ctx, companyID, accountID, filter)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

var _ portssvc.BalanceSvc = (*MockBalanceService)(nil)

type MockJournalService struct {
	mock.Mock
}

func (m *MockJournalService) entry(args mock.Arguments) (*domain.JournalEntry, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalService) GetEntryByID(ctx context.Context, companyID, entryID string) (*domain.JournalEntry, error) {
	return m.entry(m.Called(ctx, companyID, entryID))
}

func (m *MockJournalService) ListEntries(ctx context.Context, companyID string, params dto.ListJournalEntriesParams) (*dto.ListJournalEntriesResponse, error) {
	args := m.Called(ctx, companyID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListJournalEntriesResponse), args.Error(1)
}

func (m *MockJournalService) ListAccountLedger(ctx context.Context, companyID, accountID string, params dto.ListAccountLedgerParams) (*dto.AccountLedgerResponse, error) {
	args := m.Called(ctx, companyID, accountID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AccountLedgerResponse), args.Error(1)
}

func (m *MockJournalService) CreateEntry(ctx context.Context, companyID string, req dto.CreateJournalEntryRequest, userID string) (*domain.JournalEntry, error) {
	return m.entry(m.Called(ctx, companyID, req, userID))
}

func (m *MockJournalService) UpdateDraftEntry(ctx context.Context, companyID, entryID string, req dto.UpdateDraftEntryRequest, userID string) (*domain.JournalEntry, error) {
	return m.entry(m.Called(ctx, companyID, entryID, req, userID))
}

func (m *MockJournalService) PostEntry(ctx context.Context, companyID, entryID, userID string) (*domain.JournalEntry, error) {
	return m.entry(m.Called(ctx, companyID, entryID, userID))
}

func (m *MockJournalService) DiscardEntry(ctx context.Context, companyID, entryID, userID string) error {
	return m.Called(ctx, companyID, entryID, userID).Error(0)
}

func (m *MockJournalService) ReverseEntry(ctx context.Context, companyID, entryID, userID string) (*domain.JournalEntry, error) {
	return m.entry(m.Called(ctx, companyID, entryID, userID))
}

var _ portssvc.JournalSvcFacade = (*MockJournalService)(nil)

type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) RecordBalancedEvent(ctx context.Context, companyID string, req dto.RecordEventRequest, userID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, companyID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockLedgerService) VoidEvent(ctx context.Context, companyID, entryID, userID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, companyID, entryID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

var _ portssvc.LedgerSvc = (*MockLedgerService)(nil)

type MockReportingService struct {
	mock.Mock
}

func (m *MockReportingService) BalanceSheet(ctx context.Context, filter domain.ReportFilter) (*domain.BalanceSheetReport, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BalanceSheetReport), args.Error(1)
}

func (m *MockReportingService) IncomeStatement(ctx context.Context, filter domain.ReportFilter) (*domain.IncomeStatementReport, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IncomeStatementReport), args.Error(1)
}

func (m *MockReportingService) CashFlow(ctx context.Context, filter domain.ReportFilter) (*domain.CashFlowReport, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CashFlowReport), args.Error(1)
}

func (m *MockReportingService) AgingReport(ctx context.Context, filter domain.ReportFilter) (*domain.AgingReport, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AgingReport), args.Error(1)
}

func (m *MockReportingService) TrialBalance(ctx context.Context, filter domain.ReportFilter) (*domain.TrialBalanceReport, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TrialBalanceReport), args.Error(1)
}

var _ portssvc.ReportingService = (*MockReportingService)(nil)

// --- Test Suite ---

type HandlerTestSuite struct {
	suite.Suite
	router    *gin.Engine
	accounts  *MockAccountService
	balances  *MockBalanceService
	journal   *MockJournalService
	ledger    *MockLedgerService
	reporting *MockReportingService
	companyID string
	userID    string
}

func (suite *HandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()

	suite.accounts = new(MockAccountService)
	suite.balances = new(MockBalanceService)
	suite.journal = new(MockJournalService)
	suite.ledger = new(MockLedgerService)
	suite.reporting = new(MockReportingService)
	suite.companyID = uuid.NewString()
	suite.userID = uuid.NewString()

	handlers.RegisterRoutes(suite.router, &portssvc.ServiceContainer{
		Account:   suite.accounts,
		Journal:   suite.journal,
		Balance:   suite.balances,
		Reporting: suite.reporting,
		Ledger:    suite.ledger,
	}, map[string]handlers.HealthCheck{
		"database": func(context.Context) error { return nil },
	})
}

func (suite *HandlerTestSuite) TearDownTest() {
	suite.accounts.AssertExpectations(suite.T())
	suite.balances.AssertExpectations(suite.T())
	suite.journal.AssertExpectations(suite.T())
	suite.ledger.AssertExpectations(suite.T())
	suite.reporting.AssertExpectations(suite.T())
}

func (suite *HandlerTestSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	url := fmt.Sprintf("/api/v1/companies/%s%s", suite.companyID, path)
	req, _ := http.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.UserIDHeader, suite.userID)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlerTestSuite) decode(w *httptest.ResponseRecorder, out any) {
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

// --- Account routes ---

func (suite *HandlerTestSuite) TestCreateAccount_Success() {
	req := dto.CreateAccountRequest{Code: "1000", Name: "Cash", AccountType: domain.Asset, Category: domain.CurrentAsset}
	created := &domain.Account{
		AccountID:   uuid.NewString(),
		CompanyID:   suite.companyID,
		Code:        "1000",
		Name:        "Cash",
		AccountType: domain.Asset,
		Category:    domain.CurrentAsset,
		IsActive:    true,
	}
	suite.accounts.On("CreateAccount", mock.Anything, suite.companyID, req, suite.userID).Return(created, nil).Once()

	w := suite.do(http.MethodPost, "/accounts", req)

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.AccountResponse
	suite.decode(w, &resp)
	suite.Equal(created.AccountID, resp.AccountID)
	suite.Equal(domain.CurrentAsset, resp.Category)
	suite.False(resp.IsSystem)
}

func (suite *HandlerTestSuite) TestCreateAccount_RejectsUnknownType() {
	w := suite.do(http.MethodPost, "/accounts", gin.H{"code": "1000", "name": "Cash", "accountType": "CASH"})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.accounts.AssertNotCalled(suite.T(), "CreateAccount", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *HandlerTestSuite) TestCreateAccount_DuplicateCode() {
	suite.accounts.On("CreateAccount", mock.Anything, suite.companyID, mock.Anything, suite.userID).
		Return(nil, &apperrors.DuplicateCodeError{Code: "1000"}).Once()

	w := suite.do(http.MethodPost, "/accounts", gin.H{"code": "1000", "name": "Cash", "accountType": "ASSET"})

	suite.Equal(http.StatusConflict, w.Code)
	var body map[string]any
	suite.decode(w, &body)
	suite.Equal(map[string]any{"code": "1000"}, body["detail"])
}

func (suite *HandlerTestSuite) TestMissingUserHeaderIsUnauthorized() {
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/companies/"+suite.companyID+"/accounts", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *HandlerTestSuite) TestListAccounts_IncludeInactive() {
	accounts := []domain.Account{{AccountID: "a1", Code: "1000", AccountType: domain.Asset}}
	suite.accounts.On("ListAccounts", mock.Anything, suite.companyID, true).Return(accounts, nil).Once()

	w := suite.do(http.MethodGet, "/accounts?includeInactive=true", nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.ListAccountsResponse
	suite.decode(w, &resp)
	suite.Len(resp.Accounts, 1)
}

func (suite *HandlerTestSuite) TestAccountTree_EmptyChartIsEmptyArray() {
	suite.accounts.On("GetAccountTree", mock.Anything, suite.companyID, false).Return(nil, nil).Once()

	w := suite.do(http.MethodGet, "/accounts/tree", nil)

	suite.Equal(http.StatusOK, w.Code)
	suite.JSONEq(`[]`, w.Body.String())
}

func (suite *HandlerTestSuite) TestUpdateSystemAccountIsForbidden() {
	name := "Renamed"
	suite.accounts.On("UpdateAccount", mock.Anything, suite.companyID, "sys-1", dto.UpdateAccountRequest{Name: &name}, suite.userID).
		Return(nil, fmt.Errorf("%w: system accounts are read-only", apperrors.ErrForbidden)).Once()

	w := suite.do(http.MethodPut, "/accounts/sys-1", gin.H{"name": name})

	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *HandlerTestSuite) TestDeleteAccountInUse() {
	suite.accounts.On("DeleteAccount", mock.Anything, suite.companyID, "a1", suite.userID).
		Return(&apperrors.AccountInUseError{AccountID: "a1", LineCount: 3}).Once()

	w := suite.do(http.MethodDelete, "/accounts/a1", nil)

	suite.Equal(http.StatusConflict, w.Code)
	var body map[string]any
	suite.decode(w, &body)
	suite.Equal(float64(3), body["detail"].(map[string]any)["lineCount"])
}

func (suite *HandlerTestSuite) TestDeactivateAccount() {
	suite.accounts.On("DeactivateAccount", mock.Anything, suite.companyID, "a1", suite.userID).Return(nil).Once()

	w := suite.do(http.MethodPost, "/accounts/a1/deactivate", nil)

	suite.Equal(http.StatusNoContent, w.Code)
}

func (suite *HandlerTestSuite) TestAccountBalance_ParsesFilter() {
	account := &domain.Account{AccountID: "a1", AccountType: domain.Revenue}
	suite.accounts.On("GetAccountByID", mock.Anything, suite.companyID, "a1").Return(account, nil).Once()
	suite.balances.On("ComputeBalance", mock.Anything, suite.companyID, "a1", mock.MatchedBy(func(f domain.BalanceFilter) bool {
		return f.Period.Start.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) &&
			f.Period.End.Equal(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)) &&
			len(f.Statuses) == 2
	})).Return(decimal.RequireFromString("1000.00"), nil).Once()

	w := suite.do(http.MethodGet, "/accounts/a1/balance?from=2024-01-01&to=2024-01-31&status=posted,reversed", nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.AccountBalanceResponse
	suite.decode(w, &resp)
	suite.True(resp.Balance.Equal(decimal.NewFromInt(1000)))
	suite.Equal(domain.Revenue, resp.AccountType)
	suite.Equal([]domain.EntryStatus{domain.Posted, domain.Reversed}, resp.Statuses)
}

func (suite *HandlerTestSuite) TestAccountBalance_UnknownStatus() {
	w := suite.do(http.MethodGet, "/accounts/a1/balance?status=VOID", nil)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.balances.AssertNotCalled(suite.T(), "ComputeBalance", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *HandlerTestSuite) TestAccountLedger_NotFound() {
	suite.journal.On("ListAccountLedger", mock.Anything, suite.companyID, "missing", mock.MatchedBy(func(p dto.ListAccountLedgerParams) bool {
		return p.Limit == 50
	})).Return(nil, &apperrors.AccountNotFoundError{AccountID: "missing"}).Once()

	w := suite.do(http.MethodGet, "/accounts/missing/ledger", nil)

	suite.Equal(http.StatusNotFound, w.Code)
}

// --- Journal routes ---

func (suite *HandlerTestSuite) TestCreateEntry_Unbalanced() {
	suite.journal.On("CreateEntry", mock.Anything, suite.companyID, mock.Anything, suite.userID).
		Return(nil, &apperrors.UnbalancedEntryError{
			DebitTotal:  decimal.RequireFromString("100.00"),
			CreditTotal: decimal.RequireFromString("90.00"),
		}).Once()

	w := suite.do(http.MethodPost, "/journal-entries", gin.H{
		"date":        "2024-01-15",
		"description": "Office supplies",
		"lines": []gin.H{
			{"accountID": "a1", "debit": "100.00"},
			{"accountID": "a2", "credit": "90.00"},
		},
	})

	suite.Equal(http.StatusBadRequest, w.Code)
	var body map[string]any
	suite.decode(w, &body)
	detail := body["detail"].(map[string]any)
	suite.Equal("100", detail["debitTotal"])
	suite.Equal("90", detail["creditTotal"])
}

func (suite *HandlerTestSuite) TestCreateEntry_BadDate() {
	w := suite.do(http.MethodPost, "/journal-entries", gin.H{
		"date":        "15/01/2024",
		"description": "Office supplies",
		"lines":       []gin.H{{"accountID": "a1", "debit": "1"}},
	})

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestCreateEntry_Posted() {
	entry := &domain.JournalEntry{
		EntryID:     uuid.NewString(),
		CompanyID:   suite.companyID,
		EntryNumber: "JE-2024-000001",
		Date:        time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		Description: "Office supplies",
		Status:      domain.Posted,
		Lines: []domain.JournalEntryLine{
			{LineNumber: 1, AccountID: "a1", Debit: decimal.NewFromInt(100), Credit: decimal.Zero},
			{LineNumber: 2, AccountID: "a2", Debit: decimal.Zero, Credit: decimal.NewFromInt(100)},
		},
	}
	suite.journal.On("CreateEntry", mock.Anything, suite.companyID, mock.MatchedBy(func(r dto.CreateJournalEntryRequest) bool {
		return r.Post && len(r.Lines) == 2 && r.Lines[0].Debit.Equal(decimal.NewFromInt(100))
	}), suite.userID).Return(entry, nil).Once()

	w := suite.do(http.MethodPost, "/journal-entries", gin.H{
		"date":        "2024-01-15",
		"description": "Office supplies",
		"post":        true,
		"lines": []gin.H{
			{"accountID": "a1", "debit": "100"},
			{"accountID": "a2", "credit": "100"},
		},
	})

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.JournalEntryResponse
	suite.decode(w, &resp)
	suite.Equal("JE-2024-000001", resp.EntryNumber)
	suite.Equal("2024-01-15", resp.Date)
	suite.True(resp.DebitTotal.Equal(resp.CreditTotal))
}

func (suite *HandlerTestSuite) TestReverseEntry_AlreadyReversed() {
	suite.journal.On("ReverseEntry", mock.Anything, suite.companyID, "e1", suite.userID).
		Return(nil, &apperrors.AlreadyReversedError{EntryID: "e1", ReversedByID: "e2"}).Once()

	w := suite.do(http.MethodPost, "/journal-entries/e1/reverse", nil)

	suite.Equal(http.StatusConflict, w.Code)
	var body map[string]any
	suite.decode(w, &body)
	suite.Equal("e2", body["detail"].(map[string]any)["reversedByID"])
}

func (suite *HandlerTestSuite) TestPostEntry_NotDraft() {
	suite.journal.On("PostEntry", mock.Anything, suite.companyID, "e1", suite.userID).
		Return(nil, &apperrors.InvalidStateTransitionError{EntryID: "e1", From: "POSTED", To: "POSTED"}).Once()

	w := suite.do(http.MethodPost, "/journal-entries/e1/post", nil)

	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *HandlerTestSuite) TestDiscardEntry() {
	suite.journal.On("DiscardEntry", mock.Anything, suite.companyID, "e1", suite.userID).Return(nil).Once()

	w := suite.do(http.MethodDelete, "/journal-entries/e1", nil)

	suite.Equal(http.StatusNoContent, w.Code)
}

func (suite *HandlerTestSuite) TestGetEntry_InternalErrorIsMasked() {
	suite.journal.On("GetEntryByID", mock.Anything, suite.companyID, "e1").
		Return(nil, errors.New("connection reset by peer")).Once()

	w := suite.do(http.MethodGet, "/journal-entries/e1", nil)

	suite.Equal(http.StatusInternalServerError, w.Code)
	suite.NotContains(w.Body.String(), "connection reset")
}

func (suite *HandlerTestSuite) TestListEntries_Defaults() {
	suite.journal.On("ListEntries", mock.Anything, suite.companyID, mock.MatchedBy(func(p dto.ListJournalEntriesParams) bool {
		return p.Limit == 20 && p.Status == "DRAFT"
	})).Return(&dto.ListJournalEntriesResponse{Entries: []dto.JournalEntryResponse{}}, nil).Once()

	w := suite.do(http.MethodGet, "/journal-entries?status=DRAFT", nil)

	suite.Equal(http.StatusOK, w.Code)
}

// --- Event routes ---

func (suite *HandlerTestSuite) TestRecordAndVoidEvent() {
	recorded := &domain.JournalEntry{EntryID: "e1", Status: domain.Posted, Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)}
	reversal := &domain.JournalEntry{EntryID: "e2", Status: domain.Posted, ReversalOfID: "e1", Date: recorded.Date}
	suite.ledger.On("RecordBalancedEvent", mock.Anything, suite.companyID, mock.MatchedBy(func(r dto.RecordEventRequest) bool {
		return r.Reference == "INV-7"
	}), suite.userID).Return(recorded, nil).Once()
	suite.ledger.On("VoidEvent", mock.Anything, suite.companyID, "e1", suite.userID).Return(reversal, nil).Once()

	w := suite.do(http.MethodPost, "/events", gin.H{
		"date":        "2024-02-01",
		"description": "Invoice paid",
		"reference":   "INV-7",
		"lines": []gin.H{
			{"accountID": "cash", "debit": "50"},
			{"accountID": "ar", "credit": "50"},
		},
	})
	suite.Equal(http.StatusCreated, w.Code)

	w = suite.do(http.MethodPost, "/events/e1/void", nil)
	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.JournalEntryResponse
	suite.decode(w, &resp)
	suite.Equal("e1", resp.ReversalOfID)
}

// --- Report routes ---

func (suite *HandlerTestSuite) TestBalanceSheet_AsOf() {
	asOf := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	suite.reporting.On("BalanceSheet", mock.Anything, mock.MatchedBy(func(f domain.ReportFilter) bool {
		return f.CompanyID == suite.companyID && f.Period.End.Equal(asOf) && f.Period.Start.IsZero() && f.Statuses == nil
	})).Return(&domain.BalanceSheetReport{CompanyID: suite.companyID, AsOf: asOf}, nil).Once()

	w := suite.do(http.MethodGet, "/reports/balance-sheet?asOf=2024-03-31", nil)

	suite.Equal(http.StatusOK, w.Code)
	var report domain.BalanceSheetReport
	suite.decode(w, &report)
	suite.Equal(suite.companyID, report.CompanyID)
}

func (suite *HandlerTestSuite) TestTrialBalance_DefaultsAsOfToService() {
	suite.reporting.On("TrialBalance", mock.Anything, mock.MatchedBy(func(f domain.ReportFilter) bool {
		return f.Period.End.IsZero()
	})).Return(&domain.TrialBalanceReport{}, nil).Once()

	w := suite.do(http.MethodGet, "/reports/trial-balance", nil)

	suite.Equal(http.StatusOK, w.Code)
}

func (suite *HandlerTestSuite) TestIncomeStatement_RequiresPeriod() {
	w := suite.do(http.MethodGet, "/reports/income-statement?from=2024-01-01", nil)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.reporting.AssertNotCalled(suite.T(), "IncomeStatement", mock.Anything, mock.Anything)
}

func (suite *HandlerTestSuite) TestIncomeStatement_InvertedPeriod() {
	suite.reporting.On("IncomeStatement", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: period end precedes start", apperrors.ErrValidation)).Once()

	w := suite.do(http.MethodGet, "/reports/income-statement?from=2024-02-01&to=2024-01-01", nil)

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestCashFlowAndAging() {
	suite.reporting.On("CashFlow", mock.Anything, mock.Anything).Return(&domain.CashFlowReport{}, nil).Once()
	suite.reporting.On("AgingReport", mock.Anything, mock.Anything).Return(&domain.AgingReport{}, nil).Once()

	suite.Equal(http.StatusOK, suite.do(http.MethodGet, "/reports/cash-flow?from=2024-01-01&to=2024-12-31", nil).Code)
	suite.Equal(http.StatusOK, suite.do(http.MethodGet, "/reports/aging?asOf=2024-12-31", nil).Code)
}

// --- Health ---

func (suite *HandlerTestSuite) TestHealth() {
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusOK, w.Code)
	suite.JSONEq(`{"status":"OK","checks":{"database":"ok"}}`, w.Body.String())
}

func TestHealthReportsFailingDependency(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers.RegisterRoutes(r, &portssvc.ServiceContainer{}, map[string]handlers.HealthCheck{
		"redis": func(context.Context) error { return errors.New("dial tcp: refused") },
	})

	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestRegisterValidatorsReportsNoFailures(t *testing.T) {
	var logs bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(previous) })

	handlers.RegisterValidators()
	handlers.RegisterValidators()
	if strings.Contains(logs.String(), "Failed to register") {
		t.Fatalf("validator registration logged a failure: %s", logs.String())
	}

	valid := dto.CreateAccountRequest{Code: "1010", Name: "Cash", AccountType: domain.Asset, Category: domain.CurrentAsset}
	if err := binding.Validator.ValidateStruct(valid); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}
	invalid := valid
	invalid.AccountType = "BOGUS"
	if err := binding.Validator.ValidateStruct(invalid); err == nil {
		t.Fatal("expected accounttype to reject BOGUS")
	}
	invalid = valid
	invalid.Category = "BOGUS"
	if err := binding.Validator.ValidateStruct(invalid); err == nil {
		t.Fatal("expected accountcategory to reject BOGUS")
	}
}

// --- Run Test Suite ---
func TestHandlers(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}
