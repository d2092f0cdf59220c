package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portssvc "github.com/SscSPs/ledger_engine/internal/core/ports/services"
	"github.com/SscSPs/ledger_engine/internal/dto"
	"github.com/SscSPs/ledger_engine/internal/middleware"
	"github.com/gin-gonic/gin"
)

// accountHandler handles HTTP requests related to the chart of accounts.
type accountHandler struct {
	accountService portssvc.AccountSvcFacade
	balanceService portssvc.BalanceSvc
	journalService portssvc.JournalReaderSvc
}

// newAccountHandler creates a new accountHandler.
func newAccountHandler(as portssvc.AccountSvcFacade, bs portssvc.BalanceSvc, js portssvc.JournalReaderSvc) *accountHandler {
	return &accountHandler{
		accountService: as,
		balanceService: bs,
		journalService: js,
	}
}

// registerAccountRoutes registers routes related to accounts under a company group.
func registerAccountRoutes(rg *gin.RouterGroup, accountService portssvc.AccountSvcFacade, balanceService portssvc.BalanceSvc, journalService portssvc.JournalReaderSvc) {
	h := newAccountHandler(accountService, balanceService, journalService)

	accounts := rg.Group("/accounts")
	{
		accounts.POST("", h.createAccount)
		accounts.GET("", h.listAccounts)
		accounts.GET("/tree", h.getAccountTree)
		accounts.GET("/:id", h.getAccount)
		accounts.PUT("/:id", h.updateAccount)
		accounts.DELETE("/:id", h.deleteAccount)
		accounts.POST("/:id/deactivate", h.deactivateAccount)
		accounts.GET("/:id/balance", h.getAccountBalance)
		accounts.GET("/:id/ledger", h.getAccountLedger)
	}
}

// parseBalanceFilter turns optional from/to/status query values into a filter.
func parseBalanceFilter(from, to, status string) (domain.BalanceFilter, error) {
	period, err := dto.ParsePeriod(from, to)
	if err != nil {
		return domain.BalanceFilter{}, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	statuses, err := domain.ParseStatuses(status)
	if err != nil {
		return domain.BalanceFilter{}, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	return domain.BalanceFilter{Period: period, Statuses: statuses}, nil
}

// createAccount godoc
// @Summary Create a new account
// @Description Adds an account to the company's chart of accounts
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   account body dto.CreateAccountRequest true "Account details"
// @Success 201 {object} dto.AccountResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 404 {object} map[string]string "Parent account not found"
// @Failure 409 {object} map[string]string "Account code already exists"
// @Failure 500 {object} map[string]string "Failed to create account"
// @Router /companies/{company_id}/accounts [post]
func (h *accountHandler) createAccount(c *gin.Context) {
	companyID, userID, ok := requestScope(c)
	if !ok {
		return
	}
	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, "CreateAccount request", err)
		return
	}

	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	logger.Info("Received request to create account", slog.String("code", req.Code), slog.String("account_type", string(req.AccountType)))

	account, err := h.accountService.CreateAccount(c.Request.Context(), companyID, req, userID)
	if err != nil {
		respondError(c, "create account", err)
		return
	}

	logger.Info("Account created successfully", slog.String("account_id", account.AccountID))
	c.JSON(http.StatusCreated, dto.ToAccountResponse(account))
}

// getAccount godoc
// @Summary Get an account by ID
// @Tags accounts
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   id path string true "Account ID"
// @Success 200 {object} dto.AccountResponse
// @Failure 404 {object} map[string]string "Account not found"
// @Router /companies/{company_id}/accounts/{id} [get]
func (h *accountHandler) getAccount(c *gin.Context) {
	companyID, _, ok := requestScope(c)
	if !ok {
		return
	}
	account, err := h.accountService.GetAccountByID(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		respondError(c, "retrieve account", err)
		return
	}
	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

// listAccounts godoc
// @Summary List accounts
// @Description Lists the company's accounts, including shared system accounts, ordered by code
// @Tags accounts
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   includeInactive query bool false "Include deactivated accounts"
// @Success 200 {object} dto.ListAccountsResponse
// @Router /companies/{company_id}/accounts [get]
func (h *accountHandler) listAccounts(c *gin.Context) {
	companyID, _, ok := requestScope(c)
	if !ok {
		return
	}
	var params dto.ListAccountsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindFailed(c, "ListAccounts query", err)
		return
	}

	accounts, err := h.accountService.ListAccounts(c.Request.Context(), companyID, params.IncludeInactive)
	if err != nil {
		respondError(c, "list accounts", err)
		return
	}
	c.JSON(http.StatusOK, dto.ListAccountsResponse{Accounts: dto.ToListAccountResponse(accounts)})
}

// getAccountTree godoc
// @Summary Chart of accounts as a tree
// @Tags accounts
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   includeInactive query bool false "Include deactivated accounts"
// @Success 200 {array} domain.AccountNode
// @Router /companies/{company_id}/accounts/tree [get]
func (h *accountHandler) getAccountTree(c *gin.Context) {
	companyID, _, ok := requestScope(c)
	if !ok {
		return
	}
	var params dto.ListAccountsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindFailed(c, "AccountTree query", err)
		return
	}

	tree, err := h.accountService.GetAccountTree(c.Request.Context(), companyID, params.IncludeInactive)
	if err != nil {
		respondError(c, "build account tree", err)
		return
	}
	if tree == nil {
		tree = []*domain.AccountNode{}
	}
	c.JSON(http.StatusOK, tree)
}

// updateAccount godoc
// @Summary Update an account
// @Description Changes mutable fields. The type cannot change once journal lines reference the account.
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   id path string true "Account ID"
// @Param   account body dto.UpdateAccountRequest true "Fields to update"
// @Success 200 {object} dto.AccountResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 403 {object} map[string]string "System accounts are read-only"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 409 {object} map[string]string "Account in use"
// @Router /companies/{company_id}/accounts/{id} [put]
func (h *accountHandler) updateAccount(c *gin.Context) {
	companyID, userID, ok := requestScope(c)
	if !ok {
		return
	}
	var req dto.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, "UpdateAccount request", err)
		return
	}

	account, err := h.accountService.UpdateAccount(c.Request.Context(), companyID, c.Param("id"), req, userID)
	if err != nil {
		respondError(c, "update account", err)
		return
	}
	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

// deactivateAccount godoc
// @Summary Deactivate an account
// @Description Soft-disables an account. Deactivating an inactive account is a no-op.
// @Tags accounts
// @Param   company_id path string true "Company ID"
// @Param   id path string true "Account ID"
// @Success 204 "No Content"
// @Failure 403 {object} map[string]string "System accounts are read-only"
// @Failure 404 {object} map[string]string "Account not found"
// @Router /companies/{company_id}/accounts/{id}/deactivate [post]
func (h *accountHandler) deactivateAccount(c *gin.Context) {
	companyID, userID, ok := requestScope(c)
	if !ok {
		return
	}
	if err := h.accountService.DeactivateAccount(c.Request.Context(), companyID, c.Param("id"), userID); err != nil {
		respondError(c, "deactivate account", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// deleteAccount godoc
// @Summary Delete an account
// @Description Hard-deletes an account no journal line references
// @Tags accounts
// @Param   company_id path string true "Company ID"
// @Param   id path string true "Account ID"
// @Success 204 "No Content"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 409 {object} map[string]string "Account in use"
// @Router /companies/{company_id}/accounts/{id} [delete]
func (h *accountHandler) deleteAccount(c *gin.Context) {
	companyID, userID, ok := requestScope(c)
	if !ok {
		return
	}
	if err := h.accountService.DeleteAccount(c.Request.Context(), companyID, c.Param("id"), userID); err != nil {
		respondError(c, "delete account", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// getAccountBalance godoc
// @Summary Account balance
// @Description Signed balance of the account over an optional period and status filter (default POSTED)
// @Tags accounts
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   id path string true "Account ID"
// @Param   from query string false "Start date (YYYY-MM-DD)"
// @Param   to query string false "End date (YYYY-MM-DD)"
// @Param   status query string false "Comma separated entry statuses"
// @Success 200 {object} dto.AccountBalanceResponse
// @Failure 400 {object} map[string]string "Invalid filter"
// @Failure 404 {object} map[string]string "Account not found"
// @Router /companies/{company_id}/accounts/{id}/balance [get]
func (h *accountHandler) getAccountBalance(c *gin.Context) {
	companyID, _, ok := requestScope(c)
	if !ok {
		return
	}
	var params dto.AccountBalanceParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindFailed(c, "AccountBalance query", err)
		return
	}
	filter, err := parseBalanceFilter(params.From, params.To, params.Status)
	if err != nil {
		respondError(c, "compute balance", err)
		return
	}

	accountID := c.Param("id")
	account, err := h.accountService.GetAccountByID(c.Request.Context(), companyID, accountID)
	if err != nil {
		respondError(c, "compute balance", err)
		return
	}
	balance, err := h.balanceService.ComputeBalance(c.Request.Context(), companyID, accountID, filter)
	if err != nil {
		respondError(c, "compute balance", err)
		return
	}

	c.JSON(http.StatusOK, dto.AccountBalanceResponse{
		AccountID:   accountID,
		AccountType: account.AccountType,
		Balance:     balance,
		From:        params.From,
		To:          params.To,
		Statuses:    filter.EffectiveStatuses(),
	})
}

// getAccountLedger godoc
// @Summary Account ledger
// @Description Pages through the account's posted lines with running balances
// @Tags accounts
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   id path string true "Account ID"
// @Param   limit query int false "Page size" default(50)
// @Param   nextToken query string false "Token from the previous page"
// @Param   from query string false "Start date (YYYY-MM-DD)"
// @Param   to query string false "End date (YYYY-MM-DD)"
// @Success 200 {object} dto.AccountLedgerResponse
// @Failure 404 {object} map[string]string "Account not found"
// @Router /companies/{company_id}/accounts/{id}/ledger [get]
func (h *accountHandler) getAccountLedger(c *gin.Context) {
	companyID, _, ok := requestScope(c)
	if !ok {
		return
	}
	var params dto.ListAccountLedgerParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindFailed(c, "AccountLedger query", err)
		return
	}

	resp, err := h.journalService.ListAccountLedger(c.Request.Context(), companyID, c.Param("id"), params)
	if err != nil {
		respondError(c, "list account ledger", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
