package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/ledger_engine/internal/core/ports/services"
	"github.com/SscSPs/ledger_engine/internal/dto"
	"github.com/SscSPs/ledger_engine/internal/middleware"
	"github.com/gin-gonic/gin"
)

// journalHandler handles HTTP requests for the journal entry lifecycle.
type journalHandler struct {
	journalService portssvc.JournalSvcFacade
}

// newJournalHandler creates a new journalHandler.
func newJournalHandler(js portssvc.JournalSvcFacade) *journalHandler {
	return &journalHandler{journalService: js}
}

// registerJournalRoutes registers journal entry routes under a company group.
func registerJournalRoutes(rg *gin.RouterGroup, journalService portssvc.JournalSvcFacade) {
	h := newJournalHandler(journalService)

	entries := rg.Group("/journal-entries")
	{
		entries.POST("", h.createEntry)
		entries.GET("", h.listEntries)
		entries.GET("/:id", h.getEntry)
		entries.PUT("/:id", h.updateDraftEntry)
		entries.DELETE("/:id", h.discardEntry)
		entries.POST("/:id/post", h.postEntry)
		entries.POST("/:id/reverse", h.reverseEntry)
	}
}

// createEntry godoc
// @Summary Record a journal entry
// @Description Records a balanced entry as DRAFT, or POSTED when post is true
// @Tags journal
// @Accept  json
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   entry body dto.CreateJournalEntryRequest true "Entry"
// @Success 201 {object} dto.JournalEntryResponse
// @Failure 400 {object} map[string]string "Unbalanced or invalid entry"
// @Failure 404 {object} map[string]string "Account not found"
// @Router /companies/{company_id}/journal-entries [post]
func (h *journalHandler) createEntry(c *gin.Context) {
	companyID, userID, ok := requestScope(c)
	if !ok {
		return
	}
	var req dto.CreateJournalEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, "CreateJournalEntry request", err)
		return
	}

	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	logger.Info("Received request to create journal entry", slog.Int("line_count", len(req.Lines)), slog.Bool("post", req.Post))

	entry, err := h.journalService.CreateEntry(c.Request.Context(), companyID, req, userID)
	if err != nil {
		respondError(c, "create journal entry", err)
		return
	}

	logger.Info("Journal entry created", slog.String("entry_id", entry.EntryID), slog.String("entry_number", entry.EntryNumber))
	c.JSON(http.StatusCreated, dto.ToJournalEntryResponse(entry))
}

// getEntry godoc
// @Summary Get a journal entry
// @Tags journal
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   id path string true "Entry ID"
// @Success 200 {object} dto.JournalEntryResponse
// @Failure 404 {object} map[string]string "Entry not found"
// @Router /companies/{company_id}/journal-entries/{id} [get]
func (h *journalHandler) getEntry(c *gin.Context) {
	companyID, _, ok := requestScope(c)
	if !ok {
		return
	}
	entry, err := h.journalService.GetEntryByID(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		respondError(c, "retrieve journal entry", err)
		return
	}
	c.JSON(http.StatusOK, dto.ToJournalEntryResponse(entry))
}

// listEntries godoc
// @Summary List journal entries
// @Description Newest first, filtered by status and date
// @Tags journal
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   limit query int false "Page size" default(20)
// @Param   nextToken query string false "Token from the previous page"
// @Param   status query string false "Comma separated entry statuses"
// @Param   from query string false "Start date (YYYY-MM-DD)"
// @Param   to query string false "End date (YYYY-MM-DD)"
// @Success 200 {object} dto.ListJournalEntriesResponse
// @Router /companies/{company_id}/journal-entries [get]
func (h *journalHandler) listEntries(c *gin.Context) {
	companyID, _, ok := requestScope(c)
	if !ok {
		return
	}
	var params dto.ListJournalEntriesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindFailed(c, "ListJournalEntries query", err)
		return
	}

	resp, err := h.journalService.ListEntries(c.Request.Context(), companyID, params)
	if err != nil {
		respondError(c, "list journal entries", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// updateDraftEntry godoc
// @Summary Replace a draft entry
// @Tags journal
// @Accept  json
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   id path string true "Entry ID"
// @Param   entry body dto.UpdateDraftEntryRequest true "Entry"
// @Success 200 {object} dto.JournalEntryResponse
// @Failure 409 {object} map[string]string "Entry is not a draft"
// @Router /companies/{company_id}/journal-entries/{id} [put]
func (h *journalHandler) updateDraftEntry(c *gin.Context) {
	companyID, userID, ok := requestScope(c)
	if !ok {
		return
	}
	var req dto.UpdateDraftEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, "UpdateDraftEntry request", err)
		return
	}

	entry, err := h.journalService.UpdateDraftEntry(c.Request.Context(), companyID, c.Param("id"), req, userID)
	if err != nil {
		respondError(c, "update journal entry", err)
		return
	}
	c.JSON(http.StatusOK, dto.ToJournalEntryResponse(entry))
}

// postEntry godoc
// @Summary Post a draft entry
// @Tags journal
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   id path string true "Entry ID"
// @Success 200 {object} dto.JournalEntryResponse
// @Failure 409 {object} map[string]string "Entry is not a draft"
// @Router /companies/{company_id}/journal-entries/{id}/post [post]
func (h *journalHandler) postEntry(c *gin.Context) {
	companyID, userID, ok := requestScope(c)
	if !ok {
		return
	}
	entry, err := h.journalService.PostEntry(c.Request.Context(), companyID, c.Param("id"), userID)
	if err != nil {
		respondError(c, "post journal entry", err)
		return
	}
	c.JSON(http.StatusOK, dto.ToJournalEntryResponse(entry))
}

// discardEntry godoc
// @Summary Discard a draft entry
// @Tags journal
// @Param   company_id path string true "Company ID"
// @Param   id path string true "Entry ID"
// @Success 204 "No Content"
// @Failure 409 {object} map[string]string "Entry is not a draft"
// @Router /companies/{company_id}/journal-entries/{id} [delete]
func (h *journalHandler) discardEntry(c *gin.Context) {
	companyID, userID, ok := requestScope(c)
	if !ok {
		return
	}
	if err := h.journalService.DiscardEntry(c.Request.Context(), companyID, c.Param("id"), userID); err != nil {
		respondError(c, "discard journal entry", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// reverseEntry godoc
// @Summary Reverse a posted entry
// @Description Creates a POSTED offsetting entry dated like the original and marks the original REVERSED
// @Tags journal
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   id path string true "Entry ID"
// @Success 201 {object} dto.JournalEntryResponse
// @Failure 409 {object} map[string]string "Entry already reversed, not posted, or itself a reversal"
// @Router /companies/{company_id}/journal-entries/{id}/reverse [post]
func (h *journalHandler) reverseEntry(c *gin.Context) {
	companyID, userID, ok := requestScope(c)
	if !ok {
		return
	}
	reversal, err := h.journalService.ReverseEntry(c.Request.Context(), companyID, c.Param("id"), userID)
	if err != nil {
		respondError(c, "reverse journal entry", err)
		return
	}

	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Journal entry reversed",
		slog.String("entry_id", c.Param("id")), slog.String("reversal_id", reversal.EntryID))
	c.JSON(http.StatusCreated, dto.ToJournalEntryResponse(reversal))
}
