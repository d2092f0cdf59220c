package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/ledger_engine/internal/core/ports/services"
	"github.com/SscSPs/ledger_engine/internal/dto"
	"github.com/SscSPs/ledger_engine/internal/middleware"
	"github.com/gin-gonic/gin"
)

// ledgerHandler accepts balanced business events from upstream systems.
type ledgerHandler struct {
	ledgerService portssvc.LedgerSvc
}

func newLedgerHandler(ls portssvc.LedgerSvc) *ledgerHandler {
	return &ledgerHandler{ledgerService: ls}
}

// registerLedgerRoutes registers business-event routes under a company group.
func registerLedgerRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvc) {
	h := newLedgerHandler(ledgerService)

	events := rg.Group("/events")
	{
		events.POST("", h.recordEvent)
		events.POST("/:entry_id/void", h.voidEvent)
	}
}

// recordEvent godoc
// @Summary Record a business event
// @Description Records and posts the balanced entry of an expense, invoice payment or payroll run
// @Tags events
// @Accept  json
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   event body dto.RecordEventRequest true "Event"
// @Success 201 {object} dto.JournalEntryResponse
// @Failure 400 {object} map[string]string "Unbalanced or invalid event"
// @Router /companies/{company_id}/events [post]
func (h *ledgerHandler) recordEvent(c *gin.Context) {
	companyID, userID, ok := requestScope(c)
	if !ok {
		return
	}
	var req dto.RecordEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, "RecordEvent request", err)
		return
	}

	entry, err := h.ledgerService.RecordBalancedEvent(c.Request.Context(), companyID, req, userID)
	if err != nil {
		respondError(c, "record event", err)
		return
	}

	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Business event recorded",
		slog.String("entry_id", entry.EntryID), slog.String("reference", req.Reference))
	c.JSON(http.StatusCreated, dto.ToJournalEntryResponse(entry))
}

// voidEvent godoc
// @Summary Void a business event
// @Description Reverses the entry recorded for the event
// @Tags events
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   entry_id path string true "Entry ID returned when the event was recorded"
// @Success 201 {object} dto.JournalEntryResponse
// @Failure 409 {object} map[string]string "Already voided"
// @Router /companies/{company_id}/events/{entry_id}/void [post]
func (h *ledgerHandler) voidEvent(c *gin.Context) {
	companyID, userID, ok := requestScope(c)
	if !ok {
		return
	}
	reversal, err := h.ledgerService.VoidEvent(c.Request.Context(), companyID, c.Param("entry_id"), userID)
	if err != nil {
		respondError(c, "void event", err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToJournalEntryResponse(reversal))
}
