package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portssvc "github.com/SscSPs/ledger_engine/internal/core/ports/services"
	"github.com/SscSPs/ledger_engine/internal/dto"
	"github.com/gin-gonic/gin"
)

// reportingHandler handles HTTP requests related to financial reports
type reportingHandler struct {
	reportingService portssvc.ReportingService
}

// newReportingHandler creates a new reportingHandler
func newReportingHandler(rs portssvc.ReportingService) *reportingHandler {
	return &reportingHandler{
		reportingService: rs,
	}
}

// registerReportingRoutes registers routes related to financial reports
func registerReportingRoutes(rg *gin.RouterGroup, reportingService portssvc.ReportingService) {
	h := newReportingHandler(reportingService)

	reports := rg.Group("/reports")
	{
		reports.GET("/balance-sheet", pointInTimeReport(h.reportingService.BalanceSheet))
		reports.GET("/trial-balance", pointInTimeReport(h.reportingService.TrialBalance))
		reports.GET("/aging", pointInTimeReport(h.reportingService.AgingReport))
		reports.GET("/income-statement", periodReport(h.reportingService.IncomeStatement))
		reports.GET("/cash-flow", periodReport(h.reportingService.CashFlow))
	}
}

// pointInTimeReport serves an as-of report (balance sheet, trial balance, aging).
// Query: asOf (YYYY-MM-DD, defaults to today) and status (comma separated, defaults to POSTED).
func pointInTimeReport[T any](build func(context.Context, domain.ReportFilter) (*T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		companyID, _, ok := requestScope(c)
		if !ok {
			return
		}
		var params dto.PointInTimeReportParams
		if err := c.ShouldBindQuery(&params); err != nil {
			bindFailed(c, "report query", err)
			return
		}
		filter, err := reportFilter(companyID, "", params.AsOf, params.Status)
		if err != nil {
			respondError(c, "generate report", err)
			return
		}
		serveReport(c, filter, build)
	}
}

// periodReport serves a report over a from/to period (income statement, cash flow).
func periodReport[T any](build func(context.Context, domain.ReportFilter) (*T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		companyID, _, ok := requestScope(c)
		if !ok {
			return
		}
		var params dto.PeriodReportParams
		if err := c.ShouldBindQuery(&params); err != nil {
			bindFailed(c, "report query", err)
			return
		}
		filter, err := reportFilter(companyID, params.From, params.To, params.Status)
		if err != nil {
			respondError(c, "generate report", err)
			return
		}
		serveReport(c, filter, build)
	}
}

func serveReport[T any](c *gin.Context, filter domain.ReportFilter, build func(context.Context, domain.ReportFilter) (*T, error)) {
	report, err := build(c.Request.Context(), filter)
	if err != nil {
		respondError(c, "generate report", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func reportFilter(companyID, from, to, status string) (domain.ReportFilter, error) {
	period, err := dto.ParsePeriod(from, to)
	if err != nil {
		return domain.ReportFilter{}, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	statuses, err := domain.ParseStatuses(status)
	if err != nil {
		return domain.ReportFilter{}, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	return domain.ReportFilter{CompanyID: companyID, Period: period, Statuses: statuses}, nil
}
