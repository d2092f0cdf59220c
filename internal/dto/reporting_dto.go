package dto

// PointInTimeReportParams are the query parameters of as-of reports
// (balance sheet, trial balance, aging). AsOf defaults to today.
type PointInTimeReportParams struct {
	AsOf   string `form:"asOf" binding:"omitempty,datetime=2006-01-02"`
	Status string `form:"status"`
}

// PeriodReportParams are the query parameters of period reports
// (income statement, cash flow).
type PeriodReportParams struct {
	From   string `form:"from" binding:"required,datetime=2006-01-02"`
	To     string `form:"to" binding:"required,datetime=2006-01-02"`
	Status string `form:"status"`
}
