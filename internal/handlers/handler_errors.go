package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/middleware"
	"github.com/gin-gonic/gin"
)

// errorStatus maps service errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrDuplicate), errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Code > 0 {
		return appErr.Code
	}
	return http.StatusInternalServerError
}

// errorDetail exposes the structured fields of ledger errors so clients
// do not have to parse messages.
func errorDetail(err error) gin.H {
	var (
		unbalanced *apperrors.UnbalancedEntryError
		transition *apperrors.InvalidStateTransitionError
		reversed   *apperrors.AlreadyReversedError
		inUse      *apperrors.AccountInUseError
		missing    *apperrors.MissingRequiredFieldError
		dupCode    *apperrors.DuplicateCodeError
	)
	switch {
	case errors.As(err, &unbalanced):
		return gin.H{"debitTotal": unbalanced.DebitTotal, "creditTotal": unbalanced.CreditTotal}
	case errors.As(err, &transition):
		return gin.H{"entryID": transition.EntryID, "from": transition.From, "to": transition.To}
	case errors.As(err, &reversed):
		return gin.H{"entryID": reversed.EntryID, "reversedByID": reversed.ReversedByID}
	case errors.As(err, &inUse):
		return gin.H{"accountID": inUse.AccountID, "lineCount": inUse.LineCount}
	case errors.As(err, &missing):
		return gin.H{"field": missing.Field}
	case errors.As(err, &dupCode):
		return gin.H{"code": dupCode.Code}
	}
	return nil
}

// respondError writes the error response for a failed service call. Client
// errors are logged at warn, everything else at error with a generic message.
func respondError(c *gin.Context, action string, err error) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Failed to "+action, slog.String("error", err.Error()))
		c.JSON(status, gin.H{"error": "Failed to " + action})
		return
	}

	logger.Warn("Request rejected", slog.String("action", action), slog.Int("status", status), slog.String("error", err.Error()))
	body := gin.H{"error": err.Error()}
	if detail := errorDetail(err); detail != nil {
		body["detail"] = detail
	}
	c.JSON(status, body)
}

// bindFailed writes a 400 for a request that did not bind.
func bindFailed(c *gin.Context, what string, err error) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	logger.Warn("Failed to bind "+what, slog.String("error", err.Error()))
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
}

// requestScope returns the company and acting user of the request, writing
// the error response when either is missing.
func requestScope(c *gin.Context) (companyID, userID string, ok bool) {
	companyID, ok = middleware.GetCompanyIDFromContext(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "company id is required"})
		return "", "", false
	}
	userID, ok = middleware.GetUserIDFromContext(c)
	if !ok {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", "", false
	}
	return companyID, userID, true
}
