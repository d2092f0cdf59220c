package services

import (
	"context"
	"log/slog"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
	"github.com/SscSPs/ledger_engine/internal/middleware"
)

// BaseService provides common functionality for all services
type BaseService struct {
	// ReportCache is bumped after every successful ledger mutation. May be nil.
	ReportCache portsrepo.ReportCache
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+2)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	logger.ErrorContext(ctx, msg, args...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).InfoContext(ctx, msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).DebugContext(ctx, msg, keyvals...)
}

// RequireCompany rejects calls without a tenant scope.
func (s *BaseService) RequireCompany(companyID string) error {
	if companyID == "" {
		return &apperrors.MissingTenantError{}
	}
	return nil
}

// InvalidateReports drops cached reports of the company. A cache failure is
// logged and swallowed: the mutation has already committed.
func (s *BaseService) InvalidateReports(ctx context.Context, companyID string) {
	if s.ReportCache == nil {
		return
	}
	if err := s.ReportCache.Invalidate(ctx, companyID); err != nil {
		s.LogError(ctx, err, "Failed to invalidate report cache", slog.String("company_id", companyID))
	}
}
