package handlers

import (
	"log/slog"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portssvc "github.com/SscSPs/ledger_engine/internal/core/ports/services"
	"github.com/SscSPs/ledger_engine/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	services *portssvc.ServiceContainer,
	checks map[string]HealthCheck,
) {
	RegisterValidators()

	r.GET("/health", getHealth(checks))

	setupAPIV1Routes(r, services)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(r *gin.Engine, services *portssvc.ServiceContainer) {
	v1 := r.Group("/api/v1", middleware.ActorMiddleware())

	// Every ledger resource is scoped to one company.
	company := v1.Group("/companies/:company_id", middleware.CompanyScopeMiddleware())
	registerAccountRoutes(company, services.Account, services.Balance, services.Journal)
	registerJournalRoutes(company, services.Journal)
	registerLedgerRoutes(company, services.Ledger)
	registerReportingRoutes(company, services.Reporting)
}

// RegisterValidators adds the account enum tags used by the request DTOs to
// gin's validator. It is safe to call more than once.
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		slog.Warn("Gin validator engine is not go-playground/validator; enum tags not registered")
		return
	}
	tags := map[string]validator.Func{
		"accounttype": func(fl validator.FieldLevel) bool {
			return domain.AccountType(fl.Field().String()).IsValid()
		},
		"accountcategory": func(fl validator.FieldLevel) bool {
			return domain.AccountCategory(fl.Field().String()).IsValid()
		},
	}
	for tag, fn := range tags {
		if err := v.RegisterValidation(tag, fn); err != nil {
			slog.Error("Failed to register request validator", slog.String("tag", tag), slog.String("error", err.Error()))
		}
	}
}
