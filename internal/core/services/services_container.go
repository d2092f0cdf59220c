package services

import (
	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_engine/internal/core/ports/services"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Account = NewAccountService(
		repos.AccountRepo,
		WithAccountReportCache(repos.ReportCache),
	)
	container.Journal = NewJournalService(
		repos.JournalRepo,
		repos.AccountRepo,
		WithJournalReportCache(repos.ReportCache),
	)
	container.Balance = NewBalanceService(repos.AccountRepo, repos.ReportingRepo)
	container.Reporting = NewReportingService(
		repos.ReportingRepo,
		repos.DocumentRepo,
		WithReportingCache(repos.ReportCache),
	)

	// Business-event handlers go through the journal service so every write
	// shares its validation and numbering.
	container.Ledger = NewLedgerService(container.Journal)

	return container
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.AccountSvcFacade = (*accountService)(nil)
	_ portssvc.JournalSvcFacade = (*journalService)(nil)
	_ portssvc.BalanceSvc       = (*balanceService)(nil)
	_ portssvc.ReportingService = (*reportingService)(nil)
	_ portssvc.LedgerSvc        = (*ledgerService)(nil)
)
