package pgsql

import (
	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider wires the Postgres repositories. cache may be a
// passthrough when no Redis is configured.
func NewRepositoryProvider(dbPool *pgxpool.Pool, cache portsrepo.ReportCache) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo:   newPgxAccountRepository(dbPool),
		JournalRepo:   newPgxJournalRepository(dbPool),
		ReportingRepo: newReportingRepository(dbPool),
		DocumentRepo:  newDocumentRepository(dbPool),
		ReportCache:   cache,
	}
}
