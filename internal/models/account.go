package models

import "database/sql"

// Account is the row shape of the accounts table.
// company_id and parent_account_id are nullable: a NULL company marks a shared system account.
type Account struct {
	AccountID       string         `db:"account_id"`
	CompanyID       sql.NullString `db:"company_id"`
	Code            string         `db:"code"`
	Name            string         `db:"name"`
	AccountType     string         `db:"account_type"`
	Category        string         `db:"category"`
	ParentAccountID sql.NullString `db:"parent_account_id"`
	Description     sql.NullString `db:"description"`
	IsActive        bool           `db:"is_active"`
	AuditFields
}
