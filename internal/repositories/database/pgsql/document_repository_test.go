package pgsql

import (
	"strings"
	"testing"
	"time"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCashEventsQuery(t *testing.T) {
	args := queryArgs{}
	query := cashEventsQuery(&args, "acme", domain.DateRange{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 3, 31, 18, 0, 0, 0, time.UTC),
	})

	assert.Contains(t, query, "p.company_id = $1")
	assert.Contains(t, query, "p.paid_on >= $2")
	assert.Contains(t, query, "p.paid_on <= $3")
	assert.Contains(t, query, "i.is_void")
	assert.Contains(t, query, "b.is_void")
	require.Len(t, args, 3)
	assert.Equal(t, "acme", args[0])
	assert.Equal(t, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), args[2])

	args = queryArgs{}
	open := cashEventsQuery(&args, "acme", domain.DateRange{})
	assert.NotContains(t, open, "paid_on >=")
	assert.Len(t, args, 1)
}

func TestOpenItemsQuery_PaymentsScopedToCompany(t *testing.T) {
	// Both payments subqueries carry the company filter.
	assert.Equal(t, 2, strings.Count(openItemsQuery, "p.company_id = $1"))
	assert.Contains(t, openItemsQuery, "i.company_id = $1 AND NOT i.is_void")
	assert.Contains(t, openItemsQuery, "b.company_id = $1 AND NOT b.is_void")
}
