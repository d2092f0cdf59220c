package domain

import (
	"fmt"
	"time"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
)

// AuditFields holds standard audit information for domain entities.
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"`
}

// DateLayout is the calendar-date format used on the wire and in tokens.
const DateLayout = "2006-01-02"

// DateRange is an inclusive range of calendar dates. A zero Start means
// "from inception"; a zero End means "no upper bound".
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Validate rejects ranges whose start is after their end.
func (r DateRange) Validate() error {
	if !r.Start.IsZero() && !r.End.IsZero() && r.Start.After(r.End) {
		return fmt.Errorf("%w: start date %s is after end date %s", apperrors.ErrValidation,
			r.Start.Format(DateLayout), r.End.Format(DateLayout))
	}
	return nil
}

// Contains reports whether d falls inside the range, comparing calendar dates only.
func (r DateRange) Contains(d time.Time) bool {
	day := TruncateToDate(d)
	if !r.Start.IsZero() && day.Before(TruncateToDate(r.Start)) {
		return false
	}
	if !r.End.IsZero() && day.After(TruncateToDate(r.End)) {
		return false
	}
	return true
}

// Through returns a range from inception up to and including asOf.
func Through(asOf time.Time) DateRange {
	return DateRange{End: asOf}
}

// TruncateToDate drops the clock part of t, keeping the calendar date in UTC.
func TruncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
