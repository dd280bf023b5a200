// Package overlap decides whether a candidate range intersects any member of a set of
// existing ranges. The same check serves holiday-vs-holiday, holiday-vs-pending-request and
// request-vs-request comparisons.
package overlap

import (
	"time"

	"github.com/rotadesk/backend/internal/calendar"
)

// DateRange is an inclusive calendar-date range.
type DateRange struct {
	Start calendar.Date
	End   calendar.Date
}

func NewDateRange(start, end calendar.Date) DateRange {
	return DateRange{Start: start, End: end}
}

func (r DateRange) Valid() bool {
	return !r.End.Before(r.Start)
}

// Contains reports whether d lies in [Start, End].
func (r DateRange) Contains(d calendar.Date) bool {
	return isDateInRange(d, r.Start, r.End)
}

// Days is the number of calendar days covered, both ends included.
func (r DateRange) Days() int {
	return r.Start.DaysUntil(r.End) + 1
}

func isDateInRange(d, start, end calendar.Date) bool {
	return !d.Before(start) && !d.After(end)
}

// Overlaps uses the three-way containment check: either end of the candidate inside the
// existing range, or the existing range starting inside the candidate. The last clause
// catches a candidate that swallows the existing range whole.
func (r DateRange) Overlaps(existing DateRange) bool {
	return isDateInRange(r.Start, existing.Start, existing.End) ||
		isDateInRange(r.End, existing.Start, existing.End) ||
		isDateInRange(existing.Start, r.Start, r.End)
}

// HasOverlap reports whether candidate intersects any of existing.
func HasOverlap(candidate DateRange, existing []DateRange) bool {
	_, ok := FirstOverlap(candidate, existing)
	return ok
}

// FirstOverlap returns the index of the first existing range candidate intersects.
func FirstOverlap(candidate DateRange, existing []DateRange) (int, bool) {
	for i, r := range existing {
		if candidate.Overlaps(r) {
			return i, true
		}
	}
	return -1, false
}

// TimeRange is a half-open [Start, End) timestamp range.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

func (r TimeRange) Valid() bool {
	return r.End.After(r.Start)
}

// Covering normalises a date range to the timestamps it spans in loc, so shift start times
// can be tested against it.
func Covering(r DateRange, loc *time.Location) TimeRange {
	start, end := calendar.RangeBounds(r.Start, r.End, loc)
	return TimeRange{Start: start, End: end}
}
