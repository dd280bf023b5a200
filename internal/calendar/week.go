package calendar

import (
	"fmt"
	"time"
)

// DaysPerWeek is the width of the rota grid.
const DaysPerWeek = 7

var dayLabels = [DaysPerWeek]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// WeekStart returns the Monday on or before d.
func WeekStart(d Date) Date {
	return d.AddDays(-DayIndex(d))
}

func AddDays(d Date, n int) Date {
	return d.AddDays(n)
}

// DayIndex maps Monday to 0 and Sunday to 6.
func DayIndex(d Date) int {
	wd := d.Weekday()
	if wd == time.Sunday {
		return 6
	}
	return int(wd) - 1
}

// DayLabel returns the short English label (Mon..Sun) for a day index.
func DayLabel(index int) string {
	if index < 0 || index >= DaysPerWeek {
		return ""
	}
	return dayLabels[index]
}

// WeekDays lists the seven dates of the week starting at weekStart.
func WeekDays(weekStart Date) []Date {
	days := make([]Date, DaysPerWeek)
	for i := range days {
		days[i] = weekStart.AddDays(i)
	}
	return days
}

// DatesOverlap compares two inclusive date ranges.
func DatesOverlap(aStart, aEnd, bStart, bEnd Date) bool {
	return !aStart.After(bEnd) && !bStart.After(aEnd)
}

// TimesOverlap compares two half-open [start, end) timestamp ranges.
func TimesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// DayBounds normalises a date to the half-open timestamp range [midnight, next midnight) in loc.
func DayBounds(d Date, loc *time.Location) (time.Time, time.Time) {
	return d.In(loc), d.AddDays(1).In(loc)
}

// RangeBounds normalises an inclusive date range to the half-open timestamp range it covers.
func RangeBounds(start, end Date, loc *time.Location) (time.Time, time.Time) {
	return start.In(loc), end.AddDays(1).In(loc)
}

// Clock is a wall-clock time of day.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock accepts HH:MM (24h).
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return Clock{}, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func ClockOf(t time.Time, loc *time.Location) Clock {
	local := t.In(loc)
	return Clock{Hour: local.Hour(), Minute: local.Minute()}
}

func (c Clock) minutes() int { return c.Hour*60 + c.Minute }

func (c Clock) Before(other Clock) bool { return c.minutes() < other.minutes() }

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// At builds the timestamp for clock c on day d in loc.
func At(d Date, c Clock, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, c.Hour, c.Minute, 0, 0, loc)
}
