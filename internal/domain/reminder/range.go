package reminder

import (
	"fmt"
	"time"
)

// Range is the relative-time bucket a reminder is displayed in.
type Range string

const (
	RangeCompleted     Range = "COMPLETED"
	RangeOverdue       Range = "OVERDUE"
	RangeToday         Range = "TODAY"
	RangeUpcomingWeek  Range = "UPCOMING_WEEK"
	RangeUpcomingMonth Range = "UPCOMING_MONTH"
	RangeFuture        Range = "FUTURE"
)

const (
	weekHorizonDays  = 7
	monthHorizonDays = 30
)

// Classify buckets a due date relative to the date of today. Rules are
// checked in order; the first match wins.
func Classify(due time.Time, completedOn *time.Time, userCreated bool, today time.Time) Range {
	loc := today.Location()
	day := StartOfDay(today)
	dueDay := StartOfDay(due.In(loc))

	if !userCreated && completedOn != nil {
		completedDay := StartOfDay(completedOn.In(loc))
		if !completedDay.After(dueDay) || completedDay.Equal(day) {
			return RangeCompleted
		}
	}

	switch {
	case dueDay.Before(day):
		return RangeOverdue
	case dueDay.Equal(day):
		return RangeToday
	case !dueDay.After(AddDays(day, weekHorizonDays)):
		return RangeUpcomingWeek
	case !dueDay.After(AddDays(day, monthHorizonDays)):
		return RangeUpcomingMonth
	}
	return RangeFuture
}

// WithinHorizon reports whether due falls in [today, today+days], inclusive
// on both ends.
func WithinHorizon(due, today time.Time, days int) bool {
	day := StartOfDay(today)
	dueDay := StartOfDay(due.In(today.Location()))
	return !dueDay.Before(day) && !dueDay.After(AddDays(day, days))
}

func ParseRange(s string) (Range, error) {
	switch r := Range(s); r {
	case RangeCompleted, RangeOverdue, RangeToday, RangeUpcomingWeek, RangeUpcomingMonth, RangeFuture:
		return r, nil
	}
	return "", fmt.Errorf("unknown range %q", s)
}
