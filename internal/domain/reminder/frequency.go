package reminder

import (
	"fmt"
	"strings"
	"time"
)

// Frequency is the repeat cadence of a reminder.
type Frequency string

const (
	Once      Frequency = "ONCE"
	Daily     Frequency = "DAILY"
	Weekly    Frequency = "WEEKLY"
	Monthly   Frequency = "MONTHLY"
	Quarterly Frequency = "QUARTERLY"
	Annual    Frequency = "ANNUAL"
)

// ParseFrequency accepts the upper-case storage names in any letter case.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToUpper(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
	}
	return f, nil
}

func (f Frequency) Valid() bool {
	switch f {
	case Once, Daily, Weekly, Monthly, Quarterly, Annual:
		return true
	}
	return false
}

// Repeats reports whether the cadence ever produces a second occurrence.
func (f Frequency) Repeats() bool {
	return f.Valid() && f != Once
}

// DefaultCycleDays is the approximate cycle length used by backfill when a
// reminder carries no explicit offset. Zero means no backfill is possible.
func (f Frequency) DefaultCycleDays() int {
	switch f {
	case Daily:
		return 1
	case Weekly:
		return 7
	case Monthly:
		return 30
	case Quarterly:
		return 90
	case Annual:
		return 365
	}
	return 0
}

// Advance moves t by steps cadence units. Negative steps move backwards.
// Month based cadences keep the day of month, clamped to the length of the
// target month: Jan 31 plus one month is Feb 28 (or 29). Once and unknown
// frequencies leave t unchanged.
func Advance(t time.Time, f Frequency, steps int) time.Time {
	switch f {
	case Daily:
		return t.AddDate(0, 0, steps)
	case Weekly:
		return t.AddDate(0, 0, 7*steps)
	case Monthly:
		return addMonths(t, steps)
	case Quarterly:
		return addMonths(t, 3*steps)
	case Annual:
		return addMonths(t, 12*steps)
	}
	return t
}

func addMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	hh, mm, ss := t.Clock()
	return time.Date(first.Year(), first.Month(), d, hh, mm, ss, t.Nanosecond(), t.Location())
}

func daysIn(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (f Frequency) String() string { return string(f) }
