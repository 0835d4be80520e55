package reminder

import "time"

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// AddDays moves t by whole calendar days, keeping the wall clock.
func AddDays(t time.Time, days int) time.Time {
	return t.AddDate(0, 0, days)
}

// DaysBetween counts calendar days from the date of a to the date of b.
// Each date is read in its own location so DST shifts do not leak in. The
// count is done on day numbers, so it holds for any pair of years.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return dayNumber(by, bm, bd) - dayNumber(ay, am, ad)
}

// dayNumber is the count of days from 1970-01-01 to the given proleptic
// Gregorian date.
func dayNumber(y int, m time.Month, d int) int {
	if m <= time.February {
		y--
	}
	era := y / 400
	if y < 0 && y%400 != 0 {
		era--
	}
	yoe := y - era*400
	mp := (int(m) + 9) % 12
	doy := (153*mp+2)/5 + d - 1
	doe := yoe*365 + yoe/4 - yoe/100 + doy
	return era*146097 + doe - 719468
}

// AnchorDate places a date of birth at midnight in loc. Birth dates are
// calendar dates, so only the year, month and day of dob are used.
func AnchorDate(dob time.Time, loc *time.Location) time.Time {
	y, m, d := dob.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// OffsetFromBirth is the occurrence offset that makes a DOB-anchored reminder
// first come due on the calendar date of start, as seen in loc.
func OffsetFromBirth(dob, start time.Time, loc *time.Location) int {
	return DaysBetween(AnchorDate(dob, loc), start.In(loc))
}

// AgeInDays is the subject's age on the date of now.
func AgeInDays(dob, now time.Time) int {
	return OffsetFromBirth(dob, now, now.Location())
}
