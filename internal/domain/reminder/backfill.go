package reminder

import "time"

// LastCompletionBefore estimates the most recent cycle boundary strictly
// before today, counting whole cycles from anchor. The result seeds a
// synthetic completion so a freshly seeded recurring task does not show up
// as overdue by many cycles.
//
// A positive offset is used as the cycle length; otherwise the frequency's
// default cycle applies. The returned date always satisfies
// anchor <= d < today.
func LastCompletionBefore(anchor, today time.Time, f Frequency, offsetDays int) (time.Time, bool) {
	cycle := offsetDays
	if cycle <= 0 {
		cycle = f.DefaultCycleDays()
	}
	if cycle <= 0 {
		return time.Time{}, false
	}

	from := StartOfDay(anchor)
	to := StartOfDay(today.In(anchor.Location()))
	if !to.After(from) {
		return time.Time{}, false
	}

	whole := DaysBetween(from, to) / cycle
	if whole == 0 {
		return time.Time{}, false
	}

	candidate := AddDays(from, whole*cycle)
	if !candidate.Before(to) {
		candidate = AddDays(candidate, -cycle)
	}
	if candidate.Before(from) || !candidate.Before(to) {
		return time.Time{}, false
	}
	return candidate, true
}

// LastCompletedFromStart derives a completion from an explicit start instant:
// the last cycle boundary at or before now, stepping one cycle at a time from
// start, truncated to midnight in now's location. A month-end start settles
// on the shortest month it passes through. A start in the future yields one cycle before
// start so the first due date lands on the start itself. Non-repeating
// cadences have no such boundary.
func LastCompletedFromStart(start time.Time, f Frequency, now time.Time) (time.Time, bool) {
	if !f.Repeats() {
		return time.Time{}, false
	}

	boundary := start.In(now.Location())
	last := Advance(boundary, f, -1)
	for !boundary.After(now) {
		last = boundary
		boundary = Advance(boundary, f, 1)
	}
	return StartOfDay(last), true
}
