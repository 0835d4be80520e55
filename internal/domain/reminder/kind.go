package reminder

import (
	"fmt"
	"strings"
	"time"
)

// Kind is the closed set of reminder kinds. The unexported method keeps the
// set sealed: every kind has to carry its own due-date rule.
type Kind interface {
	fmt.Stringer
	nextDue(r Reminder, dob *time.Time, now time.Time) *time.Time
}

type (
	taskKind        struct{}
	vaccinationKind struct{}
	milestoneKind   struct{}
)

var (
	Task        Kind = taskKind{}
	Vaccination Kind = vaccinationKind{}
	Milestone   Kind = milestoneKind{}
)

func (taskKind) String() string        { return "TASK" }
func (vaccinationKind) String() string { return "VACCINATION" }
func (milestoneKind) String() string   { return "MILESTONE" }

// Kinds lists every kind in storage order.
func Kinds() []Kind {
	return []Kind{Task, Vaccination, Milestone}
}

func ParseKind(s string) (Kind, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for _, k := range Kinds() {
		if k.String() == name {
			return k, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Milestones are seeded by the system and are read-only afterwards.
func Mutable(k Kind) bool {
	return k == Task || k == Vaccination
}

// Ranged reports whether reminders of kind k are bucketed into a Range.
// Milestones are age markers and never appear in range listings.
func Ranged(k Kind) bool {
	switch k {
	case Task, Vaccination:
		return true
	case Milestone:
		return false
	}
	return false
}

func (milestoneKind) nextDue(r Reminder, dob *time.Time, now time.Time) *time.Time {
	if dob == nil {
		return nil
	}
	due := AddDays(AnchorDate(*dob, now.Location()), r.OccurrenceOffsetDays)
	return &due
}

func (vaccinationKind) nextDue(r Reminder, dob *time.Time, now time.Time) *time.Time {
	if dob == nil {
		return nil
	}
	base := AddDays(AnchorDate(*dob, now.Location()), r.OccurrenceOffsetDays)
	if r.Frequency == Once || r.CompletedOn == nil {
		return &base
	}
	due := Advance(r.CompletedOn.In(now.Location()), r.Frequency, 1)
	return &due
}

func (taskKind) nextDue(r Reminder, dob *time.Time, now time.Time) *time.Time {
	loc := now.Location()
	today := StartOfDay(now)

	if r.Frequency == Daily {
		due := today
		if r.CompletedOn != nil {
			completed := StartOfDay(r.CompletedOn.In(loc))
			switch {
			case completed.After(today) && r.UserCreated:
				due = AddDays(completed, 1)
			case completed.Equal(today):
				due = AddDays(today, 1)
			}
		}
		return &due
	}

	base := AddDays(today, r.OccurrenceOffsetDays)
	if dob != nil {
		base = AddDays(AnchorDate(*dob, loc), r.OccurrenceOffsetDays)
	}
	if r.Frequency == Once || r.CompletedOn == nil {
		return &base
	}
	due := Advance(r.CompletedOn.In(loc), r.Frequency, 1)
	return &due
}
