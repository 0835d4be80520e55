package reminder

import (
	"fmt"
	"time"
)

// NextDue estimates when r is next due. now supplies both the current
// instant and the comparison time zone. A nil result without error means the
// due date cannot be computed, e.g. the date of birth is unknown. An error
// means the stored reminder itself is corrupt.
func NextDue(r Reminder, dob *time.Time, now time.Time) (*time.Time, error) {
	if r.Kind == nil {
		return nil, fmt.Errorf("reminder %s: %w", r.ID, ErrUnknownKind)
	}
	if !r.Frequency.Valid() {
		return nil, fmt.Errorf("reminder %s: %w: %q", r.ID, ErrInvalidFrequency, r.Frequency)
	}
	return r.Kind.nextDue(r, dob, now), nil
}
