package reminder

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound         = errors.New("reminder not found")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrUnknownKind      = errors.New("unknown reminder kind")
)

// Reminder is a care obligation attached to a subject. NextDue and Range are
// derived on every read and never stored.
type Reminder struct {
	ID                   uuid.UUID
	SubjectID            uuid.UUID
	Kind                 Kind
	Title                string
	Description          string
	Notes                string
	Frequency            Frequency
	OccurrenceOffsetDays int
	RequiresAction       bool
	CompletedOn          *time.Time
	UserCreated          bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Template is a baseline catalog entry used to seed new subjects.
type Template struct {
	Kind                 Kind
	Title                string
	Description          string
	Frequency            Frequency
	OccurrenceOffsetDays int
	RequiresAction       bool
}

// Instantiate builds a system-seeded reminder for subjectID.
func (t Template) Instantiate(subjectID uuid.UUID) *Reminder {
	return &Reminder{
		ID:                   uuid.New(),
		SubjectID:            subjectID,
		Kind:                 t.Kind,
		Title:                t.Title,
		Description:          t.Description,
		Frequency:            t.Frequency,
		OccurrenceOffsetDays: t.OccurrenceOffsetDays,
		RequiresAction:       t.RequiresAction,
	}
}

// Patch is a partial update; nil fields are left untouched. StartDate is not
// a stored field, it re-anchors the reminder.
type Patch struct {
	Title                *string
	Description          *string
	Notes                *string
	Frequency            *Frequency
	OccurrenceOffsetDays *int
	RequiresAction       *bool
	CompletedOn          *time.Time
	StartDate            *time.Time
}

// Apply overwrites the non-nil fields of r and reports whether the cadence
// changed.
func (p Patch) Apply(r *Reminder) (frequencyChanged bool) {
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Notes != nil {
		r.Notes = *p.Notes
	}
	if p.Frequency != nil && *p.Frequency != r.Frequency {
		r.Frequency = *p.Frequency
		frequencyChanged = true
	}
	if p.OccurrenceOffsetDays != nil {
		r.OccurrenceOffsetDays = *p.OccurrenceOffsetDays
	}
	if p.RequiresAction != nil {
		r.RequiresAction = *p.RequiresAction
	}
	if p.CompletedOn != nil {
		completed := *p.CompletedOn
		r.CompletedOn = &completed
	}
	return frequencyChanged
}

// MarkComplete records a completion at now and hands the reminder back to
// the default scheduling rules.
func (r *Reminder) MarkComplete(now time.Time) {
	completed := now
	r.CompletedOn = &completed
	r.UserCreated = false
}
