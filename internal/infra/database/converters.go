package database

import (
	"database/sql"
	"time"

	"care_reminder_service/internal/domain/reminder"
	"care_reminder_service/internal/domain/subject"

	"github.com/google/uuid"
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

const reminderColumns = `id, subject_id, kind, title, description, notes, frequency,
       occurrence_offset_days, requires_action, completed_on, user_created, created_at, updated_at`

type reminderRow struct {
	ID                   uuid.UUID
	SubjectID            uuid.UUID
	Kind                 string
	Title                string
	Description          string
	Notes                string
	Frequency            string
	OccurrenceOffsetDays int
	RequiresAction       bool
	CompletedOn          sql.NullTime
	UserCreated          bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func scanReminder(s rowScanner) (*reminder.Reminder, error) {
	var row reminderRow
	err := s.Scan(
		&row.ID, &row.SubjectID, &row.Kind, &row.Title, &row.Description, &row.Notes, &row.Frequency,
		&row.OccurrenceOffsetDays, &row.RequiresAction, &row.CompletedOn, &row.UserCreated,
		&row.CreatedAt, &row.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// toDomain keeps rows with an unknown kind or frequency readable. The
// scheduling code reports them as corrupt instead of failing a whole listing.
func (row reminderRow) toDomain() *reminder.Reminder {
	kind, _ := reminder.ParseKind(row.Kind) // nil for unknown values
	return &reminder.Reminder{
		ID:                   row.ID,
		SubjectID:            row.SubjectID,
		Kind:                 kind,
		Title:                row.Title,
		Description:          row.Description,
		Notes:                row.Notes,
		Frequency:            reminder.Frequency(row.Frequency),
		OccurrenceOffsetDays: row.OccurrenceOffsetDays,
		RequiresAction:       row.RequiresAction,
		CompletedOn:          fromNullTime(row.CompletedOn),
		UserCreated:          row.UserCreated,
		CreatedAt:            row.CreatedAt.UTC(),
		UpdatedAt:            row.UpdatedAt.UTC(),
	}
}

func kindName(k reminder.Kind) string {
	if k == nil {
		return ""
	}
	return k.String()
}

const subjectColumns = `id, name, date_of_birth, owner_first_name, owner_email, telegram_chat_id,
       timezone, notifications_enabled, daily_digest_enabled, created_at, updated_at`

func scanSubject(s rowScanner) (*subject.Subject, error) {
	var (
		subj subject.Subject
		dob  sql.NullTime
	)
	err := s.Scan(
		&subj.ID, &subj.Name, &dob, &subj.Owner.FirstName, &subj.Owner.Email, &subj.Owner.TelegramChatID,
		&subj.Owner.Preferences.Timezone, &subj.Owner.Preferences.NotificationsEnabled,
		&subj.Owner.Preferences.DailyDigestEnabled, &subj.CreatedAt, &subj.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	subj.DateOfBirth = fromNullTime(dob)
	subj.CreatedAt = subj.CreatedAt.UTC()
	subj.UpdatedAt = subj.UpdatedAt.UTC()
	return &subj, nil
}

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// fromNullTime returns nil for NULL and the UTC instant otherwise.
func fromNullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	utc := t.Time.UTC()
	return &utc
}
