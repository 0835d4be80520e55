package database

import (
	"database/sql"
	"testing"
	"time"

	"care_reminder_service/internal/domain/reminder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReminderRowToDomain(t *testing.T) {
	edmonton := time.FixedZone("MDT", -6*60*60)
	completed := time.Date(2025, 5, 20, 18, 0, 0, 0, edmonton)

	row := reminderRow{
		ID:          uuid.New(),
		SubjectID:   uuid.New(),
		Kind:        "VACCINATION",
		Title:       "Flu",
		Frequency:   "ANNUAL",
		CompletedOn: sql.NullTime{Time: completed, Valid: true},
		UserCreated: true,
	}

	r := row.toDomain()
	assert.Equal(t, reminder.Vaccination, r.Kind)
	assert.Equal(t, reminder.Annual, r.Frequency)
	require.NotNil(t, r.CompletedOn)
	assert.True(t, completed.Equal(*r.CompletedOn))
	assert.Equal(t, time.UTC, r.CompletedOn.Location())
	assert.True(t, r.UserCreated)
}

func TestReminderRowToDomain_CorruptValuesStayReadable(t *testing.T) {
	r := reminderRow{Kind: "CHORE", Frequency: "HOURLY"}.toDomain()

	assert.Nil(t, r.Kind)
	assert.Nil(t, r.CompletedOn)

	_, err := reminder.NextDue(*r, nil, time.Now())
	assert.Error(t, err)
}

func TestNullTimeHelpers(t *testing.T) {
	assert.False(t, toNullTime(nil).Valid)
	assert.Nil(t, fromNullTime(sql.NullTime{}))

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	nt := toNullTime(&now)
	assert.True(t, nt.Valid)
	assert.Equal(t, now, *fromNullTime(nt))

	assert.Empty(t, kindName(nil))
	assert.Equal(t, "MILESTONE", kindName(reminder.Milestone))
}

func TestDateOnly(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	assert.Equal(t, "2025-06-02", dateOnly(time.Date(2025, 6, 2, 0, 0, 0, 0, tokyo)))
}
