package database

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"care_reminder_service/internal/domain/notification"
	"care_reminder_service/internal/domain/reminder"
	"care_reminder_service/internal/domain/subject"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB connects to TEST_DATABASE_URL and applies the migrations. The
// tests are skipped when the variable is unset.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("set TEST_DATABASE_URL to run PostgreSQL integration tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := NewPostgresConnection(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	t.Cleanup(func() {
		db.Exec("TRUNCATE TABLE notification_deliveries, notification_runs, reminders, subjects CASCADE")
		db.Close()
	})
	return db
}

func createSubject(t *testing.T, repo *PostgresSubjectRepository, chatID int64) *subject.Subject {
	t.Helper()
	dob := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := &subject.Subject{
		ID:          uuid.New(),
		Name:        "Mia",
		DateOfBirth: &dob,
		Owner: subject.Owner{
			FirstName:      "Sam",
			TelegramChatID: chatID,
			Preferences:    subject.Preferences{Timezone: "America/Edmonton", DailyDigestEnabled: true},
		},
	}
	require.NoError(t, repo.Create(context.Background(), s))
	return s
}

func TestPostgresSubjectRepository(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewPostgresSubjectRepository(db)

	s := createSubject(t, repo, 555)
	assert.ErrorIs(t, repo.Create(ctx, s), ErrDuplicateSubject)

	got, err := repo.FindByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.Name, got.Name)
	assert.True(t, s.DateOfBirth.Equal(*got.DateOfBirth))
	assert.Equal(t, s.Owner.Preferences, got.Owner.Preferences)

	byChat, err := repo.ListByChatID(ctx, 555)
	require.NoError(t, err)
	assert.Len(t, byChat, 1)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, subject.ErrNotFound)
}

func TestPostgresReminderRepository(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	subj := createSubject(t, NewPostgresSubjectRepository(db), 0)
	repo := NewPostgresReminderRepository(db)

	batch := []*reminder.Reminder{
		{ID: uuid.New(), SubjectID: subj.ID, Kind: reminder.Task, Title: "Bath", Frequency: reminder.Weekly},
		{ID: uuid.New(), SubjectID: subj.ID, Kind: reminder.Milestone, Title: "Social smile", Frequency: reminder.Once, OccurrenceOffsetDays: 42},
	}
	require.NoError(t, repo.SaveAll(ctx, batch))

	completed := time.Date(2025, 5, 28, 0, 0, 0, 0, time.UTC)
	batch[0].CompletedOn = &completed
	require.NoError(t, repo.Save(ctx, batch[0]))

	list, err := repo.ListBySubject(ctx, subj.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Bath", list[0].Title)
	require.NotNil(t, list[0].CompletedOn)
	assert.True(t, completed.Equal(*list[0].CompletedOn))
	assert.Equal(t, reminder.Milestone, list[1].Kind)

	// GIVEN: a batch whose second row references an unknown subject
	bad := []*reminder.Reminder{
		{ID: uuid.New(), SubjectID: subj.ID, Kind: reminder.Task, Title: "Nails", Frequency: reminder.Weekly},
		{ID: uuid.New(), SubjectID: uuid.New(), Kind: reminder.Task, Title: "Orphan", Frequency: reminder.Weekly},
	}
	// THEN: nothing from it is stored
	require.Error(t, repo.SaveAll(ctx, bad))
	list, err = repo.ListBySubject(ctx, subj.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, repo.Delete(ctx, batch[1].ID))
	assert.ErrorIs(t, repo.Delete(ctx, batch[1].ID), reminder.ErrNotFound)
	_, err = repo.FindByID(ctx, batch[1].ID)
	assert.ErrorIs(t, err, reminder.ErrNotFound)
}

func TestPostgresNotificationRepository(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	subj := createSubject(t, NewPostgresSubjectRepository(db), 0)
	repo := NewPostgresNotificationRepository(db)

	runDate := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	_, err := repo.GetRunByDateAndType(ctx, runDate, notification.RunTypeDailyDigest)
	assert.ErrorIs(t, err, notification.ErrRunNotFound)

	run := &notification.Run{ID: uuid.New(), RunDate: runDate, Type: notification.RunTypeDailyDigest}
	require.NoError(t, repo.CreateRun(ctx, run))

	again := &notification.Run{ID: uuid.New(), RunDate: runDate, Type: notification.RunTypeDailyDigest}
	require.NoError(t, repo.CreateRun(ctx, again))
	assert.Equal(t, run.ID, again.ID, "a second run for the same date reuses the first")

	require.NoError(t, repo.RecordDelivery(ctx, &notification.Delivery{
		RunID: run.ID, SubjectID: subj.ID, Template: notification.TemplateDailyDigest,
		Status: notification.DeliveryFailed, Error: "blocked",
	}))
	sent, err := repo.HasSentDelivery(ctx, run.ID, subj.ID)
	require.NoError(t, err)
	assert.False(t, sent)

	require.NoError(t, repo.RecordDelivery(ctx, &notification.Delivery{
		RunID: run.ID, SubjectID: subj.ID, Template: notification.TemplateDailyDigest,
		Status: notification.DeliverySent,
	}))
	sent, err = repo.HasSentDelivery(ctx, run.ID, subj.ID)
	require.NoError(t, err)
	assert.True(t, sent)

	deliveries, err := repo.ListDeliveriesByRun(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, deliveries, 2)
	assert.Equal(t, "blocked", deliveries[0].Error)
}
