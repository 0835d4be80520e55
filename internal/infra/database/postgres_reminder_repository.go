package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"care_reminder_service/internal/domain/reminder"

	"github.com/google/uuid"
)

var _ reminder.Repository = (*PostgresReminderRepository)(nil)

type PostgresReminderRepository struct {
	db *sql.DB
}

func NewPostgresReminderRepository(db *sql.DB) *PostgresReminderRepository {
	return &PostgresReminderRepository{db: db}
}

const upsertReminderQuery = `INSERT INTO reminders (id, subject_id, kind, title, description, notes, frequency,
                       occurrence_offset_days, requires_action, completed_on, user_created)
          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
          ON CONFLICT (id) DO UPDATE SET
              kind = EXCLUDED.kind,
              title = EXCLUDED.title,
              description = EXCLUDED.description,
              notes = EXCLUDED.notes,
              frequency = EXCLUDED.frequency,
              occurrence_offset_days = EXCLUDED.occurrence_offset_days,
              requires_action = EXCLUDED.requires_action,
              completed_on = EXCLUDED.completed_on,
              user_created = EXCLUDED.user_created,
              updated_at = NOW()
          RETURNING created_at, updated_at`

func upsertArgs(r *reminder.Reminder) []any {
	return []any{
		r.ID, r.SubjectID, kindName(r.Kind), r.Title, r.Description, r.Notes, string(r.Frequency),
		r.OccurrenceOffsetDays, r.RequiresAction, toNullTime(r.CompletedOn), r.UserCreated,
	}
}

func (repo *PostgresReminderRepository) FindByID(ctx context.Context, id uuid.UUID) (*reminder.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders WHERE id = $1`
	r, err := scanReminder(repo.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, reminder.ErrNotFound
		}
		return nil, fmt.Errorf("error getting reminder by ID: %w", err)
	}
	return r, nil
}

func (repo *PostgresReminderRepository) ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]*reminder.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders WHERE subject_id = $1 ORDER BY seq ASC`
	rows, err := repo.db.QueryContext(ctx, query, subjectID)
	if err != nil {
		return nil, fmt.Errorf("error listing reminders for subject: %w", err)
	}
	defer rows.Close()

	var out []*reminder.Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning reminder row: %w", err)
		}
		out = append(out, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminder rows: %w", err)
	}
	return out, nil
}

func (repo *PostgresReminderRepository) Save(ctx context.Context, r *reminder.Reminder) error {
	err := repo.db.QueryRowContext(ctx, upsertReminderQuery, upsertArgs(r)...).Scan(&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error saving reminder %s: %w", r.ID, err)
	}
	return nil
}

// SaveAll writes the batch in one transaction.
func (repo *PostgresReminderRepository) SaveAll(ctx context.Context, rs []*reminder.Reminder) error {
	if len(rs) == 0 {
		return nil
	}

	txn, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for reminder batch: %w", err)
	}
	defer txn.Rollback()

	stmt, err := txn.PrepareContext(ctx, upsertReminderQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare reminder batch statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range rs {
		if err := stmt.QueryRowContext(ctx, upsertArgs(r)...).Scan(&r.CreatedAt, &r.UpdatedAt); err != nil {
			return fmt.Errorf("error saving reminder %s in batch: %w", r.ID, err)
		}
	}

	return txn.Commit()
}

func (repo *PostgresReminderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := repo.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting reminder: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking deleted reminder: %w", err)
	}
	if affected == 0 {
		return reminder.ErrNotFound
	}
	return nil
}
