package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"care_reminder_service/internal/domain/notification"

	"github.com/google/uuid"
)

var _ notification.Repository = (*PostgresNotificationRepository)(nil)

type PostgresNotificationRepository struct {
	db *sql.DB
}

func NewPostgresNotificationRepository(db *sql.DB) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{db: db}
}

// --- Run Methods ---

// CreateRun inserts the run. When another process already created the run for
// the same date and type, run is filled in with the existing row instead.
func (r *PostgresNotificationRepository) CreateRun(ctx context.Context, run *notification.Run) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	query := `INSERT INTO notification_runs (id, run_date, run_type)
          VALUES ($1, $2, $3)
          RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query, run.ID, dateOnly(run.RunDate), run.Type).Scan(&run.CreatedAt)
	if err == nil {
		return nil
	}
	if !isUniqueViolation(err) {
		return fmt.Errorf("error creating notification run: %w", err)
	}

	existing, getErr := r.GetRunByDateAndType(ctx, run.RunDate, run.Type)
	if getErr != nil {
		return fmt.Errorf("error loading concurrent notification run: %w", getErr)
	}
	*run = *existing
	return nil
}

func (r *PostgresNotificationRepository) GetRunByDateAndType(ctx context.Context, runDate time.Time, runType notification.RunType) (*notification.Run, error) {
	query := `SELECT id, run_date, run_type, created_at FROM notification_runs WHERE run_date = $1 AND run_type = $2`
	run := notification.Run{}
	err := r.db.QueryRowContext(ctx, query, dateOnly(runDate), runType).Scan(&run.ID, &run.RunDate, &run.Type, &run.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notification.ErrRunNotFound
		}
		return nil, fmt.Errorf("error getting notification run by date and type: %w", err)
	}
	return &run, nil
}

// --- Delivery Methods ---

func (r *PostgresNotificationRepository) RecordDelivery(ctx context.Context, d *notification.Delivery) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	query := `INSERT INTO notification_deliveries (id, run_id, subject_id, template, status, error)
          VALUES ($1, $2, $3, $4, $5, $6)
          RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query, d.ID, d.RunID, d.SubjectID, d.Template, d.Status, d.Error).Scan(&d.CreatedAt)
	if err != nil {
		return fmt.Errorf("error recording delivery: %w", err)
	}
	return nil
}

func (r *PostgresNotificationRepository) HasSentDelivery(ctx context.Context, runID, subjectID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (
              SELECT 1 FROM notification_deliveries
              WHERE run_id = $1 AND subject_id = $2 AND status = $3)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, runID, subjectID, notification.DeliverySent).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking sent delivery: %w", err)
	}
	return exists, nil
}

func (r *PostgresNotificationRepository) ListDeliveriesByRun(ctx context.Context, runID uuid.UUID) ([]*notification.Delivery, error) {
	query := `SELECT id, run_id, subject_id, template, status, error, created_at
          FROM notification_deliveries
          WHERE run_id = $1
          ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("error listing deliveries: %w", err)
	}
	defer rows.Close()

	var out []*notification.Delivery
	for rows.Next() {
		d := &notification.Delivery{}
		if err := rows.Scan(&d.ID, &d.RunID, &d.SubjectID, &d.Template, &d.Status, &d.Error, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning delivery row: %w", err)
		}
		out = append(out, d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating delivery rows: %w", err)
	}
	return out, nil
}

// dateOnly sends the calendar date as text so the session time zone cannot
// shift it.
func dateOnly(t time.Time) string {
	return t.Format(time.DateOnly)
}
