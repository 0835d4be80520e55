package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"care_reminder_service/internal/domain/subject"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var ErrDuplicateSubject = errors.New("subject with this ID already exists")

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint breach.
const uniqueViolation pq.ErrorCode = "23505"

var _ subject.Repository = (*PostgresSubjectRepository)(nil)

type PostgresSubjectRepository struct {
	db *sql.DB
}

func NewPostgresSubjectRepository(db *sql.DB) *PostgresSubjectRepository {
	return &PostgresSubjectRepository{db: db}
}

func (r *PostgresSubjectRepository) Create(ctx context.Context, s *subject.Subject) error {
	query := `INSERT INTO subjects (id, name, date_of_birth, owner_first_name, owner_email, telegram_chat_id,
                          timezone, notifications_enabled, daily_digest_enabled)
          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
          RETURNING created_at, updated_at`
	prefs := s.Owner.Preferences
	err := r.db.QueryRowContext(ctx, query,
		s.ID, s.Name, toNullTime(s.DateOfBirth), s.Owner.FirstName, s.Owner.Email, s.Owner.TelegramChatID,
		prefs.Timezone, prefs.NotificationsEnabled, prefs.DailyDigestEnabled,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateSubject
		}
		return fmt.Errorf("error creating subject: %w", err)
	}
	return nil
}

func (r *PostgresSubjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*subject.Subject, error) {
	query := `SELECT ` + subjectColumns + ` FROM subjects WHERE id = $1`
	s, err := scanSubject(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, subject.ErrNotFound
		}
		return nil, fmt.Errorf("error getting subject by ID: %w", err)
	}
	return s, nil
}

func (r *PostgresSubjectRepository) ListAll(ctx context.Context) ([]*subject.Subject, error) {
	query := `SELECT ` + subjectColumns + ` FROM subjects ORDER BY seq ASC`
	return r.list(ctx, query)
}

// ListByChatID never matches chat 0, which marks an owner without Telegram.
func (r *PostgresSubjectRepository) ListByChatID(ctx context.Context, chatID int64) ([]*subject.Subject, error) {
	if chatID == 0 {
		return nil, nil
	}
	query := `SELECT ` + subjectColumns + ` FROM subjects WHERE telegram_chat_id = $1 ORDER BY seq ASC`
	return r.list(ctx, query, chatID)
}

func (r *PostgresSubjectRepository) list(ctx context.Context, query string, args ...any) ([]*subject.Subject, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing subjects: %w", err)
	}
	defer rows.Close()

	var out []*subject.Subject
	for rows.Next() {
		s, err := scanSubject(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning subject row: %w", err)
		}
		out = append(out, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subject rows: %w", err)
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
