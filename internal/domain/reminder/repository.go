package reminder

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the operations for persisting and retrieving reminders.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Reminder, error)
	// ListBySubject returns reminders in insertion order.
	ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]*Reminder, error)
	Save(ctx context.Context, r *Reminder) error
	// SaveAll persists every reminder or none of them.
	SaveAll(ctx context.Context, rs []*Reminder) error
	Delete(ctx context.Context, id uuid.UUID) error
}
