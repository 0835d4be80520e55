package subject

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the operations for persisting and retrieving subjects.
type Repository interface {
	Create(ctx context.Context, s *Subject) error
	FindByID(ctx context.Context, id uuid.UUID) (*Subject, error)
	ListAll(ctx context.Context) ([]*Subject, error)
	ListByChatID(ctx context.Context, chatID int64) ([]*Subject, error)
}
