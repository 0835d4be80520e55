package notification

import (
	"time"

	"github.com/google/uuid"
)

// Run is one execution of a periodic job for a calendar date.
type Run struct {
	ID        uuid.UUID
	RunDate   time.Time
	Type      RunType
	CreatedAt time.Time
}

// Delivery records what happened for one subject within a run.
type Delivery struct {
	ID        uuid.UUID
	RunID     uuid.UUID
	SubjectID uuid.UUID
	Template  TemplateID
	Status    DeliveryStatus
	Error     string
	CreatedAt time.Time
}
