package notification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrRunNotFound = errors.New("notification run not found")

// Repository keeps the history of periodic runs so a job that fires twice on
// the same date does not notify a subject twice.
type Repository interface {
	CreateRun(ctx context.Context, run *Run) error
	GetRunByDateAndType(ctx context.Context, runDate time.Time, runType RunType) (*Run, error)
	RecordDelivery(ctx context.Context, d *Delivery) error
	// HasSentDelivery reports whether subjectID already got a successful send in runID.
	HasSentDelivery(ctx context.Context, runID, subjectID uuid.UUID) (bool, error)
	ListDeliveriesByRun(ctx context.Context, runID uuid.UUID) ([]*Delivery, error)
}
