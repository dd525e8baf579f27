package interfaces

import (
	"context"

	"LoveStory/server/internal/models"
)

// TurnRecorder stores audit records of provider round-trips.
type TurnRecorder interface {
	Record(ctx context.Context, record *models.TurnRecord) error
}
