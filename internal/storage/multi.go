package storage

import (
	"context"
	"errors"

	"LoveStory/server/internal/interfaces"
	"LoveStory/server/internal/models"
)

// MultiRecorder fans a record out to every configured store.
type MultiRecorder []interfaces.TurnRecorder

// Record writes to all stores and joins their errors.
func (m MultiRecorder) Record(ctx context.Context, record *models.TurnRecord) error {
	var errs []error
	for _, r := range m {
		if err := r.Record(ctx, record); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
