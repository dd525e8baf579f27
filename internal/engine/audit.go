package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"LoveStory/server/internal/interfaces"
	"LoveStory/server/internal/models"
)

const auditTimeout = 5 * time.Second

// auditor hands records to the recorder in the background.
// The response has already been computed; a slow or failing store never affects it.
type auditor struct {
	recorder interfaces.TurnRecorder
	logger   *zap.Logger
}

func (a auditor) record(rec *models.TurnRecord) {
	if a.recorder == nil {
		return
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
		defer cancel()
		if err := a.recorder.Record(ctx, rec); err != nil {
			a.logger.Warn("Failed to record audit entry",
				zap.String("id", rec.ID),
				zap.String("kind", rec.Kind),
				zap.Error(err))
		}
	}()
}
