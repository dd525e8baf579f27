package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"

	"LoveStory/server/internal/models"
)

func newTestStore(t *testing.T) *MySQLStore {
	t.Helper()
	store, err := openGormStore(sqlite.Open("file:" + t.Name() + "?mode=memory&cache=shared"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestMySQLStore_Record(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := &models.TurnRecord{
		ID:        "6f1c1c9e-0000-4000-8000-000000000001",
		Kind:      models.RecordKindTurn,
		Provider:  "groq",
		Model:     "llama-3.1-8b-instant",
		Branch:    "start",
		Outcome:   models.OutcomeDegraded,
		LatencyMs: 840,
		Response:  "not json",
		Error:     "malformed turn payload",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.Record(ctx, rec))

	var got models.TurnRecord
	require.NoError(t, store.db.First(&got, "id = ?", rec.ID).Error)
	assert.Equal(t, models.OutcomeDegraded, got.Outcome)
	assert.Equal(t, int64(840), got.LatencyMs)
	assert.Equal(t, "not json", got.Response)
}

func TestMySQLStore_DuplicateID(t *testing.T) {
	store := newTestStore(t)
	rec := &models.TurnRecord{ID: "dup", Kind: models.RecordKindExtraction, Outcome: models.OutcomeOK}

	require.NoError(t, store.Record(context.Background(), rec))
	err := store.Record(context.Background(), &models.TurnRecord{ID: "dup"})
	assert.ErrorContains(t, err, "failed to insert turn record")
}
