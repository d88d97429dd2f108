package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sorajate/craig/internal/pkg/persistence"
)

// UsageCounter persists per recording access events
type UsageCounter struct {
	pool *pgxpool.Pool
}

// NewUsageCounter creates UsageCounter instance
func NewUsageCounter(pool *pgxpool.Pool) (*UsageCounter, error) {
	if pool == nil {
		return nil, fmt.Errorf("no db pool")
	}
	return &UsageCounter{pool: pool}, nil
}

// Inc inserts one usage event for the recording
func (db *UsageCounter) Inc(ctx context.Context, recordingID string) error {
	ev := persistence.UsageEvent{ID: uuid.New().String(), RecordingID: recordingID, Created: time.Now()}
	rows, err := db.pool.Query(ctx, `INSERT INTO usage_events(id, recording_id, created)
	VALUES($1, $2, $3)`, ev.ID, ev.RecordingID, ev.Created)
	if err != nil {
		return fmt.Errorf("can't insert usage event: %w", err)
	}
	defer rows.Close()
	return nil
}
