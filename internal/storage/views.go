package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
)

// viewsLockKey is the advisory lock serializing view count flushes across
// every process writing to the same database.
const viewsLockKey = 1

// ViewCount is one aggregated increment for a project and UTC day.
type ViewCount struct {
	ProjectID uuid.UUID
	Day       time.Time
	Total     int
}

// UpdateViewCounts adds the batched increments to the stored totals. The
// whole batch is applied in one transaction under a process-wide advisory
// lock, so concurrent flushers from different processes never interleave.
// Applying the same batch twice adds it twice; deduplication is the
// aggregator's job.
func (s *Store) UpdateViewCounts(ctx context.Context, batch []ViewCount) error {
	if len(batch) == 0 {
		return nil
	}
	return s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `select pg_advisory_xact_lock($1)`, viewsLockKey); err != nil {
			return fmt.Errorf("acquiring views lock: %w", err)
		}
		for _, vc := range batch {
			_, err := tx.Exec(ctx, `
				insert into project_views (project_id, day, total)
				values ($1, $2, $3)
				on conflict (project_id, day) do update set
					total = project_views.total + excluded.total`,
				vc.ProjectID, vc.Day, vc.Total)
			if err != nil {
				return fmt.Errorf("updating view count of %s: %w", vc.ProjectID, err)
			}
		}
		return nil
	})
}
