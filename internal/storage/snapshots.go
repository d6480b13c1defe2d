package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
)

// ProjectSnapshotDates lists the dates a project has snapshots for, newest
// first.
func (s *Store) ProjectSnapshotDates(ctx context.Context, projectID uuid.UUID) ([]time.Time, error) {
	rows, err := s.pool.Query(ctx, `
		select date from project_snapshot
		where project_id = $1
		order by date desc`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing snapshot dates of %s: %w", projectID, err)
	}
	return scanDates(rows)
}

// StoreProjectSnapshot freezes the given project document for the date.
// Storing twice for the same date overwrites the previous snapshot.
func (s *Store) StoreProjectSnapshot(ctx context.Context, projectID uuid.UUID, date time.Time, data []byte) error {
	_, err := s.pool.Exec(ctx, `
		insert into project_snapshot (project_id, date, data)
		values ($1, $2, $3)
		on conflict (project_id, date) do update set data = excluded.data`,
		projectID, date, data)
	if err != nil {
		return fmt.Errorf("storing snapshot of %s at %s: %w", projectID, date.Format("2006-01-02"), err)
	}
	return nil
}

// ProjectSnapshot returns the frozen project document for the date.
func (s *Store) ProjectSnapshot(ctx context.Context, projectID uuid.UUID, date time.Time) ([]byte, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `
		select data from project_snapshot
		where project_id = $1 and date = $2`, projectID, date).Scan(&data)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading snapshot of %s at %s: %w", projectID, date.Format("2006-01-02"), err)
	}
	return data, nil
}

// DeleteProjectSnapshot removes the snapshot for the date.
func (s *Store) DeleteProjectSnapshot(ctx context.Context, projectID uuid.UUID, date time.Time) error {
	_, err := s.pool.Exec(ctx, `
		delete from project_snapshot
		where project_id = $1 and date = $2`, projectID, date)
	if err != nil {
		return fmt.Errorf("deleting snapshot of %s at %s: %w", projectID, date.Format("2006-01-02"), err)
	}
	return nil
}

// StatsSnapshotDates lists the dates stats snapshots exist for, newest
// first. An empty foundation id addresses the cross-foundation aggregate.
func (s *Store) StatsSnapshotDates(ctx context.Context, foundationID string) ([]time.Time, error) {
	rows, err := s.pool.Query(ctx, `
		select date from stats_snapshot
		where foundation_id = $1
		order by date desc`, foundationID)
	if err != nil {
		return nil, fmt.Errorf("listing stats snapshot dates of %q: %w", foundationID, err)
	}
	return scanDates(rows)
}

// StoreStatsSnapshot freezes the given stats document for the date.
func (s *Store) StoreStatsSnapshot(ctx context.Context, foundationID string, date time.Time, data []byte) error {
	_, err := s.pool.Exec(ctx, `
		insert into stats_snapshot (foundation_id, date, data)
		values ($1, $2, $3)
		on conflict (foundation_id, date) do update set data = excluded.data`,
		foundationID, date, data)
	if err != nil {
		return fmt.Errorf("storing stats snapshot of %q at %s: %w", foundationID, date.Format("2006-01-02"), err)
	}
	return nil
}

// DeleteStatsSnapshot removes the stats snapshot for the date.
func (s *Store) DeleteStatsSnapshot(ctx context.Context, foundationID string, date time.Time) error {
	_, err := s.pool.Exec(ctx, `
		delete from stats_snapshot
		where foundation_id = $1 and date = $2`, foundationID, date)
	if err != nil {
		return fmt.Errorf("deleting stats snapshot of %q at %s: %w", foundationID, date.Format("2006-01-02"), err)
	}
	return nil
}

func scanDates(rows pgx.Rows) ([]time.Time, error) {
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scanning snapshot date: %w", err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}
