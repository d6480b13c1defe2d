// Package archiver freezes daily snapshots of project documents and stats
// and prunes old ones per the retention policy, keeping history cheap to
// store but dense enough for charts.
package archiver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/clomonitor/internal/logfields"
	"git.home.luguber.info/inful/clomonitor/internal/metrics"
	"git.home.luguber.info/inful/clomonitor/internal/model"
	"git.home.luguber.info/inful/clomonitor/internal/storage"
)

// DB is the slice of the store the archiver needs.
type DB interface {
	Foundations(ctx context.Context) ([]model.Foundation, error)
	ProjectIDs(ctx context.Context, foundationID string) ([]uuid.UUID, error)
	ProjectDetailByID(ctx context.Context, projectID uuid.UUID) (*storage.ProjectDetail, error)
	ProjectSnapshotDates(ctx context.Context, projectID uuid.UUID) ([]time.Time, error)
	StoreProjectSnapshot(ctx context.Context, projectID uuid.UUID, date time.Time, data []byte) error
	DeleteProjectSnapshot(ctx context.Context, projectID uuid.UUID, date time.Time) error
	Stats(ctx context.Context, foundationID string) (*storage.Stats, error)
	StatsSnapshotDates(ctx context.Context, foundationID string) ([]time.Time, error)
	StoreStatsSnapshot(ctx context.Context, foundationID string, date time.Time, data []byte) error
	DeleteStatsSnapshot(ctx context.Context, foundationID string, date time.Time) error
}

// Options tune an Archiver.
type Options struct {
	Recorder metrics.Recorder

	// Now is a seam for tests; defaults to time.Now.
	Now func() time.Time
}

// Archiver snapshots projects and stats once per UTC day.
type Archiver struct {
	db       DB
	recorder metrics.Recorder
	now      func() time.Time
}

// New returns an Archiver over the given store.
func New(db DB, opts Options) *Archiver {
	a := &Archiver{
		db:       db,
		recorder: opts.Recorder,
		now:      opts.Now,
	}
	if a.recorder == nil {
		a.recorder = metrics.NoopRecorder{}
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a
}

// Run performs one archiving pass: every project, then stats per foundation
// and the cross-foundation aggregate. Failures are collected and returned
// joined.
func (a *Archiver) Run(ctx context.Context) error {
	start := time.Now()
	slog.Info("Archiver started")

	var errs []error
	today := a.today()

	ids, err := a.db.ProjectIDs(ctx, "")
	if err != nil {
		a.recorder.IncJobOutcome(metrics.JobArchiver, metrics.ResultFailed)
		return fmt.Errorf("listing projects: %w", err)
	}
	for _, id := range ids {
		if err := a.archiveProject(ctx, id, today); err != nil {
			errs = append(errs, fmt.Errorf("archiving project %s: %w", id, err))
		}
	}

	foundations, err := a.db.Foundations(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("listing foundations: %w", err))
	} else {
		targets := make([]string, 0, len(foundations)+1)
		for _, f := range foundations {
			targets = append(targets, f.ID)
		}
		targets = append(targets, "") // cross-foundation aggregate
		for _, foundationID := range targets {
			if err := a.archiveStats(ctx, foundationID, today); err != nil {
				errs = append(errs, fmt.Errorf("archiving stats %q: %w", foundationID, err))
			}
		}
	}

	a.recorder.ObserveJobDuration(metrics.JobArchiver, time.Since(start))
	if len(errs) > 0 {
		a.recorder.IncJobOutcome(metrics.JobArchiver, metrics.ResultFailed)
	} else {
		a.recorder.IncJobOutcome(metrics.JobArchiver, metrics.ResultSuccess)
	}
	slog.Info("Archiver finished", logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	return errors.Join(errs...)
}

// archiveProject stores today's snapshot when missing and prunes the rest.
func (a *Archiver) archiveProject(ctx context.Context, projectID uuid.UUID, today time.Time) error {
	dates, err := a.db.ProjectSnapshotDates(ctx, projectID)
	if err != nil {
		return err
	}

	if len(dates) == 0 || dates[0].Before(today) {
		detail, err := a.db.ProjectDetailByID(ctx, projectID)
		if err != nil {
			return err
		}
		data, err := json.Marshal(detail)
		if err != nil {
			return fmt.Errorf("marshaling project document: %w", err)
		}
		if err := a.db.StoreProjectSnapshot(ctx, projectID, today, data); err != nil {
			return err
		}
	}

	for _, date := range prune(today, dates) {
		if err := a.db.DeleteProjectSnapshot(ctx, projectID, date); err != nil {
			return err
		}
	}
	return nil
}

// archiveStats does the same for one foundation's stats document; the empty
// foundation id addresses the aggregate over all foundations.
func (a *Archiver) archiveStats(ctx context.Context, foundationID string, today time.Time) error {
	dates, err := a.db.StatsSnapshotDates(ctx, foundationID)
	if err != nil {
		return err
	}

	if len(dates) == 0 || dates[0].Before(today) {
		stats, err := a.db.Stats(ctx, foundationID)
		if err != nil {
			return err
		}
		data, err := json.Marshal(stats)
		if err != nil {
			return fmt.Errorf("marshaling stats document: %w", err)
		}
		if err := a.db.StoreStatsSnapshot(ctx, foundationID, today, data); err != nil {
			return err
		}
	}

	for _, date := range prune(today, dates) {
		if err := a.db.DeleteStatsSnapshot(ctx, foundationID, date); err != nil {
			return err
		}
	}
	return nil
}

// prune returns the dates that did not survive retention.
func prune(today time.Time, dates []time.Time) []time.Time {
	keep := SnapshotsToKeep(today, dates)
	kept := make(map[time.Time]struct{}, len(keep))
	for _, d := range keep {
		kept[d] = struct{}{}
	}
	var drop []time.Time
	for _, d := range dates {
		if _, ok := kept[d]; !ok {
			drop = append(drop, d)
		}
	}
	return drop
}

func (a *Archiver) today() time.Time {
	now := a.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
