// Package views counts project page views. Increments are aggregated in
// memory per project and UTC day by a single aggregator goroutine and
// written out in batches by a single flusher goroutine, so bursts of views
// cost one database write per flush interval instead of one per view.
package views

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/clomonitor/internal/logfields"
	"git.home.luguber.info/inful/clomonitor/internal/metrics"
	"git.home.luguber.info/inful/clomonitor/internal/storage"
)

// DB is the slice of the store the view tracker needs.
type DB interface {
	UpdateViewCounts(ctx context.Context, batch []storage.ViewCount) error
}

const (
	DefaultBufferSize     = 100
	DefaultFlushFrequency = 300 * time.Second

	flushTimeout = 30 * time.Second
)

// ErrBufferFull is returned by TrackView when the aggregator cannot keep
// up; callers drop the view.
var ErrBufferFull = errors.New("views buffer full")

// Options tune a Tracker. Zero values fall back to defaults.
type Options struct {
	BufferSize     int
	FlushFrequency time.Duration
	Recorder       metrics.Recorder

	// Now is a seam for tests; defaults to time.Now.
	Now func() time.Time
}

type viewKey struct {
	projectID uuid.UUID
	day       time.Time
}

// Tracker aggregates and persists view counts.
type Tracker struct {
	db        DB
	recorder  metrics.Recorder
	frequency time.Duration
	now       func() time.Time

	inbound chan uuid.UUID
	batches chan []storage.ViewCount
}

// New returns a Tracker over the given store. Run must be started for
// tracked views to reach the database.
func New(db DB, opts Options) *Tracker {
	t := &Tracker{
		db:        db,
		recorder:  opts.Recorder,
		frequency: opts.FlushFrequency,
		now:       opts.Now,
	}
	if t.recorder == nil {
		t.recorder = metrics.NoopRecorder{}
	}
	if t.frequency <= 0 {
		t.frequency = DefaultFlushFrequency
	}
	if t.now == nil {
		t.now = time.Now
	}
	size := opts.BufferSize
	if size < 1 {
		size = DefaultBufferSize
	}
	t.inbound = make(chan uuid.UUID, size)
	t.batches = make(chan []storage.ViewCount, size)
	return t
}

// TrackView records one view of the project. It never blocks: when the
// buffer is full the view is dropped and ErrBufferFull returned.
func (t *Tracker) TrackView(projectID uuid.UUID) error {
	select {
	case t.inbound <- projectID:
		return nil
	default:
		t.recorder.IncViewsDropped()
		return ErrBufferFull
	}
}

// Run operates the aggregator and flusher until ctx ends, then flushes the
// residual counts and returns once everything pending has been written.
func (t *Tracker) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		t.aggregate(ctx)
	}()
	go func() {
		defer wg.Done()
		t.flush()
	}()
	wg.Wait()
}

// aggregate owns the in-memory counts. Every tick it hands the accumulated
// batch to the flusher and starts over; on shutdown it hands over whatever
// is left and closes the batch channel.
func (t *Tracker) aggregate(ctx context.Context) {
	ticker := time.NewTicker(t.frequency)
	defer ticker.Stop()

	counts := map[viewKey]int{}
	for {
		select {
		case projectID := <-t.inbound:
			counts[viewKey{projectID, t.day()}]++
		case <-ticker.C:
			t.emit(counts)
			counts = map[viewKey]int{}
		case <-ctx.Done():
			t.emit(counts)
			close(t.batches)
			return
		}
	}
}

func (t *Tracker) emit(counts map[viewKey]int) {
	if len(counts) == 0 {
		return
	}
	batch := make([]storage.ViewCount, 0, len(counts))
	for key, total := range counts {
		batch = append(batch, storage.ViewCount{
			ProjectID: key.projectID,
			Day:       key.day,
			Total:     total,
		})
	}
	t.batches <- batch
}

// flush drains batches sequentially until the channel closes. It uses its
// own deadline per write so the residual batch of a shutdown still lands.
func (t *Tracker) flush() {
	for batch := range t.batches {
		sort.Slice(batch, func(i, j int) bool {
			if batch[i].ProjectID != batch[j].ProjectID {
				return batch[i].ProjectID.String() < batch[j].ProjectID.String()
			}
			return batch[i].Day.Before(batch[j].Day)
		})

		ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		err := t.db.UpdateViewCounts(ctx, batch)
		cancel()
		if err != nil {
			slog.Error("Flushing view counts", logfields.Error(err))
			continue
		}
		t.recorder.AddViewsFlushed(len(batch))
	}
}

// day truncates now to the UTC day views are attributed to.
func (t *Tracker) day() time.Time {
	now := t.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
