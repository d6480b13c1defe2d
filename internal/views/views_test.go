package views

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/clomonitor/internal/storage"
)

type fakeViewsDB struct {
	mu      sync.Mutex
	batches [][]storage.ViewCount
}

func (f *fakeViewsDB) UpdateViewCounts(_ context.Context, batch []storage.ViewCount) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := make([]storage.ViewCount, len(batch))
	copy(copied, batch)
	f.batches = append(f.batches, copied)
	return nil
}

func (f *fakeViewsDB) all() []storage.ViewCount {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []storage.ViewCount
	for _, b := range f.batches {
		out = append(out, b...)
	}
	return out
}

func TestAggregationAndResidualFlush(t *testing.T) {
	db := &fakeViewsDB{}
	now := time.Date(2024, 5, 1, 15, 4, 5, 0, time.UTC)
	tr := New(db, Options{
		FlushFrequency: time.Hour, // only the shutdown flush fires
		Now:            func() time.Time { return now },
	})

	p1 := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	p2 := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	require.NoError(t, tr.TrackView(p1))
	require.NoError(t, tr.TrackView(p1))
	require.NoError(t, tr.TrackView(p2))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tr.Run(ctx)
		close(done)
	}()

	// Let the aggregator drain the inbound buffer, then shut down.
	require.Eventually(t, func() bool { return len(tr.inbound) == 0 }, time.Second, time.Millisecond)
	cancel()
	<-done

	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, []storage.ViewCount{
		{ProjectID: p1, Day: day, Total: 2},
		{ProjectID: p2, Day: day, Total: 1},
	}, db.all())
}

func TestPeriodicFlush(t *testing.T) {
	db := &fakeViewsDB{}
	tr := New(db, Options{FlushFrequency: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tr.Run(ctx)
		close(done)
	}()

	p := uuid.New()
	require.NoError(t, tr.TrackView(p))

	require.Eventually(t, func() bool { return len(db.all()) > 0 }, time.Second, time.Millisecond)
	cancel()
	<-done

	counts := db.all()
	require.Len(t, counts, 1)
	assert.Equal(t, p, counts[0].ProjectID)
	assert.Equal(t, 1, counts[0].Total)
}

func TestTrackViewBufferFull(t *testing.T) {
	tr := New(&fakeViewsDB{}, Options{BufferSize: 1})

	// Aggregator not running: the buffer holds exactly one view.
	require.NoError(t, tr.TrackView(uuid.New()))
	err := tr.TrackView(uuid.New())
	require.ErrorIs(t, err, ErrBufferFull)
}
