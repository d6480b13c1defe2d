package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/clomonitor/internal/events"
	"git.home.luguber.info/inful/clomonitor/internal/linter"
	"git.home.luguber.info/inful/clomonitor/internal/storage"
)

type storedResult struct {
	repositoryID uuid.UUID
	report       *linter.Report
	lintErrs     string
	digest       string
}

type fakeTrackDB struct {
	mu       sync.Mutex
	repos    []storage.TrackedRepository
	stored   []storedResult
	change   storage.RatingChange
	storeErr error
}

func (f *fakeTrackDB) Repositories(context.Context) ([]storage.TrackedRepository, error) {
	return f.repos, nil
}

func (f *fakeTrackDB) StoreResults(_ context.Context, id uuid.UUID, report *linter.Report, lintErrs, digest string) (storage.RatingChange, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.storeErr != nil {
		return storage.RatingChange{}, f.storeErr
	}
	f.stored = append(f.stored, storedResult{id, report, lintErrs, digest})
	return f.change, nil
}

type fakeLinter struct {
	fn func(target *linter.Target, token string) (*linter.Report, error)
}

func (f *fakeLinter) Lint(_ context.Context, target *linter.Target, token string) (*linter.Report, error) {
	return f.fn(target, token)
}

type fakeEvents struct {
	mu        sync.Mutex
	ratings   []events.RatingChangeEvent
	completed []events.TrackerCompletedEvent
}

func (f *fakeEvents) RatingChanged(ev events.RatingChangeEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ratings = append(f.ratings, ev)
	return nil
}

func (f *fakeEvents) TrackerCompleted(ev events.TrackerCompletedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, ev)
	return nil
}

func repo(name, digest string, updatedAt time.Time) storage.TrackedRepository {
	return storage.TrackedRepository{
		ID:         uuid.New(),
		Name:       name,
		URL:        "https://github.com/org/" + name,
		Digest:     digest,
		UpdatedAt:  updatedAt,
		Project:    name,
		Foundation: "cncf",
	}
}

func testOptions(l Linter) Options {
	return Options{
		Tokens: []string{"token"},
		Linter: l,
		RemoteDigest: func(context.Context, string) (string, error) {
			return "new-digest", nil
		},
		Clone: func(context.Context, string, string) error { return nil },
	}
}

func TestRunSkipsUnchangedRecentRepository(t *testing.T) {
	db := &fakeTrackDB{repos: []storage.TrackedRepository{
		repo("fresh", "new-digest", time.Now().Add(-time.Hour)),
	}}
	l := &fakeLinter{fn: func(*linter.Target, string) (*linter.Report, error) {
		t.Fatal("lint should not run for a fresh repository")
		return nil, nil
	}}

	tr, err := New(db, testOptions(l))
	require.NoError(t, err)
	require.NoError(t, tr.Run(context.Background()))
	assert.Empty(t, db.stored)
}

func TestRunLintsStaleRepository(t *testing.T) {
	// Same digest, but tracked more than 24h ago.
	db := &fakeTrackDB{repos: []storage.TrackedRepository{
		repo("stale", "new-digest", time.Now().Add(-25*time.Hour)),
	}}
	report := linter.NewReport()
	report.Documentation[linter.CheckReadme] = linter.Pass()
	l := &fakeLinter{fn: func(target *linter.Target, token string) (*linter.Report, error) {
		assert.Equal(t, "token", token)
		assert.NotEmpty(t, target.Path)
		return report, nil
	}}

	tr, err := New(db, testOptions(l))
	require.NoError(t, err)
	require.NoError(t, tr.Run(context.Background()))

	require.Len(t, db.stored, 1)
	assert.Equal(t, "new-digest", db.stored[0].digest)
	assert.Empty(t, db.stored[0].lintErrs)
	assert.Same(t, report, db.stored[0].report)
}

func TestRunRecordsLintErrorNarrative(t *testing.T) {
	db := &fakeTrackDB{repos: []storage.TrackedRepository{
		repo("broken", "old", time.Now()),
	}}
	l := &fakeLinter{fn: func(*linter.Target, string) (*linter.Report, error) {
		return nil, errors.New("fetching host metadata: 403")
	}}

	tr, err := New(db, testOptions(l))
	require.NoError(t, err)
	require.NoError(t, tr.Run(context.Background()))

	require.Len(t, db.stored, 1)
	assert.Nil(t, db.stored[0].report)
	assert.Equal(t, "error linting repository: fetching host metadata: 403", db.stored[0].lintErrs)
	assert.Equal(t, "new-digest", db.stored[0].digest)
}

func TestRunIsolatesPanics(t *testing.T) {
	db := &fakeTrackDB{repos: []storage.TrackedRepository{
		repo("panics", "old", time.Now()),
		repo("works", "old", time.Now()),
	}}
	l := &fakeLinter{fn: func(target *linter.Target, _ string) (*linter.Report, error) {
		if target.Name == "panics" {
			panic("boom")
		}
		return linter.NewReport(), nil
	}}

	opts := testOptions(l)
	opts.Concurrency = 1
	tr, err := New(db, opts)
	require.NoError(t, err)

	err = tr.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panics")
	assert.Contains(t, err.Error(), "boom")

	// The credential was returned, so the second repository still ran.
	require.Len(t, db.stored, 1)
}

func TestRunPublishesRatingChange(t *testing.T) {
	db := &fakeTrackDB{
		repos: []storage.TrackedRepository{repo("rated", "old", time.Now())},
		change: storage.RatingChange{
			Project:    "rated",
			Foundation: "cncf",
			Before:     "b",
			After:      "a",
		},
	}
	l := &fakeLinter{fn: func(*linter.Target, string) (*linter.Report, error) {
		return linter.NewReport(), nil
	}}

	opts := testOptions(l)
	ev := &fakeEvents{}
	opts.Events = ev
	tr, err := New(db, opts)
	require.NoError(t, err)
	require.NoError(t, tr.Run(context.Background()))

	require.Len(t, ev.ratings, 1)
	assert.Equal(t, "a", ev.ratings[0].After)
	require.Len(t, ev.completed, 1)
	assert.Equal(t, 1, ev.completed[0].Repositories)
	assert.Zero(t, ev.completed[0].Failed)
}

func TestNewRequiresTokens(t *testing.T) {
	_, err := New(&fakeTrackDB{}, Options{Linter: &fakeLinter{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no github tokens")
}

func TestCredentialPoolFIFO(t *testing.T) {
	pool, err := NewCredentialPool([]string{"a", "b"})
	require.NoError(t, err)

	first, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	second, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, []string{first, second})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = pool.Acquire(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	pool.Release(first)
	again, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", again)
}
