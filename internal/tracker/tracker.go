// Package tracker drives the lint pipeline: it walks every registered
// repository, decides whether it needs linting, clones it, runs the check
// engine and stores the results. Repositories are processed by a bounded
// pool of workers, each isolated so one bad repository cannot take down
// the run.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/clomonitor/internal/events"
	"git.home.luguber.info/inful/clomonitor/internal/gitutil"
	"git.home.luguber.info/inful/clomonitor/internal/linter"
	"git.home.luguber.info/inful/clomonitor/internal/logfields"
	"git.home.luguber.info/inful/clomonitor/internal/metrics"
	"git.home.luguber.info/inful/clomonitor/internal/storage"
)

// A repository whose remote digest is unchanged is skipped unless its last
// tracking is older than this.
const stalenessWindow = 24 * time.Hour

const (
	defaultConcurrency = 10
	defaultTimeout     = 600 * time.Second
)

// DB is the slice of the store the tracker needs.
type DB interface {
	Repositories(ctx context.Context) ([]storage.TrackedRepository, error)
	StoreResults(ctx context.Context, repositoryID uuid.UUID, report *linter.Report, lintErrs, newDigest string) (storage.RatingChange, error)
}

// Linter runs the check catalogue against one repository clone.
type Linter interface {
	Lint(ctx context.Context, target *linter.Target, token string) (*linter.Report, error)
}

// Events is the slice of the event publisher the tracker uses.
type Events interface {
	RatingChanged(ev events.RatingChangeEvent) error
	TrackerCompleted(ev events.TrackerCompletedEvent) error
}

// Options tune a Tracker. Zero values fall back to defaults; Tokens and
// Linter are required.
type Options struct {
	Concurrency int
	Timeout     time.Duration
	Tokens      []string
	Linter      Linter
	Events      Events
	Recorder    metrics.Recorder

	// RemoteDigest and Clone are seams for tests.
	RemoteDigest func(ctx context.Context, url string) (string, error)
	Clone        func(ctx context.Context, url, dir string) error
}

// Tracker lints registered repositories and stores their results.
type Tracker struct {
	db          DB
	linter      Linter
	events      Events
	credentials *CredentialPool
	recorder    metrics.Recorder
	concurrency int
	timeout     time.Duration

	remoteDigest func(ctx context.Context, url string) (string, error)
	clone        func(ctx context.Context, url, dir string) error
}

// New returns a Tracker over the given store.
func New(db DB, opts Options) (*Tracker, error) {
	if opts.Linter == nil {
		return nil, errors.New("linter is required")
	}
	pool, err := NewCredentialPool(opts.Tokens)
	if err != nil {
		return nil, err
	}
	t := &Tracker{
		db:           db,
		linter:       opts.Linter,
		events:       opts.Events,
		credentials:  pool,
		recorder:     opts.Recorder,
		concurrency:  opts.Concurrency,
		timeout:      opts.Timeout,
		remoteDigest: opts.RemoteDigest,
		clone:        opts.Clone,
	}
	if t.recorder == nil {
		t.recorder = metrics.NoopRecorder{}
	}
	if t.concurrency < 1 {
		t.concurrency = defaultConcurrency
	}
	if t.timeout <= 0 {
		t.timeout = defaultTimeout
	}
	if t.remoteDigest == nil {
		t.remoteDigest = gitutil.RemoteDigest
	}
	if t.clone == nil {
		t.clone = gitutil.Clone
	}
	return t, nil
}

// Run performs one tracking pass over every registered repository. Failures
// are isolated per repository, collected and returned joined.
func (t *Tracker) Run(ctx context.Context) error {
	start := time.Now()
	slog.Info("Tracker started")

	repos, err := t.db.Repositories(ctx)
	if err != nil {
		t.recorder.IncJobOutcome(metrics.JobTracker, metrics.ResultFailed)
		return err
	}
	t.recorder.SetTrackerConcurrency(t.concurrency)

	var (
		mu   sync.Mutex
		errs []error
	)
	var g errgroup.Group
	g.SetLimit(t.concurrency)
	for _, repo := range repos {
		g.Go(func() error {
			skipped, err := t.trackRepository(ctx, repo)
			switch {
			case err != nil:
				slog.Error("Tracking repository failed",
					logfields.Repository(repo.Name),
					logfields.URL(repo.URL),
					logfields.Error(err))
				mu.Lock()
				errs = append(errs, fmt.Errorf("repository %s: %w", repo.URL, err))
				mu.Unlock()
				t.recorder.IncRepositoryResult(metrics.ResultFailed)
			case skipped:
				t.recorder.IncRepositoryResult(metrics.ResultSkipped)
			default:
				t.recorder.IncRepositoryResult(metrics.ResultSuccess)
			}
			return nil
		})
	}
	_ = g.Wait()

	elapsed := time.Since(start)
	t.recorder.ObserveJobDuration(metrics.JobTracker, elapsed)
	if len(errs) > 0 {
		t.recorder.IncJobOutcome(metrics.JobTracker, metrics.ResultFailed)
	} else {
		t.recorder.IncJobOutcome(metrics.JobTracker, metrics.ResultSuccess)
	}
	if t.events != nil {
		if err := t.events.TrackerCompleted(events.TrackerCompletedEvent{
			Repositories: len(repos),
			Failed:       len(errs),
			DurationMS:   elapsed.Milliseconds(),
		}); err != nil {
			slog.Warn("Publishing tracker completion", logfields.Error(err))
		}
	}
	slog.Info("Tracker finished", logfields.DurationMS(float64(elapsed.Milliseconds())))
	return errors.Join(errs...)
}

// trackRepository processes one repository within its own deadline. Panics
// are converted into errors so a misbehaving check cannot poison the worker
// pool.
func (t *Tracker) trackRepository(ctx context.Context, repo storage.TrackedRepository) (skipped bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic tracking repository: %v", r)
		}
	}()

	remote, err := t.remoteDigest(ctx, repo.URL)
	if err != nil {
		return false, fmt.Errorf("resolving remote digest: %w", err)
	}
	if remote == repo.Digest && time.Since(repo.UpdatedAt) < stalenessWindow {
		slog.Debug("Repository unchanged, skipping",
			logfields.Repository(repo.Name),
			logfields.Digest(remote))
		return true, nil
	}

	slog.Info("Tracking repository",
		logfields.Foundation(repo.Foundation),
		logfields.Project(repo.Project),
		logfields.Repository(repo.Name))

	tmp, err := os.MkdirTemp("", "clomonitor-")
	if err != nil {
		return false, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	if err := t.clone(ctx, repo.URL, tmp); err != nil {
		return false, fmt.Errorf("cloning repository: %w", err)
	}

	token, err := t.credentials.Acquire(ctx)
	if err != nil {
		return false, err
	}
	defer t.credentials.Release(token)

	target := &linter.Target{
		Name:         repo.Name,
		URL:          repo.URL,
		CheckSets:    repo.CheckSets,
		Path:         tmp,
		Project:      repo.Project,
		Maturity:     repo.Maturity,
		Foundation:   repo.Foundation,
		LandscapeURL: repo.LandscapeURL,
	}
	lintStart := time.Now()
	report, lintErr := t.linter.Lint(ctx, target, token)
	t.recorder.ObserveLintDuration(repo.Foundation, time.Since(lintStart), lintErr == nil)

	var narrative string
	if lintErr != nil {
		slog.Error("Error linting repository",
			logfields.Repository(repo.Name),
			logfields.Error(lintErr))
		narrative = fmt.Sprintf("error linting repository: %s", lintErr)
		report = nil
	}

	change, err := t.db.StoreResults(ctx, repo.ID, report, narrative, remote)
	if err != nil {
		return false, fmt.Errorf("storing results: %w", err)
	}
	if change.Changed() {
		slog.Info("Project rating changed",
			logfields.Foundation(change.Foundation),
			logfields.Project(change.Project),
			logfields.Rating(change.After))
		t.recorder.IncRatingChange(change.Foundation)
		if t.events != nil {
			if err := t.events.RatingChanged(events.RatingChangeEvent{
				Foundation: change.Foundation,
				Project:    change.Project,
				Before:     change.Before,
				After:      change.After,
			}); err != nil {
				slog.Warn("Publishing rating change", logfields.Error(err))
			}
		}
	}
	return false, nil
}
