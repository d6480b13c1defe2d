// Package registrar reconciles the foundation catalogues with the database.
// Each pass fetches every foundation's data file, digests each project entry
// and writes only what changed. Projects that disappeared from the catalogue
// are unregistered.
package registrar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/clomonitor/internal/httpclient"
	"git.home.luguber.info/inful/clomonitor/internal/logfields"
	"git.home.luguber.info/inful/clomonitor/internal/metrics"
	"git.home.luguber.info/inful/clomonitor/internal/model"
)

// DB is the slice of the store the registrar needs.
type DB interface {
	Foundations(ctx context.Context) ([]model.Foundation, error)
	ProjectsOf(ctx context.Context, foundationID string) (map[string]string, error)
	UpsertProject(ctx context.Context, foundationID string, p *model.Project) error
	DeleteProject(ctx context.Context, foundationID, name string) error
}

const (
	defaultConcurrency = 4
	defaultTimeout     = 300 * time.Second
)

// Options tune a Registrar. Zero values fall back to defaults.
type Options struct {
	Concurrency int
	Timeout     time.Duration
	HTTPClient  *http.Client
	Recorder    metrics.Recorder
}

// Registrar keeps the stored project graph in sync with the catalogues.
type Registrar struct {
	db          DB
	client      *http.Client
	concurrency int
	timeout     time.Duration
	recorder    metrics.Recorder
}

// New returns a Registrar over the given store.
func New(db DB, opts Options) *Registrar {
	r := &Registrar{
		db:          db,
		client:      opts.HTTPClient,
		concurrency: opts.Concurrency,
		timeout:     opts.Timeout,
		recorder:    opts.Recorder,
	}
	if r.client == nil {
		r.client = httpclient.New()
	}
	if r.concurrency < 1 {
		r.concurrency = defaultConcurrency
	}
	if r.timeout <= 0 {
		r.timeout = defaultTimeout
	}
	if r.recorder == nil {
		r.recorder = metrics.NoopRecorder{}
	}
	return r
}

// Run performs one reconciliation pass. Foundations are processed
// concurrently and independently; errors are collected and returned joined,
// one foundation failing never aborts the others.
func (r *Registrar) Run(ctx context.Context) error {
	start := time.Now()
	slog.Info("Registrar started")

	foundations, err := r.db.Foundations(ctx)
	if err != nil {
		r.recorder.IncJobOutcome(metrics.JobRegistrar, metrics.ResultFailed)
		return fmt.Errorf("listing foundations: %w", err)
	}

	var (
		mu   sync.Mutex
		errs []error
	)
	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for _, foundation := range foundations {
		g.Go(func() error {
			if err := r.registerFoundation(ctx, foundation); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("foundation %s: %w", foundation.ID, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	r.recorder.ObserveJobDuration(metrics.JobRegistrar, time.Since(start))
	if len(errs) > 0 {
		r.recorder.IncJobOutcome(metrics.JobRegistrar, metrics.ResultFailed)
	} else {
		r.recorder.IncJobOutcome(metrics.JobRegistrar, metrics.ResultSuccess)
	}
	slog.Info("Registrar finished", logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	return errors.Join(errs...)
}

// registerFoundation reconciles one foundation within its own deadline.
func (r *Registrar) registerFoundation(ctx context.Context, f model.Foundation) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	slog.Info("Registering foundation projects", logfields.Foundation(f.ID))

	data, err := httpclient.GetBody(ctx, r.client, f.DataURL)
	if err != nil {
		return fmt.Errorf("fetching catalogue: %w", err)
	}
	projects, err := model.ParseCatalogue(data)
	if err != nil {
		return err
	}
	projects = model.FilterExcluded(projects, model.ServiceName)

	stored, err := r.db.ProjectsOf(ctx, f.ID)
	if err != nil {
		return err
	}

	var errs []error
	incoming := make(map[string]struct{}, len(projects))
	for i := range projects {
		p := &projects[i]
		incoming[p.Name] = struct{}{}
		if err := p.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		digest, err := p.Digest()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if stored[p.Name] == digest {
			continue
		}
		slog.Info("Registering project", logfields.Foundation(f.ID), logfields.Project(p.Name))
		if err := r.db.UpsertProject(ctx, f.ID, p); err != nil {
			errs = append(errs, fmt.Errorf("registering project %s: %w", p.Name, err))
		}
	}

	// An empty catalogue never deletes anything; an upstream outage that
	// serves an empty file must not wipe the foundation.
	if len(incoming) > 0 {
		for name := range stored {
			if _, ok := incoming[name]; ok {
				continue
			}
			slog.Info("Unregistering project", logfields.Foundation(f.ID), logfields.Project(name))
			if err := r.db.DeleteProject(ctx, f.ID, name); err != nil {
				errs = append(errs, fmt.Errorf("unregistering project %s: %w", name, err))
			}
		}
	}
	return errors.Join(errs...)
}
