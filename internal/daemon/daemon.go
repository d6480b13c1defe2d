// Package daemon wires the long-running service: the Postgres store, the
// HTTP API, the scheduled registrar / tracker / archiver jobs, the view
// tracker pair and the optional NATS publisher. The daemon owns component
// lifecycles; the components themselves never start goroutines behind its
// back except where documented.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/clomonitor/internal/archiver"
	"git.home.luguber.info/inful/clomonitor/internal/config"
	"git.home.luguber.info/inful/clomonitor/internal/events"
	"git.home.luguber.info/inful/clomonitor/internal/linter"
	"git.home.luguber.info/inful/clomonitor/internal/logfields"
	"git.home.luguber.info/inful/clomonitor/internal/metrics"
	"git.home.luguber.info/inful/clomonitor/internal/registrar"
	"git.home.luguber.info/inful/clomonitor/internal/server"
	"git.home.luguber.info/inful/clomonitor/internal/storage"
	"git.home.luguber.info/inful/clomonitor/internal/tracker"
	"git.home.luguber.info/inful/clomonitor/internal/version"
	"git.home.luguber.info/inful/clomonitor/internal/views"
)

// Status represents the current state of the daemon.
type Status string

const (
	StatusStopped  Status = "stopped"
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
	StatusError    Status = "error"
)

// Options configure a Daemon.
type Options struct {
	Config *config.Config

	// ConfigPath enables hot-reloading of the configuration file when set.
	ConfigPath string

	// Verbose forces debug logging independent of the configured level.
	Verbose bool
}

// Daemon runs the service until stopped.
type Daemon struct {
	mu      sync.Mutex
	cfg     *config.Config
	verbose bool
	status  atomic.Value // Status

	store     *storage.Store
	registrar *registrar.Registrar
	tracker   *tracker.Tracker
	archiver  *archiver.Archiver
	views     *views.Tracker
	publisher *events.Publisher
	server    *server.Server
	scheduler *Scheduler
	watcher   *config.Watcher

	startTime   time.Time
	stopChan    chan struct{}
	stopOnce    sync.Once
	viewsCancel context.CancelFunc
	viewsDone   chan struct{}
}

// New connects the store and assembles every component. Nothing is
// listening or scheduled until Start.
func New(ctx context.Context, opts Options) (*Daemon, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}

	d := &Daemon{
		cfg:       cfg,
		verbose:   opts.Verbose,
		stopChan:  make(chan struct{}),
		viewsDone: make(chan struct{}),
	}
	d.status.Store(StatusStopped)

	store, err := storage.New(ctx, cfg.DB.URL)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	d.store = store

	registry := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)

	if cfg.Events.NATSURL != "" {
		d.publisher, err = events.NewPublisher(cfg.Events.NATSURL, cfg.Events.SubjectPrefix)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("creating events publisher: %w", err)
		}
	}

	lint := linter.New(linter.Options{ScorecardBin: cfg.Tracker.ScorecardBin})
	d.tracker, err = tracker.New(store, tracker.Options{
		Concurrency: cfg.Tracker.Concurrency,
		Timeout:     cfg.Tracker.Timeout(),
		Tokens:      cfg.GitHub.Tokens,
		Linter:      lint,
		Events:      d.publisher,
		Recorder:    recorder,
	})
	if err != nil {
		d.publisher.Close()
		store.Close()
		return nil, fmt.Errorf("creating tracker: %w", err)
	}

	d.registrar = registrar.New(store, registrar.Options{
		Concurrency: cfg.Registrar.Concurrency,
		Timeout:     cfg.Registrar.Timeout(),
		Recorder:    recorder,
	})
	d.archiver = archiver.New(store, archiver.Options{Recorder: recorder})
	d.views = views.New(store, views.Options{
		BufferSize:     cfg.Views.BufferSize,
		FlushFrequency: cfg.Views.Interval(),
		Recorder:       recorder,
	})
	d.server = server.New(server.Options{
		Addr:     cfg.Server.Addr,
		DB:       store,
		Views:    d.views,
		Registry: registry,
	})

	d.scheduler, err = NewScheduler()
	if err != nil {
		d.publisher.Close()
		store.Close()
		return nil, err
	}

	if opts.ConfigPath != "" {
		d.watcher, err = config.NewWatcher(opts.ConfigPath, d.applyConfig)
		if err != nil {
			d.publisher.Close()
			store.Close()
			return nil, fmt.Errorf("creating config watcher: %w", err)
		}
	}

	return d, nil
}

// Start brings every component up and blocks until ctx is canceled or Stop
// is called. The returned error is non-nil only when startup itself fails.
func (d *Daemon) Start(ctx context.Context) error {
	if d.GetStatus() != StatusStopped {
		return fmt.Errorf("daemon is not in stopped state: %s", d.GetStatus())
	}
	d.status.Store(StatusStarting)
	d.startTime = time.Now()
	slog.Info("Starting daemon", slog.String("version", version.Version))

	if err := d.server.Start(); err != nil {
		d.status.Store(StatusError)
		return fmt.Errorf("starting HTTP server: %w", err)
	}

	viewsCtx, cancel := context.WithCancel(context.Background())
	d.viewsCancel = cancel
	go func() {
		d.views.Run(viewsCtx)
		close(d.viewsDone)
	}()

	if err := d.scheduleJobs(ctx); err != nil {
		d.status.Store(StatusError)
		return err
	}
	d.scheduler.Start(ctx)

	if d.watcher != nil {
		if err := d.watcher.Start(ctx); err != nil {
			slog.Error("Failed to start config watcher", logfields.Error(err))
		}
	}

	d.status.Store(StatusRunning)
	slog.Info("Daemon started",
		slog.String("addr", d.server.Addr()),
		slog.Bool("events", d.publisher != nil))

	select {
	case <-ctx.Done():
	case <-d.stopChan:
	}
	d.status.Store(StatusStopping)
	return nil
}

// scheduleJobs registers the periodic passes that have a configured
// schedule. Jobs fire once immediately, then on their interval; a pass
// never overlaps itself.
func (d *Daemon) scheduleJobs(ctx context.Context) error {
	jobs := []struct {
		name  string
		every time.Duration
		run   func(context.Context) error
	}{
		{metrics.JobRegistrar, d.cfg.Registrar.Interval(), d.registrar.Run},
		{metrics.JobTracker, d.cfg.Tracker.Interval(), d.tracker.Run},
		{metrics.JobArchiver, d.cfg.Archiver.Interval(), d.archiver.Run},
	}
	for _, job := range jobs {
		if job.every <= 0 {
			slog.Info("Job has no schedule, skipping", logfields.ScheduleName(job.name))
			continue
		}
		if err := d.scheduler.Add(job.name, job.every, job.run); err != nil {
			return fmt.Errorf("scheduling %s job: %w", job.name, err)
		}
	}
	return nil
}

// Stop shuts components down in reverse start order: config watcher,
// scheduler, HTTP server, view tracker (residual flush), events publisher
// and finally the store.
func (d *Daemon) Stop(ctx context.Context) error {
	status := d.GetStatus()
	if status == StatusStopped {
		return nil
	}
	d.status.Store(StatusStopping)
	slog.Info("Stopping daemon")

	d.stopOnce.Do(func() { close(d.stopChan) })

	if d.watcher != nil {
		if err := d.watcher.Stop(); err != nil {
			slog.Error("Failed to stop config watcher", logfields.Error(err))
		}
	}

	if err := d.scheduler.Stop(); err != nil {
		slog.Error("Failed to stop scheduler", logfields.Error(err))
	}

	if err := d.server.Shutdown(ctx); err != nil {
		slog.Error("Failed to stop HTTP server", logfields.Error(err))
	}

	// No new views can arrive once the server has drained; flush what is
	// buffered before the store goes away.
	if d.viewsCancel != nil {
		d.viewsCancel()
		select {
		case <-d.viewsDone:
		case <-ctx.Done():
			slog.Warn("View tracker did not drain before deadline")
		}
	}

	d.publisher.Close()
	d.store.Close()

	d.status.Store(StatusStopped)
	slog.Info("Daemon stopped", slog.Duration("uptime", time.Since(d.startTime)))
	return nil
}

// GetStatus returns the current daemon status.
func (d *Daemon) GetStatus() Status {
	status, ok := d.status.Load().(Status)
	if !ok {
		return StatusError
	}
	return status
}

// Addr returns the bound HTTP address once Start has succeeded.
func (d *Daemon) Addr() string {
	return d.server.Addr()
}

// applyConfig is the config watcher callback. Log settings apply live;
// everything else keeps its boot-time value until restart.
func (d *Daemon) applyConfig(_ context.Context, newCfg *config.Config) error {
	d.mu.Lock()
	old := d.cfg
	d.cfg = newCfg
	d.mu.Unlock()

	newCfg.Log.Apply(d.verbose)

	if fields := restartFields(old, newCfg); len(fields) > 0 {
		slog.Warn("Configuration changes require a restart to take effect",
			slog.Any("fields", fields))
	}
	return nil
}

// restartFields lists the dotted names of changed settings that cannot be
// applied to a running daemon.
func restartFields(old, next *config.Config) []string {
	var fields []string
	add := func(name string, changed bool) {
		if changed {
			fields = append(fields, name)
		}
	}

	add("db.url", old.DB.URL != next.DB.URL)
	add("github.tokens", !equalStrings(old.GitHub.Tokens, next.GitHub.Tokens))
	add("tracker.concurrency", old.Tracker.Concurrency != next.Tracker.Concurrency)
	add("tracker.schedule", old.Tracker.Schedule != next.Tracker.Schedule)
	add("tracker.scorecard_bin", old.Tracker.ScorecardBin != next.Tracker.ScorecardBin)
	add("tracker.repository_timeout", old.Tracker.RepositoryTimeout != next.Tracker.RepositoryTimeout)
	add("registrar.concurrency", old.Registrar.Concurrency != next.Registrar.Concurrency)
	add("registrar.schedule", old.Registrar.Schedule != next.Registrar.Schedule)
	add("registrar.foundation_timeout", old.Registrar.FoundationTimeout != next.Registrar.FoundationTimeout)
	add("archiver.schedule", old.Archiver.Schedule != next.Archiver.Schedule)
	add("views.flush_frequency", old.Views.FlushFrequency != next.Views.FlushFrequency)
	add("views.buffer_size", old.Views.BufferSize != next.Views.BufferSize)
	add("server.addr", old.Server.Addr != next.Server.Addr)
	add("events.nats_url", old.Events.NATSURL != next.Events.NATSURL)
	add("events.subject_prefix", old.Events.SubjectPrefix != next.Events.SubjectPrefix)

	return fields
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
