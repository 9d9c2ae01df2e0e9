package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/gofrs/flock"

	"catchup/internal/config"
	"catchup/internal/deps"
	"catchup/internal/identity"
	"catchup/internal/ingest"
	"catchup/internal/logging"
	"catchup/internal/media/ffmpeg"
	"catchup/internal/media/vad"
	"catchup/internal/media/ytdlp"
	"catchup/internal/notifications"
	"catchup/internal/pipeline"
	"catchup/internal/services/summarize"
	"catchup/internal/services/transcribe"
	"catchup/internal/store"
	"catchup/internal/watcher"
	"catchup/internal/worker"
)

// Daemon owns the long-running services: the job store, the worker pool,
// the drop-folder watcher, and the HTTP API. A lock file under the log
// directory enforces single-instance execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *store.Store
	pool    *worker.Pool
	ingest  *ingest.Service
	watcher *watcher.Watcher
	api     *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status reports daemon runtime information for the status endpoint.
type Status struct {
	Running        bool
	PID            int
	UseFakeClients bool
	Queue          worker.Stats
	Jobs           store.HealthSummary
	DatabasePath   string
	DatabaseOK     bool
}

// New opens the store and wires every service. Close releases what New
// acquired.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires configuration")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	st, err := store.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	clients, err := buildClients(cfg)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	overrides, err := identity.LoadCourseDefaults(cfg.Languages.CourseDefaultsPath)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("load course defaults: %w", err)
	}

	notifier := notifications.NewService(cfg)
	runner := pipeline.NewRunner(cfg, st, clients, notifier, logger)
	pool := worker.NewPool(cfg, runner, logger)
	ingestSvc := ingest.NewService(st, pool, buildProber(cfg), identity.NewLanguageResolver(overrides), notifier, logger)

	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    st,
		pool:     pool,
		ingest:   ingestSvc,
		lockPath: filepath.Join(cfg.Paths.LogDir, "catchupd.lock"),
	}
	d.lock = flock.New(d.lockPath)

	if strings.TrimSpace(cfg.Paths.DropDir) != "" {
		d.watcher = watcher.New(cfg, ingestSvc, logger)
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// buildClients selects the stage implementations. Fakes keep the whole
// pipeline offline; real clients shell out to yt-dlp and ffmpeg and call the
// transcription and summarization APIs.
func buildClients(cfg *config.Config) (pipeline.Clients, error) {
	if cfg.Clients.UseFakes {
		return pipeline.NewFakeClients(), nil
	}
	summarizer, err := summarize.NewSummarizer(cfg)
	if err != nil {
		return pipeline.Clients{}, err
	}
	return pipeline.Clients{
		Downloader:  ytdlp.NewDownloader(cfg),
		Converter:   ffmpeg.NewConverter(cfg),
		Processor:   vad.NewProcessor(cfg),
		Transcriber: transcribe.NewClient(cfg),
		Summarizer:  summarizer,
	}, nil
}

func buildProber(cfg *config.Config) ingest.Prober {
	if cfg.Clients.UseFakes {
		return &pipeline.FakeProber{}
	}
	return ytdlp.NewProber(cfg)
}

// Start acquires the daemon lock, starts the worker pool, watcher, and API
// server, and re-enqueues jobs left queued by a previous run.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another catchup daemon is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.pool.Start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start worker pool: %w", err)
	}
	if d.watcher != nil {
		if err := d.watcher.Start(runCtx); err != nil {
			d.pool.Stop()
			cancel()
			_ = d.lock.Unlock()
			return fmt.Errorf("start watcher: %w", err)
		}
	}
	if err := d.api.start(runCtx); err != nil {
		if d.watcher != nil {
			d.watcher.Stop()
		}
		d.pool.Stop()
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start api server: %w", err)
	}

	d.cancel = cancel
	d.running.Store(true)
	d.logDependencySnapshot()
	d.sweepInterrupted(runCtx)
	d.logger.Info("daemon started",
		logging.String("lock", d.lockPath),
		logging.Bool("use_fakes", d.cfg.Clients.UseFakes),
	)
	return nil
}

// logDependencySnapshot records binary availability at startup. A missing
// binary is not fatal here; the affected stage fails with a clear error when
// a job reaches it. Fake clients shell out to nothing, so the check is
// skipped entirely.
func (d *Daemon) logDependencySnapshot() {
	if d.cfg.Clients.UseFakes {
		return
	}
	attrs := make([]logging.Attr, 0, 3)
	for _, status := range d.CheckDependencies() {
		key := strings.ReplaceAll(status.Name, "-", "_") + "_available"
		attrs = append(attrs, logging.Bool(key, status.Available))
		if !status.Available {
			d.logger.Warn("external binary unavailable",
				logging.String("name", status.Name),
				logging.String("detail", status.Detail),
			)
		}
	}
	d.logger.Info("dependency snapshot", logging.Args(attrs...)...)
}

// CheckDependencies reports the availability of every external binary the
// real stage clients need.
func (d *Daemon) CheckDependencies() []deps.Status {
	return deps.CheckBinaries(deps.Required(d.cfg))
}

// sweepInterrupted reconciles job state from a previous run: jobs stuck
// mid-stage fail (their process is gone), jobs still queued go back onto the
// pool so a restart resumes where submissions left off.
func (d *Daemon) sweepInterrupted(ctx context.Context) {
	failed, err := d.store.FailInterrupted(ctx)
	if err != nil {
		d.logger.Error("failed to sweep interrupted jobs", logging.Error(err))
	} else if failed > 0 {
		d.logger.Warn("interrupted jobs marked as failed", logging.Int64("count", failed))
	}

	queued, err := d.store.ListQueuedJobs(ctx)
	if err != nil {
		d.logger.Error("failed to list queued jobs", logging.Error(err))
		return
	}
	for _, job := range queued {
		lecture, err := d.store.GetLecture(ctx, job.LectureID)
		if err != nil || lecture == nil {
			d.logger.Error("queued job has no lecture",
				logging.String(logging.FieldJobID, job.ID),
				logging.Error(err),
			)
			continue
		}
		if err := d.pool.Submit(worker.Submission{JobID: job.ID, Lecture: lecture, Language: job.Language}); err != nil {
			d.logger.Warn("requeue of interrupted job failed",
				logging.String(logging.FieldJobID, job.ID),
				logging.Error(err),
			)
		}
	}
	if len(queued) > 0 {
		d.logger.Info("queued jobs re-enqueued", logging.Int("count", len(queued)))
	}
}

// Stop halts the API server, watcher, and worker pool, then releases the
// lock. Stop waits for in-flight work to wind down.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.api.stop()
	if d.watcher != nil {
		d.watcher.Stop()
	}
	d.pool.Stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Close stops the daemon and closes the store.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// APIAddr returns the bound API listen address, or empty before Start.
func (d *Daemon) APIAddr() string {
	return d.api.addr()
}

// Status returns the current daemon status snapshot.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:        d.running.Load(),
		PID:            os.Getpid(),
		UseFakeClients: d.cfg.Clients.UseFakes,
		Queue:          d.pool.Stats(),
		DatabasePath:   d.store.Path(),
	}
	summary, err := d.store.Health(ctx)
	if err != nil {
		d.logger.Warn("job health query failed", logging.Error(err))
		return status
	}
	status.Jobs = summary
	status.DatabaseOK = true
	return status
}
