package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"catchup/internal/config"
	"catchup/internal/logging"
	"catchup/internal/services"
	"catchup/internal/store"
)

// Submission is one queued pipeline run.
type Submission struct {
	JobID    string
	Lecture  *store.Lecture
	Language string
}

// Runner executes one job to completion. *pipeline.Runner satisfies it.
type Runner interface {
	Run(ctx context.Context, jobID string, lecture *store.Lecture, language string) error
}

// Pool runs submitted jobs on a fixed set of goroutines fed by a buffered
// channel. Submissions are in-memory only; the store keeps the durable
// QUEUED state, and the daemon re-enqueues queued jobs at startup.
type Pool struct {
	runner Runner
	logger *slog.Logger
	count  int
	jobs   chan Submission

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Stats reports pool occupancy for the status endpoint.
type Stats struct {
	Workers       int  `json:"workers"`
	QueueCapacity int  `json:"queue_capacity"`
	Queued        int  `json:"queued"`
	Running       bool `json:"running"`
}

// NewPool builds a pool sized from configuration.
func NewPool(cfg *config.Config, runner Runner, logger *slog.Logger) *Pool {
	count := cfg.Workers.Count
	if count <= 0 {
		count = 1
	}
	queueSize := cfg.Workers.QueueSize
	if queueSize <= 0 {
		queueSize = 16
	}
	return &Pool{
		runner: runner,
		logger: logging.NewComponentLogger(logger, "worker"),
		count:  count,
		jobs:   make(chan Submission, queueSize),
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return errors.New("worker pool already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true
	p.wg.Add(p.count)
	p.mu.Unlock()

	for i := 0; i < p.count; i++ {
		go p.run(runCtx, i)
	}
	p.logger.Info("worker pool started",
		logging.Int("workers", p.count),
		logging.Int("queue_capacity", cap(p.jobs)),
	)
	return nil
}

// Stop cancels in-flight jobs and waits for all workers to exit. Canceled
// jobs are persisted as ERROR by the runner; submissions still in the
// channel stay QUEUED in the store and run again after the next startup
// sweep.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	cancel := p.cancel
	p.running = false
	p.cancel = nil
	p.mu.Unlock()

	cancel()
	p.wg.Wait()
	p.logger.Info("worker pool stopped")
}

// Submit enqueues a job without blocking. A full queue is reported to the
// caller instead of stalling the submission request.
func (p *Pool) Submit(sub Submission) error {
	if sub.JobID == "" || sub.Lecture == nil {
		return services.Wrap(services.ErrValidation, "worker", "submit", "job id and lecture are required", nil)
	}
	select {
	case p.jobs <- sub:
		return nil
	default:
		return services.Wrap(services.ErrTransient, "worker", "submit", "job queue is full", nil)
	}
}

// Stats returns a snapshot of pool occupancy.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	running := p.running
	p.mu.Unlock()
	return Stats{
		Workers:       p.count,
		QueueCapacity: cap(p.jobs),
		Queued:        len(p.jobs),
		Running:       running,
	}
}

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()
	logger := p.logger.With(logging.Int("worker", id))

	for {
		select {
		case <-ctx.Done():
			return
		case sub := <-p.jobs:
			logger.Info("job picked up", logging.String(logging.FieldJobID, sub.JobID))
			err := p.runner.Run(ctx, sub.JobID, sub.Lecture, sub.Language)
			switch {
			case err == nil:
				logger.Info("job finished", logging.String(logging.FieldJobID, sub.JobID))
			case errors.Is(err, context.Canceled):
				logger.Info("job interrupted by shutdown", logging.String(logging.FieldJobID, sub.JobID))
			default:
				logger.Error("job failed",
					logging.String(logging.FieldJobID, sub.JobID),
					logging.Error(err),
				)
			}
		}
	}
}
