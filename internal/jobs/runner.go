// Package jobs runs tender pipelines in the background with bounded
// retries, linear backoff and a hard per-job time budget.
package jobs

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/ZanzyTHEbar/tender-integrity/internal/errors"
	"github.com/ZanzyTHEbar/tender-integrity/internal/monitoring"
	"github.com/ZanzyTHEbar/tender-integrity/internal/pipeline"
	"github.com/ZanzyTHEbar/tender-integrity/internal/resilience"
	"github.com/ZanzyTHEbar/tender-integrity/internal/types"
)

// ErrQueueFull is returned by Submit when no more jobs can be buffered
var ErrQueueFull = stderrors.New("job queue is full")

// Processor performs one attempt of the pipeline for a tender
type Processor interface {
	Process(ctx context.Context, tender types.Tender) (pipeline.Result, error)
}

// Status is the lifecycle state of a job
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusRetrying  Status = "retrying"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Job is a snapshot of one submitted tender run
type Job struct {
	ID          string           `json:"job_id"`
	TenderID    int64            `json:"tender_id"`
	Status      Status           `json:"status"`
	Attempts    int              `json:"attempts"`
	Error       string           `json:"error,omitempty"`
	Result      *pipeline.Result `json:"result,omitempty"`
	SubmittedAt time.Time        `json:"submitted_at"`
	StartedAt   *time.Time       `json:"started_at,omitempty"`
	FinishedAt  *time.Time       `json:"finished_at,omitempty"`
}

// Config is the scheduling policy
type Config struct {
	Workers         int
	QueueSize       int
	MaxAttempts     int
	Backoff         time.Duration
	Timeout         time.Duration
	StartsPerSecond float64
}

// DefaultConfig returns 3 attempts, 60s × attempt backoff and a 30 minute budget
func DefaultConfig() Config {
	return Config{
		Workers:     4,
		QueueSize:   100,
		MaxAttempts: 3,
		Backoff:     60 * time.Second,
		Timeout:     30 * time.Minute,
	}
}

type queued struct {
	id     string
	tender types.Tender
}

// Runner is an in-process worker pool for pipeline jobs
type Runner struct {
	cfg       Config
	processor Processor
	limiter   *rate.Limiter
	logger    *monitoring.Logger
	metrics   *monitoring.Metrics

	queue chan queued
	mu    sync.RWMutex
	jobs  map[string]*Job
	wg    sync.WaitGroup
	once  sync.Once
}

// NewRunner creates a runner; Start must be called before jobs progress
func NewRunner(processor Processor, cfg Config, logger *monitoring.Logger, metrics *monitoring.Metrics) *Runner {
	def := DefaultConfig()
	if cfg.Workers < 1 {
		cfg.Workers = def.Workers
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if logger == nil {
		logger = &monitoring.Logger{Logger: slog.Default()}
	}

	r := &Runner{
		cfg:       cfg,
		processor: processor,
		logger:    logger,
		metrics:   metrics,
		queue:     make(chan queued, cfg.QueueSize),
		jobs:      make(map[string]*Job),
	}
	if cfg.StartsPerSecond > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(cfg.StartsPerSecond), 1)
	}
	return r
}

// Submit validates and enqueues a tender, returning the job id
func (r *Runner) Submit(tender types.Tender) (string, error) {
	if err := pipeline.Validate(tender); err != nil {
		return "", err
	}

	job := &Job{
		ID:          uuid.New().String(),
		TenderID:    tender.ID,
		Status:      StatusQueued,
		SubmittedAt: time.Now().UTC(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	select {
	case r.queue <- queued{id: job.ID, tender: tender}:
	default:
		return "", ErrQueueFull
	}
	r.jobs[job.ID] = job
	r.metrics.RecordJob(string(StatusQueued))
	r.logger.JobLogger(job.ID, job.TenderID, string(StatusQueued), 0, nil)
	return job.ID, nil
}

// Status returns a copy of the job
func (r *Runner) Status(id string) (Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Start launches the workers. They stop when ctx is done; jobs still queued
// at that point stay queued.
func (r *Runner) Start(ctx context.Context) {
	r.once.Do(func() {
		for i := 0; i < r.cfg.Workers; i++ {
			r.wg.Add(1)
			go r.work(ctx)
		}
	})
}

// Wait blocks until every worker has exited
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) work(ctx context.Context) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case item := <-r.queue:
			r.run(ctx, item)
		}
	}
}

func (r *Runner) run(ctx context.Context, item queued) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			r.finish(item, nil, errors.NewTimeoutError("runner stopped before job start", err))
			return
		}
	}

	jobCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	now := time.Now().UTC()
	r.update(item.id, func(j *Job) { j.StartedAt = &now })

	policy := resilience.DefaultRetryConfig()
	policy.MaxAttempts = r.cfg.MaxAttempts
	policy.InitialDelay = r.cfg.Backoff
	policy.MaxDelay = 0
	policy.Backoff = resilience.BackoffLinear
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		r.update(item.id, func(j *Job) {
			j.Status = StatusRetrying
			j.Error = err.Error()
		})
		r.metrics.RecordJob(string(StatusRetrying))
		r.logger.JobLogger(item.id, item.tender.ID, string(StatusRetrying), attempt, err)
	}

	var result pipeline.Result
	err := resilience.RetryWithConfig(jobCtx, policy, func(attempt int) error {
		r.update(item.id, func(j *Job) {
			j.Status = StatusRunning
			j.Attempts = attempt
		})
		r.logger.JobLogger(item.id, item.tender.ID, string(StatusRunning), attempt, nil)

		res, err := r.processor.Process(jobCtx, item.tender)
		if err != nil {
			return err
		}
		result = res
		return nil
	})

	if err == nil {
		r.finish(item, &result, nil)
		return
	}
	if jobCtx.Err() != nil && ctx.Err() == nil {
		err = errors.NewTimeoutError("job exceeded its time budget", err)
	}
	r.finish(item, nil, err)
}

func (r *Runner) finish(item queued, result *pipeline.Result, err error) {
	now := time.Now().UTC()
	status := StatusSucceeded
	if err != nil {
		status = StatusFailed
		failure := pipeline.Failure(item.tender.ID, err)
		result = &failure
	}

	var attempts int
	r.update(item.id, func(j *Job) {
		j.Status = status
		j.Result = result
		j.FinishedAt = &now
		if err != nil {
			j.Error = errors.ToAppError(err).Error()
		} else {
			j.Error = ""
		}
		attempts = j.Attempts
	})
	r.metrics.RecordJob(string(status))
	r.logger.JobLogger(item.id, item.tender.ID, string(status), attempts, err)
}

func (r *Runner) update(id string, fn func(*Job)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job, ok := r.jobs[id]; ok {
		fn(job)
	}
}
