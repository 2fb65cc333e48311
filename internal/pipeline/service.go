// Package pipeline orchestrates "analyze tender" and "score participants"
// for one tender snapshot.
package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/ZanzyTHEbar/tender-integrity/internal/analysis"
	"github.com/ZanzyTHEbar/tender-integrity/internal/cache"
	"github.com/ZanzyTHEbar/tender-integrity/internal/database"
	"github.com/ZanzyTHEbar/tender-integrity/internal/errors"
	"github.com/ZanzyTHEbar/tender-integrity/internal/fraud"
	"github.com/ZanzyTHEbar/tender-integrity/internal/monitoring"
	"github.com/ZanzyTHEbar/tender-integrity/internal/types"
)

// Store persists finished runs for audit
type Store interface {
	SaveRun(ctx context.Context, run *database.Run) error
	LatestRun(ctx context.Context, tenderID int64) (*database.Run, error)
}

// Service runs fraud analysis then risk-penalised scoring
type Service struct {
	analyzer *fraud.Analyzer
	engine   *analysis.Engine
	cache    *cache.Cache
	store    Store
	logger   *monitoring.Logger
	metrics  *monitoring.Metrics
}

// Option configures a Service
type Option func(*Service)

// WithCache reuses results for byte-identical tender snapshots
func WithCache(c *cache.Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithStore persists every fresh run
func WithStore(store Store) Option {
	return func(s *Service) { s.store = store }
}

// WithMetrics counts evaluation outcomes
func WithMetrics(m *monitoring.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the service logger
func WithLogger(l *monitoring.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService wires an analyzer and an engine
func NewService(analyzer *fraud.Analyzer, engine *analysis.Engine, opts ...Option) *Service {
	s := &Service{
		analyzer: analyzer,
		engine:   engine,
		logger:   &monitoring.Logger{Logger: slog.Default()},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AnalyzeTender runs the fraud detectors and aggregates their findings
func (s *Service) AnalyzeTender(ctx context.Context, tender types.Tender) (fraud.Report, error) {
	if err := Validate(tender); err != nil {
		return fraud.Report{}, err
	}
	return s.analyzer.Analyze(ctx, tender)
}

// ScoreParticipants ranks the participants using a completed fraud report
func (s *Service) ScoreParticipants(ctx context.Context, tender types.Tender, report fraud.Report) (analysis.Evaluation, error) {
	if err := Validate(tender); err != nil {
		return analysis.Evaluation{}, err
	}
	if report.TenderID != tender.ID {
		return analysis.Evaluation{}, errors.NewValidationError("fraud report belongs to another tender",
			map[string]string{"report.tender_id": "does not match tender.id"})
	}
	return s.engine.Evaluate(ctx, tender, report)
}

// Process runs both stages and returns typed errors, so callers owning a
// retry policy can tell retryable failures apart
func (s *Service) Process(ctx context.Context, tender types.Tender) (_ Result, err error) {
	defer func() {
		if err != nil {
			s.metrics.RecordEvaluation("failed")
		}
	}()

	if err := Validate(tender); err != nil {
		return Result{}, err
	}

	key, err := cache.Fingerprint(tender)
	if err != nil {
		return Result{}, errors.NewMalformedInputError("tender", err)
	}

	if cached, ok := s.lookup(key); ok {
		s.metrics.RecordEvaluation("cached")
		winner := (*int64)(nil)
		if cached.Evaluation != nil {
			winner = cached.Evaluation.Summary.WinnerID
		}
		s.logger.EvaluationLogger(tender.ID, len(tender.Participants), qualifiedCount(cached), winner, 0, true)
		return cached, nil
	}

	start := time.Now()
	report, err := s.analyzer.Analyze(ctx, tender)
	if err != nil {
		return Result{}, err
	}
	evaluation, err := s.engine.Evaluate(ctx, tender, report)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Success:    true,
		TenderID:   tender.ID,
		Report:     &report,
		Evaluation: &evaluation,
	}

	if s.store != nil {
		run := database.NewRun(tender.ID, key, report, evaluation)
		if err := s.store.SaveRun(ctx, run); err != nil {
			return Result{}, errors.NewInternalError("failed to persist run", err)
		}
		res.RunID = run.ID
	}

	s.remember(key, res)
	s.metrics.RecordEvaluation(outcome(evaluation))
	s.logger.Debug("Pipeline run finished", "tender_id", tender.ID, "run_id", res.RunID, "duration_ms", time.Since(start).Milliseconds())
	return res, nil
}

// Run is Process rendered as a boundary envelope: fatal errors come back as
// {success:false, error} instead of a Go error.
func (s *Service) Run(ctx context.Context, tender types.Tender) Result {
	res, err := s.Process(ctx, tender)
	if err != nil {
		errors.Log(s.logger.Logger, errors.ToAppError(err))
		return Failure(tender.ID, err)
	}
	return res
}

// LatestRun returns the most recent stored run for a tender
func (s *Service) LatestRun(ctx context.Context, tenderID int64) (*database.Run, error) {
	if s.store == nil {
		return nil, errors.NewConfigurationError("audit store is disabled", nil)
	}
	return s.store.LatestRun(ctx, tenderID)
}

func (s *Service) lookup(key string) (Result, bool) {
	if s.cache == nil {
		return Result{}, false
	}
	data, ok := s.cache.Get(key)
	if !ok {
		return Result{}, false
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		s.logger.Warn("Discarding unreadable cache entry", "error", err)
		s.cache.Delete(key)
		return Result{}, false
	}
	res.Cached = true
	return res, true
}

func (s *Service) remember(key string, res Result) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(res)
	if err != nil {
		s.logger.Warn("Result not cached", "error", err)
		return
	}
	s.cache.Set(key, data)
}

func outcome(e analysis.Evaluation) string {
	if e.Summary.WinnerID == nil {
		return "no_winner"
	}
	return "winner"
}

func qualifiedCount(r Result) int {
	if r.Evaluation == nil {
		return 0
	}
	return r.Evaluation.Summary.QualifiedCount
}
