package fraud

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ZanzyTHEbar/tender-integrity/internal/errors"
	"github.com/ZanzyTHEbar/tender-integrity/internal/monitoring"
	"github.com/ZanzyTHEbar/tender-integrity/internal/types"
)

// Report is the outcome of one fraud analysis run for a tender
type Report struct {
	TenderID        int64                 `json:"tender_id"`
	TotalRiskScore  float64               `json:"total_risk_score"`
	RiskLevel       RiskLevel             `json:"risk_level"`
	Detections      []Detection           `json:"detections"`
	Profiles        map[int64]RiskProfile `json:"participants_risk"`
	Recommendations []string              `json:"recommendations"`
	FailedDetectors []DetectionType       `json:"failed_detectors,omitempty"`
	AnalyzedAt      time.Time             `json:"analyzed_at"`
}

// Profile returns the risk profile of a participant, or a zero low-risk one
func (r Report) Profile(id int64) RiskProfile {
	if p, ok := r.Profiles[id]; ok {
		return p
	}
	return RiskProfile{ParticipantID: id, RiskLevel: RiskLow, DetectionTypes: []DetectionType{}}
}

// Analyzer runs the detectors concurrently and joins their output
type Analyzer struct {
	detectors []Detector
	logger    *monitoring.Logger
	metrics   *monitoring.Metrics
	now       func() time.Time
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithDetectors replaces the default detector set
func WithDetectors(detectors ...Detector) Option {
	return func(a *Analyzer) { a.detectors = detectors }
}

// WithMetrics records detector timings and failures
func WithMetrics(m *monitoring.Metrics) Option {
	return func(a *Analyzer) { a.metrics = m }
}

// WithClock overrides the timestamp source
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

// NewAnalyzer builds an analyzer over the default detectors for th
func NewAnalyzer(th Thresholds, logger *monitoring.Logger, opts ...Option) *Analyzer {
	if logger == nil {
		logger = &monitoring.Logger{Logger: slog.Default()}
	}
	a := &Analyzer{
		detectors: DefaultDetectors(th),
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type detectorResult struct {
	detections []Detection
	err        error
}

// Analyze runs every detector over the tender. A failing or panicking
// detector is logged and contributes nothing; only ctx cancellation is
// returned as an error.
func (a *Analyzer) Analyze(ctx context.Context, tender types.Tender) (Report, error) {
	start := time.Now()
	report := Report{
		TenderID:        tender.ID,
		RiskLevel:       RiskLow,
		Detections:      []Detection{},
		Profiles:        map[int64]RiskProfile{},
		Recommendations: []string{},
		AnalyzedAt:      a.now().UTC(),
	}

	participants := Snapshot(tender.Participants)
	if len(participants) < 2 {
		report.Profiles = Aggregate(participants, nil)
		return report, nil
	}

	results := make([]detectorResult, len(a.detectors))
	g, gctx := errgroup.WithContext(ctx)
	for i, det := range a.detectors {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = a.runDetector(tender.ID, det, participants)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, errors.NewTimeoutError("fraud analysis cancelled", err)
	}

	// joined in detector order so output is independent of scheduling
	for i, res := range results {
		if res.err != nil {
			report.FailedDetectors = append(report.FailedDetectors, a.detectors[i].Name())
			continue
		}
		for _, d := range res.detections {
			report.TotalRiskScore += d.RiskScore
			a.metrics.RecordDetection(string(d.Type), string(d.Severity))
		}
		report.Detections = append(report.Detections, res.detections...)
	}

	report.RiskLevel = RiskLevelFor(report.TotalRiskScore)
	report.Profiles = Aggregate(participants, report.Detections)
	report.Recommendations = Recommendations(report.Detections)

	failed := make([]string, len(report.FailedDetectors))
	for i, f := range report.FailedDetectors {
		failed[i] = string(f)
	}
	a.logger.AnalysisLogger(tender.ID, report.TotalRiskScore, string(report.RiskLevel), len(report.Detections), failed, time.Since(start))
	return report, nil
}

func (a *Analyzer) runDetector(tenderID int64, det Detector, participants []types.Participant) (res detectorResult) {
	name := string(det.Name())
	start := time.Now()

	errors.SafeExecute(func() {
		res.detections, res.err = det.Detect(participants)
	}, func(r interface{}) {
		res = detectorResult{err: errors.NewComputationError(name, fmt.Errorf("panic: %v", r))}
	})

	elapsed := time.Since(start)
	a.metrics.ObserveDetector(name, elapsed)
	if res.err != nil {
		a.metrics.RecordDetectorFailure(name)
		res.detections = nil
	}
	a.logger.DetectorLogger(tenderID, name, len(res.detections), elapsed, res.err)
	return res
}
