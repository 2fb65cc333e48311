package analysis

import (
	"context"
	"log/slog"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ZanzyTHEbar/tender-integrity/internal/compliance"
	"github.com/ZanzyTHEbar/tender-integrity/internal/errors"
	"github.com/ZanzyTHEbar/tender-integrity/internal/fraud"
	"github.com/ZanzyTHEbar/tender-integrity/internal/monitoring"
	"github.com/ZanzyTHEbar/tender-integrity/internal/stats"
	"github.com/ZanzyTHEbar/tender-integrity/internal/types"
)

// Engine combines category scores with risk penalties and ranks participants
type Engine struct {
	scorers []Scorer
	logger  *monitoring.Logger
	workers int
	now     func() time.Time
}

// NewEngine creates an engine over the default scorers
func NewEngine(checker compliance.Checker, logger *monitoring.Logger) *Engine {
	if checker == nil {
		checker = compliance.NewRuleChecker()
	}
	if logger == nil {
		logger = &monitoring.Logger{Logger: slog.Default()}
	}
	return &Engine{
		scorers: DefaultScorers(checker),
		logger:  logger,
		workers: runtime.GOMAXPROCS(0),
		now:     time.Now,
	}
}

// WithClock returns a copy of the engine using now for timestamps
func (e *Engine) WithClock(now func() time.Time) *Engine {
	cp := *e
	cp.now = now
	return &cp
}

// Evaluate scores every participant against the fraud report, then ranks them.
// Only context cancellation produces an error.
func (e *Engine) Evaluate(ctx context.Context, tender types.Tender, report fraud.Report) (Evaluation, error) {
	start := time.Now()
	results := make([]ParticipantScore, len(tender.Participants))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, e.workers))
	for i, p := range tender.Participants {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.ScoreParticipant(tender, p, report.Profile(p.ID))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Evaluation{}, errors.NewTimeoutError("evaluation cancelled", err)
	}

	ranked := Rank(results)
	eval := Evaluation{
		TenderID:    tender.ID,
		Results:     ranked,
		Summary:     Summarize(ranked),
		EvaluatedAt: e.now().UTC(),
	}
	e.logger.EvaluationLogger(tender.ID, eval.Summary.TotalParticipants, eval.Summary.QualifiedCount, eval.Summary.WinnerID, time.Since(start), false)
	return eval, nil
}

// ScoreParticipant computes the unranked score of one participant
func (e *Engine) ScoreParticipant(tender types.Tender, p types.Participant, profile fraud.RiskProfile) ParticipantScore {
	ps := ParticipantScore{
		ParticipantID: p.ID,
		CompanyName:   p.CompanyName,
		Scores:        make(map[Category]float64, len(e.scorers)),
		Details:       make([]CategoryScore, 0, len(e.scorers)),
		RiskLevel:     profile.RiskLevel,
		RiskScore:     profile.TotalRiskScore,
		RedFlags:      append([]fraud.DetectionType{}, profile.DetectionTypes...),
	}
	if ps.RiskLevel == "" {
		ps.RiskLevel = fraud.RiskLow
	}

	weighted := 0.0
	for _, s := range e.scorers {
		cs := s.Score(tender, p)
		cs.Score = stats.Round(cs.Score, 2)
		weighted += cs.Score * categoryWeights[cs.Category]
		ps.Scores[cs.Category] = cs.Score
		ps.Details = append(ps.Details, cs)
	}

	ps.WeightedScore = stats.Round(weighted, 2)
	ps.RiskPenalty = riskPenalties[ps.RiskLevel]
	ps.TotalScore = stats.Round(stats.Clip(weighted+ps.RiskPenalty, 0, 100), 2)
	ps.IsQualified = Qualifies(ps.TotalScore, ps.RiskLevel)
	ps.ScoreReasoning = scoreReasoning(ps.Scores, ps.RiskPenalty, ps.IsQualified)
	ps.RiskReasoning = riskReasoning(profile)
	return ps
}

// Qualifies applies the score threshold and the critical-risk ceiling
func Qualifies(totalScore float64, level fraud.RiskLevel) bool {
	return totalScore >= qualifyingScore && level != fraud.RiskCritical
}

// Rank orders scores by total descending, lower participant id first on ties,
// assigns 1-based ranks and marks the first qualified participant as winner.
// The input slice is not modified.
func Rank(scores []ParticipantScore) []ParticipantScore {
	out := append([]ParticipantScore(nil), scores...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalScore != out[j].TotalScore {
			return out[i].TotalScore > out[j].TotalScore
		}
		return out[i].ParticipantID < out[j].ParticipantID
	})

	winner := false
	for i := range out {
		out[i].Rank = i + 1
		out[i].IsWinner = false
		if !winner && out[i].IsQualified {
			out[i].IsWinner = true
			winner = true
		}
	}
	return out
}

// Summarize computes qualification counts, the qualified average and the winner
func Summarize(ranked []ParticipantScore) Summary {
	s := Summary{TotalParticipants: len(ranked)}
	var qualified []float64
	for _, r := range ranked {
		if r.IsQualified {
			qualified = append(qualified, r.TotalScore)
		}
		if r.IsWinner {
			id := r.ParticipantID
			s.WinnerID = &id
			s.WinnerName = r.CompanyName
		}
	}
	s.QualifiedCount = len(qualified)
	s.DisqualifiedCount = len(ranked) - len(qualified)
	s.AverageScore = stats.Round(stats.Mean(qualified), 2)
	return s
}
