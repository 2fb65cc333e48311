package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/ZanzyTHEbar/tender-integrity/internal/errors"
	"github.com/ZanzyTHEbar/tender-integrity/internal/fraud"
)

// Repository handles audit persistence of pipeline runs
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// SaveRun writes the run, its detections in emission order and its ranked
// participant scores in one transaction
func (r *Repository) SaveRun(ctx context.Context, run *Run) (err error) {
	report, err := json.Marshal(run.Report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	evaluation, err := json.Marshal(run.Evaluation)
	if err != nil {
		return fmt.Errorf("failed to encode evaluation: %w", err)
	}

	insertRun, err := r.db.GetPreparedStatement("insert_run")
	if err != nil {
		return err
	}
	insertDetection, err := r.db.GetPreparedStatement("insert_detection")
	if err != nil {
		return err
	}
	insertScore, err := r.db.GetPreparedStatement("insert_score")
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var winnerID sql.NullInt64
	if id := run.Evaluation.Summary.WinnerID; id != nil {
		winnerID = sql.NullInt64{Int64: *id, Valid: true}
	}

	if _, err = tx.StmtContext(ctx, insertRun).ExecContext(ctx,
		run.ID, run.TenderID, run.Fingerprint, run.Report.TotalRiskScore, string(run.Report.RiskLevel),
		run.Evaluation.Summary.TotalParticipants, run.Evaluation.Summary.QualifiedCount, winnerID,
		string(report), string(evaluation), run.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	detStmt := tx.StmtContext(ctx, insertDetection)
	for i, d := range run.Report.Detections {
		subject, encErr := json.Marshal(d.Subject)
		if encErr != nil {
			return fmt.Errorf("failed to encode detection subject: %w", encErr)
		}
		evidence, encErr := json.Marshal(d.Evidence)
		if encErr != nil {
			return fmt.Errorf("failed to encode detection evidence: %w", encErr)
		}
		if _, err = detStmt.ExecContext(ctx,
			uuid.New().String(), run.ID, i, string(d.Type), string(d.Severity), d.RiskScore,
			string(subject), d.Description, string(evidence),
		); err != nil {
			return fmt.Errorf("failed to insert detection: %w", err)
		}
	}

	scoreStmt := tx.StmtContext(ctx, insertScore)
	for _, s := range run.Evaluation.Results {
		flags, encErr := json.Marshal(s.RedFlags)
		if encErr != nil {
			return fmt.Errorf("failed to encode red flags: %w", encErr)
		}
		if _, err = scoreStmt.ExecContext(ctx,
			uuid.New().String(), run.ID, s.ParticipantID, s.CompanyName, s.TotalScore, string(s.RiskLevel),
			s.RiskScore, s.RiskPenalty, s.IsQualified, s.Rank, s.IsWinner, string(flags),
		); err != nil {
			return fmt.Errorf("failed to insert participant score: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// LatestRun returns the most recent run stored for a tender
func (r *Repository) LatestRun(ctx context.Context, tenderID int64) (*Run, error) {
	stmt, err := r.db.GetPreparedStatement("latest_run")
	if err != nil {
		return nil, err
	}

	var (
		run        Run
		report     string
		evaluation string
	)
	err = stmt.QueryRowContext(ctx, tenderID).Scan(
		&run.ID, &run.TenderID, &run.Fingerprint, &report, &evaluation, &run.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("run for tender", strconv.FormatInt(tenderID, 10))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest run: %w", err)
	}

	if err := json.Unmarshal([]byte(report), &run.Report); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	if err := json.Unmarshal([]byte(evaluation), &run.Evaluation); err != nil {
		return nil, fmt.Errorf("failed to decode evaluation: %w", err)
	}
	return &run, nil
}

// Detections returns the audit rows of a run in emission order
func (r *Repository) Detections(ctx context.Context, runID string) ([]DetectionRecord, error) {
	stmt, err := r.db.GetPreparedStatement("run_detections")
	if err != nil {
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query detections: %w", err)
	}
	defer rows.Close()

	var out []DetectionRecord
	for rows.Next() {
		var (
			rec         DetectionRecord
			detType     string
			severity    string
			subject     string
			description sql.NullString
			evidence    sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.Position, &detType, &severity, &rec.Detection.RiskScore,
			&subject, &description, &evidence); err != nil {
			return nil, fmt.Errorf("failed to scan detection: %w", err)
		}
		rec.RunID = runID
		rec.Detection.Type = fraud.DetectionType(detType)
		rec.Detection.Severity = fraud.Severity(severity)
		rec.Detection.Description = description.String
		if err := json.Unmarshal([]byte(subject), &rec.Detection.Subject); err != nil {
			return nil, fmt.Errorf("failed to decode subject: %w", err)
		}
		if evidence.Valid && evidence.String != "" {
			if err := json.Unmarshal([]byte(evidence.String), &rec.Detection.Evidence); err != nil {
				return nil, fmt.Errorf("failed to decode evidence: %w", err)
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Scores returns the ranked participant rows of a run
func (r *Repository) Scores(ctx context.Context, runID string) ([]ScoreRecord, error) {
	stmt, err := r.db.GetPreparedStatement("run_scores")
	if err != nil {
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participant scores: %w", err)
	}
	defer rows.Close()

	var out []ScoreRecord
	for rows.Next() {
		var (
			rec       ScoreRecord
			company   sql.NullString
			riskLevel string
			flags     sql.NullString
		)
		if err := rows.Scan(&rec.ParticipantID, &company, &rec.TotalScore, &riskLevel, &rec.RiskScore,
			&rec.RiskPenalty, &rec.IsQualified, &rec.Rank, &rec.IsWinner, &flags); err != nil {
			return nil, fmt.Errorf("failed to scan participant score: %w", err)
		}
		rec.CompanyName = company.String
		rec.RiskLevel = fraud.RiskLevel(riskLevel)
		if flags.Valid && flags.String != "" {
			if err := json.Unmarshal([]byte(flags.String), &rec.RedFlags); err != nil {
				return nil, fmt.Errorf("failed to decode red flags: %w", err)
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// PruneRuns deletes runs created before cutoff; their detections and scores
// go with them through the cascade
func (r *Repository) PruneRuns(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM evaluation_runs WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	n, _ := res.RowsAffected()
	slog.Info("Run retention cleanup completed", "cutoff", cutoff.UTC(), "runs_deleted", n)
	return n, nil
}
