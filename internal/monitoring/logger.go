package monitoring

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Logger provides structured JSON logging with pipeline-specific helpers
type Logger struct {
	*slog.Logger
}

// NewLogger creates a JSON logger on stdout at info level
func NewLogger() *Logger {
	return NewLoggerWithWriter(os.Stdout, slog.LevelInfo)
}

// NewLoggerWithWriter creates a JSON logger writing to w at the given level
func NewLoggerWithWriter(w io.Writer, level slog.Level) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	})

	return &Logger{
		Logger: slog.New(handler),
	}
}

// ParseLevel maps a config string to a slog level, defaulting to info
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// RequestLogger logs HTTP request details
func (l *Logger) RequestLogger(method, path, ip, userAgent string, statusCode int, duration time.Duration) {
	l.Info("HTTP Request",
		"method", method,
		"path", path,
		"ip", ip,
		"user_agent", userAgent,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	)
}

// DetectorLogger logs the outcome of one detector run
func (l *Logger) DetectorLogger(tenderID int64, detector string, detections int, duration time.Duration, err error) {
	if err != nil {
		l.Warn("Detector Failed",
			"tender_id", tenderID,
			"detector", detector,
			"duration_ms", duration.Milliseconds(),
			"error", err.Error(),
		)
		return
	}
	l.Debug("Detector Completed",
		"tender_id", tenderID,
		"detector", detector,
		"detections", detections,
		"duration_ms", duration.Milliseconds(),
	)
}

// AnalysisLogger logs a finished fraud analysis
func (l *Logger) AnalysisLogger(tenderID int64, totalRisk float64, riskLevel string, detections int, failed []string, duration time.Duration) {
	l.Info("Fraud Analysis Completed",
		"tender_id", tenderID,
		"total_risk_score", totalRisk,
		"risk_level", riskLevel,
		"detections", detections,
		"failed_detectors", failed,
		"duration_ms", duration.Milliseconds(),
	)
}

// EvaluationLogger logs a finished scoring run
func (l *Logger) EvaluationLogger(tenderID int64, participants, qualified int, winnerID *int64, duration time.Duration, cacheHit bool) {
	attrs := []any{
		"tender_id", tenderID,
		"participants", participants,
		"qualified", qualified,
		"duration_ms", duration.Milliseconds(),
		"cache_hit", cacheHit,
	}
	if winnerID != nil {
		attrs = append(attrs, "winner_id", *winnerID)
	}
	l.Info("Evaluation Completed", attrs...)
}

// JobLogger logs job lifecycle transitions
func (l *Logger) JobLogger(jobID string, tenderID int64, status string, attempt int, err error) {
	attrs := []any{
		"job_id", jobID,
		"tender_id", tenderID,
		"status", status,
		"attempt", attempt,
	}
	if err != nil {
		attrs = append(attrs, "error", err.Error())
		l.Warn("Job Update", attrs...)
		return
	}
	l.Info("Job Update", attrs...)
}

// SystemLogger logs system-level events
func (l *Logger) SystemLogger(event, details string) {
	l.Info("System Event",
		"event", event,
		"details", details,
		"uptime", time.Since(startTime).String(),
	)
}

var startTime = time.Now()
