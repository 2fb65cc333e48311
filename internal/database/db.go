package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB is the SQLite audit store connection with its prepared statements
type DB struct {
	*sql.DB
	pool     *ConnectionPool
	prepared map[string]*sql.Stmt
	mutex    sync.RWMutex
}

// ConnectionPool records the pool limits applied to the connection
type ConnectionPool struct {
	db           *sql.DB
	maxOpenConns int
	maxIdleConns int
	maxLifetime  time.Duration
}

// NewConnectionPool applies pool limits to db
func NewConnectionPool(db *sql.DB, maxOpen, maxIdle int, maxLifetime time.Duration) *ConnectionPool {
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(maxLifetime)

	return &ConnectionPool{
		db:           db,
		maxOpenConns: maxOpen,
		maxIdleConns: maxIdle,
		maxLifetime:  maxLifetime,
	}
}

// GetStats returns connection pool statistics
func (cp *ConnectionPool) GetStats() map[string]interface{} {
	stats := cp.db.Stats()

	return map[string]interface{}{
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"max_open_connections": cp.maxOpenConns,
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
	}
}

// NewDB opens (creating if needed) the audit database at path
func NewDB(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	connStr := fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on&_busy_timeout=5000", path)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// SQLite serialises writers; a small pool avoids busy errors under the job runner
	pool := NewConnectionPool(db, 4, 2, 30*time.Minute)

	database := &DB{
		DB:       db,
		pool:     pool,
		prepared: make(map[string]*sql.Stmt),
	}

	if err := database.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := database.initPreparedStatements(); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize prepared statements: %w", err)
	}

	slog.Info("Audit database initialized", "path", path, "max_open_conns", pool.maxOpenConns)

	return database, nil
}

func (db *DB) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS evaluation_runs (
			id TEXT PRIMARY KEY,
			tender_id INTEGER NOT NULL,
			fingerprint TEXT NOT NULL,
			total_risk_score REAL NOT NULL,
			risk_level TEXT NOT NULL,
			participant_count INTEGER NOT NULL,
			qualified_count INTEGER NOT NULL,
			winner_id INTEGER,
			report TEXT NOT NULL, -- JSON fraud report
			evaluation TEXT NOT NULL, -- JSON ranked evaluation
			created_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS detections (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			detection_type TEXT NOT NULL,
			severity TEXT NOT NULL,
			risk_score REAL NOT NULL,
			subject TEXT NOT NULL, -- JSON
			description TEXT,
			evidence TEXT, -- JSON
			FOREIGN KEY (run_id) REFERENCES evaluation_runs(id) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS participant_scores (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			participant_id INTEGER NOT NULL,
			company_name TEXT,
			total_score REAL NOT NULL,
			risk_level TEXT NOT NULL,
			risk_score REAL NOT NULL,
			risk_penalty REAL NOT NULL,
			is_qualified BOOLEAN NOT NULL,
			rank INTEGER NOT NULL,
			is_winner BOOLEAN NOT NULL,
			red_flags TEXT, -- JSON
			FOREIGN KEY (run_id) REFERENCES evaluation_runs(id) ON DELETE CASCADE,
			UNIQUE(run_id, participant_id)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_runs_tender ON evaluation_runs(tender_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_detections_run ON detections(run_id, position)`,
		`CREATE INDEX IF NOT EXISTS idx_scores_run ON participant_scores(run_id, rank)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}

	return nil
}

func (db *DB) initPreparedStatements() error {
	statements := map[string]string{
		"insert_run": `INSERT INTO evaluation_runs (
			id, tender_id, fingerprint, total_risk_score, risk_level,
			participant_count, qualified_count, winner_id, report, evaluation, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,

		"insert_detection": `INSERT INTO detections (
			id, run_id, position, detection_type, severity, risk_score, subject, description, evidence
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,

		"insert_score": `INSERT INTO participant_scores (
			id, run_id, participant_id, company_name, total_score, risk_level,
			risk_score, risk_penalty, is_qualified, rank, is_winner, red_flags
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,

		"latest_run": `SELECT id, tender_id, fingerprint, report, evaluation, created_at
			FROM evaluation_runs WHERE tender_id = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`,

		"run_detections": `SELECT id, position, detection_type, severity, risk_score, subject, description, evidence
			FROM detections WHERE run_id = ? ORDER BY position ASC`,

		"run_scores": `SELECT participant_id, company_name, total_score, risk_level, risk_score,
			risk_penalty, is_qualified, rank, is_winner, red_flags
			FROM participant_scores WHERE run_id = ? ORDER BY rank ASC`,
	}

	db.mutex.Lock()
	defer db.mutex.Unlock()

	for name, query := range statements {
		stmt, err := db.Prepare(query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement %s: %w", name, err)
		}
		db.prepared[name] = stmt

		slog.Debug("Prepared statement initialized", "name", name)
	}

	return nil
}

// GetPreparedStatement retrieves a prepared statement
func (db *DB) GetPreparedStatement(name string) (*sql.Stmt, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	stmt, exists := db.prepared[name]
	if !exists {
		return nil, fmt.Errorf("prepared statement %s not found", name)
	}

	return stmt, nil
}

// GetPoolStats returns database connection pool statistics
func (db *DB) GetPoolStats() map[string]interface{} {
	return db.pool.GetStats()
}

// Close closes the prepared statements and the connection
func (db *DB) Close() error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	for name, stmt := range db.prepared {
		if err := stmt.Close(); err != nil {
			slog.Warn("Failed to close prepared statement", "name", name, "error", err)
		}
	}
	db.prepared = make(map[string]*sql.Stmt)

	return db.DB.Close()
}
