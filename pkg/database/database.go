package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/quantops/quantbench/pkg/config"
)

var DebugLog func(string, ...interface{})

type DB struct {
	conn    *sql.DB
	enabled bool
}

type RunRecord struct {
	ID          int64
	Model       string
	Task        string
	SeqLength   int
	Quantized   bool
	Status      string
	MetricName  string
	MetricValue sql.NullFloat64
	LogPath     string
	StartedAt   time.Time
	FinishedAt  sql.NullTime
}

const DBName = "quantbench_track"

func New(cfg *config.Database) (*DB, error) {
	db := &DB{
		enabled: cfg.Enabled,
	}

	if !cfg.Enabled {
		return db, nil
	}

	postgresConnStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=postgres sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password)

	postgresConn, err := sql.Open("postgres", postgresConnStr)
	if err != nil {
		return db, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer postgresConn.Close()

	if err := postgresConn.Ping(); err != nil {
		return db, fmt.Errorf("failed to ping postgres: %w", err)
	}

	var exists bool
	err = postgresConn.QueryRow("SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", DBName).Scan(&exists)
	if err != nil {
		return db, fmt.Errorf("failed to check database existence: %w", err)
	}

	if !exists {
		_, err = postgresConn.Exec(fmt.Sprintf("CREATE DATABASE %s", DBName))
		if err != nil {
			return db, fmt.Errorf("failed to create database: %w", err)
		}
		if DebugLog != nil {
			DebugLog("database %s created", DBName)
		}
	}

	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, DBName)

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return db, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return db, fmt.Errorf("failed to ping database: %w", err)
	}

	db.conn = conn

	if err := db.initSchema(); err != nil {
		return db, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

func (db *DB) initSchema() error {
	if !db.enabled || db.conn == nil {
		return nil
	}

	schema := `
	CREATE TABLE IF NOT EXISTS eval_runs (
		id SERIAL PRIMARY KEY,
		model VARCHAR(255) NOT NULL,
		task VARCHAR(64) NOT NULL,
		seq_length INTEGER NOT NULL,
		quantized BOOLEAN NOT NULL DEFAULT FALSE,
		status VARCHAR(20) NOT NULL DEFAULT 'RUNNING',
		metric_name VARCHAR(64),
		metric_value DOUBLE PRECISION,
		log_path TEXT,
		started_at TIMESTAMP NOT NULL DEFAULT NOW(),
		finished_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_model ON eval_runs(model);
	CREATE INDEX IF NOT EXISTS idx_task ON eval_runs(task);
	CREATE INDEX IF NOT EXISTS idx_run_status ON eval_runs(status);
	`

	_, err := db.conn.Exec(schema)
	return err
}

func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

func (db *DB) IsEnabled() bool {
	return db.enabled && db.conn != nil
}

func (db *DB) TrackRunStart(model, task string, seqLength int, quantized bool, logPath string) (int64, error) {
	if !db.IsEnabled() {
		return 0, nil
	}

	if DebugLog != nil {
		DebugLog("recording run start: %s on %s", model, task)
	}

	var id int64
	err := db.conn.QueryRow(`
		INSERT INTO eval_runs (model, task, seq_length, quantized, status, log_path, started_at)
		VALUES ($1, $2, $3, $4, 'RUNNING', $5, NOW())
		RETURNING id
	`, model, task, seqLength, quantized, logPath).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to record run start: %w", err)
	}

	return id, nil
}

func (db *DB) FinishRun(id int64, metricName string, metricValue float64) error {
	if !db.IsEnabled() || id == 0 {
		return nil
	}

	_, err := db.conn.Exec(`
		UPDATE eval_runs
		SET status = 'COMPLETED', metric_name = $2, metric_value = $3, finished_at = NOW()
		WHERE id = $1
	`, id, metricName, metricValue)
	if err != nil {
		return fmt.Errorf("failed to record run completion: %w", err)
	}

	return nil
}

func (db *DB) FailRun(id int64) error {
	if !db.IsEnabled() || id == 0 {
		return nil
	}

	_, err := db.conn.Exec(`
		UPDATE eval_runs
		SET status = 'FAILED', finished_at = NOW()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to record run failure: %w", err)
	}

	return nil
}

func (db *DB) QueryRuns(model string, status string) ([]RunRecord, error) {
	if !db.IsEnabled() {
		return nil, fmt.Errorf("database is not enabled")
	}

	query := `
		SELECT id, model, task, seq_length, quantized, status, metric_name, metric_value, log_path, started_at, finished_at
		FROM eval_runs
		WHERE model = $1
	`
	args := []interface{}{model}

	if status != "" {
		query += " AND status = $2"
		args = append(args, status)
	}

	query += " ORDER BY started_at DESC"

	return db.queryRecords(query, args...)
}

func (db *DB) QueryAllRuns(status string) ([]RunRecord, error) {
	if !db.IsEnabled() {
		return nil, fmt.Errorf("database is not enabled")
	}

	query := `
		SELECT id, model, task, seq_length, quantized, status, metric_name, metric_value, log_path, started_at, finished_at
		FROM eval_runs
	`
	var args []interface{}

	if status != "" {
		query += " WHERE status = $1"
		args = append(args, status)
	}

	query += " ORDER BY model, started_at DESC"

	return db.queryRecords(query, args...)
}

func (db *DB) queryRecords(query string, args ...interface{}) ([]RunRecord, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var r RunRecord
		var metricName sql.NullString
		var logPath sql.NullString
		if err := rows.Scan(&r.ID, &r.Model, &r.Task, &r.SeqLength, &r.Quantized, &r.Status,
			&metricName, &r.MetricValue, &logPath, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, err
		}
		r.MetricName = metricName.String
		r.LogPath = logPath.String
		records = append(records, r)
	}

	return records, rows.Err()
}
