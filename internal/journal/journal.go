// Package journal keeps an append-only log of stage attempts.
//
// Every execution the orchestrator performs, success or failure, is
// recorded in a SQLite database next to the deployment record. The journal
// is an audit trail only: it never participates in the next-stage decision,
// which is a pure function of the stage table and the record.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const dbName = "journal.db"

// Attempt is one recorded stage execution.
type Attempt struct {
	// ID is a generated identifier for the attempt.
	ID string

	// Stage is the stage id that was executed.
	Stage string

	// Outcome is "success" or "failure".
	Outcome string

	// Message holds the failure description; empty on success.
	Message string

	// Duration is how long the execution took.
	Duration time.Duration

	// CreatedAt is when the attempt finished.
	CreatedAt time.Time
}

// Outcome values for [Attempt].
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Journal writes and reads stage attempts.
type Journal struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal database under
// dir/.daoforge/journal.db and runs the schema migration.
func Open(dir string) (*Journal, error) {
	stateDir := filepath.Join(dir, ".daoforge")
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared", filepath.Join(stateDir, dbName))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS attempts (
		id TEXT PRIMARY KEY,
		stage TEXT NOT NULL,
		outcome TEXT NOT NULL,
		message TEXT,
		duration_ms INTEGER NOT NULL,
		created_at TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate journal: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Append records one attempt. The ID and CreatedAt fields are filled in
// when empty.
func (j *Journal) Append(ctx context.Context, a Attempt) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO attempts(id, stage, outcome, message, duration_ms, created_at) VALUES (?,?,?,?,?,?)`,
		a.ID, a.Stage, a.Outcome, a.Message, a.Duration.Milliseconds(), a.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to append journal attempt: %w", err)
	}
	return nil
}

// List returns all attempts in chronological order.
func (j *Journal) List(ctx context.Context) ([]Attempt, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, stage, outcome, message, duration_ms, created_at FROM attempts ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	defer rows.Close()

	var attempts []Attempt
	for rows.Next() {
		var a Attempt
		var message sql.NullString
		var durationMS int64
		var createdAt string
		if err := rows.Scan(&a.ID, &a.Stage, &a.Outcome, &message, &durationMS, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to read journal: %w", err)
		}
		a.Message = message.String
		a.Duration = time.Duration(durationMS) * time.Millisecond
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			a.CreatedAt = t
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	return attempts, nil
}
