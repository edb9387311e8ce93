package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/minhvu/tcbsync/internal/models"
	"github.com/minhvu/tcbsync/internal/shared"
)

// SyncRun is one sync job started from this client. Outcome stays empty
// until the poller observes the job reach a terminal state.
type SyncRun struct {
	ID         string
	DateFrom   string
	DateTo     string
	Outcome    string
	LastError  string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// RunRepository records sync runs in the sync_runs table.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Begin records an accepted start request and returns the run id.
func (r *RunRepository) Begin(dateRange models.DateRange) (string, error) {
	id := shared.GenerateID()
	query := `
		INSERT INTO sync_runs (id, date_from, date_to, started_at) VALUES (?, ?, ?, ?)
	`
	_, err := r.db.Exec(query, id, dateRange.FromString(), dateRange.ToString(), time.Now())
	if err != nil {
		return "", fmt.Errorf("failed to insert sync run: %w", err)
	}
	return id, nil
}

// Finish records the terminal state observed for a run.
func (r *RunRepository) Finish(id, outcome, lastError string) error {
	query := `
		UPDATE sync_runs SET outcome = ?, last_error = ?, finished_at = ? WHERE id = ?
	`
	if _, err := r.db.Exec(query, outcome, lastError, time.Now(), id); err != nil {
		return fmt.Errorf("failed to finish sync run: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first.
func (r *RunRepository) List(limit int) ([]SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, date_from, date_to, outcome, last_error, started_at, finished_at
		FROM sync_runs
		ORDER BY started_at DESC
		LIMIT ?
	`
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer rows.Close()

	var runs []SyncRun
	for rows.Next() {
		var (
			run        SyncRun
			finishedAt sql.NullTime
		)
		if err := rows.Scan(&run.ID, &run.DateFrom, &run.DateTo, &run.Outcome, &run.LastError, &run.StartedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sync run: %w", err)
		}
		if finishedAt.Valid {
			run.FinishedAt = &finishedAt.Time
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sync runs: %w", err)
	}

	return runs, nil
}
