package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/desertthunder/tracklinker/internal/models"
	"github.com/desertthunder/tracklinker/internal/shared"
)

// RunRepository persists the transfer run log. A run row is inserted
// when the insert phase starts and finalized once, afterwards, with its
// counts and per-track errors.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Start inserts a fresh run row with a generated ID and sequence and
// zeroed counts, and returns it.
func (r *RunRepository) Start(sourcePlaylistID string) (*models.RunRecord, error) {
	sequence, err := NextSequence(r.db, "runs")
	if err != nil {
		return nil, fmt.Errorf("failed to generate sequence: %w", err)
	}

	run := &models.RunRecord{
		ID:               shared.GenerateID(),
		Sequence:         sequence,
		StartedAt:        time.Now().UTC(),
		SourcePlaylistID: sourcePlaylistID,
	}

	query := `
		INSERT INTO runs (id, sequence, started_at, source_playlist_id)
		VALUES (?, ?, ?, ?)
	`

	if _, err := r.db.Exec(query, run.ID, run.Sequence, run.StartedAt, run.SourcePlaylistID); err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}

	return run, nil
}

// Finalize stamps the run finished and writes its outcome.
func (r *RunRepository) Finalize(run *models.RunRecord) error {
	if run.FinishedAt == nil {
		now := time.Now().UTC()
		run.FinishedAt = &now
	}

	errorsJSON, err := json.Marshal(run.Errors)
	if err != nil {
		return fmt.Errorf("failed to encode run errors: %w", err)
	}

	query := `
		UPDATE runs
		SET finished_at = ?, target_playlist_id = ?, added = ?, skipped = ?, failed = ?, errors = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		run.FinishedAt,
		run.TargetPlaylistID,
		run.Added,
		run.Skipped,
		run.Failed,
		string(errorsJSON),
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to finalize run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrRunNotFound, run.ID)
	}

	return nil
}

// Get retrieves a run by ID.
func (r *RunRepository) Get(id string) (*models.RunRecord, error) {
	query := `
		SELECT id, sequence, started_at, finished_at, source_playlist_id, target_playlist_id, added, skipped, failed, errors
		FROM runs
		WHERE id = ?
	`

	run, err := scanRun(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", shared.ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	return run, nil
}

// Recent retrieves the latest runs, newest first.
func (r *RunRepository) Recent(limit int) ([]models.RunRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, sequence, started_at, finished_at, source_playlist_id, target_playlist_id, added, skipped, failed, errors
		FROM runs
		ORDER BY sequence DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []models.RunRecord
	for rows.Next() {
		run, err := scanRunRow(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

func scanRun(row *sql.Row) (*models.RunRecord, error) {
	var (
		run        models.RunRecord
		finishedAt sql.NullTime
		errorsJSON string
	)

	err := row.Scan(
		&run.ID,
		&run.Sequence,
		&run.StartedAt,
		&finishedAt,
		&run.SourcePlaylistID,
		&run.TargetPlaylistID,
		&run.Added,
		&run.Skipped,
		&run.Failed,
		&errorsJSON,
	)
	if err != nil {
		return nil, err
	}

	return decodeRun(&run, finishedAt, errorsJSON)
}

func scanRunRow(rows *sql.Rows) (*models.RunRecord, error) {
	var (
		run        models.RunRecord
		finishedAt sql.NullTime
		errorsJSON string
	)

	err := rows.Scan(
		&run.ID,
		&run.Sequence,
		&run.StartedAt,
		&finishedAt,
		&run.SourcePlaylistID,
		&run.TargetPlaylistID,
		&run.Added,
		&run.Skipped,
		&run.Failed,
		&errorsJSON,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	return decodeRun(&run, finishedAt, errorsJSON)
}

func decodeRun(run *models.RunRecord, finishedAt sql.NullTime, errorsJSON string) (*models.RunRecord, error) {
	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}

	if errorsJSON != "" {
		if err := json.Unmarshal([]byte(errorsJSON), &run.Errors); err != nil {
			return nil, fmt.Errorf("failed to decode run errors: %w", err)
		}
	}

	return run, nil
}
