package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/desertthunder/tracklinker/internal/models"
	"github.com/desertthunder/tracklinker/internal/shared"
)

// MatchRepository persists decided track matches keyed by
// (source_provider, source_track_id). Writes are upserts: the latest
// decision for a key wins.
type MatchRepository struct {
	db *sql.DB
}

// NewMatchRepository creates a new MatchRepository with the given database connection
func NewMatchRepository(db *sql.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// Get retrieves the decided match for a source track.
// Returns [shared.ErrMatchNotFound] when no decision is recorded.
func (r *MatchRepository) Get(sourceProvider, sourceTrackID string) (*models.MatchRecord, error) {
	query := `
		SELECT source_provider, source_track_id, target_provider, target_id, score, decided_by, via, updated_at, metadata
		FROM matches
		WHERE source_provider = ? AND source_track_id = ?
	`

	return r.scanOne(r.db.QueryRow(query, sourceProvider, sourceTrackID))
}

// Put records a decision, overwriting any previous decision for the
// same source track. A zero UpdatedAt is stamped with the current time.
func (r *MatchRepository) Put(record *models.MatchRecord) error {
	if record.SourceProvider == "" || record.SourceTrackID == "" {
		return fmt.Errorf("%w: match record needs source provider and track id", shared.ErrInvalidArgument)
	}

	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = time.Now().UTC()
	}

	metadata, err := encodeMetadata(record.Metadata)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO matches (source_provider, source_track_id, target_provider, target_id, score, decided_by, via, updated_at, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (source_provider, source_track_id) DO UPDATE SET
			target_provider = excluded.target_provider,
			target_id = excluded.target_id,
			score = excluded.score,
			decided_by = excluded.decided_by,
			via = excluded.via,
			updated_at = excluded.updated_at,
			metadata = excluded.metadata
	`

	_, err = r.db.Exec(query,
		record.SourceProvider,
		record.SourceTrackID,
		record.TargetProvider,
		record.TargetID,
		record.Score,
		string(record.DecidedBy),
		string(record.Via),
		record.UpdatedAt,
		metadata,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert match: %w", err)
	}

	return nil
}

// Delete removes the decision for a source track so the next transfer
// re-resolves it.
func (r *MatchRepository) Delete(sourceProvider, sourceTrackID string) error {
	result, err := r.db.Exec(
		"DELETE FROM matches WHERE source_provider = ? AND source_track_id = ?",
		sourceProvider, sourceTrackID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete match: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s:%s", shared.ErrMatchNotFound, sourceProvider, sourceTrackID)
	}

	return nil
}

// List retrieves every decision for a source provider, most recent first.
func (r *MatchRepository) List(sourceProvider string) ([]models.MatchRecord, error) {
	query := `
		SELECT source_provider, source_track_id, target_provider, target_id, score, decided_by, via, updated_at, metadata
		FROM matches
		WHERE source_provider = ?
		ORDER BY updated_at DESC
	`

	rows, err := r.db.Query(query, sourceProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	var records []models.MatchRecord
	for rows.Next() {
		record, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// Stats aggregates decision counts for a source provider.
func (r *MatchRepository) Stats(sourceProvider string) (*models.MatchStats, error) {
	query := `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN decided_by = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN decided_by = ? THEN 1 ELSE 0 END), 0)
		FROM matches
		WHERE source_provider = ?
	`

	var stats models.MatchStats
	err := r.db.QueryRow(query, string(models.DecidedAuto), string(models.DecidedUser), sourceProvider).
		Scan(&stats.Total, &stats.Auto, &stats.Manual)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate match stats: %w", err)
	}

	return &stats, nil
}

// scanOne scans a single [sql.Row] into a [models.MatchRecord]
func (r *MatchRepository) scanOne(row *sql.Row) (*models.MatchRecord, error) {
	var (
		record   models.MatchRecord
		decided  string
		via      string
		metadata sql.NullString
	)

	err := row.Scan(
		&record.SourceProvider,
		&record.SourceTrackID,
		&record.TargetProvider,
		&record.TargetID,
		&record.Score,
		&decided,
		&via,
		&record.UpdatedAt,
		&metadata,
	)
	if err == sql.ErrNoRows {
		return nil, shared.ErrMatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan match: %w", err)
	}

	record.DecidedBy = models.Decision(decided)
	record.Via = models.MatchMethod(via)
	if err := decodeMetadata(metadata, &record); err != nil {
		return nil, err
	}

	return &record, nil
}

// scanRow scans a row from [sql.Rows] into a [models.MatchRecord]
func (r *MatchRepository) scanRow(rows *sql.Rows) (*models.MatchRecord, error) {
	var (
		record   models.MatchRecord
		decided  string
		via      string
		metadata sql.NullString
	)

	err := rows.Scan(
		&record.SourceProvider,
		&record.SourceTrackID,
		&record.TargetProvider,
		&record.TargetID,
		&record.Score,
		&decided,
		&via,
		&record.UpdatedAt,
		&metadata,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan match: %w", err)
	}

	record.DecidedBy = models.Decision(decided)
	record.Via = models.MatchMethod(via)
	if err := decodeMetadata(metadata, &record); err != nil {
		return nil, err
	}

	return &record, nil
}

func encodeMetadata(metadata map[string]string) (any, error) {
	if len(metadata) == 0 {
		return nil, nil
	}

	encoded, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode match metadata: %w", err)
	}
	return string(encoded), nil
}

func decodeMetadata(metadata sql.NullString, record *models.MatchRecord) error {
	if !metadata.Valid || metadata.String == "" {
		return nil
	}

	if err := json.Unmarshal([]byte(metadata.String), &record.Metadata); err != nil {
		return fmt.Errorf("failed to decode match metadata: %w", err)
	}
	return nil
}
