package forecast

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// ErrSnapshotNotFound is returned when no snapshot exists for a request id.
var ErrSnapshotNotFound = errors.New("forecast snapshot not found")

// snapshotSchema creates the snapshot table. Results are stored as msgpack
// blobs; the scalar columns exist only for listing and pruning.
const snapshotSchema = `
CREATE TABLE IF NOT EXISTS forecast_snapshots (
	request_id    TEXT PRIMARY KEY,
	cache_key     TEXT NOT NULL,
	horizon       TEXT NOT NULL,
	initial_value REAL NOT NULL,
	engine        TEXT NOT NULL,
	created_at    INTEGER NOT NULL,
	result        BLOB NOT NULL
) STRICT;
CREATE INDEX IF NOT EXISTS idx_forecast_snapshots_created ON forecast_snapshots(created_at);
`

// SnapshotSummary is one row of the snapshot history listing.
type SnapshotSummary struct {
	RequestID    string    `json:"request_id"`
	Horizon      Horizon   `json:"time_horizon"`
	InitialValue float64   `json:"initial_value"`
	Engine       string    `json:"engine"`
	CreatedAt    time.Time `json:"created_at"`
}

// Repository persists completed forecast results so they survive restarts and
// can be re-exported later.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a snapshot repository on the given database and
// ensures its schema exists.
func NewRepository(db *sql.DB, log zerolog.Logger) (*Repository, error) {
	if _, err := db.Exec(snapshotSchema); err != nil {
		return nil, fmt.Errorf("failed to create snapshot schema: %w", err)
	}
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "forecast").Logger(),
	}, nil
}

// Save stores a completed result under its request id. Saving the same
// request id twice replaces the earlier snapshot.
func (r *Repository) Save(result *ForecastResult, cacheKey string) error {
	blob, err := msgpack.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT OR REPLACE INTO forecast_snapshots
			(request_id, cache_key, horizon, initial_value, engine, created_at, result)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		result.RequestID,
		cacheKey,
		string(result.Horizon),
		result.InitialValue,
		result.Metadata.Engine,
		result.Metadata.GeneratedAt.Unix(),
		blob,
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	r.log.Debug().Str("request_id", result.RequestID).Msg("snapshot saved")
	return nil
}

// Get loads a stored result by request id.
func (r *Repository) Get(requestID string) (*ForecastResult, error) {
	var blob []byte
	err := r.db.QueryRow(
		"SELECT result FROM forecast_snapshots WHERE request_id = ?", requestID,
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var result ForecastResult
	if err := msgpack.Unmarshal(blob, &result); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &result, nil
}

// List returns snapshot summaries, newest first, up to limit rows.
func (r *Repository) List(limit int) ([]SnapshotSummary, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(`
		SELECT request_id, horizon, initial_value, engine, created_at
		FROM forecast_snapshots
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var summaries []SnapshotSummary
	for rows.Next() {
		var s SnapshotSummary
		var horizon string
		var createdAt int64
		if err := rows.Scan(&s.RequestID, &horizon, &s.InitialValue, &s.Engine, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		s.Horizon = Horizon(horizon)
		s.CreatedAt = time.Unix(createdAt, 0).UTC()
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}

	return summaries, nil
}

// Prune deletes snapshots older than maxAge and returns the number removed.
func (r *Repository) Prune(maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge).Unix()

	res, err := r.db.Exec("DELETE FROM forecast_snapshots WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}

	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned snapshots: %w", err)
	}
	if removed > 0 {
		r.log.Info().Int64("removed", removed).Msg("pruned expired snapshots")
	}
	return int(removed), nil
}

// Count returns the number of stored snapshots.
func (r *Repository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM forecast_snapshots").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return n, nil
}
