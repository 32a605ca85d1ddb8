package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"reachlab/domain/core"
	"reachlab/domain/trial"
	"reachlab/ports"
)

// trialRepository implements the TrialRepository interface
type trialRepository struct {
	db *sqlx.DB
}

// NewTrialRepository creates a new trial repository
func NewTrialRepository(db *sqlx.DB) ports.TrialRepository {
	return &trialRepository{db: db}
}

// Connect opens a postgres connection and verifies it.
func Connect(ctx context.Context, url string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the tables if they do not exist. Movement paths are
// stored as JSONB so we keep the original sampling intact.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS participants (
		id TEXT PRIMARY KEY,
		age INTEGER,
		gender TEXT,
		has_glasses BOOLEAN,
		has_attention_deficit BOOLEAN,
		jnd_threshold DOUBLE PRECISION
	);
	CREATE TABLE IF NOT EXISTS trials (
		id TEXT PRIMARY KEY,
		participant_id TEXT NOT NULL,
		trial_type TEXT NOT NULL,
		target_index INTEGER,
		reaction_time DOUBLE PRECISION,
		movement_time DOUBLE PRECISION,
		path_length DOUBLE PRECISION,
		movement_path JSONB
	);
	CREATE INDEX IF NOT EXISTS idx_trials_participant ON trials (participant_id);
	CREATE INDEX IF NOT EXISTS idx_trials_type ON trials (trial_type);`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// SaveBatch upserts trials in a single transaction.
func (r *trialRepository) SaveBatch(ctx context.Context, batch trial.Batch) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO trials (
		id, participant_id, trial_type, target_index, reaction_time,
		movement_time, path_length, movement_path
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (id) DO UPDATE SET
		participant_id = EXCLUDED.participant_id,
		trial_type = EXCLUDED.trial_type,
		target_index = EXCLUDED.target_index,
		reaction_time = EXCLUDED.reaction_time,
		movement_time = EXCLUDED.movement_time,
		path_length = EXCLUDED.path_length,
		movement_path = EXCLUDED.movement_path`

	for _, t := range batch {
		pathJSON, err := json.Marshal(t.MovementPath)
		if err != nil {
			return fmt.Errorf("failed to marshal movement path for %s: %w", t.ID, err)
		}

		_, err = tx.ExecContext(ctx, query,
			t.ID, t.ParticipantID, t.Type, t.TargetIndex, t.ReactionTime,
			t.MovementTime, t.PathLength, pathJSON,
		)
		if err != nil {
			return fmt.Errorf("failed to insert trial %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit trial batch: %w", err)
	}
	return nil
}

// GetByID retrieves a single trial with demographics joined in.
func (r *trialRepository) GetByID(ctx context.Context, id core.TrialID) (*trial.Trial, error) {
	rows, err := r.db.QueryContext(ctx, selectTrials+" WHERE t.id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query trial: %w", err)
	}
	defer rows.Close()

	batch, err := scanTrials(rows)
	if err != nil {
		return nil, err
	}
	if len(batch) == 0 {
		return nil, fmt.Errorf("%w: %s", core.ErrTrialNotFound, id)
	}
	return &batch[0], nil
}

// GetByParticipant retrieves all trials for one participant.
func (r *trialRepository) GetByParticipant(ctx context.Context, participantID core.ParticipantID) (trial.Batch, error) {
	rows, err := r.db.QueryContext(ctx, selectTrials+" WHERE t.participant_id = $1 ORDER BY t.id", participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trials: %w", err)
	}
	defer rows.Close()
	return scanTrials(rows)
}

// GetAll retrieves every trial with demographics joined in.
func (r *trialRepository) GetAll(ctx context.Context) (trial.Batch, error) {
	rows, err := r.db.QueryContext(ctx, selectTrials+" ORDER BY t.id")
	if err != nil {
		return nil, fmt.Errorf("failed to query trials: %w", err)
	}
	defer rows.Close()
	return scanTrials(rows)
}

// GetByType retrieves all trials of one experimental condition.
func (r *trialRepository) GetByType(ctx context.Context, trialType trial.TrialType) (trial.Batch, error) {
	rows, err := r.db.QueryContext(ctx, selectTrials+" WHERE t.trial_type = $1 ORDER BY t.id", trialType)
	if err != nil {
		return nil, fmt.Errorf("failed to query trials: %w", err)
	}
	defer rows.Close()
	return scanTrials(rows)
}

// Count returns the total number of stored trials.
func (r *trialRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM trials").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count trials: %w", err)
	}
	return n, nil
}

const selectTrials = `SELECT
	t.id, t.participant_id, t.trial_type, t.target_index, t.reaction_time,
	t.movement_time, t.path_length, t.movement_path,
	p.age, p.gender, p.has_glasses, p.has_attention_deficit
FROM trials t
LEFT JOIN participants p ON p.id = t.participant_id`

func scanTrials(rows *sql.Rows) (trial.Batch, error) {
	var batch trial.Batch
	for rows.Next() {
		var t trial.Trial
		var pathJSON []byte

		err := rows.Scan(
			&t.ID, &t.ParticipantID, &t.Type, &t.TargetIndex, &t.ReactionTime,
			&t.MovementTime, &t.PathLength, &pathJSON,
			&t.Age, &t.Gender, &t.HasGlasses, &t.HasAttentionDeficit,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trial: %w", err)
		}

		if len(pathJSON) > 0 {
			if err := json.Unmarshal(pathJSON, &t.MovementPath); err != nil {
				return nil, fmt.Errorf("failed to unmarshal movement path: %w", err)
			}
		}
		batch = append(batch, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trials: %w", err)
	}
	return batch, nil
}
