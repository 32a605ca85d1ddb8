package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"reachlab/domain/core"
	"reachlab/domain/trial"
	"reachlab/ports"
)

// participantRepository implements the ParticipantRepository interface
type participantRepository struct {
	db *sqlx.DB
}

// NewParticipantRepository creates a new participant repository
func NewParticipantRepository(db *sqlx.DB) ports.ParticipantRepository {
	return &participantRepository{db: db}
}

// SaveAll upserts the demographic table in one transaction.
func (r *participantRepository) SaveAll(ctx context.Context, participants []trial.Participant) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO participants (
		id, age, gender, has_glasses, has_attention_deficit, jnd_threshold
	) VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO UPDATE SET
		age = EXCLUDED.age,
		gender = EXCLUDED.gender,
		has_glasses = EXCLUDED.has_glasses,
		has_attention_deficit = EXCLUDED.has_attention_deficit,
		jnd_threshold = EXCLUDED.jnd_threshold`

	for _, p := range participants {
		_, err := tx.ExecContext(ctx, query,
			p.ID, p.Age, p.Gender, p.HasGlasses, p.HasAttentionDeficit, p.JNDThreshold,
		)
		if err != nil {
			return fmt.Errorf("failed to insert participant %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit participants: %w", err)
	}
	return nil
}

// GetByID retrieves a participant by ID.
func (r *participantRepository) GetByID(ctx context.Context, id core.ParticipantID) (*trial.Participant, error) {
	query := `SELECT id, age, gender, has_glasses, has_attention_deficit, jnd_threshold
	FROM participants WHERE id = $1`

	var p trial.Participant
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Age, &p.Gender, &p.HasGlasses, &p.HasAttentionDeficit, &p.JNDThreshold,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", core.ErrParticipantNotFound, id)
		}
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	return &p, nil
}

// GetAll retrieves every participant ordered by ID.
func (r *participantRepository) GetAll(ctx context.Context) ([]trial.Participant, error) {
	query := `SELECT id, age, gender, has_glasses, has_attention_deficit, jnd_threshold
	FROM participants ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()

	var participants []trial.Participant
	for rows.Next() {
		var p trial.Participant
		err := rows.Scan(&p.ID, &p.Age, &p.Gender, &p.HasGlasses, &p.HasAttentionDeficit, &p.JNDThreshold)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}
	return participants, nil
}

// Source adapts the two repositories into a TrialSource for the pipeline.
type Source struct {
	Trials       ports.TrialRepository
	Participants ports.ParticipantRepository
}

// ReadTrials returns every stored trial.
func (s *Source) ReadTrials(ctx context.Context) (trial.Batch, error) {
	return s.Trials.GetAll(ctx)
}

// ReadParticipants returns the demographic table.
func (s *Source) ReadParticipants(ctx context.Context) ([]trial.Participant, error) {
	return s.Participants.GetAll(ctx)
}
