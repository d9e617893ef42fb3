package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"golang.org/x/exp/slog"
)

// CheckpointRepository persists per-session sync checkpoints. Values
// are opaque strings; the checkpoint service owns their format.
type CheckpointRepository struct {
	db  *Storage
	log *slog.Logger
}

func NewCheckpointRepository(db *Storage, log *slog.Logger) *CheckpointRepository {
	return &CheckpointRepository{
		db:  db,
		log: log,
	}
}

func (r *CheckpointRepository) GetAll(ctx context.Context, sessionID string) (map[string]string, error) {
	rows, err := r.db.Pool().Query(ctx,
		`SELECT entity_type, value FROM checkpoints WHERE session_id = $1`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var entityType, value string
		if err := rows.Scan(&entityType, &value); err != nil {
			return nil, err
		}
		out[entityType] = value
	}
	return out, rows.Err()
}

func (r *CheckpointRepository) Get(ctx context.Context, sessionID, entityType string) (string, bool, error) {
	var value string
	err := r.db.Pool().QueryRow(ctx,
		`SELECT value FROM checkpoints WHERE session_id = $1 AND entity_type = $2`,
		sessionID, entityType).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetMany upserts all values in one transaction. A later ack for the
// same entity type overwrites an earlier one.
func (r *CheckpointRepository) SetMany(ctx context.Context, sessionID string, values map[string]string) error {
	tx, err := r.db.Pool().Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for entityType, value := range values {
		_, err := tx.Exec(ctx,
			`INSERT INTO checkpoints (session_id, entity_type, value)
             VALUES ($1, $2, $3)
             ON CONFLICT (session_id, entity_type) DO UPDATE SET value = EXCLUDED.value`,
			sessionID, entityType, value)
		if err != nil {
			return fmt.Errorf("upsert checkpoint %s: %w", entityType, err)
		}
	}
	return tx.Commit(ctx)
}

func (r *CheckpointRepository) Delete(ctx context.Context, sessionID string, entityTypes []string) error {
	_, err := r.db.Pool().Exec(ctx,
		`DELETE FROM checkpoints WHERE session_id = $1 AND entity_type = ANY($2)`,
		sessionID, entityTypes)
	return err
}

func (r *CheckpointRepository) DeleteAll(ctx context.Context, sessionID string) error {
	_, err := r.db.Pool().Exec(ctx,
		`DELETE FROM checkpoints WHERE session_id = $1`, sessionID)
	return err
}
