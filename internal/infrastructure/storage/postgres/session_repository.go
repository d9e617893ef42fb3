package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/exp/slog"

	"photobridge/internal/domain/session"
)

// SessionRepository persists sessions. Expired rows are treated as
// absent on every read and deleted opportunistically, so the table
// self-heals without waiting for the stale sweep.
type SessionRepository struct {
	db  *Storage
	log *slog.Logger
}

func NewSessionRepository(db *Storage, log *slog.Logger) *SessionRepository {
	return &SessionRepository{
		db:  db,
		log: log,
	}
}

const sessionColumns = `id, user_id, device_type, device_os, app_version,
        credential, pending_sync_reset, created_at, updated_at, expires_at`

func scanSession(row pgx.Row) (*session.Session, error) {
	var s session.Session
	err := row.Scan(
		&s.ID, &s.UserID, &s.DeviceType, &s.DeviceOS, &s.AppVersion,
		&s.Credential, &s.PendingSyncReset, &s.CreatedAt, &s.UpdatedAt, &s.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepository) Insert(ctx context.Context, s *session.Session) error {
	_, err := r.db.Pool().Exec(ctx,
		`INSERT INTO sessions (`+sessionColumns+`)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		s.ID, s.UserID, s.DeviceType, s.DeviceOS, s.AppVersion,
		s.Credential, s.PendingSyncReset, s.CreatedAt, s.UpdatedAt, s.ExpiresAt)
	return err
}

func (r *SessionRepository) FindByID(ctx context.Context, id string) (*session.Session, error) {
	row := r.db.Pool().QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	s, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if s.Expired(time.Now().UTC()) {
		r.pruneExpired(ctx, s.ID)
		return nil, nil
	}
	return s, nil
}

func (r *SessionRepository) FindByUser(ctx context.Context, userID string) ([]*session.Session, error) {
	rows, err := r.db.Pool().Query(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE user_id = $1 ORDER BY updated_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	now := time.Now().UTC()
	var live []*session.Session
	var expired []string
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		if s.Expired(now) {
			expired = append(expired, s.ID)
			continue
		}
		live = append(live, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, id := range expired {
		r.pruneExpired(ctx, id)
	}
	return live, nil
}

// pruneExpired removes a session found expired during a read. Failure
// is logged, not returned: the read already answered correctly.
func (r *SessionRepository) pruneExpired(ctx context.Context, id string) {
	if _, err := r.db.Pool().Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		r.log.Warn("failed to prune expired session",
			slog.String("session_id", id),
			slog.String("error", err.Error()),
		)
	}
}

func (r *SessionRepository) Touch(ctx context.Context, id string, now time.Time) (bool, error) {
	tag, err := r.db.Pool().Exec(ctx,
		`UPDATE sessions SET updated_at = $2 WHERE id = $1`, id, now)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *SessionRepository) SetCredential(ctx context.Context, id, credential string, now time.Time) (bool, error) {
	tag, err := r.db.Pool().Exec(ctx,
		`UPDATE sessions SET credential = $2, updated_at = $3 WHERE id = $1`,
		id, credential, now)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *SessionRepository) SetPendingReset(ctx context.Context, id string, pending bool) (bool, error) {
	tag, err := r.db.Pool().Exec(ctx,
		`UPDATE sessions SET pending_sync_reset = $2 WHERE id = $1`, id, pending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Delete removes a session. Its checkpoints go with it via the
// ON DELETE CASCADE on checkpoints.session_id.
func (r *SessionRepository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Pool().Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *SessionRepository) DeleteAllForUser(ctx context.Context, userID string) (int, error) {
	tag, err := r.db.Pool().Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *SessionRepository) FindStale(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := r.db.Pool().Query(ctx,
		`SELECT id FROM sessions WHERE updated_at < $1`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *SessionRepository) DeleteMany(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := r.db.Pool().Exec(ctx,
		`DELETE FROM sessions WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("delete sessions: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
