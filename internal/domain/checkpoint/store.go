package checkpoint

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/exp/slog"
)

// Entry is one (entity type, cursor) pair in a bulk write.
type Entry struct {
	EntityType string
	Cursor     string
}

// Repository is the storage interface for checkpoints. Stored values
// are opaque to the repository; parsing happens in the Store.
type Repository interface {
	GetAll(ctx context.Context, sessionID string) (map[string]string, error)
	Get(ctx context.Context, sessionID, entityType string) (string, bool, error)
	// SetMany writes all values in a single transaction.
	SetMany(ctx context.Context, sessionID string, values map[string]string) error
	Delete(ctx context.Context, sessionID string, entityTypes []string) error
	DeleteAll(ctx context.Context, sessionID string) error
}

// Store is the checkpoint service. Checkpoints are children of a
// session: the session repository cascades deletion, so a checkpoint
// never outlives its session.
type Store struct {
	repo Repository
	log  *slog.Logger
}

func NewStore(repo Repository, log *slog.Logger) *Store {
	return &Store{
		repo: repo,
		log:  log,
	}
}

// GetAll returns every checkpoint stored for a session. A malformed
// stored value surfaces as ErrCheckpointData, not as a partial result.
func (s *Store) GetAll(ctx context.Context, sessionID string) ([]Checkpoint, error) {
	data, err := s.repo.GetAll(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load checkpoints: %w", err)
	}

	checkpoints := make([]Checkpoint, 0, len(data))
	for entityType, value := range data {
		cp, err := ParseValue(sessionID, entityType, value)
		if err != nil {
			return nil, err
		}
		checkpoints = append(checkpoints, cp)
	}

	return checkpoints, nil
}

// Get returns one checkpoint, or nil when none is stored.
func (s *Store) Get(ctx context.Context, sessionID, entityType string) (*Checkpoint, error) {
	value, ok, err := s.repo.Get(ctx, sessionID, entityType)
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	if !ok {
		return nil, nil
	}

	cp, err := ParseValue(sessionID, entityType, value)
	if err != nil {
		return nil, err
	}
	return &cp, nil
}

// Set stores a single checkpoint.
func (s *Store) Set(ctx context.Context, sessionID, entityType, cursor string) error {
	return s.SetMany(ctx, sessionID, []Entry{{EntityType: entityType, Cursor: cursor}})
}

// SetMany stores checkpoints atomically: all entries land or none do.
func (s *Store) SetMany(ctx context.Context, sessionID string, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	now := time.Now().UTC()
	values := make(map[string]string, len(entries))
	for _, e := range entries {
		cp := Checkpoint{
			SessionID:  sessionID,
			EntityType: e.EntityType,
			Cursor:     e.Cursor,
			StoredAt:   now,
		}
		values[e.EntityType] = cp.Value()
	}

	if err := s.repo.SetMany(ctx, sessionID, values); err != nil {
		return fmt.Errorf("store checkpoints: %w", err)
	}

	s.log.Debug("stored checkpoints",
		slog.String("session_id", sessionID),
		slog.Int("count", len(entries)),
	)
	return nil
}

// Delete removes the given entity types. An empty list is an explicit
// no-op, not a delete-everything.
func (s *Store) Delete(ctx context.Context, sessionID string, entityTypes []string) error {
	if len(entityTypes) == 0 {
		return nil
	}

	if err := s.repo.Delete(ctx, sessionID, entityTypes); err != nil {
		return fmt.Errorf("delete checkpoints: %w", err)
	}
	return nil
}

// DeleteAll removes every checkpoint for a session. Used by full reset
// and by session teardown.
func (s *Store) DeleteAll(ctx context.Context, sessionID string) error {
	if err := s.repo.DeleteAll(ctx, sessionID); err != nil {
		return fmt.Errorf("delete all checkpoints: %w", err)
	}
	return nil
}
