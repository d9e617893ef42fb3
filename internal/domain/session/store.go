package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/exp/slog"
)

// CredentialCipher encrypts upstream credentials before they reach the
// repository. Raw credentials must never be persisted in clear text.
type CredentialCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// Repository is the storage interface for sessions. Multi-row
// mutations (delete with checkpoints, bulk delete, sweep) run in a
// single transaction; reads filter out TTL-expired rows and prune them
// opportunistically.
type Repository interface {
	Insert(ctx context.Context, s *Session) error
	FindByID(ctx context.Context, id string) (*Session, error)
	FindByUser(ctx context.Context, userID string) ([]*Session, error)
	Touch(ctx context.Context, id string, now time.Time) (bool, error)
	SetCredential(ctx context.Context, id, credential string, now time.Time) (bool, error)
	SetPendingReset(ctx context.Context, id string, pending bool) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	DeleteAllForUser(ctx context.Context, userID string) (int, error)
	FindStale(ctx context.Context, cutoff time.Time) ([]string, error)
	DeleteMany(ctx context.Context, ids []string) (int, error)
}

// Store is the session service.
type Store struct {
	repo   Repository
	cipher CredentialCipher
	log    *slog.Logger
}

func NewStore(repo Repository, cipher CredentialCipher, log *slog.Logger) *Store {
	return &Store{
		repo:   repo,
		cipher: cipher,
		log:    log,
	}
}

// HashToken derives the session ID from a client token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Create mints a new session. The upstream credential is encrypted
// before it is persisted. Returns the session and the plaintext token;
// the token is not recoverable afterwards.
func (s *Store) Create(ctx context.Context, credential, userID string, device DeviceInfo, expiresAt *time.Time) (*Session, string, error) {
	now := time.Now().UTC()
	if expiresAt != nil && !expiresAt.After(now) {
		return nil, "", fmt.Errorf("%w: %s", ErrSessionExpired, expiresAt)
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}
	token := base64.URLEncoding.EncodeToString(tokenBytes)

	encrypted, err := s.cipher.Encrypt(credential)
	if err != nil {
		return nil, "", fmt.Errorf("encrypt credential: %w", err)
	}

	sess := &Session{
		ID:               HashToken(token),
		UserID:           userID,
		DeviceType:       device.DeviceType,
		DeviceOS:         device.DeviceOS,
		AppVersion:       device.AppVersion,
		Credential:       encrypted,
		PendingSyncReset: false,
		CreatedAt:        now,
		UpdatedAt:        now,
		ExpiresAt:        expiresAt,
	}

	if err := s.repo.Insert(ctx, sess); err != nil {
		return nil, "", fmt.Errorf("save session: %w", err)
	}

	s.log.Info("session created",
		slog.String("session_id", sess.ID),
		slog.String("user_id", userID),
		slog.String("device_type", device.DeviceType),
	)
	return sess, token, nil
}

// GetByToken resolves a session by its plaintext client token.
// Returns nil when the session does not exist or has expired.
func (s *Store) GetByToken(ctx context.Context, token string) (*Session, error) {
	return s.GetByID(ctx, HashToken(token))
}

// GetByID returns a session by ID, or nil when it is gone.
func (s *Store) GetByID(ctx context.Context, id string) (*Session, error) {
	sess, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return sess, nil
}

// GetByUser returns every live session for a user. Expired sessions
// are pruned by the repository as a side effect of the read.
func (s *Store) GetByUser(ctx context.Context, userID string) ([]*Session, error) {
	sessions, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load sessions for user: %w", err)
	}
	return sessions, nil
}

// Credential decrypts the stored upstream credential.
func (s *Store) Credential(sess *Session) (string, error) {
	return s.cipher.Decrypt(sess.Credential)
}

// UpdateActivity bumps the session's updated_at. Returns false when the
// session no longer exists; a concurrently vanished session is an
// expected race, not a fault.
func (s *Store) UpdateActivity(ctx context.Context, token string) (bool, error) {
	return s.UpdateActivityByID(ctx, HashToken(token))
}

// UpdateActivityByID is UpdateActivity for callers that already hold
// the session ID rather than the plaintext token.
func (s *Store) UpdateActivityByID(ctx context.Context, id string) (bool, error) {
	return s.repo.Touch(ctx, id, time.Now().UTC())
}

// UpdateCredential replaces the stored upstream credential, e.g. after
// an upstream token refresh. Returns false when the session is gone.
func (s *Store) UpdateCredential(ctx context.Context, token, credential string) (bool, error) {
	encrypted, err := s.cipher.Encrypt(credential)
	if err != nil {
		return false, fmt.Errorf("encrypt credential: %w", err)
	}
	return s.repo.SetCredential(ctx, HashToken(token), encrypted, time.Now().UTC())
}

// SetPendingSyncReset flips the reset flag on a session by ID.
// Returns false when the session is gone.
func (s *Store) SetPendingSyncReset(ctx context.Context, id string, pending bool) (bool, error) {
	return s.repo.SetPendingReset(ctx, id, pending)
}

// Delete removes a session by token. The repository deletes its
// checkpoints in the same operation.
func (s *Store) Delete(ctx context.Context, token string) (bool, error) {
	return s.DeleteByID(ctx, HashToken(token))
}

// DeleteByID removes a session and, with it, all of its checkpoints.
func (s *Store) DeleteByID(ctx context.Context, id string) (bool, error) {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	if deleted {
		s.log.Info("session deleted", slog.String("session_id", id))
	}
	return deleted, nil
}

// DeleteAllForUser removes every session (and their checkpoints) for a
// user in one transaction. Returns the number deleted.
func (s *Store) DeleteAllForUser(ctx context.Context, userID string) (int, error) {
	count, err := s.repo.DeleteAllForUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("delete sessions for user: %w", err)
	}
	if count > 0 {
		s.log.Info("sessions deleted for user",
			slog.String("user_id", userID),
			slog.Int("count", count),
		)
	}
	return count, nil
}

// GetStaleSessions returns IDs of sessions with no activity since cutoff.
func (s *Store) GetStaleSessions(ctx context.Context, olderThan time.Time) ([]string, error) {
	ids, err := s.repo.FindStale(ctx, olderThan)
	if err != nil {
		return nil, fmt.Errorf("find stale sessions: %w", err)
	}
	return ids, nil
}

// CleanupStaleSessions deletes sessions inactive since cutoff, along
// with their checkpoints. Unreadable rows are deleted rather than
// retried forever.
func (s *Store) CleanupStaleSessions(ctx context.Context, olderThan time.Time) (int, error) {
	ids, err := s.GetStaleSessions(ctx, olderThan)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	count, err := s.repo.DeleteMany(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("cleanup stale sessions: %w", err)
	}

	s.log.Info("stale sessions cleaned up",
		slog.Int("count", count),
		slog.Time("older_than", olderThan),
	)
	return count, nil
}
