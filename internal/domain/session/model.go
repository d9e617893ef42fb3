package session

import (
	"errors"
	"time"
)

var (
	// ErrSessionExpired is returned when creating a session whose
	// expiration time is already in the past.
	ErrSessionExpired = errors.New("session expiration time is in the past")

	// ErrSessionData is returned when a stored session record is
	// missing required fields or otherwise unparsable.
	ErrSessionData = errors.New("invalid session data")
)

// DeviceInfo describes the client device a session belongs to.
type DeviceInfo struct {
	DeviceType string // "iOS", "Android", "Chrome", ...
	DeviceOS   string // "iOS 17.4", "Android 13", ...
	AppVersion string // "1.94.0", empty for web
}

// Session binds an opaque client token to an upstream user and an
// encrypted upstream credential. Checkpoints are children of a
// session: created, read, and destroyed together with it.
type Session struct {
	// ID is the SHA-256 hex of the client token. The plaintext token
	// is returned once at creation and never stored.
	ID     string
	UserID string

	DeviceType string
	DeviceOS   string
	AppVersion string

	// Credential is the upstream credential, encrypted at rest.
	Credential string

	// PendingSyncReset forces the next stream call to short-circuit
	// with a reset marker.
	PendingSyncReset bool

	CreatedAt time.Time
	UpdatedAt time.Time
	ExpiresAt *time.Time
}

// Expired reports whether the session has an expiry in the past.
func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && !s.ExpiresAt.After(now)
}
