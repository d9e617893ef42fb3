package checkpoint

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrCheckpointData is returned when a stored checkpoint value cannot
// be parsed. Corrupted values are never repaired or dropped silently.
var ErrCheckpointData = errors.New("invalid checkpoint data")

// Checkpoint records how far one session has consumed one entity
// type's event stream. Cursor is the opaque upstream position token
// from the last acked record; it is never recomputed locally.
type Checkpoint struct {
	SessionID  string
	EntityType string
	Cursor     string
	StoredAt   time.Time
}

// Value encodes the stored representation: "{cursor}|{stored_at}".
func (c Checkpoint) Value() string {
	return c.Cursor + "|" + c.StoredAt.UTC().Format(time.RFC3339Nano)
}

// ParseValue decodes a stored checkpoint value.
func ParseValue(sessionID, entityType, value string) (Checkpoint, error) {
	parts := strings.Split(value, "|")
	if len(parts) != 2 {
		return Checkpoint{}, fmt.Errorf(
			"%w: checkpoint for %s has %d parts, expected 2", ErrCheckpointData, entityType, len(parts))
	}
	if parts[0] == "" {
		return Checkpoint{}, fmt.Errorf("%w: checkpoint for %s has empty cursor", ErrCheckpointData, entityType)
	}

	storedAt, err := time.Parse(time.RFC3339Nano, parts[1])
	if err != nil {
		return Checkpoint{}, fmt.Errorf("%w: checkpoint for %s has invalid timestamp: %v", ErrCheckpointData, entityType, err)
	}

	return Checkpoint{
		SessionID:  sessionID,
		EntityType: entityType,
		Cursor:     parts[0],
		StoredAt:   storedAt,
	}, nil
}
