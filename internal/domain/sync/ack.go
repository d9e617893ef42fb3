package sync

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidAckType reports an ack token naming an unknown entity type.
var ErrInvalidAckType = errors.New("invalid ack entity type")

// ToAckToken builds the opaque ack token a client echoes back to
// record its progress for one entity type.
func ToAckToken(entityType EntityType, cursor string) string {
	return fmt.Sprintf("%s|%s|", entityType, cursor)
}

// ParsedAck is a decoded ack token.
type ParsedAck struct {
	EntityType EntityType
	Cursor     string
}

// ParseAckToken decodes an ack token. A token with fewer than two
// segments yields (nil, nil): malformed acks are skipped, not fatal.
// An unknown entity type yields ErrInvalidAckType so the caller can
// reject the whole request.
func ParseAckToken(token string) (*ParsedAck, error) {
	parts := strings.Split(token, "|")
	if len(parts) < 2 {
		return nil, nil
	}
	et, ok := ParseEntityType(parts[0])
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAckType, parts[0])
	}
	return &ParsedAck{EntityType: et, Cursor: parts[1]}, nil
}
