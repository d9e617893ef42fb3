// Package ids converts between the upstream's prefixed short IDs
// (e.g. "asset_BM3nUmJ6fkBqBADyz5FEiu") and the plain UUIDs the
// client protocol expects. The short part is a base57-encoded UUID.
package ids

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"
)

const (
	PrefixAsset  = "asset"
	PrefixAlbum  = "album"
	PrefixPerson = "person"
	PrefixFace   = "face"
	PrefixUser   = "user"
)

// FromUpstream decodes an upstream ID with the given prefix into a UUID.
func FromUpstream(upstreamID, prefix string) (uuid.UUID, error) {
	expected := prefix + "_"
	if !strings.HasPrefix(upstreamID, expected) {
		return uuid.Nil, fmt.Errorf("invalid upstream ID %q: expected prefix %q", upstreamID, expected)
	}

	short := upstreamID[len(expected):]
	if short == "" {
		// The encoder decodes "" to the nil UUID without complaint.
		return uuid.Nil, fmt.Errorf("invalid upstream ID %q: empty short part", upstreamID)
	}

	decoded, err := shortuuid.DefaultEncoder.Decode(short)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid upstream ID %q: %w", upstreamID, err)
	}
	return decoded, nil
}

// ToUpstream re-encodes a UUID into upstream ID format. Inverse of FromUpstream.
func ToUpstream(u uuid.UUID, prefix string) string {
	return prefix + "_" + shortuuid.DefaultEncoder.Encode(u)
}

func AssetUUID(id string) (uuid.UUID, error)  { return FromUpstream(id, PrefixAsset) }
func AlbumUUID(id string) (uuid.UUID, error)  { return FromUpstream(id, PrefixAlbum) }
func PersonUUID(id string) (uuid.UUID, error) { return FromUpstream(id, PrefixPerson) }
func FaceUUID(id string) (uuid.UUID, error)   { return FromUpstream(id, PrefixFace) }
func UserUUID(id string) (uuid.UUID, error)   { return FromUpstream(id, PrefixUser) }

func ToAssetID(u uuid.UUID) string  { return ToUpstream(u, PrefixAsset) }
func ToAlbumID(u uuid.UUID) string  { return ToUpstream(u, PrefixAlbum) }
func ToPersonID(u uuid.UUID) string { return ToUpstream(u, PrefixPerson) }
