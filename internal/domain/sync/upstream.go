package sync

import (
	"context"
	"time"
)

// Event is one entry of the upstream change feed. ID doubles as the
// pagination cursor: events with an ID greater than a stored cursor
// happened after it.
type Event struct {
	ID         string    `json:"id"`
	EventType  string    `json:"event_type"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// EventPage is one page of the change feed.
type EventPage struct {
	Data    []Event `json:"data"`
	HasMore bool    `json:"has_more"`
}

// Asset is an upstream media item. Exif is present when the upstream
// has extracted metadata for it.
type Asset struct {
	ID               string     `json:"id"`
	OwnerID          string     `json:"owner_id"`
	DeviceAssetID    string     `json:"device_asset_id"`
	DeviceID         string     `json:"device_id"`
	Type             string     `json:"type"`
	OriginalFileName string     `json:"original_file_name"`
	Checksum         string     `json:"checksum"`
	IsFavorite       bool       `json:"is_favorite"`
	Visibility       string     `json:"visibility"`
	Duration         *string    `json:"duration"`
	FileCreatedAt    *time.Time `json:"file_created_at"`
	FileModifiedAt   *time.Time `json:"file_modified_at"`
	LocalDateTime    *time.Time `json:"local_date_time"`
	DeletedAt        *time.Time `json:"deleted_at"`
	Exif             *Exif      `json:"exif"`
}

// Exif is upstream-extracted metadata, keyed by the owning asset.
type Exif struct {
	AssetID            string     `json:"asset_id"`
	Make               *string    `json:"make"`
	Model              *string    `json:"model"`
	ExifImageWidth     *int       `json:"exif_image_width"`
	ExifImageHeight    *int       `json:"exif_image_height"`
	FileSizeInByte     *int64     `json:"file_size_in_byte"`
	Orientation        *string    `json:"orientation"`
	DateTimeOriginal   *time.Time `json:"date_time_original"`
	ModifyDate         *time.Time `json:"modify_date"`
	TimeZoneOffsetMins *int       `json:"time_zone_offset_minutes"`
	LensModel          *string    `json:"lens_model"`
	FNumber            *float64   `json:"f_number"`
	FocalLength        *float64   `json:"focal_length"`
	ISO                *int       `json:"iso"`
	ExposureTime       *float64   `json:"exposure_time"`
	Latitude           *float64   `json:"latitude"`
	Longitude          *float64   `json:"longitude"`
	City               *string    `json:"city"`
	State              *string    `json:"state"`
	Country            *string    `json:"country"`
	Description        *string    `json:"description"`
	FPS                *float64   `json:"fps"`
	Rating             *int       `json:"rating"`
}

// Album is an upstream album.
type Album struct {
	ID                string    `json:"id"`
	OwnerID           string    `json:"owner_id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	ThumbnailAssetID  *string   `json:"thumbnail_asset_id"`
	IsActivityEnabled bool      `json:"is_activity_enabled"`
	Order             string    `json:"order"`
}

// AlbumAsset links an asset into an album.
type AlbumAsset struct {
	ID      string `json:"id"`
	AlbumID string `json:"album_id"`
	AssetID string `json:"asset_id"`
}

// Person is an upstream recognized person.
type Person struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"owner_id"`
	Name        string     `json:"name"`
	BirthDate   *time.Time `json:"birth_date"`
	IsHidden    bool       `json:"is_hidden"`
	IsFavorite  bool       `json:"is_favorite"`
	Color       *string    `json:"color"`
	FaceAssetID *string    `json:"face_asset_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Face is a detected face region on an asset.
type Face struct {
	ID           string  `json:"id"`
	AssetID      string  `json:"asset_id"`
	PersonID     *string `json:"person_id"`
	ImageWidth   int     `json:"image_width"`
	ImageHeight  int     `json:"image_height"`
	BoundingBoxX int     `json:"bounding_box_x"`
	BoundingBoxY int     `json:"bounding_box_y"`
	BoundingBoxW int     `json:"bounding_box_width"`
	BoundingBoxH int     `json:"bounding_box_height"`
}

// User is the authenticated upstream account.
type User struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	AvatarColor *string    `json:"avatar_color"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at"`
}

// EventLog reads the upstream change feed. Events strictly newer than
// afterCursor and created before the boundary are returned in cursor
// order, at most limit per page.
type EventLog interface {
	Events(ctx context.Context, entityType string, limit int, before time.Time, afterCursor string) (EventPage, error)
}

// EntityStore resolves entity snapshots by ID. Missing IDs are simply
// absent from the result; the order of results is not guaranteed.
type EntityStore interface {
	Assets(ctx context.Context, ids []string) ([]Asset, error)
	Albums(ctx context.Context, ids []string) ([]Album, error)
	AlbumAssets(ctx context.Context, ids []string) ([]AlbumAsset, error)
	People(ctx context.Context, ids []string) ([]Person, error)
	Faces(ctx context.Context, ids []string) ([]Face, error)
}

// UserDirectory resolves the account a credential belongs to.
type UserDirectory interface {
	Me(ctx context.Context) (User, error)
}

// Upstream bundles everything the engine needs from the event source.
type Upstream interface {
	EventLog
	EntityStore
	UserDirectory
}
