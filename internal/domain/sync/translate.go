package sync

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"photobridge/internal/utils/ids"
)

// Wire payloads mirror the client protocol's field names, hence the
// camelCase JSON tags.

type AssetV1 struct {
	ID               uuid.UUID  `json:"id"`
	OwnerID          uuid.UUID  `json:"ownerId"`
	OriginalFileName string     `json:"originalFileName"`
	Thumbhash        *string    `json:"thumbhash"`
	Checksum         string     `json:"checksum"`
	FileCreatedAt    *time.Time `json:"fileCreatedAt"`
	FileModifiedAt   *time.Time `json:"fileModifiedAt"`
	LocalDateTime    *time.Time `json:"localDateTime"`
	Type             string     `json:"type"`
	DeletedAt        *time.Time `json:"deletedAt"`
	IsFavorite       bool       `json:"isFavorite"`
	Visibility       string     `json:"visibility"`
	Duration         *string    `json:"duration"`
	LivePhotoVideoID *uuid.UUID `json:"livePhotoVideoId"`
	StackID          *uuid.UUID `json:"stackId"`
}

type AssetDeleteV1 struct {
	AssetID uuid.UUID `json:"assetId"`
}

type AssetExifV1 struct {
	AssetID          uuid.UUID  `json:"assetId"`
	Description      *string    `json:"description"`
	ExifImageWidth   *int       `json:"exifImageWidth"`
	ExifImageHeight  *int       `json:"exifImageHeight"`
	FileSizeInByte   *int64     `json:"fileSizeInByte"`
	Orientation      *string    `json:"orientation"`
	DateTimeOriginal *time.Time `json:"dateTimeOriginal"`
	ModifyDate       *time.Time `json:"modifyDate"`
	TimeZone         *string    `json:"timeZone"`
	Latitude         *float64   `json:"latitude"`
	Longitude        *float64   `json:"longitude"`
	City             *string    `json:"city"`
	State            *string    `json:"state"`
	Country          *string    `json:"country"`
	Make             *string    `json:"make"`
	Model            *string    `json:"model"`
	LensModel        *string    `json:"lensModel"`
	FNumber          *float64   `json:"fNumber"`
	FocalLength      *float64   `json:"focalLength"`
	ISO              *int       `json:"iso"`
	ExposureTime     *string    `json:"exposureTime"`
	Rating           *int       `json:"rating"`
	FPS              *float64   `json:"fps"`
}

type AlbumV1 struct {
	ID                uuid.UUID  `json:"id"`
	OwnerID           uuid.UUID  `json:"ownerId"`
	Name              string     `json:"name"`
	Description       string     `json:"description"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
	ThumbnailAssetID  *uuid.UUID `json:"thumbnailAssetId"`
	IsActivityEnabled bool       `json:"isActivityEnabled"`
	Order             string     `json:"order"`
}

type AlbumDeleteV1 struct {
	AlbumID uuid.UUID `json:"albumId"`
}

type AlbumToAssetV1 struct {
	AlbumID uuid.UUID `json:"albumId"`
	AssetID uuid.UUID `json:"assetId"`
}

type PersonV1 struct {
	ID          uuid.UUID  `json:"id"`
	OwnerID     uuid.UUID  `json:"ownerId"`
	Name        string     `json:"name"`
	BirthDate   *time.Time `json:"birthDate"`
	IsHidden    bool       `json:"isHidden"`
	IsFavorite  bool       `json:"isFavorite"`
	Color       *string    `json:"color"`
	FaceAssetID *uuid.UUID `json:"faceAssetId"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type PersonDeleteV1 struct {
	PersonID uuid.UUID `json:"personId"`
}

type AssetFaceV1 struct {
	ID            uuid.UUID  `json:"id"`
	AssetID       uuid.UUID  `json:"assetId"`
	PersonID      *uuid.UUID `json:"personId"`
	ImageWidth    int        `json:"imageWidth"`
	ImageHeight   int        `json:"imageHeight"`
	BoundingBoxX1 int        `json:"boundingBoxX1"`
	BoundingBoxY1 int        `json:"boundingBoxY1"`
	BoundingBoxX2 int        `json:"boundingBoxX2"`
	BoundingBoxY2 int        `json:"boundingBoxY2"`
	SourceType    string     `json:"sourceType"`
}

type AssetFaceDeleteV1 struct {
	FaceID uuid.UUID `json:"faceId"`
}

type UserV1 struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	AvatarColor *string    `json:"avatarColor"`
	DeletedAt   *time.Time `json:"deletedAt"`
}

type AuthUserV1 struct {
	ID                uuid.UUID `json:"id"`
	Email             string    `json:"email"`
	Name              string    `json:"name"`
	AvatarColor       *string   `json:"avatarColor"`
	IsAdmin           bool      `json:"isAdmin"`
	PinCode           *string   `json:"pinCode"`
	OAuthID           string    `json:"oauthId"`
	QuotaSizeInBytes  *int64    `json:"quotaSizeInBytes"`
	QuotaUsageInBytes int64     `json:"quotaUsageInBytes"`
	StorageLabel      *string   `json:"storageLabel"`
	ProfileImagePath  string    `json:"profileImagePath"`
}

const faceSourceType = "machine-learning"

func translateAsset(a Asset) (AssetV1, error) {
	id, err := ids.AssetUUID(a.ID)
	if err != nil {
		return AssetV1{}, err
	}
	owner, err := ids.UserUUID(a.OwnerID)
	if err != nil {
		return AssetV1{}, err
	}
	out := AssetV1{
		ID:               id,
		OwnerID:          owner,
		OriginalFileName: a.OriginalFileName,
		Checksum:         a.Checksum,
		Type:             assetType(a.Type),
		IsFavorite:       a.IsFavorite,
		Visibility:       visibility(a.Visibility),
		Duration:         a.Duration,
	}
	if a.FileCreatedAt != nil {
		t := toActualUTC(*a.FileCreatedAt)
		out.FileCreatedAt = &t
	}
	if a.FileModifiedAt != nil {
		t := toActualUTC(*a.FileModifiedAt)
		out.FileModifiedAt = &t
	}
	if a.LocalDateTime != nil {
		t := toLocalAsUTC(*a.LocalDateTime)
		out.LocalDateTime = &t
	}
	if a.DeletedAt != nil {
		t := toActualUTC(*a.DeletedAt)
		out.DeletedAt = &t
	}
	return out, nil
}

func assetType(t string) string {
	switch t {
	case "video":
		return "VIDEO"
	case "image", "":
		return "IMAGE"
	default:
		return "OTHER"
	}
}

func visibility(v string) string {
	if v == "" {
		return "timeline"
	}
	return v
}

func translateExif(a Asset) (AssetExifV1, error) {
	assetID, err := ids.AssetUUID(a.ID)
	if err != nil {
		return AssetExifV1{}, err
	}
	out := AssetExifV1{AssetID: assetID}
	e := a.Exif
	if e == nil {
		return out, nil
	}
	out.Description = e.Description
	out.ExifImageWidth = e.ExifImageWidth
	out.ExifImageHeight = e.ExifImageHeight
	out.FileSizeInByte = e.FileSizeInByte
	out.Orientation = e.Orientation
	out.Latitude = e.Latitude
	out.Longitude = e.Longitude
	out.City = e.City
	out.State = e.State
	out.Country = e.Country
	out.Make = e.Make
	out.Model = e.Model
	out.LensModel = e.LensModel
	out.FNumber = e.FNumber
	out.FocalLength = e.FocalLength
	out.ISO = e.ISO
	out.Rating = e.Rating
	out.FPS = e.FPS
	if e.DateTimeOriginal != nil {
		t := toActualUTC(*e.DateTimeOriginal)
		out.DateTimeOriginal = &t
	}
	if e.ModifyDate != nil {
		t := toActualUTC(*e.ModifyDate)
		out.ModifyDate = &t
	}
	if e.TimeZoneOffsetMins != nil {
		tz := formatTimezone(*e.TimeZoneOffsetMins)
		out.TimeZone = &tz
	}
	if e.ExposureTime != nil {
		if exp := formatExposure(*e.ExposureTime); exp != "" {
			out.ExposureTime = &exp
		}
	}
	return out, nil
}

func translateAlbum(a Album) (AlbumV1, error) {
	id, err := ids.AlbumUUID(a.ID)
	if err != nil {
		return AlbumV1{}, err
	}
	owner, err := ids.UserUUID(a.OwnerID)
	if err != nil {
		return AlbumV1{}, err
	}
	out := AlbumV1{
		ID:                id,
		OwnerID:           owner,
		Name:              a.Name,
		Description:       a.Description,
		CreatedAt:         toActualUTC(a.CreatedAt),
		UpdatedAt:         toActualUTC(a.UpdatedAt),
		IsActivityEnabled: a.IsActivityEnabled,
		Order:             albumOrder(a.Order),
	}
	if a.ThumbnailAssetID != nil {
		thumb, err := ids.AssetUUID(*a.ThumbnailAssetID)
		if err != nil {
			return AlbumV1{}, err
		}
		out.ThumbnailAssetID = &thumb
	}
	return out, nil
}

func albumOrder(o string) string {
	if o == "" {
		return "desc"
	}
	return o
}

func translateAlbumAsset(l AlbumAsset) (AlbumToAssetV1, error) {
	albumID, err := ids.AlbumUUID(l.AlbumID)
	if err != nil {
		return AlbumToAssetV1{}, err
	}
	assetID, err := ids.AssetUUID(l.AssetID)
	if err != nil {
		return AlbumToAssetV1{}, err
	}
	return AlbumToAssetV1{AlbumID: albumID, AssetID: assetID}, nil
}

func translatePerson(p Person) (PersonV1, error) {
	id, err := ids.PersonUUID(p.ID)
	if err != nil {
		return PersonV1{}, err
	}
	owner, err := ids.UserUUID(p.OwnerID)
	if err != nil {
		return PersonV1{}, err
	}
	out := PersonV1{
		ID:         id,
		OwnerID:    owner,
		Name:       p.Name,
		BirthDate:  p.BirthDate,
		IsHidden:   p.IsHidden,
		IsFavorite: p.IsFavorite,
		Color:      p.Color,
		CreatedAt:  toActualUTC(p.CreatedAt),
		UpdatedAt:  toActualUTC(p.UpdatedAt),
	}
	if p.FaceAssetID != nil {
		face, err := ids.AssetUUID(*p.FaceAssetID)
		if err != nil {
			return PersonV1{}, err
		}
		out.FaceAssetID = &face
	}
	return out, nil
}

// translateFace converts the upstream x/y/width/height box into the
// x1/y1/x2/y2 corners the client expects.
func translateFace(f Face) (AssetFaceV1, error) {
	id, err := ids.FaceUUID(f.ID)
	if err != nil {
		return AssetFaceV1{}, err
	}
	assetID, err := ids.AssetUUID(f.AssetID)
	if err != nil {
		return AssetFaceV1{}, err
	}
	out := AssetFaceV1{
		ID:            id,
		AssetID:       assetID,
		ImageWidth:    f.ImageWidth,
		ImageHeight:   f.ImageHeight,
		BoundingBoxX1: f.BoundingBoxX,
		BoundingBoxY1: f.BoundingBoxY,
		BoundingBoxX2: f.BoundingBoxX + f.BoundingBoxW,
		BoundingBoxY2: f.BoundingBoxY + f.BoundingBoxH,
		SourceType:    faceSourceType,
	}
	if f.PersonID != nil {
		person, err := ids.PersonUUID(*f.PersonID)
		if err != nil {
			return AssetFaceV1{}, err
		}
		out.PersonID = &person
	}
	return out, nil
}

func translateUser(u User) (UserV1, error) {
	id, err := ids.UserUUID(u.ID)
	if err != nil {
		return UserV1{}, err
	}
	out := UserV1{
		ID:          id,
		Email:       u.Email,
		Name:        u.Name,
		AvatarColor: u.AvatarColor,
	}
	if u.DeletedAt != nil {
		t := toActualUTC(*u.DeletedAt)
		out.DeletedAt = &t
	}
	return out, nil
}

func translateAuthUser(u User) (AuthUserV1, error) {
	id, err := ids.UserUUID(u.ID)
	if err != nil {
		return AuthUserV1{}, err
	}
	return AuthUserV1{
		ID:               id,
		Email:            u.Email,
		Name:             u.Name,
		AvatarColor:      u.AvatarColor,
		IsAdmin:          false,
		ProfileImagePath: "",
	}, nil
}

// translateUpsert builds the sync record for a create/update event.
// Events whose entity has since vanished are skipped: a later delete
// event covers them.
func translateUpsert(log *slog.Logger, m typeMapping, ev Event, entities map[string]any) (Record, bool, error) {
	raw, ok := entities[ev.EntityID]
	if !ok {
		log.Debug("entity missing for event, skipping",
			slog.String("event_id", ev.ID),
			slog.String("entity_type", ev.EntityType),
			slog.String("entity_id", ev.EntityID),
		)
		return Record{}, false, nil
	}
	var (
		data any
		err  error
	)
	switch m.entity {
	case EntityAssetV1:
		data, err = translateAsset(raw.(Asset))
	case EntityAssetExifV1:
		data, err = translateExif(raw.(Asset))
	case EntityAlbumV1:
		data, err = translateAlbum(raw.(Album))
	case EntityAlbumToAssetV1:
		data, err = translateAlbumAsset(raw.(AlbumAsset))
	case EntityPersonV1:
		data, err = translatePerson(raw.(Person))
	case EntityAssetFaceV1:
		data, err = translateFace(raw.(Face))
	default:
		log.Warn("no translator for entity type", slog.String("type", string(m.entity)))
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	return Record{
		Type: m.entity,
		Data: data,
		Ack:  ToAckToken(m.entity, ev.ID),
	}, true, nil
}

// translateDelete builds the delete sync record for a delete event.
// A delete event whose entity_type disagrees with its event_type is
// malformed upstream data; it is skipped with a warning and the cursor
// still moves past it.
func translateDelete(log *slog.Logger, ev Event) (Record, bool, error) {
	want, ok := deleteEventEntityTypes[ev.EventType]
	if !ok {
		return Record{}, false, nil
	}
	if ev.EntityType != want {
		log.Warn("delete event entity type mismatch, skipping",
			slog.String("event_id", ev.ID),
			slog.String("event_type", ev.EventType),
			slog.String("entity_type", ev.EntityType),
		)
		return Record{}, false, nil
	}
	var (
		entity EntityType
		data   any
	)
	switch ev.EventType {
	case eventAssetDeleted:
		id, err := ids.AssetUUID(ev.EntityID)
		if err != nil {
			return Record{}, false, err
		}
		entity, data = EntityAssetDeleteV1, AssetDeleteV1{AssetID: id}
	case eventAlbumDeleted:
		id, err := ids.AlbumUUID(ev.EntityID)
		if err != nil {
			return Record{}, false, err
		}
		entity, data = EntityAlbumDeleteV1, AlbumDeleteV1{AlbumID: id}
	case eventPersonDeleted:
		id, err := ids.PersonUUID(ev.EntityID)
		if err != nil {
			return Record{}, false, err
		}
		entity, data = EntityPersonDeleteV1, PersonDeleteV1{PersonID: id}
	case eventFaceDeleted:
		id, err := ids.FaceUUID(ev.EntityID)
		if err != nil {
			return Record{}, false, err
		}
		entity, data = EntityAssetFaceDeleteV1, AssetFaceDeleteV1{FaceID: id}
	}
	return Record{
		Type: entity,
		Data: data,
		Ack:  ToAckToken(entity, ev.ID),
	}, true, nil
}
