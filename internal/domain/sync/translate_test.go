package sync

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"photobridge/internal/utils/ids"
)

func newAssetID() (string, uuid.UUID) {
	u := uuid.New()
	return ids.ToAssetID(u), u
}

func strPtr(s string) *string        { return &s }
func intPtr(i int) *int              { return &i }
func f64Ptr(f float64) *float64      { return &f }
func timePtr(t time.Time) *time.Time { return &t }

func TestTranslateAsset_DatetimeHandling(t *testing.T) {
	assetID, wantID := newAssetID()
	ownerID := ids.ToUpstream(uuid.New(), ids.PrefixUser)

	tokyo := time.FixedZone("JST", 9*3600)
	created := time.Date(2024, 3, 15, 14, 5, 0, 0, tokyo)

	got, err := translateAsset(Asset{
		ID:               assetID,
		OwnerID:          ownerID,
		OriginalFileName: "IMG_0001.heic",
		Checksum:         "abc123",
		Type:             "image",
		FileCreatedAt:    timePtr(created),
		LocalDateTime:    timePtr(created),
	})
	require.NoError(t, err)

	assert.Equal(t, wantID, got.ID)
	assert.Equal(t, "IMAGE", got.Type)
	assert.Equal(t, "timeline", got.Visibility)

	// fileCreatedAt is the real instant; localDateTime keeps the wall
	// clock reading relabeled as UTC
	assert.Equal(t, 5, got.FileCreatedAt.Hour())
	assert.Equal(t, 14, got.LocalDateTime.Hour())
	assert.Nil(t, got.DeletedAt)
}

func TestTranslateAsset_BadOwnerID(t *testing.T) {
	assetID, _ := newAssetID()

	_, err := translateAsset(Asset{ID: assetID, OwnerID: "not-a-user-id"})
	assert.Error(t, err)
}

func TestTranslateExif(t *testing.T) {
	assetID, wantID := newAssetID()

	got, err := translateExif(Asset{
		ID: assetID,
		Exif: &Exif{
			Make:               strPtr("Canon"),
			ExifImageWidth:     intPtr(4032),
			TimeZoneOffsetMins: intPtr(330),
			ExposureTime:       f64Ptr(0.008),
			ISO:                intPtr(200),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, wantID, got.AssetID)
	assert.Equal(t, "Canon", *got.Make)
	assert.Equal(t, 4032, *got.ExifImageWidth)
	assert.Equal(t, "UTC+5:30", *got.TimeZone)
	assert.Equal(t, "1/125", *got.ExposureTime)
}

func TestTranslateExif_NoMetadata(t *testing.T) {
	assetID, wantID := newAssetID()

	got, err := translateExif(Asset{ID: assetID})
	require.NoError(t, err)

	assert.Equal(t, wantID, got.AssetID)
	assert.Nil(t, got.Make)
	assert.Nil(t, got.ExposureTime)
}

func TestTranslateFace_BoundingBoxCorners(t *testing.T) {
	faceU := uuid.New()
	assetID, _ := newAssetID()
	personID := ids.ToPersonID(uuid.New())

	got, err := translateFace(Face{
		ID:           ids.ToUpstream(faceU, ids.PrefixFace),
		AssetID:      assetID,
		PersonID:     &personID,
		ImageWidth:   4032,
		ImageHeight:  3024,
		BoundingBoxX: 100,
		BoundingBoxY: 200,
		BoundingBoxW: 50,
		BoundingBoxH: 80,
	})
	require.NoError(t, err)

	assert.Equal(t, 100, got.BoundingBoxX1)
	assert.Equal(t, 200, got.BoundingBoxY1)
	assert.Equal(t, 150, got.BoundingBoxX2)
	assert.Equal(t, 280, got.BoundingBoxY2)
	assert.Equal(t, "machine-learning", got.SourceType)
	assert.NotNil(t, got.PersonID)
}

func TestTranslateDelete(t *testing.T) {
	log := slog.Default()
	assetID, wantID := newAssetID()

	rec, ok, err := translateDelete(log, Event{
		ID:         "evt_7",
		EventType:  "asset_deleted",
		EntityType: "asset",
		EntityID:   assetID,
	})
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, EntityAssetDeleteV1, rec.Type)
	assert.Equal(t, "AssetDeleteV1|evt_7|", rec.Ack)
	assert.Equal(t, AssetDeleteV1{AssetID: wantID}, rec.Data)
}

func TestTranslateDelete_EntityTypeMismatch(t *testing.T) {
	log := slog.Default()
	assetID, _ := newAssetID()

	// event_type says asset but entity_type says album: skip
	_, ok, err := translateDelete(log, Event{
		ID:         "evt_8",
		EventType:  "asset_deleted",
		EntityType: "album",
		EntityID:   assetID,
	})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTranslateUpsert_MissingEntitySkipped(t *testing.T) {
	log := slog.Default()
	assetID, _ := newAssetID()

	m := syncTypeOrder[0] // assets
	_, ok, err := translateUpsert(log, m, Event{
		ID:         "evt_9",
		EventType:  "asset_updated",
		EntityType: "asset",
		EntityID:   assetID,
	}, map[string]any{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTranslateUpsert_Asset(t *testing.T) {
	log := slog.Default()
	assetID, wantID := newAssetID()
	ownerID := ids.ToUpstream(uuid.New(), ids.PrefixUser)

	m := syncTypeOrder[0]
	rec, ok, err := translateUpsert(log, m, Event{
		ID:         "evt_10",
		EventType:  "asset_created",
		EntityType: "asset",
		EntityID:   assetID,
	}, map[string]any{
		assetID: Asset{ID: assetID, OwnerID: ownerID, Type: "video"},
	})
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, EntityAssetV1, rec.Type)
	assert.Equal(t, "AssetV1|evt_10|", rec.Ack)
	data := rec.Data.(AssetV1)
	assert.Equal(t, wantID, data.ID)
	assert.Equal(t, "VIDEO", data.Type)
}
