package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"photobridge/internal/domain/checkpoint"
	"photobridge/internal/utils/ids"
)

type MockUpstream struct {
	mock.Mock
}

func (m *MockUpstream) Events(ctx context.Context, entityType string, limit int, before time.Time, afterCursor string) (EventPage, error) {
	args := m.Called(ctx, entityType, limit, before, afterCursor)
	return args.Get(0).(EventPage), args.Error(1)
}

func (m *MockUpstream) Assets(ctx context.Context, ids []string) ([]Asset, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]Asset), args.Error(1)
}

func (m *MockUpstream) Albums(ctx context.Context, ids []string) ([]Album, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]Album), args.Error(1)
}

func (m *MockUpstream) AlbumAssets(ctx context.Context, ids []string) ([]AlbumAsset, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]AlbumAsset), args.Error(1)
}

func (m *MockUpstream) People(ctx context.Context, ids []string) ([]Person, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]Person), args.Error(1)
}

func (m *MockUpstream) Faces(ctx context.Context, ids []string) ([]Face, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]Face), args.Error(1)
}

func (m *MockUpstream) Me(ctx context.Context) (User, error) {
	args := m.Called(ctx)
	return args.Get(0).(User), args.Error(1)
}

type MockCheckpoints struct {
	mock.Mock
}

func (m *MockCheckpoints) GetAll(ctx context.Context, sessionID string) ([]checkpoint.Checkpoint, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).([]checkpoint.Checkpoint), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func drain(t *testing.T, s *Stream) []Record {
	t.Helper()
	var out []Record
	for {
		rec, ok := s.Next(context.Background())
		if !ok {
			return out
		}
		out = append(out, rec)
		require.Less(t, len(out), 10000, "stream did not terminate")
	}
}

func emptyPage() EventPage {
	return EventPage{Data: []Event{}, HasMore: false}
}

func TestEngineOpen_PendingReset(t *testing.T) {
	up := new(MockUpstream)
	cps := new(MockCheckpoints)
	eng := NewEngine(up, cps, testLogger())

	s, err := eng.Open(context.Background(), "sess-1", true, []RequestType{RequestAssetsV1, RequestAlbumsV1})
	require.NoError(t, err)

	recs := drain(t, s)
	require.Len(t, recs, 1)
	assert.Equal(t, EntitySyncResetV1, recs[0].Type)
	assert.Equal(t, "SyncResetV1|reset|", recs[0].Ack)

	// a pending reset never touches checkpoints or the upstream
	cps.AssertNotCalled(t, "GetAll", mock.Anything, mock.Anything)
	up.AssertExpectations(t)
}

func TestStream_AssetUpsert(t *testing.T) {
	assetID := ids.ToAssetID(uuid.New())
	ownerID := ids.ToUpstream(uuid.New(), ids.PrefixUser)

	up := new(MockUpstream)
	up.On("Events", mock.Anything, upstreamAsset, eventsPageSize, mock.Anything, "").
		Return(EventPage{Data: []Event{
			{ID: "evt_1", EventType: "asset_created", EntityType: upstreamAsset, EntityID: assetID},
		}}, nil)
	up.On("Assets", mock.Anything, []string{assetID}).
		Return([]Asset{{ID: assetID, OwnerID: ownerID}}, nil)

	cps := new(MockCheckpoints)
	cps.On("GetAll", mock.Anything, "sess-1").Return([]checkpoint.Checkpoint{}, nil)

	eng := NewEngine(up, cps, testLogger())
	s, err := eng.Open(context.Background(), "sess-1", false, []RequestType{RequestAssetsV1})
	require.NoError(t, err)

	recs := drain(t, s)
	require.Len(t, recs, 2)
	assert.Equal(t, EntityAssetV1, recs[0].Type)
	assert.Equal(t, "AssetV1|evt_1|", recs[0].Ack)
	assert.Equal(t, EntitySyncCompleteV1, recs[1].Type)
	assert.Equal(t, "SyncCompleteV1||", recs[1].Ack)
	up.AssertExpectations(t)
}

func TestStream_TypeOrdering(t *testing.T) {
	assetID := ids.ToAssetID(uuid.New())
	faceID := ids.ToUpstream(uuid.New(), ids.PrefixFace)
	ownerID := ids.ToUpstream(uuid.New(), ids.PrefixUser)

	up := new(MockUpstream)
	up.On("Events", mock.Anything, upstreamAsset, eventsPageSize, mock.Anything, "").
		Return(EventPage{Data: []Event{
			{ID: "evt_1", EventType: "asset_created", EntityType: upstreamAsset, EntityID: assetID},
		}}, nil)
	up.On("Assets", mock.Anything, []string{assetID}).
		Return([]Asset{{ID: assetID, OwnerID: ownerID}}, nil)
	up.On("Events", mock.Anything, upstreamFace, eventsPageSize, mock.Anything, "").
		Return(EventPage{Data: []Event{
			{ID: "evt_2", EventType: "face_created", EntityType: upstreamFace, EntityID: faceID},
		}}, nil)
	up.On("Faces", mock.Anything, []string{faceID}).
		Return([]Face{{ID: faceID, AssetID: assetID}}, nil)

	cps := new(MockCheckpoints)
	cps.On("GetAll", mock.Anything, "sess-1").Return([]checkpoint.Checkpoint{}, nil)

	eng := NewEngine(up, cps, testLogger())

	// request order is irrelevant: assets always stream before the
	// faces that reference them
	s, err := eng.Open(context.Background(), "sess-1", false,
		[]RequestType{RequestAssetFacesV1, RequestAssetsV1})
	require.NoError(t, err)

	recs := drain(t, s)
	require.Len(t, recs, 3)
	assert.Equal(t, EntityAssetV1, recs[0].Type)
	assert.Equal(t, EntityAssetFaceV1, recs[1].Type)
	assert.Equal(t, EntitySyncCompleteV1, recs[2].Type)
}

func TestStream_DependencyOrderingAcrossTypes(t *testing.T) {
	ownerID := ids.ToUpstream(uuid.New(), ids.PrefixUser)
	albumID := ids.ToAlbumID(uuid.New())

	assetIDs := make([]string, 4)
	assetEvents := make([]Event, 4)
	assets := make([]Asset, 4)
	for i := range assetIDs {
		assetIDs[i] = ids.ToAssetID(uuid.New())
		assetEvents[i] = Event{
			ID:         fmt.Sprintf("evt_a%d", i+1),
			EventType:  "asset_created",
			EntityType: upstreamAsset,
			EntityID:   assetIDs[i],
		}
		assets[i] = Asset{ID: assetIDs[i], OwnerID: ownerID}
	}

	linkIDs := make([]string, 4)
	linkEvents := make([]Event, 4)
	links := make([]AlbumAsset, 4)
	for i := range linkIDs {
		linkIDs[i] = fmt.Sprintf("link_%d", i+1)
		linkEvents[i] = Event{
			ID:         fmt.Sprintf("evt_l%d", i+1),
			EventType:  "album_asset_added",
			EntityType: upstreamAlbumAsset,
			EntityID:   linkIDs[i],
		}
		links[i] = AlbumAsset{ID: linkIDs[i], AlbumID: albumID, AssetID: assetIDs[i]}
	}

	faceIDs := make([]string, 2)
	faceEvents := make([]Event, 2)
	faces := make([]Face, 2)
	for i := range faceIDs {
		faceIDs[i] = ids.ToUpstream(uuid.New(), ids.PrefixFace)
		faceEvents[i] = Event{
			ID:         fmt.Sprintf("evt_f%d", i+1),
			EventType:  "face_created",
			EntityType: upstreamFace,
			EntityID:   faceIDs[i],
		}
		faces[i] = Face{ID: faceIDs[i], AssetID: assetIDs[i]}
	}

	up := new(MockUpstream)
	up.On("Events", mock.Anything, upstreamAsset, eventsPageSize, mock.Anything, "").
		Return(EventPage{Data: assetEvents}, nil)
	up.On("Assets", mock.Anything, assetIDs).Return(assets, nil)
	up.On("Events", mock.Anything, upstreamAlbum, eventsPageSize, mock.Anything, "").
		Return(EventPage{Data: []Event{
			{ID: "evt_b1", EventType: "album_created", EntityType: upstreamAlbum, EntityID: albumID},
		}}, nil)
	up.On("Albums", mock.Anything, []string{albumID}).
		Return([]Album{{ID: albumID, OwnerID: ownerID}}, nil)
	up.On("Events", mock.Anything, upstreamAlbumAsset, eventsPageSize, mock.Anything, "").
		Return(EventPage{Data: linkEvents}, nil)
	up.On("AlbumAssets", mock.Anything, linkIDs).Return(links, nil)
	up.On("Events", mock.Anything, upstreamFace, eventsPageSize, mock.Anything, "").
		Return(EventPage{Data: faceEvents}, nil)
	up.On("Faces", mock.Anything, faceIDs).Return(faces, nil)

	cps := new(MockCheckpoints)
	cps.On("GetAll", mock.Anything, "sess-1").Return([]checkpoint.Checkpoint{}, nil)

	eng := NewEngine(up, cps, testLogger())

	// scrambled request order: every referenced entity still streams
	// before its referrer
	s, err := eng.Open(context.Background(), "sess-1", false, []RequestType{
		RequestAssetFacesV1, RequestAlbumToAssetsV1, RequestAssetsV1, RequestAlbumsV1,
	})
	require.NoError(t, err)

	recs := drain(t, s)
	require.Len(t, recs, 12)
	wantTypes := []EntityType{
		EntityAssetV1, EntityAssetV1, EntityAssetV1, EntityAssetV1,
		EntityAlbumV1,
		EntityAlbumToAssetV1, EntityAlbumToAssetV1, EntityAlbumToAssetV1, EntityAlbumToAssetV1,
		EntityAssetFaceV1, EntityAssetFaceV1,
		EntitySyncCompleteV1,
	}
	for i, want := range wantTypes {
		assert.Equal(t, want, recs[i].Type, "record %d", i)
	}
	up.AssertExpectations(t)
}

func TestStream_ResumesFromFurthestCheckpoint(t *testing.T) {
	up := new(MockUpstream)
	// the delete checkpoint is ahead of the upsert checkpoint; paging
	// resumes from the furthest of the two
	up.On("Events", mock.Anything, upstreamAsset, eventsPageSize, mock.Anything, "evt_9").
		Return(emptyPage(), nil)

	cps := new(MockCheckpoints)
	cps.On("GetAll", mock.Anything, "sess-1").Return([]checkpoint.Checkpoint{
		{SessionID: "sess-1", EntityType: "AssetV1", Cursor: "evt_5"},
		{SessionID: "sess-1", EntityType: "AssetDeleteV1", Cursor: "evt_9"},
	}, nil)

	eng := NewEngine(up, cps, testLogger())
	s, err := eng.Open(context.Background(), "sess-1", false, []RequestType{RequestAssetsV1})
	require.NoError(t, err)

	recs := drain(t, s)
	require.Len(t, recs, 1)
	assert.Equal(t, EntitySyncCompleteV1, recs[0].Type)
	up.AssertExpectations(t)
}

func TestStream_Pagination(t *testing.T) {
	assetA := ids.ToAssetID(uuid.New())
	assetB := ids.ToAssetID(uuid.New())
	ownerID := ids.ToUpstream(uuid.New(), ids.PrefixUser)

	up := new(MockUpstream)
	up.On("Events", mock.Anything, upstreamAsset, eventsPageSize, mock.Anything, "").
		Return(EventPage{Data: []Event{
			{ID: "evt_1", EventType: "asset_created", EntityType: upstreamAsset, EntityID: assetA},
		}, HasMore: true}, nil)
	up.On("Events", mock.Anything, upstreamAsset, eventsPageSize, mock.Anything, "evt_1").
		Return(EventPage{Data: []Event{
			{ID: "evt_2", EventType: "asset_created", EntityType: upstreamAsset, EntityID: assetB},
		}}, nil)
	up.On("Assets", mock.Anything, []string{assetA}).
		Return([]Asset{{ID: assetA, OwnerID: ownerID}}, nil)
	up.On("Assets", mock.Anything, []string{assetB}).
		Return([]Asset{{ID: assetB, OwnerID: ownerID}}, nil)

	cps := new(MockCheckpoints)
	cps.On("GetAll", mock.Anything, "sess-1").Return([]checkpoint.Checkpoint{}, nil)

	eng := NewEngine(up, cps, testLogger())
	s, err := eng.Open(context.Background(), "sess-1", false, []RequestType{RequestAssetsV1})
	require.NoError(t, err)

	recs := drain(t, s)
	require.Len(t, recs, 3)
	assert.Equal(t, "AssetV1|evt_1|", recs[0].Ack)
	assert.Equal(t, "AssetV1|evt_2|", recs[1].Ack)
	assert.Equal(t, EntitySyncCompleteV1, recs[2].Type)
	up.AssertExpectations(t)
}

func TestStream_EmptyPageClaimingMore(t *testing.T) {
	up := new(MockUpstream)
	// an upstream returning an empty page while still flagging more
	// data ends the feed; re-polling the same cursor would spin forever
	up.On("Events", mock.Anything, upstreamAsset, eventsPageSize, mock.Anything, "").
		Return(EventPage{Data: []Event{}, HasMore: true}, nil).Once()

	cps := new(MockCheckpoints)
	cps.On("GetAll", mock.Anything, "sess-1").Return([]checkpoint.Checkpoint{}, nil)

	eng := NewEngine(up, cps, testLogger())
	s, err := eng.Open(context.Background(), "sess-1", false, []RequestType{RequestAssetsV1})
	require.NoError(t, err)

	recs := drain(t, s)
	require.Len(t, recs, 1)
	assert.Equal(t, EntitySyncCompleteV1, recs[0].Type)
	up.AssertNumberOfCalls(t, "Events", 1)
}

func TestStream_DeleteEvent(t *testing.T) {
	assetID := ids.ToAssetID(uuid.New())

	up := new(MockUpstream)
	up.On("Events", mock.Anything, upstreamAsset, eventsPageSize, mock.Anything, "").
		Return(EventPage{Data: []Event{
			{ID: "evt_3", EventType: "asset_deleted", EntityType: upstreamAsset, EntityID: assetID},
		}}, nil)

	cps := new(MockCheckpoints)
	cps.On("GetAll", mock.Anything, "sess-1").Return([]checkpoint.Checkpoint{}, nil)

	eng := NewEngine(up, cps, testLogger())
	s, err := eng.Open(context.Background(), "sess-1", false, []RequestType{RequestAssetsV1})
	require.NoError(t, err)

	recs := drain(t, s)
	require.Len(t, recs, 2)
	assert.Equal(t, EntityAssetDeleteV1, recs[0].Type)
	assert.Equal(t, "AssetDeleteV1|evt_3|", recs[0].Ack)

	// delete events never trigger an entity fetch
	up.AssertNotCalled(t, "Assets", mock.Anything, mock.Anything)
}

func TestStream_SkippedEventsEmitNothing(t *testing.T) {
	up := new(MockUpstream)
	up.On("Events", mock.Anything, upstreamAlbumAsset, eventsPageSize, mock.Anything, "").
		Return(EventPage{Data: []Event{
			{ID: "evt_4", EventType: "album_asset_removed", EntityType: upstreamAlbumAsset, EntityID: "link_1"},
		}}, nil)

	cps := new(MockCheckpoints)
	cps.On("GetAll", mock.Anything, "sess-1").Return([]checkpoint.Checkpoint{}, nil)

	eng := NewEngine(up, cps, testLogger())
	s, err := eng.Open(context.Background(), "sess-1", false, []RequestType{RequestAlbumToAssetsV1})
	require.NoError(t, err)

	recs := drain(t, s)
	require.Len(t, recs, 1)
	assert.Equal(t, EntitySyncCompleteV1, recs[0].Type)
	up.AssertNotCalled(t, "AlbumAssets", mock.Anything, mock.Anything)
}

func TestStream_UpstreamError(t *testing.T) {
	up := new(MockUpstream)
	up.On("Events", mock.Anything, upstreamAsset, eventsPageSize, mock.Anything, "").
		Return(EventPage{}, errors.New("upstream unavailable"))

	cps := new(MockCheckpoints)
	cps.On("GetAll", mock.Anything, "sess-1").Return([]checkpoint.Checkpoint{}, nil)

	eng := NewEngine(up, cps, testLogger())
	s, err := eng.Open(context.Background(), "sess-1", false, []RequestType{RequestAssetsV1})
	require.NoError(t, err)

	// the stream surfaces the failure as an error record but still
	// terminates with a completion marker
	recs := drain(t, s)
	require.Len(t, recs, 2)
	assert.Equal(t, EntityType("Error"), recs[0].Type)
	assert.NotEmpty(t, recs[0].Ack)
	assert.Equal(t, EntitySyncCompleteV1, recs[1].Type)
}

func TestStream_UserRecords(t *testing.T) {
	userUUID := uuid.New()
	userID := ids.ToUpstream(userUUID, ids.PrefixUser)
	updated := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	me := User{ID: userID, Email: "u@example.com", Name: "U", UpdatedAt: &updated}
	cursor := updated.Format(time.RFC3339Nano)

	t.Run("emits when cursor changed", func(t *testing.T) {
		up := new(MockUpstream)
		up.On("Me", mock.Anything).Return(me, nil)

		cps := new(MockCheckpoints)
		cps.On("GetAll", mock.Anything, "sess-1").Return([]checkpoint.Checkpoint{}, nil)

		eng := NewEngine(up, cps, testLogger())
		s, err := eng.Open(context.Background(), "sess-1", false,
			[]RequestType{RequestUsersV1, RequestAuthUsersV1})
		require.NoError(t, err)

		// the auth record streams ahead of the plain user record
		recs := drain(t, s)
		require.Len(t, recs, 3)
		assert.Equal(t, EntityAuthUserV1, recs[0].Type)
		assert.Equal(t, "AuthUserV1|"+cursor+"|", recs[0].Ack)
		assert.Equal(t, EntityUserV1, recs[1].Type)
		assert.Equal(t, "UserV1|"+cursor+"|", recs[1].Ack)
		assert.Equal(t, EntitySyncCompleteV1, recs[2].Type)

		data := recs[1].Data.(UserV1)
		assert.Equal(t, userUUID, data.ID)
	})

	t.Run("silent when cursor unchanged", func(t *testing.T) {
		up := new(MockUpstream)
		up.On("Me", mock.Anything).Return(me, nil)

		cps := new(MockCheckpoints)
		cps.On("GetAll", mock.Anything, "sess-1").Return([]checkpoint.Checkpoint{
			{SessionID: "sess-1", EntityType: "UserV1", Cursor: cursor},
			{SessionID: "sess-1", EntityType: "AuthUserV1", Cursor: cursor},
		}, nil)

		eng := NewEngine(up, cps, testLogger())
		s, err := eng.Open(context.Background(), "sess-1", false,
			[]RequestType{RequestUsersV1, RequestAuthUsersV1})
		require.NoError(t, err)

		recs := drain(t, s)
		require.Len(t, recs, 1)
		assert.Equal(t, EntitySyncCompleteV1, recs[0].Type)
	})

	t.Run("skips lookup when not requested", func(t *testing.T) {
		up := new(MockUpstream)
		up.On("Events", mock.Anything, upstreamAsset, eventsPageSize, mock.Anything, "").
			Return(emptyPage(), nil)

		cps := new(MockCheckpoints)
		cps.On("GetAll", mock.Anything, "sess-1").Return([]checkpoint.Checkpoint{}, nil)

		eng := NewEngine(up, cps, testLogger())
		s, err := eng.Open(context.Background(), "sess-1", false, []RequestType{RequestAssetsV1})
		require.NoError(t, err)

		drain(t, s)
		up.AssertNotCalled(t, "Me", mock.Anything)
	})
}

func TestStream_CheckpointLoadError(t *testing.T) {
	up := new(MockUpstream)
	cps := new(MockCheckpoints)
	cps.On("GetAll", mock.Anything, "sess-1").
		Return([]checkpoint.Checkpoint{}, errors.New("database down"))

	eng := NewEngine(up, cps, testLogger())
	_, err := eng.Open(context.Background(), "sess-1", false, []RequestType{RequestAssetsV1})
	assert.Error(t, err)
}
