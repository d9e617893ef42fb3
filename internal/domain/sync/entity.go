package sync

// EntityType is a wire record type in the client sync protocol.
type EntityType string

const (
	EntityAssetV1           EntityType = "AssetV1"
	EntityAssetDeleteV1     EntityType = "AssetDeleteV1"
	EntityAlbumV1           EntityType = "AlbumV1"
	EntityAlbumDeleteV1     EntityType = "AlbumDeleteV1"
	EntityAlbumToAssetV1    EntityType = "AlbumToAssetV1"
	EntityAssetExifV1       EntityType = "AssetExifV1"
	EntityPersonV1          EntityType = "PersonV1"
	EntityPersonDeleteV1    EntityType = "PersonDeleteV1"
	EntityAssetFaceV1       EntityType = "AssetFaceV1"
	EntityAssetFaceDeleteV1 EntityType = "AssetFaceDeleteV1"
	EntityUserV1            EntityType = "UserV1"
	EntityAuthUserV1        EntityType = "AuthUserV1"
	EntitySyncCompleteV1    EntityType = "SyncCompleteV1"
	EntitySyncResetV1       EntityType = "SyncResetV1"
)

var knownEntityTypes = map[EntityType]struct{}{
	EntityAssetV1:           {},
	EntityAssetDeleteV1:     {},
	EntityAlbumV1:           {},
	EntityAlbumDeleteV1:     {},
	EntityAlbumToAssetV1:    {},
	EntityAssetExifV1:       {},
	EntityPersonV1:          {},
	EntityPersonDeleteV1:    {},
	EntityAssetFaceV1:       {},
	EntityAssetFaceDeleteV1: {},
	EntityUserV1:            {},
	EntityAuthUserV1:        {},
	EntitySyncCompleteV1:    {},
	EntitySyncResetV1:       {},
}

// ParseEntityType validates a wire entity type name.
func ParseEntityType(s string) (EntityType, bool) {
	et := EntityType(s)
	_, ok := knownEntityTypes[et]
	return et, ok
}

// RequestType names a group of entity types a client asks to sync.
type RequestType string

const (
	RequestAssetsV1        RequestType = "AssetsV1"
	RequestAlbumsV1        RequestType = "AlbumsV1"
	RequestAlbumToAssetsV1 RequestType = "AlbumToAssetsV1"
	RequestAssetExifsV1    RequestType = "AssetExifsV1"
	RequestPeopleV1        RequestType = "PeopleV1"
	RequestAssetFacesV1    RequestType = "AssetFacesV1"
	RequestUsersV1         RequestType = "UsersV1"
	RequestAuthUsersV1     RequestType = "AuthUsersV1"
)

var knownRequestTypes = map[RequestType]struct{}{
	RequestAssetsV1:        {},
	RequestAlbumsV1:        {},
	RequestAlbumToAssetsV1: {},
	RequestAssetExifsV1:    {},
	RequestPeopleV1:        {},
	RequestAssetFacesV1:    {},
	RequestUsersV1:         {},
	RequestAuthUsersV1:     {},
}

// ParseRequestType validates a request type name.
func ParseRequestType(s string) (RequestType, bool) {
	rt := RequestType(s)
	_, ok := knownRequestTypes[rt]
	return rt, ok
}

// Upstream entity type names used by the event feed and entity store.
const (
	upstreamAsset      = "asset"
	upstreamAlbum      = "album"
	upstreamAlbumAsset = "album_asset"
	upstreamExif       = "exif"
	upstreamPerson     = "person"
	upstreamFace       = "face"
)

type typeMapping struct {
	request  RequestType
	upstream string
	entity   EntityType
}

// syncTypeOrder fixes the priority order for event-sourced types.
// Referenced entities stream before their dependents: assets before
// album links and exif, albums before album links, people before faces.
var syncTypeOrder = []typeMapping{
	{RequestAssetsV1, upstreamAsset, EntityAssetV1},
	{RequestAlbumsV1, upstreamAlbum, EntityAlbumV1},
	{RequestAlbumToAssetsV1, upstreamAlbumAsset, EntityAlbumToAssetV1},
	{RequestAssetExifsV1, upstreamExif, EntityAssetExifV1},
	{RequestPeopleV1, upstreamPerson, EntityPersonV1},
	{RequestAssetFacesV1, upstreamFace, EntityAssetFaceV1},
}

// Delete event types, converted to delete sync records without an
// entity fetch.
const (
	eventAssetDeleted  = "asset_deleted"
	eventAlbumDeleted  = "album_deleted"
	eventPersonDeleted = "person_deleted"
	eventFaceDeleted   = "face_deleted"
)

// deleteEventEntityTypes gives the expected upstream entity_type for
// each delete event_type; mismatches are skipped with a warning.
var deleteEventEntityTypes = map[string]string{
	eventAssetDeleted:  upstreamAsset,
	eventAlbumDeleted:  upstreamAlbum,
	eventPersonDeleted: upstreamPerson,
	eventFaceDeleted:   upstreamFace,
}

// skippedEventTypes are intentionally not converted to sync records.
// The cursor still advances past them.
//
// exif_deleted: the client handles exif removal via asset deletion.
// album_asset_removed: the link record is gone by deletion time, so
// the album and asset IDs can no longer be resolved.
var skippedEventTypes = map[string]struct{}{
	"exif_deleted":        {},
	"album_asset_removed": {},
}

func isDeleteEvent(eventType string) bool {
	_, ok := deleteEventEntityTypes[eventType]
	return ok
}

func isSkippedEvent(eventType string) bool {
	_, ok := skippedEventTypes[eventType]
	return ok
}
