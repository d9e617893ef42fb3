package client

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMirror(t *testing.T) *Mirror {
	t.Helper()
	m, err := NewMirror(filepath.Join(t.TempDir(), "mirror.db"))
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func rec(recType, data string) StreamRecord {
	return StreamRecord{Type: recType, Data: json.RawMessage(data)}
}

func TestMirrorApply_Upsert(t *testing.T) {
	m := newTestMirror(t)

	require.NoError(t, m.Apply(rec("AssetV1", `{"id":"a1","originalFileName":"one.jpg"}`)))
	require.NoError(t, m.Apply(rec("AssetV1", `{"id":"a1","originalFileName":"renamed.jpg"}`)))
	require.NoError(t, m.Apply(rec("AssetV1", `{"id":"a2","originalFileName":"two.jpg"}`)))

	counts, err := m.Counts()
	require.NoError(t, err)
	assert.Equal(t, 2, counts["assets"])
}

func TestMirrorApply_AssetDeleteCascades(t *testing.T) {
	m := newTestMirror(t)

	require.NoError(t, m.Apply(rec("AssetV1", `{"id":"a1"}`)))
	require.NoError(t, m.Apply(rec("AssetExifV1", `{"assetId":"a1","make":"Canon"}`)))
	require.NoError(t, m.Apply(rec("AlbumV1", `{"id":"b1"}`)))
	require.NoError(t, m.Apply(rec("AlbumToAssetV1", `{"albumId":"b1","assetId":"a1"}`)))

	require.NoError(t, m.Apply(rec("AssetDeleteV1", `{"assetId":"a1"}`)))

	counts, err := m.Counts()
	require.NoError(t, err)
	assert.Zero(t, counts["assets"])
	assert.Zero(t, counts["asset_exif"])
	assert.Zero(t, counts["album_assets"])
	assert.Equal(t, 1, counts["albums"])
}

func TestMirrorApply_AlbumDeleteDropsLinks(t *testing.T) {
	m := newTestMirror(t)

	require.NoError(t, m.Apply(rec("AssetV1", `{"id":"a1"}`)))
	require.NoError(t, m.Apply(rec("AlbumV1", `{"id":"b1"}`)))
	require.NoError(t, m.Apply(rec("AlbumToAssetV1", `{"albumId":"b1","assetId":"a1"}`)))

	require.NoError(t, m.Apply(rec("AlbumDeleteV1", `{"albumId":"b1"}`)))

	counts, err := m.Counts()
	require.NoError(t, err)
	assert.Zero(t, counts["albums"])
	assert.Zero(t, counts["album_assets"])
	assert.Equal(t, 1, counts["assets"])
}

func TestMirrorApply_DuplicateAlbumLink(t *testing.T) {
	m := newTestMirror(t)

	require.NoError(t, m.Apply(rec("AlbumToAssetV1", `{"albumId":"b1","assetId":"a1"}`)))
	require.NoError(t, m.Apply(rec("AlbumToAssetV1", `{"albumId":"b1","assetId":"a1"}`)))

	counts, err := m.Counts()
	require.NoError(t, err)
	assert.Equal(t, 1, counts["album_assets"])
}

func TestMirrorApply_UnknownTypeIgnored(t *testing.T) {
	m := newTestMirror(t)

	assert.NoError(t, m.Apply(rec("FutureThingV1", `{"id":"x"}`)))
}

func TestMirrorApply_MissingKey(t *testing.T) {
	m := newTestMirror(t)

	assert.Error(t, m.Apply(rec("AssetV1", `{"name":"no id"}`)))
	assert.Error(t, m.Apply(rec("AssetV1", `not json`)))
}

func TestMirrorReset(t *testing.T) {
	m := newTestMirror(t)

	require.NoError(t, m.Apply(rec("AssetV1", `{"id":"a1"}`)))
	require.NoError(t, m.Apply(rec("PersonV1", `{"id":"p1"}`)))
	require.NoError(t, m.Apply(rec("UserV1", `{"id":"u1"}`)))

	require.NoError(t, m.Reset())

	counts, err := m.Counts()
	require.NoError(t, err)
	for table, count := range counts {
		assert.Zero(t, count, table)
	}
}
