package client

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Mirror is the local replica of the synced library. Each entity type
// lands in its own table as the raw wire payload plus the keys needed
// to apply deletes and album links.
type Mirror struct {
	db *sql.DB
}

func NewMirror(path string) (*Mirror, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open mirror database: %w", err)
	}

	m := &Mirror{db: db}
	if err := m.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init mirror tables: %w", err)
	}
	return m, nil
}

func (m *Mirror) initTables() error {
	_, err := m.db.Exec(`
		CREATE TABLE IF NOT EXISTS assets (
			id TEXT PRIMARY KEY,
			data TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS asset_exif (
			asset_id TEXT PRIMARY KEY,
			data TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS albums (
			id TEXT PRIMARY KEY,
			data TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS album_assets (
			album_id TEXT NOT NULL,
			asset_id TEXT NOT NULL,
			PRIMARY KEY (album_id, asset_id)
		);
		CREATE TABLE IF NOT EXISTS people (
			id TEXT PRIMARY KEY,
			data TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS faces (
			id TEXT PRIMARY KEY,
			data TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			data TEXT NOT NULL
		);
	`)
	return err
}

// Apply folds one stream record into the mirror. Unknown record types
// are ignored so newer servers stay compatible.
func (m *Mirror) Apply(rec StreamRecord) error {
	switch rec.Type {
	case "AssetV1":
		return m.upsert("assets", "id", rec.Data)
	case "AssetDeleteV1":
		return m.deleteByKey("assets", "id", rec.Data, "assetId")
	case "AssetExifV1":
		return m.upsertKeyed("asset_exif", "asset_id", rec.Data, "assetId")
	case "AlbumV1":
		return m.upsert("albums", "id", rec.Data)
	case "AlbumDeleteV1":
		return m.deleteByKey("albums", "id", rec.Data, "albumId")
	case "AlbumToAssetV1":
		return m.applyAlbumAsset(rec.Data)
	case "PersonV1":
		return m.upsert("people", "id", rec.Data)
	case "PersonDeleteV1":
		return m.deleteByKey("people", "id", rec.Data, "personId")
	case "AssetFaceV1":
		return m.upsert("faces", "id", rec.Data)
	case "AssetFaceDeleteV1":
		return m.deleteByKey("faces", "id", rec.Data, "faceId")
	case "UserV1", "AuthUserV1":
		return m.upsert("users", "id", rec.Data)
	default:
		return nil
	}
}

// Reset wipes the mirror. Used when the server orders a full resync.
func (m *Mirror) Reset() error {
	_, err := m.db.Exec(`
		DELETE FROM assets;
		DELETE FROM asset_exif;
		DELETE FROM albums;
		DELETE FROM album_assets;
		DELETE FROM people;
		DELETE FROM faces;
		DELETE FROM users;
	`)
	if err != nil {
		return fmt.Errorf("reset mirror: %w", err)
	}
	return nil
}

// Counts reports rows per table, for status output.
func (m *Mirror) Counts() (map[string]int, error) {
	tables := []string{"assets", "asset_exif", "albums", "album_assets", "people", "faces", "users"}
	out := make(map[string]int, len(tables))
	for _, table := range tables {
		var count int
		if err := m.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		out[table] = count
	}
	return out, nil
}

func (m *Mirror) Close() error {
	return m.db.Close()
}

func (m *Mirror) upsert(table, keyColumn string, data json.RawMessage) error {
	return m.upsertKeyed(table, keyColumn, data, "id")
}

func (m *Mirror) upsertKeyed(table, keyColumn string, data json.RawMessage, keyField string) error {
	key, err := extractKey(data, keyField)
	if err != nil {
		return err
	}
	_, err = m.db.Exec(
		fmt.Sprintf(`INSERT INTO %s (%s, data) VALUES (?, ?)
		             ON CONFLICT (%s) DO UPDATE SET data = excluded.data`,
			table, keyColumn, keyColumn),
		key, string(data))
	if err != nil {
		return fmt.Errorf("upsert into %s: %w", table, err)
	}
	return nil
}

func (m *Mirror) deleteByKey(table, keyColumn string, data json.RawMessage, keyField string) error {
	key, err := extractKey(data, keyField)
	if err != nil {
		return err
	}
	if _, err := m.db.Exec(
		fmt.Sprintf("DELETE FROM %s WHERE %s = ?", table, keyColumn), key); err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	// Deleting an asset also drops its exif and album links
	if table == "assets" {
		if _, err := m.db.Exec("DELETE FROM asset_exif WHERE asset_id = ?", key); err != nil {
			return fmt.Errorf("delete exif: %w", err)
		}
		if _, err := m.db.Exec("DELETE FROM album_assets WHERE asset_id = ?", key); err != nil {
			return fmt.Errorf("delete album links: %w", err)
		}
	}
	if table == "albums" {
		if _, err := m.db.Exec("DELETE FROM album_assets WHERE album_id = ?", key); err != nil {
			return fmt.Errorf("delete album links: %w", err)
		}
	}
	return nil
}

func (m *Mirror) applyAlbumAsset(data json.RawMessage) error {
	var link struct {
		AlbumID string `json:"albumId"`
		AssetID string `json:"assetId"`
	}
	if err := json.Unmarshal(data, &link); err != nil {
		return fmt.Errorf("decode album link: %w", err)
	}
	_, err := m.db.Exec(
		`INSERT OR IGNORE INTO album_assets (album_id, asset_id) VALUES (?, ?)`,
		link.AlbumID, link.AssetID)
	if err != nil {
		return fmt.Errorf("upsert album link: %w", err)
	}
	return nil
}

func extractKey(data json.RawMessage, field string) (string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return "", fmt.Errorf("decode record data: %w", err)
	}
	raw, ok := fields[field]
	if !ok {
		return "", fmt.Errorf("record data missing %q", field)
	}
	var key string
	if err := json.Unmarshal(raw, &key); err != nil {
		return "", fmt.Errorf("decode record key: %w", err)
	}
	return key, nil
}
