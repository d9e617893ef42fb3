package sync

import (
	"context"
	"fmt"
)

const fetchBatchSize = 100

// dedupe drops repeated IDs while keeping first-seen order.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func chunk(ids []string, size int) [][]string {
	var out [][]string
	for len(ids) > size {
		out = append(out, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}

// fetchEntities resolves entity snapshots for a batch of event IDs,
// keyed by entity ID. Exif rows are keyed by asset ID and carried on
// the asset, so exif lookups go through the asset endpoint and key the
// result by asset ID.
func fetchEntities(ctx context.Context, store EntityStore, upstreamType string, ids []string) (map[string]any, error) {
	ids = dedupe(ids)
	out := make(map[string]any, len(ids))
	for _, batch := range chunk(ids, fetchBatchSize) {
		switch upstreamType {
		case upstreamAsset, upstreamExif:
			assets, err := store.Assets(ctx, batch)
			if err != nil {
				return nil, err
			}
			for _, a := range assets {
				out[a.ID] = a
			}
		case upstreamAlbum:
			albums, err := store.Albums(ctx, batch)
			if err != nil {
				return nil, err
			}
			for _, a := range albums {
				out[a.ID] = a
			}
		case upstreamAlbumAsset:
			links, err := store.AlbumAssets(ctx, batch)
			if err != nil {
				return nil, err
			}
			for _, l := range links {
				out[l.ID] = l
			}
		case upstreamPerson:
			people, err := store.People(ctx, batch)
			if err != nil {
				return nil, err
			}
			for _, p := range people {
				out[p.ID] = p
			}
		case upstreamFace:
			faces, err := store.Faces(ctx, batch)
			if err != nil {
				return nil, err
			}
			for _, f := range faces {
				out[f.ID] = f
			}
		default:
			return nil, fmt.Errorf("unknown upstream entity type %q", upstreamType)
		}
	}
	return out, nil
}
