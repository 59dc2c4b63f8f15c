package dem

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/paulmach/orb"
	"github.com/planetlabs/go-stac"

	"github.com/rkm/insar-pipeline/internal/provider"
)

// collection binds a STAC collection id to its grid spacing. The resolution
// token appears in tile identifiers; the resample factor is what the mosaic
// applies to reach the primary grid.
type collection struct {
	ID             string
	ResToken       int
	ResampleFactor int
}

// Store queries a STAC catalogue for Copernicus DSM tiles.
type Store struct {
	baseURL  string
	fetcher  *provider.Fetcher
	primary  collection
	fallback collection
}

// NewStore builds a Store over the catalogue at baseURL. primaryID names
// the GLO-30 collection and fallbackID the GLO-90 collection.
func NewStore(baseURL string, fetcher *provider.Fetcher, primaryID, fallbackID string) *Store {
	return &Store{
		baseURL:  baseURL,
		fetcher:  fetcher,
		primary:  collection{ID: primaryID, ResToken: 10, ResampleFactor: 1},
		fallback: collection{ID: fallbackID, ResToken: 30, ResampleFactor: 3},
	}
}

type searchResponse struct {
	Features []*stac.Item `json:"features"`
}

// search runs an item search over one collection and indexes the results by
// their geographic token (e.g. "N34_00_W119_00"). Bounds continuing past
// the antimeridian are split into two catalogue queries.
func (s *Store) search(ctx context.Context, coll collection, b orb.Bound) (map[string]*stac.Item, error) {
	boxes := [][4]float64{{b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat()}}
	if b.Max.Lon() > 180 {
		boxes = [][4]float64{
			{b.Min.Lon(), b.Min.Lat(), 180, b.Max.Lat()},
			{-180, b.Min.Lat(), b.Max.Lon() - 360, b.Max.Lat()},
		}
	}

	items := make(map[string]*stac.Item)
	for _, box := range boxes {
		q := url.Values{}
		q.Set("collections", coll.ID)
		q.Set("bbox", fmt.Sprintf("%g,%g,%g,%g", box[0], box[1], box[2], box[3]))
		q.Set("limit", "500")

		body, err := s.fetcher.Get(ctx, s.baseURL+"/search?"+q.Encode())
		if err != nil {
			return nil, fmt.Errorf("stac search %s: %w", coll.ID, err)
		}
		var resp searchResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("stac search %s: decoding response: %w", coll.ID, err)
		}
		for _, item := range resp.Features {
			if token, ok := itemToken(item.Id); ok {
				items[token] = item
			}
		}
	}
	return items, nil
}

// itemToken extracts the "N34_00_W119_00" part of a tile identifier.
func itemToken(id string) (string, bool) {
	parts := strings.Split(id, "_")
	if len(parts) < 8 {
		return "", false
	}
	return strings.Join(parts[4:8], "_"), true
}

// assetHref picks the downloadable asset of a tile item, preferring the
// conventional "data" key.
func assetHref(item *stac.Item) string {
	if a, ok := item.Assets["data"]; ok && a != nil {
		return a.Href
	}
	for _, a := range item.Assets {
		if a != nil && a.Href != "" {
			return a.Href
		}
	}
	return ""
}
