package dem

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/planetlabs/go-stac"
)

// PlanFileName is the mosaic manifest written into the DEM directory.
const PlanFileName = "mosaic_plan.json"

// Plan describes how staged tiles assemble into the single elevation grid
// the processing engine consumes. Tiles keep the enumeration order of the
// extent, south to north then west to east.
type Plan struct {
	Extent            [4]float64 `json:"extent"`
	EllipsoidalHeight bool       `json:"ellipsoidalHeight"`
	Tiles             []Tile     `json:"tiles"`
}

// Stager resolves and downloads the elevation tiles covering a DEM extent.
type Stager struct {
	store             *Store
	ellipsoidalHeight bool
	logger            *slog.Logger
}

func NewStager(store *Store) *Stager {
	return &Stager{
		store: store,
		// Interferogram geocoding works in ellipsoidal heights; the
		// Copernicus DSM ships geoid heights and is converted downstream.
		ellipsoidalHeight: true,
		logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func (s *Stager) WithLogger(logger *slog.Logger) *Stager {
	s.logger = logger
	return s
}

// Stage enumerates the integer-degree tiles of the extent, resolves each
// against the primary collection with per-tile fallback to the coarser one,
// downloads the tile rasters and writes the mosaic manifest. Tiles missing
// from both collections are kept in the plan as water fill; an extent with
// no resolvable tile at all returns ErrIncompleteCoverage. When dryRun is
// set tiles are resolved and the manifest written, but nothing downloaded.
func (s *Stager) Stage(ctx context.Context, extent orb.Bound, destDir string, dryRun bool) (*Plan, error) {
	primaryItems, err := s.store.search(ctx, s.store.primary, extent)
	if err != nil {
		return nil, err
	}

	// The fallback catalogue is only consulted when the primary has holes.
	var fallbackItems map[string]*stac.Item

	plan := &Plan{
		Extent:            [4]float64{extent.Min.Lon(), extent.Min.Lat(), extent.Max.Lon(), extent.Max.Lat()},
		EllipsoidalHeight: s.ellipsoidalHeight,
	}

	resolved := 0
	for _, c := range corners(extent) {
		lat, lon := c[0], c[1]
		token := tileToken(lat, lon)
		tile := Tile{
			Lat:        lat,
			Lon:        lon,
			ClipWindow: clip(lat, lon, extent),
		}

		switch item, ok := primaryItems[token]; {
		case ok:
			tile.Name = item.Id
			tile.Collection = s.store.primary.ID
			tile.ResampleFactor = s.store.primary.ResampleFactor
			tile.Href = assetHref(item)
		default:
			if fallbackItems == nil {
				fallbackItems, err = s.store.search(ctx, s.store.fallback, extent)
				if err != nil {
					return nil, err
				}
			}
			if item, ok := fallbackItems[token]; ok {
				s.logger.WarnContext(ctx, "tile missing from primary collection, using fallback",
					slog.String("tile", token),
					slog.String("collection", s.store.fallback.ID))
				tile.Name = item.Id
				tile.Collection = s.store.fallback.ID
				tile.ResampleFactor = s.store.fallback.ResampleFactor
				tile.Href = assetHref(item)
			} else {
				s.logger.InfoContext(ctx, "tile absent from all collections, filling as water",
					slog.String("tile", token))
				tile.Name = tileName(lat, lon, s.store.primary.ResToken)
				tile.Water = true
			}
		}

		if !tile.Water {
			resolved++
			if !dryRun {
				dest := filepath.Join(destDir, filepath.Base(tile.Href))
				if info, err := os.Stat(dest); err == nil && info.Size() > 0 {
					tile.LocalPath = dest
				} else {
					path, err := s.store.fetcher.Download(ctx, tile.Href, destDir)
					if err != nil {
						return nil, fmt.Errorf("tile %s: %w", token, err)
					}
					tile.LocalPath = path
				}
			}
		}
		plan.Tiles = append(plan.Tiles, tile)
	}

	if resolved == 0 {
		return nil, fmt.Errorf("no elevation tiles for extent %v: %w", plan.Extent, ErrIncompleteCoverage)
	}

	if err := writePlan(plan, filepath.Join(destDir, PlanFileName)); err != nil {
		return nil, err
	}
	return plan, nil
}

func writePlan(plan *Plan, path string) error {
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding mosaic plan: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing mosaic plan: %w", err)
	}
	return nil
}
