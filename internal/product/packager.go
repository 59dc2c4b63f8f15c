package product

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rkm/insar-pipeline/internal/dem"
	"github.com/rkm/insar-pipeline/internal/orbit"
	"github.com/rkm/insar-pipeline/internal/scene"
)

// Layer names one raster layer of the packaged product.
type Layer struct {
	Name     string `json:"name"`
	Optional bool   `json:"optional,omitempty"`
}

// Package is the fully assembled product record: identity, layer manifest
// and the flat attribute map carrying parameters and per-source provenance.
type Package struct {
	Identity   *Identity      `json:"identity"`
	Layers     []Layer        `json:"layers"`
	Attributes map[string]any `json:"attributes"`
}

// Sink receives a completed package. Implementations must be atomic per
// package: a failed write leaves nothing behind that could pass for a
// finished product.
type Sink interface {
	Write(ctx context.Context, pkg *Package) error
}

// Packager assembles the final product record from the localization inputs
// and the engine's outputs.
type Packager struct {
	// Software is the reproducibility statement embedded in every
	// product, e.g. "insar-pipeline 0.3.0".
	Software string
}

// Inputs collects everything the attribute record is derived from.
type Inputs struct {
	Reference []scene.Metadata
	Secondary []scene.Metadata
	Orbits    map[string]*orbit.File
	DEM       *dem.Plan
	Extent    [4]float64
	Params    Params
	Command   string
}

// Assemble builds the package. It performs no validation of its own; the
// localization stages already guaranteed the inputs are consistent.
func (p *Packager) Assemble(id *Identity, in Inputs) *Package {
	attrs := map[string]any{
		"product_id":       id.ID,
		"dataset_version":  id.DatasetVersion,
		"version":          id.Version,
		"mission":          id.Mission,
		"flight_direction": id.FlightDirection,
		"track":            id.Track,
		"extent":           in.Extent,
		"parameters":       in.Params,
		"command":          in.Command,
		"software":         p.Software,

		"reference_scenes": provenance(in.Reference),
		"secondary_scenes": provenance(in.Secondary),
		"orbit_files":      orbitProvenance(in.Orbits),
	}
	if in.DEM != nil {
		attrs["dem"] = demProvenance(in.DEM)
	}

	return &Package{
		Identity:   id,
		Layers:     layers(in.Params),
		Attributes: attrs,
	}
}

func provenance(group []scene.Metadata) []map[string]any {
	out := make([]map[string]any, len(group))
	for i, m := range group {
		out[i] = map[string]any{
			"scene":    m.SceneName,
			"provider": m.Provider,
			"url":      m.URL,
			"md5":      m.MD5Sum,
		}
	}
	return out
}

func orbitProvenance(orbits map[string]*orbit.File) []map[string]any {
	seen := make(map[string]struct{}, len(orbits))
	var out []map[string]any
	for _, f := range orbits {
		if _, ok := seen[f.Name]; ok {
			continue
		}
		seen[f.Name] = struct{}{}
		out = append(out, map[string]any{
			"name":     f.Name,
			"type":     string(f.Type),
			"provider": f.Provider,
			"url":      f.URL,
		})
	}
	return out
}

func demProvenance(plan *dem.Plan) map[string]any {
	byCollection := map[string]int{}
	water := 0
	for _, t := range plan.Tiles {
		if t.Water {
			water++
			continue
		}
		byCollection[t.Collection]++
	}
	return map[string]any{
		"extent":             plan.Extent,
		"ellipsoidal_height": plan.EllipsoidalHeight,
		"tiles":              byCollection,
		"water_tiles":        water,
	}
}

func layers(params Params) []Layer {
	out := []Layer{
		{Name: "unwrappedPhase"},
		{Name: "coherence"},
		{Name: "connectedComponents"},
		{Name: "amplitude"},
	}
	if params.UnfilteredCoherence {
		out = append(out, Layer{Name: "unfilteredCoherence"})
	}
	if params.WrappedPhaseLayer {
		out = append(out, Layer{Name: "wrappedPhase", Optional: true})
	}
	if params.DoDenseOffsets {
		out = append(out, Layer{Name: "rangeOffsets", Optional: true}, Layer{Name: "azimuthOffsets", Optional: true})
	}
	if params.EstimateIonosphereDelay {
		out = append(out, Layer{Name: "ionosphere", Optional: true})
	}
	if params.ComputeSolidEarthTide {
		out = append(out, Layer{Name: "solidEarthTide", Optional: true})
	}
	return out
}

// DirSink persists packages as JSON records in a directory, written to a
// temporary file first and renamed into place so readers never observe a
// partial record.
type DirSink struct {
	Dir string
}

func (s *DirSink) Write(ctx context.Context, pkg *Package) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(pkg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding package: %w", err)
	}

	final := filepath.Join(s.Dir, pkg.Identity.ID+".json")
	tmp := final + ".partial"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing package: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("publishing package: %w", err)
	}
	return nil
}
