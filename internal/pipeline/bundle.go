package pipeline

import (
	"github.com/rkm/insar-pipeline/internal/dem"
	"github.com/rkm/insar-pipeline/internal/footprint"
	"github.com/rkm/insar-pipeline/internal/orbit"
	"github.com/rkm/insar-pipeline/internal/product"
	"github.com/rkm/insar-pipeline/internal/scene"
)

// LocalizationBundle is the complete set of staged inputs a run hands to
// the processing engine. Once assembled it is treated as immutable.
type LocalizationBundle struct {
	RunID   string
	WorkDir string

	Reference      []scene.Metadata
	Secondary      []scene.Metadata
	ReferencePaths []string
	SecondaryPaths []string

	Footprint *footprint.Footprint

	// Orbits maps scene name to its staged ephemeris file. Scenes may
	// share a file.
	Orbits map[string]*orbit.File

	DEM       *dem.Plan
	AuxCalDir string

	Params product.Params
}

// Scenes returns reference and secondary metadata as one slice, reference
// first.
func (b *LocalizationBundle) Scenes() []scene.Metadata {
	out := make([]scene.Metadata, 0, len(b.Reference)+len(b.Secondary))
	out = append(out, b.Reference...)
	return append(out, b.Secondary...)
}

// Platforms returns the distinct platform identifiers across both groups.
func (b *LocalizationBundle) Platforms() []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range b.Scenes() {
		if !seen[m.Platform] {
			seen[m.Platform] = true
			out = append(out, m.Platform)
		}
	}
	return out
}

// Extent is the product footprint as [min_lon, min_lat, max_lon, max_lat]
// in the working frame.
func (b *LocalizationBundle) Extent() [4]float64 {
	return footprint.Extent(b.Footprint.Product)
}
