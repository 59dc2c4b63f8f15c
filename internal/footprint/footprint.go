// Package footprint computes the combined geographic extents of a pipeline
// run: the product extent (where reference and secondary epochs overlap) and
// the elevation-model extent (everything either epoch touches), with
// consistent longitude handling across the antimeridian.
package footprint

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// demBuffer pads the elevation extent before rounding; about 0.5 km at the
// equator, so geometric correction never samples outside the model.
const demBuffer = 0.004

// Footprint holds the two extents derived from a scene set.
// Longitudes are kept in a single continuous range for the run; when the
// scene set straddles the antimeridian the bounds may extend beyond ±180
// so that widths remain the true angular span.
type Footprint struct {
	// Product is the intersection of the reference and secondary group
	// envelopes, with exact bounds.
	Product orb.Bound

	// DEM is the union of both group envelopes, buffered and rounded
	// outward to integer degrees to match the elevation tiling convention.
	DEM orb.Bound

	// WrapsAntimeridian records whether longitudes were remapped for the run.
	WrapsAntimeridian bool
}

// Resolve computes the combined footprint for the run, optionally constrained
// by a frame extent. A nil frame applies no constraint.
func Resolve(reference, secondary []orb.Polygon, frame *orb.Bound) (*Footprint, error) {
	if len(reference) == 0 || len(secondary) == 0 {
		return nil, ErrEmptyGroup
	}

	all := make([]orb.Polygon, 0, len(reference)+len(secondary))
	all = append(all, reference...)
	all = append(all, secondary...)

	wraps := crossesAntimeridian(all)
	if wraps {
		shift := bestShift(all)
		reference = shiftGroup(reference, shift)
		secondary = shiftGroup(secondary, shift)
	}

	refEnv := envelope(reference)
	secEnv := envelope(secondary)

	product, ok := intersect(refEnv, secEnv)
	if !ok {
		return nil, ErrNoOverlap
	}

	if frame != nil {
		f := *frame
		if wraps {
			f = shiftBound(f, bestShift(all))
		}
		product, ok = intersect(product, f)
		if !ok {
			return nil, fmt.Errorf("%w: frame constraint excludes the swath", ErrNoOverlap)
		}
	}

	dem := roundOutward(buffer(refEnv.Union(secEnv), demBuffer))

	return &Footprint{
		Product:           normalize(product),
		DEM:               normalize(dem),
		WrapsAntimeridian: wraps,
	}, nil
}

// Connected reports whether the polygons form a single connected swath:
// every envelope reachable from every other through touching or overlapping
// neighbors. Used to reject scene groups with gaps between frames.
func Connected(polys []orb.Polygon) bool {
	if len(polys) <= 1 {
		return len(polys) == 1
	}

	group := polys
	if crossesAntimeridian(polys) {
		group = shiftGroup(polys, bestShift(polys))
	}

	bounds := make([]orb.Bound, len(group))
	for i, p := range group {
		bounds[i] = p.Bound()
	}

	// BFS over the envelope-adjacency graph.
	visited := make([]bool, len(bounds))
	queue := []int{0}
	visited[0] = true
	seen := 1
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for i := range bounds {
			if visited[i] || !touches(bounds[cur], bounds[i]) {
				continue
			}
			visited[i] = true
			seen++
			queue = append(queue, i)
		}
	}
	return seen == len(bounds)
}

// crossesAntimeridian reports whether any polygon's longitudes wrap: a raw
// span wider than a hemisphere means the coordinates jump across ±180.
func crossesAntimeridian(polys []orb.Polygon) bool {
	for _, p := range polys {
		b := p.Bound()
		if b.Max[0]-b.Min[0] > 180 {
			return true
		}
	}
	return false
}

// bestShift picks the longitude remap direction yielding the smaller combined
// span: either negative longitudes shifted east (+360) or positive longitudes
// shifted west (-360).
func bestShift(polys []orb.Polygon) func(float64) float64 {
	east := func(lon float64) float64 {
		if lon < 0 {
			return lon + 360
		}
		return lon
	}
	west := func(lon float64) float64 {
		if lon > 0 {
			return lon - 360
		}
		return lon
	}

	if spanWith(polys, east) <= spanWith(polys, west) {
		return east
	}
	return west
}

func spanWith(polys []orb.Polygon, shift func(float64) float64) float64 {
	minLon, maxLon := math.Inf(1), math.Inf(-1)
	for _, p := range polys {
		for _, ring := range p {
			for _, pt := range ring {
				lon := shift(pt[0])
				minLon = math.Min(minLon, lon)
				maxLon = math.Max(maxLon, lon)
			}
		}
	}
	return maxLon - minLon
}

func shiftGroup(polys []orb.Polygon, shift func(float64) float64) []orb.Polygon {
	out := make([]orb.Polygon, len(polys))
	for i, p := range polys {
		q := make(orb.Polygon, len(p))
		for j, ring := range p {
			r := make(orb.Ring, len(ring))
			for k, pt := range ring {
				r[k] = orb.Point{shift(pt[0]), pt[1]}
			}
			q[j] = r
		}
		out[i] = q
	}
	return out
}

func shiftBound(b orb.Bound, shift func(float64) float64) orb.Bound {
	lo, hi := shift(b.Min[0]), shift(b.Max[0])
	if lo > hi {
		lo, hi = hi, lo
	}
	return orb.Bound{
		Min: orb.Point{lo, b.Min[1]},
		Max: orb.Point{hi, b.Max[1]},
	}
}

// envelope is the union of all polygon bounds in a group.
func envelope(polys []orb.Polygon) orb.Bound {
	b := polys[0].Bound()
	for _, p := range polys[1:] {
		b = b.Union(p.Bound())
	}
	return b
}

// intersect returns the overlap of two bounds; ok is false when they are
// disjoint. Bounds that merely share an edge produce a degenerate (zero
// width or height) extent, which is also treated as no overlap.
func intersect(a, b orb.Bound) (orb.Bound, bool) {
	minLon := math.Max(a.Min[0], b.Min[0])
	minLat := math.Max(a.Min[1], b.Min[1])
	maxLon := math.Min(a.Max[0], b.Max[0])
	maxLat := math.Min(a.Max[1], b.Max[1])

	if minLon >= maxLon || minLat >= maxLat {
		return orb.Bound{}, false
	}
	return orb.Bound{
		Min: orb.Point{minLon, minLat},
		Max: orb.Point{maxLon, maxLat},
	}, true
}

// touches reports whether two bounds overlap or share an edge.
func touches(a, b orb.Bound) bool {
	return a.Min[0] <= b.Max[0] && b.Min[0] <= a.Max[0] &&
		a.Min[1] <= b.Max[1] && b.Min[1] <= a.Max[1]
}

func buffer(b orb.Bound, d float64) orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.Min[0] - d, b.Min[1] - d},
		Max: orb.Point{b.Max[0] + d, b.Max[1] + d},
	}
}

// roundOutward snaps a bound to integer degrees: floor for minimums, ceil for
// maximums, so the elevation tiling never clips the extent.
func roundOutward(b orb.Bound) orb.Bound {
	return orb.Bound{
		Min: orb.Point{math.Floor(b.Min[0]), math.Floor(b.Min[1])},
		Max: orb.Point{math.Ceil(b.Max[0]), math.Ceil(b.Max[1])},
	}
}

// normalize remaps a bound that ended up entirely beyond ±180 back into the
// standard range. A bound straddling the antimeridian keeps its continuous
// coordinates so the width stays the true angular span.
func normalize(b orb.Bound) orb.Bound {
	switch {
	case b.Min[0] >= 180:
		return orb.Bound{
			Min: orb.Point{b.Min[0] - 360, b.Min[1]},
			Max: orb.Point{b.Max[0] - 360, b.Max[1]},
		}
	case b.Max[0] <= -180:
		return orb.Bound{
			Min: orb.Point{b.Min[0] + 360, b.Min[1]},
			Max: orb.Point{b.Max[0] + 360, b.Max[1]},
		}
	}
	return b
}

// Extent returns the bound as [minLon, minLat, maxLon, maxLat].
func Extent(b orb.Bound) [4]float64 {
	return [4]float64{b.Min[0], b.Min[1], b.Max[0], b.Max[1]}
}
