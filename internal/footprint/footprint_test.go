package footprint

import (
	"errors"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func box(minLon, minLat, maxLon, maxLat float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{minLon, minLat},
		{maxLon, minLat},
		{maxLon, maxLat},
		{minLon, maxLat},
		{minLon, minLat},
	}}
}

func TestResolve_OverlappingGroups(t *testing.T) {
	reference := []orb.Polygon{box(-119.0, 34.0, -116.0, 36.0)}
	secondary := []orb.Polygon{
		box(-119.2, 33.4, -116.2, 34.8),
		box(-119.1, 34.6, -116.1, 36.1),
	}

	fp, err := Resolve(reference, secondary, nil)
	require.NoError(t, err)

	// Product extent is the intersection of the group envelopes.
	assert.InDelta(t, -119.0, fp.Product.Min[0], 1e-9)
	assert.InDelta(t, 34.0, fp.Product.Min[1], 1e-9)
	assert.InDelta(t, -116.1, fp.Product.Max[0], 1e-9)
	assert.InDelta(t, 36.0, fp.Product.Max[1], 1e-9)

	// DEM extent is the union, buffered and rounded outward to whole degrees.
	assert.Equal(t, -120.0, fp.DEM.Min[0])
	assert.Equal(t, 33.0, fp.DEM.Min[1])
	assert.Equal(t, -115.0, fp.DEM.Max[0])
	assert.Equal(t, 37.0, fp.DEM.Max[1])

	assert.False(t, fp.WrapsAntimeridian)
}

func TestResolve_DisjointGroups(t *testing.T) {
	reference := []orb.Polygon{box(-119.0, 34.0, -116.0, 36.0)}
	secondary := []orb.Polygon{box(-110.0, 34.0, -108.0, 36.0)}

	_, err := Resolve(reference, secondary, nil)
	assert.ErrorIs(t, err, ErrNoOverlap)
}

func TestResolve_EdgeTouchingGroupsAreDisjoint(t *testing.T) {
	// Sharing a single boundary line is a degenerate swath, not an overlap.
	reference := []orb.Polygon{box(-119.0, 34.0, -116.0, 36.0)}
	secondary := []orb.Polygon{box(-116.0, 34.0, -113.0, 36.0)}

	_, err := Resolve(reference, secondary, nil)
	assert.ErrorIs(t, err, ErrNoOverlap)
}

func TestResolve_EmptyGroup(t *testing.T) {
	_, err := Resolve(nil, []orb.Polygon{box(0, 0, 1, 1)}, nil)
	assert.ErrorIs(t, err, ErrEmptyGroup)
}

func TestResolve_Antimeridian(t *testing.T) {
	// An Aleutian-style pair: both scenes straddle ±180. Raw coordinates jump
	// between +179 and -179, so a naive bound would span nearly 360 degrees.
	reference := []orb.Polygon{{orb.Ring{
		{179.0, 51.0}, {-179.0, 51.0}, {-179.0, 53.0}, {179.0, 53.0}, {179.0, 51.0},
	}}}
	secondary := []orb.Polygon{{orb.Ring{
		{179.2, 51.2}, {-179.2, 51.2}, {-179.2, 53.2}, {179.2, 53.2}, {179.2, 51.2},
	}}}

	fp, err := Resolve(reference, secondary, nil)
	require.NoError(t, err)
	assert.True(t, fp.WrapsAntimeridian)

	// Width must equal the true angular span, not 360 minus it.
	width := fp.Product.Max[0] - fp.Product.Min[0]
	assert.InDelta(t, 1.6, width, 1e-9)

	// The shared overlap runs from 179.2E across the dateline to 179.2W.
	assert.InDelta(t, 179.2, fp.Product.Min[0], 1e-9)
	assert.InDelta(t, 180.8, fp.Product.Max[0], 1e-9)

	// Union spans 179E to 179W (2 degrees), buffered and rounded out to 4.
	demWidth := fp.DEM.Max[0] - fp.DEM.Min[0]
	assert.Equal(t, 4.0, demWidth, "DEM extent should cover the true span only")
}

func TestResolve_FrameConstraint(t *testing.T) {
	reference := []orb.Polygon{box(-119.0, 34.0, -116.0, 36.0)}
	secondary := []orb.Polygon{box(-119.0, 33.5, -116.0, 35.5)}

	frame := orb.Bound{Min: orb.Point{-118.0, 34.5}, Max: orb.Point{-117.0, 35.0}}
	fp, err := Resolve(reference, secondary, &frame)
	require.NoError(t, err)
	assert.Equal(t, frame, fp.Product)

	// A frame outside the swath is fatal.
	far := orb.Bound{Min: orb.Point{-50.0, 10.0}, Max: orb.Point{-49.0, 11.0}}
	_, err = Resolve(reference, secondary, &far)
	assert.True(t, errors.Is(err, ErrNoOverlap))
}

func TestConnected(t *testing.T) {
	tests := []struct {
		name  string
		polys []orb.Polygon
		want  bool
	}{
		{
			name:  "single scene",
			polys: []orb.Polygon{box(0, 0, 1, 1)},
			want:  true,
		},
		{
			name: "overlapping frames",
			polys: []orb.Polygon{
				box(0, 0, 1, 1),
				box(0, 0.9, 1, 1.9),
				box(0, 1.8, 1, 2.8),
			},
			want: true,
		},
		{
			name: "touching frames",
			polys: []orb.Polygon{
				box(0, 0, 1, 1),
				box(0, 1, 1, 2),
			},
			want: true,
		},
		{
			name: "gap in the middle",
			polys: []orb.Polygon{
				box(0, 0, 1, 1),
				box(0, 1.5, 1, 2.5),
			},
			want: false,
		},
		{
			name: "wrapped neighbors across the dateline",
			polys: []orb.Polygon{
				{orb.Ring{{179.0, 51.0}, {-179.5, 51.0}, {-179.5, 52.0}, {179.0, 52.0}, {179.0, 51.0}}},
				{orb.Ring{{179.5, 51.8}, {-179.0, 51.8}, {-179.0, 52.8}, {179.5, 52.8}, {179.5, 51.8}}},
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Connected(tt.polys))
		})
	}
}

func TestExtent(t *testing.T) {
	b := orb.Bound{Min: orb.Point{-119.08, 33.41}, Max: orb.Point{-115.99, 35.43}}
	assert.Equal(t, [4]float64{-119.08, 33.41, -115.99, 35.43}, Extent(b))
}
