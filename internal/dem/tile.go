package dem

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Tile is one 1x1 degree elevation tile of the mosaic plan. Lat and Lon are
// the tile's south-west corner in the working frame, which stays continuous
// across the antimeridian; Name carries the normalized catalogue identifier.
type Tile struct {
	Name string `json:"name"`
	Lat  int    `json:"lat"`
	Lon  int    `json:"lon"`

	Collection     string `json:"collection,omitempty"`
	ResampleFactor int    `json:"resampleFactor,omitempty"`
	Href           string `json:"href,omitempty"`
	LocalPath      string `json:"localPath,omitempty"`

	// Water marks a tile absent from every collection, mosaicked as
	// zero-height fill.
	Water bool `json:"water,omitempty"`

	// ClipWindow is the tile's intersection with the exact requested
	// extent, in the working frame.
	ClipWindow [4]float64 `json:"clipWindow"`
}

// tileToken renders the geographic part of a Copernicus DSM tile name for a
// south-west corner, e.g. "N34_00_W119_00". Longitudes outside [-180, 180)
// are wrapped back before naming.
func tileToken(lat, lon int) string {
	lon = normalizeLon(lon)
	ns, ew := "N", "E"
	if lat < 0 {
		ns = "S"
		lat = -lat
	}
	if lon < 0 {
		ew = "W"
		lon = -lon
	}
	return fmt.Sprintf("%s%02d_00_%s%03d_00", ns, lat, ew, lon)
}

// tileName renders the full Copernicus DSM tile identifier. The resolution
// token is the grid spacing in tenths of an arc second: 10 for GLO-30, 30
// for GLO-90.
func tileName(lat, lon, resToken int) string {
	return fmt.Sprintf("Copernicus_DSM_COV_%d_%s_DEM", resToken, tileToken(lat, lon))
}

func normalizeLon(lon int) int {
	for lon >= 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return lon
}

// corners enumerates the south-west corners of every integer-degree tile
// intersecting the bound. The bound is expected to be pre-rounded outward
// to whole degrees; a fractional edge still gets its partial tile.
func corners(b orb.Bound) [][2]int {
	minLon := int(math.Floor(b.Min.Lon()))
	maxLon := int(math.Ceil(b.Max.Lon()))
	minLat := int(math.Floor(b.Min.Lat()))
	maxLat := int(math.Ceil(b.Max.Lat()))

	var out [][2]int
	for lat := minLat; lat < maxLat; lat++ {
		for lon := minLon; lon < maxLon; lon++ {
			out = append(out, [2]int{lat, lon})
		}
	}
	return out
}

func clip(lat, lon int, b orb.Bound) [4]float64 {
	return [4]float64{
		math.Max(float64(lon), b.Min.Lon()),
		math.Max(float64(lat), b.Min.Lat()),
		math.Min(float64(lon+1), b.Max.Lon()),
		math.Min(float64(lat+1), b.Max.Lat()),
	}
}
