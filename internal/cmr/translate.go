package cmr

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
)

// Granule is the provider-independent record translated from a UMM-G granule.
type Granule struct {
	SceneName       string
	Platform        string
	FlightDirection string
	PathNumber      int
	FrameNumber     int
	AbsoluteOrbit   int
	Polarization    string
	BeamMode        string
	Start           time.Time
	Stop            time.Time
	Polygon         orb.Polygon
	URL             string
	MD5Sum          string
	SizeBytes       int64
}

// translateGranule maps a UMM-G record onto the pipeline's granule shape.
// CMR stores ASF SAR attributes as AdditionalAttributes; the download URL is
// the first "GET DATA" related URL.
func translateGranule(umm *UMMGranule) (*Granule, error) {
	g := &Granule{
		// GranuleUR carries the "-SLC" product suffix; the scene name does not.
		SceneName: strings.TrimSuffix(umm.GranuleUR, "-SLC"),
	}

	if len(umm.Platforms) > 0 {
		g.Platform = umm.Platforms[0].ShortName
	}

	if umm.TemporalExtent == nil || umm.TemporalExtent.RangeDateTime == nil {
		return nil, fmt.Errorf("granule %s has no temporal extent", umm.GranuleUR)
	}
	var err error
	g.Start, err = time.Parse(time.RFC3339, umm.TemporalExtent.RangeDateTime.BeginningDateTime)
	if err != nil {
		return nil, fmt.Errorf("invalid beginning datetime: %w", err)
	}
	g.Stop, err = time.Parse(time.RFC3339, umm.TemporalExtent.RangeDateTime.EndingDateTime)
	if err != nil {
		return nil, fmt.Errorf("invalid ending datetime: %w", err)
	}

	g.Polygon, err = translateGeometry(umm.SpatialExtent)
	if err != nil {
		return nil, fmt.Errorf("granule %s: %w", umm.GranuleUR, err)
	}

	if len(umm.OrbitCalculatedSpatialDomains) > 0 && umm.OrbitCalculatedSpatialDomains[0].OrbitNumber != nil {
		g.AbsoluteOrbit = *umm.OrbitCalculatedSpatialDomains[0].OrbitNumber
	}

	for _, attr := range umm.AdditionalAttributes {
		if len(attr.Values) == 0 {
			continue
		}
		switch attr.Name {
		case "ASCENDING_DESCENDING":
			g.FlightDirection = strings.ToUpper(attr.Values[0])
		case "PATH_NUMBER":
			g.PathNumber, _ = strconv.Atoi(attr.Values[0])
		case "FRAME_NUMBER":
			g.FrameNumber, _ = strconv.Atoi(attr.Values[0])
		case "POLARIZATION":
			g.Polarization = attr.Values[0]
		case "BEAM_MODE":
			g.BeamMode = attr.Values[0]
		}
	}

	for _, ru := range umm.RelatedUrls {
		if ru.Type == "GET DATA" {
			g.URL = ru.URL
			break
		}
	}
	if g.URL == "" {
		return nil, fmt.Errorf("granule %s has no GET DATA url", umm.GranuleUR)
	}

	if umm.DataGranule != nil {
		for _, adi := range umm.DataGranule.ArchiveAndDistributionInformation {
			if adi.SizeInBytes != nil {
				g.SizeBytes = *adi.SizeInBytes
			}
			if adi.Checksum != nil && strings.EqualFold(adi.Checksum.Algorithm, "MD5") {
				g.MD5Sum = adi.Checksum.Value
			}
		}
	}

	return g, nil
}

// translateGeometry converts UMM GPolygon boundaries into an orb.Polygon.
func translateGeometry(se *SpatialExtent) (orb.Polygon, error) {
	if se == nil || se.HorizontalSpatialDomain == nil || se.HorizontalSpatialDomain.Geometry == nil {
		return nil, fmt.Errorf("no spatial extent")
	}

	gpolys := se.HorizontalSpatialDomain.Geometry.GPolygons
	if len(gpolys) == 0 {
		return nil, fmt.Errorf("no GPolygons in spatial extent")
	}

	points := gpolys[0].Boundary.Points
	if len(points) < 3 {
		return nil, fmt.Errorf("degenerate GPolygon boundary")
	}

	ring := make(orb.Ring, 0, len(points)+1)
	for _, p := range points {
		ring = append(ring, orb.Point{p.Longitude, p.Latitude})
	}
	if ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}

	return orb.Polygon{ring}, nil
}
