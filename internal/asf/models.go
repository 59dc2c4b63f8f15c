package asf

import "github.com/paulmach/orb/geojson"

// GeoJSONResponse represents ASF's GeoJSON FeatureCollection response.
type GeoJSONResponse struct {
	Type     string    `json:"type"` // "FeatureCollection"
	Features []Feature `json:"features"`
}

// Feature represents a single ASF search result feature.
type Feature struct {
	Type       string            `json:"type"` // "Feature"
	Geometry   *geojson.Geometry `json:"geometry"`
	Properties Properties        `json:"properties"`
}

// Properties contains the ASF granule metadata the localizer consumes.
type Properties struct {
	SceneName  string `json:"sceneName"`
	FileID     string `json:"fileID"`
	Platform   string `json:"platform"`
	Instrument string `json:"instrument"`

	BeamModeType string `json:"beamModeType"`
	Polarization string `json:"polarization"`

	FlightDirection string `json:"flightDirection"`
	FrameNumber     *int   `json:"frameNumber"`
	AbsoluteOrbit   *int   `json:"absoluteOrbit"`
	RelativeOrbit   *int   `json:"relativeOrbit"`
	PathNumber      *int   `json:"pathNumber"`

	ProcessingLevel string `json:"processingLevel"`
	ProcessingDate  string `json:"processingDate"`

	StartTime string `json:"startTime"`
	StopTime  string `json:"stopTime"`

	CenterLat *float64 `json:"centerLat"`
	CenterLon *float64 `json:"centerLon"`

	URL      string `json:"url"`
	FileName string `json:"fileName"`
	FileSize *int64 `json:"fileSize"`
	MD5Sum   string `json:"md5sum"`
}
