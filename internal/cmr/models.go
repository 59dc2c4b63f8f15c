package cmr

// UMMSearchResponse represents a CMR UMM-G search response.
type UMMSearchResponse struct {
	Hits  int             `json:"hits"`
	Took  int             `json:"took"`
	Items []UMMResultItem `json:"items"`
}

// UMMResultItem wraps a UMM granule with metadata.
type UMMResultItem struct {
	Meta UMMMeta    `json:"meta"`
	UMM  UMMGranule `json:"umm"`
}

// UMMMeta contains metadata about a CMR result item.
type UMMMeta struct {
	ConceptID  string `json:"concept-id"`
	NativeID   string `json:"native-id"`
	ProviderID string `json:"provider-id"`
}

// UMMGranule represents a UMM-G (Unified Metadata Model for Granules) record.
type UMMGranule struct {
	GranuleUR                     string                         `json:"GranuleUR"`
	RelatedUrls                   []RelatedURL                   `json:"RelatedUrls,omitempty"`
	DataGranule                   *DataGranule                   `json:"DataGranule,omitempty"`
	TemporalExtent                *TemporalExtent                `json:"TemporalExtent,omitempty"`
	SpatialExtent                 *SpatialExtent                 `json:"SpatialExtent,omitempty"`
	OrbitCalculatedSpatialDomains []OrbitCalculatedSpatialDomain `json:"OrbitCalculatedSpatialDomains,omitempty"`
	Platforms                     []Platform                     `json:"Platforms,omitempty"`
	AdditionalAttributes          []AdditionalAttribute          `json:"AdditionalAttributes,omitempty"`
}

// RelatedURL represents a URL related to the granule.
type RelatedURL struct {
	URL     string `json:"URL"`
	Type    string `json:"Type"` // e.g., "GET DATA"
	Subtype string `json:"Subtype,omitempty"`
}

// DataGranule contains data granule information.
type DataGranule struct {
	ProductionDateTime                string            `json:"ProductionDateTime,omitempty"`
	Identifiers                       []Identifier      `json:"Identifiers,omitempty"`
	ArchiveAndDistributionInformation []ArchiveDistInfo `json:"ArchiveAndDistributionInformation,omitempty"`
}

// Identifier contains identifier information.
type Identifier struct {
	Identifier     string `json:"Identifier"`
	IdentifierType string `json:"IdentifierType"` // e.g., "ProducerGranuleId"
}

// ArchiveDistInfo contains archive and distribution information.
type ArchiveDistInfo struct {
	Name        string    `json:"Name"`
	SizeInBytes *int64    `json:"SizeInBytes,omitempty"`
	Checksum    *Checksum `json:"Checksum,omitempty"`
}

// Checksum contains checksum information.
type Checksum struct {
	Value     string `json:"Value"`
	Algorithm string `json:"Algorithm"` // e.g., "MD5"
}

// TemporalExtent contains temporal information.
type TemporalExtent struct {
	RangeDateTime *RangeDateTime `json:"RangeDateTime,omitempty"`
}

// RangeDateTime represents a time range.
type RangeDateTime struct {
	BeginningDateTime string `json:"BeginningDateTime"`
	EndingDateTime    string `json:"EndingDateTime"`
}

// SpatialExtent contains spatial information.
type SpatialExtent struct {
	HorizontalSpatialDomain *HorizontalSpatialDomain `json:"HorizontalSpatialDomain,omitempty"`
}

// HorizontalSpatialDomain contains horizontal spatial domain information.
type HorizontalSpatialDomain struct {
	Geometry *UMMGeometry `json:"Geometry,omitempty"`
}

// UMMGeometry contains granule geometry as GPolygons.
type UMMGeometry struct {
	GPolygons []GPolygon `json:"GPolygons,omitempty"`
}

// GPolygon is a polygon boundary.
type GPolygon struct {
	Boundary Boundary `json:"Boundary"`
}

// Boundary is a list of boundary points.
type Boundary struct {
	Points []Point `json:"Points"`
}

// Point is a single lon/lat position.
type Point struct {
	Longitude float64 `json:"Longitude"`
	Latitude  float64 `json:"Latitude"`
}

// OrbitCalculatedSpatialDomain contains orbit information.
type OrbitCalculatedSpatialDomain struct {
	OrbitNumber *int `json:"OrbitNumber,omitempty"`
}

// Platform contains platform information.
type Platform struct {
	ShortName string `json:"ShortName"`
}

// AdditionalAttribute contains a named attribute with values.
type AdditionalAttribute struct {
	Name   string   `json:"Name"`
	Values []string `json:"Values"`
}
