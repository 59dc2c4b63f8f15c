package scene

import (
	"context"
	"fmt"
	"time"

	"github.com/paulmach/orb"

	"github.com/rkm/insar-pipeline/internal/asf"
	"github.com/rkm/insar-pipeline/internal/cmr"
)

// Metadata is the provider-resolved record for a single scene. It is created
// once during resolution and read-only thereafter.
type Metadata struct {
	SceneName       string      `json:"sceneName"`
	FileID          string      `json:"fileID"`
	Platform        string      `json:"platform"`
	BeamMode        string      `json:"beamMode"`
	Polarization    string      `json:"polarization"`
	FlightDirection string      `json:"flightDirection"`
	PathNumber      int         `json:"pathNumber"`
	FrameNumber     int         `json:"frameNumber"`
	AbsoluteOrbit   int         `json:"absoluteOrbit"`
	Start           time.Time   `json:"startTime"`
	Stop            time.Time   `json:"stopTime"`
	Geometry        orb.Polygon `json:"-"`
	URL             string      `json:"url"`
	FileName        string      `json:"fileName"`
	MD5Sum          string      `json:"md5sum"`
	SizeBytes       int64       `json:"sizeBytes"`
	// Provider records which search provider resolved the scene, for provenance.
	Provider string `json:"provider"`
}

// Searcher resolves scene names into metadata records. Implementations wrap
// one search provider; the localizer tries them in rank order.
type Searcher interface {
	Name() string
	Granules(ctx context.Context, sceneNames []string) ([]Metadata, error)
}

// NewASFSearcher wraps the ASF search client as the primary Searcher.
func NewASFSearcher(client *asf.Client) Searcher {
	return &asfSearcher{client: client}
}

type asfSearcher struct {
	client *asf.Client
}

func (s *asfSearcher) Name() string { return "asf" }

func (s *asfSearcher) Granules(ctx context.Context, sceneNames []string) ([]Metadata, error) {
	features, err := s.client.Granules(ctx, sceneNames)
	if err != nil {
		return nil, err
	}

	out := make([]Metadata, 0, len(features))
	for i := range features {
		m, err := asfToMetadata(&features[i])
		if err != nil {
			return nil, fmt.Errorf("invalid ASF record for %s: %w", features[i].Properties.SceneName, err)
		}
		out = append(out, *m)
	}
	return out, nil
}

func asfToMetadata(f *asf.Feature) (*Metadata, error) {
	p := f.Properties

	start, err := parseASFTime(p.StartTime)
	if err != nil {
		return nil, fmt.Errorf("bad start time %q: %w", p.StartTime, err)
	}
	stop, err := parseASFTime(p.StopTime)
	if err != nil {
		return nil, fmt.Errorf("bad stop time %q: %w", p.StopTime, err)
	}

	if f.Geometry == nil {
		return nil, fmt.Errorf("missing geometry")
	}
	poly, ok := f.Geometry.Geometry().(orb.Polygon)
	if !ok {
		return nil, fmt.Errorf("unexpected geometry type %s", f.Geometry.Type)
	}

	m := &Metadata{
		SceneName:       p.SceneName,
		FileID:          p.FileID,
		Platform:        normalizePlatform(p.SceneName, p.Platform),
		BeamMode:        p.BeamModeType,
		Polarization:    p.Polarization,
		FlightDirection: p.FlightDirection,
		Start:           start,
		Stop:            stop,
		Geometry:        poly,
		URL:             p.URL,
		FileName:        p.FileName,
		MD5Sum:          p.MD5Sum,
		Provider:        "asf",
	}
	if p.PathNumber != nil {
		m.PathNumber = *p.PathNumber
	}
	if p.FrameNumber != nil {
		m.FrameNumber = *p.FrameNumber
	}
	if p.AbsoluteOrbit != nil {
		m.AbsoluteOrbit = *p.AbsoluteOrbit
	}
	if p.FileSize != nil {
		m.SizeBytes = *p.FileSize
	}

	// Some records omit the path number; it is recoverable from the name.
	if m.PathNumber == 0 {
		if ref, err := ParseRef(p.SceneName); err == nil {
			m.PathNumber = ref.PathNumber()
		}
	}

	return m, nil
}

// normalizePlatform maps provider platform spellings onto the mission short
// codes the rest of the pipeline keys on ("S1A", "S1B"). ASF reports
// "Sentinel-1A" and CMR "SENTINEL-1A"; the scene name itself is authoritative.
func normalizePlatform(sceneName, reported string) string {
	if ref, err := ParseRef(sceneName); err == nil {
		return ref.Platform
	}
	return reported
}

// parseASFTime handles the timestamp shapes the ASF API emits: RFC 3339 with
// variable fractional seconds, with or without the trailing Z.
func parseASFTime(s string) (time.Time, error) {
	for _, layout := range []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05.000000",
		"2006-01-02T15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// NewCMRSearcher wraps the CMR client as the fallback Searcher.
func NewCMRSearcher(client *cmr.Client) Searcher {
	return &cmrSearcher{client: client}
}

type cmrSearcher struct {
	client *cmr.Client
}

func (s *cmrSearcher) Name() string { return "cmr" }

func (s *cmrSearcher) Granules(ctx context.Context, sceneNames []string) ([]Metadata, error) {
	granules, err := s.client.Granules(ctx, sceneNames)
	if err != nil {
		return nil, err
	}
	return s.translate(granules), nil
}

func (s *cmrSearcher) translate(granules []cmr.Granule) []Metadata {
	out := make([]Metadata, 0, len(granules))
	for _, g := range granules {
		m := Metadata{
			SceneName:       g.SceneName,
			FileID:          g.SceneName + "-SLC",
			Platform:        normalizePlatform(g.SceneName, g.Platform),
			BeamMode:        g.BeamMode,
			Polarization:    g.Polarization,
			FlightDirection: g.FlightDirection,
			PathNumber:      g.PathNumber,
			FrameNumber:     g.FrameNumber,
			AbsoluteOrbit:   g.AbsoluteOrbit,
			Start:           g.Start,
			Stop:            g.Stop,
			Geometry:        g.Polygon,
			URL:             g.URL,
			FileName:        g.SceneName + ".zip",
			MD5Sum:          g.MD5Sum,
			SizeBytes:       g.SizeBytes,
			Provider:        "cmr",
		}
		if m.PathNumber == 0 {
			if ref, err := ParseRef(g.SceneName); err == nil {
				m.PathNumber = ref.PathNumber()
			}
		}
		out = append(out, m)
	}
	return out
}

// PlatformLetter returns the single-letter platform suffix of the metadata
// record ("A" for Sentinel-1A), tolerant of provider naming differences.
func (m *Metadata) PlatformLetter() string {
	if m.Platform == "" {
		return ""
	}
	return m.Platform[len(m.Platform)-1:]
}
