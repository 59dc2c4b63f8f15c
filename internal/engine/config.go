package engine

import (
	"fmt"
	"io"
	"os"
	"text/template"
)

// Config is the declarative input rendered for the interferogram engine.
// The engine's region of interest and geocode lists want latitude bounds
// first, so Extent is re-ordered during rendering.
type Config struct {
	ReferenceSafes []string
	SecondarySafes []string
	OrbitDir       string
	AuxCalDir      string
	DEMPath        string

	// Extent is [min_lon, min_lat, max_lon, max_lat].
	Extent [4]float64
	Swaths []int

	EstimateIonosphereDelay bool
	DoUnwrap                bool
	DoDenseOffsets          bool
	ESDCoherenceThreshold   float64
	GoldsteinFilterPower    float64
	RangeLooks              int
	AzimuthLooks            int
}

// RegionOfInterest renders the extent the way the engine wants it:
// [ymin, ymax, xmin, xmax].
func (c Config) RegionOfInterest() [4]float64 {
	return [4]float64{c.Extent[1], c.Extent[3], c.Extent[0], c.Extent[2]}
}

var configTemplate = template.Must(template.New("topsapp").Parse(
	`<topsApp>
  <component name="topsinsar">
    <property name="Sensor name">SENTINEL1</property>
    <component name="reference">
      <property name="safe">[{{range $i, $p := .ReferenceSafes}}{{if $i}}, {{end}}'{{$p}}'{{end}}]</property>
      <property name="orbit directory">{{.OrbitDir}}</property>
      <property name="auxiliary data directory">{{.AuxCalDir}}</property>
      <property name="output directory">reference</property>
    </component>
    <component name="secondary">
      <property name="safe">[{{range $i, $p := .SecondarySafes}}{{if $i}}, {{end}}'{{$p}}'{{end}}]</property>
      <property name="orbit directory">{{.OrbitDir}}</property>
      <property name="auxiliary data directory">{{.AuxCalDir}}</property>
      <property name="output directory">secondary</property>
    </component>
    <property name="swaths">[{{range $i, $s := .Swaths}}{{if $i}}, {{end}}{{$s}}{{end}}]</property>
    <property name="demFilename">{{.DEMPath}}</property>
    {{- $roi := .RegionOfInterest}}
    <property name="region of interest">[{{index $roi 0}}, {{index $roi 1}}, {{index $roi 2}}, {{index $roi 3}}]</property>
    <property name="geocode bounding box">[{{index $roi 0}}, {{index $roi 1}}, {{index $roi 2}}, {{index $roi 3}}]</property>
    <property name="range looks">{{.RangeLooks}}</property>
    <property name="azimuth looks">{{.AzimuthLooks}}</property>
    <property name="do ionosphere correction">{{.EstimateIonosphereDelay}}</property>
    <property name="apply ionosphere correction">{{.EstimateIonosphereDelay}}</property>
    <property name="do unwrap">{{.DoUnwrap}}</property>
    <property name="unwrapper name">snaphu_mcf</property>
    <property name="do denseoffsets">{{.DoDenseOffsets}}</property>
    <property name="do ESD">{{ne .ESDCoherenceThreshold -1.0}}</property>
    {{- if ne .ESDCoherenceThreshold -1.0}}
    <property name="ESD coherence threshold">{{.ESDCoherenceThreshold}}</property>
    {{- end}}
    <property name="filter strength">{{.GoldsteinFilterPower}}</property>
  </component>
</topsApp>
`))

// Render writes the engine configuration document.
func (c Config) Render(w io.Writer) error {
	if err := configTemplate.Execute(w, c); err != nil {
		return fmt.Errorf("rendering engine config: %w", err)
	}
	return nil
}

// WriteFile renders the configuration to path.
func (c Config) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writing engine config: %w", err)
	}
	if err := c.Render(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
