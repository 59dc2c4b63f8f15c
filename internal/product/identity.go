package product

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rkm/insar-pipeline/internal/scene"
)

// DatasetVersion is the product line's dataset version string.
const DatasetVersion = "3.0.1"

// ErrEmptyGroup is returned when identity derivation receives an empty
// reference or secondary group.
var ErrEmptyGroup = errors.New("empty scene group")

// Identity is the derived product identifier and its constituent fields.
// It is a pure function of the scene groups, the product extent and the
// processing parameters; deriving it twice over identical inputs yields
// identical values regardless of when or where the run happened.
type Identity struct {
	ID string `json:"id"`

	Mission         string `json:"mission"`
	FlightDirection string `json:"flightDirection"`
	Track           int    `json:"track"`
	ReferenceDate   string `json:"referenceDate"`
	SecondaryDate   string `json:"secondaryDate"`
	ReferenceTime   string `json:"referenceTime"`
	Geocode         string `json:"geocode"`
	Hash            string `json:"hash"`
	DatasetVersion  string `json:"datasetVersion"`

	// Version is the attribute tier declaring which layers the product
	// carries. It advances when optional correction layers are present
	// but never feeds the identifier itself.
	Version string `json:"version"`

	Custom bool `json:"custom"`
}

// Derive computes the product identity. extent is the product footprint
// [min_lon, min_lat, max_lon, max_lat] in the working frame, which may run
// past 180 degrees for antimeridian products.
func Derive(reference, secondary []scene.Metadata, extent [4]float64, params Params) (*Identity, error) {
	if len(reference) == 0 || len(secondary) == 0 {
		return nil, ErrEmptyGroup
	}

	mission, err := missionCode(reference, secondary)
	if err != nil {
		return nil, err
	}

	direction, err := flightLetter(reference, secondary)
	if err != nil {
		return nil, err
	}

	refCenter := groupCenter(reference)
	secCenter := groupCenter(secondary)

	id := &Identity{
		Mission:         mission,
		FlightDirection: direction,
		Track:           reference[0].PathNumber,
		ReferenceDate:   refCenter.Format("20060102"),
		SecondaryDate:   secCenter.Format("20060102"),
		ReferenceTime:   refCenter.Format("150405"),
		Geocode:         geocode(extent),
		Hash:            contentHash(reference, secondary),
		DatasetVersion:  DatasetVersion,
		Version:         layerTier(params),
		Custom:          !params.Standard(),
	}

	prefix := id.Mission + "-GUNW"
	if id.Custom {
		prefix += "_CUSTOM"
	}
	id.ID = fmt.Sprintf("%s-%s-R-%03d-tops-%s_%s-%s-%s-PP-%s-v%s",
		prefix, id.FlightDirection, id.Track,
		id.ReferenceDate, id.SecondaryDate, id.ReferenceTime,
		id.Geocode, id.Hash,
		strings.ReplaceAll(id.DatasetVersion, ".", "_"))
	return id, nil
}

// missionCode derives the shared mission prefix of the platform pair, e.g.
// S1A + S1B -> "S1".
func missionCode(reference, secondary []scene.Metadata) (string, error) {
	code := ""
	for _, m := range append(append([]scene.Metadata{}, reference...), secondary...) {
		if len(m.Platform) < 3 {
			return "", fmt.Errorf("unrecognized platform %q", m.Platform)
		}
		mission := m.Platform[:2]
		if code == "" {
			code = mission
		} else if code != mission {
			return "", fmt.Errorf("mixed missions %s and %s", code, mission)
		}
	}
	return code, nil
}

// flightLetter is the single-letter flight direction of the pair. Group
// validation guarantees directions never mix, but providers may omit the
// attribute entirely, so the first populated record wins and a pair with no
// direction at all is rejected rather than sliced.
func flightLetter(reference, secondary []scene.Metadata) (string, error) {
	for _, m := range append(append([]scene.Metadata{}, reference...), secondary...) {
		if m.FlightDirection != "" {
			return m.FlightDirection[:1], nil
		}
	}
	return "", fmt.Errorf("%w: no scene record carries a flight direction", scene.ErrGeometryInconsistency)
}

// groupCenter is the midpoint of a group's combined acquisition window.
// Center times, not edge times: adjacent frame choices shift the edges but
// barely move the center, keeping the identifier stable.
func groupCenter(group []scene.Metadata) time.Time {
	start, stop := group[0].Start, group[0].Stop
	for _, m := range group[1:] {
		if m.Start.Before(start) {
			start = m.Start
		}
		if m.Stop.After(stop) {
			stop = m.Stop
		}
	}
	return start.Add(stop.Sub(start) / 2)
}

// geocode renders the rounded product center as a coarse tile code such as
// "00119W_00034N". Longitudes past the antimeridian wrap back before
// encoding.
func geocode(extent [4]float64) string {
	lon := (extent[0] + extent[2]) / 2
	lat := (extent[1] + extent[3]) / 2
	if lon >= 180 {
		lon -= 360
	}
	if lon < -180 {
		lon += 360
	}

	code := func(v float64, pos, neg string) string {
		r := int(math.Round(v))
		hemi := pos
		if r < 0 {
			hemi = neg
			r = -r
		}
		return fmt.Sprintf("%05d%s", r, hemi)
	}
	return code(lon, "E", "W") + "_" + code(lat, "N", "S")
}

// contentHash distinguishes reprocessing runs over different scene sets.
// The digest covers the sorted scene identifiers of both groups, so group
// order and duplicate listing order cannot perturb it.
func contentHash(reference, secondary []scene.Metadata) string {
	join := func(group []scene.Metadata) string {
		ids := make([]string, len(group))
		for i, m := range group {
			ids[i] = m.SceneName
		}
		sort.Strings(ids)
		return strings.Join(ids, " ")
	}

	payload, _ := json.Marshal([2]string{join(reference), join(secondary)})
	sum := md5.Sum(payload)
	return hex.EncodeToString(sum[:])[:4]
}

// layerTier maps the requested optional correction layers to the version
// attribute tier declaring them.
func layerTier(params Params) string {
	if params.EstimateIonosphereDelay || params.ComputeSolidEarthTide {
		return "1c"
	}
	return "1b"
}
