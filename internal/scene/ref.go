// Package scene resolves opaque scene identifiers into provider-backed
// metadata records and stages the underlying data products locally.
package scene

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Ref is an immutable, parsed scene identifier. A Sentinel-1 product name
// encodes platform, beam mode, product type, polarization, the acquisition
// window and orbit counters:
//
//	S1A_IW_SLC__1SDV_20220504T141557_20220504T141624_043062_05246D_3C67
type Ref struct {
	SceneName     string
	Platform      string // "S1A" or "S1B"
	Mode          string // "IW", "EW", ...
	ProductType   string // "SLC"
	Polarization  string // "DV", "SV", ...
	Start         time.Time
	Stop          time.Time
	AbsoluteOrbit int
	DataTakeID    string
	UniqueID      string
}

const sceneTimeLayout = "20060102T150405"

// ParseRef parses a Sentinel-1 product name into its components.
func ParseRef(id string) (*Ref, error) {
	parts := strings.Split(id, "_")
	// The double underscore after the product type yields an empty element.
	if len(parts) != 10 || parts[3] != "" {
		return nil, fmt.Errorf("%w: %q", ErrMalformedID, id)
	}

	platform := parts[0]
	if platform != "S1A" && platform != "S1B" {
		return nil, fmt.Errorf("%w: unknown platform %q", ErrMalformedID, platform)
	}

	start, err := time.Parse(sceneTimeLayout, parts[5])
	if err != nil {
		return nil, fmt.Errorf("%w: bad start time in %q", ErrMalformedID, id)
	}
	stop, err := time.Parse(sceneTimeLayout, parts[6])
	if err != nil {
		return nil, fmt.Errorf("%w: bad stop time in %q", ErrMalformedID, id)
	}
	if !stop.After(start) {
		return nil, fmt.Errorf("%w: stop time precedes start in %q", ErrMalformedID, id)
	}

	orbit, err := strconv.Atoi(parts[7])
	if err != nil {
		return nil, fmt.Errorf("%w: bad orbit number in %q", ErrMalformedID, id)
	}

	class := parts[4] // e.g. "1SDV": level, class, polarization
	if len(class) != 4 {
		return nil, fmt.Errorf("%w: bad product class %q", ErrMalformedID, class)
	}

	return &Ref{
		SceneName:     id,
		Platform:      platform,
		Mode:          parts[1],
		ProductType:   parts[2],
		Polarization:  class[2:],
		Start:         start.UTC(),
		Stop:          stop.UTC(),
		AbsoluteOrbit: orbit,
		DataTakeID:    parts[8],
		UniqueID:      parts[9],
	}, nil
}

// PathNumber derives the relative orbit (track) from the absolute orbit
// number using the per-platform mission offsets. Used as a fallback when the
// provider record does not carry a path number.
func (r *Ref) PathNumber() int {
	offset := 73 // S1A
	if r.Platform == "S1B" {
		offset = 27
	}
	return ((r.AbsoluteOrbit-offset)%175+175)%175 + 1
}

// PlatformLetter returns the single-letter platform suffix ("A", "B").
func (r *Ref) PlatformLetter() string {
	return r.Platform[len(r.Platform)-1:]
}
