package orbit

import (
	"fmt"
	"strings"
	"time"
)

// Type identifies an orbit ephemeris product type. Precise orbits are
// published roughly three weeks after acquisition; restituted orbits are
// available within hours but carry lower positional accuracy.
type Type string

const (
	TypePrecise    Type = "AUX_POEORB"
	TypeRestituted Type = "AUX_RESORB"
)

// Types lists orbit types in preference order. Precise is always tried
// before restituted.
var Types = []Type{TypePrecise, TypeRestituted}

const validityLayout = "20060102T150405"

// File describes a single orbit ephemeris file, either remote or staged
// on disk.
type File struct {
	Name     string
	URL      string
	Provider string

	Platform string
	Type     Type

	// Validity window declared in the file name. A file is usable for a
	// scene only when the window strictly contains the acquisition span.
	ValidityStart time.Time
	ValidityStop  time.Time

	LocalPath string
}

// ParseFileName extracts platform, type and validity window from an orbit
// file name such as
//
//	S1A_OPER_AUX_POEORB_OPOD_20220524T081845_V20220503T225942_20220505T005942.EOF
func ParseFileName(name string) (*File, error) {
	base := strings.TrimSuffix(name, ".EOF")
	parts := strings.Split(base, "_")
	if len(parts) != 8 {
		return nil, fmt.Errorf("%w: %q", ErrMalformedName, name)
	}

	platform := parts[0]
	if platform != "S1A" && platform != "S1B" {
		return nil, fmt.Errorf("%w: unknown platform %q", ErrMalformedName, platform)
	}

	typ := Type(parts[2] + "_" + parts[3])
	if typ != TypePrecise && typ != TypeRestituted {
		return nil, fmt.Errorf("%w: unknown orbit type %q", ErrMalformedName, string(typ))
	}

	if !strings.HasPrefix(parts[6], "V") {
		return nil, fmt.Errorf("%w: missing validity marker in %q", ErrMalformedName, name)
	}
	start, err := time.Parse(validityLayout, strings.TrimPrefix(parts[6], "V"))
	if err != nil {
		return nil, fmt.Errorf("%w: validity start: %v", ErrMalformedName, err)
	}
	stop, err := time.Parse(validityLayout, parts[7])
	if err != nil {
		return nil, fmt.Errorf("%w: validity stop: %v", ErrMalformedName, err)
	}
	if !stop.After(start) {
		return nil, fmt.Errorf("%w: validity stop precedes start in %q", ErrMalformedName, name)
	}

	return &File{
		Name:          name,
		Platform:      platform,
		Type:          typ,
		ValidityStart: start,
		ValidityStop:  stop,
	}, nil
}

// Covers reports whether the file's validity window strictly contains the
// acquisition span [start, stop]. Windows that merely touch an endpoint do
// not qualify.
func (f *File) Covers(start, stop time.Time) bool {
	return f.ValidityStart.Before(start) && f.ValidityStop.After(stop)
}
