package footprint

import "errors"

var (
	// ErrNoOverlap is returned when the reference and secondary envelopes do
	// not intersect. Fatal: an interferometric swath only exists where the
	// two epochs overlap.
	ErrNoOverlap = errors.New("reference and secondary footprints do not overlap")

	// ErrEmptyGroup is returned when a scene group contributes no geometry.
	ErrEmptyGroup = errors.New("scene group has no geometry")
)
