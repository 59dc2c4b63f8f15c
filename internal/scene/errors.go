package scene

import "errors"

var (
	// ErrResolution is returned when a requested scene has no matching
	// provider record on any search provider.
	ErrResolution = errors.New("scene could not be resolved")

	// ErrGeometryInconsistency is returned when a scene group does not form a
	// valid interferometric input: disconnected frames, mixed flight
	// directions, mismatched tracks, or an inverted date order.
	ErrGeometryInconsistency = errors.New("scene group geometry is inconsistent")

	// ErrMalformedID is returned when a scene identifier does not follow the
	// Sentinel-1 product naming convention.
	ErrMalformedID = errors.New("malformed scene identifier")
)
