package orbit

import "errors"

var (
	// ErrUnavailable is returned when no orbit file validates a scene's
	// acquisition window after the full precise-then-restituted fallback.
	// Fatal: processing cannot proceed without orbit data.
	ErrUnavailable = errors.New("no valid orbit file available")

	// ErrMalformedName is returned for orbit file names that do not follow
	// the Sentinel-1 ephemeris naming convention.
	ErrMalformedName = errors.New("malformed orbit file name")
)
