package dem

import "errors"

// ErrIncompleteCoverage is returned when no tile of the requested extent
// exists in either the primary or the fallback collection. Individual
// missing tiles are expected over ocean and become zero-height fill; a
// fully empty extent means the elevation source cannot serve the area.
var ErrIncompleteCoverage = errors.New("incomplete DEM coverage")
