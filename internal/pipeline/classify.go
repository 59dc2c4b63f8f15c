package pipeline

import (
	"context"
	"errors"

	"github.com/rkm/insar-pipeline/internal/auxcal"
	"github.com/rkm/insar-pipeline/internal/dem"
	"github.com/rkm/insar-pipeline/internal/engine"
	"github.com/rkm/insar-pipeline/internal/footprint"
	"github.com/rkm/insar-pipeline/internal/orbit"
	"github.com/rkm/insar-pipeline/internal/provider"
	"github.com/rkm/insar-pipeline/internal/scene"
)

// classification maps a sentinel to the stable class string and exit code
// the job-scheduler layer keys its resubmission policy on.
type classification struct {
	sentinel error
	class    string
	code     int
}

var classifications = []classification{
	{provider.ErrCredential, "credential", 2},
	{scene.ErrMalformedID, "malformed-scene-id", 3},
	{scene.ErrResolution, "resolution", 4},
	{scene.ErrGeometryInconsistency, "geometry-inconsistency", 5},
	{footprint.ErrNoOverlap, "no-overlap", 6},
	{orbit.ErrUnavailable, "orbit-unavailable", 7},
	{dem.ErrIncompleteCoverage, "incomplete-dem-coverage", 8},
	{provider.ErrIntegrity, "integrity", 9},
	{auxcal.ErrUnknownPlatform, "aux-cal", 10},
	{engine.ErrFailed, "engine", 11},
	{context.Canceled, "canceled", 12},
	{context.DeadlineExceeded, "canceled", 12},
}

// Classify resolves an error from a run to its class string and exit code.
// Unrecognized errors classify as "internal" with exit code 1; nil returns
// "ok" and 0.
func Classify(err error) (string, int) {
	if err == nil {
		return "ok", 0
	}
	for _, c := range classifications {
		if errors.Is(err, c.sentinel) {
			return c.class, c.code
		}
	}
	return "internal", 1
}
