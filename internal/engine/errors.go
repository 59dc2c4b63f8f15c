package engine

import "errors"

// ErrFailed is returned when a processing step exits non-zero or the run
// finishes without producing its expected output layers.
var ErrFailed = errors.New("processing engine failed")
