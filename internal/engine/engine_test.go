package engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProcessor records each --dostep invocation, fails on the step named
// in FAIL_STEP and creates the expected output layers at the final step.
const stubProcessor = `#!/bin/sh
step=${2#--dostep=}
echo "$step" >> steps.txt
if [ "$step" = "$FAIL_STEP" ]; then
  echo "traceback: $step exploded" >&2
  exit 1
fi
if [ "$step" = "geocodeoffsets" ]; then
  mkdir -p merged
  : > merged/filt_topophase.unw.geo
  : > merged/phsig.cor.geo
fi
exit 0
`

func newStub(t *testing.T) (*Engine, string) {
	dir := t.TempDir()
	cmd := filepath.Join(dir, "processor.sh")
	require.NoError(t, os.WriteFile(cmd, []byte(stubProcessor), 0o755))
	return New(cmd, time.Minute), t.TempDir()
}

func recordedSteps(t *testing.T, workDir string) []string {
	data, err := os.ReadFile(filepath.Join(workDir, "steps.txt"))
	require.NoError(t, err)
	return strings.Fields(string(data))
}

func TestRun_FullSequence(t *testing.T) {
	eng, workDir := newStub(t)

	err := eng.Run(context.Background(), defaultConfig(), workDir, false)
	require.NoError(t, err)

	assert.Equal(t, Steps, recordedSteps(t, workDir))
	assert.FileExists(t, filepath.Join(workDir, configFileName))
	assert.FileExists(t, filepath.Join(workDir, "merged", "filt_topophase.unw.geo"))
}

func TestRun_DryRunStopsAfterTopo(t *testing.T) {
	eng, workDir := newStub(t)

	err := eng.Run(context.Background(), defaultConfig(), workDir, true)
	require.NoError(t, err)

	want := []string{"startup", "preprocess", "computeBaselines", "verifyDEM", "topo"}
	assert.Equal(t, want, recordedSteps(t, workDir))
}

func TestRun_StepFailure(t *testing.T) {
	t.Setenv("FAIL_STEP", "coarseoffsets")
	eng, workDir := newStub(t)

	err := eng.Run(context.Background(), defaultConfig(), workDir, false)
	require.ErrorIs(t, err, ErrFailed)
	assert.ErrorContains(t, err, "coarseoffsets")
	assert.ErrorContains(t, err, "exploded")

	steps := recordedSteps(t, workDir)
	assert.Equal(t, "coarseoffsets", steps[len(steps)-1], "no step runs after a failure")

	// The failing step's output is preserved for diagnosis.
	log, err := os.ReadFile(stepLogPath(workDir, "coarseoffsets"))
	require.NoError(t, err)
	assert.Contains(t, string(log), "exploded")
}

func TestRun_MissingOutputs(t *testing.T) {
	// The final step succeeds but produces nothing.
	dir := t.TempDir()
	cmd := filepath.Join(dir, "processor.sh")
	require.NoError(t, os.WriteFile(cmd, []byte("#!/bin/sh\nexit 0\n"), 0o755))
	eng := New(cmd, time.Minute)

	err := eng.Run(context.Background(), defaultConfig(), t.TempDir(), false)
	require.ErrorIs(t, err, ErrFailed)
	assert.ErrorContains(t, err, "filt_topophase.unw.geo")
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	eng, workDir := newStub(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := eng.Run(ctx, defaultConfig(), workDir, false)
	require.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, filepath.Join(workDir, "steps.txt"))
}
