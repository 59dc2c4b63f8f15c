package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// Steps is the engine's processing sequence. Each step is invoked as its
// own subprocess so a failure identifies the stage that broke and a
// restarted run can resume from engine-side state.
var Steps = []string{
	"startup",
	"preprocess",
	"computeBaselines",
	"verifyDEM",
	"topo",
	"subsetoverlaps",
	"coarseoffsets",
	"coarseresamp",
	"overlapifg",
	"prepesd",
	"esd",
	"rangecoreg",
	"fineoffsets",
	"fineresamp",
	"ion",
	"burstifg",
	"mergebursts",
	"filter",
	"unwrap",
	"unwrap2stage",
	"geocode",
	"denseoffsets",
	"geocodeoffsets",
}

// dryRunFinalStep is the last step executed in dry-run mode. Everything
// through topo touches only geometry; later steps burn hours of compute.
const dryRunFinalStep = "topo"

const configFileName = "topsapp.xml"

// Engine drives the external interferogram processor step by step inside a
// working directory.
type Engine struct {
	command string
	timeout time.Duration
	logger  *slog.Logger

	// expectedOutputs are checked relative to the working directory after
	// a full (non dry-run) sequence.
	expectedOutputs []string
}

func New(command string, timeout time.Duration) *Engine {
	return &Engine{
		command: command,
		timeout: timeout,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		expectedOutputs: []string{
			filepath.Join("merged", "filt_topophase.unw.geo"),
			filepath.Join("merged", "phsig.cor.geo"),
		},
	}
}

func (e *Engine) WithLogger(logger *slog.Logger) *Engine {
	e.logger = logger
	return e
}

// Run renders the configuration into workDir and executes the step
// sequence there. The context bounds the whole run; a step that is already
// executing is never interrupted mid-flight, the sequence stops before
// launching the next one. In dry-run mode execution ends after topo and
// output layers are not checked.
func (e *Engine) Run(ctx context.Context, cfg Config, workDir string, dryRun bool) error {
	cfgPath := filepath.Join(workDir, configFileName)
	if err := cfg.WriteFile(cfgPath); err != nil {
		return err
	}

	deadline := time.Now().Add(e.timeout)
	for _, step := range Steps {
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: timeout before step %s", ErrFailed, step)
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("before step %s: %w", step, err)
		}

		start := time.Now()
		e.logger.InfoContext(ctx, "engine step starting", slog.String("step", step))
		if err := e.runStep(step, workDir); err != nil {
			return err
		}
		e.logger.InfoContext(ctx, "engine step complete",
			slog.String("step", step),
			slog.Duration("elapsed", time.Since(start)))

		if dryRun && step == dryRunFinalStep {
			e.logger.InfoContext(ctx, "dry run, stopping after geometry steps")
			return nil
		}
	}

	return e.checkOutputs(workDir)
}

func (e *Engine) runStep(step, workDir string) error {
	var output bytes.Buffer
	// Deliberately not CommandContext: cancellation takes effect between
	// steps, never by killing a step that already holds partial state.
	cmd := exec.Command(e.command, configFileName, "--dostep="+step)
	cmd.Dir = workDir
	cmd.Stdout = &output
	cmd.Stderr = &output

	err := cmd.Run()
	if logErr := os.WriteFile(stepLogPath(workDir, step), output.Bytes(), 0o644); logErr != nil {
		e.logger.Warn("could not write step log", slog.String("step", step), slog.String("error", logErr.Error()))
	}
	if err != nil {
		return fmt.Errorf("%w: step %s: %v: %s", ErrFailed, step, err, tail(output.Bytes(), 512))
	}
	return nil
}

func (e *Engine) checkOutputs(workDir string) error {
	for _, rel := range e.expectedOutputs {
		if _, err := os.Stat(filepath.Join(workDir, rel)); err != nil {
			return fmt.Errorf("%w: expected output %s missing", ErrFailed, rel)
		}
	}
	return nil
}

func stepLogPath(workDir, step string) string {
	return filepath.Join(workDir, step+".log")
}

func tail(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[len(b)-n:]
}
