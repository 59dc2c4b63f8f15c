// InSAR localization pipeline entry point
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/paulmach/orb"

	"github.com/rkm/insar-pipeline/internal/config"
	"github.com/rkm/insar-pipeline/internal/pipeline"
	"github.com/rkm/insar-pipeline/internal/product"
)

func main() {
	err := run()
	if err == nil {
		return
	}
	class, code := pipeline.Classify(err)
	fmt.Fprintf(os.Stderr, "error [%s]: %v\n", class, err)
	os.Exit(code)
}

func run() error {
	var (
		reference  = flag.String("reference", "", "comma-separated reference scene identifiers (required)")
		secondary  = flag.String("secondary", "", "comma-separated secondary scene identifiers (required)")
		dryRun     = flag.Bool("dry-run", false, "resolve and plan without transferring data or producing a product")
		frameID    = flag.Int("frame-id", -1, "frame identifier constraining the product footprint")
		frameBox   = flag.String("frame-extent", "", "frame extent as min_lon,min_lat,max_lon,max_lat")
		ionosphere = flag.Bool("estimate-ionosphere-delay", true, "compute the ionosphere correction layer")
		solidTide  = flag.Bool("compute-solid-earth-tide", true, "compute the solid earth tide correction layer")
		resolution = flag.Int("output-resolution", 90, "output resolution in meters (30 or 90)")
		workDir    = flag.String("work-dir", ".", "directory for run-scoped working directories")
		outputDir  = flag.String("output-dir", ".", "directory the packaged product record is written to")
	)
	flag.Parse()

	referenceIDs := splitIDs(*reference)
	secondaryIDs := splitIDs(*secondary)
	if len(referenceIDs) == 0 || len(secondaryIDs) == 0 {
		flag.Usage()
		return fmt.Errorf("both -reference and -secondary are required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := setupLogger(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("starting insar-pipeline",
		"version", pipeline.Version,
		"reference", len(referenceIDs),
		"secondary", len(secondaryIDs),
		"dryRun", *dryRun,
	)

	params := product.DefaultParams()
	params.FrameID = *frameID
	params.EstimateIonosphereDelay = *ionosphere
	params.ComputeSolidEarthTide = *solidTide
	params.OutputResolution = *resolution

	frame, err := parseFrame(*frameBox)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p := pipeline.New(cfg, logger)
	bundle, err := p.Run(ctx, pipeline.Options{
		ReferenceIDs: referenceIDs,
		SecondaryIDs: secondaryIDs,
		Frame:        frame,
		WorkRoot:     *workDir,
		OutputDir:    *outputDir,
		DryRun:       *dryRun,
		Params:       params,
		Command:      strings.Join(os.Args, " "),
	})
	if err != nil {
		return err
	}

	logger.Info("run complete",
		"run", bundle.RunID,
		"scenes", len(bundle.Scenes()),
		"extent", bundle.Extent(),
	)
	return nil
}

func parseFrame(s string) (*orb.Bound, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("frame extent needs four comma-separated values, got %q", s)
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("frame extent value %q: %w", p, err)
		}
		vals[i] = v
	}
	return &orb.Bound{
		Min: orb.Point{vals[0], vals[1]},
		Max: orb.Point{vals[2], vals[3]},
	}, nil
}

func splitIDs(s string) []string {
	var out []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

func setupLogger(level, format string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
