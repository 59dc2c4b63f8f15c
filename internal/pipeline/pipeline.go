// Package pipeline wires the localization stages, the processing engine
// and the packager into a single run.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"golang.org/x/sync/errgroup"

	"github.com/rkm/insar-pipeline/internal/asf"
	"github.com/rkm/insar-pipeline/internal/auxcal"
	"github.com/rkm/insar-pipeline/internal/cmr"
	"github.com/rkm/insar-pipeline/internal/config"
	"github.com/rkm/insar-pipeline/internal/dem"
	"github.com/rkm/insar-pipeline/internal/engine"
	"github.com/rkm/insar-pipeline/internal/footprint"
	"github.com/rkm/insar-pipeline/internal/orbit"
	"github.com/rkm/insar-pipeline/internal/product"
	"github.com/rkm/insar-pipeline/internal/provider"
	"github.com/rkm/insar-pipeline/internal/scene"
)

// Version is the software statement embedded in packaged products.
const Version = "0.3.0"

// Options are the per-run inputs from the command surface.
type Options struct {
	ReferenceIDs []string
	SecondaryIDs []string

	// Frame optionally constrains the product footprint.
	Frame *orb.Bound

	// WorkRoot is the directory run-scoped working directories are
	// created under.
	WorkRoot string

	// OutputDir receives the packaged product record.
	OutputDir string

	DryRun bool
	Params product.Params

	// Command is the invocation line recorded in the product attributes.
	Command string
}

// Pipeline owns the stage components of a run. Construct with New; the
// configuration and credentials are read once and immutable afterwards.
type Pipeline struct {
	cfg    *config.Config
	logger *slog.Logger

	scenes  *scene.Localizer
	orbits  *orbit.Localizer
	dem     *dem.Stager
	auxcal  *auxcal.Fetcher
	engine  *engine.Engine
	sink    product.Sink
	newSink func(dir string) product.Sink
}

func New(cfg *config.Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	dataFetcher := provider.NewFetcher("asf-data",
		cfg.Download.Timeout, cfg.Download.RatePerSecond, cfg.Download.MaxRetries).
		WithLogger(logger)
	if cfg.HasEarthdataCredentials() {
		dataFetcher = dataFetcher.WithBasicAuth(cfg.Earthdata.Username, cfg.Earthdata.Password)
	}

	searchers := []scene.Searcher{
		scene.NewASFSearcher(asf.NewClient(cfg.ASF.BaseURL, cfg.ASF.Timeout).WithLogger(logger)),
		scene.NewCMRSearcher(cmr.NewClient(cfg.CMR.BaseURL, cfg.CMR.Provider, cfg.CMR.Timeout).WithLogger(logger)),
	}

	var orbitSources []orbit.Source
	if cfg.Orbit.CDSEBaseURL != "" {
		cdseFetcher := provider.NewFetcher("cdse",
			cfg.Orbit.Timeout, cfg.Download.RatePerSecond, cfg.Download.MaxRetries).
			WithLogger(logger)
		if cfg.Orbit.CDSEToken != "" {
			cdseFetcher = cdseFetcher.WithBearerToken(cfg.Orbit.CDSEToken)
		}
		orbitSources = append(orbitSources, orbit.NewCDSESource(cfg.Orbit.CDSEBaseURL, cdseFetcher))
	}
	if cfg.Orbit.ASFBaseURL != "" {
		qcFetcher := provider.NewFetcher("asf-qc",
			cfg.Orbit.Timeout, cfg.Download.RatePerSecond, cfg.Download.MaxRetries).
			WithLogger(logger)
		orbitSources = append(orbitSources, orbit.NewASFQCSource(cfg.Orbit.ASFBaseURL, qcFetcher))
	}

	demFetcher := provider.NewFetcher("dem",
		cfg.DEM.Timeout, cfg.Download.RatePerSecond, cfg.Download.MaxRetries).
		WithLogger(logger)
	auxFetcher := provider.NewFetcher("auxcal",
		cfg.AuxCal.Timeout, cfg.Download.RatePerSecond, cfg.Download.MaxRetries).
		WithLogger(logger)

	return &Pipeline{
		cfg:    cfg,
		logger: logger,
		scenes: scene.NewLocalizer(searchers, dataFetcher, cfg.Download.MaxWorkers).
			WithLogger(logger),
		orbits: orbit.NewLocalizer(orbitSources...).WithLogger(logger),
		dem: dem.NewStager(dem.NewStore(cfg.DEM.StacBaseURL, demFetcher,
			cfg.DEM.PrimaryCollection, cfg.DEM.FallbackCollection)).WithLogger(logger),
		auxcal: auxcal.NewFetcher(map[string]string{
			"S1A": cfg.AuxCal.S1AURL,
			"S1B": cfg.AuxCal.S1BURL,
		}, auxFetcher).WithLogger(logger),
		engine:  engine.New(cfg.Engine.Command, cfg.Engine.Timeout),
		newSink: func(dir string) product.Sink { return &product.DirSink{Dir: dir} },
	}
}

// Run executes one complete pipeline run: resolve and stage scenes, derive
// the footprint, stage orbit, elevation and calibration data concurrently,
// invoke the engine and package the product. Any localization failure
// aborts before the engine launches. The returned bundle describes what
// was staged even for dry runs, where the engine stops after its geometry
// steps and no product is packaged.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*LocalizationBundle, error) {
	// Reject bad identifiers before any directory or provider work happens.
	for _, id := range append(append([]string{}, opts.ReferenceIDs...), opts.SecondaryIDs...) {
		if _, err := scene.ParseRef(id); err != nil {
			return nil, err
		}
	}

	runID := uuid.NewString()
	workDir := filepath.Join(opts.WorkRoot, runID)
	logger := p.logger.With(slog.String("run", runID))

	dirs := map[string]string{
		"slc":     filepath.Join(workDir, "slc"),
		"orbits":  filepath.Join(workDir, "orbits"),
		"dem":     filepath.Join(workDir, "dem"),
		"aux_cal": filepath.Join(workDir, "aux_cal"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating working directory: %w", err)
		}
	}

	logger.InfoContext(ctx, "localizing scenes",
		slog.Int("reference", len(opts.ReferenceIDs)),
		slog.Int("secondary", len(opts.SecondaryIDs)))
	scenes, err := p.scenes.Localize(ctx, opts.ReferenceIDs, opts.SecondaryIDs, dirs["slc"], opts.DryRun)
	if err != nil {
		return nil, err
	}

	fp, err := footprint.Resolve(
		geometries(scenes.Reference), geometries(scenes.Secondary), opts.Frame)
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "footprint resolved",
		slog.Any("extent", footprint.Extent(fp.Product)),
		slog.Bool("wrapsAntimeridian", fp.WrapsAntimeridian))

	bundle := &LocalizationBundle{
		RunID:          runID,
		WorkDir:        workDir,
		Reference:      scenes.Reference,
		Secondary:      scenes.Secondary,
		ReferencePaths: scenes.ReferencePaths,
		SecondaryPaths: scenes.SecondaryPaths,
		Footprint:      fp,
		AuxCalDir:      dirs["aux_cal"],
		Params:         opts.Params,
	}

	// Orbit, elevation and calibration staging only depend on the scene
	// metadata and the footprint, never on each other.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		orbits, err := p.orbits.Localize(gctx, bundle.Scenes(), dirs["orbits"], opts.DryRun)
		if err != nil {
			return err
		}
		bundle.Orbits = orbits
		return nil
	})
	g.Go(func() error {
		plan, err := p.dem.Stage(gctx, fp.DEM, dirs["dem"], opts.DryRun)
		if err != nil {
			return err
		}
		bundle.DEM = plan
		return nil
	})
	g.Go(func() error {
		return p.auxcal.Localize(gctx, bundle.Platforms(), dirs["aux_cal"], opts.DryRun)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := p.engine.Run(ctx, p.engineConfig(bundle, dirs), workDir, opts.DryRun); err != nil {
		return bundle, err
	}
	if opts.DryRun {
		logger.InfoContext(ctx, "dry run complete, skipping packaging")
		return bundle, nil
	}

	id, err := product.Derive(bundle.Reference, bundle.Secondary, bundle.Extent(), opts.Params)
	if err != nil {
		return bundle, err
	}
	packager := &product.Packager{Software: "insar-pipeline " + Version}
	pkg := packager.Assemble(id, product.Inputs{
		Reference: bundle.Reference,
		Secondary: bundle.Secondary,
		Orbits:    bundle.Orbits,
		DEM:       bundle.DEM,
		Extent:    bundle.Extent(),
		Params:    opts.Params,
		Command:   opts.Command,
	})

	sink := p.sink
	if sink == nil {
		sink = p.newSink(opts.OutputDir)
	}
	if err := sink.Write(ctx, pkg); err != nil {
		return bundle, err
	}
	logger.InfoContext(ctx, "product packaged", slog.String("id", id.ID))
	return bundle, nil
}

func (p *Pipeline) engineConfig(b *LocalizationBundle, dirs map[string]string) engine.Config {
	rangeLooks, azimuthLooks := looks(b.Params.OutputResolution)
	return engine.Config{
		ReferenceSafes:          b.ReferencePaths,
		SecondarySafes:          b.SecondaryPaths,
		OrbitDir:                dirs["orbits"],
		AuxCalDir:               dirs["aux_cal"],
		DEMPath:                 filepath.Join(dirs["dem"], dem.PlanFileName),
		Extent:                  b.Extent(),
		Swaths:                  []int{1, 2, 3},
		EstimateIonosphereDelay: b.Params.EstimateIonosphereDelay,
		DoUnwrap:                true,
		DoDenseOffsets:          b.Params.DoDenseOffsets,
		ESDCoherenceThreshold:   b.Params.ESDCoherenceThreshold,
		GoldsteinFilterPower:    b.Params.GoldsteinFilterPower,
		RangeLooks:              rangeLooks,
		AzimuthLooks:            azimuthLooks,
	}
}

// looks maps output resolution to multilook factors.
func looks(resolution int) (rangeLooks, azimuthLooks int) {
	if resolution == 30 {
		return 7, 3
	}
	return 19, 7
}

func geometries(group []scene.Metadata) []orb.Polygon {
	out := make([]orb.Polygon, len(group))
	for i, m := range group {
		out[i] = m.Geometry
	}
	return out
}
