package scene

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/paulmach/orb"
	"golang.org/x/sync/errgroup"

	"github.com/rkm/insar-pipeline/internal/footprint"
	"github.com/rkm/insar-pipeline/internal/provider"
)

// Localizer resolves scene metadata through ranked search providers and
// stages the scene data products into the run's working directory.
type Localizer struct {
	searchers  []Searcher
	fetcher    *provider.Fetcher
	maxWorkers int
	logger     *slog.Logger
}

// NewLocalizer creates a Localizer. Searchers are tried in order; the first
// provider that resolves the full scene list wins.
func NewLocalizer(searchers []Searcher, fetcher *provider.Fetcher, maxWorkers int) *Localizer {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &Localizer{
		searchers:  searchers,
		fetcher:    fetcher,
		maxWorkers: maxWorkers,
		logger:     slog.Default(),
	}
}

// WithLogger sets a custom logger for the localizer.
func (l *Localizer) WithLogger(logger *slog.Logger) *Localizer {
	l.logger = logger
	return l
}

// Result aggregates the localized scenes of a run.
type Result struct {
	Reference      []Metadata
	Secondary      []Metadata
	ReferencePaths []string
	SecondaryPaths []string
}

// Localize resolves both scene groups, validates that they form a coherent
// interferometric pair, and downloads the data products into destDir.
// With dryRun set the byte transfer is skipped but metadata is still
// resolved and validated, and the would-be local paths are returned.
func (l *Localizer) Localize(ctx context.Context, referenceIDs, secondaryIDs []string, destDir string, dryRun bool) (*Result, error) {
	reference, err := l.resolve(ctx, referenceIDs)
	if err != nil {
		return nil, fmt.Errorf("reference group: %w", err)
	}
	secondary, err := l.resolve(ctx, secondaryIDs)
	if err != nil {
		return nil, fmt.Errorf("secondary group: %w", err)
	}

	if err := validateGroups(reference, secondary); err != nil {
		return nil, err
	}

	res := &Result{
		Reference:      reference,
		Secondary:      secondary,
		ReferencePaths: make([]string, len(reference)),
		SecondaryPaths: make([]string, len(secondary)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.maxWorkers)

	download := func(m Metadata, paths []string, i int) {
		g.Go(func() error {
			dest := filepath.Join(destDir, m.FileName)
			if dryRun {
				paths[i] = dest
				return nil
			}
			path, err := l.fetcher.DownloadVerified(gctx, m.URL, destDir, m.MD5Sum)
			if err != nil {
				return fmt.Errorf("download of %s failed: %w", m.SceneName, err)
			}
			paths[i] = path
			l.logger.InfoContext(gctx, "scene staged",
				slog.String("scene", m.SceneName),
				slog.String("path", path),
			)
			return nil
		})
	}

	for i, m := range reference {
		download(m, res.ReferencePaths, i)
	}
	for i, m := range secondary {
		download(m, res.SecondaryPaths, i)
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return res, nil
}

// resolve tries each search provider in rank order until one returns a record
// for every requested scene.
func (l *Localizer) resolve(ctx context.Context, ids []string) ([]Metadata, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: empty scene list", ErrResolution)
	}

	var lastErr error
	for _, s := range l.searchers {
		records, err := s.Granules(ctx, ids)
		if err != nil {
			l.logger.WarnContext(ctx, "search provider failed, trying next",
				slog.String("provider", s.Name()),
				slog.String("error", err.Error()),
			)
			lastErr = err
			continue
		}

		byName := make(map[string]Metadata, len(records))
		for _, r := range records {
			byName[r.SceneName] = r
		}

		var missing []string
		ordered := make([]Metadata, 0, len(ids))
		for _, id := range ids {
			m, ok := byName[id]
			if !ok {
				missing = append(missing, id)
				continue
			}
			ordered = append(ordered, m)
		}

		if len(missing) > 0 {
			l.logger.WarnContext(ctx, "scenes missing from provider catalog",
				slog.String("provider", s.Name()),
				slog.String("missing", strings.Join(missing, ",")),
			)
			lastErr = fmt.Errorf("%w: %s (provider %s)", ErrResolution, strings.Join(missing, ", "), s.Name())
			continue
		}

		return ordered, nil
	}

	if lastErr == nil {
		lastErr = ErrResolution
	}
	return nil, lastErr
}

// validateGroups checks that the two scene groups form a valid
// interferometric input: each group is a connected swath, flight directions
// and tracks agree, and the reference epoch postdates the secondary.
func validateGroups(reference, secondary []Metadata) error {
	for name, group := range map[string][]Metadata{
		"reference": reference,
		"secondary": secondary,
	} {
		if !footprint.Connected(geometries(group)) {
			return fmt.Errorf("%w: %s scenes do not form a connected swath", ErrGeometryInconsistency, name)
		}
	}

	dirs := map[string]bool{}
	for _, m := range append(append([]Metadata{}, reference...), secondary...) {
		if m.FlightDirection != "" {
			dirs[m.FlightDirection] = true
		}
	}
	if len(dirs) > 1 {
		return fmt.Errorf("%w: mixed flight directions %v", ErrGeometryInconsistency, keys(dirs))
	}

	if !sameTracks(reference, secondary) {
		return fmt.Errorf("%w: reference and secondary tracks differ", ErrGeometryInconsistency)
	}

	// Interferogram convention: the reference epoch is the later acquisition.
	refStart := reference[0].Start
	for _, m := range reference[1:] {
		if m.Start.Before(refStart) {
			refStart = m.Start
		}
	}
	secStop := secondary[0].Stop
	for _, m := range secondary[1:] {
		if m.Stop.After(secStop) {
			secStop = m.Stop
		}
	}
	if !refStart.After(secStop) {
		return fmt.Errorf("%w: reference scenes must be acquired after secondary scenes", ErrGeometryInconsistency)
	}

	return nil
}

// geometries extracts the footprint polygons of a group.
func geometries(group []Metadata) []orb.Polygon {
	out := make([]orb.Polygon, 0, len(group))
	for _, m := range group {
		out = append(out, m.Geometry)
	}
	return out
}

func sameTracks(reference, secondary []Metadata) bool {
	ref := trackSet(reference)
	sec := trackSet(secondary)
	if len(ref) != len(sec) {
		return false
	}
	for t := range ref {
		if !sec[t] {
			return false
		}
	}
	return true
}

func trackSet(group []Metadata) map[int]bool {
	set := make(map[int]bool, len(group))
	for _, m := range group {
		set[m.PathNumber] = true
	}
	return set
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
