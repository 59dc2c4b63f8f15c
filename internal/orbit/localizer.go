package orbit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/rkm/insar-pipeline/internal/provider"
	"github.com/rkm/insar-pipeline/internal/scene"
)

// Localizer stages orbit ephemeris files for a set of scenes, preferring
// precise orbits and falling through ranked sources before downgrading to
// restituted ones.
type Localizer struct {
	sources []Source
	logger  *slog.Logger
}

func NewLocalizer(sources ...Source) *Localizer {
	return &Localizer{
		sources: sources,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func (l *Localizer) WithLogger(logger *slog.Logger) *Localizer {
	l.logger = logger
	return l
}

// Localize resolves and downloads one orbit file per scene, keyed by scene
// name. Scenes from the same platform whose windows fall inside an already
// resolved file share that file instead of triggering another download.
// When dryRun is set files are resolved but not transferred.
func (l *Localizer) Localize(ctx context.Context, scenes []scene.Metadata, destDir string, dryRun bool) (map[string]*File, error) {
	staged := make(map[string]*File, len(scenes))
	var resolved []*File

next:
	for _, m := range scenes {
		for _, f := range resolved {
			if f.Platform == m.Platform && f.Covers(m.Start, m.Stop) {
				staged[m.SceneName] = f
				continue next
			}
		}

		f, err := l.resolve(ctx, m.Platform, m.Start, m.Stop)
		if err != nil {
			return nil, fmt.Errorf("scene %s: %w", m.SceneName, err)
		}
		if err := l.stage(ctx, f, destDir, dryRun); err != nil {
			return nil, fmt.Errorf("scene %s: staging %s: %w", m.SceneName, f.Name, err)
		}
		resolved = append(resolved, f)
		staged[m.SceneName] = f
	}
	return staged, nil
}

// resolve walks orbit types in preference order and, within each type, the
// ranked sources. Credential rejections abort immediately since retrying
// other providers with the same identity would only mask the failure.
func (l *Localizer) resolve(ctx context.Context, platform string, start, stop time.Time) (*File, error) {
	for _, typ := range Types {
		for _, src := range l.sources {
			f, err := src.Find(ctx, platform, typ, start, stop)
			if err == nil {
				l.logger.DebugContext(ctx, "resolved orbit file",
					slog.String("name", f.Name),
					slog.String("provider", src.Name()),
					slog.String("type", string(typ)))
				return f, nil
			}
			if errors.Is(err, provider.ErrCredential) {
				return nil, err
			}
			l.logger.DebugContext(ctx, "orbit source miss",
				slog.String("provider", src.Name()),
				slog.String("type", string(typ)),
				slog.String("error", err.Error()))
		}
	}
	return nil, fmt.Errorf("%s orbit covering %s to %s: %w",
		platform, start.Format(time.RFC3339), stop.Format(time.RFC3339), ErrUnavailable)
}

func (l *Localizer) stage(ctx context.Context, f *File, destDir string, dryRun bool) error {
	dest := filepath.Join(destDir, f.Name)
	if info, err := os.Stat(dest); err == nil && info.Size() > 0 {
		l.logger.DebugContext(ctx, "reusing staged orbit file", slog.String("path", dest))
		f.LocalPath = dest
		return nil
	}
	if dryRun {
		f.LocalPath = dest
		return nil
	}
	src := l.source(f.Provider)
	if src == nil {
		return fmt.Errorf("unknown orbit provider %q", f.Provider)
	}
	path, err := src.Fetch(ctx, f, destDir)
	if err != nil {
		return err
	}
	f.LocalPath = path
	return nil
}

func (l *Localizer) source(name string) Source {
	for _, s := range l.sources {
		if s.Name() == name {
			return s
		}
	}
	return nil
}
