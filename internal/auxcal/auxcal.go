// Package auxcal stages Sentinel-1 instrument auxiliary calibration files,
// which the processing engine needs for antenna-pattern correction. The
// files ship as one tar.gz archive per platform.
package auxcal

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/rkm/insar-pipeline/internal/provider"
)

// ErrUnknownPlatform is returned for platforms without a registered
// calibration archive.
var ErrUnknownPlatform = errors.New("no auxiliary calibration archive for platform")

// Fetcher downloads and unpacks calibration archives from a per-platform
// registry.
type Fetcher struct {
	archives map[string]string
	fetcher  *provider.Fetcher
	logger   *slog.Logger
}

// NewFetcher builds a Fetcher over a platform to archive-URL registry, e.g.
// {"S1A": ..., "S1B": ...}.
func NewFetcher(archives map[string]string, fetcher *provider.Fetcher) *Fetcher {
	return &Fetcher{
		archives: archives,
		fetcher:  fetcher,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func (f *Fetcher) WithLogger(logger *slog.Logger) *Fetcher {
	f.logger = logger
	return f
}

// Localize stages calibration files for every distinct platform into
// destDir, one subdirectory per platform. A platform whose subdirectory
// already holds files is skipped, so re-runs over a shared directory do not
// re-download. In dry-run mode only the registry lookup happens.
func (f *Fetcher) Localize(ctx context.Context, platforms []string, destDir string, dryRun bool) error {
	seen := make(map[string]struct{}, len(platforms))
	for _, platform := range platforms {
		if _, ok := seen[platform]; ok {
			continue
		}
		seen[platform] = struct{}{}

		url, ok := f.archives[platform]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownPlatform, platform)
		}
		if dryRun {
			continue
		}

		dir := filepath.Join(destDir, platform)
		if populated(dir) {
			f.logger.DebugContext(ctx, "calibration files already staged",
				slog.String("platform", platform), slog.String("dir", dir))
			continue
		}
		if err := f.stage(ctx, url, dir); err != nil {
			return fmt.Errorf("calibration archive for %s: %w", platform, err)
		}
	}
	return nil
}

func populated(dir string) bool {
	entries, err := os.ReadDir(dir)
	return err == nil && len(entries) > 0
}

func (f *Fetcher) stage(ctx context.Context, url, dir string) error {
	body, err := f.fetcher.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := extract(body, dir); err != nil {
		// A half-extracted directory must not satisfy the populated
		// check on the next run.
		os.RemoveAll(dir)
		return err
	}
	f.logger.InfoContext(ctx, "calibration files staged", slog.String("dir", dir))
	return nil
}

// extract unpacks the archive, sniffing the container format. Providers
// have shipped calibration bundles both as tar.gz and as zip.
func extract(archive []byte, dir string) error {
	if bytes.HasPrefix(archive, []byte("PK")) {
		return extractZip(archive, dir)
	}
	return extractTarGz(archive, dir)
}

func extractZip(archive []byte, dir string) error {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return fmt.Errorf("reading archive: %w", err)
	}
	for _, zf := range zr.File {
		dest, err := securePath(dir, zf.Name)
		if err != nil {
			return err
		}
		if zf.FileInfo().IsDir() {
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		r, err := zf.Open()
		if err != nil {
			return fmt.Errorf("archive entry %s: %w", zf.Name, err)
		}
		err = writeEntry(dest, r)
		r.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func extractTarGz(archive []byte, dir string) error {
	gz, err := gzip.NewReader(bytes.NewReader(archive))
	if err != nil {
		return fmt.Errorf("reading archive: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading archive: %w", err)
		}

		dest, err := securePath(dir, hdr.Name)
		if err != nil {
			return err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return err
			}
			if err := writeEntry(dest, tr); err != nil {
				return err
			}
		}
	}
}

// securePath rejects entries that would escape the extraction directory.
func securePath(dir, name string) (string, error) {
	dest := filepath.Join(dir, name)
	if !strings.HasPrefix(dest, filepath.Clean(dir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry %q escapes extraction directory", name)
	}
	return dest, nil
}

func writeEntry(dest string, r io.Reader) error {
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
