package orbit

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/rkm/insar-pipeline/internal/provider"
)

// ASFQCSource scrapes the ASF quality-control mirror's directory listings
// for orbit ephemeris files. The mirror serves plain HTML indexes at
// /aux_poeorb/ and /aux_resorb/ with no authentication.
type ASFQCSource struct {
	baseURL string
	fetcher *provider.Fetcher
}

func NewASFQCSource(baseURL string, fetcher *provider.Fetcher) *ASFQCSource {
	return &ASFQCSource{baseURL: baseURL, fetcher: fetcher}
}

func (s *ASFQCSource) Name() string { return "asf-qc" }

var orbitNameRe = regexp.MustCompile(
	`S1[AB]_OPER_AUX_(?:POEORB|RESORB)_OPOD_\d{8}T\d{6}_V\d{8}T\d{6}_\d{8}T\d{6}\.EOF`)

func indexDir(typ Type) string {
	return strings.ToLower(strings.TrimPrefix(string(typ), "AUX_"))
}

// Find downloads the index page for the orbit type's directory and picks
// the most recently generated file that covers the acquisition span. File
// names share a fixed-width layout, so a reverse lexical sort puts the
// newest generation first.
func (s *ASFQCSource) Find(ctx context.Context, platform string, typ Type, start, stop time.Time) (*File, error) {
	dir := "aux_" + indexDir(typ)
	body, err := s.fetcher.Get(ctx, s.baseURL+"/"+dir+"/")
	if err != nil {
		return nil, fmt.Errorf("asf-qc index %s: %w", dir, err)
	}

	names := orbitNameRe.FindAllString(string(body), -1)
	seen := make(map[string]struct{}, len(names))
	unique := names[:0]
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		unique = append(unique, n)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(unique)))

	for _, name := range unique {
		if !strings.HasPrefix(name, platform) {
			continue
		}
		f, err := ParseFileName(name)
		if err != nil || f.Type != typ {
			continue
		}
		if !f.Covers(start, stop) {
			continue
		}
		f.URL = s.baseURL + "/" + dir + "/" + name
		f.Provider = s.Name()
		return f, nil
	}
	return nil, fmt.Errorf("asf-qc: no %s for %s covering %s: %w",
		string(typ), platform, start.Format(time.RFC3339), provider.ErrNotFound)
}

func (s *ASFQCSource) Fetch(ctx context.Context, f *File, destDir string) (string, error) {
	return s.fetcher.Download(ctx, f.URL, destDir)
}
