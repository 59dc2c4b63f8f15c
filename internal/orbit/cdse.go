package orbit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"github.com/rkm/insar-pipeline/internal/provider"
)

// CDSESource queries the Copernicus Data Space Ecosystem OData catalogue
// for orbit ephemeris products.
type CDSESource struct {
	baseURL string
	fetcher *provider.Fetcher
}

func NewCDSESource(baseURL string, fetcher *provider.Fetcher) *CDSESource {
	return &CDSESource{baseURL: baseURL, fetcher: fetcher}
}

func (s *CDSESource) Name() string { return "cdse" }

type odataResponse struct {
	Value []odataProduct `json:"value"`
}

type odataProduct struct {
	ID   string `json:"Id"`
	Name string `json:"Name"`
}

const odataTimeLayout = "2006-01-02T15:04:05.000Z"

// Find asks the catalogue for the newest product of the requested type
// whose content window contains the acquisition span. The OData ContentDate
// of AUX_POEORB and AUX_RESORB products is the validity window, so the
// containment filter happens server side and the name is re-checked locally.
func (s *CDSESource) Find(ctx context.Context, platform string, typ Type, start, stop time.Time) (*File, error) {
	filter := fmt.Sprintf(
		"startswith(Name,'%s_OPER_%s') and ContentDate/Start lt %s and ContentDate/End gt %s",
		platform, string(typ),
		start.UTC().Format(odataTimeLayout),
		stop.UTC().Format(odataTimeLayout),
	)

	q := url.Values{}
	q.Set("$filter", filter)
	q.Set("$orderby", "ContentDate/Start desc")
	q.Set("$top", "1")

	body, err := s.fetcher.Get(ctx, s.baseURL+"/Products?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("cdse query: %w", err)
	}

	var resp odataResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("cdse query: decoding response: %w", err)
	}
	if len(resp.Value) == 0 {
		return nil, fmt.Errorf("cdse: no %s for %s covering %s: %w",
			string(typ), platform, start.Format(time.RFC3339), provider.ErrNotFound)
	}

	prod := resp.Value[0]
	f, err := ParseFileName(prod.Name)
	if err != nil {
		return nil, fmt.Errorf("cdse: product %s: %w", prod.ID, err)
	}
	if !f.Covers(start, stop) {
		return nil, fmt.Errorf("cdse: %s does not cover acquisition window: %w", prod.Name, provider.ErrNotFound)
	}
	f.URL = fmt.Sprintf("%s/Products(%s)/$value", s.baseURL, prod.ID)
	f.Provider = s.Name()
	return f, nil
}

// Fetch downloads through the OData $value endpoint, whose URL carries the
// product id rather than the file name.
func (s *CDSESource) Fetch(ctx context.Context, f *File, destDir string) (string, error) {
	dest := filepath.Join(destDir, f.Name)
	if err := s.fetcher.DownloadAs(ctx, f.URL, dest); err != nil {
		return "", err
	}
	return dest, nil
}
