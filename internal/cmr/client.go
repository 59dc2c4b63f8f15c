// Package cmr provides a client for NASA's Common Metadata Repository (CMR),
// used as the fallback scene-search provider when the ASF API is unavailable.
package cmr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultProvider is the default CMR provider for ASF-hosted data.
	DefaultProvider = "ASF"

	// DefaultPageSize is the default number of results per page.
	DefaultPageSize = 250
)

// Client handles communication with the CMR API.
type Client struct {
	baseURL    string
	provider   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new CMR API client.
func NewClient(baseURL, provider string, timeout time.Duration) *Client {
	if provider == "" {
		provider = DefaultProvider
	}

	return &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		provider: provider,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: slog.Default(),
	}
}

// WithLogger sets a custom logger for the client.
func (c *Client) WithLogger(logger *slog.Logger) *Client {
	c.logger = logger
	return c
}

// Granules resolves scene names against the CMR granule search and returns
// translated records. Scene names are matched via readable_granule_name;
// -SLC suffixed IDs are normalized the way CMR stores them.
func (c *Client) Granules(ctx context.Context, sceneNames []string) ([]Granule, error) {
	values := url.Values{}
	values.Set("provider", c.provider)
	values.Set("page_size", fmt.Sprintf("%d", DefaultPageSize))
	for _, name := range sceneNames {
		values.Add("readable_granule_name[]", name+"-SLC")
	}

	searchURL := c.baseURL + "/granules.umm_json?" + values.Encode()

	c.logger.DebugContext(ctx, "executing CMR granule search",
		slog.String("url", searchURL),
		slog.Int("granule_count", len(sceneNames)),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.nasa.cmr.umm_results+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "CMR request failed",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("CMR request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("CMR returned status %d: %s", resp.StatusCode, string(body))
	}

	var result UMMSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode CMR response: %w", err)
	}

	granules := make([]Granule, 0, len(result.Items))
	for i := range result.Items {
		g, err := translateGranule(&result.Items[i].UMM)
		if err != nil {
			c.logger.WarnContext(ctx, "skipping untranslatable CMR granule",
				slog.String("granule_ur", result.Items[i].UMM.GranuleUR),
				slog.String("error", err.Error()),
			)
			continue
		}
		granules = append(granules, *g)
	}

	c.logger.DebugContext(ctx, "CMR search completed",
		slog.Int("hits", result.Hits),
		slog.Int("translated", len(granules)),
	)

	return granules, nil
}
