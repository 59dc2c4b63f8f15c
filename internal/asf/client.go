// Package asf provides a client for the ASF (Alaska Satellite Facility)
// search API, the primary scene-archive provider.
package asf

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Client handles communication with the ASF Search API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new ASF API client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
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

// Search performs a search against the ASF API.
func (c *Client) Search(ctx context.Context, params SearchParams) (*GeoJSONResponse, error) {
	searchURL, err := c.buildSearchURL(params)
	if err != nil {
		return nil, fmt.Errorf("failed to build search URL: %w", err)
	}

	c.logger.DebugContext(ctx, "executing ASF search",
		slog.String("url", searchURL),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "insar-pipeline/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "ASF API request failed",
			slog.String("error", err.Error()),
			slog.String("url", searchURL),
		)
		return nil, fmt.Errorf("ASF API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.logger.ErrorContext(ctx, "ASF API returned non-200 status",
			slog.Int("status_code", resp.StatusCode),
			slog.String("response_body", string(body)),
		)
		return nil, fmt.Errorf("ASF API returned status %d: %s", resp.StatusCode, string(body))
	}

	var result GeoJSONResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		c.logger.ErrorContext(ctx, "failed to decode ASF response",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to decode ASF response: %w", err)
	}

	c.logger.DebugContext(ctx, "ASF search completed",
		slog.Int("feature_count", len(result.Features)),
	)

	return &result, nil
}

// Granules resolves a list of scene names via a granule_list query and
// returns only SLC products. ASF may return multiple products per scene
// (e.g. METADATA_SLC alongside SLC), so results are filtered by processing
// level the way downstream processing requires.
func (c *Client) Granules(ctx context.Context, sceneNames []string) ([]Feature, error) {
	params := SearchParams{
		GranuleList: sceneNames,
		Output:      "geojson",
	}

	result, err := c.Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to search for granules: %w", err)
	}

	features := make([]Feature, 0, len(sceneNames))
	for i := range result.Features {
		if result.Features[i].Properties.ProcessingLevel == "SLC" {
			features = append(features, result.Features[i])
		}
	}

	c.logger.DebugContext(ctx, "granules resolved",
		slog.Int("requested", len(sceneNames)),
		slog.Int("resolved", len(features)),
	)

	return features, nil
}

// buildSearchURL constructs the full search URL with query parameters.
func (c *Client) buildSearchURL(params SearchParams) (string, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}

	base.Path = "/services/search/param"
	base.RawQuery = params.ToQueryString()

	return base.String(), nil
}
