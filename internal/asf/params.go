package asf

import (
	"net/url"
	"strings"
)

// SearchParams represents parameters for ASF granule queries. Scenes are
// resolved by exact product name, so the query surface is the granule list
// plus the response format.
type SearchParams struct {
	GranuleList []string // exact granule names
	Output      string   // response format (default: "geojson")
}

// ToQueryString converts SearchParams to a URL query string.
func (p *SearchParams) ToQueryString() string {
	values := url.Values{}

	if len(p.GranuleList) > 0 {
		values.Set("granule_list", strings.Join(p.GranuleList, ","))
	}

	if p.Output != "" {
		values.Set("output", p.Output)
	} else {
		values.Set("output", "geojson")
	}

	return values.Encode()
}
