package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// CacheKey identifies one cached listings API response.
type CacheKey struct {
	// Endpoint is the API path (e.g. "/v1/listings")
	Endpoint string

	// QueryParams are the query parameters of the request, including the
	// pagination offset. Two batches of the same search differ only here.
	QueryParams url.Values
}

// String generates a deterministic cache key string.
// Format: listings:endpoint:param1=val1:param2=val2
//
// Example:
//
//	listings:v1/listings:limit=20:skip=40:sort=rating
func (k CacheKey) String() string {
	parts := []string{"listings"}

	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	// Query params sorted for determinism
	if len(k.QueryParams) > 0 {
		keys := make([]string, 0, len(k.QueryParams))
		for key := range k.QueryParams {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, k.QueryParams.Get(key)))
		}
	}

	return strings.Join(parts, ":")
}
