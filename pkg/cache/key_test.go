package cache

import (
	"net/url"
	"testing"
)

func TestCacheKey_String(t *testing.T) {
	tests := []struct {
		name     string
		key      CacheKey
		expected string
	}{
		{
			name:     "endpoint only",
			key:      CacheKey{Endpoint: "/v1/listings"},
			expected: "listings:v1/listings",
		},
		{
			name:     "empty endpoint",
			key:      CacheKey{},
			expected: "listings",
		},
		{
			name: "query params sorted",
			key: CacheKey{
				Endpoint: "/v1/listings",
				QueryParams: url.Values{
					"sort":  []string{"rating"},
					"limit": []string{"20"},
					"skip":  []string{"40"},
				},
			},
			expected: "listings:v1/listings:limit=20:skip=40:sort=rating",
		},
		{
			name: "trailing slash normalized",
			key: CacheKey{
				Endpoint:    "/v1/listings/",
				QueryParams: url.Values{"q": []string{"beach"}},
			},
			expected: "listings:v1/listings:q=beach",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.key.String()
			if result != tt.expected {
				t.Errorf("String() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestCacheKey_String_Deterministic(t *testing.T) {
	key := CacheKey{
		Endpoint: "/v1/listings",
		QueryParams: url.Values{
			"order": []string{"desc"},
			"sort":  []string{"price"},
			"limit": []string{"10"},
		},
	}

	first := key.String()
	for i := 0; i < 100; i++ {
		if got := key.String(); got != first {
			t.Fatalf("String() not deterministic: %q != %q", got, first)
		}
	}
}
