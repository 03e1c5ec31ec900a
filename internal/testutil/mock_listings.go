// Package testutil provides testing utilities for the listings client.
package testutil

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/stayseek/listings-client/pkg/listing"
)

// MockListingsAPI is a configurable mock of the listings API for testing.
// It serves a seeded dataset through /v1/listings with sorting, filtering,
// and skip/limit paging, plus per-listing detail at /v1/listings/{id}.
type MockListingsAPI struct {
	server   *httptest.Server
	mu       sync.RWMutex
	listings []listing.Listing
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Quota headers returned with every response
	QuotaRemaining int
	QuotaResetSecs int

	// Tracking
	RequestCount      int
	ConditionalCount  int
	LastRequestHeader http.Header
}

// NewMockListingsAPI creates a mock server seeded with the given listings.
// Pass nil to use a generated default dataset.
func NewMockListingsAPI(listings []listing.Listing) *MockListingsAPI {
	if listings == nil {
		listings = GenerateListings(100)
	}

	mock := &MockListingsAPI{
		listings:       listings,
		handlers:       make(map[string]func(w http.ResponseWriter, r *http.Request)),
		QuotaRemaining: 100,
		QuotaResetSecs: 60,
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestHeader = r.Header.Clone()
		if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
			mock.ConditionalCount++
		}
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockListingsAPI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockListingsAPI) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockListingsAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.ConditionalCount = 0
	m.LastRequestHeader = nil
}

// SetHandler overrides the handler for a specific path. Use it to inject
// failures for individual batches or listings.
func (m *MockListingsAPI) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetQuota updates the quota headers returned with subsequent responses.
func (m *MockListingsAPI) SetQuota(remaining, resetSecs int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.QuotaRemaining = remaining
	m.QuotaResetSecs = resetSecs
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockListingsAPI) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetConditionalCount returns the number of conditional requests received.
func (m *MockListingsAPI) GetConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ConditionalCount
}

// DefaultHandler exposes the built-in dataset handler so failure-injecting
// wrappers can fall back to it.
func (m *MockListingsAPI) DefaultHandler() func(w http.ResponseWriter, r *http.Request) {
	return m.defaultHandler
}

func (m *MockListingsAPI) writeQuotaHeaders(w http.ResponseWriter) {
	m.mu.RLock()
	remaining, reset := m.QuotaRemaining, m.QuotaResetSecs
	m.mu.RUnlock()

	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.Itoa(reset))
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
}

func (m *MockListingsAPI) defaultHandler(w http.ResponseWriter, r *http.Request) {
	m.writeQuotaHeaders(w)

	switch {
	case r.URL.Path == "/v1/listings":
		m.handleSearch(w, r)
	case strings.HasPrefix(r.URL.Path, "/v1/listings/"):
		m.handleDetail(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error": "not found"}`)
	}
}

func (m *MockListingsAPI) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	m.mu.RLock()
	results := make([]listing.Listing, len(m.listings))
	copy(results, m.listings)
	m.mu.RUnlock()

	if filter := strings.ToLower(q.Get("q")); filter != "" {
		filtered := results[:0]
		for _, l := range results {
			haystack := strings.ToLower(l.Title + " " + l.City + " " + l.Country)
			if strings.Contains(haystack, filter) {
				filtered = append(filtered, l)
			}
		}
		results = filtered
	}

	sortKey := q.Get("sort")
	desc := q.Get("order") == "desc"
	sort.SliceStable(results, func(i, j int) bool {
		if desc {
			i, j = j, i
		}
		switch sortKey {
		case "price":
			return results[i].PricePerNight < results[j].PricePerNight
		case "title":
			return results[i].Title < results[j].Title
		default:
			return results[i].Rating < results[j].Rating
		}
	})

	skip, _ := strconv.Atoi(q.Get("skip"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 {
		limit = listing.DefaultPageSize
	}
	if skip < 0 {
		skip = 0
	}
	if skip > len(results) {
		skip = len(results)
	}
	end := skip + limit
	if end > len(results) {
		end = len(results)
	}
	page := results[skip:end]

	body, _ := json.Marshal(page)
	etag := fmt.Sprintf(`"%x"`, sha256.Sum256(body))

	if r.Header.Get("If-None-Match") == etag {
		w.Header().Set("Expires", time.Now().Add(5*time.Minute).Format(http.TimeFormat))
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Expires", time.Now().Add(5*time.Minute).Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (m *MockListingsAPI) handleDetail(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/v1/listings/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": "invalid listing id"}`)
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, l := range m.listings {
		if l.ID == id {
			body, _ := json.Marshal(l)
			w.Header().Set("Expires", time.Now().Add(5*time.Minute).Format(http.TimeFormat))
			w.WriteHeader(http.StatusOK)
			w.Write(body)
			return
		}
	}

	w.WriteHeader(http.StatusNotFound)
	fmt.Fprint(w, `{"error": "listing not found"}`)
}

// GenerateListings produces a deterministic dataset of n listings for tests.
func GenerateListings(n int) []listing.Listing {
	cities := []struct {
		city    string
		country string
	}{
		{"Amsterdam", "Netherlands"},
		{"Lisbon", "Portugal"},
		{"Kyoto", "Japan"},
		{"Valparaiso", "Chile"},
		{"Tbilisi", "Georgia"},
	}

	listings := make([]listing.Listing, n)
	for i := 0; i < n; i++ {
		loc := cities[i%len(cities)]
		listings[i] = listing.Listing{
			ID:            int64(i + 1),
			Title:         fmt.Sprintf("Listing %d in %s", i+1, loc.city),
			City:          loc.city,
			Country:       loc.country,
			PricePerNight: float64(40 + (i*7)%160),
			Rating:        3.0 + float64(i%21)/10.0,
			ReviewCount:   5 + (i*13)%200,
			Beds:          1 + i%4,
			MaxGuests:     2 + i%6,
			Amenities:     []string{"wifi", "kitchen"},
			ImageURL:      fmt.Sprintf("https://img.stayseek.example/listings/%d.jpg", i+1),
			Description:   fmt.Sprintf("A stay in %s with room for %d guests.", loc.city, 2+i%6),
		}
	}
	return listings
}

// FailNTimesHandler returns a handler that responds with the given status
// for the first n requests, then delegates to fallback.
func FailNTimesHandler(n int, status int, fallback func(w http.ResponseWriter, r *http.Request)) func(w http.ResponseWriter, r *http.Request) {
	var mu sync.Mutex
	failures := 0
	return func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		shouldFail := failures < n
		if shouldFail {
			failures++
		}
		mu.Unlock()

		if shouldFail {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(status)
			fmt.Fprint(w, `{"error": "injected failure"}`)
			return
		}
		fallback(w, r)
	}
}
