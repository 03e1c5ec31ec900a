//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/stayseek/listings-client/internal/testutil"
	"github.com/stayseek/listings-client/pkg/cache"
	"github.com/stayseek/listings-client/pkg/client"
	"github.com/stayseek/listings-client/pkg/listing"
	"github.com/stayseek/listings-client/pkg/pager"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		redisClient.Close()
		container.Terminate(ctx)
	}

	return redisClient, cleanup
}

func newIntegrationClient(t *testing.T, redisClient *redis.Client, mock *testutil.MockListingsAPI) *client.Client {
	t.Helper()

	c, err := client.New(client.DefaultConfig(redisClient, mock.URL(), "IntegrationTest/1.0 (integration@test.com)"))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return c
}

// TestFullRequestFlow tests the complete request flow:
// quota check, cache miss, upstream request, cache store, cache hit.
func TestFullRequestFlow(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockListingsAPI(testutil.GenerateListings(50))
	defer mock.Close()

	c := newIntegrationClient(t, redisClient, mock)
	ctx := context.Background()

	params := listing.DefaultSearchParams()

	t.Log("Request 1: full flow, cache miss")
	batch1, err := c.SearchListings(ctx, params, 0)
	if err != nil {
		t.Fatalf("Request 1 failed: %v", err)
	}
	if len(batch1) != listing.DefaultPageSize {
		t.Errorf("Batch size = %d, want %d", len(batch1), listing.DefaultPageSize)
	}
	if mock.GetRequestCount() != 1 {
		t.Errorf("After request 1: upstream requests = %d, want 1", mock.GetRequestCount())
	}

	time.Sleep(100 * time.Millisecond)

	t.Log("Request 2: served from cache, no round trip")
	batch2, err := c.SearchListings(ctx, params, 0)
	if err != nil {
		t.Fatalf("Request 2 failed: %v", err)
	}
	if mock.GetRequestCount() != 1 {
		t.Errorf("After request 2: upstream requests = %d, want 1 (cache hit)", mock.GetRequestCount())
	}
	if len(batch2) != len(batch1) || batch2[0].ID != batch1[0].ID {
		t.Error("Cached batch differs from original")
	}
}

// TestConditionalRevalidation tests that stale entries with validators turn
// into conditional requests and 304 responses serve the cached body.
func TestConditionalRevalidation(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockListingsAPI(testutil.GenerateListings(10))
	defer mock.Close()

	// Short-lived responses so the entry goes stale quickly but keeps its ETag.
	mock.SetHandler("/v1/listings", func(w http.ResponseWriter, r *http.Request) {
		etag := `"stable-dataset"`
		if r.Header.Get("If-None-Match") == etag {
			w.Header().Set("Expires", time.Now().Add(5*time.Minute).Format(http.TimeFormat))
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("ETag", etag)
		w.Header().Set("Expires", time.Now().Add(1*time.Second).Format(http.TimeFormat))
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, `[{"id":1,"title":"Harbour Loft"}]`)
	})

	c := newIntegrationClient(t, redisClient, mock)
	ctx := context.Background()

	resp1, err := c.Get(ctx, "/v1/listings", nil)
	if err != nil {
		t.Fatalf("First request failed: %v", err)
	}
	body1, _ := io.ReadAll(resp1.Body)
	resp1.Body.Close()

	// Let the entry go stale.
	time.Sleep(1200 * time.Millisecond)

	resp2, err := c.Get(ctx, "/v1/listings", nil)
	if err != nil {
		t.Fatalf("Second request failed: %v", err)
	}
	body2, _ := io.ReadAll(resp2.Body)
	resp2.Body.Close()

	if mock.GetConditionalCount() != 1 {
		t.Errorf("Conditional requests = %d, want 1", mock.GetConditionalCount())
	}
	if string(body2) != string(body1) {
		t.Errorf("304 should serve cached body, got %s", body2)
	}
}

// TestQuotaBlock tests that requests are blocked when the shared quota state
// is critical.
func TestQuotaBlock(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockListingsAPI(nil)
	defer mock.Close()

	ctx := context.Background()

	// Pre-seed Redis with critical quota state, as a previous client sharing
	// this Redis would have left it.
	lastUpdate, _ := json.Marshal(time.Now())
	redisClient.Set(ctx, "listings:rate_limit:remaining", 3, 0)
	redisClient.Set(ctx, "listings:rate_limit:reset_timestamp", time.Now().Add(60*time.Second).Unix(), 0)
	redisClient.Set(ctx, "listings:rate_limit:last_update", lastUpdate, 0)

	c := newIntegrationClient(t, redisClient, mock)

	if _, err := c.Get(ctx, "/v1/listings", nil); err == nil {
		t.Error("Expected request to be blocked by quota tracker, but it succeeded")
	}

	if mock.GetRequestCount() != 0 {
		t.Errorf("Upstream requests = %d, want 0 (blocked)", mock.GetRequestCount())
	}
}

// TestRetry5xxErrors tests that 5xx errors trigger retries.
func TestRetry5xxErrors(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockListingsAPI(testutil.GenerateListings(10))
	defer mock.Close()

	mock.SetHandler("/v1/listings", testutil.FailNTimesHandler(2, http.StatusInternalServerError, mock.DefaultHandler()))

	c := newIntegrationClient(t, redisClient, mock)

	batch, err := c.SearchListings(context.Background(), listing.DefaultSearchParams(), 0)
	if err != nil {
		t.Fatalf("Request failed after retries: %v", err)
	}
	if len(batch) == 0 {
		t.Error("Expected listings after retries")
	}
	if mock.GetRequestCount() != 3 {
		t.Errorf("Request attempts = %d, want 3 (2 retries + 1 success)", mock.GetRequestCount())
	}
}

// TestNoRetry4xxErrors tests that 4xx errors do NOT trigger retries.
func TestNoRetry4xxErrors(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockListingsAPI(testutil.GenerateListings(10))
	defer mock.Close()

	c := newIntegrationClient(t, redisClient, mock)

	_, err := c.GetListing(context.Background(), 99999)
	if err == nil {
		t.Fatal("Expected error for missing listing")
	}
	if mock.GetRequestCount() != 1 {
		t.Errorf("Upstream requests = %d, want 1 (no retries for 4xx)", mock.GetRequestCount())
	}
}

// TestCacheExpiration tests that expired cache entries are not served fresh.
func TestCacheExpiration(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockListingsAPI(testutil.GenerateListings(10))
	defer mock.Close()

	// Short expiration and no validators, so staleness forces a refetch.
	mock.SetHandler("/v1/listings", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Expires", time.Now().Add(1*time.Second).Format(http.TimeFormat))
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, `[{"id":1,"title":"Harbour Loft"}]`)
	})

	c := newIntegrationClient(t, redisClient, mock)
	ctx := context.Background()

	resp1, err := c.Get(ctx, "/v1/listings", nil)
	if err != nil {
		t.Fatalf("First request failed: %v", err)
	}
	resp1.Body.Close()

	time.Sleep(100 * time.Millisecond)

	cacheKey := cache.CacheKey{Endpoint: "/v1/listings"}
	entry, err := c.GetCache().Get(ctx, cacheKey)
	if err != nil {
		t.Fatalf("Cache lookup failed: %v", err)
	}
	if entry.IsExpired() {
		t.Error("Entry should not be expired yet")
	}

	time.Sleep(2 * time.Second)

	if _, err := c.GetCache().Get(ctx, cacheKey); err != cache.ErrCacheMiss {
		t.Errorf("Expected cache miss after expiration, got: %v", err)
	}

	resp2, err := c.Get(ctx, "/v1/listings", nil)
	if err != nil {
		t.Fatalf("Second request failed: %v", err)
	}
	resp2.Body.Close()

	if mock.GetRequestCount() < 2 {
		t.Errorf("Upstream requests = %d, want >= 2 (cache expired)", mock.GetRequestCount())
	}
}

// TestPagerSessionEndToEnd drives a full infinite-scroll session against the
// mock API: priming, prefetching, showing more, and opening a detail view.
func TestPagerSessionEndToEnd(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	dataset := testutil.GenerateListings(100)
	mock := testutil.NewMockListingsAPI(dataset)
	defer mock.Close()

	c := newIntegrationClient(t, redisClient, mock)
	ctx := context.Background()

	params := listing.SearchParams{
		SortKey:  listing.SortByPrice,
		SortDir:  listing.SortAsc,
		PageSize: 10,
	}

	session, err := pager.NewSession(pager.SessionConfig{
		Fetcher: c,
		Params:  params,
	})
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	defer session.Close()

	if err := session.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	waitForDisplayed := func(want int) {
		t.Helper()
		deadline := time.Now().Add(5 * time.Second)
		for time.Now().Before(deadline) {
			if len(session.Displayed()) >= want {
				return
			}
			time.Sleep(20 * time.Millisecond)
		}
		t.Fatalf("Timed out waiting for %d displayed listings, have %d", want, len(session.Displayed()))
	}

	// Priming shows batch 0 and prefetches batch 1.
	waitForDisplayed(10)

	if err := session.ShowMore(ctx); err != nil {
		t.Fatalf("ShowMore failed: %v", err)
	}
	waitForDisplayed(20)

	if err := session.ShowMore(ctx); err != nil {
		t.Fatalf("ShowMore failed: %v", err)
	}
	waitForDisplayed(30)

	displayed := session.Displayed()
	if len(displayed) != 30 {
		t.Fatalf("Displayed = %d listings, want 30", len(displayed))
	}

	// The displayed list must match the first three pages of the price-sorted
	// dataset, in order.
	resp, err := c.Get(ctx, "/v1/listings", map[string][]string{
		"sort": {"price"}, "order": {"asc"}, "limit": {"30"}, "skip": {"0"},
	})
	if err != nil {
		t.Fatalf("Reference fetch failed: %v", err)
	}
	var want []listing.Listing
	if err := json.NewDecoder(resp.Body).Decode(&want); err != nil {
		t.Fatalf("Decode reference failed: %v", err)
	}
	resp.Body.Close()

	for i := range want {
		if displayed[i].ID != want[i].ID {
			t.Fatalf("Displayed[%d].ID = %d, want %d", i, displayed[i].ID, want[i].ID)
		}
	}

	// Detail view.
	if _, err := session.Select(ctx, displayed[0].ID); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	snap := session.Snapshot()
	if snap.Selected == nil || snap.Selected.ID != displayed[0].ID {
		t.Errorf("Selected = %+v, want listing %d", snap.Selected, displayed[0].ID)
	}
	if snap.ShowingIndex != 2 || snap.NextBatchIndex != 4 {
		t.Errorf("ShowingIndex/NextBatchIndex = %d/%d, want 2/4", snap.ShowingIndex, snap.NextBatchIndex)
	}
}
