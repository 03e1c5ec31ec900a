// Package cache provides listings API response caching with a Redis backend.
//
// The cache manager implements HTTP response caching with the following features:
//
// - Respects the API's Expires headers for entry lifetime
// - ETag support for conditional requests (If-None-Match)
// - Last-Modified support (If-Modified-Since)
// - Automatic TTL management based on the Expires header
// - Prometheus metrics for observability
// - Deterministic cache key generation
//
// # Basic Usage
//
//	// Create Redis client
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	// Create cache manager
//	manager := cache.NewManager(redisClient)
//
//	// Create cache key
//	key := cache.CacheKey{
//		Endpoint:    "/v1/listings",
//		QueryParams: url.Values{"sort": []string{"rating"}},
//	}
//
//	// Get from cache
//	entry, err := manager.Get(ctx, key)
//	if err == cache.ErrCacheMiss {
//		// Cache miss - fetch from the API
//	}
//
// # HTTP Response Caching
//
//	// Convert HTTP response to cache entry
//	entry, err := cache.ResponseToEntry(resp)
//	if err != nil {
//		return err
//	}
//
//	// Store in cache
//	if err := manager.Set(ctx, key, entry); err != nil {
//		return err
//	}
//
// # Conditional Requests
//
//	// Check if we should make a conditional request
//	if cache.ShouldMakeConditionalRequest(entry) {
//		cache.AddConditionalHeaders(req, entry)
//		// Make request - the API returns 304 if not modified
//	}
//
// # Metrics
//
// The cache manager exports Prometheus metrics:
//
//   - listings_cache_hits_total{layer="redis"} - Cache hits
//   - listings_cache_misses_total - Cache misses
//   - listings_cache_size_bytes{layer="redis"} - Cache size
//   - listings_304_responses_total - Conditional request successes
//   - listings_cache_errors_total{operation} - Cache operation errors
//
// Redis keeps the cache shared across client instances, so a freshly mounted
// listing view can often serve its first batch from an earlier session's
// fetch while the priming round trips are still in flight.
package cache
