// Package pager implements the infinite-scroll pagination buffer for listing
// search results.
//
// The listings API returns results in fixed-size batches. Batches are fetched
// ahead of the user's scroll position and may resolve in any order, so the
// pager keeps a pending buffer of batches that arrived early and only appends
// a batch to the displayed sequence once every earlier batch has landed.
//
// Example usage:
//
//	session, err := pager.NewSession(pager.SessionConfig{
//		Fetcher: apiClient,
//		Params:  listing.DefaultSearchParams(),
//	})
//	session.Start(ctx)       // primes batches 0 and 1
//	session.ShowMore(ctx)    // batch 1 served from the buffer, batch 2 prefetched
//
// The pager:
//   - Issues two priming fetches at session start to mask first-scroll latency
//   - Stashes early arrivals in a pending buffer keyed by batch index
//   - Guarantees the displayed sequence is gapless and in ascending batch order
//     regardless of network completion order
//   - Surfaces per-batch fetch errors without disturbing displayed results
//
// State transitions are a pure function (see Reduce); the Session adds fetch
// orchestration, logging and metrics on top.
package pager
