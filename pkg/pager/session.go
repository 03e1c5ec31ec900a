package pager

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/stayseek/listings-client/pkg/listing"
)

// Fetcher is the capability a session uses to reach the listings API.
// *client.Client implements it.
type Fetcher interface {
	// SearchListings fetches one batch of the search result. The offset is
	// computed from the batch index and the page size in params.
	SearchListings(ctx context.Context, params listing.SearchParams, batchIndex int) ([]listing.Listing, error)

	// GetListing fetches a single listing by ID.
	GetListing(ctx context.Context, id int64) (*listing.Listing, error)
}

// Notifier receives presentation-layer events from a session. Implementations
// must not call back into the session.
type Notifier interface {
	// BatchAppended is called with the full displayed sequence after one or
	// more batches were appended to it.
	BatchAppended(displayed []listing.Listing)

	// BatchFailed is called when a fetch for a batch index fails.
	BatchFailed(batchIndex int, err error)

	// SelectedUpdated is called when the detail-view listing changes.
	SelectedUpdated(l *listing.Listing)
}

// NopNotifier discards all session events.
type NopNotifier struct{}

func (NopNotifier) BatchAppended([]listing.Listing)    {}
func (NopNotifier) BatchFailed(int, error)             {}
func (NopNotifier) SelectedUpdated(l *listing.Listing) {}

// SessionConfig holds the configuration for a pagination session.
type SessionConfig struct {
	// Fetcher is the listings API capability (required).
	Fetcher Fetcher

	// Params are the search parameters for this session. Zero values are
	// filled with API defaults.
	Params listing.SearchParams

	// Notifier receives display events (default: NopNotifier).
	Notifier Notifier
}

// Session owns the pagination state for one listing view, from mount to
// unmount. All state mutations are applied atomically per event; fetch
// completions may arrive in any order. In-flight fetches are never cancelled:
// a result arriving after the consumer moved on is still absorbed into the
// buffer rather than discarded.
type Session struct {
	mu     sync.Mutex
	state  State
	closed bool

	params   listing.SearchParams
	fetcher  Fetcher
	notifier Notifier
	inflight singleflight.Group
	logger   zerolog.Logger
}

// NewSession creates a session in its initial state. No fetches are issued
// until Start is called.
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if err := cfg.Params.Validate(); err != nil {
		return nil, fmt.Errorf("search params: %w", err)
	}
	if cfg.Notifier == nil {
		cfg.Notifier = NopNotifier{}
	}

	return &Session{
		state:    NewState(),
		params:   cfg.Params,
		fetcher:  cfg.Fetcher,
		notifier: cfg.Notifier,
		logger:   log.With().Str("component", "pager").Logger(),
	}, nil
}

// Start primes the session: it commits to the first batch and issues
// PrimingFetchCount back-to-back fetches. The first batch displays as soon as
// it returns; later ones wait in the pending buffer for the user's scroll.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.state.NextBatchIndex > 0 {
		s.mu.Unlock()
		return fmt.Errorf("session already started")
	}

	s.state = Reduce(s.state, Advance{})
	indices := make([]int, 0, PrimingFetchCount)
	for i := 0; i < PrimingFetchCount; i++ {
		indices = append(indices, s.state.NextBatchIndex)
		s.state = Reduce(s.state, FetchIssued{})
	}
	s.mu.Unlock()

	s.logger.Debug().
		Int("priming_fetches", PrimingFetchCount).
		Interface("params", s.params).
		Msg("Session started")

	for _, index := range indices {
		go s.fetchBatch(ctx, index)
	}
	return nil
}

// ShowMore advances the display position by one batch. If the batch is
// already waiting in the pending buffer it is drained immediately with no
// round trip; otherwise it appends as soon as its in-flight fetch completes.
// One fetch for the next unfetched batch is issued to keep the buffer primed.
func (s *Session) ShowMore(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.state.NextBatchIndex == 0 {
		s.mu.Unlock()
		return fmt.Errorf("session not started")
	}

	target := s.state.ShowingIndex + 1
	_, buffered := s.state.Pending[target]
	prefetch := s.state.NextBatchIndex

	// Advance and the prefetch issue happen under the same lock hold as the
	// reads above, so concurrent ShowMore calls cannot observe the same
	// NextBatchIndex and double-fetch one index while skipping another.
	old := s.state
	s.state = Reduce(s.state, Advance{})
	s.state = Reduce(s.state, FetchIssued{})
	next := s.state
	s.mu.Unlock()

	if buffered {
		pagerPrefetchHits.Inc()
		s.logger.Debug().
			Int("batch", target).
			Msg("Batch served from pending buffer")
	}

	pagerPendingBatches.Add(float64(len(next.Pending) - len(old.Pending)))
	if next.displayedThrough > old.displayedThrough {
		pagerBatchesAppended.Add(float64(next.displayedThrough - old.displayedThrough))
		s.notifier.BatchAppended(next.Displayed)
	}

	go s.fetchBatch(ctx, prefetch)
	return nil
}

// Retry re-issues the fetch for a batch index that previously failed. The
// index must have been issued before. A retry racing a still in-flight fetch
// for the same index is coalesced into it.
func (s *Session) Retry(ctx context.Context, batchIndex int) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if batchIndex < 0 || batchIndex >= s.state.NextBatchIndex {
		s.mu.Unlock()
		return fmt.Errorf("batch %d was never requested", batchIndex)
	}
	s.mu.Unlock()

	go s.fetchBatch(ctx, batchIndex)
	return nil
}

// Select fetches a single listing for the detail view and records it as the
// selected entity. Failures surface as a DetailFetchError and never touch the
// paginated list state.
func (s *Session) Select(ctx context.Context, id int64) (*listing.Listing, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	s.mu.Unlock()

	l, err := s.fetcher.GetListing(ctx, id)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Int64("listing_id", id).
			Msg("Detail fetch failed")
		return nil, &DetailFetchError{ListingID: id, Err: err}
	}

	s.mu.Lock()
	s.state.Selected = l
	s.mu.Unlock()

	s.notifier.SelectedUpdated(l)
	return l, nil
}

// Snapshot returns a copy of the current session state. The copy shares no
// mutable structure with the session.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Displayed returns the current displayed sequence.
func (s *Session) Displayed() []listing.Listing {
	return s.Snapshot().Displayed
}

// Close marks the session as unmounted. In-flight fetches still complete and
// are absorbed into the state, but no new requests can be issued.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	pagerPendingBatches.Sub(float64(len(s.state.Pending)))
	return nil
}

// fetchBatch performs one batch fetch and routes the completion into the
// state machine. Concurrent fetches for the same index collapse into one
// request via singleflight.
func (s *Session) fetchBatch(ctx context.Context, index int) {
	result, err, shared := s.inflight.Do(strconv.Itoa(index), func() (interface{}, error) {
		return s.fetcher.SearchListings(ctx, s.params, index)
	})
	if shared {
		pagerFetchesTotal.WithLabelValues("deduplicated").Inc()
	}

	if err != nil {
		pagerFetchesTotal.WithLabelValues("error").Inc()
		s.logger.Warn().
			Err(err).
			Int("batch", index).
			Msg("Batch fetch failed")
		s.apply(BatchFailed{Index: index, Err: err})
		return
	}

	batch := result.([]listing.Listing)
	pagerFetchesTotal.WithLabelValues("ok").Inc()
	s.logger.Debug().
		Int("batch", index).
		Int("listings", len(batch)).
		Msg("Batch fetched")
	s.apply(BatchFetched{Index: index, Listings: batch})
}

// apply runs one event through the reducer under the session lock, then emits
// metrics and notifications derived from the transition. Notifications fire
// outside the lock.
func (s *Session) apply(ev Event) {
	s.mu.Lock()
	old := s.state
	s.state = Reduce(s.state, ev)
	next := s.state
	closed := s.closed
	s.mu.Unlock()

	if !closed {
		pagerPendingBatches.Add(float64(len(next.Pending) - len(old.Pending)))
	}

	if next.displayedThrough > old.displayedThrough {
		pagerBatchesAppended.Add(float64(next.displayedThrough - old.displayedThrough))
		s.notifier.BatchAppended(next.Displayed)
	}

	if failed, ok := ev.(BatchFailed); ok {
		s.notifier.BatchFailed(failed.Index, next.Failed[failed.Index])
	}
}
