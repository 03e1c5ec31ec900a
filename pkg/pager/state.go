package pager

import (
	"github.com/stayseek/listings-client/pkg/listing"
)

// PrimingFetchCount is the number of back-to-back fetches issued at session
// start. The first batch displays as soon as it returns; the rest are silent
// prefetches that make the first "show more" instant.
const PrimingFetchCount = 2

// State is one immutable snapshot of a pagination session.
//
// Displayed grows monotonically and always equals the ascending-batch-index
// concatenation of every batch appended so far. Pending holds batches that
// arrived before the consumer (or an earlier batch) was ready for them.
type State struct {
	// Displayed is the ordered sequence of listings committed to the view.
	Displayed []listing.Listing

	// Pending maps batch index to batches fetched ahead of the display position.
	Pending map[int][]listing.Listing

	// ShowingIndex is the highest batch index the consumer has committed to
	// display. Starts at -1, before the first batch.
	ShowingIndex int

	// NextBatchIndex is the next batch index to fetch. Starts at 0.
	NextBatchIndex int

	// Failed records the most recent fetch error per batch index. An entry is
	// cleared when a later fetch for the same index succeeds.
	Failed map[int]error

	// Selected is the listing currently open in the detail view, independent
	// of the paginated list.
	Selected *listing.Listing

	// displayedThrough is the highest batch index already appended to
	// Displayed, -1 before the first append. Drives gapless ordering and
	// duplicate suppression.
	displayedThrough int
}

// NewState returns the initial state of a session: nothing displayed, nothing
// pending, ShowingIndex parked before the first batch.
func NewState() State {
	return State{
		Pending:          map[int][]listing.Listing{},
		ShowingIndex:     -1,
		Failed:           map[int]error{},
		displayedThrough: -1,
	}
}

// DisplayedThrough returns the highest batch index whose listings have been
// appended to Displayed, or -1 if none have.
func (s State) DisplayedThrough() int {
	return s.displayedThrough
}

// Event is a single state transition input: a batch arrival, a batch failure
// or the consumer advancing its display position.
type Event interface {
	isEvent()
}

// BatchFetched reports a completed fetch for one batch index. Completions may
// be delivered in any order and more than once.
type BatchFetched struct {
	Index    int
	Listings []listing.Listing
}

// BatchFailed reports a failed fetch for one batch index.
type BatchFailed struct {
	Index int
	Err   error
}

// Advance reports that the consumer wants the next batch shown.
type Advance struct{}

// FetchIssued reports that a fetch was started for the next unfetched batch.
type FetchIssued struct{}

func (BatchFetched) isEvent() {}
func (BatchFailed) isEvent()  {}
func (Advance) isEvent()      {}
func (FetchIssued) isEvent()  {}

// Reduce applies one event to a state snapshot and returns the next snapshot.
// It is a pure function: no I/O, no clock, input state is never mutated.
//
// Ordering rules:
//   - A batch is appended to Displayed only when its index is at most
//     ShowingIndex and every earlier batch has already been appended.
//     Arrivals that are not yet due are parked in Pending.
//   - Appending one batch can unblock parked successors; they drain in
//     ascending index order in the same transition.
//   - An arrival for an index already appended is ignored, so double delivery
//     never duplicates listings.
//   - A failure records an error for its index and touches nothing else; the
//     failed index stays owed and a later successful fetch clears the error.
func Reduce(s State, ev Event) State {
	next := s.clone()

	switch e := ev.(type) {
	case BatchFetched:
		if e.Index <= next.displayedThrough {
			// Already displayed, drop the duplicate.
			return next
		}
		delete(next.Failed, e.Index)
		next.Pending[e.Index] = e.Listings
		next.drain()

	case BatchFailed:
		next.Failed[e.Index] = &ListFetchError{BatchIndex: e.Index, Err: e.Err}

	case Advance:
		next.ShowingIndex++
		next.drain()

	case FetchIssued:
		next.NextBatchIndex++
	}

	return next
}

// drain moves consecutive pending batches into Displayed, starting at the
// first missing index, stopping at ShowingIndex.
func (s *State) drain() {
	for {
		due := s.displayedThrough + 1
		if due > s.ShowingIndex {
			return
		}
		batch, ok := s.Pending[due]
		if !ok {
			return
		}
		s.Displayed = append(s.Displayed, batch...)
		delete(s.Pending, due)
		s.displayedThrough = due
	}
}

// clone returns a snapshot that shares no mutable structure with s.
func (s State) clone() State {
	next := s

	next.Displayed = make([]listing.Listing, len(s.Displayed))
	copy(next.Displayed, s.Displayed)

	next.Pending = make(map[int][]listing.Listing, len(s.Pending))
	for k, v := range s.Pending {
		next.Pending[k] = v
	}

	next.Failed = make(map[int]error, len(s.Failed))
	for k, v := range s.Failed {
		next.Failed[k] = v
	}

	return next
}
