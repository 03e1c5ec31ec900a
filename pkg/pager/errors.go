package pager

import (
	"errors"
	"fmt"
)

// ErrSessionClosed is returned when an operation is attempted on a closed session.
var ErrSessionClosed = errors.New("pager session closed")

// ListFetchError reports a failed fetch for one batch of the paginated list.
// The batch index stays owed; re-issuing a fetch for it clears the error.
type ListFetchError struct {
	BatchIndex int
	Err        error
}

// Error implements the error interface.
func (e *ListFetchError) Error() string {
	return fmt.Sprintf("list fetch failed for batch %d: %v", e.BatchIndex, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ListFetchError) Unwrap() error {
	return e.Err
}

// DetailFetchError reports a failed single-listing lookup. It never affects
// the paginated list state.
type DetailFetchError struct {
	ListingID int64
	Err       error
}

// Error implements the error interface.
func (e *DetailFetchError) Error() string {
	return fmt.Sprintf("detail fetch failed for listing %d: %v", e.ListingID, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *DetailFetchError) Unwrap() error {
	return e.Err
}
