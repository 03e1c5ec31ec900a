package listing

import (
	"fmt"
	"net/url"
	"strconv"
)

// Sort keys accepted by the listings API.
const (
	SortByPrice  = "price"
	SortByRating = "rating"
	SortByTitle  = "title"
)

// Sort directions.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// Page size limits.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// SearchParams describes one listing search: sort order, free-text filter
// and page size. The same params are reused verbatim for every batch of a
// session; only the computed offset differs per batch index.
type SearchParams struct {
	SortKey  string `json:"sort_key"`
	SortDir  string `json:"sort_dir"`
	Filter   string `json:"filter"`
	PageSize int    `json:"page_size"`
}

// DefaultSearchParams returns search parameters matching the API defaults.
func DefaultSearchParams() SearchParams {
	return SearchParams{
		SortKey:  SortByRating,
		SortDir:  SortDesc,
		PageSize: DefaultPageSize,
	}
}

// Validate checks the parameters and fills in defaults for zero values.
// Returns an error for values the API would reject.
func (p *SearchParams) Validate() error {
	if p.SortKey == "" {
		p.SortKey = SortByRating
	}
	switch p.SortKey {
	case SortByPrice, SortByRating, SortByTitle:
	default:
		return fmt.Errorf("invalid sort key %q", p.SortKey)
	}

	if p.SortDir == "" {
		p.SortDir = SortAsc
	}
	if p.SortDir != SortAsc && p.SortDir != SortDesc {
		return fmt.Errorf("invalid sort direction %q", p.SortDir)
	}

	if p.PageSize == 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize < 1 || p.PageSize > MaxPageSize {
		return fmt.Errorf("page size must be between 1 and %d (got %d)", MaxPageSize, p.PageSize)
	}

	return nil
}

// Offset returns the item offset for a batch index.
//
// Formula: offset = pageSize * batchIndex
//
// Examples:
//   - Batch 0, PageSize 20 -> Offset 0
//   - Batch 1, PageSize 20 -> Offset 20
//   - Batch 3, PageSize 10 -> Offset 30
func (p SearchParams) Offset(batchIndex int) int {
	return p.PageSize * batchIndex
}

// Values renders the parameters as API query parameters for one batch.
// All fields are reproduced verbatim; only "skip" is computed per batch index.
func (p SearchParams) Values(batchIndex int) url.Values {
	v := url.Values{}
	v.Set("sort", p.SortKey)
	v.Set("order", p.SortDir)
	if p.Filter != "" {
		v.Set("q", p.Filter)
	}
	v.Set("limit", strconv.Itoa(p.PageSize))
	v.Set("skip", strconv.Itoa(p.Offset(batchIndex)))
	return v
}
