package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/stayseek/listings-client/pkg/listing"
)

// API endpoints.
const (
	ListingsEndpoint = "/v1/listings"
)

// SearchListings fetches one batch of listings for the given search
// parameters. The batch index selects the page: batch n covers results
// [n*PageSize, (n+1)*PageSize). A batch past the end of the result set
// returns an empty, non-nil slice.
func (c *Client) SearchListings(ctx context.Context, params listing.SearchParams, batchIndex int) ([]listing.Listing, error) {
	if batchIndex < 0 {
		return nil, fmt.Errorf("batch index must be >= 0 (got %d)", batchIndex)
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid search params: %w", err)
	}

	resp, err := c.Get(ctx, ListingsEndpoint, params.Values(batchIndex))
	if err != nil {
		return nil, fmt.Errorf("search listings: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: classifyStatus(resp.StatusCode),
			Message:    resp.Status,
		}
	}

	var batch []listing.Listing
	if err := json.NewDecoder(resp.Body).Decode(&batch); err != nil {
		return nil, fmt.Errorf("decode listings: %w", err)
	}
	if batch == nil {
		batch = []listing.Listing{}
	}

	return batch, nil
}

// GetListing fetches the full detail record for a single listing.
func (c *Client) GetListing(ctx context.Context, id int64) (*listing.Listing, error) {
	if id <= 0 {
		return nil, fmt.Errorf("listing id must be > 0 (got %d)", id)
	}

	resp, err := c.Get(ctx, ListingsEndpoint+"/"+strconv.FormatInt(id, 10), nil)
	if err != nil {
		return nil, fmt.Errorf("get listing %d: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: classifyStatus(resp.StatusCode),
			Message:    resp.Status,
		}
	}

	var l listing.Listing
	if err := json.NewDecoder(resp.Body).Decode(&l); err != nil {
		return nil, fmt.Errorf("decode listing %d: %w", id, err)
	}

	return &l, nil
}
