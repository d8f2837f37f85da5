package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// maxPages bounds ListAll when a server keeps returning next links.
const maxPages = 1000

// Page is the paginated list envelope returned by list endpoints.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// DecodePage accepts either a paginated envelope or a plain JSON array.
// A plain array is returned as a single page with no next link.
func DecodePage[T any](raw json.RawMessage) (Page[T], error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Page[T]{Results: []T{}}, nil
	}
	switch trimmed[0] {
	case '[':
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return Page[T]{}, &APIError{Status: StatusParsingError, Err: fmt.Errorf("decode list: %w", err)}
		}
		return Page[T]{Count: len(items), Results: items}, nil
	case '{':
		var page Page[T]
		if err := json.Unmarshal(trimmed, &page); err != nil {
			return Page[T]{}, &APIError{Status: StatusParsingError, Err: fmt.Errorf("decode paginated list: %w", err)}
		}
		if page.Results == nil {
			page.Results = []T{}
		}
		return page, nil
	default:
		return Page[T]{}, &APIError{Status: StatusParsingError, Err: fmt.Errorf("decode list: unexpected JSON value")}
	}
}

// DecodeList returns the rows of a list response whether or not it is paginated.
func DecodeList[T any](raw json.RawMessage) ([]T, error) {
	page, err := DecodePage[T](raw)
	if err != nil {
		return nil, err
	}
	return page.Results, nil
}

// ListAll reads a list endpoint and follows next links until the last page.
func ListAll[T any](ctx context.Context, c *APIClient, path string, query url.Values) ([]T, error) {
	var raw json.RawMessage
	if err := c.Get(ctx, path, query, &raw); err != nil {
		return nil, err
	}
	var out []T
	seen := map[string]struct{}{}
	for i := 0; ; i++ {
		page, err := DecodePage[T](raw)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Results...)
		if page.Next == nil || *page.Next == "" {
			break
		}
		next := *page.Next
		if _, dup := seen[next]; dup || i+1 >= maxPages {
			return nil, fmt.Errorf("list %s: pagination did not terminate", path)
		}
		seen[next] = struct{}{}
		raw = nil
		if err := c.getURL(ctx, next, &raw); err != nil {
			return nil, err
		}
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}
