// Package apiclient talks to the listing HTTP service on behalf of the bot.
package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"estate_bot/internal/api/dto"
	"estate_bot/internal/filter"
	"estate_bot/internal/model"
)

// ErrNotFound is returned by Get when the listing does not exist.
var ErrNotFound = errors.New("listing not found")

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Page is one page of search results.
type Page struct {
	Listings []model.Listing
	Count    int
	HasNext  bool
	HasPrev  bool
}

// Client fetches listings from the API.
type Client struct {
	client  HTTPClient
	baseURL string
	timeout time.Duration
}

// New creates a Client for the API rooted at baseURL, e.g.
// "http://localhost:8000/api".
func New(client HTTPClient, baseURL string) *Client {
	return &Client{
		client:  client,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		timeout: 30 * time.Second,
	}
}

// List returns one page of listings matching fs, newest first.
func (c *Client) List(ctx context.Context, fs model.FilterSet, page int) (*Page, error) {
	v := filter.Values(fs, page)
	var resp dto.Page
	if err := c.getJSON(ctx, "/apartments/?"+v.Encode(), &resp); err != nil {
		return nil, err
	}
	return newPage(resp), nil
}

// Newest returns the first page of listings without any filter, highest ids
// first.
func (c *Client) Newest(ctx context.Context) ([]model.Listing, error) {
	query := filter.ParamOrdering + "=" + string(filter.OrderNewest) + "&" + filter.ParamPage + "=1"
	var resp dto.Page
	if err := c.getJSON(ctx, "/apartments/?"+query, &resp); err != nil {
		return nil, err
	}
	return newPage(resp).Listings, nil
}

// Get returns a single listing by id.
func (c *Client) Get(ctx context.Context, id int64) (*model.Listing, error) {
	var resp dto.Listing
	if err := c.getJSON(ctx, "/apartments/"+strconv.FormatInt(id, 10)+"/", &resp); err != nil {
		return nil, err
	}
	l := resp.Model()
	return &l, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "EstateBot/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5*1024*1024))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// TotalPages derives the number of pages from page n of a result set. A full
// page that has a successor fixes the page size; a page without a successor is
// the last one.
func (p *Page) TotalPages(n int) int {
	switch {
	case p.Count == 0:
		return 1
	case p.HasNext && len(p.Listings) > 0:
		size := len(p.Listings)
		return (p.Count + size - 1) / size
	case len(p.Listings) == 0:
		return max(n-1, 1)
	default:
		return n
	}
}

func newPage(resp dto.Page) *Page {
	p := &Page{
		Count:   resp.Count,
		HasNext: resp.Next != nil,
		HasPrev: resp.Previous != nil,
	}
	for _, l := range resp.Results {
		p.Listings = append(p.Listings, l.Model())
	}
	return p
}
