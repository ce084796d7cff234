package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/scholarbase/citetree/internal/model"
)

const (
	// defaultBaseURL is the Semantic Scholar Graph API endpoint.
	defaultBaseURL = "https://api.semanticscholar.org/graph/v1"

	// defaultPageSize is how many neighbors each underlying API request
	// asks for. The API caps a single window at 1000; 100 keeps individual
	// responses small while paging transparently.
	defaultPageSize = 100

	// defaultTimeout bounds each individual HTTP request.
	defaultTimeout = 60 * time.Second

	// neighborFields are the fields requested for citation/reference entries.
	neighborFields = "paperId,title,year,citationCount,isInfluential"

	// paperFields are the fields requested when resolving a paper.
	paperFields = "paperId,title,year,citationCount"
)

// Rate limits in requests per second. The public API allows roughly one
// request per second without a key; an API key raises the shared pool.
// The limiter is deliberately conservative so bursts never trip HTTP 429
// in normal operation.
const (
	anonymousRPS     = 1
	authenticatedRPS = 10
)

// Client fetches citation-graph neighborhoods from the Semantic Scholar
// Graph API. It injects the API key header, pages through neighbor lists
// transparently, and classifies failures into the error taxonomy the
// crawler retries on (ErrNotFound, RateLimitedError, TransientError).
//
// All requests share one token-bucket rate limiter, so a Client is safe
// for concurrent use by multiple crawl workers.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	pageSize   int
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint. Used by tests to point the
// client at a local mock server.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithAPIKey sets the API key sent in the x-api-key header.
// A key raises the client's rate limit; an empty key is valid.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithPageSize sets how many neighbors each underlying request asks for.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithLimiter replaces the shared rate limiter.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// NewClient creates a Graph API client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:  defaultBaseURL,
		pageSize: defaultPageSize,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.limiter == nil {
		rps := rate.Limit(anonymousRPS)
		if c.apiKey != "" {
			rps = rate.Limit(authenticatedRPS)
		}
		c.limiter = rate.NewLimiter(rps, int(rps))
	}

	return c
}

// PaperRecord is a paper as returned by the API, with explicit
// unknown/absent state per optional field.
type PaperRecord struct {
	ID            string
	Title         *string
	Year          *int
	CitationCount *int
}

// Neighbor is one entry of a paper's citation or reference list.
type Neighbor struct {
	PaperRecord

	// Influential is the API's isInfluential flag for the edge.
	Influential bool
}

// NeighborQuery describes one neighbor fetch.
type NeighborQuery struct {
	// ID is the normalized paper identifier to expand.
	ID string

	// Direction selects citations or references.
	Direction model.Direction

	// InfluentialOnly filters to edges the API flags influential.
	InfluentialOnly bool

	// Limit is the maximum neighbors to return; 0 or negative means
	// unbounded.
	Limit int
}

// NeighborPage is the complete, already-paged neighbor set for one paper.
type NeighborPage struct {
	// Neighbors is the ordered neighbor list.
	Neighbors []Neighbor

	// Truncated is true only when the set was cut off by the query's
	// Limit before exhaustion.
	Truncated bool
}

// paperJSON mirrors the API's paper object.
type paperJSON struct {
	PaperID       string  `json:"paperId"`
	Title         *string `json:"title"`
	Year          *int    `json:"year"`
	CitationCount *int    `json:"citationCount"`
}

// record validates the boundary object and converts it to a PaperRecord.
// Returns false when the entry carries no usable identifier (the API
// returns null paperId stubs for some withdrawn papers).
func (p *paperJSON) record() (PaperRecord, bool) {
	if p == nil || p.PaperID == "" {
		return PaperRecord{}, false
	}
	return PaperRecord{
		ID:            p.PaperID,
		Title:         p.Title,
		Year:          p.Year,
		CitationCount: p.CitationCount,
	}, true
}

// neighborEntryJSON mirrors one element of the citations/references data
// array. Exactly one of CitingPaper/CitedPaper is set depending on the
// endpoint.
type neighborEntryJSON struct {
	IsInfluential bool       `json:"isInfluential"`
	CitingPaper   *paperJSON `json:"citingPaper"`
	CitedPaper    *paperJSON `json:"citedPaper"`
}

// neighborPageJSON mirrors one paginated neighbor response.
type neighborPageJSON struct {
	Offset int                 `json:"offset"`
	Next   *int                `json:"next"`
	Data   []neighborEntryJSON `json:"data"`
}

// ResolvePaper canonicalizes any accepted identifier form to the stable
// S2 paper ID, returning the paper's cached attributes along the way.
func (c *Client) ResolvePaper(ctx context.Context, id string) (PaperRecord, error) {
	endpoint := fmt.Sprintf("%s/paper/%s?fields=%s", c.baseURL, url.PathEscape(id), paperFields)

	var paper paperJSON
	if err := c.getJSON(ctx, endpoint, &paper); err != nil {
		return PaperRecord{}, err
	}

	rec, ok := paper.record()
	if !ok {
		return PaperRecord{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec, nil
}

// FetchNeighbors retrieves a paper's citation or reference list, paging
// through the underlying API until the query's Limit is reached or the
// set is exhausted. Truncated is true only when cut off by Limit before
// exhaustion.
func (c *Client) FetchNeighbors(ctx context.Context, q NeighborQuery) (*NeighborPage, error) {
	endpoint := "citations"
	if q.Direction == model.DirectionReferences {
		endpoint = "references"
	}

	neighbors := make([]Neighbor, 0)
	offset := 0

	for {
		batch := c.pageSize
		if q.Limit > 0 {
			// Ask for one entry past the limit so truncation is
			// detectable without an extra request.
			if remaining := q.Limit - len(neighbors) + 1; remaining < batch {
				batch = remaining
			}
		}

		reqURL := fmt.Sprintf("%s/paper/%s/%s?fields=%s&offset=%d&limit=%d",
			c.baseURL, url.PathEscape(q.ID), endpoint, neighborFields, offset, batch)

		var page neighborPageJSON
		if err := c.getJSON(ctx, reqURL, &page); err != nil {
			return nil, err
		}

		for _, entry := range page.Data {
			paper := entry.CitingPaper
			if q.Direction == model.DirectionReferences {
				paper = entry.CitedPaper
			}

			rec, ok := paper.record()
			if !ok {
				continue
			}
			if q.InfluentialOnly && !entry.IsInfluential {
				continue
			}
			if q.Limit > 0 && len(neighbors) >= q.Limit {
				return &NeighborPage{Neighbors: neighbors, Truncated: true}, nil
			}

			neighbors = append(neighbors, Neighbor{
				PaperRecord: rec,
				Influential: entry.IsInfluential,
			})
		}

		if page.Next == nil {
			return &NeighborPage{Neighbors: neighbors}, nil
		}
		offset = *page.Next
	}
}

// getJSON performs one rate-limited GET and decodes the response body,
// classifying HTTP failures into the crawler's error taxonomy.
func (c *Client) getJSON(ctx context.Context, reqURL string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransientError{Cause: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decoding
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitedError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	case resp.StatusCode >= 500:
		return &TransientError{Cause: fmt.Errorf("server returned HTTP %d", resp.StatusCode)}
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 300)) //nolint:errcheck // Body is diagnostic only
		return fmt.Errorf("unexpected API response (HTTP %d): %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode API response: %w", err)
	}
	return nil
}

// parseRetryAfter parses a Retry-After header given in seconds.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
