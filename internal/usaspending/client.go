package usaspending

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/govspend/internal/models"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the base URL for the USAspending API.
	DefaultBaseURL = "https://api.usaspending.gov"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default rate limit (requests per second).
	DefaultRateLimit = 5

	// DefaultPageSize is the number of awards requested per page.
	DefaultPageSize = 100

	// DefaultMaxPages caps the number of pages fetched per search.
	DefaultMaxPages = 10

	// DefaultLookbackYears is the award search window.
	DefaultLookbackYears = 10

	// maxAwardAmount is the upper award amount bound sent with every search.
	maxAwardAmount = 1_000_000_000_000

	searchPath = "/api/v2/search/spending_by_award/"
)

// Client is a USAspending API client.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	logger        arbor.ILogger
	limiter       *rate.Limiter
	pageSize      int
	maxPages      int
	lookbackYears int
	now           func() time.Time
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets a custom rate limit.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithPageSize sets the number of awards requested per page.
func WithPageSize(size int) ClientOption {
	return func(c *Client) {
		if size > 0 {
			c.pageSize = size
		}
	}
}

// WithMaxPages caps the number of pages fetched per search.
func WithMaxPages(pages int) ClientOption {
	return func(c *Client) {
		if pages > 0 {
			c.maxPages = pages
		}
	}
}

// WithLookbackYears sets the default award search window.
func WithLookbackYears(years int) ClientOption {
	return func(c *Client) {
		if years > 0 {
			c.lookbackYears = years
		}
	}
}

// withClock overrides the time source; used by tests.
func withClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient creates a new USAspending API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter:       rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		pageSize:      DefaultPageSize,
		maxPages:      DefaultMaxPages,
		lookbackYears: DefaultLookbackYears,
		now:           time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an error from the USAspending API.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("usaspending API error: %s (status %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// do performs a rate limited request and decodes a 200 response into result.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait failed: %w", err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.logger != nil {
		c.logger.Debug().
			Str("method", method).
			Str("url", c.baseURL+path).
			Msg("USAspending API request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(msg)),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// SearchAwards pages through spending_by_award for contract awards inside the lookback window.
// Paging stops when the API reports no further pages or the page cap is reached.
func (c *Client) SearchAwards(ctx context.Context, search AwardSearch) ([]models.RawAward, error) {
	years := c.lookbackYears
	if search.LookbackYears > 0 {
		years = search.LookbackYears
	}
	maxPages := c.maxPages
	if search.MaxPages > 0 {
		maxPages = search.MaxPages
	}

	end := c.now().UTC()
	start := end.AddDate(-years, 0, 0)

	req := searchRequest{
		Filters: searchFilters{
			TimePeriod: []timePeriod{{
				StartDate: start.Format("2006-01-02"),
				EndDate:   end.Format("2006-01-02"),
			}},
			AwardTypeCodes: ContractAwardTypes,
			AwardAmounts:   []amountRange{{LowerBound: 0, UpperBound: maxAwardAmount}},
		},
		Fields: searchFields,
		Limit:  c.pageSize,
		Sort:   "Start Date",
		Order:  "desc",
	}
	if text := strings.TrimSpace(search.RecipientText); text != "" {
		req.Filters.RecipientSearchText = []string{text}
	}

	awards := make([]models.RawAward, 0)
	for page := 1; page <= maxPages; page++ {
		req.Page = page

		var resp searchResponse
		if err := c.do(ctx, http.MethodPost, searchPath, req, &resp); err != nil {
			return nil, fmt.Errorf("failed to search awards (page %d): %w", page, err)
		}

		for _, result := range resp.Results {
			awards = append(awards, result.toRawAward())
		}

		if !resp.PageMetadata.HasNext {
			break
		}
	}

	if c.logger != nil {
		c.logger.Debug().
			Int("awards", len(awards)).
			Str("recipient", search.RecipientText).
			Msg("USAspending award search complete")
	}

	return awards, nil
}

// GetAgencyHistory fetches the award summary for one awarding agency.
// Missing numeric fields decode to 0 and a missing last_updated resolves to now.
func (c *Client) GetAgencyHistory(ctx context.Context, agencyID string) (*models.AgencyHistory, error) {
	if strings.TrimSpace(agencyID) == "" {
		return nil, fmt.Errorf("agency id is required")
	}

	path := fmt.Sprintf("/api/v2/agency/%s/awards/", url.PathEscape(agencyID))

	var resp agencyAwardsResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch agency history for %s: %w", agencyID, err)
	}

	lastUpdated := c.now().UTC()
	if resp.LastUpdated != "" {
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, resp.LastUpdated); err == nil {
				lastUpdated = t.UTC()
				break
			}
		}
	}

	return &models.AgencyHistory{
		AgencyID:         agencyID,
		NewAwardCount:    int(resp.NewAwardCount.Float64()),
		TotalObligations: resp.TotalObligations.Float64(),
		LastUpdated:      lastUpdated,
		FiscalYear:       resp.FiscalYear,
	}, nil
}
