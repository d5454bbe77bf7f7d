package googlebooks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"tsundoku/internal/metrics"
)

const (
	defaultBaseURL = "https://www.googleapis.com/books/v1/volumes"
	serviceName    = "google_books"
)

type Client struct {
	httpClient   *http.Client
	baseURL      string
	apiKey       string
	langRestrict string
	limiter      *rate.Limiter
	cache        Cache
	log          logrus.FieldLogger
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithCache(cache Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// NewClient builds a client. rps <= 0 disables client-side rate limiting.
func NewClient(apiKey, langRestrict string, rps float64, log logrus.FieldLogger, opts ...Option) *Client {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	c := &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:      defaultBaseURL,
		apiKey:       apiKey,
		langRestrict: langRestrict,
		limiter:      rate.NewLimiter(limit, 1),
		log:          log.WithField("component", serviceName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search queries the volumes endpoint. It never returns an error: blank
// queries and upstream failures both produce an empty result.
func (c *Client) Search(ctx context.Context, query string, page, perPage int) SearchResult {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	page = min(page, LastPage(perPage))
	query = strings.TrimSpace(query)
	if query == "" {
		return emptyResult(page, perPage)
	}

	key := cacheKey(query, page, perPage, c.langRestrict)
	if c.cache != nil {
		res, ok, err := c.cache.Get(ctx, key)
		switch {
		case err != nil:
			c.log.WithError(err).Warn("search cache read failed")
		case ok:
			metrics.RecordExternalCall(serviceName, "cache_hit", 0)
			return res
		}
	}

	params := url.Values{}
	params.Set("q", FormatQuery(query))
	params.Set("maxResults", strconv.Itoa(min(perPage, maxPageSize)))
	params.Set("startIndex", strconv.Itoa((page-1)*perPage))
	if c.langRestrict != "" {
		params.Set("langRestrict", c.langRestrict)
	}
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	var body volumesResponse
	start := time.Now()
	if err := c.get(ctx, c.baseURL+"?"+params.Encode(), &body); err != nil {
		metrics.RecordExternalCall(serviceName, "degraded", time.Since(start))
		c.log.WithError(err).WithField("query", query).Error("google books search failed")
		return emptyResult(page, perPage)
	}
	metrics.RecordExternalCall(serviceName, "ok", time.Since(start))

	res := body.toResult(page, perPage)
	if c.cache != nil {
		if err := c.cache.Set(ctx, key, res); err != nil {
			c.log.WithError(err).Warn("search cache write failed")
		}
	}
	return res
}

// FindByID fetches one volume. Any failure reports false.
func (c *Client) FindByID(ctx context.Context, volumeID string) (*Volume, bool) {
	volumeID = strings.TrimSpace(volumeID)
	if volumeID == "" {
		return nil, false
	}

	u := c.baseURL + "/" + url.PathEscape(volumeID)
	if c.apiKey != "" {
		u += "?" + url.Values{"key": {c.apiKey}}.Encode()
	}

	var item volumeItem
	start := time.Now()
	if err := c.get(ctx, u, &item); err != nil {
		metrics.RecordExternalCall(serviceName, "degraded", time.Since(start))
		c.log.WithError(err).WithField("volume_id", volumeID).Error("google books lookup failed")
		return nil, false
	}
	metrics.RecordExternalCall(serviceName, "ok", time.Since(start))

	v, ok := item.toVolume()
	if !ok {
		return nil, false
	}
	return &v, true
}

func (c *Client) get(ctx context.Context, u string, target any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
