// Package tmdb is a thin client for The Movie Database v3 API. It does not
// retry and does not cache: one call is one GET.
package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

const DefaultBaseURL = "https://api.themoviedb.org/3"

// Config holds client settings.
type Config struct {
	APIKey  string
	BaseURL string
	// HTTPClient defaults to a client with the transport's default timeouts.
	HTTPClient *http.Client
	// Observe, when set, is called once per request with the first path
	// segment, the response status (0 on transport failure) and the latency.
	Observe func(resource string, statusCode int, duration time.Duration)
}

// Client issues authenticated GET requests against the catalog API.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	observe func(string, int, time.Duration)
}

func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		http:    httpClient,
		observe: cfg.Observe,
	}
}

// UpstreamError is returned when the catalog answers with a non-200 status.
type UpstreamError struct {
	StatusCode int
	Path       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("tmdb: %s returned status %d", e.Path, e.StatusCode)
}

// IsNotFound reports whether err is an upstream 404.
func IsNotFound(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue) && ue.StatusCode == http.StatusNotFound
}

// Page is the envelope of every paginated list endpoint.
type Page struct {
	Page         int              `json:"page"`
	Results      []map[string]any `json:"results"`
	TotalPages   int              `json:"total_pages"`
	TotalResults int              `json:"total_results"`
}

// Get requests path with query plus the API key and decodes the body into out.
// out may be nil to discard the body.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("tmdb: invalid path %q: %w", path, err)
	}
	q := u.Query()
	for key, values := range query {
		for _, v := range values {
			q.Add(key, v)
		}
	}
	q.Set("api_key", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("tmdb: failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.record(path, 0, start)
		// url.Error embeds the full URL, api key included.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("tmdb: request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()
	c.record(path, resp.StatusCode, start)

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return &UpstreamError{StatusCode: resp.StatusCode, Path: path}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("tmdb: failed to decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) record(path string, status int, start time.Time) {
	if c.observe == nil {
		return
	}
	c.observe(resourceOf(path), status, time.Since(start))
}

// resourceOf keeps metric label cardinality bounded: "/movie/550/videos" -> "movie".
func resourceOf(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(trimmed, '/'); i >= 0 {
		trimmed = trimmed[:i]
	}
	if trimmed == "" {
		return "root"
	}
	return trimmed
}
