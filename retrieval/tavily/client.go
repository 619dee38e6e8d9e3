// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/poiesic/lexresearch/retry"
)

const (
	// DefaultBaseURL is the Tavily search endpoint.
	DefaultBaseURL = "https://api.tavily.com/search"

	DepthBasic    = "basic"
	DepthAdvanced = "advanced"

	defaultTimeout     = 30 * time.Second
	defaultMaxAttempts = 4
	defaultBaseDelay   = time.Second
)

var (
	// ErrMissingAPIKey is returned when no API key is configured.
	ErrMissingAPIKey = errors.New("tavily: API key is missing")

	// ErrRateLimited is returned when retries are exhausted on HTTP 429.
	ErrRateLimited = errors.New("tavily: rate limited")

	// ErrUnexpectedStatus is returned for any other non-200 response.
	ErrUnexpectedStatus = errors.New("tavily: unexpected status")
)

// Request describes one search.
type Request struct {
	Query          string
	SearchDepth    string
	MaxResults     int
	IncludeDomains []string
}

// Result is one search hit.
type Result struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	PublishedDate string  `json:"published_date,omitempty"`
	Score         float64 `json:"score,omitempty"`
}

type requestBody struct {
	APIKey         string   `json:"api_key"`
	Query          string   `json:"query"`
	SearchDepth    string   `json:"search_depth,omitempty"`
	MaxResults     int      `json:"max_results,omitempty"`
	IncludeDomains []string `json:"include_domains,omitempty"`
}

type responseBody struct {
	Results []Result `json:"results"`
}

// Client calls the Tavily search API.
type Client struct {
	apiKey      string
	baseURL     string
	httpClient  *http.Client
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger
}

// Option configures a Client.
type Option func(*Client) error

// WithBaseURL overrides the search endpoint.
func WithBaseURL(url string) Option {
	return func(c *Client) error {
		if url == "" {
			return errors.New("base URL cannot be empty")
		}
		c.baseURL = url
		return nil
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) error {
		if client == nil {
			return errors.New("http client cannot be nil")
		}
		c.httpClient = client
		return nil
	}
}

// WithRetry sets how often a rate-limited or 5xx request is retried and the
// initial backoff delay.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(c *Client) error {
		if maxAttempts <= 0 {
			return retry.ErrInvalidMaxAttempts
		}
		c.maxAttempts = maxAttempts
		c.baseDelay = baseDelay
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger.With("component", "tavily")
		return nil
	}
}

// NewClient creates a Tavily client.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	c := &Client{
		apiKey:      apiKey,
		baseURL:     DefaultBaseURL,
		httpClient:  &http.Client{Timeout: defaultTimeout},
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
		logger:      slog.Default().With("component", "tavily"),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Search posts the request to Tavily. HTTP 429 and 5xx responses are retried
// with exponential backoff; other failures are returned immediately.
func (c *Client) Search(ctx context.Context, req Request) ([]Result, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return nil, ErrMissingAPIKey
	}

	depth := req.SearchDepth
	if depth == "" {
		depth = DepthBasic
	}
	payload, err := json.Marshal(requestBody{
		APIKey:         c.apiKey,
		Query:          req.Query,
		SearchDepth:    depth,
		MaxResults:     req.MaxResults,
		IncludeDomains: req.IncludeDomains,
	})
	if err != nil {
		return nil, err
	}

	var results []Result
	err = retry.WithBackoff(ctx, func() error {
		var err error
		results, err = c.post(ctx, payload)
		return err
	}, c.maxAttempts, c.baseDelay)
	if err != nil {
		return nil, err
	}

	if req.MaxResults > 0 && len(results) > req.MaxResults {
		results = results[:req.MaxResults]
	}
	c.logger.Debug("search complete", "results", len(results))
	return results, nil
}

func (c *Client) post(ctx context.Context, payload []byte) ([]Result, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, retry.Permanent(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, retry.Permanent(err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		c.logger.Warn("rate limited, backing off")
		return nil, ErrRateLimited
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: http %d", ErrUnexpectedStatus, resp.StatusCode)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, retry.Permanent(fmt.Errorf("%w: http %d: %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var decoded responseBody
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, retry.Permanent(fmt.Errorf("tavily: decode response: %w", err))
	}
	return decoded.Results, nil
}
