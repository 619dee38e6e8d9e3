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
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient("test-key",
		WithBaseURL(server.URL),
		WithHTTPClient(server.Client()),
		WithRetry(3, time.Millisecond),
	)
	require.NoError(t, err)
	return client
}

func TestSearch_Success(t *testing.T) {
	var got requestBody
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"title": "A", "url": "https://justia.com/a", "content": "alpha", "published_date": "2024-01-02"},
				{"title": "B", "url": "https://mass.gov/b", "content": "beta"},
				{"title": "C", "url": "https://mass.gov/c", "content": "gamma"},
			},
		})
	})

	results, err := client.Search(context.Background(), Request{
		Query:          "adverse possession",
		SearchDepth:    DepthAdvanced,
		MaxResults:     2,
		IncludeDomains: []string{"justia.com", "mass.gov"},
	})
	require.NoError(t, err)

	assert.Equal(t, "test-key", got.APIKey)
	assert.Equal(t, "adverse possession", got.Query)
	assert.Equal(t, DepthAdvanced, got.SearchDepth)
	assert.Equal(t, 2, got.MaxResults)
	assert.Equal(t, []string{"justia.com", "mass.gov"}, got.IncludeDomains)

	require.Len(t, results, 2, "results are capped at MaxResults")
	assert.Equal(t, "https://justia.com/a", results[0].URL)
	assert.Equal(t, "2024-01-02", results[0].PublishedDate)
}

func TestSearch_DefaultDepth(t *testing.T) {
	var got requestBody
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"results":[]}`))
	})

	results, err := client.Search(context.Background(), Request{Query: "q"})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, DepthBasic, got.SearchDepth)
}

func TestSearch_MissingAPIKey(t *testing.T) {
	client, err := NewClient("  ")
	require.NoError(t, err)

	_, err = client.Search(context.Background(), Request{Query: "q"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestSearch_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"results":[{"title":"ok","url":"u","content":"c"}]}`))
	})

	results, err := client.Search(context.Background(), Request{Query: "q"})
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSearch_RateLimitExhausted(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Search(context.Background(), Request{Query: "q"})
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSearch_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad api key", http.StatusUnauthorized)
	})

	_, err := client.Search(context.Background(), Request{Query: "q"})
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.ErrorContains(t, err, "401")
	assert.Equal(t, int32(1), calls.Load())
}

func TestSearch_ServerErrorRetried(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Search(context.Background(), Request{Query: "q"})
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSearch_MalformedResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	})

	_, err := client.Search(context.Background(), Request{Query: "q"})
	assert.ErrorContains(t, err, "decode response")
}

func TestNewClient_Options(t *testing.T) {
	_, err := NewClient("k", WithBaseURL(""))
	assert.Error(t, err)
	_, err = NewClient("k", WithHTTPClient(nil))
	assert.Error(t, err)
	_, err = NewClient("k", WithRetry(0, time.Second))
	assert.Error(t, err)

	client, err := NewClient("k", WithLogger(nil))
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, client.baseURL)
}
