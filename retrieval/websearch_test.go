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

package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/lexresearch/ai/mock"
	"github.com/poiesic/lexresearch/core"
	"github.com/poiesic/lexresearch/retrieval/tavily"
)

type fakeSearcher struct {
	results []tavily.Result
	err     error
	last    tavily.Request
}

func (f *fakeSearcher) Search(ctx context.Context, req tavily.Request) ([]tavily.Result, error) {
	f.last = req
	return f.results, f.err
}

func TestWebSearch_Fetch(t *testing.T) {
	long := strings.Repeat("a", 350)
	searcher := &fakeSearcher{results: []tavily.Result{
		{Title: "SJC clarifies rule", URL: "https://masslawyersweekly.com/x", Content: long, PublishedDate: "2024-03-01"},
		{URL: "https://justia.com/y", Content: "short"},
	}}
	gen := mock.NewMockGenerator().WithResponse("Recent commentary suggests...")

	provider, err := NewWebSearch(searcher, gen)
	require.NoError(t, err)
	assert.Equal(t, core.ProviderWebSearch, provider.Name())

	result := provider.Fetch(context.Background(), "adverse possession", core.Options{YearStart: intPtr(2000)})
	assert.False(t, result.Degraded())
	assert.Equal(t, "Recent commentary suggests...", result.Body)

	assert.Equal(t, "Massachusetts legal cases adverse possession recent interpretation court decisions", searcher.last.Query)
	assert.Equal(t, tavily.DepthAdvanced, searcher.last.SearchDepth)
	assert.Equal(t, DefaultMaxResults, searcher.last.MaxResults)
	assert.Equal(t, DefaultDomains, searcher.last.IncludeDomains)

	require.Len(t, result.Sources, 2)
	assert.Equal(t, core.Citation{
		Type: core.CitationWeb, Title: "SJC clarifies rule", URL: "https://masslawyersweekly.com/x",
		PublishedDate: "2024-03-01", Source: core.WebSearchSource,
	}, result.Sources[0])
	assert.Equal(t, core.DefaultWebTitle, result.Sources[1].Title)

	call, ok := gen.LastCall()
	require.True(t, ok)
	assert.Contains(t, call.Prompt, "1. Title: SJC clarifies rule\n")
	assert.Contains(t, call.Prompt, strings.Repeat("a", 300)+"...")
	assert.NotContains(t, call.Prompt, strings.Repeat("a", 301))
	assert.Contains(t, call.Prompt, "Content Snippet: short\n")
	assert.Contains(t, call.Prompt, "Legal Query: adverse possession")
}

func TestWebSearch_SearchError(t *testing.T) {
	gen := mock.NewMockGenerator()
	provider, err := NewWebSearch(&fakeSearcher{err: errors.New("tavily: rate limited")}, gen)
	require.NoError(t, err)

	result := provider.Fetch(context.Background(), "q", core.Options{})
	assert.True(t, result.Degraded())
	assert.Equal(t, "Error retrieving web information: tavily: rate limited", result.Body)
	assert.Empty(t, result.Sources)
	assert.Equal(t, 0, gen.CallCount())
}

func TestWebSearch_InsightError(t *testing.T) {
	searcher := &fakeSearcher{results: []tavily.Result{{Title: "T", URL: "https://mass.gov/t"}}}
	provider, err := NewWebSearch(searcher, mock.NewMockGenerator().WithError(errors.New("timeout")))
	require.NoError(t, err)

	result := provider.Fetch(context.Background(), "q", core.Options{})
	assert.True(t, result.Degraded())
	assert.Equal(t, "Error generating insights from web search: timeout", result.Body)
	require.Len(t, result.Sources, 1, "sources survive an insight failure")
}

func TestWebSearch_Options(t *testing.T) {
	searcher := &fakeSearcher{}
	provider, err := NewWebSearch(searcher, mock.NewMockGenerator(), WithMaxResults(3), WithDomains(nil))
	require.NoError(t, err)

	provider.Fetch(context.Background(), "q", core.Options{})
	assert.Equal(t, 3, searcher.last.MaxResults)
	assert.Empty(t, searcher.last.IncludeDomains)

	_, err = NewWebSearch(nil, mock.NewMockGenerator())
	assert.Error(t, err)
	_, err = NewWebSearch(searcher, mock.NewMockGenerator(), WithMaxResults(-1))
	assert.Error(t, err)
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "abc", Snippet("abc"))
	exact := strings.Repeat("é", SnippetLimit)
	assert.Equal(t, exact, Snippet(exact))
	assert.Equal(t, exact+"...", Snippet(exact+"z"))
}
