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
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/prompts"

	"github.com/poiesic/lexresearch/ai"
	"github.com/poiesic/lexresearch/core"
	"github.com/poiesic/lexresearch/retrieval/tavily"
)

// Searcher runs a web search. Satisfied by *tavily.Client.
type Searcher interface {
	Search(ctx context.Context, req tavily.Request) ([]tavily.Result, error)
}

var _ Searcher = (*tavily.Client)(nil)

var insightPrompt = prompts.NewChatPromptTemplate([]prompts.MessageFormatter{
	prompts.NewSystemMessagePromptTemplate(`You are a legal research analyst specializing in Massachusetts law.
Analyze the following recent legal information to answer the query.
Focus on extracting the most relevant and recent legal insights.
Provide a balanced perspective considering multiple sources.
Use formal legal writing style.

IMPORTANT: Reference legal sources properly with standard legal citations.
Organize your analysis by legal principles and trends.
Include relevant statutes, regulations, and case law if mentioned in the sources.`, nil),
	prompts.NewHumanMessagePromptTemplate("Recent legal information:\n{{.context}}\n\nLegal Query: {{.query}}", []string{"context", "query"}),
})

// WebSearch answers queries from recent legal commentary on the web.
type WebSearch struct {
	searcher   Searcher
	generator  ai.Generator
	maxResults int
	domains    []string
	logger     *slog.Logger
}

var _ Provider = (*WebSearch)(nil)

// NewWebSearch creates the websearch provider.
func NewWebSearch(searcher Searcher, generator ai.Generator, opts ...Option) (*WebSearch, error) {
	if searcher == nil {
		return nil, errors.New("searcher is required")
	}
	if generator == nil {
		return nil, errors.New("generator is required")
	}
	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	return &WebSearch{
		searcher:   searcher,
		generator:  generator,
		maxResults: o.maxResults,
		domains:    o.domains,
		logger:     o.logger.With("component", "retrieval", "provider", core.ProviderWebSearch),
	}, nil
}

// Name implements Provider.
func (w *WebSearch) Name() string {
	return core.ProviderWebSearch
}

// AugmentQuery focuses a research question on Massachusetts case law.
func AugmentQuery(query string) string {
	return "Massachusetts legal cases " + query + " recent interpretation court decisions"
}

// Fetch searches the allow-listed legal sites and summarizes the results.
// Year options are ignored.
func (w *WebSearch) Fetch(ctx context.Context, query string, _ core.Options) core.SourceResult {
	augmented := AugmentQuery(query)
	w.logger.Debug("web searching", "query", augmented)

	results, err := w.searcher.Search(ctx, tavily.Request{
		Query:          augmented,
		SearchDepth:    tavily.DepthAdvanced,
		MaxResults:     w.maxResults,
		IncludeDomains: w.domains,
	})
	if err != nil {
		w.logger.Error("web search failed", "err", err)
		return Failed(core.ProviderWebSearch, "Error retrieving web information: "+err.Error())
	}

	sources := make([]core.Citation, len(results))
	for i, r := range results {
		sources[i] = core.NormalizeCitation(core.Citation{
			Type:          core.CitationWeb,
			Title:         r.Title,
			URL:           r.URL,
			PublishedDate: r.PublishedDate,
		})
	}

	insights, err := ai.GenerateChat(ctx, w.generator, insightPrompt, map[string]any{
		"context": formatWebResults(results),
		"query":   query,
	})
	if err != nil {
		w.logger.Error("insight generation failed", "err", err)
		msg := "Error generating insights from web search: " + err.Error()
		return core.SourceResult{
			Provider: core.ProviderWebSearch,
			Body:     msg,
			Sources:  sources,
			Err:      msg,
		}
	}

	return core.SourceResult{
		Provider: core.ProviderWebSearch,
		Body:     insights,
		Sources:  sources,
	}
}

func formatWebResults(results []tavily.Result) string {
	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "%d. Title: %s\n", i+1, r.Title)
		fmt.Fprintf(&b, "   URL: %s\n", r.URL)
		fmt.Fprintf(&b, "   Published Date: %s\n", r.PublishedDate)
		fmt.Fprintf(&b, "   Content Snippet: %s\n\n", Snippet(r.Content))
	}
	return b.String()
}

// Snippet cuts content to SnippetLimit runes and marks the cut with "...".
func Snippet(content string) string {
	runes := []rune(content)
	if len(runes) <= SnippetLimit {
		return content
	}
	return string(runes[:SnippetLimit]) + "..."
}
