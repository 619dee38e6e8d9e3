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
	"strconv"
	"strings"

	"github.com/tmc/langchaingo/prompts"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"

	"github.com/poiesic/lexresearch/ai"
	"github.com/poiesic/lexresearch/core"
)

// NoCaseLawMessage is the body returned when the index has no matches.
const NoCaseLawMessage = "I couldn't find any relevant case law or legal information based on your query and filters. Please try a different query or adjust the year range."

const contextSeparator = "\n\n---\n\n"

var caseLawPrompt = prompts.NewChatPromptTemplate([]prompts.MessageFormatter{
	prompts.NewSystemMessagePromptTemplate(`You are a legal research assistant specializing in Massachusetts case law.
Use the following information from legal cases to answer the query.
Only use the information provided in the context.
If the information is not in the context, say so clearly.
Be specific about case names, citations, and legal principles.
Respond in a formal legal writing style.
Cite cases properly using standard legal citation format.
Organize your analysis by legal principles and precedents.`, nil),
	prompts.NewHumanMessagePromptTemplate("Legal Context Information:\n{{.context}}\n\nLegal Query: {{.query}}", []string{"context", "query"}),
})

// CaseLaw answers queries from a case-law vector index.
type CaseLaw struct {
	store     vectorstores.VectorStore
	generator ai.Generator
	topK      int
	logger    *slog.Logger
}

var _ Provider = (*CaseLaw)(nil)

// NewCaseLaw creates the legal_rag provider.
func NewCaseLaw(store vectorstores.VectorStore, generator ai.Generator, opts ...Option) (*CaseLaw, error) {
	if store == nil {
		return nil, errors.New("vector store is required")
	}
	if generator == nil {
		return nil, errors.New("generator is required")
	}
	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	return &CaseLaw{
		store:     store,
		generator: generator,
		topK:      o.topK,
		logger:    o.logger.With("component", "retrieval", "provider", core.ProviderLegalRAG),
	}, nil
}

// Name implements Provider.
func (c *CaseLaw) Name() string {
	return core.ProviderLegalRAG
}

// Fetch searches the index with the job's year filter and asks the
// generator to answer from the retrieved passages.
func (c *CaseLaw) Fetch(ctx context.Context, query string, opts core.Options) core.SourceResult {
	var searchOpts []vectorstores.Option
	if filter := YearFilter(opts); filter != nil {
		searchOpts = append(searchOpts, vectorstores.WithFilters(filter))
	}
	c.logger.Debug("searching case law", "topK", c.topK, "yearFilter", opts.HasYearFilter())

	docs, err := c.store.SimilaritySearch(ctx, query, c.topK, searchOpts...)
	if err != nil {
		return c.failed(err)
	}

	if len(docs) == 0 {
		c.logger.Warn("no case law matched query")
		return core.SourceResult{
			Provider: core.ProviderLegalRAG,
			Body:     NoCaseLawMessage,
			Sources:  []core.Citation{},
		}
	}

	contexts := make([]string, len(docs))
	sources := make([]core.Citation, len(docs))
	for i, doc := range docs {
		cite := citationFromDocument(doc)
		sources[i] = cite
		contexts[i] = formatContext(doc, cite)
	}

	answer, err := ai.GenerateChat(ctx, c.generator, caseLawPrompt, map[string]any{
		"context": strings.Join(contexts, contextSeparator),
		"query":   query,
	})
	if err != nil {
		return c.failed(err)
	}

	c.logger.Debug("case law answer generated", "matches", len(docs))
	return core.SourceResult{
		Provider: core.ProviderLegalRAG,
		Body:     answer,
		Sources:  sources,
	}
}

func (c *CaseLaw) failed(err error) core.SourceResult {
	c.logger.Error("case law retrieval failed", "err", err)
	return Failed(core.ProviderLegalRAG, "Error retrieving legal information: "+err.Error())
}

func formatContext(doc schema.Document, cite core.Citation) string {
	year := "Unknown year"
	if cite.Year > 0 {
		year = strconv.Itoa(cite.Year)
	}
	return fmt.Sprintf("[Case: %s, Year: %s, Citation: %s]\n\n%s", cite.CaseName, year, cite.Citation, doc.PageContent)
}

func citationFromDocument(doc schema.Document) core.Citation {
	c := core.Citation{Type: core.CitationCaseLaw}
	if doc.Metadata != nil {
		c.CaseName = metadataString(doc.Metadata, "case_name")
		c.Citation = metadataString(doc.Metadata, "citation")
		c.Source = metadataString(doc.Metadata, "source")
		c.Year = metadataYear(doc.Metadata["year"])
	}
	return core.NormalizeCitation(c)
}

func metadataString(meta map[string]any, key string) string {
	if s, ok := meta[key].(string); ok {
		return s
	}
	return ""
}

// metadataYear accepts the numeric and string encodings found in hosted
// indexes.
func metadataYear(v any) int {
	switch y := v.(type) {
	case int:
		return y
	case int64:
		return int(y)
	case float64:
		return int(y)
	case float32:
		return int(y)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(y))
		if err == nil {
			return n
		}
	}
	return 0
}
