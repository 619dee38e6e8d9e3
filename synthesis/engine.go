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

package synthesis

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/poiesic/lexresearch/ai"
	"github.com/poiesic/lexresearch/core"
)

// EmptyReportMessage replaces a blank generation result so completed jobs
// always carry content.
const EmptyReportMessage = "The research sources did not produce enough material for a report. Please refine the query or adjust the year range."

// Request is the input to one synthesis.
type Request struct {
	Query string
	// Providers lists what the job asked for. Providers that were not
	// requested render a placeholder section.
	Providers []string
	Results   map[string]core.SourceResult
	Format    core.Format
	Length    core.LengthTier
}

// Report is the synthesized output.
type Report struct {
	Content    string
	Sources    []core.Citation
	Principles []string
}

// Engine merges provider results into a single research report.
type Engine struct {
	generator ai.Generator
	dedupe    bool
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger.With("component", "synthesis")
		return nil
	}
}

// WithDeduplication toggles removal of duplicate citations when merging
// sources. Enabled by default.
func WithDeduplication(enabled bool) Option {
	return func(e *Engine) error {
		e.dedupe = enabled
		return nil
	}
}

// NewEngine creates a synthesis engine.
func NewEngine(generator ai.Generator, opts ...Option) (*Engine, error) {
	if generator == nil {
		return nil, ErrNilGenerator
	}
	e := &Engine{
		generator: generator,
		dedupe:    true,
		logger:    slog.Default().With("component", "synthesis"),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Synthesize makes exactly one generation call. On failure the returned
// report carries the error text as content and the error wraps
// ErrGenerationFailed.
func (e *Engine) Synthesize(ctx context.Context, req Request) (*Report, error) {
	directive := LengthDirective(req.Length)
	format := req.Format
	if format == "" {
		format = core.FormatMarkdown
	}

	values := map[string]any{
		"pages":      directive.Pages,
		"detail":     directive.Detail,
		"format":     string(format),
		"query":      req.Query,
		"historical": sectionBody(req, core.ProviderLegalRAG),
		"web":        sectionBody(req, core.ProviderWebSearch),
	}

	e.logger.Debug("synthesizing report", "format", format, "length", req.Length, "providers", len(req.Results))
	content, err := ai.GenerateChat(ctx, e.generator, reportPrompt, values)
	if err != nil {
		e.logger.Error("synthesis failed", "err", err)
		return &Report{
			Content: "Error synthesizing research report: " + err.Error(),
			Sources: []core.Citation{},
		}, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	content = strings.TrimSpace(content)
	if content == "" {
		e.logger.Warn("synthesis returned empty content")
		content = EmptyReportMessage
	} else if format == core.FormatJSON {
		var ok bool
		if content, ok = normalizeJSON(content); !ok {
			e.logger.Warn("synthesis returned invalid JSON")
		}
	}

	return &Report{
		Content:    content,
		Sources:    e.MergeSources(req.Results),
		Principles: core.ExtractLegalPrinciples(content),
	}, nil
}

func sectionBody(req Request, provider string) string {
	if !slices.Contains(req.Providers, provider) {
		return NotRequestedPlaceholder
	}
	result, ok := req.Results[provider]
	if !ok || strings.TrimSpace(result.Body) == "" {
		return MissingResultPlaceholder
	}
	return result.Body
}

// MergeSources concatenates citations in provider order: legal_rag,
// websearch, then any other providers by name. Encounter order is kept
// within each provider.
func (e *Engine) MergeSources(results map[string]core.SourceResult) []core.Citation {
	merged := []core.Citation{}
	seen := make(map[string]struct{})
	for _, name := range providerOrder(results) {
		for _, c := range results[name].Sources {
			if e.dedupe {
				key := citationKey(c)
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
			}
			merged = append(merged, c)
		}
	}
	return merged
}

func providerOrder(results map[string]core.SourceResult) []string {
	order := make([]string, 0, len(results))
	var rest []string
	for _, name := range []string{core.ProviderLegalRAG, core.ProviderWebSearch} {
		if _, ok := results[name]; ok {
			order = append(order, name)
		}
	}
	for name := range results {
		if name != core.ProviderLegalRAG && name != core.ProviderWebSearch {
			rest = append(rest, name)
		}
	}
	slices.Sort(rest)
	return append(order, rest...)
}

func citationKey(c core.Citation) string {
	if c.Type == core.CitationWeb {
		if c.URL != "" {
			return "web|" + c.URL
		}
		return "web|title|" + c.Title
	}
	if c.Citation != "" {
		return "case|" + c.Citation
	}
	return "case|" + c.CaseName + "|" + strconv.Itoa(c.Year)
}
