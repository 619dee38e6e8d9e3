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

package core

import (
	"maps"
	"slices"
	"time"
)

// JobStatus is the lifecycle state of a research job.
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusInProgress JobStatus = "in_progress"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// IsTerminal reports whether no further transitions can leave s.
func (s JobStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Format is the output format requested for the final report.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
)

// LengthTier controls the target depth of the synthesized report.
type LengthTier string

const (
	LengthBrief         LengthTier = "brief"
	LengthStandard      LengthTier = "standard"
	LengthComprehensive LengthTier = "comprehensive"
)

// Provider names understood by the orchestrator.
const (
	ProviderLegalRAG  = "legal_rag"
	ProviderWebSearch = "websearch"
)

// DefaultProviders is used when a request does not name any providers.
var DefaultProviders = []string{ProviderLegalRAG, ProviderWebSearch}

// Options are the immutable per-job settings chosen at submission.
type Options struct {
	Format    Format     `json:"format"`
	Length    LengthTier `json:"length"`
	YearStart *int       `json:"start_year,omitempty"`
	YearEnd   *int       `json:"end_year,omitempty"`
}

// HasYearFilter reports whether either year bound is set.
func (o Options) HasYearFilter() bool {
	return o.YearStart != nil || o.YearEnd != nil
}

// CitationType tags the variant held by a Citation.
type CitationType string

const (
	CitationCaseLaw CitationType = "case_law"
	CitationWeb     CitationType = "web"
)

// Citation is a normalized source record. Case-law citations use CaseName,
// Citation, Year and Source; web citations use Title, URL and PublishedDate.
type Citation struct {
	Type          CitationType `json:"type"`
	CaseName      string       `json:"case_name,omitempty"`
	Citation      string       `json:"citation,omitempty"`
	Year          int          `json:"year,omitempty"`
	Title         string       `json:"title,omitempty"`
	URL           string       `json:"url,omitempty"`
	PublishedDate string       `json:"published_date,omitempty"`
	Source        string       `json:"source,omitempty"`
}

// SourceResult is one provider's normalized output. A non-empty Err marks
// the provider as degraded; Body is always populated.
type SourceResult struct {
	Provider string     `json:"provider"`
	Body     string     `json:"response"`
	Sources  []Citation `json:"sources"`
	Err      string     `json:"error,omitempty"`
}

// Degraded reports whether the provider failed.
func (r SourceResult) Degraded() bool {
	return r.Err != ""
}

// Metadata carries request echo and diagnostics alongside a job.
type Metadata struct {
	Validation     QueryValidation   `json:"validation"`
	Format         Format            `json:"format"`
	Length         LengthTier        `json:"length"`
	Providers      []string          `json:"agents"`
	YearStart      *int              `json:"start_year,omitempty"`
	YearEnd        *int              `json:"end_year,omitempty"`
	ProviderErrors map[string]string `json:"provider_errors,omitempty"`
}

// Job is the tracked lifecycle record of one research request.
type Job struct {
	ID        string
	Query     string
	Providers []string
	Options   Options
	Status    JobStatus
	Content   string
	Sources   []Citation
	// Principles are the rule statements extracted from Content.
	Principles  []string
	Error       string
	Metadata    Metadata
	StartedAt   time.Time
	CompletedAt *time.Time
}

// NewJob creates a pending job. The id must come from NewJobID.
func NewJob(id, query string, providers []string, opts Options, validation QueryValidation, now time.Time) *Job {
	providers = slices.Clone(providers)
	if providers == nil {
		providers = []string{}
	}
	return &Job{
		ID:        id,
		Query:     query,
		Providers: providers,
		Options:   opts,
		Status:    StatusPending,
		Sources:   []Citation{},
		Metadata: Metadata{
			Validation: validation,
			Format:     opts.Format,
			Length:     opts.Length,
			Providers:  slices.Clone(providers),
			YearStart:  opts.YearStart,
			YearEnd:    opts.YearEnd,
		},
		StartedAt: now,
	}
}

// Summary returns the list projection of the job.
func (j *Job) Summary() JobSummary {
	s := JobSummary{
		ID:        j.ID,
		Query:     j.Query,
		Status:    j.Status,
		StartedAt: j.StartedAt,
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		s.CompletedAt = &t
	}
	return s
}

// Clone returns a deep copy of the job.
func (j *Job) Clone() *Job {
	c := *j
	c.Providers = slices.Clone(j.Providers)
	c.Sources = slices.Clone(j.Sources)
	c.Principles = slices.Clone(j.Principles)
	c.Options.YearStart = cloneInt(j.Options.YearStart)
	c.Options.YearEnd = cloneInt(j.Options.YearEnd)
	c.Metadata.Providers = slices.Clone(j.Metadata.Providers)
	c.Metadata.YearStart = cloneInt(j.Metadata.YearStart)
	c.Metadata.YearEnd = cloneInt(j.Metadata.YearEnd)
	c.Metadata.ProviderErrors = maps.Clone(j.Metadata.ProviderErrors)
	c.Metadata.Validation.Enhancements = slices.Clone(j.Metadata.Validation.Enhancements)
	c.Metadata.Validation.Warnings = slices.Clone(j.Metadata.Validation.Warnings)
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

// JobSummary is the projection returned when listing jobs.
type JobSummary struct {
	ID          string
	Query       string
	Status      JobStatus
	StartedAt   time.Time
	CompletedAt *time.Time
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Passage is one indexed chunk of a court opinion in the local case-law store.
type Passage struct {
	ID         string // content-derived, see IDFromContent
	Text       string
	CaseName   string
	Citation   string
	Year       int
	Source     string
	Vector     []float32
	InsertedAt time.Time
}

// CitationFor builds the case-law citation for a passage.
func (p *Passage) CitationFor() Citation {
	return NormalizeCitation(Citation{
		Type:     CitationCaseLaw,
		CaseName: p.CaseName,
		Citation: p.Citation,
		Year:     p.Year,
		Source:   p.Source,
	})
}
