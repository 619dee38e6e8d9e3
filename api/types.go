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

package api

import (
	"context"
	"time"

	"github.com/poiesic/lexresearch/core"
	"github.com/poiesic/lexresearch/orchestrator"
)

// Backend is what the REST and tool bindings need from the research
// service. Satisfied by *orchestrator.Orchestrator.
type Backend interface {
	Submit(ctx context.Context, req orchestrator.SubmitRequest) (*orchestrator.Submission, error)
	Get(ctx context.Context, id string) (*core.Job, error)
	List(ctx context.Context) ([]core.JobSummary, error)
	Delete(ctx context.Context, id string) error
	Sources(ctx context.Context, id string) ([]core.Citation, error)
	Await(ctx context.Context, id string) (*core.Job, error)
}

var _ Backend = (*orchestrator.Orchestrator)(nil)

// ResearchRequest is the body of POST /research and the arguments of the
// conduct_research tool. The snake_case and "agents" spellings are
// accepted for tool clients.
type ResearchRequest struct {
	Query         string   `json:"query"`
	Format        string   `json:"format,omitempty"`
	Length        string   `json:"length,omitempty"`
	Providers     []string `json:"providers,omitempty"`
	Agents        []string `json:"agents,omitempty"`
	YearStart     *int     `json:"yearStart,omitempty"`
	YearEnd       *int     `json:"yearEnd,omitempty"`
	ToolYearStart *int     `json:"year_start,omitempty"`
	ToolYearEnd   *int     `json:"year_end,omitempty"`
}

func (r ResearchRequest) toSubmit() orchestrator.SubmitRequest {
	providers := r.Providers
	if providers == nil {
		providers = r.Agents
	}
	start, end := r.YearStart, r.YearEnd
	if start == nil {
		start = r.ToolYearStart
	}
	if end == nil {
		end = r.ToolYearEnd
	}
	return orchestrator.SubmitRequest{
		Query:     r.Query,
		Providers: providers,
		Options: core.Options{
			Format:    core.Format(r.Format),
			Length:    core.LengthTier(r.Length),
			YearStart: start,
			YearEnd:   end,
		},
	}
}

// SubmitResponse acknowledges an accepted job.
type SubmitResponse struct {
	JobID   string         `json:"jobId"`
	Status  core.JobStatus `json:"status"`
	Message string         `json:"message"`
}

// JobResponse is the poll view of a job.
type JobResponse struct {
	JobID       string          `json:"jobId"`
	Query       string          `json:"query"`
	Status      core.JobStatus  `json:"status"`
	Content     string          `json:"content,omitempty"`
	Sources     []core.Citation `json:"sources,omitempty"`
	Metadata    core.Metadata   `json:"metadata"`
	StartedAt   time.Time       `json:"startedAt"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
	Error       string          `json:"error,omitempty"`
}

func newJobResponse(j *core.Job) JobResponse {
	return JobResponse{
		JobID:       j.ID,
		Query:       j.Query,
		Status:      j.Status,
		Content:     j.Content,
		Sources:     j.Sources,
		Metadata:    j.Metadata,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
		Error:       j.Error,
	}
}

// SummaryResponse is one entry of GET /research.
type SummaryResponse struct {
	JobID       string         `json:"jobId"`
	Query       string         `json:"query"`
	Status      core.JobStatus `json:"status"`
	StartedAt   time.Time      `json:"startedAt"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
}

func newSummaryResponse(s core.JobSummary) SummaryResponse {
	return SummaryResponse{
		JobID:       s.ID,
		Query:       s.Query,
		Status:      s.Status,
		StartedAt:   s.StartedAt,
		CompletedAt: s.CompletedAt,
	}
}

// DeleteResponse confirms a deletion.
type DeleteResponse struct {
	Status string `json:"status"`
	JobID  string `json:"jobId"`
}

// ErrorResponse is the body of every 4xx and 5xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// jobRef identifies a job in tool arguments.
type jobRef struct {
	JobID      string `json:"jobId"`
	ResearchID string `json:"research_id"`
}

func (r jobRef) id() string {
	if r.JobID != "" {
		return r.JobID
	}
	return r.ResearchID
}

// ConductResult is the conduct_research tool result.
type ConductResult struct {
	JobID   string          `json:"jobId"`
	Status  core.JobStatus  `json:"status"`
	Content string          `json:"content,omitempty"`
	Sources []core.Citation `json:"sources,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// StatusResult is the check_research_status tool result.
type StatusResult struct {
	JobID       string         `json:"jobId"`
	Query       string         `json:"query"`
	Status      core.JobStatus `json:"status"`
	StartedAt   time.Time      `json:"startedAt"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
}

// SourcesResult is the get_research_sources tool result.
type SourcesResult struct {
	JobID      string          `json:"jobId"`
	Sources    []core.Citation `json:"sources"`
	Principles []string        `json:"principles"`
}
