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
	"errors"
	"fmt"
	"net/http"

	"github.com/poiesic/lexresearch/core"
)

// Tool names served under POST /tools/{name}.
const (
	ToolConductResearch = "conduct_research"
	ToolCheckStatus     = "check_research_status"
	ToolGetSources      = "get_research_sources"
)

var errNotCompleted = errors.New("research is not completed")

func (s *Server) handleTool(w http.ResponseWriter, r *http.Request) {
	switch name := r.PathValue("name"); name {
	case ToolConductResearch:
		s.toolConductResearch(w, r)
	case ToolCheckStatus:
		s.toolCheckStatus(w, r)
	case ToolGetSources:
		s.toolGetSources(w, r)
	default:
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: fmt.Sprintf("unknown tool %q", name)})
	}
}

// toolConductResearch submits a job and waits for it within the request's
// lifetime. If the caller gives up first, the latest snapshot is returned
// and the job keeps running.
func (s *Server) toolConductResearch(w http.ResponseWriter, r *http.Request) {
	var req ResearchRequest
	if err := s.readJSON(r, s.schemas.research, &req); err != nil {
		s.writeError(w, err)
		return
	}

	job, err := s.conduct(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	result := ConductResult{JobID: job.ID, Status: job.Status}
	switch job.Status {
	case core.StatusCompleted:
		result.Content = job.Content
		result.Sources = job.Sources
	case core.StatusFailed:
		result.Error = job.Error
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) conduct(ctx context.Context, req ResearchRequest) (*core.Job, error) {
	sub, err := s.backend.Submit(ctx, req.toSubmit())
	if err != nil {
		return nil, err
	}
	job, err := s.backend.Await(ctx, sub.JobID)
	if err == nil {
		return job, nil
	}
	if ctx.Err() == nil {
		return nil, err
	}
	s.logger.Warn("caller stopped waiting for research", "job", sub.JobID)
	return s.backend.Get(context.WithoutCancel(ctx), sub.JobID)
}

func (s *Server) toolCheckStatus(w http.ResponseWriter, r *http.Request) {
	var ref jobRef
	if err := s.readJSON(r, s.schemas.jobRef, &ref); err != nil {
		s.writeError(w, err)
		return
	}
	job, err := s.backend.Get(r.Context(), ref.id())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResult{
		JobID:       job.ID,
		Query:       job.Query,
		Status:      job.Status,
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
	})
}

func (s *Server) toolGetSources(w http.ResponseWriter, r *http.Request) {
	var ref jobRef
	if err := s.readJSON(r, s.schemas.jobRef, &ref); err != nil {
		s.writeError(w, err)
		return
	}
	job, err := s.backend.Get(r.Context(), ref.id())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if job.Status != core.StatusCompleted {
		s.writeError(w, fmt.Errorf("%w: current status %s", errNotCompleted, job.Status))
		return
	}
	sources, err := s.backend.Sources(r.Context(), job.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	principles := job.Principles
	if principles == nil {
		principles = []string{}
	}
	writeJSON(w, http.StatusOK, SourcesResult{JobID: job.ID, Sources: sources, Principles: principles})
}
