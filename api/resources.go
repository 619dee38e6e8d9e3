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
	"errors"
	"fmt"
	"net/http"

	"github.com/poiesic/lexresearch/core"
	"github.com/poiesic/lexresearch/storage"
)

// NoResearchContent is served when topic research yields no report.
const NoResearchContent = "No research content available"

// ResearchPrompt describes the tools to an assistant client.
const ResearchPrompt = `# Legal Research Assistant

I'll help you conduct comprehensive legal research on Massachusetts law topics, combining historical case law with current legal information.

## Available Tools

- ` + "`conduct_research`" + `: Conduct legal research on a specific topic
  - Parameters:
    - ` + "`query`" + `: The legal question or research topic
    - ` + "`format`" + `: Output format (markdown, json, html)
    - ` + "`length`" + `: Research depth (brief, standard, comprehensive)
    - ` + "`agents`" + `: Research sources to use (legal_rag, websearch)
    - ` + "`year_start`" + `: Optional starting year for case filtering
    - ` + "`year_end`" + `: Optional ending year for case filtering

- ` + "`check_research_status`" + `: Check the status of an ongoing research
  - Parameters:
    - ` + "`research_id`" + `: ID of the research request

- ` + "`get_research_sources`" + `: Get sources used in the research
  - Parameters:
    - ` + "`research_id`" + `: ID of the research request

## Examples

To conduct research on a legal topic:
    I need research on adverse possession requirements in Massachusetts

To specify research parameters:
    Can you conduct comprehensive research on eminent domain case law in Massachusetts between 1990 and 2010?

To check research status:
    Can you check the status of my research with ID research_12345?
`

func (s *Server) handleReportResource(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	job, err := s.backend.Get(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeText(w, http.StatusNotFound, fmt.Sprintf("Research ID %s not found", id))
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	if job.Status != core.StatusCompleted {
		writeText(w, http.StatusOK, fmt.Sprintf("Research is not completed. Current status: %s", job.Status))
		return
	}
	writeText(w, http.StatusOK, job.Content)
}

// handleResearchResource runs default research on the topic and serves
// the report.
func (s *Server) handleResearchResource(w http.ResponseWriter, r *http.Request) {
	job, err := s.conduct(r.Context(), ResearchRequest{Query: r.PathValue("topic")})
	if err != nil {
		s.writeError(w, err)
		return
	}
	if job.Status != core.StatusCompleted || job.Content == "" {
		writeText(w, http.StatusOK, NoResearchContent)
		return
	}
	writeText(w, http.StatusOK, job.Content)
}

func (s *Server) handlePrompt(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, ResearchPrompt)
}
