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
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/lexresearch/core"
)

func TestTool_ConductResearch(t *testing.T) {
	env := newTestEnv(t)

	resp, data := env.do(t, http.MethodPost, "/tools/conduct_research",
		`{"query":"`+testQuery+`","length":"standard","agents":["legal_rag","websearch"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	var result ConductResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, core.StatusCompleted, result.Status)
	assert.Contains(t, result.Content, "# Memorandum")
	assert.Equal(t, []core.Citation{testCase}, result.Sources)
	assert.Empty(t, result.Error)
}

func TestTool_ConductResearch_Failed(t *testing.T) {
	env := newTestEnv(t)
	env.generator.WithError(assert.AnError)

	resp, data := env.do(t, http.MethodPost, "/tools/conduct_research", `{"query":"`+testQuery+`"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result ConductResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, core.StatusFailed, result.Status)
	assert.Contains(t, result.Error, "Error synthesizing research report")
	assert.Empty(t, result.Content)
}

func TestTool_ConductResearch_Invalid(t *testing.T) {
	env := newTestEnv(t)
	resp, _ := env.do(t, http.MethodPost, "/tools/conduct_research", `{"query":"short"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTool_CheckStatus(t *testing.T) {
	env := newTestEnv(t)
	sub := env.submit(t, `{"query":"`+testQuery+`"}`)
	env.await(t, sub.JobID)

	for _, body := range []string{`{"jobId":"` + sub.JobID + `"}`, `{"research_id":"` + sub.JobID + `"}`} {
		resp, data := env.do(t, http.MethodPost, "/tools/check_research_status", body)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

		var status StatusResult
		require.NoError(t, json.Unmarshal(data, &status))
		assert.Equal(t, sub.JobID, status.JobID)
		assert.Equal(t, core.StatusCompleted, status.Status)
		assert.NotNil(t, status.CompletedAt)
	}

	resp, _ := env.do(t, http.MethodPost, "/tools/check_research_status", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/tools/check_research_status", `{"jobId":"research_nope"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTool_GetSources(t *testing.T) {
	release := make(chan struct{})
	env := newTestEnv(t, &stubProvider{name: core.ProviderLegalRAG, body: "b", sources: []core.Citation{testCase}, release: release})

	sub := env.submit(t, `{"query":"`+testQuery+`","providers":["legal_rag"]}`)

	resp, _ := env.do(t, http.MethodPost, "/tools/get_research_sources", `{"jobId":"`+sub.JobID+`"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "sources are served once completed")

	close(release)
	env.await(t, sub.JobID)

	resp, data := env.do(t, http.MethodPost, "/tools/get_research_sources", `{"jobId":"`+sub.JobID+`"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result SourcesResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, []core.Citation{testCase}, result.Sources)
	assert.Equal(t, []string{"The court held that use must be open."}, result.Principles)
}

func TestTool_Unknown(t *testing.T) {
	env := newTestEnv(t)
	resp, _ := env.do(t, http.MethodPost, "/tools/summon_judge", `{}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestResource_Report(t *testing.T) {
	release := make(chan struct{})
	env := newTestEnv(t, &stubProvider{name: core.ProviderLegalRAG, body: "b", release: release})

	resp, data := env.do(t, http.MethodGet, "/resources/report/research_nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Research ID research_nope not found", string(data))

	sub := env.submit(t, `{"query":"`+testQuery+`","providers":["legal_rag"]}`)
	resp, data = env.do(t, http.MethodGet, "/resources/report/"+sub.JobID, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), "Research is not completed. Current status:")

	close(release)
	env.await(t, sub.JobID)

	resp, data = env.do(t, http.MethodGet, "/resources/report/"+sub.JobID, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/markdown; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, "# Memorandum\n\nThe court held that use must be open.", string(data))
}

func TestResource_Research(t *testing.T) {
	env := newTestEnv(t)
	resp, data := env.do(t, http.MethodGet, "/resources/research/eminent%20domain%20takings", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), "# Memorandum")

	call, ok := env.generator.LastCall()
	require.True(t, ok)
	assert.Contains(t, call.Prompt, "eminent domain takings")
}

func TestResource_Research_Failed(t *testing.T) {
	env := newTestEnv(t)
	env.generator.WithError(assert.AnError)

	resp, data := env.do(t, http.MethodGet, "/resources/research/eminent%20domain%20takings", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, NoResearchContent, string(data))
}

func TestPrompt(t *testing.T) {
	env := newTestEnv(t)
	resp, data := env.do(t, http.MethodGet, "/prompts/legal_research", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), "`conduct_research`")
	assert.Contains(t, string(data), "research_12345")
}
