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

package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/lexresearch"
	"github.com/poiesic/lexresearch/ai/mock"
	"github.com/poiesic/lexresearch/core"
	"github.com/poiesic/lexresearch/retrieval/tavily"
)

const testQuery = "adverse possession requirements in Massachusetts"

type stubSearcher struct{}

func (stubSearcher) Search(context.Context, tavily.Request) ([]tavily.Result, error) {
	return []tavily.Result{{Title: "Adverse possession", URL: "https://www.mass.gov/adverse-possession", Content: "Twenty years."}}, nil
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"lexresearch"}, args...))
	return out.String(), err
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := lexresearch.DefaultConfig()
	cfg.InMemoryIndex = true
	cfg.IndexPath = ""

	generator := mock.NewMockGenerator().WithResponse("# Research Memorandum")
	provider := mock.NewMockProviderWithServices(mock.NewMockEmbedder(), generator)
	svc, err := lexresearch.NewService(cfg,
		lexresearch.WithProvider(provider),
		lexresearch.WithSearcher(stubSearcher{}))
	require.NoError(t, err)

	srv := httptest.NewServer(svc.Handler())
	t.Cleanup(func() {
		srv.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, svc.Close(ctx))
	})
	return srv
}

func TestSetupLogger(t *testing.T) {
	_, err := runApp(t, "--log-level", "verbose", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestLoadSettings(t *testing.T) {
	t.Run("defaults without config file", func(t *testing.T) {
		v, err := loadSettings("")
		require.NoError(t, err)
		assert.Equal(t, defaultAddr, v.GetString("server.addr"))
		assert.True(t, v.GetBool("jobs.strict_providers"))
	})

	t.Run("yaml file and environment", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "lexresearch.yaml")
		yaml := `
ai:
  host: http://localhost:11434
  generation_model: llama3
index:
  path: /var/lib/lexresearch
jobs:
  ttl: 1h
  max_concurrent: 8
retrieval:
  domains:
    - mass.gov
`
		require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
		t.Setenv("LEXRESEARCH_TAVILY_API_KEY", "tvly-test")

		v, err := loadSettings(path)
		require.NoError(t, err)

		cfg, err := serviceConfig(v)
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:11434/v1", cfg.AI.EmbeddingHost)
		assert.Equal(t, "http://localhost:11434/v1", cfg.AI.GenerationHost)
		assert.Equal(t, "llama3", cfg.AI.GenerationModel)
		assert.Equal(t, "/var/lib/lexresearch", cfg.IndexPath)
		assert.Equal(t, time.Hour, cfg.JobTTL)
		assert.Equal(t, 8, cfg.MaxConcurrentJobs)
		assert.Equal(t, []string{"mass.gov"}, cfg.Domains)
		assert.Equal(t, "tvly-test", cfg.TavilyAPIKey)
	})

	t.Run("missing explicit file", func(t *testing.T) {
		_, err := loadSettings(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid ai settings", func(t *testing.T) {
		v, err := loadSettings("")
		require.NoError(t, err)
		v.Set("ai.temperature", 5.0)
		_, err = serviceConfig(v)
		assert.Error(t, err)
	})
}

func TestClientCommands(t *testing.T) {
	srv := newTestServer(t)

	out, err := runApp(t, "submit", "--server", srv.URL, "--wait", "--poll-interval", "10ms", testQuery)
	require.NoError(t, err)
	assert.Contains(t, out, "# Research Memorandum")

	out, err = runApp(t, "list", "--server", srv.URL)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "JOB ID")
	assert.Contains(t, lines[1], string(core.StatusCompleted))

	id := strings.Fields(lines[1])[0]

	out, err = runApp(t, "status", "--server", srv.URL, id)
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "completed"`)

	out, err = runApp(t, "report", "--server", srv.URL, id)
	require.NoError(t, err)
	assert.Contains(t, out, "# Research Memorandum")

	out, err = runApp(t, "delete", "--server", srv.URL, id)
	require.NoError(t, err)
	assert.Contains(t, out, "deleted")

	_, err = runApp(t, "status", "--server", srv.URL, id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestClientCommands_Validation(t *testing.T) {
	srv := newTestServer(t)

	t.Run("submit without query", func(t *testing.T) {
		_, err := runApp(t, "submit", "--server", srv.URL)
		assert.Error(t, err)
	})

	t.Run("malformed job id", func(t *testing.T) {
		_, err := runApp(t, "status", "--server", srv.URL, "job-1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid job id")
	})

	t.Run("server rejects unknown provider", func(t *testing.T) {
		_, err := runApp(t, "submit", "--server", srv.URL, "--provider", "westlaw", testQuery)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "400")
	})

	t.Run("submit without wait prints id", func(t *testing.T) {
		out, err := runApp(t, "submit", "--server", srv.URL, testQuery)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, core.JobIDPrefix))
	})
}
