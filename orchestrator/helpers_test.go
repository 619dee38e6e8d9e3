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

package orchestrator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/poiesic/lexresearch/ai/mock"
	"github.com/poiesic/lexresearch/core"
	"github.com/poiesic/lexresearch/retrieval"
	"github.com/poiesic/lexresearch/storage"
	"github.com/poiesic/lexresearch/storage/memory"
	"github.com/poiesic/lexresearch/synthesis"
)

const testQuery = "adverse possession requirements in Massachusetts"

type stubProvider struct {
	name  string
	fetch func(ctx context.Context, query string, opts core.Options) core.SourceResult
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Fetch(ctx context.Context, query string, opts core.Options) core.SourceResult {
	return s.fetch(ctx, query, opts)
}

func staticProvider(name, body string, sources ...core.Citation) *stubProvider {
	return &stubProvider{name: name, fetch: func(context.Context, string, core.Options) core.SourceResult {
		return core.SourceResult{Provider: name, Body: body, Sources: sources}
	}}
}

func blockingProvider(name string, release <-chan struct{}) *stubProvider {
	return &stubProvider{name: name, fetch: func(ctx context.Context, _ string, _ core.Options) core.SourceResult {
		select {
		case <-release:
			return core.SourceResult{Provider: name, Body: "released"}
		case <-ctx.Done():
			return retrieval.Failed(name, ctx.Err().Error())
		}
	}}
}

var (
	testCase = core.Citation{Type: core.CitationCaseLaw, CaseName: "Lawrence v. Concord", Citation: "439 Mass. 416", Year: 2003, Source: core.DefaultCaseSource}
	testWeb  = core.Citation{Type: core.CitationWeb, Title: "Commentary", URL: "https://masslawyersweekly.com/a", Source: core.WebSearchSource}
)

func defaultProviders() []retrieval.Provider {
	return []retrieval.Provider{
		staticProvider(core.ProviderLegalRAG, "case analysis", testCase),
		staticProvider(core.ProviderWebSearch, "web insights", testWeb),
	}
}

type fixture struct {
	orch      *Orchestrator
	store     storage.JobStore
	generator *mock.MockGenerator
}

func newFixture(t *testing.T, providers []retrieval.Provider, opts ...Option) *fixture {
	t.Helper()
	store := memory.NewJobStore()
	gen := mock.NewMockGenerator().WithResponse("# Research Memorandum")
	engine, err := synthesis.NewEngine(gen)
	require.NoError(t, err)

	orch, err := New(store, engine, providers, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		orch.Close(ctx)
		store.Close()
	})
	return &fixture{orch: orch, store: store, generator: gen}
}

func (f *fixture) submitAndAwait(t *testing.T, req SubmitRequest) *core.Job {
	t.Helper()
	sub, err := f.orch.Submit(context.Background(), req)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	job, err := f.orch.Await(ctx, sub.JobID)
	require.NoError(t, err)
	require.True(t, job.Status.IsTerminal(), "job should be terminal, got %s", job.Status)
	return job
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingMonitor struct {
	mu        sync.Mutex
	submitted []string
	started   []string
	providers []string
	finished  map[string]core.JobStatus
	// events records hook calls in arrival order.
	events []string
}

func newRecordingMonitor() *recordingMonitor {
	return &recordingMonitor{finished: make(map[string]core.JobStatus)}
}

func (m *recordingMonitor) JobSubmitted(id string, _ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitted = append(m.submitted, id)
	m.events = append(m.events, "submitted")
}

func (m *recordingMonitor) JobStarted(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = append(m.started, id)
	m.events = append(m.events, "started")
}

func (m *recordingMonitor) ProviderFinished(_ string, result core.SourceResult, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers = append(m.providers, result.Provider)
	m.events = append(m.events, "provider")
}

func (m *recordingMonitor) JobFinished(id string, status core.JobStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finished[id] = status
	m.events = append(m.events, "finished")
}

// panickingMonitor fails inside the per-provider and finish hooks.
type panickingMonitor struct{}

func (panickingMonitor) JobSubmitted(string, string) {}

func (panickingMonitor) JobStarted(string) {}

func (panickingMonitor) ProviderFinished(string, core.SourceResult, time.Duration) {
	panic("monitor exploded")
}

func (panickingMonitor) JobFinished(string, core.JobStatus) {
	panic("monitor exploded")
}
