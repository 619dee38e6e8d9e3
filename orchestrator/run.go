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
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/poiesic/lexresearch/core"
	"github.com/poiesic/lexresearch/retrieval"
	"github.com/poiesic/lexresearch/storage"
	"github.com/poiesic/lexresearch/synthesis"
)

// run drives one job from pending to a terminal status.
func (o *Orchestrator) run(job *core.Job) {
	ctx := o.ctx
	logger := o.logger.With("job", job.ID)
	status := core.StatusFailed

	defer o.release(job.ID)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("job panicked", "panic", r)
			o.fail(ctx, job.ID, fmt.Sprintf("internal error: %v", r))
			status = core.StatusFailed
		}
		o.monitor.JobFinished(job.ID, status)
	}()

	if _, err := o.store.Update(ctx, job.ID, core.JobPatch{Status: core.StatusPtr(core.StatusInProgress)}); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			logger.Debug("job deleted before start")
			return
		}
		logger.Error("failed to start job", "err", err)
		o.fail(ctx, job.ID, "internal error: "+err.Error())
		return
	}
	o.monitor.JobStarted(job.ID)
	logger.Debug("job started", "providers", job.Providers)

	results := o.fanOut(ctx, job)

	report, err := o.engine.Synthesize(ctx, synthesis.Request{
		Query:     job.Query,
		Providers: job.Providers,
		Results:   results,
		Format:    job.Options.Format,
		Length:    job.Options.Length,
	})
	completedAt := o.now().UTC()

	if err != nil {
		msg := err.Error()
		if report != nil && report.Content != "" {
			msg = report.Content
		}
		logger.Error("synthesis failed", "err", err)
		o.finish(ctx, job.ID, core.JobPatch{
			Status:      core.StatusPtr(core.StatusFailed),
			Error:       core.StringPtr(msg),
			CompletedAt: &completedAt,
		})
		return
	}
	if report == nil {
		o.fail(ctx, job.ID, "internal error: synthesis returned no report")
		return
	}

	if o.finish(ctx, job.ID, core.JobPatch{
		Status:         core.StatusPtr(core.StatusCompleted),
		Content:        core.StringPtr(report.Content),
		ReplaceSources: report.Sources,
		Principles:     report.Principles,
		CompletedAt:    &completedAt,
	}) {
		status = core.StatusCompleted
		logger.Info("job completed", "sources", len(report.Sources), "principles", len(report.Principles))
	}
}

// fanOut calls every requested provider concurrently and records each
// result as it arrives. Provider failures never cancel their siblings.
func (o *Orchestrator) fanOut(ctx context.Context, job *core.Job) map[string]core.SourceResult {
	var (
		g       errgroup.Group
		mu      sync.Mutex
		results = make(map[string]core.SourceResult, len(job.Providers))
	)

	for _, name := range job.Providers {
		provider, ok := o.providers[name]
		if !ok {
			continue
		}
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					o.logger.Error("recording provider result panicked", "job", job.ID, "provider", name, "panic", r)
				}
			}()
			start := o.now()
			result := o.callProvider(ctx, provider, job.Query, job.Options)
			elapsed := o.now().Sub(start)

			mu.Lock()
			results[name] = result
			mu.Unlock()

			patch := core.JobPatch{AppendSources: result.Sources}
			if result.Degraded() {
				o.logger.Warn("provider degraded", "job", job.ID, "provider", name, "err", result.Err)
				patch.ProviderError = &core.ProviderError{Provider: name, Message: result.Err}
			}
			if _, err := o.store.Update(ctx, job.ID, patch); err != nil && !errors.Is(err, storage.ErrNotFound) {
				o.logger.Warn("failed to record provider result", "job", job.ID, "provider", name, "err", err)
			}
			o.monitor.ProviderFinished(job.ID, result, elapsed)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// callProvider runs one provider with a timeout and panic recovery. Both
// produce the provider's fallback degraded result.
func (o *Orchestrator) callProvider(ctx context.Context, provider retrieval.Provider, query string, opts core.Options) core.SourceResult {
	name := provider.Name()
	ctx, cancel := context.WithTimeout(ctx, o.providerTimeout)
	defer cancel()

	out := make(chan core.SourceResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				o.logger.Error("provider panicked", "provider", name, "panic", r)
				out <- retrieval.Failed(name, retrieval.FallbackMessage(name))
			}
		}()
		out <- provider.Fetch(ctx, query, opts)
	}()

	select {
	case result := <-out:
		result.Provider = name
		if result.Sources == nil {
			result.Sources = []core.Citation{}
		}
		return result
	case <-ctx.Done():
		o.logger.Warn("provider timed out", "provider", name, "err", ctx.Err())
		return retrieval.Failed(name, retrieval.FallbackMessage(name))
	}
}

// finish applies a terminal patch. Reports whether the store accepted it.
func (o *Orchestrator) finish(ctx context.Context, id string, patch core.JobPatch) bool {
	_, err := o.store.Update(ctx, id, patch)
	switch {
	case err == nil:
		return true
	case errors.Is(err, storage.ErrNotFound):
		o.logger.Debug("job deleted while running", "job", id)
	default:
		o.logger.Error("failed to finish job", "job", id, "err", err)
		o.fail(ctx, id, "internal error: "+err.Error())
	}
	return false
}

// fail marks a job failed unless it is already terminal or gone.
func (o *Orchestrator) fail(ctx context.Context, id, msg string) {
	completedAt := o.now().UTC()
	_, err := o.store.Update(ctx, id, core.JobPatch{
		Status:      core.StatusPtr(core.StatusFailed),
		Error:       core.StringPtr(msg),
		CompletedAt: &completedAt,
	})
	if err != nil && !errors.Is(err, storage.ErrNotFound) && !errors.Is(err, core.ErrTerminalState) {
		o.logger.Error("failed to mark job failed", "job", id, "err", err)
	}
}

// release wakes Await callers for id.
func (o *Orchestrator) release(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if done, ok := o.waiters[id]; ok {
		close(done)
		delete(o.waiters, id)
	}
}
