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
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/lexresearch/core"
	"github.com/poiesic/lexresearch/retrieval"
	"github.com/poiesic/lexresearch/storage"
	"github.com/poiesic/lexresearch/synthesis"
)

// SubmittedMessage is returned with every accepted submission.
const SubmittedMessage = "Research started. Use the job ID to check status."

// Synthesizer merges provider results into a report. Satisfied by
// *synthesis.Engine.
type Synthesizer interface {
	Synthesize(ctx context.Context, req synthesis.Request) (*synthesis.Report, error)
}

var _ Synthesizer = (*synthesis.Engine)(nil)

// SubmitRequest is a new research job. A nil Providers list selects the
// default providers; an empty non-nil list runs no providers.
type SubmitRequest struct {
	Query     string
	Providers []string
	Options   core.Options
}

// Submission acknowledges an accepted job.
type Submission struct {
	JobID   string
	Status  core.JobStatus
	Message string
}

// Orchestrator accepts research jobs and runs them in the background.
type Orchestrator struct {
	store     storage.JobStore
	engine    Synthesizer
	providers map[string]retrieval.Provider

	pool            *ants.Pool
	maxJobs         int
	providerTimeout time.Duration
	jobTTL          time.Duration
	sweepInterval   time.Duration
	strict          bool
	monitor         JobMonitor
	now             func() time.Time
	logger          *slog.Logger

	// ctx outlives the requests that submit jobs; Close cancels it.
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	closed  bool
	running sync.WaitGroup
	waiters map[string]chan struct{}

	stopSweep chan struct{}
	sweepDone chan struct{}
}

// New creates an orchestrator. Provider names must be unique.
func New(store storage.JobStore, engine Synthesizer, providers []retrieval.Provider, opts ...Option) (*Orchestrator, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	if engine == nil {
		return nil, ErrNilSynthesizer
	}

	o := &Orchestrator{
		store:           store,
		engine:          engine,
		providers:       make(map[string]retrieval.Provider, len(providers)),
		maxJobs:         DefaultMaxConcurrentJobs,
		providerTimeout: DefaultProviderTimeout,
		strict:          true,
		monitor:         &noopMonitor{},
		now:             time.Now,
		logger:          slog.Default().With("component", "orchestrator"),
		waiters:         make(map[string]chan struct{}),
	}
	for _, p := range providers {
		if p == nil {
			continue
		}
		if _, dup := o.providers[p.Name()]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateProvider, p.Name())
		}
		o.providers[p.Name()] = p
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	size := o.maxJobs
	if size == 0 {
		size = -1
	}
	pool, err := ants.NewPool(size,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(p any) {
			o.logger.Error("job worker panicked", "panic", p)
		}),
	)
	if err != nil {
		return nil, err
	}
	o.pool = pool
	o.ctx, o.cancel = context.WithCancel(context.Background())

	if o.jobTTL > 0 {
		if o.sweepInterval == 0 {
			o.sweepInterval = DefaultSweepInterval
		}
		o.stopSweep = make(chan struct{})
		o.sweepDone = make(chan struct{})
		go o.sweepLoop()
	}

	o.logger.Info("orchestrator ready", "providers", o.ProviderNames(), "maxJobs", o.maxJobs)
	return o, nil
}

// ProviderNames returns the registered provider names, sorted.
func (o *Orchestrator) ProviderNames() []string {
	names := make([]string, 0, len(o.providers))
	for name := range o.providers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Submit validates the request, records a pending job and schedules it.
// It never waits on providers. Validation failures wrap
// core.ErrInvalidRequest and create no job.
func (o *Orchestrator) Submit(ctx context.Context, req SubmitRequest) (*Submission, error) {
	validation := core.ValidateQuery(req.Query)
	if err := validation.Err(); err != nil {
		return nil, err
	}
	opts, err := core.NormalizeOptions(req.Options)
	if err != nil {
		return nil, err
	}
	providers, err := o.resolveProviders(req.Providers)
	if err != nil {
		return nil, err
	}

	job := core.NewJob(core.NewJobID(), req.Query, providers, opts, validation, o.now().UTC())

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil, ErrClosed
	}
	o.running.Add(1)
	done := make(chan struct{})
	o.waiters[job.ID] = done
	o.mu.Unlock()

	abandon := func() {
		o.mu.Lock()
		delete(o.waiters, job.ID)
		o.mu.Unlock()
		o.running.Done()
	}

	if err := o.store.Create(ctx, job); err != nil {
		abandon()
		return nil, err
	}

	o.monitor.JobSubmitted(job.ID, job.Query)
	err = o.pool.Submit(func() {
		defer o.running.Done()
		o.run(job)
	})
	if err != nil {
		abandon()
		if delErr := o.store.Delete(context.WithoutCancel(ctx), job.ID); delErr != nil {
			o.logger.Warn("failed to remove unscheduled job", "job", job.ID, "err", delErr)
		}
		if errors.Is(err, ants.ErrPoolOverload) {
			o.logger.Warn("rejecting job, pool is full", "running", o.pool.Running())
			return nil, ErrBusy
		}
		if errors.Is(err, ants.ErrPoolClosed) {
			return nil, ErrClosed
		}
		return nil, err
	}

	o.logger.Info("job submitted", "job", job.ID, "providers", providers)
	return &Submission{
		JobID:   job.ID,
		Status:  core.StatusPending,
		Message: SubmittedMessage,
	}, nil
}

func (o *Orchestrator) resolveProviders(requested []string) ([]string, error) {
	if requested == nil {
		requested = core.DefaultProviders
	}
	resolved := make([]string, 0, len(requested))
	for _, name := range requested {
		if slices.Contains(resolved, name) {
			continue
		}
		if _, ok := o.providers[name]; !ok {
			if o.strict {
				return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
			}
			o.logger.Debug("dropping unknown provider", "provider", name)
			continue
		}
		resolved = append(resolved, name)
	}
	return resolved, nil
}

// Get returns a snapshot of the job.
func (o *Orchestrator) Get(ctx context.Context, id string) (*core.Job, error) {
	return o.store.Get(ctx, id)
}

// List returns summaries of all jobs.
func (o *Orchestrator) List(ctx context.Context) ([]core.JobSummary, error) {
	return o.store.List(ctx)
}

// Delete removes a job. A job deleted while running finishes silently.
func (o *Orchestrator) Delete(ctx context.Context, id string) error {
	return o.store.Delete(ctx, id)
}

// Sources returns the citations collected for a job so far.
func (o *Orchestrator) Sources(ctx context.Context, id string) ([]core.Citation, error) {
	job, err := o.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return job.Sources, nil
}

// Await blocks until the job reaches a terminal status or ctx is done, and
// returns the latest snapshot.
func (o *Orchestrator) Await(ctx context.Context, id string) (*core.Job, error) {
	o.mu.Lock()
	done, ok := o.waiters[id]
	o.mu.Unlock()

	if ok {
		select {
		case <-done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return o.store.Get(ctx, id)
}

// Close stops accepting jobs, stops the expiry sweep and waits for running
// jobs. If ctx ends first, running jobs are cancelled and ctx.Err() is
// returned once they have stopped.
func (o *Orchestrator) Close(ctx context.Context) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	o.mu.Unlock()

	if o.stopSweep != nil {
		close(o.stopSweep)
		<-o.sweepDone
	}

	idle := make(chan struct{})
	go func() {
		o.running.Wait()
		close(idle)
	}()

	var err error
	select {
	case <-idle:
	case <-ctx.Done():
		o.logger.Warn("cancelling running jobs")
		o.cancel()
		<-idle
		err = ctx.Err()
	}
	o.cancel()
	o.pool.Release()
	o.logger.Info("orchestrator closed")
	return err
}
