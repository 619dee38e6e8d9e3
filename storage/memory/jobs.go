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

package memory

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/poiesic/lexresearch/core"
	"github.com/poiesic/lexresearch/storage"
)

// JobStore is an in-process storage.JobStore. A single RWMutex guards the
// map; every job is copied on the way in and on the way out.
type JobStore struct {
	mu     sync.RWMutex
	jobs   map[string]*core.Job
	closed bool
	logger *slog.Logger
}

var _ storage.JobStore = (*JobStore)(nil)

// NewJobStore creates an empty in-memory job store.
func NewJobStore() storage.JobStore {
	return newJobStore()
}

func newJobStore() *JobStore {
	return &JobStore{
		jobs:   make(map[string]*core.Job),
		logger: slog.Default().With("component", "memory-job-store"),
	}
}

// Create registers a copy of job.
func (s *JobStore) Create(ctx context.Context, job *core.Job) error {
	if job == nil || job.ID == "" {
		return storage.ErrInvalidQuery
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrStorageClosed
	}
	if _, exists := s.jobs[job.ID]; exists {
		return storage.ErrDuplicateKey
	}
	s.jobs[job.ID] = job.Clone()
	s.logger.Debug("created job", "id", job.ID)
	return nil
}

// Get returns a copy of the job with the given ID.
func (s *JobStore) Get(ctx context.Context, id string) (*core.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, storage.ErrStorageClosed
	}
	job, ok := s.jobs[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return job.Clone(), nil
}

// List returns job summaries ordered by StartedAt, then ID.
func (s *JobStore) List(ctx context.Context) ([]core.JobSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, storage.ErrStorageClosed
	}

	summaries := make([]core.JobSummary, 0, len(s.jobs))
	for _, job := range s.jobs {
		summaries = append(summaries, job.Summary())
	}
	slices.SortFunc(summaries, func(a, b core.JobSummary) int {
		if c := a.StartedAt.Compare(b.StartedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return summaries, nil
}

// Update applies patch to the stored job under the write lock.
func (s *JobStore) Update(ctx context.Context, id string, patch core.JobPatch) (*core.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, storage.ErrStorageClosed
	}
	job, ok := s.jobs[id]
	if !ok {
		return nil, storage.ErrNotFound
	}

	// Apply to a copy so a rejected patch leaves the stored job untouched
	updated := job.Clone()
	if err := updated.Apply(patch); err != nil {
		return nil, err
	}
	s.jobs[id] = updated
	return updated.Clone(), nil
}

// Delete removes the job with the given ID.
func (s *JobStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrStorageClosed
	}
	if _, ok := s.jobs[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.jobs, id)
	s.logger.Debug("deleted job", "id", id)
	return nil
}

// DeleteCompletedBefore removes terminal jobs that completed before cutoff.
func (s *JobStore) DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, storage.ErrStorageClosed
	}

	removed := 0
	for id, job := range s.jobs {
		if job.Status.IsTerminal() && job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(s.jobs, id)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Debug("expired jobs", "count", removed, "cutoff", cutoff)
	}
	return removed, nil
}

// Close drops all jobs. Later calls return storage.ErrStorageClosed.
func (s *JobStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.jobs = nil
	return nil
}

// Len returns the number of stored jobs.
func (s *JobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}
