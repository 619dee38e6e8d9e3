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

package storage

import (
	"context"
	"time"

	"github.com/poiesic/lexresearch/core"
)

// JobStore is the registry of research jobs keyed by job ID.
//
// Implementations must be safe for concurrent use across different keys.
// Returned jobs are copies: callers never share memory with the store.
type JobStore interface {
	// Create registers a new job.
	// Returns ErrDuplicateKey if a job with the same ID exists.
	Create(ctx context.Context, job *core.Job) error

	// Get returns a copy of the job.
	// Returns ErrNotFound if the job doesn't exist.
	Get(ctx context.Context, id string) (*core.Job, error)

	// List returns summaries of all jobs ordered by StartedAt, then ID.
	List(ctx context.Context) ([]core.JobSummary, error)

	// Update merges patch into the job atomically and returns the result.
	// Returns ErrNotFound if the job doesn't exist, or the core state
	// machine error if the patch is not allowed.
	Update(ctx context.Context, id string, patch core.JobPatch) (*core.Job, error)

	// Delete removes the job.
	// Returns ErrNotFound if the job doesn't exist.
	Delete(ctx context.Context, id string) error

	// DeleteCompletedBefore removes terminal jobs whose CompletedAt is
	// before cutoff and returns how many were removed.
	DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int, error)

	// Close releases resources. Later calls return ErrStorageClosed.
	Close() error
}
